package main

import (
	"encoding/json"
	"fmt"
	"os"

	"pixelgene/internal/gene"
	"pixelgene/internal/synth"
	"pixelgene/pkg/pixelgene"
)

// renderConfig is the flat request shape shared by the random and render
// commands. JSON config files and flags both fill it.
type renderConfig struct {
	Kind         string
	Width        int
	Height       int
	MinHidden    int
	MaxHidden    int
	OutputPath   string
	Seed         int64
	Workers      int
	ReportDir    string
	ReportFormat string
}

// defaultRenderConfig leaves OutputPath empty so each generator kind keeps
// its own default file name.
func defaultRenderConfig() renderConfig {
	def := synth.DefaultCPPNConfig()
	return renderConfig{
		Kind:      "cppn",
		Width:     def.Width,
		Height:    def.Height,
		MinHidden: def.MinHidden,
		MaxHidden: def.MaxHidden,
	}
}

// loadRenderConfig reads a JSON config file over cfg. Keys absent from the
// file keep their value in cfg.
func loadRenderConfig(path string, cfg renderConfig) (renderConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return renderConfig{}, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return renderConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v, ok := asString(raw["kind"]); ok {
		cfg.Kind = v
	}
	if v, ok := asInt(raw["width"]); ok {
		cfg.Width = v
	}
	if v, ok := asInt(raw["height"]); ok {
		cfg.Height = v
	}
	if v, ok := asInt(raw["min_hidden"]); ok {
		cfg.MinHidden = v
	}
	if v, ok := asInt(raw["max_hidden"]); ok {
		cfg.MaxHidden = v
	}
	if v, ok := asString(raw["output_path"]); ok {
		cfg.OutputPath = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.Seed = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		cfg.Workers = v
	}
	if v, ok := asString(raw["report_dir"]); ok {
		cfg.ReportDir = v
	}
	if v, ok := asString(raw["report_format"]); ok {
		cfg.ReportFormat = v
	}
	return cfg, nil
}

// loadGeneFile reads a gene written as [[selector, enable, weight, ...], ...].
func loadGeneFile(path string) (gene.Segments, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values [][]int64
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parse gene %s: %w", path, err)
	}
	return gene.FromInts(values)
}

func (c renderConfig) cppn() synth.CPPNConfig {
	return synth.CPPNConfig{
		Width:      c.Width,
		Height:     c.Height,
		MinHidden:  c.MinHidden,
		MaxHidden:  c.MaxHidden,
		OutputPath: c.OutputPath,
	}
}

func (c renderConfig) direct() synth.DirectConfig {
	return synth.DirectConfig{Width: c.Width, Height: c.Height, OutputPath: c.OutputPath}
}

func (c renderConfig) randomRequest() pixelgene.RandomRequest {
	return pixelgene.RandomRequest{Kind: c.Kind, Seed: c.Seed, CPPN: c.cppn(), Direct: c.direct()}
}

func (c renderConfig) renderRequest(geneID string) pixelgene.RenderRequest {
	return pixelgene.RenderRequest{
		GeneID:       geneID,
		Kind:         c.Kind,
		CPPN:         c.cppn(),
		Direct:       c.direct(),
		ReportDir:    c.ReportDir,
		ReportFormat: c.ReportFormat,
	}
}

// overrideFromFlags applies only the flags that were set explicitly, so a
// config file value survives unless the command line names it.
func overrideFromFlags(cfg *renderConfig, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "kind":
			cfg.Kind = v.(string)
		case "width":
			cfg.Width = v.(int)
		case "height":
			cfg.Height = v.(int)
		case "min-hidden":
			cfg.MinHidden = v.(int)
		case "max-hidden":
			cfg.MaxHidden = v.(int)
		case "out":
			cfg.OutputPath = v.(string)
		case "seed":
			cfg.Seed = v.(int64)
		case "workers":
			cfg.Workers = v.(int)
		case "report-dir":
			cfg.ReportDir = v.(string)
		case "report-format":
			cfg.ReportFormat = v.(string)
		}
	}
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}
