package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"pixelgene/internal/model"
	"pixelgene/internal/report"
	"pixelgene/internal/storage"
	"pixelgene/pkg/pixelgene"
)

const defaultDBPath = "pixelgene.db"

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "random":
		return runRandom(ctx, args[1:])
	case "render":
		return runRender(ctx, args[1:])
	case "genes":
		return runGenes(ctx, args[1:])
	case "report":
		return runReport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

// storeFlags are shared by every command.
type storeFlags struct {
	storeKind *string
	dbPath    *string
	verbose   *bool
}

func addStoreFlags(fs *flag.FlagSet) storeFlags {
	return storeFlags{
		storeKind: fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:    fs.String("db-path", defaultDBPath, "sqlite database path"),
		verbose:   fs.Bool("v", false, "debug logging"),
	}
}

func (f storeFlags) open(workers int) (*pixelgene.Client, error) {
	logger := newLogger(os.Stderr, *f.verbose)
	pixelgene.SetLogger(logger)
	return pixelgene.New(pixelgene.Options{
		StoreKind: *f.storeKind,
		DBPath:    *f.dbPath,
		Workers:   workers,
		Logger:    logger,
	})
}

// addRenderFlags registers the request flags on fs. Only the flags a user sets
// override the config file.
func addRenderFlags(fs *flag.FlagSet) (configPath *string, flagValue map[string]any) {
	def := defaultRenderConfig()
	configPath = fs.String("config", "", "JSON render config file")
	flagValue = map[string]any{}
	flagValue["kind"] = fs.String("kind", def.Kind, "generator kind: cppn|direct")
	intFlag := func(name string, value int, usage string) {
		p := fs.Int(name, value, usage)
		flagValue[name] = p
	}
	intFlag("width", def.Width, "image width in pixels")
	intFlag("height", def.Height, "image height in pixels")
	intFlag("min-hidden", def.MinHidden, "minimum hidden units (cppn)")
	intFlag("max-hidden", def.MaxHidden, "maximum hidden units, exclusive (cppn)")
	intFlag("workers", 0, "render goroutines, 0 uses GOMAXPROCS")
	flagValue["seed"] = fs.Int64("seed", 0, "random seed")
	flagValue["out"] = fs.String("out", "", "output image path (.png, .jpg, .bmp, .tiff)")
	flagValue["report-dir"] = fs.String("report-dir", "", "also write the network report into this directory")
	flagValue["report-format"] = fs.String("report-format", report.FormatXML, "report file format: xml|json")
	return configPath, flagValue
}

// resolveRenderConfig layers defaults, the optional config file and the
// explicitly set flags.
func resolveRenderConfig(fs *flag.FlagSet, configPath string, flagValue map[string]any) (renderConfig, error) {
	cfg := defaultRenderConfig()
	if configPath != "" {
		loaded, err := loadRenderConfig(configPath, cfg)
		if err != nil {
			return renderConfig{}, err
		}
		cfg = loaded
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	values := make(map[string]any, len(flagValue))
	for name, v := range flagValue {
		switch p := v.(type) {
		case *int:
			values[name] = *p
		case *int64:
			values[name] = *p
		case *string:
			values[name] = *p
		}
	}
	overrideFromFlags(&cfg, set, values)
	return cfg, nil
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := sf.open(0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *sf.storeKind)
	return nil
}

func runRandom(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("random", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	configPath, flagValue := addRenderFlags(fs)
	noRender := fs.Bool("no-render", false, "only store the random gene")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := resolveRenderConfig(fs, *configPath, flagValue)
	if err != nil {
		return err
	}

	client, err := sf.open(cfg.Workers)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	record, err := client.RandomGene(ctx, cfg.randomRequest())
	if err != nil {
		return err
	}
	fmt.Printf("gene=%s kind=%s seed=%d segments=%d\n", record.ID, record.Kind, record.Seed, len(record.Segments))
	if *noRender {
		return nil
	}

	summary, err := client.Render(ctx, cfg.renderRequest(record.ID))
	if err != nil {
		return err
	}
	printSummary(os.Stdout, summary)
	return nil
}

func runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	configPath, flagValue := addRenderFlags(fs)
	geneID := fs.String("gene-id", "", "stored gene id")
	geneFile := fs.String("gene-file", "", "JSON file holding the gene as an array of integer segments")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*geneID == "") == (*geneFile == "") {
		return errors.New("render requires exactly one of --gene-id or --gene-file")
	}
	cfg, err := resolveRenderConfig(fs, *configPath, flagValue)
	if err != nil {
		return err
	}
	req := cfg.renderRequest(*geneID)
	if *geneFile != "" {
		req.Gene, err = loadGeneFile(*geneFile)
		if err != nil {
			return err
		}
	}

	client, err := sf.open(cfg.Workers)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Render(ctx, req)
	if err != nil {
		return err
	}
	printSummary(os.Stdout, summary)
	return nil
}

func runGenes(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("genes", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	limit := fs.Int("limit", 20, "max genes to list")
	jsonOut := fs.Bool("json", false, "emit genes list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := sf.open(0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	genes, err := client.Genes(ctx, *limit)
	if err != nil {
		return err
	}
	if *jsonOut {
		type geneItem struct {
			ID           string `json:"id"`
			Kind         string `json:"kind"`
			Seed         int64  `json:"seed"`
			Segments     int    `json:"segments"`
			SegmentWidth int    `json:"segment_width"`
			CreatedAtUTC string `json:"created_at_utc"`
		}
		items := make([]geneItem, 0, len(genes))
		for _, g := range genes {
			items = append(items, geneItem{
				ID:           g.ID,
				Kind:         g.Kind,
				Seed:         g.Seed,
				Segments:     len(g.Segments),
				SegmentWidth: g.SegmentWidth,
				CreatedAtUTC: g.CreatedAtUTC,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	if len(genes) == 0 {
		fmt.Println("no genes found")
		return nil
	}
	for _, g := range genes {
		fmt.Printf("gene=%s kind=%s seed=%d segments=%d created=%s\n",
			g.ID, g.Kind, g.Seed, len(g.Segments), relativeTime(g.CreatedAtUTC))
	}
	return nil
}

func runReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	sf := addStoreFlags(fs)
	geneID := fs.String("gene-id", "", "gene whose render reports to print")
	reportID := fs.String("report-id", "", "single report to print")
	format := fs.String("format", report.FormatXML, "output format: xml|json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*geneID == "") == (*reportID == "") {
		return errors.New("report requires exactly one of --gene-id or --report-id")
	}

	client, err := sf.open(0)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	var records []model.ReportRecord
	if *reportID != "" {
		record, err := client.Report(ctx, *reportID)
		if err != nil {
			return err
		}
		records = append(records, record)
	} else {
		records, err = client.Reports(ctx, *geneID)
		if err != nil {
			return err
		}
	}
	if len(records) == 0 {
		fmt.Println("no reports found")
		return nil
	}
	for _, record := range records {
		if err := report.Write(os.Stdout, record.Report, *format); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, s pixelgene.RenderSummary) {
	fmt.Fprintf(w, "rendered gene=%s kind=%s size=%dx%d pixels=%s units=%d\n",
		s.GeneID, s.Kind, s.Width, s.Height, humanize.Comma(int64(s.Width)*int64(s.Height)), s.Units)
	if !s.ImageSaved {
		fmt.Fprintf(w, "image not saved: %s\n", s.OutputPath)
	} else if info, err := os.Stat(s.OutputPath); err == nil {
		fmt.Fprintf(w, "image=%s (%s)\n", s.OutputPath, humanize.Bytes(uint64(info.Size())))
	}
	if s.ReportPath != "" {
		fmt.Fprintf(w, "report=%s\n", s.ReportPath)
	}
}

func relativeTime(rfc3339 string) string {
	t, err := time.Parse(time.RFC3339, rfc3339)
	if err != nil {
		return rfc3339
	}
	return humanize.Time(t)
}

// newLogger writes human-readable text to a terminal and JSON lines
// everywhere else.
func newLogger(out *os.File, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: pixelgenectl <init|random|render|genes|report> [flags]", msg)
}
