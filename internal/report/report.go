package report

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"pixelgene/internal/model"
	"pixelgene/internal/nn"
)

const (
	FormatXML  = "xml"
	FormatJSON = "json"
)

type xmlNetwork struct {
	XMLName xml.Name    `xml:"network"`
	Type    string      `xml:"type,attr"`
	Config  []xmlConfig `xml:"config"`
	Neurons []xmlNeuron `xml:"neuron"`
}

type xmlConfig struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

type xmlNeuron struct {
	ID          int             `xml:"id,attr"`
	Function    string          `xml:"function,attr"`
	Inputs      []xmlInput      `xml:"input"`
	Connections []xmlConnection `xml:"connection"`
}

type xmlInput struct {
	Index  int    `xml:"index,attr"`
	Weight string `xml:"weight,attr"`
}

type xmlConnection struct {
	Neuron int    `xml:"neuron,attr"`
	Weight string `xml:"weight,attr"`
}

// WriteXML writes the report with sorted config keys and input indices.
// Fixed inputs (bias, x, y, radius) are written as <input>, references to
// earlier units as <connection>.
func WriteXML(w io.Writer, r model.NetworkReport) error {
	doc := xmlNetwork{Type: r.Kind}
	for _, key := range sortedKeys(r.Config) {
		doc.Config = append(doc.Config, xmlConfig{Key: key, Value: r.Config[key]})
	}
	for _, unit := range r.Units {
		neuron := xmlNeuron{ID: unit.Index, Function: unit.Activation}
		indices := make([]int, 0, len(unit.Inputs))
		for idx := range unit.Inputs {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			weight := strconv.FormatFloat(unit.Inputs[idx], 'g', -1, 64)
			if idx < nn.InputCount {
				neuron.Inputs = append(neuron.Inputs, xmlInput{Index: idx, Weight: weight})
				continue
			}
			neuron.Connections = append(neuron.Connections, xmlConnection{Neuron: idx - nn.InputCount, Weight: weight})
		}
		doc.Neurons = append(doc.Neurons, neuron)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func WriteJSON(w io.Writer, r model.NetworkReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func Write(w io.Writer, r model.NetworkReport, format string) error {
	switch format {
	case "", FormatXML:
		return WriteXML(w, r)
	case FormatJSON:
		return WriteJSON(w, r)
	default:
		return fmt.Errorf("unsupported report format: %s", format)
	}
}

// FileSink writes each report to Dir/<kind>-<name>.<format>. An empty Name
// gets a fresh UUID per report. Safe for concurrent use.
type FileSink struct {
	Dir    string
	Format string
	Name   string

	mu       sync.Mutex
	lastPath string
}

// LastPath returns the file written by the most recent SaveReport call.
func (s *FileSink) LastPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPath
}

func (s *FileSink) SaveReport(ctx context.Context, r model.NetworkReport) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.Dir == "" {
		return errors.New("report directory is required")
	}
	format := s.Format
	if format == "" {
		format = FormatXML
	}
	if format != FormatXML && format != FormatJSON {
		return fmt.Errorf("unsupported report format: %s", format)
	}
	name := s.Name
	if name == "" {
		name = uuid.NewString()
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}

	path := filepath.Join(s.Dir, fmt.Sprintf("%s-%s.%s", r.Kind, name, format))
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
	}()
	if err := Write(f, r, format); err != nil {
		return err
	}
	s.mu.Lock()
	s.lastPath = path
	s.mu.Unlock()
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
