package pixelgene

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pixelgene/internal/gene"
	"pixelgene/internal/model"
	"pixelgene/internal/synth"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", Workers: 2})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	return client
}

func TestClientRandomGeneAndRenderCPPN(t *testing.T) {
	client := newTestClient(t)
	out := filepath.Join(t.TempDir(), "cppn.png")
	cfg := synth.CPPNConfig{Width: 8, Height: 6, MinHidden: 1, MaxHidden: 4, OutputPath: out}

	record, err := client.RandomGene(context.Background(), RandomRequest{Seed: 7, CPPN: cfg})
	if err != nil {
		t.Fatalf("random gene: %v", err)
	}
	if record.Kind != model.KindCPPN {
		t.Fatalf("expected default kind cppn, got %q", record.Kind)
	}
	if record.SegmentWidth != cfg.SegmentWidth() {
		t.Fatalf("unexpected segment width: got %d want %d", record.SegmentWidth, cfg.SegmentWidth())
	}
	if n := len(record.Segments); n < 4 || n > 6 {
		t.Fatalf("unexpected segment count: %d", n)
	}

	summary, err := client.Render(context.Background(), RenderRequest{GeneID: record.ID, CPPN: cfg})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if summary.Width != 8 || summary.Height != 6 {
		t.Fatalf("unexpected size: %dx%d", summary.Width, summary.Height)
	}
	if summary.Units != len(record.Segments) {
		t.Fatalf("expected one report unit per segment, got %d", summary.Units)
	}
	if !summary.ImageSaved || summary.OutputPath != out {
		t.Fatalf("expected image at %s, summary=%+v", out, summary)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if summary.ReportID == "" {
		t.Fatal("expected stored report id")
	}

	reports, err := client.Reports(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("reports: %v", err)
	}
	if len(reports) != 1 || reports[0].ID != summary.ReportID {
		t.Fatalf("unexpected reports: %+v", reports)
	}
	if reports[0].OutputPath != out || reports[0].Report.Kind != "ImageCPPNGenerator" {
		t.Fatalf("unexpected report record: %+v", reports[0])
	}

	got, err := client.Report(context.Background(), summary.ReportID)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if got.GeneID != record.ID || len(got.Report.Units) != summary.Units {
		t.Fatalf("unexpected report: %+v", got)
	}
	if _, err := client.Report(context.Background(), "missing"); !errors.Is(err, ErrReportNotFound) {
		t.Fatalf("expected ErrReportNotFound, got %v", err)
	}
}

func TestClientRandomGeneIsSeeded(t *testing.T) {
	client := newTestClient(t)
	cfg := synth.CPPNConfig{Width: 4, Height: 4, MinHidden: 0, MaxHidden: 3}

	a, err := client.RandomGene(context.Background(), RandomRequest{Seed: 11, CPPN: cfg})
	if err != nil {
		t.Fatalf("random gene a: %v", err)
	}
	b, err := client.RandomGene(context.Background(), RandomRequest{Seed: 11, CPPN: cfg})
	if err != nil {
		t.Fatalf("random gene b: %v", err)
	}
	if a.ID == b.ID {
		t.Fatal("expected distinct record ids")
	}
	if len(a.Segments) != len(b.Segments) {
		t.Fatalf("same seed produced different sizes: %d vs %d", len(a.Segments), len(b.Segments))
	}
	for i := range a.Segments {
		for j := range a.Segments[i] {
			if a.Segments[i][j] != b.Segments[i][j] {
				t.Fatalf("same seed produced different genes at %d,%d", i, j)
			}
		}
	}

	genes, err := client.Genes(context.Background(), 0)
	if err != nil {
		t.Fatalf("genes: %v", err)
	}
	if len(genes) != 2 || genes[0].ID != b.ID {
		t.Fatalf("expected newest gene first: %+v", genes)
	}
}

func TestClientRenderDirectInlineGene(t *testing.T) {
	client := newTestClient(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "direct.bmp")

	summary, err := client.Render(context.Background(), RenderRequest{
		Kind:         model.KindDirect,
		Gene:         gene.Segments{{0, 0, 0}, {math.MaxInt32, math.MaxInt32, math.MaxInt32}},
		Direct:       synth.DirectConfig{Width: 2, Height: 1, OutputPath: out},
		ReportDir:    filepath.Join(dir, "reports"),
		ReportFormat: "json",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if summary.GeneID == "" || summary.Kind != model.KindDirect {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if got := summary.Image.RGBAAt(1, 0); got.R != 255 || got.G != 255 || got.B != 255 {
		t.Fatalf("unexpected pixel (1,0): %+v", got)
	}
	if got := summary.Image.RGBAAt(0, 0); got.R != 0 || got.G != 0 || got.B != 0 {
		t.Fatalf("unexpected pixel (0,0): %+v", got)
	}
	if !strings.HasSuffix(summary.ReportPath, ".json") {
		t.Fatalf("expected json report file, got %q", summary.ReportPath)
	}
	if _, err := os.Stat(summary.ReportPath); err != nil {
		t.Fatalf("stat report: %v", err)
	}

	stored, err := client.Genes(context.Background(), 1)
	if err != nil {
		t.Fatalf("genes: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != summary.GeneID {
		t.Fatalf("expected inline gene to be stored: %+v", stored)
	}
}

func TestClientRenderSaveFailureIsNotFatal(t *testing.T) {
	var buf bytes.Buffer
	client, err := New(Options{
		StoreKind: "memory",
		Logger:    slog.New(slog.NewTextHandler(&buf, nil)),
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})

	summary, err := client.Render(context.Background(), RenderRequest{
		Kind:   model.KindDirect,
		Gene:   gene.Segments{{1, 2, 3}},
		Direct: synth.DirectConfig{Width: 1, Height: 1, OutputPath: filepath.Join(t.TempDir(), "out.gif")},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if summary.ImageSaved {
		t.Fatal("expected unsupported extension to skip saving")
	}
	if summary.Image == nil {
		t.Fatal("expected in-memory image")
	}
	if !strings.Contains(buf.String(), "could not save image") {
		t.Fatalf("expected save failure to be logged, got %q", buf.String())
	}
}

func TestClientRenderErrors(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	if _, err := client.Render(ctx, RenderRequest{GeneID: "missing"}); !errors.Is(err, ErrGeneNotFound) {
		t.Fatalf("expected ErrGeneNotFound, got %v", err)
	}
	if _, err := client.Render(ctx, RenderRequest{}); err == nil {
		t.Fatal("expected error without gene")
	}
	if _, err := client.Render(ctx, RenderRequest{Kind: "voxel", Gene: gene.Segments{{1}}}); err == nil {
		t.Fatal("expected unsupported kind error")
	}
	if _, err := client.Render(ctx, RenderRequest{
		Kind:   model.KindDirect,
		Gene:   gene.Segments{{1, 2, 3}},
		Direct: synth.DirectConfig{Width: 2, Height: 2, OutputPath: filepath.Join(t.TempDir(), "x.png")},
	}); !errors.Is(err, synth.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
	if _, err := client.RandomGene(ctx, RandomRequest{Kind: "voxel"}); err == nil {
		t.Fatal("expected unsupported kind error")
	}
	if _, err := client.RandomGene(ctx, RandomRequest{CPPN: synth.CPPNConfig{Width: 4, Height: 4, MinHidden: 5, MaxHidden: 2}}); !errors.Is(err, synth.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}

func TestWithCPPNDefaults(t *testing.T) {
	if got := withCPPNDefaults(synth.CPPNConfig{}); got != synth.DefaultCPPNConfig() {
		t.Fatalf("zero config should take defaults, got %+v", got)
	}
	got := withCPPNDefaults(synth.CPPNConfig{MaxHidden: 2})
	def := synth.DefaultCPPNConfig()
	if got.Width != def.Width || got.Height != def.Height || got.OutputPath != def.OutputPath {
		t.Fatalf("expected size and path defaults, got %+v", got)
	}
	if got.MinHidden != 0 || got.MaxHidden != 2 {
		t.Fatalf("hidden bounds must be kept, got %+v", got)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { SetLogger(nil) })

	Logger().Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("expected configured logger to receive records, got %q", buf.String())
	}
}
