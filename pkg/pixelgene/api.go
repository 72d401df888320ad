package pixelgene

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"sync"

	"pixelgene/internal/gene"
	"pixelgene/internal/imageio"
	"pixelgene/internal/logging"
	"pixelgene/internal/model"
	"pixelgene/internal/report"
	"pixelgene/internal/storage"
	"pixelgene/internal/synth"
)

const defaultDBPath = "pixelgene.db"

var (
	ErrGeneNotFound   = errors.New("gene not found")
	ErrReportNotFound = errors.New("report not found")
)

type Options struct {
	StoreKind string
	DBPath    string
	// Workers caps the goroutines rendering one image; 0 uses GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

type Client struct {
	store   storage.Store
	workers int
	logger  *slog.Logger

	mu          sync.Mutex
	initialized bool
}

type RandomRequest struct {
	Kind   string
	Seed   int64
	CPPN   synth.CPPNConfig
	Direct synth.DirectConfig
}

type RenderRequest struct {
	// GeneID loads a stored gene; otherwise Gene is rendered and stored.
	GeneID string
	Gene   gene.Segments
	Kind   string
	CPPN   synth.CPPNConfig
	Direct synth.DirectConfig
	// ReportDir additionally writes the structural report as a file.
	ReportDir    string
	ReportFormat string
}

type RenderSummary struct {
	GeneID     string
	Kind       string
	ReportID   string
	ReportPath string
	OutputPath string
	ImageSaved bool
	Width      int
	Height     int
	Units      int
	Image      *image.RGBA
	Report     model.NetworkReport
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, workers: opts.Workers, logger: opts.Logger}, nil
}

// SetLogger configures logging for every package of the module. Silent by
// default.
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

func Logger() *slog.Logger {
	return logging.Logger()
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.ensureStore(ctx)
}

// RandomGene builds a random gene sized for the requested generator and
// stores it.
func (c *Client) RandomGene(ctx context.Context, req RandomRequest) (model.GeneRecord, error) {
	if err := c.ensureStore(ctx); err != nil {
		return model.GeneRecord{}, err
	}
	kind, err := normalizeKind(req.Kind)
	if err != nil {
		return model.GeneRecord{}, err
	}
	generator, err := c.newSynthesizer(kind, req.CPPN, req.Direct)
	if err != nil {
		return model.GeneRecord{}, err
	}

	g := generator.RandomGene(rand.New(rand.NewSource(req.Seed)))
	record := storage.NewGeneRecord(kind, req.Seed, g)
	if err := c.store.SaveGene(ctx, record); err != nil {
		return model.GeneRecord{}, err
	}
	c.log().Debug("random gene stored", "gene_id", record.ID, "kind", kind, "segments", len(record.Segments))
	return record, nil
}

func (c *Client) Render(ctx context.Context, req RenderRequest) (RenderSummary, error) {
	if err := c.ensureStore(ctx); err != nil {
		return RenderSummary{}, err
	}

	record, err := c.resolveGene(ctx, req)
	if err != nil {
		return RenderSummary{}, err
	}

	images := &trackingImageSink{sink: imageio.FileSink{}}
	stored := &storage.ReportSink{Store: c.store, GeneID: record.ID}
	sinks := reportFanOut{stored}
	var files *report.FileSink
	if req.ReportDir != "" {
		files = &report.FileSink{Dir: req.ReportDir, Format: req.ReportFormat, Name: record.ID}
		sinks = append(sinks, files)
	}

	cppnCfg, directCfg := withCPPNDefaults(req.CPPN), withDirectDefaults(req.Direct)
	outputPath := cppnCfg.OutputPath
	if record.Kind == model.KindDirect {
		outputPath = directCfg.OutputPath
	}
	stored.OutputPath = outputPath

	generator, err := c.newSynthesizer(record.Kind, cppnCfg, directCfg,
		synth.WithImageSink(images), synth.WithReportSink(sinks))
	if err != nil {
		return RenderSummary{}, err
	}

	res, err := generator.Synthesize(ctx, gene.Segments(record.Segments))
	if err != nil {
		return RenderSummary{}, fmt.Errorf("render gene %s: %w", record.ID, err)
	}

	summary := RenderSummary{
		GeneID:     record.ID,
		Kind:       record.Kind,
		ReportID:   stored.LastID(),
		OutputPath: outputPath,
		ImageSaved: images.saved,
		Width:      res.Image.Bounds().Dx(),
		Height:     res.Image.Bounds().Dy(),
		Units:      len(res.Report.Units),
		Image:      res.Image,
		Report:     res.Report,
	}
	if files != nil {
		summary.ReportPath = files.LastPath()
	}
	return summary, nil
}

func (c *Client) Genes(ctx context.Context, limit int) ([]model.GeneRecord, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	return c.store.ListGenes(ctx, limit)
}

func (c *Client) Reports(ctx context.Context, geneID string) ([]model.ReportRecord, error) {
	if err := c.ensureStore(ctx); err != nil {
		return nil, err
	}
	return c.store.ListReports(ctx, geneID)
}

func (c *Client) Report(ctx context.Context, reportID string) (model.ReportRecord, error) {
	if err := c.ensureStore(ctx); err != nil {
		return model.ReportRecord{}, err
	}
	record, ok, err := c.store.GetReport(ctx, reportID)
	if err != nil {
		return model.ReportRecord{}, err
	}
	if !ok {
		return model.ReportRecord{}, fmt.Errorf("%w: %s", ErrReportNotFound, reportID)
	}
	return record, nil
}

func (c *Client) resolveGene(ctx context.Context, req RenderRequest) (model.GeneRecord, error) {
	if req.GeneID != "" {
		record, ok, err := c.store.GetGene(ctx, req.GeneID)
		if err != nil {
			return model.GeneRecord{}, err
		}
		if !ok {
			return model.GeneRecord{}, fmt.Errorf("%w: %s", ErrGeneNotFound, req.GeneID)
		}
		if record.Kind == "" {
			record.Kind, err = normalizeKind(req.Kind)
			if err != nil {
				return model.GeneRecord{}, err
			}
		}
		return record, nil
	}
	if len(req.Gene) == 0 {
		return model.GeneRecord{}, errors.New("gene id or gene segments are required")
	}
	if err := req.Gene.Validate(); err != nil {
		return model.GeneRecord{}, err
	}
	kind, err := normalizeKind(req.Kind)
	if err != nil {
		return model.GeneRecord{}, err
	}
	record := storage.NewGeneRecord(kind, 0, req.Gene)
	if err := c.store.SaveGene(ctx, record); err != nil {
		return model.GeneRecord{}, err
	}
	return record, nil
}

func (c *Client) newSynthesizer(kind string, cppnCfg synth.CPPNConfig, directCfg synth.DirectConfig, extra ...synth.Option) (synth.GeneToImage, error) {
	opts := []synth.Option{synth.WithWorkers(c.workers)}
	if c.logger != nil {
		opts = append(opts, synth.WithLogger(c.logger))
	}
	opts = append(opts, extra...)

	switch kind {
	case model.KindCPPN:
		generator, err := synth.NewCPPN(withCPPNDefaults(cppnCfg), opts...)
		if err != nil {
			return nil, err
		}
		return generator, nil
	case model.KindDirect:
		generator, err := synth.NewDirect(withDirectDefaults(directCfg), opts...)
		if err != nil {
			return nil, err
		}
		return generator, nil
	default:
		return nil, fmt.Errorf("unsupported generator kind: %s", kind)
	}
}

func (c *Client) ensureStore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func (c *Client) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return logging.Logger()
}

func normalizeKind(kind string) (string, error) {
	switch kind {
	case "", model.KindCPPN:
		return model.KindCPPN, nil
	case model.KindDirect:
		return model.KindDirect, nil
	default:
		return "", fmt.Errorf("unsupported generator kind: %s", kind)
	}
}

// withCPPNDefaults fills a zero config entirely, otherwise only the size
// and output path; hidden bounds of zero are meaningful.
func withCPPNDefaults(cfg synth.CPPNConfig) synth.CPPNConfig {
	def := synth.DefaultCPPNConfig()
	if cfg == (synth.CPPNConfig{}) {
		return def
	}
	if cfg.Width == 0 {
		cfg.Width = def.Width
	}
	if cfg.Height == 0 {
		cfg.Height = def.Height
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = def.OutputPath
	}
	return cfg
}

func withDirectDefaults(cfg synth.DirectConfig) synth.DirectConfig {
	def := synth.DefaultDirectConfig()
	if cfg.Width == 0 {
		cfg.Width = def.Width
	}
	if cfg.Height == 0 {
		cfg.Height = def.Height
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = def.OutputPath
	}
	return cfg
}

type trackingImageSink struct {
	sink  synth.ImageSink
	saved bool
}

func (s *trackingImageSink) Save(ctx context.Context, img image.Image, path string) error {
	if err := s.sink.Save(ctx, img, path); err != nil {
		return err
	}
	s.saved = true
	return nil
}

// reportFanOut delivers a report to every sink and joins their errors.
type reportFanOut []synth.ReportSink

func (f reportFanOut) SaveReport(ctx context.Context, r model.NetworkReport) error {
	var errs []error
	for _, sink := range f {
		if err := sink.SaveReport(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
