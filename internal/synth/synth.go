package synth

import (
	"context"
	"image"
	"log/slog"
	"math"
	"math/rand"
	"runtime"
	"sync"

	"pixelgene/internal/codec"
	"pixelgene/internal/gene"
	"pixelgene/internal/logging"
	"pixelgene/internal/model"
)

// GeneToImage decodes a gene into an RGB raster.
type GeneToImage interface {
	Synthesize(ctx context.Context, g gene.Gene) (Result, error)
	Report(g gene.Gene) (model.NetworkReport, error)
	RandomGene(rng *rand.Rand) gene.Segments
}

type Result struct {
	Image  *image.RGBA
	Report model.NetworkReport
}

// ImageSink persists a finished raster.
type ImageSink interface {
	Save(ctx context.Context, img image.Image, path string) error
}

// ReportSink receives the structural report of a synthesized gene.
type ReportSink interface {
	SaveReport(ctx context.Context, report model.NetworkReport) error
}

type options struct {
	codec      codec.Codec
	workers    int
	imageSink  ImageSink
	reportSink ReportSink
	logger     *slog.Logger
}

type Option func(*options)

func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithWorkers sets how many goroutines share the rows of one image.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

func WithImageSink(s ImageSink) Option {
	return func(o *options) { o.imageSink = s }
}

func WithReportSink(s ReportSink) Option {
	return func(o *options) { o.reportSink = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func newOptions(opts []Option) options {
	o := options{
		codec:   codec.Default(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.codec == nil {
		o.codec = codec.Default()
	}
	if o.workers <= 0 {
		o.workers = 1
	}
	return o
}

func (o options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return logging.Logger()
}

// rowFiller writes one row of RGBA pixels. Each worker gets its own filler
// so per-worker scratch state is never shared.
type rowFiller func(y int, row []uint8)

// renderRows partitions the rows of a width x height raster across workers.
// Every row is independent; cancellation is observed between rows.
func renderRows(ctx context.Context, width, height, workers int, newFiller func() rowFiller) (*image.RGBA, error) {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	workerCount := workers
	if workerCount > height {
		workerCount = height
	}
	if workerCount < 1 {
		workerCount = 1
	}

	rows := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		fill := newFiller()
		go func() {
			defer wg.Done()
			for y := range rows {
				if ctx.Err() != nil {
					continue
				}
				offset := y * img.Stride
				fill(y, img.Pix[offset:offset+4*width])
			}
		}()
	}

feed:
	for y := 0; y < height; y++ {
		select {
		case rows <- y:
		case <-ctx.Done():
			break feed
		}
	}
	close(rows)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

// persist hands the finished raster and report to the configured sinks.
// Failures are logged only: the in-memory result stays valid.
func (o options) persist(ctx context.Context, img *image.RGBA, path string, report model.NetworkReport) {
	if o.imageSink != nil {
		if err := o.imageSink.Save(ctx, img, path); err != nil {
			o.log().Error("could not save image", "path", path, "kind", report.Kind, "err", err)
		}
	}
	if o.reportSink != nil {
		if err := o.reportSink.SaveReport(ctx, report); err != nil {
			o.log().Error("could not save network report", "kind", report.Kind, "err", err)
		}
	}
}

// toChannel scales a unit value in [0, 1] to an 8-bit channel.
func toChannel(value float64) uint8 {
	return clampChannel(value * channelScale)
}

// clampChannel floors a decoded channel into [0, 255]. NaN maps to 0.
func clampChannel(value float64) uint8 {
	if math.IsNaN(value) || value <= 0 {
		return 0
	}
	if value >= channelScale {
		return uint8(channelScale)
	}
	return uint8(math.Floor(value))
}
