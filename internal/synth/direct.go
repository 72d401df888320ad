package synth

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"pixelgene/internal/gene"
	"pixelgene/internal/model"
)

const directReportKind = "ImageDirectEncodingGenerator"

// Direct reads one (r, g, b) segment per pixel, row-major.
type Direct struct {
	cfg  DirectConfig
	opts options
}

var _ GeneToImage = (*Direct)(nil)

func NewDirect(cfg DirectConfig, opts ...Option) (*Direct, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Direct{cfg: cfg, opts: newOptions(opts)}, nil
}

func (s *Direct) Config() DirectConfig { return s.cfg }

func (s *Direct) RandomGene(rng *rand.Rand) gene.Segments {
	return gene.NewRandom(rng, s.cfg.Width*s.cfg.Height, directSegmentWidth)
}

func (s *Direct) Synthesize(ctx context.Context, g gene.Gene) (Result, error) {
	if err := s.checkShape(g); err != nil {
		return Result{}, err
	}

	started := time.Now()
	width := s.cfg.Width
	c := s.opts.codec
	img, err := renderRows(ctx, width, s.cfg.Height, s.opts.workers, func() rowFiller {
		return func(y int, row []uint8) {
			for x := 0; x < width; x++ {
				segment := g.Segment(width*y + x)
				px := row[4*x : 4*x+4 : 4*x+4]
				px[0] = clampChannel(c.UnitInterval(segment[0], channelScale))
				px[1] = clampChannel(c.UnitInterval(segment[1], channelScale))
				px[2] = clampChannel(c.UnitInterval(segment[2], channelScale))
				px[3] = 0xff
			}
		}
	})
	if err != nil {
		return Result{}, err
	}
	s.opts.log().Debug("direct image synthesized",
		"width", width, "height", s.cfg.Height, "workers", s.opts.workers, "elapsed", time.Since(started))

	report := s.report()
	s.opts.persist(ctx, img, s.cfg.OutputPath, report)
	return Result{Image: img, Report: report}, nil
}

func (s *Direct) Report(g gene.Gene) (model.NetworkReport, error) {
	if err := s.checkShape(g); err != nil {
		return model.NetworkReport{}, err
	}
	return s.report(), nil
}

func (s *Direct) checkShape(g gene.Gene) error {
	if g == nil {
		return fmt.Errorf("%w: gene is required", ErrShapeMismatch)
	}
	want := s.cfg.Width * s.cfg.Height
	if got := g.SegmentCount(); got != want {
		return fmt.Errorf("%w: %d segments, want %d for %dx%d", ErrShapeMismatch, got, want, s.cfg.Width, s.cfg.Height)
	}
	for i := 0; i < want; i++ {
		if w := g.SegmentWidth(i); w != directSegmentWidth {
			return fmt.Errorf("%w: segment %d width %d, want %d", ErrShapeMismatch, i, w, directSegmentWidth)
		}
	}
	return nil
}

func (s *Direct) report() model.NetworkReport {
	return model.NetworkReport{
		Kind: directReportKind,
		Config: map[string]string{
			"width":     strconv.Itoa(s.cfg.Width),
			"height":    strconv.Itoa(s.cfg.Height),
			"save path": s.cfg.OutputPath,
		},
	}
}
