package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"pixelgene/internal/gene"
	"pixelgene/internal/model"
	"pixelgene/internal/nn"
)

const cppnReportKind = "ImageCPPNGenerator"

// CPPN decodes a gene into a compositional pattern-producing network and
// evaluates it once per pixel. Segment i encodes unit 4+i as
//
//	selector, (enable, weight) x 4 fixed inputs, (enable, weight) x i earlier units
//
// and the last three units produce R, G and B.
type CPPN struct {
	cfg  CPPNConfig
	opts options
}

var _ GeneToImage = (*CPPN)(nil)

func NewCPPN(cfg CPPNConfig, opts ...Option) (*CPPN, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CPPN{cfg: cfg, opts: newOptions(opts)}, nil
}

func (s *CPPN) Config() CPPNConfig { return s.cfg }

// RandomGene picks a hidden unit count in [MinHidden, MaxHidden) and adds
// the three output units.
func (s *CPPN) RandomGene(rng *rand.Rand) gene.Segments {
	rng = ensureRNG(rng)
	hidden := s.cfg.MinHidden
	if span := s.cfg.MaxHidden - s.cfg.MinHidden; span > 0 {
		hidden += rng.Intn(span)
	}
	return gene.NewRandom(rng, hidden+nn.OutputCount, s.cfg.SegmentWidth())
}

func (s *CPPN) Synthesize(ctx context.Context, g gene.Gene) (Result, error) {
	network, err := s.decode(g)
	if err != nil {
		return Result{}, err
	}

	started := time.Now()
	width, height := s.cfg.Width, s.cfg.Height
	xCenter, yCenter := float64(width/2), float64(height/2)
	maxDistance := math.Sqrt(float64(width)*float64(width)+float64(height)*float64(height)) / 2

	img, err := renderRows(ctx, width, height, s.opts.workers, func() rowFiller {
		scratch := network.NewScratch()
		return func(y int, row []uint8) {
			fy := float64(y)
			dy := fy - yCenter
			for x := 0; x < width; x++ {
				fx := float64(x)
				dx := fx - xCenter
				scratch[0] = 1.0
				scratch[1] = fx / float64(width)
				scratch[2] = fy / float64(height)
				scratch[3] = math.Sqrt(dx*dx+dy*dy) / maxDistance
				network.Eval(scratch)

				r, gr, b := network.Outputs(scratch)
				px := row[4*x : 4*x+4 : 4*x+4]
				px[0] = toChannel(r)
				px[1] = toChannel(gr)
				px[2] = toChannel(b)
				px[3] = 0xff
			}
		}
	})
	if err != nil {
		return Result{}, err
	}
	s.opts.log().Debug("cppn image synthesized",
		"width", width, "height", height, "units", len(network.Units),
		"workers", s.opts.workers, "elapsed", time.Since(started))

	report := s.report(network)
	s.opts.persist(ctx, img, s.cfg.OutputPath, report)
	return Result{Image: img, Report: report}, nil
}

func (s *CPPN) Report(g gene.Gene) (model.NetworkReport, error) {
	network, err := s.decode(g)
	if err != nil {
		return model.NetworkReport{}, err
	}
	return s.report(network), nil
}

func (s *CPPN) checkShape(g gene.Gene) error {
	if g == nil {
		return fmt.Errorf("%w: gene is required", ErrShapeMismatch)
	}
	units := g.SegmentCount()
	if units < nn.OutputCount {
		return fmt.Errorf("%w: %d segments, need at least %d output units", ErrShapeMismatch, units, nn.OutputCount)
	}
	need := firstPairOffset + inputPairStride*nn.InputCount + inputPairStride*units
	for i := 0; i < units; i++ {
		if w := g.SegmentWidth(i); w < need {
			return fmt.Errorf("%w: segment %d width %d, need at least %d for %d units", ErrShapeMismatch, i, w, need, units)
		}
	}
	return nil
}

// decode builds the per-pixel network once. Connection j of unit i is live
// when its enable value decodes to a strictly positive weight.
func (s *CPPN) decode(g gene.Gene) (nn.Network, error) {
	if err := s.checkShape(g); err != nil {
		return nn.Network{}, err
	}

	c := s.opts.codec
	units := make([]nn.Unit, g.SegmentCount())
	for i := range units {
		segment := g.Segment(i)
		name, fn := s.activation(i, segment[0])

		var inputs []nn.Connection
		for j := 0; j < nn.InputCount+i; j++ {
			at := firstPairOffset + inputPairStride*j
			if c.Weight(segment[at], 1) <= 0 {
				continue
			}
			inputs = append(inputs, nn.Connection{From: j, Weight: c.Weight(segment[at+1], 1)})
		}
		units[i] = nn.Unit{Activation: name, Func: fn, Inputs: inputs}
	}
	network := nn.Network{Units: units}
	if err := network.Validate(); err != nil {
		return nn.Network{}, fmt.Errorf("%w: %v", ErrShapeMismatch, err)
	}
	return network, nil
}

// activation resolves the selector of segment i, falling back to identity
// when the codec yields something outside [0, 5]. Sigmoid units use the
// configured codec's curve.
func (s *CPPN) activation(segment int, selector int32) (string, nn.ActivationFunc) {
	f := math.Floor(s.opts.codec.UnitInterval(selector, nn.SelectorModulus))
	if f >= 0 && f <= nn.SelectorModulus {
		if name, fn, err := nn.SelectActivation(int(f)); err == nil {
			if name == nn.ActivationSigmoid {
				fn = s.opts.codec.Sigmoid
			}
			return name, fn
		}
	}
	s.opts.log().Warn("unknown activation selector, using identity",
		"segment", segment, "selector", selector, "decoded", f)
	fn, err := nn.GetActivation(nn.ActivationIdentity)
	if err != nil {
		return nn.ActivationIdentity, func(x float64) float64 { return x }
	}
	return nn.ActivationIdentity, fn
}

func (s *CPPN) report(network nn.Network) model.NetworkReport {
	report := model.NetworkReport{
		Kind: cppnReportKind,
		Config: map[string]string{
			"width":              strconv.Itoa(s.cfg.Width),
			"height":             strconv.Itoa(s.cfg.Height),
			"min hidden neurons": strconv.Itoa(s.cfg.MinHidden),
			"max hidden neurons": strconv.Itoa(s.cfg.MaxHidden),
		},
		Units: make([]model.UnitReport, 0, len(network.Units)),
	}
	for i, unit := range network.Units {
		inputs := make(map[int]float64, len(unit.Inputs))
		for _, conn := range unit.Inputs {
			inputs[conn.From] = conn.Weight
		}
		report.Units = append(report.Units, model.UnitReport{
			Index:      i,
			Activation: unit.Activation,
			Inputs:     inputs,
		})
	}
	return report
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
