package synth

import (
	"bytes"
	"context"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"pixelgene/internal/codec"
	"pixelgene/internal/gene"
)

func TestDirectTwoPixelScenario(t *testing.T) {
	s, err := NewDirect(DirectConfig{Width: 2, Height: 1}, WithCodec(codec.Linear{Max: 255}))
	require.NoError(t, err)

	res, err := s.Synthesize(context.Background(), gene.Segments{{0, 127, 255}, {255, 0, 128}})
	require.NoError(t, err)
	require.Equal(t, color.RGBA{R: 0, G: 127, B: 255, A: 255}, res.Image.RGBAAt(0, 0))
	require.Equal(t, color.RGBA{R: 255, G: 0, B: 128, A: 255}, res.Image.RGBAAt(1, 0))
}

func TestDirectTranscribesEverySegment(t *testing.T) {
	cfg := DirectConfig{Width: 7, Height: 5}
	c := codec.Default()
	s, err := NewDirect(cfg, WithWorkers(3))
	require.NoError(t, err)

	g := s.RandomGene(rand.New(rand.NewSource(21)))
	res, err := s.Synthesize(context.Background(), g)
	require.NoError(t, err)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			segment := g[cfg.Width*y+x]
			want := color.RGBA{
				R: uint8(math.Floor(c.UnitInterval(segment[0], 255))),
				G: uint8(math.Floor(c.UnitInterval(segment[1], 255))),
				B: uint8(math.Floor(c.UnitInterval(segment[2], 255))),
				A: 255,
			}
			require.Equal(t, want, res.Image.RGBAAt(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestDirectPixelIndependentOfOtherSegments(t *testing.T) {
	cfg := DirectConfig{Width: 4, Height: 3}
	s, err := NewDirect(cfg)
	require.NoError(t, err)

	g := s.RandomGene(rand.New(rand.NewSource(2)))
	before, err := s.Synthesize(context.Background(), g)
	require.NoError(t, err)

	changed := gene.Clone(g)
	changed[cfg.Width*1+2] = []int32{1, 2, 3}
	after, err := s.Synthesize(context.Background(), changed)
	require.NoError(t, err)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			if x == 2 && y == 1 {
				continue
			}
			require.Equal(t, before.Image.RGBAAt(x, y), after.Image.RGBAAt(x, y))
		}
	}
}

func TestDirectIsPure(t *testing.T) {
	cfg := DirectConfig{Width: 16, Height: 9}
	a, err := NewDirect(cfg, WithWorkers(1))
	require.NoError(t, err)
	b, err := NewDirect(cfg, WithWorkers(4))
	require.NoError(t, err)

	g := a.RandomGene(rand.New(rand.NewSource(8)))
	first, err := a.Synthesize(context.Background(), g)
	require.NoError(t, err)
	second, err := b.Synthesize(context.Background(), g)
	require.NoError(t, err)
	require.True(t, bytes.Equal(first.Image.Pix, second.Image.Pix))
}

func TestDirectShapeMismatch(t *testing.T) {
	images := &recordingImageSink{}
	s, err := NewDirect(DirectConfig{Width: 2, Height: 2}, WithImageSink(images))
	require.NoError(t, err)

	_, err = s.Synthesize(context.Background(), gene.NewRandom(nil, 3, 3))
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = s.Synthesize(context.Background(), gene.NewRandom(nil, 4, 4))
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = s.Report(gene.Segments{{1, 2, 3}, {1, 2, 3}, {1, 2, 3}, {1, 2}})
	require.ErrorIs(t, err, ErrShapeMismatch)

	require.Empty(t, images.paths)
}

func TestDirectSinglePixelAndReport(t *testing.T) {
	s, err := NewDirect(DirectConfig{Width: 1, Height: 1, OutputPath: "one.png"}, WithCodec(codec.Linear{Max: 255}))
	require.NoError(t, err)

	res, err := s.Synthesize(context.Background(), gene.Segments{{10, 20, 30}})
	require.NoError(t, err)
	require.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, res.Image.RGBAAt(0, 0))

	require.Equal(t, "ImageDirectEncodingGenerator", res.Report.Kind)
	require.Equal(t, map[string]string{"width": "1", "height": "1", "save path": "one.png"}, res.Report.Config)
	require.Empty(t, res.Report.Units)
}

func TestDirectRandomGeneSizing(t *testing.T) {
	s, err := NewDirect(DirectConfig{Width: 5, Height: 4})
	require.NoError(t, err)
	g := s.RandomGene(nil)
	require.Equal(t, 20, g.SegmentCount())
	require.Equal(t, 3, g.SegmentWidth(19))
}
