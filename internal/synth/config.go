package synth

import (
	"errors"
	"fmt"
	"math"

	"pixelgene/internal/nn"
)

var (
	// ErrInvalidConfig marks configuration errors; they are raised by the
	// constructors before any gene is looked at.
	ErrInvalidConfig = errors.New("invalid synthesizer config")
	// ErrShapeMismatch marks genes whose segment count or width does not
	// fit the configuration. No pixel work happens after it is returned.
	ErrShapeMismatch = errors.New("gene shape mismatch")
)

const (
	defaultWidth        = 256
	defaultHeight       = 256
	defaultMinHidden    = 0
	defaultMaxHidden    = 10
	defaultCPPNPath     = "./pixelgene-cppn.png"
	defaultDirectPath   = "./pixelgene-direct-encoding.png"
	directSegmentWidth  = 3
	channelScale        = 255.0
	firstPairOffset     = 1
	inputPairStride     = 2
	maxDirectPixelCount = math.MaxInt32
)

type CPPNConfig struct {
	Width      int
	Height     int
	MinHidden  int
	MaxHidden  int
	OutputPath string
}

func DefaultCPPNConfig() CPPNConfig {
	return CPPNConfig{
		Width:      defaultWidth,
		Height:     defaultHeight,
		MinHidden:  defaultMinHidden,
		MaxHidden:  defaultMaxHidden,
		OutputPath: defaultCPPNPath,
	}
}

func (c CPPNConfig) Validate() error {
	if err := validateSize(c.Width, c.Height); err != nil {
		return err
	}
	if c.MinHidden < 0 || c.MaxHidden < 0 {
		return fmt.Errorf("%w: hidden bounds must not be negative (min=%d max=%d)", ErrInvalidConfig, c.MinHidden, c.MaxHidden)
	}
	if c.MinHidden > c.MaxHidden {
		return fmt.Errorf("%w: min hidden %d greater than max hidden %d", ErrInvalidConfig, c.MinHidden, c.MaxHidden)
	}
	return nil
}

// SegmentWidth is the width random genes are created with: room for the
// selector, the fixed inputs and every unit the largest network could hold,
// so later length-changing mutation keeps the shape valid.
func (c CPPNConfig) SegmentWidth() int {
	return firstPairOffset + inputPairStride*nn.InputCount + inputPairStride*c.MaxHidden + inputPairStride*nn.OutputCount
}

type DirectConfig struct {
	Width      int
	Height     int
	OutputPath string
}

func DefaultDirectConfig() DirectConfig {
	return DirectConfig{
		Width:      defaultWidth,
		Height:     defaultHeight,
		OutputPath: defaultDirectPath,
	}
}

func (c DirectConfig) Validate() error {
	if err := validateSize(c.Width, c.Height); err != nil {
		return err
	}
	if int64(c.Width)*int64(c.Height) > maxDirectPixelCount {
		return fmt.Errorf("%w: %dx%d pixels exceed the direct encoding limit", ErrInvalidConfig, c.Width, c.Height)
	}
	return nil
}

func validateSize(width, height int) error {
	if width <= 0 {
		return fmt.Errorf("%w: width must be greater than 0, got %d", ErrInvalidConfig, width)
	}
	if height <= 0 {
		return fmt.Errorf("%w: height must be greater than 0, got %d", ErrInvalidConfig, height)
	}
	return nil
}
