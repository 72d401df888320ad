package codec

import "math"

// Codec maps raw gene integers to bounded reals.
type Codec interface {
	// Weight maps v symmetrically into [-scale, scale].
	Weight(v int32, scale float64) float64
	// UnitInterval maps v into [0, modulus].
	UnitInterval(v int32, modulus float64) float64
	Sigmoid(x float64) float64
}

// Linear reduces a gene value into [0, Max] and scales it linearly.
type Linear struct {
	Max int32
}

// Default covers the full non-negative int32 range, which is what random
// gene construction produces.
func Default() Linear {
	return Linear{Max: math.MaxInt32}
}

func (c Linear) Weight(v int32, scale float64) float64 {
	max := c.max()
	return (2*float64(c.reduce(v))/float64(max) - 1) * scale
}

func (c Linear) UnitInterval(v int32, modulus float64) float64 {
	max := c.max()
	return float64(c.reduce(v)) / float64(max) * modulus
}

func (Linear) Sigmoid(x float64) float64 {
	return Sigmoid(x)
}

// reduce folds any int32, including math.MinInt32, into [0, Max].
func (c Linear) reduce(v int32) int64 {
	u := int64(v)
	if u < 0 {
		u = -u
	}
	return u % (int64(c.max()) + 1)
}

func (c Linear) max() int32 {
	if c.Max <= 0 {
		return 1
	}
	return c.Max
}

// Sigmoid is the standard logistic function.
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
