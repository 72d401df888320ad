package gene

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Gene is an ordered sequence of fixed-width integer segments.
type Gene interface {
	SegmentCount() int
	Segment(i int) []int32
	SegmentWidth(i int) int
}

// Segments is the slice-backed Gene used throughout the module.
type Segments [][]int32

func (s Segments) SegmentCount() int { return len(s) }

func (s Segments) Segment(i int) []int32 { return s[i] }

func (s Segments) SegmentWidth(i int) int { return len(s[i]) }

// Validate reports an empty gene or segments of differing width.
func (s Segments) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("gene has no segments")
	}
	width := len(s[0])
	for i, segment := range s {
		if len(segment) != width {
			return fmt.Errorf("segment %d width %d differs from segment 0 width %d", i, len(segment), width)
		}
	}
	return nil
}

// NewRandom builds count segments of width uniformly random non-negative values.
func NewRandom(rng *rand.Rand, count, width int) Segments {
	if count <= 0 || width <= 0 {
		return nil
	}
	rng = ensureRNG(rng)
	out := make(Segments, count)
	for i := range out {
		segment := make([]int32, width)
		for j := range segment {
			segment[j] = rng.Int31()
		}
		out[i] = segment
	}
	return out
}

// Clone deep-copies any Gene into Segments.
func Clone(g Gene) Segments {
	if g == nil {
		return nil
	}
	out := make(Segments, g.SegmentCount())
	for i := range out {
		src := g.Segment(i)
		out[i] = append(make([]int32, 0, len(src)), src...)
	}
	return out
}

// FromInts converts loosely typed values (e.g. decoded JSON) into Segments,
// rejecting values outside the int32 range.
func FromInts(values [][]int64) (Segments, error) {
	out := make(Segments, len(values))
	for i, row := range values {
		segment := make([]int32, len(row))
		for j, v := range row {
			if v < math.MinInt32 || v > math.MaxInt32 {
				return nil, fmt.Errorf("segment %d value %d out of int32 range", i, v)
			}
			segment[j] = int32(v)
		}
		out[i] = segment
	}
	return out, nil
}

func ensureRNG(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
