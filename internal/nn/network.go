package nn

import "fmt"

// InputCount is the number of fixed inputs ahead of the first unit:
// bias, x, y and radial distance.
const InputCount = 4

// OutputCount is the number of trailing units read as R, G, B.
const OutputCount = 3

// Connection is an enabled, weighted edge from an earlier unit value.
type Connection struct {
	From   int
	Weight float64
}

type Unit struct {
	Activation string
	Func       ActivationFunc
	Inputs     []Connection
}

// Network is a strictly feed-forward chain of units addressed by index.
// Unit i writes value InputCount+i and may only read indices below it.
type Network struct {
	Units []Unit
}

// Validate checks the causal ordering of every connection.
func (n Network) Validate() error {
	if len(n.Units) < OutputCount {
		return fmt.Errorf("network has %d units, need at least %d outputs", len(n.Units), OutputCount)
	}
	for i, unit := range n.Units {
		if unit.Func == nil {
			return fmt.Errorf("unit %d: %w: %q", i, ErrActivationNotFound, unit.Activation)
		}
		for _, conn := range unit.Inputs {
			if conn.From < 0 || conn.From >= InputCount+i {
				return fmt.Errorf("unit %d: connection from %d violates feed-forward order", i, conn.From)
			}
		}
	}
	return nil
}

// NewScratch allocates the per-evaluation value buffer.
func (n Network) NewScratch() []float64 {
	return make([]float64, InputCount+len(n.Units))
}

// Eval computes every unit value into scratch. The caller fills indices
// 0..InputCount-1 beforehand; everything above is overwritten, so scratch
// can be reused across evaluations without clearing.
func (n Network) Eval(scratch []float64) {
	for i := range n.Units {
		unit := &n.Units[i]
		total := 0.0
		for _, conn := range unit.Inputs {
			total += scratch[conn.From] * conn.Weight
		}
		scratch[InputCount+i] = unit.Func(total)
	}
}

// Outputs returns the last three unit values.
func (n Network) Outputs(scratch []float64) (r, g, b float64) {
	last := InputCount + len(n.Units)
	return scratch[last-3], scratch[last-2], scratch[last-1]
}
