package neural

import (
	"fmt"
	"math"
)

// Policy dimensions.
const (
	NumInputs  = 3 // y, distance to gap top, distance to gap bottom
	NumOutputs = 1 // jump
)

// Adapter turns bird state into policy inputs and policy output into a jump
// decision.
type Adapter struct {
	Threshold float64 // Output strictly above this means jump
}

// NewAdapter returns an adapter that jumps when the output exceeds threshold.
func NewAdapter(threshold float64) Adapter {
	return Adapter{Threshold: threshold}
}

// BuildInputs returns {y, |y-gapTop|, |y-gapBottom|}.
func BuildInputs(y, gapTop, gapBottom float64) [NumInputs]float64 {
	return [NumInputs]float64{
		y,
		math.Abs(y - gapTop),
		math.Abs(y - gapBottom),
	}
}

// Decide activates p on inputs and reports whether the bird should jump.
func (a Adapter) Decide(p Policy, inputs [NumInputs]float64) (bool, error) {
	out, err := p.Activate(inputs[:])
	if err != nil {
		return false, err
	}
	if len(out) != NumOutputs {
		return false, fmt.Errorf("%w: got %d", ErrOutputArity, len(out))
	}
	return out[0] > a.Threshold, nil
}
