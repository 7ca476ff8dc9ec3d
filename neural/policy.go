// Package neural provides the decision policies that steer birds: a small
// fixed-topology feedforward network and goNEAT phenotypes.
package neural

import "errors"

var (
	// ErrOutputArity is returned when a policy does not produce exactly one output.
	ErrOutputArity = errors.New("policy must produce exactly one output")
	// ErrInputArity is returned when a policy is fed the wrong number of inputs.
	ErrInputArity = errors.New("unexpected number of policy inputs")
)

// Policy maps an observation to a decision vector.
//
// A single policy instance is only ever activated by one bird, but different
// birds' policies may be activated concurrently.
type Policy interface {
	Activate(inputs []float64) ([]float64, error)
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc func(inputs []float64) ([]float64, error)

// Activate calls f(inputs).
func (f PolicyFunc) Activate(inputs []float64) ([]float64, error) {
	return f(inputs)
}

// Constant returns a policy that always outputs v.
func Constant(v float64) Policy {
	return PolicyFunc(func([]float64) ([]float64, error) {
		return []float64{v}, nil
	})
}
