// Package main provides CMA-ES optimization of fixed-topology bird brains.
package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/pthm-cable/flock/neural"
)

// weightBound limits every network parameter to [-weightBound, weightBound].
const weightBound = 4.0

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds one spec per FFNN parameter, in neural.FFNN.Vector order.
type ParamVector struct {
	Specs []ParamSpec
	scale float32
}

// NewParamVector creates specs for every weight and bias of a network whose
// defaults come from a Xavier-initialized FFNN drawn from seed.
func NewParamVector(seed uint64, scale float32) *ParamVector {
	defaults := neural.NewFFNN(rand.New(rand.NewPCG(seed, 0)), scale).Vector()
	names := paramNames()

	pv := &ParamVector{Specs: make([]ParamSpec, neural.VectorLen), scale: scale}
	for i := range pv.Specs {
		pv.Specs[i] = ParamSpec{
			Name:    names[i],
			Min:     -weightBound,
			Max:     weightBound,
			Default: defaults[i],
		}
	}
	return pv
}

func paramNames() []string {
	names := make([]string, 0, neural.VectorLen)
	for i := 0; i < neural.NumHidden; i++ {
		for j := 0; j < neural.NumInputs; j++ {
			names = append(names, fmt.Sprintf("w1_%d_%d", i, j))
		}
	}
	for i := 0; i < neural.NumHidden; i++ {
		names = append(names, fmt.Sprintf("b1_%d", i))
	}
	for i := 0; i < neural.NumOutputs; i++ {
		for j := 0; j < neural.NumHidden; j++ {
			names = append(names, fmt.Sprintf("w2_%d_%d", i, j))
		}
	}
	for i := 0; i < neural.NumOutputs; i++ {
		names = append(names, fmt.Sprintf("b2_%d", i))
	}
	return names
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Network builds an FFNN from raw parameter values, clamped to bounds.
func (pv *ParamVector) Network(values []float64) (*neural.FFNN, error) {
	nn := &neural.FFNN{Scale: pv.scale}
	if err := nn.SetVector(pv.Clamp(values)); err != nil {
		return nil, err
	}
	return nn, nil
}
