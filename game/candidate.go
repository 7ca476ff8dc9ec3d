// Package game runs one generation of birds against the obstacle track.
package game

import "github.com/pthm-cable/flock/neural"

// Candidate is one population member handed to a generation. Fitness is
// reset to 0 when the generation starts and holds the final value after it
// terminates.
type Candidate struct {
	ID      int
	Policy  neural.Policy
	Fitness *float64
}

// Reason explains why a generation stopped.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonAllDead
	ReasonScoreCeiling
	ReasonExternalQuit
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "running"
	case ReasonAllDead:
		return "all_dead"
	case ReasonScoreCeiling:
		return "score_ceiling"
	case ReasonExternalQuit:
		return "external_quit"
	}
	return "unknown"
}

// Status is the lifecycle state of a generation.
type Status struct {
	Terminated bool
	Reason     Reason
}

// Running reports whether the generation can still step.
func (s Status) Running() bool {
	return !s.Terminated
}
