// Package components defines ECS components for the simulation.
package components

// Bird identifies one simulated agent.
// X is fixed at spawn; the world scrolls toward the bird instead.
type Bird struct {
	ID    int     // Candidate ID supplied by the optimizer
	Slot  int     // Index into the generation's candidate and ledger arrays
	X     float64 // Horizontal position, constant for the whole generation
	Frame int     // Animation counter, presentation only
}
