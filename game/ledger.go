package game

// Ledger accumulates fitness for every candidate of a generation. Values are
// written straight through to the candidates' accumulators and never clamped.
type Ledger struct {
	slots []*float64
}

// NewLedger wraps the given accumulators, one per population slot.
func NewLedger(slots []*float64) *Ledger {
	return &Ledger{slots: slots}
}

// Reset writes 0 into every accumulator.
func (l *Ledger) Reset() {
	for _, s := range l.slots {
		*s = 0
	}
}

// Add adds delta to the accumulator of slot.
func (l *Ledger) Add(slot int, delta float64) {
	*l.slots[slot] += delta
}

// Value returns the current fitness of slot.
func (l *Ledger) Value(slot int) float64 {
	return *l.slots[slot]
}

// Len returns the number of slots.
func (l *Ledger) Len() int {
	return len(l.slots)
}

// Values returns a copy of all fitness values in slot order.
func (l *Ledger) Values() []float64 {
	out := make([]float64, len(l.slots))
	for i, s := range l.slots {
		out[i] = *s
	}
	return out
}
