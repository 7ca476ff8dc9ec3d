package components

// Obstacle is one pipe pair with a gap the birds must fly through.
type Obstacle struct {
	X      float64 // Left edge, decreases every tick
	GapTop float64 // Y of the gap's upper edge
	Gap    float64 // Gap height, constant for a run
	Passed bool    // Set once on the first tick a bird flies past X
}

// GapBottom returns the Y of the gap's lower edge.
func (o *Obstacle) GapBottom() float64 {
	return o.GapTop + o.Gap
}

// TopMemberY returns the Y of the upper pipe's top edge for a pipe of the given height.
func (o *Obstacle) TopMemberY(pipeHeight int) float64 {
	return o.GapTop - float64(pipeHeight)
}
