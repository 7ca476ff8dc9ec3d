package components

// Body is the kinematic state of a bird.
type Body struct {
	Y      float64 // Top of the hit-region, grows downward
	Vel    float64 // Vertical velocity set by the last jump
	Tilt   float64 // Degrees, positive = nose up
	Ticks  int     // Ticks since the last jump
	Height float64 // Y at the moment of the last jump
}

// NewBody returns a resting body at height y.
func NewBody(y float64) Body {
	return Body{Y: y, Height: y}
}
