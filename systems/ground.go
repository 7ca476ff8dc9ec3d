package systems

import "github.com/pthm-cable/flock/config"

// Ground is the scrolling floor: two tiles that leapfrog each other.
type Ground struct {
	Y        float64
	X1, X2   float64
	width    float64
	velocity float64
}

// NewGround places two tiles side by side starting at x=0.
func NewGround(cfg *config.GroundConfig) *Ground {
	return &Ground{
		Y:        cfg.Y,
		X1:       0,
		X2:       cfg.Width,
		width:    cfg.Width,
		velocity: cfg.Velocity,
	}
}

// Width returns the width of one tile.
func (g *Ground) Width() float64 {
	return g.width
}

// Advance scrolls both tiles left, moving a tile that fully left the field
// to the right of the other.
func (g *Ground) Advance() {
	g.X1 -= g.velocity
	g.X2 -= g.velocity

	if g.X1+g.width < 0 {
		g.X1 = g.X2 + g.width
	}
	if g.X2+g.width < 0 {
		g.X2 = g.X1 + g.width
	}
}
