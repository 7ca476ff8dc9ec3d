package systems

import (
	"math"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
)

// PipeShape holds the hit-regions of an obstacle's two members.
type PipeShape struct {
	Width, Height int
	Top, Bottom   *Mask
}

// NewPipeShape builds solid member masks from pipe geometry.
func NewPipeShape(cfg *config.PipeConfig) *PipeShape {
	return &PipeShape{
		Width:  cfg.Width,
		Height: cfg.Height,
		Top:    NewRectMask(cfg.Width, cfg.Height),
		Bottom: NewRectMask(cfg.Width, cfg.Height),
	}
}

// NewBirdMask builds the bird hit-region described by cfg.
func NewBirdMask(cfg *config.BirdConfig) *Mask {
	if cfg.HitShape == "rect" {
		return NewRectMask(cfg.Width, cfg.Height)
	}
	return NewEllipseMask(cfg.Width, cfg.Height)
}

// Collides reports whether the bird's hit-region overlaps either member of o.
// Offsets are measured from the bird's top-left corner on the integer grid.
func Collides(bird *components.Bird, body *components.Body, birdMask *Mask, o *components.Obstacle, pipe *PipeShape) bool {
	by := int(math.Round(body.Y))
	dx := int(math.Round(o.X - bird.X))

	topDY := int(math.Round(o.TopMemberY(pipe.Height))) - by
	bottomDY := int(math.Round(o.GapBottom())) - by

	return birdMask.Overlap(pipe.Bottom, dx, bottomDY) || birdMask.Overlap(pipe.Top, dx, topDY)
}

// OutOfBounds reports whether a bird at y has touched the ground or left the
// top of the field.
func OutOfBounds(y float64, birdHeight int, groundY float64) bool {
	return y+float64(birdHeight) >= groundY || y < 0
}
