package systems

import (
	"math/rand/v2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
)

// Track owns the obstacles of one generation in creation order.
type Track struct {
	cfg       config.PipeConfig
	rng       *rand.Rand
	obstacles []components.Obstacle
}

// NewTrack creates a track holding the first obstacle at cfg.InitialX.
func NewTrack(cfg *config.PipeConfig, rng *rand.Rand) *Track {
	t := &Track{
		cfg:       *cfg,
		rng:       rng,
		obstacles: make([]components.Obstacle, 0, 4),
	}
	t.add(cfg.InitialX)
	return t
}

// Len returns the number of obstacles on the track.
func (t *Track) Len() int {
	return len(t.obstacles)
}

// At returns the i-th obstacle in creation order.
func (t *Track) At(i int) *components.Obstacle {
	return &t.obstacles[i]
}

// Obstacles returns a copy of the current obstacles.
func (t *Track) Obstacles() []components.Obstacle {
	out := make([]components.Obstacle, len(t.obstacles))
	copy(out, t.obstacles)
	return out
}

// Advance moves every obstacle left by the pipe velocity.
func (t *Track) Advance() {
	for i := range t.obstacles {
		t.obstacles[i].X -= t.cfg.Velocity
	}
}

// MarkPassed flips the passed flag of every obstacle that some x in xs has
// moved beyond. It reports whether at least one obstacle transitioned.
func (t *Track) MarkPassed(xs []float64) bool {
	transitioned := false
	for i := range t.obstacles {
		o := &t.obstacles[i]
		if o.Passed {
			continue
		}
		for _, x := range xs {
			if o.X < x {
				o.Passed = true
				transitioned = true
				break
			}
		}
	}
	return transitioned
}

// Spawn appends one obstacle at the spawn position with a fresh gap offset.
func (t *Track) Spawn() components.Obstacle {
	return t.add(t.cfg.SpawnX)
}

// Reap removes obstacles whose trailing edge has left the field and returns
// how many were removed.
func (t *Track) Reap() int {
	kept := t.obstacles[:0]
	for _, o := range t.obstacles {
		if o.X+float64(t.cfg.Width) < 0 {
			continue
		}
		kept = append(kept, o)
	}
	removed := len(t.obstacles) - len(kept)
	t.obstacles = kept
	return removed
}

// ActiveIndex returns the index of the obstacle birds should steer by: the
// first one, or the second once leadX is beyond the first's trailing edge.
func (t *Track) ActiveIndex(leadX float64) int {
	if len(t.obstacles) > 1 && leadX > t.obstacles[0].X+float64(t.cfg.Width) {
		return 1
	}
	return 0
}

func (t *Track) add(x float64) components.Obstacle {
	o := components.Obstacle{
		X:      x,
		GapTop: float64(t.cfg.GapMin + t.rng.IntN(t.cfg.GapMax-t.cfg.GapMin)),
		Gap:    t.cfg.Gap,
	}
	t.obstacles = append(t.obstacles, o)
	return o
}
