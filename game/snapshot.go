package game

// BirdSnapshot is the renderable state of one alive bird.
type BirdSnapshot struct {
	ID      int
	X, Y    float64
	Tilt    float64 // Degrees, positive is nose up
	Frame   int     // Animation counter
	Fitness float64
}

// ObstacleSnapshot is the renderable state of one obstacle.
type ObstacleSnapshot struct {
	X         float64
	GapTop    float64
	GapBottom float64
	Passed    bool
}

// Snapshot is a deep copy of everything a renderer needs for one frame.
type Snapshot struct {
	Generation int
	Tick       int
	Score      int
	Alive      int
	Population int
	Status     Status

	Birds     []BirdSnapshot // population order
	Obstacles []ObstacleSnapshot

	GroundY, GroundX1, GroundX2 float64
}

// Snapshot copies the current state. The result shares nothing with the
// generation.
func (g *Generation) Snapshot() Snapshot {
	s := Snapshot{
		Generation: g.number,
		Tick:       g.tick,
		Score:      g.score,
		Alive:      len(g.alive),
		Population: len(g.candidates),
		Status:     g.status,
		Birds:      make([]BirdSnapshot, 0, len(g.alive)),
		Obstacles:  make([]ObstacleSnapshot, 0, g.track.Len()),
		GroundY:    g.ground.Y,
		GroundX1:   g.ground.X1,
		GroundX2:   g.ground.X2,
	}

	for _, e := range g.alive {
		body, bird := g.birdMap.Get(e)
		s.Birds = append(s.Birds, BirdSnapshot{
			ID:      bird.ID,
			X:       bird.X,
			Y:       body.Y,
			Tilt:    body.Tilt,
			Frame:   bird.Frame,
			Fitness: g.ledger.Value(bird.Slot),
		})
	}
	for _, o := range g.track.Obstacles() {
		s.Obstacles = append(s.Obstacles, ObstacleSnapshot{
			X:         o.X,
			GapTop:    o.GapTop,
			GapBottom: o.GapBottom(),
			Passed:    o.Passed,
		})
	}

	return s
}
