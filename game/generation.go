package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/neural"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// ErrNoCandidates is returned when a generation is created without birds.
var ErrNoCandidates = errors.New("generation needs at least one candidate")

// Options configures a generation.
type Options struct {
	Config *config.Config
	Seed   uint64 // Seeds the obstacle gap sequence
	Number int    // Generation counter shown in snapshots

	// Perf, when set, is reset for this generation and receives its
	// per-phase step timings.
	Perf *telemetry.PerfCollector
}

// Result summarizes a finished generation.
type Result struct {
	Generation int
	Ticks      int
	Score      int
	Reason     Reason
	Fitness    []float64 // Final fitness in candidate order
}

// Generation owns all state of one evaluation episode: the birds, the track,
// the ground and the fitness ledger. Nothing is shared between generations.
type Generation struct {
	cfg    *config.Config
	number int

	world   *ecs.World
	birdMap *ecs.Map2[components.Body, components.Bird]
	alive   []ecs.Entity // population order

	candidates []Candidate
	ledger     *Ledger
	adapter    neural.Adapter

	track    *systems.Track
	ground   *systems.Ground
	birdMask *systems.Mask
	pipe     *systems.PipeShape

	frameCycle int
	score      int
	tick       int
	status     Status
	err        error

	perf     *telemetry.PerfCollector
	parallel *parallelState
}

// NewGeneration places every candidate at the start position and resets its
// fitness. Candidates without a Fitness accumulator get a private one.
func NewGeneration(opts Options, candidates []Candidate) (*Generation, error) {
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	world := ecs.NewWorld()
	g := &Generation{
		cfg:        cfg,
		number:     opts.Number,
		world:      world,
		birdMap:    ecs.NewMap2[components.Body, components.Bird](world),
		alive:      make([]ecs.Entity, 0, len(candidates)),
		candidates: make([]Candidate, len(candidates)),
		adapter:    neural.NewAdapter(cfg.Fitness.JumpThreshold),
		track:      systems.NewTrack(&cfg.Pipe, rand.New(rand.NewPCG(opts.Seed, 0))),
		ground:     systems.NewGround(&cfg.Ground),
		birdMask:   systems.NewBirdMask(&cfg.Bird),
		pipe:       systems.NewPipeShape(&cfg.Pipe),
		frameCycle: animationCycle(&cfg.Bird),
		perf:       opts.Perf,
		parallel:   newParallelState(cfg.Sim.Workers),
	}

	slots := make([]*float64, len(candidates))
	for i, c := range candidates {
		if c.Policy == nil {
			return nil, fmt.Errorf("candidate %d has no policy", c.ID)
		}
		if c.Fitness == nil {
			c.Fitness = new(float64)
		}
		g.candidates[i] = c
		slots[i] = c.Fitness

		body := components.NewBody(cfg.Bird.StartY)
		bird := components.Bird{
			ID:   c.ID,
			Slot: i,
			X:    cfg.Bird.StartX + float64(i)*cfg.Bird.RankSpacing,
		}
		g.alive = append(g.alive, g.birdMap.NewEntity(&body, &bird))
	}
	g.ledger = NewLedger(slots)
	g.ledger.Reset()
	if g.perf != nil {
		g.perf.Reset(g.number)
	}

	return g, nil
}

// animationCycle returns the wing-flap period: frames play forward then back.
func animationCycle(cfg *config.BirdConfig) int {
	n := cfg.AnimationTime * max(2*cfg.AnimationFrames-2, 1)
	return max(n, 1)
}

// Status returns the current lifecycle state.
func (g *Generation) Status() Status {
	return g.status
}

// Score returns the number of obstacles passed.
func (g *Generation) Score() int {
	return g.score
}

// Tick returns the number of completed ticks.
func (g *Generation) Tick() int {
	return g.tick
}

// Alive returns the number of birds still flying.
func (g *Generation) Alive() int {
	return len(g.alive)
}

// Ledger returns the fitness ledger.
func (g *Generation) Ledger() *Ledger {
	return g.ledger
}

// Quit terminates a running generation with ReasonExternalQuit. Fitness is
// left untouched.
func (g *Generation) Quit() {
	g.terminate(ReasonExternalQuit)
}

// Close stops any worker goroutines. The generation stays readable.
func (g *Generation) Close() {
	g.parallel.stop()
}

// Result returns the summary of the generation so far.
func (g *Generation) Result() Result {
	return Result{
		Generation: g.number,
		Ticks:      g.tick,
		Score:      g.score,
		Reason:     g.status.Reason,
		Fitness:    g.ledger.Values(),
	}
}

func (g *Generation) terminate(r Reason) {
	if g.status.Terminated {
		return
	}
	g.status = Status{Terminated: true, Reason: r}
	slog.Debug("generation terminated",
		"generation", g.number,
		"reason", r.String(),
		"ticks", g.tick,
		"score", g.score,
		"alive", len(g.alive),
	)
}

// Step advances the generation by one tick. A terminated generation is left
// unchanged. Once a policy has failed, every later call returns that error.
func (g *Generation) Step() (Status, error) {
	if g.err != nil {
		return g.status, g.err
	}
	if g.status.Terminated {
		return g.status, nil
	}

	if g.perf != nil {
		g.perf.StartTick()
		defer g.perf.EndTick()
		g.perf.StartPhase(telemetry.PhaseDecide)
	}

	active := *g.track.At(g.activeIndex())

	if err := g.decide(active); err != nil {
		g.err = err
		return g.status, err
	}

	if g.perf != nil {
		g.perf.StartPhase(telemetry.PhaseObstacles)
	}
	spawned := g.updateObstacles()
	if spawned {
		g.score++
		for _, e := range g.alive {
			_, bird := g.birdMap.Get(e)
			g.ledger.Add(bird.Slot, g.cfg.Fitness.PassReward)
		}
	}

	if g.perf != nil {
		g.perf.StartPhase(telemetry.PhaseBounds)
	}
	g.cullOutOfBounds()

	g.tick++
	switch {
	case len(g.alive) == 0:
		g.terminate(ReasonAllDead)
	case g.score > g.cfg.Sim.ScoreCeiling:
		g.terminate(ReasonScoreCeiling)
	default:
		if g.perf != nil {
			g.perf.StartPhase(telemetry.PhaseGround)
		}
		g.ground.Advance()
	}

	return g.status, nil
}

// activeIndex picks the obstacle every bird steers by from the lead bird's
// x. The lead is the first alive bird in population order, which is the
// rearmost one when ranks are spaced out.
func (g *Generation) activeIndex() int {
	_, lead := g.birdMap.Get(g.alive[0])
	return g.track.ActiveIndex(lead.X)
}

// decide integrates every bird, credits the survival reward and applies the
// policy's jump decision.
func (g *Generation) decide(active components.Obstacle) error {
	g.snapshotAlive()
	g.parallel.run(len(g.parallel.snapshots), g.cfg.Sim.ParallelThreshold, func(i0, i1 int) {
		g.computeDecisions(i0, i1, active)
	})

	// Fail before any write so a policy error leaves the tick unapplied
	for i := range g.parallel.intents {
		if err := g.parallel.intents[i].Err; err != nil {
			return fmt.Errorf("bird %d: %w", g.parallel.snapshots[i].Bird.ID, err)
		}
	}

	for i := range g.parallel.snapshots {
		snap := &g.parallel.snapshots[i]
		body, bird := g.birdMap.Get(snap.Entity)
		*body = g.parallel.intents[i].Body
		bird.Frame = (bird.Frame + 1) % g.frameCycle
		g.ledger.Add(bird.Slot, g.cfg.Fitness.SurvivalReward)
	}
	return nil
}

func (g *Generation) computeDecisions(i0, i1 int, active components.Obstacle) {
	for i := i0; i < i1; i++ {
		snap := &g.parallel.snapshots[i]
		in := &g.parallel.intents[i]

		body := snap.Body
		systems.Integrate(&body, &g.cfg.Physics)

		inputs := neural.BuildInputs(body.Y, active.GapTop, active.GapBottom())
		jump, err := g.adapter.Decide(snap.Policy, inputs)
		if err != nil {
			in.Err = err
			continue
		}
		if jump {
			systems.Jump(&body, &g.cfg.Physics)
		}
		in.Body = body
	}
}

// updateObstacles moves the track, culls colliding birds and spawns a new
// obstacle when a survivor passed one. It reports whether a spawn happened.
func (g *Generation) updateObstacles() bool {
	g.track.Advance()
	obstacles := g.track.Obstacles()

	g.snapshotAlive()
	g.parallel.run(len(g.parallel.snapshots), g.cfg.Sim.ParallelThreshold, func(i0, i1 int) {
		g.computeCollisions(i0, i1, obstacles)
	})

	survivors := make([]float64, 0, len(g.alive))
	culled := false
	for i := range g.parallel.snapshots {
		snap := &g.parallel.snapshots[i]
		if g.parallel.intents[i].Collided {
			g.ledger.Add(snap.Bird.Slot, g.cfg.Fitness.CollisionPenalty)
			culled = true
			continue
		}
		survivors = append(survivors, snap.Bird.X)
	}
	if culled {
		g.removeFlagged()
	}

	spawned := false
	if g.track.MarkPassed(survivors) {
		g.track.Spawn()
		spawned = true
	}
	g.track.Reap()

	return spawned
}

func (g *Generation) computeCollisions(i0, i1 int, obstacles []components.Obstacle) {
	for i := i0; i < i1; i++ {
		snap := &g.parallel.snapshots[i]
		hit := false
		for j := range obstacles {
			if systems.Collides(&snap.Bird, &snap.Body, g.birdMask, &obstacles[j], g.pipe) {
				hit = true
				break
			}
		}
		g.parallel.intents[i].Collided = hit
	}
}

// cullOutOfBounds removes birds touching the ground or above the field.
func (g *Generation) cullOutOfBounds() {
	g.snapshotAlive()
	culled := false
	for i := range g.parallel.snapshots {
		snap := &g.parallel.snapshots[i]
		out := systems.OutOfBounds(snap.Body.Y, g.cfg.Bird.Height, g.ground.Y)
		g.parallel.intents[i].Collided = out
		culled = culled || out
	}
	if culled {
		g.removeFlagged()
	}
}

// removeFlagged removes every snapshotted bird whose intent is flagged,
// keeping the population order of the rest.
func (g *Generation) removeFlagged() {
	kept := g.alive[:0]
	var toRemove []ecs.Entity
	for i := range g.parallel.snapshots {
		e := g.parallel.snapshots[i].Entity
		if g.parallel.intents[i].Collided {
			toRemove = append(toRemove, e)
			continue
		}
		kept = append(kept, e)
	}
	g.alive = kept

	for _, e := range toRemove {
		g.world.RemoveEntity(e)
	}
}

// Run steps the generation until it terminates, handing a snapshot to r
// after every tick. Ticks are paced at the configured tick rate; a rate of 0
// runs as fast as possible. Cancelling ctx ends the generation with
// ReasonExternalQuit at the next tick boundary.
func (g *Generation) Run(ctx context.Context, r Renderer) (Result, error) {
	defer g.Close()

	var tick <-chan time.Time
	if d := g.cfg.Sim.TickInterval(); d > 0 {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		tick = ticker.C
	}

	for !g.status.Terminated {
		if tick != nil {
			select {
			case <-ctx.Done():
			case <-tick:
			}
		}
		if ctx.Err() != nil {
			g.Quit()
			break
		}

		if _, err := g.Step(); err != nil {
			return g.Result(), err
		}
		if r != nil {
			r.Render(g.Snapshot())
		}
	}

	return g.Result(), nil
}
