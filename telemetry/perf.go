package telemetry

import (
	"log/slog"
	"time"
)

// Phase is one stage of a generation step.
type Phase int

// Step phases in execution order.
const (
	PhaseDecide    Phase = iota // physics, reward and policy per bird
	PhaseObstacles              // track advance, collisions, passes, spawns
	PhaseBounds                 // ground and ceiling culls
	PhaseGround                 // ground scroll, skipped on the terminating tick
	numPhases
)

var phaseNames = [numPhases]string{"decide", "obstacles", "bounds", "ground"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// Phases returns the step phase names in execution order.
func Phases() []string {
	return append([]string(nil), phaseNames[:]...)
}

// PerfCollector accumulates step timings for one generation. It is not safe
// for concurrent use; the generation and its renderers share one goroutine.
type PerfCollector struct {
	now func() time.Time

	generation int
	ticks      int
	total      time.Duration
	minTick    time.Duration
	maxTick    time.Duration
	phaseTotal [numPhases]time.Duration
	phaseTicks [numPhases]int

	tickStart  time.Time
	phaseStart time.Time
	current    Phase
	inTick     bool
	seen       [numPhases]bool

	lastFrame     time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates an empty collector on the wall clock.
func NewPerfCollector() *PerfCollector {
	return newPerfCollector(time.Now)
}

func newPerfCollector(now func() time.Time) *PerfCollector {
	return &PerfCollector{now: now, current: -1}
}

// Reset clears tick timings and attributes later ticks to generation.
// Frame timing survives so the window keeps its FPS readout.
func (p *PerfCollector) Reset(generation int) {
	*p = PerfCollector{
		now:           p.now,
		generation:    generation,
		current:       -1,
		lastFrame:     p.lastFrame,
		frameDuration: p.frameDuration,
	}
}

// StartTick begins timing a step.
func (p *PerfCollector) StartTick() {
	p.tickStart = p.now()
	p.current = -1
	p.seen = [numPhases]bool{}
	p.inTick = true
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	if !p.inTick || phase < 0 || phase >= numPhases {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.current = phase
	p.phaseStart = now
}

// EndTick closes the running phase and records the step.
func (p *PerfCollector) EndTick() {
	if !p.inTick {
		return
	}
	now := p.now()
	p.closePhase(now)
	p.inTick = false

	d := now.Sub(p.tickStart)
	if p.ticks == 0 || d < p.minTick {
		p.minTick = d
	}
	p.maxTick = max(p.maxTick, d)
	p.total += d
	p.ticks++
	for i, ok := range p.seen {
		if ok {
			p.phaseTicks[i]++
		}
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.current < 0 {
		return
	}
	p.phaseTotal[p.current] += now.Sub(p.phaseStart)
	p.seen[p.current] = true
	p.current = -1
}

// RecordFrame marks a rendered frame.
func (p *PerfCollector) RecordFrame() {
	now := p.now()
	if !p.lastFrame.IsZero() {
		p.frameDuration = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseStats is the timing of one phase over a generation.
type PhaseStats struct {
	Name  string
	Ticks int           // Ticks in which the phase ran
	Avg   time.Duration // Mean duration over the ticks it ran
	Pct   float64       // Share of total step time
}

// PerfStats summarizes the ticks recorded since the last Reset.
type PerfStats struct {
	Generation      int
	Ticks           int
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64
	Phases          []PhaseStats // execution order
	FPS             float64
}

// Stats summarizes the current generation.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Generation:      p.generation,
		Ticks:           p.ticks,
		MinTickDuration: p.minTick,
		MaxTickDuration: p.maxTick,
		Phases:          make([]PhaseStats, numPhases),
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.ticks > 0 {
		s.AvgTickDuration = p.total / time.Duration(p.ticks)
	}
	if p.total > 0 {
		s.TicksPerSecond = float64(p.ticks) * float64(time.Second) / float64(p.total)
	}

	for i := range s.Phases {
		ps := PhaseStats{Name: phaseNames[i], Ticks: p.phaseTicks[i]}
		if ps.Ticks > 0 {
			ps.Avg = p.phaseTotal[i] / time.Duration(ps.Ticks)
		}
		if p.total > 0 {
			ps.Pct = float64(p.phaseTotal[i]) / float64(p.total) * 100
		}
		s.Phases[i] = ps
	}
	return s
}

// Phase returns the stats of phase.
func (s PerfStats) Phase(phase Phase) PhaseStats {
	if phase < 0 || int(phase) >= len(s.Phases) {
		return PhaseStats{Name: phase.String()}
	}
	return s.Phases[phase]
}

// LogStats logs the summary at debug level.
func (s PerfStats) LogStats() {
	slog.Debug("perf", "stats", s)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, ps := range s.Phases {
		attrs = append(attrs, slog.Float64(ps.Name+"_pct", ps.Pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one row of perf.csv.
type PerfStatsCSV struct {
	Generation   int     `csv:"generation"`
	Ticks        int     `csv:"ticks"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	DecidePct    float64 `csv:"decide_pct"`
	ObstaclesPct float64 `csv:"obstacles_pct"`
	BoundsPct    float64 `csv:"bounds_pct"`
	GroundPct    float64 `csv:"ground_pct"`
	GroundTicks  int     `csv:"ground_ticks"`
}

// ToCSV flattens the stats into a perf.csv row.
func (s PerfStats) ToCSV() PerfStatsCSV {
	return PerfStatsCSV{
		Generation:   s.Generation,
		Ticks:        s.Ticks,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		DecidePct:    s.Phase(PhaseDecide).Pct,
		ObstaclesPct: s.Phase(PhaseObstacles).Pct,
		BoundsPct:    s.Phase(PhaseBounds).Pct,
		GroundPct:    s.Phase(PhaseGround).Pct,
		GroundTicks:  s.Phase(PhaseGround).Ticks,
	}
}
