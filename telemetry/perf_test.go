package telemetry

import (
	"math"
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// tick records one step with the given phase durations, in order.
func tick(pc *PerfCollector, clk *fakeClock, phases []Phase, durs []time.Duration) {
	pc.StartTick()
	for i, ph := range phases {
		pc.StartPhase(ph)
		clk.Advance(durs[i])
	}
	pc.EndTick()
}

func TestPerfCollectorPhaseTotals(t *testing.T) {
	clk := &fakeClock{}
	pc := newPerfCollector(clk.Now)
	pc.Reset(3)

	all := []Phase{PhaseDecide, PhaseObstacles, PhaseBounds, PhaseGround}
	tick(pc, clk, all, []time.Duration{40 * time.Microsecond, 30 * time.Microsecond, 20 * time.Microsecond, 10 * time.Microsecond})
	tick(pc, clk, all, []time.Duration{40 * time.Microsecond, 30 * time.Microsecond, 20 * time.Microsecond, 10 * time.Microsecond})
	// terminating tick: no ground scroll
	tick(pc, clk, all[:3], []time.Duration{40 * time.Microsecond, 30 * time.Microsecond, 30 * time.Microsecond})

	s := pc.Stats()
	if s.Generation != 3 || s.Ticks != 3 {
		t.Fatalf("generation, ticks = %d, %d, want 3, 3", s.Generation, s.Ticks)
	}
	if s.AvgTickDuration != 100*time.Microsecond {
		t.Errorf("AvgTickDuration = %v, want 100µs", s.AvgTickDuration)
	}
	if s.MinTickDuration != 100*time.Microsecond || s.MaxTickDuration != 100*time.Microsecond {
		t.Errorf("min/max = %v/%v, want 100µs", s.MinTickDuration, s.MaxTickDuration)
	}
	if math.Abs(s.TicksPerSecond-10000) > 1e-6 {
		t.Errorf("TicksPerSecond = %v, want 10000", s.TicksPerSecond)
	}

	tests := []struct {
		phase Phase
		ticks int
		avg   time.Duration
		pct   float64
	}{
		{PhaseDecide, 3, 40 * time.Microsecond, 40},
		{PhaseObstacles, 3, 30 * time.Microsecond, 30},
		{PhaseBounds, 3, 70 * time.Microsecond / 3, 70.0 / 3},
		{PhaseGround, 2, 10 * time.Microsecond, 20.0 / 3},
	}
	for _, tt := range tests {
		t.Run(tt.phase.String(), func(t *testing.T) {
			ps := s.Phase(tt.phase)
			if ps.Ticks != tt.ticks {
				t.Errorf("Ticks = %d, want %d", ps.Ticks, tt.ticks)
			}
			if ps.Avg != tt.avg {
				t.Errorf("Avg = %v, want %v", ps.Avg, tt.avg)
			}
			if math.Abs(ps.Pct-tt.pct) > 1e-9 {
				t.Errorf("Pct = %v, want %v", ps.Pct, tt.pct)
			}
		})
	}
}

func TestPerfCollectorReset(t *testing.T) {
	clk := &fakeClock{}
	pc := newPerfCollector(clk.Now)
	pc.Reset(1)
	tick(pc, clk, []Phase{PhaseDecide}, []time.Duration{time.Millisecond})

	pc.RecordFrame()
	clk.Advance(20 * time.Millisecond)
	pc.RecordFrame()

	pc.Reset(2)
	s := pc.Stats()
	if s.Generation != 2 || s.Ticks != 0 || s.AvgTickDuration != 0 {
		t.Errorf("after Reset: generation %d, ticks %d, avg %v", s.Generation, s.Ticks, s.AvgTickDuration)
	}
	if s.Phase(PhaseDecide).Ticks != 0 {
		t.Errorf("decide ticks = %d after Reset, want 0", s.Phase(PhaseDecide).Ticks)
	}
	if math.Abs(s.FPS-50) > 1e-9 {
		t.Errorf("FPS = %v after Reset, want 50", s.FPS)
	}
}

func TestPerfCollectorIgnoresPhaseOutsideTick(t *testing.T) {
	clk := &fakeClock{}
	pc := newPerfCollector(clk.Now)

	pc.StartPhase(PhaseDecide)
	clk.Advance(time.Millisecond)
	pc.EndTick()

	s := pc.Stats()
	if s.Ticks != 0 || s.Phase(PhaseDecide).Ticks != 0 {
		t.Errorf("recorded %d ticks without StartTick", s.Ticks)
	}
	if len(s.Phases) != len(Phases()) {
		t.Errorf("len(Phases) = %d, want %d", len(s.Phases), len(Phases()))
	}
	if Phase(9).String() != "unknown" {
		t.Errorf("Phase(9).String() = %q", Phase(9).String())
	}
}
