package evolve

import (
	"context"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/neural"
	"github.com/pthm-cable/flock/telemetry"
)

func testConfig(strategy string, population int) *config.Config {
	cfg := config.Default()
	cfg.Sim.TickRate = 0
	cfg.Sim.Population = population
	cfg.Evolution.Strategy = strategy
	cfg.Evolution.FitnessThreshold = 0
	return cfg
}

func TestRankByFitness(t *testing.T) {
	got := rankByFitness([]float64{1, 3, 2, 3, 0})
	want := []int{1, 3, 2, 0, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rankByFitness = %v, want %v", got, want)
		}
	}
}

func TestNewStrategy(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 0))
	for _, name := range []string{"ffnn", "neat"} {
		s, err := New(testConfig(name, 4), rng)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("expected %q, got %q", name, s.Name())
		}
	}

	cfg := testConfig("ffnn", 4)
	cfg.Evolution.Strategy = "genetic"
	if _, err := New(cfg, rng); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestFFNNCandidates(t *testing.T) {
	s := NewFFNN(testConfig("ffnn", 5), rand.New(rand.NewPCG(2, 0)))

	cands, err := s.Candidates()
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(cands) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(cands))
	}
	seen := map[int]bool{}
	for i, c := range cands {
		if c.Policy == nil || c.Fitness == nil {
			t.Fatalf("candidate %d incomplete", i)
		}
		if seen[c.ID] {
			t.Errorf("duplicate id %d", c.ID)
		}
		seen[c.ID] = true
	}

	*cands[3].Fitness = 9
	best := s.Best()
	if best.CandidateID != cands[3].ID || best.Fitness != 9 || best.Strategy != "ffnn" {
		t.Errorf("unexpected best: %+v", best)
	}
	if _, ok := best.Model.(neural.BrainWeights); !ok {
		t.Errorf("expected BrainWeights model, got %T", best.Model)
	}
}

func TestFFNNAdvanceKeepsElites(t *testing.T) {
	cfg := testConfig("ffnn", 10)
	cfg.Evolution.EliteFraction = 0.2
	s := NewFFNN(cfg, rand.New(rand.NewPCG(3, 0)))

	cands, _ := s.Candidates()
	for i, c := range cands {
		*c.Fitness = float64(i)
	}
	top := []*neural.FFNN{s.nets[9], s.nets[8]}
	topIDs := []int{s.ids[9], s.ids[8]}

	if err := s.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	if len(s.nets) != 10 {
		t.Fatalf("population changed size: %d", len(s.nets))
	}
	for i := range top {
		if s.nets[i] != top[i] || s.ids[i] != topIDs[i] {
			t.Errorf("elite %d not carried over", i)
		}
	}
	for i := 2; i < 10; i++ {
		for _, e := range top {
			if s.nets[i] == e {
				t.Errorf("offspring %d shares the elite network", i)
			}
		}
		if s.ids[i] <= 10 {
			t.Errorf("offspring %d reuses id %d", i, s.ids[i])
		}
	}
	for i, f := range s.fitness {
		if f != 0 {
			t.Errorf("fitness %d not cleared: %v", i, f)
		}
	}
	if s.generation != 2 {
		t.Errorf("expected generation 2, got %d", s.generation)
	}
}

func TestFFNNEliteCount(t *testing.T) {
	tests := []struct {
		fraction float64
		pop      int
		want     int
	}{
		{0, 10, 1},
		{0.2, 10, 2},
		{0.25, 10, 3},
		{1, 10, 10},
		{0.2, 1, 1},
	}
	for _, tt := range tests {
		cfg := testConfig("ffnn", tt.pop)
		cfg.Evolution.EliteFraction = tt.fraction
		s := NewFFNN(cfg, rand.New(rand.NewPCG(4, 0)))
		if got := s.eliteCount(); got != tt.want {
			t.Errorf("fraction %v pop %d: got %d, want %d", tt.fraction, tt.pop, got, tt.want)
		}
	}
}

func TestNEATAdvance(t *testing.T) {
	cfg := testConfig("neat", 12)
	cfg.Evolution.AddNodeProb = 0.5
	cfg.Evolution.AddLinkProb = 0.5
	s, err := NewNEAT(cfg, rand.New(rand.NewPCG(5, 0)))
	if err != nil {
		t.Fatalf("NewNEAT: %v", err)
	}

	rng := rand.New(rand.NewPCG(6, 0))
	for gen := 0; gen < 5; gen++ {
		cands, err := s.Candidates()
		if err != nil {
			t.Fatalf("generation %d: Candidates: %v", gen, err)
		}
		if len(cands) != 12 {
			t.Fatalf("generation %d: expected 12 candidates, got %d", gen, len(cands))
		}
		for _, c := range cands {
			out, err := c.Policy.Activate([]float64{100, 20, 180})
			if err != nil {
				t.Fatalf("generation %d: candidate %d: %v", gen, c.ID, err)
			}
			*c.Fitness = out[0] + rng.Float64()
		}

		best := s.Best()
		if _, ok := best.Model.(neural.GenomeSummary); !ok {
			t.Fatalf("expected GenomeSummary model, got %T", best.Model)
		}

		if err := s.Advance(); err != nil {
			t.Fatalf("generation %d: Advance: %v", gen, err)
		}
		if len(s.genomes) != 12 {
			t.Fatalf("generation %d: population size %d", gen, len(s.genomes))
		}
	}
	if s.generation != 6 {
		t.Errorf("expected generation 6, got %d", s.generation)
	}
	if s.Species().GetStats().Count == 0 {
		t.Error("expected at least one species")
	}
}

func TestRunGenerations(t *testing.T) {
	for _, strategy := range []string{"ffnn", "neat"} {
		t.Run(strategy, func(t *testing.T) {
			cfg := testConfig(strategy, 6)
			s, err := New(cfg, rand.New(rand.NewPCG(7, 0)))
			if err != nil {
				t.Fatalf("New: %v", err)
			}

			dir := t.TempDir()
			out, err := telemetry.NewOutputManager(dir)
			if err != nil {
				t.Fatalf("NewOutputManager: %v", err)
			}

			res, err := Run(context.Background(), s, RunOptions{
				Config:      cfg,
				Seed:        11,
				Generations: 3,
				Output:      out,
				Perf:        telemetry.NewPerfCollector(),
			})
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			out.Close()

			if res.Generations != 3 || len(res.Stats) != 3 {
				t.Fatalf("expected 3 generations, got %d (%d stats)", res.Generations, len(res.Stats))
			}
			if res.Stopped {
				t.Error("run should not report a quit")
			}
			for i, st := range res.Stats {
				if st.Generation != i+1 || st.Population != 6 {
					t.Errorf("stats %d: %+v", i, st)
				}
			}
			if res.Champion.Strategy != strategy {
				t.Errorf("expected %s champion, got %+v", strategy, res.Champion)
			}
			for _, st := range res.Stats {
				if res.Champion.Fitness < st.Best {
					t.Errorf("champion fitness %v below generation best %v", res.Champion.Fitness, st.Best)
				}
			}

			data, err := os.ReadFile(filepath.Join(dir, "generations.csv"))
			if err != nil {
				t.Fatalf("reading generations.csv: %v", err)
			}
			if n := len(strings.Split(strings.TrimSpace(string(data)), "\n")); n != 4 {
				t.Errorf("expected header + 3 rows, got %d lines", n)
			}
			if _, err := os.Stat(filepath.Join(dir, "champion.json")); err != nil {
				t.Errorf("champion.json missing: %v", err)
			}
		})
	}
}

func TestRunFitnessThreshold(t *testing.T) {
	cfg := testConfig("ffnn", 4)
	cfg.Evolution.FitnessThreshold = 1
	s := NewFFNN(cfg, rand.New(rand.NewPCG(8, 0)))

	res, err := Run(context.Background(), s, RunOptions{Config: cfg, Generations: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Generations != 1 {
		t.Errorf("expected stop after 1 generation, got %d", res.Generations)
	}
}

func TestRunQuit(t *testing.T) {
	cfg := testConfig("ffnn", 4)
	s := NewFFNN(cfg, rand.New(rand.NewPCG(9, 0)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, s, RunOptions{Config: cfg, Generations: 5})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Stopped || res.Generations != 1 {
		t.Errorf("expected quit in generation 1, got %+v", res)
	}
	if res.Stats[0].Reason != "external_quit" || res.Stats[0].Ticks != 0 {
		t.Errorf("unexpected stats: %+v", res.Stats[0])
	}
}
