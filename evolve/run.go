package evolve

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/telemetry"
)

// hallSize is the number of champions retained across a run.
const hallSize = 10

// RunOptions configures a multi-generation run.
type RunOptions struct {
	Config      *config.Config
	Seed        uint64 // Generation g uses track seed Seed+g-1
	Generations int    // 0 uses Config.Evolution.Generations

	Renderer game.Renderer            // Optional, receives every tick
	Output   *telemetry.OutputManager // Optional
	Perf     *telemetry.PerfCollector // Optional
}

// RunResult summarizes a multi-generation run.
type RunResult struct {
	Generations int
	Stats       []telemetry.GenerationStats
	Champion    telemetry.Champion
	HallOfFame  *telemetry.HallOfFame
	Stopped     bool // Ended by an external quit
}

// Run evaluates generations of s until the generation budget is spent, a
// champion reaches the fitness threshold, or the run is quit. A zero or
// negative threshold disables the threshold stop.
func Run(ctx context.Context, s Strategy, opts RunOptions) (RunResult, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	total := opts.Generations
	if total <= 0 {
		total = cfg.Evolution.Generations
	}

	res := RunResult{HallOfFame: telemetry.NewHallOfFame(hallSize)}

	for g := 1; g <= total; g++ {
		cands, err := s.Candidates()
		if err != nil {
			return res, fmt.Errorf("generation %d: %w", g, err)
		}

		gen, err := game.NewGeneration(game.Options{
			Config: cfg,
			Seed:   opts.Seed + uint64(g-1),
			Number: g,
			Perf:   opts.Perf,
		}, cands)
		if err != nil {
			return res, fmt.Errorf("generation %d: %w", g, err)
		}

		out, err := gen.Run(ctx, opts.Renderer)
		if err != nil {
			return res, fmt.Errorf("generation %d: %w", g, err)
		}
		res.Generations = g

		stats := telemetry.ComputeGenerationStats(g, out.Ticks, out.Score, out.Reason.String(), out.Fitness)
		stats.LogStats()
		res.Stats = append(res.Stats, stats)
		if err := opts.Output.WriteGeneration(stats); err != nil {
			return res, err
		}
		if opts.Perf != nil {
			perf := opts.Perf.Stats()
			perf.LogStats()
			if err := opts.Output.WritePerf(perf); err != nil {
				return res, err
			}
		}

		champ := s.Best()
		champ.Score = out.Score
		res.HallOfFame.Consider(champ)

		if out.Reason == game.ReasonExternalQuit {
			slog.Info("run quit", "generation", g)
			res.Stopped = true
			break
		}
		if t := cfg.Evolution.FitnessThreshold; t > 0 && stats.Best >= t {
			slog.Info("fitness threshold reached", "generation", g, "best", stats.Best, "threshold", t)
			break
		}
		if g < total {
			if err := s.Advance(); err != nil {
				return res, fmt.Errorf("advancing generation %d: %w", g, err)
			}
		}
	}

	if best, ok := res.HallOfFame.Best(); ok {
		res.Champion = best
		slog.Info("winner",
			"strategy", best.Strategy,
			"generation", best.Generation,
			"candidate", best.CandidateID,
			"fitness", best.Fitness,
			"score", best.Score,
		)
		if err := opts.Output.WriteChampion(best); err != nil {
			return res, err
		}
		if err := opts.Output.WriteHallOfFame(res.HallOfFame); err != nil {
			return res, err
		}
	}

	return res, nil
}
