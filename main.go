package main

import (
	"context"
	"flag"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/evolve"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/neural"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/terminal"
)

func init() {
	// raylib must stay on the main thread
	runtime.LockOSThread()
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without any renderer")
	tui := flag.Bool("tui", false, "Render in the terminal instead of a window")
	sound := flag.Bool("sound", false, "Chime when the score increments")
	seed := flag.Uint64("seed", 0, "RNG seed (0 = time-based)")
	generations := flag.Int("generations", 0, "Generations to run (0 = use config)")
	strategy := flag.String("strategy", "", "Evolution strategy: neat or ffnn (empty = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config snapshot and champion")
	weightsPath := flag.String("weights", "", "FFNN weights JSON to seed the ffnn strategy")

	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *strategy != "" {
		cfg.Evolution.Strategy = *strategy
	}
	if *outputDir != "" {
		cfg.Telemetry.OutputDir = *outputDir
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = uint64(time.Now().UnixNano())
	}

	// Set up slog (JSON to stdout for structured logging). The terminal
	// renderer owns stdout, so logs go to the output dir or nowhere.
	var logOut io.Writer = os.Stdout
	if *tui {
		logOut = io.Discard
		if cfg.Telemetry.OutputDir != "" {
			if err := os.MkdirAll(cfg.Telemetry.OutputDir, 0755); err == nil {
				if f, err := os.Create(filepath.Join(cfg.Telemetry.OutputDir, "run.log")); err == nil {
					defer f.Close()
					logOut = f
				}
			}
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logOut, nil)))

	if err := run(cfg, rngSeed, *generations, *headless, *tui, *sound, *weightsPath); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, seed uint64, generations int, headless, tui, sound bool, weightsPath string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rng := rand.New(rand.NewPCG(seed, 0))
	strat, err := evolve.New(cfg, rng)
	if err != nil {
		return err
	}
	if weightsPath != "" {
		ffnn, ok := strat.(*evolve.FFNN)
		if !ok {
			slog.Warn("weights ignored for strategy", "strategy", strat.Name())
		} else {
			net, err := neural.LoadWeights(weightsPath, float32(1/cfg.Field.Height))
			if err != nil {
				return err
			}
			ffnn.Seed(net)
		}
	}

	out, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := out.WriteConfig(cfg); err != nil {
		return err
	}

	perf := telemetry.NewPerfCollector()

	var renderers game.Renderers
	switch {
	case headless:
	case tui:
		screen, err := tcell.NewScreen()
		if err != nil {
			return err
		}
		if err := screen.Init(); err != nil {
			return err
		}
		defer screen.Fini()
		ts := terminal.NewScreen(screen, cfg, cancel)
		defer ts.Close()
		renderers = append(renderers, ts)
	default:
		rl.SetConfigFlags(rl.FlagWindowResizable)
		rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), cfg.Screen.Title)
		defer rl.CloseWindow()
		renderers = append(renderers, renderer.NewWindow(cfg, cancel, perf))
	}
	if sound && !headless {
		chime := terminal.NewChime()
		if err := chime.Init(); err != nil {
			slog.Warn("audio unavailable", "error", err)
		}
		defer chime.Close()
		renderers = append(renderers, chime)
	}

	slog.Info("starting run",
		"strategy", strat.Name(),
		"seed", seed,
		"population", cfg.Sim.Population,
		"generations", max(generations, 0),
		"output_dir", cfg.Telemetry.OutputDir,
	)

	var r game.Renderer
	if len(renderers) > 0 {
		r = renderers
	}
	res, err := evolve.Run(ctx, strat, evolve.RunOptions{
		Config:      cfg,
		Seed:        seed,
		Generations: generations,
		Renderer:    r,
		Output:      out,
		Perf:        perf,
	})
	if err != nil {
		return err
	}

	slog.Info("run finished",
		"generations", res.Generations,
		"stopped", res.Stopped,
		"best_fitness", res.Champion.Fitness,
		"best_generation", res.Champion.Generation,
	)
	return nil
}
