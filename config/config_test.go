package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.Sim.TickRate != 30 {
		t.Errorf("tick_rate = %d, want 30", cfg.Sim.TickRate)
	}
	if cfg.Sim.ScoreCeiling != 50 {
		t.Errorf("score_ceiling = %d, want 50", cfg.Sim.ScoreCeiling)
	}
	if cfg.Physics.MaxDisplacement != 16 {
		t.Errorf("max_displacement = %v, want 16", cfg.Physics.MaxDisplacement)
	}
	if cfg.Physics.JumpImpulse != -10.5 {
		t.Errorf("jump_impulse = %v, want -10.5", cfg.Physics.JumpImpulse)
	}
	if cfg.Pipe.GapMin != 50 || cfg.Pipe.GapMax != 450 {
		t.Errorf("gap range = [%d, %d), want [50, 450)", cfg.Pipe.GapMin, cfg.Pipe.GapMax)
	}
	if cfg.Bird.StartY != 250 {
		t.Errorf("start_y = %v, want 250", cfg.Bird.StartY)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	overlay := "sim:\n  population: 7\npipe:\n  gap: 150\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Sim.Population != 7 {
		t.Errorf("population = %d, want 7", cfg.Sim.Population)
	}
	if cfg.Pipe.Gap != 150 {
		t.Errorf("gap = %v, want 150", cfg.Pipe.Gap)
	}
	// Untouched keys keep their defaults
	if cfg.Sim.TickRate != 30 {
		t.Errorf("tick_rate = %d, want default 30", cfg.Sim.TickRate)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		overlay string
		wantKey string
	}{
		{"empty gap range", "pipe:\n  gap_min: 100\n  gap_max: 100\n", "pipe.gap_max"},
		{"no birds", "sim:\n  population: 0\n", "sim.population"},
		{"negative ceiling", "sim:\n  score_ceiling: -1\n", "sim.score_ceiling"},
		{"negative generations", "evolution:\n  generations: -3\n", "evolution.generations"},
		{"bad shape", "bird:\n  hit_shape: star\n", "bird.hit_shape"},
		{"bad strategy", "evolution:\n  strategy: cma\n", "evolution.strategy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.overlay), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error %q does not name %s", err, tt.wantKey)
			}
		})
	}
}

func TestTickInterval(t *testing.T) {
	if got := (SimConfig{TickRate: 30}).TickInterval(); got != time.Second/30 {
		t.Errorf("TickInterval(30) = %v, want %v", got, time.Second/30)
	}
	if got := (SimConfig{TickRate: 0}).TickInterval(); got != 0 {
		t.Errorf("TickInterval(0) = %v, want 0", got)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Sim.Population = 12

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Sim.Population != 12 {
		t.Errorf("population = %d, want 12", loaded.Sim.Population)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Pipe.Gap = 1

	if cfg.Pipe.Gap == 1 {
		t.Error("modifying clone changed the original")
	}
}
