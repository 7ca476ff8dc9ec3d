package telemetry

import (
	"math"
	"testing"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeGenerationStats(t *testing.T) {
	fitness := []float64{2.9, 7.9, 2.9, 12.9}
	s := ComputeGenerationStats(4, 130, 2, "all_dead", fitness)

	if s.Generation != 4 || s.Ticks != 130 || s.Score != 2 || s.Reason != "all_dead" {
		t.Errorf("header fields wrong: %+v", s)
	}
	if s.Population != 4 {
		t.Errorf("expected population 4, got %d", s.Population)
	}
	if s.Best != 12.9 || s.BestIndex != 3 {
		t.Errorf("expected best 12.9 at 3, got %v at %d", s.Best, s.BestIndex)
	}
	if math.Abs(s.Mean-6.65) > 1e-9 {
		t.Errorf("expected mean 6.65, got %v", s.Mean)
	}
	// Sample variance: (3.75² + 1.25² + 3.75² + 6.25²) / 3
	wantStd := math.Sqrt((3.75*3.75 + 1.25*1.25 + 3.75*3.75 + 6.25*6.25) / 3)
	if math.Abs(s.Std-wantStd) > 1e-9 {
		t.Errorf("expected std %v, got %v", wantStd, s.Std)
	}
	if math.Abs(s.P50-5.4) > 1e-9 {
		t.Errorf("expected p50 5.4, got %v", s.P50)
	}
	if math.Abs(s.P90-11.4) > 1e-9 {
		t.Errorf("expected p90 11.4, got %v", s.P90)
	}

	// Input must not be reordered.
	if fitness[0] != 2.9 || fitness[3] != 12.9 {
		t.Errorf("input was modified: %v", fitness)
	}
}

func TestComputeGenerationStatsSmall(t *testing.T) {
	empty := ComputeGenerationStats(1, 0, 0, "all_dead", nil)
	if empty.Population != 0 || empty.BestIndex != -1 || empty.Best != 0 {
		t.Errorf("empty stats wrong: %+v", empty)
	}

	single := ComputeGenerationStats(1, 29, 0, "all_dead", []float64{2.9})
	if single.Best != 2.9 || single.Mean != 2.9 || single.Std != 0 || single.P50 != 2.9 || single.P90 != 2.9 {
		t.Errorf("single stats wrong: %+v", single)
	}
}
