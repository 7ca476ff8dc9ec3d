package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// GenerationStats holds the fitness summary of one finished generation.
type GenerationStats struct {
	Generation int     `csv:"generation"`
	Ticks      int     `csv:"ticks"`
	Score      int     `csv:"score"`
	Reason     string  `csv:"reason"`
	Population int     `csv:"population"`
	Best       float64 `csv:"best"`
	BestIndex  int     `csv:"best_index"`
	Mean       float64 `csv:"mean"`
	Std        float64 `csv:"std"`
	P50        float64 `csv:"p50"`
	P90        float64 `csv:"p90"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeGenerationStats summarizes the fitness values of one generation.
// Std is the sample standard deviation, 0 for fewer than two values.
func ComputeGenerationStats(generation, ticks, score int, reason string, fitness []float64) GenerationStats {
	s := GenerationStats{
		Generation: generation,
		Ticks:      ticks,
		Score:      score,
		Reason:     reason,
		Population: len(fitness),
		BestIndex:  -1,
	}
	if len(fitness) == 0 {
		return s
	}

	s.BestIndex = floats.MaxIdx(fitness)
	s.Best = fitness[s.BestIndex]
	if len(fitness) == 1 {
		s.Mean = fitness[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(fitness, nil)
		if math.IsNaN(s.Std) {
			s.Std = 0
		}
	}

	sorted := make([]float64, len(fitness))
	copy(sorted, fitness)
	sort.Float64s(sorted)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)

	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("ticks", s.Ticks),
		slog.Int("score", s.Score),
		slog.String("reason", s.Reason),
		slog.Int("population", s.Population),
		slog.Float64("best", s.Best),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.Std),
		slog.Float64("p50", s.P50),
		slog.Float64("p90", s.P90),
	)
}

// LogStats logs the generation stats using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", s.Generation,
		"ticks", s.Ticks,
		"score", s.Score,
		"reason", s.Reason,
		"population", s.Population,
		"best", s.Best,
		"mean", s.Mean,
		"std", s.Std,
		"p50", s.P50,
		"p90", s.P90,
	)
}
