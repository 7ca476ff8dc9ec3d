package main

import (
	"context"
	"math"
	"sync"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/neural"
)

// FitnessEvaluator runs headless single-bird generations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	seeds      []uint64
	baseConfig *config.Config

	mu          sync.Mutex
	bestFitness float64
	lastScore   float64 // mean score from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Generations run unthrottled
// and end once the score exceeds scoreCeiling (0 keeps the config value).
func NewFitnessEvaluator(params *ParamVector, seeds []uint64, baseCfg *config.Config, scoreCeiling int) *FitnessEvaluator {
	cfg := baseCfg.Clone()
	cfg.Sim.TickRate = 0
	cfg.Sim.Population = 1
	if scoreCeiling > 0 {
		cfg.Sim.ScoreCeiling = scoreCeiling
	}
	return &FitnessEvaluator{
		params:      params,
		seeds:       seeds,
		baseConfig:  cfg,
		bestFitness: math.Inf(1),
	}
}

// LastScore returns the mean score from the most recent evaluation.
func (fe *FitnessEvaluator) LastScore() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastScore
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	fitness float64
	score   int
	err     error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean bird fitness across seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) (float64, error) {
	nn, err := fe.params.Network(x)
	if err != nil {
		return 0, err
	}

	// Run all seeds in parallel; the network is read-only during activation.
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint64) {
			defer wg.Done()
			results[idx] = fe.runGeneration(nn, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalScore float64
	for _, r := range results {
		if r.err != nil {
			return 0, r.err
		}
		totalFitness += r.fitness
		totalScore += float64(r.score)
	}
	n := float64(len(fe.seeds))
	avgFitness := -totalFitness / n

	fe.mu.Lock()
	if avgFitness < fe.bestFitness {
		fe.bestFitness = avgFitness
	}
	fe.lastScore = totalScore / n
	fe.mu.Unlock()

	return avgFitness, nil
}

// runGeneration evaluates one bird on the track drawn from seed.
func (fe *FitnessEvaluator) runGeneration(nn *neural.FFNN, seed uint64) seedResult {
	gen, err := game.NewGeneration(game.Options{
		Config: fe.baseConfig,
		Seed:   seed,
		Number: 1,
	}, []game.Candidate{{ID: 1, Policy: nn}})
	if err != nil {
		return seedResult{err: err}
	}
	res, err := gen.Run(context.Background(), nil)
	if err != nil {
		return seedResult{err: err}
	}
	return seedResult{fitness: res.Fitness[0], score: res.Score}
}
