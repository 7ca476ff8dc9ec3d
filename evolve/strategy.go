// Package evolve breeds populations of policies across generations.
package evolve

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/telemetry"
)

// Strategy produces the candidates of each generation and breeds the next one
// from their fitness.
type Strategy interface {
	// Name identifies the strategy in reports.
	Name() string
	// Candidates returns the current population. Each candidate's Fitness
	// points at strategy-owned storage read back by Advance and Best.
	Candidates() ([]game.Candidate, error)
	// Advance replaces the population with offspring of the evaluated one.
	Advance() error
	// Best returns the fittest member of the evaluated population.
	Best() telemetry.Champion
}

// New builds the strategy named by cfg.Evolution.Strategy.
func New(cfg *config.Config, rng *rand.Rand) (Strategy, error) {
	switch cfg.Evolution.Strategy {
	case "ffnn":
		return NewFFNN(cfg, rng), nil
	case "neat":
		s, err := NewNEAT(cfg, rng)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Evolution.Strategy)
	}
}

// rankByFitness returns population indices ordered by descending fitness.
// Ties keep population order.
func rankByFitness(fitness []float64) []int {
	order := make([]int, len(fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return fitness[order[a]] > fitness[order[b]]
	})
	return order
}
