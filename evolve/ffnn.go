package evolve

import (
	"math"
	"math/rand/v2"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/neural"
	"github.com/pthm-cable/flock/telemetry"
)

// FFNN evolves fixed-topology networks by truncation selection: the elite
// fraction survives unchanged and the rest of the population is refilled
// with sparsely mutated copies of elites.
type FFNN struct {
	cfg *config.EvolutionConfig
	rng *rand.Rand

	nets    []*neural.FFNN
	ids     []int
	fitness []float64

	nextID     int
	generation int
}

// NewFFNN creates a random population of cfg.Sim.Population networks.
func NewFFNN(cfg *config.Config, rng *rand.Rand) *FFNN {
	n := cfg.Sim.Population
	s := &FFNN{
		cfg:        &cfg.Evolution,
		rng:        rng,
		nets:       make([]*neural.FFNN, n),
		ids:        make([]int, n),
		fitness:    make([]float64, n),
		nextID:     1,
		generation: 1,
	}
	scale := float32(1 / cfg.Field.Height)
	for i := range s.nets {
		s.nets[i] = neural.NewFFNN(rng, scale)
		s.ids[i] = s.newID()
	}
	return s
}

// Seed replaces the first population member with net. Used to resume from
// tuned weights.
func (s *FFNN) Seed(net *neural.FFNN) {
	s.nets[0] = net.Clone()
}

// Name implements Strategy.
func (s *FFNN) Name() string { return "ffnn" }

// Candidates implements Strategy.
func (s *FFNN) Candidates() ([]game.Candidate, error) {
	cands := make([]game.Candidate, len(s.nets))
	for i, net := range s.nets {
		s.fitness[i] = 0
		cands[i] = game.Candidate{ID: s.ids[i], Policy: net, Fitness: &s.fitness[i]}
	}
	return cands, nil
}

// Advance implements Strategy.
func (s *FFNN) Advance() error {
	n := len(s.nets)
	order := rankByFitness(s.fitness)
	elites := s.eliteCount()

	nets := make([]*neural.FFNN, n)
	ids := make([]int, n)
	for i := 0; i < elites; i++ {
		nets[i] = s.nets[order[i]]
		ids[i] = s.ids[order[i]]
	}
	for i := elites; i < n; i++ {
		child := s.nets[order[s.rng.IntN(elites)]].Clone()
		child.MutateSparse(s.rng,
			float32(s.cfg.MutationRate), float32(s.cfg.MutationSigma),
			float32(s.cfg.BigRate), float32(s.cfg.BigSigma))
		nets[i] = child
		ids[i] = s.newID()
	}

	s.nets = nets
	s.ids = ids
	clear(s.fitness)
	s.generation++
	return nil
}

// Best implements Strategy.
func (s *FFNN) Best() telemetry.Champion {
	i := rankByFitness(s.fitness)[0]
	return telemetry.Champion{
		Generation:  s.generation,
		CandidateID: s.ids[i],
		Fitness:     s.fitness[i],
		Strategy:    s.Name(),
		Model:       s.nets[i].MarshalWeights(),
	}
}

// eliteCount is EliteFraction of the population, at least one.
func (s *FFNN) eliteCount() int {
	n := len(s.nets)
	k := int(math.Round(s.cfg.EliteFraction * float64(n)))
	return min(max(k, 1), n)
}

func (s *FFNN) newID() int {
	id := s.nextID
	s.nextID++
	return id
}
