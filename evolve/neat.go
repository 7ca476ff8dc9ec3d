package evolve

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/neural"
	"github.com/pthm-cable/flock/telemetry"
)

// crossoverProb is the chance an offspring has two parents rather than one.
const crossoverProb = 0.75

// NEAT evolves goNEAT genomes with speciation. Each species gets offspring
// in proportion to its mean fitness, keeps its champion unchanged and breeds
// the rest from its top SurvivalThreshold members.
type NEAT struct {
	cfg     *config.EvolutionConfig
	opts    *neat.Options
	rng     *rand.Rand
	idGen   *neural.GenomeIDGenerator
	species *neural.SpeciesManager

	genomes []*genetics.Genome
	fitness []float64

	generation int
}

// NewNEAT creates cfg.Sim.Population minimal genomes.
func NewNEAT(cfg *config.Config, rng *rand.Rand) (*NEAT, error) {
	n := cfg.Sim.Population
	opts := neural.NEATOptions(&cfg.Evolution, n)
	s := &NEAT{
		cfg:        &cfg.Evolution,
		opts:       opts,
		rng:        rng,
		idGen:      neural.NewGenomeIDGenerator(),
		species:    neural.NewSpeciesManager(opts, cfg.Evolution.SpeciesElitism),
		genomes:    make([]*genetics.Genome, n),
		fitness:    make([]float64, n),
		generation: 1,
	}
	for i := range s.genomes {
		s.genomes[i] = neural.CreateBrainGenome(s.idGen.NextID(), cfg.Evolution.ConnectionProb, rng)
	}
	s.species.Speciate(s.genomes)
	return s, nil
}

// Name implements Strategy.
func (s *NEAT) Name() string { return "neat" }

// Species exposes the species manager for reporting.
func (s *NEAT) Species() *neural.SpeciesManager { return s.species }

// Candidates implements Strategy. Every call builds fresh phenotypes.
func (s *NEAT) Candidates() ([]game.Candidate, error) {
	cands := make([]game.Candidate, len(s.genomes))
	for i, genome := range s.genomes {
		brain, err := neural.NewBrainController(genome)
		if err != nil {
			return nil, err
		}
		s.fitness[i] = 0
		cands[i] = game.Candidate{ID: genome.Id, Policy: brain, Fitness: &s.fitness[i]}
	}
	return cands, nil
}

// Advance implements Strategy.
func (s *NEAT) Advance() error {
	n := len(s.genomes)
	s.species.Speciate(s.genomes)
	s.species.EndGeneration(s.fitness)
	if len(s.species.Species) == 0 {
		// Every species went stale; start over from one pool.
		s.species.Speciate(s.genomes)
	}

	counts := s.species.OffspringCounts(n)
	next := make([]*genetics.Genome, 0, n)
	for _, sp := range s.species.Species {
		children, err := s.breedSpecies(sp, counts[sp.ID])
		if err != nil {
			return fmt.Errorf("breeding species %d: %w", sp.ID, err)
		}
		next = append(next, children...)
	}

	s.genomes = next
	clear(s.fitness)
	s.generation++
	return nil
}

// breedSpecies produces count offspring from the members of sp.
func (s *NEAT) breedSpecies(sp *neural.Species, count int) ([]*genetics.Genome, error) {
	if count == 0 || len(sp.Members) == 0 {
		return nil, nil
	}

	members := make([]float64, len(sp.Members))
	for i, idx := range sp.Members {
		members[i] = s.fitness[idx]
	}
	ranked := rankByFitness(members)
	survivors := int(math.Ceil(s.opts.SurvivalThresh * float64(len(ranked))))
	survivors = min(max(survivors, 1), len(ranked))

	parent := func() (*genetics.Genome, float64) {
		idx := sp.Members[ranked[s.rng.IntN(survivors)]]
		return s.genomes[idx], s.fitness[idx]
	}

	children := make([]*genetics.Genome, 0, count)

	champion := s.genomes[sp.Members[ranked[0]]]
	clone, err := neural.CloneGenome(champion, s.idGen.NextID())
	if err != nil {
		return nil, err
	}
	children = append(children, clone)

	for len(children) < count {
		var child *genetics.Genome
		p1, f1 := parent()
		if survivors > 1 && s.rng.Float64() < crossoverProb {
			p2, f2 := parent()
			child, err = neural.CrossoverGenomes(p1, p2, f1, f2, s.idGen.NextID(), s.rng)
		} else {
			child, err = neural.CloneGenome(p1, s.idGen.NextID())
		}
		if err != nil {
			return nil, err
		}
		if _, err := neural.MutateGenome(child, s.opts, s.idGen, s.rng); err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// Best implements Strategy.
func (s *NEAT) Best() telemetry.Champion {
	i := rankByFitness(s.fitness)[0]
	return telemetry.Champion{
		Generation:  s.generation,
		CandidateID: s.genomes[i].Id,
		Fitness:     s.fitness[i],
		Strategy:    s.Name(),
		Model:       neural.SummarizeGenome(s.genomes[i]),
	}
}
