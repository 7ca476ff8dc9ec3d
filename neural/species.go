package neural

import (
	"math"
	"sort"

	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
)

// Species represents a group of genetically similar genomes.
type Species struct {
	ID             int
	Representative *genetics.Genome // Used for compatibility comparisons
	Members        []int            // Population indices of members
	BestFitness    float64          // Best member fitness ever seen
	MeanFitness    float64          // Mean member fitness of the last generation
	Age            int              // Generations since species was created
	Staleness      int              // Generations without fitness improvement
}

// SpeciesManager manages speciation for the population.
type SpeciesManager struct {
	Species []*Species

	// Elitism is the number of best species protected from stagnation removal.
	Elitism int

	opts          *neat.Options
	nextSpeciesID int
	generation    int
}

// NewSpeciesManager creates a new species manager.
func NewSpeciesManager(opts *neat.Options, elitism int) *SpeciesManager {
	return &SpeciesManager{
		Species:       make([]*Species, 0),
		Elitism:       elitism,
		opts:          opts,
		nextSpeciesID: 1,
	}
}

// AssignSpecies finds or creates a species for the given genome.
// Returns the species ID.
func (sm *SpeciesManager) AssignSpecies(genome *genetics.Genome) int {
	if genome == nil {
		return 0
	}

	for _, sp := range sm.Species {
		if sp.Representative == nil {
			continue
		}
		if GenomeCompatibility(genome, sp.Representative, sm.opts) < sm.opts.CompatThreshold {
			return sp.ID
		}
	}

	// No compatible species - create a new one
	sp := &Species{
		ID:             sm.nextSpeciesID,
		Representative: genome,
		Members:        make([]int, 0),
	}
	sm.nextSpeciesID++
	sm.Species = append(sm.Species, sp)

	return sp.ID
}

// GetSpecies returns the species with the given ID, or nil.
func (sm *SpeciesManager) GetSpecies(speciesID int) *Species {
	for _, sp := range sm.Species {
		if sp.ID == speciesID {
			return sp
		}
	}
	return nil
}

// AddMember adds a population index to its species.
func (sm *SpeciesManager) AddMember(speciesID int, index int) {
	if sp := sm.GetSpecies(speciesID); sp != nil {
		sp.Members = append(sp.Members, index)
	}
}

// Speciate rebuilds membership from scratch for genomes and returns the
// species ID of each genome. Species left without members are dropped and
// every surviving species takes its first member as the new representative.
func (sm *SpeciesManager) Speciate(genomes []*genetics.Genome) []int {
	for _, sp := range sm.Species {
		sp.Members = sp.Members[:0]
	}

	ids := make([]int, len(genomes))
	for i, g := range genomes {
		ids[i] = sm.AssignSpecies(g)
		sm.AddMember(ids[i], i)
	}

	active := sm.Species[:0]
	for _, sp := range sm.Species {
		if len(sp.Members) == 0 {
			continue
		}
		sp.Representative = genomes[sp.Members[0]]
		active = append(active, sp)
	}
	sm.Species = active

	return ids
}

// EndGeneration records member fitness, ages every species and removes the
// stale ones. fitness is indexed by population index.
func (sm *SpeciesManager) EndGeneration(fitness []float64) {
	sm.generation++

	for _, sp := range sm.Species {
		sp.Age++
		sp.Staleness++

		best := math.Inf(-1)
		total := 0.0
		for _, idx := range sp.Members {
			best = math.Max(best, fitness[idx])
			total += fitness[idx]
		}
		if len(sp.Members) > 0 {
			sp.MeanFitness = total / float64(len(sp.Members))
		}
		if sp.Age == 1 || best > sp.BestFitness {
			sp.BestFitness = best
			sp.Staleness = 0
		}
	}

	sm.RemoveStaleSpecies()
}

// RemoveStaleSpecies removes species that have not improved for DropOffAge
// generations, except the Elitism best ones.
func (sm *SpeciesManager) RemoveStaleSpecies() {
	if sm.opts.DropOffAge <= 0 {
		return
	}

	ranked := make([]*Species, len(sm.Species))
	copy(ranked, sm.Species)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].BestFitness > ranked[j].BestFitness
	})
	protected := make(map[int]bool, sm.Elitism)
	for i := 0; i < sm.Elitism && i < len(ranked); i++ {
		protected[ranked[i].ID] = true
	}

	active := make([]*Species, 0, len(sm.Species))
	for _, sp := range sm.Species {
		if protected[sp.ID] || sp.Staleness < sm.opts.DropOffAge {
			active = append(active, sp)
		}
	}
	sm.Species = active
}

// OffspringCounts splits total offspring across the current species in
// proportion to their mean fitness, shifted so the weakest species still
// gets a share. Every species receives at least one slot while slots last.
// The result is keyed by species ID and sums to total.
func (sm *SpeciesManager) OffspringCounts(total int) map[int]int {
	counts := make(map[int]int, len(sm.Species))
	if len(sm.Species) == 0 || total <= 0 {
		return counts
	}

	minMean := math.Inf(1)
	for _, sp := range sm.Species {
		minMean = math.Min(minMean, sp.MeanFitness)
	}

	shares := make([]float64, len(sm.Species))
	sum := 0.0
	for i, sp := range sm.Species {
		shares[i] = sp.MeanFitness - minMean + 1
		sum += shares[i]
	}

	assigned := 0
	for i, sp := range sm.Species {
		n := int(math.Floor(shares[i] / sum * float64(total)))
		if n < 1 && assigned < total {
			n = 1
		}
		n = min(n, total-assigned)
		counts[sp.ID] = n
		assigned += n
	}

	// Hand out rounding leftovers to the strongest species first
	order := make([]int, len(sm.Species))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return shares[order[a]] > shares[order[b]] })
	for i := 0; assigned < total; i = (i + 1) % len(order) {
		counts[sm.Species[order[i]].ID]++
		assigned++
	}

	return counts
}

// SpeciesStats contains summary statistics about all species.
type SpeciesStats struct {
	Count            int
	LargestSize      int
	SmallestSize     int
	AverageStaleness float64
	Generation       int
	BestFitness      float64
}

// GetStats returns summary statistics about species distribution.
func (sm *SpeciesManager) GetStats() SpeciesStats {
	stats := SpeciesStats{Count: len(sm.Species), Generation: sm.generation}
	if len(sm.Species) == 0 {
		return stats
	}

	stats.SmallestSize = math.MaxInt
	stats.BestFitness = math.Inf(-1)
	totalStaleness := 0
	for _, sp := range sm.Species {
		size := len(sp.Members)
		stats.LargestSize = max(stats.LargestSize, size)
		stats.SmallestSize = min(stats.SmallestSize, size)
		stats.BestFitness = math.Max(stats.BestFitness, sp.BestFitness)
		totalStaleness += sp.Staleness
	}
	stats.AverageStaleness = float64(totalStaleness) / float64(stats.Count)

	return stats
}
