package neural

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/pthm-cable/flock/config"
	"github.com/yaricom/goNEAT/v4/neat"
	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// Mutation constants
const (
	perturbProb         = 0.9  // Probability of perturbing vs replacing weights
	maxConnectionWeight = 8.0  // Maximum absolute connection weight
	maxLinkAttempts     = 20   // Maximum attempts to find a new connection
	disableInheritProb  = 0.75 // Chance a gene disabled in either parent stays disabled
	initialInnovNum     = 1000 // Starting innovation number to avoid conflicts
	initialNodeID       = 100  // Starting hidden node id, above all I/O ids
)

var errNilGenome = errors.New("nil genome")

// NEATOptions maps the evolution config onto goNEAT options.
func NEATOptions(cfg *config.EvolutionConfig, population int) *neat.Options {
	return &neat.Options{
		WeightMutPower:         cfg.WeightMutPower,
		MutateAddNodeProb:      cfg.AddNodeProb,
		MutateAddLinkProb:      cfg.AddLinkProb,
		MutateToggleEnableProb: cfg.ToggleEnableProb,
		MutateLinkWeightsProb:  cfg.LinkWeightsProb,

		CompatThreshold: cfg.CompatThreshold,
		DisjointCoeff:   cfg.DisjointCoeff,
		ExcessCoeff:     cfg.ExcessCoeff,
		MutdiffCoeff:    cfg.MutdiffCoeff,

		DropOffAge:     cfg.MaxStagnation,
		SurvivalThresh: cfg.SurvivalThreshold,

		PopSize: population,
	}
}

// GenomeIDGenerator hands out genome ids, innovation numbers and hidden node
// ids that are unique across a run.
type GenomeIDGenerator struct {
	nextID       int
	nextInnovNum int64
	nextNodeID   int
}

// NewGenomeIDGenerator creates a new ID generator.
func NewGenomeIDGenerator() *GenomeIDGenerator {
	return &GenomeIDGenerator{
		nextID:       1,
		nextInnovNum: initialInnovNum,
		nextNodeID:   initialNodeID,
	}
}

// NextID returns the next unique genome ID.
func (g *GenomeIDGenerator) NextID() int {
	id := g.nextID
	g.nextID++
	return id
}

// NextInnovation returns the next innovation number.
func (g *GenomeIDGenerator) NextInnovation() int64 {
	num := g.nextInnovNum
	g.nextInnovNum++
	return num
}

// NextNodeID returns the next hidden node id.
func (g *GenomeIDGenerator) NextNodeID() int {
	id := g.nextNodeID
	g.nextNodeID++
	return id
}

// CrossoverGenomes performs NEAT-style crossover between two parent genomes.
// Genes are aligned by innovation number. Matching genes are inherited from
// either parent at random; disjoint and excess genes come from the fitter
// parent, or from both with even odds when fitness is equal.
func CrossoverGenomes(parent1, parent2 *genetics.Genome, fitness1, fitness2 float64, childID int, rng *rand.Rand) (*genetics.Genome, error) {
	if parent1 == nil || parent2 == nil {
		return nil, errNilGenome
	}

	primary, secondary := parent1, parent2
	if fitness2 > fitness1 {
		primary, secondary = parent2, parent1
	}

	primaryGenes := genesByInnovation(primary)
	secondaryGenes := genesByInnovation(secondary)

	innovations := make([]int64, 0, len(primaryGenes)+len(secondaryGenes))
	for innov := range primaryGenes {
		innovations = append(innovations, innov)
	}
	for innov := range secondaryGenes {
		if _, ok := primaryGenes[innov]; !ok {
			innovations = append(innovations, innov)
		}
	}
	// Sort innovations for deterministic ordering
	sort.Slice(innovations, func(i, j int) bool { return innovations[i] < innovations[j] })

	childNodeMap := make(map[int]*network.NNode)
	for _, node := range primary.Nodes {
		childNodeMap[node.Id] = copyNode(node)
	}
	for _, node := range secondary.Nodes {
		if _, exists := childNodeMap[node.Id]; !exists {
			childNodeMap[node.Id] = copyNode(node)
		}
	}

	childGenes := make([]*genetics.Gene, 0, len(innovations))
	for _, innov := range innovations {
		pGene := primaryGenes[innov]
		sGene := secondaryGenes[innov]

		var selected *genetics.Gene
		enabled := true

		switch {
		case pGene != nil && sGene != nil:
			selected = pGene
			if rng.Float64() < 0.5 {
				selected = sGene
			}
			if (!pGene.IsEnabled || !sGene.IsEnabled) && rng.Float64() < disableInheritProb {
				enabled = false
			}
		case pGene != nil:
			selected = pGene
			enabled = pGene.IsEnabled
		case fitness1 == fitness2 && rng.Float64() < 0.5:
			selected = sGene
			enabled = sGene.IsEnabled
		}
		if selected == nil {
			continue
		}

		inNode := childNodeMap[selected.Link.InNode.Id]
		outNode := childNodeMap[selected.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		childGene := genetics.NewGeneWithTrait(
			nil,
			selected.Link.ConnectionWeight,
			inNode,
			outNode,
			selected.Link.IsRecurrent,
			selected.InnovationNum,
			selected.MutationNum,
		)
		childGene.IsEnabled = enabled
		childGenes = append(childGenes, childGene)
	}

	childNodes := make([]*network.NNode, 0, len(childNodeMap))
	for _, node := range childNodeMap {
		childNodes = append(childNodes, node)
	}
	sort.Slice(childNodes, func(i, j int) bool { return childNodes[i].Id < childNodes[j].Id })

	child := genetics.NewGenome(childID, nil, childNodes, childGenes)
	ensureOutputsConnected(child)
	return child, nil
}

func genesByInnovation(g *genetics.Genome) map[int64]*genetics.Gene {
	m := make(map[int64]*genetics.Gene, len(g.Genes))
	for _, gene := range g.Genes {
		m[gene.InnovationNum] = gene
	}
	return m
}

func copyNode(node *network.NNode) *network.NNode {
	newNode := network.NewNNode(node.Id, node.NeuronType)
	newNode.ActivationType = node.ActivationType
	return newNode
}

// ensureOutputsConnected makes every output reachable from the inputs over
// enabled genes. An unreachable output gets one of its direct input genes
// re-enabled; every genome keeps at least one, since genes are only ever
// disabled and crossover keeps all genes of the fitter parent.
func ensureOutputsConnected(genome *genetics.Genome) {
	live := make(map[int]bool, len(genome.Nodes))
	for _, node := range genome.Nodes {
		if node.NeuronType == network.InputNeuron || node.NeuronType == network.BiasNeuron {
			live[node.Id] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for _, gene := range genome.Genes {
			if gene.IsEnabled && live[gene.Link.InNode.Id] && !live[gene.Link.OutNode.Id] {
				live[gene.Link.OutNode.Id] = true
				changed = true
			}
		}
	}

	for _, node := range genome.Nodes {
		if node.NeuronType != network.OutputNeuron || live[node.Id] {
			continue
		}
		for _, gene := range genome.Genes {
			if gene.Link.OutNode.Id == node.Id && gene.Link.InNode.NeuronType == network.InputNeuron {
				gene.IsEnabled = true
				break
			}
		}
	}
}

// MutateGenome applies weight and structural mutations according to opts.
// It reports whether anything changed.
func MutateGenome(genome *genetics.Genome, opts *neat.Options, idGen *GenomeIDGenerator, rng *rand.Rand) (bool, error) {
	if genome == nil {
		return false, errNilGenome
	}

	mutated := false

	if rng.Float64() < opts.MutateLinkWeightsProb {
		mutateWeights(genome, opts.WeightMutPower, rng)
		mutated = true
	}

	if rng.Float64() < opts.MutateAddNodeProb {
		if addNode(genome, idGen, rng) {
			mutated = true
		}
	}

	if rng.Float64() < opts.MutateAddLinkProb {
		if addLink(genome, idGen, rng) {
			mutated = true
		}
	}

	if rng.Float64() < opts.MutateToggleEnableProb {
		if toggleEnable(genome, rng) {
			mutated = true
		}
	}

	ensureOutputsConnected(genome)
	return mutated, nil
}

func mutateWeights(genome *genetics.Genome, power float64, rng *rand.Rand) {
	for _, gene := range genome.Genes {
		if rng.Float64() < perturbProb {
			gene.Link.ConnectionWeight += rng.NormFloat64() * power
		} else {
			gene.Link.ConnectionWeight = rng.NormFloat64()
		}
		gene.Link.ConnectionWeight = clampWeight(gene.Link.ConnectionWeight)
	}
}

// clampWeight clamps a connection weight to the valid range.
func clampWeight(w float64) float64 {
	return math.Max(-maxConnectionWeight, math.Min(maxConnectionWeight, w))
}

// addNode splits a random enabled gene with a new tanh hidden node.
func addNode(genome *genetics.Genome, idGen *GenomeIDGenerator, rng *rand.Rand) bool {
	enabledGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		if gene.IsEnabled {
			enabledGenes = append(enabledGenes, gene)
		}
	}
	if len(enabledGenes) == 0 {
		return false
	}

	geneToSplit := enabledGenes[rng.IntN(len(enabledGenes))]
	geneToSplit.IsEnabled = false

	newNode := network.NewNNode(idGen.NextNodeID(), network.HiddenNeuron)
	newNode.ActivationType = neatmath.TanhActivation

	// old_in -> new_node (weight 1.0)
	gene1 := genetics.NewGeneWithTrait(
		nil,
		1.0,
		geneToSplit.Link.InNode,
		newNode,
		false,
		idGen.NextInnovation(),
		0,
	)

	// new_node -> old_out (old weight)
	gene2 := genetics.NewGeneWithTrait(
		nil,
		geneToSplit.Link.ConnectionWeight,
		newNode,
		geneToSplit.Link.OutNode,
		false,
		idGen.NextInnovation(),
		0,
	)

	genome.Nodes = append(genome.Nodes, newNode)
	genome.Genes = append(genome.Genes, gene1, gene2)

	return true
}

// addLink connects a random input to a hidden or output node, or a hidden
// node to an output, where no connection exists yet. Hidden-to-hidden links
// only come from node splits, which keeps every network acyclic.
func addLink(genome *genetics.Genome, idGen *GenomeIDGenerator, rng *rand.Rand) bool {
	var inputs, outputs, hidden []*network.NNode
	for _, node := range genome.Nodes {
		switch node.NeuronType {
		case network.InputNeuron, network.BiasNeuron:
			inputs = append(inputs, node)
		case network.OutputNeuron:
			outputs = append(outputs, node)
		case network.HiddenNeuron:
			hidden = append(hidden, node)
		}
	}

	sources := append(append([]*network.NNode(nil), inputs...), hidden...)
	targets := append(append([]*network.NNode(nil), hidden...), outputs...)
	if len(sources) == 0 || len(targets) == 0 {
		return false
	}

	existing := make(map[int64]bool, len(genome.Genes))
	for _, gene := range genome.Genes {
		existing[connectionKey(gene.Link.InNode.Id, gene.Link.OutNode.Id)] = true
	}

	for attempt := 0; attempt < maxLinkAttempts; attempt++ {
		source := sources[rng.IntN(len(sources))]
		target := targets[rng.IntN(len(targets))]

		if source.Id == target.Id {
			continue
		}
		if source.NeuronType == network.HiddenNeuron && target.NeuronType == network.HiddenNeuron {
			continue
		}
		if existing[connectionKey(source.Id, target.Id)] {
			continue
		}

		newGene := genetics.NewGeneWithTrait(
			nil,
			rng.NormFloat64(),
			source,
			target,
			false,
			idGen.NextInnovation(),
			0,
		)
		genome.Genes = append(genome.Genes, newGene)
		return true
	}

	return false
}

// connectionKey creates a unique key for a connection between two nodes.
func connectionKey(inID, outID int) int64 {
	return int64(inID)<<32 | int64(outID)
}

// toggleEnable flips a random gene, undoing the flip if it would leave an
// output without an enabled incoming gene.
func toggleEnable(genome *genetics.Genome, rng *rand.Rand) bool {
	if len(genome.Genes) == 0 {
		return false
	}

	gene := genome.Genes[rng.IntN(len(genome.Genes))]
	gene.IsEnabled = !gene.IsEnabled

	if !gene.IsEnabled && gene.Link.OutNode.NeuronType == network.OutputNeuron {
		for _, g := range genome.Genes {
			if g.Link.OutNode.Id == gene.Link.OutNode.Id && g.IsEnabled {
				return true
			}
		}
		gene.IsEnabled = true
		return false
	}
	return true
}

// CloneGenome creates a deep copy of a genome with a new ID.
func CloneGenome(genome *genetics.Genome, newID int) (*genetics.Genome, error) {
	if genome == nil {
		return nil, errNilGenome
	}

	nodeMap := make(map[int]*network.NNode, len(genome.Nodes))
	newNodes := make([]*network.NNode, 0, len(genome.Nodes))
	for _, node := range genome.Nodes {
		newNode := copyNode(node)
		nodeMap[node.Id] = newNode
		newNodes = append(newNodes, newNode)
	}

	newGenes := make([]*genetics.Gene, 0, len(genome.Genes))
	for _, gene := range genome.Genes {
		inNode := nodeMap[gene.Link.InNode.Id]
		outNode := nodeMap[gene.Link.OutNode.Id]
		if inNode == nil || outNode == nil {
			continue
		}
		newGene := genetics.NewGeneWithTrait(
			nil,
			gene.Link.ConnectionWeight,
			inNode,
			outNode,
			gene.Link.IsRecurrent,
			gene.InnovationNum,
			gene.MutationNum,
		)
		newGene.IsEnabled = gene.IsEnabled
		newGenes = append(newGenes, newGene)
	}

	return genetics.NewGenome(newID, nil, newNodes, newGenes), nil
}

// GenomeCompatibility calculates the compatibility distance between two genomes.
func GenomeCompatibility(g1, g2 *genetics.Genome, opts *neat.Options) float64 {
	if g1 == nil || g2 == nil {
		return math.MaxFloat64
	}

	genes1 := genesByInnovation(g1)
	genes2 := genesByInnovation(g2)

	maxInnov1 := int64(0)
	for innov := range genes1 {
		maxInnov1 = max(maxInnov1, innov)
	}
	maxInnov2 := int64(0)
	for innov := range genes2 {
		maxInnov2 = max(maxInnov2, innov)
	}

	matching, disjoint, excess := 0, 0, 0
	weightDiff := 0.0

	for innov, gene1 := range genes1 {
		if gene2, exists := genes2[innov]; exists {
			matching++
			weightDiff += math.Abs(gene1.Link.ConnectionWeight - gene2.Link.ConnectionWeight)
		} else if innov > maxInnov2 {
			excess++
		} else {
			disjoint++
		}
	}
	for innov := range genes2 {
		if _, exists := genes1[innov]; !exists {
			if innov > maxInnov1 {
				excess++
			} else {
				disjoint++
			}
		}
	}

	n := float64(max(len(g1.Genes), len(g2.Genes)))
	if n < 20 {
		n = 1 // Don't normalize small genomes
	}

	avgWeightDiff := 0.0
	if matching > 0 {
		avgWeightDiff = weightDiff / float64(matching)
	}

	return (opts.ExcessCoeff*float64(excess)+opts.DisjointCoeff*float64(disjoint))/n +
		opts.MutdiffCoeff*avgWeightDiff
}
