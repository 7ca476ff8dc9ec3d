package neural

import (
	"fmt"
	"math/rand/v2"

	"github.com/yaricom/goNEAT/v4/neat/genetics"
	neatmath "github.com/yaricom/goNEAT/v4/neat/math"
	"github.com/yaricom/goNEAT/v4/neat/network"
)

// BrainController wraps a goNEAT network as a Policy.
type BrainController struct {
	Genome  *genetics.Genome
	network *network.Network
	depth   int
}

// NewBrainController creates a controller from a genome.
func NewBrainController(genome *genetics.Genome) (*BrainController, error) {
	b := &BrainController{Genome: genome}
	if err := b.RebuildNetwork(); err != nil {
		return nil, err
	}
	return b, nil
}

// RebuildNetwork recreates the phenotype network from the genome.
// Call this after the genome has been mutated.
func (b *BrainController) RebuildNetwork() error {
	phenotype, err := b.Genome.Genesis(b.Genome.Id)
	if err != nil {
		return fmt.Errorf("failed to build network from genome %d: %w", b.Genome.Id, err)
	}
	b.network = phenotype

	// Activate with depth-based steps for proper signal propagation
	depth, err := phenotype.MaxActivationDepth()
	if err != nil || depth < 1 {
		depth = 5 // Fallback for networks whose depth can't be measured
	}
	b.depth = depth
	return nil
}

// Activate implements Policy. Network state is flushed after every call so
// each decision depends only on the current inputs.
func (b *BrainController) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != NumInputs {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrInputArity, NumInputs, len(inputs))
	}

	if err := b.network.LoadSensors(inputs); err != nil {
		return nil, fmt.Errorf("failed to load sensors: %w", err)
	}

	for i := 0; i < b.depth; i++ {
		if _, err := b.network.Activate(); err != nil {
			return nil, fmt.Errorf("activation failed: %w", err)
		}
	}

	outputs := append([]float64(nil), b.network.ReadOutputs()...)

	if _, err := b.network.Flush(); err != nil {
		return nil, fmt.Errorf("flush failed: %w", err)
	}

	return outputs, nil
}

// NodeCount returns the number of nodes in the network.
func (b *BrainController) NodeCount() int {
	return b.network.NodeCount()
}

// LinkCount returns the number of links (connections) in the network.
func (b *BrainController) LinkCount() int {
	return b.network.LinkCount()
}

// newIONodes returns the NumInputs sensor nodes (ids 1..NumInputs) followed by
// the NumOutputs tanh output nodes.
func newIONodes() []*network.NNode {
	nodes := make([]*network.NNode, 0, NumInputs+NumOutputs)
	for i := 1; i <= NumInputs; i++ {
		node := network.NewNNode(i, network.InputNeuron)
		node.ActivationType = neatmath.LinearActivation
		nodes = append(nodes, node)
	}
	for i := 1; i <= NumOutputs; i++ {
		node := network.NewNNode(NumInputs+i, network.OutputNeuron)
		node.ActivationType = neatmath.TanhActivation
		nodes = append(nodes, node)
	}
	return nodes
}

// CreateBrainGenome creates a brain genome where each input-output pair is
// connected with probability connectionProb. Innovation numbers are assigned
// per pair whether or not it is connected, so every genome built here aligns
// in crossover. At least one connection is always present.
func CreateBrainGenome(id int, connectionProb float64, rng *rand.Rand) *genetics.Genome {
	nodes := newIONodes()
	genes := make([]*genetics.Gene, 0, NumInputs*NumOutputs)
	innovNum := int64(1)

	for i := 0; i < NumInputs; i++ {
		for j := 0; j < NumOutputs; j++ {
			currentInnov := innovNum
			innovNum++

			if rng.Float64() < connectionProb {
				weight := rng.NormFloat64()
				gene := genetics.NewGeneWithTrait(
					nil,                // trait
					weight,             // weight
					nodes[i],           // input node
					nodes[NumInputs+j], // output node
					false,              // recurrent
					currentInnov,       // innovation number
					0,                  // mutation number
				)
				genes = append(genes, gene)
			}
		}
	}

	if len(genes) == 0 {
		i := rng.IntN(NumInputs)
		gene := genetics.NewGeneWithTrait(
			nil,
			rng.NormFloat64(),
			nodes[i],
			nodes[NumInputs],
			false,
			int64(i*NumOutputs+1),
			0,
		)
		genes = append(genes, gene)
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// CreateMinimalBrainGenome creates a fully connected brain genome with the
// given weights, one per input. Useful for tests and hand-built baselines.
func CreateMinimalBrainGenome(id int, weights [NumInputs]float64) *genetics.Genome {
	nodes := newIONodes()
	genes := make([]*genetics.Gene, 0, NumInputs*NumOutputs)
	innovNum := int64(1)

	for i := 0; i < NumInputs; i++ {
		for j := 0; j < NumOutputs; j++ {
			gene := genetics.NewGeneWithTrait(
				nil,
				weights[i],
				nodes[i],
				nodes[NumInputs+j],
				false,
				innovNum,
				0,
			)
			genes = append(genes, gene)
			innovNum++
		}
	}

	return genetics.NewGenome(id, nil, nodes, genes)
}

// GenomeSummary is a flat, serializable view of a genome's topology.
type GenomeSummary struct {
	ID    int           `json:"id"`
	Nodes []NodeSummary `json:"nodes"`
	Links []LinkSummary `json:"links"`
}

// NodeSummary describes one genome node.
type NodeSummary struct {
	ID         int    `json:"id"`
	Type       string `json:"type"`
	Activation string `json:"activation"`
}

// LinkSummary describes one connection gene.
type LinkSummary struct {
	In         int     `json:"in"`
	Out        int     `json:"out"`
	Weight     float64 `json:"weight"`
	Enabled    bool    `json:"enabled"`
	Innovation int64   `json:"innovation"`
}

// SummarizeGenome flattens genome into a GenomeSummary.
func SummarizeGenome(genome *genetics.Genome) GenomeSummary {
	s := GenomeSummary{
		ID:    genome.Id,
		Nodes: make([]NodeSummary, 0, len(genome.Nodes)),
		Links: make([]LinkSummary, 0, len(genome.Genes)),
	}
	for _, node := range genome.Nodes {
		s.Nodes = append(s.Nodes, NodeSummary{
			ID:         node.Id,
			Type:       neuronTypeName(node.NeuronType),
			Activation: activationName(node.ActivationType),
		})
	}
	for _, gene := range genome.Genes {
		s.Links = append(s.Links, LinkSummary{
			In:         gene.Link.InNode.Id,
			Out:        gene.Link.OutNode.Id,
			Weight:     gene.Link.ConnectionWeight,
			Enabled:    gene.IsEnabled,
			Innovation: gene.InnovationNum,
		})
	}
	return s
}

func neuronTypeName(t network.NodeNeuronType) string {
	switch t {
	case network.InputNeuron:
		return "input"
	case network.OutputNeuron:
		return "output"
	case network.HiddenNeuron:
		return "hidden"
	case network.BiasNeuron:
		return "bias"
	default:
		return "unknown"
	}
}

func activationName(t neatmath.NodeActivationType) string {
	switch t {
	case neatmath.LinearActivation:
		return "linear"
	case neatmath.TanhActivation:
		return "tanh"
	default:
		return "other"
	}
}
