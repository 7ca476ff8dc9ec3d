package neural

import (
	"math/rand/v2"
	"testing"

	"github.com/pthm-cable/flock/config"
)

func testOptions() *config.Config {
	return config.Default()
}

func TestGenomeIDGenerator(t *testing.T) {
	gen := NewGenomeIDGenerator()

	id1, id2 := gen.NextID(), gen.NextID()
	if id1 >= id2 {
		t.Errorf("IDs should be strictly increasing: %d, %d", id1, id2)
	}

	innov1, innov2 := gen.NextInnovation(), gen.NextInnovation()
	if innov1 >= innov2 {
		t.Errorf("innovations should be strictly increasing: %d, %d", innov1, innov2)
	}
	if innov1 <= NumInputs*NumOutputs {
		t.Errorf("innovation %d collides with initial genome innovations", innov1)
	}

	if node := gen.NextNodeID(); node <= NumInputs+NumOutputs {
		t.Errorf("node id %d collides with I/O node ids", node)
	}
}

func TestNEATOptions(t *testing.T) {
	cfg := testOptions()
	opts := NEATOptions(&cfg.Evolution, cfg.Sim.Population)

	if opts.CompatThreshold != cfg.Evolution.CompatThreshold {
		t.Errorf("CompatThreshold = %v, want %v", opts.CompatThreshold, cfg.Evolution.CompatThreshold)
	}
	if opts.MutateAddNodeProb != cfg.Evolution.AddNodeProb {
		t.Errorf("MutateAddNodeProb = %v, want %v", opts.MutateAddNodeProb, cfg.Evolution.AddNodeProb)
	}
	if opts.PopSize != cfg.Sim.Population {
		t.Errorf("PopSize = %d, want %d", opts.PopSize, cfg.Sim.Population)
	}
}

func TestCrossoverGenomes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 0))
	parent1 := CreateBrainGenome(1, 0.5, rng)
	parent2 := CreateBrainGenome(2, 0.5, rng)

	child, err := CrossoverGenomes(parent1, parent2, 1.0, 1.0, 3, rng)
	if err != nil {
		t.Fatalf("CrossoverGenomes failed: %v", err)
	}
	if child.Id != 3 {
		t.Errorf("expected child ID 3, got %d", child.Id)
	}
	if len(child.Nodes) != NumInputs+NumOutputs {
		t.Errorf("child has %d nodes, want %d", len(child.Nodes), NumInputs+NumOutputs)
	}
	if _, err := NewBrainController(child); err != nil {
		t.Errorf("child genome does not build: %v", err)
	}
}

func TestCrossoverFitterParentContributesExtras(t *testing.T) {
	rng := rand.New(rand.NewPCG(2, 0))
	idGen := NewGenomeIDGenerator()

	fit := CreateMinimalBrainGenome(1, [NumInputs]float64{1, 1, 1})
	weak := CreateMinimalBrainGenome(2, [NumInputs]float64{-1, -1, -1})
	if !addNode(fit, idGen, rng) {
		t.Fatal("addNode failed")
	}

	child, err := CrossoverGenomes(weak, fit, 0, 10, 3, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(child.Genes) != len(fit.Genes) {
		t.Errorf("child has %d genes, want %d from the fitter parent", len(child.Genes), len(fit.Genes))
	}
	if len(child.Nodes) != len(fit.Nodes) {
		t.Errorf("child has %d nodes, want %d", len(child.Nodes), len(fit.Nodes))
	}

	// Extras of the weaker parent are never inherited
	child, err = CrossoverGenomes(fit, weak, 10, 0, 4, rng)
	if err != nil {
		t.Fatal(err)
	}
	if len(child.Genes) != len(fit.Genes) {
		t.Errorf("child has %d genes, want %d", len(child.Genes), len(fit.Genes))
	}
}

func TestCrossoverNilParent(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 0))
	if _, err := CrossoverGenomes(nil, CreateBrainGenome(1, 1, rng), 0, 0, 2, rng); err == nil {
		t.Error("expected error for nil parent")
	}
}

func TestMutateGenome(t *testing.T) {
	cfg := testOptions()
	opts := NEATOptions(&cfg.Evolution, cfg.Sim.Population)
	opts.MutateLinkWeightsProb = 1.0
	rng := rand.New(rand.NewPCG(3, 0))
	idGen := NewGenomeIDGenerator()

	genome := CreateMinimalBrainGenome(1, [NumInputs]float64{0.5, 0.5, 0.5})
	mutated, err := MutateGenome(genome, opts, idGen, rng)
	if err != nil {
		t.Fatalf("MutateGenome failed: %v", err)
	}
	if !mutated {
		t.Error("expected mutation with MutateLinkWeightsProb = 1")
	}

	changed := false
	for _, g := range genome.Genes {
		if g.Link.ConnectionWeight != 0.5 {
			changed = true
		}
		if g.Link.ConnectionWeight > maxConnectionWeight || g.Link.ConnectionWeight < -maxConnectionWeight {
			t.Errorf("weight %v outside clamp range", g.Link.ConnectionWeight)
		}
	}
	if !changed {
		t.Error("no weight changed")
	}
}

func TestStructuralMutationsKeepGenomeBuildable(t *testing.T) {
	cfg := testOptions()
	opts := NEATOptions(&cfg.Evolution, cfg.Sim.Population)
	opts.MutateAddNodeProb = 0.5
	opts.MutateAddLinkProb = 0.5
	opts.MutateToggleEnableProb = 0.5
	rng := rand.New(rand.NewPCG(4, 0))
	idGen := NewGenomeIDGenerator()

	genome := CreateBrainGenome(1, 1, rng)
	for i := 0; i < 50; i++ {
		if _, err := MutateGenome(genome, opts, idGen, rng); err != nil {
			t.Fatal(err)
		}
	}

	controller, err := NewBrainController(genome)
	if err != nil {
		t.Fatalf("mutated genome does not build: %v", err)
	}
	out, err := controller.Activate([]float64{0.3, 0.1, 0.2})
	if err != nil {
		t.Fatalf("mutated genome does not activate: %v", err)
	}
	if len(out) != NumOutputs {
		t.Errorf("got %d outputs, want %d", len(out), NumOutputs)
	}
	t.Logf("Mutated genome has %d nodes and %d genes", len(genome.Nodes), len(genome.Genes))
}

func TestAddNodeSplitsGene(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 0))
	idGen := NewGenomeIDGenerator()
	genome := CreateMinimalBrainGenome(1, [NumInputs]float64{1, 1, 1})

	if !addNode(genome, idGen, rng) {
		t.Fatal("addNode failed")
	}
	if len(genome.Nodes) != NumInputs+NumOutputs+1 {
		t.Errorf("expected one new node, have %d nodes", len(genome.Nodes))
	}
	if len(genome.Genes) != NumInputs*NumOutputs+2 {
		t.Errorf("expected two new genes, have %d", len(genome.Genes))
	}

	disabled := 0
	for _, g := range genome.Genes {
		if !g.IsEnabled {
			disabled++
		}
	}
	if disabled != 1 {
		t.Errorf("expected the split gene disabled, %d disabled", disabled)
	}
}

func TestToggleEnableKeepsOutputConnected(t *testing.T) {
	rng := rand.New(rand.NewPCG(6, 0))
	genome := CreateMinimalBrainGenome(1, [NumInputs]float64{1, 1, 1})

	for i := 0; i < 100; i++ {
		toggleEnable(genome, rng)
		enabled := 0
		for _, g := range genome.Genes {
			if g.IsEnabled {
				enabled++
			}
		}
		if enabled == 0 {
			t.Fatalf("toggle %d left the output disconnected", i)
		}
	}
}

func TestCloneGenome(t *testing.T) {
	original := CreateMinimalBrainGenome(1, [NumInputs]float64{0.1, 0.2, 0.3})

	clone, err := CloneGenome(original, 2)
	if err != nil {
		t.Fatalf("CloneGenome failed: %v", err)
	}
	if clone.Id != 2 {
		t.Errorf("expected clone ID 2, got %d", clone.Id)
	}
	if len(clone.Genes) != len(original.Genes) || len(clone.Nodes) != len(original.Nodes) {
		t.Fatal("clone shape differs")
	}

	clone.Genes[0].Link.ConnectionWeight = 99
	if original.Genes[0].Link.ConnectionWeight == 99 {
		t.Error("clone shares genes with the original")
	}
}

func TestGenomeCompatibility(t *testing.T) {
	cfg := testOptions()
	opts := NEATOptions(&cfg.Evolution, cfg.Sim.Population)

	a := CreateMinimalBrainGenome(1, [NumInputs]float64{1, 1, 1})
	if d := GenomeCompatibility(a, a, opts); d != 0 {
		t.Errorf("self distance = %v, want 0", d)
	}

	b := CreateMinimalBrainGenome(2, [NumInputs]float64{0, 0, 0})
	want := opts.MutdiffCoeff * 1.0
	if d := GenomeCompatibility(a, b, opts); d != want {
		t.Errorf("weight-only distance = %v, want %v", d, want)
	}

	if d := GenomeCompatibility(a, nil, opts); d < 1e300 {
		t.Errorf("nil distance = %v, want MaxFloat64", d)
	}
}

func BenchmarkMutateGenome(b *testing.B) {
	cfg := testOptions()
	opts := NEATOptions(&cfg.Evolution, cfg.Sim.Population)
	rng := rand.New(rand.NewPCG(1, 0))
	idGen := NewGenomeIDGenerator()
	genome := CreateBrainGenome(1, 1, rng)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MutateGenome(genome, opts, idGen, rng)
	}
}
