package neural

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
)

// NumHidden is the hidden layer width of FFNN.
const NumHidden = 8

// VectorLen is the number of parameters in a flattened FFNN.
const VectorLen = NumHidden*NumInputs + NumHidden + NumOutputs*NumHidden + NumOutputs

// FFNN is a fixed 3-8-1 feedforward network with tanh activations.
type FFNN struct {
	W1 [NumHidden][NumInputs]float32  // input -> hidden weights
	B1 [NumHidden]float32             // hidden biases
	W2 [NumOutputs][NumHidden]float32 // hidden -> output weights
	B2 [NumOutputs]float32            // output biases

	// Scale multiplies raw inputs before the first layer. Inputs are pixel
	// distances, so it is usually 1/field height.
	Scale float32
}

// NewFFNN creates a Xavier-initialized network.
func NewFFNN(rng *rand.Rand, scale float32) *FFNN {
	nn := &FFNN{Scale: scale}
	scale1 := float32(math.Sqrt(2.0 / float64(NumInputs)))
	scale2 := float32(math.Sqrt(2.0 / float64(NumHidden)))

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] = float32(rng.NormFloat64()) * scale1
		}
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] = float32(rng.NormFloat64()) * scale2
		}
	}
	return nn
}

// Forward computes the network output in [-1, 1].
func (nn *FFNN) Forward(inputs [NumInputs]float32) float32 {
	var hidden [NumHidden]float32
	for i := 0; i < NumHidden; i++ {
		sum := nn.B1[i]
		for j := 0; j < NumInputs; j++ {
			sum += nn.W1[i][j] * inputs[j] * nn.Scale
		}
		hidden[i] = tanh(sum)
	}

	sum := nn.B2[0]
	for j := 0; j < NumHidden; j++ {
		sum += nn.W2[0][j] * hidden[j]
	}
	return tanh(sum)
}

// Activate implements Policy.
func (nn *FFNN) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != NumInputs {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrInputArity, NumInputs, len(inputs))
	}
	var in [NumInputs]float32
	for i, v := range inputs {
		in[i] = float32(v)
	}
	return []float64{float64(nn.Forward(in))}, nil
}

// Mutate perturbs weights and biases with Gaussian noise.
func (nn *FFNN) Mutate(rng *rand.Rand, strength float32) {
	for i := range nn.W1 {
		for j := range nn.W1[i] {
			nn.W1[i][j] += float32(rng.NormFloat64()) * strength
		}
		nn.B1[i] += float32(rng.NormFloat64()) * strength
	}

	for i := range nn.W2 {
		for j := range nn.W2[i] {
			nn.W2[i][j] += float32(rng.NormFloat64()) * strength
		}
		nn.B2[i] += float32(rng.NormFloat64()) * strength
	}
}

// MutateSparse applies sparse per-weight mutation.
// rate: probability each weight mutates
// sigma: standard deviation of normal perturbation
// bigRate: probability that a mutating weight takes a large step
// bigSigma: sigma for large steps
// Biases mutate at half the rate. Returns the average absolute delta of the
// applied mutations.
func (nn *FFNN) MutateSparse(rng *rand.Rand, rate, sigma, bigRate, bigSigma float32) float32 {
	m := sparseMutator{rng: rng, sigma: sigma, bigRate: bigRate, bigSigma: bigSigma}
	biasRate := rate * 0.5

	for i := range nn.W1 {
		for j := range nn.W1[i] {
			m.maybe(&nn.W1[i][j], rate)
		}
		m.maybe(&nn.B1[i], biasRate)
	}
	for i := range nn.W2 {
		for j := range nn.W2[i] {
			m.maybe(&nn.W2[i][j], rate)
		}
		m.maybe(&nn.B2[i], biasRate)
	}

	if m.count == 0 {
		return 0
	}
	return m.total / float32(m.count)
}

type sparseMutator struct {
	rng      *rand.Rand
	sigma    float32
	bigRate  float32
	bigSigma float32
	total    float32
	count    int
}

func (m *sparseMutator) maybe(w *float32, rate float32) {
	if m.rng.Float32() >= rate {
		return
	}
	sigma := m.sigma
	if m.rng.Float32() < m.bigRate {
		sigma = m.bigSigma
	}
	delta := float32(m.rng.NormFloat64()) * sigma
	*w += delta
	m.total += abs32(delta)
	m.count++
}

// abs32 returns the absolute value of x.
func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// Clone creates a deep copy of the network.
func (nn *FFNN) Clone() *FFNN {
	clone := *nn
	return &clone
}

// tanh uses a fast rational approximation avoiding float64 conversion.
func tanh(x float32) float32 {
	if x > 4 {
		return 1
	}
	if x < -4 {
		return -1
	}
	x2 := x * x
	return x * (27 + x2) / (27 + 9*x2)
}

// BrainWeights holds flattened network weights for serialization.
type BrainWeights struct {
	W1    []float32 `json:"w1"` // [NumHidden * NumInputs]
	B1    []float32 `json:"b1"` // [NumHidden]
	W2    []float32 `json:"w2"` // [NumOutputs * NumHidden]
	B2    []float32 `json:"b2"` // [NumOutputs]
	Scale float32   `json:"scale"`
}

// MarshalWeights flattens the network weights for JSON serialization.
func (nn *FFNN) MarshalWeights() BrainWeights {
	bw := BrainWeights{
		W1:    make([]float32, 0, NumHidden*NumInputs),
		B1:    append([]float32(nil), nn.B1[:]...),
		W2:    make([]float32, 0, NumOutputs*NumHidden),
		B2:    append([]float32(nil), nn.B2[:]...),
		Scale: nn.Scale,
	}
	for i := range nn.W1 {
		bw.W1 = append(bw.W1, nn.W1[i][:]...)
	}
	for i := range nn.W2 {
		bw.W2 = append(bw.W2, nn.W2[i][:]...)
	}
	return bw
}

// UnmarshalWeights restores network weights from flattened form. Missing
// trailing values leave the current weights in place.
func (nn *FFNN) UnmarshalWeights(bw BrainWeights) {
	for i := 0; i < NumHidden; i++ {
		for j := 0; j < NumInputs; j++ {
			if i*NumInputs+j < len(bw.W1) {
				nn.W1[i][j] = bw.W1[i*NumInputs+j]
			}
		}
	}
	for i := 0; i < NumHidden && i < len(bw.B1); i++ {
		nn.B1[i] = bw.B1[i]
	}
	for i := 0; i < NumOutputs; i++ {
		for j := 0; j < NumHidden; j++ {
			if i*NumHidden+j < len(bw.W2) {
				nn.W2[i][j] = bw.W2[i*NumHidden+j]
			}
		}
	}
	for i := 0; i < NumOutputs && i < len(bw.B2); i++ {
		nn.B2[i] = bw.B2[i]
	}
	if bw.Scale != 0 {
		nn.Scale = bw.Scale
	}
}

// Vector returns every parameter as one float64 slice of length VectorLen,
// in W1, B1, W2, B2 order.
func (nn *FFNN) Vector() []float64 {
	bw := nn.MarshalWeights()
	v := make([]float64, 0, VectorLen)
	for _, part := range [][]float32{bw.W1, bw.B1, bw.W2, bw.B2} {
		for _, w := range part {
			v = append(v, float64(w))
		}
	}
	return v
}

// SetVector loads parameters produced by Vector.
func (nn *FFNN) SetVector(v []float64) error {
	if len(v) != VectorLen {
		return fmt.Errorf("weight vector has %d values, want %d", len(v), VectorLen)
	}
	next := func(n int) []float32 {
		out := make([]float32, n)
		for i := range out {
			out[i] = float32(v[i])
		}
		v = v[n:]
		return out
	}
	nn.UnmarshalWeights(BrainWeights{
		W1: next(NumHidden * NumInputs),
		B1: next(NumHidden),
		W2: next(NumOutputs * NumHidden),
		B2: next(NumOutputs),
	})
	return nil
}

// LoadWeights reads a BrainWeights JSON file into a new network. A file
// without a scale keeps the given one.
func LoadWeights(path string, scale float32) (*FFNN, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading weights: %w", err)
	}
	var bw BrainWeights
	if err := json.Unmarshal(data, &bw); err != nil {
		return nil, fmt.Errorf("parsing weights: %w", err)
	}
	nn := &FFNN{Scale: scale}
	nn.UnmarshalWeights(bw)
	return nn, nil
}
