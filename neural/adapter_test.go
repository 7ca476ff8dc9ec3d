package neural

import (
	"errors"
	"testing"
)

func TestBuildInputs(t *testing.T) {
	tests := []struct {
		name           string
		y, top, bottom float64
		want           [NumInputs]float64
	}{
		{"inside gap", 250, 200, 400, [NumInputs]float64{250, 50, 150}},
		{"above gap", 100, 200, 400, [NumInputs]float64{100, 100, 300}},
		{"below gap", 500, 200, 400, [NumInputs]float64{500, 300, 100}},
		{"at gap top", 200, 200, 400, [NumInputs]float64{200, 0, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildInputs(tt.y, tt.top, tt.bottom); got != tt.want {
				t.Errorf("BuildInputs() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecideThreshold(t *testing.T) {
	a := NewAdapter(0.5)
	in := BuildInputs(250, 200, 400)

	tests := []struct {
		output float64
		want   bool
	}{
		{0.51, true},
		{0.5, false},
		{0.49, false},
		{-1, false},
		{1, true},
	}

	for _, tt := range tests {
		got, err := a.Decide(Constant(tt.output), in)
		if err != nil {
			t.Fatalf("Decide(%v) error: %v", tt.output, err)
		}
		if got != tt.want {
			t.Errorf("Decide(%v) = %v, want %v", tt.output, got, tt.want)
		}
	}
}

func TestDecidePassesInputs(t *testing.T) {
	var seen []float64
	p := PolicyFunc(func(in []float64) ([]float64, error) {
		seen = append([]float64(nil), in...)
		return []float64{0}, nil
	})

	if _, err := NewAdapter(0.5).Decide(p, BuildInputs(300, 250, 450)); err != nil {
		t.Fatal(err)
	}
	want := []float64{300, 50, 150}
	if len(seen) != len(want) {
		t.Fatalf("policy saw %d inputs, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("input %d = %v, want %v", i, seen[i], want[i])
		}
	}
}

func TestDecideOutputArity(t *testing.T) {
	in := BuildInputs(250, 200, 400)

	for _, out := range [][]float64{nil, {}, {1, 1}} {
		p := PolicyFunc(func([]float64) ([]float64, error) { return out, nil })
		_, err := NewAdapter(0.5).Decide(p, in)
		if !errors.Is(err, ErrOutputArity) {
			t.Errorf("len %d: err = %v, want ErrOutputArity", len(out), err)
		}
	}
}

func TestDecidePropagatesPolicyError(t *testing.T) {
	boom := errors.New("boom")
	p := PolicyFunc(func([]float64) ([]float64, error) { return nil, boom })

	_, err := NewAdapter(0.5).Decide(p, BuildInputs(0, 0, 0))
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
