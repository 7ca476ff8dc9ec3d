package systems

import (
	"testing"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
)

func TestMaskOverlap(t *testing.T) {
	a := NewRectMask(10, 10)
	b := NewRectMask(10, 10)

	tests := []struct {
		name   string
		dx, dy int
		want   bool
	}{
		{"same origin", 0, 0, true},
		{"last column", 9, 0, true},
		{"adjacent right", 10, 0, false},
		{"adjacent below", 0, 10, false},
		{"touching corner", 9, 9, true},
		{"far left", -20, 0, false},
		{"partly above", 3, -9, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := a.Overlap(b, tt.dx, tt.dy); got != tt.want {
				t.Errorf("Overlap(%d, %d) = %v, want %v", tt.dx, tt.dy, got, tt.want)
			}
		})
	}
}

func TestEllipseMaskCorners(t *testing.T) {
	m := NewEllipseMask(68, 48)

	if m.Get(0, 0) || m.Get(67, 0) || m.Get(0, 47) || m.Get(67, 47) {
		t.Error("ellipse corners should be empty")
	}
	if !m.Get(34, 24) {
		t.Error("ellipse center should be solid")
	}
	if m.Count() >= 68*48 || m.Count() == 0 {
		t.Errorf("Count() = %d, want strictly between 0 and %d", m.Count(), 68*48)
	}

	// A small block over the bottom-right corner misses the curve
	corner := NewRectMask(8, 8)
	if m.Overlap(corner, 60, 40) {
		t.Error("corner block should not overlap the ellipse")
	}
}

func TestMaskOutOfRange(t *testing.T) {
	m := NewMask(70, 3)
	m.Set(-1, 0)
	m.Set(70, 0)
	m.Set(69, 2)

	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
	if !m.Get(69, 2) {
		t.Error("bit in second word not set")
	}
	if m.Get(70, 2) {
		t.Error("out-of-range Get should be false")
	}
}

func TestCollides(t *testing.T) {
	cfg := config.Default()
	birdMask := NewBirdMask(&cfg.Bird)
	pipe := NewPipeShape(&cfg.Pipe)
	bird := components.Bird{X: 230}

	tests := []struct {
		name   string
		y      float64
		pipeX  float64
		gapTop float64
		want   bool
	}{
		{"inside gap", 250, 230, 200, false},
		{"clips top member", 250, 230, 270, true},
		{"clips bottom member", 250, 230, 80, true},
		{"pipe ahead", 250, 400, 270, false},
		{"pipe behind", 250, 100, 270, false},
		{"overlapping pipe edge", 250, 290, 270, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := components.NewBody(tt.y)
			o := components.Obstacle{X: tt.pipeX, GapTop: tt.gapTop, Gap: cfg.Pipe.Gap}
			if got := Collides(&bird, &body, birdMask, &o, pipe); got != tt.want {
				t.Errorf("Collides() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutOfBounds(t *testing.T) {
	tests := []struct {
		name string
		y    float64
		want bool
	}{
		{"mid air", 300, false},
		{"touching ground", 682, true},
		{"just above ground", 681.9, false},
		{"at ceiling", 0, false},
		{"above ceiling", -0.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := OutOfBounds(tt.y, 48, 730)
			second := OutOfBounds(tt.y, 48, 730)
			if first != tt.want {
				t.Errorf("OutOfBounds(%v) = %v, want %v", tt.y, first, tt.want)
			}
			if first != second {
				t.Error("repeated check changed its answer")
			}
		})
	}
}
