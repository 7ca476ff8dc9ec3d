package systems

import "math/bits"

// Mask is a bit-packed hit-region. Bit (x, y) set means the cell is solid.
// Rows are stored as runs of 64-bit words.
type Mask struct {
	W, H  int
	words int // words per row
	bits  []uint64
}

// NewMask returns an empty w x h mask.
func NewMask(w, h int) *Mask {
	words := (w + 63) / 64
	return &Mask{W: w, H: h, words: words, bits: make([]uint64, words*h)}
}

// NewRectMask returns a fully solid w x h mask.
func NewRectMask(w, h int) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y)
		}
	}
	return m
}

// NewEllipseMask returns a mask with the ellipse inscribed in w x h set.
func NewEllipseMask(w, h int) *Mask {
	m := NewMask(w, h)
	rx := float64(w) / 2
	ry := float64(h) / 2
	for y := 0; y < h; y++ {
		dy := (float64(y) + 0.5 - ry) / ry
		for x := 0; x < w; x++ {
			dx := (float64(x) + 0.5 - rx) / rx
			if dx*dx+dy*dy <= 1 {
				m.Set(x, y)
			}
		}
	}
	return m
}

// Set marks (x, y) solid. Out-of-range coordinates are ignored.
func (m *Mask) Set(x, y int) {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return
	}
	m.bits[y*m.words+x/64] |= 1 << uint(x%64)
}

// Get reports whether (x, y) is solid. Out-of-range coordinates are empty.
func (m *Mask) Get(x, y int) bool {
	if x < 0 || y < 0 || x >= m.W || y >= m.H {
		return false
	}
	return m.bits[y*m.words+x/64]&(1<<uint(x%64)) != 0
}

// Count returns the number of solid cells.
func (m *Mask) Count() int {
	n := 0
	for _, w := range m.bits {
		n += bits.OnesCount64(w)
	}
	return n
}

// Overlap reports whether any solid cell of m coincides with a solid cell of
// other when other's origin is placed at (dx, dy) in m's coordinates.
func (m *Mask) Overlap(other *Mask, dx, dy int) bool {
	x0 := max(0, dx)
	y0 := max(0, dy)
	x1 := min(m.W, dx+other.W)
	y1 := min(m.H, dy+other.H)
	if x0 >= x1 || y0 >= y1 {
		return false
	}

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if m.Get(x, y) && other.Get(x-dx, y-dy) {
				return true
			}
		}
	}
	return false
}
