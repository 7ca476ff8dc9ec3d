package terminal

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/pthm-cable/flock/game"
)

const (
	sampleRate    = beep.SampleRate(44100)
	chimeFreq     = 880.0
	chimeDuration = 120 * time.Millisecond
	chimeRelease  = 80 * time.Millisecond
	chimeVolume   = -2.0 // log2 gain
)

// Chime plays a short tone whenever a generation's score increments. It
// works as a silent counter until Init succeeds.
type Chime struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool

	generation int
	score      int
	played     int
}

// NewChime creates a chime with no audio device attached.
func NewChime() *Chime {
	return &Chime{mixer: &beep.Mixer{}}
}

// Init opens the audio device.
func (c *Chime) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(c.mixer)
	c.initialized = true
	return nil
}

// Close silences and releases the audio device.
func (c *Chime) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	c.initialized = false
}

// Played returns how many chimes were triggered.
func (c *Chime) Played() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.played
}

// Render implements game.Renderer.
func (c *Chime) Render(s game.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.Generation != c.generation {
		c.generation = s.Generation
		c.score = 0
	}
	if s.Score <= c.score {
		return
	}
	c.score = s.Score
	c.played++

	if c.initialized {
		speaker.Lock()
		c.mixer.Add(newTone(sampleRate, chimeFreq, chimeDuration, chimeRelease))
		speaker.Unlock()
	}
}

// newTone returns a sine tone that fades out over its last release span.
func newTone(rate beep.SampleRate, freq float64, duration, release time.Duration) beep.Streamer {
	t := &tone{
		step:    freq / float64(rate),
		total:   rate.N(duration),
		release: rate.N(release),
	}
	return &effects.Volume{Streamer: t, Base: 2, Volume: chimeVolume}
}

// tone is a fixed-length sine oscillator with a linear release.
type tone struct {
	phase    float64
	step     float64
	position int
	total    int
	release  int
}

func (t *tone) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.position >= t.total {
			return i, i > 0
		}

		v := math.Sin(2 * math.Pi * t.phase)
		if remaining := t.total - t.position; remaining < t.release {
			v *= float64(remaining) / float64(t.release)
		}
		samples[i][0] = v
		samples[i][1] = v

		t.phase += t.step
		t.phase -= math.Floor(t.phase)
		t.position++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }
