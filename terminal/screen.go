// Package terminal renders generations as text cells and plays score cues.
package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
)

const hudRows = 1

var (
	styleHUD    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleSky    = tcell.StyleDefault.Background(tcell.ColorTeal)
	stylePipe   = tcell.StyleDefault.Foreground(tcell.ColorGreen).Background(tcell.ColorTeal)
	styleGround = tcell.StyleDefault.Foreground(tcell.ColorOlive).Background(tcell.ColorTeal)
	styleBird   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorTeal).Bold(true)
)

// Screen renders snapshots into a tcell screen scaled to the terminal size.
// Esc, q and Ctrl-C call the quit callback.
type Screen struct {
	screen tcell.Screen
	cfg    *config.Config
	quit   func()

	events chan tcell.Event
	done   chan struct{}
}

// NewScreen wraps an initialized tcell screen and starts reading its events.
func NewScreen(screen tcell.Screen, cfg *config.Config, quit func()) *Screen {
	s := &Screen{
		screen: screen,
		cfg:    cfg,
		quit:   quit,
		events: make(chan tcell.Event, 64),
		done:   make(chan struct{}),
	}
	go s.poll()
	return s
}

func (s *Screen) poll() {
	for {
		ev := s.screen.PollEvent()
		if ev == nil {
			return
		}
		select {
		case s.events <- ev:
		case <-s.done:
			return
		}
	}
}

// Close stops event handling. The caller still owns the tcell screen.
func (s *Screen) Close() {
	close(s.done)
}

// HandleEvent applies one terminal event and reports whether it was a quit.
func (s *Screen) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
			(ev.Key() == tcell.KeyRune && (ev.Rune() == 'q' || ev.Rune() == 'Q')) {
			s.quit()
			return true
		}
	case *tcell.EventResize:
		s.screen.Sync()
	}
	return false
}

// Render implements game.Renderer.
func (s *Screen) Render(snap game.Snapshot) {
	for drained := false; !drained; {
		select {
		case ev := <-s.events:
			if s.HandleEvent(ev) {
				return
			}
		default:
			drained = true
		}
	}
	s.Draw(snap)
}

// Draw paints snap without handling input.
func (s *Screen) Draw(snap game.Snapshot) {
	cols, rows := s.screen.Size()
	fieldRows := rows - hudRows
	if cols < 1 || fieldRows < 1 {
		return
	}
	g := grid{
		cols:   cols,
		rows:   fieldRows,
		scaleX: float64(cols) / s.cfg.Field.Width,
		scaleY: float64(fieldRows) / s.cfg.Field.Height,
	}

	s.screen.Clear()
	for y := 0; y < fieldRows; y++ {
		for x := 0; x < cols; x++ {
			s.screen.SetContent(x, y+hudRows, ' ', nil, styleSky)
		}
	}

	pw := float64(s.cfg.Pipe.Width)
	for _, o := range snap.Obstacles {
		c0, c1 := g.col(o.X), min(g.col(o.X+pw), cols)
		for x := max(c0, 0); x < c1; x++ {
			for y := 0; y < fieldRows; y++ {
				wy := g.worldY(y)
				if wy < o.GapTop || (wy >= o.GapBottom && wy < snap.GroundY) {
					s.screen.SetContent(x, y+hudRows, '█', nil, stylePipe)
				}
			}
		}
	}

	for y := max(g.row(snap.GroundY), 0); y < fieldRows; y++ {
		for x := 0; x < cols; x++ {
			s.screen.SetContent(x, y+hudRows, '▒', nil, styleGround)
		}
	}

	bw, bh := float64(s.cfg.Bird.Width), float64(s.cfg.Bird.Height)
	for _, b := range snap.Birds {
		x, y := g.col(b.X+bw/2), g.row(b.Y+bh/2)
		if x < 0 || x >= cols || y < 0 || y >= fieldRows {
			continue
		}
		s.screen.SetContent(x, y+hudRows, birdRune(b.Tilt), nil, styleBird)
	}

	s.drawText(0, 0, fmt.Sprintf("gen %d  score %d  alive %d/%d  tick %d  %s",
		snap.Generation, snap.Score, snap.Alive, snap.Population, snap.Tick, snap.Status.Reason), styleHUD)

	s.screen.Show()
}

func (s *Screen) drawText(x, y int, text string, style tcell.Style) {
	for _, r := range text {
		s.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// grid maps world coordinates onto field cells.
type grid struct {
	cols, rows     int
	scaleX, scaleY float64
}

func (g grid) col(x float64) int { return int(x * g.scaleX) }
func (g grid) row(y float64) int { return int(y * g.scaleY) }

// worldY returns the world y at the center of field row y.
func (g grid) worldY(y int) float64 { return (float64(y) + 0.5) / g.scaleY }

// birdRune picks a glyph for the bird's heading.
func birdRune(tilt float64) rune {
	switch {
	case tilt > 0:
		return '^'
	case tilt <= -80:
		return 'v'
	default:
		return '>'
	}
}
