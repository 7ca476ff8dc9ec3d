package ui

import (
	"fmt"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Generation   int
	Score        int
	Alive        int
	Population   int
	Tick         int
	Best         float64
	FPS          int32
	Status       string
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD and reports whether the Quit button was clicked.
func (h *HUD) Draw(data HUDData) (quit bool) {
	score := fmt.Sprintf("Score: %d", data.Score)
	rl.DrawText(score, data.ScreenWidth-rl.MeasureText(score, 30)-10, 10, 30, rl.White)

	rl.DrawText(fmt.Sprintf("Gen: %d", data.Generation), 10, 10, 20, rl.White)
	rl.DrawText(
		fmt.Sprintf("Alive: %d/%d | Tick: %d | FPS: %d", data.Alive, data.Population, data.Tick, data.FPS),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(fmt.Sprintf("Best: %.1f", data.Best), 10, 55, 16, rl.LightGray)
	if data.Status != "running" {
		rl.DrawText(data.Status, 10, 75, 16, rl.Yellow)
	}

	return gui.Button(rl.Rectangle{
		X:      float32(data.ScreenWidth - 90),
		Y:      float32(data.ScreenHeight - 40),
		Width:  80,
		Height: 30,
	}, "Quit")
}

// PerfPanelData holds performance metrics for display.
type PerfPanelData struct {
	AvgTick     time.Duration
	TicksPerSec float64
	Phases      []string  // execution order
	PhasePct    []float64 // share of step time, parallel to Phases
}

// PerfPanel renders the per-phase timing panel.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(data PerfPanelData) {
	r := p.renderer
	padding := r.Theme.Padding
	height := int32(len(data.Phases)+3)*r.Theme.LineHeight + padding*2
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := p.y + padding
	rl.DrawText("Tick Performance", x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	y += r.Theme.LineHeight

	y = r.DrawLabelValue(x, y, "Avg", data.AvgTick.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Ticks/s", fmt.Sprintf("%.0f", data.TicksPerSec))
	for i, phase := range data.Phases {
		if i < len(data.PhasePct) {
			y = r.DrawBar(x, y, phase, data.PhasePct[i], p.width-padding*2)
		}
	}
}
