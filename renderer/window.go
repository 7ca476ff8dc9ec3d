// Package renderer draws generation snapshots in a raylib window.
package renderer

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/ui"
)

var (
	skyColor    = rl.Color{R: 78, G: 192, B: 202, A: 255}
	pipeColor   = rl.Color{R: 115, G: 191, B: 46, A: 255}
	pipeEdge    = rl.Color{R: 84, G: 128, B: 30, A: 255}
	groundColor = rl.Color{R: 222, G: 216, B: 149, A: 255}
	groundEdge  = rl.Color{R: 110, G: 190, B: 60, A: 255}
	birdColor   = rl.Color{R: 250, G: 200, B: 40, A: 255}
	wingColor   = rl.Color{R: 240, G: 240, B: 220, A: 255}
	hitColor    = rl.Color{R: 255, G: 60, B: 60, A: 200}
	sensorColor = rl.Color{R: 255, G: 80, B: 200, A: 220}
)

// Window renders snapshots into the current raylib window. The window must
// already be open. Closing it or clicking Quit calls the quit callback.
type Window struct {
	cfg       *config.Config
	cam       *camera.Camera
	hud       *ui.HUD
	controls  *ui.ControlsPanel
	perfPanel *ui.PerfPanel
	overlays  *ui.OverlayRegistry
	perf      *telemetry.PerfCollector
	quit      func()
}

// NewWindow creates a renderer for cfg's field. perf may be nil.
func NewWindow(cfg *config.Config, quit func(), perf *telemetry.PerfCollector) *Window {
	return &Window{
		cfg:       cfg,
		cam:       camera.New(float32(cfg.Screen.Width), float32(cfg.Screen.Height), float32(cfg.Field.Width), float32(cfg.Field.Height)),
		hud:       ui.NewHUD(),
		controls:  ui.NewControlsPanel(10, 100, 200),
		perfPanel: ui.NewPerfPanel(10, 100, 200),
		overlays:  ui.NewOverlayRegistry(),
		perf:      perf,
		quit:      quit,
	}
}

// Render implements game.Renderer.
func (w *Window) Render(s game.Snapshot) {
	if rl.WindowShouldClose() {
		w.quit()
		return
	}
	w.overlays.HandleKeys()

	screenW, screenH := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())
	w.cam.Resize(float32(screenW), float32(screenH))

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	x, y, fw, fh := w.cam.Letterbox()
	rl.BeginScissorMode(int32(x), int32(y), int32(fw), int32(fh))
	rl.DrawRectangleRec(rl.Rectangle{X: x, Y: y, Width: fw, Height: fh}, skyColor)
	w.drawObstacles(s.Obstacles)
	w.drawGround(s)
	w.drawBirds(s)
	rl.EndScissorMode()

	panelY := int32(100)
	if w.overlays.IsEnabled(ui.OverlayControls) {
		w.controls.SetPosition(10, panelY)
		panelY = w.controls.Draw(w.overlays) + 10
	}
	if w.perf != nil && w.overlays.IsEnabled(ui.OverlayPerf) {
		stats := w.perf.Stats()
		data := ui.PerfPanelData{
			AvgTick:     stats.AvgTickDuration,
			TicksPerSec: stats.TicksPerSecond,
		}
		for _, ps := range stats.Phases {
			data.Phases = append(data.Phases, ps.Name)
			data.PhasePct = append(data.PhasePct, ps.Pct)
		}
		w.perfPanel.SetPosition(10, panelY)
		w.perfPanel.Draw(data)
	}

	quit := w.hud.Draw(ui.HUDData{
		Generation:   s.Generation,
		Score:        s.Score,
		Alive:        s.Alive,
		Population:   s.Population,
		Tick:         s.Tick,
		Best:         bestFitness(s.Birds),
		FPS:          rl.GetFPS(),
		Status:       s.Status.Reason.String(),
		ScreenWidth:  screenW,
		ScreenHeight: screenH,
	})

	rl.EndDrawing()
	if w.perf != nil {
		w.perf.RecordFrame()
	}
	if quit {
		w.quit()
	}
}

// rect maps a world-space rectangle to the screen.
func (w *Window) rect(wx, wy, ww, wh float64) rl.Rectangle {
	sx, sy := w.cam.WorldToScreen(float32(wx), float32(wy))
	z := w.cam.Scale()
	return rl.Rectangle{X: sx, Y: sy, Width: float32(ww) * z, Height: float32(wh) * z}
}

func (w *Window) drawObstacles(obstacles []game.ObstacleSnapshot) {
	pw, ph := float64(w.cfg.Pipe.Width), float64(w.cfg.Pipe.Height)
	for _, o := range obstacles {
		top := w.rect(o.X, o.GapTop-ph, pw, ph)
		bottom := w.rect(o.X, o.GapBottom, pw, ph)
		for _, r := range []rl.Rectangle{top, bottom} {
			rl.DrawRectangleRec(r, pipeColor)
			rl.DrawRectangleLinesEx(r, 2, pipeEdge)
			if w.overlays.IsEnabled(ui.OverlayHitRegions) {
				rl.DrawRectangleLinesEx(r, 1, hitColor)
			}
		}
	}
}

func (w *Window) drawGround(s game.Snapshot) {
	gw := w.cfg.Ground.Width
	depth := w.cfg.Field.Height - s.GroundY
	for _, gx := range []float64{s.GroundX1, s.GroundX2} {
		r := w.rect(gx, s.GroundY, gw, depth)
		rl.DrawRectangleRec(r, groundColor)
		rl.DrawRectangleRec(rl.Rectangle{X: r.X, Y: r.Y, Width: r.Width, Height: 4 * w.cam.Scale()}, groundEdge)
	}
}

func (w *Window) drawBirds(s game.Snapshot) {
	bw, bh := float64(w.cfg.Bird.Width), float64(w.cfg.Bird.Height)
	z := w.cam.Scale()

	var active *game.ObstacleSnapshot
	if w.overlays.IsEnabled(ui.OverlaySensors) && len(s.Birds) > 0 && len(s.Obstacles) > 0 {
		idx := 0
		if len(s.Obstacles) > 1 && s.Birds[0].X > s.Obstacles[0].X+float64(w.cfg.Pipe.Width) {
			idx = 1
		}
		active = &s.Obstacles[idx]
	}

	for _, b := range s.Birds {
		cx, cy := w.cam.WorldToScreen(float32(b.X+bw/2), float32(b.Y+bh/2))
		rx, ry := float32(bw/2)*z, float32(bh/2)*z

		if active != nil {
			gx, gt := w.cam.WorldToScreen(float32(active.X), float32(active.GapTop))
			_, gb := w.cam.WorldToScreen(float32(active.X), float32(active.GapBottom))
			rl.DrawLineEx(rl.Vector2{X: cx, Y: cy}, rl.Vector2{X: gx, Y: gt}, 1, sensorColor)
			rl.DrawLineEx(rl.Vector2{X: cx, Y: cy}, rl.Vector2{X: gx, Y: gb}, 1, sensorColor)
		}

		rl.DrawEllipse(int32(cx), int32(cy), rx, ry, birdColor)

		wing := float32(wingPhase(b.Frame, b.Tilt, w.cfg.Bird.AnimationTime, w.cfg.Bird.AnimationFrames)-1) * ry / 3
		rl.DrawEllipse(int32(cx-rx/3), int32(cy+wing), rx/2.5, ry/3, wingColor)

		// Beak points along the tilt, nose up for positive angles.
		rad := b.Tilt * math.Pi / 180
		tip := rl.Vector2{X: cx + rx*float32(math.Cos(rad)), Y: cy - rx*float32(math.Sin(rad))}
		rl.DrawLineEx(rl.Vector2{X: cx, Y: cy}, tip, 3*z, rl.Orange)

		if w.overlays.IsEnabled(ui.OverlayHitRegions) {
			r := w.rect(b.X, b.Y, bw, bh)
			if w.cfg.Bird.HitShape == "rect" {
				rl.DrawRectangleLinesEx(r, 1, hitColor)
			} else {
				rl.DrawEllipseLines(int32(cx), int32(cy), rx, ry, hitColor)
			}
		}
		if w.overlays.IsEnabled(ui.OverlayFitness) {
			rl.DrawText(fmt.Sprintf("%.1f", b.Fitness), int32(cx-rx), int32(cy-ry)-14, 12, rl.White)
		}
	}
}

// wingPhase maps the animation counter to a wing frame: frames play forward
// then back. A diving bird holds its wings level.
func wingPhase(counter int, tilt float64, animTime, frames int) int {
	if tilt <= -80 || animTime <= 0 || frames < 2 {
		return 1
	}
	pos := (counter / animTime) % (2*frames - 2)
	if pos >= frames {
		pos = 2*frames - 2 - pos
	}
	return pos
}

// bestFitness returns the highest running fitness among alive birds.
func bestFitness(birds []game.BirdSnapshot) float64 {
	if len(birds) == 0 {
		return 0
	}
	best := birds[0].Fitness
	for _, b := range birds[1:] {
		best = max(best, b.Fitness)
	}
	return best
}
