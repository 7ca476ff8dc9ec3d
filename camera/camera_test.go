package camera

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNewFitsField(t *testing.T) {
	tests := []struct {
		name         string
		vw, vh       float32
		wantZoom     float32
		wantX, wantY float32 // letterbox origin
		wantW, wantH float32
	}{
		{"exact", 500, 800, 1, 0, 0, 500, 800},
		{"wide window", 1000, 800, 1, 250, 0, 500, 800},
		{"tall window", 500, 1600, 1, 0, 400, 500, 800},
		{"half size", 250, 400, 0.5, 0, 0, 250, 400},
		{"landscape", 1280, 720, 0.9, 415, 0, 450, 720},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cam := New(tt.vw, tt.vh, 500, 800)
			if !near(cam.Scale(), tt.wantZoom) {
				t.Errorf("expected zoom %v, got %v", tt.wantZoom, cam.Scale())
			}
			x, y, w, h := cam.Letterbox()
			if !near(x, tt.wantX) || !near(y, tt.wantY) || !near(w, tt.wantW) || !near(h, tt.wantH) {
				t.Errorf("letterbox = (%v, %v, %v, %v), want (%v, %v, %v, %v)",
					x, y, w, h, tt.wantX, tt.wantY, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(1000, 800, 500, 800)

	sx, sy := cam.WorldToScreen(250, 400)
	if !near(sx, 500) || !near(sy, 400) {
		t.Errorf("expected screen center (500, 400), got (%f, %f)", sx, sy)
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(1280, 720, 500, 800)
	cam.ZoomBy(1.5)

	testCases := []struct{ sx, sy float32 }{
		{640, 360},
		{100, 100},
		{1200, 600},
		{-50, 900}, // outside the window
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(wx, wy)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> (%f,%f) -> (%f,%f)",
				tc.sx, tc.sy, wx, wy, sx, sy)
		}
	}
}

func TestZoomClamping(t *testing.T) {
	cam := New(500, 800, 500, 800)

	cam.SetZoom(0.1)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %v, got %v", cam.MinZoom, cam.Zoom)
	}

	cam.SetZoom(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %v, got %v", cam.MaxZoom, cam.Zoom)
	}
}

func TestPanStaysInField(t *testing.T) {
	cam := New(500, 800, 500, 800)

	cam.Pan(-10000, 10000)
	if cam.X != 0 || cam.Y != 800 {
		t.Errorf("expected center clamped to (0, 800), got (%v, %v)", cam.X, cam.Y)
	}

	cam.Reset()
	if cam.X != 250 || cam.Y != 400 || cam.Zoom != cam.MinZoom {
		t.Errorf("reset failed: %+v", cam)
	}
}

func TestResizeKeepsFit(t *testing.T) {
	cam := New(500, 800, 500, 800)
	cam.Resize(1000, 1600)
	if !near(cam.Zoom, 2) {
		t.Errorf("fitted camera should refit to 2, got %v", cam.Zoom)
	}

	cam.SetZoom(4)
	cam.Resize(500, 800)
	if !near(cam.Zoom, 4) {
		t.Errorf("zoomed camera should keep zoom 4, got %v", cam.Zoom)
	}
}

func TestIsVisible(t *testing.T) {
	cam := New(500, 800, 500, 800)
	cam.SetZoom(2)

	if !cam.IsVisible(250, 400, 0) {
		t.Error("center should be visible")
	}
	if cam.IsVisible(0, 0, 10) {
		t.Error("corner should be off screen at 2x zoom")
	}
	if !cam.IsVisible(120, 400, 10) {
		t.Error("point just outside the edge should be visible with its radius")
	}

	minX, minY, maxX, maxY := cam.VisibleWorldBounds()
	if !near(minX, 125) || !near(maxX, 375) || !near(minY, 200) || !near(maxY, 600) {
		t.Errorf("unexpected bounds (%v, %v, %v, %v)", minX, minY, maxX, maxY)
	}
}
