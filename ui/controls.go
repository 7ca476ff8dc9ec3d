package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// LegendLine is one row of the controls legend.
type LegendLine struct {
	Text    string
	Header  bool // category title
	Enabled bool
}

// Legend lists every overlay under its category title, in registration
// order, with its key and state.
func Legend(overlays *OverlayRegistry) []LegendLine {
	var lines []LegendLine
	for _, cat := range overlays.Categories() {
		lines = append(lines, LegendLine{Text: categoryLabel(cat), Header: true})
		for _, d := range overlays.ByCategory(cat) {
			key := "-"
			if d.KeyLabel != "" {
				key = d.KeyLabel
			}
			lines = append(lines, LegendLine{
				Text:    fmt.Sprintf("%-3s %s", key, d.Name),
				Enabled: overlays.IsEnabled(d.ID),
			})
		}
	}
	return lines
}

// ControlsPanel draws the overlay legend.
type ControlsPanel struct {
	r     *Renderer
	x, y  int32
	width int32
}

// NewControlsPanel creates a legend panel at (x, y).
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{r: NewRenderer(), x: x, y: y, width: width}
}

// SetPosition moves the panel.
func (c *ControlsPanel) SetPosition(x, y int32) {
	c.x, c.y = x, y
}

// Draw renders the legend and returns the y just below the panel.
func (c *ControlsPanel) Draw(overlays *OverlayRegistry) int32 {
	th := c.r.Theme
	lines := Legend(overlays)
	height := int32(len(lines))*th.LineHeight + 2*th.Padding
	c.r.DrawPanel(c.x, c.y, c.width, height)

	left := c.x + th.Padding
	right := c.x + c.width - th.Padding
	y := c.y + th.Padding
	for _, l := range lines {
		switch {
		case l.Header:
			rl.DrawText(l.Text, left, y, th.HeaderFontSize, th.SectionHeader)
		case l.Enabled:
			rl.DrawText(l.Text, left, y, th.FontSize, th.ValueColor)
			w := rl.MeasureText("on", th.FontSize)
			rl.DrawText("on", right-w, y, th.FontSize, th.BarFill)
		default:
			rl.DrawText(l.Text, left, y, th.FontSize, th.LabelColor)
		}
		y += th.LineHeight
	}
	return c.y + height
}

func categoryLabel(cat string) string {
	switch cat {
	case "debug":
		return "Debug"
	case "ai":
		return "Policies"
	case "ui":
		return "Interface"
	default:
		return cat
	}
}
