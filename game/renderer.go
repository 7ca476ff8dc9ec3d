package game

// Renderer receives one snapshot per completed tick.
type Renderer interface {
	Render(s Snapshot)
}

// RendererFunc adapts a plain function to the Renderer interface.
type RendererFunc func(s Snapshot)

// Render calls f(s).
func (f RendererFunc) Render(s Snapshot) {
	f(s)
}

// Renderers fans one snapshot out to several renderers in order.
type Renderers []Renderer

// Render implements Renderer.
func (rs Renderers) Render(s Snapshot) {
	for _, r := range rs {
		r.Render(s)
	}
}
