package config

import (
	"fmt"
	"log/slog"

	"github.com/lixenwraith/genegarden/garden"
	"github.com/lixenwraith/genegarden/library"
	"github.com/lixenwraith/genegarden/sequence"
	"github.com/lixenwraith/genegarden/vmath"
)

// Layout returns evenly spaced planting spots along the middle row for n plants
func (e Engine) Layout(n int) []vmath.Vec2 {
	spots := make([]vmath.Vec2, n)
	for i := range spots {
		x := e.World.Width * float64(i+1) / float64(n+1)
		spots[i] = vmath.V2(x, e.World.Height/2)
	}
	return spots
}

// NewWorld builds the catalog, the world and its creatures, then plants every template
// selected by names, or all authored templates when names is empty
func (d *Document) NewWorld(logger *slog.Logger, names []string, opts ...garden.Option) (*garden.World, error) {
	if logger == nil {
		logger = slog.Default()
	}
	lib, err := d.Catalog.Library(logger)
	if err != nil {
		return nil, err
	}
	templates, err := d.SelectTemplates(lib, names)
	if err != nil {
		return nil, err
	}

	opts = append([]garden.Option{garden.WithLogger(logger), garden.WithLibrary(lib)}, opts...)
	w, err := garden.New(d.Engine.Garden(), opts...)
	if err != nil {
		return nil, err
	}
	for _, g := range d.Engine.Creatures {
		w.Populate(g.Species, g.Count, g.Health)
	}
	for i, pos := range d.Engine.Layout(len(templates)) {
		if _, err := w.Plant(templates[i], pos); err != nil {
			return nil, fmt.Errorf("planting %s: %w", templates[i].Name, err)
		}
	}
	return w, nil
}

// SelectTemplates builds the named templates against lib, every authored one when names is empty
func (d *Document) SelectTemplates(lib *library.Library, names []string) ([]*sequence.Template, error) {
	if len(names) == 0 {
		return d.BuildTemplates(lib)
	}
	out := make([]*sequence.Template, 0, len(names))
	for _, name := range names {
		doc, ok := d.Template(name)
		if !ok {
			return nil, fmt.Errorf("%w: no template named %q", ErrInvalidConfig, name)
		}
		tpl, err := doc.Build(lib)
		if err != nil {
			return nil, err
		}
		out = append(out, tpl)
	}
	return out, nil
}
