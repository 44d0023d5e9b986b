// Package targeting answers spatial queries over living creatures
package targeting

import (
	"math"

	"github.com/lixenwraith/genegarden/gene"
	"github.com/lixenwraith/genegarden/vmath"
)

// Population enumerates candidate creatures
// An empty population yields empty results, never an error
type Population interface {
	Creatures() []gene.Target
}

// PopulationFunc adapts a function to Population
type PopulationFunc func() []gene.Target

// Creatures calls f
func (f PopulationFunc) Creatures() []gene.Target { return f() }

// GridMapper converts world positions into grid coordinates
type GridMapper interface {
	WorldToGrid(p vmath.Vec2) vmath.Vec2
}

// Cell maps world space onto square cells of Size world units anchored at Origin
type Cell struct {
	Size   float64
	Origin vmath.Vec2
}

// WorldToGrid returns the cell coordinates containing p
func (c Cell) WorldToGrid(p vmath.Vec2) vmath.Vec2 {
	size := c.Size
	if size <= 0 {
		size = 1
	}
	return vmath.Vec2{
		X: math.Floor((p.X - c.Origin.X) / size),
		Y: math.Floor((p.Y - c.Origin.Y) / size),
	}
}

// Finder runs distance queries in grid space, raw world coordinates when Grid is nil
// Radius is inclusive and creatures reporting Dying are excluded
type Finder struct {
	Population Population
	Grid       GridMapper
}

func (f *Finder) toGrid(p vmath.Vec2) vmath.Vec2 {
	if f.Grid == nil {
		return p
	}
	return f.Grid.WorldToGrid(p)
}

func (f *Finder) living() []gene.Target {
	if f == nil || f.Population == nil {
		return nil
	}
	return f.Population.Creatures()
}

// FindAllWithinRadius returns every living creature within radius of origin
func (f *Finder) FindAllWithinRadius(origin vmath.Vec2, radius float64) []gene.Target {
	src := f.toGrid(origin)
	var out []gene.Target
	for _, c := range f.living() {
		if c == nil || c.Dying() {
			continue
		}
		if vmath.V2Dist(src, f.toGrid(c.Position())) <= radius {
			out = append(out, c)
		}
	}
	return out
}

// FindNearest returns the closest living creature within maxRange
// Ties keep the first in population order
func (f *Finder) FindNearest(origin vmath.Vec2, maxRange float64) (gene.Target, bool) {
	src := f.toGrid(origin)
	var nearest gene.Target
	best := math.MaxFloat64
	for _, c := range f.living() {
		if c == nil || c.Dying() {
			continue
		}
		d := vmath.V2Dist(src, f.toGrid(c.Position()))
		if d <= maxRange && d < best {
			best = d
			nearest = c
		}
	}
	return nearest, nearest != nil
}

// HasAnyWithinRadius reports whether any living creature is within radius, stopping at the first
func (f *Finder) HasAnyWithinRadius(origin vmath.Vec2, radius float64) bool {
	src := f.toGrid(origin)
	for _, c := range f.living() {
		if c == nil || c.Dying() {
			continue
		}
		if vmath.V2Dist(src, f.toGrid(c.Position())) <= radius {
			return true
		}
	}
	return false
}
