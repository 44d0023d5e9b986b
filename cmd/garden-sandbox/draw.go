package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/genegarden/effect"
	"github.com/lixenwraith/genegarden/garden"
	"github.com/lixenwraith/genegarden/status"
	"github.com/lixenwraith/genegarden/vmath"
)

var (
	styleSoil     = tcell.StyleDefault.Background(tcell.NewRGBColor(26, 27, 38))
	stylePlant    = styleSoil.Foreground(tcell.ColorGreen).Bold(true)
	styleCreature = styleSoil.Foreground(tcell.ColorYellow)
	styleSick     = styleSoil.Foreground(tcell.ColorPurple)
	styleCloud    = styleSoil.Foreground(tcell.NewRGBColor(120, 200, 120))
	styleSeed     = styleSoil.Foreground(tcell.ColorWhite).Bold(true)
	styleFruit    = styleSoil.Foreground(tcell.ColorOrange)
	styleHUD      = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// view maps world coordinates onto the screen area below the HUD
type view struct {
	sx, sy float64
	top    int
}

func newView(screenW, screenH int, world garden.Config, hudRows int) view {
	rows := max(screenH-hudRows, 1)
	return view{
		sx:  float64(screenW) / world.Width,
		sy:  float64(rows) / world.Height,
		top: hudRows,
	}
}

func (v view) cell(p vmath.Vec2) (int, int) {
	return int(p.X * v.sx), v.top + int(p.Y*v.sy)
}

func (sb *sandbox) draw() {
	s := sb.screen
	s.SetStyle(styleSoil)
	s.Clear()
	w, h := s.Size()
	v := newView(w, h, sb.world.Config(), 2)
	put := func(p vmath.Vec2, r rune, style tcell.Style) {
		x, y := v.cell(p)
		if x >= 0 && x < w && y >= v.top && y < h {
			s.SetContent(x, y, r, nil, style)
		}
	}

	for _, e := range sb.world.Effects.Live() {
		switch e := e.(type) {
		case *effect.Area:
			ring(put, e.Position(), e.Radius(), e.Active())
		case *effect.Projectile:
			put(e.Position(), '•', styleSeed)
		case *effect.Fruit:
			r := 'o'
			if e.Ripe() {
				r = 'O'
			}
			put(e.Position(), r, styleFruit)
		}
	}
	for _, c := range sb.world.Creatures() {
		if c.Dying() {
			continue
		}
		style := styleCreature
		if len(c.Statuses()) > 0 {
			style = styleSick
		}
		put(c.Position(), glyph(c.Species()), style)
	}
	for _, p := range sb.world.Plants() {
		put(p.Position(), 'Ψ', stylePlant)
	}

	sb.hud(w)
	s.Show()
}

// glyph is the first letter of a species, '?' when unnamed
func glyph(species string) rune {
	for _, r := range species {
		return r
	}
	return '?'
}

// ring outlines an area's radius, dimmed while fading
func ring(put func(vmath.Vec2, rune, tcell.Style), center vmath.Vec2, radius float64, active bool) {
	r := '·'
	if !active {
		r = '.'
	}
	steps := max(int(radius*8), 8)
	for i := range steps {
		a := 2 * math.Pi * float64(i) / float64(steps)
		put(vmath.V2(center.X+radius*math.Cos(a), center.Y+radius*math.Sin(a)), r, styleCloud)
	}
}

func (sb *sandbox) hud(width int) {
	ints := sb.reg.Ints
	line := fmt.Sprintf(" tick %d  plants %d  creatures %d  effects %d  executed %d  rejected %d  died %d",
		sb.world.Clock.Current(), len(sb.world.Plants()), len(sb.world.Creatures()), sb.world.Effects.Count(),
		ints.Get(status.KeyExecutions).Load(), ints.Get(status.KeyRejected).Load(), ints.Get(status.KeyCreatureDeaths).Load())
	text(sb.screen, 0, 0, width, line, styleHUD)

	energy := ""
	for _, p := range sb.world.Plants() {
		energy += fmt.Sprintf(" %s:%3.0f", p.State().Template, p.Energy.Current())
	}
	if sb.message != "" {
		energy += "  | " + sb.message
	}
	text(sb.screen, 0, 1, width, energy, styleHUD)
}

func text(s tcell.Screen, x, y, width int, str string, style tcell.Style) {
	for _, r := range str {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}
