package main

import (
	"testing"

	"github.com/lixenwraith/genegarden/garden"
	"github.com/lixenwraith/genegarden/vmath"
)

func TestViewScalesWorldBelowHUD(t *testing.T) {
	cfg := garden.DefaultConfig()
	v := newView(80, 22, cfg, 2)
	if x, y := v.cell(vmath.V2(0, 0)); x != 0 || y != 2 {
		t.Errorf("origin -> %d,%d", x, y)
	}
	if x, y := v.cell(vmath.V2(20, 10)); x != 40 || y != 12 {
		t.Errorf("center -> %d,%d", x, y)
	}
}

func TestGlyph(t *testing.T) {
	if glyph("moth") != 'm' || glyph("") != '?' {
		t.Error("unexpected glyphs")
	}
}
