package energy

import "testing"

func TestPoolClamps(t *testing.T) {
	p := NewPool(150, 100, 10)
	if p.Current() != 100 {
		t.Fatalf("initial = %v, want clamp to max", p.Current())
	}
	p.Spend(130)
	if p.Current() != 0 {
		t.Errorf("overspend = %v, want 0", p.Current())
	}
	p.Add(30)
	p.Add(90)
	if p.Current() != 100 {
		t.Errorf("overfill = %v, want 100", p.Current())
	}
}

func TestPoolHasEnergyIsInclusive(t *testing.T) {
	p := NewPool(5, 100, 0)
	if !p.HasEnergy(5) {
		t.Error("exact amount must be affordable")
	}
	if p.HasEnergy(5.01) {
		t.Error("more than stored must not be affordable")
	}
}

func TestPoolRegen(t *testing.T) {
	p := NewPool(0, 20, 4)
	p.OnTick(1)
	if p.Current() != 4 {
		t.Errorf("regen = %v", p.Current())
	}
	p.SetGenerationMultiplier(1.25)
	p.OnTick(2)
	if p.Current() != 9 {
		t.Errorf("scaled regen = %v, want 9", p.Current())
	}
	for i := range 10 {
		p.OnTick(3 + i)
	}
	if p.Current() != 20 {
		t.Errorf("regen past max = %v", p.Current())
	}
}
