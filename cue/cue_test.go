package cue

import (
	"log/slog"
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/genegarden/event"
)

var quiet = slog.New(slog.DiscardHandler)

func drain(s beep.Streamer) (n int, peak float64) {
	buf := make([][2]float64, 512)
	for {
		k, ok := s.Stream(buf)
		for _, v := range buf[:k] {
			peak = max(peak, v[0], -v[0])
		}
		n += k
		if !ok {
			return n, peak
		}
	}
}

func TestToneLengthAndRange(t *testing.T) {
	rate := beep.SampleRate(1000)
	for _, w := range []Wave{WaveSine, WaveSquare, WaveSaw, WaveNoise} {
		n, peak := drain(Tone(50, 200*time.Millisecond, w, rate))
		if n != 200 {
			t.Errorf("wave %d streamed %d samples, want 200", w, n)
		}
		if peak > 1 {
			t.Errorf("wave %d peak %v out of range", w, peak)
		}
	}
}

func TestShapeRampsInAndOut(t *testing.T) {
	rate := beep.SampleRate(1000)
	d := 100 * time.Millisecond
	s := Shape(Tone(0, d, WaveSquare, rate), d, 10*time.Millisecond, 10*time.Millisecond, rate)
	buf := make([][2]float64, 100)
	n, _ := s.Stream(buf)
	if n != 100 {
		t.Fatalf("streamed %d", n)
	}
	if buf[0][0] != 0 {
		t.Errorf("first sample = %v, want silent start", buf[0][0])
	}
	if buf[50][0] != 1 {
		t.Errorf("sustain sample = %v, want full", buf[50][0])
	}
	if buf[99][0] >= 0.2 {
		t.Errorf("last sample = %v, want near silent", buf[99][0])
	}
}

func TestEverySoundIsFinite(t *testing.T) {
	rate := beep.SampleRate(8000)
	for _, c := range []Cue{CueExecuted, CueFailed, CueCompleted, CueSpawn, CueDeath} {
		s := Sound(c, 0.5, rate)
		if s == nil {
			t.Fatalf("%s has no sound", c)
		}
		if n, _ := drain(s); n == 0 || n > rate.N(time.Second) {
			t.Errorf("%s streamed %d samples", c, n)
		}
	}
	if Sound(Cue(99), 1, rate) != nil {
		t.Error("unknown cue should have no sound")
	}
}

func TestPlayerWithoutSpeakerIsSilent(t *testing.T) {
	p := NewPlayer(0.5, quiet)
	if p.Play(CueExecuted) {
		t.Error("uninitialized player should not queue")
	}
	p.Close()
}

func TestBindQueuesCues(t *testing.T) {
	p := NewPlayer(0.5, quiet)
	p.initialized = true

	bus := event.NewBus(quiet)
	unbind := Bind(bus, p)
	event.Publish(bus, event.GeneExecuted{Success: true})
	event.Publish(bus, event.EffectSpawned{Kind: event.KindProjectile})
	event.Publish(bus, event.CreatureDied{})
	if got := p.mixer.Len(); got != 2 {
		t.Errorf("mixer has %d voices, want 2", got)
	}

	p.SetMuted(true)
	event.Publish(bus, event.SequenceCompleted{})
	if got := p.mixer.Len(); got != 2 {
		t.Errorf("muted player queued a cue")
	}
	p.SetMuted(false)

	for range MaxVoices {
		event.Publish(bus, event.GeneExecuted{})
	}
	if p.mixer.Len() != MaxVoices || p.Dropped() != 2 {
		t.Errorf("voices %d dropped %d", p.mixer.Len(), p.Dropped())
	}

	unbind()
	if event.HandlerCount[event.GeneExecuted](bus) != 0 {
		t.Error("unbind left handlers behind")
	}
}
