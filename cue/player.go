// Package cue turns gene engine events into short synthesized sounds
package cue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/genegarden/event"
)

const (
	SampleRate = beep.SampleRate(44100)

	// MaxVoices bounds concurrently playing cues; extra cues are dropped
	MaxVoices = 12
)

// Cue names a sound
type Cue int

const (
	CueExecuted Cue = iota
	CueFailed
	CueCompleted
	CueSpawn
	CueDeath
)

func (c Cue) String() string {
	switch c {
	case CueExecuted:
		return "executed"
	case CueFailed:
		return "failed"
	case CueCompleted:
		return "completed"
	case CueSpawn:
		return "spawn"
	case CueDeath:
		return "death"
	}
	return "unknown"
}

// Sound builds the streamer for c at volume v
func Sound(c Cue, v float64, rate beep.SampleRate) beep.Streamer {
	switch c {
	case CueExecuted:
		d := 90 * time.Millisecond
		return gain(Shape(Tone(660, d, WaveSine, rate), d, 5*time.Millisecond, 60*time.Millisecond, rate), v)
	case CueFailed:
		d := 120 * time.Millisecond
		return gain(Shape(Tone(110, d, WaveSaw, rate), d, 5*time.Millisecond, 40*time.Millisecond, rate), v*0.6)
	case CueCompleted:
		d1, d2 := 70*time.Millisecond, 140*time.Millisecond
		first := Shape(Tone(784, d1, WaveSquare, rate), d1, 3*time.Millisecond, 20*time.Millisecond, rate)
		second := Shape(Tone(1046.5, d2, WaveSquare, rate), d2, 3*time.Millisecond, 100*time.Millisecond, rate)
		return gain(beep.Seq(first, second), v*0.5)
	case CueSpawn:
		d := 150 * time.Millisecond
		return gain(Shape(Tone(0, d, WaveNoise, rate), d, 20*time.Millisecond, 110*time.Millisecond, rate), v*0.3)
	case CueDeath:
		d := 300 * time.Millisecond
		low := Shape(Tone(220, d, WaveSine, rate), d, 10*time.Millisecond, 250*time.Millisecond, rate)
		fifth := Shape(Tone(330, d, WaveSine, rate), d, 10*time.Millisecond, 200*time.Millisecond, rate)
		return gain(beep.Mix(gain(low, 0.7), gain(fifth, 0.3)), v)
	}
	return nil
}

// Player mixes cues onto the speaker
// Until Initialize succeeds every Play is a no-op
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
	muted       bool
	dropped     int
	logger      *slog.Logger
}

func NewPlayer(volume float64, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{mixer: &beep.Mixer{}, volume: volume, logger: logger}
}

// Initialize opens the speaker and starts the mixer, a second call is a no-op
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	p.logger.Info("audio initialized", "rate", int(SampleRate), "volume", p.volume)
	return nil
}

// Play queues c unless muted, uninitialized, or at MaxVoices
func (p *Player) Play(c Cue) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized || p.muted {
		return false
	}
	if p.mixer.Len() >= MaxVoices {
		p.dropped++
		return false
	}
	s := Sound(c, p.volume, SampleRate)
	if s == nil {
		return false
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
	return true
}

func (p *Player) SetMuted(m bool) {
	p.mu.Lock()
	p.muted = m
	p.mu.Unlock()
}

func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// Dropped returns how many cues were refused for lack of voices
func (p *Player) Dropped() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dropped
}

// Close clears the mixer and closes the speaker
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.initialized = false
}

// Bind plays cues for bus events until the returned function is called
func Bind(bus *event.Bus, p *Player) (unbind func()) {
	subs := []event.Subscription{
		event.Subscribe(bus, func(e event.GeneExecuted) {
			if e.Success {
				p.Play(CueExecuted)
			} else {
				p.Play(CueFailed)
			}
		}),
		event.Subscribe(bus, func(event.SequenceCompleted) { p.Play(CueCompleted) }),
		event.Subscribe(bus, func(e event.EffectSpawned) {
			if e.Kind == event.KindArea {
				p.Play(CueSpawn)
			}
		}),
		event.Subscribe(bus, func(event.CreatureDied) { p.Play(CueDeath) }),
	}
	return func() {
		for _, s := range subs {
			bus.Unsubscribe(s)
		}
	}
}
