// Package config loads engine settings, gene catalogs and authored templates from yaml
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/genegarden/garden"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrInvalidConfig = errors.New("invalid config")

// Document bundles everything a run is configured by
type Document struct {
	Engine    Engine        `yaml:"engine" json:"engine" jsonschema:"description=Engine timing and world size plus ambient services"`
	Catalog   Catalog       `yaml:"catalog" json:"catalog" jsonschema:"description=Gene definitions available to templates"`
	Templates []TemplateDoc `yaml:"templates" json:"templates,omitempty" jsonschema:"description=Authored plant templates"`
}

// Engine holds run-wide settings
type Engine struct {
	TickMS       int             `yaml:"tick_ms" json:"tick_ms" jsonschema:"title=Tick interval,description=Milliseconds between world ticks,minimum=1"`
	FrameMS      int             `yaml:"frame_ms" json:"frame_ms" jsonschema:"title=Frame interval,description=Milliseconds between frame updates,minimum=1"`
	EvalInterval int             `yaml:"eval_interval" json:"eval_interval" jsonschema:"description=World ticks between sequence evaluations,minimum=1"`
	Cooldown     int             `yaml:"cooldown" json:"cooldown" jsonschema:"description=Ticks a slot stays flagged executing after it runs,minimum=0"`
	Seed         int64           `yaml:"seed" json:"seed" jsonschema:"description=World RNG seed"`
	World        WorldConfig     `yaml:"world" json:"world"`
	Creatures    []CreatureGroup `yaml:"creatures" json:"creatures,omitempty"`
	Storage      StorageConfig   `yaml:"storage" json:"storage"`
	Telemetry    TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	Audio        AudioConfig     `yaml:"audio" json:"audio"`
	Log          LogConfig       `yaml:"log" json:"log"`
}

type WorldConfig struct {
	Width    float64 `yaml:"width" json:"width" jsonschema:"minimum=0,exclusiveMinimum=true"`
	Height   float64 `yaml:"height" json:"height" jsonschema:"minimum=0,exclusiveMinimum=true"`
	CellSize float64 `yaml:"cell_size" json:"cell_size" jsonschema:"description=World units per targeting grid cell,minimum=0,exclusiveMinimum=true"`
}

// CreatureGroup is a batch of creatures scattered at startup
type CreatureGroup struct {
	Species string  `yaml:"species" json:"species" jsonschema:"minLength=1"`
	Count   int     `yaml:"count" json:"count" jsonschema:"minimum=0"`
	Health  float64 `yaml:"health" json:"health,omitempty"`
}

type StorageConfig struct {
	Kind string `yaml:"kind" json:"kind" jsonschema:"enum=memory,enum=sqlite"`
	Path string `yaml:"path" json:"path,omitempty" jsonschema:"description=Database file for the sqlite backend"`
}

type TelemetryConfig struct {
	Addr   string `yaml:"addr" json:"addr,omitempty" jsonschema:"description=Listen address for the websocket feed; empty disables it"`
	Buffer int    `yaml:"buffer" json:"buffer,omitempty" jsonschema:"description=Per-client send buffer in messages,minimum=1"`
}

type AudioConfig struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	Volume  float64 `yaml:"volume" json:"volume" jsonschema:"minimum=0,maximum=1"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	File  string `yaml:"file" json:"file,omitempty"`
}

// SlogLevel parses Level, falling back to info
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (e Engine) TickInterval() time.Duration  { return time.Duration(e.TickMS) * time.Millisecond }
func (e Engine) FrameInterval() time.Duration { return time.Duration(e.FrameMS) * time.Millisecond }

// Garden maps the engine settings onto a world configuration
func (e Engine) Garden() garden.Config {
	return garden.Config{
		Seed:         e.Seed,
		Width:        e.World.Width,
		Height:       e.World.Height,
		CellSize:     e.World.CellSize,
		EvalInterval: e.EvalInterval,
		Cooldown:     e.Cooldown,
	}
}

// Validate reports every problem in the engine section
func (e Engine) Validate() error {
	var errs []error
	if e.TickMS <= 0 {
		errs = append(errs, fmt.Errorf("tick_ms must be positive, got %d", e.TickMS))
	}
	if e.FrameMS <= 0 {
		errs = append(errs, fmt.Errorf("frame_ms must be positive, got %d", e.FrameMS))
	}
	if e.EvalInterval <= 0 {
		errs = append(errs, fmt.Errorf("eval_interval must be positive, got %d", e.EvalInterval))
	}
	if e.Cooldown < 0 {
		errs = append(errs, fmt.Errorf("cooldown must not be negative, got %d", e.Cooldown))
	}
	if e.World.Width <= 0 || e.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be positive, got %gx%g", e.World.Width, e.World.Height))
	}
	for i, g := range e.Creatures {
		if strings.TrimSpace(g.Species) == "" || g.Count < 0 {
			errs = append(errs, fmt.Errorf("creatures[%d]: species required and count not negative", i))
		}
	}
	switch e.Storage.Kind {
	case "", "memory":
	case "sqlite":
		if e.Storage.Path == "" {
			errs = append(errs, errors.New("storage.path is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage kind %q", e.Storage.Kind))
	}
	if e.Audio.Volume < 0 || e.Audio.Volume > 1 {
		errs = append(errs, fmt.Errorf("audio.volume must be within [0,1], got %g", e.Audio.Volume))
	}
	return errors.Join(errs...)
}

// Validate checks the engine section and that catalog entries name known kinds
// Template references are checked when templates are built against a library
func (d *Document) Validate() error {
	errs := []error{d.Engine.Validate(), d.Catalog.Validate()}
	names := make(map[string]bool, len(d.Templates))
	for i, t := range d.Templates {
		if t.Name == "" {
			errs = append(errs, fmt.Errorf("templates[%d]: name required", i))
			continue
		}
		if names[t.Name] {
			errs = append(errs, fmt.Errorf("templates[%d]: duplicate name %q", i, t.Name))
		}
		names[t.Name] = true
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Default returns the embedded defaults
func Default() (*Document, error) {
	doc := &Document{}
	if err := yaml.Unmarshal(defaultsYAML, doc); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return doc, nil
}

// Parse overlays data onto the embedded defaults and validates the result
// Keys present in data replace the default, lists replace whole
func Parse(data []byte) (*Document, error) {
	doc, err := Default()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Load reads path and parses it; an empty path yields the validated defaults
func Load(path string) (*Document, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}
