package engine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/platform"
	"github.com/spaghettifunk/kanvas/engine/renderer"
)

// Config controls an Application. Start from DefaultConfig and change what
// you need, or load a TOML file with LoadConfig.
type Config struct {
	// Frame rate cap. Zero or less runs at the host's frame rate.
	FPS int `toml:"fps"`
	// Use an accelerated context instead of a software one.
	Mode3D bool `toml:"mode_3d"`
	// Color every frame starts from. Empty clears to transparent.
	ClearColor         string `toml:"clear_color"`
	ClearDisplayBuffer bool   `toml:"clear_display_buffer"`
	// The host calls Application.Step itself; no frames are scheduled.
	ManualUpdate bool `toml:"manual_update"`
	ShowFPS      bool `toml:"show_fps"`
	// Log resource loads and failures.
	Debug   bool                     `toml:"debug"`
	Context platform.ContextSettings `toml:"context"`

	// Directory relative resource locators are resolved against.
	AssetRoot string `toml:"asset_root"`
	// BMFont descriptor used for text. Empty uses the built-in face.
	FontPath           string        `toml:"font_path"`
	LogLevel           core.LogLevel `toml:"log_level"`
	MaxConcurrentLoads int           `toml:"max_concurrent_loads"`
	// Report changes to the files behind loaded resources.
	WatchAssets bool `toml:"watch_assets"`
}

func DefaultConfig() Config {
	return Config{
		FPS:                -1,
		Mode3D:             false,
		ClearColor:         "#000",
		ClearDisplayBuffer: true,
		ManualUpdate:       false,
		ShowFPS:            true,
		Debug:              true,
		Context: platform.ContextSettings{
			Antialias:             false,
			PreserveDrawingBuffer: false,
			PreferModernBackend:   true,
			PowerPreference:       "high-performance",
			Alpha:                 false,
		},
		AssetRoot:          ".",
		LogLevel:           core.InfoLevel,
		MaxConcurrentLoads: 4,
		WatchAssets:        false,
	}
}

// ConfigOverride carries the fields a caller wants to change. Nil fields
// keep the base value.
type ConfigOverride struct {
	FPS                *int
	Mode3D             *bool
	ClearColor         *string
	ClearDisplayBuffer *bool
	ManualUpdate       *bool
	ShowFPS            *bool
	Debug              *bool
	Context            *ContextOverride
	AssetRoot          *string
	FontPath           *string
	LogLevel           *core.LogLevel
	MaxConcurrentLoads *int
	WatchAssets        *bool
}

type ContextOverride struct {
	Antialias             *bool
	PreserveDrawingBuffer *bool
	PreferModernBackend   *bool
	PowerPreference       *string
	Alpha                 *bool
}

// Merge returns c with every set field of o applied. Neither argument is
// modified.
func (c Config) Merge(o ConfigOverride) Config {
	set(&c.FPS, o.FPS)
	set(&c.Mode3D, o.Mode3D)
	set(&c.ClearColor, o.ClearColor)
	set(&c.ClearDisplayBuffer, o.ClearDisplayBuffer)
	set(&c.ManualUpdate, o.ManualUpdate)
	set(&c.ShowFPS, o.ShowFPS)
	set(&c.Debug, o.Debug)
	if o.Context != nil {
		set(&c.Context.Antialias, o.Context.Antialias)
		set(&c.Context.PreserveDrawingBuffer, o.Context.PreserveDrawingBuffer)
		set(&c.Context.PreferModernBackend, o.Context.PreferModernBackend)
		set(&c.Context.PowerPreference, o.Context.PowerPreference)
		set(&c.Context.Alpha, o.Context.Alpha)
	}
	set(&c.AssetRoot, o.AssetRoot)
	set(&c.FontPath, o.FontPath)
	set(&c.LogLevel, o.LogLevel)
	set(&c.MaxConcurrentLoads, o.MaxConcurrentLoads)
	set(&c.WatchAssets, o.WatchAssets)
	return c
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Ptr returns a pointer to v, for filling a ConfigOverride.
func Ptr[T any](v T) *T {
	return &v
}

// Validate reports values the application cannot use.
func (c Config) Validate() error {
	var errs []error
	if _, err := renderer.ParseColor(c.ClearColor); err != nil {
		errs = append(errs, fmt.Errorf("clear_color: %w", err))
	}
	if c.MaxConcurrentLoads < 1 {
		errs = append(errs, fmt.Errorf("max_concurrent_loads must be at least 1, got %d", c.MaxConcurrentLoads))
	}
	switch c.LogLevel {
	case core.DebugLevel, core.InfoLevel, core.WarnLevel, core.ErrorLevel, "":
	default:
		errs = append(errs, fmt.Errorf("log_level: unknown level %q", c.LogLevel))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a TOML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	defer f.Close()
	return DecodeConfig(f)
}

// DecodeConfig reads TOML on top of DefaultConfig. Keys that match no
// field fail with ErrUnknownConfigKey.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg)
	if err != nil {
		var sme *toml.StrictMissingError
		if errors.As(err, &sme) {
			keys := make([]string, 0, len(sme.Errors))
			for _, de := range sme.Errors {
				keys = append(keys, strings.Join(de.Key(), "."))
			}
			return Config{}, fmt.Errorf("%w: %s", core.ErrUnknownConfigKey, strings.Join(keys, ", "))
		}
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
