// Package platform defines what the engine needs from its host: a display
// to size targets against, a pixel density, resize notifications, drawing
// contexts and a way to schedule frames.
package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/spaghettifunk/kanvas/engine/loop"
	"github.com/spaghettifunk/kanvas/engine/renderer"
)

type Unit uint8

const (
	UnitPx Unit = iota
	// Percent of the viewport width.
	UnitVW
	// Percent of the viewport height.
	UnitVH
)

// Length is a CSS-style length in logical pixels or viewport units.
type Length struct {
	Value float64
	Unit  Unit
}

func Px(v float64) Length { return Length{Value: v, Unit: UnitPx} }
func VW(v float64) Length { return Length{Value: v, Unit: UnitVW} }
func VH(v float64) Length { return Length{Value: v, Unit: UnitVH} }

// Resolve returns the length in logical pixels for a viewport of the given size.
func (l Length) Resolve(viewportWidth, viewportHeight float64) float64 {
	switch l.Unit {
	case UnitVW:
		return l.Value * viewportWidth / 100
	case UnitVH:
		return l.Value * viewportHeight / 100
	default:
		return l.Value
	}
}

func (l Length) String() string {
	v := strconv.FormatFloat(l.Value, 'f', -1, 64)
	switch l.Unit {
	case UnitVW:
		return v + "vw"
	case UnitVH:
		return v + "vh"
	default:
		return v + "px"
	}
}

// ParseLength accepts "640", "640px", "100vw" and "100vh".
func ParseLength(s string) (Length, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	unit := UnitPx
	switch {
	case strings.HasSuffix(s, "vw"):
		unit, s = UnitVW, strings.TrimSuffix(s, "vw")
	case strings.HasSuffix(s, "vh"):
		unit, s = UnitVH, strings.TrimSuffix(s, "vh")
	case strings.HasSuffix(s, "px"):
		s = strings.TrimSuffix(s, "px")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Length{}, fmt.Errorf("invalid length %q: %w", s, err)
	}
	return Length{Value: v, Unit: unit}, nil
}

// Target is a drawable element: a logical (CSS) size chosen by the
// application and a backing buffer size in device pixels.
type Target struct {
	ID string
	// Logical size, resolved by the host into rendered logical pixels.
	Width  Length
	Height Length
	// Backing buffer size in device pixels.
	PixelWidth  int
	PixelHeight int
}

// NewTarget returns a full-viewport target with a fresh id.
func NewTarget() *Target {
	return &Target{
		ID:     uuid.NewString(),
		Width:  VW(100),
		Height: VH(100),
	}
}

// ContextSettings are hints passed to the host when creating a drawing
// context. Hosts ignore what they cannot honour.
type ContextSettings struct {
	Antialias             bool   `toml:"antialias"`
	PreserveDrawingBuffer bool   `toml:"preserve_drawing_buffer"`
	PreferModernBackend   bool   `toml:"prefer_modern_backend"`
	PowerPreference       string `toml:"power_preference"`
	Alpha                 bool   `toml:"alpha"`
}

// Host is the display environment an application runs in. Every method
// is called from the host's execution context.
type Host interface {
	// Dispatcher is the execution context all callbacks run on.
	Dispatcher() loop.Dispatcher
	// Viewport is the logical size of the display area.
	Viewport() (width, height float64)
	DevicePixelRatio() float64
	// ComputedSize is the logical size the target actually renders at,
	// which may differ from the requested one.
	ComputedSize(t *Target) (width, height float64)
	AttachTarget(t *Target)
	DetachTarget(t *Target)
	// OnResize registers fn to be called on the execution context whenever
	// the viewport or the pixel density changes.
	OnResize(fn func()) (cancel func())
	// NewContext creates a drawing context for t, accelerated if mode3D
	// is set. It fails with core.ErrContextUnavailable when the host
	// cannot provide the requested kind.
	NewContext(t *Target, mode3D bool, settings ContextSettings) (renderer.Context, error)
}
