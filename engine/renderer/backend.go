package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Context is the drawing context bound to a target's backing buffer.
// Coordinates are backing-buffer pixels. A Context is used from the
// application's execution context only.
type Context interface {
	Size() (width, height int)
	// Resize reallocates the backing buffer. Content is discarded.
	Resize(width, height int)

	SetFillStyle(c color.Color)
	FillStyle() color.Color
	SetFont(face font.Face)
	Font() font.Face

	FillRect(x, y, w, h float64)
	ClearRect(x, y, w, h float64)
	// DrawImage draws img with its top-left corner at x, y. When w or h is
	// not positive the natural image size is used.
	DrawImage(img image.Image, x, y, w, h float64)
	// FillText draws text with its baseline starting at x, y.
	FillText(text string, x, y float64)
	// FillGradient fills the rectangle with a linear gradient running from
	// its top-left to its bottom-right corner.
	FillGradient(x, y, w, h float64, from, to color.Color)

	Save()
	Restore()
	// Reset drops every saved state and restores the defaults.
	Reset()

	// Forget drops anything kept for img by earlier DrawImage calls.
	Forget(img image.Image)

	// Image exposes the current backing buffer for presentation.
	Image() image.Image
	Release()
}

// State is the part of a Context that Save and Restore track.
type State struct {
	FillStyle color.Color
	Font      font.Face
}

func DefaultState() State {
	return State{
		FillStyle: color.Black,
		Font:      basicfont.Face7x13,
	}
}

// StateStack implements Save/Restore/Reset for Context backends.
type StateStack struct {
	current State
	saved   []State
}

func NewStateStack() *StateStack {
	return &StateStack{current: DefaultState()}
}

func (s *StateStack) Current() *State {
	return &s.current
}

func (s *StateStack) Save() {
	s.saved = append(s.saved, s.current)
}

// Restore pops the last saved state. Without a saved state it does nothing.
func (s *StateStack) Restore() {
	if len(s.saved) == 0 {
		return
	}
	s.current = s.saved[len(s.saved)-1]
	s.saved = s.saved[:len(s.saved)-1]
}

func (s *StateStack) Reset() {
	s.current = DefaultState()
	s.saved = nil
}

func (s *StateStack) Depth() int {
	return len(s.saved)
}
