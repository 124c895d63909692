package engine

import (
	"errors"
	"fmt"

	"github.com/spaghettifunk/kanvas/engine/core"
	mathx "github.com/spaghettifunk/kanvas/engine/math"
	"github.com/spaghettifunk/kanvas/engine/platform"
	"github.com/spaghettifunk/kanvas/engine/renderer"
)

// Surface is the application's drawing target and its context. The
// backing buffer follows the rendered size times the device pixel ratio and
// is only recomputed on resize.
type Surface struct {
	app    *Application
	target *platform.Target
	// The target was created here rather than supplied.
	ownsTarget bool
	ctx        renderer.Context
	dpr        float64
}

func newSurface(app *Application) *Surface {
	return &Surface{app: app, dpr: 1}
}

func (s *Surface) init() error {
	if s.target == nil {
		s.target = platform.NewTarget()
		s.ownsTarget = true
	}
	host := s.app.host
	host.AttachTarget(s.target)

	ctx, err := host.NewContext(s.target, s.app.Config.Mode3D, s.app.Config.Context)
	if err != nil {
		host.DetachTarget(s.target)
		if !errors.Is(err, core.ErrContextUnavailable) {
			err = fmt.Errorf("%w: %w", core.ErrContextUnavailable, err)
		}
		return err
	}
	s.ctx = ctx

	s.Resize(s.target.Width, s.target.Height)
	return nil
}

func (s *Surface) destroy() {
	if s.target != nil {
		s.app.host.DetachTarget(s.target)
		if s.ownsTarget {
			s.target = nil
			s.ownsTarget = false
		}
	}
	if s.ctx != nil {
		s.ctx.Release()
		s.ctx = nil
	}
}

// Resize sets the logical size of the target and reallocates the backing
// buffer to the size the host renders it at, times the device pixel ratio.
// It does nothing before the application is initialized.
func (s *Surface) Resize(width, height platform.Length) {
	if !s.app.initialized || s.target == nil || s.ctx == nil {
		return
	}
	host := s.app.host

	s.target.Width, s.target.Height = width, height
	s.dpr = host.DevicePixelRatio()
	rw, rh := host.ComputedSize(s.target)
	s.target.PixelWidth = mathx.Truncate(rw * s.dpr)
	s.target.PixelHeight = mathx.Truncate(rh * s.dpr)

	if w, h := s.ctx.Size(); w != s.target.PixelWidth || h != s.target.PixelHeight {
		s.ctx.Resize(s.target.PixelWidth, s.target.PixelHeight)
	}
	s.app.logger.Debug("surface resized",
		"css", width.String()+"x"+height.String(),
		"pixels", fmt.Sprintf("%dx%d", s.target.PixelWidth, s.target.PixelHeight),
		"dpr", s.dpr)
	s.Clear()
}

// Clear fills the backing buffer with the clear color, or makes it
// transparent when there is none, and resets the context state.
func (s *Surface) Clear() {
	if s.ctx == nil {
		return
	}
	w, h := float64(s.target.PixelWidth), float64(s.target.PixelHeight)
	if c := s.app.clearColor; c != nil {
		s.ctx.SetFillStyle(c)
		s.ctx.FillRect(0, 0, w, h)
	} else {
		s.ctx.ClearRect(0, 0, w, h)
	}
	s.ctx.Reset()
}

// SetTarget replaces the drawing target. On an initialized application the
// surface is rebuilt on the new target right away.
func (s *Surface) SetTarget(t *platform.Target) error {
	if t == nil {
		return errors.New("nil target")
	}
	if !s.app.initialized {
		s.target, s.ownsTarget = t, false
		return nil
	}
	s.destroy()
	s.target, s.ownsTarget = t, false
	return s.init()
}

func (s *Surface) Target() *platform.Target {
	return s.target
}

func (s *Surface) Context() renderer.Context {
	return s.ctx
}

func (s *Surface) DevicePixelRatio() float64 {
	return s.dpr
}

// Size is the backing buffer size in device pixels.
func (s *Surface) Size() (int, int) {
	if s.target == nil {
		return 0, 0
	}
	return s.target.PixelWidth, s.target.PixelHeight
}
