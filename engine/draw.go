package engine

import (
	"image/color"
	"strconv"

	mathx "github.com/spaghettifunk/kanvas/engine/math"
	"github.com/spaghettifunk/kanvas/engine/renderer"
	"github.com/spaghettifunk/kanvas/engine/resources"
)

// Where the frame rate overlay is drawn, in backing pixels.
const (
	fpsOverlayX = 10
	fpsOverlayY = 34
)

// drawContext is the context draw calls use, or nil before Init.
func (a *Application) drawContext() renderer.Context {
	if !a.initialized {
		return nil
	}
	return a.surface.Context()
}

// DrawImage draws the image resource id at x, y, rounded to whole pixels.
// When w or h is not positive the image keeps its natural size. A missing
// or not yet loaded image draws nothing; an unloaded one starts loading.
// fill, when set, becomes the fill style for the call.
func (a *Application) DrawImage(id string, x, y, w, h float64, fill string) {
	ctx := a.drawContext()
	if ctx == nil {
		return
	}
	r := a.GetResource(resources.ResourceTypeImage, id)
	if r == nil {
		return
	}
	img, ok := r.Image()
	if !ok {
		return
	}

	ctx.Save()
	defer ctx.Restore()
	if fill != "" {
		if c := a.parseColor(fill); c != nil {
			ctx.SetFillStyle(c)
		}
	}
	if w <= 0 || h <= 0 {
		w, h = 0, 0
	}
	ctx.DrawImage(img, mathx.Round(x), mathx.Round(y), w, h)
}

// DrawText draws text with its baseline at x, y in the given color, or in
// the current fill style when fill is empty.
func (a *Application) DrawText(text string, x, y float64, fill string) {
	ctx := a.drawContext()
	if ctx == nil {
		return
	}

	ctx.Save()
	defer ctx.Restore()
	ctx.SetFont(a.face)
	if fill != "" {
		if c := a.parseColor(fill); c != nil {
			ctx.SetFillStyle(c)
		}
	}
	ctx.FillText(text, x, y)
}

// DrawGradient fills the rectangle with a linear gradient from from at the
// top-left corner to to at the bottom-right one.
func (a *Application) DrawGradient(x, y, w, h float64, from, to string) {
	ctx := a.drawContext()
	if ctx == nil {
		return
	}
	c1, c2 := a.parseColor(from), a.parseColor(to)
	if c1 == nil || c2 == nil {
		return
	}

	ctx.Save()
	defer ctx.Restore()
	ctx.FillGradient(x, y, w, h, c1, c2)
}

func (a *Application) drawFPS() {
	ctx := a.drawContext()
	if ctx == nil {
		return
	}

	ctx.Save()
	defer ctx.Restore()
	ctx.SetFont(a.face)
	ctx.SetFillStyle(color.White)
	ctx.FillText(strconv.Itoa(a.FPS()), fpsOverlayX, fpsOverlayY)
}
