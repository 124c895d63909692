// Package raster is the software 2D drawing context. It renders into an
// *image.RGBA held in memory; hosts present it however they can.
package raster

import (
	"image"
	"image/color"
	stddraw "image/draw"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/spaghettifunk/kanvas/engine/renderer"
)

type Context struct {
	buffer    *image.RGBA
	state     *renderer.StateStack
	antialias bool
}

var _ renderer.Context = (*Context)(nil)

// New allocates a context with a width x height backing buffer. With
// antialias set, scaled images are resampled with Catmull-Rom instead of
// nearest neighbour.
func New(width, height int, antialias bool) *Context {
	return &Context{
		buffer:    image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		state:     renderer.NewStateStack(),
		antialias: antialias,
	}
}

func (c *Context) Size() (int, int) {
	b := c.buffer.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Context) Resize(width, height int) {
	c.buffer = image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
}

func (c *Context) SetFillStyle(col color.Color) {
	if col != nil {
		c.state.Current().FillStyle = col
	}
}

func (c *Context) FillStyle() color.Color {
	return c.state.Current().FillStyle
}

func (c *Context) SetFont(face font.Face) {
	if face != nil {
		c.state.Current().Font = face
	}
}

func (c *Context) Font() font.Face {
	return c.state.Current().Font
}

func (c *Context) FillRect(x, y, w, h float64) {
	r := rect(x, y, w, h).Intersect(c.buffer.Bounds())
	stddraw.Draw(c.buffer, r, image.NewUniform(c.FillStyle()), image.Point{}, stddraw.Over)
}

func (c *Context) ClearRect(x, y, w, h float64) {
	r := rect(x, y, w, h).Intersect(c.buffer.Bounds())
	stddraw.Draw(c.buffer, r, image.Transparent, image.Point{}, stddraw.Src)
}

func (c *Context) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil {
		return
	}
	src := img.Bounds()
	if w <= 0 || h <= 0 {
		dst := src.Sub(src.Min).Add(image.Pt(int(x), int(y)))
		stddraw.Draw(c.buffer, dst, img, src.Min, stddraw.Over)
		return
	}

	var scaler draw.Scaler = draw.NearestNeighbor
	if c.antialias {
		scaler = draw.CatmullRom
	}
	scaler.Scale(c.buffer, rect(x, y, w, h), img, src, draw.Over, nil)
}

// Forget does nothing; images are drawn straight from their pixels.
func (c *Context) Forget(image.Image) {}

func (c *Context) FillText(text string, x, y float64) {
	d := &font.Drawer{
		Dst:  c.buffer,
		Src:  image.NewUniform(c.FillStyle()),
		Face: c.Font(),
		Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
	}
	d.DrawString(text)
}

func (c *Context) FillGradient(x, y, w, h float64, from, to color.Color) {
	r := rect(x, y, w, h).Intersect(c.buffer.Bounds())
	if r.Empty() {
		return
	}
	// Project each pixel centre onto the diagonal (x,y)->(x+w,y+h).
	lengthSq := w*w + h*h
	for py := r.Min.Y; py < r.Max.Y; py++ {
		for px := r.Min.X; px < r.Max.X; px++ {
			dx := float64(px) + 0.5 - x
			dy := float64(py) + 0.5 - y
			t := 0.0
			if lengthSq > 0 {
				t = (dx*w + dy*h) / lengthSq
			}
			col := renderer.Lerp(from, to, t)
			dst := c.buffer.RGBAAt(px, py)
			c.buffer.SetRGBA(px, py, over(col, dst))
		}
	}
}

func (c *Context) Save() {
	c.state.Save()
}

func (c *Context) Restore() {
	c.state.Restore()
}

func (c *Context) Reset() {
	c.state.Reset()
}

func (c *Context) Image() image.Image {
	return c.buffer
}

// RGBA gives direct access to the backing buffer.
func (c *Context) RGBA() *image.RGBA {
	return c.buffer
}

func (c *Context) Release() {
	c.buffer = image.NewRGBA(image.Rectangle{})
	c.state.Reset()
}

func rect(x, y, w, h float64) image.Rectangle {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	x1 := int(math.Ceil(x + w))
	y1 := int(math.Ceil(y + h))
	return image.Rect(x0, y0, x1, y1)
}

// over composites a non-premultiplied source onto a premultiplied pixel.
func over(src color.NRGBA, dst color.RGBA) color.RGBA {
	a := uint32(src.A)
	inv := 255 - a
	blend := func(s uint8, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*inv + 127) / 255)
	}
	return color.RGBA{
		R: blend(src.R, dst.R),
		G: blend(src.G, dst.G),
		B: blend(src.B, dst.B),
		A: uint8((a*255 + uint32(dst.A)*inv + 127) / 255),
	}
}
