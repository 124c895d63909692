// Package gpu is the accelerated drawing context, backed by an ebiten
// image living on the GPU.
package gpu

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font"

	"github.com/spaghettifunk/kanvas/engine/renderer"
)

var whitePixelImage *ebiten.Image

func ensureWhitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage
}

type Context struct {
	image     *ebiten.Image
	state     *renderer.StateStack
	antialias bool

	// Decoded images are uploaded once and reused.
	textures map[image.Image]*ebiten.Image
	faces    map[font.Face]*text.GoXFace
}

var _ renderer.Context = (*Context)(nil)

func New(width, height int, antialias bool) *Context {
	return &Context{
		image:     ebiten.NewImage(max(width, 1), max(height, 1)),
		state:     renderer.NewStateStack(),
		antialias: antialias,
		textures:  make(map[image.Image]*ebiten.Image),
		faces:     make(map[font.Face]*text.GoXFace),
	}
}

func (c *Context) Size() (int, int) {
	b := c.image.Bounds()
	return b.Dx(), b.Dy()
}

func (c *Context) Resize(width, height int) {
	c.image.Deallocate()
	c.image = ebiten.NewImage(max(width, 1), max(height, 1))
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
	vector.DrawFilledRect(c.image, float32(x), float32(y), float32(w), float32(h), c.FillStyle(), c.antialias)
}

func (c *Context) ClearRect(x, y, w, h float64) {
	r := image.Rect(int(x), int(y), int(x+w), int(y+h)).Intersect(c.image.Bounds())
	if r.Empty() {
		return
	}
	c.image.SubImage(r).(*ebiten.Image).Clear()
}

func (c *Context) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil {
		return
	}
	tex, ok := c.textures[img]
	if !ok {
		tex = ebiten.NewImageFromImage(img)
		c.textures[img] = tex
	}

	op := &ebiten.DrawImageOptions{}
	if w > 0 && h > 0 {
		b := tex.Bounds()
		op.GeoM.Scale(w/float64(b.Dx()), h/float64(b.Dy()))
		if c.antialias {
			op.Filter = ebiten.FilterLinear
		}
	}
	op.GeoM.Translate(x, y)
	c.image.DrawImage(tex, op)
}

// Forget frees the texture uploaded for img, if any.
func (c *Context) Forget(img image.Image) {
	if tex, ok := c.textures[img]; ok {
		tex.Deallocate()
		delete(c.textures, img)
	}
}

func (c *Context) FillText(s string, x, y float64) {
	face := c.Font()
	goxFace, ok := c.faces[face]
	if !ok {
		goxFace = text.NewGoXFace(face)
		c.faces[face] = goxFace
	}

	// text/v2 positions the top of the line, FillText positions the baseline.
	ascent := float64(face.Metrics().Ascent) / 64
	op := &text.DrawOptions{}
	op.GeoM.Translate(x, y-ascent)
	op.ColorScale.ScaleWithColor(c.FillStyle())
	text.Draw(c.image, s, goxFace, op)
}

func (c *Context) FillGradient(x, y, w, h float64, from, to color.Color) {
	a := color.NRGBAModel.Convert(from).(color.NRGBA)
	b := color.NRGBAModel.Convert(to).(color.NRGBA)
	// Corners off the diagonal sit halfway along the gradient axis.
	mid := renderer.Lerp(a, b, 0.5)

	vertex := func(vx, vy float64, col color.NRGBA) ebiten.Vertex {
		return ebiten.Vertex{
			DstX:   float32(vx),
			DstY:   float32(vy),
			SrcX:   0,
			SrcY:   0,
			ColorR: float32(col.R) / 0xff,
			ColorG: float32(col.G) / 0xff,
			ColorB: float32(col.B) / 0xff,
			ColorA: float32(col.A) / 0xff,
		}
	}
	vertices := []ebiten.Vertex{
		vertex(x, y, a),
		vertex(x+w, y, mid),
		vertex(x, y+h, mid),
		vertex(x+w, y+h, b),
	}
	indices := []uint16{0, 1, 2, 1, 3, 2}

	op := &ebiten.DrawTrianglesOptions{AntiAlias: c.antialias}
	c.image.DrawTriangles(vertices, indices, ensureWhitePixel(), op)
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
	return c.image
}

// Texture returns the ebiten image the context renders into.
func (c *Context) Texture() *ebiten.Image {
	return c.image
}

func (c *Context) Release() {
	for img, tex := range c.textures {
		tex.Deallocate()
		delete(c.textures, img)
	}
	c.faces = make(map[font.Face]*text.GoXFace)
	c.image.Deallocate()
	c.state.Reset()
}
