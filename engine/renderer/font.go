package renderer

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/fzipp/bmfont"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

type bitmapGlyph struct {
	x, y, width, height int
	xOffset, yOffset    int
	xAdvance            int
	page                int
}

// BitmapFace is a font.Face backed by an AngelCode BMFont descriptor and
// its page sheets.
type BitmapFace struct {
	Face       string
	Size       int
	lineHeight int
	base       int
	glyphs     map[rune]bitmapGlyph
	kernings   map[[2]rune]int
	pages      map[int]image.Image
}

var _ font.Face = (*BitmapFace)(nil)

// LoadBitmapFace reads a .fnt descriptor and the page images it names,
// resolved relative to the descriptor.
func LoadBitmapFace(path string) (*BitmapFace, error) {
	f, err := bmfont.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load bitmap font %s: %w", path, err)
	}

	face := &BitmapFace{
		Face:       f.Descriptor.Info.Face,
		Size:       int(f.Descriptor.Info.Size),
		lineHeight: int(f.Descriptor.Common.LineHeight),
		base:       int(f.Descriptor.Common.Base),
		glyphs:     make(map[rune]bitmapGlyph, len(f.Descriptor.Chars)),
		kernings:   make(map[[2]rune]int, len(f.Descriptor.Kerning)),
		pages:      make(map[int]image.Image, len(f.Descriptor.Pages)),
	}

	dir := filepath.Dir(path)
	for _, p := range f.Descriptor.Pages {
		img, err := loadPage(filepath.Join(dir, p.File))
		if err != nil {
			return nil, err
		}
		face.pages[int(p.ID)] = img
	}

	for _, g := range f.Descriptor.Chars {
		face.glyphs[rune(g.ID)] = bitmapGlyph{
			x:        int(g.X),
			y:        int(g.Y),
			width:    int(g.Width),
			height:   int(g.Height),
			xOffset:  int(g.XOffset),
			yOffset:  int(g.YOffset),
			xAdvance: int(g.XAdvance),
			page:     int(g.Page),
		}
	}

	for p, k := range f.Descriptor.Kerning {
		face.kernings[[2]rune{rune(p.First), rune(p.Second)}] = int(k.Amount)
	}

	return face, nil
}

func loadPage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode font page %s: %w", path, err)
	}
	return img, nil
}

func (f *BitmapFace) Close() error {
	return nil
}

func (f *BitmapFace) Glyph(dot fixed.Point26_6, r rune) (image.Rectangle, image.Image, image.Point, fixed.Int26_6, bool) {
	g, ok := f.glyphs[r]
	if !ok {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	page, ok := f.pages[g.page]
	if !ok {
		return image.Rectangle{}, nil, image.Point{}, 0, false
	}
	// yOffset is measured from the top of the line, dot sits on the baseline.
	x0 := dot.X.Round() + g.xOffset
	y0 := dot.Y.Round() - f.base + g.yOffset
	dr := image.Rect(x0, y0, x0+g.width, y0+g.height)
	maskp := page.Bounds().Min.Add(image.Pt(g.x, g.y))
	return dr, page, maskp, fixed.I(g.xAdvance), true
}

func (f *BitmapFace) GlyphBounds(r rune) (fixed.Rectangle26_6, fixed.Int26_6, bool) {
	g, ok := f.glyphs[r]
	if !ok {
		return fixed.Rectangle26_6{}, 0, false
	}
	top := g.yOffset - f.base
	bounds := fixed.R(g.xOffset, top, g.xOffset+g.width, top+g.height)
	return bounds, fixed.I(g.xAdvance), true
}

func (f *BitmapFace) GlyphAdvance(r rune) (fixed.Int26_6, bool) {
	g, ok := f.glyphs[r]
	if !ok {
		return 0, false
	}
	return fixed.I(g.xAdvance), true
}

func (f *BitmapFace) Kern(r0, r1 rune) fixed.Int26_6 {
	return fixed.I(f.kernings[[2]rune{r0, r1}])
}

func (f *BitmapFace) Metrics() font.Metrics {
	return font.Metrics{
		Height:  fixed.I(f.lineHeight),
		Ascent:  fixed.I(f.base),
		Descent: fixed.I(f.lineHeight - f.base),
	}
}
