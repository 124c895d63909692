package renderer

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const testFNT = `info face="Test" size=16 bold=0 italic=0 charset="" unicode=1 stretchH=100 smooth=0 aa=1 padding=0,0,0,0 spacing=1,1 outline=0
common lineHeight=16 base=12 scaleW=16 scaleH=16 pages=1 packed=0 alphaChnl=0 redChnl=0 greenChnl=0 blueChnl=0
page id=0 file="test_0.png"
chars count=1
char id=65   x=0     y=0     width=4     height=8     xoffset=1     yoffset=4     xadvance=6     page=0  chnl=15
kernings count=1
kerning first=65  second=65  amount=-1
`

func writeTestFont(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	page := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(page, image.Rect(0, 0, 4, 8), image.NewUniform(color.White), image.Point{}, draw.Src)
	f, err := os.Create(filepath.Join(dir, "test_0.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, page))
	require.NoError(t, f.Close())

	path := filepath.Join(dir, "test.fnt")
	require.NoError(t, os.WriteFile(path, []byte(testFNT), 0o644))
	return path
}

func TestLoadBitmapFace(t *testing.T) {
	face, err := LoadBitmapFace(writeTestFont(t))
	require.NoError(t, err)

	m := face.Metrics()
	assert.Equal(t, fixed.I(16), m.Height)
	assert.Equal(t, fixed.I(12), m.Ascent)

	adv, ok := face.GlyphAdvance('A')
	assert.True(t, ok)
	assert.Equal(t, fixed.I(6), adv)
	assert.Equal(t, fixed.I(-1), face.Kern('A', 'A'))

	_, ok = face.GlyphAdvance('B')
	assert.False(t, ok)

	dr, mask, maskp, _, ok := face.Glyph(fixed.P(10, 20), 'A')
	require.True(t, ok)
	assert.NotNil(t, mask)
	assert.Equal(t, image.Point{}, maskp)
	// x: 10 + xoffset 1, y: baseline 20 - base 12 + yoffset 4
	assert.Equal(t, image.Rect(11, 12, 15, 20), dr)
}

func TestBitmapFaceDrawsWithFontDrawer(t *testing.T) {
	face, err := LoadBitmapFace(writeTestFont(t))
	require.NoError(t, err)

	dst := image.NewRGBA(image.Rect(0, 0, 32, 32))
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.RGBA{255, 0, 0, 255}),
		Face: face,
		Dot:  fixed.P(0, 12),
	}
	d.DrawString("A")

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, dst.RGBAAt(1, 4))
	assert.Equal(t, color.RGBA{}, dst.RGBAAt(0, 0))
}

func TestLoadBitmapFaceMissingFile(t *testing.T) {
	_, err := LoadBitmapFace(filepath.Join(t.TempDir(), "missing.fnt"))
	assert.Error(t, err)
}
