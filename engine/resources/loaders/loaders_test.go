package loaders

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/resources"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// wavBytes builds a mono 16-bit PCM file with the given number of samples.
func wavBytes(samples int, rate uint32) []byte {
	const bytesPerFrame = 2
	dataSize := uint32(samples * bytesPerFrame)

	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("RIFF")
	binary.Write(&buf, le, 36+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16))
	binary.Write(&buf, le, uint16(1)) // PCM
	binary.Write(&buf, le, uint16(1)) // mono
	binary.Write(&buf, le, rate)
	binary.Write(&buf, le, rate*bytesPerFrame)
	binary.Write(&buf, le, uint16(bytesPerFrame))
	binary.Write(&buf, le, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, le, dataSize)
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestDefaultsCoverElementTypes(t *testing.T) {
	seen := map[resources.ResourceType]bool{}
	for _, l := range Defaults() {
		assert.False(t, seen[l.Type()], "duplicate loader for %s", l.Type())
		seen[l.Type()] = true
	}
	assert.False(t, seen[resources.ResourceTypeNone])
	for _, rt := range []resources.ResourceType{
		resources.ResourceTypeImage,
		resources.ResourceTypeAudio,
		resources.ResourceTypeVideo,
		resources.ResourceTypeModel,
	} {
		assert.True(t, seen[rt], rt.String())
	}
}

func TestImageLoader(t *testing.T) {
	p, err := (&ImageLoader{}).Load(context.Background(), "hero.png", pngBytes(t, 3, 2))
	require.NoError(t, err)

	img, ok := p.(*resources.Image)
	require.True(t, ok)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())
}

func TestImageLoaderRejectsOtherContent(t *testing.T) {
	_, err := (&ImageLoader{}).Load(context.Background(), "hero.png", wavBytes(10, 8000))
	assert.ErrorIs(t, err, core.ErrUnsupportedType)

	_, err = (&ImageLoader{}).Load(context.Background(), "hero.png", []byte("not an image"))
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestImageLoaderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&ImageLoader{}).Load(ctx, "hero.png", pngBytes(t, 1, 1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAudioLoaderWAV(t *testing.T) {
	p, err := (&AudioLoader{}).Load(context.Background(), "beep.wav", wavBytes(100, 8000))
	require.NoError(t, err)

	a, ok := p.(*resources.Audio)
	require.True(t, ok)
	assert.EqualValues(t, 8000, a.Format.SampleRate)
	assert.Equal(t, 1, a.Format.NumChannels)
	assert.Equal(t, 100, a.Streamer.Len())
	assert.InDelta(t, 100.0/8000.0, a.Duration(), 1e-6)

	require.NoError(t, a.Release())
	assert.Nil(t, a.Streamer)
}

func TestAudioLoaderRejectsImages(t *testing.T) {
	_, err := (&AudioLoader{}).Load(context.Background(), "theme.mp3", pngBytes(t, 1, 1))
	assert.ErrorIs(t, err, core.ErrUnsupportedType)

	_, err = (&AudioLoader{}).Load(context.Background(), "theme.mp3", nil)
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestVideoLoaderRejectsImages(t *testing.T) {
	_, err := (&VideoLoader{}).Load(context.Background(), "intro.mp4", pngBytes(t, 1, 1))
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}

func TestVideoLoaderKeepsContainer(t *testing.T) {
	// Minimal WebM: the EBML magic followed by a "webm" doc type.
	data := []byte{0x1A, 0x45, 0xDF, 0xA3, 0x9F, 0x42, 0x86, 0x81, 0x01, 0x42, 0xF7, 0x81, 0x01,
		0x42, 0xF2, 0x81, 0x04, 0x42, 0xF3, 0x81, 0x08, 0x42, 0x82, 0x84, 'w', 'e', 'b', 'm'}
	data = append(data, make([]byte, 32)...)

	p, err := (&VideoLoader{}).Load(context.Background(), "intro.webm", data)
	require.NoError(t, err)
	v := p.(*resources.Video)
	assert.Equal(t, "video/webm", v.MIME)
	assert.Len(t, v.Data, len(data))
}

const cube = `# cube
o Cube
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
vt 0 0
f 1/1/1 2/1/1 3/1/1
f 1/1/1 3/1/1 4/1/1
`

func TestModelLoader(t *testing.T) {
	p, err := (&ModelLoader{}).Load(context.Background(), "cube.obj", []byte(cube))
	require.NoError(t, err)

	m := p.(*resources.Model)
	assert.Equal(t, 4, m.Vertices)
	assert.Equal(t, 1, m.Normals)
	assert.Equal(t, 1, m.TexCoords)
	assert.Equal(t, 2, m.Faces)
	assert.Equal(t, []string{"Cube"}, m.Objects)
}

func TestModelLoaderErrors(t *testing.T) {
	_, err := (&ModelLoader{}).Load(context.Background(), "empty.obj", []byte("# nothing\n"))
	assert.Error(t, err)

	_, err = (&ModelLoader{}).Load(context.Background(), "bad.obj", []byte("v 0 0 0\nf 1 2\n"))
	assert.ErrorContains(t, err, "line 2")

	_, err = (&ModelLoader{}).Load(context.Background(), "cube.obj", pngBytes(t, 1, 1))
	assert.ErrorIs(t, err, core.ErrUnsupportedType)
}
