package resources

import (
	"image"

	"github.com/faiface/beep"
)

// Payload is the decoded content of an element.
type Payload interface {
	// Release frees whatever the payload holds open.
	Release() error
}

// Element is the offscreen holder of a resource's content. It is owned by
// its resource and released with it.
type Element struct {
	ID      string
	Payload Payload
}

func (e *Element) Release() error {
	if e == nil || e.Payload == nil {
		return nil
	}
	err := e.Payload.Release()
	e.Payload = nil
	return err
}

type Image struct {
	image.Image
	Format string
}

func (i *Image) Release() error {
	i.Image = nil
	return nil
}

type Audio struct {
	Streamer beep.StreamSeekCloser
	Format   beep.Format
}

func (a *Audio) Release() error {
	if a.Streamer == nil {
		return nil
	}
	err := a.Streamer.Close()
	a.Streamer = nil
	return err
}

// Duration is the length of the stream at its own sample rate.
func (a *Audio) Duration() float64 {
	if a.Streamer == nil || a.Format.SampleRate == 0 {
		return 0
	}
	return a.Format.SampleRate.D(a.Streamer.Len()).Seconds()
}

// Video keeps the container as-is; nothing decodes frames.
type Video struct {
	MIME string
	Data []byte
}

func (v *Video) Release() error {
	v.Data = nil
	return nil
}

// Model summarises a Wavefront OBJ mesh.
type Model struct {
	Vertices  int
	Normals   int
	TexCoords int
	Faces     int
	Objects   []string
}

func (m *Model) Release() error {
	return nil
}
