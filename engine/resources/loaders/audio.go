package loaders

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"

	"github.com/spaghettifunk/kanvas/engine/resources"
)

// AudioLoader decodes WAV and MP3 into a seekable beep stream. The stream
// reads from the in-memory bytes, so nothing is left open on the source.
type AudioLoader struct{}

func (l *AudioLoader) Type() resources.ResourceType {
	return resources.ResourceTypeAudio
}

func (l *AudioLoader) Load(ctx context.Context, src string, data []byte) (resources.Payload, error) {
	kind, err := sniff(src, data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch kind.Extension {
	case "wav":
		streamer, format, err = wav.Decode(bytes.NewReader(data))
	case "mp3":
		streamer, format, err = mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	default:
		return nil, unsupported(src, resources.ResourceTypeAudio, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s audio %s: %w", kind.Extension, src, err)
	}
	return &resources.Audio{Streamer: streamer, Format: format}, nil
}
