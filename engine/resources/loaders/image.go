package loaders

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/kanvas/engine/resources"
)

type ImageLoader struct{}

func (l *ImageLoader) Type() resources.ResourceType {
	return resources.ResourceTypeImage
}

func (l *ImageLoader) Load(ctx context.Context, src string, data []byte) (resources.Payload, error) {
	if !filetype.IsImage(data) {
		kind, _ := filetype.Match(data)
		return nil, unsupported(src, resources.ResourceTypeImage, kind)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image %s: %w", src, err)
	}
	return &resources.Image{Image: img, Format: format}, nil
}
