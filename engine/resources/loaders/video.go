package loaders

import (
	"context"

	"github.com/h2non/filetype"

	"github.com/spaghettifunk/kanvas/engine/resources"
)

type VideoLoader struct{}

func (l *VideoLoader) Type() resources.ResourceType {
	return resources.ResourceTypeVideo
}

func (l *VideoLoader) Load(ctx context.Context, src string, data []byte) (resources.Payload, error) {
	kind, err := sniff(src, data)
	if err != nil {
		return nil, err
	}
	if !filetype.IsVideo(data) {
		return nil, unsupported(src, resources.ResourceTypeVideo, kind)
	}
	return &resources.Video{MIME: kind.MIME.Value, Data: data}, nil
}
