// Package loaders turns raw resource bytes into element payloads. Loaders
// sniff the content and refuse bytes that do not match their type.
package loaders

import (
	"context"
	"fmt"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"

	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/resources"
)

// Loader decodes the content of one resource type. Load runs off the
// execution context and must not touch shared state.
type Loader interface {
	Type() resources.ResourceType
	Load(ctx context.Context, src string, data []byte) (resources.Payload, error)
}

// Defaults returns one loader for every type that carries an element.
func Defaults() []Loader {
	return []Loader{
		&ImageLoader{},
		&AudioLoader{},
		&VideoLoader{},
		&ModelLoader{},
	}
}

func sniff(src string, data []byte) (types.Type, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return filetype.Unknown, fmt.Errorf("%w: %s: %s", core.ErrUnsupportedType, src, err)
	}
	return kind, nil
}

func unsupported(src string, want resources.ResourceType, kind types.Type) error {
	if kind == filetype.Unknown {
		return fmt.Errorf("%w: %s is not a recognised %s", core.ErrUnsupportedType, src, want)
	}
	return fmt.Errorf("%w: %s is %s, not %s", core.ErrUnsupportedType, src, kind.MIME.Value, want)
}
