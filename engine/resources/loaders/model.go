package loaders

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/h2non/filetype"

	"github.com/spaghettifunk/kanvas/engine/resources"
)

// ModelLoader reads Wavefront OBJ text and counts what it declares. Face
// indices are not resolved.
type ModelLoader struct{}

func (l *ModelLoader) Type() resources.ResourceType {
	return resources.ResourceTypeModel
}

func (l *ModelLoader) Load(ctx context.Context, src string, data []byte) (resources.Payload, error) {
	// OBJ is plain text; anything with a known binary signature is not one.
	if kind, _ := filetype.Match(data); kind != filetype.Unknown {
		return nil, unsupported(src, resources.ResourceTypeModel, kind)
	}

	m := &resources.Model{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			m.Vertices++
		case "vn":
			m.Normals++
		case "vt":
			m.TexCoords++
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("model %s line %d: face needs at least 3 vertices", src, line)
			}
			m.Faces++
		case "o", "g":
			if len(fields) > 1 {
				m.Objects = append(m.Objects, fields[1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading model %s: %w", src, err)
	}
	if m.Vertices == 0 {
		return nil, fmt.Errorf("model %s has no vertices", src)
	}
	return m, nil
}
