package resources

import (
	"fmt"
	"strings"
)

type ResourceType uint8

/** @brief Pre-defined resource types. The set is closed. */
const (
	/** @brief A resource with no element. Loads immediately. */
	ResourceTypeNone ResourceType = iota
	/** @brief Decoded image, drawable with DrawImage. */
	ResourceTypeImage
	/** @brief Decoded audio stream. */
	ResourceTypeAudio
	/** @brief Validated video container. */
	ResourceTypeVideo
	/** @brief Wavefront OBJ geometry summary. */
	ResourceTypeModel
)

var resourceTypeNames = [...]string{
	ResourceTypeNone:  "NONE",
	ResourceTypeImage: "IMAGE",
	ResourceTypeAudio: "AUDIO",
	ResourceTypeVideo: "VIDEO",
	ResourceTypeModel: "MODEL",
}

// Built once from resourceTypeNames and never written to again.
var resourceTypesByName = func() map[string]ResourceType {
	m := make(map[string]ResourceType, len(resourceTypeNames))
	for t, name := range resourceTypeNames {
		m[name] = ResourceType(t)
	}
	return m
}()

func (t ResourceType) String() string {
	if int(t) < len(resourceTypeNames) {
		return resourceTypeNames[t]
	}
	return fmt.Sprintf("ResourceType(%d)", uint8(t))
}

func (t ResourceType) Valid() bool {
	return int(t) < len(resourceTypeNames)
}

// ParseResourceType maps a type name, in any case, back to its type.
func ParseResourceType(name string) (ResourceType, error) {
	t, ok := resourceTypesByName[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return ResourceTypeNone, fmt.Errorf("unknown resource type %q", name)
	}
	return t, nil
}

// ResourceTypes lists every type in declaration order.
func ResourceTypes() []ResourceType {
	types := make([]ResourceType, len(resourceTypeNames))
	for i := range types {
		types[i] = ResourceType(i)
	}
	return types
}

func (t ResourceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid resource type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

func (t *ResourceType) UnmarshalText(text []byte) error {
	parsed, err := ParseResourceType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
