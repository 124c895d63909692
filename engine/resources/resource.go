package resources

import (
	"image"
)

type State uint8

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

/**
 * @brief A named asset tracked by the resource system. The flags move
 * Unloaded -> Loading -> Loaded or Failed and never back.
 */
type Resource struct {
	/** @brief Unique within the resource type. */
	ID   string
	Type ResourceType
	/** @brief Where the content comes from: a path or a URL. */
	Src string
	/** @brief The offscreen element; created with the resource, filled once loaded. None resources have none. */
	Element *Element
	/** @brief Load as soon as the resource is added rather than on first use. */
	Preload bool

	Loading bool
	Loaded  bool
	Failed  bool
	/** @brief Milliseconds on the application clock; -1 until loaded. */
	LoadedAt float64
	/** @brief Why the load failed, if it did. */
	Err error
}

func NewResource(t ResourceType, id, src string, preload bool) *Resource {
	return &Resource{
		ID:       id,
		Type:     t,
		Src:      src,
		Preload:  preload,
		LoadedAt: -1,
	}
}

// Key identifies the resource across type groups.
func (r *Resource) Key() string {
	return r.Type.String() + "/" + r.ID
}

func (r *Resource) State() State {
	switch {
	case r.Loaded:
		return StateLoaded
	case r.Failed:
		return StateFailed
	case r.Loading:
		return StateLoading
	default:
		return StateUnloaded
	}
}

// MarkLoading starts a load. Only an unloaded resource can start one; the
// return value says whether it did.
func (r *Resource) MarkLoading() bool {
	if r.State() != StateUnloaded {
		return false
	}
	r.Loading = true
	return true
}

// MarkLoaded completes a load started with MarkLoading.
func (r *Resource) MarkLoaded(el *Element, at float64) bool {
	if r.State() != StateLoading {
		return false
	}
	r.Loading = false
	r.Loaded = true
	r.Element = el
	r.LoadedAt = at
	return true
}

// MarkFailed ends a load started with MarkLoading. There is no retry.
func (r *Resource) MarkFailed(err error) bool {
	if r.State() != StateLoading {
		return false
	}
	r.Loading = false
	r.Failed = true
	r.Err = err
	return true
}

// Image returns the decoded image of a loaded image resource.
func (r *Resource) Image() (image.Image, bool) {
	if !r.Loaded || r.Element == nil {
		return nil, false
	}
	img, ok := r.Element.Payload.(*Image)
	if !ok || img.Image == nil {
		return nil, false
	}
	return img.Image, true
}
