package systems

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/kanvas/engine/assets"
	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/loop"
	"github.com/spaghettifunk/kanvas/engine/resources"
)

// memOpener serves fixed bytes per locator. A locator listed in gates
// blocks until its channel is closed.
type memOpener struct {
	files map[string][]byte
	gates map[string]chan struct{}
}

func (o *memOpener) Open(ctx context.Context, src string) (io.ReadCloser, error) {
	if gate, ok := o.gates[src]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	data, ok := o.files[src]
	if !ok {
		return nil, os.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func heroPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 4))))
	return buf.Bytes()
}

type fixture struct {
	loop   *loop.Loop
	rs     *ResourceSystem
	events *core.EventBus
	now    float64
	opener *memOpener
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		loop:   loop.New(),
		events: core.NewEventBus(),
		now:    1000,
		opener: &memOpener{
			files: map[string][]byte{"assets/hero.png": heroPNG(t)},
			gates: map[string]chan struct{}{},
		},
	}
	f.rs = NewResourceSystem(ResourceSystemConfig{Debug: true, MaxConcurrentLoads: 2}, f.loop, f.opener, func() float64 { return f.now }, f.events)
	t.Cleanup(f.rs.Shutdown)
	return f
}

// settle drains the loop until r leaves the loading state.
func (f *fixture) settle(t *testing.T, r *resources.Resource) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.loop.Drain()
		return !r.Loading
	}, 5*time.Second, time.Millisecond)
}

func TestAddResourceDuplicateIsNoop(t *testing.T) {
	f := newFixture(t)

	first := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", false)
	require.NotNil(t, first)
	assert.Nil(t, f.rs.AddResource(resources.ResourceTypeImage, "hero", "other.png", false))
	assert.Equal(t, 1, f.rs.Len())
	assert.Equal(t, "assets/hero.png", f.rs.GetResource(resources.ResourceTypeImage, "hero").Src)

	// Ids are unique per type only.
	assert.NotNil(t, f.rs.AddResource(resources.ResourceTypeAudio, "hero", "hero.wav", false))
	assert.Equal(t, 2, f.rs.Len())
}

func TestHeroLoadSuccess(t *testing.T) {
	f := newFixture(t)
	var loadedEvents []*resources.Resource
	f.events.Register(core.EVENT_CODE_RESOURCE_LOADED, func(ctx core.EventContext) bool {
		loadedEvents = append(loadedEvents, ctx.Data.(*resources.Resource))
		return false
	})

	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", true)
	require.NotNil(t, r)
	assert.True(t, r.Loading)
	assert.False(t, r.Loaded)

	f.now = 1250
	f.settle(t, r)

	assert.True(t, r.Loaded)
	assert.False(t, r.Failed)
	assert.Equal(t, 1250.0, r.LoadedAt)
	img, ok := r.Image()
	require.True(t, ok)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Same(t, r.Element, f.rs.Container().Get("IMAGE/hero"))
	assert.Equal(t, []*resources.Resource{r}, loadedEvents)
}

func TestHeroLoadFailure(t *testing.T) {
	f := newFixture(t)
	failures := 0
	f.events.Register(core.EVENT_CODE_RESOURCE_FAILED, func(core.EventContext) bool {
		failures++
		return false
	})

	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/missing.png", true)
	f.settle(t, r)

	assert.True(t, r.Failed)
	assert.False(t, r.Loaded)
	assert.Equal(t, -1.0, r.LoadedAt)
	assert.ErrorIs(t, r.Err, core.ErrResourceLoad)
	assert.ErrorIs(t, r.Err, os.ErrNotExist)
	assert.Equal(t, 1, failures)

	// Terminal: getting it again does not retry.
	f.opener.files["assets/missing.png"] = heroPNG(t)
	assert.Same(t, r, f.rs.GetResource(resources.ResourceTypeImage, "hero"))
	f.loop.Drain()
	assert.True(t, r.Failed)
	assert.Equal(t, 1, failures)
}

func TestContentMismatchFails(t *testing.T) {
	f := newFixture(t)
	f.opener.files["theme.mp3"] = heroPNG(t)

	r := f.rs.AddResource(resources.ResourceTypeAudio, "theme", "theme.mp3", true)
	f.settle(t, r)
	assert.True(t, r.Failed)
	assert.ErrorIs(t, r.Err, core.ErrUnsupportedType)
}

func TestElementFollowsTheLoad(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.opener.gates["assets/hero.png"] = gate

	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", false)
	require.NotNil(t, r.Element)
	assert.Equal(t, "IMAGE/hero", r.Element.ID)
	assert.Nil(t, r.Element.Payload)
	assert.Zero(t, f.rs.Container().Len(), "not attached before loading")

	f.rs.GetResource(resources.ResourceTypeImage, "hero")
	assert.Same(t, r.Element, f.rs.Container().Get("IMAGE/hero"), "attached while loading")

	el := r.Element
	close(gate)
	f.settle(t, r)
	assert.Same(t, el, r.Element)
	assert.NotNil(t, el.Payload)
	assert.Same(t, el, f.rs.Container().Get("IMAGE/hero"))
}

func TestFailedLoadDetachesElement(t *testing.T) {
	f := newFixture(t)
	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/missing.png", true)
	assert.Equal(t, 1, f.rs.Container().Len())

	f.settle(t, r)
	require.True(t, r.Failed)
	assert.Zero(t, f.rs.Container().Len())
}

func TestRemoveFiresEventBeforeRelease(t *testing.T) {
	f := newFixture(t)
	var seen []image.Image
	f.events.Register(core.EVENT_CODE_RESOURCE_REMOVED, func(ctx core.EventContext) bool {
		if img, ok := ctx.Data.(*resources.Resource).Image(); ok {
			seen = append(seen, img)
		}
		return false
	})

	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", true)
	f.settle(t, r)
	img, ok := r.Image()
	require.True(t, ok)

	f.rs.RemoveResource(resources.ResourceTypeImage, "hero")
	assert.Equal(t, []image.Image{img}, seen)
	_, ok = r.Image()
	assert.False(t, ok, "released after the event")
}

func TestGetResourceLoadsLazily(t *testing.T) {
	f := newFixture(t)
	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", false)
	assert.Equal(t, resources.StateUnloaded, r.State())
	assert.True(t, f.rs.Has(resources.ResourceTypeImage, "hero"))
	assert.Equal(t, resources.StateUnloaded, r.State(), "Has does not load")

	got := f.rs.GetResource(resources.ResourceTypeImage, "hero")
	assert.Same(t, r, got)
	assert.Equal(t, resources.StateLoading, r.State())

	f.settle(t, r)
	assert.Equal(t, resources.StateLoaded, r.State())
	loadedAt := r.LoadedAt

	f.now = 5000
	f.rs.GetResource(resources.ResourceTypeImage, "hero")
	f.loop.Drain()
	assert.Equal(t, loadedAt, r.LoadedAt, "loaded resources are not reloaded")
}

func TestNoneTypeLoadsImmediately(t *testing.T) {
	f := newFixture(t)
	r := f.rs.AddResource(resources.ResourceTypeNone, "marker", "", true)
	assert.True(t, r.Loaded)
	assert.Equal(t, 1000.0, r.LoadedAt)
	assert.Nil(t, r.Element)
}

func TestGetMissingResource(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.rs.GetResource(resources.ResourceTypeImage, "nope"))
	assert.False(t, f.rs.Has(resources.ResourceTypeImage, "nope"))
	f.rs.RemoveResource(resources.ResourceTypeImage, "nope")
}

func TestRemoveThenGet(t *testing.T) {
	f := newFixture(t)
	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", true)
	f.settle(t, r)
	require.Equal(t, 1, f.rs.Container().Len())

	f.rs.RemoveResource(resources.ResourceTypeImage, "hero")
	assert.Nil(t, f.rs.GetResource(resources.ResourceTypeImage, "hero"))
	assert.Zero(t, f.rs.Container().Len())
	assert.Zero(t, f.rs.Len())
}

func TestLateCompletionIsDiscarded(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.opener.gates["assets/hero.png"] = gate

	old := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", true)
	f.rs.RemoveResource(resources.ResourceTypeImage, "hero")
	fresh := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", false)

	close(gate)
	ran := 0
	require.Eventually(t, func() bool {
		ran += f.loop.Drain()
		return ran > 0
	}, 5*time.Second, time.Millisecond)

	// The old load's completion was dropped: nothing changed state.
	assert.True(t, old.Loading)
	assert.Zero(t, f.rs.Container().Len())
	assert.Equal(t, resources.StateUnloaded, fresh.State())
	assert.Same(t, fresh, f.rs.Resources(resources.ResourceTypeImage)[0])
}

func TestClearResources(t *testing.T) {
	f := newFixture(t)
	hero := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", true)
	f.rs.AddResource(resources.ResourceTypeNone, "marker", "", false)
	f.settle(t, hero)

	f.rs.ClearResources()
	assert.Zero(t, f.rs.Len())
	assert.Zero(t, f.rs.Container().Len())
	assert.Empty(t, f.rs.Resources(resources.ResourceTypeImage))
}

func TestRegisterLoaderRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.rs.RegisterLoader(stubLoader{}))

	f.rs.ReplaceLoader(stubLoader{err: errors.New("stub")})
	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", true)
	f.settle(t, r)
	assert.ErrorContains(t, r.Err, "stub")
}

func TestConcurrentLoadsAreBounded(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	ids := []string{"a", "b", "c"}
	for _, id := range ids {
		f.opener.files[id+".png"] = heroPNG(t)
		f.opener.gates[id+".png"] = gate
	}
	for _, id := range ids {
		f.rs.AddResource(resources.ResourceTypeImage, id, id+".png", true)
	}

	// Two loads hold the semaphore; the third waits for one to finish.
	require.Eventually(t, func() bool {
		if f.rs.sem.TryAcquire(1) {
			f.rs.sem.Release(1)
			return false
		}
		return true
	}, time.Second, time.Millisecond)

	close(gate)
	for _, r := range f.rs.Resources(resources.ResourceTypeImage) {
		f.settle(t, r)
		assert.True(t, r.Loaded, r.ID)
	}
}

func TestShutdownAbandonsQueuedLoads(t *testing.T) {
	f := newFixture(t)
	gate := make(chan struct{})
	f.opener.gates["assets/hero.png"] = gate
	r := f.rs.AddResource(resources.ResourceTypeImage, "hero", "assets/hero.png", true)

	f.rs.Shutdown()
	assert.Zero(t, f.rs.Len())
	time.Sleep(10 * time.Millisecond)
	f.loop.Drain()
	assert.True(t, r.Loading, "completion of a cleared resource is dropped")
}

func TestSourceChangesAreReported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.png")
	require.NoError(t, os.WriteFile(path, heroPNG(t), 0o644))

	l := loop.New()
	events := core.NewEventBus()
	var changed []string
	events.Register(core.EVENT_CODE_RESOURCE_SOURCE_CHANGED, func(ctx core.EventContext) bool {
		changed = append(changed, ctx.Data.(string))
		return false
	})
	rs := NewResourceSystem(ResourceSystemConfig{MaxConcurrentLoads: 1, WatchSources: true}, l, assets.NewResolver(dir), func() float64 { return 0 }, events)
	defer rs.Shutdown()

	r := rs.AddResource(resources.ResourceTypeImage, "hero", "hero.png", true)
	require.Eventually(t, func() bool {
		l.Drain()
		return r.Loaded
	}, 5*time.Second, time.Millisecond)

	require.NoError(t, os.WriteFile(path, heroPNG(t), 0o644))
	require.Eventually(t, func() bool {
		l.Drain()
		return len(changed) > 0
	}, 5*time.Second, 10*time.Millisecond)
	abs, _ := filepath.Abs(path)
	assert.Equal(t, abs, changed[0])
}

type stubLoader struct {
	err error
}

func (s stubLoader) Type() resources.ResourceType {
	return resources.ResourceTypeImage
}

func (s stubLoader) Load(context.Context, string, []byte) (resources.Payload, error) {
	return nil, s.err
}
