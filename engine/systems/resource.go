package systems

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/semaphore"

	"github.com/spaghettifunk/kanvas/engine/assets"
	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/loop"
	"github.com/spaghettifunk/kanvas/engine/resources"
	"github.com/spaghettifunk/kanvas/engine/resources/loaders"
)

/** @brief The configuration for the resource system */
type ResourceSystemConfig struct {
	/** @brief Log every load and failure. */
	Debug bool
	/** @brief The maximum number of loads reading or decoding at once. */
	MaxConcurrentLoads int64
	/** @brief Report changes to the files behind loaded resources. */
	WatchSources bool
}

// ResourceSystem tracks resources by type and id and loads them off the
// execution context. Every method must be called on the execution context;
// load results are posted back to it.
type ResourceSystem struct {
	config     ResourceSystemConfig
	dispatcher loop.Dispatcher
	opener     assets.Opener
	now        func() float64
	events     *core.EventBus
	logger     *log.Logger

	loaders   map[resources.ResourceType]loaders.Loader
	groups    map[resources.ResourceType]map[string]*resources.Resource
	container *assets.Container
	watcher   *assets.Watcher

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
}

// NewResourceSystem creates an empty registry with the default loaders
// registered. now is the clock LoadedAt is stamped from and events, when
// set, receives load and failure notifications.
func NewResourceSystem(config ResourceSystemConfig, dispatcher loop.Dispatcher, opener assets.Opener, now func() float64, events *core.EventBus) *ResourceSystem {
	if config.MaxConcurrentLoads <= 0 {
		config.MaxConcurrentLoads = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	rs := &ResourceSystem{
		config:     config,
		dispatcher: dispatcher,
		opener:     opener,
		now:        now,
		events:     events,
		logger:     core.Logger("system", "resources"),
		loaders:    make(map[resources.ResourceType]loaders.Loader),
		groups:     make(map[resources.ResourceType]map[string]*resources.Resource),
		container:  assets.NewContainer(),
		sem:        semaphore.NewWeighted(config.MaxConcurrentLoads),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, rt := range resources.ResourceTypes() {
		rs.groups[rt] = make(map[string]*resources.Resource)
	}
	for _, l := range loaders.Defaults() {
		rs.RegisterLoader(l)
	}

	if config.WatchSources {
		w, err := assets.NewWatcher(dispatcher, rs.onSourceChanged)
		if err != nil {
			core.LogWarn("resource source watching disabled: %s", err)
		} else {
			rs.watcher = w
		}
	}
	return rs
}

// RegisterLoader installs l for its type. Only one loader per type may be
// registered.
func (rs *ResourceSystem) RegisterLoader(l loaders.Loader) bool {
	if _, ok := rs.loaders[l.Type()]; ok {
		core.LogError("loader of type %s already exists and will not be registered", l.Type())
		return false
	}
	rs.loaders[l.Type()] = l
	return true
}

// ReplaceLoader installs l for its type, replacing any registered loader.
func (rs *ResourceSystem) ReplaceLoader(l loaders.Loader) {
	rs.loaders[l.Type()] = l
}

// AddResource registers a new unloaded resource and starts loading it when
// preload is set. Adding an id that already exists within the type does
// nothing and returns nil.
func (rs *ResourceSystem) AddResource(t resources.ResourceType, id, src string, preload bool) *resources.Resource {
	group, ok := rs.groups[t]
	if !ok {
		core.LogError("cannot add resource %q: invalid type %s", id, t)
		return nil
	}
	if _, exists := group[id]; exists {
		core.LogWarn("%s", fmt.Errorf("%w: %s %q", core.ErrDuplicateResource, t, id))
		return nil
	}

	r := resources.NewResource(t, id, src, preload)
	if t != resources.ResourceTypeNone {
		r.Element = &resources.Element{ID: r.Key()}
	}
	group[id] = r
	if preload {
		rs.load(r)
	}
	return r
}

// GetResource returns the resource, starting its load if it has never been
// loaded. A missing resource is logged and returns nil.
func (rs *ResourceSystem) GetResource(t resources.ResourceType, id string) *resources.Resource {
	r := rs.lookup(t, id)
	if r == nil {
		rs.logger.Debug("lookup failed", "err", fmt.Errorf("%w: %s %q", core.ErrResourceNotFound, t, id))
		return nil
	}
	if r.State() == resources.StateUnloaded {
		rs.load(r)
	}
	return r
}

// Has reports whether a resource is registered, without loading it.
func (rs *ResourceSystem) Has(t resources.ResourceType, id string) bool {
	return rs.lookup(t, id) != nil
}

// RemoveResource drops the resource and releases its element. A load still
// in flight is discarded when it completes.
func (rs *ResourceSystem) RemoveResource(t resources.ResourceType, id string) {
	r := rs.lookup(t, id)
	if r == nil {
		core.LogWarn("%s", fmt.Errorf("cannot remove: %w: %s %q", core.ErrResourceNotFound, t, id))
		return
	}
	rs.drop(r)
}

// ClearResources removes every resource of every type.
func (rs *ResourceSystem) ClearResources() {
	for _, group := range rs.groups {
		for _, r := range group {
			rs.drop(r)
		}
	}
	rs.container.Clear()
}

func (rs *ResourceSystem) Len() int {
	n := 0
	for _, group := range rs.groups {
		n += len(group)
	}
	return n
}

// Resources lists the resources of a type ordered by id.
func (rs *ResourceSystem) Resources(t resources.ResourceType) []*resources.Resource {
	group := rs.groups[t]
	out := make([]*resources.Resource, 0, len(group))
	for _, r := range group {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Container holds the elements of loaded resources.
func (rs *ResourceSystem) Container() *assets.Container {
	return rs.container
}

// Shutdown clears every resource, abandons queued loads and stops watching
// sources. The system is not usable afterwards.
func (rs *ResourceSystem) Shutdown() {
	rs.ClearResources()
	rs.cancel()
	if rs.watcher != nil {
		if err := rs.watcher.Close(); err != nil {
			core.LogWarn("closing asset watcher: %s", err)
		}
		rs.watcher = nil
	}
}

func (rs *ResourceSystem) lookup(t resources.ResourceType, id string) *resources.Resource {
	group, ok := rs.groups[t]
	if !ok {
		return nil
	}
	return group[id]
}

func (rs *ResourceSystem) drop(r *resources.Resource) {
	delete(rs.groups[r.Type], r.ID)
	if rs.events != nil {
		rs.events.Fire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_REMOVED, Data: r})
	}
	if r.Element != nil {
		rs.container.Remove(r.Element.ID)
	}
	if rs.watcher != nil && r.Loaded {
		if path, ok := rs.localPath(r.Src); ok {
			rs.watcher.Unwatch(path)
		}
	}
}

// load moves r from Unloaded to Loading and hands the work to a goroutine.
// Any other state is left alone.
func (rs *ResourceSystem) load(r *resources.Resource) {
	if !r.MarkLoading() {
		return
	}
	if rs.config.Debug {
		rs.logger.Debug("loading", "type", r.Type, "id", r.ID, "src", r.Src)
	}

	// Nothing to fetch for a resource without an element.
	if r.Type == resources.ResourceTypeNone {
		r.MarkLoaded(nil, rs.now())
		rs.loaded(r)
		return
	}

	l, ok := rs.loaders[r.Type]
	if !ok {
		r.MarkFailed(fmt.Errorf("%w: %w: no loader for %s", core.ErrResourceLoad, core.ErrUnsupportedType, r.Type))
		rs.failed(r)
		return
	}

	// The element sits in the container while its content loads.
	rs.container.Add(r.Element)

	ctx, src := rs.ctx, r.Src
	go func() {
		payload, err := rs.fetch(ctx, l, src)
		rs.dispatcher.Post(func() {
			rs.complete(r, payload, err)
		})
	}()
}

func (rs *ResourceSystem) fetch(ctx context.Context, l loaders.Loader, src string) (resources.Payload, error) {
	if err := rs.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer rs.sem.Release(1)

	rc, err := rs.opener.Open(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	return l.Load(ctx, src, data)
}

// complete runs on the execution context once a load finished.
func (rs *ResourceSystem) complete(r *resources.Resource, payload resources.Payload, err error) {
	if rs.lookup(r.Type, r.ID) != r {
		// Removed, or replaced by a new resource with the same id.
		if payload != nil {
			if rerr := payload.Release(); rerr != nil {
				core.LogWarn("releasing discarded %s: %s", r.Key(), rerr)
			}
		}
		if rs.config.Debug {
			rs.logger.Debug("discarding load of removed resource", "type", r.Type, "id", r.ID)
		}
		return
	}

	if err != nil {
		rs.container.Remove(r.Element.ID)
		r.MarkFailed(fmt.Errorf("%w: %s %q from %s: %w", core.ErrResourceLoad, r.Type, r.ID, r.Src, err))
		rs.failed(r)
		return
	}

	r.Element.Payload = payload
	r.MarkLoaded(r.Element, rs.now())
	rs.loaded(r)

	if rs.watcher != nil {
		if path, ok := rs.localPath(r.Src); ok {
			if werr := rs.watcher.Watch(path); werr != nil {
				core.LogWarn("cannot watch %s: %s", path, werr)
			}
		}
	}
}

func (rs *ResourceSystem) loaded(r *resources.Resource) {
	if rs.config.Debug {
		rs.logger.Debug("loaded", "type", r.Type, "id", r.ID, "at", r.LoadedAt)
	}
	if rs.events != nil {
		rs.events.Fire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_LOADED, Data: r})
	}
}

func (rs *ResourceSystem) failed(r *resources.Resource) {
	if rs.config.Debug {
		rs.logger.Warn("failed", "type", r.Type, "id", r.ID, "err", r.Err)
	}
	if rs.events != nil {
		rs.events.Fire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_FAILED, Data: r})
	}
}

func (rs *ResourceSystem) localPath(src string) (string, bool) {
	if p, ok := rs.opener.(interface{ Path(string) (string, bool) }); ok {
		return p.Path(src)
	}
	return "", false
}

func (rs *ResourceSystem) onSourceChanged(path string) {
	core.LogInfo("resource source changed: %s", path)
	if rs.events != nil {
		rs.events.Fire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_SOURCE_CHANGED, Data: path})
	}
}
