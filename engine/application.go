package engine

import (
	"fmt"
	"image/color"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/spaghettifunk/kanvas/engine/assets"
	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/platform"
	"github.com/spaghettifunk/kanvas/engine/renderer"
	"github.com/spaghettifunk/kanvas/engine/resources"
	"github.com/spaghettifunk/kanvas/engine/systems"
)

type Stage uint8

const (
	// Application is in an uninitialized state, either new or destroyed
	StageUninitialized Stage = iota
	// Surface and resources exist but no frames are scheduled
	StageInitialized
	// Frames are being scheduled
	StageRunning
	// Stopped after running; Start resumes
	StageStopped
)

func (s Stage) String() string {
	switch s {
	case StageInitialized:
		return "initialized"
	case StageRunning:
		return "running"
	case StageStopped:
		return "stopped"
	default:
		return "uninitialized"
	}
}

// Application owns the frame loop, the drawing surface and the resources
// for one display target. Every method must be called on the host's
// execution context.
type Application struct {
	ID     string
	Name   string
	Config Config

	// Called at the end of Init. An error aborts the initialization.
	OnInit func() error
	// Called every tick with the milliseconds since the previous tick.
	// Errors are logged and the loop goes on.
	OnUpdate func(dt float64) error
	// Called by Destroy once the surface and resources are gone.
	OnDestroy func() error

	host   platform.Host
	clock  *platform.Clock
	events *core.EventBus
	input  *core.InputState
	logger *log.Logger

	initialized bool
	started     bool
	updating    bool
	stopped     bool

	scheduler *frameScheduler
	surface   *Surface
	resources *systems.ResourceSystem

	clearColor color.Color
	face       font.Face
	colors     map[string]color.Color

	cancelResize    func()
	resizeListener  core.ListenerID
	removedListener core.ListenerID
}

// Distinct color strings parsed by draw calls are cached up to this many;
// a full cache starts over.
const colorCacheSize = 64

// New creates an application on host. Nothing is created on the host
// until Init.
func New(name string, host platform.Host, cfg Config) *Application {
	if name == "" {
		name = "New Project"
	}
	events := core.NewEventBus()
	a := &Application{
		ID:     uuid.NewString(),
		Name:   name,
		Config: cfg,
		host:   host,
		clock:  platform.NewClock(host),
		events: events,
		input:  core.NewInputState(events),
		colors: make(map[string]color.Color),
	}
	a.logger = core.Logger("app", name)
	a.scheduler = newFrameScheduler(a.clock, a.tick)
	a.surface = newSurface(a)
	return a
}

// Init creates the surface and the resource system and calls OnInit. It
// does nothing on an initialized application. It fails when the host
// cannot provide the drawing context.
func (a *Application) Init() error {
	if a.initialized {
		return nil
	}
	if a.Config.LogLevel != "" {
		core.SetLogLevel(a.Config.LogLevel)
	}
	a.initialized = true

	a.clearColor = a.parseColor(a.Config.ClearColor)
	a.face = a.loadFace()

	if err := a.surface.init(); err != nil {
		a.initialized = false
		a.logger.Error("cannot create surface", "err", err)
		return err
	}

	a.resources = systems.NewResourceSystem(systems.ResourceSystemConfig{
		Debug:              a.Config.Debug,
		MaxConcurrentLoads: int64(a.Config.MaxConcurrentLoads),
		WatchSources:       a.Config.WatchAssets,
	}, a.host.Dispatcher(), assets.NewResolver(a.Config.AssetRoot), a.clock.Now, a.events)

	a.resizeListener = a.events.Register(core.EVENT_CODE_RESIZED, a.onResized)
	a.removedListener = a.events.Register(core.EVENT_CODE_RESOURCE_REMOVED, a.onResourceRemoved)
	a.cancelResize = a.host.OnResize(func() {
		w, h := a.host.Viewport()
		a.events.Fire(core.EventContext{
			Type: core.EVENT_CODE_RESIZED,
			Data: &core.ResizeEvent{Width: w, Height: h, DevicePixelRatio: a.host.DevicePixelRatio()},
		})
	})

	if a.OnInit != nil {
		if err := a.OnInit(); err != nil {
			a.Stop()
			a.teardown()
			a.initialized = false
			a.stopped = false
			return fmt.Errorf("init hook: %w", err)
		}
	}
	a.logger.Info("initialized", "id", a.ID)
	return nil
}

// Start schedules frames. It does nothing while frames are already
// scheduled, and in manual update mode only marks the application started.
func (a *Application) Start() {
	if !a.started {
		a.scheduler.begin()
	}
	a.started = true
	a.stopped = false
	if a.Config.ManualUpdate || a.scheduler.pending() {
		return
	}
	a.scheduler.rearm(0)
}

// Stop cancels the next frame. No tick runs after Stop returns. Calling it
// again has no effect.
func (a *Application) Stop() {
	if a.started {
		a.stopped = true
	}
	a.started = false
	a.updating = false
	a.scheduler.cancel()
}

// Destroy stops the application, tears down the surface, drops every
// resource and calls OnDestroy. Init may be called again afterwards.
func (a *Application) Destroy() error {
	a.Stop()
	a.teardown()

	var err error
	if a.OnDestroy != nil {
		if herr := a.OnDestroy(); herr != nil {
			err = fmt.Errorf("destroy hook: %w", herr)
		}
	}
	a.initialized = false
	a.stopped = false
	a.scheduler.reset()
	return err
}

func (a *Application) teardown() {
	if a.cancelResize != nil {
		a.cancelResize()
		a.cancelResize = nil
	}
	a.events.Unregister(core.EVENT_CODE_RESIZED, a.resizeListener)
	a.events.Unregister(core.EVENT_CODE_RESOURCE_REMOVED, a.removedListener)

	a.surface.destroy()
	clear(a.colors)
	if a.resources != nil {
		a.resources.Shutdown()
		a.resources = nil
	}
}

// Step runs one tick at timestamp t. It is how hosts drive the application
// in manual update mode.
func (a *Application) Step(t float64) error {
	if !a.initialized {
		return core.ErrNotInitialized
	}
	a.tick(t)
	return nil
}

// Quit asks whoever listens for EVENT_CODE_APPLICATION_QUIT to shut down.
func (a *Application) Quit() {
	a.events.Fire(core.EventContext{Type: core.EVENT_CODE_APPLICATION_QUIT})
}

func (a *Application) tick(t float64) {
	a.updating = true
	s := a.scheduler
	gen := s.generation

	s.advance(t)

	if a.Config.ClearDisplayBuffer {
		a.surface.Clear()
	}

	if a.OnUpdate != nil {
		if err := a.OnUpdate(s.dt); err != nil {
			a.logger.Error("update failed", "err", err)
		}
	}

	if a.Config.ShowFPS {
		a.drawFPS()
	}
	a.input.Update()

	// Stop or Destroy may have been called from the hook.
	if a.started && !a.Config.ManualUpdate && gen == s.generation {
		s.rearm(a.Config.FPS)
	}
}

func (a *Application) onResized(ctx core.EventContext) bool {
	if re, ok := ctx.Data.(*core.ResizeEvent); ok {
		a.logger.Debug("host resized", "width", re.Width, "height", re.Height, "dpr", re.DevicePixelRatio)
	}
	if t := a.surface.Target(); t != nil {
		a.surface.Resize(t.Width, t.Height)
	}
	return false
}

// onResourceRemoved lets the context drop whatever it keeps for an image
// that is about to be released.
func (a *Application) onResourceRemoved(ctx core.EventContext) bool {
	r, ok := ctx.Data.(*resources.Resource)
	if !ok {
		return false
	}
	img, ok := r.Image()
	if !ok {
		return false
	}
	if dc := a.surface.Context(); dc != nil {
		dc.Forget(img)
	}
	return false
}

func (a *Application) loadFace() font.Face {
	if a.Config.FontPath == "" {
		return basicfont.Face7x13
	}
	face, err := renderer.LoadBitmapFace(a.Config.FontPath)
	if err != nil {
		a.logger.Warn("using built-in font", "err", err)
		return basicfont.Face7x13
	}
	return face
}

// parseColor caches parsed colors. Invalid colors are logged when parsed
// and treated as no color.
func (a *Application) parseColor(s string) color.Color {
	if c, ok := a.colors[s]; ok {
		return c
	}
	c, err := renderer.ParseColor(s)
	if err != nil {
		a.logger.Warn("ignoring color", "err", err)
	}
	if len(a.colors) >= colorCacheSize {
		clear(a.colors)
	}
	a.colors[s] = c
	return c
}

func (a *Application) Stage() Stage {
	switch {
	case !a.initialized:
		return StageUninitialized
	case a.started:
		return StageRunning
	case a.stopped:
		return StageStopped
	default:
		return StageInitialized
	}
}

func (a *Application) Initialized() bool { return a.initialized }
func (a *Application) Started() bool { return a.started }

// Updating reports whether a tick has run since the last Start.
func (a *Application) Updating() bool { return a.updating }

// DeltaTime is the milliseconds between the last two ticks.
func (a *Application) DeltaTime() float64 { return a.scheduler.dt }

// Time is the milliseconds since the first tick after Start.
func (a *Application) Time() float64 { return a.scheduler.time }

// FPS is the number of ticks in the last complete one-second window.
func (a *Application) FPS() int { return int(a.scheduler.metrics.FramesPerSecond()) }

// FrameTime is the average tick spacing over the last 30 ticks.
func (a *Application) FrameTime() float64 { return a.scheduler.metrics.FrameTime() }

func (a *Application) Surface() *Surface { return a.surface }
func (a *Application) Events() *core.EventBus { return a.events }
func (a *Application) Input() *core.InputState { return a.input }
func (a *Application) Clock() *platform.Clock { return a.clock }
func (a *Application) Host() platform.Host { return a.host }

// Resources is the resource system, nil unless initialized.
func (a *Application) Resources() *systems.ResourceSystem { return a.resources }

// SetTarget draws into t instead of a generated full-viewport target.
func (a *Application) SetTarget(t *platform.Target) error {
	return a.surface.SetTarget(t)
}

// ResizeSurface changes the logical size of the surface.
func (a *Application) ResizeSurface(width, height platform.Length) {
	a.surface.Resize(width, height)
}

func (a *Application) AddResource(t resources.ResourceType, id, src string, preload bool) *resources.Resource {
	if a.resources == nil {
		a.logger.Warn("cannot add resource", "id", id, "err", core.ErrNotInitialized)
		return nil
	}
	return a.resources.AddResource(t, id, src, preload)
}

func (a *Application) RemoveResource(t resources.ResourceType, id string) {
	if a.resources == nil {
		return
	}
	a.resources.RemoveResource(t, id)
}

func (a *Application) ClearResources() {
	if a.resources == nil {
		return
	}
	a.resources.ClearResources()
}

func (a *Application) GetResource(t resources.ResourceType, id string) *resources.Resource {
	if a.resources == nil {
		return nil
	}
	return a.resources.GetResource(t, id)
}
