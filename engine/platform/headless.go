package platform

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/loop"
	"github.com/spaghettifunk/kanvas/engine/renderer"
	"github.com/spaghettifunk/kanvas/engine/renderer/raster"
)

type resizeListener struct {
	id int
	fn func()
}

// Headless is a host without a display. Targets render into software
// contexts; there is no accelerated backend. It neither paces frames nor
// provides timers, so NewClock falls back to timer frames.
type Headless struct {
	loop      *loop.Loop
	width     float64
	height    float64
	dpr       float64
	attached  map[string]*Target
	contexts  map[string]renderer.Context
	listeners []resizeListener
	nextID    int
}

var _ Host = (*Headless)(nil)

func NewHeadless(width, height, devicePixelRatio float64) *Headless {
	if devicePixelRatio <= 0 {
		devicePixelRatio = 1
	}
	return &Headless{
		loop:     loop.New(),
		width:    width,
		height:   height,
		dpr:      devicePixelRatio,
		attached: make(map[string]*Target),
		contexts: make(map[string]renderer.Context),
	}
}

func (h *Headless) Loop() *loop.Loop {
	return h.loop
}

// Run drives the execution context until ctx is done or the loop quits.
func (h *Headless) Run(ctx context.Context) error {
	return h.loop.Run(ctx)
}

func (h *Headless) Dispatcher() loop.Dispatcher {
	return h.loop
}

func (h *Headless) Viewport() (float64, float64) {
	return h.width, h.height
}

func (h *Headless) DevicePixelRatio() float64 {
	return h.dpr
}

// ComputedSize resolves the target's lengths against the viewport. A
// detached target does not take part in layout and renders at 0x0.
func (h *Headless) ComputedSize(t *Target) (float64, float64) {
	if _, ok := h.attached[t.ID]; !ok {
		return 0, 0
	}
	w := max(t.Width.Resolve(h.width, h.height), 0)
	hgt := max(t.Height.Resolve(h.width, h.height), 0)
	return w, hgt
}

func (h *Headless) AttachTarget(t *Target) {
	h.attached[t.ID] = t
}

func (h *Headless) DetachTarget(t *Target) {
	delete(h.attached, t.ID)
	delete(h.contexts, t.ID)
}

func (h *Headless) Attached(t *Target) bool {
	_, ok := h.attached[t.ID]
	return ok
}

func (h *Headless) OnResize(fn func()) func() {
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, resizeListener{id: id, fn: fn})
	return func() {
		for i, l := range h.listeners {
			if l.id == id {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

// SetViewport changes the display size and notifies resize listeners on
// the execution context.
func (h *Headless) SetViewport(width, height float64) {
	h.width, h.height = width, height
	h.notifyResize()
}

func (h *Headless) SetDevicePixelRatio(r float64) {
	h.dpr = r
	h.notifyResize()
}

func (h *Headless) notifyResize() {
	h.loop.Post(func() {
		listeners := append([]resizeListener(nil), h.listeners...)
		for _, l := range listeners {
			l.fn()
		}
	})
}

func (h *Headless) NewContext(t *Target, mode3D bool, settings ContextSettings) (renderer.Context, error) {
	if mode3D {
		return nil, fmt.Errorf("%w: headless host has no accelerated backend", core.ErrContextUnavailable)
	}
	ctx := raster.New(t.PixelWidth, t.PixelHeight, settings.Antialias)
	h.contexts[t.ID] = ctx
	return ctx, nil
}

// Context returns the last context created for an attached target.
func (h *Headless) Context(t *Target) renderer.Context {
	return h.contexts[t.ID]
}
