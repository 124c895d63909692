// Package desktop is the windowed host. ebiten owns the window, paces
// frames to the display and provides the accelerated context.
package desktop

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/spaghettifunk/kanvas/engine/core"
	"github.com/spaghettifunk/kanvas/engine/loop"
	"github.com/spaghettifunk/kanvas/engine/platform"
	"github.com/spaghettifunk/kanvas/engine/renderer"
	"github.com/spaghettifunk/kanvas/engine/renderer/gpu"
	"github.com/spaghettifunk/kanvas/engine/renderer/raster"
)

type frameRequest struct {
	handle platform.FrameHandle
	cb     platform.FrameCallback
}

type resizeListener struct {
	id int
	fn func()
}

// Host runs the execution context inside ebiten's game loop: each Update
// drains posted tasks and fires the frames requested since the previous
// one.
type Host struct {
	loop     *loop.Loop
	title    string
	settings platform.ContextSettings
	start    time.Time

	width  float64
	height float64
	dpr    float64

	attached map[string]*platform.Target
	contexts map[string]renderer.Context
	// The target presented on screen: the first one attached.
	primary *platform.Target
	// Upload buffer for software contexts.
	screen *ebiten.Image

	frames    []frameRequest
	nextFrame uint64
	listeners []resizeListener
	nextID    int
}

var (
	_ platform.Host           = (*Host)(nil)
	_ platform.FrameRequester = (*Host)(nil)
	_ platform.TimeSource     = (*Host)(nil)
)

// New prepares a window of the given logical size. Context settings are
// applied when the window opens, since ebiten fixes them at start.
func New(title string, width, height int, settings platform.ContextSettings) *Host {
	return &Host{
		loop:     loop.New(),
		title:    title,
		settings: settings,
		start:    time.Now(),
		width:    float64(width),
		height:   float64(height),
		// Corrected by the first layout once the window exists.
		dpr:      1,
		attached: make(map[string]*platform.Target),
		contexts: make(map[string]renderer.Context),
	}
}

func (h *Host) Loop() *loop.Loop {
	return h.loop
}

// Run opens the window and blocks until the loop quits, ctx is done or
// the window is closed.
func (h *Host) Run(ctx context.Context) error {
	ebiten.SetWindowTitle(h.title)
	ebiten.SetWindowSize(int(h.width), int(h.height))
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetScreenClearedEveryFrame(!h.settings.PreserveDrawingBuffer)
	// Frames follow the display refresh rate.
	ebiten.SetTPS(ebiten.SyncWithFPS)

	go func() {
		select {
		case <-ctx.Done():
			h.loop.Quit()
		case <-h.loop.Done():
		}
	}()

	err := ebiten.RunGameWithOptions(&game{host: h}, h.runOptions())
	h.loop.Quit()
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return ctx.Err()
}

func (h *Host) runOptions() *ebiten.RunGameOptions {
	opts := &ebiten.RunGameOptions{
		GraphicsLibrary:   ebiten.GraphicsLibraryAuto,
		ScreenTransparent: h.settings.Alpha,
	}
	if !h.settings.PreferModernBackend {
		opts.GraphicsLibrary = ebiten.GraphicsLibraryOpenGL
	}
	if h.settings.PowerPreference != "" && h.settings.PowerPreference != "high-performance" {
		core.LogDebug("power preference %q is not supported by the desktop host", h.settings.PowerPreference)
	}
	return opts
}

func (h *Host) Dispatcher() loop.Dispatcher {
	return h.loop
}

func (h *Host) Viewport() (float64, float64) {
	return h.width, h.height
}

func (h *Host) DevicePixelRatio() float64 {
	return h.dpr
}

func (h *Host) ComputedSize(t *platform.Target) (float64, float64) {
	if _, ok := h.attached[t.ID]; !ok {
		return 0, 0
	}
	w := max(t.Width.Resolve(h.width, h.height), 0)
	hgt := max(t.Height.Resolve(h.width, h.height), 0)
	return w, hgt
}

func (h *Host) AttachTarget(t *platform.Target) {
	h.attached[t.ID] = t
	if h.primary == nil {
		h.primary = t
	}
}

func (h *Host) DetachTarget(t *platform.Target) {
	delete(h.attached, t.ID)
	delete(h.contexts, t.ID)
	if h.primary != nil && h.primary.ID == t.ID {
		h.primary = nil
	}
}

func (h *Host) OnResize(fn func()) func() {
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

func (h *Host) NewContext(t *platform.Target, mode3D bool, settings platform.ContextSettings) (renderer.Context, error) {
	var ctx renderer.Context
	if mode3D {
		ctx = gpu.New(t.PixelWidth, t.PixelHeight, settings.Antialias)
	} else {
		ctx = raster.New(t.PixelWidth, t.PixelHeight, settings.Antialias)
	}
	h.contexts[t.ID] = ctx
	return ctx, nil
}

func (h *Host) Now() float64 {
	return float64(time.Since(h.start).Microseconds()) / 1000
}

func (h *Host) RequestFrame(cb platform.FrameCallback) platform.FrameHandle {
	h.nextFrame++
	handle := platform.FrameHandle(h.nextFrame)
	h.frames = append(h.frames, frameRequest{handle: handle, cb: cb})
	return handle
}

func (h *Host) CancelFrame(handle platform.FrameHandle) {
	for i, f := range h.frames {
		if f.handle == handle {
			h.frames = append(h.frames[:i:i], h.frames[i+1:]...)
			return
		}
	}
}

func (h *Host) update() error {
	h.loop.Drain()

	select {
	case <-h.loop.Done():
		return ebiten.Termination
	default:
	}

	// Frames requested while these run wait for the next Update.
	pending := h.frames
	h.frames = nil
	ts := h.Now()
	for _, f := range pending {
		f.cb(ts)
	}
	h.loop.Drain()
	return nil
}

func (h *Host) draw(screen *ebiten.Image) {
	if h.primary == nil {
		return
	}
	switch ctx := h.contexts[h.primary.ID].(type) {
	case *gpu.Context:
		screen.DrawImage(ctx.Texture(), nil)
	case *raster.Context:
		rgba := ctx.RGBA()
		if rgba.Bounds().Empty() {
			return
		}
		h.ensureScreen(rgba.Bounds())
		h.screen.WritePixels(rgba.Pix)
		screen.DrawImage(h.screen, nil)
	}
}

func (h *Host) ensureScreen(b image.Rectangle) {
	if h.screen != nil && h.screen.Bounds().Size() == b.Size() {
		return
	}
	if h.screen != nil {
		h.screen.Deallocate()
	}
	h.screen = ebiten.NewImage(max(b.Dx(), 1), max(b.Dy(), 1))
}

// layout tracks the logical window size and the monitor scale, notifying
// resize listeners when either changes. The screen is laid out in device
// pixels so the backing buffers map onto it one to one.
func (h *Host) layout(outsideWidth, outsideHeight float64) (float64, float64) {
	dpr := h.dpr
	if m := ebiten.Monitor(); m != nil {
		dpr = m.DeviceScaleFactor()
	}
	if outsideWidth != h.width || outsideHeight != h.height || dpr != h.dpr {
		h.width, h.height, h.dpr = outsideWidth, outsideHeight, dpr
		core.LogDebug("window resized to %.0fx%.0f at %.2fx", outsideWidth, outsideHeight, dpr)
		h.loop.Post(func() {
			listeners := append([]resizeListener(nil), h.listeners...)
			for _, l := range listeners {
				l.fn()
			}
		})
	}
	return outsideWidth * dpr, outsideHeight * dpr
}

type game struct {
	host *Host
}

func (g *game) Update() error {
	return g.host.update()
}

func (g *game) Draw(screen *ebiten.Image) {
	g.host.draw(screen)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	w, h := g.host.layout(float64(outsideWidth), float64(outsideHeight))
	return int(w), int(h)
}

func (g *game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return g.host.layout(outsideWidth, outsideHeight)
}
