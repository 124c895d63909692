package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/kanvas/engine/core"
)

func TestLengthResolve(t *testing.T) {
	assert.Equal(t, 640.0, Px(640).Resolve(1000, 500))
	assert.Equal(t, 1000.0, VW(100).Resolve(1000, 500))
	assert.Equal(t, 250.0, VH(50).Resolve(1000, 500))
}

func TestParseLength(t *testing.T) {
	tests := map[string]Length{
		"640":    Px(640),
		"640px":  Px(640),
		"100vw":  VW(100),
		" 50VH ": VH(50),
		"12.5px": Px(12.5),
	}
	for in, want := range tests {
		got, err := ParseLength(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLength("wide")
	assert.Error(t, err)
}

func TestLengthString(t *testing.T) {
	assert.Equal(t, "100vw", VW(100).String())
	assert.Equal(t, "100vh", VH(100).String())
	assert.Equal(t, "12.5px", Px(12.5).String())
}

func TestNewTarget(t *testing.T) {
	a, b := NewTarget(), NewTarget()
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, VW(100), a.Width)
	assert.Equal(t, VH(100), a.Height)
}

func TestHeadlessComputedSize(t *testing.T) {
	h := NewHeadless(800, 600, 2)
	tgt := &Target{ID: "t", Width: VW(50), Height: Px(100)}

	w, hgt := h.ComputedSize(tgt)
	assert.Zero(t, w)
	assert.Zero(t, hgt)

	h.AttachTarget(tgt)
	w, hgt = h.ComputedSize(tgt)
	assert.Equal(t, 400.0, w)
	assert.Equal(t, 100.0, hgt)

	tgt.Width = Px(-5)
	w, _ = h.ComputedSize(tgt)
	assert.Zero(t, w)

	h.DetachTarget(tgt)
	assert.False(t, h.Attached(tgt))
}

func TestHeadlessRejectsAcceleratedContext(t *testing.T) {
	h := NewHeadless(10, 10, 1)
	_, err := h.NewContext(NewTarget(), true, ContextSettings{})
	assert.ErrorIs(t, err, core.ErrContextUnavailable)

	tgt := NewTarget()
	tgt.PixelWidth, tgt.PixelHeight = 4, 2
	ctx, err := h.NewContext(tgt, false, ContextSettings{})
	require.NoError(t, err)
	w, hgt := ctx.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, hgt)
	assert.Equal(t, ctx, h.Context(tgt))
}

func TestHeadlessResizeNotifications(t *testing.T) {
	h := NewHeadless(10, 10, 1)
	calls := 0
	cancel := h.OnResize(func() { calls++ })

	h.SetViewport(20, 20)
	assert.Equal(t, 0, calls, "listeners run on the execution context")
	h.Loop().Drain()
	assert.Equal(t, 1, calls)

	h.SetDevicePixelRatio(2)
	h.Loop().Drain()
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2.0, h.DevicePixelRatio())

	cancel()
	h.SetViewport(30, 30)
	h.Loop().Drain()
	assert.Equal(t, 2, calls)
}

func TestNewHeadlessDefaultsPixelRatio(t *testing.T) {
	assert.Equal(t, 1.0, NewHeadless(1, 1, 0).DevicePixelRatio())
}
