package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFiresInRegistrationOrder(t *testing.T) {
	b := NewEventBus()
	var got []string
	b.Register(EVENT_CODE_RESIZED, func(EventContext) bool {
		got = append(got, "first")
		return false
	})
	b.Register(EVENT_CODE_RESIZED, func(EventContext) bool {
		got = append(got, "second")
		return false
	})

	handled := b.Fire(EventContext{Type: EVENT_CODE_RESIZED})
	assert.False(t, handled)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestEventBusStopsWhenHandled(t *testing.T) {
	b := NewEventBus()
	calls := 0
	b.Register(EVENT_CODE_APPLICATION_QUIT, func(EventContext) bool {
		calls++
		return true
	})
	b.Register(EVENT_CODE_APPLICATION_QUIT, func(EventContext) bool {
		calls++
		return false
	})

	assert.True(t, b.Fire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
	assert.Equal(t, 1, calls)
}

func TestEventBusUnregister(t *testing.T) {
	b := NewEventBus()
	calls := 0
	id := b.Register(EVENT_CODE_RESIZED, func(EventContext) bool {
		calls++
		return false
	})
	assert.True(t, b.Unregister(EVENT_CODE_RESIZED, id))
	assert.False(t, b.Unregister(EVENT_CODE_RESIZED, id))
	b.Fire(EventContext{Type: EVENT_CODE_RESIZED})
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, b.Listeners(EVENT_CODE_RESIZED))
}

func TestEventBusUnregisterWhileFiring(t *testing.T) {
	b := NewEventBus()
	calls := 0
	var id ListenerID
	id = b.Register(EVENT_CODE_RESIZED, func(EventContext) bool {
		calls++
		b.Unregister(EVENT_CODE_RESIZED, id)
		return false
	})
	b.Register(EVENT_CODE_RESIZED, func(EventContext) bool {
		calls++
		return false
	})

	b.Fire(EventContext{Type: EVENT_CODE_RESIZED})
	b.Fire(EventContext{Type: EVENT_CODE_RESIZED})
	assert.Equal(t, 3, calls)
}

func TestInputStateFiresKeyEvents(t *testing.T) {
	b := NewEventBus()
	var codes []EventCode
	for _, code := range []EventCode{EVENT_CODE_KEY_PRESSED, EVENT_CODE_KEY_RELEASED} {
		b.Register(code, func(ctx EventContext) bool {
			codes = append(codes, ctx.Type)
			return false
		})
	}

	in := NewInputState(b)
	in.ProcessKey(KEY_SPACE, true)
	in.ProcessKey(KEY_SPACE, true)
	assert.True(t, in.IsKeyDown(KEY_SPACE))
	assert.False(t, in.WasKeyDown(KEY_SPACE))

	in.Update()
	assert.True(t, in.WasKeyDown(KEY_SPACE))

	in.ProcessKey(KEY_SPACE, false)
	assert.Equal(t, []EventCode{EVENT_CODE_KEY_PRESSED, EVENT_CODE_KEY_RELEASED}, codes)
}
