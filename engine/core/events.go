package core

// System internal event codes. Application should use codes beyond 255.
type EventCode uint16

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT EventCode = 0x01

	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED EventCode = 0x02

	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED EventCode = 0x03

	// Mouse button pressed. Data: *MouseEvent
	EVENT_CODE_BUTTON_PRESSED EventCode = 0x04

	// Mouse button released. Data: *MouseEvent
	EVENT_CODE_BUTTON_RELEASED EventCode = 0x05

	// Mouse moved. Data: *MouseEvent
	EVENT_CODE_MOUSE_MOVED EventCode = 0x06

	// Mouse wheel. Data: *MouseEvent
	EVENT_CODE_MOUSE_WHEEL EventCode = 0x07

	// Host viewport or pixel density changed. Data: *ResizeEvent
	EVENT_CODE_RESIZED EventCode = 0x08

	// A resource finished loading. Data is set by the resource system.
	EVENT_CODE_RESOURCE_LOADED EventCode = 0x09

	// A resource failed to load. Data is set by the resource system.
	EVENT_CODE_RESOURCE_FAILED EventCode = 0x0A

	// The file behind a loaded resource changed on disk.
	EVENT_CODE_RESOURCE_SOURCE_CHANGED EventCode = 0x0B

	// A resource is about to be removed and its element released.
	// Data: *resources.Resource
	EVENT_CODE_RESOURCE_REMOVED EventCode = 0x0C

	MAX_EVENT_CODE EventCode = 0xFF
)

type EventContext struct {
	Type EventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   uint16
	PosY   uint16
	Scroll int8
}

type ResizeEvent struct {
	Width            float64
	Height           float64
	DevicePixelRatio float64
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

// ListenerID identifies a registration so it can be removed later.
type ListenerID uint32

type registeredEvent struct {
	id       ListenerID
	callback FnOnEvent
}

// EventBus dispatches events synchronously to registered listeners. Each
// application owns one; it is used from the application's execution
// context only.
type EventBus struct {
	registered map[EventCode][]*registeredEvent
	nextID     ListenerID
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]*registeredEvent),
	}
}

// Register listens for events sent with the provided code.
func (b *EventBus) Register(code EventCode, onEvent FnOnEvent) ListenerID {
	b.nextID++
	b.registered[code] = append(b.registered[code], &registeredEvent{
		id:       b.nextID,
		callback: onEvent,
	})
	return b.nextID
}

// Unregister removes a registration. Returns false if none matched.
func (b *EventBus) Unregister(code EventCode, id ListenerID) bool {
	events := b.registered[code]
	for i, e := range events {
		if e.id == id {
			b.registered[code] = append(events[:i:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends an event to listeners of its code in registration order. If a
// handler returns true the event is considered handled and is not passed on.
func (b *EventBus) Fire(context EventContext) bool {
	// Listeners may unregister while firing.
	events := append([]*registeredEvent(nil), b.registered[context.Type]...)
	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}

func (b *EventBus) Listeners(code EventCode) int {
	return len(b.registered[code])
}

// Shutdown drops every registration.
func (b *EventBus) Shutdown() {
	b.registered = make(map[EventCode][]*registeredEvent)
}
