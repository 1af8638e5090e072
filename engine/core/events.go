package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * width, height := data.Data.(*SystemEvent).WindowWidth, ...WindowHeight
	 */
	EVENT_CODE_RESIZED SystemEventCode = 0x02

	// The rendering device was lost; dispatch has halted.
	EVENT_CODE_DEVICE_LOST SystemEventCode = 0x03

	// A shader source changed on disk and its pipelines were invalidated.
	/* Context usage:
	 * shader := data.Data.(string)
	 */
	EVENT_CODE_SHADER_RELOADED SystemEventCode = 0x04

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

// SystemEvent carries windowing payloads.
type SystemEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type EventCallback func(context EventContext)

type eventSystem struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]EventCallback
}

var events = &eventSystem{
	registered: make(map[SystemEventCode][]EventCallback),
}

// EventRegister subscribes the callback to the given code. Callbacks run
// synchronously on the firing goroutine, in registration order.
func EventRegister(code SystemEventCode, callback EventCallback) {
	events.mu.Lock()
	defer events.mu.Unlock()
	events.registered[code] = append(events.registered[code], callback)
}

// EventFire delivers the context to every callback registered for its type.
func EventFire(context EventContext) {
	events.mu.RLock()
	callbacks := events.registered[context.Type]
	events.mu.RUnlock()
	for _, cb := range callbacks {
		cb(context)
	}
}

// EventSystemShutdown drops all registrations.
func EventSystemShutdown() error {
	events.mu.Lock()
	defer events.mu.Unlock()
	events.registered = make(map[SystemEventCode][]EventCallback)
	return nil
}
