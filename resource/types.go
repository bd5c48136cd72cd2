package resource

import "github.com/wippyai/wasm-bridge/value"

// Handle is an opaque reference to a value in a table.
// Handle 0 is reserved and always means the absent value.
type Handle uint32

// EventType identifies a handle lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventRetained
	EventDropped
)

// Event represents a handle lifecycle event.
type Event struct {
	Value  value.Value
	Handle Handle
	Refs   uint32
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }

// Dropper is optionally implemented by raw values that need cleanup when
// their last handle is released or the table closes.
type Dropper interface {
	Drop()
}
