package core

// Event is something the driver or exporter announces to listeners
type Event struct {
	Type    EventType
	Frame   uint64
	Payload interface{}
}

type EventType uint16

const (
	EvtFrameRendered EventType = iota
	EvtLoopSuspended
	EvtLoopResumed
	EvtExportStarted
	EvtExportFrameWritten
	EvtExportFinished
	EvtExportFailed
	EvtResolutionChanged
	EvtBackgroundChanged
)

// EventBus dispatches events to listeners
type EventBus struct {
	listeners map[EventType][]EventHandler
	queue     []Event
}

type EventHandler func(e Event)

func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[EventType][]EventHandler),
	}
}

// On registers a handler for an event type
func (eb *EventBus) On(t EventType, h EventHandler) {
	eb.listeners[t] = append(eb.listeners[t], h)
}

// Emit queues an event for dispatch. A nil bus drops the event.
func (eb *EventBus) Emit(e Event) {
	if eb == nil {
		return
	}
	eb.queue = append(eb.queue, e)
}

// Dispatch processes all queued events
func (eb *EventBus) Dispatch() {
	if eb == nil {
		return
	}
	// Handlers may emit; drain until quiet
	for len(eb.queue) > 0 {
		batch := eb.queue
		eb.queue = nil
		for _, e := range batch {
			for _, h := range eb.listeners[e.Type] {
				h(e)
			}
		}
	}
}

// Pending returns the number of queued events
func (eb *EventBus) Pending() int {
	if eb == nil {
		return 0
	}
	return len(eb.queue)
}
