package game

type EventType int

const (
	EventTierChanged EventType = iota // device tier forced or re-scored
	EventModeChanged                  // pacer switched between normal and degraded
	EventTargetFPS                    // pacer changed its target frame rate
	EventFullClear                    // batcher fell back to a full-surface clear
)

type Event struct {
	Type EventType
	Tier Tier
	Mode PacerMode
	Data int // Generic payload (target fps, dirty rect count).
}

type EventHandler func(Event)

// EventBus dispatches synchronously on the caller's goroutine.
type EventBus struct {
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

func (eb *EventBus) Subscribe(t EventType, fn EventHandler) {
	eb.handlers[t] = append(eb.handlers[t], fn)
}

func (eb *EventBus) Emit(e Event) {
	if eb == nil {
		return
	}
	for _, fn := range eb.handlers[e.Type] {
		fn(e)
	}
}
