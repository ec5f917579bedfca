// Package bus provides an internal event bus connecting the voice pipeline to
// the host application.
package bus

import (
	"sync"
)

// EventType identifies different event types
type EventType string

// Event types for FlixVoice
const (
	// Capture events
	EventTypeListeningStarted EventType = "voice.listening_started"
	EventTypeListeningStopped EventType = "voice.listening_stopped"
	EventTypeTranscript       EventType = "voice.transcript"
	EventTypeWakeWord         EventType = "voice.wake_word"

	// Pipeline events
	EventTypeResponse     EventType = "voice.response"
	EventTypeActionFailed EventType = "action.failed"

	// Host application events
	EventTypeSwitchTab         EventType = "app.switch_tab"
	EventTypeReadNotifications EventType = "app.read_notifications"
	EventTypeSendMessage       EventType = "app.send_message"
	EventTypeAddFlixbits       EventType = "wallet.add_flixbits"

	// Reminder events
	EventTypeReminderCreated EventType = "reminder.created"
	EventTypeReminderDue     EventType = "reminder.due"

	// Settings events
	EventTypeSettingsChanged EventType = "settings.changed"
)

// Event represents a bus event
type Event struct {
	Type EventType
	Data map[string]any
}

// Handler is a function that handles events
type Handler func(Event)

// EventBus is a simple pub/sub event bus
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for an event type
func (b *EventBus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeMultiple adds a handler for multiple event types
func (b *EventBus) SubscribeMultiple(eventTypes []EventType, handler Handler) {
	for _, et := range eventTypes {
		b.Subscribe(et, handler)
	}
}

func (b *EventBus) snapshot(eventType EventType) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]Handler, len(b.handlers[eventType]))
	copy(handlers, b.handlers[eventType])
	return handlers
}

// Publish sends an event to all subscribed handlers without waiting
func (b *EventBus) Publish(event Event) {
	for _, handler := range b.snapshot(event.Type) {
		go handler(event)
	}
}

// PublishSync sends an event and waits for all handlers to complete
func (b *EventBus) PublishSync(event Event) {
	var wg sync.WaitGroup
	for _, handler := range b.snapshot(event.Type) {
		wg.Add(1)
		go func(h Handler) {
			defer wg.Done()
			h(event)
		}(handler)
	}
	wg.Wait()
}

// HasSubscribers reports whether any handler listens for eventType
func (b *EventBus) HasSubscribers(eventType EventType) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType]) > 0
}
