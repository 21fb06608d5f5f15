package events

import "time"

// EventType represents different types of events in the system
type EventType string

const (
	// Capture events
	EventTypeScreenGrabbed EventType = "capture.grabbed"

	// Matching events
	EventTypeMatchFound  EventType = "match.found"
	EventTypeMatchMissed EventType = "match.missed"

	// Recognition events
	EventTypeOcrSubmitted EventType = "ocr.submitted"
	EventTypeOcrProgress  EventType = "ocr.progress"
	EventTypeOcrCompleted EventType = "ocr.completed"
	EventTypeOcrFailed    EventType = "ocr.failed"

	// Persistence events
	EventTypeImageSaved      EventType = "sink.saved"
	EventTypeImageSaveFailed EventType = "sink.failed"

	// Error events
	EventTypeError EventType = "error"
)

// Event represents a system event with metadata
type Event struct {
	Type      EventType              // Type of event
	Source    string                 // Component that emitted the event
	Timestamp time.Time              // When the event occurred
	Data      map[string]interface{} // Event-specific data
}

// EventHandler is a function that processes an event
type EventHandler func(Event)

// SubscriptionID uniquely identifies a subscription
type SubscriptionID int64

// Bus defines the interface for event pub/sub
type Bus interface {
	// Subscribe registers a handler for a specific event type
	Subscribe(eventType EventType, handler EventHandler) SubscriptionID

	// Unsubscribe removes a subscription by ID
	Unsubscribe(id SubscriptionID)

	// Publish sends an event to all subscribers (blocking until queued)
	Publish(event Event)

	// PublishAsync sends an event asynchronously (non-blocking)
	PublishAsync(event Event)

	// Stop stops the event bus and drains remaining events
	Stop()
}

// Helper functions to create common events

// NewMatchFoundEvent creates a match found event
func NewMatchFoundEvent(source string, x, y int, confidence float64) Event {
	return Event{
		Type:      EventTypeMatchFound,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"x":          x,
			"y":          y,
			"confidence": confidence,
		},
	}
}

// NewMatchMissedEvent creates a match missed event
func NewMatchMissedEvent(source string, minConfidence float64) Event {
	return Event{
		Type:      EventTypeMatchMissed,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"min_confidence": minConfidence,
		},
	}
}

// NewOcrProgressEvent creates an OCR progress event
func NewOcrProgressEvent(source, status string, progress float64) Event {
	return Event{
		Type:      EventTypeOcrProgress,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"status":   status,
			"progress": progress,
		},
	}
}

// NewErrorEvent creates an error event
func NewErrorEvent(source string, err error) Event {
	return Event{
		Type:      EventTypeError,
		Source:    source,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"error": err.Error(),
		},
	}
}
