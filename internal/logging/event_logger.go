package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"jordanella.com/autovision/internal/events"
)

// EventLogger subscribes to the vision event bus and logs all events
type EventLogger struct {
	logger        *Logger
	eventBus      events.Bus
	subscriptions []events.SubscriptionID
	logFile       *os.File
}

// NewEventLogger creates a new event logger writing to a timestamped file
func NewEventLogger(eventBus events.Bus, logDir string) (*EventLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(logDir, fmt.Sprintf("events_%s.log", timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := NewLogger("EventLogger")
	logger.AddOutput(logFile)

	el := &EventLogger{
		logger:   logger,
		eventBus: eventBus,
		logFile:  logFile,
	}

	el.subscribeToEvents()

	return el, nil
}

// subscribeToEvents subscribes to every vision event type
func (el *EventLogger) subscribeToEvents() {
	eventTypes := []events.EventType{
		events.EventTypeScreenGrabbed,
		events.EventTypeMatchFound,
		events.EventTypeMatchMissed,
		events.EventTypeOcrSubmitted,
		events.EventTypeOcrProgress,
		events.EventTypeOcrCompleted,
		events.EventTypeOcrFailed,
		events.EventTypeImageSaved,
		events.EventTypeImageSaveFailed,
		events.EventTypeError,
	}

	for _, eventType := range eventTypes {
		id := el.eventBus.Subscribe(eventType, el.handleEvent)
		el.subscriptions = append(el.subscriptions, id)
	}
}

// handleEvent handles incoming events and logs them
func (el *EventLogger) handleEvent(event events.Event) {
	context := map[string]interface{}{
		"event_type": string(event.Type),
		"source":     event.Source,
	}

	for k, v := range event.Data {
		context[k] = v
	}

	el.logger.InfoWithContext(fmt.Sprintf("Event: %s", event.Type), context)
}

// Close unsubscribes and closes the log file
func (el *EventLogger) Close() error {
	for _, id := range el.subscriptions {
		el.eventBus.Unsubscribe(id)
	}
	if el.logFile != nil {
		return el.logFile.Close()
	}
	return nil
}
