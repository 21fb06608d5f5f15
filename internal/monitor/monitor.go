// Package monitor aggregates failure events from the vision event bus so
// an operator can inspect miss/failure rates without scraping logs.
package monitor

import (
	"sync"

	"jordanella.com/autovision/internal/events"
	"jordanella.com/autovision/internal/logging"
)

// Stats is a snapshot of observed failures
type Stats struct {
	MatchMisses  int64
	OcrFailures  int64
	SinkFailures int64
	Errors       int64
	LastError    string
}

// FailureMonitor counts failure events published on the bus
type FailureMonitor struct {
	bus           events.Bus
	log           *logging.Logger
	subscriptions []events.SubscriptionID

	mu    sync.Mutex
	stats Stats
}

// New creates a failure monitor over the given bus
func New(bus events.Bus) *FailureMonitor {
	return &FailureMonitor{
		bus: bus,
		log: logging.NewLogger("monitor"),
	}
}

// Start subscribes to failure event types
func (m *FailureMonitor) Start() {
	m.subscriptions = []events.SubscriptionID{
		m.bus.Subscribe(events.EventTypeMatchMissed, m.onMatchMissed),
		m.bus.Subscribe(events.EventTypeOcrFailed, m.onOcrFailed),
		m.bus.Subscribe(events.EventTypeImageSaveFailed, m.onSinkFailed),
		m.bus.Subscribe(events.EventTypeError, m.onError),
	}
}

// Stop removes all subscriptions
func (m *FailureMonitor) Stop() {
	for _, id := range m.subscriptions {
		m.bus.Unsubscribe(id)
	}
	m.subscriptions = nil
}

// Stats returns a snapshot of the counters
func (m *FailureMonitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *FailureMonitor) onMatchMissed(event events.Event) {
	m.mu.Lock()
	m.stats.MatchMisses++
	m.mu.Unlock()
}

func (m *FailureMonitor) onOcrFailed(event events.Event) {
	m.mu.Lock()
	m.stats.OcrFailures++
	m.stats.LastError = dataString(event, "error")
	m.mu.Unlock()
}

func (m *FailureMonitor) onSinkFailed(event events.Event) {
	m.mu.Lock()
	m.stats.SinkFailures++
	m.stats.LastError = dataString(event, "error")
	m.mu.Unlock()
}

func (m *FailureMonitor) onError(event events.Event) {
	m.mu.Lock()
	m.stats.Errors++
	m.stats.LastError = dataString(event, "error")
	m.mu.Unlock()

	m.log.InfoWithContext("error event observed", map[string]interface{}{
		"source": event.Source,
		"error":  dataString(event, "error"),
	})
}

func dataString(event events.Event, key string) string {
	if s, ok := event.Data[key].(string); ok {
		return s
	}
	return ""
}
