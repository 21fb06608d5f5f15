package monitor

import (
	"errors"
	"testing"
	"time"

	"jordanella.com/autovision/internal/events"
)

func waitForStats(t *testing.T, m *FailureMonitor, check func(Stats) bool) Stats {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if stats := m.Stats(); check(stats) {
			return stats
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Stats never reached expected shape: %+v", m.Stats())
	return Stats{}
}

func TestMonitorCountsFailures(t *testing.T) {
	bus := events.NewBus(32)
	defer bus.Stop()

	m := New(bus)
	m.Start()
	defer m.Stop()

	bus.Publish(events.NewMatchMissedEvent("test", 0.9))
	bus.Publish(events.NewMatchMissedEvent("test", 0.9))
	bus.Publish(events.Event{
		Type:   events.EventTypeOcrFailed,
		Source: "test",
		Data:   map[string]interface{}{"error": "model missing"},
	})
	bus.Publish(events.NewErrorEvent("test", errors.New("engine panic")))

	stats := waitForStats(t, m, func(s Stats) bool {
		return s.MatchMisses == 2 && s.OcrFailures == 1 && s.Errors == 1
	})

	if stats.LastError != "engine panic" {
		t.Errorf("Expected last error 'engine panic', got %q", stats.LastError)
	}
}

func TestMonitorStopUnsubscribes(t *testing.T) {
	bus := events.NewBus(32)
	defer bus.Stop()

	m := New(bus)
	m.Start()

	bus.Publish(events.NewMatchMissedEvent("test", 0.9))
	waitForStats(t, m, func(s Stats) bool { return s.MatchMisses == 1 })

	m.Stop()

	bus.Publish(events.NewMatchMissedEvent("test", 0.9))
	time.Sleep(50 * time.Millisecond)

	if got := m.Stats().MatchMisses; got != 1 {
		t.Errorf("Stopped monitor still counting, got %d misses", got)
	}
}
