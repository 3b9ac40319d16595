package telemetry

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
)

func TestNewSentryWithoutDSN(t *testing.T) {
	reporter, err := NewSentry(SentryConfig{})
	if err != nil {
		t.Fatalf("new sentry: %v", err)
	}
	if _, ok := reporter.(Nop); !ok {
		t.Fatalf("expected nop reporter, got %T", reporter)
	}
	reporter.Capture(errors.New("ignored"), nil)
	if !reporter.Flush(time.Millisecond) {
		t.Fatalf("expected nop flush to succeed")
	}
}

func TestSentryCaptureTags(t *testing.T) {
	var mu sync.Mutex
	var events []*sentry.Event
	reporter, err := NewSentry(SentryConfig{
		DSN:         "https://public@sentry.example.com/1",
		Environment: "test",
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, event)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("new sentry: %v", err)
	}
	reporter.Capture(errors.New("boom"), map[string]any{
		"path":   "/webhooks/github?workspace=T1",
		"log_id": "abc",
		"data":   map[string]any{"action": "opened"},
	})
	reporter.Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("expected one captured event, got %d", len(events))
	}
	event := events[0]
	if event.Tags["path"] != "/webhooks/github?workspace=T1" || event.Tags["log_id"] != "abc" {
		t.Fatalf("unexpected tags: %v", event.Tags)
	}
	if _, ok := event.Extra["data"]; !ok {
		t.Fatalf("expected data in extra, got %v", event.Extra)
	}
	if event.Environment != "test" {
		t.Fatalf("expected environment, got %q", event.Environment)
	}
}

func TestSentryInvalidDSN(t *testing.T) {
	if _, err := NewSentry(SentryConfig{DSN: "not a dsn"}); err == nil {
		t.Fatalf("expected invalid dsn error")
	}
}
