package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter receives errors that could not be handled.
type Reporter interface {
	Capture(err error, tags map[string]any)
	Flush(timeout time.Duration) bool
}

// Nop discards everything.
type Nop struct{}

func (Nop) Capture(error, map[string]any) {}

func (Nop) Flush(time.Duration) bool { return true }

// SentryConfig configures the Sentry reporter.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
	// BeforeSend lets callers inspect or drop events before delivery.
	BeforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

// Sentry reports errors to Sentry through a dedicated hub.
type Sentry struct {
	hub *sentry.Hub
}

// NewSentry creates a reporter. An empty DSN returns a Nop reporter.
func NewSentry(cfg SentryConfig) (Reporter, error) {
	if cfg.DSN == "" {
		return Nop{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		BeforeSend:  cfg.BeforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry client: %w", err)
	}
	return &Sentry{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// Capture sends err with tags. String values become tags; everything else is attached as extra data.
func (s *Sentry) Capture(err error, tags map[string]any) {
	if s == nil || s.hub == nil || err == nil {
		return
	}
	s.hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range tags {
			if str, ok := value.(string); ok && len(str) <= 200 {
				scope.SetTag(key, str)
				continue
			}
			scope.SetExtra(key, value)
		}
		s.hub.CaptureException(err)
	})
}

// Flush waits for queued events to be delivered.
func (s *Sentry) Flush(timeout time.Duration) bool {
	if s == nil || s.hub == nil {
		return true
	}
	return s.hub.Flush(timeout)
}
