package webhook

import (
	"log"
	"net/http"

	"github.com/google/uuid"
)

func requestID(r *http.Request) string {
	if r == nil {
		return uuid.NewString()
	}
	if id := r.Header.Get("X-Request-Id"); id != "" {
		return id
	}
	if id := r.Header.Get("X-GitHub-Delivery"); id != "" {
		return id
	}
	if id := r.Header.Get("X-Correlation-Id"); id != "" {
		return id
	}
	return uuid.NewString()
}

func logDebugEvent(logger *log.Logger, workspace, event string, body []byte) {
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("debug event workspace=%s name=%s payload=%s", workspace, event, string(body))
}

// eventLabel bounds the metrics label to the event types the router knows.
func eventLabel(eventType string) string {
	switch eventType {
	case "ping", "pull_request", "pull_request_review":
		return eventType
	case "":
		return "none"
	default:
		return "other"
	}
}
