package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/decode"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/metrics"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/notify"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/telemetry"
)

// EventRouter routes a decoded webhook envelope.
type EventRouter interface {
	Route(ctx context.Context, env notify.Envelope) (notify.Result, error)
}

// HandlerOptions wires the webhook handler's collaborators.
type HandlerOptions struct {
	Router   EventRouter
	Logs     storage.ErrorLogStore
	Reporter telemetry.Reporter
	Logger   *log.Logger

	MaxBodyBytes int64
	DebugEvents  bool
	// LogRequestOnError persists failed requests to Logs and reports them to Reporter.
	LogRequestOnError bool
	// DecodePayload re-parses the form payload field before logging a failure.
	DecodePayload bool
}

// Handler serves GitHub webhook deliveries.
type Handler struct {
	opts HandlerOptions
}

// NewHandler creates a Handler.
func NewHandler(opts HandlerOptions) *Handler {
	if opts.Logger == nil {
		opts.Logger = core.NewLogger("webhook")
	}
	if opts.Reporter == nil {
		opts.Reporter = telemetry.Nop{}
	}
	return &Handler{opts: opts}
}

// ServeHTTP decodes, routes and answers one delivery. Any failure after the body is read yields a single 400.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := requestID(r)
	w.Header().Set("X-Request-Id", reqID)
	logger := core.WithRequestID(h.opts.Logger, reqID)
	eventType := r.Header.Get(EventHeader)
	defer func() {
		metrics.WebhookDuration.Observe(time.Since(start).Seconds())
	}()

	if h.opts.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	}
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			logger.Printf("webhook body too large limit=%d", maxErr.Limit)
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		logger.Printf("webhook body read failed: %v", err)
		http.Error(w, "read body failed", http.StatusBadRequest)
		return
	}

	body, result, err := h.handle(r, logger, raw)
	if err != nil {
		metrics.WebhookRequestsTotal.WithLabelValues(eventLabel(eventType), metrics.StatusError).Inc()
		h.fail(w, r, logger, reqID, body, err)
		return
	}
	metrics.WebhookRequestsTotal.WithLabelValues(eventLabel(eventType), metrics.StatusOK).Inc()
	writeResult(w, logger, result)
}

// handle returns the best decoded form of the body alongside the routing outcome, for diagnostics.
func (h *Handler) handle(r *http.Request, logger *log.Logger, raw []byte) (body any, result notify.Result, err error) {
	body = string(raw)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while handling webhook: %v", rec)
		}
	}()

	decoded, err := decode.Body(r.Header.Get("Content-Type"), raw)
	if err != nil {
		return body, notify.Result{}, err
	}
	body = decoded
	unwrapped, err := UnwrapPayload(decoded)
	if err != nil {
		return body, notify.Result{}, err
	}
	body = unwrapped

	workspace, err := Workspace(r)
	if err != nil {
		return body, notify.Result{}, err
	}
	eventType, err := EventType(r)
	if err != nil {
		return body, notify.Result{}, err
	}
	if h.opts.DebugEvents {
		logDebugEvent(logger, workspace, eventType, raw)
	}
	if h.opts.Router == nil {
		return body, notify.Result{}, errors.New("event router is not configured")
	}
	env := notify.Envelope{
		Workspace: workspace,
		EventType: eventType,
		Action:    notify.ActionOf(unwrapped),
		Body:      unwrapped,
	}
	logger.Printf("event received workspace=%s name=%s action=%s", env.Workspace, env.EventType, env.Action)
	ctx := storage.WithWorkspace(r.Context(), workspace)
	result, err = h.opts.Router.Route(ctx, env)
	return body, result, err
}

func writeResult(w http.ResponseWriter, logger *log.Logger, result notify.Result) {
	resp := result.Response()
	if resp == nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		logger.Printf("encode response failed: %v", err)
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// fail records err best-effort and writes exactly one 400 carrying err's message.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, logger *log.Logger, reqID string, body any, err error) {
	logger.Printf("webhook failed: %v", err)
	h.diagnose(r, logger, reqID, body, err)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusBadRequest)
	_, _ = io.WriteString(w, err.Error())
}

func (h *Handler) diagnose(r *http.Request, logger *log.Logger, reqID string, body any, cause error) {
	data := body
	if h.opts.DecodePayload {
		safely(logger, "payload repair", func() {
			data = RepairPayload(body)
		})
	}
	if !h.opts.LogRequestOnError {
		logger.Printf("not logging above error to db")
		return
	}
	path := r.URL.RequestURI()
	logID := ""
	if h.opts.Logs != nil {
		safely(logger, "error log write", func() {
			dataJSON, err := json.Marshal(data)
			if err != nil {
				dataJSON = []byte(fmt.Sprintf("%q", fmt.Sprint(data)))
			}
			record, err := h.opts.Logs.AppendErrorLog(r.Context(), storage.ErrorLogRecord{
				Workspace: r.URL.Query().Get(WorkspaceParam),
				RequestID: reqID,
				Path:      path,
				Info:      cause.Error(),
				DataJSON:  string(dataJSON),
			})
			if err != nil {
				logger.Printf("error log write failed: %v", err)
				return
			}
			if record != nil {
				logID = record.ID
			}
		})
	}
	safely(logger, "telemetry capture", func() {
		h.opts.Reporter.Capture(cause, map[string]any{
			"path":       path,
			"data":       data,
			"log_id":     logID,
			"request_id": reqID,
		})
	})
}

func safely(logger *log.Logger, step string, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Printf("%s panicked: %v", step, rec)
		}
	}()
	fn()
}
