package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/notify"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
)

type fakeRouter struct {
	mu     sync.Mutex
	calls  []notify.Envelope
	result notify.Result
	err    error
	panics bool
}

func (f *fakeRouter) Route(ctx context.Context, env notify.Envelope) (notify.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, env)
	f.mu.Unlock()
	if f.panics {
		panic("router exploded")
	}
	if storage.WorkspaceFromContext(ctx) != env.Workspace {
		return notify.Result{}, errors.New("workspace not threaded through context")
	}
	return f.result, f.err
}

type fakeLogStore struct {
	*storage.MemoryErrorLogStore
	appends int
	err     error
	panics  bool
}

func (f *fakeLogStore) AppendErrorLog(ctx context.Context, record storage.ErrorLogRecord) (*storage.ErrorLogRecord, error) {
	f.appends++
	if f.panics {
		panic("log store exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.MemoryErrorLogStore.AppendErrorLog(ctx, record)
}

type fakeReporter struct {
	captures []map[string]any
	panics   bool
}

func (f *fakeReporter) Capture(err error, tags map[string]any) {
	f.captures = append(f.captures, tags)
	if f.panics {
		panic("reporter exploded")
	}
}

func (f *fakeReporter) Flush(time.Duration) bool { return true }

type handlerFixture struct {
	handler  *Handler
	router   *fakeRouter
	logs     *fakeLogStore
	reporter *fakeReporter
	output   *bytes.Buffer
}

func newFixture(logOnError bool) *handlerFixture {
	var buf bytes.Buffer
	f := &handlerFixture{
		router:   &fakeRouter{},
		logs:     &fakeLogStore{MemoryErrorLogStore: storage.NewMemoryErrorLogStore()},
		reporter: &fakeReporter{},
		output:   &buf,
	}
	f.handler = NewHandler(HandlerOptions{
		Router:            f.router,
		Logs:              f.logs,
		Reporter:          f.reporter,
		Logger:            log.New(&buf, "", 0),
		MaxBodyBytes:      1 << 20,
		LogRequestOnError: logOnError,
		DecodePayload:     true,
	})
	return f
}

func (f *handlerFixture) do(target, event, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	if event != "" {
		req.Header.Set("X-GitHub-Event", event)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHandlerMissingWorkspace(t *testing.T) {
	f := newFixture(true)
	rec := f.do("/webhooks/github", "ping", "application/json", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if rec.Body.String() != "no workspace provided" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if len(f.router.calls) != 0 {
		t.Fatalf("expected no routing")
	}
	if f.logs.appends != 1 || len(f.reporter.captures) != 1 {
		t.Fatalf("expected one log write and one capture, got %d %d", f.logs.appends, len(f.reporter.captures))
	}
}

func TestHandlerMissingEventHeader(t *testing.T) {
	f := newFixture(false)
	rec := f.do("/webhooks/github?workspace=T1", "", "application/json", `{}`)
	if rec.Code != http.StatusBadRequest || rec.Body.String() != "no github event header provided" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if f.logs.appends != 0 || len(f.reporter.captures) != 0 {
		t.Fatalf("expected no diagnostics when logging disabled")
	}
	if !strings.Contains(f.output.String(), "not logging above error to db") {
		t.Fatalf("expected skip log line, got %q", f.output.String())
	}
}

func TestHandlerPingReply(t *testing.T) {
	f := newFixture(false)
	f.router.result = notify.Result{Reply: "I'm ready!"}
	rec := f.do("/webhooks/github?workspace=T1", "ping", "application/json", `{"zen":"Keep it simple."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `"I'm ready!"` {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
	env := f.router.calls[0]
	if env.Workspace != "T1" || env.EventType != "ping" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestHandlerResponses(t *testing.T) {
	tests := []struct {
		name   string
		result notify.Result
		want   string
	}{
		{name: "dual send", result: notify.Result{Deliveries: []notify.Delivery{{Channel: "D1"}, {Channel: "D2"}}}, want: "true"},
		{name: "single send", result: notify.Result{Deliveries: []notify.Delivery{{Channel: "D1", Timestamp: "1.2"}}}, want: `{"channel":"D1","ts":"1.2"}`},
		{name: "empty", result: notify.Result{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(false)
			f.router.result = tt.result
			rec := f.do("/webhooks/github?workspace=T1", "pull_request", "application/json", `{"action":"review_requested"}`)
			if rec.Code != http.StatusOK || rec.Body.String() != tt.want {
				t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandlerFormPayload(t *testing.T) {
	f := newFixture(false)
	body := "payload=" + strings.ReplaceAll(`{"action":"review_requested","number":7}`, `"`, "%22")
	rec := f.do("/webhooks/github?workspace=T1", "pull_request", "application/x-www-form-urlencoded", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", rec.Code, rec.Body.String())
	}
	env := f.router.calls[0]
	if env.Action != "review_requested" {
		t.Fatalf("expected action from unwrapped payload, got %+v", env)
	}
	obj := env.Body.(map[string]any)
	if obj["number"] != json.Number("7") {
		t.Fatalf("expected json.Number, got %#v", obj["number"])
	}
}

func TestHandlerMalformedJSON(t *testing.T) {
	f := newFixture(true)
	rec := f.do("/webhooks/github?workspace=T1", "ping", "application/json", `{"broken"`)
	if rec.Code != http.StatusBadRequest || !strings.HasPrefix(rec.Body.String(), "parse application/json body") {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	records, _ := f.logs.ListErrorLogs(context.Background(), storage.ErrorLogFilter{})
	if len(records) != 1 || records[0].DataJSON != `"{\"broken\""` {
		t.Fatalf("expected raw body logged, got %+v", records)
	}
}

func TestHandlerRoutingErrorDiagnostics(t *testing.T) {
	f := newFixture(true)
	f.router.err = errors.New("channel_not_found")
	rec := f.do("/webhooks/github?workspace=T1", "pull_request", "application/json", `{"action":"review_requested"}`)
	if rec.Code != http.StatusBadRequest || rec.Body.String() != "channel_not_found" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	records, _ := f.logs.ListErrorLogs(context.Background(), storage.ErrorLogFilter{Workspace: "T1"})
	if len(records) != 1 {
		t.Fatalf("expected one error log, got %d", len(records))
	}
	record := records[0]
	if record.Path != "/webhooks/github?workspace=T1" || record.Info != "channel_not_found" || record.RequestID == "" {
		t.Fatalf("unexpected record %+v", record)
	}
	if len(f.reporter.captures) != 1 || f.reporter.captures[0]["log_id"] != record.ID {
		t.Fatalf("expected capture tagged with log id, got %+v", f.reporter.captures)
	}
}

func TestHandlerDiagnosticsFailuresAreContained(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *handlerFixture)
	}{
		{name: "router panics", setup: func(f *handlerFixture) { f.router.panics = true }},
		{name: "log store fails", setup: func(f *handlerFixture) {
			f.router.err = errors.New("boom")
			f.logs.err = errors.New("db down")
		}},
		{name: "log store panics", setup: func(f *handlerFixture) {
			f.router.err = errors.New("boom")
			f.logs.panics = true
		}},
		{name: "reporter panics", setup: func(f *handlerFixture) {
			f.router.err = errors.New("boom")
			f.reporter.panics = true
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(true)
			tt.setup(f)
			rec := f.do("/webhooks/github?workspace=T1", "pull_request", "application/json", `{"action":"review_requested"}`)
			if rec.Code != http.StatusBadRequest || rec.Body.Len() == 0 {
				t.Fatalf("expected a single 400 with body, got %d %q", rec.Code, rec.Body.String())
			}
			if f.logs.appends > 1 || len(f.reporter.captures) != 1 {
				t.Fatalf("expected at most one log write and one capture, got %d %d", f.logs.appends, len(f.reporter.captures))
			}
		})
	}
}

func TestHandlerRepairsPayloadForDiagnostics(t *testing.T) {
	f := newFixture(true)
	body := "payload=%257B%2522a%2522%253A1%257D"
	rec := f.do("/webhooks/github?workspace=T1", "pull_request", "application/x-www-form-urlencoded", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	records, _ := f.logs.ListErrorLogs(context.Background(), storage.ErrorLogFilter{})
	if len(records) != 1 || !strings.Contains(records[0].DataJSON, `"payload":{"a":1}`) {
		t.Fatalf("expected repaired payload in log, got %+v", records)
	}
}

func TestHandlerBodyTooLarge(t *testing.T) {
	f := newFixture(false)
	f.handler.opts.MaxBodyBytes = 4
	rec := f.do("/webhooks/github?workspace=T1", "ping", "application/json", `{"zen":"too long"}`)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if len(f.router.calls) != 0 {
		t.Fatalf("expected no routing")
	}
}

func TestHandlerAcceptsAnyMethod(t *testing.T) {
	f := newFixture(false)
	f.router.result = notify.Result{Reply: "I'm ready!"}
	req := httptest.NewRequest(http.MethodGet, "/webhooks/github?workspace=T1", nil)
	req.Header.Set("X-GitHub-Event", "ping")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != `"I'm ready!"` {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if len(f.router.calls) != 1 || f.router.calls[0].Body != "" {
		t.Fatalf("expected GET routed with empty body, got %+v", f.router.calls)
	}

	req = httptest.NewRequest(http.MethodGet, "/webhooks/github", nil)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest || rec.Body.String() != "no workspace provided" {
		t.Fatalf("expected fallback 400 for GET without workspace, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestRequestIDPrefersIncomingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("X-GitHub-Delivery", "delivery-1")
	if got := requestID(req); got != "delivery-1" {
		t.Fatalf("expected delivery id, got %q", got)
	}
	req.Header.Set("X-Request-Id", "req-1")
	if got := requestID(req); got != "req-1" {
		t.Fatalf("expected request id, got %q", got)
	}
	if requestID(httptest.NewRequest(http.MethodPost, "/", nil)) == "" {
		t.Fatalf("expected generated id")
	}
}

func TestHandlerDebugEvents(t *testing.T) {
	f := newFixture(false)
	f.handler.opts.DebugEvents = true
	f.do("/webhooks/github?workspace=T1", "ping", "application/json", `{"zen":"Design for failure."}`)
	line := f.output.String()
	if !strings.Contains(line, "debug event workspace=T1 name=ping") || !strings.Contains(line, "Design for failure.") {
		t.Fatalf("expected debug event log, got %q", line)
	}
}
