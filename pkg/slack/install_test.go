package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"
)

func newTokenServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("code") != "good-code" || r.FormValue("client_id") != "cid" || r.FormValue("client_secret") != "secret" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ok":false,"error":"invalid_code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestInstaller(tokenURL string, workspaces storage.WorkspaceStore) *Installer {
	return &Installer{
		OAuth: core.SlackOAuthConfig{
			ClientID:        "cid",
			ClientSecret:    "secret",
			Scopes:          []string{"chat:write", "im:write"},
			AuthorizeURL:    "https://slack.example.com/oauth/v2/authorize",
			TokenURL:        tokenURL,
			RedirectBaseURL: "https://bridge.example.com",
		},
		Endpoint:    "https://bridge.example.com",
		WebhookPath: "/webhooks/github",
		Workspaces:  workspaces,
	}
}

func TestStartRedirectsToSlack(t *testing.T) {
	installer := newTestInstaller("https://slack.example.com/api/oauth.v2.access", nil)
	rec := httptest.NewRecorder()
	installer.StartHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StartPath, nil))

	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	target, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parse location: %v", err)
	}
	if target.Host != "slack.example.com" || target.Path != "/oauth/v2/authorize" {
		t.Fatalf("unexpected authorize url %s", target)
	}
	q := target.Query()
	if q.Get("client_id") != "cid" || q.Get("scope") != "chat:write,im:write" {
		t.Fatalf("unexpected query %v", q)
	}
	if q.Get("redirect_uri") != "https://bridge.example.com/oauth/slack/callback" {
		t.Fatalf("unexpected redirect_uri %q", q.Get("redirect_uri"))
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != q.Get("state") {
		t.Fatalf("expected state cookie matching state param, got %v", cookies)
	}
}

func TestStartDisabledWithoutCredentials(t *testing.T) {
	installer := &Installer{}
	rec := httptest.NewRecorder()
	installer.StartHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, StartPath, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without oauth config, got %d", rec.Code)
	}
}

func callbackRequest(state, cookieState, code string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, CallbackPath+"?state="+state+"&code="+code, nil)
	if cookieState != "" {
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: cookieState})
	}
	return req
}

func TestCallbackStoresWorkspace(t *testing.T) {
	tokenSrv := newTokenServer(t, `{"ok":true,"access_token":"xoxb-123","token_type":"bot","scope":"chat:write,im:write","bot_user_id":"UBOT","app_id":"A1","team":{"id":"T1","name":"Acme"}}`)
	workspaces := storage.NewMemoryWorkspaceStore()
	installer := newTestInstaller(tokenSrv.URL, workspaces)
	var installed string
	installer.OnInstall = func(workspace string) { installed = workspace }

	rec := httptest.NewRecorder()
	installer.CallbackHandler().ServeHTTP(rec, callbackRequest("s1", "s1", "good-code"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp installResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Workspace != "T1" || resp.TeamName != "Acme" || resp.Warning != "" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.WebhookURL != "https://bridge.example.com/webhooks/github?workspace=T1" {
		t.Fatalf("unexpected webhook url %q", resp.WebhookURL)
	}
	record, err := workspaces.GetWorkspace(context.Background(), "T1")
	if err != nil || record == nil {
		t.Fatalf("expected stored workspace, got %v %v", record, err)
	}
	if record.BotToken != "xoxb-123" || record.AppID != "A1" || record.BotUserID != "UBOT" {
		t.Fatalf("unexpected stored record %+v", record)
	}
	if installed != "T1" {
		t.Fatalf("expected install hook, got %q", installed)
	}
}

func TestCallbackRejectsBadState(t *testing.T) {
	installer := newTestInstaller("http://127.0.0.1:0", storage.NewMemoryWorkspaceStore())
	for name, req := range map[string]*http.Request{
		"missing cookie": callbackRequest("s1", "", "good-code"),
		"mismatch":       callbackRequest("s1", "s2", "good-code"),
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			installer.CallbackHandler().ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "invalid state") {
				t.Fatalf("expected invalid state, got %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCallbackExchangeFailure(t *testing.T) {
	tokenSrv := newTokenServer(t, `{}`)
	workspaces := storage.NewMemoryWorkspaceStore()
	installer := newTestInstaller(tokenSrv.URL, workspaces)
	rec := httptest.NewRecorder()
	installer.CallbackHandler().ServeHTTP(rec, callbackRequest("s1", "s1", "bad-code"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if list, _ := workspaces.ListWorkspaces(context.Background()); len(list) != 0 {
		t.Fatalf("expected nothing stored, got %v", list)
	}
}

func TestCallbackMissingTeam(t *testing.T) {
	tokenSrv := newTokenServer(t, `{"ok":true,"access_token":"xoxb-123","token_type":"bot"}`)
	installer := newTestInstaller(tokenSrv.URL, storage.NewMemoryWorkspaceStore())
	rec := httptest.NewRecorder()
	installer.CallbackHandler().ServeHTTP(rec, callbackRequest("s1", "s1", "good-code"))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "team id missing") {
		t.Fatalf("expected missing team error, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestBaseURLFallsBackToForwardedHeaders(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "internal:8080"
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "bridge.example.com")
	if got := baseURL(req, ""); got != "https://bridge.example.com" {
		t.Fatalf("unexpected base url %q", got)
	}
	if got := baseURL(req, "https://configured.example.com/"); got != "https://configured.example.com" {
		t.Fatalf("unexpected configured base url %q", got)
	}
}
