package slack

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/core"
	"github.com/EnixCoda/GitHubReviewerNotificationForSlack/pkg/storage"

	"golang.org/x/oauth2"
)

const (
	StartPath    = "/oauth/slack/start"
	CallbackPath = "/oauth/slack/callback"

	stateCookie = "reviewbridge_slack_state"
)

// Installer runs the Slack "Add to Slack" OAuth flow and records bot tokens per workspace.
type Installer struct {
	OAuth       core.SlackOAuthConfig
	Endpoint    string
	WebhookPath string
	Workspaces  storage.WorkspaceStore
	// OnInstall is called with the workspace key after its record is saved.
	OnInstall  func(workspace string)
	HTTPClient *http.Client
	Logger     *log.Logger
}

type installResponse struct {
	Workspace  string `json:"workspace"`
	TeamName   string `json:"team_name,omitempty"`
	WebhookURL string `json:"webhook_url"`
	Warning    string `json:"warning,omitempty"`
}

// StartHandler redirects to Slack's authorize page.
func (h *Installer) StartHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !h.OAuth.Enabled() {
			http.Error(w, "slack oauth is not configured", http.StatusNotFound)
			return
		}
		state := randomState()
		if state == "" {
			http.Error(w, "state generation failed", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookie,
			Value:    state,
			Path:     "/oauth/slack",
			MaxAge:   600,
			HttpOnly: true,
			Secure:   forwardedProto(r) == "https",
			SameSite: http.SameSiteLaxMode,
		})
		cfg := h.config(r)
		target := cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("scope", strings.Join(h.OAuth.Scopes, ",")))
		h.logger().Printf("slack install start redirect_uri=%s", cfg.RedirectURL)
		http.Redirect(w, r, target, http.StatusFound)
	})
}

// CallbackHandler exchanges the authorization code and stores the workspace installation.
func (h *Installer) CallbackHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := h.logger()
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !h.OAuth.Enabled() {
			http.Error(w, "slack oauth is not configured", http.StatusNotFound)
			return
		}
		query := r.URL.Query()
		if denied := query.Get("error"); denied != "" {
			http.Error(w, "slack install denied: "+denied, http.StatusBadRequest)
			return
		}
		if !validState(r, query.Get("state")) {
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		}
		code := strings.TrimSpace(query.Get("code"))
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/oauth/slack", MaxAge: -1})

		ctx := r.Context()
		if h.HTTPClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, h.HTTPClient)
		}
		token, err := h.config(r).Exchange(ctx, code)
		if err != nil {
			logger.Printf("slack oauth exchange failed: %v", err)
			http.Error(w, "token exchange failed", http.StatusBadRequest)
			return
		}
		record, err := workspaceFromToken(token)
		if err != nil {
			logger.Printf("slack oauth response incomplete: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := installResponse{
			Workspace:  record.Workspace,
			TeamName:   record.TeamName,
			WebhookURL: h.webhookURL(r, record.Workspace),
		}
		if h.Workspaces == nil {
			resp.Warning = "install record not saved"
		} else if err := h.Workspaces.UpsertWorkspace(ctx, record); err != nil {
			logger.Printf("slack installation upsert failed workspace=%s err=%v", record.Workspace, err)
			resp.Warning = "install record not saved"
		} else {
			logger.Printf("slack installation saved workspace=%s team=%s app_id=%s", record.Workspace, record.TeamName, record.AppID)
			if h.OnInstall != nil {
				h.OnInstall(record.Workspace)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
}

func (h *Installer) config(r *http.Request) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.OAuth.ClientID,
		ClientSecret: h.OAuth.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   h.OAuth.AuthorizeURL,
			TokenURL:  h.OAuth.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: baseURL(r, h.OAuth.RedirectBaseURL) + CallbackPath,
	}
}

func (h *Installer) webhookURL(r *http.Request, workspace string) string {
	path := h.WebhookPath
	if path == "" {
		path = "/webhooks/github"
	}
	return fmt.Sprintf("%s%s?workspace=%s", baseURL(r, h.Endpoint), path, url.QueryEscape(workspace))
}

func (h *Installer) logger() *log.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return core.NewLogger("slack-install")
}

func workspaceFromToken(token *oauth2.Token) (storage.WorkspaceRecord, error) {
	record := storage.WorkspaceRecord{
		BotToken:  token.AccessToken,
		AppID:     extraString(token, "app_id"),
		BotUserID: extraString(token, "bot_user_id"),
		Scope:     extraString(token, "scope"),
	}
	if team, ok := token.Extra("team").(map[string]interface{}); ok {
		record.Workspace, _ = team["id"].(string)
		record.TeamName, _ = team["name"].(string)
	}
	record.Workspace = strings.TrimSpace(record.Workspace)
	if record.Workspace == "" {
		return record, errors.New("slack team id missing")
	}
	if record.BotToken == "" {
		return record, errors.New("slack access token missing")
	}
	return record, nil
}

func extraString(token *oauth2.Token, key string) string {
	value, _ := token.Extra(key).(string)
	return strings.TrimSpace(value)
}

func validState(r *http.Request, state string) bool {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) == 1
}
