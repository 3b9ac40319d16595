package storage

import (
	"context"
	"time"
)

// LinkRecord associates a GitHub login with a Slack user inside one workspace.
type LinkRecord struct {
	ID        string
	Workspace string
	GitHub    string
	Slack     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LinkFilter selects link rows. Workspace is required; empty fields match anything.
type LinkFilter struct {
	Workspace string
	GitHub    string
	Slack     string
}

// ErrorLogRecord captures a webhook request that failed.
type ErrorLogRecord struct {
	ID        string
	Workspace string
	RequestID string
	Time      time.Time
	Path      string
	Info      string
	DataJSON  string
}

// ErrorLogFilter selects error log rows.
type ErrorLogFilter struct {
	Workspace string
	Path      string
	Since     time.Time
	Limit     int
}

// WorkspaceRecord stores the Slack app installation for a workspace.
type WorkspaceRecord struct {
	Workspace string
	TeamName  string
	AppID     string
	BotUserID string
	BotToken  string
	Scope     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LinkStore defines persistence for GitHub to Slack account links.
type LinkStore interface {
	// ListLinks returns links matching the filter, oldest first.
	ListLinks(ctx context.Context, filter LinkFilter) ([]LinkRecord, error)
	// UpsertLink points a GitHub login at a Slack user, replacing existing links for that login.
	UpsertLink(ctx context.Context, record LinkRecord) (*LinkRecord, error)
	DeleteLinks(ctx context.Context, filter LinkFilter) (int64, error)
	Close() error
}

// ErrorLogStore defines persistence for failed webhook requests.
type ErrorLogStore interface {
	AppendErrorLog(ctx context.Context, record ErrorLogRecord) (*ErrorLogRecord, error)
	ListErrorLogs(ctx context.Context, filter ErrorLogFilter) ([]ErrorLogRecord, error)
	Close() error
}

// WorkspaceStore defines persistence for Slack workspace installations.
type WorkspaceStore interface {
	UpsertWorkspace(ctx context.Context, record WorkspaceRecord) error
	// GetWorkspace returns nil, nil when the workspace is not installed.
	GetWorkspace(ctx context.Context, workspace string) (*WorkspaceRecord, error)
	ListWorkspaces(ctx context.Context) ([]WorkspaceRecord, error)
	DeleteWorkspace(ctx context.Context, workspace string) error
	Close() error
}
