package storage

import (
	"context"
	"strings"
)

type workspaceKey struct{}

// WithWorkspace attaches a workspace key to a context.
func WithWorkspace(ctx context.Context, workspace string) context.Context {
	workspace = strings.TrimSpace(workspace)
	if workspace == "" {
		return ctx
	}
	return context.WithValue(ctx, workspaceKey{}, workspace)
}

// WorkspaceFromContext returns the workspace key stored in the context, if any.
func WorkspaceFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(workspaceKey{}).(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}
