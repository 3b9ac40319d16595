package storage

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// ResolveWorkspace prefers an explicit workspace over the one carried by ctx.
func ResolveWorkspace(ctx context.Context, explicit string) string {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		return explicit
	}
	return WorkspaceFromContext(ctx)
}

// WorkspaceScope restricts a query to the resolved workspace when one is known.
func WorkspaceScope(ctx context.Context, explicitWorkspace, column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		workspace := ResolveWorkspace(ctx, explicitWorkspace)
		if workspace == "" {
			return db
		}
		col := strings.TrimSpace(column)
		if col == "" {
			col = "workspace"
		}
		return db.Where(col+" = ?", workspace)
	}
}
