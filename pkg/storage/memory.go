package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryLinkStore is an in-memory LinkStore used by tests and storage-less deployments.
type MemoryLinkStore struct {
	mu      sync.RWMutex
	records []LinkRecord
}

// NewMemoryLinkStore returns an empty in-memory LinkStore.
func NewMemoryLinkStore() *MemoryLinkStore {
	return &MemoryLinkStore{}
}

// ListLinks returns matching links in insertion order.
func (m *MemoryLinkStore) ListLinks(ctx context.Context, filter LinkFilter) ([]LinkRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	workspace := ResolveWorkspace(ctx, filter.Workspace)
	if workspace == "" {
		return nil, errors.New("workspace is required")
	}
	results := make([]LinkRecord, 0)
	for _, record := range m.records {
		if record.Workspace != workspace {
			continue
		}
		if filter.GitHub != "" && record.GitHub != filter.GitHub {
			continue
		}
		if filter.Slack != "" && record.Slack != filter.Slack {
			continue
		}
		results = append(results, record)
	}
	return results, nil
}

// UpsertLink replaces existing links for the GitHub login with one pointing at record.Slack.
func (m *MemoryLinkStore) UpsertLink(ctx context.Context, record LinkRecord) (*LinkRecord, error) {
	record.Workspace = ResolveWorkspace(ctx, record.Workspace)
	if record.Workspace == "" || strings.TrimSpace(record.GitHub) == "" || strings.TrimSpace(record.Slack) == "" {
		return nil, errors.New("workspace, github, and slack are required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	kept := m.records[:0]
	for _, existing := range m.records {
		if existing.Workspace == record.Workspace && existing.GitHub == record.GitHub {
			if record.CreatedAt.IsZero() {
				record.CreatedAt = existing.CreatedAt
			}
			continue
		}
		kept = append(kept, existing)
	}
	m.records = kept
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	m.records = append(m.records, record)
	copied := record
	return &copied, nil
}

// AppendLink adds a link without replacing existing ones for the same login.
func (m *MemoryLinkStore) AppendLink(record LinkRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	m.records = append(m.records, record)
}

// DeleteLinks removes matching links and reports how many were removed.
func (m *MemoryLinkStore) DeleteLinks(ctx context.Context, filter LinkFilter) (int64, error) {
	workspace := ResolveWorkspace(ctx, filter.Workspace)
	if workspace == "" {
		return 0, errors.New("workspace is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	kept := m.records[:0]
	for _, record := range m.records {
		if record.Workspace == workspace &&
			(filter.GitHub == "" || record.GitHub == filter.GitHub) &&
			(filter.Slack == "" || record.Slack == filter.Slack) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	m.records = kept
	return removed, nil
}

func (m *MemoryLinkStore) Close() error {
	return nil
}

// MemoryErrorLogStore is an in-memory ErrorLogStore.
type MemoryErrorLogStore struct {
	mu      sync.RWMutex
	records []ErrorLogRecord
}

// NewMemoryErrorLogStore returns an empty in-memory ErrorLogStore.
func NewMemoryErrorLogStore() *MemoryErrorLogStore {
	return &MemoryErrorLogStore{}
}

func (m *MemoryErrorLogStore) AppendErrorLog(ctx context.Context, record ErrorLogRecord) (*ErrorLogRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Workspace == "" {
		record.Workspace = WorkspaceFromContext(ctx)
	}
	if record.Time.IsZero() {
		record.Time = time.Now().UTC()
	}
	m.records = append(m.records, record)
	copied := record
	return &copied, nil
}

// ListErrorLogs returns matching records, newest first.
func (m *MemoryErrorLogStore) ListErrorLogs(ctx context.Context, filter ErrorLogFilter) ([]ErrorLogRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	workspace := ResolveWorkspace(ctx, filter.Workspace)
	results := make([]ErrorLogRecord, 0)
	for _, record := range m.records {
		if workspace != "" && record.Workspace != workspace {
			continue
		}
		if filter.Path != "" && record.Path != filter.Path {
			continue
		}
		if !filter.Since.IsZero() && record.Time.Before(filter.Since) {
			continue
		}
		results = append(results, record)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Time.After(results[j].Time)
	})
	if filter.Limit > 0 && len(results) > filter.Limit {
		results = results[:filter.Limit]
	}
	return results, nil
}

func (m *MemoryErrorLogStore) Close() error {
	return nil
}

// MemoryWorkspaceStore is an in-memory WorkspaceStore.
type MemoryWorkspaceStore struct {
	mu     sync.RWMutex
	values map[string]WorkspaceRecord
}

// NewMemoryWorkspaceStore returns an empty in-memory WorkspaceStore.
func NewMemoryWorkspaceStore() *MemoryWorkspaceStore {
	return &MemoryWorkspaceStore{values: make(map[string]WorkspaceRecord)}
}

func (m *MemoryWorkspaceStore) UpsertWorkspace(ctx context.Context, record WorkspaceRecord) error {
	record.Workspace = strings.TrimSpace(record.Workspace)
	if record.Workspace == "" {
		return errors.New("workspace is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if existing, ok := m.values[record.Workspace]; ok && record.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	m.values[record.Workspace] = record
	return nil
}

func (m *MemoryWorkspaceStore) GetWorkspace(ctx context.Context, workspace string) (*WorkspaceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.values[strings.TrimSpace(workspace)]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (m *MemoryWorkspaceStore) ListWorkspaces(ctx context.Context) ([]WorkspaceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]WorkspaceRecord, 0, len(m.values))
	for _, record := range m.values {
		results = append(results, record)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Workspace < results[j].Workspace
	})
	return results, nil
}

func (m *MemoryWorkspaceStore) DeleteWorkspace(ctx context.Context, workspace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, strings.TrimSpace(workspace))
	return nil
}

func (m *MemoryWorkspaceStore) Close() error {
	return nil
}
