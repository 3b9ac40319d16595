package cache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// WorkspaceCache holds one value per Slack workspace, loading missing entries at most once concurrently.
type WorkspaceCache[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	group singleflight.Group
}

// NewWorkspaceCache initializes a workspace cache.
func NewWorkspaceCache[T any]() *WorkspaceCache[T] {
	return &WorkspaceCache[T]{items: make(map[string]T)}
}

// Get returns the cached value for the workspace.
func (c *WorkspaceCache[T]) Get(workspace string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[workspace]
	return val, ok
}

// Set stores a value for the workspace.
func (c *WorkspaceCache[T]) Set(workspace string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[workspace] = value
}

// Delete drops a workspace entry so the next GetOrLoad reloads it.
func (c *WorkspaceCache[T]) Delete(workspace string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, workspace)
}

// GetOrLoad returns the cached value or calls load once for concurrent callers.
// Failed loads are not cached.
func (c *WorkspaceCache[T]) GetOrLoad(workspace string, load func() (T, error)) (T, error) {
	if val, ok := c.Get(workspace); ok {
		return val, nil
	}
	out, err, _ := c.group.Do(workspace, func() (interface{}, error) {
		if val, ok := c.Get(workspace); ok {
			return val, nil
		}
		val, err := load()
		if err != nil {
			return val, err
		}
		c.Set(workspace, val)
		return val, nil
	})
	val, _ := out.(T)
	return val, err
}
