// Package menu registers editor commands under slash separated paths and
// provides the Bake AO batch commands that act on the current selection.
package menu

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrNotFound    = errors.New("menu: item not found")
	ErrDisabled    = errors.New("menu: item disabled")
	ErrDuplicate   = errors.New("menu: duplicate item")
	ErrInvalidItem = errors.New("menu: invalid item")
)

// Item is a command reachable from the editor menu. Validate, when set,
// decides whether the item is enabled.
type Item struct {
	Path     string
	Priority int
	Run      func(ctx context.Context) error
	Validate func() bool
}

// Menu is a registry of items keyed by path.
type Menu struct {
	mu    sync.RWMutex
	items map[string]Item
}

// New returns an empty menu.
func New() *Menu {
	return &Menu{items: map[string]Item{}}
}

// Register adds item. Paths are unique.
func (m *Menu) Register(item Item) error {
	item.Path = strings.Trim(strings.TrimSpace(item.Path), "/")
	if item.Path == "" || item.Run == nil {
		return fmt.Errorf("%w: path and run are required", ErrInvalidItem)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[item.Path]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, item.Path)
	}
	m.items[item.Path] = item
	return nil
}

// Items lists registered items ordered by priority then path.
func (m *Menu) Items() []Item {
	m.mu.RLock()
	out := make([]Item, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Enabled reports whether the item at path exists and validates.
func (m *Menu) Enabled(path string) bool {
	item, ok := m.lookup(path)
	if !ok {
		return false
	}
	return item.Validate == nil || item.Validate()
}

// Run invokes the item at path after checking that it is enabled.
func (m *Menu) Run(ctx context.Context, path string) error {
	item, ok := m.lookup(path)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, path)
	}
	if item.Validate != nil && !item.Validate() {
		return fmt.Errorf("%w: %q", ErrDisabled, path)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return item.Run(ctx)
}

func (m *Menu) lookup(path string) (Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[strings.Trim(strings.TrimSpace(path), "/")]
	return item, ok
}
