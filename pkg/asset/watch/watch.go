// Package watch keeps an asset database in sync with files removed from the
// project directory behind the editor's back.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-bakeao/pkg/asset"
)

// Database is what the watcher needs from the asset database.
type Database interface {
	FindByPath(path string) (asset.ID, bool)
	// FindUnder returns the assets stored below directory dir.
	FindUnder(dir string) []asset.Object
	Delete(id asset.ID)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithErrorHandler receives errors reported by the file system watcher.
func WithErrorHandler(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithDeleteHandler is called after an asset was deleted from the database.
func WithDeleteHandler(fn func(id asset.ID, path string)) Option {
	return func(w *Watcher) {
		w.onDelete = fn
	}
}

// Watcher deletes assets from a database when their file is removed or
// renamed under the project root. Asset paths are slash separated and
// relative to the root, as in "Assets/Shaders/Lit.shader".
type Watcher struct {
	root     string
	db       Database
	fsw      *fsnotify.Watcher
	onError  func(error)
	onDelete func(asset.ID, string)

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New watches root and every directory below it.
func New(root string, db Database, opts ...Option) (*Watcher, error) {
	if db == nil {
		return nil, fmt.Errorf("watch: database is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", root, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &Watcher{
		root:    abs,
		db:      db,
		fsw:     fsw,
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	if err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.wg.Wait()
	return w.fsw.Close()
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return fmt.Errorf("watch: walk %s: %w", dir, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.closeCh:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.forget(event.Name)
	case event.Has(fsnotify.Create):
		if err := w.addTree(event.Name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			w.reportError(err)
		}
	}
}

// forget deletes the asset at name, or every asset below it when name was a
// directory.
func (w *Watcher) forget(name string) {
	rel, ok := w.assetPath(name)
	if !ok {
		return
	}
	if id, found := w.db.FindByPath(rel); found {
		w.delete(id, rel)
	}
	for _, obj := range w.db.FindUnder(rel) {
		w.delete(obj.ID, obj.Path)
	}
}

func (w *Watcher) delete(id asset.ID, path string) {
	w.db.Delete(id)
	if w.onDelete != nil {
		w.onDelete(id, path)
	}
}

func (w *Watcher) assetPath(name string) (string, bool) {
	if !filepath.IsAbs(name) {
		name = filepath.Join(w.root, name)
	}
	rel, err := filepath.Rel(w.root, name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) reportError(err error) {
	if err != nil && w.onError != nil {
		w.onError(err)
	}
}
