package asset

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNotFound is returned for handles that do not resolve.
var ErrNotFound = errors.New("asset: not found")

// ErrWrongKind is returned when an operation targets an asset of the wrong kind.
var ErrWrongKind = errors.New("asset: wrong kind")

// MemoryDatabase is an in-memory Database that also implements Selection,
// UndoRecorder and Notifier.
type MemoryDatabase struct {
	mu        sync.RWMutex
	objects   map[ID]Object
	dirty     map[ID]struct{}
	saves     map[ID]int
	selection []ID
	undo      []UndoRecord
	listeners map[int]Listener
	nextSub   int
}

// UndoRecord captures an object state recorded before an edit.
type UndoRecord struct {
	Label  string
	Object Object
}

// NewMemoryDatabase returns an empty database.
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		objects:   map[ID]Object{},
		dirty:     map[ID]struct{}{},
		saves:     map[ID]int{},
		listeners: map[int]Listener{},
	}
}

// Add stores obj, assigning a fresh ID when obj.ID is Nil.
func (db *MemoryDatabase) Add(obj Object) ID {
	if obj.ID.IsNil() {
		obj.ID = NewID()
	}
	if obj.Kind == "" {
		obj.Kind = KindOther
	}
	db.mu.Lock()
	db.objects[obj.ID] = obj
	db.mu.Unlock()
	return obj.ID
}

// AddShader is shorthand for adding a main shader asset.
func (db *MemoryDatabase) AddShader(name string) ID {
	return db.Add(Object{Kind: KindShader, Name: name, Path: "Assets/Shaders/" + name + ".shader", Main: true})
}

// AddMaterial is shorthand for adding a material using shader.
func (db *MemoryDatabase) AddMaterial(name string, shader ID, main bool) ID {
	return db.Add(Object{Kind: KindMaterial, Name: name, Path: "Assets/Materials/" + name + ".mat", Main: main, Shader: shader})
}

// Delete removes the asset and notifies subscribers. Deleting an unknown
// handle is a no-op.
func (db *MemoryDatabase) Delete(id ID) {
	db.mu.Lock()
	if _, ok := db.objects[id]; !ok {
		db.mu.Unlock()
		return
	}
	delete(db.objects, id)
	delete(db.dirty, id)
	listeners := make([]Listener, 0, len(db.listeners))
	for _, l := range db.listeners {
		listeners = append(listeners, l)
	}
	db.mu.Unlock()

	for _, l := range listeners {
		l.AssetDeleted(id)
	}
}

// FindByPath returns the handle of the asset stored at path.
func (db *MemoryDatabase) FindByPath(path string) (ID, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	for id, obj := range db.objects {
		if obj.Path == path {
			return id, true
		}
	}
	return Nil, false
}

// FindUnder returns the assets stored below directory dir, sorted by path.
func (db *MemoryDatabase) FindUnder(dir string) []Object {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	db.mu.RLock()
	defer db.mu.RUnlock()
	var out []Object
	for _, obj := range db.objects {
		if strings.HasPrefix(obj.Path, prefix) {
			out = append(out, obj)
		}
	}
	slices.SortFunc(out, func(a, b Object) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// Lookup implements Database.
func (db *MemoryDatabase) Lookup(id ID) (Object, bool) {
	if id.IsNil() {
		return Object{}, false
	}
	db.mu.RLock()
	obj, ok := db.objects[id]
	db.mu.RUnlock()
	return obj, ok
}

// Exists implements Database.
func (db *MemoryDatabase) Exists(id ID) bool {
	_, ok := db.Lookup(id)
	return ok
}

// IsMainAsset implements Database.
func (db *MemoryDatabase) IsMainAsset(id ID) bool {
	obj, ok := db.Lookup(id)
	return ok && obj.Main
}

// SetMaterialShader implements Database.
func (db *MemoryDatabase) SetMaterialShader(material, shader ID) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	obj, ok := db.objects[material]
	if !ok {
		return fmt.Errorf("%w: material %s", ErrNotFound, material)
	}
	if obj.Kind != KindMaterial {
		return fmt.Errorf("%w: %s is a %s", ErrWrongKind, material, obj.Kind)
	}
	obj.Shader = shader
	db.objects[material] = obj
	return nil
}

// SetDirty implements Database.
func (db *MemoryDatabase) SetDirty(id ID) {
	db.mu.Lock()
	if _, ok := db.objects[id]; ok {
		db.dirty[id] = struct{}{}
	}
	db.mu.Unlock()
}

// IsDirty reports whether id has unsaved changes.
func (db *MemoryDatabase) IsDirty(id ID) bool {
	db.mu.RLock()
	_, ok := db.dirty[id]
	db.mu.RUnlock()
	return ok
}

// SaveIfDirty implements Database.
func (db *MemoryDatabase) SaveIfDirty(ctx context.Context, id ID) error {
	if ctx != nil {
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.dirty[id]; !ok {
		return nil
	}
	delete(db.dirty, id)
	db.saves[id]++
	return nil
}

// Saves returns how many times id was written.
func (db *MemoryDatabase) Saves(id ID) int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.saves[id]
}

// Select replaces the current selection.
func (db *MemoryDatabase) Select(ids ...ID) {
	db.mu.Lock()
	db.selection = append([]ID(nil), ids...)
	db.mu.Unlock()
}

// Selected implements Selection.
func (db *MemoryDatabase) Selected() []ID {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]ID(nil), db.selection...)
}

// RecordObject implements UndoRecorder.
func (db *MemoryDatabase) RecordObject(id ID, label string) {
	db.mu.Lock()
	defer db.mu.Unlock()
	obj, ok := db.objects[id]
	if !ok {
		return
	}
	db.undo = append(db.undo, UndoRecord{Label: label, Object: obj})
}

// UndoHistory returns the recorded undo entries, oldest first.
func (db *MemoryDatabase) UndoHistory() []UndoRecord {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]UndoRecord(nil), db.undo...)
}

// Undo restores the most recent recorded state. It reports false when the
// history is empty.
func (db *MemoryDatabase) Undo() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.undo) == 0 {
		return false
	}
	last := db.undo[len(db.undo)-1]
	db.undo = db.undo[:len(db.undo)-1]
	if _, ok := db.objects[last.Object.ID]; !ok {
		return true
	}
	db.objects[last.Object.ID] = last.Object
	db.dirty[last.Object.ID] = struct{}{}
	return true
}

// Subscribe implements Notifier.
func (db *MemoryDatabase) Subscribe(listener Listener) func() {
	if listener == nil {
		return func() {}
	}
	db.mu.Lock()
	key := db.nextSub
	db.nextSub++
	db.listeners[key] = listener
	db.mu.Unlock()
	return func() {
		db.mu.Lock()
		delete(db.listeners, key)
		db.mu.Unlock()
	}
}
