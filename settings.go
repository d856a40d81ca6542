package bakeao

import (
	"context"
	"slices"
	"sync"

	"github.com/goliatone/go-bakeao/pkg/activity"
	"github.com/goliatone/go-bakeao/pkg/asset"
	"github.com/goliatone/go-bakeao/pkg/state"
)

// Settings is the project wide Bake AO configuration: which shaders accept
// a baked AO texture, how other shaders are remapped to AO capable ones,
// which layers occlude each other while baking and whether materials of
// static objects are baked.
//
// Asset references are weak. Entries whose asset was deleted are purged
// lazily by a validation pass that runs before lookups.
type Settings struct {
	mu      sync.Mutex
	db      asset.Database
	cfg     config
	emitter *activity.Emitter

	supported  []asset.ID
	remaps     []RemapEntry
	layers     LayerMatrix
	bakeStatic bool

	dirty     bool
	revision  uint64
	stale     bool
	validated bool
	lastFrame int64
	meta      state.Meta

	unsubscribe func()
}

// New returns empty settings bound to db. When db publishes deletions the
// settings subscribe to them; call Close to detach.
func New(db asset.Database, opts ...Option) *Settings {
	cfg := applyOptions(opts)
	if cfg.undo == nil {
		if undo, ok := db.(asset.UndoRecorder); ok {
			cfg.undo = undo
		}
	}
	s := &Settings{
		db:        db,
		cfg:       cfg,
		emitter:   activity.NewEmitter(cfg.hooks, cfg.activity),
		supported: []asset.ID{},
		remaps:    []RemapEntry{},
		layers:    DefaultLayerMatrix(),
		stale:     true,
	}
	if notifier, ok := db.(asset.Notifier); ok {
		s.unsubscribe = notifier.Subscribe(asset.ListenerFunc(func(asset.ID) {
			s.Invalidate()
		}))
	}
	return s
}

// Close detaches the settings from database notifications.
func (s *Settings) Close() {
	s.mu.Lock()
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()
	if unsubscribe != nil {
		unsubscribe()
	}
}

// Invalidate forces the next validation pass to run. Without a frame
// counter this is how callers signal that referenced assets may be gone.
func (s *Settings) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

func (s *Settings) markDirtyLocked() {
	s.dirty = true
	s.revision++
}

// Dirty reports whether the settings changed since they were last loaded or
// flushed.
func (s *Settings) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// DoesObjectsInteract reports whether objects on layer other affect objects
// on layer baked while baking.
func (s *Settings) DoesObjectsInteract(baked, other int) (bool, error) {
	if !validLayer(baked) || !validLayer(other) {
		return false, &LayerRangeError{Baked: baked, Other: other}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers.Interacts(baked, other), nil
}

// SetObjectsInteract sets or clears bit other of row baked.
func (s *Settings) SetObjectsInteract(baked, other int, interact bool) error {
	if !validLayer(baked) || !validLayer(other) {
		return &LayerRangeError{Baked: baked, Other: other}
	}
	s.mu.Lock()
	old := s.layers[baked]
	next := old.Without(other)
	if interact {
		next = old.With(other)
	}
	changed := s.setRowLocked(baked, next)
	s.mu.Unlock()
	if changed {
		s.emitLayers(baked, old, next)
	}
	return nil
}

// LayerMask returns the interaction row of layer.
func (s *Settings) LayerMask(layer int) (LayerMask, error) {
	if !validLayer(layer) {
		return 0, &LayerRangeError{Baked: layer, Other: 0}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers[layer], nil
}

// SetLayerMask replaces the interaction row of layer.
func (s *Settings) SetLayerMask(layer int, mask LayerMask) error {
	if !validLayer(layer) {
		return &LayerRangeError{Baked: layer, Other: 0}
	}
	s.mu.Lock()
	old := s.layers[layer]
	changed := s.setRowLocked(layer, mask)
	s.mu.Unlock()
	if changed {
		s.emitLayers(layer, old, mask)
	}
	return nil
}

func (s *Settings) setRowLocked(layer int, mask LayerMask) bool {
	if s.layers[layer] == mask {
		return false
	}
	s.layers[layer] = mask
	s.markDirtyLocked()
	return true
}

// Layers returns a copy of the interaction matrix.
func (s *Settings) Layers() LayerMatrix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layers
}

// BakeMaterialsForStatic reports whether materials of static objects are
// baked.
func (s *Settings) BakeMaterialsForStatic() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bakeStatic
}

// SetBakeMaterialsForStatic toggles baking of static object materials.
func (s *Settings) SetBakeMaterialsForStatic(enabled bool) {
	s.mu.Lock()
	if s.bakeStatic != enabled {
		s.bakeStatic = enabled
		s.markDirtyLocked()
	}
	s.mu.Unlock()
}

// IsShaderSupported reports whether shader accepts a baked AO texture.
func (s *Settings) IsShaderSupported(shader asset.ID) bool {
	s.mu.Lock()
	purged := s.validateLocked()
	ok := slices.Contains(s.supported, shader)
	s.mu.Unlock()
	s.reportPurge(purged)
	return ok
}

// CanShaderBeRemapped reports whether some remap entry takes shader to a
// live target.
func (s *Settings) CanShaderBeRemapped(shader asset.ID) bool {
	s.mu.Lock()
	purged := s.validateLocked()
	ok := s.canRemapLocked(shader)
	s.mu.Unlock()
	s.reportPurge(purged)
	return ok
}

func (s *Settings) canRemapLocked(shader asset.ID) bool {
	_, ok := s.liveTargetLocked(shader)
	return ok
}

// liveTargetLocked returns the target of the first entry for shader whose
// target still exists.
func (s *Settings) liveTargetLocked(shader asset.ID) (asset.ID, bool) {
	for _, entry := range s.remaps {
		if entry.Source == shader && s.alive(entry.Target) {
			return entry.Target, true
		}
	}
	return asset.Nil, false
}

// MarkShaderAsSupported adds shader to the supported set. Marking a shader
// twice has no further effect.
func (s *Settings) MarkShaderAsSupported(shader asset.ID) {
	s.mu.Lock()
	purged := s.validateLocked()
	added := false
	if !slices.Contains(s.supported, shader) {
		s.supported = append(s.supported, shader)
		s.markDirtyLocked()
		s.stale = true
		added = true
	}
	s.mu.Unlock()
	s.reportPurge(purged)
	if added {
		s.emit(activity.BuildShaderEvent(activity.VerbShaderSupported, s.eventInput(shader.String())))
	}
}

// MarkShaderAsUnsupported removes shader from the supported set.
func (s *Settings) MarkShaderAsUnsupported(shader asset.ID) {
	s.mu.Lock()
	purged := s.validateLocked()
	removed := s.removeSupportedLocked(shader)
	s.mu.Unlock()
	s.reportPurge(purged)
	if removed {
		s.emit(activity.BuildShaderEvent(activity.VerbShaderUnsupported, s.eventInput(shader.String())))
	}
}

// RemoveShaderFromSupported removes shader from the supported set without
// running the validation pass.
func (s *Settings) RemoveShaderFromSupported(shader asset.ID) {
	s.mu.Lock()
	removed := s.removeSupportedLocked(shader)
	s.mu.Unlock()
	if removed {
		s.emit(activity.BuildShaderEvent(activity.VerbShaderUnsupported, s.eventInput(shader.String())))
	}
}

func (s *Settings) removeSupportedLocked(shader asset.ID) bool {
	idx := slices.Index(s.supported, shader)
	if idx < 0 {
		return false
	}
	s.supported = slices.Delete(s.supported, idx, idx+1)
	s.markDirtyLocked()
	return true
}

// SupportedShaders returns the supported set in insertion order.
func (s *Settings) SupportedShaders() []asset.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.supported)
}

// AddShaderRemap appends the pair unless the exact pair is present. Entries
// sharing a source with different targets are kept; lookups use the first.
func (s *Settings) AddShaderRemap(source, target asset.ID) {
	entry := RemapEntry{Source: source, Target: target}
	s.mu.Lock()
	added := false
	if !slices.Contains(s.remaps, entry) {
		s.remaps = append(s.remaps, entry)
		s.markDirtyLocked()
		s.stale = true
		added = true
	}
	s.mu.Unlock()
	if added {
		s.emit(activity.BuildRemapEvent(activity.VerbRemapAdded, s.remapInput(entry)))
	}
}

// RemoveShaderRemap removes the exact pair if present.
func (s *Settings) RemoveShaderRemap(source, target asset.ID) {
	entry := RemapEntry{Source: source, Target: target}
	s.mu.Lock()
	idx := slices.Index(s.remaps, entry)
	if idx >= 0 {
		s.remaps = slices.Delete(s.remaps, idx, idx+1)
		s.markDirtyLocked()
	}
	s.mu.Unlock()
	if idx >= 0 {
		s.emit(activity.BuildRemapEvent(activity.VerbRemapRemoved, s.remapInput(entry)))
	}
}

// RemapTarget returns the target of the first entry whose source is source.
func (s *Settings) RemapTarget(source asset.ID) (asset.ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remapTargetLocked(source)
}

func (s *Settings) remapTargetLocked(source asset.ID) (asset.ID, bool) {
	for _, entry := range s.remaps {
		if entry.Source == source {
			return entry.Target, true
		}
	}
	return asset.Nil, false
}

// Remaps returns the remap table in insertion order.
func (s *Settings) Remaps() []RemapEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.remaps)
}

// CanUpdateMaterial reports whether material is a main asset whose current
// shader is the source of some remap entry.
func (s *Settings) CanUpdateMaterial(material asset.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.canUpdateLocked(material)
	return ok
}

func (s *Settings) canUpdateLocked(material asset.ID) (asset.Object, bool) {
	obj, ok := s.material(material)
	if !ok || !s.db.IsMainAsset(material) {
		return obj, false
	}
	for _, entry := range s.remaps {
		if entry.Source == obj.Shader {
			return obj, true
		}
	}
	return obj, false
}

// IsMaterialSupported reports whether the material's shader is supported.
func (s *Settings) IsMaterialSupported(material asset.ID) bool {
	obj, ok := s.material(material)
	if !ok {
		return false
	}
	return s.IsShaderSupported(obj.Shader)
}

// material looks up a material asset. Settings built without a database
// know no materials.
func (s *Settings) material(id asset.ID) (asset.Object, bool) {
	if s.db == nil {
		return asset.Object{}, false
	}
	obj, ok := s.db.Lookup(id)
	if !ok || obj.Kind != asset.KindMaterial {
		return asset.Object{}, false
	}
	return obj, true
}

// UpdateMaterial switches the material to the AO capable shader its current
// shader remaps to, recording undo and saving the material right away. The
// first entry whose target still exists is used.
//
// It fails with ErrInvalidOperation when CanUpdateMaterial is false. A
// material whose shader has no live target is logged and left unchanged.
func (s *Settings) UpdateMaterial(ctx context.Context, material asset.ID) error {
	s.mu.Lock()
	purged := s.validateLocked()
	obj, ok := s.canUpdateLocked(material)
	if !ok {
		s.mu.Unlock()
		s.reportPurge(purged)
		return &MaterialError{Material: material, Reason: "cannot update this material", Err: ErrInvalidOperation}
	}
	target, ok := s.liveTargetLocked(obj.Shader)
	s.mu.Unlock()
	s.reportPurge(purged)
	if !ok {
		s.cfg.logger.Log(LogEvent{Level: LevelError, Message: "material shader can't be remapped", Object: &obj})
		return nil
	}

	if s.cfg.undo != nil {
		s.cfg.undo.RecordObject(material, "Change material shader")
	}
	if err := s.db.SetMaterialShader(material, target); err != nil {
		return &MaterialError{Material: material, Reason: "assign shader", Err: err}
	}
	s.db.SetDirty(material)
	if err := s.db.SaveIfDirty(ctx, material); err != nil {
		return &MaterialError{Material: material, Reason: "save", Err: err}
	}

	input := s.eventInput(material.String())
	input.OldValue = obj.Shader.String()
	input.NewValue = target.String()
	s.emitContext(ctx, activity.BuildMaterialUpdatedEvent(input))
	return nil
}

func (s *Settings) alive(id asset.ID) bool {
	if id.IsNil() {
		return false
	}
	if s.db == nil {
		return true
	}
	return s.db.Exists(id)
}

func (s *Settings) eventInput(objectID string) activity.SettingsEventInput {
	return activity.SettingsEventInput{
		ActorID:  s.cfg.activity.ActorID,
		Project:  s.cfg.ref.Project,
		ObjectID: objectID,
	}
}

func (s *Settings) remapInput(entry RemapEntry) activity.SettingsEventInput {
	input := s.eventInput("")
	input.Source = entry.Source.String()
	input.Target = entry.Target.String()
	return input
}

func (s *Settings) emitLayers(layer int, old, next LayerMask) {
	input := s.eventInput("")
	input.OldValue = uint32(old)
	input.NewValue = uint32(next)
	input.Metadata = map[string]any{"layer": layer}
	s.emit(activity.BuildSettingsEvent(activity.VerbLayersChanged, input))
}

func (s *Settings) emit(event activity.Event) {
	s.emitContext(context.Background(), event)
}

func (s *Settings) emitContext(ctx context.Context, event activity.Event) {
	if !s.emitter.Enabled() {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.cfg.logger.Log(LogEvent{
			Level:   LevelWarn,
			Message: "activity hook failed",
			Err:     err,
			Fields:  map[string]any{"verb": event.Verb},
		})
	}
}
