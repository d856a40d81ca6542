package bakeao

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/goliatone/go-bakeao/pkg/activity"
	"github.com/goliatone/go-bakeao/pkg/asset"
	"github.com/goliatone/go-bakeao/pkg/state"
)

// FormatVersion is the settings document layout written by Flush. It is
// stored in the document meta under the format_version key.
const FormatVersion = "2.0.0"

const (
	formatVersionKey   = "format_version"
	legacySupportedKey = "shadersThatSupportsBakeAO"
)

var currentFormat = semver.MustParse(FormatVersion)

// outdatedFormat reports whether meta describes a document written by an
// older layout, including documents that predate versioning.
func outdatedFormat(meta state.Meta) (string, bool) {
	raw := strings.TrimSpace(meta.Extra[formatVersionKey])
	if raw == "" {
		return "", true
	}
	version, err := semver.NewVersion(raw)
	if err != nil {
		return raw, true
	}
	return raw, version.LessThan(currentFormat)
}

// Open loads the settings persisted under ref, creating and saving defaults
// when the store has none.
func Open(ctx context.Context, store state.Store[Snapshot], ref state.Ref, db asset.Database, opts ...Option) (*Settings, error) {
	if store == nil {
		return nil, ErrNoStore
	}
	s := New(db, append(opts[:len(opts):len(opts)], WithStore(store, ref))...)
	snapshot, meta, ok, err := store.Load(ctx, s.cfg.ref)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("bakeao: load settings: %w", err)
	}
	if !ok {
		s.mu.Lock()
		s.markDirtyLocked()
		s.mu.Unlock()
		if err := s.Flush(ctx); err != nil {
			s.Close()
			return nil, err
		}
		return s, nil
	}
	s.Restore(snapshot)
	from, outdated := outdatedFormat(meta)
	s.mu.Lock()
	s.meta = meta
	if outdated {
		s.markDirtyLocked()
	}
	s.mu.Unlock()
	if outdated {
		s.cfg.logger.Log(LogEvent{
			Level:   LevelInfo,
			Message: "settings document will be rewritten in the current format",
			Fields:  map[string]any{"from": from, "to": FormatVersion},
		})
	}
	return s, nil
}

// Snapshot returns the persistable form of the settings.
func (s *Settings) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Settings) snapshotLocked() Snapshot {
	return Snapshot{
		ShadersThatSupportBakeAO:          slices.Clone(s.supported),
		ShaderRemap:                       slices.Clone(s.remaps),
		LayersInteraction:                 s.layers.rows(),
		BakeMaterialsForStaticGameObjects: s.bakeStatic,
	}
}

// Restore replaces the settings with snapshot. A layer list of the wrong
// length is padded with AllLayers or truncated, which leaves the settings
// dirty so the fix is written back on the next Flush.
func (s *Settings) Restore(snapshot Snapshot) {
	layers, resized := layerMatrixFromRows(snapshot.LayersInteraction)

	s.mu.Lock()
	s.supported = append([]asset.ID{}, snapshot.ShadersThatSupportBakeAO...)
	s.remaps = append([]RemapEntry{}, snapshot.ShaderRemap...)
	s.layers = layers
	s.bakeStatic = snapshot.BakeMaterialsForStaticGameObjects
	s.dirty = resized
	s.revision++
	s.stale = true
	s.validated = false
	s.mu.Unlock()

	if resized {
		s.cfg.logger.Log(LogEvent{
			Level:   LevelInfo,
			Message: "normalized layer interaction rows",
			Fields:  map[string]any{"rows": len(snapshot.LayersInteraction)},
		})
	}
}

// Meta returns the storage metadata of the last load or flush.
func (s *Settings) Meta() state.Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Flush writes the settings to the configured store when they are dirty.
// Concurrent writers are detected through the stored ETag. Changes made
// while the store is saving keep the settings dirty.
func (s *Settings) Flush(ctx context.Context) error {
	if s.cfg.store == nil {
		return ErrNoStore
	}
	s.mu.Lock()
	dirty := s.dirty
	revision := s.revision
	snapshot := s.snapshotLocked()
	expected := state.Meta{ETag: s.meta.ETag, Extra: map[string]string{}}
	for k, v := range s.meta.Extra {
		expected.Extra[k] = v
	}
	expected.Extra[formatVersionKey] = FormatVersion
	s.mu.Unlock()
	if !dirty {
		return nil
	}

	_, meta, err := state.Mutate(ctx, s.cfg.store, s.cfg.ref, expected, func(current *Snapshot) error {
		*current = snapshot
		return nil
	})
	if err != nil {
		return fmt.Errorf("bakeao: flush settings: %w", err)
	}

	s.mu.Lock()
	s.meta = meta
	if s.revision == revision {
		s.dirty = false
	}
	s.mu.Unlock()

	input := s.eventInput("")
	input.Metadata = map[string]any{"etag": meta.ETag, "snapshot_id": meta.SnapshotID}
	s.emitContext(ctx, activity.BuildSettingsEvent(activity.VerbSettingsSaved, input))
	return nil
}

// NewFileStore returns a file store for settings snapshots that migrates
// older document layouts on load.
func NewFileStore(root string, opts ...state.FileStoreOption[Snapshot]) *state.FileStore[Snapshot] {
	all := append([]state.FileStoreOption[Snapshot]{state.WithPayloadHook[Snapshot](MigratePayload)}, opts...)
	return state.NewFileStore[Snapshot](root, all...)
}

// MigratePayload rewrites a decoded settings document written by older
// versions or exported straight from the host editor:
//
//   - the shadersThatSupportsBakeAO key is renamed;
//   - signed masks (-1) and {m_Bits: n} mask objects become unsigned masks;
//   - {guid: ..., fileID: ...} references become GUID strings;
//   - 0/1 flags become booleans.
func MigratePayload(payload map[string]any) (map[string]any, error) {
	if payload == nil {
		return payload, nil
	}
	if legacy, ok := payload[legacySupportedKey]; ok {
		if _, exists := payload["shadersThatSupportBakeAO"]; !exists {
			payload["shadersThatSupportBakeAO"] = legacy
		}
		delete(payload, legacySupportedKey)
	}

	if list, ok := payload["shadersThatSupportBakeAO"].([]any); ok {
		for i, item := range list {
			list[i] = migrateReference(item)
		}
	}

	if list, ok := payload["shaderRemap"].([]any); ok {
		for _, item := range list {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			for _, key := range []string{"nonBakeAOShader", "bakeAOShader"} {
				if value, ok := entry[key]; ok {
					entry[key] = migrateReference(value)
				}
			}
		}
	}

	if list, ok := payload["layersInteraction"].([]any); ok {
		for i, item := range list {
			mask, err := migrateMask(item)
			if err != nil {
				return nil, fmt.Errorf("bakeao: layersInteraction[%d]: %w", i, err)
			}
			list[i] = mask
		}
	}

	if value, ok := payload["bakeMaterialsForStaticGameObjects"]; ok {
		if n, ok := toInt64(value); ok {
			payload["bakeMaterialsForStaticGameObjects"] = n != 0
		}
	}
	return payload, nil
}

func migrateReference(value any) any {
	ref, ok := value.(map[string]any)
	if !ok {
		if value == nil {
			return ""
		}
		return value
	}
	guid, _ := ref["guid"].(string)
	return strings.TrimSpace(guid)
}

func migrateMask(value any) (int64, error) {
	if obj, ok := value.(map[string]any); ok {
		for _, key := range []string{"m_Bits", "value"} {
			if inner, ok := obj[key]; ok {
				return migrateMask(inner)
			}
		}
		return 0, fmt.Errorf("%w: mask object without m_Bits", ErrInvalidArgument)
	}
	n, ok := toInt64(value)
	if !ok {
		return 0, fmt.Errorf("%w: mask %v is not a number", ErrInvalidArgument, value)
	}
	if n < math.MinInt32 || n > math.MaxUint32 {
		return 0, fmt.Errorf("%w: mask %d out of range", ErrInvalidArgument, n)
	}
	if n < 0 {
		return int64(uint32(int32(n))), nil
	}
	return n, nil
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
