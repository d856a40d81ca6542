package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrETagMismatch = errors.New("state: etag mismatch")

var ErrInvalidRef = errors.New("state: invalid ref")

// DefaultProject is used when a Ref carries no project.
const DefaultProject = "default"

// Ref identifies one persisted snapshot for one settings domain.
type Ref struct {
	Domain  string
	Project string
}

// Meta is storage-owned metadata used for audit and concurrency control.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty" toml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty" toml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty" toml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty" toml:"extra,omitempty"`
}

// Store loads/saves one snapshot for a single reference. Save must reject a
// non-empty meta.ETag that does not match the stored one with
// ErrETagMismatch, and returns the meta as persisted.
type Store[T any] interface {
	Load(ctx context.Context, ref Ref) (snapshot T, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error)
}

type Mutator[T any] func(*T) error

// Identifier returns the canonical storage key for r.
func (r Ref) Identifier() (string, error) {
	domain := strings.TrimSpace(r.Domain)
	if domain == "" {
		return "", fmt.Errorf("%w: domain is required", ErrInvalidRef)
	}
	project := strings.TrimSpace(r.Project)
	if project == "" {
		project = DefaultProject
	}
	for _, part := range []string{domain, project} {
		if strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q is not a valid key segment", ErrInvalidRef, part)
		}
	}
	return project + "/" + domain, nil
}

// Mutate loads one snapshot, applies fn, validates the result when it
// implements Validate() error, then saves it. A missing snapshot starts from
// the zero value.
func Mutate[T any](ctx context.Context, store Store[T], ref Ref, meta Meta, fn Mutator[T]) (T, Meta, error) {
	var zero T
	if store == nil {
		return zero, Meta{}, fmt.Errorf("state: store is required")
	}
	if fn == nil {
		return zero, Meta{}, fmt.Errorf("state: mutator is required")
	}
	if _, err := ref.Identifier(); err != nil {
		return zero, Meta{}, err
	}

	snapshot, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil {
		return zero, Meta{}, fmt.Errorf("state: load %q for project %q: %w", ref.Domain, ref.Project, err)
	}
	if !ok {
		snapshot = zero
		loadedMeta = Meta{}
	}

	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return zero, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&snapshot); err != nil {
		return zero, loadedMeta, err
	}

	if v, ok := any(&snapshot).(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return zero, loadedMeta, err
		}
	}

	savedMeta, err := store.Save(ctx, ref, snapshot, mergeMeta(loadedMeta, meta))
	if err != nil {
		return zero, loadedMeta, fmt.Errorf("state: save %q for project %q: %w", ref.Domain, ref.Project, err)
	}
	return snapshot, savedMeta, nil
}

// nextMeta stamps a fresh ETag, snapshot ID and timestamp on meta.
func nextMeta(meta Meta, now time.Time) Meta {
	out := cloneMeta(meta)
	out.ETag = uuid.NewString()
	out.SnapshotID = uuid.NewString()
	out.UpdatedAt = now.UTC().Truncate(time.Millisecond)
	return out
}

func checkETag(expected, stored string) error {
	if expected == "" || stored == "" || expected == stored {
		return nil
	}
	return fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, expected, stored)
}

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}

func cloneMeta(meta Meta) Meta {
	out := meta
	if meta.Extra == nil {
		return out
	}
	out.Extra = make(map[string]string, len(meta.Extra))
	for k, v := range meta.Extra {
		out.Extra[k] = v
	}
	return out
}
