package state_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-bakeao/pkg/state"
)

type profile struct {
	Name   string   `json:"name" yaml:"name" toml:"name"`
	Shades []string `json:"shades" yaml:"shades" toml:"shades"`
	Masks  []uint32 `json:"masks" yaml:"masks" toml:"masks"`
	Static bool     `json:"static" yaml:"static" toml:"static"`
}

func (p *profile) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func TestRefIdentifier(t *testing.T) {
	cases := []struct {
		name string
		ref  state.Ref
		want string
		err  bool
	}{
		{name: "default project", ref: state.Ref{Domain: "bakeao"}, want: "default/bakeao"},
		{name: "explicit project", ref: state.Ref{Domain: "bakeao", Project: " forest "}, want: "forest/bakeao"},
		{name: "missing domain", ref: state.Ref{Project: "forest"}, err: true},
		{name: "path traversal", ref: state.Ref{Domain: "bakeao", Project: ".."}, err: true},
		{name: "nested segment", ref: state.Ref{Domain: "a/b"}, err: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.ref.Identifier()
			if tc.err {
				if !errors.Is(err, state.ErrInvalidRef) {
					t.Fatalf("expected ErrInvalidRef, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestMemoryStoreIsolatesSnapshots(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[profile]()
	ref := state.Ref{Domain: "bakeao", Project: "forest"}

	original := profile{Name: "forest", Shades: []string{"a"}}
	meta, err := store.Save(ctx, ref, original, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if meta.ETag == "" || meta.SnapshotID == "" || meta.UpdatedAt.IsZero() {
		t.Fatalf("expected store to stamp meta, got %+v", meta)
	}

	original.Shades[0] = "mutated"
	loaded, loadedMeta, ok, err := store.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.Shades[0] != "a" {
		t.Fatalf("expected stored snapshot isolated from caller, got %v", loaded.Shades)
	}
	if loadedMeta.ETag != meta.ETag {
		t.Fatalf("expected etag %q, got %q", meta.ETag, loadedMeta.ETag)
	}

	loaded.Shades[0] = "mutated again"
	again, _, _, _ := store.Load(ctx, ref)
	if again.Shades[0] != "a" {
		t.Fatalf("expected loaded snapshot isolated from store, got %v", again.Shades)
	}

	if _, _, ok, err := store.Load(ctx, state.Ref{Domain: "other"}); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if store.Len() != 1 {
		t.Fatalf("expected one record, got %d", store.Len())
	}
}

func TestMemoryStoreRejectsStaleETag(t *testing.T) {
	ctx := context.Background()
	store := state.NewMemoryStore[profile]()
	ref := state.Ref{Domain: "bakeao"}

	first, err := store.Save(ctx, ref, profile{Name: "v1"}, state.Meta{})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := store.Save(ctx, ref, profile{Name: "v2"}, state.Meta{ETag: first.ETag})
	if err != nil {
		t.Fatalf("save with current etag: %v", err)
	}
	if second.ETag == first.ETag {
		t.Fatalf("expected etag to rotate")
	}
	if _, err := store.Save(ctx, ref, profile{Name: "v3"}, state.Meta{ETag: first.ETag}); !errors.Is(err, state.ErrETagMismatch) {
		t.Fatalf("expected ErrETagMismatch, got %v", err)
	}
}
