package state_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-bakeao/pkg/state"
)

func TestFileStoreRoundTripPerCodec(t *testing.T) {
	for _, codec := range []state.Codec{state.YAML, state.TOML, state.JSON} {
		t.Run(codec.Name(), func(t *testing.T) {
			ctx := context.Background()
			store := state.NewFileStore[profile](t.TempDir(), state.WithCodec[profile](codec))
			ref := state.Ref{Domain: "bakeao", Project: "forest"}

			want := profile{Name: "forest", Shades: []string{"a", "b"}, Masks: []uint32{0xFFFFFFFF, 3}, Static: true}
			meta, err := store.Save(ctx, ref, want, state.Meta{Extra: map[string]string{"by": "test"}})
			if err != nil {
				t.Fatalf("save: %v", err)
			}

			path, err := store.Path(ref)
			if err != nil {
				t.Fatalf("path: %v", err)
			}
			if !strings.HasSuffix(path, codec.Ext()) {
				t.Fatalf("expected %s extension, got %s", codec.Ext(), path)
			}
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("expected file on disk: %v", err)
			}

			got, gotMeta, ok, err := store.Load(ctx, ref)
			if err != nil || !ok {
				t.Fatalf("load: ok=%v err=%v", ok, err)
			}
			if got.Name != want.Name || !got.Static || len(got.Shades) != 2 || got.Masks[0] != 0xFFFFFFFF {
				t.Fatalf("unexpected snapshot: %+v", got)
			}
			if gotMeta.ETag != meta.ETag || gotMeta.Extra["by"] != "test" {
				t.Fatalf("unexpected meta: %+v", gotMeta)
			}
			if !gotMeta.UpdatedAt.Equal(meta.UpdatedAt) {
				t.Fatalf("expected updated_at %v, got %v", meta.UpdatedAt, gotMeta.UpdatedAt)
			}

			if _, err := store.Save(ctx, ref, want, state.Meta{ETag: "stale"}); !errors.Is(err, state.ErrETagMismatch) {
				t.Fatalf("expected ErrETagMismatch, got %v", err)
			}
		})
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := state.NewFileStore[profile](t.TempDir())
	_, _, ok, err := store.Load(context.Background(), state.Ref{Domain: "bakeao"})
	if ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
}

func TestFileStorePayloadHooksRunOnLoad(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()
	ref := state.Ref{Domain: "bakeao"}
	store := state.NewFileStore[profile](root)

	path, _ := store.Path(ref)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	legacy := "settings:\n  title: legacy\n  masks: [-1, 5]\n"
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, _, _, err := store.Load(ctx, ref); err == nil {
		t.Fatalf("expected legacy document to fail without hooks")
	}

	migrating := state.NewFileStore[profile](root, state.WithPayloadHook[profile](func(in map[string]any) (map[string]any, error) {
		in["name"] = in["title"]
		delete(in, "title")
		masks, _ := in["masks"].([]any)
		for i, m := range masks {
			if f, ok := m.(float64); ok && f < 0 {
				masks[i] = uint32(int32(f))
			}
		}
		return in, nil
	}))
	got, meta, ok, err := migrating.Load(ctx, ref)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Name != "legacy" || got.Masks[0] != 0xFFFFFFFF || got.Masks[1] != 5 {
		t.Fatalf("unexpected migrated snapshot: %+v", got)
	}
	if meta.ETag != "" {
		t.Fatalf("expected empty meta for legacy document, got %+v", meta)
	}
}

func TestCodecFor(t *testing.T) {
	cases := map[string]string{
		"settings.yaml": "yaml",
		"BakeAO.asset":  "yaml",
		"settings.TOML": "toml",
		"json":          "json",
		"dir/file.json": "json",
	}
	for name, want := range cases {
		codec, err := state.CodecFor(name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if codec.Name() != want {
			t.Fatalf("%s: expected %s, got %s", name, want, codec.Name())
		}
	}
	if _, err := state.CodecFor("settings.ini"); err == nil {
		t.Fatalf("expected error for unknown extension")
	}
}
