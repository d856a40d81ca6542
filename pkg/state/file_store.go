package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goliatone/go-bakeao/internal/hydrate"
)

// PayloadHook rewrites a decoded settings payload before it is converted to
// the typed snapshot. It is the place for format migrations.
type PayloadHook func(payload map[string]any) (map[string]any, error)

// FileStoreOption configures a FileStore.
type FileStoreOption[T any] func(*FileStore[T])

// WithCodec selects the document codec. Defaults to YAML.
func WithCodec[T any](codec Codec) FileStoreOption[T] {
	return func(s *FileStore[T]) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithPayloadHook registers a hook applied on every Load, in order.
func WithPayloadHook[T any](hook PayloadHook) FileStoreOption[T] {
	return func(s *FileStore[T]) {
		if hook != nil {
			s.hooks = append(s.hooks, hook)
		}
	}
}

// FileStore persists one document per Ref below a root directory. Writes go
// through a temporary file and a rename so a crash never leaves a torn
// document behind.
type FileStore[T any] struct {
	mu    sync.Mutex
	root  string
	codec Codec
	hooks []PayloadHook
	now   func() time.Time
}

type document[T any] struct {
	Meta     Meta `json:"meta" yaml:"meta" toml:"meta"`
	Settings T    `json:"settings" yaml:"settings" toml:"settings"`
}

// NewFileStore returns a store rooted at root.
func NewFileStore[T any](root string, opts ...FileStoreOption[T]) *FileStore[T] {
	s := &FileStore[T]{root: root, codec: YAML, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Path returns the file backing ref.
func (s *FileStore[T]) Path(ref Ref) (string, error) {
	key, err := ref.Identifier()
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(key)+s.codec.Ext()), nil
}

func (s *FileStore[T]) Load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, ref)
}

func (s *FileStore[T]) Save(ctx context.Context, ref Ref, snapshot T, meta Meta) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, existing, ok, err := s.load(ctx, ref)
	if err != nil {
		return Meta{}, err
	}
	if ok {
		if err := checkETag(meta.ETag, existing.ETag); err != nil {
			return existing, err
		}
	}

	saved := nextMeta(meta, s.now())
	data, err := s.codec.Marshal(document[T]{Meta: saved, Settings: snapshot})
	if err != nil {
		return Meta{}, fmt.Errorf("state: encode %s: %w", s.codec.Name(), err)
	}
	if err := writeFileAtomic(path, data); err != nil {
		return Meta{}, err
	}
	return cloneMeta(saved), nil
}

func (s *FileStore[T]) load(ctx context.Context, ref Ref) (T, Meta, bool, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, Meta{}, false, err
	}
	path, err := s.Path(ref)
	if err != nil {
		return zero, Meta{}, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return zero, Meta{}, false, nil
	}
	if err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: read %s: %w", path, err)
	}

	raw := map[string]any{}
	if err := s.codec.Unmarshal(data, &raw); err != nil {
		return zero, Meta{}, false, fmt.Errorf("state: decode %s: %w", path, err)
	}

	hctx := hydrate.Context{Path: path, Format: s.codec.Name()}
	meta := Meta{}
	if payload, ok := raw["meta"].(map[string]any); ok {
		meta, err = hydrate.NewDecoder[Meta]().Decode(hctx, payload)
		if err != nil {
			return zero, Meta{}, false, err
		}
	}

	payload, _ := raw["settings"].(map[string]any)
	if payload == nil {
		payload = map[string]any{}
	}
	decoderOpts := make([]hydrate.DecoderOption[T], 0, len(s.hooks))
	for _, hook := range s.hooks {
		decoderOpts = append(decoderOpts, hydrate.WithPreHook[T](func(_ hydrate.Context, in map[string]any) (map[string]any, error) {
			return hook(in)
		}))
	}
	snapshot, err := hydrate.NewDecoder[T](decoderOpts...).Decode(hctx, payload)
	if err != nil {
		return zero, Meta{}, false, err
	}
	return snapshot, meta, true, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("state: create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("state: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("state: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("state: close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("state: rename %s: %w", path, err)
	}
	return nil
}
