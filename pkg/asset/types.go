package asset

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID is a GUID handle to a host managed asset.
type ID uuid.UUID

// Nil is the null handle.
var Nil ID

// NewID returns a random handle.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical GUID text form.
func ParseID(value string) (ID, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Nil, nil
	}
	parsed, err := uuid.Parse(value)
	if err != nil {
		return Nil, fmt.Errorf("asset: parse id %q: %w", value, err)
	}
	return ID(parsed), nil
}

// MustParseID is like ParseID but panics on malformed input.
func MustParseID(value string) ID {
	id, err := ParseID(value)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the null handle.
func (id ID) IsNil() bool {
	return id == Nil
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input decodes to
// Nil so cleared references survive a round trip.
func (id *ID) UnmarshalText(data []byte) error {
	parsed, err := ParseID(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Kind classifies an asset.
type Kind string

const (
	KindShader   Kind = "shader"
	KindMaterial Kind = "material"
	KindTexture  Kind = "texture"
	KindOther    Kind = "other"
)

// Object describes an asset as seen by the database.
type Object struct {
	ID   ID
	Kind Kind
	Name string
	Path string
	// Main is false for sub-assets embedded in another asset file.
	Main bool
	// Shader is the shader assigned to a material. Unused for other kinds.
	Shader ID
}

// Descriptor flattens the object for rule evaluation and logging.
func (o Object) Descriptor() map[string]any {
	desc := map[string]any{
		"id":   o.ID.String(),
		"kind": string(o.Kind),
		"name": o.Name,
		"path": o.Path,
		"main": o.Main,
	}
	if o.Kind == KindMaterial {
		desc["shader"] = o.Shader.String()
	}
	return desc
}

// Database is the subset of the host asset database the settings rely on.
type Database interface {
	// Lookup resolves a handle. ok is false for null or deleted handles.
	Lookup(id ID) (Object, bool)
	// Exists reports whether the handle still resolves to a live asset.
	Exists(id ID) bool
	// IsMainAsset reports whether id is the top level asset of its file.
	IsMainAsset(id ID) bool
	// SetMaterialShader reassigns the shader used by a material.
	SetMaterialShader(material, shader ID) error
	// SetDirty flags the asset for write back.
	SetDirty(id ID)
	// SaveIfDirty persists the asset immediately when it is dirty.
	SaveIfDirty(ctx context.Context, id ID) error
}

// UndoRecorder registers an object's state before it is edited so the edit
// can be reverted by the user.
type UndoRecorder interface {
	RecordObject(id ID, label string)
}

// Selection exposes the objects currently selected in the editor.
type Selection interface {
	Selected() []ID
}

// Listener receives deletion notifications from a database.
type Listener interface {
	AssetDeleted(id ID)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ID)

// AssetDeleted implements Listener.
func (f ListenerFunc) AssetDeleted(id ID) {
	if f != nil {
		f(id)
	}
}

// Notifier is implemented by databases that publish deletions.
type Notifier interface {
	Subscribe(listener Listener) (unsubscribe func())
}
