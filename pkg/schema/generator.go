// Package schema derives JSON schema style documents from Go types so editor
// front ends can render an inspector for persisted settings without
// hand-maintained form definitions.
package schema

import (
	"encoding"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

var (
	timeType          = reflect.TypeOf(time.Time{})
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// Option configures a Generator.
type Option func(*Generator)

// Generator builds schema documents by reflecting over types.
type Generator struct {
	title       string
	formats     map[reflect.Type]string
	annotations map[string]map[string]any
}

// WithTitle sets the title of the root schema.
func WithTitle(title string) Option {
	return func(g *Generator) {
		g.title = strings.TrimSpace(title)
	}
}

// WithFormat renders values of typ as strings with the given format. It is
// meant for identifier types that marshal to text, such as GUID handles.
func WithFormat(typ reflect.Type, format string) Option {
	return func(g *Generator) {
		if typ == nil {
			return
		}
		g.formats[typ] = format
	}
}

// WithAnnotation merges keywords into the schema found at path, a dot
// separated list of property names.
func WithAnnotation(path string, keywords map[string]any) Option {
	return func(g *Generator) {
		if len(keywords) == 0 {
			return
		}
		existing := g.annotations[path]
		if existing == nil {
			existing = map[string]any{}
		}
		for k, v := range keywords {
			existing[k] = v
		}
		g.annotations[path] = existing
	}
}

// NewGenerator returns a generator configured by opts.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		formats:     map[reflect.Type]string{},
		annotations: map[string]map[string]any{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Generate returns the schema of value's type.
func (g *Generator) Generate(value any) (map[string]any, error) {
	if value == nil {
		return map[string]any{"type": "null"}, nil
	}
	return g.GenerateType(reflect.TypeOf(value))
}

// GenerateType returns the schema of typ.
func (g *Generator) GenerateType(typ reflect.Type) (map[string]any, error) {
	doc, err := g.build(typ, "", map[reflect.Type]bool{})
	if err != nil {
		return nil, err
	}
	if g.title != "" {
		doc["title"] = g.title
	}
	return doc, nil
}

func (g *Generator) build(typ reflect.Type, path string, visiting map[reflect.Type]bool) (map[string]any, error) {
	for typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}

	schema, err := g.buildKind(typ, path, visiting)
	if err != nil {
		return nil, err
	}
	for k, v := range g.annotations[path] {
		schema[k] = v
	}
	return schema, nil
}

func (g *Generator) buildKind(typ reflect.Type, path string, visiting map[reflect.Type]bool) (map[string]any, error) {
	if format, ok := g.formats[typ]; ok {
		return map[string]any{"type": "string", "format": format}, nil
	}
	if typ == timeType {
		return map[string]any{"type": "string", "format": "date-time"}, nil
	}
	if typ.Implements(textMarshalerType) || reflect.PointerTo(typ).Implements(textMarshalerType) {
		return map[string]any{"type": "string"}, nil
	}

	switch typ.Kind() {
	case reflect.Bool:
		return map[string]any{"type": "boolean"}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return map[string]any{"type": "integer"}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		schema := map[string]any{"type": "integer", "minimum": 0}
		if typ.Bits() < 64 {
			schema["maximum"] = uint64(1)<<typ.Bits() - 1
		}
		return schema, nil
	case reflect.Float32, reflect.Float64:
		return map[string]any{"type": "number"}, nil
	case reflect.String:
		return map[string]any{"type": "string"}, nil
	case reflect.Interface:
		return map[string]any{}, nil
	case reflect.Struct:
		if visiting[typ] {
			return nil, fmt.Errorf("schema: recursive type %s", typ)
		}
		visiting[typ] = true
		defer delete(visiting, typ)
		return g.buildStruct(typ, path, visiting)
	case reflect.Map:
		if typ.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("schema: map key type %s unsupported", typ.Key())
		}
		items, err := g.build(typ.Elem(), joinPath(path, "*"), visiting)
		if err != nil {
			return nil, err
		}
		return map[string]any{"type": "object", "additionalProperties": items}, nil
	case reflect.Slice, reflect.Array:
		if typ.Kind() == reflect.Slice && typ.Elem().Kind() == reflect.Uint8 {
			return map[string]any{"type": "string", "format": "byte"}, nil
		}
		items, err := g.build(typ.Elem(), joinPath(path, "[]"), visiting)
		if err != nil {
			return nil, err
		}
		schema := map[string]any{"type": "array", "items": items}
		if typ.Kind() == reflect.Array {
			schema["minItems"] = typ.Len()
			schema["maxItems"] = typ.Len()
		}
		return schema, nil
	default:
		return nil, fmt.Errorf("schema: unsupported kind %s for %s", typ.Kind(), typ)
	}
}

func (g *Generator) buildStruct(typ reflect.Type, path string, visiting map[reflect.Type]bool) (map[string]any, error) {
	properties := map[string]any{}
	var required []string
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitempty, skip := jsonName(field)
		if skip {
			continue
		}
		child, err := g.build(field.Type, joinPath(path, name), visiting)
		if err != nil {
			return nil, err
		}
		properties[name] = child
		if !omitempty {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sort.Strings(required)
		schema["required"] = required
	}
	return schema, nil
}

func jsonName(field reflect.StructField) (name string, omitempty, skip bool) {
	name = field.Name
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return name, false, false
	}
	parts := strings.Split(tag, ",")
	if parts[0] == "-" && len(parts) == 1 {
		return "", false, true
	}
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}
