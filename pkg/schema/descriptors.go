package schema

import (
	"sort"
)

// FieldDescriptor describes a leaf path of a schema and its type.
type FieldDescriptor struct {
	Path   string
	Type   string
	Format string
}

// Descriptors flattens a schema document into sorted leaf paths. Array
// items are addressed with "[]" and map values with "*".
func Descriptors(doc map[string]any) []FieldDescriptor {
	var out []FieldDescriptor
	walk(doc, "", &out)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

func walk(node map[string]any, prefix string, out *[]FieldDescriptor) {
	typ, _ := node["type"].(string)
	switch typ {
	case "object":
		if props, ok := node["properties"].(map[string]any); ok && len(props) > 0 {
			for name, child := range props {
				if childMap, ok := child.(map[string]any); ok {
					walk(childMap, joinPath(prefix, name), out)
				}
			}
			return
		}
		if items, ok := node["additionalProperties"].(map[string]any); ok {
			walk(items, joinPath(prefix, "*"), out)
			return
		}
	case "array":
		if items, ok := node["items"].(map[string]any); ok {
			walk(items, joinPath(prefix, "[]"), out)
			return
		}
	}
	if prefix == "" {
		return
	}
	format, _ := node["format"].(string)
	if typ == "" {
		typ = "any"
	}
	*out = append(*out, FieldDescriptor{Path: prefix, Type: typ, Format: format})
}
