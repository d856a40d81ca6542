package bakeao

import (
	"reflect"

	"github.com/goliatone/go-bakeao/pkg/asset"
	"github.com/goliatone/go-bakeao/pkg/schema"
)

// SnapshotSchema describes the persisted settings for inspector UIs.
func SnapshotSchema() (map[string]any, error) {
	gen := schema.NewGenerator(
		schema.WithTitle("Bake AO Settings"),
		schema.WithFormat(reflect.TypeOf(asset.ID{}), "uuid"),
		schema.WithAnnotation("shadersThatSupportBakeAO", map[string]any{
			"description": "Shaders that accept a baked AO texture.",
			"uniqueItems": true,
		}),
		schema.WithAnnotation("shaderRemap", map[string]any{
			"description": "Shader replacements applied when a material is updated for AO baking.",
		}),
		schema.WithAnnotation("layersInteraction", map[string]any{
			"description": "Row i holds the layers affecting objects on layer i while baking.",
			"minItems":    LayerCount,
			"maxItems":    LayerCount,
		}),
		schema.WithAnnotation("bakeMaterialsForStaticGameObjects", map[string]any{
			"description": "Bake materials of static objects.",
		}),
	)
	return gen.Generate(Snapshot{})
}
