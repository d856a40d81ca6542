package activity

import "strings"

// Verbs emitted by the settings store.
const (
	VerbShaderSupported   = "bakeao.shader.supported"
	VerbShaderUnsupported = "bakeao.shader.unsupported"
	VerbRemapAdded        = "bakeao.remap.added"
	VerbRemapRemoved      = "bakeao.remap.removed"
	VerbMaterialUpdated   = "bakeao.material.updated"
	VerbSettingsPurged    = "bakeao.settings.purged"
	VerbSettingsSaved     = "bakeao.settings.saved"
	VerbLayersChanged     = "bakeao.layers.changed"
)

// Object types carried by settings events.
const (
	ObjectShader   = "shader"
	ObjectRemap    = "shader_remap"
	ObjectMaterial = "material"
	ObjectSettings = "bakeao.settings"
)

// SettingsEventInput holds the fields shared by settings events.
type SettingsEventInput struct {
	ActorID  string
	Project  string
	ObjectID string
	Source   string
	Target   string
	OldValue any
	NewValue any
	Metadata map[string]any
}

// BuildShaderEvent builds an event for a supported set change.
func BuildShaderEvent(verb string, input SettingsEventInput) Event {
	return buildSettingsEvent(verb, ObjectShader, input)
}

// BuildRemapEvent builds an event for a remap table change. The object ID
// defaults to "source->target".
func BuildRemapEvent(verb string, input SettingsEventInput) Event {
	if strings.TrimSpace(input.ObjectID) == "" && input.Source != "" {
		input.ObjectID = input.Source + "->" + input.Target
	}
	return buildSettingsEvent(verb, ObjectRemap, input)
}

// BuildMaterialUpdatedEvent builds the event emitted after a material's
// shader was remapped.
func BuildMaterialUpdatedEvent(input SettingsEventInput) Event {
	return buildSettingsEvent(VerbMaterialUpdated, ObjectMaterial, input)
}

// BuildSettingsEvent builds an event about the store as a whole.
func BuildSettingsEvent(verb string, input SettingsEventInput) Event {
	return buildSettingsEvent(verb, ObjectSettings, input)
}

func buildSettingsEvent(verb, objectType string, input SettingsEventInput) Event {
	metadata := cloneMap(input.Metadata)
	set := func(key string, value any) {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	if input.Project != "" {
		set("project", input.Project)
	}
	if input.Source != "" {
		set("source", input.Source)
	}
	if input.Target != "" {
		set("target", input.Target)
	}
	if input.OldValue != nil {
		set("old_value", input.OldValue)
	}
	if input.NewValue != nil {
		set("new_value", input.NewValue)
	}

	objectID := strings.TrimSpace(input.ObjectID)
	if objectID == "" {
		objectID = strings.TrimSpace(input.Project)
	}
	if objectID == "" {
		objectID = objectType
	}

	return Event{
		Verb:       verb,
		ActorID:    strings.TrimSpace(input.ActorID),
		ObjectType: objectType,
		ObjectID:   objectID,
		Metadata:   metadata,
	}
}
