package activity

import (
	"context"
	"testing"
)

func TestBuildRemapEventDerivesObjectID(t *testing.T) {
	event := BuildRemapEvent(VerbRemapAdded, SettingsEventInput{
		Project: "demo",
		Source:  "a",
		Target:  "b",
	})
	if event.ObjectType != ObjectRemap || event.ObjectID != "a->b" {
		t.Fatalf("unexpected object fields: %+v", event)
	}
	if event.Metadata["source"] != "a" || event.Metadata["target"] != "b" || event.Metadata["project"] != "demo" {
		t.Fatalf("unexpected metadata: %+v", event.Metadata)
	}
}

func TestBuildSettingsEventFallsBackToProjectThenType(t *testing.T) {
	event := BuildSettingsEvent(VerbSettingsPurged, SettingsEventInput{Project: "demo"})
	if event.ObjectID != "demo" {
		t.Fatalf("expected project fallback, got %q", event.ObjectID)
	}
	event = BuildSettingsEvent(VerbSettingsPurged, SettingsEventInput{})
	if event.ObjectID != ObjectSettings {
		t.Fatalf("expected type fallback, got %q", event.ObjectID)
	}
}

func TestBuildMaterialUpdatedEventCarriesValues(t *testing.T) {
	meta := map[string]any{"label": "Change material shader"}
	event := BuildMaterialUpdatedEvent(SettingsEventInput{
		ObjectID: "mat-1",
		OldValue: "shader-a",
		NewValue: "shader-b",
		Metadata: meta,
	})
	if event.Verb != VerbMaterialUpdated || event.ObjectID != "mat-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Metadata["old_value"] != "shader-a" || event.Metadata["new_value"] != "shader-b" {
		t.Fatalf("unexpected values: %+v", event.Metadata)
	}
	event.Metadata["label"] = "changed"
	if meta["label"] != "Change material shader" {
		t.Fatalf("expected input metadata untouched")
	}

	capture := &CaptureHook{}
	if err := (Hooks{capture}).Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if verbs := capture.Verbs(); len(verbs) != 1 || verbs[0] != VerbMaterialUpdated {
		t.Fatalf("unexpected verbs: %v", verbs)
	}
}
