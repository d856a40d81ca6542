package activity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNormalizeEventTrimsClonesAndDefaults(t *testing.T) {
	meta := map[string]any{"k": "v"}
	evt := Event{
		Verb:       " bakeao.shader.supported ",
		ActorID:    " actor ",
		UserID:     " user ",
		TenantID:   " tenant ",
		ObjectType: " shader ",
		ObjectID:   " 42 ",
		Channel:    " bakeao ",
		Metadata:   meta,
	}

	got := NormalizeEvent(evt)

	if got.Verb != VerbShaderSupported || got.ObjectType != ObjectShader || got.ObjectID != "42" {
		t.Fatalf("unexpected normalized fields: %+v", got)
	}
	if got.ActorID != "actor" || got.UserID != "user" || got.TenantID != "tenant" || got.Channel != "bakeao" {
		t.Fatalf("unexpected trimming: %+v", got)
	}
	if got.OccurredAt.IsZero() {
		t.Fatalf("expected OccurredAt to be set")
	}
	got.Metadata["k"] = "changed"
	if evt.Metadata["k"] != "v" {
		t.Fatalf("expected original metadata untouched: %+v", evt.Metadata)
	}
}

func TestHooksNotifyShortCircuitsMissingRequired(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Verb: VerbRemapAdded}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured, got %d", len(capture.Events))
	}
}

func TestHooksNotifyFanOutAndJoinErrors(t *testing.T) {
	errFirst := errors.New("boom1")
	errSecond := errors.New("boom2")
	capture := &CaptureHook{}
	var ctxSeen bool
	hooks := Hooks{
		HookFunc(func(ctx context.Context, event Event) error {
			ctxSeen = ctx != nil
			return nil
		}),
		capture,
		HookFunc(func(_ context.Context, _ Event) error { return errFirst }),
		nil,
		HookFunc(func(_ context.Context, _ Event) error { return errSecond }),
	}

	//nolint:staticcheck // nil context exercises the fallback
	err := hooks.Notify(nil, Event{Verb: VerbRemapRemoved, ObjectType: ObjectRemap, ObjectID: "1"})
	if !errors.Is(err, errFirst) || !errors.Is(err, errSecond) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !ctxSeen {
		t.Fatalf("expected context fallback to be non-nil")
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected event to be captured once, got %d", len(capture.Events))
	}
}

func TestEmitterDisabledAndEnabled(t *testing.T) {
	capture := &CaptureHook{}
	event := Event{Verb: VerbShaderSupported, ObjectType: ObjectShader, ObjectID: "1"}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("expected emitter to be disabled")
	}
	if err := disabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(capture.Events) != 0 {
		t.Fatalf("expected no events captured when disabled")
	}

	enabled := NewEmitter(Hooks{capture, nil}, Config{Enabled: true, ActorID: "editor"})
	if !enabled.Enabled() {
		t.Fatalf("expected emitter to be enabled")
	}
	if err := enabled.Emit(context.Background(), event); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if len(capture.Events) != 1 {
		t.Fatalf("expected one event captured, got %d", len(capture.Events))
	}
	if capture.Events[0].Channel != DefaultChannel {
		t.Fatalf("expected default channel applied, got %q", capture.Events[0].Channel)
	}
	if capture.Events[0].ActorID != "editor" {
		t.Fatalf("expected default actor applied, got %q", capture.Events[0].ActorID)
	}

	var nilEmitter *Emitter
	if nilEmitter.Enabled() {
		t.Fatalf("expected nil emitter to be disabled")
	}
}

func TestEmitterPreservesExplicitChannel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Channel: "default"})
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := emitter.Emit(context.Background(), Event{
		Verb:       VerbSettingsSaved,
		ObjectType: ObjectSettings,
		ObjectID:   "1",
		Channel:    "custom",
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	if capture.Events[0].Channel != "custom" {
		t.Fatalf("expected explicit channel preserved, got %q", capture.Events[0].Channel)
	}
	if !capture.Events[0].OccurredAt.Equal(at) {
		t.Fatalf("expected occurred_at preserved, got %v", capture.Events[0].OccurredAt)
	}
}

func TestCloneHooksDropsNil(t *testing.T) {
	if got := CloneHooks(Hooks{nil, nil}); got != nil {
		t.Fatalf("expected nil hooks, got %v", got)
	}
}

func TestHooksNotifyReportsFailingHookIndex(t *testing.T) {
	errSink := errors.New("sink offline")
	hooks := Hooks{
		&CaptureHook{},
		HookFunc(func(context.Context, Event) error { return errSink }),
	}

	err := hooks.Notify(context.Background(), Event{Verb: VerbSettingsSaved, ObjectType: ObjectSettings, ObjectID: "demo"})

	var hookErr *HookError
	if !errors.As(err, &hookErr) {
		t.Fatalf("expected *HookError, got %T %v", err, err)
	}
	if hookErr.Index != 1 || hookErr.Verb != VerbSettingsSaved {
		t.Fatalf("unexpected hook error: %+v", hookErr)
	}
	if !errors.Is(err, errSink) {
		t.Fatalf("expected wrapped sink error, got %v", err)
	}
}

func TestEmitterVerbFilter(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{
		Enabled: true,
		Verbs:   []string{" " + VerbMaterialUpdated + " ", ""},
	})

	if emitter.Accepts(VerbRemapAdded) {
		t.Fatalf("expected remap verb filtered out")
	}
	if !emitter.Accepts(VerbMaterialUpdated) {
		t.Fatalf("expected material verb accepted")
	}

	_ = emitter.Emit(context.Background(), Event{Verb: VerbRemapAdded, ObjectType: ObjectRemap, ObjectID: "a->b"})
	_ = emitter.Emit(context.Background(), Event{Verb: VerbMaterialUpdated, ObjectType: ObjectMaterial, ObjectID: "m"})

	if verbs := capture.Verbs(); len(verbs) != 1 || verbs[0] != VerbMaterialUpdated {
		t.Fatalf("unexpected verbs delivered: %v", verbs)
	}
}

func TestEventAddressable(t *testing.T) {
	cases := []struct {
		name  string
		event Event
		want  bool
	}{
		{"complete", Event{Verb: "v", ObjectType: "t", ObjectID: "1"}, true},
		{"missing verb", Event{ObjectType: "t", ObjectID: "1"}, false},
		{"missing type", Event{Verb: "v", ObjectID: "1"}, false},
		{"missing id", Event{Verb: "v", ObjectType: "t"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.event.Addressable(); got != tc.want {
				t.Fatalf("Addressable() = %v, want %v", got, tc.want)
			}
		})
	}
}
