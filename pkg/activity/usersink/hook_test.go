package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-bakeao/pkg/activity"
	"github.com/goliatone/go-bakeao/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, Project: "demo"}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	materialID := uuid.New().String()

	event := activity.BuildMaterialUpdatedEvent(activity.SettingsEventInput{
		ActorID:  actorID.String(),
		ObjectID: materialID,
		OldValue: "from",
		NewValue: "to",
	})
	event.Channel = activity.DefaultChannel
	event.OccurredAt = now

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != uuid.Nil || record.TenantID != uuid.Nil {
		t.Fatalf("expected nil user/tenant, got %s %s", record.UserID, record.TenantID)
	}
	if record.Verb != activity.VerbMaterialUpdated || record.ObjectType != activity.ObjectMaterial || record.ObjectID != materialID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != activity.DefaultChannel {
		t.Fatalf("expected channel %q got %q", activity.DefaultChannel, record.Channel)
	}
	if !record.OccurredAt.Equal(now) {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["old_value"] != "from" || record.Data["new_value"] != "to" {
		t.Fatalf("expected metadata passthrough got %v", record.Data)
	}
	if record.Data["project"] != "demo" {
		t.Fatalf("expected project data got %v", record.Data["project"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyNilSink(t *testing.T) {
	hook := usersink.Hook{}
	if err := hook.Notify(context.Background(), activity.Event{Verb: "x", ObjectType: "y", ObjectID: "z"}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRecordKeepsEventProject(t *testing.T) {
	event := activity.BuildSettingsEvent(activity.VerbSettingsSaved, activity.SettingsEventInput{
		Project: "from-event",
		ActorID: "not-a-uuid",
	})

	record, ok := usersink.Record(event, "from-hook")
	if !ok {
		t.Fatalf("expected addressable event")
	}
	if record.Data["project"] != "from-event" {
		t.Fatalf("expected event project to win, got %v", record.Data["project"])
	}
	if record.ActorID != uuid.Nil {
		t.Fatalf("expected nil actor for non-uuid id, got %s", record.ActorID)
	}
	if record.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at stamped")
	}
}
