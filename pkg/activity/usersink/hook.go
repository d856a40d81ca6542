// Package usersink forwards settings activity to a go-users ActivitySink so
// edits to bake settings land in the same audit trail as user actions.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-bakeao/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook writes every addressable event to Sink.
type Hook struct {
	Sink usertypes.ActivitySink
	// Project, when set, is recorded under "project" unless the event
	// already carries one.
	Project string
}

var _ activity.ActivityHook = Hook{}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}
	record, ok := Record(event, h.Project)
	if !ok {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return h.Sink.Log(ctx, record)
}

// Record converts event into a go-users activity record. Identifiers that
// are not UUIDs map to uuid.Nil. It reports false for events that name no
// verb or object.
func Record(event activity.Event, project string) (usertypes.ActivityRecord, bool) {
	event = activity.NormalizeEvent(event)
	if !event.Addressable() {
		return usertypes.ActivityRecord{}, false
	}

	data := event.Metadata
	if project = strings.TrimSpace(project); project != "" {
		if _, set := data["project"]; !set {
			if data == nil {
				data = make(map[string]any, 1)
			}
			data["project"] = project
		}
	}

	return usertypes.ActivityRecord{
		ActorID:    idOrNil(event.ActorID),
		UserID:     idOrNil(event.UserID),
		TenantID:   idOrNil(event.TenantID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	}, true
}

func idOrNil(s string) uuid.UUID {
	if id, err := uuid.Parse(s); err == nil {
		return id
	}
	return uuid.Nil
}
