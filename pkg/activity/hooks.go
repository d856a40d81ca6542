package activity

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"
)

// Event is one change to the bake settings. Identifiers are plain strings;
// sinks decide how to parse them.
type Event struct {
	Verb       string
	ActorID    string
	UserID     string
	TenantID   string
	ObjectType string
	ObjectID   string
	Channel    string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Addressable reports whether the event names a verb and an object. Hooks
// never see events that are not addressable.
func (e Event) Addressable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// NormalizeEvent returns a trimmed copy of event with its own metadata map.
// A zero OccurredAt is stamped with the current time.
func NormalizeEvent(event Event) Event {
	for _, field := range []*string{
		&event.Verb, &event.ActorID, &event.UserID, &event.TenantID,
		&event.ObjectType, &event.ObjectID, &event.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	event.Metadata = cloneMap(event.Metadata)
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	return event
}

// ActivityHook is a destination for settings events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to ActivityHook. A nil HookFunc is a no-op.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// HookError records which hook in a Hooks list failed.
type HookError struct {
	Index int
	Verb  string
	Err   error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("activity: hook %d rejected %s: %v", e.Index, e.Verb, e.Err)
}

func (e *HookError) Unwrap() error { return e.Err }

// Hooks delivers an event to each hook in order.
type Hooks []ActivityHook

func (h Hooks) Enabled() bool { return len(h) > 0 }

// Notify normalizes the event once and hands the same copy to every hook.
// Every hook runs even when an earlier one fails; failures come back joined
// as *HookError values.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if !h.Enabled() {
		return nil
	}
	event = NormalizeEvent(event)
	if !event.Addressable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var failed []error
	for i, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, event); err != nil {
			failed = append(failed, &HookError{Index: i, Verb: event.Verb, Err: err})
		}
	}
	return errors.Join(failed...)
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
