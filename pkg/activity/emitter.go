package activity

import (
	"context"
	"slices"
	"strings"
)

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "bakeao"

// Config tunes an Emitter.
type Config struct {
	Enabled bool
	Channel string
	// ActorID is stamped on events that do not carry one.
	ActorID string
	// Verbs restricts emission to the listed verbs. Empty emits every verb.
	Verbs []string
}

// Emitter stamps settings events with configured defaults before handing
// them to hooks.
type Emitter struct {
	hooks   Hooks
	channel string
	actorID string
	verbs   map[string]struct{}
}

// NewEmitter returns an emitter over the non-nil hooks. The result is
// disabled when cfg.Enabled is false or no hook remains.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{
		channel: strings.TrimSpace(cfg.Channel),
		actorID: strings.TrimSpace(cfg.ActorID),
	}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	if cfg.Enabled {
		e.hooks = CloneHooks(hooks)
	}
	for _, verb := range cfg.Verbs {
		if verb = strings.TrimSpace(verb); verb == "" {
			continue
		}
		if e.verbs == nil {
			e.verbs = map[string]struct{}{}
		}
		e.verbs[verb] = struct{}{}
	}
	return e
}

func (e *Emitter) Enabled() bool {
	return e != nil && e.hooks.Enabled()
}

// Accepts reports whether an event with verb would be delivered.
func (e *Emitter) Accepts(verb string) bool {
	if !e.Enabled() {
		return false
	}
	if e.verbs == nil {
		return true
	}
	_, ok := e.verbs[strings.TrimSpace(verb)]
	return ok
}

// Emit fills in the default channel and actor, then notifies the hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Accepts(event.Verb) {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if strings.TrimSpace(event.ActorID) == "" {
		event.ActorID = e.actorID
	}
	return e.hooks.Notify(ctx, event)
}

// CloneHooks returns a copy of hooks without nil entries, or nil when none
// are left.
func CloneHooks(hooks Hooks) Hooks {
	out := slices.DeleteFunc(slices.Clone(hooks), func(hook ActivityHook) bool {
		return hook == nil
	})
	if len(out) == 0 {
		return nil
	}
	return out
}
