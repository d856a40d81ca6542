// Package hydrate turns the generic maps produced by the YAML, TOML and JSON
// codecs into typed snapshots. Pre hooks migrate old layouts on a private
// copy of the payload; post hooks inspect the decoded value.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Context names the document being hydrated.
type Context struct {
	Path   string
	Format string
}

func (c Context) String() string {
	if c.Format == "" {
		return fmt.Sprintf("%q", c.Path)
	}
	return fmt.Sprintf("%s document %q", c.Format, c.Path)
}

// PreHook rewrites a payload before decoding. Returning a nil map keeps the
// payload passed in.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook checks or adjusts a decoded value.
type PostHook[T any] func(Context, *T) error

// Stage identifies the step of Decode that failed.
type Stage string

const (
	StageCopy    Stage = "copy"
	StageMigrate Stage = "migrate"
	StageDecode  Stage = "decode"
	StageCheck   Stage = "check"
)

// Error is returned by Decode for every failure.
type Error struct {
	Stage   Stage
	Context Context
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("hydrate: %s %s: %v", e.Stage, e.Context, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

var errNilPayload = errors.New("payload is nil")

type DecoderOption[T any] func(*Decoder[T])

// Decoder maps payloads onto T through its json tags.
type Decoder[T any] struct {
	migrations []PreHook
	checks     []PostHook[T]
	strict     bool
}

func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.migrations = append(d.migrations, hook)
		}
	}
}

func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.checks = append(d.checks, hook)
		}
	}
}

// WithDisallowUnknownFields rejects payload keys with no matching field.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.strict = true }
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode hydrates payload into T. The caller's map is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var out T
	if payload == nil {
		return out, &Error{Stage: StageCopy, Context: ctx, Err: errNilPayload}
	}

	working, err := d.migrate(ctx, payload)
	if err != nil {
		return out, err
	}
	if err := d.decode(working, &out); err != nil {
		var zero T
		return zero, &Error{Stage: StageDecode, Context: ctx, Err: err}
	}
	for _, check := range d.checks {
		if err := check(ctx, &out); err != nil {
			var zero T
			return zero, &Error{Stage: StageCheck, Context: ctx, Err: err}
		}
	}
	return out, nil
}

func (d *Decoder[T]) migrate(ctx Context, payload map[string]any) (map[string]any, error) {
	working := map[string]any{}
	if err := roundTrip(payload, &working, false); err != nil {
		return nil, &Error{Stage: StageCopy, Context: ctx, Err: err}
	}
	for _, hook := range d.migrations {
		next, err := hook(ctx, working)
		if err != nil {
			return nil, &Error{Stage: StageMigrate, Context: ctx, Err: err}
		}
		if next != nil {
			working = next
		}
	}
	return working, nil
}

func (d *Decoder[T]) decode(payload map[string]any, out *T) error {
	return roundTrip(payload, out, d.strict)
}

func roundTrip(in, out any, strict bool) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(out)
}
