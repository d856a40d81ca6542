package rules

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyExpression = errors.New("rules: expression must not be empty")
	ErrUnknownEngine   = errors.New("rules: unknown engine")
	// ErrNotBoolean is returned by Predicate when a rule yields a non-bool.
	ErrNotBoolean = errors.New("rules: expression did not produce a boolean")
)

// Phase tells whether a rule failed while compiling or while running
// against an asset.
type Phase string

const (
	PhaseCompile Phase = "compile"
	PhaseRun     Phase = "run"
)

// EvaluationError wraps an engine failure with the rule and asset involved.
// Asset is empty for compile failures.
type EvaluationError struct {
	Engine string
	Phase  Phase
	Expr   string
	Asset  string
	Err    error
}

func (e *EvaluationError) Error() string {
	msg := fmt.Sprintf("rules: %s %s %q", e.Engine, e.Phase, e.Expr)
	if e.Asset != "" {
		msg += " on " + e.Asset
	}
	return msg + ": " + e.Err.Error()
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func compileError(engine, expr string, err error) error {
	return newEvaluationError(engine, PhaseCompile, expr, "", err)
}

func runError(engine, expr, asset string, err error) error {
	return newEvaluationError(engine, PhaseRun, expr, asset, err)
}

// newEvaluationError keeps the innermost EvaluationError when engines nest
// calls, filling only what it lacks.
func newEvaluationError(engine string, phase Phase, expr, asset string, err error) error {
	if err == nil {
		return nil
	}
	var inner *EvaluationError
	if !errors.As(err, &inner) {
		return &EvaluationError{Engine: engine, Phase: phase, Expr: expr, Asset: asset, Err: err}
	}
	if inner.Engine == "" {
		inner.Engine = engine
	}
	if inner.Phase == "" {
		inner.Phase = phase
	}
	if inner.Expr == "" {
		inner.Expr = expr
	}
	if inner.Asset == "" {
		inner.Asset = asset
	}
	return inner
}
