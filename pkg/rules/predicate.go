package rules

import (
	"fmt"
	"strings"
	"time"
)

// Engine names accepted by NewEvaluator.
const (
	EngineExpr = "expr"
	EngineCEL  = "cel"
	EngineJS   = "js"
)

// NewEvaluator returns the evaluator for engine. An empty name selects expr.
func NewEvaluator(engine string, opts ...Option) (Evaluator, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineExpr:
		return NewExprEvaluator(opts...), nil
	case EngineCEL:
		return NewCELEvaluator(opts...), nil
	case EngineJS:
		if !jsEvaluatorAvailable() {
			return nil, fmt.Errorf("%w: js requires the js_eval build tag", ErrUnknownEngine)
		}
		return NewJSEvaluator(opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Predicate is a compiled boolean rule over asset descriptors.
type Predicate struct {
	engine string
	expr   string
	rule   CompiledRule
	args   map[string]any
	logger Logger
}

// NewPredicate compiles expr with the given engine.
func NewPredicate(engine, expr string, args map[string]any, opts ...Option) (*Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmptyExpression
	}
	evaluator, err := NewEvaluator(engine, opts...)
	if err != nil {
		return nil, err
	}
	rule, err := evaluator.Compile(expr)
	if err != nil {
		return nil, err
	}
	cfg := applyOptions(opts)
	logger := cfg.logger
	if logger == nil {
		logger = noopLogger{}
	}
	name := strings.ToLower(strings.TrimSpace(engine))
	if name == "" {
		name = EngineExpr
	}
	return &Predicate{engine: name, expr: expr, rule: rule, args: args, logger: logger}, nil
}

// Expr returns the source expression.
func (p *Predicate) Expr() string {
	return p.expr
}

// Match evaluates the rule against object.
func (p *Predicate) Match(object map[string]any) (bool, error) {
	ctx := Context{Object: object, Args: p.args}.withDefaults()
	start := time.Now()
	value, err := p.rule.Evaluate(ctx)
	matched, ok := value.(bool)
	if err == nil && !ok {
		err = runError(p.engine, p.expr, ctx.label(), fmt.Errorf("%w: got %T", ErrNotBoolean, value))
	}
	p.logger.LogEvaluation(LogEvent{
		Engine:   p.engine,
		Expr:     p.expr,
		Object:   ctx.label(),
		Matched:  matched && err == nil,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}
