package rules

import (
	"fmt"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. Programs are
// type-checked against the descriptor keys present at first evaluation.
func NewCELEvaluator(opts ...Option) Evaluator {
	cfg := applyOptions(opts)
	return &celEvaluator{cache: cfg.cache, registry: cfg.registry}
}

func (e *celEvaluator) Evaluate(ctx Context, expression string) (any, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	ctx = ctx.withDefaults()
	activation := environment(ctx, nil)
	program, err := e.loadOrCompile(expression, activation)
	if err != nil {
		return nil, runError("cel", expression, ctx.label(), err)
	}
	out, _, err := program.Eval(activation)
	if err != nil {
		return nil, runError("cel", expression, ctx.label(), err)
	}
	return out.Value(), nil
}

// Compile defers type checking to evaluation time because the CEL
// environment depends on the descriptor keys.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, ErrEmptyExpression
	}
	env, err := e.buildEnv(map[string]any{})
	if err != nil {
		return nil, err
	}
	if _, issues := env.Parse(expression); issues != nil && issues.Err() != nil {
		return nil, compileError("cel", expression, issues.Err())
	}
	return &celCompiledRule{evaluator: e, expression: expression}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, activation map[string]any) (celgo.Program, error) {
	key := cacheKey("cel", expression, activation)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(activation)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *celEvaluator) buildEnv(activation map[string]any) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("now", celgo.TimestampType),
		celgo.Variable("args", celgo.DynType),
		celgo.Variable("asset", celgo.DynType),
	}
	if e.registry != nil {
		// CEL has no variadic functions; expose call with up to three arguments.
		binding := celgo.FunctionBinding(functions.FunctionOp(e.callBinding()))
		overloads := make([]celgo.FunctionOpt, 0, 4)
		params := []*celgo.Type{celgo.StringType}
		for arity := 0; arity <= 3; arity++ {
			overloads = append(overloads, celgo.Overload(
				fmt.Sprintf("call_string_dyn%d", arity),
				append([]*celgo.Type(nil), params...),
				celgo.DynType,
				binding,
			))
			params = append(params, celgo.DynType)
		}
		opts = append(opts, celgo.Function("call", overloads...))
	}
	for key := range activation {
		switch key {
		case "now", "args", "asset", "call":
			continue
		}
		opts = append(opts, celgo.Variable(key, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) callBinding() func(...ref.Val) ref.Val {
	return func(values ...ref.Val) ref.Val {
		if len(values) == 0 {
			return types.NewErr("rules: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("rules: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := e.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r *celCompiledRule) Evaluate(ctx Context) (any, error) {
	if r.evaluator == nil {
		return nil, fmt.Errorf("rules: cel compiled rule missing evaluator")
	}
	return r.evaluator.Evaluate(ctx, r.expression)
}
