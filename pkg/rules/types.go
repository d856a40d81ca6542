package rules

import (
	"sort"
	"strings"
	"time"
)

// Context carries inputs needed when evaluating an expression.
type Context struct {
	Object map[string]any
	Now    *time.Time
	Args   map[string]any
	Label  string
}

func (ctx Context) withDefaults() Context {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Object == nil {
		ctx.Object = map[string]any{}
	}
	return ctx
}

func (ctx Context) label() string {
	if ctx.Label != "" {
		return ctx.Label
	}
	if name, ok := ctx.Object["name"].(string); ok && name != "" {
		return name
	}
	return "unknown"
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx Context, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule is a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx Context) (any, error)
}

// ProgramCache stores compiled programs keyed by expression and variable set.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// Option configures evaluators.
type Option func(*config)

type config struct {
	cache    ProgramCache
	registry *FunctionRegistry
	logger   Logger
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithProgramCache wires a ProgramCache into an evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *config) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes the registry's functions to expressions.
func WithFunctionRegistry(registry *FunctionRegistry) Option {
	return func(cfg *config) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// WithLogger attaches an evaluation logger. Only Predicate reports to it.
func WithLogger(logger Logger) Option {
	return func(cfg *config) {
		cfg.logger = logger
	}
}

// cacheKey scopes cached programs to the variables they were compiled for;
// CEL environments declare every descriptor key.
func cacheKey(engine, expression string, vars map[string]any) string {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return engine + "|" + expression + "|" + strings.Join(keys, ",")
}

func environment(ctx Context, registry *FunctionRegistry) map[string]any {
	env := map[string]any{
		"now":   *ctx.Now,
		"args":  ctx.Args,
		"asset": ctx.Object,
	}
	for key, value := range ctx.Object {
		if _, reserved := env[key]; reserved {
			continue
		}
		env[key] = value
	}
	if registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return registry.Call(name, arguments...)
		}
	}
	return env
}
