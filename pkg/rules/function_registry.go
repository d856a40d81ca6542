package rules

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

var ErrUnknownFunction = errors.New("rules: unknown function")

// Function is a callable exposed to expressions, either through call(name,
// ...) or, for expr, directly by name.
type Function func(args ...any) (any, error)

type registeredFunction struct {
	name string
	fn   Function
}

// FunctionRegistry holds expression helpers. Lookups ignore case; Names
// reports the spelling used at registration.
type FunctionRegistry struct {
	mu      sync.RWMutex
	entries map[string]registeredFunction
}

// NewFunctionRegistry returns an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{entries: map[string]registeredFunction{}}
}

// NewAssetFunctions returns a registry preloaded with path helpers for asset
// descriptors: ext, dir, base and under(path, folder).
func NewAssetFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()
	r.mustRegister("ext", stringFunc(path.Ext))
	r.mustRegister("dir", stringFunc(path.Dir))
	r.mustRegister("base", stringFunc(func(p string) string {
		return strings.TrimSuffix(path.Base(p), path.Ext(p))
	}))
	r.mustRegister("under", func(args ...any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("rules: under expects 2 arguments, got %d", len(args))
		}
		p, ok1 := args[0].(string)
		folder, ok2 := args[1].(string)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("rules: under expects string arguments")
		}
		folder = strings.TrimSuffix(folder, "/")
		return p == folder || strings.HasPrefix(p, folder+"/"), nil
	})
	return r
}

func stringFunc(fn func(string) string) Function {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("rules: expected 1 argument, got %d", len(args))
		}
		s, ok := args[0].(string)
		if !ok {
			return nil, fmt.Errorf("rules: expected string argument, got %T", args[0])
		}
		return fn(s), nil
	}
}

func (r *FunctionRegistry) mustRegister(name string, fn Function) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Register adds fn under name. Names must be unique regardless of case.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return fmt.Errorf("rules: function name must not be empty")
	case fn == nil:
		return fmt.Errorf("rules: function %q is nil", name)
	}
	key := strings.ToLower(name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = map[string]registeredFunction{}
	}
	if existing, ok := r.entries[key]; ok {
		return fmt.Errorf("rules: function %q clashes with %q", name, existing.name)
	}
	r.entries[key] = registeredFunction{name: name, fn: fn}
	return nil
}

// Clone copies the registry so later registrations do not leak into
// evaluators that already captured it.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &FunctionRegistry{entries: make(map[string]registeredFunction, len(r.entries))}
	for key, entry := range r.entries {
		out.entries[key] = entry
	}
	return out
}

// Call runs the function registered as name.
func (r *FunctionRegistry) Call(name string, args ...any) (any, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: %q (no registry)", ErrUnknownFunction, name)
	}
	r.mu.RLock()
	entry, ok := r.entries[strings.ToLower(strings.TrimSpace(name))]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}
	return entry.fn(args...)
}

// Names lists registered names in sorted order.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		names = append(names, entry.name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}
