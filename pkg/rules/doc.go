// Package rules evaluates small expressions against asset descriptors so
// batch editor commands can narrow a selection ("name.startsWith('Custom/')",
// "path matches '^Assets/Art/'" and so on).
//
// Three engines are available: expr-lang/expr (the default), CEL via
// google/cel-go, and JavaScript via goja when built with the js_eval tag.
// Every engine sees the descriptor keys as top-level variables plus:
//
//	asset     the full descriptor map
//	args      caller supplied arguments
//	now       evaluation timestamp
//	call      registry dispatch, call("name", args...)
package rules
