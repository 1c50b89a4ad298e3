/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import "fmt"

// GetOption configures a Get call.
type GetOption func(*getConfig)

type getConfig struct {
	defaultValue Value
	hasDefault   bool
	strict       bool
}

// WithDefault sets the value Get returns when path does not resolve and
// strict mode is off.
func WithDefault(v Value) GetOption {
	return func(c *getConfig) {
		c.defaultValue = v
		c.hasDefault = true
	}
}

// WithStrict, when true, makes Get/Exists raise a resolution error instead
// of falling back to a default/false when a path segment does not resolve.
func WithStrict(strict bool) GetOption {
	return func(c *getConfig) { c.strict = strict }
}

// Get evaluates path against data and returns the resolved value, or a
// default/null when the path does not resolve and strict mode is off.
func Get(data Value, path string, opts ...GetOption) (Value, error) {
	cfg := getConfig{defaultValue: Null()}
	for _, opt := range opts {
		opt(&cfg)
	}

	basePath, transform, hasTransform := splitPathAndTransform(path)

	if basePath == "." {
		current := data
		if hasTransform {
			var err error
			current, err = applyOutputTransform(current, transform, data)
			if err != nil {
				return Value{}, err
			}
		}
		return current, nil
	}

	tokens, err := parsePath(basePath)
	if err != nil {
		return Value{}, err
	}

	current := data
	for _, token := range tokens {
		if token.kind == tokenRoot {
			current = data
			continue
		}

		resolved, rerr := resolveToken(current, data, token)
		if rerr != nil {
			if isSoftErr(rerr) {
				if cfg.strict {
					return Value{}, newResolutionError(basePath, token.raw, rerr.Error())
				}
				return cfg.defaultValue, nil
			}
			return Value{}, rerr
		}
		current = resolved
	}

	if hasTransform {
		current, err = applyOutputTransform(current, transform, data)
		if err != nil {
			return Value{}, err
		}
	}

	return current, nil
}

// Exists reports whether path resolves against data.
func Exists(data Value, path string, opts ...GetOption) (bool, error) {
	cfg := getConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	tokens, err := parsePath(path)
	if err != nil {
		return false, err
	}

	current := data
	for _, token := range tokens {
		if token.kind == tokenRoot {
			current = data
			continue
		}

		resolved, rerr := resolveToken(current, data, token)
		if rerr != nil {
			if isSoftErr(rerr) {
				if cfg.strict {
					return false, newResolutionError(path, token.raw, rerr.Error())
				}
				return false, nil
			}
			return false, rerr
		}
		current = resolved
	}

	return true, nil
}

// resolveToken dispatches a single parsed token against current, with
// access to root for filter tokens whose value side may reference it.
func resolveToken(current, root Value, token parsedToken) (Value, error) {
	switch token.kind {
	case tokenGet:
		return resolveGetToken(current, token.key)
	case tokenMap:
		return resolveMapToken(current, token.key)
	case tokenWildcard:
		return resolveWildcardToken(current)
	case tokenDeepWildcard:
		return resolveDeepWildcardToken(current)
	case tokenIndex:
		return resolveIndexToken(current, token.key, token.index)
	case tokenSlice:
		var start, end *int
		if token.sliceHasStart {
			start = &token.sliceStart
		}
		if token.sliceHasEnd {
			end = &token.sliceEnd
		}
		return resolveSliceToken(current, token.key, start, end)
	case tokenFilter:
		return resolveFilterToken(current, root, token.listKey, token.field, token.operator, token.value)
	case tokenRoot:
		return current, nil
	default:
		return Value{}, fmt.Errorf("unknown token kind")
	}
}

// resolveGetToken looks up key on a map, or maps it over a list of maps
// (collecting only the elements that carry key), mirroring the host
// language's forgiving GET-through-a-list behavior.
func resolveGetToken(current Value, key string) (Value, error) {
	switch current.Kind() {
	case KindMap:
		v, ok := current.AsMap().Get(key)
		if !ok {
			return Value{}, newKeyError(key, fmt.Sprintf("key '%s' not found", key))
		}
		return v, nil
	case KindList:
		var out []Value
		for _, item := range current.AsList().Items {
			if item.Kind() == KindMap {
				if v, ok := item.AsMap().Get(key); ok {
					out = append(out, v)
				}
			}
		}
		return List(out...), nil
	default:
		return Value{}, newTypeError(key, fmt.Sprintf("key '%s' not found in current context", key))
	}
}

// resolveMapToken applies "KEY[]" to a list of maps, collecting key from
// each element that has it.
func resolveMapToken(current Value, key string) (Value, error) {
	if current.Kind() != KindList {
		return Value{}, newTypeError(key, fmt.Sprintf("expected a list for key '%s', got %s", key, pythonTypeName(current)))
	}
	var out []Value
	for _, item := range current.AsList().Items {
		if item.Kind() == KindMap {
			if v, ok := item.AsMap().Get(key); ok {
				out = append(out, v)
			}
		}
	}
	return List(out...), nil
}

func childNodes(node Value) []Value {
	switch node.Kind() {
	case KindMap:
		m := node.AsMap()
		out := make([]Value, 0, m.Len())
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			out = append(out, v)
		}
		return out
	case KindList:
		return append([]Value(nil), node.AsList().Items...)
	default:
		return nil
	}
}

func resolveWildcardToken(current Value) (Value, error) {
	children := childNodes(current)
	if len(children) == 0 && current.Kind() != KindMap && current.Kind() != KindList {
		return Value{}, newTypeError("*", fmt.Sprintf("expected dict or list for wildcard '*', got %s", pythonTypeName(current)))
	}
	return List(children...), nil
}

func collectDescendants(node Value, out *[]Value) {
	for _, child := range childNodes(node) {
		*out = append(*out, child)
		collectDescendants(child, out)
	}
}

func resolveDeepWildcardToken(current Value) (Value, error) {
	children := childNodes(current)
	if len(children) == 0 && current.Kind() != KindMap && current.Kind() != KindList {
		return Value{}, newTypeError("**", fmt.Sprintf("expected dict or list for wildcard '**', got %s", pythonTypeName(current)))
	}
	var out []Value
	for _, child := range children {
		out = append(out, child)
		collectDescendants(child, &out)
	}
	return List(out...), nil
}

// applyOutputTransform applies a trailing "|$filter" pipeline to current,
// with root available for "$$root"-prefixed pipeline arguments. current is
// returned unchanged when transform does not compile as a pipeline.
func applyOutputTransform(current Value, transform string, root Value) (Value, error) {
	pipe, ok := compileBuiltinPipeline(transform, &root)
	if !ok {
		return current, nil
	}
	return applyBuiltinPipeline(current, pipe)
}

func resolveIndexToken(current Value, key string, index int) (Value, error) {
	if current.Kind() != KindMap {
		return Value{}, newTypeError(key, fmt.Sprintf("expected a dict for key '%s', got %s", key, pythonTypeName(current)))
	}
	listValue, ok := current.AsMap().Get(key)
	if !ok {
		return Value{}, newKeyError(key, fmt.Sprintf("key '%s' not found", key))
	}
	if listValue.Kind() != KindList {
		return Value{}, newTypeError(key, fmt.Sprintf("expected a list for key '%s', got %s", key, pythonTypeName(listValue)))
	}
	v, ok := listValue.AsList().Get(normalizeRawIndex(index, listValue.Len()))
	if !ok {
		return Value{}, newIndexError(key, fmt.Sprintf("list index out of range for key '%s'", key))
	}
	return v, nil
}

func normalizeRawIndex(index, length int) int {
	if index < 0 {
		return length + index
	}
	return index
}

func resolveSliceToken(current Value, key string, start, end *int) (Value, error) {
	if current.Kind() != KindMap {
		return Value{}, newTypeError(key, fmt.Sprintf("expected a dict for key '%s', got %s", key, pythonTypeName(current)))
	}
	listValue, ok := current.AsMap().Get(key)
	if !ok {
		return Value{}, newKeyError(key, fmt.Sprintf("key '%s' not found", key))
	}
	if listValue.Kind() != KindList {
		return Value{}, newTypeError(key, fmt.Sprintf("expected a list for key '%s', got %s", key, pythonTypeName(listValue)))
	}

	items := listValue.AsList().Items
	sliceStart, sliceEnd := computeSliceBounds(len(items), start, end)
	if sliceStart >= sliceEnd {
		return List(), nil
	}
	return List(append([]Value(nil), items[sliceStart:sliceEnd]...)...), nil
}

// computeSliceBounds clamps a Python-style [start:end] slice (either bound
// possibly negative or absent) to a valid [0, length] range.
func computeSliceBounds(length int, start, end *int) (int, int) {
	sliceStart := 0
	if start != nil {
		sliceStart = *start
	}
	if sliceStart < 0 {
		sliceStart += length
	}
	if sliceStart < 0 {
		sliceStart = 0
	}
	if sliceStart > length {
		sliceStart = length
	}

	sliceEnd := length
	if end != nil {
		sliceEnd = *end
	}
	if sliceEnd < 0 {
		sliceEnd += length
	}
	if sliceEnd < 0 {
		sliceEnd = 0
	}
	if sliceEnd > length {
		sliceEnd = length
	}

	return sliceStart, sliceEnd
}
