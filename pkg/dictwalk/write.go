/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import "strings"

// WriteOptions governs how Set creates missing structure, creates a new
// filter-match element, and overwrites incompatible existing structure
// while walking toward the write target. All three default true.
type WriteOptions struct {
	CreateMissing         bool
	CreateFilterMatch     bool
	OverwriteIncompatible bool
}

func defaultWriteOptions() WriteOptions {
	return WriteOptions{CreateMissing: true, CreateFilterMatch: true, OverwriteIncompatible: true}
}

// SetOption configures a Set call.
type SetOption func(*setConfig)

type setConfig struct {
	strict  bool
	options WriteOptions
}

// WithSetStrict requires every token up to (but not including) the final
// one to already resolve before Set writes anything.
func WithSetStrict(strict bool) SetOption {
	return func(c *setConfig) { c.strict = strict }
}

// WithCreateMissing controls whether Set invents missing maps/lists/
// elements while walking toward the write target.
func WithCreateMissing(v bool) SetOption {
	return func(c *setConfig) { c.options.CreateMissing = v }
}

// WithCreateFilterMatch controls whether a zero-match equality filter
// token appends a new matching element instead of writing nothing.
func WithCreateFilterMatch(v bool) SetOption {
	return func(c *setConfig) { c.options.CreateFilterMatch = v }
}

// WithOverwriteIncompatible controls whether Set replaces a scalar (or
// wrong-shaped container) found where a map or list is required.
func WithOverwriteIncompatible(v bool) SetOption {
	return func(c *setConfig) { c.options.OverwriteIncompatible = v }
}

// Set writes newValue into data at path, creating and coercing structure
// along the way as governed by opts. The "$$root" token is only valid in
// read paths and is rejected here.
func Set(data Value, path string, newValue Value, opts ...SetOption) (Value, error) {
	cfg := setConfig{options: defaultWriteOptions()}
	for _, opt := range opts {
		opt(&cfg)
	}

	tokens, err := parsePath(path)
	if err != nil {
		return Value{}, err
	}
	if pathUsesRootToken(tokens) {
		return Value{}, newParseError(path, "$$root", "the '$$root' token is only supported in read paths")
	}

	if cfg.strict && len(tokens) > 0 {
		if err := ensurePathResolves(data, path, tokens, len(tokens)-1); err != nil {
			return Value{}, err
		}
	}

	if _, err := setRecurse(data, tokens, newValue, cfg.options, data); err != nil {
		return Value{}, err
	}
	return data, nil
}

// ensurePathResolves walks the first `until` tokens of path against data
// and fails with a resolution error if any of them hits a soft error,
// without requiring the final token (the write target) to pre-exist.
func ensurePathResolves(data Value, path string, tokens []parsedToken, until int) error {
	current := data
	for _, token := range tokens[:until] {
		if token.kind == tokenRoot {
			current = data
			continue
		}
		resolved, err := resolveToken(current, data, token)
		if err != nil {
			if isSoftErr(err) {
				return newResolutionError(path, token.raw, err.Error())
			}
			return err
		}
		current = resolved
	}
	return nil
}

func isDictOrList(v Value) bool {
	return v.Kind() == KindMap || v.Kind() == KindList
}

func newWriteContainer() Value {
	return Map()
}

// coerceCurrentToDictForWrite replaces current with a fresh empty map when
// it isn't already one and the caller is allowed to invent structure.
func coerceCurrentToDictForWrite(current Value, opts WriteOptions) Value {
	if current.Kind() == KindMap {
		return current
	}
	if !opts.OverwriteIncompatible || !opts.CreateMissing {
		return current
	}
	return newWriteContainer()
}

// resolveNewValue implements Set's three-branch value dispatch: a
// "$$root"-prefixed string resolves as a strict GET against root; else a
// string compiling as a pipeline is applied to the existing value; else
// newValue is used verbatim (including every non-string newValue).
func resolveNewValue(existing Value, hasExisting bool, newValue Value, root Value) (Value, error) {
	if newValue.Kind() != KindString {
		return newValue, nil
	}

	text := newValue.AsString()
	if strings.HasPrefix(text, "$$root") {
		rootPath := rootReferenceToPath(text)
		return Get(root, rootPath, WithStrict(true))
	}

	if pipe, ok := compileBuiltinPipeline(text, &root); ok {
		base := Null()
		if hasExisting {
			base = existing
		}
		return applyBuiltinPipeline(base, pipe)
	}

	return newValue, nil
}

// setRecurse walks remaining against current, writing newValue at the end
// of the path and returning the (possibly replaced, e.g. type-coerced)
// current value for the caller to write back into its own parent.
func setRecurse(current Value, remaining []parsedToken, newValue Value, opts WriteOptions, root Value) (Value, error) {
	if len(remaining) == 0 {
		return newValue, nil
	}

	token := remaining[0]
	switch token.kind {
	case tokenGet:
		return setGetToken(current, remaining, token.key, newValue, opts, root)
	case tokenMap:
		return setMapToken(current, remaining, token.key, newValue, opts, root)
	case tokenWildcard:
		return setWildcardToken(current, remaining, newValue, opts, root)
	case tokenDeepWildcard:
		return setDeepWildcardToken(current, remaining, newValue, opts, root)
	case tokenIndex:
		return setIndexToken(current, remaining, token.key, token.index, newValue, opts, root)
	case tokenSlice:
		return setSliceToken(current, remaining, token, newValue, opts, root)
	case tokenFilter:
		return setFilterToken(current, remaining, token, newValue, opts, root)
	case tokenRoot:
		return current, nil
	default:
		return current, nil
	}
}

func setGetToken(current Value, remaining []parsedToken, key string, newValue Value, opts WriteOptions, root Value) (Value, error) {
	hasNext := len(remaining) > 1
	current = coerceCurrentToDictForWrite(current, opts)
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	if len(remaining) == 1 {
		existing, ok := dict.Get(key)
		if !ok && !opts.CreateMissing {
			return current, nil
		}
		resolved, err := resolveNewValue(existing, ok, newValue, root)
		if err != nil {
			return Value{}, err
		}
		dict.Set(key, resolved)
		return current, nil
	}

	child, had := dict.Get(key)
	if !had {
		if !opts.CreateMissing {
			return current, nil
		}
		child = newWriteContainer()
	}
	if had && hasNext && !isDictOrList(child) {
		if !opts.OverwriteIncompatible {
			return current, nil
		}
		child = newWriteContainer()
	}

	updated, err := setRecurse(child, remaining[1:], newValue, opts, root)
	if err != nil {
		return Value{}, err
	}
	dict.Set(key, updated)
	return current, nil
}

func setMapToken(current Value, remaining []parsedToken, key string, newValue Value, opts WriteOptions, root Value) (Value, error) {
	hasNext := len(remaining) > 1
	current = coerceCurrentToDictForWrite(current, opts)
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	listValue, ok := dict.Get(key)
	if ok {
		if listValue.Kind() != KindList {
			if !opts.OverwriteIncompatible {
				return current, nil
			}
			listValue = List()
		}
	} else {
		if !opts.CreateMissing {
			return current, nil
		}
		listValue = List()
	}
	list := listValue.AsList()

	if len(remaining) == 1 {
		for i, item := range list.Items {
			resolved, err := resolveNewValue(item, true, newValue, root)
			if err != nil {
				return Value{}, err
			}
			list.Items[i] = resolved
		}
		dict.Set(key, listValue)
		return current, nil
	}

	if list.Len() == 0 {
		if !opts.CreateMissing {
			return current, nil
		}
		list.Append(newWriteContainer())
	}

	for i, item := range list.Items {
		if hasNext && !isDictOrList(item) {
			if !opts.OverwriteIncompatible {
				continue
			}
			item = newWriteContainer()
		}
		updated, err := setRecurse(item, remaining[1:], newValue, opts, root)
		if err != nil {
			return Value{}, err
		}
		list.Items[i] = updated
	}

	dict.Set(key, listValue)
	return current, nil
}

func setWildcardToken(current Value, remaining []parsedToken, newValue Value, opts WriteOptions, root Value) (Value, error) {
	switch current.Kind() {
	case KindMap:
		dict := current.AsMap()
		for _, key := range dict.Keys() {
			child, _ := dict.Get(key)
			var updated Value
			var err error
			if len(remaining) == 1 {
				updated, err = resolveNewValue(child, true, newValue, root)
			} else {
				updated, err = setRecurse(child, remaining[1:], newValue, opts, root)
			}
			if err != nil {
				return Value{}, err
			}
			dict.Set(key, updated)
		}
		return current, nil
	case KindList:
		list := current.AsList()
		for i, item := range list.Items {
			var updated Value
			var err error
			if len(remaining) == 1 {
				updated, err = resolveNewValue(item, true, newValue, root)
			} else {
				updated, err = setRecurse(item, remaining[1:], newValue, opts, root)
			}
			if err != nil {
				return Value{}, err
			}
			list.Items[i] = updated
		}
		return current, nil
	default:
		return current, nil
	}
}

// deepSetWalk recurses into every descendant of node, applying setRecurse
// at each one (when there is more than the current token left to walk)
// before descending further; create_missing is disabled by the caller so
// "**" set never invents exponential structure.
func deepSetWalk(node Value, remaining []parsedToken, newValue Value, opts WriteOptions, root Value) error {
	switch node.Kind() {
	case KindMap:
		dict := node.AsMap()
		for _, key := range dict.Keys() {
			child, ok := dict.Get(key)
			if !ok {
				continue
			}
			if len(remaining) > 1 {
				updated, err := setRecurse(child, remaining[1:], newValue, opts, root)
				if err != nil {
					return err
				}
				dict.Set(key, updated)
			}
			if next, ok := dict.Get(key); ok && isDictOrList(next) {
				if err := deepSetWalk(next, remaining, newValue, opts, root); err != nil {
					return err
				}
			}
		}
	case KindList:
		list := node.AsList()
		for i, item := range list.Items {
			if len(remaining) > 1 {
				updated, err := setRecurse(item, remaining[1:], newValue, opts, root)
				if err != nil {
					return err
				}
				list.Items[i] = updated
			}
			if isDictOrList(list.Items[i]) {
				if err := deepSetWalk(list.Items[i], remaining, newValue, opts, root); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func setDeepWildcardToken(current Value, remaining []parsedToken, newValue Value, opts WriteOptions, root Value) (Value, error) {
	if !isDictOrList(current) {
		return current, nil
	}
	applyOpts := opts
	applyOpts.CreateMissing = false
	if err := deepSetWalk(current, remaining, newValue, applyOpts, root); err != nil {
		return Value{}, err
	}
	return current, nil
}

func setIndexToken(current Value, remaining []parsedToken, key string, index int, newValue Value, opts WriteOptions, root Value) (Value, error) {
	hasNext := len(remaining) > 1
	current = coerceCurrentToDictForWrite(current, opts)
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	listValue, ok := dict.Get(key)
	if ok {
		if listValue.Kind() != KindList {
			if !opts.OverwriteIncompatible {
				return current, nil
			}
			listValue = List()
		}
	} else {
		if !opts.CreateMissing {
			return current, nil
		}
		listValue = List()
	}
	list := listValue.AsList()

	if index < 0 {
		if index < -list.Len() {
			dict.Set(key, listValue)
			return current, nil
		}
	} else if list.Len() <= index {
		if !opts.CreateMissing {
			dict.Set(key, listValue)
			return current, nil
		}
		for list.Len() <= index {
			if hasNext {
				list.Append(newWriteContainer())
			} else {
				list.Append(Null())
			}
		}
	}

	target, _ := list.NormalizeIndex(index)

	if len(remaining) == 1 {
		existing, _ := list.Get(target)
		resolved, err := resolveNewValue(existing, true, newValue, root)
		if err != nil {
			return Value{}, err
		}
		list.Set(target, resolved)
		dict.Set(key, listValue)
		return current, nil
	}

	item, _ := list.Get(target)
	if hasNext && !isDictOrList(item) {
		if !opts.OverwriteIncompatible {
			dict.Set(key, listValue)
			return current, nil
		}
		item = newWriteContainer()
	}

	updated, err := setRecurse(item, remaining[1:], newValue, opts, root)
	if err != nil {
		return Value{}, err
	}
	list.Set(target, updated)
	dict.Set(key, listValue)
	return current, nil
}

func setSliceToken(current Value, remaining []parsedToken, token parsedToken, newValue Value, opts WriteOptions, root Value) (Value, error) {
	hasNext := len(remaining) > 1
	current = coerceCurrentToDictForWrite(current, opts)
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	listValue, ok := dict.Get(token.key)
	if ok {
		if listValue.Kind() != KindList {
			if !opts.OverwriteIncompatible {
				return current, nil
			}
			listValue = List()
		}
	} else {
		if !opts.CreateMissing {
			return current, nil
		}
		listValue = List()
	}
	list := listValue.AsList()

	var start, end *int
	if token.sliceHasStart {
		start = &token.sliceStart
	}
	if token.sliceHasEnd {
		end = &token.sliceEnd
	}
	indexes := computeSliceIndexes(list.Len(), start, end)

	if len(remaining) == 1 {
		for _, idx := range indexes {
			existing, _ := list.Get(idx)
			resolved, err := resolveNewValue(existing, true, newValue, root)
			if err != nil {
				return Value{}, err
			}
			list.Set(idx, resolved)
		}
		dict.Set(token.key, listValue)
		return current, nil
	}

	for _, idx := range indexes {
		item, _ := list.Get(idx)
		if hasNext && !isDictOrList(item) {
			if !opts.OverwriteIncompatible {
				continue
			}
			item = newWriteContainer()
		}
		updated, err := setRecurse(item, remaining[1:], newValue, opts, root)
		if err != nil {
			return Value{}, err
		}
		list.Set(idx, updated)
	}

	dict.Set(token.key, listValue)
	return current, nil
}

// computeSliceIndexes clamps a Python-style [start:end] slice to a list of
// concrete, in-bounds indexes to write through.
func computeSliceIndexes(length int, start, end *int) []int {
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

	if sliceStart >= sliceEnd {
		return nil
	}
	out := make([]int, 0, sliceEnd-sliceStart)
	for i := sliceStart; i < sliceEnd; i++ {
		out = append(out, i)
	}
	return out
}

func setFilterToken(current Value, remaining []parsedToken, token parsedToken, newValue Value, opts WriteOptions, root Value) (Value, error) {
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	listValue, ok := dict.Get(token.listKey)
	if ok {
		if listValue.Kind() != KindList {
			if !opts.OverwriteIncompatible {
				return current, nil
			}
			listValue = List()
		}
	} else {
		if !opts.CreateMissing {
			return current, nil
		}
		listValue = List()
	}
	list := listValue.AsList()

	matcher, err := compileFilterMatcher(token.field, token.value)
	if err != nil {
		return Value{}, err
	}

	matches := make([]bool, list.Len())
	anyMatch := false
	for i, item := range list.Items {
		matched, err := filterMatchesCompiled(token.operator, matcher, item, &root)
		if err != nil {
			return Value{}, err
		}
		matches[i] = matched
		anyMatch = anyMatch || matched
	}

	if !anyMatch && matcher.fieldKind == fieldResolverKey &&
		matcher.valueKind == valueMatcherLiteral && token.operator == "==" &&
		opts.CreateMissing && opts.CreateFilterMatch {
		newItem := NewMapValue()
		newItem.Set(token.field, String(token.value))
		list.Append(NewMap(newItem))
		matches = append(matches, true)
	}

	if len(remaining) == 1 {
		for i, item := range list.Items {
			if !matches[i] {
				continue
			}
			resolved, err := resolveNewValue(item, true, newValue, root)
			if err != nil {
				return Value{}, err
			}
			list.Items[i] = resolved
		}
		dict.Set(token.listKey, listValue)
		return current, nil
	}

	for i, item := range list.Items {
		if !matches[i] {
			continue
		}
		updated, err := setRecurse(item, remaining[1:], newValue, opts, root)
		if err != nil {
			return Value{}, err
		}
		list.Items[i] = updated
	}

	dict.Set(token.listKey, listValue)
	return current, nil
}
