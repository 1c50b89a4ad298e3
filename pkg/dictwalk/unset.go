/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

// UnsetOption configures an Unset call.
type UnsetOption func(*unsetConfig)

type unsetConfig struct {
	strict bool
}

// WithUnsetStrict requires every token of path to already resolve before
// Unset removes anything.
func WithUnsetStrict(strict bool) UnsetOption {
	return func(c *unsetConfig) { c.strict = strict }
}

// Unset removes whatever path resolves to from data. The "$$root" token is
// only valid in read paths and is rejected here.
func Unset(data Value, path string, opts ...UnsetOption) (Value, error) {
	cfg := unsetConfig{}
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
		if err := ensurePathResolves(data, path, tokens, len(tokens)); err != nil {
			return Value{}, err
		}
	}

	if _, err := unsetRecurse(data, tokens); err != nil {
		return Value{}, err
	}
	return data, nil
}

func unsetRecurse(current Value, remaining []parsedToken) (Value, error) {
	if len(remaining) == 0 {
		return current, nil
	}

	token := remaining[0]
	switch token.kind {
	case tokenGet:
		return unsetGetToken(current, remaining, token.key)
	case tokenMap:
		return unsetMapToken(current, remaining, token.key)
	case tokenWildcard:
		return unsetWildcardToken(current, remaining)
	case tokenDeepWildcard:
		return unsetDeepWildcardToken(current, remaining)
	case tokenIndex:
		return unsetIndexToken(current, remaining, token.key, token.index)
	case tokenSlice:
		return unsetSliceToken(current, remaining, token)
	case tokenFilter:
		return unsetFilterToken(current, remaining, token)
	case tokenRoot:
		return current, nil
	default:
		return current, nil
	}
}

func unsetGetToken(current Value, remaining []parsedToken, key string) (Value, error) {
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	if len(remaining) == 1 {
		dict.Delete(key)
		return current, nil
	}

	child, ok := dict.Get(key)
	if !ok {
		return current, nil
	}
	updated, err := unsetRecurse(child, remaining[1:])
	if err != nil {
		return Value{}, err
	}
	dict.Set(key, updated)
	return current, nil
}

func unsetMapToken(current Value, remaining []parsedToken, key string) (Value, error) {
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	listValue, ok := dict.Get(key)
	if !ok || listValue.Kind() != KindList {
		return current, nil
	}
	list := listValue.AsList()

	if len(remaining) == 1 {
		dict.Set(key, List())
		return current, nil
	}

	for i, item := range list.Items {
		updated, err := unsetRecurse(item, remaining[1:])
		if err != nil {
			return Value{}, err
		}
		list.Items[i] = updated
	}
	dict.Set(key, listValue)
	return current, nil
}

func unsetWildcardToken(current Value, remaining []parsedToken) (Value, error) {
	switch current.Kind() {
	case KindMap:
		dict := current.AsMap()
		if len(remaining) == 1 {
			dict.Clear()
			return current, nil
		}
		for _, key := range dict.Keys() {
			child, ok := dict.Get(key)
			if !ok {
				continue
			}
			updated, err := unsetRecurse(child, remaining[1:])
			if err != nil {
				return Value{}, err
			}
			dict.Set(key, updated)
		}
		return current, nil
	case KindList:
		list := current.AsList()
		if len(remaining) == 1 {
			list.Clear()
			return current, nil
		}
		for i, item := range list.Items {
			updated, err := unsetRecurse(item, remaining[1:])
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

func deepUnsetWalk(node Value, remaining []parsedToken) error {
	switch node.Kind() {
	case KindMap:
		dict := node.AsMap()
		for _, key := range dict.Keys() {
			child, ok := dict.Get(key)
			if !ok {
				continue
			}
			if len(remaining) > 1 {
				updated, err := unsetRecurse(child, remaining[1:])
				if err != nil {
					return err
				}
				dict.Set(key, updated)
			}
			if next, ok := dict.Get(key); ok && isDictOrList(next) {
				if err := deepUnsetWalk(next, remaining); err != nil {
					return err
				}
			}
		}
	case KindList:
		list := node.AsList()
		for i, item := range list.Items {
			if len(remaining) > 1 {
				updated, err := unsetRecurse(item, remaining[1:])
				if err != nil {
					return err
				}
				list.Items[i] = updated
			}
			if isDictOrList(list.Items[i]) {
				if err := deepUnsetWalk(list.Items[i], remaining); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func unsetDeepWildcardToken(current Value, remaining []parsedToken) (Value, error) {
	if !isDictOrList(current) {
		return current, nil
	}
	if err := deepUnsetWalk(current, remaining); err != nil {
		return Value{}, err
	}
	return current, nil
}

func unsetIndexToken(current Value, remaining []parsedToken, key string, index int) (Value, error) {
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	listValue, ok := dict.Get(key)
	if !ok || listValue.Kind() != KindList {
		return current, nil
	}
	list := listValue.AsList()
	inBounds := index >= -list.Len() && index < list.Len()

	if len(remaining) == 1 {
		if inBounds {
			list.Pop(index)
		}
		dict.Set(key, listValue)
		return current, nil
	}

	if inBounds {
		target, _ := list.NormalizeIndex(index)
		child, _ := list.Get(target)
		updated, err := unsetRecurse(child, remaining[1:])
		if err != nil {
			return Value{}, err
		}
		list.Set(target, updated)
	}

	dict.Set(key, listValue)
	return current, nil
}

func unsetSliceToken(current Value, remaining []parsedToken, token parsedToken) (Value, error) {
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	listValue, ok := dict.Get(token.key)
	if !ok || listValue.Kind() != KindList {
		return current, nil
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
		// Pop from the highest index down so earlier pops never shift the
		// position of an index still queued for removal.
		for i := len(indexes) - 1; i >= 0; i-- {
			list.Pop(indexes[i])
		}
		dict.Set(token.key, listValue)
		return current, nil
	}

	for _, idx := range indexes {
		child, _ := list.Get(idx)
		updated, err := unsetRecurse(child, remaining[1:])
		if err != nil {
			return Value{}, err
		}
		list.Set(idx, updated)
	}

	dict.Set(token.key, listValue)
	return current, nil
}

func unsetFilterToken(current Value, remaining []parsedToken, token parsedToken) (Value, error) {
	if current.Kind() != KindMap {
		return current, nil
	}
	dict := current.AsMap()

	listValue, ok := dict.Get(token.listKey)
	if !ok || listValue.Kind() != KindList {
		return current, nil
	}
	list := listValue.AsList()

	matcher, err := compileFilterMatcher(token.field, token.value)
	if err != nil {
		return Value{}, err
	}

	if len(remaining) == 1 {
		var kept []Value
		for _, item := range list.Items {
			matched, err := filterMatchesCompiled(token.operator, matcher, item, nil)
			if err != nil {
				return Value{}, err
			}
			if !matched {
				kept = append(kept, item)
			}
		}
		dict.Set(token.listKey, List(kept...))
		return current, nil
	}

	for i, item := range list.Items {
		matched, err := filterMatchesCompiled(token.operator, matcher, item, nil)
		if err != nil {
			return Value{}, err
		}
		if !matched {
			continue
		}
		updated, err := unsetRecurse(item, remaining[1:])
		if err != nil {
			return Value{}, err
		}
		list.Items[i] = updated
	}

	dict.Set(token.listKey, listValue)
	return current, nil
}
