/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

// Package dictwalk implements a path-expression engine over heterogeneous
// tree-shaped data: nested maps and lists of scalar values addressed by a
// dotted path grammar with indexing, slicing, wildcards, filters, and a
// pipeline of built-in value transforms.
package dictwalk

import (
	"fmt"
	"time"
)

// Kind identifies the concrete shape held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDateTime
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown kind"
	}
}

// Value is a tagged union over the scalar and container shapes this engine
// understands. Containers are held behind pointers so that mutating a child
// reached through one Value handle is visible through every other Value
// sharing the same underlying list or map, matching the way the host
// language's own dicts and lists behave.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	list *ListValue
	mp   *MapValue
}

// Null returns the null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean scalar.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps a 64-bit integer scalar.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a float64 scalar.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps a string scalar.
func String(s string) Value { return Value{kind: KindString, s: s} }

// DateTime wraps a zone-aware timestamp scalar.
func DateTime(t time.Time) Value { return Value{kind: KindDateTime, t: t} }

// NewList wraps a *ListValue container.
func NewList(list *ListValue) Value { return Value{kind: KindList, list: list} }

// NewMap wraps a *MapValue container.
func NewMap(mp *MapValue) Value { return Value{kind: KindMap, mp: mp} }

// List returns a list Value holding items (an empty list when none are given).
func List(items ...Value) Value { return NewList(&ListValue{Items: items}) }

// Map returns an empty map Value.
func Map() Value { return NewMap(NewMapValue()) }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() bool { return v.b }

func (v Value) AsInt() int64 { return v.i }

func (v Value) AsFloat() float64 { return v.f }

func (v Value) AsString() string { return v.s }

func (v Value) AsTime() time.Time { return v.t }

func (v Value) AsList() *ListValue { return v.list }

func (v Value) AsMap() *MapValue { return v.mp }

// IsNumeric reports whether v holds an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Float64 coerces an int or float Value to a float64, returning false for
// anything else.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// Len reports the Python-style length of v: string rune count, list/map
// element count, 0 for everything else without a defined length.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.s))
	case KindList:
		if v.list == nil {
			return 0
		}
		return len(v.list.Items)
	case KindMap:
		if v.mp == nil {
			return 0
		}
		return len(v.mp.keys)
	default:
		return 0
	}
}

// Truthy implements Python-style truthiness: null, false, zero, and empty
// containers/strings are falsy; everything else is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindString:
		return v.s != ""
	case KindList:
		return v.Len() > 0
	case KindMap:
		return v.Len() > 0
	case KindDateTime:
		return true
	default:
		return false
	}
}

// Text renders v as text: null, bools, ints, and strings the way Python's
// str() would; floats in Go's shortest %g form (so 2.0 renders as "2", not
// "2.0"); datetimes in RFC 3339. Used by the stringify-fallback comparison
// rules and by filter value matching against raw path text.
func (v Value) Text() string {
	switch v.kind {
	case KindNull:
		return "None"
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindDateTime:
		return v.t.Format(time.RFC3339Nano)
	case KindList:
		return "[list]"
	case KindMap:
		return "[map]"
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// ListValue is an ordered, mutable sequence of Values.
type ListValue struct {
	Items []Value
}

func NewListValue(items []Value) *ListValue { return &ListValue{Items: items} }

func (l *ListValue) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Items)
}

func (l *ListValue) Get(i int) (Value, bool) {
	if l == nil || i < 0 || i >= len(l.Items) {
		return Value{}, false
	}
	return l.Items[i], true
}

func (l *ListValue) Set(i int, v Value) {
	if l == nil || i < 0 || i >= len(l.Items) {
		return
	}
	l.Items[i] = v
}

func (l *ListValue) Append(v Value) {
	l.Items = append(l.Items, v)
}

func (l *ListValue) Clear() {
	l.Items = l.Items[:0]
}

// NormalizeIndex resolves a Python-style (possibly negative) index against
// the list's current length. The second return reports whether the index
// lies in bounds.
func (l *ListValue) NormalizeIndex(idx int) (int, bool) {
	n := l.Len()
	if idx < 0 {
		if idx < -n {
			return 0, false
		}
		return n + idx, true
	}
	if idx >= n {
		return 0, false
	}
	return idx, true
}

// Pop removes and returns the element at a Python-style index.
func (l *ListValue) Pop(idx int) (Value, bool) {
	real, ok := l.NormalizeIndex(idx)
	if !ok {
		return Value{}, false
	}
	v := l.Items[real]
	l.Items = append(l.Items[:real], l.Items[real+1:]...)
	return v, true
}

// MapValue is an ordered, string-keyed, mutable, unique-key map of Values.
type MapValue struct {
	keys []string
	vals map[string]Value
}

func NewMapValue() *MapValue {
	return &MapValue{vals: make(map[string]Value)}
}

func (m *MapValue) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *MapValue) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

func (m *MapValue) Contains(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.vals[key]
	return ok
}

func (m *MapValue) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.vals[key]
	return v, ok
}

func (m *MapValue) Set(key string, v Value) {
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

func (m *MapValue) Delete(key string) {
	if _, exists := m.vals[key]; !exists {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *MapValue) Clear() {
	m.keys = nil
	m.vals = make(map[string]Value)
}
