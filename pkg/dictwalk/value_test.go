/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueTruthy(t *testing.T) {
	require.False(t, Null().Truthy())
	require.False(t, Bool(false).Truthy())
	require.False(t, Int(0).Truthy())
	require.False(t, Float(0).Truthy())
	require.False(t, String("").Truthy())
	require.False(t, List().Truthy())
	require.False(t, Map().Truthy())

	require.True(t, Bool(true).Truthy())
	require.True(t, Int(1).Truthy())
	require.True(t, String("x").Truthy())
	require.True(t, List(Int(1)).Truthy())
}

func TestValueText(t *testing.T) {
	require.Equal(t, "None", Null().Text())
	require.Equal(t, "True", Bool(true).Text())
	require.Equal(t, "False", Bool(false).Text())
	require.Equal(t, "7", Int(7).Text())
	require.Equal(t, "abc", String("abc").Text())
}

func TestMapValueOrderedKeys(t *testing.T) {
	mp := NewMapValue()
	mp.Set("b", Int(2))
	mp.Set("a", Int(1))
	mp.Set("b", Int(20))
	require.Equal(t, []string{"b", "a"}, mp.Keys())

	v, ok := mp.Get("b")
	require.True(t, ok)
	require.Equal(t, Int(20), v)

	mp.Delete("b")
	require.False(t, mp.Contains("b"))
	require.Equal(t, []string{"a"}, mp.Keys())
}

func TestListValueNormalizeIndexAndPop(t *testing.T) {
	l := NewListValue([]Value{Int(1), Int(2), Int(3)})

	idx, ok := l.NormalizeIndex(-1)
	require.True(t, ok)
	require.Equal(t, 2, idx)

	_, ok = l.NormalizeIndex(5)
	require.False(t, ok)

	v, ok := l.Pop(0)
	require.True(t, ok)
	require.Equal(t, Int(1), v)
	require.Equal(t, []Value{Int(2), Int(3)}, l.Items)
}
