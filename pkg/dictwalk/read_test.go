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

func mp(pairs ...Value) Value {
	m := NewMapValue()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i].AsString(), pairs[i+1])
	}
	return NewMap(m)
}

func TestGetNestedGet(t *testing.T) {
	doc := mp(String("a"), mp(String("b"), Int(1)))
	got, err := Get(doc, "a.b")
	require.NoError(t, err)
	require.Equal(t, Int(1), got)
}

func TestGetLenientMissingKeyReturnsDefault(t *testing.T) {
	doc := mp(String("a"), mp())
	got, err := Get(doc, "a.missing", WithDefault(String("fallback")))
	require.NoError(t, err)
	require.Equal(t, String("fallback"), got)
}

func TestGetStrictMissingKeyRaises(t *testing.T) {
	doc := mp(String("a"), mp())
	_, err := Get(doc, "a.missing", WithStrict(true))
	require.Error(t, err)
}

func TestExistsAgreesWithGetSentinel(t *testing.T) {
	doc := mp(String("a"), Int(1))
	ok, err := Exists(doc, "a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists(doc, "b")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetIndexAndSlice(t *testing.T) {
	doc := mp(String("xs"), List(Int(1), Int(2), Int(3), Int(4)))

	got, err := Get(doc, "xs[-1]")
	require.NoError(t, err)
	require.Equal(t, Int(4), got)

	got, err = Get(doc, "xs[1:3]")
	require.NoError(t, err)
	require.Equal(t, List(Int(2), Int(3)), got)
}

func TestGetWildcardAndDeepWildcard(t *testing.T) {
	doc := mp(String("a"), mp(String("b"), Int(1), String("c"), Int(2)))

	got, err := Get(doc, "a.*")
	require.NoError(t, err)
	require.ElementsMatch(t, []Value{Int(1), Int(2)}, got.AsList().Items)

	nested := mp(String("a"), mp(String("b"), mp(String("a"), Int(42))))
	got, err = Get(nested, "**.a")
	require.NoError(t, err)
	require.Contains(t, got.AsList().Items, Int(42))
}

func TestGetFilterToken(t *testing.T) {
	doc := mp(String("users"), List(
		mp(String("age"), String("30")),
		mp(String("age"), String("17")),
	))
	got, err := Get(doc, "users[?age>=18]")
	require.NoError(t, err)
	require.Len(t, got.AsList().Items, 1)
}

func TestGetOutputTransform(t *testing.T) {
	doc := mp(String("xs"), List(Int(1), Int(2), Int(3)))
	got, err := Get(doc, "xs|$sum")
	require.NoError(t, err)
	require.Equal(t, Int(6), got)
}

func TestGetRootReferenceIdentity(t *testing.T) {
	doc := mp(String("a"), Int(1))
	got, err := Get(doc, ".")
	require.NoError(t, err)
	require.Equal(t, doc, got)
}
