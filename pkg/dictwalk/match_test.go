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

func TestFilterMatchesCompiledLiteralStringifyFallback(t *testing.T) {
	matcher, err := compileFilterMatcher("age", "18")
	require.NoError(t, err)

	item := mp(String("age"), String("18"))
	ok, err := filterMatchesCompiled("==", matcher, item, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFilterMatchesCompiledOrderingFallsBackToStringCompare(t *testing.T) {
	matcher, err := compileFilterMatcher("name", "'bob'")
	require.NoError(t, err)

	// Int vs string is not numerically comparable with ">"; the matcher
	// falls back to comparing both sides as plain text ("1" < "bob").
	item := mp(String("name"), Int(1))
	ok, err := filterMatchesCompiled(">", matcher, item, nil)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestFilterMatchesCompiledCurrentItemField(t *testing.T) {
	matcher, err := compileFilterMatcher(".", "1")
	require.NoError(t, err)

	ok, err := filterMatchesCompiled("==", matcher, Int(1), nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestFilterMatchesCompiledRootReferenceValue(t *testing.T) {
	matcher, err := compileFilterMatcher("age", "$$root.threshold")
	require.NoError(t, err)

	root := mp(String("threshold"), Int(18))
	item := mp(String("age"), Int(18))
	ok, err := filterMatchesCompiled("==", matcher, item, &root)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestResolveFilterTokenIgnoresListKeyWhenCurrentIsList(t *testing.T) {
	list := List(mp(String("k"), Int(1)), mp(String("k"), Int(2)))
	got, err := resolveFilterToken(list, list, "ignored", "k", "==", "2")
	require.NoError(t, err)
	require.Len(t, got.AsList().Items, 1)
}
