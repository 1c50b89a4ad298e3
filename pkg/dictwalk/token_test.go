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

func TestParsePathTokenKinds(t *testing.T) {
	tokens, err := parsePath("a.b[].c[1].d[1:3].e[?f==1].*.**")
	require.NoError(t, err)
	require.Equal(t, []tokenKind{
		tokenGet, tokenMap, tokenIndex, tokenSlice, tokenFilter, tokenWildcard, tokenDeepWildcard,
	}, kindsOf(tokens))

	require.Equal(t, "a", tokens[0].key)
	require.Equal(t, "b", tokens[1].key)
	require.Equal(t, "c", tokens[2].key)
	require.Equal(t, 1, tokens[2].index)
	require.Equal(t, "d", tokens[3].key)
	require.Equal(t, 1, tokens[3].sliceStart)
	require.Equal(t, 3, tokens[3].sliceEnd)
	require.Equal(t, "e", tokens[4].listKey)
	require.Equal(t, "f", tokens[4].field)
	require.Equal(t, "==", tokens[4].operator)
	require.Equal(t, "1", tokens[4].value)
}

func kindsOf(tokens []parsedToken) []tokenKind {
	out := make([]tokenKind, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.kind
	}
	return out
}

func TestParsePathRootToken(t *testing.T) {
	tokens, err := parsePath("$$root.a")
	require.NoError(t, err)
	require.True(t, pathUsesRootToken(tokens))
	require.Equal(t, tokenRoot, tokens[0].kind)
	require.Equal(t, tokenGet, tokens[1].kind)
}

func TestParsePathEmptyIsError(t *testing.T) {
	_, err := parsePath("")
	require.Error(t, err)
}

func TestParsePathFilterGreedyValue(t *testing.T) {
	// In "KEY[?a==b==c]" the lazy field capture stops at the first
	// operator, so the value captures the rest, "b==c".
	tokens, err := parsePath("xs[?a==b==c]")
	require.NoError(t, err)
	require.Equal(t, tokenFilter, tokens[0].kind)
	require.Equal(t, "a", tokens[0].field)
	require.Equal(t, "==", tokens[0].operator)
	require.Equal(t, "b==c", tokens[0].value)
}

func TestParsePathInvalidFilterExpression(t *testing.T) {
	_, err := parsePath("xs[?$bogus_filter()==1]")
	require.Error(t, err)
}

func TestSplitPathAndTransform(t *testing.T) {
	base, transform, ok := splitPathAndTransform("xs|$sum")
	require.True(t, ok)
	require.Equal(t, "xs", base)
	require.Equal(t, "$sum", transform)

	base, _, ok = splitPathAndTransform("xs[?k==1]")
	require.False(t, ok)
	require.Equal(t, "xs[?k==1]", base)
}
