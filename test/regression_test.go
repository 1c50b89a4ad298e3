/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package test

import (
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/require"

	"github.com/pathwalk/dictwalk/pkg/dictwalk"
)

func mustDoc(t *testing.T, yml string) dictwalk.Value {
	t.Helper()
	v, err := dictwalk.FromYAML([]byte(yml))
	require.NoError(t, err)
	return v
}

// diffAssertEqual fails with a readable diff between the expected and
// actual YAML rendering, rather than dumping two giant blobs.
func diffAssertEqual(t *testing.T, expected, actual dictwalk.Value) {
	t.Helper()
	want, err := dictwalk.ToYAML(expected)
	require.NoError(t, err)
	got, err := dictwalk.ToYAML(actual)
	require.NoError(t, err)
	if string(want) == string(got) {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(want), string(got), false)
	t.Fatalf("documents differ:\n%s", dmp.DiffPrettyText(diffs))
}

// TestRegressionSuite runs the concrete scenarios from the path-expression
// specification end to end against a real YAML document.
func TestRegressionSuite(t *testing.T) {
	t.Run("map suffix fans out a field across a list", func(t *testing.T) {
		doc := mustDoc(t, `
a:
  b:
  - c: 1
  - c: 2
`)
		got, err := dictwalk.Get(doc, "a.b[].c")
		require.NoError(t, err)
		diffAssertEqual(t, mustDoc(t, "[1, 2]"), got)
	})

	t.Run("sum and avg pipeline filters", func(t *testing.T) {
		doc := mustDoc(t, "xs: [1, 2, 3, 4]")

		sum, err := dictwalk.Get(doc, "xs|$sum")
		require.NoError(t, err)
		require.Equal(t, dictwalk.Int(10), sum)

		avg, err := dictwalk.Get(doc, "xs|$avg")
		require.NoError(t, err)
		require.Equal(t, dictwalk.Float(2.5), avg)
	})

	t.Run("filter compares a string field against a numeric literal", func(t *testing.T) {
		doc := mustDoc(t, `
users:
- age: "30"
- age: "17"
`)
		got, err := dictwalk.Get(doc, "users[?age>=18]")
		require.NoError(t, err)
		diffAssertEqual(t, mustDoc(t, `[{age: "30"}]`), got)
	})

	t.Run("set creates missing intermediate maps", func(t *testing.T) {
		doc := mustDoc(t, "a: {}")
		got, err := dictwalk.Set(doc, "a.b.c", dictwalk.Int(7))
		require.NoError(t, err)
		diffAssertEqual(t, mustDoc(t, "a: {b: {c: 7}}"), got)
	})

	t.Run("set without create_missing leaves the tree unchanged", func(t *testing.T) {
		doc := mustDoc(t, "a: {}")
		got, err := dictwalk.Set(doc, "a.b.c", dictwalk.Int(7), dictwalk.WithCreateMissing(false))
		require.NoError(t, err)
		diffAssertEqual(t, mustDoc(t, "a: {}"), got)
	})

	t.Run("set appends a new element on a zero-match equality filter", func(t *testing.T) {
		doc := mustDoc(t, "xs: [{k: 1}]")
		newElem := mustDoc(t, "{k: 2, v: true}")
		got, err := dictwalk.Set(doc, "xs[?k==2]", newElem)
		require.NoError(t, err)
		// create_filter_match first appends the literal match element
		// {k: "2"}, then the single remaining token overwrites it with
		// newElem verbatim.
		diffAssertEqual(t, mustDoc(t, "xs: [{k: 1}, {k: 2, v: true}]"), got)
	})

	t.Run("set with create_filter_match disabled leaves the list unchanged", func(t *testing.T) {
		doc := mustDoc(t, "xs: [{k: 1}]")
		newElem := mustDoc(t, "{k: 2, v: true}")
		got, err := dictwalk.Set(doc, "xs[?k==2]", newElem, dictwalk.WithCreateFilterMatch(false))
		require.NoError(t, err)
		diffAssertEqual(t, mustDoc(t, "xs: [{k: 1}]"), got)
	})

	t.Run("unset removes a slice in place", func(t *testing.T) {
		doc := mustDoc(t, "xs: [1, 2, 3, 4, 5]")
		got, err := dictwalk.Unset(doc, "xs[1:4]")
		require.NoError(t, err)
		diffAssertEqual(t, mustDoc(t, "xs: [1, 5]"), got)
	})

	t.Run("datetime pipeline round-trips to a unix timestamp", func(t *testing.T) {
		doc := mustDoc(t, `t: "2020-01-01T00:00:00Z"`)
		got, err := dictwalk.Get(doc, "t|$to_datetime|$timestamp")
		require.NoError(t, err)
		require.Equal(t, dictwalk.Float(1577836800), got)
	})

	t.Run("deep wildcard visits every matching key in pre-order", func(t *testing.T) {
		doc := mustDoc(t, "a: {b: {a: 42}}")
		got, err := dictwalk.Get(doc, "**.a")
		require.NoError(t, err)
		list := got.AsList()
		require.NotNil(t, list)

		// The deep wildcard collects [{b:{a:42}}, {a:42}, 42] in pre-order,
		// and the trailing .a projects key "a" across that list; only the
		// {a:42} element carries it directly, so only 42 survives.
		var sawInt bool
		for _, item := range list.Items {
			if item.Kind() == dictwalk.KindInt && item.AsInt() == 42 {
				sawInt = true
			}
		}
		require.True(t, sawInt, "expected 42 among the deep wildcard results")
	})
}

// TestUniversalInvariants checks the spec's cross-cutting properties rather
// than single literal scenarios.
func TestUniversalInvariants(t *testing.T) {
	t.Run("set then get round-trips a scalar write", func(t *testing.T) {
		doc := mustDoc(t, "a: {b: {}}")
		_, err := dictwalk.Set(doc, "a.b.c", dictwalk.Int(9))
		require.NoError(t, err)

		got, err := dictwalk.Get(doc, "a.b.c")
		require.NoError(t, err)
		require.Equal(t, dictwalk.Int(9), got)
	})

	t.Run("exists agrees with get against a sentinel", func(t *testing.T) {
		doc := mustDoc(t, "a: {b: 1}")
		sentinel := dictwalk.String("__sentinel__")

		exists, err := dictwalk.Exists(doc, "a.b")
		require.NoError(t, err)
		got, err := dictwalk.Get(doc, "a.b", dictwalk.WithDefault(sentinel))
		require.NoError(t, err)
		require.Equal(t, exists, got != sentinel)

		exists, err = dictwalk.Exists(doc, "a.missing")
		require.NoError(t, err)
		got, err = dictwalk.Get(doc, "a.missing", dictwalk.WithDefault(sentinel))
		require.NoError(t, err)
		require.Equal(t, exists, got != sentinel)
	})

	t.Run("unset is idempotent", func(t *testing.T) {
		doc := mustDoc(t, "a: {b: 1, c: 2}")
		once, err := dictwalk.Unset(doc, "a.b")
		require.NoError(t, err)
		twice, err := dictwalk.Unset(once, "a.b")
		require.NoError(t, err)
		diffAssertEqual(t, once, twice)
	})

	t.Run("pipeline application is pure", func(t *testing.T) {
		doc := mustDoc(t, "xs: [3, 1, 2]")
		first, err := dictwalk.Get(doc, "xs|$sorted")
		require.NoError(t, err)
		second, err := dictwalk.Get(doc, "xs|$sorted")
		require.NoError(t, err)
		diffAssertEqual(t, first, second)
	})

	t.Run("lenient get never raises on a missing key", func(t *testing.T) {
		doc := mustDoc(t, "a: {}")
		got, err := dictwalk.Get(doc, "a.missing.deeper")
		require.NoError(t, err)
		require.True(t, got.IsNull())
	})

	t.Run("strict get raises a resolution error on the same input", func(t *testing.T) {
		doc := mustDoc(t, "a: {}")
		_, err := dictwalk.Get(doc, "a.missing.deeper", dictwalk.WithStrict(true))
		require.Error(t, err)
	})

	t.Run("a root token in a write path fails before any mutation", func(t *testing.T) {
		doc := mustDoc(t, "a: {b: 1}")
		_, err := dictwalk.Set(doc, "$$root.a.b", dictwalk.Int(2))
		require.Error(t, err)

		got, err := dictwalk.Get(doc, "a.b")
		require.NoError(t, err)
		require.Equal(t, dictwalk.Int(1), got)
	})
}
