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

func runPipeline(t *testing.T, expr string, input Value) Value {
	t.Helper()
	pipe, ok := compileBuiltinPipeline(expr, nil)
	require.True(t, ok, "expected %q to compile as a pipeline", expr)
	out, err := applyBuiltinPipeline(input, pipe)
	require.NoError(t, err)
	return out
}

func TestApplyBuiltinPipelineChaining(t *testing.T) {
	got := runPipeline(t, "$inc()|$double()", Int(3))
	require.Equal(t, Int(8), got)
}

func TestApplyBuiltinPipelineMapSuffixFansOutOverList(t *testing.T) {
	input := List(Int(1), Int(2), Int(3))
	got := runPipeline(t, "$inc()[]", input)
	require.Equal(t, List(Int(2), Int(3), Int(4)), got)
}

func TestApplyBuiltinPipelineContiguousMapSuffixRun(t *testing.T) {
	input := List(Int(1), Int(2), Int(3))
	got := runPipeline(t, "$inc()[]|$double()[]", input)
	require.Equal(t, List(Int(4), Int(6), Int(8)), got)
}

func TestParseLiteral(t *testing.T) {
	require.Equal(t, Bool(true), parseLiteral("True"))
	require.Equal(t, Null(), parseLiteral("None"))
	require.Equal(t, Int(42), parseLiteral("42"))
	require.Equal(t, Float(1.5), parseLiteral("1.5"))
	require.Equal(t, String("hi\tthere"), parseLiteral(`'hi\tthere'`))
	require.Equal(t, String("bare"), parseLiteral("bare"))
}

func TestSplitFilterArgsRespectsNesting(t *testing.T) {
	args, ok := splitFilterArgs(`1, "a,b", (2,3)`)
	require.True(t, ok)
	require.Equal(t, []string{"1", `"a,b"`, "(2,3)"}, args)
}

func TestCompileBuiltinPipelineUnknownFilterFails(t *testing.T) {
	_, ok := compileBuiltinPipeline("$not_a_real_filter()", nil)
	require.False(t, ok)
}
