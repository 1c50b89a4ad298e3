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

func TestAddValuesIntStaysInt(t *testing.T) {
	got, err := addValues(Int(2), Int(3))
	require.NoError(t, err)
	require.Equal(t, Int(5), got)
}

func TestAddValuesStringConcatenates(t *testing.T) {
	got, err := addValues(String("a"), String("b"))
	require.NoError(t, err)
	require.Equal(t, String("ab"), got)
}

func TestDivValuesAlwaysPromotesToFloat(t *testing.T) {
	got, err := divValues(Int(4), Int(2))
	require.NoError(t, err)
	require.Equal(t, Float(2), got)
}

func TestModValuesFollowsDivisorSign(t *testing.T) {
	got, err := modValues(Int(-1), Int(3))
	require.NoError(t, err)
	require.Equal(t, Int(2), got)
}

func TestMulValuesRepeatsStringAndList(t *testing.T) {
	got, err := mulValues(String("ab"), Int(2))
	require.NoError(t, err)
	require.Equal(t, String("abab"), got)

	got, err = mulValues(List(Int(1), Int(2)), Int(2))
	require.NoError(t, err)
	require.Equal(t, List(Int(1), Int(2), Int(1), Int(2)), got)
}

func TestPowValuesIntExponent(t *testing.T) {
	got, err := powValues(Int(2), Int(10))
	require.NoError(t, err)
	require.Equal(t, Int(1024), got)
}
