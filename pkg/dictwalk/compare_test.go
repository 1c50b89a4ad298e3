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

func TestCompareValuesNumeric(t *testing.T) {
	ok, err := compareValues(Int(1), Float(1.0), "==")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = compareValues(Int(1), Int(2), "<")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCompareValuesMismatchedKindsEqualityOnly(t *testing.T) {
	ok, err := compareValues(String("5"), Int(5), "==")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = compareValues(String("5"), Int(5), "!=")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = compareValues(String("5"), Int(5), "<")
	require.Error(t, err)
	require.True(t, isSoftErr(err))
}

func TestCompareWithFallbackStringifies(t *testing.T) {
	ok, err := compareWithFallback(String("5"), Int(5), "==")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOrderValuesBool(t *testing.T) {
	ord, comparable := orderValues(Bool(false), Bool(true))
	require.True(t, comparable)
	require.Equal(t, orderLess, ord)
}
