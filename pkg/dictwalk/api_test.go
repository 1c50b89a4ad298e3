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

func TestRunFilterFunctionAppliesPipeline(t *testing.T) {
	got, err := RunFilterFunction("$double()", Int(3))
	require.NoError(t, err)
	require.Equal(t, Int(6), got)
}

func TestRunFilterFunctionRejectsNonPipelineString(t *testing.T) {
	_, err := RunFilterFunction("not a filter", Int(3))
	require.Error(t, err)
}

func TestRegisterAndGetPathFilterAlwaysUnsupported(t *testing.T) {
	err := RegisterPathFilter("custom", func() {})
	require.Error(t, err)

	_, err = GetPathFilter("custom")
	require.Error(t, err)
}
