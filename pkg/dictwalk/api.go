/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import "fmt"

// RunFilterFunction applies pathFilter to value directly, without a
// surrounding path. pathFilter must be a string that compiles as a
// "$name" / "$name(...)" built-in pipeline.
func RunFilterFunction(pathFilter interface{}, value Value) (Value, error) {
	if expr, ok := pathFilter.(string); ok {
		if pipe, ok := compileBuiltinPipeline(expr, nil); ok {
			return applyBuiltinPipeline(value, pipe)
		}
	}
	return Value{}, newParseError(fmt.Sprintf("%v", pathFilter), "", "invalid path filter expression: expected a '$name' / '$name(...)' built-in filter string")
}

// RegisterPathFilter would let callers plug a custom named filter into the
// pipeline compiler. This backend only evaluates the fixed built-in filter
// set and does not support registering custom ones.
func RegisterPathFilter(name string, pathFilter interface{}) error {
	return newUnsupportedError("custom path filters are currently unsupported in this backend")
}

// GetPathFilter would look up a previously registered custom path filter.
// This backend only evaluates the fixed built-in filter set and does not
// support registering custom ones.
func GetPathFilter(name string) (interface{}, error) {
	return nil, newUnsupportedError("custom path filters are currently unsupported in this backend")
}
