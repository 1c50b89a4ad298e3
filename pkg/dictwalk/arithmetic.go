/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import (
	"math"
	"strconv"
	"strings"
)

// addValues, subValues, mulValues, divValues, modValues, negValue, and
// powValues give the arithmetic filters (inc/dec/double/square/add/sub/mul/
// div/mod/neg/pow/rpow) a value-level binary/unary op, standing in for the
// host language's dynamic operator dispatch (__add__/__radd__ and friends):
// int op int stays int except true division, which always promotes to
// float; anything involving a float promotes to float; string "+" is
// concatenation; list "+" is concatenation.

func addValues(left, right Value) (Value, error) {
	if left.Kind() == KindString && right.Kind() == KindString {
		return String(left.AsString() + right.AsString()), nil
	}
	if left.Kind() == KindList && right.Kind() == KindList {
		items := append(append([]Value(nil), left.AsList().Items...), right.AsList().Items...)
		return List(items...), nil
	}
	return numericOp(left, right, "add", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b })
}

func subValues(left, right Value) (Value, error) {
	return numericOp(left, right, "sub", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b })
}

func mulValues(left, right Value) (Value, error) {
	if left.Kind() == KindString && right.Kind() == KindInt {
		return String(strings.Repeat(left.AsString(), int(right.AsInt()))), nil
	}
	if left.Kind() == KindInt && right.Kind() == KindString {
		return String(strings.Repeat(right.AsString(), int(left.AsInt()))), nil
	}
	if left.Kind() == KindList && right.Kind() == KindInt {
		return repeatList(left.AsList().Items, right.AsInt()), nil
	}
	return numericOp(left, right, "mul", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b })
}

func repeatList(items []Value, n int64) Value {
	var out []Value
	for i := int64(0); i < n; i++ {
		out = append(out, items...)
	}
	return List(out...)
}

// divValues always performs true division, promoting to float the way
// Python's "/" operator does.
func divValues(left, right Value) (Value, error) {
	lf, lok := left.Float64()
	rf, rok := right.Float64()
	if !lok || !rok {
		return Value{}, newTypeError("div", "expected numeric operands")
	}
	return Float(lf / rf), nil
}

// modValues follows Python's floored-modulo convention: the result takes
// the sign of the divisor.
func modValues(left, right Value) (Value, error) {
	if left.Kind() == KindInt && right.Kind() == KindInt {
		a, b := left.AsInt(), right.AsInt()
		m := a % b
		if m != 0 && (m < 0) != (b < 0) {
			m += b
		}
		return Int(m), nil
	}
	lf, lok := left.Float64()
	rf, rok := right.Float64()
	if !lok || !rok {
		return Value{}, newTypeError("mod", "expected numeric operands")
	}
	m := math.Mod(lf, rf)
	if m != 0 && (m < 0) != (rf < 0) {
		m += rf
	}
	return Float(m), nil
}

func negValue(value Value) (Value, error) {
	switch value.Kind() {
	case KindInt:
		return Int(-value.AsInt()), nil
	case KindFloat:
		return Float(-value.AsFloat()), nil
	default:
		return Value{}, newTypeError("neg", "expected a number")
	}
}

func powValues(base, exponent Value) (Value, error) {
	bf, bok := base.Float64()
	ef, eok := exponent.Float64()
	if !bok || !eok {
		return Value{}, newTypeError("pow", "expected numeric operands")
	}
	if base.Kind() == KindInt && exponent.Kind() == KindInt && exponent.AsInt() >= 0 {
		return Int(int64(math.Pow(bf, ef))), nil
	}
	return Float(math.Pow(bf, ef)), nil
}

func numericOp(left, right Value, name string, intOp func(a, b int64) int64, floatOp func(a, b float64) float64) (Value, error) {
	if left.Kind() == KindInt && right.Kind() == KindInt {
		return Int(intOp(left.AsInt(), right.AsInt())), nil
	}
	lf, lok := left.Float64()
	rf, rok := right.Float64()
	if !lok || !rok {
		return Value{}, newTypeError(name, "expected numeric operands")
	}
	return Float(floatOp(lf, rf)), nil
}

// toInt mirrors Python's int(): it truncates floats toward zero and parses
// numeric strings, failing with a type error on anything else.
func toInt(value Value) (Value, error) {
	switch value.Kind() {
	case KindInt:
		return value, nil
	case KindFloat:
		return Int(int64(value.AsFloat())), nil
	case KindBool:
		if value.AsBool() {
			return Int(1), nil
		}
		return Int(0), nil
	case KindString:
		i, err := strconv.ParseInt(strings.TrimSpace(value.AsString()), 10, 64)
		if err != nil {
			return Value{}, newTypeError("int", "cannot convert string to int")
		}
		return Int(i), nil
	default:
		return Value{}, newTypeError("int", "expected a number or numeric string")
	}
}

// toFloat mirrors Python's float(), used for both the "float" and "decimal"
// filters since this engine has no separate fixed-point decimal type.
func toFloat(value Value) (Value, error) {
	switch value.Kind() {
	case KindInt:
		return Float(float64(value.AsInt())), nil
	case KindFloat:
		return value, nil
	case KindBool:
		if value.AsBool() {
			return Float(1), nil
		}
		return Float(0), nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(value.AsString()), 64)
		if err != nil {
			return Value{}, newTypeError("float", "cannot convert string to float")
		}
		return Float(f), nil
	default:
		return Value{}, newTypeError("float", "expected a number or numeric string")
	}
}
