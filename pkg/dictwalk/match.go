/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import (
	"fmt"
	"strings"
)

type fieldResolverKind int

const (
	fieldResolverCurrentItem fieldResolverKind = iota
	fieldResolverPipeline
	fieldResolverNullTransform
	fieldResolverPredicate
	fieldResolverKey
)

type valueMatcherKind int

const (
	valueMatcherPipeline valueMatcherKind = iota
	valueMatcherPredicate
	valueMatcherLiteral
)

// compiledFilterMatcher is the compiled form of a filter token's FIELD and
// VALUE expressions, built once per resolveFilterToken call and then
// applied to every element of the candidate list.
type compiledFilterMatcher struct {
	fieldKind fieldResolverKind
	fieldKey  string
	fieldPipe pipeline
	fieldPred *predicateExpr

	valueKind    valueMatcherKind
	valuePipe    pipeline
	valuePred    *predicateExpr
	valueLiteral Value
	rawValue     string
}

// compileFilterMatcher compiles a filter token's field and value
// expressions. Neither side resolves "$$root" pipeline arguments at compile
// time, mirroring the asymmetry documented for compileBuiltinPipeline: the
// "$$root" literal on the value side is instead resolved per match, once
// the root document is available.
func compileFilterMatcher(field, value string) (*compiledFilterMatcher, error) {
	m := &compiledFilterMatcher{rawValue: value}

	switch {
	case field == ".":
		m.fieldKind = fieldResolverCurrentItem
	case strings.HasPrefix(field, ".|"):
		if pipe, ok := compileBuiltinPipeline(field[2:], nil); ok {
			m.fieldKind = fieldResolverPipeline
			m.fieldPipe = pipe
		} else {
			m.fieldKind = fieldResolverNullTransform
		}
	default:
		pred, err := compileBuiltinOrBooleanPredicate(field)
		if err != nil {
			return nil, newParseError("", field, err.Error())
		}
		if pred != nil {
			m.fieldKind = fieldResolverPredicate
			m.fieldPred = pred
		} else {
			m.fieldKind = fieldResolverKey
			m.fieldKey = field
		}
	}

	if pipe, ok := compileBuiltinPipeline(value, nil); ok {
		m.valueKind = valueMatcherPipeline
		m.valuePipe = pipe
		return m, nil
	}
	if pred, err := compileBuiltinOrBooleanPredicate(value); err == nil && pred != nil {
		m.valueKind = valueMatcherPredicate
		m.valuePred = pred
		return m, nil
	}
	m.valueKind = valueMatcherLiteral
	m.valueLiteral = parseLiteral(value)
	return m, nil
}

func resolveFilterFieldValueCompiled(m *compiledFilterMatcher, item Value) (Value, error) {
	switch m.fieldKind {
	case fieldResolverCurrentItem:
		return item, nil
	case fieldResolverPipeline:
		return applyBuiltinPipeline(item, m.fieldPipe)
	case fieldResolverNullTransform:
		return Null(), nil
	case fieldResolverPredicate:
		result, err := evalPredicateExpr(m.fieldPred, item)
		if err != nil {
			return Value{}, err
		}
		return Bool(result), nil
	case fieldResolverKey:
		if item.Kind() == KindMap {
			if v, ok := item.AsMap().Get(m.fieldKey); ok {
				return v, nil
			}
		}
		return Null(), nil
	default:
		return Null(), nil
	}
}

// filterMatchesCompiled evaluates whether item satisfies matcher under
// operator, trying the compare-with-fallback chain on the literal path:
// compare_values(==), then raw-text string equality, then (for ordering
// operators) reparsing a string field value as a literal, then falling
// back to comparing both sides as plain strings.
func filterMatchesCompiled(operator string, m *compiledFilterMatcher, item Value, root *Value) (bool, error) {
	fieldValue, err := resolveFilterFieldValueCompiled(m, item)
	if err != nil {
		return false, err
	}

	if m.valueKind == valueMatcherPipeline {
		if operator != "==" && operator != "!=" {
			return false, newOperatorError(operator, "path filters only support == and != against a pipeline value")
		}
		predicateValue, err := applyBuiltinPipeline(fieldValue, m.valuePipe)
		if err != nil {
			return false, err
		}
		truthy := predicateValue.Truthy()
		if operator == "==" {
			return truthy, nil
		}
		return !truthy, nil
	}

	if m.valueKind == valueMatcherPredicate {
		switch operator {
		case "==":
			return evalPredicateExpr(m.valuePred, fieldValue)
		case "!=":
			result, err := evalPredicateExpr(m.valuePred, fieldValue)
			if err != nil {
				return false, err
			}
			return !result, nil
		default:
			return false, newOperatorError(operator, "path filters only support == and != against a predicate value")
		}
	}

	expectedValue := m.valueLiteral
	if strings.HasPrefix(m.rawValue, "$$root") && root != nil {
		resolved, err := resolveRootReferenceValue(*root, m.rawValue)
		if err != nil {
			return false, err
		}
		expectedValue = resolved
	}

	if operator == "==" || operator == "!=" {
		eq, _ := compareValues(fieldValue, expectedValue, "==")
		result := eq || fieldValue.Text() == m.rawValue
		if operator == "==" {
			return result, nil
		}
		return !result, nil
	}

	result, err := compareValues(fieldValue, expectedValue, operator)
	if err == nil {
		return result, nil
	}
	if !isTypeErr(err) {
		return false, err
	}

	if fieldValue.Kind() == KindString {
		parsedFieldValue := parseLiteral(fieldValue.AsString())
		result, err := compareValues(parsedFieldValue, expectedValue, operator)
		if err == nil {
			return result, nil
		}
		if !isTypeErr(err) {
			return false, err
		}
	}

	return compareValues(String(fieldValue.Text()), String(expectedValue.Text()), operator)
}

func isTypeErr(err error) bool {
	de, ok := err.(*Error)
	return ok && de.Kind == ErrKindType
}

// resolveFilterToken evaluates a "listKey[?field op value]" token against
// current, returning the matching elements as a list. When current is not
// a map, listKey is ignored and current itself must be the candidate list.
func resolveFilterToken(current, root Value, listKey, field, operator, value string) (Value, error) {
	matcher, err := compileFilterMatcher(field, value)
	if err != nil {
		return Value{}, err
	}

	sourceList := current
	if current.Kind() == KindMap {
		if v, ok := current.AsMap().Get(listKey); ok {
			sourceList = v
		} else {
			sourceList = List()
		}
	}

	if sourceList.Kind() != KindList {
		return Value{}, newTypeError(listKey, fmt.Sprintf("expected a list for key '%s', got %s", listKey, pythonTypeName(sourceList)))
	}

	var out []Value
	for _, item := range sourceList.AsList().Items {
		matched, err := filterMatchesCompiled(operator, matcher, item, &root)
		if err != nil {
			return Value{}, err
		}
		if matched {
			out = append(out, item)
		}
	}
	return List(out...), nil
}
