/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import (
	"strconv"
	"strings"
)

// builtinFilterKind enumerates every `$name(args)` built-in value
// transform this engine understands.
type builtinFilterKind int

const (
	bfInc builtinFilterKind = iota
	bfDec
	bfDouble
	bfSquare
	bfString
	bfInt
	bfFloat
	bfDecimal
	bfQuote
	bfEven
	bfOdd
	bfGt
	bfLt
	bfGte
	bfLte
	bfAdd
	bfSub
	bfMul
	bfDiv
	bfMod
	bfNeg
	bfPow
	bfRPow
	bfSqrt
	bfRoot
	bfRound
	bfFloor
	bfCeil
	bfMax
	bfMin
	bfLen
	bfPick
	bfUnpick
	bfAbs
	bfClamp
	bfSign
	bfLog
	bfExp
	bfPct
	bfPctile
	bfMedian
	bfQ1
	bfQ3
	bfIqr
	bfMode
	bfStdev
	bfBetween
	bfSum
	bfAvg
	bfUnique
	bfSorted
	bfFirst
	bfLast
	bfContains
	bfIn
	bfLower
	bfUpper
	bfTitle
	bfStrip
	bfReplace
	bfSplit
	bfJoin
	bfStartswith
	bfEndswith
	bfMatches
	bfDefault
	bfCoalesce
	bfBool
	bfTypeIs
	bfIsEmpty
	bfNonEmpty
	bfToDatetime
	bfTimestamp
	bfAgeSeconds
	bfBefore
	bfAfter
)

// builtinFilter is one compiled `$name(args)` step: the filter kind plus
// whatever arguments it was invoked with. args holds 0, 1, 2, or a variadic
// number of Values depending on the filter (see compileBuiltinFilter).
type builtinFilter struct {
	kind builtinFilterKind
	args []Value
}

// filterStep is one step of a compiled pipeline, carrying whether it was
// written with a trailing "[]" map-suffix (apply per list element).
type filterStep struct {
	filter    builtinFilter
	mapSuffix bool
}

// pipeline is a compiled sequence of `|$name(args)[]` steps.
type pipeline []filterStep

// compileBuiltinFilter maps a filter name and its already-resolved argument
// values onto a builtinFilter, or reports false for an unknown name/arity
// combination.
func compileBuiltinFilter(name string, args []Value) (builtinFilter, bool) {
	arity := len(args)
	mk := func(kind builtinFilterKind) (builtinFilter, bool) {
		return builtinFilter{kind: kind, args: args}, true
	}

	switch name {
	case "inc":
		if arity == 0 {
			return mk(bfInc)
		}
	case "dec":
		if arity == 0 {
			return mk(bfDec)
		}
	case "double":
		if arity == 0 {
			return mk(bfDouble)
		}
	case "square":
		if arity == 0 {
			return mk(bfSquare)
		}
	case "string":
		if arity == 0 {
			return mk(bfString)
		}
	case "int":
		if arity == 0 {
			return mk(bfInt)
		}
	case "float":
		if arity == 0 {
			return mk(bfFloat)
		}
	case "decimal":
		if arity == 0 {
			return mk(bfDecimal)
		}
	case "round":
		if arity == 0 || arity == 1 {
			return mk(bfRound)
		}
	case "floor":
		if arity == 0 {
			return mk(bfFloor)
		}
	case "ceil":
		if arity == 0 {
			return mk(bfCeil)
		}
	case "quote":
		if arity == 0 {
			return mk(bfQuote)
		}
	case "even":
		if arity == 0 {
			return mk(bfEven)
		}
	case "odd":
		if arity == 0 {
			return mk(bfOdd)
		}
	case "neg":
		if arity == 0 {
			return mk(bfNeg)
		}
	case "pow":
		if arity == 1 {
			return mk(bfPow)
		}
	case "rpow":
		if arity == 1 {
			return mk(bfRPow)
		}
	case "sqrt":
		if arity == 0 {
			return mk(bfSqrt)
		}
	case "root":
		if arity == 1 {
			return mk(bfRoot)
		}
	case "max":
		if arity == 0 {
			return mk(bfMax)
		}
	case "min":
		if arity == 0 {
			return mk(bfMin)
		}
	case "len":
		if arity == 0 {
			return mk(bfLen)
		}
	case "pick":
		return mk(bfPick)
	case "unpick":
		return mk(bfUnpick)
	case "abs":
		if arity == 0 {
			return mk(bfAbs)
		}
	case "clamp":
		if arity == 2 {
			return mk(bfClamp)
		}
	case "sign":
		if arity == 0 {
			return mk(bfSign)
		}
	case "log":
		if arity == 0 || arity == 1 {
			return mk(bfLog)
		}
	case "exp":
		if arity == 0 {
			return mk(bfExp)
		}
	case "pct":
		if arity == 1 {
			return mk(bfPct)
		}
	case "pctile":
		if arity == 1 {
			return mk(bfPctile)
		}
	case "median":
		if arity == 0 {
			return mk(bfMedian)
		}
	case "q1":
		if arity == 0 {
			return mk(bfQ1)
		}
	case "q3":
		if arity == 0 {
			return mk(bfQ3)
		}
	case "iqr":
		if arity == 0 {
			return mk(bfIqr)
		}
	case "mode":
		if arity == 0 {
			return mk(bfMode)
		}
	case "stdev":
		if arity == 0 {
			return mk(bfStdev)
		}
	case "between":
		if arity == 2 {
			return mk(bfBetween)
		}
	case "sum":
		if arity == 0 {
			return mk(bfSum)
		}
	case "avg":
		if arity == 0 {
			return mk(bfAvg)
		}
	case "unique":
		if arity == 0 {
			return mk(bfUnique)
		}
	case "sorted":
		if arity == 0 || arity == 1 {
			return mk(bfSorted)
		}
	case "first":
		if arity == 0 {
			return mk(bfFirst)
		}
	case "last":
		if arity == 0 {
			return mk(bfLast)
		}
	case "contains":
		if arity == 1 {
			return mk(bfContains)
		}
	case "in":
		if arity == 1 {
			return mk(bfIn)
		}
	case "lower":
		if arity == 0 {
			return mk(bfLower)
		}
	case "upper":
		if arity == 0 {
			return mk(bfUpper)
		}
	case "title":
		if arity == 0 {
			return mk(bfTitle)
		}
	case "strip":
		if arity == 0 || arity == 1 {
			return mk(bfStrip)
		}
	case "replace":
		if arity == 2 {
			return mk(bfReplace)
		}
	case "split":
		if arity == 0 || arity == 1 {
			return mk(bfSplit)
		}
	case "join":
		if arity == 1 {
			return mk(bfJoin)
		}
	case "startswith":
		if arity == 1 {
			return mk(bfStartswith)
		}
	case "endswith":
		if arity == 1 {
			return mk(bfEndswith)
		}
	case "matches":
		if arity == 1 {
			return mk(bfMatches)
		}
	case "default":
		if arity == 1 {
			return mk(bfDefault)
		}
	case "coalesce":
		if arity >= 1 {
			return mk(bfCoalesce)
		}
	case "bool":
		if arity == 0 {
			return mk(bfBool)
		}
	case "type_is":
		if arity == 1 {
			return mk(bfTypeIs)
		}
	case "is_empty":
		if arity == 0 {
			return mk(bfIsEmpty)
		}
	case "non_empty":
		if arity == 0 {
			return mk(bfNonEmpty)
		}
	case "to_datetime":
		if arity == 0 || arity == 1 {
			return mk(bfToDatetime)
		}
	case "timestamp":
		if arity == 0 {
			return mk(bfTimestamp)
		}
	case "age_seconds":
		if arity == 0 {
			return mk(bfAgeSeconds)
		}
	case "before":
		if arity == 1 {
			return mk(bfBefore)
		}
	case "after":
		if arity == 1 {
			return mk(bfAfter)
		}
	case "gt":
		if arity == 1 {
			return mk(bfGt)
		}
	case "lt":
		if arity == 1 {
			return mk(bfLt)
		}
	case "gte":
		if arity == 1 {
			return mk(bfGte)
		}
	case "lte":
		if arity == 1 {
			return mk(bfLte)
		}
	case "add":
		if arity == 1 {
			return mk(bfAdd)
		}
	case "sub":
		if arity == 1 {
			return mk(bfSub)
		}
	case "mul":
		if arity == 1 {
			return mk(bfMul)
		}
	case "div":
		if arity == 1 {
			return mk(bfDiv)
		}
	case "mod":
		if arity == 1 {
			return mk(bfMod)
		}
	}

	return builtinFilter{}, false
}

// compileBuiltinPipeline compiles a "$name(args)[]|$name2(args2)" string
// into a pipeline. rootData, when non-nil, lets "$$root"-prefixed arguments
// resolve against it at compile time; it is nil whenever a pipeline is
// compiled without an available root (filter matcher field/value
// sub-pipelines and the boolean predicate sub-language), matching the
// asymmetry in how $$root is resolved for arguments versus bare values.
func compileBuiltinPipeline(expression string, rootData *Value) (pipeline, bool) {
	if !strings.HasPrefix(expression, "$") {
		return nil, false
	}

	var out pipeline
	for _, segment := range strings.Split(expression, "|") {
		m := pathFilterSegmentRe.FindStringSubmatch(segment)
		if m == nil {
			return nil, false
		}
		name := m[1]
		args, ok := parseFilterArgs(m[2], rootData)
		if !ok {
			return nil, false
		}
		filter, ok := compileBuiltinFilter(name, args)
		if !ok {
			return nil, false
		}
		out = append(out, filterStep{filter: filter, mapSuffix: m[3] == "[]"})
	}

	return out, true
}

// splitFilterArgs splits a filter's "(args)" interior on top-level commas,
// respecting nested parens/brackets/braces and quoted strings, the same
// hand-rolled scanner shape as splitRawPathTokens.
func splitFilterArgs(argsString string) ([]string, bool) {
	var out []string
	var current []rune
	parenDepth, bracketDepth, braceDepth := 0, 0, 0
	inSingle, inDouble, escaped := false, false, false

	flush := func() {
		out = append(out, strings.TrimSpace(string(current)))
		current = current[:0]
	}

	for _, ch := range argsString {
		if escaped {
			current = append(current, ch)
			escaped = false
			continue
		}
		if ch == '\\' {
			current = append(current, ch)
			escaped = true
			continue
		}
		if inSingle {
			current = append(current, ch)
			if ch == '\'' {
				inSingle = false
			}
			continue
		}
		if inDouble {
			current = append(current, ch)
			if ch == '"' {
				inDouble = false
			}
			continue
		}

		switch ch {
		case '\'':
			inSingle = true
			current = append(current, ch)
		case '"':
			inDouble = true
			current = append(current, ch)
		case '(':
			parenDepth++
			current = append(current, ch)
		case ')':
			parenDepth--
			if parenDepth < 0 {
				return nil, false
			}
			current = append(current, ch)
		case '[':
			bracketDepth++
			current = append(current, ch)
		case ']':
			bracketDepth--
			if bracketDepth < 0 {
				return nil, false
			}
			current = append(current, ch)
		case '{':
			braceDepth++
			current = append(current, ch)
		case '}':
			braceDepth--
			if braceDepth < 0 {
				return nil, false
			}
			current = append(current, ch)
		case ',':
			if parenDepth == 0 && bracketDepth == 0 && braceDepth == 0 {
				flush()
				continue
			}
			current = append(current, ch)
		default:
			current = append(current, ch)
		}
	}

	if inSingle || inDouble || parenDepth != 0 || bracketDepth != 0 || braceDepth != 0 {
		return nil, false
	}

	if strings.TrimSpace(string(current)) != "" {
		flush()
	} else if strings.TrimSpace(argsString) != "" && len(out) == 0 {
		return nil, false
	}

	return out, true
}

// parseFilterArgs parses a filter's argument list, resolving any
// "$$root"-prefixed argument against rootData (when available) and parsing
// everything else as a Python-style literal.
func parseFilterArgs(argsString string, rootData *Value) ([]Value, bool) {
	tokens, ok := splitFilterArgs(argsString)
	if !ok {
		return nil, false
	}

	out := make([]Value, 0, len(tokens))
	for _, token := range tokens {
		if strings.HasPrefix(token, "$$root") {
			if rootData == nil {
				return nil, false
			}
			resolved, err := resolveRootReferenceValue(*rootData, token)
			if err != nil {
				return nil, false
			}
			out = append(out, resolved)
			continue
		}
		out = append(out, parseLiteral(token))
	}
	return out, true
}

// parseLiteral parses a bare filter-argument token as a Python-style
// literal: quoted strings, True/False/None, integers, and floats, falling
// back to the raw text for anything else.
func parseLiteral(value string) Value {
	if n := len(value); n >= 2 {
		if (value[0] == '\'' && value[n-1] == '\'') || (value[0] == '"' && value[n-1] == '"') {
			return String(unescapeLiteral(value[1 : n-1]))
		}
	}

	switch value {
	case "True":
		return Bool(true)
	case "False":
		return Bool(false)
	case "None":
		return Null()
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return Float(f)
	}

	return String(value)
}

func unescapeLiteral(s string) string {
	var out strings.Builder
	escaped := false
	for _, ch := range s {
		if escaped {
			switch ch {
			case 'n':
				out.WriteRune('\n')
			case 't':
				out.WriteRune('\t')
			default:
				out.WriteRune(ch)
			}
			escaped = false
			continue
		}
		if ch == '\\' {
			escaped = true
			continue
		}
		out.WriteRune(ch)
	}
	return out.String()
}
