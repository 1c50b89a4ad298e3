/*
 * Copyright 2020 VMware, Inc.
 *
 * SPDX-License-Identifier: Apache-2.0
 */

package dictwalk

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
)

// applyBuiltinPipeline runs input through every step of pipeline in order.
// A contiguous run of map-suffix steps is applied per element whenever the
// current value is a list, rather than once to the list as a whole.
func applyBuiltinPipeline(input Value, pipe pipeline) (Value, error) {
	current := input
	idx := 0

	for idx < len(pipe) {
		step := pipe[idx]
		if step.mapSuffix && current.Kind() == KindList {
			runEnd := idx + 1
			for runEnd < len(pipe) && pipe[runEnd].mapSuffix {
				runEnd++
			}

			items := current.AsList().Items
			mapped := make([]Value, len(items))
			for i, item := range items {
				mappedItem := item
				for _, mappedStep := range pipe[idx:runEnd] {
					var err error
					mappedItem, err = applyBuiltinFilter(mappedItem, mappedStep.filter)
					if err != nil {
						return Value{}, err
					}
				}
				mapped[i] = mappedItem
			}
			current = List(mapped...)
			idx = runEnd
			continue
		}

		var err error
		current, err = applyBuiltinFilter(current, step.filter)
		if err != nil {
			return Value{}, err
		}
		idx++
	}

	return current, nil
}

func arg(f builtinFilter, i int) Value {
	if i >= len(f.args) {
		return Null()
	}
	return f.args[i]
}

// applyBuiltinFilter evaluates a single compiled filter step against value.
func applyBuiltinFilter(value Value, f builtinFilter) (Value, error) {
	switch f.kind {
	case bfInc:
		return addValues(value, Int(1))
	case bfDec:
		return subValues(value, Int(1))
	case bfDouble:
		return mulValues(value, Int(2))
	case bfSquare:
		return mulValues(value, value)
	case bfString:
		return String(value.Text()), nil
	case bfInt:
		return toInt(value)
	case bfFloat:
		return toFloat(value)
	case bfDecimal:
		return toFloat(value)
	case bfRound:
		return roundValue(value, f)
	case bfFloor:
		fv, ok := value.Float64()
		if !ok {
			return Value{}, newTypeError("floor", "expected a number")
		}
		return Int(int64(math.Floor(fv))), nil
	case bfCeil:
		fv, ok := value.Float64()
		if !ok {
			return Value{}, newTypeError("ceil", "expected a number")
		}
		return Int(int64(math.Ceil(fv))), nil
	case bfQuote:
		return String(fmt.Sprintf("%q", value.Text())), nil
	case bfEven, bfOdd:
		if value.Kind() != KindInt {
			return Bool(false), nil
		}
		rem := value.AsInt() % 2
		if rem < 0 {
			rem += 2
		}
		want := int64(0)
		if f.kind == bfOdd {
			want = 1
		}
		return Bool(rem == want), nil
	case bfGt:
		ok, err := compareWithFallback(value, arg(f, 0), ">")
		return Bool(ok), err
	case bfLt:
		ok, err := compareWithFallback(value, arg(f, 0), "<")
		return Bool(ok), err
	case bfGte:
		ok, err := compareWithFallback(value, arg(f, 0), ">=")
		return Bool(ok), err
	case bfLte:
		ok, err := compareWithFallback(value, arg(f, 0), "<=")
		return Bool(ok), err
	case bfAdd:
		return addValues(value, arg(f, 0))
	case bfSub:
		return subValues(value, arg(f, 0))
	case bfMul:
		return mulValues(value, arg(f, 0))
	case bfDiv:
		rhs := arg(f, 0)
		if isZero(rhs) {
			return Null(), nil
		}
		return divValues(value, rhs)
	case bfMod:
		rhs := arg(f, 0)
		if isZero(rhs) {
			return Null(), nil
		}
		return modValues(value, rhs)
	case bfNeg:
		return negValue(value)
	case bfPow:
		return powValues(value, arg(f, 0))
	case bfRPow:
		return powValues(arg(f, 0), value)
	case bfSqrt:
		fv, ok := value.Float64()
		if !ok || fv < 0 {
			return Null(), nil
		}
		return Float(math.Sqrt(fv)), nil
	case bfRoot:
		fv, ok := value.Float64()
		degree, degOk := arg(f, 0).Float64()
		if !ok || !degOk || fv < 0 || degree <= 0 {
			return Null(), nil
		}
		return Float(math.Pow(fv, 1/degree)), nil
	case bfMax:
		return reduceSequence(value, func(best, cand Value) bool {
			ord, _ := orderValues(cand, best)
			return ord == orderGreater
		})
	case bfMin:
		return reduceSequence(value, func(best, cand Value) bool {
			ord, _ := orderValues(cand, best)
			return ord == orderLess
		})
	case bfLen:
		return Int(int64(value.Len())), nil
	case bfPick:
		return pickValue(value, f.args, true)
	case bfUnpick:
		return pickValue(value, f.args, false)
	case bfAbs:
		return absValue(value)
	case bfClamp:
		return clampValue(value, arg(f, 0), arg(f, 1))
	case bfSign:
		gt, _ := compareWithFallback(value, Int(0), ">")
		lt, _ := compareWithFallback(value, Int(0), "<")
		result := int64(0)
		if gt {
			result++
		}
		if lt {
			result--
		}
		return Int(result), nil
	case bfLog:
		return logValue(value, f)
	case bfExp:
		fv, ok := value.Float64()
		if !ok {
			return Value{}, newTypeError("exp", "expected a number")
		}
		return Float(math.Exp(fv)), nil
	case bfPct:
		percentV, err1 := toFloat(arg(f, 0))
		valueV, err2 := toFloat(value)
		if err1 != nil || err2 != nil {
			return Value{}, newTypeError("pct", "expected numeric operands")
		}
		return Float(valueV.AsFloat() * (percentV.AsFloat() / 100)), nil
	case bfPctile:
		return percentileFilterValue(value, arg(f, 0))
	case bfMedian:
		return statFilterValue(value, 50.0, false)
	case bfQ1:
		return statFilterValue(value, 25.0, false)
	case bfQ3:
		return statFilterValue(value, 75.0, false)
	case bfIqr:
		return iqrValue(value)
	case bfMode:
		return modeValue(value)
	case bfStdev:
		return stdevValue(value)
	case bfBetween:
		geMin, err := compareWithFallback(value, arg(f, 0), ">=")
		if err != nil {
			return Value{}, err
		}
		leMax, err := compareWithFallback(value, arg(f, 1), "<=")
		if err != nil {
			return Value{}, err
		}
		return Bool(geMin && leMax), nil
	case bfSum:
		return sumValue(value)
	case bfAvg:
		return avgValue(value)
	case bfUnique:
		return uniqueValue(value)
	case bfSorted:
		return sortedValue(value, f)
	case bfFirst:
		return firstOrLast(value, true)
	case bfLast:
		return firstOrLast(value, false)
	case bfContains:
		return containsValue(value, arg(f, 0))
	case bfIn:
		return containsValue(arg(f, 0), value)
	case bfLower:
		return String(strings.ToLower(value.Text())), nil
	case bfUpper:
		return String(strings.ToUpper(value.Text())), nil
	case bfTitle:
		return String(strings.Title(strings.ToLower(value.Text()))), nil
	case bfStrip:
		if len(f.args) == 1 {
			return String(strings.Trim(value.Text(), arg(f, 0).Text())), nil
		}
		return String(strings.TrimSpace(value.Text())), nil
	case bfReplace:
		return String(strings.ReplaceAll(value.Text(), arg(f, 0).Text(), arg(f, 1).Text())), nil
	case bfSplit:
		if len(f.args) == 1 {
			parts := strings.Split(value.Text(), arg(f, 0).Text())
			return stringsToList(parts), nil
		}
		return stringsToList(strings.Fields(value.Text())), nil
	case bfJoin:
		return joinValue(value, arg(f, 0))
	case bfStartswith:
		return Bool(strings.HasPrefix(value.Text(), arg(f, 0).Text())), nil
	case bfEndswith:
		return Bool(strings.HasSuffix(value.Text(), arg(f, 0).Text())), nil
	case bfMatches:
		re, err := regexp.Compile(arg(f, 0).Text())
		if err != nil {
			return Value{}, newValueError("matches", err.Error())
		}
		return Bool(re.MatchString(value.Text())), nil
	case bfDefault:
		if value.IsNull() {
			return arg(f, 0), nil
		}
		return value, nil
	case bfCoalesce:
		if !value.IsNull() {
			return value, nil
		}
		for _, candidate := range f.args {
			if !candidate.IsNull() {
				return candidate, nil
			}
		}
		return Null(), nil
	case bfBool:
		return boolValue(value), nil
	case bfTypeIs:
		return Bool(pythonTypeName(value) == strings.ToLower(arg(f, 0).Text())), nil
	case bfIsEmpty:
		return Bool(value.IsNull() || value.Len() == 0), nil
	case bfNonEmpty:
		return Bool(!(value.IsNull() || value.Len() == 0)), nil
	case bfToDatetime:
		var fmtArg *string
		if len(f.args) == 1 {
			s := arg(f, 0).Text()
			fmtArg = &s
		}
		dt, ok := asDatetime(value, fmtArg)
		if !ok {
			return Null(), nil
		}
		return dt, nil
	case bfTimestamp:
		dt, ok := asDatetime(value, nil)
		if !ok {
			return Null(), nil
		}
		return Float(float64(dt.AsTime().UnixNano()) / 1e9), nil
	case bfAgeSeconds:
		dt, ok := asDatetime(value, nil)
		if !ok {
			return Null(), nil
		}
		now := time.Now().In(dt.AsTime().Location())
		return Float(now.Sub(dt.AsTime()).Seconds()), nil
	case bfBefore:
		left, lok := asDatetime(value, nil)
		right, rok := asDatetime(arg(f, 0), nil)
		if !lok || !rok {
			return Bool(false), nil
		}
		ok, err := compareWithFallback(left, right, "<")
		return Bool(ok), err
	case bfAfter:
		left, lok := asDatetime(value, nil)
		right, rok := asDatetime(arg(f, 0), nil)
		if !lok || !rok {
			return Bool(false), nil
		}
		ok, err := compareWithFallback(left, right, ">")
		return Bool(ok), err
	default:
		return Value{}, fmt.Errorf("unknown builtin filter")
	}
}

func newValueError(token, message string) *Error {
	return &Error{Kind: ErrKindValue, Token: token, Message: message}
}

func isZero(v Value) bool {
	ok, _ := compareValues(v, Int(0), "==")
	return ok
}

func roundValue(value Value, f builtinFilter) (Value, error) {
	fv, ok := value.Float64()
	if !ok {
		return Value{}, newTypeError("round", "expected a number")
	}
	if len(f.args) == 0 {
		return Int(int64(math.Round(fv))), nil
	}
	ndigits := arg(f, 0).AsInt()
	mult := math.Pow(10, float64(ndigits))
	return Float(math.Round(fv*mult) / mult), nil
}

func logValue(value Value, f builtinFilter) (Value, error) {
	base := math.E
	if len(f.args) == 1 {
		bf, ok := arg(f, 0).Float64()
		if !ok {
			return Value{}, newTypeError("log", "expected a numeric base")
		}
		base = bf
	}
	fv, ok := value.Float64()
	if !ok || fv <= 0 || base <= 0 || base == 1 {
		return Null(), nil
	}
	return Float(math.Log(fv) / math.Log(base)), nil
}

func reduceSequence(value Value, better func(best, cand Value) bool) (Value, error) {
	if value.Kind() != KindList {
		return value, nil
	}
	items := value.AsList().Items
	if len(items) == 0 {
		return Value{}, newValueError("", "sequence is empty")
	}
	best := items[0]
	for _, item := range items[1:] {
		if better(best, item) {
			best = item
		}
	}
	return best, nil
}

func pickValue(value Value, keys []Value, keep bool) (Value, error) {
	if value.Kind() != KindMap {
		return Null(), nil
	}
	source := value.AsMap()
	out := NewMapValue()
	if keep {
		for _, key := range keys {
			k := key.Text()
			if v, ok := source.Get(k); ok {
				out.Set(k, v)
			}
		}
		return NewMap(out), nil
	}

	for _, k := range source.Keys() {
		remove := false
		for _, candidate := range keys {
			if eq, _ := compareValues(String(k), candidate, "=="); eq {
				remove = true
				break
			}
		}
		if !remove {
			v, _ := source.Get(k)
			out.Set(k, v)
		}
	}
	return NewMap(out), nil
}

func absValue(value Value) (Value, error) {
	switch value.Kind() {
	case KindInt:
		v := value.AsInt()
		if v < 0 {
			v = -v
		}
		return Int(v), nil
	case KindFloat:
		return Float(math.Abs(value.AsFloat())), nil
	default:
		return Value{}, newTypeError("abs", "expected a number")
	}
}

func clampValue(value, minValue, maxValue Value) (Value, error) {
	lowered, err := maxOf(minValue, value)
	if err != nil {
		return Value{}, err
	}
	return minOf(maxValue, lowered)
}

func maxOf(a, b Value) (Value, error) {
	ord, comparable := orderValues(a, b)
	if !comparable {
		return Value{}, newTypeError("clamp", "values are not comparable")
	}
	if ord == orderGreater || ord == orderEqual {
		return a, nil
	}
	return b, nil
}

func minOf(a, b Value) (Value, error) {
	ord, comparable := orderValues(a, b)
	if !comparable {
		return Value{}, newTypeError("clamp", "values are not comparable")
	}
	if ord == orderLess || ord == orderEqual {
		return a, nil
	}
	return b, nil
}

func collectNumericSequence(value Value) ([]float64, bool) {
	if value.Kind() != KindList {
		return nil, false
	}
	items := value.AsList().Items
	out := make([]float64, 0, len(items))
	for _, item := range items {
		fv, ok := item.Float64()
		if !ok {
			// Mirrors the source's use of Python's float(), which also
			// accepts numeric strings.
			parsed := parseLiteral(item.Text())
			fv, ok = parsed.Float64()
			if !ok {
				return nil, true
			}
		}
		out = append(out, fv)
	}
	return out, true
}

// percentileValue computes the p-th percentile of sorted (ascending)
// values using linear interpolation between adjacent ranks. A
// single-element sequence returns that element for any valid percentile.
func percentileValue(sorted []float64, percentile float64) (float64, bool) {
	if len(sorted) == 0 || percentile < 0 || percentile > 100 {
		return 0, false
	}
	if len(sorted) == 1 {
		return sorted[0], true
	}

	rank := (percentile / 100.0) * float64(len(sorted)-1)
	lowerIdx := int(math.Floor(rank))
	upperIdx := int(math.Ceil(rank))
	fraction := rank - float64(lowerIdx)

	lower := sorted[lowerIdx]
	upper := sorted[upperIdx]
	return lower + (upper-lower)*fraction, true
}

func percentileFilterValue(value, percentile Value) (Value, error) {
	values, isList := collectNumericSequence(value)
	if !isList {
		return value, nil
	}
	if len(values) == 0 {
		return Null(), nil
	}
	p, ok := percentile.Float64()
	if !ok {
		return Value{}, newTypeError("pctile", "expected a numeric percentile")
	}
	sort.Float64s(values)
	result, ok := percentileValue(values, p)
	if !ok {
		return Null(), nil
	}
	return Float(result), nil
}

func statFilterValue(value Value, percentile float64, _ bool) (Value, error) {
	values, isList := collectNumericSequence(value)
	if !isList {
		return value, nil
	}
	if len(values) == 0 {
		return Null(), nil
	}
	sort.Float64s(values)
	result, _ := percentileValue(values, percentile)
	return Float(result), nil
}

func iqrValue(value Value) (Value, error) {
	values, isList := collectNumericSequence(value)
	if !isList {
		return value, nil
	}
	if len(values) == 0 {
		return Null(), nil
	}
	sort.Float64s(values)
	q1, _ := percentileValue(values, 25.0)
	q3, _ := percentileValue(values, 75.0)
	return Float(q3 - q1), nil
}

func modeValue(value Value) (Value, error) {
	if value.Kind() != KindList {
		return value, nil
	}
	items := value.AsList().Items
	if len(items) == 0 {
		return Null(), nil
	}

	var best Value
	bestCount := 0
	for _, candidate := range items {
		count := 0
		for _, item := range items {
			if eq, _ := compareValues(item, candidate, "=="); eq {
				count++
			}
		}
		if count > bestCount {
			bestCount = count
			best = candidate
		}
	}
	return best, nil
}

func stdevValue(value Value) (Value, error) {
	values, isList := collectNumericSequence(value)
	if !isList {
		return value, nil
	}
	if len(values) == 0 {
		return Null(), nil
	}
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= n
	return Float(math.Sqrt(variance)), nil
}

func sumValue(value Value) (Value, error) {
	if value.Kind() != KindList {
		return value, nil
	}
	items := value.AsList().Items
	acc := Int(0)
	var err error
	for _, item := range items {
		acc, err = addValues(acc, item)
		if err != nil {
			return Value{}, err
		}
	}
	return acc, nil
}

func avgValue(value Value) (Value, error) {
	if value.Kind() != KindList {
		return value, nil
	}
	items := value.AsList().Items
	if len(items) == 0 {
		return Null(), nil
	}
	total, err := sumValue(value)
	if err != nil {
		return Value{}, err
	}
	return divValues(total, Int(int64(len(items))))
}

func uniqueValue(value Value) (Value, error) {
	if value.Kind() != KindList {
		return value, nil
	}
	var out []Value
	for _, item := range value.AsList().Items {
		seen := false
		for _, kept := range out {
			if eq, _ := compareValues(item, kept, "=="); eq {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, item)
		}
	}
	return List(out...), nil
}

func sortedValue(value Value, f builtinFilter) (Value, error) {
	if value.Kind() != KindList {
		return value, nil
	}
	items := append([]Value(nil), value.AsList().Items...)
	reverse := len(f.args) == 1 && arg(f, 0).Truthy()

	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		ord, comparable := orderValues(items[i], items[j])
		if !comparable {
			sortErr = newTypeError("sorted", "list elements are not comparable")
			return false
		}
		if reverse {
			return ord == orderGreater
		}
		return ord == orderLess
	})
	if sortErr != nil {
		return Value{}, sortErr
	}
	return List(items...), nil
}

func firstOrLast(value Value, first bool) (Value, error) {
	if value.Kind() != KindList {
		return value, nil
	}
	items := value.AsList().Items
	if len(items) == 0 {
		return Null(), nil
	}
	if first {
		return items[0], nil
	}
	return items[len(items)-1], nil
}

func containsValue(haystack, needle Value) (Value, error) {
	switch haystack.Kind() {
	case KindString:
		return Bool(strings.Contains(haystack.AsString(), needle.Text())), nil
	case KindList:
		for _, item := range haystack.AsList().Items {
			if eq, _ := compareValues(item, needle, "=="); eq {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case KindMap:
		return Bool(haystack.AsMap().Contains(needle.Text())), nil
	default:
		return Value{}, newTypeError("contains", "value does not support membership testing")
	}
}

func stringsToList(parts []string) Value {
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = String(p)
	}
	return List(out...)
}

func joinValue(value, sep Value) (Value, error) {
	if value.Kind() != KindList {
		return String(value.Text()), nil
	}
	parts := make([]string, len(value.AsList().Items))
	for i, item := range value.AsList().Items {
		parts[i] = item.Text()
	}
	return String(strings.Join(parts, sep.Text())), nil
}

func boolValue(value Value) Value {
	if value.Kind() == KindString {
		normalized := strings.ToLower(strings.TrimSpace(value.AsString()))
		switch normalized {
		case "1", "true", "yes", "y", "on":
			return Bool(true)
		default:
			return Bool(false)
		}
	}
	return Bool(value.Truthy())
}

func pythonTypeName(value Value) string {
	switch value.Kind() {
	case KindNull:
		return "nonetype"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "str"
	case KindDateTime:
		return "datetime"
	case KindList:
		return "list"
	case KindMap:
		return "dict"
	default:
		return "unknown"
	}
}

// asDatetime coerces value to a datetime Value: a datetime passes through,
// an int/float is treated as a UTC Unix timestamp, and a string is parsed
// either with the strptime-style fmt layout or, absent one, as ISO-8601.
func asDatetime(value Value, fmt *string) (Value, bool) {
	switch value.Kind() {
	case KindDateTime:
		return value, true
	case KindInt:
		sec := value.AsInt()
		return DateTime(time.Unix(sec, 0).UTC()), true
	case KindFloat:
		f := value.AsFloat()
		sec := int64(f)
		nsec := int64((f - float64(sec)) * 1e9)
		return DateTime(time.Unix(sec, nsec).UTC()), true
	case KindString:
		if fmt != nil {
			t, err := time.Parse(strptimeToGoLayout(*fmt), value.AsString())
			if err != nil {
				return Value{}, false
			}
			return DateTime(t), true
		}
		t, err := parseISO8601(value.AsString())
		if err != nil {
			return Value{}, false
		}
		return DateTime(t), true
	default:
		return Value{}, false
	}
}

func parseISO8601(s string) (time.Time, error) {
	normalized := strings.ReplaceAll(s, "Z", "+00:00")
	layouts := []string{
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02T15:04:05-07:00",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05-07:00",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02",
	}
	var firstErr error
	for _, layout := range layouts {
		if t, err := time.Parse(layout, normalized); err == nil {
			return t, nil
		} else if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

var strptimeReplacer = strings.NewReplacer(
	"%Y", "2006",
	"%y", "06",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%I", "03",
	"%M", "04",
	"%S", "05",
	"%f", "000000",
	"%z", "-0700",
	"%Z", "MST",
	"%b", "Jan",
	"%B", "January",
	"%a", "Mon",
	"%A", "Monday",
	"%p", "PM",
)

func strptimeToGoLayout(layout string) string {
	return strptimeReplacer.Replace(layout)
}
