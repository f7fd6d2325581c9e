package filter

import (
	"fmt"
	"math"
	"strings"

	"github.com/goccy/go-reflect"
)

// absTol is the absolute tolerance applied to comparisons involving a float,
// so representation error cannot flip an equality-flavored result.
const absTol = 1e-4

// Compare applies op between a value resolved from a target object and a
// rule's comparison value.
//
// Strings compare lexically and booleans support equality only. For numbers,
// an all-integer comparison is exact; as soon as a float is involved the
// operators ==, !=, <= and >= use the absolute tolerance while < and > stay
// strict. Values of unrelated kinds are unequal under == and != and cannot
// be ordered.
func Compare(objValue any, op CompOperator, cmpValue any) (bool, error) {
	if _, ok := validOperators[op]; !ok {
		return false, fmt.Errorf("invalid comparison operator provided: %q", op)
	}

	if s, ok := asString(objValue); ok {
		t, ok := asString(cmpValue)
		if !ok {
			return compareMismatch(objValue, op, cmpValue)
		}
		return compareOrdered(op, strings.Compare(s, t)), nil
	}

	if b, ok := asBool(objValue); ok {
		c, ok := asBool(cmpValue)
		if !ok {
			return compareMismatch(objValue, op, cmpValue)
		}
		switch op {
		case Equal:
			return b == c, nil
		case UnEqual:
			return b != c, nil
		default:
			return false, fmt.Errorf("cannot order boolean values with %q", op)
		}
	}

	a, aFloat, aOK := toNumber(objValue)
	b, bFloat, bOK := toNumber(cmpValue)
	if !aOK || !bOK {
		return compareMismatch(objValue, op, cmpValue)
	}

	if !aFloat && !bFloat {
		return compareOrdered(op, cmpInt(a.i, b.i)), nil
	}
	return compareFloat(a.f, op, b.f), nil
}

func compareFloat(a float64, op CompOperator, b float64) bool {
	near := math.Abs(a-b) <= absTol

	switch op {
	case LessThan:
		return a < b
	case LessThanEqual:
		return a < b || near
	case Equal:
		return near
	case UnEqual:
		return !near
	case GreaterThanEqual:
		return a > b || near
	default:
		return a > b
	}
}

// compareOrdered maps a three-way comparison result onto op.
func compareOrdered(op CompOperator, cmp int) bool {
	switch op {
	case LessThan:
		return cmp < 0
	case LessThanEqual:
		return cmp <= 0
	case Equal:
		return cmp == 0
	case UnEqual:
		return cmp != 0
	case GreaterThanEqual:
		return cmp >= 0
	default:
		return cmp > 0
	}
}

// compareMismatch handles operands of unrelated kinds: they are never equal,
// but ordering them is an error.
func compareMismatch(objValue any, op CompOperator, cmpValue any) (bool, error) {
	switch op {
	case Equal:
		return false, nil
	case UnEqual:
		return true, nil
	default:
		return false, fmt.Errorf("cannot order %T against %T", objValue, cmpValue)
	}
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func asString(value any) (string, bool) {
	v := reflect.ValueOf(value)
	if v.IsValid() && v.Kind() == reflect.String {
		return v.String(), true
	}
	return "", false
}

func asBool(value any) (bool, bool) {
	v := reflect.ValueOf(value)
	if v.IsValid() && v.Kind() == reflect.Bool {
		return v.Bool(), true
	}
	return false, false
}

type number struct {
	i int64
	f float64
}

// toNumber normalizes the numeric kinds. The second result reports whether
// the value belongs to the float family.
func toNumber(value any) (number, bool, bool) {
	v := reflect.ValueOf(value)
	if !v.IsValid() {
		return number{}, false, false
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := v.Int()
		return number{i: i, f: float64(i)}, false, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i := int64(v.Uint())
		return number{i: i, f: float64(i)}, false, true
	case reflect.Float32, reflect.Float64:
		return number{f: v.Float()}, true, true
	default:
		return number{}, false, false
	}
}
