package filter

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/goccy/go-reflect"
	"github.com/objfilter/objfilter/internal/object"
)

// Valid reports whether expr conforms to the logical-expression schema.
//
// target is optional. When non-nil, rules additionally require a known
// operator (matched case-insensitively), a criterion that target exposes and
// that passes the capability gate, and a known multi-value behavior; filters
// additionally require target's type to match one of their object types.
//
// Malformed shapes yield false without an error. Only two conditions are
// hard errors, since they indicate a caller bug rather than a queryable
// validation result: a blob that classifies as no expression kind at all,
// and a filter definition exceeding MaxFilterSize.
func Valid(expr any, target any) (bool, error) {
	kind, err := Classify(expr)
	if err != nil {
		return false, err
	}

	switch kind {
	case KindBoolean:
		return true, nil
	case KindRule:
		return validRule(expr.(map[string]any), target), nil
	case KindConditional:
		return validConditional(expr.(map[string]any), target)
	case KindGroup:
		return validGroup(expr.(map[string]any), target)
	default:
		return validFilter(expr.(map[string]any), target)
	}
}

func validRule(rule map[string]any, target any) bool {
	criterion, ok := rule["criterion"].(string)
	if !ok {
		return false
	}
	operator, ok := rule["operator"].(string)
	if !ok {
		return false
	}
	// comparison_value intentionally stays unchecked, its type varies.
	if !isSequence(rule["parameters"]) {
		return false
	}
	behavior, ok := rule["multi_value_behavior"].(string)
	if !ok {
		return false
	}

	if target == nil {
		return true
	}

	if _, ok := validOperators[CompOperator(strings.ToLower(operator))]; !ok {
		return false
	}
	if !object.Allowed(target, criterion) {
		return false
	}
	if _, ok := validBehaviors[MultiValueBehavior(behavior)]; !ok {
		return false
	}

	return true
}

func validConditional(expr map[string]any, target any) (bool, error) {
	for _, branch := range []string{"if", "then", "else"} {
		ok, err := Valid(expr[branch], target)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func validGroup(expr map[string]any, target any) (bool, error) {
	operator, ok := expr["logical_operator"].(string)
	if !ok {
		return false, nil
	}
	if _, ok := validLogicalOps[LogicalOp(operator)]; !ok {
		return false, nil
	}

	children, ok := expr["logical_expressions"].([]any)
	if !ok {
		return false, nil
	}
	for _, child := range children {
		ok, err := Valid(child, target)
		if err != nil || !ok {
			return false, err
		}
	}

	return true, nil
}

func validFilter(def map[string]any, target any) (bool, error) {
	// The size cap comes first and is a hard error: an oversized definition
	// must never proceed to recursive validation or evaluation.
	encoded, err := json.Marshal(def)
	if err != nil {
		return false, nil
	}
	if len(encoded) > MaxFilterSize {
		return false, &SizeError{Size: len(encoded)}
	}

	if _, ok := def["name"].(string); !ok {
		return false, nil
	}
	if _, ok := def["description"].(string); !ok {
		return false, nil
	}
	priority, ok := asInteger(def["priority"])
	if !ok || priority < 0 {
		return false, nil
	}
	if !isSequence(def["object_types"]) {
		return false, nil
	}

	expression := def["logical_expression"]
	switch expression.(type) {
	case bool, map[string]any:
	default:
		return false, nil
	}

	ok, err = Valid(expression, target)
	if err != nil || !ok {
		return false, err
	}

	if target != nil && !object.MatchesType(target, typeStrings(def["object_types"])) {
		return false, nil
	}

	return true, nil
}

func isSequence(value any) bool {
	v := reflect.ValueOf(value)
	return v.IsValid() && (v.Kind() == reflect.Slice || v.Kind() == reflect.Array)
}

// asInteger accepts the integer kinds plus the whole float64 values that
// JSON decoding produces for them.
func asInteger(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

// typeStrings extracts the string entries of an object_types sequence.
// Entries of other types never match and are dropped.
func typeStrings(value any) []string {
	v := reflect.ValueOf(value)
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil
	}

	names := make([]string, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if s, ok := v.Index(i).Interface().(string); ok {
			names = append(names, s)
		}
	}
	return names
}
