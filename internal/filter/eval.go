package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/objfilter/objfilter/internal/object"
)

// Eval evaluates a logical expression against target and returns the result.
//
// Rules resolve their criterion through the object package, so the
// capability gate applies to callable criteria on raw targets while adapters
// pass through. Evaluating an expression that is inconsistent with its
// target, e.g. a sequence adapter without an aggregation policy, is always
// an error; there is no silent-false fallback.
func Eval(target any, expr any) (bool, error) {
	kind, err := Classify(expr)
	if err != nil {
		return false, err
	}

	switch kind {
	case KindBoolean:
		return expr.(bool), nil
	case KindRule:
		return evalRule(target, expr.(map[string]any))
	case KindConditional:
		return evalConditional(target, expr.(map[string]any))
	case KindGroup:
		return evalGroup(target, expr.(map[string]any))
	default:
		return Eval(target, expr.(map[string]any)["logical_expression"])
	}
}

func evalRule(target any, rule map[string]any) (bool, error) {
	criterion, _ := rule["criterion"].(string)
	operator := CompOperator(strings.ToLower(stringOf(rule["operator"])))
	parameters := sequenceOf(rule["parameters"])
	comparisonValue := rule["comparison_value"]

	value, err := object.Resolve(target, criterion, parameters)
	if err != nil {
		return false, err
	}

	if multi, ok := target.(*object.Multi); ok {
		return evalMultiRule(multi, rule, operator, value.([]any), comparisonValue)
	}

	return Compare(value, operator, comparisonValue)
}

// evalMultiRule applies the rule's multi-value behavior to the per-element
// values resolved through a sequence adapter.
func evalMultiRule(multi *object.Multi, rule map[string]any, op CompOperator, values []any, comparisonValue any) (bool, error) {
	switch MultiValueBehavior(stringOf(rule["multi_value_behavior"])) {
	case BehaviorNone:
		return false, errors.New(`target wraps a sequence, but multi_value_behavior is "none"`)
	case BehaviorAdd:
		aggregate, err := addValues(stringOf(rule["criterion"]), values)
		if err != nil {
			return false, err
		}
		return Compare(aggregate, op, comparisonValue)
	case BehaviorEachMeetsCriterion:
		// Re-resolve per element: the capability gate applies to each
		// element individually, not to the adapter.
		criterion := stringOf(rule["criterion"])
		parameters := sequenceOf(rule["parameters"])
		for _, elem := range multi.Elements() {
			value, err := object.Resolve(elem, criterion, parameters)
			if err != nil {
				return false, err
			}
			matched, err := Compare(value, op, comparisonValue)
			if err != nil || !matched {
				return false, err
			}
		}
		return true, nil
	case BehaviorEachEqual:
		// Ignores the comparison value, all elements must resolve to the
		// same value. Tolerant equality keeps float rounding out of it.
		for i := 1; i < len(values); i++ {
			equal, err := Compare(values[0], Equal, values[i])
			if err != nil || !equal {
				return false, err
			}
		}
		return true, nil
	default:
		return false, fmt.Errorf("invalid multi value behavior provided: %q", rule["multi_value_behavior"])
	}
}

// addValues folds per-element values into one: string values concatenate in
// order, numeric values sum. Mixed or unsupported kinds are an error.
func addValues(criterion string, values []any) (any, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("criterion %q resolved to an empty sequence, nothing to add", criterion)
	}

	if _, ok := asString(values[0]); ok {
		var sb strings.Builder
		for _, value := range values {
			s, ok := asString(value)
			if !ok {
				return nil, addTypeError(criterion)
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	}

	var sum float64
	allInts := true
	for _, value := range values {
		n, isFloat, ok := toNumber(value)
		if !ok {
			return nil, addTypeError(criterion)
		}
		allInts = allInts && !isFloat
		sum += n.f
	}
	if allInts {
		return int64(sum), nil
	}
	return sum, nil
}

func addTypeError(criterion string) error {
	return fmt.Errorf("criterion %q with multi_value_behavior \"add\" did not resolve to a sequence of numbers or strings", criterion)
}

func evalConditional(target any, expr map[string]any) (bool, error) {
	condition, err := Eval(target, expr["if"])
	if err != nil {
		return false, err
	}

	// Exactly one of the two branches is evaluated.
	if condition {
		return Eval(target, expr["then"])
	}
	return Eval(target, expr["else"])
}

func evalGroup(target any, expr map[string]any) (bool, error) {
	children, ok := expr["logical_expressions"].([]any)
	if !ok {
		return false, fmt.Errorf("logical_expressions is not a sequence")
	}

	switch LogicalOp(stringOf(expr["logical_operator"])) {
	case All:
		for _, child := range children {
			matched, err := Eval(target, child)
			if err != nil || !matched {
				return false, err
			}
		}
		return true, nil
	case Any:
		for _, child := range children {
			matched, err := Eval(target, child)
			if err != nil {
				return false, err
			}
			if matched {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("invalid logical operator provided: %q", expr["logical_operator"])
	}
}

func stringOf(value any) string {
	s, _ := value.(string)
	return s
}

func sequenceOf(value any) []any {
	if s, ok := value.([]any); ok {
		return s
	}
	return nil
}
