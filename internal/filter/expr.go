// Package filter implements the declarative object-filtering engine: the
// logical-expression data model, its structural classifier and validator,
// the recursive evaluator, the sanitizer for externally supplied
// definitions, and the ordered-filter-list utilities.
package filter

// Kind discriminates the expression variants understood by this package.
type Kind int

const (
	KindBoolean Kind = iota
	KindRule
	KindConditional
	KindGroup
	KindFilter
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindRule:
		return "rule"
	case KindConditional:
		return "conditional_expression"
	case KindGroup:
		return "group_expression"
	case KindFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// CompOperator is a type used for grouping the comparison operators of a rule.
type CompOperator string

// List of the supported comparison operators.
const (
	LessThan         CompOperator = "<"
	LessThanEqual    CompOperator = "<="
	Equal            CompOperator = "=="
	UnEqual          CompOperator = "!="
	GreaterThanEqual CompOperator = ">="
	GreaterThan      CompOperator = ">"
)

// LogicalOp is a type used for grouping the logical operators of a group expression.
type LogicalOp string

const (
	// All represents a group expression that matches when all of its children match.
	All LogicalOp = "and"
	// Any represents a group expression that matches when at least one of its children matches.
	Any LogicalOp = "or"
)

// MultiValueBehavior selects the aggregation policy applied when a rule
// resolves its criterion through an adapter wrapping a sequence of objects.
type MultiValueBehavior string

const (
	// BehaviorNone declares no policy; evaluating it against a sequence is an error.
	BehaviorNone MultiValueBehavior = "none"
	// BehaviorAdd concatenates string values or sums numeric values before comparing.
	BehaviorAdd MultiValueBehavior = "add"
	// BehaviorEachMeetsCriterion requires the comparison to hold for every element.
	BehaviorEachMeetsCriterion MultiValueBehavior = "each_meets_criterion"
	// BehaviorEachEqual requires all per-element values to be pairwise equal,
	// ignoring the rule's comparison value.
	BehaviorEachEqual MultiValueBehavior = "each_equal_in_object"
)

var (
	validOperators = map[CompOperator]struct{}{
		LessThan: {}, LessThanEqual: {}, Equal: {}, UnEqual: {}, GreaterThanEqual: {}, GreaterThan: {},
	}

	validLogicalOps = map[LogicalOp]struct{}{All: {}, Any: {}}

	validBehaviors = map[MultiValueBehavior]struct{}{
		BehaviorNone: {}, BehaviorAdd: {}, BehaviorEachMeetsCriterion: {}, BehaviorEachEqual: {},
	}
)

// Required key sets of the map-shaped variants, in classification order.
var (
	ruleKeys        = []string{"criterion", "operator", "comparison_value", "parameters", "multi_value_behavior"}
	conditionalKeys = []string{"if", "then", "else"}
	groupKeys       = []string{"logical_operator", "logical_expressions"}
	filterKeys      = []string{"name", "description", "priority", "object_types", "logical_expression"}
)

// Classify determines the expression kind of a structured-data blob.
//
// A bare boolean is always KindBoolean. A string-keyed map is matched against
// the variant key sets in the fixed order rule, conditional expression, group
// expression, filter; the first key set fully contained in the map wins.
// Anything else fails with a *StructuralError. Both Valid and Eval dispatch
// through this function so the two can never disagree about a node's kind.
func Classify(expr any) (Kind, error) {
	switch e := expr.(type) {
	case bool:
		return KindBoolean, nil
	case map[string]any:
		for _, variant := range []struct {
			kind Kind
			keys []string
		}{
			{KindRule, ruleKeys},
			{KindConditional, conditionalKeys},
			{KindGroup, groupKeys},
			{KindFilter, filterKeys},
		} {
			if containsKeys(e, variant.keys) {
				return variant.kind, nil
			}
		}

		return 0, &StructuralError{Value: expr}
	default:
		return 0, &StructuralError{Value: expr}
	}
}

func containsKeys(m map[string]any, keys []string) bool {
	for _, key := range keys {
		if _, ok := m[key]; !ok {
			return false
		}
	}
	return true
}

// Rule builds the wire form of a leaf predicate: read the named criterion
// from the target object and compare it against ComparisonValue.
type Rule struct {
	Criterion          string
	Operator           CompOperator
	ComparisonValue    any
	Parameters         []any
	MultiValueBehavior MultiValueBehavior
}

func (r Rule) Map() map[string]any {
	parameters := r.Parameters
	if parameters == nil {
		parameters = []any{}
	}

	if r.MultiValueBehavior == "" {
		r.MultiValueBehavior = BehaviorNone
	}

	return map[string]any{
		"criterion":            r.Criterion,
		"operator":             string(r.Operator),
		"comparison_value":     r.ComparisonValue,
		"parameters":           parameters,
		"multi_value_behavior": string(r.MultiValueBehavior),
	}
}

// Conditional builds the wire form of a ternary branch. Each field holds a
// logical expression; exactly one of Then and Else is evaluated.
type Conditional struct {
	If, Then, Else any
}

func (c Conditional) Map() map[string]any {
	return map[string]any{"if": c.If, "then": c.Then, "else": c.Else}
}

// Group builds the wire form of a conjunction or disjunction over child expressions.
type Group struct {
	Operator    LogicalOp
	Expressions []any
}

func (g Group) Map() map[string]any {
	expressions := g.Expressions
	if expressions == nil {
		expressions = []any{}
	}

	return map[string]any{
		"logical_operator":    string(g.Operator),
		"logical_expressions": expressions,
	}
}

// Filter builds the wire form of a named, prioritized, type-scoped wrapper
// around one expression tree.
type Filter struct {
	Name              string   `mapstructure:"name"`
	Description       string   `mapstructure:"description"`
	Priority          int      `mapstructure:"priority"`
	ObjectTypes       []string `mapstructure:"object_types"`
	LogicalExpression any      `mapstructure:"logical_expression"`
}

func (f Filter) Map() map[string]any {
	objectTypes := f.ObjectTypes
	if objectTypes == nil {
		objectTypes = []string{"object"}
	}

	expression := f.LogicalExpression
	if expression == nil {
		expression = true
	}

	return map[string]any{
		"name":               f.Name,
		"description":        f.Description,
		"priority":           f.Priority,
		"object_types":       objectTypes,
		"logical_expression": expression,
	}
}
