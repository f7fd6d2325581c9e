package filter

import (
	"fmt"
	"slices"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// ExecuteFilter runs a single filter definition against target: optionally
// sanitize, then validate against target, then evaluate the nested
// expression. An invalid definition is a hard error, not a false result.
func ExecuteFilter(target any, def map[string]any, sanitize bool) (bool, error) {
	if sanitize {
		def = Sanitize(def)
	}

	kind, err := Classify(def)
	if err != nil {
		return false, err
	}
	if kind != KindFilter {
		return false, fmt.Errorf("%w: definition classifies as %s", ErrInvalidFilter, kind)
	}

	ok, err := Valid(def, target)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrInvalidFilter
	}

	return Eval(target, def)
}

// ExecuteFilterOnCollection runs one filter definition against each element
// of targets and returns the ordered per-element results.
func ExecuteFilterOnCollection(targets []any, def map[string]any, sanitize bool) ([]bool, error) {
	if sanitize {
		def = Sanitize(def)
	}

	results := make([]bool, 0, len(targets))
	for _, target := range targets {
		result, err := ExecuteFilter(target, def, false)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// SortFilters returns a copy of list, stably ordered by priority and then by
// name. The input is never mutated.
func SortFilters(list []map[string]any) []map[string]any {
	sorted := slices.Clone(list)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := decodeFilter(sorted[i]), decodeFilter(sorted[j])
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.Name < b.Name
	})
	return sorted
}

// ExecuteFilterList sorts the definitions, then evaluates each one against
// target in the resulting order, returning one result per filter.
func ExecuteFilterList(target any, list []map[string]any, sanitize bool) ([]bool, error) {
	sorted := SortFilters(list)

	results := make([]bool, 0, len(sorted))
	for _, def := range sorted {
		result, err := ExecuteFilter(target, def, sanitize)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}

	return results, nil
}

// FirstSuccess sorts the definitions, evaluates them in order and returns
// the name of the first filter that target passes. No match is not an empty
// result but ErrNoMatch; absence must never be mistaken for a name.
func FirstSuccess(target any, list []map[string]any, sanitize bool) (string, error) {
	for _, def := range SortFilters(list) {
		matched, err := ExecuteFilter(target, def, sanitize)
		if err != nil {
			return "", err
		}
		if matched {
			return decodeFilter(def).Name, nil
		}
	}

	return "", ErrNoMatch
}

// decodeFilter projects the sortable fields out of a filter definition map.
// Definitions that do not decode sort as zero values.
func decodeFilter(def map[string]any) Filter {
	var f Filter
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
	})
	if err == nil {
		_ = decoder.Decode(def)
	}
	return f
}
