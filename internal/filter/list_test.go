package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func namedFilter(name string, priority int, expression any) map[string]any {
	return Filter{Name: name, Priority: priority, LogicalExpression: expression}.Map()
}

func TestSortFilters(t *testing.T) {
	t.Parallel()

	list := []map[string]any{
		namedFilter("B", 1, true),
		namedFilter("A", 1, true),
		namedFilter("Z", 0, true),
	}

	sorted := SortFilters(list)

	names := make([]string, 0, len(sorted))
	for _, def := range sorted {
		names = append(names, def["name"].(string))
	}
	assert.Equal(t, []string{"Z", "A", "B"}, names)

	assert.Equal(t, "B", list[0]["name"], "input order stays untouched")
}

func TestExecuteFilter(t *testing.T) {
	t.Parallel()

	target := book{Title: "Gormenghast", Pages: 396}

	t.Run("Match", func(t *testing.T) {
		def := namedFilter("thick-books", 0, Rule{Criterion: "Pages", Operator: GreaterThan, ComparisonValue: 300}.Map())

		got, err := ExecuteFilter(target, def, true)
		require.NoError(t, err)
		assert.True(t, got)
	})

	t.Run("SanitizeBeforeValidation", func(t *testing.T) {
		def := namedFilter("clean-me", 0, Rule{Criterion: "Pages\x00", Operator: GreaterThan, ComparisonValue: 300}.Map())

		got, err := ExecuteFilter(target, def, true)
		require.NoError(t, err)
		assert.True(t, got)

		_, err = ExecuteFilter(target, def, false)
		assert.ErrorIs(t, err, ErrInvalidFilter, "without sanitizing, the criterion stays unresolvable")
	})

	t.Run("InvalidDefinition", func(t *testing.T) {
		def := namedFilter("wrong-type", 0, true)
		def["object_types"] = []string{"invoice"}

		_, err := ExecuteFilter(target, def, true)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})

	t.Run("NotAFilter", func(t *testing.T) {
		_, err := ExecuteFilter(target, Rule{Criterion: "Pages", Operator: Equal, ComparisonValue: 1}.Map(), true)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	})

	t.Run("SizeCapIsHardError", func(t *testing.T) {
		def := namedFilter("huge", 0, true)
		def["description"] = string(make([]byte, MaxFilterSize+1))

		_, err := ExecuteFilter(target, def, false)
		var size *SizeError
		assert.ErrorAs(t, err, &size)
	})
}

func TestExecuteFilterOnCollection(t *testing.T) {
	t.Parallel()

	def := namedFilter("thick-books", 0, Rule{Criterion: "Pages", Operator: GreaterThanEqual, ComparisonValue: 300}.Map())
	targets := []any{book{Pages: 396}, book{Pages: 263}, book{Pages: 452}}

	results, err := ExecuteFilterOnCollection(targets, def, true)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, results)
}

func TestExecuteFilterList(t *testing.T) {
	t.Parallel()

	list := []map[string]any{
		namedFilter("short", 1, Rule{Criterion: "Pages", Operator: LessThan, ComparisonValue: 300}.Map()),
		namedFilter("long", 0, Rule{Criterion: "Pages", Operator: GreaterThanEqual, ComparisonValue: 300}.Map()),
	}

	results, err := ExecuteFilterList(book{Pages: 396}, list, true)
	require.NoError(t, err)

	// Results follow the sorted order: "long" has priority 0 and runs first.
	assert.Equal(t, []bool{true, false}, results)
}

func TestFirstSuccess(t *testing.T) {
	t.Parallel()

	list := []map[string]any{
		namedFilter("fallback", 9, true),
		namedFilter("short", 0, Rule{Criterion: "Pages", Operator: LessThan, ComparisonValue: 300}.Map()),
		namedFilter("long", 0, Rule{Criterion: "Pages", Operator: GreaterThanEqual, ComparisonValue: 300}.Map()),
	}

	t.Run("EarliestMatchWins", func(t *testing.T) {
		name, err := FirstSuccess(book{Pages: 396}, list, true)
		require.NoError(t, err)
		assert.Equal(t, "long", name)

		name, err = FirstSuccess(book{Pages: 100}, list, true)
		require.NoError(t, err)
		assert.Equal(t, "short", name)
	})

	t.Run("NoMatchIsAnError", func(t *testing.T) {
		noFallback := list[1:]

		_, err := FirstSuccess(map[string]any{"Pages": "unreadable"}, noFallback, true)
		assert.Error(t, err)

		_, err = FirstSuccess(book{Pages: 300}, noFallback[:1], true)
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}
