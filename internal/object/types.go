package object

import (
	"slices"

	"github.com/goccy/go-reflect"
)

// UniversalType is part of every target's type-name chain, so filters scoped
// to it apply to any object.
const UniversalType = "object"

// TypeNames returns the names a target's runtime type answers to: the type
// itself, the types of embedded struct fields transitively, and the
// universal "object" name. A TypeNamer implementation replaces the reflected
// part of the chain.
func TypeNames(target any) []string {
	if tn, ok := target.(TypeNamer); ok {
		return append(slices.Clone(tn.TypeNames()), UniversalType)
	}

	var names []string
	t := reflect.TypeOf(target)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t != nil {
		names = collectTypeNames(t, names)
	}

	return append(names, UniversalType)
}

func collectTypeNames(t reflect.Type, names []string) []string {
	if name := t.Name(); name != "" {
		names = append(names, name)
	} else {
		names = append(names, t.Kind().String())
	}

	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			if f := t.Field(i); f.Anonymous {
				ft := f.Type
				for ft.Kind() == reflect.Ptr {
					ft = ft.Elem()
				}
				names = collectTypeNames(ft, names)
			}
		}
	}

	return names
}

// MatchesType reports whether target's type-name chain contains at least one
// of names. For a Multi adapter every wrapped element must match; a Single
// adapter matches on its wrapped object.
func MatchesType(target any, names []string) bool {
	switch a := target.(type) {
	case *Single:
		return MatchesType(a.obj, names)
	case *Multi:
		for _, elem := range a.elems {
			if !MatchesType(elem, names) {
				return false
			}
		}
		return true
	}

	for _, name := range TypeNames(target) {
		if slices.Contains(names, name) {
			return true
		}
	}
	return false
}
