// Package object resolves rule criteria against live Go values.
//
// A target is an arbitrary application value: a string-keyed map, a struct,
// or a pointer to one. Non-callable members (map entries, struct fields) may
// always be queried as rule criteria. Methods are only reachable through the
// capability gate: the target must implement Criteria and list the method
// name, since rule definitions are often externally supplied and must not be
// able to invoke arbitrary code.
package object

import (
	"fmt"
	"slices"

	"github.com/goccy/go-reflect"
)

// Criteria is implemented by targets that allow selected methods to be
// invoked as rule criteria. Methods not listed stay off limits to filter
// definitions.
type Criteria interface {
	CriterionMethods() []string
}

// TypeNamer replaces the reflected type-name chain of a target.
type TypeNamer interface {
	TypeNames() []string
}

// MissingMemberError reports a criterion that a target does not expose.
type MissingMemberError struct {
	TypeName string
	Member   string
}

func (e *MissingMemberError) Error() string {
	return fmt.Sprintf("%s has no member %q", e.TypeName, e.Member)
}

// CapabilityError reports a callable criterion that the target does not list
// as permitted.
type CapabilityError struct {
	TypeName string
	Member   string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("method %q of %s is not a permitted filter criterion", e.Member, e.TypeName)
}

// Resolve returns the value of the named member of target, invoking callable
// members with args.
//
// Adapters resolve through their own lookup and bypass the capability gate;
// for every other target the gate applies to callable members.
func Resolve(target any, name string, args []any) (any, error) {
	if a, ok := target.(Adapter); ok {
		return a.Resolve(name, args)
	}
	return resolve(target, name, args, true)
}

// Has reports whether target exposes the named member. For a Multi adapter
// every wrapped element must expose it.
func Has(target any, name string) bool {
	switch a := target.(type) {
	case *Single:
		return Has(a.obj, name)
	case *Multi:
		for _, elem := range a.elems {
			if !Has(elem, name) {
				return false
			}
		}
		return true
	}

	_, ok := member(target, name)
	return ok
}

// Allowed reports whether the named member may be used as a rule criterion:
// it must exist and, when callable, pass the capability gate. Adapters are
// exempt from the gate.
func Allowed(target any, name string) bool {
	if _, ok := target.(Adapter); ok {
		return Has(target, name)
	}

	m, found := member(target, name)
	if !found {
		return false
	}
	return !m.callable || criterionAllowed(target, name)
}

func resolve(target any, name string, args []any, gated bool) (any, error) {
	m, found := member(target, name)
	if !found {
		return nil, &MissingMemberError{TypeName: typeName(target), Member: name}
	}

	if !m.callable {
		return m.value, nil
	}

	if gated && !criterionAllowed(target, name) {
		return nil, &CapabilityError{TypeName: typeName(target), Member: name}
	}

	return call(m.fn, args)
}

func criterionAllowed(target any, name string) bool {
	c, ok := target.(Criteria)
	return ok && slices.Contains(c.CriterionMethods(), name)
}

type memberInfo struct {
	value    any
	fn       reflect.Value
	callable bool
}

// member locates the named member of target. Maps resolve by key, everything
// else by method and then by exported struct field.
func member(target any, name string) (memberInfo, bool) {
	v := reflect.ValueOf(target)
	if !v.IsValid() {
		return memberInfo{}, false
	}

	if v.Kind() == reflect.Map && v.Type().Key().Kind() == reflect.String {
		entry := v.MapIndex(reflect.ValueOf(name).Convert(v.Type().Key()))
		if !entry.IsValid() {
			return memberInfo{}, false
		}

		value := entry.Interface()
		if fn := reflect.ValueOf(value); fn.IsValid() && fn.Kind() == reflect.Func {
			return memberInfo{fn: fn, callable: true}, true
		}
		return memberInfo{value: value}, true
	}

	if m := v.MethodByName(name); m.IsValid() {
		return memberInfo{fn: m, callable: true}, true
	}

	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return memberInfo{}, false
		}
		v = v.Elem()
	}

	if v.Kind() == reflect.Struct {
		if f := v.FieldByName(name); f.IsValid() && f.CanInterface() {
			if f.Kind() == reflect.Func && !f.IsNil() {
				return memberInfo{fn: f, callable: true}, true
			}
			return memberInfo{value: f.Interface()}, true
		}
	}

	return memberInfo{}, false
}

// call invokes fn with args, converting each argument to the parameter type
// where necessary, e.g. the float64 that JSON decoding produces into an int
// parameter. A trailing error return value of fn is propagated.
func call(fn reflect.Value, args []any) (any, error) {
	t := fn.Type()
	if t.IsVariadic() {
		if len(args) < t.NumIn()-1 {
			return nil, fmt.Errorf("criterion method expects at least %d parameters, got %d", t.NumIn()-1, len(args))
		}
	} else if len(args) != t.NumIn() {
		return nil, fmt.Errorf("criterion method expects %d parameters, got %d", t.NumIn(), len(args))
	}

	in := make([]reflect.Value, 0, len(args))
	for i, arg := range args {
		want := paramType(t, i)
		av := reflect.ValueOf(arg)
		if !av.IsValid() {
			av = reflect.Zero(want)
		} else if av.Type() != want && av.Type().ConvertibleTo(want) {
			av = av.Convert(want)
		}
		in = append(in, av)
	}

	out := fn.Call(in)
	if len(out) == 0 {
		return nil, fmt.Errorf("criterion method returns no value")
	}
	if len(out) > 1 {
		if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
			return nil, err
		}
	}

	return out[0].Interface(), nil
}

func paramType(t reflect.Type, i int) reflect.Type {
	if t.IsVariadic() && i >= t.NumIn()-1 {
		return t.In(t.NumIn() - 1).Elem()
	}
	return t.In(i)
}

func typeName(target any) string {
	t := reflect.TypeOf(target)
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
