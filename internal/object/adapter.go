package object

// Adapter gives one expression tree uniform member access to either a single
// object or an ordered sequence of objects of possibly mixed types.
//
// Resolution through an adapter bypasses the capability gate: the adapter is
// a controlled, read-mostly projection, and callers must only route trusted
// objects through it.
type Adapter interface {
	Resolve(name string, args []any) (any, error)
}

// Single wraps one object; member access is a direct passthrough.
type Single struct {
	obj any
}

// Wrap returns an adapter over a single object.
func Wrap(obj any) *Single {
	return &Single{obj: obj}
}

// Object returns the wrapped object.
func (s *Single) Object() any {
	return s.obj
}

func (s *Single) Resolve(name string, args []any) (any, error) {
	return resolve(s.obj, name, args, false)
}

// Multi wraps an ordered sequence of objects.
type Multi struct {
	elems []any
}

// WrapAll returns an adapter over a sequence of objects of possibly mixed types.
func WrapAll(elems []any) *Multi {
	return &Multi{elems: elems}
}

// Elements returns the wrapped sequence in order.
func (m *Multi) Elements() []any {
	return m.elems
}

// Resolve requires every element to expose the named member and returns the
// ordered per-element values. Callable members are invoked with the same
// args on each element.
func (m *Multi) Resolve(name string, args []any) (any, error) {
	for _, elem := range m.elems {
		if !Has(elem, name) {
			return nil, &MissingMemberError{TypeName: typeName(elem), Member: name}
		}
	}

	values := make([]any, 0, len(m.elems))
	for _, elem := range m.elems {
		value, err := resolve(elem, name, args, false)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, nil
}

// Assert interface compliance.
var (
	_ Adapter = (*Single)(nil)
	_ Adapter = (*Multi)(nil)
)
