package evstore

import "fmt"

// Type describes one declared dataset type: the logical name callers use,
// the single family its files must carry, and whether handles of this type
// may write. Opening checks the family only; Mutable is a capability request
// and never fails an open against a file of the right family.
type Type struct {
	Name    string
	Family  Family
	Mutable bool
}

// Registry maps declared type names to dataset types. It is an explicit
// object owned by the process entry point and passed to New; there is no
// process-wide registry.
type Registry struct {
	types map[string]Type
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]Type)}
}

// Register adds a type. Registering a duplicate name is a wiring bug and
// panics.
func (r *Registry) Register(t Type) {
	if !t.Family.known() {
		panic(fmt.Errorf("registering type %q with %v", t.Name, t.Family))
	}
	if _, dup := r.types[t.Name]; dup {
		panic(fmt.Errorf("dataset type %q registered twice", t.Name))
	}
	r.types[t.Name] = t
}

func (r *Registry) Lookup(name string) (Type, bool) {
	t, ok := r.types[name]
	return t, ok
}

// BuiltinTypes returns a registry with the four standard declared types:
// an immutable view and a mutable variant per family.
func BuiltinTypes() *Registry {
	r := NewRegistry()
	r.Register(Type{Name: "row-log", Family: RowLog})
	r.Register(Type{Name: "row-log.mutable", Family: RowLog, Mutable: true})
	r.Register(Type{Name: "binary-columnar", Family: BinaryColumnar})
	r.Register(Type{Name: "binary-columnar.mutable", Family: BinaryColumnar, Mutable: true})
	return r
}
