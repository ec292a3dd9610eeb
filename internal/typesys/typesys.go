// Package typesys implements the alphabet type registry: the mapping
// between small integer type IDs and type names, and the assignment
// compatibility rules the compiler's type checker relies on.
//
// Primitive IDs 1..14 are fixed; user classes are registered starting at
// 15, in source order, during compilation.
package typesys

import "fmt"

// Primitive type IDs, fixed by the language definition.
const (
	I8 = 1
	I16 = 2
	I32 = 3
	I64 = 4
	Int = 5
	F32 = 6
	F64 = 7
	Float = 8
	Dec = 9
	Cpx = 10
	Bool = 11
	Str = 12
	List = 13
	Map = 14

	FirstUserID = 15
)

var primitiveNames = map[int]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64", Int: "int",
	F32: "f32", F64: "f64", Float: "float", Dec: "dec", Cpx: "cpx",
	Bool: "bool", Str: "str", List: "list", Map: "map",
}

// DuplicateTypeError is raised by Register when a name is already taken.
type DuplicateTypeError struct {
	Name string
	ID   int
}

func (e DuplicateTypeError) Error() string {
	return fmt.Sprintf("type %q already registered with id %d", e.Name, e.ID)
}

// Registry tracks user-declared classes on top of the fixed primitive set.
type Registry struct {
	names  map[int]string
	ids    map[string]int
	nextID int
}

// New returns a Registry pre-seeded with the 14 primitives.
func New() *Registry {
	r := &Registry{
		names:  make(map[int]string, 32),
		ids:    make(map[string]int, 32),
		nextID: FirstUserID,
	}
	for id, name := range primitiveNames {
		r.names[id] = name
		r.ids[name] = id
	}
	return r
}

// Register allocates the next available user class ID for name. A
// duplicate name is a TypeError.
func (r *Registry) Register(name string) (int, error) {
	if id, ok := r.ids[name]; ok {
		return 0, DuplicateTypeError{Name: name, ID: id}
	}
	id := r.nextID
	r.nextID++
	r.names[id] = name
	r.ids[name] = id
	return id, nil
}

// Name returns the type name for id, or "" if unknown.
func (r *Registry) Name(id int) string {
	return r.names[id]
}

// ID returns the type id registered for name, and whether it was found.
func (r *Registry) ID(name string) (int, bool) {
	id, ok := r.ids[name]
	return id, ok
}

// IsUserClass reports whether id names a user-declared class (as opposed
// to one of the 14 fixed primitives).
func IsUserClass(id int) bool {
	return id >= FirstUserID
}

// IsInteger reports whether id is one of the integer primitives 1..5.
func IsInteger(id int) bool {
	return id >= I8 && id <= Int
}

// IsFloat reports whether id is one of the float primitives 6..8.
func IsFloat(id int) bool {
	return id >= F32 && id <= Float
}

// Assignable reports whether a value of type source may be assigned to a
// variable declared with type target, per §4.2:
//
//   - integer ids (1..5) are mutually assignable
//   - float ids (6..8) are mutually assignable
//   - integer <-> float is assignable in both directions
//   - user class ids (>=15) are assignable to any other user class id
//   - everything else requires an exact match
func Assignable(source, target int) bool {
	if source == target {
		return true
	}
	if IsInteger(source) && IsInteger(target) {
		return true
	}
	if IsFloat(source) && IsFloat(target) {
		return true
	}
	if (IsInteger(source) && IsFloat(target)) || (IsFloat(source) && IsInteger(target)) {
		return true
	}
	if IsUserClass(source) && IsUserClass(target) {
		return true
	}
	return false
}
