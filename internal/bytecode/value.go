package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind discriminates the runtime value union.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindNumber
	KindString
	KindList
	KindMap
	KindObject
)

// Value is the tagged union every VM-visible runtime value is stored as.
// Lists, maps, and objects are held by pointer so aliasing an existing
// container is just copying the Value — mutation through one alias is
// visible through every other, matching the language's documented
// reference semantics. There is no cycle collector; callers are expected
// to avoid reference cycles through objects and containers.
type Value struct {
	Kind   ValueKind
	Number float64
	Str    string
	List   *List
	Map    *Map
	Object *Object
}

func Null() Value               { return Value{Kind: KindNull} }
func Number(n float64) Value    { return Value{Kind: KindNumber, Number: n} }
func String(s string) Value     { return Value{Kind: KindString, Str: s} }
func FromList(l *List) Value    { return Value{Kind: KindList, List: l} }
func FromMap(m *Map) Value      { return Value{Kind: KindMap, Map: m} }
func FromObject(o *Object) Value { return Value{Kind: KindObject, Object: o} }

// List is a shared, mutable, ordered sequence of values.
type List struct {
	Elements []Value
}

// Map is a shared, mutable string-keyed dictionary. Non-string keys
// cannot be constructed at all (BUILD_MAP drops them before one is ever
// created), so there is no key-kind tag to carry here.
type Map struct {
	Entries map[string]Value
}

// Object is an instance of a user class: a class ID and a field map.
type Object struct {
	ClassID uint16
	Fields  map[string]Value
}

func NewObject(classID uint16) *Object {
	return &Object{ClassID: classID, Fields: make(map[string]Value)}
}

// Truthy implements the language's truthiness rule: not null, non-zero,
// non-empty string. Lists, maps, and objects are always truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindNumber:
		return v.Number != 0
	case KindString:
		return v.Str != ""
	default:
		return true
	}
}

// Equal implements structural equality: same tag, equal contents. Lists
// and maps compare by identity (the same shared container), matching the
// "shared by reference" data model rather than deep value comparison.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindNumber:
		return v.Number == other.Number
	case KindString:
		return v.Str == other.Str
	case KindList:
		return v.List == other.List
	case KindMap:
		return v.Map == other.Map
	case KindObject:
		return v.Object == other.Object
	default:
		return false
	}
}

// Stringify renders a value per §4.5: null -> "null"; a float with no
// fractional part drops its decimal point; lists/maps render recursively
// in bracketed form; objects render as "Object#<class-id>".
func Stringify(v Value) string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindNumber:
		return formatNumber(v.Number)
	case KindString:
		return v.Str
	case KindList:
		parts := make([]string, len(v.List.Elements))
		for i, e := range v.List.Elements {
			parts[i] = Stringify(e)
		}
		return "[" + strings.Join(parts, ",") + "]"
	case KindMap:
		parts := make([]string, 0, len(v.Map.Entries))
		for k, val := range v.Map.Entries {
			parts = append(parts, fmt.Sprintf("%s:%s", k, Stringify(val)))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case KindObject:
		return fmt.Sprintf("Object#%d", v.Object.ClassID)
	default:
		return "null"
	}
}

func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
