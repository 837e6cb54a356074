package ir

// Type is a resolved type descriptor: *PrimitiveType, *ArrayType, *EnumType
// or *ReferenceType.
type Type interface {
	isType()
}

type PrimitiveKind string

const (
	KindString   PrimitiveKind = "string"
	KindBoolean  PrimitiveKind = "boolean"
	KindInteger  PrimitiveKind = "integer"
	KindLong     PrimitiveKind = "long"
	KindFloat    PrimitiveKind = "float"
	KindDouble   PrimitiveKind = "double"
	KindDate     PrimitiveKind = "date"
	KindDateTime PrimitiveKind = "datetime"
	KindBuffer   PrimitiveKind = "buffer"
	KindByte     PrimitiveKind = "byte"
	KindBinary   PrimitiveKind = "binary"
	KindObject   PrimitiveKind = "object"
	KindAny      PrimitiveKind = "any"
)

// IsNumeric reports whether k is one of the number kinds a format hint may override.
func (k PrimitiveKind) IsNumeric() bool {
	switch k {
	case KindInteger, KindLong, KindFloat, KindDouble:
		return true
	}
	return false
}

type PrimitiveType struct {
	Kind PrimitiveKind
}

type ArrayType struct {
	Element Type
}

// EnumType is an inline enumeration built from a union of literals.
type EnumType struct {
	Values    []any
	ValueType string // "string" | "number" | "boolean"
}

type RefKind string

const (
	RefObject RefKind = "object"
	RefEnum   RefKind = "enum"
)

// ReferenceType is a named, cached type. Holders share one pointer per cache
// key; a cyclic reference receives a placeholder that is filled in by CopyFrom
// once the generation pass finishes.
type ReferenceType struct {
	RefName     string
	Kind        RefKind
	Description string

	// object
	Properties           []*Property
	AdditionalProperties Type
	Example              any

	// enum
	EnumValues []any
	ValueType  string
}

// CopyFrom overwrites every field except RefName with src's.
func (r *ReferenceType) CopyFrom(src *ReferenceType) {
	if src == nil || src == r {
		return
	}
	r.Kind = src.Kind
	r.Description = src.Description
	r.Properties = src.Properties
	r.AdditionalProperties = src.AdditionalProperties
	r.Example = src.Example
	r.EnumValues = src.EnumValues
	r.ValueType = src.ValueType
}

func (*PrimitiveType) isType() {}
func (*ArrayType) isType()     {}
func (*EnumType) isType()      {}
func (*ReferenceType) isType() {}

// Primitive is shorthand for &PrimitiveType{Kind: k}.
func Primitive(k PrimitiveKind) *PrimitiveType {
	return &PrimitiveType{Kind: k}
}

// ReferenceTypeMap keeps reference types by RefName in insertion order.
type ReferenceTypeMap struct {
	names []string
	types map[string]*ReferenceType
}

func NewReferenceTypeMap() *ReferenceTypeMap {
	return &ReferenceTypeMap{types: map[string]*ReferenceType{}}
}

// Add stores t unless its RefName is already present. It reports whether t was added.
func (m *ReferenceTypeMap) Add(t *ReferenceType) bool {
	if _, ok := m.types[t.RefName]; ok {
		return false
	}
	m.names = append(m.names, t.RefName)
	m.types[t.RefName] = t
	return true
}

func (m *ReferenceTypeMap) Get(name string) *ReferenceType {
	if m == nil {
		return nil
	}
	return m.types[name]
}

func (m *ReferenceTypeMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Names returns the RefNames in insertion order.
func (m *ReferenceTypeMap) Names() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.names...)
}

// All returns the types in insertion order.
func (m *ReferenceTypeMap) All() []*ReferenceType {
	if m == nil {
		return nil
	}
	out := make([]*ReferenceType, 0, len(m.names))
	for _, n := range m.names {
		out = append(out, m.types[n])
	}
	return out
}
