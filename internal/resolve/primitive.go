package resolve

import (
	"fmt"
	"go/ast"

	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
)

var basicKinds = map[string]ir.PrimitiveKind{
	"string":  ir.KindString,
	"bool":    ir.KindBoolean,
	"int":     ir.KindInteger,
	"int8":    ir.KindInteger,
	"int16":   ir.KindInteger,
	"int32":   ir.KindInteger,
	"uint":    ir.KindInteger,
	"uint8":   ir.KindInteger,
	"uint16":  ir.KindInteger,
	"uint32":  ir.KindInteger,
	"byte":    ir.KindInteger,
	"rune":    ir.KindInteger,
	"int64":   ir.KindLong,
	"uint64":  ir.KindLong,
	"float32": ir.KindFloat,
	"float64": ir.KindDouble,
	"any":     ir.KindAny,
}

var numberHints = []struct {
	hint string
	kind ir.PrimitiveKind
}{
	{markers.HintIsInt, ir.KindInteger},
	{markers.HintIsLong, ir.KindLong},
	{markers.HintIsFloat, ir.KindFloat},
	{markers.HintIsDouble, ir.KindDouble},
}

// primitive maps a predeclared identifier. ok is false for anything else.
func primitive(name string, hints markers.Hints) (ir.Type, bool, error) {
	switch name {
	case "complex64", "complex128", "uintptr", "error":
		return nil, false, fmt.Errorf("%w: %s", ir.ErrUnsupportedType, name)
	}
	kind, ok := basicKinds[name]
	if !ok {
		return nil, false, nil
	}
	if kind.IsNumeric() {
		for _, nh := range numberHints {
			if hints.Has(nh.hint) {
				kind = nh.kind
				break
			}
		}
	}
	return ir.Primitive(kind), true, nil
}

func dateKind(hints markers.Hints) ir.PrimitiveKind {
	if hints.Has(markers.HintIsDate) {
		return ir.KindDate
	}
	return ir.KindDateTime
}

// stdPaths completes the import path of standard packages whose name is not
// their path, for files that do not import them directly.
var stdPaths = map[string]string{
	"json":      "encoding/json",
	"multipart": "mime/multipart",
}

// wellKnown intercepts standard library types that have a fixed mapping.
func (r *Resolver) wellKnown(sel *ast.SelectorExpr, sc *Scope, hints markers.Hints) (ir.Type, bool) {
	x, ok := sel.X.(*ast.Ident)
	if !ok {
		return nil, false
	}
	path, ok := stdPaths[x.Name]
	if !ok {
		path = x.Name
	}
	if sc != nil && sc.File != nil {
		if p, ok := sc.File.Imports[x.Name]; ok {
			path = p
		}
	}
	switch path + "." + sel.Sel.Name {
	case "time.Time":
		return ir.Primitive(dateKind(hints)), true
	case "time.Duration":
		return ir.Primitive(ir.KindLong), true
	case "bytes.Buffer":
		return ir.Primitive(ir.KindBuffer), true
	case "io.Reader", "io.ReadCloser", "os.File", "mime/multipart.File", "mime/multipart.FileHeader":
		return ir.Primitive(ir.KindBinary), true
	case "encoding/json.RawMessage":
		return ir.Primitive(ir.KindAny), true
	}
	return nil, false
}

// literalUnion builds an inline enum. Every member must share one kind.
func literalUnion(items []string) (ir.Type, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: empty enum", ir.ErrUnsupportedType)
	}
	out := &ir.EnumType{}
	var first markers.LiteralKind
	for i, item := range items {
		v, kind := markers.ParseLiteral(item)
		if i == 0 {
			first = kind
		} else if kind != first {
			return nil, fmt.Errorf("%w: %q is a %s, expected %s", ir.ErrUnionHeterogeneity, item, kind, first)
		}
		out.Values = append(out.Values, v)
	}
	out.ValueType = string(first)
	return out, nil
}

// TypeName names a descriptor inside a generic reference name.
func TypeName(t ir.Type) string {
	switch t := t.(type) {
	case *ir.PrimitiveType:
		return string(t.Kind)
	case *ir.ArrayType:
		return TypeName(t.Element) + "Array"
	case *ir.ReferenceType:
		return t.RefName
	}
	return "object"
}

func isStringType(t ir.Type) bool {
	switch t := t.(type) {
	case *ir.PrimitiveType:
		return t.Kind == ir.KindString
	case *ir.EnumType:
		return t.ValueType == string(markers.LiteralString)
	case *ir.ReferenceType:
		return t.Kind == ir.RefEnum && t.ValueType == "string"
	}
	return false
}
