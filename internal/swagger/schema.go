package swagger

import (
	"fmt"
	"strings"

	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/go-openapi/spec"
)

type typeFormat struct {
	typ    string
	format string
}

var primitives = map[ir.PrimitiveKind]typeFormat{
	ir.KindString:   {"string", ""},
	ir.KindBoolean:  {"boolean", ""},
	ir.KindInteger:  {"integer", "int32"},
	ir.KindLong:     {"integer", "int64"},
	ir.KindFloat:    {"number", "float"},
	ir.KindDouble:   {"number", "double"},
	ir.KindDate:     {"string", "date"},
	ir.KindDateTime: {"string", "date-time"},
	ir.KindBuffer:   {"string", "byte"},
	ir.KindByte:     {"string", "byte"},
	ir.KindBinary:   {"string", "binary"},
	ir.KindObject:   {"object", ""},
	ir.KindAny:      {"object", ""},
}

func primitiveFormat(k ir.PrimitiveKind) typeFormat {
	if tf, ok := primitives[k]; ok {
		return tf
	}
	return typeFormat{typ: "object"}
}

func refPath(refName string) string {
	return "#/definitions/" + refName
}

// enumType maps an enum value type to its swagger type.
func enumType(valueType string) string {
	if valueType == "" {
		return "string"
	}
	return valueType
}

// schemaFor maps a descriptor to a schema.
func schemaFor(t ir.Type) (spec.Schema, error) {
	switch t := t.(type) {
	case *ir.PrimitiveType:
		tf := primitiveFormat(t.Kind)
		s := spec.Schema{}
		s.Type = spec.StringOrArray{tf.typ}
		s.Format = tf.format
		return s, nil
	case *ir.ArrayType:
		items, err := schemaFor(t.Element)
		if err != nil {
			return spec.Schema{}, err
		}
		s := spec.Schema{}
		s.Type = spec.StringOrArray{"array"}
		s.Items = &spec.SchemaOrArray{Schema: &items}
		return s, nil
	case *ir.EnumType:
		s := spec.Schema{}
		s.Type = spec.StringOrArray{enumType(t.ValueType)}
		s.Enum = append([]any(nil), t.Values...)
		return s, nil
	case *ir.ReferenceType:
		s := spec.Schema{}
		s.Ref = spec.MustCreateRef(refPath(t.RefName))
		return s, nil
	case nil:
		return spec.Schema{}, fmt.Errorf("%w: missing type", ir.ErrUnsupportedType)
	}
	return spec.Schema{}, fmt.Errorf("%w: %T", ir.ErrUnsupportedType, t)
}

// validations maps validator hints onto swagger validations. is* hints and
// the date bounds have no swagger counterpart.
func validations(v ir.Validators) spec.CommonValidations {
	var cv spec.CommonValidations
	for name, val := range v {
		if strings.HasPrefix(name, "is") {
			continue
		}
		switch name {
		case "minimum":
			cv.Minimum = floatPtr(val)
		case "maximum":
			cv.Maximum = floatPtr(val)
		case "minLength":
			cv.MinLength = intPtr(val)
		case "maxLength":
			cv.MaxLength = intPtr(val)
		case "minItems":
			cv.MinItems = intPtr(val)
		case "maxItems":
			cv.MaxItems = intPtr(val)
		case "pattern":
			cv.Pattern = fmt.Sprint(val)
		case "uniqueItems":
			b, _ := val.(bool)
			cv.UniqueItems = b
		}
	}
	return cv
}

func applyValidations(s *spec.Schema, v ir.Validators) {
	if len(v) == 0 {
		return
	}
	cv := validations(v)
	s.Minimum = cv.Minimum
	s.Maximum = cv.Maximum
	s.MinLength = cv.MinLength
	s.MaxLength = cv.MaxLength
	s.MinItems = cv.MinItems
	s.MaxItems = cv.MaxItems
	s.Pattern = cv.Pattern
	s.UniqueItems = cv.UniqueItems
}

func floatPtr(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float64:
		f = n
	default:
		return nil
	}
	return &f
}

func intPtr(v any) *int64 {
	f := floatPtr(v)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}
