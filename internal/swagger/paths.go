package swagger

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/go-openapi/spec"
)

var placeholder = regexp.MustCompile(`\{([^{}]+)\}`)

func (a *Assembler) paths(controllers []ir.Controller) (*spec.Paths, error) {
	paths := &spec.Paths{Paths: map[string]spec.PathItem{}}
	for _, ctrl := range controllers {
		base := normalisePath(ctrl.Path, "/", "", true)
		for _, op := range ctrl.Operations {
			if op.Hidden {
				continue
			}
			full := normalisePath(base+normalisePath(op.Path, "/", "", true), "/", "", false)
			operation, err := a.operation(ctrl, op)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", ctrl.Name, op.Name, err)
			}
			item := paths.Paths[full]
			if err := setOperation(&item, op.Verb, operation); err != nil {
				return nil, fmt.Errorf("%s.%s: %s %s: %w", ctrl.Name, op.Name, op.Verb, full, err)
			}
			paths.Paths[full] = item
			a.logger.Debug("swagger.path.added", "path", full, "verb", string(op.Verb), "operation", operation.ID)
		}
	}
	return paths, nil
}

func setOperation(item *spec.PathItem, verb ir.Verb, op *spec.Operation) error {
	var slot **spec.Operation
	switch verb {
	case ir.VerbGet:
		slot = &item.Get
	case ir.VerbPost:
		slot = &item.Post
	case ir.VerbPut:
		slot = &item.Put
	case ir.VerbPatch:
		slot = &item.Patch
	case ir.VerbDelete:
		slot = &item.Delete
	case ir.VerbHead:
		slot = &item.Head
	case ir.VerbOptions:
		slot = &item.Options
	default:
		return fmt.Errorf("unknown verb %q", verb)
	}
	if *slot != nil {
		return fmt.Errorf("%w: operation already defined", ir.ErrAmbiguous)
	}
	*slot = op
	return nil
}

func operationID(op ir.Operation) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	r, size := utf8.DecodeRuneInString(op.Name)
	return string(unicode.ToUpper(r)) + op.Name[size:]
}

func (a *Assembler) operation(ctrl ir.Controller, op ir.Operation) (*spec.Operation, error) {
	out := &spec.Operation{}
	out.ID = operationID(op)
	out.Description = op.Description
	out.Summary = op.Summary
	out.Produces = []string{mimeJSON}
	out.Tags = append([]string(nil), op.Tags...)
	out.Deprecated = op.Deprecated
	for _, sec := range op.Security {
		out.Security = append(out.Security, map[string][]string(sec))
	}

	declared := map[string]bool{}
	var bodyProps []ir.Parameter
	bodies := 0
	for _, p := range op.Parameters {
		switch p.Role {
		case ir.RoleRequest:
			continue
		case ir.RoleBodyProp:
			bodyProps = append(bodyProps, p)
			continue
		case ir.RoleBody:
			bodies++
		case ir.RolePath:
			declared[p.Name] = true
		}
		param, err := parameter(p)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		out.Parameters = append(out.Parameters, param)
	}
	if len(bodyProps) > 0 {
		bodies++
	}
	if bodies > 1 {
		return nil, fmt.Errorf("%w: %d body parameters", ir.ErrMultiBody, bodies)
	}
	if len(bodyProps) > 0 {
		body, err := bodyPropParameter(out.ID, bodyProps)
		if err != nil {
			return nil, err
		}
		out.Parameters = append(out.Parameters, body)
	}

	for _, m := range placeholder.FindAllStringSubmatch(ctrl.Path, -1) {
		name := m[1]
		if declared[name] {
			continue
		}
		declared[name] = true
		p := spec.Parameter{}
		p.Name = name
		p.In = "path"
		p.Required = true
		p.Type = "string"
		out.Parameters = append(out.Parameters, p)
	}

	resp, err := responses(op.Responses)
	if err != nil {
		return nil, err
	}
	out.Responses = resp
	return out, nil
}

func parameter(p ir.Parameter) (spec.Parameter, error) {
	out := spec.Parameter{}
	out.Name = p.Name
	out.In = string(p.Role)
	out.Description = p.Description
	out.Required = p.Required

	if p.Role == ir.RoleBody {
		s, err := schemaFor(p.Type)
		if err != nil {
			return spec.Parameter{}, err
		}
		if p.Format != "" {
			s.Format = p.Format
		}
		if s.Ref.String() == "" {
			s.Default = p.Default
			applyValidations(&s, p.Validators)
		}
		out.Schema = &s
		return out, nil
	}

	out.Default = p.Default
	out.CommonValidations = validations(p.Validators)
	switch t := p.Type.(type) {
	case *ir.PrimitiveType:
		tf := primitiveFormat(t.Kind)
		if tf.typ == "object" {
			tf = typeFormat{typ: "string"}
		}
		out.Type = tf.typ
		out.Format = tf.format
	case *ir.EnumType:
		out.Type = enumType(t.ValueType)
		out.Enum = append([]any(nil), t.Values...)
	case *ir.ReferenceType:
		if t.Kind != ir.RefEnum {
			return spec.Parameter{}, fmt.Errorf("%w: object %s outside the body", ir.ErrUnsupportedType, t.RefName)
		}
		out.Type = enumType(t.ValueType)
		out.Enum = append([]any(nil), t.EnumValues...)
	case *ir.ArrayType:
		it, err := items(t.Element)
		if err != nil {
			return spec.Parameter{}, err
		}
		out.Type = "array"
		out.Items = it
		if p.Role == ir.RoleQuery {
			out.CollectionFormat = "multi"
		}
	default:
		return spec.Parameter{}, fmt.Errorf("%w: %T", ir.ErrUnsupportedType, p.Type)
	}
	if p.Format != "" {
		out.Format = p.Format
	}
	return out, nil
}

// items maps the element of a non-body array parameter.
func items(t ir.Type) (*spec.Items, error) {
	it := &spec.Items{}
	switch t := t.(type) {
	case *ir.PrimitiveType:
		tf := primitiveFormat(t.Kind)
		if tf.typ == "object" {
			tf = typeFormat{typ: "string"}
		}
		it.Type = tf.typ
		it.Format = tf.format
	case *ir.EnumType:
		it.Type = enumType(t.ValueType)
		it.Enum = append([]any(nil), t.Values...)
	case *ir.ReferenceType:
		if t.Kind != ir.RefEnum {
			return nil, fmt.Errorf("%w: array of object %s outside the body", ir.ErrUnsupportedType, t.RefName)
		}
		it.Type = enumType(t.ValueType)
		it.Enum = append([]any(nil), t.EnumValues...)
	case *ir.ArrayType:
		inner, err := items(t.Element)
		if err != nil {
			return nil, err
		}
		it.Type = "array"
		it.Items = inner
	default:
		return nil, fmt.Errorf("%w: %T", ir.ErrUnsupportedType, t)
	}
	return it, nil
}

// bodyPropParameter folds body-prop parameters into one object body.
func bodyPropParameter(opID string, props []ir.Parameter) (spec.Parameter, error) {
	s := spec.Schema{}
	s.Type = spec.StringOrArray{"object"}
	s.Title = opID + "Body"
	s.Properties = spec.SchemaProperties{}
	for _, p := range props {
		ps, err := schemaFor(p.Type)
		if err != nil {
			return spec.Parameter{}, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		ps.Description = p.Description
		if ps.Ref.String() == "" {
			ps.Default = p.Default
			applyValidations(&ps, p.Validators)
		}
		s.Properties[p.Name] = ps
		if p.Required {
			s.Required = append(s.Required, p.Name)
		}
	}
	out := spec.Parameter{}
	out.Name = "body"
	out.In = "body"
	out.Required = len(s.Required) > 0
	out.Schema = &s
	return out, nil
}

func responses(in []ir.Response) (*spec.Responses, error) {
	out := &spec.Responses{}
	out.StatusCodeResponses = map[int]spec.Response{}
	for _, r := range in {
		resp := spec.Response{}
		resp.Description = r.Description
		if r.Schema != nil {
			s, err := schemaFor(r.Schema)
			if err != nil {
				return nil, fmt.Errorf("response %s: %w", r.Name, err)
			}
			resp.Schema = &s
		}
		if r.Examples != nil {
			resp.Examples = map[string]any{mimeJSON: r.Examples}
		}
		if strings.EqualFold(r.Name, "default") {
			out.Default = &resp
			continue
		}
		code, err := strconv.Atoi(r.Name)
		if err != nil {
			return nil, fmt.Errorf("response %q: %w: status must be a number or \"default\"", r.Name, ir.ErrInvalidMarker)
		}
		out.StatusCodeResponses[code] = resp
	}
	return out, nil
}
