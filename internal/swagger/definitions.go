package swagger

import (
	"fmt"

	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/go-openapi/spec"
)

func (a *Assembler) definitions(refs *ir.ReferenceTypeMap) (spec.Definitions, error) {
	defs := spec.Definitions{}
	for _, rt := range refs.All() {
		s, err := definition(rt)
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", rt.RefName, err)
		}
		defs[rt.RefName] = s
	}
	return defs, nil
}

func definition(rt *ir.ReferenceType) (spec.Schema, error) {
	s := spec.Schema{}
	s.Description = rt.Description
	if rt.Kind == ir.RefEnum {
		s.Type = spec.StringOrArray{enumType(rt.ValueType)}
		s.Enum = append([]any(nil), rt.EnumValues...)
		return s, nil
	}

	s.Type = spec.StringOrArray{"object"}
	props, required, err := properties(rt.Properties)
	if err != nil {
		return spec.Schema{}, err
	}
	s.Properties = props
	s.Required = required
	if rt.AdditionalProperties != nil {
		ap, err := schemaFor(rt.AdditionalProperties)
		if err != nil {
			return spec.Schema{}, fmt.Errorf("additionalProperties: %w", err)
		}
		s.AdditionalProperties = &spec.SchemaOrBool{Allows: true, Schema: &ap}
	}
	if rt.Example != nil {
		s.Example = rt.Example
	}
	return s, nil
}

// properties returns the property schemas and the de-duplicated names of the
// required ones, in declaration order.
func properties(props []*ir.Property) (spec.SchemaProperties, []string, error) {
	out := spec.SchemaProperties{}
	var order []string
	isRequired := map[string]bool{}
	for _, p := range props {
		s, err := schemaFor(p.Type)
		if err != nil {
			return nil, nil, fmt.Errorf("property %s: %w", p.Name, err)
		}
		s.Description = p.Description
		if p.Format != "" {
			s.Format = p.Format
		}
		if s.Ref.String() == "" {
			s.Default = p.Default
			applyValidations(&s, p.Validators)
		}
		if p.Example != nil {
			s.Example = p.Example
		}
		if !p.Required {
			s.AddExtension("x-nullable", true)
		}
		if _, ok := out[p.Name]; !ok {
			order = append(order, p.Name)
		}
		// a later property of the same name replaces the earlier one,
		// requiredness included
		out[p.Name] = s
		isRequired[p.Name] = p.Required
	}
	var required []string
	for _, name := range order {
		if isRequired[name] {
			required = append(required, name)
		}
	}
	return out, required, nil
}
