package resolve

import (
	"fmt"
	"go/ast"
	"reflect"
	"strconv"
	"strings"

	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
)

// structProperties lists the JSON-visible fields of st. Properties promoted
// from embedded structs come first; a field declared on st itself shadows a
// promoted one of the same name.
func (r *Resolver) structProperties(st *ast.StructType, sc *Scope) ([]*ir.Property, error) {
	var inherited, own []*ir.Property
	for _, f := range st.Fields.List {
		tag := structTag(f.Tag)
		if tag.Get("json") == "-" {
			continue
		}
		jsonName, jsonOpts := jsonTag(tag)

		if len(f.Names) == 0 && jsonName == "" {
			t, err := r.resolve(f.Type, sc, nil, false)
			if err != nil {
				return nil, fmt.Errorf("embedded %s: %w", exprString(f.Type), err)
			}
			rt, ok := t.(*ir.ReferenceType)
			if !ok || rt.Kind == ir.RefEnum {
				return nil, fmt.Errorf("embedded %s: %w: not a struct", exprString(f.Type), ir.ErrUnsupportedType)
			}
			inherited = append(inherited, rt.Properties...)
			continue
		}

		names := make([]string, 0, len(f.Names))
		for _, n := range f.Names {
			if ast.IsExported(n.Name) {
				names = append(names, n.Name)
			}
		}
		if len(f.Names) == 0 {
			names = append(names, jsonName)
		}
		for _, goName := range names {
			name := goName
			if jsonName != "" {
				name = jsonName
			}
			p, err := r.property(name, f, tag, jsonOpts, sc)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			if p != nil {
				own = append(own, p)
			}
		}
	}

	shadowed := make(map[string]bool, len(own))
	for _, p := range own {
		shadowed[p.Name] = true
	}
	props := make([]*ir.Property, 0, len(inherited)+len(own))
	for _, p := range inherited {
		if !shadowed[p.Name] {
			props = append(props, p)
		}
	}
	return append(props, own...), nil
}

func (r *Resolver) property(name string, f *ast.Field, tag reflect.StructTag, jsonOpts string, sc *Scope) (*ir.Property, error) {
	doc := f.Doc
	if doc == nil {
		doc = f.Comment
	}
	ann, err := r.parser.Parse(doc)
	if err != nil {
		return nil, err
	}
	if ann.Hints.Has(markers.HintIgnore) {
		return nil, nil
	}
	hints := ann.Hints
	if enum, ok := tag.Lookup("enum"); ok {
		hints = append(hints, markers.Hint{Name: markers.HintEnum, Text: enum})
	}

	t, err := r.resolve(f.Type, sc, hints, true)
	if err != nil {
		return nil, err
	}
	p := &ir.Property{
		Name:        name,
		Type:        t,
		Description: ann.Description,
	}
	if p.Default, err = hintOrTagValue(hints, markers.HintDefault, tag, "default"); err != nil {
		return nil, err
	}
	if p.Example, err = hintOrTagValue(hints, markers.HintExample, tag, "example"); err != nil {
		return nil, err
	}
	if text, ok := hints.Get(markers.HintFormat); ok {
		p.Format = text
	} else {
		p.Format = tag.Get("format")
	}
	if p.Validators, err = hints.Validators(); err != nil {
		return nil, err
	}
	p.Required = !isOptional(f.Type) && !hasOption(jsonOpts, "omitempty") && !hasOption(jsonOpts, "omitzero") && p.Default == nil
	return p, nil
}

func hintOrTagValue(hints markers.Hints, hint string, tag reflect.StructTag, key string) (any, error) {
	text, ok := hints.Get(hint)
	if !ok {
		text, ok = tag.Lookup(key)
	}
	if !ok {
		return nil, nil
	}
	v, err := markers.ParseValue(text)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func structTag(lit *ast.BasicLit) reflect.StructTag {
	if lit == nil {
		return ""
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return ""
	}
	return reflect.StructTag(s)
}

func jsonTag(tag reflect.StructTag) (name, opts string) {
	v, ok := tag.Lookup("json")
	if !ok {
		return "", ""
	}
	name, opts, _ = strings.Cut(v, ",")
	return name, opts
}

func hasOption(opts, want string) bool {
	for _, o := range strings.Split(opts, ",") {
		if o == want {
			return true
		}
	}
	return false
}

func isOptional(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.StarExpr:
		return true
	case *ast.ParenExpr:
		return isOptional(e.X)
	}
	return false
}
