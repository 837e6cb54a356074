package resolve

import (
	"fmt"
	"go/ast"
	"go/constant"
	"strings"

	"github.com/adrianplavka/typeswag/internal/decl"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
)

type declKind int

const (
	declTransparent declKind = iota
	declEnum
	declStruct
	declMap
	declComposite
)

// named resolves a reference to a declared type, instantiated with args.
func (r *Resolver) named(base ast.Expr, args []ast.Expr, sc *Scope, hints markers.Hints, emit bool) (ir.Type, error) {
	pkg, name, err := r.qualify(base, sc)
	if err != nil {
		return nil, fmt.Errorf("resolving type %q: %w", exprString(base), err)
	}

	var suffix strings.Builder
	for _, arg := range args {
		t, err := r.resolve(arg, sc, nil, true)
		if err != nil {
			return nil, fmt.Errorf("resolving type %q: type argument: %w", pkg.Name+"."+name, err)
		}
		suffix.WriteString("-" + TypeName(t))
	}
	key := pkg.Path + "." + name + suffix.String()
	refName := pkg.Name + "." + name + suffix.String()

	if t, ok := r.cache[key]; ok {
		if emit {
			r.host.AddReferenceType(t)
		}
		return t, nil
	}

	d, err := r.locate(pkg, name)
	if err != nil {
		return nil, fmt.Errorf("resolving type %q: %w", refName, err)
	}
	declScope, err := bind(d, args, sc)
	if err != nil {
		return nil, fmt.Errorf("resolving type %q: %w", refName, err)
	}

	kind := classify(d)
	if kind == declTransparent {
		return r.transparentType(d, key, refName, declScope, hints, emit)
	}

	if r.inProgress[key] {
		return r.placeholder(key, refName), nil
	}
	r.inProgress[key] = true
	defer delete(r.inProgress, key)

	ref, err := r.build(d, kind, declScope, refName)
	if err != nil {
		return nil, fmt.Errorf("resolving type %q: %w", refName, err)
	}
	r.cache[key] = ref
	if emit || r.wanted[key] {
		r.host.AddReferenceType(ref)
	}
	r.logger.Debug("resolve.type.resolved", "type", refName, "kind", string(ref.Kind))
	return ref, nil
}

// placeholder stands in for a type that is still being resolved. It is
// filled in from the finished type when generation completes.
func (r *Resolver) placeholder(key, refName string) *ir.ReferenceType {
	ph := &ir.ReferenceType{RefName: refName}
	r.wanted[key] = true
	r.logger.Debug("resolve.cycle.placeholder", "type", refName)
	r.host.OnFinish(func(m *ir.ReferenceTypeMap) {
		done := m.Get(refName)
		if done == nil {
			done = r.cache[key]
		}
		ph.CopyFrom(done)
	})
	return ph
}

func (r *Resolver) transparentType(d *decl.Declaration, key, refName string, sc *Scope, hints markers.Hints, emit bool) (ir.Type, error) {
	if r.transparent[key] {
		return nil, fmt.Errorf("resolving type %q: %w: type refers to itself", refName, ir.ErrUnsupportedType)
	}
	r.transparent[key] = true
	defer delete(r.transparent, key)

	ann, err := r.parser.Parse(d.Doc)
	if err != nil {
		return nil, fmt.Errorf("resolving type %q: %w", refName, err)
	}
	t, err := r.resolve(d.Spec.Type, sc, append(append(markers.Hints{}, hints...), ann.Hints...), emit)
	if err != nil {
		return nil, fmt.Errorf("resolving type %q: %w", refName, err)
	}
	return t, nil
}

// qualify finds the package a type name lives in.
func (r *Resolver) qualify(base ast.Expr, sc *Scope) (*decl.Package, string, error) {
	if sc == nil || sc.File == nil {
		return nil, "", fmt.Errorf("%w: no scope", ir.ErrScopeResolution)
	}
	switch b := base.(type) {
	case *ast.Ident:
		return sc.File.Package, b.Name, nil
	case *ast.SelectorExpr:
		x, ok := b.X.(*ast.Ident)
		if !ok {
			return nil, "", fmt.Errorf("%w: %s", ir.ErrUnsupportedType, exprString(base))
		}
		set := r.host.Declarations()
		if path, ok := sc.File.Imports[x.Name]; ok {
			if pkg := set.Package(path); pkg != nil {
				return pkg, b.Sel.Name, nil
			}
			return nil, "", fmt.Errorf("%w: package %q is not loaded", ir.ErrScopeResolution, path)
		}
		switch pkgs := set.PackagesNamed(x.Name); len(pkgs) {
		case 1:
			return pkgs[0], b.Sel.Name, nil
		case 0:
			return nil, "", fmt.Errorf("%w: unknown package %q", ir.ErrScopeResolution, x.Name)
		default:
			return nil, "", fmt.Errorf("%w: package name %q matches %d packages", ir.ErrScopeResolution, x.Name, len(pkgs))
		}
	}
	return nil, "", fmt.Errorf("%w: %s", ir.ErrUnsupportedType, exprString(base))
}

// locate picks the declaration of name. Hand-written declarations win over
// generated ones; among several, exactly one may carry @typeswagModel.
func (r *Resolver) locate(pkg *decl.Package, name string) (*decl.Declaration, error) {
	cands := pkg.Lookup(name)
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: no declaration of %s in %s", ir.ErrMissingType, name, pkg.Path)
	}
	var written []*decl.Declaration
	for _, c := range cands {
		if !c.Synthetic {
			written = append(written, c)
		}
	}
	if len(written) > 0 {
		cands = written
	}
	if len(cands) == 1 {
		return cands[0], nil
	}

	var marked []*decl.Declaration
	for _, c := range cands {
		ann, err := r.parser.Parse(c.Doc)
		if err != nil {
			return nil, err
		}
		if ann.Hints.Has(markers.HintModel) {
			marked = append(marked, c)
		}
	}
	if len(marked) == 1 {
		return marked[0], nil
	}
	if len(marked) > 1 {
		cands = marked
	}
	fset := r.host.Declarations().Fset
	locs := make([]string, 0, len(cands))
	for _, c := range cands {
		locs = append(locs, c.Position(fset).String())
	}
	return nil, fmt.Errorf("%w: model name must be unique, %s is declared at %s", ir.ErrAmbiguous, name, strings.Join(locs, ", "))
}

// bind pairs the declaration's type parameters with the caller's arguments.
func bind(d *decl.Declaration, args []ast.Expr, caller *Scope) (*Scope, error) {
	sc := &Scope{File: d.File}
	var params []string
	if d.Spec.TypeParams != nil {
		for _, f := range d.Spec.TypeParams.List {
			for _, n := range f.Names {
				params = append(params, n.Name)
			}
		}
	}
	if len(params) != len(args) {
		return nil, fmt.Errorf("%w: %s takes %d type arguments, got %d", ir.ErrUnsupportedType, d.Name, len(params), len(args))
	}
	if len(params) > 0 {
		sc.bindings = make(map[string]binding, len(params))
		for i, p := range params {
			sc.bindings[p] = binding{expr: args[i], scope: caller}
		}
	}
	return sc, nil
}

func classify(d *decl.Declaration) declKind {
	if d.Spec.Assign.IsValid() {
		return declTransparent
	}
	switch t := d.Spec.Type.(type) {
	case *ast.Ident:
		if _, basic := basicKinds[t.Name]; basic && len(d.Package.Consts(d.Name)) > 0 {
			return declEnum
		}
	case *ast.StructType:
		return declStruct
	case *ast.MapType:
		return declMap
	case *ast.InterfaceType:
		if _, ok := unionMembers(t); ok {
			return declComposite
		}
	}
	return declTransparent
}

func (r *Resolver) build(d *decl.Declaration, kind declKind, sc *Scope, refName string) (*ir.ReferenceType, error) {
	ann, err := r.parser.Parse(d.Doc)
	if err != nil {
		return nil, err
	}
	ref := &ir.ReferenceType{
		RefName:     refName,
		Kind:        ir.RefObject,
		Description: ann.Description,
	}
	if text, ok := ann.Hints.Get(markers.HintExample); ok {
		v, err := markers.ParseValue(text)
		if err != nil {
			return nil, fmt.Errorf("@example: %w", err)
		}
		ref.Example = v
	}

	switch kind {
	case declEnum:
		r.enum(d, ref)
	case declStruct:
		props, err := r.structProperties(d.Spec.Type.(*ast.StructType), sc)
		if err != nil {
			return nil, err
		}
		ref.Properties = props
	case declMap:
		mt := d.Spec.Type.(*ast.MapType)
		key, err := r.resolve(mt.Key, sc, nil, true)
		if err != nil {
			return nil, err
		}
		if !isStringType(key) {
			return nil, fmt.Errorf("%w: %s", ir.ErrIndexKey, exprString(mt.Key))
		}
		val, err := r.resolve(mt.Value, sc, nil, true)
		if err != nil {
			return nil, err
		}
		ref.AdditionalProperties = val
	case declComposite:
		members, _ := unionMembers(d.Spec.Type.(*ast.InterfaceType))
		for _, m := range members {
			t, err := r.resolve(m, sc, nil, false)
			if err != nil {
				return nil, err
			}
			rt, ok := t.(*ir.ReferenceType)
			if !ok || rt.Kind == ir.RefEnum {
				// a union over non-object members has no property list
				r.logger.Debug("resolve.union.degraded", "type", refName)
				ref.Properties = nil
				return ref, nil
			}
			ref.Properties = append(ref.Properties, rt.Properties...)
		}
	}
	return ref, nil
}

// enum takes the members from the typed constants declared for the type.
func (r *Resolver) enum(d *decl.Declaration, ref *ir.ReferenceType) {
	ref.Kind = ir.RefEnum
	consts := d.Package.Consts(d.Name)
	ref.ValueType = "number"
	if v := consts[0].Value; v != nil {
		switch v.Kind() {
		case constant.String:
			ref.ValueType = "string"
		case constant.Bool:
			ref.ValueType = "boolean"
		}
	}
	for _, c := range consts {
		if c.Value == nil {
			ref.EnumValues = append(ref.EnumValues, int64(c.Ordinal))
			continue
		}
		ref.EnumValues = append(ref.EnumValues, decl.ConstValue(c.Value))
	}
}

func exprString(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return exprString(e.X) + "." + e.Sel.Name
	case *ast.StarExpr:
		return "*" + exprString(e.X)
	case *ast.ArrayType:
		return "[]" + exprString(e.Elt)
	case *ast.MapType:
		return "map[" + exprString(e.Key) + "]" + exprString(e.Value)
	case *ast.IndexExpr:
		return exprString(e.X) + "[" + exprString(e.Index) + "]"
	}
	return fmt.Sprintf("%T", e)
}
