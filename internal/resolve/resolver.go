// Package resolve turns Go type expressions into type descriptors.
//
// Named types become *ir.ReferenceType values that are cached per run, keyed
// by import path, name and generic arguments, so every holder of a key shares
// one pointer. A reference met again while it is still being resolved gets a
// placeholder that the Host patches in place once generation finishes.
package resolve

import (
	"fmt"
	"go/ast"

	"github.com/adrianplavka/typeswag/internal/decl"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
	"pkt.systems/pslog"
)

// Host owns the output of a generation pass.
type Host interface {
	Declarations() *decl.Set
	AddReferenceType(t *ir.ReferenceType)
	GetReferenceType(refName string) *ir.ReferenceType
	// OnFinish registers fn to run after every controller has been extracted.
	OnFinish(fn func(*ir.ReferenceTypeMap))
}

type Resolver struct {
	host   Host
	parser *markers.Parser
	logger pslog.Logger

	cache       map[string]*ir.ReferenceType
	partials    map[string]*ir.ReferenceType
	inProgress  map[string]bool
	wanted      map[string]bool
	transparent map[string]bool
}

type Option func(*Resolver)

func WithLogger(l pslog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithParser sets the annotation parser used for type and field docs.
func WithParser(p *markers.Parser) Option {
	return func(r *Resolver) {
		if p != nil {
			r.parser = p
		}
	}
}

func New(host Host, opts ...Option) *Resolver {
	r := &Resolver{
		host:        host,
		logger:      pslog.NoopLogger(),
		cache:       map[string]*ir.ReferenceType{},
		partials:    map[string]*ir.ReferenceType{},
		inProgress:  map[string]bool{},
		wanted:      map[string]bool{},
		transparent: map[string]bool{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.parser == nil {
		r.parser = markers.NewParser(nil, r.logger)
	}
	return r
}

// Scope is the lexical context an expression is read in: the file supplies
// the package and import table, bindings supply generic type parameters.
type Scope struct {
	File     *decl.File
	bindings map[string]binding
}

type binding struct {
	expr  ast.Expr
	scope *Scope
}

func FileScope(f *decl.File) *Scope {
	return &Scope{File: f}
}

func (s *Scope) lookup(name string) (binding, bool) {
	if s == nil {
		return binding{}, false
	}
	b, ok := s.bindings[name]
	return b, ok
}

// Resolve maps expr, read in sc, to a descriptor. hints are the annotations
// attached to the field or parameter carrying expr.
func (r *Resolver) Resolve(expr ast.Expr, sc *Scope, hints markers.Hints) (ir.Type, error) {
	return r.resolve(expr, sc, hints, true)
}

// resolve does the work of Resolve. Named types reached with emit unset are
// cached without being added to the Host; embedded supertypes use this.
func (r *Resolver) resolve(expr ast.Expr, sc *Scope, hints markers.Hints, emit bool) (ir.Type, error) {
	if text, ok := hints.Get(markers.HintEnum); ok && !isList(expr) {
		return literalUnion(markers.SplitList(text))
	}

	switch e := expr.(type) {
	case *ast.ParenExpr:
		return r.resolve(e.X, sc, hints, emit)
	case *ast.StarExpr:
		return r.resolve(e.X, sc, hints, emit)
	case *ast.ChanType:
		return r.resolve(e.Value, sc, hints, emit)
	case *ast.Ellipsis:
		return r.array(e.Elt, sc, hints, emit)
	case *ast.ArrayType:
		if isByte(e.Elt) {
			return ir.Primitive(ir.KindBuffer), nil
		}
		return r.array(e.Elt, sc, hints, emit)
	case *ast.MapType:
		return ir.Primitive(ir.KindObject), nil
	case *ast.StructType:
		return ir.Primitive(ir.KindAny), nil
	case *ast.InterfaceType:
		if members, ok := unionMembers(e); ok && len(members) > 0 {
			r.logger.Debug("resolve.union.degraded", "members", len(members))
			return ir.Primitive(ir.KindObject), nil
		}
		return ir.Primitive(ir.KindAny), nil
	case *ast.FuncType:
		return nil, fmt.Errorf("%w: function type", ir.ErrUnsupportedType)
	case *ast.Ident:
		if b, ok := sc.lookup(e.Name); ok {
			return r.resolve(b.expr, b.scope, hints, emit)
		}
		if t, ok, err := primitive(e.Name, hints); ok || err != nil {
			return t, err
		}
		return r.named(e, nil, sc, hints, emit)
	case *ast.SelectorExpr:
		if t, ok := r.wellKnown(e, sc, hints); ok {
			return t, nil
		}
		return r.named(e, nil, sc, hints, emit)
	case *ast.IndexExpr:
		return r.generic(e.X, []ast.Expr{e.Index}, sc, hints, emit)
	case *ast.IndexListExpr:
		return r.generic(e.X, e.Indices, sc, hints, emit)
	}
	return nil, fmt.Errorf("%w: %T", ir.ErrUnsupportedType, expr)
}

func (r *Resolver) array(elt ast.Expr, sc *Scope, hints markers.Hints, emit bool) (ir.Type, error) {
	elem, err := r.resolve(elt, sc, hints, emit)
	if err != nil {
		return nil, err
	}
	return &ir.ArrayType{Element: elem}, nil
}

// generic handles instantiations, intercepting the wrapper names first.
func (r *Resolver) generic(base ast.Expr, args []ast.Expr, sc *Scope, hints markers.Hints, emit bool) (ir.Type, error) {
	if len(args) == 1 {
		switch simpleName(base) {
		case "Array", "Slice":
			return r.array(args[0], sc, hints, emit)
		case "Promise", "Future":
			return r.resolve(args[0], sc, hints, emit)
		case "Partial":
			return r.partial(args[0], sc, emit)
		}
	}
	return r.named(base, args, sc, hints, emit)
}

// partial copies an object type with every property made optional.
func (r *Resolver) partial(arg ast.Expr, sc *Scope, emit bool) (ir.Type, error) {
	inner, err := r.resolve(arg, sc, nil, true)
	if err != nil {
		return nil, err
	}
	rt, ok := inner.(*ir.ReferenceType)
	if !ok || rt.Kind == ir.RefEnum {
		return nil, fmt.Errorf("%w: Partial needs an object type", ir.ErrUnsupportedType)
	}
	if p, ok := r.partials[rt.RefName]; ok {
		if emit {
			r.host.AddReferenceType(p)
		}
		return p, nil
	}
	p := &ir.ReferenceType{RefName: partialName(rt.RefName), Kind: ir.RefObject}
	fillPartial(p, rt)
	if rt.Kind == "" {
		// rt is a cycle placeholder; copy again once the type is complete
		r.host.OnFinish(func(m *ir.ReferenceTypeMap) {
			if done := m.Get(rt.RefName); done != nil {
				fillPartial(p, done)
			}
		})
	}
	r.partials[rt.RefName] = p
	if emit {
		r.host.AddReferenceType(p)
	}
	return p, nil
}

func fillPartial(p, src *ir.ReferenceType) {
	p.Description = src.Description
	p.Properties = ir.CloneProperties(src.Properties)
	p.AdditionalProperties = src.AdditionalProperties
	p.Example = src.Example
	for _, prop := range p.Properties {
		prop.Required = false
	}
}

func partialName(refName string) string {
	for i := 0; i < len(refName); i++ {
		if refName[i] == '.' {
			return refName[:i+1] + "Partial" + refName[i+1:]
		}
	}
	return "Partial" + refName
}

func simpleName(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	}
	return ""
}

func isByte(e ast.Expr) bool {
	id, ok := e.(*ast.Ident)
	return ok && (id.Name == "byte" || id.Name == "uint8")
}

func isList(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.StarExpr:
		return isList(e.X)
	case *ast.ArrayType:
		return !isByte(e.Elt)
	case *ast.Ellipsis:
		return true
	}
	return false
}

// unionMembers flattens the embedded elements of an interface. ok is false
// when the interface declares methods or is neither a union nor a
// composition of two or more elements.
func unionMembers(it *ast.InterfaceType) ([]ast.Expr, bool) {
	if it.Methods == nil {
		return nil, false
	}
	var (
		members []ast.Expr
		union   bool
	)
	var flatten func(e ast.Expr)
	flatten = func(e ast.Expr) {
		switch e := e.(type) {
		case *ast.BinaryExpr:
			union = true
			flatten(e.X)
			flatten(e.Y)
		case *ast.UnaryExpr:
			flatten(e.X)
		default:
			members = append(members, e)
		}
	}
	for _, f := range it.Methods.List {
		if len(f.Names) > 0 {
			return nil, false
		}
		flatten(f.Type)
	}
	return members, union || len(members) > 1
}
