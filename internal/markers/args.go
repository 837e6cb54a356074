package markers

import (
	"fmt"
	"go/ast"
	"go/token"
	"strconv"

	"github.com/adrianplavka/typeswag/internal/ir"
)

// StringArg returns the i-th argument as a string literal, or "" when absent.
func (m Marker) StringArg(i int) (string, error) {
	if i >= len(m.Args) {
		return "", nil
	}
	s, err := StringLit(m.Args[i])
	if err != nil {
		return "", fmt.Errorf("@%s argument %d: %w", m.Name, i+1, err)
	}
	return s, nil
}

// IdentArg returns the i-th argument, which must be a bare identifier.
func (m Marker) IdentArg(i int) (string, error) {
	if i >= len(m.Args) {
		return "", fmt.Errorf("@%s: %w: missing argument %d", m.Name, ir.ErrInvalidMarker, i+1)
	}
	id, ok := m.Args[i].(*ast.Ident)
	if !ok {
		return "", fmt.Errorf("@%s: %w: argument %d must be an identifier", m.Name, ir.ErrInvalidMarker, i+1)
	}
	return id.Name, nil
}

// Strings returns every argument as a string literal.
func (m Marker) Strings() ([]string, error) {
	out := make([]string, 0, len(m.Args))
	for i := range m.Args {
		s, err := m.StringArg(i)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// StringLit evaluates a string literal expression.
func StringLit(e ast.Expr) (string, error) {
	lit, ok := unparen(e).(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", fmt.Errorf("%w: expected string literal", ir.ErrInvalidMarker)
	}
	s, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ir.ErrInvalidMarker, err)
	}
	return s, nil
}

// StringSlice evaluates []string{"a", "b"}. The element type may be elided,
// as it is inside a map literal.
func StringSlice(e ast.Expr) ([]string, error) {
	lit, ok := unparen(e).(*ast.CompositeLit)
	if !ok {
		return nil, fmt.Errorf("%w: expected []string literal", ir.ErrInvalidMarker)
	}
	if lit.Type != nil {
		at, ok := lit.Type.(*ast.ArrayType)
		if !ok || at.Len != nil {
			return nil, fmt.Errorf("%w: expected []string literal", ir.ErrInvalidMarker)
		}
		if id, ok := at.Elt.(*ast.Ident); !ok || id.Name != "string" {
			return nil, fmt.Errorf("%w: expected []string literal", ir.ErrInvalidMarker)
		}
	}
	out := make([]string, 0, len(lit.Elts))
	for _, el := range lit.Elts {
		s, err := StringLit(el)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// StringSliceMap evaluates map[string][]string{"a": {}, "b": {"s"}}. Keys are
// returned in source order alongside the map.
func StringSliceMap(e ast.Expr) (map[string][]string, []string, error) {
	lit, ok := unparen(e).(*ast.CompositeLit)
	if !ok {
		return nil, nil, fmt.Errorf("%w: expected map literal", ir.ErrInvalidMarker)
	}
	if _, ok := lit.Type.(*ast.MapType); !ok {
		return nil, nil, fmt.Errorf("%w: expected map[string][]string literal", ir.ErrInvalidMarker)
	}
	out := make(map[string][]string, len(lit.Elts))
	var keys []string
	for _, el := range lit.Elts {
		kv, ok := el.(*ast.KeyValueExpr)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected key: value", ir.ErrInvalidMarker)
		}
		k, err := StringLit(kv.Key)
		if err != nil {
			return nil, nil, err
		}
		v, err := StringSlice(kv.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("key %q: %w", k, err)
		}
		if _, dup := out[k]; !dup {
			keys = append(keys, k)
		}
		out[k] = v
	}
	return out, keys, nil
}

func unparen(e ast.Expr) ast.Expr {
	for {
		p, ok := e.(*ast.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}
