package decl

import (
	"go/ast"
	"go/constant"
	"go/token"
)

// collectConsts records the typed members of one const block. A spec without
// values repeats the previous spec's type and expressions with the next iota.
func collectConsts(pkg *Package, d *ast.GenDecl) {
	var (
		lastType   ast.Expr
		lastValues []ast.Expr
	)
	for idx, sp := range d.Specs {
		vs := sp.(*ast.ValueSpec)
		typ, values := vs.Type, vs.Values
		if typ == nil && len(values) == 0 {
			typ, values = lastType, lastValues
		} else {
			lastType, lastValues = typ, values
		}
		for i, name := range vs.Names {
			var expr ast.Expr
			if i < len(values) {
				expr = values[i]
			}
			typeName := namedType(typ)
			if typeName == "" && expr != nil {
				// const X = Color("red")
				if call, ok := expr.(*ast.CallExpr); ok && len(call.Args) == 1 {
					if id, ok := call.Fun.(*ast.Ident); ok && !isPredeclared(id.Name) {
						typeName = id.Name
						expr = call.Args[0]
					}
				}
			}
			if typeName == "" || name.Name == "_" {
				continue
			}
			c := &Const{
				Name:     name.Name,
				TypeName: typeName,
				Ordinal:  len(pkg.consts[typeName]),
				Doc:      vs.Doc,
			}
			if expr != nil {
				_, c.Literal = expr.(*ast.BasicLit)
				c.Value = evalConst(expr, idx)
			}
			pkg.consts[typeName] = append(pkg.consts[typeName], c)
		}
	}
}

func namedType(e ast.Expr) string {
	if id, ok := e.(*ast.Ident); ok && !isPredeclared(id.Name) {
		return id.Name
	}
	return ""
}

func isPredeclared(name string) bool {
	switch name {
	case "bool", "string", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128", "byte", "rune":
		return true
	}
	return false
}

// evalConst folds a constant expression. It returns nil for anything that
// needs type information, such as references to other constants.
func evalConst(e ast.Expr, n int) constant.Value {
	switch e := e.(type) {
	case *ast.BasicLit:
		v := constant.MakeFromLiteral(e.Value, e.Kind, 0)
		if v.Kind() == constant.Unknown {
			return nil
		}
		return v
	case *ast.Ident:
		switch e.Name {
		case "iota":
			return constant.MakeInt64(int64(n))
		case "true":
			return constant.MakeBool(true)
		case "false":
			return constant.MakeBool(false)
		}
	case *ast.ParenExpr:
		return evalConst(e.X, n)
	case *ast.UnaryExpr:
		x := evalConst(e.X, n)
		if x == nil {
			return nil
		}
		return constant.UnaryOp(e.Op, x, 0)
	case *ast.BinaryExpr:
		x, y := evalConst(e.X, n), evalConst(e.Y, n)
		if x == nil || y == nil || !compatible(x, y) {
			return nil
		}
		switch e.Op {
		case token.SHL, token.SHR:
			if x.Kind() != constant.Int {
				return nil
			}
			s, ok := constant.Uint64Val(y)
			if !ok {
				return nil
			}
			return constant.Shift(x, e.Op, uint(s))
		case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
			return constant.MakeBool(constant.Compare(x, e.Op, y))
		case token.QUO:
			if x.Kind() == constant.Int && y.Kind() == constant.Int {
				if constant.Sign(y) == 0 {
					return nil
				}
				return constant.BinaryOp(x, token.QUO_ASSIGN, y)
			}
		}
		return constant.BinaryOp(x, e.Op, y)
	case *ast.CallExpr:
		// conversions such as int64(1) keep their operand's value
		if id, ok := e.Fun.(*ast.Ident); ok && isPredeclared(id.Name) && len(e.Args) == 1 {
			return evalConst(e.Args[0], n)
		}
	}
	return nil
}

// ConstValue converts a folded constant into a plain Go value.
func ConstValue(v constant.Value) any {
	switch v.Kind() {
	case constant.String:
		return constant.StringVal(v)
	case constant.Bool:
		return constant.BoolVal(v)
	case constant.Int:
		if i, ok := constant.Int64Val(v); ok {
			return i
		}
		if u, ok := constant.Uint64Val(v); ok {
			return u
		}
		return v.ExactString()
	case constant.Float:
		f, _ := constant.Float64Val(v)
		return f
	}
	return v.ExactString()
}

func compatible(x, y constant.Value) bool {
	numeric := func(k constant.Kind) bool {
		return k == constant.Int || k == constant.Float || k == constant.Complex
	}
	if numeric(x.Kind()) {
		return numeric(y.Kind())
	}
	return x.Kind() == y.Kind()
}
