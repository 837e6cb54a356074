package metadata

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/adrianplavka/typeswag/internal/decl"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
	"github.com/adrianplavka/typeswag/internal/resolve"
)

var roles = map[markers.Kind]ir.ParamRole{
	markers.Body:     ir.RoleBody,
	markers.BodyProp: ir.RoleBodyProp,
	markers.Request:  ir.RoleRequest,
	markers.Path:     ir.RolePath,
	markers.Query:    ir.RoleQuery,
	markers.Header:   ir.RoleHeader,
}

// operation extracts one method. ok is false when the method carries no verb
// marker.
func (g *Generator) operation(d *decl.Declaration, fn *ast.FuncDecl, ctrl *ir.Controller) (ir.Operation, bool, error) {
	ann, err := g.parser.Parse(fn.Doc)
	if err != nil {
		return ir.Operation{}, false, err
	}
	var verbs []markers.Marker
	for _, m := range ann.Markers {
		if m.Kind.IsVerb() {
			verbs = append(verbs, m)
		}
	}
	switch len(verbs) {
	case 0:
		return ir.Operation{}, false, nil
	case 1:
	default:
		return ir.Operation{}, false, fmt.Errorf("%w: %d verb markers", ir.ErrAmbiguous, len(verbs))
	}
	path, err := verbs[0].StringArg(0)
	if err != nil {
		return ir.Operation{}, false, err
	}

	op := ir.Operation{
		Name:        fn.Name.Name,
		Verb:        ir.Verb(strings.ToLower(string(verbs[0].Kind))),
		Path:        path,
		Description: ann.Description,
		Hidden:      ann.Has(markers.Hidden),
		Deprecated:  ann.Has(markers.Deprecated) || ann.Hints.Has(markers.HintDeprecated) || ann.Deprecated,
	}
	op.Summary, _ = ann.Hints.Get(markers.HintSummary)
	op.OperationID, _ = ann.Hints.Get(markers.HintOperationID)

	sc := resolve.FileScope(d.File)
	if op.Parameters, err = g.parameters(fn, ann, sc); err != nil {
		return ir.Operation{}, false, err
	}
	if op.Responses, err = g.responses(fn, ann, sc); err != nil {
		return ir.Operation{}, false, err
	}

	tags, err := tagsOf(ann)
	if err != nil {
		return ir.Operation{}, false, err
	}
	op.Tags = mergeTags(ctrl.Tags, tags)

	op.Security = ctrl.Security
	if ann.Has(markers.Security) {
		if op.Security, err = securityOf(ann); err != nil {
			return ir.Operation{}, false, err
		}
	}
	return op, true, nil
}

func (g *Generator) parameters(fn *ast.FuncDecl, ann *markers.Annotations, sc *resolve.Scope) ([]ir.Parameter, error) {
	bound := map[string]markers.Marker{}
	var order []string
	for _, m := range ann.Markers {
		if !m.Kind.IsRole() {
			continue
		}
		name, err := m.IdentArg(0)
		if err != nil {
			return nil, err
		}
		if prev, ok := bound[name]; ok {
			return nil, fmt.Errorf("parameter %s: %w: @%s and @%s", name, ir.ErrAmbiguous, prev.Name, m.Name)
		}
		bound[name] = m
		order = append(order, name)
	}

	declared := map[string]bool{}
	var out []ir.Parameter
	for _, field := range fn.Type.Params.List {
		for _, id := range field.Names {
			declared[id.Name] = true
			m, ok := bound[id.Name]
			if !ok {
				continue
			}
			if _, variadic := field.Type.(*ast.Ellipsis); variadic {
				g.logger.Debug("metadata.param.skipped", "method", fn.Name.Name, "param", id.Name, "reason", "variadic")
				continue
			}
			p, err := g.parameter(id.Name, field.Type, m, ann.Hints.ForParam(id.Name), sc)
			if err != nil {
				return nil, fmt.Errorf("parameter %s: %w", id.Name, err)
			}
			out = append(out, p)
		}
	}
	for _, name := range order {
		if !declared[name] {
			return nil, fmt.Errorf("%w: @%s names unknown parameter %q", ir.ErrMissingType, bound[name].Name, name)
		}
	}
	return out, nil
}

func (g *Generator) parameter(name string, typ ast.Expr, m markers.Marker, hints markers.Hints, sc *resolve.Scope) (ir.Parameter, error) {
	external := name
	if len(m.Args) > 1 {
		s, err := m.StringArg(1)
		if err != nil {
			return ir.Parameter{}, err
		}
		if s != "" {
			external = s
		}
	}
	p := ir.Parameter{Name: external, ParamName: name, Role: roles[m.Kind]}
	if p.Role == ir.RoleRequest {
		return p, nil
	}

	t, err := g.resolver.Resolve(typ, sc, hints)
	if err != nil {
		return ir.Parameter{}, err
	}
	p.Type = t
	p.Description, _ = hints.Get(markers.HintParam)
	p.Format, _ = hints.Get(markers.HintFormat)
	if text, ok := hints.Get(markers.HintDefault); ok {
		if p.Default, err = markers.ParseValue(text); err != nil {
			return ir.Parameter{}, fmt.Errorf("@%s: %w", markers.HintDefault, err)
		}
	}
	if p.Validators, err = hints.Validators(); err != nil {
		return ir.Parameter{}, err
	}
	_, pointer := typ.(*ast.StarExpr)
	p.Required = p.Role == ir.RolePath || (!pointer && p.Default == nil)
	return p, nil
}

func (g *Generator) responses(fn *ast.FuncDecl, ann *markers.Annotations, sc *resolve.Scope) ([]ir.Response, error) {
	var results []ast.Expr
	if fn.Type.Results != nil {
		for _, f := range fn.Type.Results.List {
			if id, ok := f.Type.(*ast.Ident); ok && id.Name == "error" {
				continue
			}
			for range max(1, len(f.Names)) {
				results = append(results, f.Type)
			}
		}
	}
	if len(results) > 1 {
		return nil, fmt.Errorf("%w: %d non-error results", ir.ErrUnsupportedType, len(results))
	}

	success := ir.Response{Name: "204", Description: "No content"}
	if len(results) == 1 {
		t, err := g.resolver.Resolve(results[0], sc, nil)
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		success = ir.Response{Name: "200", Description: "Ok", Schema: t}
	}
	switch found := ann.Find(markers.SuccessResponse); len(found) {
	case 0:
	case 1:
		code, err := found[0].StringArg(0)
		if err != nil {
			return nil, err
		}
		desc, err := found[0].StringArg(1)
		if err != nil {
			return nil, err
		}
		if code != "" {
			success.Name = code
		}
		if desc != "" {
			success.Description = desc
		}
	default:
		return nil, fmt.Errorf("%w: %d @SuccessResponse markers", ir.ErrAmbiguous, len(found))
	}
	if text, ok := ann.Hints.Get(markers.HintExample); ok {
		ex, err := markers.ParseValue(text)
		if err != nil {
			return nil, fmt.Errorf("@%s: %w", markers.HintExample, err)
		}
		success.Examples = ex
	}

	out := []ir.Response{success}
	for _, m := range ann.Find(markers.Response) {
		resp, err := g.response(m, sc)
		if err != nil {
			return nil, err
		}
		out = append(out, resp)
	}
	return out, nil
}

func (g *Generator) response(m markers.Marker, sc *resolve.Scope) (ir.Response, error) {
	name, err := m.StringArg(0)
	if err != nil {
		return ir.Response{}, err
	}
	if name == "" {
		return ir.Response{}, fmt.Errorf("@%s: %w: missing status code", m.Name, ir.ErrInvalidMarker)
	}
	resp := ir.Response{Name: name}
	if resp.Description, err = m.StringArg(1); err != nil {
		return ir.Response{}, err
	}
	switch len(m.TypeArgs) {
	case 0:
	case 1:
		if resp.Schema, err = g.resolver.Resolve(m.TypeArgs[0], sc, nil); err != nil {
			return ir.Response{}, fmt.Errorf("@%s %s: %w", m.Name, name, err)
		}
	default:
		return ir.Response{}, fmt.Errorf("@%s: %w: %d type arguments", m.Name, ir.ErrInvalidMarker, len(m.TypeArgs))
	}
	if len(m.Args) > 2 {
		text, err := m.StringArg(2)
		if err != nil {
			return ir.Response{}, err
		}
		if resp.Examples, err = markers.ParseValue(text); err != nil {
			return ir.Response{}, fmt.Errorf("@%s example: %w", m.Name, err)
		}
	}
	return resp, nil
}
