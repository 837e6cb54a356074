package metadata

import (
	"fmt"
	"go/ast"

	"github.com/adrianplavka/typeswag/internal/decl"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
)

func (g *Generator) controllers() ([]ir.Controller, error) {
	var out []ir.Controller
	for _, d := range g.set.Declarations() {
		if _, ok := d.Spec.Type.(*ast.StructType); !ok {
			continue
		}
		ann, err := g.parser.Parse(d.Doc)
		if err != nil {
			return nil, fmt.Errorf("controller %s: %w", d.Name, err)
		}
		routes := ann.Find(markers.Route)
		switch len(routes) {
		case 0:
			continue
		case 1:
		default:
			return nil, fmt.Errorf("controller %s: %w: %d route markers", d.Name, ir.ErrAmbiguous, len(routes))
		}
		if d.Spec.TypeParams != nil {
			g.logger.Warn("metadata.controller.skipped", "controller", d.Name, "reason", "generic")
			continue
		}
		ctrl, err := g.controller(d, ann, routes[0])
		if err != nil {
			return nil, fmt.Errorf("controller %s: %w", d.Name, err)
		}
		g.logger.Debug("metadata.controller.extracted", "controller", d.Name, "operations", len(ctrl.Operations))
		out = append(out, ctrl)
	}
	return out, nil
}

func (g *Generator) controller(d *decl.Declaration, ann *markers.Annotations, route markers.Marker) (ir.Controller, error) {
	path, err := route.StringArg(0)
	if err != nil {
		return ir.Controller{}, err
	}
	if transform, _ := g.registry.Lookup(route.Name); transform != nil {
		path = transform(path)
	}
	tags, err := tagsOf(ann)
	if err != nil {
		return ir.Controller{}, err
	}
	security, err := securityOf(ann)
	if err != nil {
		return ir.Controller{}, err
	}
	ctrl := ir.Controller{
		Name:     d.Name,
		Path:     path,
		Tags:     tags,
		Security: security,
		Location: d.File.Path,
	}
	hidden := ann.Has(markers.Hidden)
	for _, fn := range d.Methods {
		op, ok, err := g.operation(d, fn, &ctrl)
		if err != nil {
			return ir.Controller{}, fmt.Errorf("method %s: %w", fn.Name.Name, err)
		}
		if !ok {
			continue
		}
		op.Hidden = op.Hidden || hidden
		ctrl.Operations = append(ctrl.Operations, op)
	}
	return ctrl, nil
}

func tagsOf(ann *markers.Annotations) ([]string, error) {
	found := ann.Find(markers.Tags)
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0].Strings()
	}
	return nil, fmt.Errorf("%w: %d @Tags markers", ir.ErrAmbiguous, len(found))
}

// mergeTags appends extra to base, dropping repeats.
func mergeTags(base, extra []string) []string {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(base)+len(extra))
	for _, t := range append(append([]string{}, base...), extra...) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
