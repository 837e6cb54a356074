package metadata

import (
	"fmt"
	"go/ast"

	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
)

// securityOf reads every @Security marker. Accepted forms:
//
//	@Security("api_key")
//	@Security("oauth", []string{"write:pets"})
//	@Security("oauth", "write:pets", "read:pets")
//	@Security(map[string][]string{"api_key": {}, "oauth": {"write:pets"}})
func securityOf(ann *markers.Annotations) ([]ir.Security, error) {
	var out []ir.Security
	for _, m := range ann.Find(markers.Security) {
		s, err := parseSecurity(m)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func parseSecurity(m markers.Marker) (ir.Security, error) {
	if len(m.Args) == 0 {
		return nil, fmt.Errorf("@%s: %w: missing scheme", m.Name, ir.ErrInvalidMarker)
	}
	if _, ok := m.Args[0].(*ast.CompositeLit); ok {
		if len(m.Args) != 1 {
			return nil, fmt.Errorf("@%s: %w: unexpected arguments after map", m.Name, ir.ErrInvalidMarker)
		}
		schemes, _, err := markers.StringSliceMap(m.Args[0])
		if err != nil {
			return nil, fmt.Errorf("@%s: %w", m.Name, err)
		}
		return ir.Security(schemes), nil
	}

	name, err := m.StringArg(0)
	if err != nil {
		return nil, err
	}
	scopes := []string{}
	if len(m.Args) == 2 {
		if _, ok := m.Args[1].(*ast.CompositeLit); ok {
			if scopes, err = markers.StringSlice(m.Args[1]); err != nil {
				return nil, fmt.Errorf("@%s: %w", m.Name, err)
			}
			return ir.Security{name: scopes}, nil
		}
	}
	for i := 1; i < len(m.Args); i++ {
		s, err := m.StringArg(i)
		if err != nil {
			return nil, err
		}
		scopes = append(scopes, s)
	}
	return ir.Security{name: scopes}, nil
}
