// Package metadata extracts controllers, operations and the reference types
// they use from a declaration set.
package metadata

import (
	"context"
	"fmt"

	"github.com/adrianplavka/typeswag/internal/decl"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
	"github.com/adrianplavka/typeswag/internal/resolve"
	"pkt.systems/pslog"
)

// Generator owns the state of one generation pass. It is not safe for
// concurrent use; independent passes use independent Generators.
type Generator struct {
	set      *decl.Set
	registry *markers.Registry
	parser   *markers.Parser
	resolver *resolve.Resolver
	logger   pslog.Logger

	refs   *ir.ReferenceTypeMap
	finish []func(*ir.ReferenceTypeMap)
}

type Option func(*Generator)

// WithRouteMarkers sets the registry of markers that identify controllers.
func WithRouteMarkers(reg *markers.Registry) Option {
	return func(g *Generator) {
		if reg != nil {
			g.registry = reg
		}
	}
}

func WithLogger(l pslog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

func New(set *decl.Set, opts ...Option) *Generator {
	g := &Generator{
		set:      set,
		registry: markers.NewRegistry(),
		logger:   pslog.NoopLogger(),
		refs:     ir.NewReferenceTypeMap(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.parser = markers.NewParser(g.registry, g.logger)
	g.resolver = resolve.New(g, resolve.WithParser(g.parser), resolve.WithLogger(g.logger))
	return g
}

// NewFromEntry loads the declarations under an entry point and returns a
// Generator over them.
func NewFromEntry(ctx context.Context, load decl.LoadOptions, opts ...Option) (*Generator, error) {
	g := New(nil, opts...)
	if load.Logger == nil {
		load.Logger = g.logger
	}
	set, err := decl.Load(ctx, load)
	if err != nil {
		return nil, err
	}
	g.set = set
	return g, nil
}

// Generate extracts every controller, then runs the deferred fix-ups for
// circular references. It is meant to be called once.
func (g *Generator) Generate() (*ir.Metadata, error) {
	if g.set == nil {
		return nil, fmt.Errorf("no declarations loaded")
	}
	controllers, err := g.controllers()
	if err != nil {
		return nil, err
	}
	for _, fn := range g.finish {
		fn(g.refs)
	}
	g.logger.Info("metadata.generate.complete", "controllers", len(controllers), "types", g.refs.Len())
	return &ir.Metadata{Controllers: controllers, ReferenceTypes: g.refs}, nil
}

func (g *Generator) Declarations() *decl.Set { return g.set }

func (g *Generator) AddReferenceType(t *ir.ReferenceType) {
	if g.refs.Add(t) {
		g.logger.Debug("metadata.type.added", "type", t.RefName)
	}
}

func (g *Generator) GetReferenceType(refName string) *ir.ReferenceType {
	return g.refs.Get(refName)
}

func (g *Generator) OnFinish(fn func(*ir.ReferenceTypeMap)) {
	g.finish = append(g.finish, fn)
}
