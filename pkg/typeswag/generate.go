// Package typeswag generates Swagger 2.0 documents from annotated Go
// controllers and models.
package typeswag

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/adrianplavka/typeswag/internal/config"
	"github.com/adrianplavka/typeswag/internal/decl"
	"github.com/adrianplavka/typeswag/internal/emit"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
	"github.com/adrianplavka/typeswag/internal/metadata"
	"github.com/adrianplavka/typeswag/internal/openapi"
	"github.com/adrianplavka/typeswag/internal/swagger"
	"github.com/go-openapi/spec"
	"pkt.systems/pslog"
)

type (
	Config   = config.Config
	Metadata = ir.Metadata
)

// LoadConfig reads a YAML configuration file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// ParseConfig decodes a YAML configuration and applies defaults.
func ParseConfig(data []byte) (*Config, error) {
	return config.Parse(data)
}

type Options struct {
	// Metadata from an earlier run skips loading and extraction.
	Metadata *Metadata
	// Check fails instead of writing when outputs are missing or differ.
	Check bool
	// DryRun builds and validates the document without writing it.
	DryRun bool
}

type Result struct {
	Spec     *spec.Swagger
	Metadata *Metadata
	Files    []string
}

type Generator struct {
	cfg      *Config
	registry *markers.Registry
	logger   pslog.Logger
}

type Option func(*Generator)

func WithLogger(l pslog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

func New(cfg *Config, opts ...Option) *Generator {
	g := &Generator{cfg: cfg, registry: markers.NewRegistry(), logger: pslog.NoopLogger()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// RegisterRouteMarker makes @name identify controllers alongside @Route.
// transform, when set, rewrites the controller path.
func (g *Generator) RegisterRouteMarker(name string, transform func(string) string) {
	g.registry.Register(name, transform)
}

// Metadata loads the entry point and extracts controllers and types.
func (g *Generator) Metadata(ctx context.Context) (*Metadata, error) {
	gen, err := metadata.NewFromEntry(ctx, decl.LoadOptions{
		Entry:     g.cfg.EntryFile,
		BuildTags: g.cfg.BuildTags,
		Ignore:    g.cfg.Ignore,
		Logger:    g.logger,
	}, metadata.WithRouteMarkers(g.registry), metadata.WithLogger(g.logger))
	if err != nil {
		return nil, err
	}
	return gen.Generate()
}

// Spec assembles the document for md and validates it when configured to.
func (g *Generator) Spec(ctx context.Context, md *Metadata) (*spec.Swagger, error) {
	doc, err := swagger.New(g.cfg.Swagger, swagger.WithLogger(g.logger)).Assemble(md)
	if err != nil {
		return nil, err
	}
	if g.cfg.Swagger.Validate {
		raw, err := emit.MarshalJSON(doc)
		if err != nil {
			return nil, err
		}
		if _, err := openapi.Validate(ctx, raw); err != nil {
			return nil, err
		}
		g.logger.Debug("typeswag.validate.ok")
	}
	return doc, nil
}

// Generate runs the whole pipeline: extract, assemble, validate and write.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Result, error) {
	if g.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	md := opts.Metadata
	if md == nil {
		if err := g.cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		var err error
		if md, err = g.Metadata(ctx); err != nil {
			return nil, err
		}
	}
	doc, err := g.Spec(ctx, md)
	if err != nil {
		return nil, err
	}
	res := &Result{Spec: doc, Metadata: md}
	if opts.DryRun {
		return res, nil
	}

	out := g.cfg.Swagger.Output
	targets := []string{emit.TargetJSON}
	if out.YAML {
		targets = []string{emit.TargetYAML}
	}
	if out.Go {
		targets = append(targets, emit.TargetGo)
	}
	res.Files, err = emit.Dispatch(ctx, doc, emit.Options{
		OutDir:   filepath.Clean(out.Path),
		Filename: out.Filename,
		Targets:  targets,
		Package:  out.Package,
		Check:    opts.Check,
		Logger:   g.logger,
	})
	if err != nil {
		return nil, err
	}
	g.logger.Info("typeswag.generate.complete", "files", len(res.Files), "paths", len(doc.Paths.Paths), "definitions", len(doc.Definitions))
	return res, nil
}

// Generate is shorthand for New(cfg).Generate(ctx, opts).
func Generate(ctx context.Context, cfg *Config, opts Options) (*Result, error) {
	return New(cfg).Generate(ctx, opts)
}
