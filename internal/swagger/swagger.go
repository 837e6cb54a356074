// Package swagger assembles a Swagger 2.0 document from extracted metadata.
package swagger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adrianplavka/typeswag/internal/config"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/go-openapi/spec"
	"pkt.systems/pslog"
)

const mimeJSON = "application/json"

type Assembler struct {
	cfg    config.Swagger
	logger pslog.Logger
}

type Option func(*Assembler)

func WithLogger(l pslog.Logger) Option {
	return func(a *Assembler) {
		if l != nil {
			a.logger = l
		}
	}
}

func New(cfg config.Swagger, opts ...Option) *Assembler {
	a := &Assembler{cfg: cfg, logger: pslog.NoopLogger()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble builds the document for md. Definitions are built in discovery
// order, but spec.Definitions is a map, so the encoded document lists them by
// name.
func (a *Assembler) Assemble(md *ir.Metadata) (*spec.Swagger, error) {
	if md == nil {
		return nil, fmt.Errorf("nil metadata")
	}
	doc := a.document()

	defs, err := a.definitions(md.ReferenceTypes)
	if err != nil {
		return nil, err
	}
	doc.Definitions = defs

	paths, err := a.paths(md.Controllers)
	if err != nil {
		return nil, err
	}
	doc.Paths = paths

	if len(a.cfg.Spec) > 0 {
		if doc, err = merge(doc, a.cfg.Spec, a.cfg.SpecMerging); err != nil {
			return nil, fmt.Errorf("merging spec fragment: %w", err)
		}
	}
	if len(a.cfg.Schemes) > 0 {
		doc.Schemes = append([]string(nil), a.cfg.Schemes...)
	}
	a.logger.Debug("swagger.assemble.complete", "paths", len(doc.Paths.Paths), "definitions", len(doc.Definitions))
	return doc, nil
}

func (a *Assembler) document() *spec.Swagger {
	doc := &spec.Swagger{}
	doc.Swagger = "2.0"
	doc.Info = &spec.Info{}
	doc.Info.Title = a.cfg.Name
	doc.Info.Version = a.cfg.Version
	doc.Info.Description = a.cfg.Description
	if a.cfg.License != "" {
		doc.Info.License = &spec.License{}
		doc.Info.License.Name = a.cfg.License
	}
	doc.Host = a.cfg.Host
	doc.BasePath = normalisePath(a.cfg.BasePath, "/", "", false)
	doc.Consumes = []string{mimeJSON}
	doc.Produces = []string{mimeJSON}

	doc.SecurityDefinitions = spec.SecurityDefinitions{}
	names := make([]string, 0, len(a.cfg.SecurityDefinitions))
	for name := range a.cfg.SecurityDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := a.cfg.SecurityDefinitions[name]
		scheme := &spec.SecurityScheme{}
		scheme.Type = def.Type
		scheme.Description = def.Description
		scheme.Name = def.Name
		scheme.In = def.In
		scheme.Flow = def.Flow
		scheme.AuthorizationURL = def.AuthorizationURL
		scheme.TokenURL = def.TokenURL
		scheme.Scopes = def.Scopes
		doc.SecurityDefinitions[name] = scheme
	}

	for _, t := range a.cfg.Tags {
		tag := spec.Tag{}
		tag.Name = t.Name
		tag.Description = t.Description
		doc.Tags = append(doc.Tags, tag)
	}
	return doc
}

// normalisePath trims slashes and whitespace from both ends of p and wraps
// what remains in prefix and suffix. With skipIfEmpty set, an empty or "/"
// path yields "".
func normalisePath(p, prefix, suffix string, skipIfEmpty bool) string {
	if skipIfEmpty && (p == "" || p == "/") {
		return ""
	}
	p = strings.TrimFunc(p, func(r rune) bool {
		return r == '/' || r == '\\' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return prefix + p + suffix
}
