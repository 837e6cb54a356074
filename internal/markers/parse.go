package markers

import (
	"fmt"
	"go/ast"
	"go/parser"
	"strings"
	"unicode"

	"github.com/adrianplavka/typeswag/internal/ir"
	"pkt.systems/pslog"
)

// Parser turns doc comments into Annotations.
type Parser struct {
	registry *Registry
	logger   pslog.Logger
}

func NewParser(registry *Registry, logger pslog.Logger) *Parser {
	if registry == nil {
		registry = NewRegistry()
	}
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	return &Parser{registry: registry, logger: logger}
}

func (p *Parser) Registry() *Registry { return p.registry }

// Parse reads a comment group. A nil group yields empty annotations.
func (p *Parser) Parse(doc *ast.CommentGroup) (*Annotations, error) {
	if doc == nil {
		return &Annotations{}, nil
	}
	return p.ParseText(doc.Text())
}

// ParseText reads comment text with the comment markers already stripped.
func (p *Parser) ParseText(text string) (*Annotations, error) {
	out := &Annotations{}
	var desc []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "Deprecated:") {
			out.Deprecated = true
		}
		if !strings.HasPrefix(line, "@") {
			desc = append(desc, strings.TrimRightFunc(raw, unicode.IsSpace))
			continue
		}
		body := line[1:]
		name := leadingIdent(body)
		if name == "" {
			p.logger.Debug("markers.line.dropped", "line", line)
			continue
		}
		rest := body[len(name):]

		if _, ok := p.registry.Lookup(name); ok {
			m, err := parseMarker(Route, name, body)
			if err != nil {
				return nil, err
			}
			out.Markers = append(out.Markers, m)
			continue
		}
		if kind, ok := builtinKinds[name]; ok {
			m, err := parseMarker(kind, name, body)
			if err != nil {
				return nil, err
			}
			out.Markers = append(out.Markers, m)
			continue
		}
		if IsHint(name) && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
			out.Hints = append(out.Hints, Hint{Name: name, Text: strings.TrimSpace(rest)})
			continue
		}
		p.logger.Debug("markers.annotation.unknown", "name", name)
	}
	out.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return out, nil
}

func leadingIdent(s string) string {
	for i, r := range s {
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
			return s[:i]
		}
	}
	return s
}

// parseMarker parses "Name", "Name(args)" or "Name[T](args)" as a Go expression.
func parseMarker(kind Kind, name, text string) (Marker, error) {
	m := Marker{Kind: kind, Name: name, Text: text}
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return m, fmt.Errorf("@%s: %w: %v", name, ir.ErrInvalidMarker, err)
	}
	fun := expr
	if call, ok := expr.(*ast.CallExpr); ok {
		if call.Ellipsis.IsValid() {
			return m, fmt.Errorf("@%s: %w: variadic arguments", name, ir.ErrInvalidMarker)
		}
		m.Args = call.Args
		fun = call.Fun
	}
	switch f := fun.(type) {
	case *ast.Ident:
	case *ast.IndexExpr:
		m.TypeArgs = []ast.Expr{f.Index}
		fun = f.X
	case *ast.IndexListExpr:
		m.TypeArgs = f.Indices
		fun = f.X
	default:
		return m, fmt.Errorf("@%s: %w: unexpected %T", name, ir.ErrInvalidMarker, fun)
	}
	if id, ok := fun.(*ast.Ident); !ok || id.Name != name {
		return m, fmt.Errorf("@%s: %w: malformed marker", name, ir.ErrInvalidMarker)
	}
	return m, nil
}
