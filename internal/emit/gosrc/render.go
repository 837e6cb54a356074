// Package gosrc renders a Go source file that embeds a Swagger document.
package gosrc

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"go/token"
	"strings"
	"text/template"

	"github.com/go-openapi/spec"
)

//go:embed templates/*.go.tpl
var tplFS embed.FS

const tplPath = "templates/docs.go.tpl"

// Render executes the docs template for doc, whose JSON form is raw, and
// returns gofmt-formatted source.
func Render(doc *spec.Swagger, raw []byte, pkg string) ([]byte, error) {
	if pkg == "" {
		pkg = "docs"
	}
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid package name %q", pkg)
	}
	tplText, err := tplFS.ReadFile(tplPath)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", tplPath, err)
	}
	tpl, err := template.New("docs.go.tpl").Funcs(funcMap()).Parse(string(tplText))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", tplPath, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, BuildData(doc, raw, pkg)); err != nil {
		return nil, fmt.Errorf("exec template %s: %w", tplPath, err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", tplPath, err)
	}
	return src, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"rawString": rawString,
	}
}

// rawString quotes s as a Go raw string literal, splicing in any backquotes.
func rawString(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "` + \"`\" + `") + "`"
}
