package gosrc

import (
	"sort"
	"strconv"
	"strings"

	"github.com/go-openapi/spec"
)

type TemplateData struct {
	Package    string
	Title      string
	Version    string
	Operations []Operation
	JSON       string
}

type Operation struct {
	Ident  string
	ID     string
	Method string
	Path   string
}

// BuildData collects the template data for doc. Operations are ordered by
// path, then method.
func BuildData(doc *spec.Swagger, raw []byte, pkg string) *TemplateData {
	data := &TemplateData{Package: pkg, JSON: string(raw)}
	if doc.Info != nil {
		data.Title = doc.Info.Title
		data.Version = doc.Info.Version
	}
	if doc.Paths == nil {
		return data
	}

	paths := make([]string, 0, len(doc.Paths.Paths))
	for p := range doc.Paths.Paths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	used := map[string]bool{}
	for _, p := range paths {
		item := doc.Paths.Paths[p]
		for _, m := range methods(item) {
			if m.op == nil || m.op.ID == "" {
				continue
			}
			data.Operations = append(data.Operations, Operation{
				Ident:  uniqueIdent(GoPublicIdent(m.op.ID), used),
				ID:     m.op.ID,
				Method: strings.ToUpper(m.name),
				Path:   p,
			})
		}
	}
	return data
}

type method struct {
	name string
	op   *spec.Operation
}

func methods(item spec.PathItem) []method {
	return []method{
		{"get", item.Get},
		{"put", item.Put},
		{"post", item.Post},
		{"delete", item.Delete},
		{"options", item.Options},
		{"head", item.Head},
		{"patch", item.Patch},
	}
}

func uniqueIdent(ident string, used map[string]bool) string {
	if ident == "" {
		ident = "Operation"
	}
	out := ident
	for i := 2; used[out]; i++ {
		out = ident + strconv.Itoa(i)
	}
	used[out] = true
	return out
}

// GoPublicIdent converts s into an exported Go identifier by splitting on
// non-alphanumerics and upper-casing each part. It returns "" when no letter
// can lead the result.
func GoPublicIdent(s string) string {
	var out strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		out.WriteString(strings.ToUpper(part[:1]))
		out.WriteString(part[1:])
	}
	res := out.String()
	if res == "" || (res[0] >= '0' && res[0] <= '9') {
		return ""
	}
	return res
}
