package metadata

import (
	"errors"
	"reflect"
	"testing"

	"github.com/adrianplavka/typeswag/internal/decl"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
)

const modelsSrc = `package api

// Item is a stored item.
type Item struct {
	ID   float64 ` + "`json:\"id\"`" + `
	Name string  ` + "`json:\"name\"`" + `
}

type Error struct {
	Message string ` + "`json:\"message\"`" + `
}

type Node struct {
	Children []Node ` + "`json:\"children\"`" + `
}
`

const itemsSrc = `package api

import "context"

// @Route("tenants/{tenant}/items")
// @Tags("items")
// @Security("api_key")
type ItemsController struct{}

// List returns every item.
// @Get("")
// @summary List items
// @isInt limit
// @default limit 10
// @param limit page size
// @Query(limit)
// @Response[Error]("404", "Not Found", "{\"message\": \"missing\"}")
func (c *ItemsController) List(ctx context.Context, limit *int) ([]Item, error) {
	return nil, nil
}

// @Post("")
// @Tags("items", "write")
// @Security("oauth", "write:items")
// @SuccessResponse("201", "Created")
// @Body(item)
// @Header(trace, "X-Trace")
// @example {"id": 1, "name": "a"}
func (c *ItemsController) Create(item Item, trace string) (Item, error) {
	return item, nil
}

// Deprecated: use Create.
// @Put("{id}")
// @operationId ReplaceItem
// @Path(id)
func (c *ItemsController) Replace(id string) error {
	return nil
}

// @Get("tree")
func (c *ItemsController) Tree() (Node, error) {
	return Node{}, nil
}

func (c *ItemsController) helper() {}

// NotAController has no route marker.
type NotAController struct{}

// @Get("x")
func (NotAController) X() error { return nil }
`

func generate(t *testing.T, files map[string]string, opts ...Option) (*ir.Metadata, error) {
	t.Helper()
	set, err := decl.FromSource("example.com/app", files, nil)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	return New(set, opts...).Generate()
}

func mustGenerate(t *testing.T, files map[string]string, opts ...Option) *ir.Metadata {
	t.Helper()
	md, err := generate(t, files, opts...)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return md
}

func findOperation(t *testing.T, ctrl ir.Controller, name string) ir.Operation {
	t.Helper()
	for _, op := range ctrl.Operations {
		if op.Name == name {
			return op
		}
	}
	t.Fatalf("operation %s not found", name)
	return ir.Operation{}
}

func TestGenerateControllers(t *testing.T) {
	md := mustGenerate(t, map[string]string{
		"api/models.go": modelsSrc,
		"api/items.go":  itemsSrc,
	})
	if len(md.Controllers) != 1 {
		t.Fatalf("controllers = %d, want 1", len(md.Controllers))
	}
	ctrl := md.Controllers[0]
	if ctrl.Name != "ItemsController" || ctrl.Path != "tenants/{tenant}/items" {
		t.Fatalf("controller = %s %q", ctrl.Name, ctrl.Path)
	}
	if ctrl.Location != "api/items.go" {
		t.Fatalf("location = %q", ctrl.Location)
	}
	if len(ctrl.Operations) != 4 {
		t.Fatalf("operations = %d, want 4", len(ctrl.Operations))
	}

	list := findOperation(t, ctrl, "List")
	if list.Verb != ir.VerbGet || list.Path != "" || list.Summary != "List items" {
		t.Fatalf("list = %+v", list)
	}
	if list.Description != "List returns every item." {
		t.Fatalf("description = %q", list.Description)
	}
	if len(list.Parameters) != 1 {
		t.Fatalf("list params = %+v", list.Parameters)
	}
	limit := list.Parameters[0]
	if limit.Name != "limit" || limit.Role != ir.RoleQuery || limit.Required || limit.Description != "page size" {
		t.Fatalf("limit = %+v", limit)
	}
	if limit.Default != 10 {
		t.Fatalf("limit default = %#v", limit.Default)
	}
	if p, ok := limit.Type.(*ir.PrimitiveType); !ok || p.Kind != ir.KindInteger {
		t.Fatalf("limit type = %#v", limit.Type)
	}
	if len(list.Responses) != 2 {
		t.Fatalf("list responses = %+v", list.Responses)
	}
	ok := list.Responses[0]
	if ok.Name != "200" || ok.Description != "Ok" {
		t.Fatalf("success = %+v", ok)
	}
	arr, isArr := ok.Schema.(*ir.ArrayType)
	if !isArr {
		t.Fatalf("success schema = %#v", ok.Schema)
	}
	if ref, _ := arr.Element.(*ir.ReferenceType); ref == nil || ref.RefName != "api.Item" {
		t.Fatalf("element = %#v", arr.Element)
	}
	notFound := list.Responses[1]
	if notFound.Name != "404" || notFound.Description != "Not Found" {
		t.Fatalf("404 = %+v", notFound)
	}
	if !reflect.DeepEqual(notFound.Examples, map[string]any{"message": "missing"}) {
		t.Fatalf("404 examples = %#v", notFound.Examples)
	}
	if !reflect.DeepEqual(list.Tags, []string{"items"}) {
		t.Fatalf("list tags = %v", list.Tags)
	}
	if !reflect.DeepEqual(list.Security, []ir.Security{{"api_key": {}}}) {
		t.Fatalf("list security = %v", list.Security)
	}

	create := findOperation(t, ctrl, "Create")
	if create.Verb != ir.VerbPost {
		t.Fatalf("create verb = %s", create.Verb)
	}
	if !reflect.DeepEqual(create.Tags, []string{"items", "write"}) {
		t.Fatalf("create tags = %v", create.Tags)
	}
	if !reflect.DeepEqual(create.Security, []ir.Security{{"oauth": {"write:items"}}}) {
		t.Fatalf("create security = %v", create.Security)
	}
	if got := create.Responses[0]; got.Name != "201" || got.Description != "Created" {
		t.Fatalf("create success = %+v", got)
	}
	if !reflect.DeepEqual(create.Responses[0].Examples, map[string]any{"id": 1, "name": "a"}) {
		t.Fatalf("create example = %#v", create.Responses[0].Examples)
	}
	if len(create.Parameters) != 2 {
		t.Fatalf("create params = %+v", create.Parameters)
	}
	if body := create.Parameters[0]; body.Role != ir.RoleBody || !body.Required {
		t.Fatalf("body = %+v", body)
	}
	if trace := create.Parameters[1]; trace.Name != "X-Trace" || trace.ParamName != "trace" || trace.Role != ir.RoleHeader {
		t.Fatalf("trace = %+v", trace)
	}

	replace := findOperation(t, ctrl, "Replace")
	if !replace.Deprecated || replace.OperationID != "ReplaceItem" {
		t.Fatalf("replace = %+v", replace)
	}
	if got := replace.Responses[0]; got.Name != "204" || got.Schema != nil {
		t.Fatalf("replace success = %+v", got)
	}
	if id := replace.Parameters[0]; id.Role != ir.RolePath || !id.Required {
		t.Fatalf("id = %+v", id)
	}

	for _, name := range []string{"api.Item", "api.Error", "api.Node"} {
		if md.ReferenceTypes.Get(name) == nil {
			t.Fatalf("reference type %s missing; have %v", name, md.ReferenceTypes.Names())
		}
	}
}

func TestGenerateFixesCycles(t *testing.T) {
	md := mustGenerate(t, map[string]string{
		"api/models.go": modelsSrc,
		"api/items.go":  itemsSrc,
	})
	node := md.ReferenceTypes.Get("api.Node")
	if node == nil || len(node.Properties) != 1 {
		t.Fatalf("node = %+v", node)
	}
	children, ok := node.Properties[0].Type.(*ir.ArrayType)
	if !ok {
		t.Fatalf("children = %#v", node.Properties[0].Type)
	}
	inner, ok := children.Element.(*ir.ReferenceType)
	if !ok || inner.RefName != "api.Node" || len(inner.Properties) != 1 {
		t.Fatalf("inner node = %+v", children.Element)
	}
}

func TestHiddenController(t *testing.T) {
	md := mustGenerate(t, map[string]string{"api/c.go": `package api

// @Route("secret")
// @Hidden
type SecretController struct{}

// @Get("")
func (SecretController) Get() error { return nil }
`})
	if len(md.Controllers) != 1 || !md.Controllers[0].Operations[0].Hidden {
		t.Fatalf("controllers = %+v", md.Controllers)
	}
}

func TestCustomRouteMarker(t *testing.T) {
	reg := markers.NewRegistry()
	reg.Register("VersionedRoute", func(p string) string { return "v1/" + p })
	md := mustGenerate(t, map[string]string{"api/c.go": `package api

// @VersionedRoute("users")
type UsersController struct{}

// @Get("")
func (UsersController) List() error { return nil }
`}, WithRouteMarkers(reg))
	if len(md.Controllers) != 1 || md.Controllers[0].Path != "v1/users" {
		t.Fatalf("controllers = %+v", md.Controllers)
	}
}

func TestGenerateErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"two routes", `package api

// @Route("a")
// @Route("b")
type C struct{}
`, ir.ErrAmbiguous},
		{"two verbs", `package api

// @Route("a")
type C struct{}

// @Get("")
// @Post("")
func (C) M() error { return nil }
`, ir.ErrAmbiguous},
		{"unknown parameter", `package api

// @Route("a")
type C struct{}

// @Query(missing)
// @Get("")
func (C) M() error { return nil }
`, ir.ErrMissingType},
		{"two roles", `package api

// @Route("a")
type C struct{}

// @Query(x)
// @Header(x)
// @Get("")
func (C) M(x string) error { return nil }
`, ir.ErrAmbiguous},
		{"two results", `package api

// @Route("a")
type C struct{}

// @Get("")
func (C) M() (string, int, error) { return "", 0, nil }
`, ir.ErrUnsupportedType},
		{"response without code", `package api

// @Route("a")
type C struct{}

// @Get("")
// @Response("")
func (C) M() error { return nil }
`, ir.ErrInvalidMarker},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := generate(t, map[string]string{"api/c.go": tc.src})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestVariadicAndRequestParameters(t *testing.T) {
	md := mustGenerate(t, map[string]string{"api/c.go": `package api

import "net/http"

// @Route("a")
type C struct{}

// @Get("")
// @Request(req)
// @Query(rest)
func (C) M(req *http.Request, rest ...string) error { return nil }
`})
	params := md.Controllers[0].Operations[0].Parameters
	if len(params) != 1 || params[0].Role != ir.RoleRequest || params[0].Type != nil {
		t.Fatalf("params = %+v", params)
	}
}

func TestSecurityForms(t *testing.T) {
	cases := []struct {
		text string
		want []ir.Security
	}{
		{`@Security("api_key")`, []ir.Security{{"api_key": {}}}},
		{`@Security("oauth", []string{"a", "b"})`, []ir.Security{{"oauth": {"a", "b"}}}},
		{`@Security("oauth", "a", "b")`, []ir.Security{{"oauth": {"a", "b"}}}},
		{`@Security(map[string][]string{"k": {}, "o": {"x"}})`, []ir.Security{{"k": {}, "o": {"x"}}}},
		{"@Security(\"a\")\n@Security(\"b\")", []ir.Security{{"a": {}}, {"b": {}}}},
	}
	p := markers.NewParser(nil, nil)
	for _, tc := range cases {
		ann, err := p.ParseText(tc.text)
		if err != nil {
			t.Fatalf("ParseText(%q): %v", tc.text, err)
		}
		got, err := securityOf(ann)
		if err != nil {
			t.Fatalf("securityOf(%q): %v", tc.text, err)
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("securityOf(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestMergeTags(t *testing.T) {
	got := mergeTags([]string{"a", "b"}, []string{"b", "c", "a"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("mergeTags = %v", got)
	}
	if mergeTags(nil, nil) != nil {
		t.Fatal("mergeTags(nil, nil) should be nil")
	}
}
