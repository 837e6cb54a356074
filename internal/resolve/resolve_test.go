package resolve

import (
	"errors"
	"go/parser"
	"reflect"
	"testing"

	"github.com/adrianplavka/typeswag/internal/decl"
	"github.com/adrianplavka/typeswag/internal/ir"
	"github.com/adrianplavka/typeswag/internal/markers"
)

type testHost struct {
	set    *decl.Set
	refs   *ir.ReferenceTypeMap
	finish []func(*ir.ReferenceTypeMap)
}

func (h *testHost) Declarations() *decl.Set                     { return h.set }
func (h *testHost) AddReferenceType(t *ir.ReferenceType)        { h.refs.Add(t) }
func (h *testHost) GetReferenceType(n string) *ir.ReferenceType { return h.refs.Get(n) }
func (h *testHost) OnFinish(fn func(*ir.ReferenceTypeMap))      { h.finish = append(h.finish, fn) }

func (h *testHost) done() {
	for _, fn := range h.finish {
		fn(h.refs)
	}
}

type fixture struct {
	r    *Resolver
	host *testHost
	set  *decl.Set
}

func newFixture(t *testing.T, files map[string]string) *fixture {
	t.Helper()
	set, err := decl.FromSource("example.com/app", files, nil)
	if err != nil {
		t.Fatalf("FromSource: %v", err)
	}
	host := &testHost{set: set, refs: ir.NewReferenceTypeMap()}
	return &fixture{r: New(host), host: host, set: set}
}

func single(t *testing.T, src string) *fixture {
	t.Helper()
	return newFixture(t, map[string]string{"api/models.go": src})
}

// scope returns the scope of the first file of the package at path.
func (f *fixture) scope(t *testing.T, path string) *Scope {
	t.Helper()
	pkg := f.set.Package("example.com/app/" + path)
	if pkg == nil {
		t.Fatalf("package %s not loaded", path)
	}
	return FileScope(pkg.Files[0])
}

func (f *fixture) resolve(t *testing.T, expr string, hints ...markers.Hint) (ir.Type, error) {
	t.Helper()
	e, err := parser.ParseExpr(expr)
	if err != nil {
		t.Fatalf("ParseExpr(%q): %v", expr, err)
	}
	return f.r.Resolve(e, f.scope(t, "api"), hints)
}

func (f *fixture) mustResolve(t *testing.T, expr string, hints ...markers.Hint) ir.Type {
	t.Helper()
	typ, err := f.resolve(t, expr, hints...)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", expr, err)
	}
	return typ
}

func mustRef(t *testing.T, typ ir.Type) *ir.ReferenceType {
	t.Helper()
	ref, ok := typ.(*ir.ReferenceType)
	if !ok {
		t.Fatalf("got %T, want *ir.ReferenceType", typ)
	}
	return ref
}

func findProperty(t *testing.T, ref *ir.ReferenceType, name string) *ir.Property {
	t.Helper()
	for _, p := range ref.Properties {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("property %q not found in %s", name, ref.RefName)
	return nil
}

func kindOf(typ ir.Type) ir.PrimitiveKind {
	if p, ok := typ.(*ir.PrimitiveType); ok {
		return p.Kind
	}
	return ""
}

func TestPrimitives(t *testing.T) {
	f := single(t, "package api\n\nimport \"time\"\n\nvar _ time.Time\n\ntype Item struct{}\n")
	cases := []struct {
		expr  string
		hints []markers.Hint
		want  ir.PrimitiveKind
	}{
		{"string", nil, ir.KindString},
		{"bool", nil, ir.KindBoolean},
		{"int", nil, ir.KindInteger},
		{"uint16", nil, ir.KindInteger},
		{"int64", nil, ir.KindLong},
		{"float32", nil, ir.KindFloat},
		{"float64", nil, ir.KindDouble},
		{"float64", []markers.Hint{{Name: markers.HintIsInt}}, ir.KindInteger},
		{"int", []markers.Hint{{Name: markers.HintIsLong}}, ir.KindLong},
		{"string", []markers.Hint{{Name: markers.HintIsInt}}, ir.KindString},
		{"time.Time", nil, ir.KindDateTime},
		{"time.Time", []markers.Hint{{Name: markers.HintIsDate}}, ir.KindDate},
		{"time.Duration", nil, ir.KindLong},
		{"[]byte", nil, ir.KindBuffer},
		{"*string", nil, ir.KindString},
		{"any", nil, ir.KindAny},
		{"interface{}", nil, ir.KindAny},
		{"struct{ A int }", nil, ir.KindAny},
		{"map[string]int", nil, ir.KindObject},
		{"interface{ int | string }", nil, ir.KindObject},
		{"io.Reader", nil, ir.KindBinary},
		{"json.RawMessage", nil, ir.KindAny},
	}
	for _, c := range cases {
		t.Run(c.expr, func(t *testing.T) {
			got := f.mustResolve(t, c.expr, c.hints...)
			if kindOf(got) != c.want {
				t.Fatalf("got %#v, want %s", got, c.want)
			}
		})
	}
}

func TestArraysAndWrappers(t *testing.T) {
	f := single(t, "package api\n\ntype Item struct{ ID int }\n")
	for _, expr := range []string{"[]Item", "[3]Item", "Array[Item]", "Slice[Item]"} {
		arr, ok := f.mustResolve(t, expr).(*ir.ArrayType)
		if !ok {
			t.Fatalf("%s: not an array", expr)
		}
		if mustRef(t, arr.Element).RefName != "api.Item" {
			t.Fatalf("%s: element = %#v", expr, arr.Element)
		}
	}
	for _, expr := range []string{"<-chan Item", "chan Item", "Future[Item]", "Promise[*Item]"} {
		if mustRef(t, f.mustResolve(t, expr)).RefName != "api.Item" {
			t.Fatalf("%s was not unwrapped", expr)
		}
	}
}

func TestUnsupported(t *testing.T) {
	f := single(t, "package api\n\ntype Loop []Loop\n")
	for _, expr := range []string{"func()", "complex128", "error", "Loop"} {
		if _, err := f.resolve(t, expr); !errors.Is(err, ir.ErrUnsupportedType) {
			t.Errorf("%s: err = %v, want ErrUnsupportedType", expr, err)
		}
	}
}

func TestObjectEndToEnd(t *testing.T) {
	f := single(t, `package api

// Item is sold.
// @example {"id": 1, "name": "x"}
type Item struct {
	ID   float64 `+"`json:\"id\"`"+`
	Name string  `+"`json:\"name\"`"+`
}
`)
	ref := mustRef(t, f.mustResolve(t, "Item"))
	if ref.RefName != "api.Item" || ref.Kind != ir.RefObject {
		t.Fatalf("ref = %+v", ref)
	}
	if ref.Description != "Item is sold." {
		t.Fatalf("description = %q", ref.Description)
	}
	if !reflect.DeepEqual(ref.Example, map[string]any{"id": 1, "name": "x"}) {
		t.Fatalf("example = %#v", ref.Example)
	}
	id := findProperty(t, ref, "id")
	if kindOf(id.Type) != ir.KindDouble || !id.Required {
		t.Fatalf("id = %+v", id)
	}
	name := findProperty(t, ref, "name")
	if kindOf(name.Type) != ir.KindString || !name.Required {
		t.Fatalf("name = %+v", name)
	}
	if f.host.refs.Len() != 1 {
		t.Fatalf("reference types = %v", f.host.refs.Names())
	}
}

func TestPropertyOptions(t *testing.T) {
	f := single(t, `package api

type Item struct {
	// Count of things.
	// @minimum 1
	// @maximum 10
	Count  int     `+"`json:\"count\"`"+`
	Note   *string `+"`json:\"note\"`"+`
	Label  string  `+"`json:\"label,omitempty\"`"+`
	Size   int     `+"`json:\"size\" default:\"3\"`"+`
	When   string  `+"`json:\"when\" format:\"date\"`"+`
	Secret string  `+"`json:\"-\"`"+`
	// @ignore
	Hidden string
	Dash   string `+"`json:\"-,\"`"+`
	inner  string
	// @pattern ^[a-z]+$
	Code string
}
`)
	ref := mustRef(t, f.mustResolve(t, "Item"))
	var names []string
	for _, p := range ref.Properties {
		names = append(names, p.Name)
	}
	if want := []string{"count", "note", "label", "size", "when", "-", "Code"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("properties = %v, want %v", names, want)
	}

	count := findProperty(t, ref, "count")
	if !count.Required || count.Description != "Count of things." {
		t.Fatalf("count = %+v", count)
	}
	if count.Validators["minimum"] != 1 || count.Validators["maximum"] != 10 {
		t.Fatalf("validators = %v", count.Validators)
	}
	if findProperty(t, ref, "note").Required {
		t.Errorf("pointer field must be optional")
	}
	if findProperty(t, ref, "label").Required {
		t.Errorf("omitempty field must be optional")
	}
	size := findProperty(t, ref, "size")
	if size.Required || size.Default != 3 {
		t.Errorf("size = %+v", size)
	}
	if findProperty(t, ref, "when").Format != "date" {
		t.Errorf("format tag ignored")
	}
	if findProperty(t, ref, "Code").Validators["pattern"] != "^[a-z]+$" {
		t.Errorf("pattern = %v", findProperty(t, ref, "Code").Validators)
	}
}

func TestCycle(t *testing.T) {
	f := single(t, `package api

type Node struct {
	Value    string
	Next     *Node
	Children []Node
}
`)
	top := mustRef(t, f.mustResolve(t, "Node"))
	next := mustRef(t, findProperty(t, top, "Next").Type)
	if next.RefName != "api.Node" {
		t.Fatalf("placeholder name = %q", next.RefName)
	}
	if len(next.Properties) != 0 {
		t.Fatalf("placeholder filled before finish")
	}
	f.host.done()
	if !reflect.DeepEqual(next.Properties, top.Properties) || next.Kind != top.Kind {
		t.Fatalf("placeholder = %+v, want %+v", next, top)
	}
	children := findProperty(t, top, "Children").Type.(*ir.ArrayType)
	if mustRef(t, children.Element).Kind != ir.RefObject {
		t.Fatalf("array element placeholder was not patched")
	}
	if f.host.refs.Len() != 1 {
		t.Fatalf("reference types = %v", f.host.refs.Names())
	}
	if again := f.mustResolve(t, "Node"); again != top {
		t.Fatalf("cache miss on second resolve")
	}
}

func TestGenericIdentity(t *testing.T) {
	f := single(t, `package api

type Box[T any] struct {
	Value T `+"`json:\"value\"`"+`
}

type Pair[K any, V any] struct {
	Key   K
	Value Box[V]
}
`)
	a := f.mustResolve(t, "Box[string]")
	b := f.mustResolve(t, "Box[string]")
	if a != b {
		t.Fatalf("Box[string] resolved to two pointers")
	}
	c := mustRef(t, f.mustResolve(t, "Box[float64]"))
	if c == a {
		t.Fatalf("Box[float64] shares Box[string]'s pointer")
	}
	if mustRef(t, a).RefName != "api.Box-string" || c.RefName != "api.Box-double" {
		t.Fatalf("names = %s, %s", mustRef(t, a).RefName, c.RefName)
	}
	if kindOf(findProperty(t, c, "value").Type) != ir.KindDouble {
		t.Fatalf("type parameter was not substituted")
	}

	pair := mustRef(t, f.mustResolve(t, "Pair[int, []string]"))
	if pair.RefName != "api.Pair-integer-stringArray" {
		t.Fatalf("pair name = %s", pair.RefName)
	}
	inner := mustRef(t, findProperty(t, pair, "Value").Type)
	if inner.RefName != "api.Box-stringArray" {
		t.Fatalf("nested generic = %s", inner.RefName)
	}

	if _, err := f.resolve(t, "Box"); !errors.Is(err, ir.ErrUnsupportedType) {
		t.Fatalf("missing type arguments: err = %v", err)
	}
}

func TestLiteralUnions(t *testing.T) {
	f := single(t, `package api

type Good struct {
	Status string `+"`enum:\"a,b\"`"+`
	Code   int    `+"`enum:\"1,2\"`"+`
	Only   string `+"`enum:\"only\"`"+`
	Many   []string `+"`enum:\"x,y\"`"+`
}

type Bad struct {
	Mixed string `+"`enum:\"a,1\"`"+`
}
`)
	good := mustRef(t, f.mustResolve(t, "Good"))
	status := findProperty(t, good, "Status").Type.(*ir.EnumType)
	if status.ValueType != "string" || !reflect.DeepEqual(status.Values, []any{"a", "b"}) {
		t.Fatalf("status = %+v", status)
	}
	code := findProperty(t, good, "Code").Type.(*ir.EnumType)
	if code.ValueType != "number" || !reflect.DeepEqual(code.Values, []any{int64(1), int64(2)}) {
		t.Fatalf("code = %+v", code)
	}
	only := findProperty(t, good, "Only").Type.(*ir.EnumType)
	if len(only.Values) != 1 {
		t.Fatalf("singleton = %+v", only)
	}
	many := findProperty(t, good, "Many").Type.(*ir.ArrayType)
	if _, ok := many.Element.(*ir.EnumType); !ok {
		t.Fatalf("array of enum = %#v", many.Element)
	}

	if _, err := f.resolve(t, "Bad"); !errors.Is(err, ir.ErrUnionHeterogeneity) {
		t.Fatalf("err = %v, want ErrUnionHeterogeneity", err)
	}
}

func TestPartial(t *testing.T) {
	f := single(t, `package api

type User struct {
	A string
	B int
}
`)
	p := mustRef(t, f.mustResolve(t, "Partial[User]"))
	if p.RefName != "api.PartialUser" {
		t.Fatalf("name = %s", p.RefName)
	}
	for _, prop := range p.Properties {
		if prop.Required {
			t.Fatalf("%s still required", prop.Name)
		}
	}
	orig := mustRef(t, f.mustResolve(t, "User"))
	for _, prop := range orig.Properties {
		if !prop.Required {
			t.Fatalf("original %s lost required", prop.Name)
		}
	}
	if again := f.mustResolve(t, "Partial[User]"); again != p {
		t.Fatalf("Partial[User] was not cached")
	}
	if f.host.refs.Get("api.PartialUser") == nil {
		t.Fatalf("partial type not registered")
	}
}

func TestPartialOfTypeInProgress(t *testing.T) {
	f := single(t, `package api

type Node struct {
	Name string
	Kids []Partial[Node]
}
`)
	node := mustRef(t, f.mustResolve(t, "Node"))
	kids := findProperty(t, node, "Kids").Type.(*ir.ArrayType)
	p := mustRef(t, kids.Element)
	if p.RefName != "api.PartialNode" {
		t.Fatalf("name = %s", p.RefName)
	}
	f.host.done()
	if len(p.Properties) != len(node.Properties) {
		t.Fatalf("partial has %d properties, Node has %d", len(p.Properties), len(node.Properties))
	}
	for _, prop := range p.Properties {
		if prop.Required {
			t.Fatalf("%s still required", prop.Name)
		}
	}
	if !findProperty(t, node, "Name").Required {
		t.Fatal("Node.Name lost required")
	}
	if f.host.refs.Get("api.PartialNode") != p {
		t.Fatal("partial type not registered")
	}
}

func TestEnums(t *testing.T) {
	f := single(t, `package api

// Color of a thing.
type Color string

const (
	Red   Color = "red"
	Green Color = "green"
)

type Level int

const (
	Low Level = iota
	Mid
	High
)
`)
	color := mustRef(t, f.mustResolve(t, "Color"))
	if color.Kind != ir.RefEnum || color.ValueType != "string" || !reflect.DeepEqual(color.EnumValues, []any{"red", "green"}) {
		t.Fatalf("color = %+v", color)
	}
	if color.Description != "Color of a thing." {
		t.Fatalf("description = %q", color.Description)
	}
	level := mustRef(t, f.mustResolve(t, "Level"))
	if level.ValueType != "number" || !reflect.DeepEqual(level.EnumValues, []any{int64(0), int64(1), int64(2)}) {
		t.Fatalf("level = %+v", level)
	}
}

func TestInheritance(t *testing.T) {
	f := single(t, `package api

type Base struct {
	ID   string `+"`json:\"id\"`"+`
	Name string `+"`json:\"name\"`"+`
}

type Child struct {
	Base
	Name  string `+"`json:\"name,omitempty\"`"+`
	Extra int    `+"`json:\"extra\"`"+`
}

type A struct{ X int }
type B struct{ Y int }
type AB interface {
	A
	B
}
`)
	child := mustRef(t, f.mustResolve(t, "Child"))
	var names []string
	for _, p := range child.Properties {
		names = append(names, p.Name)
	}
	if want := []string{"id", "name", "extra"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("properties = %v, want %v", names, want)
	}
	if findProperty(t, child, "name").Required {
		t.Fatalf("own field must shadow the promoted one")
	}
	if f.host.refs.Get("api.Base") != nil {
		t.Fatalf("supertype reached only through embedding was emitted")
	}

	ab := mustRef(t, f.mustResolve(t, "AB"))
	if len(ab.Properties) != 2 || ab.Properties[0].Name != "X" || ab.Properties[1].Name != "Y" {
		t.Fatalf("composition = %+v", ab.Properties)
	}
}

func TestMapDeclarations(t *testing.T) {
	f := single(t, `package api

type Labels map[string]int
type ByID map[int]string
`)
	labels := mustRef(t, f.mustResolve(t, "Labels"))
	if kindOf(labels.AdditionalProperties) != ir.KindInteger {
		t.Fatalf("additionalProperties = %#v", labels.AdditionalProperties)
	}
	if _, err := f.resolve(t, "ByID"); !errors.Is(err, ir.ErrIndexKey) {
		t.Fatalf("err = %v, want ErrIndexKey", err)
	}
}

func TestScopes(t *testing.T) {
	f := newFixture(t, map[string]string{
		"api/api.go": `package api

import m "example.com/app/models"

var _ m.Item
`,
		"models/item.go": `package models

type Item struct{ ID int }
`,
	})
	ref := mustRef(t, f.mustResolve(t, "m.Item"))
	if ref.RefName != "models.Item" {
		t.Fatalf("name = %s", ref.RefName)
	}
	// falls back to the package clause name
	if got := f.mustResolve(t, "models.Item"); got != ref {
		t.Fatalf("package name lookup returned a different pointer")
	}
	if _, err := f.resolve(t, "nowhere.Item"); !errors.Is(err, ir.ErrScopeResolution) {
		t.Fatalf("err = %v, want ErrScopeResolution", err)
	}
	if _, err := f.resolve(t, "Missing"); !errors.Is(err, ir.ErrMissingType) {
		t.Fatalf("err = %v, want ErrMissingType", err)
	}
}

func TestAmbiguousModels(t *testing.T) {
	t.Run("duplicate", func(t *testing.T) {
		f := newFixture(t, map[string]string{
			"api/a.go": "package api\n\ntype Item struct{ A int }\n",
			"api/b.go": "package api\n\ntype Item struct{ B int }\n",
		})
		if _, err := f.resolve(t, "Item"); !errors.Is(err, ir.ErrAmbiguous) {
			t.Fatalf("err = %v, want ErrAmbiguous", err)
		}
	})
	t.Run("model hint", func(t *testing.T) {
		f := newFixture(t, map[string]string{
			"api/a.go": "package api\n\ntype Item struct{ A int }\n",
			"api/b.go": "package api\n\n// @typeswagModel\ntype Item struct{ B int }\n",
		})
		ref := mustRef(t, f.mustResolve(t, "Item"))
		findProperty(t, ref, "B")
	})
	t.Run("generated loses", func(t *testing.T) {
		f := newFixture(t, map[string]string{
			"api/a.go":     "package api\n\ntype Item struct{ A int }\n",
			"api/a_gen.go": "// Code generated by gen. DO NOT EDIT.\n\npackage api\n\ntype Item struct{ G int }\n",
		})
		ref := mustRef(t, f.mustResolve(t, "Item"))
		findProperty(t, ref, "A")
	})
}

func TestTransparentDeclarations(t *testing.T) {
	f := single(t, `package api

type IDs []string
type Name = string
type Count int64

// @isInt
type Small int64
`)
	if arr, ok := f.mustResolve(t, "IDs").(*ir.ArrayType); !ok || kindOf(arr.Element) != ir.KindString {
		t.Fatalf("IDs did not resolve to its underlying slice")
	}
	if kindOf(f.mustResolve(t, "Name")) != ir.KindString {
		t.Fatalf("alias was not resolved through")
	}
	if kindOf(f.mustResolve(t, "Count")) != ir.KindLong {
		t.Fatalf("named basic type without constants must be transparent")
	}
	if kindOf(f.mustResolve(t, "Small")) != ir.KindInteger {
		t.Fatalf("declaration hints were not applied")
	}
	if f.host.refs.Len() != 0 {
		t.Fatalf("transparent declarations were emitted: %v", f.host.refs.Names())
	}
}

func TestTypeName(t *testing.T) {
	cases := []struct {
		typ  ir.Type
		want string
	}{
		{ir.Primitive(ir.KindString), "string"},
		{&ir.ArrayType{Element: ir.Primitive(ir.KindDouble)}, "doubleArray"},
		{&ir.ReferenceType{RefName: "api.Item"}, "api.Item"},
		{&ir.EnumType{}, "object"},
	}
	for _, c := range cases {
		if got := TypeName(c.typ); got != c.want {
			t.Errorf("TypeName = %q, want %q", got, c.want)
		}
	}
}
