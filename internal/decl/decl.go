// Package decl holds the flat, read-only set of top-level type declarations
// a generation pass works on.
package decl

import (
	"go/ast"
	"go/constant"
	"go/token"
	"sort"
	"strconv"
	"strings"
)

type Set struct {
	Fset     *token.FileSet
	packages map[string]*Package
	byName   map[string][]*Package
	decls    []*Declaration
}

type Package struct {
	Name  string
	Path  string
	Dir   string
	Files []*File

	decls  map[string][]*Declaration
	consts map[string][]*Const
}

type File struct {
	Path    string
	Package *Package
	Syntax  *ast.File
	// Imports maps the local name of each import to its path.
	Imports map[string]string
	// Generated is set for files carrying the standard "Code generated" header.
	Generated bool
}

type Declaration struct {
	Name    string
	Package *Package
	File    *File
	Spec    *ast.TypeSpec
	Doc     *ast.CommentGroup
	Methods []*ast.FuncDecl
	// Synthetic declarations come from generated files and lose to
	// hand-written ones of the same name.
	Synthetic bool
}

// Const is one member of a typed constant group.
type Const struct {
	Name     string
	TypeName string
	Value    constant.Value // nil when the initializer could not be evaluated
	Literal  bool           // initializer was written as a literal
	Ordinal  int
	Doc      *ast.CommentGroup
}

func (d *Declaration) Location() string {
	return d.File.Path + ":" + d.Name
}

func (d *Declaration) Position(fset *token.FileSet) token.Position {
	if fset == nil {
		return token.Position{Filename: d.File.Path}
	}
	return fset.Position(d.Spec.Pos())
}

// Declarations returns every declaration in package path order, then source order.
func (s *Set) Declarations() []*Declaration {
	return s.decls
}

// Package looks a package up by import path.
func (s *Set) Package(path string) *Package {
	return s.packages[path]
}

// PackagesNamed returns the loaded packages whose package clause is name.
func (s *Set) PackagesNamed(name string) []*Package {
	return s.byName[name]
}

func (s *Set) Packages() []*Package {
	paths := make([]string, 0, len(s.packages))
	for p := range s.packages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	out := make([]*Package, 0, len(paths))
	for _, p := range paths {
		out = append(out, s.packages[p])
	}
	return out
}

// Lookup returns every declaration of name in the package.
func (p *Package) Lookup(name string) []*Declaration {
	return p.decls[name]
}

// Consts returns the constants typed as typeName, in source order.
func (p *Package) Consts(typeName string) []*Const {
	return p.consts[typeName]
}

func newSet(fset *token.FileSet) *Set {
	return &Set{
		Fset:     fset,
		packages: map[string]*Package{},
		byName:   map[string][]*Package{},
	}
}

func (s *Set) addPackage(name, path, dir string, files []*ast.File, paths []string) {
	pkg := &Package{
		Name:   name,
		Path:   path,
		Dir:    dir,
		decls:  map[string][]*Declaration{},
		consts: map[string][]*Const{},
	}
	byRecv := map[string][]*ast.FuncDecl{}
	var pending []*Declaration

	for i, f := range files {
		file := &File{
			Path:      paths[i],
			Package:   pkg,
			Syntax:    f,
			Imports:   importTable(f),
			Generated: ast.IsGenerated(f),
		}
		pkg.Files = append(pkg.Files, file)
		for _, d := range f.Decls {
			switch d := d.(type) {
			case *ast.GenDecl:
				switch d.Tok {
				case token.TYPE:
					for _, sp := range d.Specs {
						ts := sp.(*ast.TypeSpec)
						doc := ts.Doc
						if doc == nil && len(d.Specs) == 1 {
							doc = d.Doc
						}
						decl := &Declaration{
							Name:      ts.Name.Name,
							Package:   pkg,
							File:      file,
							Spec:      ts,
							Doc:       doc,
							Synthetic: file.Generated,
						}
						pkg.decls[decl.Name] = append(pkg.decls[decl.Name], decl)
						pending = append(pending, decl)
					}
				case token.CONST:
					collectConsts(pkg, d)
				}
			case *ast.FuncDecl:
				if recv := receiverName(d); recv != "" {
					byRecv[recv] = append(byRecv[recv], d)
				}
			}
		}
	}
	for _, decl := range pending {
		decl.Methods = byRecv[decl.Name]
	}
	s.packages[path] = pkg
	s.byName[name] = append(s.byName[name], pkg)
	s.decls = append(s.decls, pending...)
}

func (s *Set) sortDeclarations() {
	sort.SliceStable(s.decls, func(i, j int) bool {
		return s.decls[i].Package.Path < s.decls[j].Package.Path
	})
}

func importTable(f *ast.File) map[string]string {
	out := map[string]string{}
	for _, imp := range f.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		var local string
		if imp.Name != nil {
			local = imp.Name.Name
		} else {
			local = path[strings.LastIndex(path, "/")+1:]
			// gopkg.in/yaml.v3 and example.com/foo/v2 style paths
			if i := strings.LastIndex(local, ".v"); i > 0 && isDigits(local[i+2:]) {
				local = local[:i]
			}
			if strings.HasPrefix(local, "v") && isDigits(local[1:]) {
				parent := strings.TrimSuffix(path, "/"+local)
				local = parent[strings.LastIndex(parent, "/")+1:]
			}
		}
		if local == "_" || local == "." {
			continue
		}
		out[local] = path
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func receiverName(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) == 0 {
		return ""
	}
	t := fn.Recv.List[0].Type
	if st, ok := t.(*ast.StarExpr); ok {
		t = st.X
	}
	switch r := t.(type) {
	case *ast.Ident:
		return r.Name
	case *ast.IndexExpr:
		if id, ok := r.X.(*ast.Ident); ok {
			return id.Name
		}
	case *ast.IndexListExpr:
		if id, ok := r.X.(*ast.Ident); ok {
			return id.Name
		}
	}
	return ""
}
