package decl

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/tools/go/packages"
	"pkt.systems/pslog"
)

type LoadOptions struct {
	// Entry is a directory, a .go file inside one, or a package pattern.
	Entry     string
	BuildTags []string
	// Ignore holds doublestar globs matched against absolute and
	// entry-relative slash paths.
	Ignore []string
	Logger pslog.Logger
}

// Load reads every package under the entry point, plus every non-standard
// package reachable through their imports, including packages of other
// modules the entry module requires.
func Load(ctx context.Context, opts LoadOptions) (*Set, error) {
	if opts.Entry == "" {
		return nil, fmt.Errorf("entry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = pslog.NoopLogger()
	}

	dir, patterns, err := entryPatterns(opts.Entry)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles | packages.NeedSyntax | packages.NeedImports,
		Dir:     dir,
		Fset:    fset,
		Tests:   false,
	}
	if len(opts.BuildTags) > 0 {
		cfg.BuildFlags = []string{"-tags=" + strings.Join(opts.BuildTags, ",")}
	}

	set := newSet(fset)
	seen := map[string]bool{}
	for len(patterns) > 0 {
		pkgs, err := packages.Load(cfg, patterns...)
		if err != nil {
			return nil, fmt.Errorf("load packages: %w", err)
		}
		patterns = nil
		for _, pkg := range pkgs {
			if seen[pkg.PkgPath] {
				continue
			}
			seen[pkg.PkgPath] = true
			for _, e := range pkg.Errors {
				if e.Kind == packages.ParseError {
					return nil, fmt.Errorf("load %s: %v", pkg.PkgPath, e)
				}
				logger.Warn("decl.package.error", "package", pkg.PkgPath, "error", e.Msg)
			}
			files, paths := filterIgnored(pkg.Syntax, pkg.CompiledGoFiles, opts.Ignore, dir, logger)
			if len(files) == 0 {
				continue
			}
			pkgDir := filepath.Dir(paths[0])
			set.addPackage(pkg.Name, pkg.PkgPath, pkgDir, files, paths)
			logger.Debug("decl.package.loaded", "package", pkg.PkgPath, "files", len(files))

			for imp := range pkg.Imports {
				if seen[imp] || isStdlib(imp) {
					continue
				}
				patterns = append(patterns, imp)
			}
		}
		sort.Strings(patterns)
	}
	set.sortDeclarations()
	logger.Info("decl.load.complete", "packages", len(set.packages), "declarations", len(set.decls))
	return set, nil
}

func entryPatterns(entry string) (dir string, patterns []string, err error) {
	fi, err := os.Stat(entry)
	if err != nil {
		if os.IsNotExist(err) {
			// not a path; let go/packages interpret it as a pattern
			return "", []string{entry}, nil
		}
		return "", nil, fmt.Errorf("stat entry: %w", err)
	}
	if !fi.IsDir() {
		entry = filepath.Dir(entry)
	}
	abs, err := filepath.Abs(entry)
	if err != nil {
		return "", nil, fmt.Errorf("entry path: %w", err)
	}
	return abs, []string{"./..."}, nil
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}

func filterIgnored(files []*ast.File, paths []string, ignore []string, root string, logger pslog.Logger) ([]*ast.File, []string) {
	if len(paths) != len(files) {
		// syntax is missing for some files; nothing sensible to align on
		paths = paths[:min(len(paths), len(files))]
		files = files[:len(paths)]
	}
	var (
		outFiles []*ast.File
		outPaths []string
	)
	for i, f := range files {
		if Ignored(ignore, root, paths[i]) {
			logger.Debug("decl.file.ignored", "file", paths[i])
			continue
		}
		outFiles = append(outFiles, f)
		outPaths = append(outPaths, paths[i])
	}
	return outFiles, outPaths
}

// Ignored reports whether file matches one of the globs, tried against its
// absolute slash path and its path relative to root.
func Ignored(globs []string, root, file string) bool {
	if len(globs) == 0 {
		return false
	}
	candidates := []string{filepath.ToSlash(file)}
	if root != "" {
		if rel, err := filepath.Rel(root, file); err == nil {
			candidates = append(candidates, filepath.ToSlash(rel))
		}
	}
	for _, g := range globs {
		g = filepath.ToSlash(g)
		for _, c := range candidates {
			if ok, err := doublestar.Match(g, c); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// FromSource builds a set from in-memory files keyed by slash path relative
// to the module root. Each directory becomes the package module/dir.
// Build constraints are not evaluated.
func FromSource(module string, sources map[string]string, ignore []string) (*Set, error) {
	fset := token.NewFileSet()
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	type group struct {
		name  string
		files []*ast.File
		paths []string
	}
	byDir := map[string]*group{}
	var dirs []string
	for _, name := range names {
		if Ignored(ignore, "", name) {
			continue
		}
		f, err := parser.ParseFile(fset, name, sources[name], parser.ParseComments)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		dir := path.Dir(name)
		g, ok := byDir[dir]
		if !ok {
			g = &group{name: f.Name.Name}
			byDir[dir] = g
			dirs = append(dirs, dir)
		}
		if g.name != f.Name.Name {
			return nil, fmt.Errorf("%s: package %s, expected %s", name, f.Name.Name, g.name)
		}
		g.files = append(g.files, f)
		g.paths = append(g.paths, name)
	}

	set := newSet(fset)
	for _, dir := range dirs {
		g := byDir[dir]
		pkgPath := module
		if dir != "." {
			pkgPath = module + "/" + dir
		}
		set.addPackage(g.name, pkgPath, dir, g.files, g.paths)
	}
	set.sortDeclarations()
	return set, nil
}
