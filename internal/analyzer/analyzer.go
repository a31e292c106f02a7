package analyzer

import (
	"cmp"
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/olehluchkiv/ifacegen/internal/decl"
)

// Options controls which packages are loaded and which foreign interfaces
// are pulled in as ancestors.
type Options struct {
	Patterns      []string // package patterns, default ./...
	IncludeStdlib bool     // follow embeds into standard library interfaces
}

// Analyze loads Go packages from dir and returns one source per Go file.
// Embedded named interfaces become inherits; explicitly declared methods
// become members. Interfaces embedded from packages outside the load are
// emitted as extra sources, one per package, so their members can merge.
func Analyze(ctx context.Context, dir string, opts Options, logger *slog.Logger) ([]decl.Source, error) {
	logger = logger.With("component", "analyzer")

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax |
			packages.NeedTypesInfo | packages.NeedFiles,
		Dir:     dir,
		Context: ctx,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	slices.SortFunc(pkgs, func(a, b *packages.Package) int {
		return cmp.Compare(a.PkgPath, b.PkgPath)
	})

	logger.Info("packages loaded", "packages_count", len(pkgs))

	// Log packages with errors but continue
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			logger.Warn("package load error", "package", pkg.PkgPath, "error", e.Msg)
		}
	}

	c := newCollector(opts, logger)
	for _, pkg := range pkgs {
		c.loaded[pkg.PkgPath] = true
	}

	var sources []decl.Source
	for _, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}
		for _, file := range pkg.Syntax {
			sources = append(sources, c.fileSource(pkg, file, dir))
		}
	}

	sources = append(sources, c.foreignSources()...)

	logger.Info("declarations collected", "sources", len(sources), "foreign_interfaces", len(c.foreign))
	return sources, nil
}

type collector struct {
	opts    Options
	logger  *slog.Logger
	loaded  map[string]bool
	foreign map[string]*types.TypeName // key -> interface declared outside the load
	queue   []string
}

func newCollector(opts Options, logger *slog.Logger) *collector {
	return &collector{
		opts:    opts,
		logger:  logger,
		loaded:  make(map[string]bool),
		foreign: make(map[string]*types.TypeName),
	}
}

// fileSource collects the interfaces declared at package level in file,
// in declaration order.
func (c *collector) fileSource(pkg *packages.Package, file *ast.File, moduleRoot string) decl.Source {
	origin := resolveSourceFile(pkg.Fset, file.Pos(), moduleRoot)
	src := decl.Source{Origin: origin}

	imports := fileImports(file)
	for _, d := range file.Decls {
		gen, ok := d.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok || ts.Assign.IsValid() {
				continue
			}
			tn, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
			if !ok {
				continue
			}
			iface, ok := c.convert(tn)
			if !ok {
				continue
			}
			iface.Origin = origin
			iface.Imports = imports
			src.Interfaces = append(src.Interfaces, iface)
			c.logger.Debug("found interface", "key", iface.Key, "members", len(iface.Members), "inherits", len(iface.Inherits))
		}
	}
	return src
}

// convert turns a named interface into a declaration. Constraint interfaces
// (type sets) are skipped.
func (c *collector) convert(tn *types.TypeName) (decl.Interface, bool) {
	iface, ok := tn.Type().Underlying().(*types.Interface)
	if !ok || !iface.IsMethodSet() {
		return decl.Interface{}, false
	}

	out := decl.Interface{
		Key:    objectKey(tn),
		Public: !isUnexported(tn.Name()),
	}
	for i := range iface.NumEmbeddeds() {
		named, ok := iface.EmbeddedType(i).(*types.Named)
		if !ok {
			continue
		}
		obj := named.Origin().Obj()
		if _, ok := named.Underlying().(*types.Interface); !ok {
			continue
		}
		key := objectKey(obj)
		out.Inherits = append(out.Inherits, key)
		c.follow(key, obj)
	}
	for i := range iface.NumExplicitMethods() {
		out.Members = append(out.Members, methodMember(iface.ExplicitMethod(i)))
	}
	return out, true
}

// follow records an embedded interface declared outside the loaded packages.
func (c *collector) follow(key string, obj *types.TypeName) {
	pkgPath := objectPkgPath(obj)
	if c.loaded[pkgPath] || c.foreign[key] != nil {
		return
	}
	if isStdlib(pkgPath) && !c.opts.IncludeStdlib {
		return
	}
	c.foreign[key] = obj
	c.queue = append(c.queue, key)
}

// foreignSources drains the follow queue, converting each foreign interface
// and following its own embeds, then groups them by package.
func (c *collector) foreignSources() []decl.Source {
	byPkg := make(map[string]*decl.Source)
	var order []string
	for len(c.queue) > 0 {
		key := c.queue[0]
		c.queue = c.queue[1:]

		obj := c.foreign[key]
		iface, ok := c.convert(obj)
		if !ok {
			continue
		}
		pkgPath := objectPkgPath(obj)
		iface.Origin = pkgPath
		src, ok := byPkg[pkgPath]
		if !ok {
			src = &decl.Source{Origin: pkgPath}
			byPkg[pkgPath] = src
			order = append(order, pkgPath)
		}
		src.Interfaces = append(src.Interfaces, iface)
		c.logger.Debug("followed foreign interface", "key", key)
	}

	slices.Sort(order)
	sources := make([]decl.Source, 0, len(order))
	for _, p := range order {
		sources = append(sources, *byPkg[p])
	}
	return sources
}

func methodMember(fn *types.Func) decl.Member {
	sig := fn.Type().(*types.Signature)
	m := decl.Member{Name: fn.Name(), Kind: decl.KindFunction}

	params := sig.Params()
	for i := range params.Len() {
		p := params.At(i)
		name := p.Name()
		if name == "" || name == "_" {
			name = "arg" + strconv.Itoa(i)
		}
		typ := shortType(p.Type())
		if sig.Variadic() && i == params.Len()-1 {
			if s, ok := p.Type().(*types.Slice); ok {
				typ = "..." + shortType(s.Elem())
			}
		}
		m.Params = append(m.Params, decl.Param{Name: name, Type: typ})
	}
	m.Returns = formatResults(sig.Results())
	return m
}

func formatResults(results *types.Tuple) string {
	switch results.Len() {
	case 0:
		return ""
	case 1:
		return shortType(results.At(0).Type())
	}
	parts := make([]string, results.Len())
	for i := range results.Len() {
		parts[i] = shortType(results.At(i).Type())
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func shortType(t types.Type) string {
	return types.TypeString(t, func(pkg *types.Package) string {
		return pkg.Name()
	})
}

func fileImports(file *ast.File) []string {
	paths := make([]string, 0, len(file.Imports))
	for _, spec := range file.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		paths = append(paths, p)
	}
	return decl.UnionImports(paths)
}

// resolveSourceFile resolves a token position to a file path relative to moduleRoot.
func resolveSourceFile(fset *token.FileSet, pos token.Pos, moduleRoot string) string {
	if fset == nil || !pos.IsValid() {
		return ""
	}
	position := fset.Position(pos)
	if !position.IsValid() || position.Filename == "" {
		return ""
	}
	rel, err := filepath.Rel(moduleRoot, position.Filename)
	if err != nil {
		return position.Filename
	}
	return filepath.ToSlash(rel)
}
