package typescript

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/broady/lexgen/internal/casing"
	"github.com/broady/lexgen/lexgen/shape"
)

// runtimeImport describes how a runtime handle is imported and spelled.
type runtimeImport struct {
	module string
	// name is the imported binding; alias renames it locally.
	name  string
	alias string
	// dflt marks a default import.
	dflt bool
	// member selects a member of the binding, e.g. express.Request.
	member string
}

func (r runtimeImport) local() string {
	if r.alias != "" {
		return r.alias
	}
	return r.name
}

func (r runtimeImport) ref() string {
	if r.member != "" {
		return r.local() + "." + r.member
	}
	return r.local()
}

const (
	moduleExpress    = "express"
	moduleXrpcServer = "@atproto/xrpc-server"
	moduleLexicon    = "@atproto/lexicon"
)

var runtimeImports = map[shape.RuntimeHandle]runtimeImport{
	shape.RuntimeRequest:          {module: moduleExpress, name: "express", dflt: true, member: "Request"},
	shape.RuntimeResponse:         {module: moduleExpress, name: "express", dflt: true, member: "Response"},
	shape.RuntimeServer:           {module: moduleXrpcServer, name: "Server", alias: "XrpcServer"},
	shape.RuntimeServerOptions:    {module: moduleXrpcServer, name: "Options", alias: "XrpcOptions"},
	shape.RuntimeCreateServer:     {module: moduleXrpcServer, name: "createServer", alias: "createXrpcServer"},
	shape.RuntimeValidationResult: {module: moduleLexicon, name: "ValidationResult"},
	shape.RuntimeValidator:        {module: moduleLexicon, name: "Lexicons"},
	shape.RuntimeSchema:           {module: moduleLexicon, name: "LexiconDoc"},
	shape.RuntimeBlobRef:          {module: moduleLexicon, name: "BlobRef"},
}

var runtimeModules = []string{moduleExpress, moduleXrpcServer, moduleLexicon}

// imports collects what a file uses while it is rendered.
type imports struct {
	from    string
	ext     string
	runtime map[string][]runtimeImport
	units   []string
	named   map[string][]string
	spaced  map[string]bool
}

func newImports(from *shape.Unit, ext string) *imports {
	return &imports{
		from:    from.Path(),
		ext:     ext,
		runtime: make(map[string][]runtimeImport),
		named:   make(map[string][]string),
		spaced:  make(map[string]bool),
	}
}

// useRuntime records h and returns its local spelling.
func (im *imports) useRuntime(h shape.RuntimeHandle) (string, error) {
	r, ok := runtimeImports[h]
	if !ok {
		return "", fmt.Errorf("unsupported runtime handle %q", h)
	}
	if !slices.Contains(im.runtime[r.module], r) {
		im.runtime[r.module] = append(im.runtime[r.module], r)
	}
	return r.ref(), nil
}

// useNamespace records a namespace import of unit and returns its alias.
func (im *imports) useNamespace(unit string) string {
	im.addUnit(unit)
	im.spaced[unit] = true
	return namespaceAlias(unit)
}

// useNamed records a named import of name from unit.
func (im *imports) useNamed(unit, name string) string {
	im.addUnit(unit)
	if !slices.Contains(im.named[unit], name) {
		im.named[unit] = append(im.named[unit], name)
	}
	return name
}

func (im *imports) addUnit(unit string) {
	if !slices.Contains(im.units, unit) {
		im.units = append(im.units, unit)
	}
}

// namespaceAlias is the local name of a namespace import of unit.
func namespaceAlias(unit string) string { return casing.Title(unit) }

// write emits runtime imports in a fixed module order, then unit imports in
// deps order followed by any unit not listed in deps.
func (im *imports) write(buf *bytes.Buffer, deps []string) {
	for _, mod := range runtimeModules {
		rs := im.runtime[mod]
		if len(rs) == 0 {
			continue
		}
		var named, defaults []string
		for _, r := range rs {
			if r.dflt {
				if !slices.Contains(defaults, r.name) {
					defaults = append(defaults, r.name)
					fmt.Fprintf(buf, "import %s from '%s'\n", r.name, mod)
				}
				continue
			}
			spec := r.name
			if r.alias != "" {
				spec += " as " + r.alias
			}
			if !slices.Contains(named, spec) {
				named = append(named, spec)
			}
		}
		if len(named) > 0 {
			fmt.Fprintf(buf, "import { %s } from '%s'\n", strings.Join(named, ", "), mod)
		}
	}

	order := make([]string, 0, len(im.units))
	for _, d := range deps {
		if slices.Contains(im.units, d) {
			order = append(order, d)
		}
	}
	for _, u := range im.units {
		if !slices.Contains(order, u) {
			order = append(order, u)
		}
	}
	for _, u := range order {
		path := relativePath(im.from, shape.PathOf(u)) + im.ext
		if names := im.named[u]; len(names) > 0 {
			fmt.Fprintf(buf, "import { %s } from '%s'\n", strings.Join(names, ", "), path)
		}
		if im.spaced[u] {
			fmt.Fprintf(buf, "import * as %s from '%s'\n", namespaceAlias(u), path)
		}
	}
}

// relativePath returns the import specifier that reaches unit path to from
// a file at unit path from. Both are slash-separated and extensionless.
func relativePath(from, to string) string {
	fromDir := strings.Split(from, "/")
	fromDir = fromDir[:len(fromDir)-1]
	target := strings.Split(to, "/")

	common := 0
	for common < len(fromDir) && common < len(target)-1 && fromDir[common] == target[common] {
		common++
	}
	var parts []string
	for range fromDir[common:] {
		parts = append(parts, "..")
	}
	parts = append(parts, target[common:]...)
	rel := strings.Join(parts, "/")
	if !strings.HasPrefix(rel, "..") {
		rel = "./" + rel
	}
	return rel
}
