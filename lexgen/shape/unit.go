package shape

import (
	"slices"
	"strings"
)

// UnitKind identifies the role of a unit.
type UnitKind int

const (
	UnitDocument UnitKind = iota // One lexicon document
	UnitLexicons                 // Schema dictionary and shared validator
	UnitIndex                    // Token constants and the server scaffold
)

func (k UnitKind) String() string {
	switch k {
	case UnitDocument:
		return "Document"
	case UnitLexicons:
		return "Lexicons"
	case UnitIndex:
		return "Index"
	default:
		return "Unknown"
	}
}

// Names of the aggregate units.
const (
	LexiconsUnit = "lexicons"
	IndexUnit    = "index"
)

// Unit is one output unit: an ordered list of declarations plus the units it
// depends on. Name is the document NSID or an aggregate name.
type Unit struct {
	Name  string
	Kind  UnitKind
	Deps  []string
	Decls []Decl
}

// NewUnit returns an empty unit for name.
func NewUnit(name string, kind UnitKind) *Unit {
	return &Unit{Name: name, Kind: kind}
}

// Path returns the slash-separated location of the unit without extension.
func (u *Unit) Path() string { return PathOf(u.Name) }

// PathOf returns the location of the unit called name: "types/" plus the
// NSID segments for document units, the bare name for aggregates.
func PathOf(name string) string {
	if name == LexiconsUnit || name == IndexUnit {
		return name
	}
	return "types/" + strings.ReplaceAll(name, ".", "/")
}

// AddDep records a dependency on unit name. Self and repeated dependencies
// are ignored; first-use order is kept. It reports whether name was added.
func (u *Unit) AddDep(name string) bool {
	if name == "" || name == u.Name || slices.Contains(u.Deps, name) {
		return false
	}
	u.Deps = append(u.Deps, name)
	return true
}

// Add appends declarations.
func (u *Unit) Add(decls ...Decl) {
	u.Decls = append(u.Decls, decls...)
}

// Decl returns the declaration called name, or nil.
func (u *Unit) Decl(name string) Decl {
	for _, d := range u.Decls {
		if d.DeclName() == name {
			return d
		}
	}
	return nil
}
