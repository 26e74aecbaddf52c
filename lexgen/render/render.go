// Package render defines the structural-request interface between the
// compiler and a source-rendering back-end.
//
// The compiler never inspects rendered text. It issues one request per
// declaration of a unit, in order, and collects the bytes returned by Finish.
package render

import (
	"fmt"

	"github.com/broady/lexgen/lexgen/shape"
)

// Backend produces source text for units.
type Backend interface {
	// Name identifies the back-end in logs.
	Name() string

	// Extension is appended to unit paths, including the dot (".ts").
	Extension() string

	// NewFile starts rendering unit.
	NewFile(unit *shape.Unit) FileBuilder
}

// FileBuilder accepts the structural requests for one unit.
type FileBuilder interface {
	DeclareInterface(d *shape.Interface) error
	DeclareAlias(d *shape.Alias) error
	DeclareConst(d *shape.Const) error
	DeclareFunction(d *shape.Function) error
	DeclareClass(d *shape.Class) error

	// Finish returns the rendered unit. No requests follow Finish.
	Finish() ([]byte, error)
}

// File is one rendered unit.
type File struct {
	Path    string
	Content []byte
}

// Apply issues the requests for every declaration of unit and finishes the file.
func Apply(b Backend, unit *shape.Unit) (File, error) {
	fb := b.NewFile(unit)
	for _, d := range unit.Decls {
		var err error
		switch d := d.(type) {
		case *shape.Interface:
			err = fb.DeclareInterface(d)
		case *shape.Alias:
			err = fb.DeclareAlias(d)
		case *shape.Const:
			err = fb.DeclareConst(d)
		case *shape.Function:
			err = fb.DeclareFunction(d)
		case *shape.Class:
			err = fb.DeclareClass(d)
		default:
			err = fmt.Errorf("unsupported declaration %T", d)
		}
		if err != nil {
			return File{}, fmt.Errorf("%s: %s %s: %w", unit.Name, d.DeclKind(), d.DeclName(), err)
		}
	}
	content, err := fb.Finish()
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", unit.Name, err)
	}
	return File{Path: unit.Path() + b.Extension(), Content: content}, nil
}
