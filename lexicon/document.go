package lexicon

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Def is one named definition of a document.
type Def struct {
	Name string   `lex:"name" validate:"required,alphanum"`
	Type UserType `lex:"type"`
}

// Document is one validated lexicon document.
// Construct documents with ParseDocument; the zero value is not usable.
type Document struct {
	Lexicon     int    `lex:"lexicon" validate:"eq=1"`
	ID          string `lex:"id" validate:"required,nsid"`
	Revision    *int
	Description string

	// Defs keeps the source order of the "defs" mapping.
	Defs []Def `lex:"defs" validate:"min=1,dive"`

	// Source names where the document came from (a file path, an archive
	// member). It is informational and may be empty.
	Source string `validate:"-"`

	// Warnings holds non-fatal findings from validation.
	Warnings []Warning `validate:"-"`

	nsid NSID
	raw  *yaml.Node
}

// NSID returns the parsed identifier.
func (d *Document) NSID() NSID { return d.nsid }

// Def returns the named definition, or nil.
func (d *Document) Def(name string) UserType {
	for _, def := range d.Defs {
		if def.Name == name {
			return def.Type
		}
	}
	return nil
}

// Main returns the main definition, or nil.
func (d *Document) Main() UserType { return d.Def(MainDef) }

// MainKind returns the kind of the main definition, or "" when there is none.
func (d *Document) MainKind() Kind {
	if m := d.Main(); m != nil {
		return m.Kind()
	}
	return ""
}

// IsMethod reports whether the main definition is a query or procedure.
func (d *Document) IsMethod() bool { return d.MainKind().IsMethod() }

// Name returns Source when set, otherwise the NSID.
func (d *Document) Name() string {
	if d.Source != "" {
		return d.Source
	}
	return d.ID
}

// RawJSON re-encodes the source document as JSON, preserving key order.
func (d *Document) RawJSON() ([]byte, error) {
	if d.raw == nil {
		return nil, fmt.Errorf("document %s has no source value", d.ID)
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, d.raw); err != nil {
		return nil, fmt.Errorf("encode %s: %w", d.ID, err)
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	n = unwrap(n)
	switch n.Kind {
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(b)
	default:
		buf.WriteString("null")
	}
	return nil
}
