package lexicon

// Visitor is called for every type reachable from a definition, parents
// before children. path is the dotted location relative to the document.
type Visitor func(t UserType, path string)

// Walk visits t and every nested type: object properties, array items, the
// record object, method parameters and body schemas.
func Walk(t UserType, path string, visit Visitor) {
	if t == nil {
		return
	}
	visit(t, path)
	switch t := t.(type) {
	case *Array:
		Walk(t.Items, join(path, "items"), visit)
	case *Object:
		for _, p := range t.Properties {
			Walk(p.Type, join(join(path, "properties"), p.Name), visit)
		}
	case *Record:
		if t.Record != nil {
			Walk(t.Record, join(path, "record"), visit)
		}
	case *Query:
		walkParams(t.Parameters, path, visit)
		walkBody(t.Output, join(path, "output"), visit)
	case *Procedure:
		walkParams(t.Parameters, path, visit)
		walkBody(t.Input, join(path, "input"), visit)
		walkBody(t.Output, join(path, "output"), visit)
	}
}

func walkParams(o *Object, path string, visit Visitor) {
	if o != nil {
		Walk(o, join(path, "parameters"), visit)
	}
}

func walkBody(b *Body, path string, visit Visitor) {
	if b != nil {
		Walk(b.Schema, join(path, "schema"), visit)
	}
}

// WalkDocument walks every definition of doc in source order.
func WalkDocument(doc *Document, visit Visitor) {
	for _, def := range doc.Defs {
		Walk(def.Type, join("defs", def.Name), visit)
	}
}

// RefSite is one reference found inside a document.
type RefSite struct {
	// Ref is the reference as written.
	Ref string

	// Path locates the referencing type inside the document.
	Path string
}

// Refs lists every reference in doc, from ref types and union members, in
// document order.
func Refs(doc *Document) []RefSite {
	var out []RefSite
	WalkDocument(doc, func(t UserType, path string) {
		switch t := t.(type) {
		case *Ref:
			out = append(out, RefSite{Ref: t.Ref, Path: path})
		case *Union:
			for _, r := range t.Refs {
				out = append(out, RefSite{Ref: r, Path: path})
			}
		}
	})
	return out
}
