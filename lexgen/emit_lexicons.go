package lexgen

import (
	"fmt"

	"github.com/broady/lexgen/lexgen/shape"
	"github.com/broady/lexgen/lexicon"
)

// emitLexicons derives the lexicons unit: the schema dictionary, the schema
// list handed to the dispatch server, the shared validator used by the
// generated validate functions, and the ids map from key to NSID.
func emitLexicons(lex *lexicon.Lexicons) (*shape.Unit, error) {
	b := newUnitBuilder(shape.LexiconsUnit, shape.UnitLexicons)

	dict := shape.Obj()
	ids := shape.Obj()
	keys := make(map[string]string, lex.Len())
	for _, doc := range lex.All() {
		key := unitKey(doc.ID)
		if other, ok := keys[key]; ok {
			return nil, &lexicon.Error{
				Code:     lexicon.CodeDuplicateIdentifier,
				Document: doc.ID,
				Message:  fmt.Sprintf("%s and %s both map to %s", other, doc.ID, key),
			}
		}
		keys[key] = doc.ID

		raw, err := doc.RawJSON()
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", doc.ID, err)
		}
		dict.Entries = append(dict.Entries, shape.Entry{Key: key, Value: shape.RawJSON(raw)})
		ids.Entries = append(ids.Entries, shape.Entry{Key: key, Value: shape.S(doc.ID)})
	}

	schemaDoc := shape.RuntimeType(shape.RuntimeSchema)
	decls := []shape.Decl{
		shape.NewConst("schemaDict", shape.Documentation{}, nil, dict),
		shape.NewConst("schemas", shape.Documentation{}, shape.ArrayOf(schemaDoc),
			shape.As(shape.Values(shape.Id("schemaDict")), shape.ArrayOf(schemaDoc))),
		shape.NewConst("lexicons", shape.Documentation{}, nil,
			shape.NewOf(shape.RuntimeValue(shape.RuntimeValidator), shape.Id("schemas"))),
		shape.NewConst("ids", shape.Documentation{}, nil, ids),
	}
	for _, d := range decls {
		if err := b.declare(d); err != nil {
			return nil, err
		}
	}
	return b.unit, nil
}
