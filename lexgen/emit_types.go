package lexgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/broady/lexgen/lexgen/shape"
	"github.com/broady/lexgen/lexicon"
)

// unitBuilder appends declarations to a unit and rejects repeated names.
type unitBuilder struct {
	unit     *shape.Unit
	declared map[string]bool
}

func newUnitBuilder(name string, kind shape.UnitKind) unitBuilder {
	return unitBuilder{unit: shape.NewUnit(name, kind), declared: make(map[string]bool)}
}

func (b *unitBuilder) declare(d shape.Decl) error {
	name := d.DeclName()
	if b.declared[name] {
		return &lexicon.Error{
			Code:     lexicon.CodeDuplicateIdentifier,
			Document: b.unit.Name,
			Message:  fmt.Sprintf("generated name %s is declared twice", name),
		}
	}
	b.declared[name] = true
	b.unit.Add(d)
	return nil
}

// declareShape declares an object shape as an interface and anything else as
// an alias.
func (b *unitBuilder) declareShape(name string, doc shape.Documentation, t shape.Type) error {
	if obj, ok := t.(*shape.Object); ok {
		return b.declare(shape.NewInterface(name, doc, obj))
	}
	return b.declare(shape.NewAlias(name, doc, t))
}

// docEmitter derives the unit of one document. It only reads the registry
// and the document, so emitters for different documents run concurrently.
type docEmitter struct {
	unitBuilder
	lex *lexicon.Lexicons
	doc *lexicon.Document
	cfg *Config
}

func emitDocument(lex *lexicon.Lexicons, doc *lexicon.Document, cfg *Config) (*shape.Unit, error) {
	e := &docEmitter{
		unitBuilder: newUnitBuilder(doc.ID, shape.UnitDocument),
		lex:         lex,
		doc:         doc,
		cfg:         cfg,
	}
	for _, def := range doc.Defs {
		var err error
		if def.Name == lexicon.MainDef && def.Type.Kind().IsMethod() {
			err = e.emitMethod(def.Type)
		} else {
			err = e.emitDef(def)
		}
		if err != nil {
			return nil, err
		}
	}
	return e.unit, nil
}

func (e *docEmitter) emitDef(def lexicon.Def) error {
	addr := lexicon.Address{NSID: e.doc.ID, Fragment: def.Name}
	path := "defs." + def.Name
	name := declName(def.Name, def.Type.Kind())
	doc := documentation(def.Type)

	switch t := def.Type.(type) {
	case *lexicon.Token:
		return e.declare(shape.NewConst(tokenConstName(def.Name), doc, nil, shape.S(addr.String())))
	case *lexicon.Record:
		if t.Key != "" {
			doc.Notes = append(doc.Notes, "key: "+t.Key)
		}
		obj, err := e.object(t.Record, path+".record", true)
		if err != nil {
			return err
		}
		if err := e.declare(shape.NewInterface(name, doc, obj)); err != nil {
			return err
		}
		return e.guards(name, addr)
	case *lexicon.Object:
		obj, err := e.object(t, path, true)
		if err != nil {
			return err
		}
		if err := e.declare(shape.NewInterface(name, doc, obj)); err != nil {
			return err
		}
		return e.guards(name, addr)
	default:
		typ, err := e.typeOf(t, path)
		if err != nil {
			return err
		}
		return e.declare(shape.NewAlias(name, doc, typ))
	}
}

// guards declares the type guard and the validation function of an object
// definition. The guard matches the "$type" tag; validation is delegated to
// the shared validator of the lexicons unit.
func (e *docEmitter) guards(name string, addr lexicon.Address) error {
	if e.cfg.SkipGuards {
		return nil
	}
	tags := []string{addr.String()}
	if addr.IsMain() {
		tags = []string{addr.Full(), addr.String()}
	}
	v := []shape.Param{{Name: "v", Type: shape.Unknown()}}
	if err := e.declare(shape.NewFunction(guardName(name), shape.Documentation{}, v,
		&shape.Predicate{Param: "v", Target: shape.Local(name)},
		&shape.Return{Value: shape.TagCheck("v", tags...)},
	)); err != nil {
		return err
	}

	e.unit.AddDep(shape.LexiconsUnit)
	validate := shape.Sel(shape.ValueOf(shape.LexiconsUnit, "lexicons"), "validate")
	return e.declare(shape.NewFunction(validateName(name), shape.Documentation{}, v,
		shape.RuntimeType(shape.RuntimeValidationResult),
		&shape.Return{Value: shape.CallOf(validate, shape.S(addr.Full()), shape.Id("v"))},
	))
}

// object converts an object definition. Open objects tolerate unknown keys.
func (e *docEmitter) object(o *lexicon.Object, path string, open bool) (*shape.Object, error) {
	out := &shape.Object{Open: open}
	for _, p := range o.Properties {
		typ, err := e.typeOf(p.Type, path+".properties."+p.Name)
		if err != nil {
			return nil, err
		}
		out.Fields = append(out.Fields, shape.Field{
			Name:     p.Name,
			Type:     typ,
			Optional: !o.IsRequired(p.Name),
			Doc:      documentation(p.Type),
		})
	}
	return out, nil
}

// typeOf converts a nested type.
func (e *docEmitter) typeOf(t lexicon.UserType, path string) (shape.Type, error) {
	switch t := t.(type) {
	case *lexicon.Boolean:
		if t.Const != nil {
			return shape.Lit(*t.Const), nil
		}
		return shape.Boolean(), nil
	case *lexicon.Integer:
		if t.Const != nil {
			return shape.Lit(*t.Const), nil
		}
		if len(t.Enum) > 0 {
			u := &shape.Union{}
			for _, v := range t.Enum {
				u.Members = append(u.Members, shape.Lit(v))
			}
			return u, nil
		}
		return shape.Integer(), nil
	case *lexicon.Number:
		if t.Const != nil {
			return shape.Lit(*t.Const), nil
		}
		if len(t.Enum) > 0 {
			u := &shape.Union{}
			for _, v := range t.Enum {
				u.Members = append(u.Members, shape.Lit(v))
			}
			return u, nil
		}
		return shape.Number(), nil
	case *lexicon.String:
		switch {
		case t.Const != nil:
			return shape.Lit(*t.Const), nil
		case len(t.Enum) > 0:
			return shape.Literals(t.Enum...), nil
		case len(t.KnownValues) > 0:
			u := shape.Literals(t.KnownValues...)
			u.Open, u.Base = true, shape.String()
			return u, nil
		}
		return shape.String(), nil
	case *lexicon.Datetime:
		return shape.Datetime(), nil
	case *lexicon.Unknown:
		return shape.Unknown(), nil
	case *lexicon.Blob:
		return &shape.Blob{Variant: string(t.Variant), Accept: t.Accept, MaxSize: t.MaxSize}, nil
	case *lexicon.Array:
		item, err := e.typeOf(t.Items, path+".items")
		if err != nil {
			return nil, err
		}
		return shape.ArrayOf(item), nil
	case *lexicon.Object:
		return e.object(t, path, false)
	case *lexicon.Ref:
		return e.refType(t.Ref, path)
	case *lexicon.Union:
		u := &shape.Union{}
		for _, ref := range t.Refs {
			m, err := e.refType(ref, path)
			if err != nil {
				return nil, err
			}
			u.Members = append(u.Members, m)
		}
		return u, nil
	}
	return nil, &lexicon.Error{
		Code:     lexicon.CodeInvalidKind,
		Document: e.doc.ID,
		Path:     path,
		Message:  fmt.Sprintf("%s cannot be used as a nested type", t.Kind()),
	}
}

// refType resolves ref through the registry. A token resolves to the literal
// of its address; anything else to a reference to the target's declaration,
// recording a dependency on the target's unit when it lives elsewhere.
func (e *docEmitter) refType(ref, path string) (shape.Type, error) {
	addr, err := lexicon.ParseAddress(ref, e.doc.ID)
	var target lexicon.UserType
	if err == nil {
		target, err = e.lex.LookupAddress(addr)
	}
	if err != nil {
		return nil, &lexicon.Error{
			Code:     lexicon.CodeCyclicOrMissingImport,
			Document: e.doc.ID,
			Path:     path,
			Message:  fmt.Sprintf("cannot resolve %q", ref),
			Err:      err,
		}
	}
	if target.Kind() == lexicon.KindToken {
		return shape.Lit(addr.String()), nil
	}
	name := declName(addr.Fragment, target.Kind())
	if addr.NSID == e.doc.ID {
		return shape.Local(name), nil
	}
	e.unit.AddDep(addr.NSID)
	return shape.RefTo(addr.NSID, name), nil
}

// documentation carries the description plus the constraints that have no
// type-level representation.
func documentation(t lexicon.UserType) shape.Documentation {
	doc := shape.Documentation{Body: t.Doc()}
	note := func(key string, v any) {
		doc.Notes = append(doc.Notes, key+": "+noteValue(v))
	}
	switch t := t.(type) {
	case *lexicon.Boolean:
		if t.Default != nil {
			note("default", *t.Default)
		}
	case *lexicon.Integer:
		if t.Minimum != nil {
			note("minimum", *t.Minimum)
		}
		if t.Maximum != nil {
			note("maximum", *t.Maximum)
		}
		if t.Default != nil {
			note("default", *t.Default)
		}
	case *lexicon.Number:
		if t.Minimum != nil {
			note("minimum", *t.Minimum)
		}
		if t.Maximum != nil {
			note("maximum", *t.Maximum)
		}
		if t.Default != nil {
			note("default", *t.Default)
		}
	case *lexicon.String:
		if t.MinLength != nil {
			note("minLength", *t.MinLength)
		}
		if t.MaxLength != nil {
			note("maxLength", *t.MaxLength)
		}
		if t.Default != nil {
			note("default", *t.Default)
		}
	case *lexicon.Array:
		if t.MinLength != nil {
			note("minLength", *t.MinLength)
		}
		if t.MaxLength != nil {
			note("maxLength", *t.MaxLength)
		}
	case *lexicon.Blob:
		if len(t.Accept) > 0 {
			doc.Notes = append(doc.Notes, "accept: "+strings.Join(t.Accept, ", "))
		}
		for _, b := range []struct {
			key string
			v   *int64
		}{{"maxSize", t.MaxSize}, {"maxWidth", t.MaxWidth}, {"maxHeight", t.MaxHeight}, {"maxLength", t.MaxLength}} {
			if b.v != nil {
				note(b.key, *b.v)
			}
		}
	}
	return doc
}

func noteValue(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
