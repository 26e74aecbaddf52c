package lexgen

import (
	"github.com/broady/lexgen/lexgen/shape"
	"github.com/broady/lexgen/lexicon"
)

// emitMethod derives the contract of a query or procedure: parameters, body
// schemas, the handler input and output shapes, and the handler signature.
func (e *docEmitter) emitMethod(t lexicon.UserType) error {
	params, input, output, errs, _ := lexicon.Method(t)
	const path = "defs.main"

	qp := &shape.Object{}
	if params != nil {
		var err error
		if qp, err = e.object(params, path+".parameters", false); err != nil {
			return err
		}
	}
	if err := e.declare(shape.NewInterface(nameQueryParams, shape.Documentation{}, qp)); err != nil {
		return err
	}

	in := shape.Type(&shape.Void{})
	if t.Kind() == lexicon.KindProcedure {
		var err error
		if in, err = e.body(input, path+".input", nameInputSchema); err != nil {
			return err
		}
	}
	out, err := e.body(output, path+".output", nameOutputSchema)
	if err != nil {
		return err
	}

	if err := e.declareShape(nameHandlerInput, bodyDoc(input), in); err != nil {
		return err
	}
	success := shape.Type(&shape.Void{})
	if _, void := out.(*shape.Void); !void {
		if err := e.declareShape(nameHandlerSuccess, bodyDoc(output), out); err != nil {
			return err
		}
		success = shape.Local(nameHandlerSuccess)
	}

	if err := e.declare(handlerError(errs)); err != nil {
		return err
	}
	if err := e.declare(shape.NewAlias(nameHandlerOutput, shape.Documentation{},
		shape.UnionOf(shape.Local(nameHandlerError), success))); err != nil {
		return err
	}
	if err := e.declare(shape.NewInterface(nameHandlerContext, shape.Documentation{}, &shape.Object{
		Fields: []shape.Field{
			{Name: "req", Type: shape.RuntimeType(shape.RuntimeRequest)},
			{Name: "res", Type: shape.RuntimeType(shape.RuntimeResponse)},
		},
	})); err != nil {
		return err
	}
	return e.declare(shape.NewAlias(nameHandler, documentation(t), &shape.Func{
		Params: []shape.Param{
			{Name: "params", Type: shape.Local(nameQueryParams)},
			{Name: "input", Type: shape.Local(nameHandlerInput)},
			{Name: "ctx", Type: shape.Local(nameHandlerContext)},
		},
		Result:     shape.Local(nameHandlerOutput),
		MaybeAsync: true,
	}))
}

// body applies the four-way body policy:
//
//	no encoding             -> no body
//	encoding, no schema     -> {encoding, body: bytes}
//	single encoding, schema -> {encoding, body: Schema}
//	multi encoding, schema  -> {encoding: union, body: Schema | bytes}
//
// When a schema is present it is declared under schemaName first.
func (e *docEmitter) body(b *lexicon.Body, path, schemaName string) (shape.Type, error) {
	if b == nil || b.Encoding.IsZero() {
		return &shape.Void{}, nil
	}

	var encoding shape.Type = shape.Lit(b.Encoding.Values[0])
	if b.Encoding.IsMulti() {
		encoding = shape.Literals(b.Encoding.Values...)
	}

	var payload shape.Type = &shape.Bytes{}
	if b.Schema != nil {
		schema, err := e.schema(b.Schema, path+".schema")
		if err != nil {
			return nil, err
		}
		if err := e.declareShape(schemaName, shape.Documentation{Body: b.Schema.Doc()}, schema); err != nil {
			return nil, err
		}
		payload = shape.Local(schemaName)
		if b.Encoding.IsMulti() {
			payload = shape.UnionOf(payload, &shape.Bytes{})
		}
	}

	return &shape.Object{Fields: []shape.Field{
		{Name: "encoding", Type: encoding},
		{Name: "body", Type: payload},
	}}, nil
}

// schema converts a body schema. Inline objects are closed.
func (e *docEmitter) schema(t lexicon.UserType, path string) (shape.Type, error) {
	if o, ok := t.(*lexicon.Object); ok {
		return e.object(o, path, false)
	}
	return e.typeOf(t, path)
}

func bodyDoc(b *lexicon.Body) shape.Documentation {
	if b == nil {
		return shape.Documentation{}
	}
	return shape.Documentation{Body: b.Description}
}

// handlerError is {status, message?, error?}. The error field exists only
// when errors are declared.
func handlerError(errs []lexicon.NamedError) *shape.Interface {
	obj := &shape.Object{Fields: []shape.Field{
		{Name: "status", Type: shape.Integer()},
		{Name: "message", Type: shape.String(), Optional: true},
	}}
	if len(errs) > 0 {
		names := make([]string, len(errs))
		var doc shape.Documentation
		for i, ne := range errs {
			names[i] = ne.Name
			if ne.Description != "" {
				doc.Notes = append(doc.Notes, ne.Name+": "+ne.Description)
			}
		}
		obj.Fields = append(obj.Fields, shape.Field{
			Name:     "error",
			Type:     shape.Literals(names...),
			Optional: true,
			Doc:      doc,
		})
	}
	return shape.NewInterface(nameHandlerError, shape.Documentation{}, obj)
}
