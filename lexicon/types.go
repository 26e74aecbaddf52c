// Package lexicon implements the schema model of the lexicon interface
// definition language: documents identified by NSIDs, the tagged union of
// definition kinds, validation of raw documents, and the batch registry that
// resolves references across documents.
package lexicon

// Kind is the value of a definition's "type" field.
type Kind string

const (
	KindBoolean   Kind = "boolean"
	KindNumber    Kind = "number"
	KindInteger   Kind = "integer"
	KindString    Kind = "string"
	KindDatetime  Kind = "datetime"
	KindUnknown   Kind = "unknown"
	KindBlob      Kind = "blob"
	KindImage     Kind = "image"
	KindVideo     Kind = "video"
	KindAudio     Kind = "audio"
	KindArray     Kind = "array"
	KindObject    Kind = "object"
	KindToken     Kind = "token"
	KindRecord    Kind = "record"
	KindQuery     Kind = "query"
	KindProcedure Kind = "procedure"
	KindParams    Kind = "params"
	KindRef       Kind = "ref"
	KindUnion     Kind = "union"
)

// IsPrimary reports whether definitions of this kind may only appear as main.
// Primary definitions are never valid reference targets.
func (k Kind) IsPrimary() bool {
	return k == KindRecord || k == KindQuery || k == KindProcedure
}

// IsMethod reports whether k is an XRPC method kind.
func (k Kind) IsMethod() bool {
	return k == KindQuery || k == KindProcedure
}

// IsPrimitive reports whether k is a primitive kind.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindBoolean, KindNumber, KindInteger, KindString, KindDatetime, KindUnknown:
		return true
	}
	return false
}

// IsBlob reports whether k is one of the blob variants.
func (k Kind) IsBlob() bool {
	switch k {
	case KindBlob, KindImage, KindVideo, KindAudio:
		return true
	}
	return false
}

// UserType is one node of the schema algebra.
type UserType interface {
	Kind() Kind

	// Doc returns the description, if any.
	Doc() string

	sealed()
}

type typeBase struct {
	Description string `lex:"description"`
}

func (b typeBase) Doc() string { return b.Description }
func (typeBase) sealed()       {}

// Boolean is a boolean primitive.
type Boolean struct {
	typeBase
	Default *bool
	Const   *bool
}

func (*Boolean) Kind() Kind { return KindBoolean }

// Number is a floating point primitive.
type Number struct {
	typeBase
	Default *float64
	Const   *float64
	Minimum *float64
	Maximum *float64
	Enum    []float64
}

func (*Number) Kind() Kind { return KindNumber }

// Integer is an integer primitive.
type Integer struct {
	typeBase
	Default *int64
	Const   *int64
	Minimum *int64
	Maximum *int64
	Enum    []int64
}

func (*Integer) Kind() Kind { return KindInteger }

// String is a string primitive.
type String struct {
	typeBase
	Default   *string
	Const     *string
	MinLength *int
	MaxLength *int
	Enum      []string

	// KnownValues suggests values without closing the set.
	KnownValues []string
}

func (*String) Kind() Kind { return KindString }

// Datetime is an RFC 3339 timestamp carried as a string.
type Datetime struct{ typeBase }

func (*Datetime) Kind() Kind { return KindDatetime }

// Unknown accepts any value.
type Unknown struct{ typeBase }

func (*Unknown) Kind() Kind { return KindUnknown }

// Blob covers the blob, image, video and audio variants. Bounds that do not
// apply to Variant are always nil.
type Blob struct {
	typeBase
	Variant   Kind
	Accept    []string `lex:"accept" validate:"dive,mimepattern"`
	MaxSize   *int64
	MaxWidth  *int64
	MaxHeight *int64
	MaxLength *int64
}

func (b *Blob) Kind() Kind { return b.Variant }

// Array is an ordered sequence of Items.
type Array struct {
	typeBase
	Items     UserType `lex:"items"`
	MinLength *int
	MaxLength *int
}

func (*Array) Kind() Kind { return KindArray }

// Property is one named member of an Object.
type Property struct {
	Name string   `lex:"name" validate:"required"`
	Type UserType `lex:"type"`
}

// Object is a record of named properties. Properties keep source order.
type Object struct {
	typeBase
	Required   []string   `lex:"required" validate:"dive,required"`
	Properties []Property `lex:"properties" validate:"dive"`

	// Params is set when the object was declared with type "params".
	Params bool
}

func (o *Object) Kind() Kind {
	if o.Params {
		return KindParams
	}
	return KindObject
}

// Property returns the named property, or nil.
func (o *Object) Property(name string) *Property {
	for i := range o.Properties {
		if o.Properties[i].Name == name {
			return &o.Properties[i]
		}
	}
	return nil
}

// IsRequired reports whether name is listed in Required.
func (o *Object) IsRequired(name string) bool {
	for _, r := range o.Required {
		if r == name {
			return true
		}
	}
	return false
}

// Token is a nominal, payload-free definition used as an enumerable constant.
type Token struct{ typeBase }

func (*Token) Kind() Kind { return KindToken }

// Record describes a persisted record. Key names the record key strategy.
type Record struct {
	typeBase
	Key    string  `lex:"key"`
	Record *Object `lex:"record" validate:"required"`
}

func (*Record) Kind() Kind { return KindRecord }

// Encoding is the MIME type (or set of alternatives) of an XRPC body.
type Encoding struct {
	Values []string `lex:"values" validate:"dive,mimepattern"`

	// Multi is set when the encoding was declared as a list. A multi-valued
	// encoding is negotiated per request, so bodies may also be opaque bytes.
	Multi bool
}

// IsMulti reports whether the encoding was given as a set of alternatives.
func (e Encoding) IsMulti() bool { return e.Multi }

// IsZero reports whether no encoding was declared.
func (e Encoding) IsZero() bool { return len(e.Values) == 0 }

// Body describes an XRPC input or output. A body whose Encoding is zero
// carries nothing on the wire.
type Body struct {
	Description string
	Encoding    Encoding `lex:"encoding"`

	// Schema is nil, *Ref, *Union or *Object.
	Schema UserType `lex:"schema"`
}

// NamedError is one declared XRPC error.
type NamedError struct {
	Name        string `lex:"name" validate:"required,alphanum"`
	Description string
}

// Query is a read-only XRPC method.
type Query struct {
	typeBase
	Parameters *Object      `lex:"parameters"`
	Output     *Body        `lex:"output"`
	Errors     []NamedError `lex:"errors" validate:"dive"`
}

func (*Query) Kind() Kind { return KindQuery }

// Procedure is a side-effecting XRPC method.
type Procedure struct {
	typeBase
	Parameters *Object      `lex:"parameters"`
	Input      *Body        `lex:"input"`
	Output     *Body        `lex:"output"`
	Errors     []NamedError `lex:"errors" validate:"dive"`
}

func (*Procedure) Kind() Kind { return KindProcedure }

// Ref points at another definition by address.
type Ref struct {
	typeBase
	Ref string `lex:"ref" validate:"required"`
}

func (*Ref) Kind() Kind { return KindRef }

// Union is a closed choice among referenced definitions.
type Union struct {
	typeBase
	Refs []string `lex:"refs" validate:"min=1,dive,required"`
}

func (*Union) Kind() Kind { return KindUnion }

// Method returns the parameters, input, output and errors shared by queries
// and procedures. ok is false for other kinds.
func Method(t UserType) (params *Object, input, output *Body, errs []NamedError, ok bool) {
	switch m := t.(type) {
	case *Query:
		return m.Parameters, nil, m.Output, m.Errors, true
	case *Procedure:
		return m.Parameters, m.Input, m.Output, m.Errors, true
	}
	return nil, nil, nil, nil, false
}
