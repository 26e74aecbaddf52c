// Package shape defines the code shapes derived from lexicon documents.
// Shapes are language-agnostic; rendering back-ends turn them into source text.
package shape

// TypeKind identifies the category of a type shape.
type TypeKind int

const (
	KindScalar    TypeKind = iota // Built-in scalar
	KindLiteral                   // A single constant value
	KindUnion                     // Choice among member types
	KindObject                    // Record of named fields
	KindArray                     // Ordered sequence
	KindBlob                      // Opaque attachment handle
	KindRef                       // Reference to a named declaration
	KindBytes                     // Opaque byte payload
	KindVoid                      // No-body marker
	KindFunc                      // Callable signature
	KindRuntime                   // Type provided by the runtime collaborators
	KindPredicate                 // Type-guard result ("v is T")
)

// String returns the string representation of the type kind.
func (k TypeKind) String() string {
	switch k {
	case KindScalar:
		return "Scalar"
	case KindLiteral:
		return "Literal"
	case KindUnion:
		return "Union"
	case KindObject:
		return "Object"
	case KindArray:
		return "Array"
	case KindBlob:
		return "Blob"
	case KindRef:
		return "Ref"
	case KindBytes:
		return "Bytes"
	case KindVoid:
		return "Void"
	case KindFunc:
		return "Func"
	case KindRuntime:
		return "Runtime"
	case KindPredicate:
		return "Predicate"
	default:
		return "Unknown"
	}
}

// Type is the base interface for all type shapes.
type Type interface {
	// Kind returns the shape kind for type switching.
	Kind() TypeKind

	// Ensure only types in this package can implement Type.
	sealed()
}

type typeBase struct{}

func (typeBase) sealed() {}

// ScalarKind identifies a scalar.
type ScalarKind int

const (
	ScalarBoolean ScalarKind = iota
	ScalarNumber
	ScalarInteger
	ScalarString
	ScalarDatetime // RFC 3339 string
	ScalarUnknown  // any value
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarBoolean:
		return "boolean"
	case ScalarNumber:
		return "number"
	case ScalarInteger:
		return "integer"
	case ScalarString:
		return "string"
	case ScalarDatetime:
		return "datetime"
	case ScalarUnknown:
		return "unknown"
	}
	return "invalid"
}

// Scalar is a built-in scalar type.
type Scalar struct {
	typeBase
	Scalar ScalarKind
}

func (*Scalar) Kind() TypeKind { return KindScalar }

// Convenience constructors for scalars.
func Boolean() *Scalar  { return &Scalar{Scalar: ScalarBoolean} }
func Number() *Scalar   { return &Scalar{Scalar: ScalarNumber} }
func Integer() *Scalar  { return &Scalar{Scalar: ScalarInteger} }
func String() *Scalar   { return &Scalar{Scalar: ScalarString} }
func Datetime() *Scalar { return &Scalar{Scalar: ScalarDatetime} }
func Unknown() *Scalar  { return &Scalar{Scalar: ScalarUnknown} }

// Literal is a single constant. Value is a string, int64, float64 or bool.
type Literal struct {
	typeBase
	Value any
}

func (*Literal) Kind() TypeKind { return KindLiteral }

// Lit returns a Literal for v.
func Lit(v any) *Literal { return &Literal{Value: v} }

// Union is a choice among Members.
//
// An Open union also admits any value of its Base scalar; it models
// suggested-but-not-closed value sets. Closed unions are implicitly tagged:
// back-ends never add a discriminator.
type Union struct {
	typeBase
	Members []Type
	Open    bool
	Base    *Scalar
}

func (*Union) Kind() TypeKind { return KindUnion }

// UnionOf returns a closed union.
func UnionOf(members ...Type) *Union { return &Union{Members: members} }

// Literals returns a closed union of literal strings.
func Literals(values ...string) *Union {
	u := &Union{Members: make([]Type, len(values))}
	for i, v := range values {
		u.Members[i] = Lit(v)
	}
	return u
}

// Object is a record of named fields.
// An Open object tolerates unknown keys beyond Fields.
type Object struct {
	typeBase
	Fields []Field
	Open   bool
}

func (*Object) Kind() TypeKind { return KindObject }

// Field is one member of an Object.
type Field struct {
	Name     string
	Type     Type
	Optional bool
	Doc      Documentation
}

// Array is an ordered sequence of Element.
type Array struct {
	typeBase
	Element Type
}

func (*Array) Kind() TypeKind { return KindArray }

// ArrayOf returns an Array of element.
func ArrayOf(element Type) *Array { return &Array{Element: element} }

// Blob is a handle to an attachment. It never carries the bytes themselves.
type Blob struct {
	typeBase

	// Variant is "blob", "image", "video" or "audio".
	Variant string
	Accept  []string
	MaxSize *int64
}

func (*Blob) Kind() TypeKind { return KindBlob }

// Ref names a declaration. Unit is the owning unit's name, empty for the
// unit that contains the reference.
type Ref struct {
	typeBase
	Unit string
	Name string
}

func (*Ref) Kind() TypeKind { return KindRef }

// Local returns a Ref to a declaration in the same unit.
func Local(name string) *Ref { return &Ref{Name: name} }

// RefTo returns a Ref to a declaration in another unit.
func RefTo(unit, name string) *Ref { return &Ref{Unit: unit, Name: name} }

// Bytes is an opaque binary payload.
type Bytes struct{ typeBase }

func (*Bytes) Kind() TypeKind { return KindBytes }

// Void marks the absence of a body.
type Void struct{ typeBase }

func (*Void) Kind() TypeKind { return KindVoid }

// Func is a callable signature. MaybeAsync results may be returned directly
// or through the target's asynchronous wrapper.
type Func struct {
	typeBase
	Params     []Param
	Result     Type
	MaybeAsync bool
}

func (*Func) Kind() TypeKind { return KindFunc }

// Param is one parameter of a function, method or constructor.
type Param struct {
	Name     string
	Type     Type
	Optional bool
}

// RuntimeHandle names a type or value supplied by the runtime collaborators:
// the HTTP layer, the dispatch server and the value validator.
type RuntimeHandle string

const (
	RuntimeRequest          RuntimeHandle = "request"
	RuntimeResponse         RuntimeHandle = "response"
	RuntimeServer           RuntimeHandle = "dispatch-server"
	RuntimeServerOptions    RuntimeHandle = "dispatch-options"
	RuntimeCreateServer     RuntimeHandle = "create-dispatch-server"
	RuntimeValidationResult RuntimeHandle = "validation-result"
	RuntimeValidator        RuntimeHandle = "validator"
	RuntimeSchema           RuntimeHandle = "schema-document"
	RuntimeBlobRef          RuntimeHandle = "blob-ref"
)

// Runtime is a type provided by a runtime collaborator.
type Runtime struct {
	typeBase
	Handle RuntimeHandle
}

func (*Runtime) Kind() TypeKind { return KindRuntime }

// RuntimeType returns the Runtime type for h.
func RuntimeType(h RuntimeHandle) *Runtime { return &Runtime{Handle: h} }

// Predicate is the result type of a type guard: Param is known to be Target
// when the guard returns true.
type Predicate struct {
	typeBase
	Param  string
	Target Type
}

func (*Predicate) Kind() TypeKind { return KindPredicate }
