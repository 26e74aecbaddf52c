package shape

import "strings"

// Documentation holds the prose attached to a declaration or field.
type Documentation struct {
	// Body is the description from the source document.
	Body string

	// Notes are short facts that have no type-level representation, such as
	// "maxLength: 300". Back-ends render them after Body.
	Notes []string
}

// IsZero returns true if the documentation is empty.
func (d Documentation) IsZero() bool {
	return strings.TrimSpace(d.Body) == "" && len(d.Notes) == 0
}

// DeclKind identifies the category of a declaration.
type DeclKind int

const (
	DeclInterface DeclKind = iota
	DeclAlias
	DeclConst
	DeclFunction
	DeclClass
)

func (k DeclKind) String() string {
	switch k {
	case DeclInterface:
		return "Interface"
	case DeclAlias:
		return "Alias"
	case DeclConst:
		return "Const"
	case DeclFunction:
		return "Function"
	case DeclClass:
		return "Class"
	default:
		return "Unknown"
	}
}

// Decl is one exported top-level declaration of a unit.
type Decl interface {
	DeclKind() DeclKind
	DeclName() string
	Doc() Documentation
	sealedDecl()
}

type declBase struct {
	Name          string
	Documentation Documentation
}

func (d declBase) DeclName() string   { return d.Name }
func (d declBase) Doc() Documentation { return d.Documentation }
func (declBase) sealedDecl()          {}

// Interface declares a named object type.
type Interface struct {
	declBase
	Object *Object
}

func (*Interface) DeclKind() DeclKind { return DeclInterface }

// NewInterface returns an Interface declaration.
func NewInterface(name string, doc Documentation, obj *Object) *Interface {
	return &Interface{declBase: declBase{Name: name, Documentation: doc}, Object: obj}
}

// Alias declares a name for a type expression.
type Alias struct {
	declBase
	Type Type
}

func (*Alias) DeclKind() DeclKind { return DeclAlias }

// NewAlias returns an Alias declaration.
func NewAlias(name string, doc Documentation, t Type) *Alias {
	return &Alias{declBase: declBase{Name: name, Documentation: doc}, Type: t}
}

// Const declares a named value. Type is nil when it is inferred from Value.
type Const struct {
	declBase
	Type  Type
	Value Expr
}

func (*Const) DeclKind() DeclKind { return DeclConst }

// NewConst returns a Const declaration.
func NewConst(name string, doc Documentation, t Type, value Expr) *Const {
	return &Const{declBase: declBase{Name: name, Documentation: doc}, Type: t, Value: value}
}

// Function declares a named function.
type Function struct {
	declBase
	Params []Param
	Result Type
	Body   []Stmt
}

func (*Function) DeclKind() DeclKind { return DeclFunction }

// NewFunction returns a Function declaration.
func NewFunction(name string, doc Documentation, params []Param, result Type, body ...Stmt) *Function {
	return &Function{
		declBase: declBase{Name: name, Documentation: doc},
		Params:   params,
		Result:   result,
		Body:     body,
	}
}

// Class declares a class with fields, a constructor and methods.
type Class struct {
	declBase
	Fields  []Field
	Ctor    *Method
	Methods []Method
}

func (*Class) DeclKind() DeclKind { return DeclClass }

// NewClass returns an empty Class declaration.
func NewClass(name string, doc Documentation) *Class {
	return &Class{declBase: declBase{Name: name, Documentation: doc}}
}

// Method is a class method or constructor. Constructors have no Name and no Result.
type Method struct {
	Name   string
	Params []Param
	Result Type
	Body   []Stmt
}
