package shape

// Expr is a value expression used in constant initializers and bodies.
type Expr interface {
	sealedExpr()
}

type exprBase struct{}

func (exprBase) sealedExpr() {}

// Ident names a parameter or a declaration of the current unit.
type Ident struct {
	exprBase
	Name string
}

// This is the receiver inside a class body.
type This struct{ exprBase }

// Str is a string constant.
type Str struct {
	exprBase
	Value string
}

// Member selects Name from X.
type Member struct {
	exprBase
	X    Expr
	Name string
}

// Call invokes Fn with Args.
type Call struct {
	exprBase
	Fn   Expr
	Args []Expr
}

// New constructs an instance of Class.
type New struct {
	exprBase
	Class Expr
	Args  []Expr
}

// ObjectLit is an object literal with entries in order.
type ObjectLit struct {
	exprBase
	Entries []Entry
}

// Entry is one key/value pair of an ObjectLit.
type Entry struct {
	Key   string
	Value Expr
}

// JSON is a pre-encoded JSON value, emitted verbatim.
type JSON struct {
	exprBase
	Data []byte
}

// ValuesOf lists the values of an object in key order.
type ValuesOf struct {
	exprBase
	X Expr
}

// Cast asserts that X has type Type.
type Cast struct {
	exprBase
	X    Expr
	Type Type
}

// TypeTagCheck tests that the value in Param is an object whose "$type"
// field equals one of Tags.
type TypeTagCheck struct {
	exprBase
	Param string
	Tags  []string
}

// RuntimeRef names a value supplied by a runtime collaborator.
type RuntimeRef struct {
	exprBase
	Handle RuntimeHandle
}

// UnitRef names an exported value of another unit.
type UnitRef struct {
	exprBase
	Unit string
	Name string
}

// Convenience constructors for expressions.
func Id(name string) *Ident { return &Ident{Name: name} }
func S(value string) *Str { return &Str{Value: value} }
func Sel(x Expr, name string) *Member { return &Member{X: x, Name: name} }
func ThisSel(name string) *Member { return &Member{X: &This{}, Name: name} }
func CallOf(fn Expr, args ...Expr) *Call { return &Call{Fn: fn, Args: args} }
func NewOf(class Expr, args ...Expr) *New { return &New{Class: class, Args: args} }
func RuntimeValue(h RuntimeHandle) *RuntimeRef { return &RuntimeRef{Handle: h} }
func ValueOf(unit, name string) *UnitRef { return &UnitRef{Unit: unit, Name: name} }
func Obj(entries ...Entry) *ObjectLit { return &ObjectLit{Entries: entries} }
func RawJSON(data []byte) *JSON { return &JSON{Data: data} }
func Values(x Expr) *ValuesOf { return &ValuesOf{X: x} }
func As(x Expr, t Type) *Cast { return &Cast{X: x, Type: t} }
func TagCheck(param string, tags ...string) *TypeTagCheck {
	return &TypeTagCheck{Param: param, Tags: tags}
}

// Stmt is one statement of a function, method or constructor body.
type Stmt interface {
	sealedStmt()
}

// Return returns Value.
type Return struct {
	Value Expr
}

func (*Return) sealedStmt() {}

// Assign stores Value into Target.
type Assign struct {
	Target Expr
	Value  Expr
}

func (*Assign) sealedStmt() {}
