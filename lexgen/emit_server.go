package lexgen

import (
	"github.com/broady/lexgen/internal/casing"
	"github.com/broady/lexgen/lexgen/shape"
)

// emitIndex derives the index unit: one constant per token group, the
// createServer entry point, the Server class owning the dispatch server,
// and one namespace class per tree node.
func emitIndex(tree *Tree, tokens *TokenGroups) (*shape.Unit, error) {
	b := newUnitBuilder(shape.IndexUnit, shape.UnitIndex)

	for _, prefix := range tokens.Prefixes() {
		lit := shape.Obj()
		for _, name := range tokens.Names(prefix) {
			lit.Entries = append(lit.Entries, shape.Entry{
				Key:   casing.Title(name),
				Value: shape.S(prefix + "." + name),
			})
		}
		if err := b.declare(shape.NewConst(tokenConstName(prefix), shape.Documentation{}, nil, lit)); err != nil {
			return nil, err
		}
	}

	options := []shape.Param{{Name: "options", Type: shape.RuntimeType(shape.RuntimeServerOptions), Optional: true}}
	if err := b.declare(shape.NewFunction("createServer", shape.Documentation{}, options,
		shape.Local(nameServer),
		&shape.Return{Value: shape.NewOf(shape.Id(nameServer), shape.Id("options"))},
	)); err != nil {
		return nil, err
	}

	server := shape.NewClass(nameServer, shape.Documentation{})
	server.Fields = append(server.Fields, shape.Field{Name: "xrpc", Type: shape.RuntimeType(shape.RuntimeServer)})
	b.unit.AddDep(shape.LexiconsUnit)
	server.Ctor = &shape.Method{
		Params: options,
		Body: []shape.Stmt{&shape.Assign{
			Target: shape.ThisSel("xrpc"),
			Value: shape.CallOf(shape.RuntimeValue(shape.RuntimeCreateServer),
				shape.ValueOf(shape.LexiconsUnit, "schemas"), shape.Id("options")),
		}},
	}
	for _, id := range tree.Roots() {
		n := tree.Node(id)
		addChild(server, n, &shape.This{})
	}
	if err := b.declare(server); err != nil {
		return nil, err
	}

	var err error
	tree.Walk(func(n *TreeNode, _ int) {
		if err != nil {
			return
		}
		err = b.declare(namespaceClass(tree, n, b.unit))
	})
	if err != nil {
		return nil, err
	}
	return b.unit, nil
}

// addChild adds the property for child namespace n to c and initializes it
// in c's constructor with server.
func addChild(c *shape.Class, n *TreeNode, server shape.Expr) {
	name := nsClassName(n.Path)
	member := memberName(n.Segment)
	c.Fields = append(c.Fields, shape.Field{Name: member, Type: shape.Local(name)})
	c.Ctor.Body = append(c.Ctor.Body, &shape.Assign{
		Target: shape.ThisSel(member),
		Value:  shape.NewOf(shape.Id(name), server),
	})
}

// namespaceClass builds the class of node n. Every namespace class shares
// the Server's dispatch handle through _server.
func namespaceClass(tree *Tree, n *TreeNode, unit *shape.Unit) *shape.Class {
	c := shape.NewClass(nsClassName(n.Path), shape.Documentation{})
	c.Fields = append(c.Fields, shape.Field{Name: "_server", Type: shape.Local(nameServer)})
	c.Ctor = &shape.Method{
		Params: []shape.Param{{Name: "server", Type: shape.Local(nameServer)}},
		Body: []shape.Stmt{&shape.Assign{
			Target: shape.ThisSel("_server"),
			Value:  shape.Id("server"),
		}},
	}
	for _, id := range n.Children {
		addChild(c, tree.Node(id), shape.Id("server"))
	}

	dispatch := shape.Sel(shape.Sel(shape.ThisSel("_server"), "xrpc"), "method")
	for _, m := range n.Methods {
		nsid := m.Document.ID
		unit.AddDep(nsid)
		c.Methods = append(c.Methods, shape.Method{
			Name:   memberName(m.Name),
			Params: []shape.Param{{Name: "handler", Type: shape.RefTo(nsid, nameHandler)}},
			Body: []shape.Stmt{&shape.Return{
				Value: shape.CallOf(dispatch, shape.S(nsid), shape.Id("handler")),
			}},
		})
	}
	return c
}
