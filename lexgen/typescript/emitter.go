// Package typescript renders units as TypeScript modules for the atproto
// runtime: express for HTTP, @atproto/xrpc-server for dispatch and
// @atproto/lexicon for validation.
package typescript

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/broady/lexgen/lexgen/render"
	"github.com/broady/lexgen/lexgen/shape"
)

// Backend renders units as TypeScript.
type Backend struct {
	cfg Config
}

// NewBackend returns a Backend with defaults applied to cfg.
func NewBackend(cfg Config) *Backend {
	return &Backend{cfg: applyDefaults(cfg)}
}

func (*Backend) Name() string      { return "typescript" }
func (*Backend) Extension() string { return ".ts" }

// NewFile starts rendering unit.
func (b *Backend) NewFile(unit *shape.Unit) render.FileBuilder {
	return &Emitter{
		cfg:     b.cfg,
		unit:    unit,
		imports: newImports(unit, b.cfg.ImportExtension),
	}
}

// Emitter renders the declarations of one unit. Imports are collected while
// declarations are written and placed above them by Finish.
type Emitter struct {
	cfg     Config
	unit    *shape.Unit
	imports *imports
	body    bytes.Buffer
	decls   int
}

var _ render.FileBuilder = (*Emitter)(nil)

// begin separates declarations and writes the JSDoc of doc.
func (e *Emitter) begin(doc shape.Documentation) {
	if e.decls > 0 {
		e.body.WriteString("\n")
	}
	e.decls++
	e.emitJSDoc(&e.body, doc, 0)
}

// DeclareInterface emits an exported interface.
func (e *Emitter) DeclareInterface(d *shape.Interface) error {
	obj, err := e.objectExpr(d.Object, 0)
	if err != nil {
		return err
	}
	e.begin(d.Doc())
	fmt.Fprintf(&e.body, "export interface %s %s\n", escapeReservedWord(d.Name), obj)
	return nil
}

// DeclareAlias emits an exported type alias.
func (e *Emitter) DeclareAlias(d *shape.Alias) error {
	typ, err := e.typeExpr(d.Type, 0)
	if err != nil {
		return err
	}
	e.begin(d.Doc())
	fmt.Fprintf(&e.body, "export type %s = %s\n", escapeReservedWord(d.Name), typ)
	return nil
}

// DeclareConst emits an exported constant.
func (e *Emitter) DeclareConst(d *shape.Const) error {
	annotation := ""
	if d.Type != nil {
		typ, err := e.typeExpr(d.Type, 0)
		if err != nil {
			return err
		}
		annotation = ": " + typ
	}
	value, err := e.expr(d.Value, 0)
	if err != nil {
		return err
	}
	e.begin(d.Doc())
	fmt.Fprintf(&e.body, "export const %s%s = %s\n", escapeReservedWord(d.Name), annotation, value)
	return nil
}

// DeclareFunction emits an exported function.
func (e *Emitter) DeclareFunction(d *shape.Function) error {
	var buf bytes.Buffer
	if err := e.callable(&buf, "export function "+escapeReservedWord(d.Name), d.Params, d.Result, d.Body, 0); err != nil {
		return err
	}
	e.begin(d.Doc())
	e.body.Write(buf.Bytes())
	return nil
}

// DeclareClass emits an exported class.
func (e *Emitter) DeclareClass(d *shape.Class) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "export class %s {\n", escapeReservedWord(d.Name))
	ind := e.cfg.indent(1)
	for _, f := range d.Fields {
		typ, err := e.typeExpr(f.Type, 1)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		e.emitJSDoc(&buf, f.Doc, 1)
		opt := ""
		if f.Optional {
			opt = "?"
		}
		fmt.Fprintf(&buf, "%s%s%s: %s\n", ind, propertyName(f.Name), opt, typ)
	}
	if d.Ctor != nil {
		buf.WriteString("\n")
		if err := e.callable(&buf, ind+"constructor", d.Ctor.Params, nil, d.Ctor.Body, 1); err != nil {
			return fmt.Errorf("constructor: %w", err)
		}
	}
	for _, m := range d.Methods {
		buf.WriteString("\n")
		if err := e.callable(&buf, ind+propertyName(m.Name), m.Params, m.Result, m.Body, 1); err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
	}
	buf.WriteString("}\n")

	e.begin(d.Doc())
	e.body.Write(buf.Bytes())
	return nil
}

// callable writes head(params): result { body } at depth.
func (e *Emitter) callable(buf *bytes.Buffer, head string, params []shape.Param, result shape.Type, body []shape.Stmt, depth int) error {
	ps, err := e.params(params, depth)
	if err != nil {
		return err
	}
	buf.WriteString(head)
	buf.WriteString("(")
	buf.WriteString(ps)
	buf.WriteString(")")
	if result != nil {
		typ, err := e.typeExpr(result, depth)
		if err != nil {
			return err
		}
		buf.WriteString(": ")
		buf.WriteString(typ)
	}
	buf.WriteString(" {\n")
	for _, s := range body {
		stmt, err := e.stmt(s, depth+1)
		if err != nil {
			return err
		}
		buf.WriteString(e.cfg.indent(depth + 1))
		buf.WriteString(stmt)
		buf.WriteString("\n")
	}
	buf.WriteString(e.cfg.indent(depth))
	buf.WriteString("}\n")
	return nil
}

func (e *Emitter) params(params []shape.Param, depth int) (string, error) {
	parts := make([]string, len(params))
	for i, p := range params {
		typ, err := e.typeExpr(p.Type, depth)
		if err != nil {
			return "", fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		opt := ""
		if p.Optional {
			opt = "?"
		}
		parts[i] = escapeReservedWord(p.Name) + opt + ": " + typ
	}
	return strings.Join(parts, ", "), nil
}

// Finish assembles frontmatter, imports and declarations.
func (e *Emitter) Finish() ([]byte, error) {
	var out bytes.Buffer
	if e.cfg.Frontmatter != "" {
		out.WriteString(e.cfg.Frontmatter)
		out.WriteString("\n")
	}
	var imps bytes.Buffer
	e.imports.write(&imps, e.unit.Deps)
	if imps.Len() > 0 {
		out.WriteString(imps.String())
	}
	if e.body.Len() > 0 {
		if out.Len() > 0 {
			out.WriteString("\n")
		}
		out.Write(e.body.Bytes())
	}
	return out.Bytes(), nil
}

// typeExpr emits a type expression. depth is the indent level of the line
// the expression starts on.
func (e *Emitter) typeExpr(t shape.Type, depth int) (string, error) {
	switch t := t.(type) {
	case nil:
		return "", errors.New("missing type")
	case *shape.Scalar:
		return scalarType(t.Scalar), nil
	case *shape.Literal:
		return literal(t.Value), nil
	case *shape.Union:
		return e.unionExpr(t, depth)
	case *shape.Object:
		return e.objectExpr(t, depth)
	case *shape.Array:
		elem, err := e.typeExpr(t.Element, depth)
		if err != nil {
			return "", err
		}
		if needsParens(t.Element) {
			elem = "(" + elem + ")"
		}
		return elem + "[]", nil
	case *shape.Blob:
		return e.imports.useRuntime(shape.RuntimeBlobRef)
	case *shape.Ref:
		if t.Unit == "" || t.Unit == e.unit.Name {
			return escapeReservedWord(t.Name), nil
		}
		return e.imports.useNamespace(t.Unit) + "." + t.Name, nil
	case *shape.Bytes:
		return "Uint8Array", nil
	case *shape.Void:
		return "undefined", nil
	case *shape.Func:
		ps, err := e.params(t.Params, depth)
		if err != nil {
			return "", err
		}
		res, err := e.resultExpr(t.Result, depth)
		if err != nil {
			return "", err
		}
		if t.MaybeAsync {
			res = res + " | Promise<" + res + ">"
		}
		return "(" + ps + ") => " + res, nil
	case *shape.Runtime:
		return e.imports.useRuntime(t.Handle)
	case *shape.Predicate:
		target, err := e.typeExpr(t.Target, depth)
		if err != nil {
			return "", err
		}
		return t.Param + " is " + target, nil
	}
	return "", fmt.Errorf("unsupported type kind: %s", t.Kind())
}

// resultExpr emits a result type, where a missing value is void.
func (e *Emitter) resultExpr(t shape.Type, depth int) (string, error) {
	if _, ok := t.(*shape.Void); ok {
		return "void", nil
	}
	return e.typeExpr(t, depth)
}

func (e *Emitter) unionExpr(u *shape.Union, depth int) (string, error) {
	parts := make([]string, 0, len(u.Members)+1)
	for _, m := range u.Members {
		part, err := e.resultExpr(m, depth)
		if err != nil {
			return "", err
		}
		if _, ok := m.(*shape.Func); ok {
			part = "(" + part + ")"
		}
		parts = append(parts, part)
	}
	if u.Open {
		base := "string"
		if u.Base != nil {
			base = scalarType(u.Base.Scalar)
		}
		parts = append(parts, "("+base+" & {})")
	}
	if len(parts) == 0 {
		return "never", nil
	}
	return strings.Join(parts, " | "), nil
}

// objectExpr emits an object type with one member per line.
func (e *Emitter) objectExpr(o *shape.Object, depth int) (string, error) {
	if len(o.Fields) == 0 && !o.Open {
		return "{}", nil
	}
	var buf bytes.Buffer
	ind := e.cfg.indent(depth + 1)
	buf.WriteString("{\n")
	for _, f := range o.Fields {
		typ, err := e.typeExpr(f.Type, depth+1)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", f.Name, err)
		}
		e.emitJSDoc(&buf, f.Doc, depth+1)
		buf.WriteString(ind)
		buf.WriteString(propertyName(f.Name))
		if f.Optional {
			buf.WriteString("?")
		}
		buf.WriteString(": ")
		buf.WriteString(typ)
		buf.WriteString(";\n")
	}
	if o.Open {
		buf.WriteString(ind)
		buf.WriteString("[k: string]: unknown;\n")
	}
	buf.WriteString(e.cfg.indent(depth))
	buf.WriteString("}")
	return buf.String(), nil
}

func needsParens(t shape.Type) bool {
	switch t := t.(type) {
	case *shape.Union:
		n := len(t.Members)
		if t.Open {
			n++
		}
		return n > 1
	case *shape.Func:
		return true
	}
	return false
}

func scalarType(k shape.ScalarKind) string {
	switch k {
	case shape.ScalarBoolean:
		return "boolean"
	case shape.ScalarNumber, shape.ScalarInteger:
		return "number"
	case shape.ScalarString, shape.ScalarDatetime:
		return "string"
	default:
		return "unknown"
	}
}

func literal(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (e *Emitter) stmt(s shape.Stmt, depth int) (string, error) {
	switch s := s.(type) {
	case *shape.Return:
		v, err := e.expr(s.Value, depth)
		if err != nil {
			return "", err
		}
		return "return " + v, nil
	case *shape.Assign:
		target, err := e.expr(s.Target, depth)
		if err != nil {
			return "", err
		}
		v, err := e.expr(s.Value, depth)
		if err != nil {
			return "", err
		}
		return target + " = " + v, nil
	}
	return "", fmt.Errorf("unsupported statement %T", s)
}

// expr emits a value expression starting on a line at depth.
func (e *Emitter) expr(x shape.Expr, depth int) (string, error) {
	switch x := x.(type) {
	case nil:
		return "", errors.New("missing expression")
	case *shape.Ident:
		return escapeReservedWord(x.Name), nil
	case *shape.This:
		return "this", nil
	case *shape.Str:
		return strconv.Quote(x.Value), nil
	case *shape.Member:
		recv, err := e.expr(x.X, depth)
		if err != nil {
			return "", err
		}
		if isIdentifier(x.Name) {
			return recv + "." + x.Name, nil
		}
		return recv + "[" + strconv.Quote(x.Name) + "]", nil
	case *shape.Call:
		fn, err := e.expr(x.Fn, depth)
		if err != nil {
			return "", err
		}
		args, err := e.args(x.Args, depth)
		if err != nil {
			return "", err
		}
		return fn + "(" + args + ")", nil
	case *shape.New:
		class, err := e.expr(x.Class, depth)
		if err != nil {
			return "", err
		}
		args, err := e.args(x.Args, depth)
		if err != nil {
			return "", err
		}
		return "new " + class + "(" + args + ")", nil
	case *shape.ObjectLit:
		return e.objectLit(x, depth)
	case *shape.JSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, x.Data, e.cfg.indent(depth), e.cfg.indent(1)); err != nil {
			return "", fmt.Errorf("invalid JSON value: %w", err)
		}
		return buf.String(), nil
	case *shape.ValuesOf:
		v, err := e.expr(x.X, depth)
		if err != nil {
			return "", err
		}
		return "Object.values(" + v + ")", nil
	case *shape.Cast:
		v, err := e.expr(x.X, depth)
		if err != nil {
			return "", err
		}
		typ, err := e.typeExpr(x.Type, depth)
		if err != nil {
			return "", err
		}
		return v + " as " + typ, nil
	case *shape.TypeTagCheck:
		return tagCheck(escapeReservedWord(x.Param), x.Tags), nil
	case *shape.RuntimeRef:
		return e.imports.useRuntime(x.Handle)
	case *shape.UnitRef:
		if x.Unit == e.unit.Name {
			return escapeReservedWord(x.Name), nil
		}
		return e.imports.useNamed(x.Unit, x.Name), nil
	}
	return "", fmt.Errorf("unsupported expression %T", x)
}

func (e *Emitter) args(xs []shape.Expr, depth int) (string, error) {
	parts := make([]string, len(xs))
	for i, x := range xs {
		s, err := e.expr(x, depth)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, ", "), nil
}

func (e *Emitter) objectLit(o *shape.ObjectLit, depth int) (string, error) {
	if len(o.Entries) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	ind := e.cfg.indent(depth + 1)
	buf.WriteString("{\n")
	for _, entry := range o.Entries {
		v, err := e.expr(entry.Value, depth+1)
		if err != nil {
			return "", fmt.Errorf("entry %s: %w", entry.Key, err)
		}
		buf.WriteString(ind)
		buf.WriteString(propertyName(entry.Key))
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString(",\n")
	}
	buf.WriteString(e.cfg.indent(depth))
	buf.WriteString("}")
	return buf.String(), nil
}

// tagCheck tests that v is an object whose $type is one of tags.
func tagCheck(v string, tags []string) string {
	cmps := make([]string, len(tags))
	for i, tag := range tags {
		cmps[i] = v + ".$type === " + strconv.Quote(tag)
	}
	cond := strings.Join(cmps, " || ")
	if len(cmps) > 1 {
		cond = "(" + cond + ")"
	}
	return fmt.Sprintf("typeof %s === 'object' && %s !== null && '$type' in %s && %s", v, v, v, cond)
}

// emitJSDoc emits JSDoc-style documentation comments at depth.
func (e *Emitter) emitJSDoc(buf *bytes.Buffer, doc shape.Documentation, depth int) {
	if e.cfg.OmitComments || doc.IsZero() {
		return
	}

	var lines []string
	if body := strings.TrimSpace(doc.Body); body != "" {
		for _, line := range strings.Split(body, "\n") {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	lines = append(lines, doc.Notes...)

	ind := e.cfg.indent(depth)
	if len(lines) == 1 {
		buf.WriteString(ind)
		buf.WriteString("/** ")
		buf.WriteString(escapeComment(lines[0]))
		buf.WriteString(" */\n")
		return
	}

	buf.WriteString(ind)
	buf.WriteString("/**\n")
	for _, line := range lines {
		buf.WriteString(ind)
		buf.WriteString(" *")
		if line != "" {
			buf.WriteString(" ")
			buf.WriteString(escapeComment(line))
		}
		buf.WriteString("\n")
	}
	buf.WriteString(ind)
	buf.WriteString(" */\n")
}

func escapeComment(s string) string { return strings.ReplaceAll(s, "*/", "*\\/") }
