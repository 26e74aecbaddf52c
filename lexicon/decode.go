package lexicon

import (
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeDocument parses JSON or YAML text and validates it with ParseDocument.
// Key order in the source is preserved.
func DecodeDocument(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &Error{
			Code:    CodeSchemaMalformed,
			Message: "document is not valid JSON or YAML",
			Value:   string(data),
			Err:     err,
		}
	}
	return ParseDocument(&node)
}

// ParseDocument validates a raw document value against the schema model and
// returns the typed document. raw is a *yaml.Node (order preserving) or any
// value yaml.v3 can encode, such as the map[string]any produced by
// encoding/json; map keys of such values are sorted.
//
// On failure the error is a *Error with CodeSchemaMalformed listing every
// violation found. No partially valid document is ever returned.
func ParseDocument(raw any) (*Document, error) {
	node, err := toNode(raw)
	if err != nil {
		return nil, &Error{
			Code:    CodeSchemaMalformed,
			Message: "value cannot be read as a document",
			Value:   raw,
			Err:     err,
		}
	}

	d := &decoder{}
	doc := d.document(node)
	if len(d.issues) == 0 {
		d.check(doc)
	}
	if len(d.issues) > 0 {
		return nil, &Error{
			Code:     CodeSchemaMalformed,
			Document: d.docID,
			Message:  "invalid lexicon document",
			Value:    raw,
			Issues:   d.issues,
		}
	}

	doc.nsid = MustParseNSID(doc.ID)
	doc.raw = node
	doc.Warnings = d.warnings
	return doc, nil
}

func toNode(raw any) (*yaml.Node, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("nil value")
	case *yaml.Node:
		return unwrap(v), nil
	case yaml.Node:
		return unwrap(&v), nil
	}
	var n yaml.Node
	if err := n.Encode(raw); err != nil {
		return nil, err
	}
	return unwrap(&n), nil
}

// unwrap strips document and alias wrappers.
func unwrap(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

// describe names the JSON kind of n for issue messages.
func describe(n *yaml.Node) string {
	n = unwrap(n)
	if n == nil {
		return "nothing"
	}
	switch n.Kind {
	case yaml.MappingNode:
		return "object"
	case yaml.SequenceNode:
		return "array"
	}
	switch n.ShortTag() {
	case "!!int":
		return "integer " + n.Value
	case "!!float":
		return "number " + n.Value
	case "!!bool":
		return "boolean " + n.Value
	case "!!null":
		return "null"
	}
	return fmt.Sprintf("string %q", n.Value)
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// position is where a type appears; it restricts the kinds allowed there.
type position int

const (
	posDef position = iota
	posProperty
	posItem
	posParam
	posParamItem
	posSchema
)

func (p position) allows(k Kind) bool {
	switch p {
	case posDef:
		return k != KindRef && k != KindUnion && k != KindParams
	case posProperty:
		return k.IsPrimitive() || k.IsBlob() || k == KindArray || k == KindRef || k == KindUnion
	case posItem:
		return k.IsPrimitive() || k.IsBlob() || k == KindRef || k == KindUnion
	case posParam:
		return k.IsPrimitive() || k == KindArray
	case posParamItem:
		return k.IsPrimitive()
	case posSchema:
		return k == KindObject || k == KindRef || k == KindUnion
	}
	return false
}

func (p position) expected() string {
	switch p {
	case posDef:
		return "a definition kind"
	case posProperty:
		return "primitive, blob, array, ref or union"
	case posItem:
		return "primitive, blob, ref or union"
	case posParam:
		return "primitive or array of primitives"
	case posParamItem:
		return "primitive"
	case posSchema:
		return "object, ref or union"
	}
	return ""
}

// shorthand reports whether bare strings (refs) and string lists (unions)
// are accepted in place of a typed node.
func (p position) shorthand() bool {
	return p == posProperty || p == posItem || p == posSchema
}

var knownKinds = map[Kind]bool{
	KindBoolean: true, KindNumber: true, KindInteger: true, KindString: true,
	KindDatetime: true, KindUnknown: true, KindBlob: true, KindImage: true,
	KindVideo: true, KindAudio: true, KindArray: true, KindObject: true,
	KindToken: true, KindRecord: true, KindQuery: true, KindProcedure: true,
	KindParams: true, KindRef: true, KindUnion: true,
}

type decoder struct {
	issues   []Issue
	warnings []Warning
	docID    string
}

func (d *decoder) fail(path, message, expected string, actual *yaml.Node) {
	issue := Issue{Path: path, Message: message, Expected: expected}
	if expected != "" {
		issue.Actual = describe(actual)
	}
	d.issues = append(d.issues, issue)
}

func (d *decoder) warn(code, path, format string, args ...any) {
	d.warnings = append(d.warnings, Warning{
		Code:     code,
		Document: d.docID,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	})
}

// fields is a mapping node being decoded at path.
type fields struct {
	d    *decoder
	n    *yaml.Node
	path string
}

func (d *decoder) fields(n *yaml.Node, path string) (fields, bool) {
	n = unwrap(n)
	if n == nil || n.Kind != yaml.MappingNode {
		d.fail(path, "must be an object", "object", n)
		return fields{}, false
	}
	return fields{d: d, n: n, path: path}, true
}

type pair struct {
	key string
	val *yaml.Node
}

// pairs returns the entries in source order. yaml.v3 keeps repeated keys
// in a node, so a repeat is reported and dropped here.
func (f fields) pairs() []pair {
	out := make([]pair, 0, len(f.n.Content)/2)
	seen := make(map[string]bool, len(f.n.Content)/2)
	for i := 0; i+1 < len(f.n.Content); i += 2 {
		key := f.n.Content[i].Value
		if seen[key] {
			f.d.fail(f.at(key), "duplicate key", "", nil)
			continue
		}
		seen[key] = true
		out = append(out, pair{key: key, val: unwrap(f.n.Content[i+1])})
	}
	return out
}

func (f fields) get(key string) *yaml.Node {
	for i := 0; i+1 < len(f.n.Content); i += 2 {
		if f.n.Content[i].Value == key {
			return unwrap(f.n.Content[i+1])
		}
	}
	return nil
}

func (f fields) at(key string) string { return join(f.path, key) }

func (f fields) requiredString(key string) (string, bool) {
	n := f.get(key)
	if n == nil {
		f.d.fail(f.at(key), "required", "string", nil)
		return "", false
	}
	return f.d.str(n, f.at(key))
}

func (f fields) optString(key string) *string {
	n := f.get(key)
	if n == nil {
		return nil
	}
	s, ok := f.d.str(n, f.at(key))
	if !ok {
		return nil
	}
	return &s
}

func (f fields) optBool(key string) *bool {
	n := f.get(key)
	if n == nil {
		return nil
	}
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		f.d.fail(f.at(key), "must be a boolean", "boolean", n)
		return nil
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		f.d.fail(f.at(key), err.Error(), "boolean", n)
		return nil
	}
	return &b
}

func (f fields) optInt(key string) *int64 {
	n := f.get(key)
	if n == nil {
		return nil
	}
	v, ok := f.d.integer(n, f.at(key))
	if !ok {
		return nil
	}
	return &v
}

func (f fields) optLength(key string) *int {
	v := f.optInt(key)
	if v == nil {
		return nil
	}
	if *v < 0 {
		f.d.fail(f.at(key), "must not be negative", "non-negative integer", f.get(key))
		return nil
	}
	i := int(*v)
	return &i
}

func (f fields) optFloat(key string) *float64 {
	n := f.get(key)
	if n == nil {
		return nil
	}
	v, ok := f.d.number(n, f.at(key))
	if !ok {
		return nil
	}
	return &v
}

func (f fields) stringList(key string) []string {
	n := f.get(key)
	if n == nil {
		return nil
	}
	return f.d.strList(n, f.at(key))
}

func (f fields) intList(key string) []int64 {
	n, ok := f.list(key)
	if !ok {
		return nil
	}
	out := make([]int64, 0, len(n.Content))
	for i, item := range n.Content {
		if v, ok := f.d.integer(unwrap(item), fmt.Sprintf("%s[%d]", f.at(key), i)); ok {
			out = append(out, v)
		}
	}
	return out
}

func (f fields) floatList(key string) []float64 {
	n, ok := f.list(key)
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(n.Content))
	for i, item := range n.Content {
		if v, ok := f.d.number(unwrap(item), fmt.Sprintf("%s[%d]", f.at(key), i)); ok {
			out = append(out, v)
		}
	}
	return out
}

func (f fields) list(key string) (*yaml.Node, bool) {
	n := f.get(key)
	if n == nil {
		return nil, false
	}
	if n.Kind != yaml.SequenceNode {
		f.d.fail(f.at(key), "must be an array", "array", n)
		return nil, false
	}
	return n, true
}

func (d *decoder) str(n *yaml.Node, path string) (string, bool) {
	if n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		d.fail(path, "must be a string", "string", n)
		return "", false
	}
	return n.Value, true
}

func (d *decoder) strList(n *yaml.Node, path string) []string {
	if n.Kind != yaml.SequenceNode {
		d.fail(path, "must be an array of strings", "array", n)
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for i, item := range n.Content {
		if s, ok := d.str(unwrap(item), fmt.Sprintf("%s[%d]", path, i)); ok {
			out = append(out, s)
		}
	}
	return out
}

func (d *decoder) integer(n *yaml.Node, path string) (int64, bool) {
	if n.Kind == yaml.ScalarNode {
		switch n.ShortTag() {
		case "!!int":
			var v int64
			if err := n.Decode(&v); err == nil {
				return v, true
			}
		case "!!float":
			// Values decoded from encoding/json arrive as float64.
			var f float64
			if err := n.Decode(&f); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
				return int64(f), true
			}
		}
	}
	d.fail(path, "must be an integer", "integer", n)
	return 0, false
}

func (d *decoder) number(n *yaml.Node, path string) (float64, bool) {
	if n.Kind == yaml.ScalarNode {
		switch n.ShortTag() {
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err == nil {
				return f, true
			}
		}
	}
	d.fail(path, "must be a number", "number", n)
	return 0, false
}

func (d *decoder) document(n *yaml.Node) *Document {
	f, ok := d.fields(n, "")
	if !ok {
		return nil
	}
	doc := &Document{}
	if v := f.optInt("lexicon"); v != nil {
		doc.Lexicon = int(*v)
	}
	if id := f.optString("id"); id != nil {
		doc.ID = *id
		d.docID = *id
	}
	if v := f.optInt("revision"); v != nil {
		r := int(*v)
		doc.Revision = &r
	}
	if v := f.optString("description"); v != nil {
		doc.Description = *v
	}

	defsNode := f.get("defs")
	if defsNode == nil {
		d.fail("defs", "required", "object", nil)
		return doc
	}
	defs, ok := d.fields(defsNode, "defs")
	if !ok {
		return doc
	}
	for _, p := range defs.pairs() {
		t := d.userType(p.val, join("defs", p.key), posDef)
		doc.Defs = append(doc.Defs, Def{Name: p.key, Type: t})
	}
	return doc
}

func (d *decoder) userType(n *yaml.Node, path string, pos position) UserType {
	if n == nil {
		d.fail(path, "required", pos.expected(), nil)
		return nil
	}
	if pos.shorthand() {
		switch n.Kind {
		case yaml.ScalarNode:
			if s, ok := d.str(n, path); ok {
				return &Ref{Ref: s}
			}
			return nil
		case yaml.SequenceNode:
			return &Union{Refs: d.strList(n, path)}
		}
	}

	f, ok := d.fields(n, path)
	if !ok {
		return nil
	}
	typ, ok := f.requiredString("type")
	if !ok {
		return nil
	}
	kind := Kind(typ)
	if !knownKinds[kind] {
		d.fail(f.at("type"), "unknown type", "a lexicon type", f.get("type"))
		return nil
	}
	if !pos.allows(kind) {
		d.fail(f.at("type"), fmt.Sprintf("type %q is not allowed here", typ), pos.expected(), f.get("type"))
		return nil
	}

	base := typeBase{}
	if v := f.optString("description"); v != nil {
		base.Description = *v
	}

	switch kind {
	case KindBoolean:
		return &Boolean{typeBase: base, Default: f.optBool("default"), Const: f.optBool("const")}
	case KindNumber:
		return &Number{
			typeBase: base,
			Default:  f.optFloat("default"),
			Const:    f.optFloat("const"),
			Minimum:  f.optFloat("minimum"),
			Maximum:  f.optFloat("maximum"),
			Enum:     f.floatList("enum"),
		}
	case KindInteger:
		return &Integer{
			typeBase: base,
			Default:  f.optInt("default"),
			Const:    f.optInt("const"),
			Minimum:  f.optInt("minimum"),
			Maximum:  f.optInt("maximum"),
			Enum:     f.intList("enum"),
		}
	case KindString:
		return &String{
			typeBase:    base,
			Default:     f.optString("default"),
			Const:       f.optString("const"),
			MinLength:   f.optLength("minLength"),
			MaxLength:   f.optLength("maxLength"),
			Enum:        f.stringList("enum"),
			KnownValues: f.stringList("knownValues"),
		}
	case KindDatetime:
		return &Datetime{typeBase: base}
	case KindUnknown:
		return &Unknown{typeBase: base}
	case KindToken:
		return &Token{typeBase: base}
	case KindBlob, KindImage, KindVideo, KindAudio:
		return d.blob(f, base, kind)
	case KindArray:
		itemPos := posItem
		if pos == posParam {
			itemPos = posParamItem
		}
		return &Array{
			typeBase:  base,
			Items:     d.userType(f.get("items"), f.at("items"), itemPos),
			MinLength: f.optLength("minLength"),
			MaxLength: f.optLength("maxLength"),
		}
	case KindObject, KindParams:
		propPos := posProperty
		if kind == KindParams {
			propPos = posParam
		}
		return d.object(f, base, kind == KindParams, propPos)
	case KindRecord:
		rec := &Record{typeBase: base}
		if key := f.optString("key"); key != nil {
			rec.Key = *key
		}
		rec.Record = d.objectAt(f.get("record"), f.at("record"), KindObject)
		return rec
	case KindQuery:
		q := &Query{typeBase: base}
		q.Parameters = d.parameters(f)
		q.Output = d.body(f.get("output"), f.at("output"))
		q.Errors = d.namedErrors(f)
		return q
	case KindProcedure:
		p := &Procedure{typeBase: base}
		p.Parameters = d.parameters(f)
		p.Input = d.body(f.get("input"), f.at("input"))
		p.Output = d.body(f.get("output"), f.at("output"))
		p.Errors = d.namedErrors(f)
		return p
	case KindRef:
		ref, _ := f.requiredString("ref")
		return &Ref{typeBase: base, Ref: ref}
	case KindUnion:
		if f.get("refs") == nil {
			d.fail(f.at("refs"), "required", "array of references", nil)
			return nil
		}
		return &Union{typeBase: base, Refs: f.stringList("refs")}
	}
	return nil
}

func (d *decoder) blob(f fields, base typeBase, variant Kind) *Blob {
	b := &Blob{
		typeBase: base,
		Variant:  variant,
		Accept:   f.stringList("accept"),
		MaxSize:  f.optInt("maxSize"),
	}
	switch variant {
	case KindImage:
		b.MaxWidth = f.optInt("maxWidth")
		b.MaxHeight = f.optInt("maxHeight")
	case KindVideo:
		b.MaxWidth = f.optInt("maxWidth")
		b.MaxHeight = f.optInt("maxHeight")
		b.MaxLength = f.optInt("maxLength")
	case KindAudio:
		b.MaxLength = f.optInt("maxLength")
	}
	for _, c := range []struct {
		key     string
		applies bool
	}{
		{"maxWidth", variant == KindImage || variant == KindVideo},
		{"maxHeight", variant == KindImage || variant == KindVideo},
		{"maxLength", variant == KindVideo || variant == KindAudio},
	} {
		if !c.applies && f.get(c.key) != nil {
			d.fail(f.at(c.key), fmt.Sprintf("%s does not apply to %s", c.key, variant), "", nil)
		}
	}
	return b
}

func (d *decoder) object(f fields, base typeBase, params bool, propPos position) *Object {
	obj := &Object{typeBase: base, Params: params}
	obj.Required = f.stringList("required")
	propsNode := f.get("properties")
	if propsNode == nil {
		if params {
			d.fail(f.at("properties"), "required", "object", nil)
		}
		return obj
	}
	props, ok := d.fields(propsNode, f.at("properties"))
	if !ok {
		return obj
	}
	for _, p := range props.pairs() {
		t := d.userType(p.val, props.at(p.key), propPos)
		obj.Properties = append(obj.Properties, Property{Name: p.key, Type: t})
	}
	return obj
}

// objectAt decodes a nested node that must be an object of the given kind.
func (d *decoder) objectAt(n *yaml.Node, path string, kinds ...Kind) *Object {
	if n == nil {
		d.fail(path, "required", "object definition", nil)
		return nil
	}
	f, ok := d.fields(n, path)
	if !ok {
		return nil
	}
	typ, ok := f.requiredString("type")
	if !ok {
		return nil
	}
	for _, k := range kinds {
		if Kind(typ) != k {
			continue
		}
		base := typeBase{}
		if v := f.optString("description"); v != nil {
			base.Description = *v
		}
		if k == KindParams {
			return d.object(f, base, true, posParam)
		}
		return d.object(f, base, false, posProperty)
	}
	want := make([]string, len(kinds))
	for i, k := range kinds {
		want[i] = string(k)
	}
	d.fail(f.at("type"), "wrong definition type", strings.Join(want, " or "), f.get("type"))
	return nil
}

func (d *decoder) parameters(f fields) *Object {
	n := f.get("parameters")
	if n == nil {
		return nil
	}
	return d.objectAt(n, f.at("parameters"), KindParams, KindObject)
}

func (d *decoder) body(n *yaml.Node, path string) *Body {
	if n == nil {
		return nil
	}
	f, ok := d.fields(n, path)
	if !ok {
		return nil
	}
	b := &Body{}
	if v := f.optString("description"); v != nil {
		b.Description = *v
	}
	enc := f.get("encoding")
	switch {
	case enc == nil:
		if f.get("schema") != nil {
			d.warn(WarnBodyWithoutEncoding, f.at("encoding"), "body declares a schema but no encoding; it is treated as absent")
		}
	case enc.Kind == yaml.SequenceNode:
		if len(enc.Content) == 0 {
			d.fail(f.at("encoding"), "must list at least one MIME type", "non-empty array", enc)
			break
		}
		b.Encoding = Encoding{Values: dedupe(d.strList(enc, f.at("encoding"))), Multi: true}
	default:
		if s, ok := d.str(enc, f.at("encoding")); ok {
			b.Encoding = Encoding{Values: []string{s}}
		}
	}
	if schema := f.get("schema"); schema != nil {
		b.Schema = d.userType(schema, f.at("schema"), posSchema)
	}
	return b
}

func (d *decoder) namedErrors(f fields) []NamedError {
	n, ok := f.list("errors")
	if !ok {
		return nil
	}
	out := make([]NamedError, 0, len(n.Content))
	seen := make(map[string]bool, len(n.Content))
	for i, item := range n.Content {
		ef, ok := d.fields(item, fmt.Sprintf("%s[%d]", f.at("errors"), i))
		if !ok {
			continue
		}
		name, ok := ef.requiredString("name")
		if !ok {
			continue
		}
		if seen[name] {
			d.fail(ef.at("name"), "duplicate error name", "", nil)
			continue
		}
		seen[name] = true
		ne := NamedError{Name: name}
		if v := ef.optString("description"); v != nil {
			ne.Description = *v
		}
		out = append(out, ne)
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := values[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
