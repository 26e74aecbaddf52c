package typescript

import (
	"strings"
	"testing"

	"github.com/broady/lexgen/lexgen/render"
	"github.com/broady/lexgen/lexgen/shape"
)

func renderUnit(t *testing.T, cfg Config, unit *shape.Unit) string {
	t.Helper()
	f, err := render.Apply(NewBackend(cfg), unit)
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	return string(f.Content)
}

func docUnit(name string, decls ...shape.Decl) *shape.Unit {
	u := shape.NewUnit(name, shape.UnitDocument)
	u.Add(decls...)
	return u
}

func TestEmitter_Declarations(t *testing.T) {
	tests := []struct {
		name    string
		decl    shape.Decl
		want    []string
		notWant []string
	}{
		{
			name: "open interface",
			decl: shape.NewInterface("Main", shape.Documentation{Body: "A post."}, &shape.Object{
				Open: true,
				Fields: []shape.Field{
					{Name: "text", Type: shape.String(), Doc: shape.Documentation{Notes: []string{"maxLength: 300"}}},
					{Name: "createdAt", Type: shape.Datetime(), Optional: true},
				},
			}),
			want: []string{
				"/** A post. */",
				"export interface Main {",
				"  /** maxLength: 300 */",
				"  text: string;",
				"  createdAt?: string;",
				"  [k: string]: unknown;",
				"}",
			},
		},
		{
			name: "empty closed interface",
			decl: shape.NewInterface("QueryParams", shape.Documentation{}, &shape.Object{}),
			want: []string{"export interface QueryParams {}"},
		},
		{
			name:    "quoted and reserved property names",
			decl:    shape.NewInterface("X", shape.Documentation{}, &shape.Object{Fields: []shape.Field{{Name: "default", Type: shape.Boolean()}, {Name: "$type", Type: shape.String()}, {Name: "a-b", Type: shape.Number()}}}),
			want:    []string{"  default: boolean;", "  $type: string;", `  "a-b": number;`},
			notWant: []string{"default_"},
		},
		{
			name: "literal union alias",
			decl: shape.NewAlias("Reason", shape.Documentation{}, shape.Literals("spam", "other")),
			want: []string{`export type Reason = "spam" | "other"`},
		},
		{
			name: "open union",
			decl: shape.NewAlias("Label", shape.Documentation{}, &shape.Union{Members: []shape.Type{shape.Lit("a")}, Open: true, Base: shape.String()}),
			want: []string{`export type Label = "a" | (string & {})`},
		},
		{
			name: "array of union",
			decl: shape.NewAlias("Items", shape.Documentation{}, shape.ArrayOf(shape.UnionOf(shape.Local("A"), shape.Local("B")))),
			want: []string{"export type Items = (A | B)[]"},
		},
		{
			name: "void alias",
			decl: shape.NewAlias("HandlerInput", shape.Documentation{}, &shape.Void{}),
			want: []string{"export type HandlerInput = undefined"},
		},
		{
			name: "output without body",
			decl: shape.NewAlias("HandlerOutput", shape.Documentation{}, shape.UnionOf(shape.Local("HandlerError"), &shape.Void{})),
			want: []string{"export type HandlerOutput = HandlerError | void"},
		},
		{
			name: "handler signature",
			decl: shape.NewAlias("Handler", shape.Documentation{}, &shape.Func{
				Params: []shape.Param{
					{Name: "params", Type: shape.Local("QueryParams")},
					{Name: "input", Type: shape.Local("HandlerInput")},
				},
				Result:     shape.Local("HandlerOutput"),
				MaybeAsync: true,
			}),
			want: []string{"export type Handler = (params: QueryParams, input: HandlerInput) => HandlerOutput | Promise<HandlerOutput>"},
		},
		{
			name: "bytes body",
			decl: shape.NewInterface("HandlerSuccess", shape.Documentation{}, &shape.Object{Fields: []shape.Field{
				{Name: "encoding", Type: shape.Lit("*/*")},
				{Name: "body", Type: &shape.Bytes{}},
			}}),
			want: []string{`  encoding: "*/*";`, "  body: Uint8Array;"},
		},
		{
			name: "multi-line documentation",
			decl: shape.NewAlias("Count", shape.Documentation{Body: "How many.\nAt most ten.", Notes: []string{"maximum: 10"}}, shape.Integer()),
			want: []string{"/**\n * How many.\n * At most ten.\n * maximum: 10\n */\nexport type Count = number"},
		},
		{
			name: "comment terminator escaped",
			decl: shape.NewAlias("Glob", shape.Documentation{Body: "matches a/*/b"}, shape.String()),
			want: []string{`/** matches a/*\/b */`},
		},
		{
			name: "reserved declaration name",
			decl: shape.NewAlias("delete", shape.Documentation{}, shape.String()),
			want: []string{"export type delete_ = string"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderUnit(t, Config{Frontmatter: "-"}, docUnit("app.bsky.feed.post", tt.decl))
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output missing %q\ngot:\n%s", want, got)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(got, notWant) {
					t.Errorf("output contains %q\ngot:\n%s", notWant, got)
				}
			}
		})
	}
}

func TestEmitter_Guards(t *testing.T) {
	v := []shape.Param{{Name: "v", Type: shape.Unknown()}}
	unit := docUnit("app.bsky.feed.post",
		shape.NewFunction("isRecord", shape.Documentation{}, v,
			&shape.Predicate{Param: "v", Target: shape.Local("Record")},
			&shape.Return{Value: shape.TagCheck("v", "app.bsky.feed.post#main", "app.bsky.feed.post")},
		),
		shape.NewFunction("validateRecord", shape.Documentation{}, v,
			shape.RuntimeType(shape.RuntimeValidationResult),
			&shape.Return{Value: shape.CallOf(
				shape.Sel(shape.ValueOf(shape.LexiconsUnit, "lexicons"), "validate"),
				shape.S("app.bsky.feed.post#main"), shape.Id("v"))},
		),
	)
	unit.AddDep(shape.LexiconsUnit)
	got := renderUnit(t, Config{}, unit)

	for _, want := range []string{
		DefaultFrontmatter,
		"import { ValidationResult } from '@atproto/lexicon'",
		"import { lexicons } from '../../../../lexicons'",
		"export function isRecord(v: unknown): v is Record {",
		`  return typeof v === 'object' && v !== null && '$type' in v && (v.$type === "app.bsky.feed.post#main" || v.$type === "app.bsky.feed.post")`,
		"export function validateRecord(v: unknown): ValidationResult {",
		`  return lexicons.validate("app.bsky.feed.post#main", v)`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, got)
		}
	}
}

func TestEmitter_CrossUnitImports(t *testing.T) {
	unit := docUnit("app.bsky.feed.like",
		shape.NewInterface("Record", shape.Documentation{}, &shape.Object{Fields: []shape.Field{
			{Name: "subject", Type: shape.RefTo("com.atproto.repo.strongRef", "Main")},
			{Name: "image", Type: &shape.Blob{Variant: "image"}, Optional: true},
		}}),
	)
	unit.AddDep("com.atproto.repo.strongRef")
	got := renderUnit(t, Config{ImportExtension: ".js"}, unit)

	for _, want := range []string{
		"import { BlobRef } from '@atproto/lexicon'",
		"import * as ComAtprotoRepoStrongRef from '../../../com/atproto/repo/strongRef.js'",
		"  subject: ComAtprotoRepoStrongRef.Main;",
		"  image?: BlobRef;",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, got)
		}
	}
}

func TestEmitter_Class(t *testing.T) {
	unit := shape.NewUnit(shape.IndexUnit, shape.UnitIndex)
	server := shape.NewClass("Server", shape.Documentation{})
	server.Fields = []shape.Field{
		{Name: "xrpc", Type: shape.RuntimeType(shape.RuntimeServer)},
		{Name: "com", Type: shape.Local("ComNS")},
	}
	server.Ctor = &shape.Method{
		Params: []shape.Param{{Name: "options", Type: shape.RuntimeType(shape.RuntimeServerOptions), Optional: true}},
		Body: []shape.Stmt{
			&shape.Assign{Target: shape.ThisSel("xrpc"), Value: shape.CallOf(shape.RuntimeValue(shape.RuntimeCreateServer), shape.ValueOf(shape.LexiconsUnit, "schemas"), shape.Id("options"))},
			&shape.Assign{Target: shape.ThisSel("com"), Value: shape.NewOf(shape.Id("ComNS"), &shape.This{})},
		},
	}
	ns := shape.NewClass("ComAtprotoRepoNS", shape.Documentation{})
	ns.Fields = []shape.Field{{Name: "_server", Type: shape.Local("Server")}}
	ns.Methods = []shape.Method{{
		Name:   "getRecord",
		Params: []shape.Param{{Name: "handler", Type: shape.RefTo("com.atproto.repo.getRecord", "Handler")}},
		Body: []shape.Stmt{&shape.Return{Value: shape.CallOf(
			shape.Sel(shape.Sel(shape.ThisSel("_server"), "xrpc"), "method"),
			shape.S("com.atproto.repo.getRecord"), shape.Id("handler"))}},
	}}
	unit.Add(server, ns)
	unit.AddDep("com.atproto.repo.getRecord")
	unit.AddDep(shape.LexiconsUnit)

	got := renderUnit(t, Config{Frontmatter: "-", IndentSize: 4}, unit)
	for _, want := range []string{
		"import { Server as XrpcServer, Options as XrpcOptions, createServer as createXrpcServer } from '@atproto/xrpc-server'",
		"import * as ComAtprotoRepoGetRecord from './types/com/atproto/repo/getRecord'",
		"import { schemas } from './lexicons'",
		"export class Server {\n    xrpc: XrpcServer\n    com: ComNS\n\n    constructor(options?: XrpcOptions) {\n        this.xrpc = createXrpcServer(schemas, options)\n        this.com = new ComNS(this)\n    }\n}",
		"    getRecord(handler: ComAtprotoRepoGetRecord.Handler) {\n        return this._server.xrpc.method(\"com.atproto.repo.getRecord\", handler)\n    }",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, got)
		}
	}
	if strings.Index(got, "getRecord'") > strings.Index(got, "./lexicons'") {
		t.Errorf("imports not in dependency order\ngot:\n%s", got)
	}
}

func TestEmitter_Constants(t *testing.T) {
	unit := shape.NewUnit(shape.LexiconsUnit, shape.UnitLexicons)
	schemaDoc := shape.RuntimeType(shape.RuntimeSchema)
	unit.Add(
		shape.NewConst("schemaDict", shape.Documentation{}, nil, shape.Obj(shape.Entry{
			Key:   "ComAtprotoRepoGetRecord",
			Value: shape.RawJSON([]byte(`{"lexicon":1,"id":"com.atproto.repo.getRecord"}`)),
		})),
		shape.NewConst("schemas", shape.Documentation{}, shape.ArrayOf(schemaDoc),
			shape.As(shape.Values(shape.Id("schemaDict")), shape.ArrayOf(schemaDoc))),
		shape.NewConst("lexicons", shape.Documentation{}, nil,
			shape.NewOf(shape.RuntimeValue(shape.RuntimeValidator), shape.Id("schemas"))),
	)
	got := renderUnit(t, Config{Frontmatter: "-"}, unit)

	for _, want := range []string{
		"import { LexiconDoc, Lexicons } from '@atproto/lexicon'",
		"export const schemaDict = {\n  ComAtprotoRepoGetRecord: {\n    \"lexicon\": 1,\n    \"id\": \"com.atproto.repo.getRecord\"\n  },\n}",
		"export const schemas: LexiconDoc[] = Object.values(schemaDict) as LexiconDoc[]",
		"export const lexicons = new Lexicons(schemas)",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, got)
		}
	}
}

func TestEmitter_Errors(t *testing.T) {
	tests := []struct {
		name string
		decl shape.Decl
	}{
		{"nil alias type", shape.NewAlias("X", shape.Documentation{}, nil)},
		{"unknown runtime handle", shape.NewAlias("X", shape.Documentation{}, shape.RuntimeType("nope"))},
		{"invalid json", shape.NewConst("X", shape.Documentation{}, nil, shape.RawJSON([]byte("{")))},
		{"nil return value", shape.NewFunction("f", shape.Documentation{}, nil, nil, &shape.Return{})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := render.Apply(NewBackend(Config{}), docUnit("a.b.c", tt.decl))
			if err == nil {
				t.Fatal("Apply() succeeded, want error")
			}
		})
	}
}

func TestRelativePath(t *testing.T) {
	tests := []struct {
		from, to, want string
	}{
		{"types/com/atproto/repo/getRecord", "types/com/atproto/repo/strongRef", "./strongRef"},
		{"types/app/bsky/feed/like", "types/com/atproto/repo/strongRef", "../../../com/atproto/repo/strongRef"},
		{"types/app/bsky/feed/like", "lexicons", "../../../../lexicons"},
		{"index", "types/app/bsky/feed/like", "./types/app/bsky/feed/like"},
		{"index", "lexicons", "./lexicons"},
	}
	for _, tt := range tests {
		if got := relativePath(tt.from, tt.to); got != tt.want {
			t.Errorf("relativePath(%q, %q) = %q, want %q", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestEmitter_SharedDefaultImport(t *testing.T) {
	unit := docUnit("com.example.ping",
		shape.NewInterface("HandlerContext", shape.Documentation{}, &shape.Object{Fields: []shape.Field{
			{Name: "req", Type: shape.RuntimeType(shape.RuntimeRequest)},
			{Name: "res", Type: shape.RuntimeType(shape.RuntimeResponse)},
		}}),
	)
	got := renderUnit(t, Config{}, unit)

	if n := strings.Count(got, "import express from 'express'"); n != 1 {
		t.Errorf("express imported %d times, want 1\ngot:\n%s", n, got)
	}
	for _, want := range []string{"  req: express.Request;", "  res: express.Response;"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\ngot:\n%s", want, got)
		}
	}
}
