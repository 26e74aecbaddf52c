package lexicon

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountCreate = `{
  "lexicon": 1,
  "id": "com.atproto.account.create",
  "defs": {
    "main": {
      "type": "procedure",
      "description": "Create an account.",
      "input": {
        "encoding": "application/json",
        "schema": {
          "type": "object",
          "required": ["handle", "email", "password"],
          "properties": {
            "email": {"type": "string"},
            "handle": {"type": "string"},
            "inviteCode": {"type": "string"},
            "password": {"type": "string"},
            "recoveryKey": {"type": "string"}
          }
        }
      },
      "output": {
        "encoding": "application/json",
        "schema": {
          "type": "object",
          "required": ["accessJwt", "refreshJwt", "handle", "did"],
          "properties": {
            "accessJwt": {"type": "string"},
            "refreshJwt": {"type": "string"},
            "handle": {"type": "string"},
            "did": {"type": "string"}
          }
        }
      },
      "errors": [
        {"name": "InvalidHandle"},
        {"name": "InvalidPassword"},
        {"name": "InvalidInviteCode"},
        {"name": "HandleNotAvailable"}
      ]
    }
  }
}`

func decode(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := DecodeDocument([]byte(src))
	require.NoError(t, err)
	return doc
}

// issuesOf decodes src and returns the issues of the expected failure.
func issuesOf(t *testing.T, src string) []Issue {
	t.Helper()
	_, err := DecodeDocument([]byte(src))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrSchemaMalformed)
	var lexErr *Error
	require.True(t, errors.As(err, &lexErr))
	require.NotEmpty(t, lexErr.Issues, "error: %v", err)
	return lexErr.Issues
}

func paths(issues []Issue) []string {
	out := make([]string, len(issues))
	for i, issue := range issues {
		out[i] = issue.Path
	}
	return out
}

func TestDecodeProcedure(t *testing.T) {
	doc := decode(t, accountCreate)

	assert.Equal(t, "com.atproto.account.create", doc.ID)
	assert.Equal(t, "create", doc.NSID().Name())
	assert.Equal(t, KindProcedure, doc.MainKind())
	assert.True(t, doc.IsMethod())
	assert.Empty(t, doc.Warnings)

	proc, ok := doc.Main().(*Procedure)
	require.True(t, ok)
	assert.Equal(t, "Create an account.", proc.Doc())
	require.NotNil(t, proc.Input)
	assert.Equal(t, []string{"application/json"}, proc.Input.Encoding.Values)
	assert.False(t, proc.Input.Encoding.IsMulti())

	in, ok := proc.Input.Schema.(*Object)
	require.True(t, ok)
	var names []string
	for _, p := range in.Properties {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"email", "handle", "inviteCode", "password", "recoveryKey"}, names)
	assert.True(t, in.IsRequired("handle"))
	assert.False(t, in.IsRequired("inviteCode"))

	require.Len(t, proc.Errors, 4)
	assert.Equal(t, "HandleNotAvailable", proc.Errors[3].Name)
}

func TestDecodeYAMLAndShorthand(t *testing.T) {
	doc := decode(t, `
lexicon: 1
id: app.example.feed.post
revision: 3
defs:
  main:
    type: record
    key: tid
    record:
      type: object
      required: [text]
      properties:
        text: {type: string, maxLength: 300}
        reply: "#replyRef"
        embed: [app.example.embed.images, app.example.embed.external]
        tags:
          type: array
          items: {type: string}
          maxLength: 8
  replyRef:
    type: object
    properties:
      root: {type: ref, ref: com.atproto.repo.strongRef}
  image:
    type: image
    accept: [image/png, image/jpeg]
    maxSize: 1000000
    maxWidth: 2000
`)
	require.NotNil(t, doc.Revision)
	assert.Equal(t, 3, *doc.Revision)

	rec, ok := doc.Main().(*Record)
	require.True(t, ok)
	assert.Equal(t, "tid", rec.Key)
	reply := rec.Record.Property("reply")
	require.NotNil(t, reply)
	assert.Equal(t, &Ref{Ref: "#replyRef"}, reply.Type)

	embed := rec.Record.Property("embed")
	require.NotNil(t, embed)
	assert.Equal(t, &Union{Refs: []string{"app.example.embed.images", "app.example.embed.external"}}, embed.Type)

	img, ok := doc.Def("image").(*Blob)
	require.True(t, ok)
	assert.Equal(t, KindImage, img.Kind())
	require.NotNil(t, img.MaxWidth)
	assert.EqualValues(t, 2000, *img.MaxWidth)
	assert.Nil(t, img.MaxLength)

	var defNames []string
	for _, d := range doc.Defs {
		defNames = append(defNames, d.Name)
	}
	assert.Equal(t, []string{"main", "replyRef", "image"}, defNames)
}

func TestParseDocumentFromJSONValue(t *testing.T) {
	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(accountCreate), &raw))

	doc, err := ParseDocument(raw)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Lexicon)
	assert.Equal(t, KindProcedure, doc.MainKind())
}

func TestRawJSONPreservesOrder(t *testing.T) {
	doc := decode(t, `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"token","description":"z"},"alpha":{"type":"integer","minimum":1}}}`)
	raw, err := doc.RawJSON()
	require.NoError(t, err)
	assert.Equal(t,
		`{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"token","description":"z"},"alpha":{"type":"integer","minimum":1}}}`,
		string(raw))
}

func TestNonMainPrimaryKindRejected(t *testing.T) {
	for _, kind := range []string{"record", "query", "procedure"} {
		t.Run(kind, func(t *testing.T) {
			body := `{"type":"` + kind + `"`
			if kind == "record" {
				body += `,"record":{"type":"object","properties":{}}`
			}
			body += `}`
			issues := issuesOf(t, `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"token"},"extra":`+body+`}}`)
			assert.Equal(t, []string{"defs.extra"}, paths(issues))
		})
	}
}

func TestDecodeIssues(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "not an object",
			src:  `[1, 2]`,
			want: []string{""},
		},
		{
			name: "missing defs",
			src:  `{"lexicon":1,"id":"com.example.thing"}`,
			want: []string{"defs"},
		},
		{
			name: "unknown type",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"tuple"}}}`,
			want: []string{"defs.main.type"},
		},
		{
			name: "wrong lexicon version",
			src:  `{"lexicon":2,"id":"com.example.thing","defs":{"main":{"type":"token"}}}`,
			want: []string{"lexicon"},
		},
		{
			name: "invalid nsid",
			src:  `{"lexicon":1,"id":"thing","defs":{"main":{"type":"token"}}}`,
			want: []string{"id"},
		},
		{
			name: "wrong scalar kind",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"integer","minimum":"one"}}}`,
			want: []string{"defs.main.minimum"},
		},
		{
			name: "ref not allowed as def",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"ref","ref":"#x"}}}`,
			want: []string{"defs.main.type"},
		},
		{
			name: "object in params",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"query","parameters":{"type":"params","properties":{"x":{"type":"object"}}}}}}`,
			want: []string{"defs.main.parameters.properties.x.type"},
		},
		{
			name: "empty encoding list",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"query","output":{"encoding":[]}}}}`,
			want: []string{"defs.main.output.encoding"},
		},
		{
			name: "malformed encoding",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"query","output":{"encoding":"json"}}}}`,
			want: []string{"defs.main.output.encoding.values[0]"},
		},
		{
			name: "error name",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"query","errors":[{"name":"Bad Name"}]}}}`,
			want: []string{"defs.main.errors[0].name"},
		},
		{
			name: "undeclared required",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"object","required":["a","b"],"properties":{"a":{"type":"string"}}}}}`,
			want: []string{"defs.main.required[1]"},
		},
		{
			name: "inverted range",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"integer","minimum":5,"maximum":1}}}`,
			want: []string{"defs.main.minimum"},
		},
		{
			name: "const outside enum",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"string","enum":["a","b"],"const":"c"}}}`,
			want: []string{"defs.main.const"},
		},
		{
			name: "bound on wrong blob variant",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"blob","maxWidth":10}}}`,
			want: []string{"defs.main.maxWidth"},
		},
		{
			name: "record without payload",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"record"}}}`,
			want: []string{"defs.main.record"},
		},
		{
			name: "duplicate def",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"foo":{"type":"token"},"foo":{"type":"string"}}}`,
			want: []string{"defs.foo"},
		},
		{
			name: "duplicate property",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"object","properties":{"a":{"type":"string"},"a":{"type":"integer"}}}}}`,
			want: []string{"defs.main.properties.a"},
		},
		{
			name: "duplicate error name",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"main":{"type":"query","errors":[{"name":"Gone"},{"name":"Gone"}]}}}`,
			want: []string{"defs.main.errors[1].name"},
		},
		{
			name: "all structural issues reported",
			src:  `{"lexicon":1,"id":"com.example.thing","defs":{"a":{"type":"string","maxLength":-1},"b":{"type":"array"}}}`,
			want: []string{"defs.a.maxLength", "defs.b.items"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths(issuesOf(t, tt.src)))
		})
	}
}

func TestDecodeInvalidText(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"lexicon": 1,`))
	require.Error(t, err)
	assert.Equal(t, CodeSchemaMalformed, CodeOf(err))
}

func TestUnknownMIMETypeWarning(t *testing.T) {
	doc := decode(t, `{"lexicon":1,"id":"com.example.upload","defs":{"main":{`+
		`"type":"procedure",`+
		`"input":{"encoding":"application/x-lexgen-unheard-of"},`+
		`"output":{"encoding":["application/json","*/*"]}}}}`)
	require.Len(t, doc.Warnings, 1)
	assert.Equal(t, WarnUnknownMIMEType, doc.Warnings[0].Code)
	assert.Equal(t, "defs.main.input.encoding", doc.Warnings[0].Path)
	assert.Equal(t, "com.example.upload", doc.Warnings[0].Document)
}

func TestMultiEncoding(t *testing.T) {
	doc := decode(t, `{"lexicon":1,"id":"com.example.upload","defs":{"main":{`+
		`"type":"procedure",`+
		`"input":{"encoding":["application/json","application/json","image/*"],"schema":"#payload"}},`+
		`"payload":{"type":"object","properties":{}}}}`)
	proc := doc.Main().(*Procedure)
	assert.True(t, proc.Input.Encoding.IsMulti())
	assert.Equal(t, []string{"application/json", "image/*"}, proc.Input.Encoding.Values)
	assert.Equal(t, &Ref{Ref: "#payload"}, proc.Input.Schema)
}

func TestBodyWithoutEncoding(t *testing.T) {
	doc := decode(t, `{"lexicon":1,"id":"com.example.getThing","defs":{"main":{"type":"query","output":{"schema":{"type":"object"}}}}}`)
	q := doc.Main().(*Query)
	require.NotNil(t, q.Output)
	assert.True(t, q.Output.Encoding.IsZero())
	require.Len(t, doc.Warnings, 1)
	assert.Equal(t, WarnBodyWithoutEncoding, doc.Warnings[0].Code)
}
