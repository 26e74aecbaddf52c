package lexgen

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/broady/lexgen/lexgen/shape"
	"github.com/broady/lexgen/lexicon"
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
            "password": {"type": "string"}
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

const strongRef = `{
  "lexicon": 1,
  "id": "com.atproto.repo.strongRef",
  "defs": {
    "main": {
      "type": "object",
      "required": ["uri", "cid"],
      "properties": {
        "uri": {"type": "string"},
        "cid": {"type": "string"}
      }
    }
  }
}`

const reasons = `{
  "lexicon": 1,
  "id": "com.atproto.moderation.defs",
  "defs": {
    "reasonSpam": {"type": "token", "description": "Spam."},
    "reasonOther": {"type": "token"},
    "reasonType": {
      "type": "string",
      "knownValues": ["com.atproto.moderation.defs#reasonSpam", "com.atproto.moderation.defs#reasonOther"]
    }
  }
}`

const like = `{
  "lexicon": 1,
  "id": "app.bsky.feed.like",
  "defs": {
    "main": {
      "type": "record",
      "key": "tid",
      "record": {
        "type": "object",
        "required": ["subject", "createdAt"],
        "properties": {
          "subject": {"type": "ref", "ref": "com.atproto.repo.strongRef"},
          "reason": {"type": "ref", "ref": "com.atproto.moderation.defs#reasonSpam"},
          "createdAt": {"type": "datetime"},
          "via": {"type": "union", "refs": ["com.atproto.repo.strongRef", "#viaLink"]}
        }
      }
    },
    "viaLink": {
      "type": "object",
      "properties": {"url": {"type": "string", "maxLength": 512}}
    }
  }
}`

const getRecord = `{
  "lexicon": 1,
  "id": "com.atproto.repo.getRecord",
  "defs": {
    "main": {
      "type": "query",
      "parameters": {
        "type": "params",
        "required": ["repo", "collection", "rkey"],
        "properties": {
          "repo": {"type": "string"},
          "collection": {"type": "string"},
          "rkey": {"type": "string"},
          "cid": {"type": "string"}
        }
      },
      "output": {
        "encoding": "application/json",
        "schema": {"type": "ref", "ref": "com.atproto.repo.strongRef"}
      },
      "errors": [{"name": "RecordNotFound", "description": "No such record."}]
    }
  }
}`

// method returns a minimal query or procedure document.
func method(nsid, kind string) string {
	return fmt.Sprintf(`{"lexicon": 1, "id": %q, "defs": {"main": {"type": %q}}}`, nsid, kind)
}

func parse(t *testing.T, srcs ...string) []*lexicon.Document {
	t.Helper()
	docs := make([]*lexicon.Document, len(srcs))
	for i, src := range srcs {
		doc, err := lexicon.DecodeDocument([]byte(src))
		if err != nil {
			t.Fatalf("DecodeDocument(#%d) error = %v", i, err)
		}
		docs[i] = doc
	}
	return docs
}

func compile(t *testing.T, srcs ...string) *Result {
	t.Helper()
	batch, err := Analyze(parse(t, srcs...))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	res, err := Compile(context.Background(), batch, nil)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return res
}

func unitOf(t *testing.T, res *Result, name string) *shape.Unit {
	t.Helper()
	u := res.Unit(name)
	if u == nil {
		t.Fatalf("no unit %q", name)
	}
	return u
}

// formatDecl renders the type of an interface, alias or const declaration.
func formatDecl(t *testing.T, u *shape.Unit, name string) string {
	t.Helper()
	switch d := u.Decl(name).(type) {
	case *shape.Interface:
		return shape.Format(d.Object)
	case *shape.Alias:
		return shape.Format(d.Type)
	case nil:
		t.Fatalf("unit %s has no declaration %s", u.Name, name)
	default:
		t.Fatalf("declaration %s is a %s", name, d.DeclKind())
	}
	return ""
}

func field(t *testing.T, u *shape.Unit, decl, name string) shape.Field {
	t.Helper()
	iface, ok := u.Decl(decl).(*shape.Interface)
	if !ok {
		t.Fatalf("unit %s: %s is not an interface", u.Name, decl)
	}
	for _, f := range iface.Object.Fields {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("unit %s: %s has no field %s", u.Name, decl, name)
	return shape.Field{}
}

func declNames(u *shape.Unit) []string {
	names := make([]string, len(u.Decls))
	for i, d := range u.Decls {
		names[i] = d.DeclName()
	}
	return names
}

// jsonValue decodes src the way a caller holding plain JSON would.
func jsonValue(t *testing.T, src string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(src), &v); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	return v
}
