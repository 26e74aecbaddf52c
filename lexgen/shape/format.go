package shape

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders t in a compact, language-neutral notation intended for logs
// and test assertions, for example
//
//	{encoding: "application/json", body: InputSchema | bytes}
func Format(t Type) string {
	var b strings.Builder
	formatType(&b, t)
	return b.String()
}

func formatType(b *strings.Builder, t Type) {
	switch t := t.(type) {
	case nil:
		b.WriteString("<nil>")
	case *Scalar:
		b.WriteString(t.Scalar.String())
	case *Literal:
		b.WriteString(formatLiteral(t.Value))
	case *Union:
		for i, m := range t.Members {
			if i > 0 {
				b.WriteString(" | ")
			}
			formatType(b, m)
		}
		if t.Open {
			if len(t.Members) > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("(")
			formatType(b, t.Base)
			b.WriteString(")")
		}
	case *Object:
		b.WriteString("{")
		for i, f := range t.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			if f.Optional {
				b.WriteString("?")
			}
			b.WriteString(": ")
			formatType(b, f.Type)
		}
		if t.Open {
			if len(t.Fields) > 0 {
				b.WriteString(", ")
			}
			b.WriteString("...")
		}
		b.WriteString("}")
	case *Array:
		if u, ok := t.Element.(*Union); ok && len(u.Members) > 1 {
			b.WriteString("(")
			formatType(b, u)
			b.WriteString(")")
		} else {
			formatType(b, t.Element)
		}
		b.WriteString("[]")
	case *Blob:
		b.WriteString("blob")
		if t.Variant != "" && t.Variant != "blob" {
			fmt.Fprintf(b, "<%s>", t.Variant)
		}
	case *Ref:
		if t.Unit != "" {
			b.WriteString(t.Unit)
			b.WriteString(".")
		}
		b.WriteString(t.Name)
	case *Bytes:
		b.WriteString("bytes")
	case *Void:
		b.WriteString("void")
	case *Func:
		b.WriteString("(")
		formatParams(b, t.Params)
		b.WriteString(") => ")
		if t.MaybeAsync {
			b.WriteString("async? ")
		}
		formatType(b, t.Result)
	case *Runtime:
		fmt.Fprintf(b, "<%s>", t.Handle)
	case *Predicate:
		b.WriteString(t.Param)
		b.WriteString(" is ")
		formatType(b, t.Target)
	default:
		fmt.Fprintf(b, "<%T>", t)
	}
}

func formatParams(b *strings.Builder, params []Param) {
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if p.Optional {
			b.WriteString("?")
		}
		b.WriteString(": ")
		formatType(b, p.Type)
	}
}

func formatLiteral(v any) string {
	switch v := v.(type) {
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
