package lexicon

import (
	"errors"
	"fmt"
	"mime"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// WarnUnknownMIMEType flags an encoding or accept pattern that is well formed
// but not a MIME type known to the content sniffer.
const WarnUnknownMIMEType = "unknown_mime_type"

// WarnBodyWithoutEncoding flags a body that has a schema but no encoding.
const WarnBodyWithoutEncoding = "body_without_encoding"

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("lex"); name != "" {
			return name
		}
		return f.Name
	})
	if err := v.RegisterValidation("nsid", func(fl validator.FieldLevel) bool {
		return IsValidNSID(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("mimepattern", func(fl validator.FieldLevel) bool {
		return validMIMEPattern(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// validMIMEPattern accepts "*/*", "type/*" and concrete media types with
// optional parameters.
func validMIMEPattern(s string) bool {
	if s == "*/*" {
		return true
	}
	if top, ok := strings.CutSuffix(s, "/*"); ok {
		return top != "" && !strings.ContainsAny(top, "/*; ")
	}
	mt, _, err := mime.ParseMediaType(s)
	return err == nil && strings.Contains(mt, "/")
}

func isWildcard(s string) bool { return strings.HasSuffix(s, "/*") }

// check runs the declarative field rules and the cross-field rules over a
// structurally sound document.
func (d *decoder) check(doc *Document) {
	if err := structValidator.Struct(doc); err != nil {
		d.issues = append(d.issues, validatorIssues(doc, err)...)
	}

	for _, def := range doc.Defs {
		if def.Name != MainDef && def.Type != nil && def.Type.Kind().IsPrimary() {
			d.issues = append(d.issues, Issue{
				Path:     join("defs", def.Name),
				Message:  "records, queries and procedures must be the main definition",
				Expected: "main",
				Actual:   def.Name,
			})
		}
	}

	WalkDocument(doc, d.checkType)
}

func (d *decoder) checkType(t UserType, path string) {
	switch t := t.(type) {
	case *Integer:
		if t.Minimum != nil && t.Maximum != nil && *t.Minimum > *t.Maximum {
			d.bounds(path, "minimum", "maximum", *t.Minimum, *t.Maximum)
		}
		d.checkEnum(path, t.Enum, t.Const, t.Default)
	case *Number:
		if t.Minimum != nil && t.Maximum != nil && *t.Minimum > *t.Maximum {
			d.bounds(path, "minimum", "maximum", *t.Minimum, *t.Maximum)
		}
		d.checkEnum(path, t.Enum, t.Const, t.Default)
	case *String:
		if t.MinLength != nil && t.MaxLength != nil && *t.MinLength > *t.MaxLength {
			d.bounds(path, "minLength", "maxLength", *t.MinLength, *t.MaxLength)
		}
		d.checkEnum(path, t.Enum, t.Const, t.Default)
	case *Array:
		if t.MinLength != nil && t.MaxLength != nil && *t.MinLength > *t.MaxLength {
			d.bounds(path, "minLength", "maxLength", *t.MinLength, *t.MaxLength)
		}
	case *Object:
		for i, name := range t.Required {
			if t.Property(name) == nil {
				d.issues = append(d.issues, Issue{
					Path:     fmt.Sprintf("%s[%d]", join(path, "required"), i),
					Message:  "required property is not declared",
					Expected: "a declared property name",
					Actual:   strconv.Quote(name),
				})
			}
		}
	case *Blob:
		for i, pattern := range t.Accept {
			d.warnMIME(fmt.Sprintf("%s[%d]", join(path, "accept"), i), pattern)
		}
	case *Query:
		d.warnBody(join(path, "output"), t.Output)
	case *Procedure:
		d.warnBody(join(path, "input"), t.Input)
		d.warnBody(join(path, "output"), t.Output)
	}
}

func (d *decoder) bounds(path, lo, hi string, min, max any) {
	d.issues = append(d.issues, Issue{
		Path:     join(path, lo),
		Message:  fmt.Sprintf("%s exceeds %s", lo, hi),
		Expected: fmt.Sprintf("at most %v", max),
		Actual:   fmt.Sprint(min),
	})
}

func checkEnumValue[T comparable](d *decoder, path, field string, enum []T, v *T) {
	if v == nil || len(enum) == 0 || slices.Contains(enum, *v) {
		return
	}
	d.issues = append(d.issues, Issue{
		Path:     join(path, field),
		Message:  field + " is not one of enum",
		Expected: fmt.Sprint(enum),
		Actual:   fmt.Sprint(*v),
	})
}

func (d *decoder) checkEnum(path string, enum any, konst, def any) {
	switch enum := enum.(type) {
	case []int64:
		checkEnumValue(d, path, "const", enum, konst.(*int64))
		checkEnumValue(d, path, "default", enum, def.(*int64))
	case []float64:
		checkEnumValue(d, path, "const", enum, konst.(*float64))
		checkEnumValue(d, path, "default", enum, def.(*float64))
	case []string:
		checkEnumValue(d, path, "const", enum, konst.(*string))
		checkEnumValue(d, path, "default", enum, def.(*string))
	}
}

func (d *decoder) warnBody(path string, b *Body) {
	if b == nil {
		return
	}
	for i, v := range b.Encoding.Values {
		p := join(path, "encoding")
		if b.Encoding.Multi {
			p = fmt.Sprintf("%s[%d]", p, i)
		}
		d.warnMIME(p, v)
	}
}

func (d *decoder) warnMIME(path, pattern string) {
	if pattern == "*/*" || isWildcard(pattern) {
		return
	}
	mt, _, err := mime.ParseMediaType(pattern)
	if err != nil {
		return
	}
	if mimetype.Lookup(mt) == nil {
		d.warn(WarnUnknownMIMEType, path, "MIME type %q is not recognized", mt)
	}
}

// validatorIssues converts validator errors into issues with document paths.
func validatorIssues(doc *Document, err error) []Issue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{
			Path:     documentPath(doc, fe.Namespace()),
			Message:  ruleMessage(fe),
			Expected: ruleExpectation(fe),
			Actual:   fmt.Sprintf("%v", fe.Value()),
		})
	}
	return issues
}

// documentPath turns "Document.defs[2].type.refs[0]" into "defs.<name>.refs[0]".
func documentPath(doc *Document, ns string) string {
	_, p, _ := strings.Cut(ns, ".")
	rest, ok := strings.CutPrefix(p, "defs[")
	if !ok {
		return p
	}
	idx, tail, ok := strings.Cut(rest, "]")
	if !ok {
		return p
	}
	i, err := strconv.Atoi(idx)
	if err != nil || i < 0 || i >= len(doc.Defs) {
		return p
	}
	tail = strings.TrimPrefix(tail, ".type")
	return join("defs", doc.Defs[i].Name) + tail
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "nsid":
		return "invalid NSID"
	case "mimepattern":
		return "invalid MIME type"
	case "alphanum":
		return "must contain only letters and digits"
	case "eq":
		return "unsupported value"
	case "min":
		return "too few entries"
	}
	return "failed " + fe.Tag()
}

func ruleExpectation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "eq":
		return fe.Param()
	case "min":
		return "at least " + fe.Param()
	case "nsid":
		return "dotted authority and name"
	case "mimepattern":
		return "type/subtype or type/*"
	}
	return ""
}
