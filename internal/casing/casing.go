// Package casing converts NSIDs, fragments and authority prefixes into the
// identifier styles used by generated code.
package casing

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/serenize/snaker"
)

// split breaks s on the separators that appear in lexicon identifiers:
// dots between NSID segments, the fragment hash, hyphens in authorities.
func split(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '#' || r == '-' || r == '_' || r == '/'
	})
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// Title converts "com.atproto.repo.getRecord" to "ComAtprotoRepoGetRecord"
// and "defs#reasonSpam" to "DefsReasonSpam". Interior capitals are kept.
func Title(s string) string {
	var b strings.Builder
	for _, part := range split(s) {
		b.WriteString(upperFirst(part))
	}
	return b.String()
}

// Camel is Title with a lowercase first letter.
func Camel(s string) string {
	return lowerFirst(Title(s))
}

// ScreamingSnake converts "com.atproto.moderation" to "COM_ATPROTO_MODERATION"
// and "reasonSpam" to "REASON_SPAM".
func ScreamingSnake(s string) string {
	parts := split(s)
	for i, part := range parts {
		parts[i] = snaker.CamelToSnake(part)
	}
	return strings.ToUpper(strings.Join(parts, "_"))
}
