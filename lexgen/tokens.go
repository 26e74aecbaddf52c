package lexgen

import (
	"fmt"
	"strings"

	"github.com/broady/lexgen/internal/casing"
	"github.com/broady/lexgen/lexicon"
)

// TokenGroups maps authority prefixes to token names, keeping first-seen
// order of both. The full address of a token is prefix + "." + name.
type TokenGroups struct {
	prefixes []string
	names    map[string][]string
	seen     map[string]bool
}

// NewTokenGroups returns an empty grouping.
func NewTokenGroups() *TokenGroups {
	return &TokenGroups{
		names: make(map[string][]string),
		seen:  make(map[string]bool),
	}
}

// GroupTokens collects every token definition of docs. A main token is
// named by its document's final segment; any other token by
// "segment#defName". The prefix is the document's authority.
func GroupTokens(docs []*lexicon.Document) (*TokenGroups, error) {
	g := NewTokenGroups()
	for _, doc := range docs {
		nsid := doc.NSID()
		for _, def := range doc.Defs {
			if def.Type.Kind() != lexicon.KindToken {
				continue
			}
			name := nsid.Name()
			if def.Name != lexicon.MainDef {
				name += "#" + def.Name
			}
			g.Add(nsid.Authority(), name)
		}
	}
	if err := g.check(); err != nil {
		return nil, err
	}
	return g, nil
}

// Add records (prefix, name). It reports false when the pair was already present.
func (g *TokenGroups) Add(prefix, name string) bool {
	key := prefix + "\x00" + name
	if g.seen[key] {
		return false
	}
	g.seen[key] = true
	if _, ok := g.names[prefix]; !ok {
		g.prefixes = append(g.prefixes, prefix)
	}
	g.names[prefix] = append(g.names[prefix], name)
	return true
}

// check rejects prefixes or names that would produce the same constant or
// member name in generated code.
func (g *TokenGroups) check() error {
	consts := make(map[string]string, len(g.prefixes))
	for _, p := range g.prefixes {
		c := casing.ScreamingSnake(p)
		if other, ok := consts[c]; ok {
			return &lexicon.Error{
				Code:    lexicon.CodeDuplicateIdentifier,
				Message: fmt.Sprintf("token groups %q and %q both map to %s", other, p, c),
			}
		}
		consts[c] = p

		members := make(map[string]string)
		for _, n := range g.names[p] {
			key := strings.ToLower(casing.Title(n))
			if other, ok := members[key]; ok {
				return &lexicon.Error{
					Code:     lexicon.CodeDuplicateIdentifier,
					Document: p + "." + n,
					Message:  fmt.Sprintf("tokens %s.%s and %s.%s map to the same name", p, other, p, n),
				}
			}
			members[key] = n
		}
	}
	return nil
}

// Prefixes returns the prefixes in first-seen order.
func (g *TokenGroups) Prefixes() []string {
	return append([]string(nil), g.prefixes...)
}

// Names returns the token names of prefix in first-seen order.
func (g *TokenGroups) Names(prefix string) []string {
	return append([]string(nil), g.names[prefix]...)
}

// Len returns the number of prefixes.
func (g *TokenGroups) Len() int { return len(g.prefixes) }

// Count returns the number of distinct tokens.
func (g *TokenGroups) Count() int { return len(g.seen) }
