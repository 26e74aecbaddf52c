package lexicon

import (
	"fmt"
	"slices"
	"strings"
)

// Lexicons is the registry of one batch of validated documents. It is
// immutable once built and safe for concurrent readers.
type Lexicons struct {
	docs  []*Document
	index map[string]*Document
}

// NewLexicons indexes docs by NSID and resolves every reference they contain.
//
// It fails with CodeDuplicateIdentifier when two documents share an NSID, or
// share one ignoring case, with CodeUnresolvedReference when a reference
// names a missing document or definition, and with CodeInvalidReferenceKind
// when a reference targets a record, query or procedure. Documents are
// checked in input order and the first failure is returned.
func NewLexicons(docs []*Document) (*Lexicons, error) {
	l := &Lexicons{
		docs:  make([]*Document, 0, len(docs)),
		index: make(map[string]*Document, len(docs)),
	}
	folded := make(map[string]int, len(docs))
	for i, doc := range docs {
		if doc == nil {
			return nil, &Error{
				Code:    CodeSchemaMalformed,
				Message: fmt.Sprintf("input %d is not a document", i),
			}
		}
		key := strings.ToLower(doc.ID)
		if j, ok := folded[key]; ok {
			prev := docs[j]
			msg := fmt.Sprintf("declared by both %s and %s", origin(j, prev), origin(i, doc))
			if prev.ID != doc.ID {
				msg = fmt.Sprintf("%s collides with %s ignoring case", origin(i, doc), origin(j, prev))
			}
			return nil, &Error{Code: CodeDuplicateIdentifier, Document: doc.ID, Message: msg}
		}
		folded[key] = i
		l.index[doc.ID] = doc
		l.docs = append(l.docs, doc)
	}

	for _, doc := range l.docs {
		for _, site := range Refs(doc) {
			if err := l.checkRef(doc, site); err != nil {
				return nil, err
			}
		}
	}
	return l, nil
}

func origin(i int, doc *Document) string {
	if doc.Source != "" {
		return fmt.Sprintf("%s (%s)", doc.ID, doc.Source)
	}
	return fmt.Sprintf("%s (input %d)", doc.ID, i)
}

func (l *Lexicons) checkRef(doc *Document, site RefSite) error {
	addr, err := ParseAddress(site.Ref, doc.ID)
	if err != nil {
		return &Error{
			Code:     CodeUnresolvedReference,
			Document: doc.ID,
			Path:     site.Path,
			Message:  "malformed reference",
			Err:      err,
		}
	}
	target, ok := l.lookup(addr)
	if !ok {
		return errorf(CodeUnresolvedReference, doc.ID, site.Path, "%s not found", addr.Full())
	}
	if target.Kind().IsPrimary() {
		return errorf(CodeInvalidReferenceKind, doc.ID, site.Path,
			"%s is a %s and cannot be referenced", addr.Full(), target.Kind())
	}
	return nil
}

func (l *Lexicons) lookup(addr Address) (UserType, bool) {
	doc, ok := l.index[addr.NSID]
	if !ok {
		return nil, false
	}
	t := doc.Def(addr.Fragment)
	return t, t != nil
}

// Lookup returns the definition at address ("nsid" or "nsid#name").
// It fails with CodeDefNotFound.
func (l *Lexicons) Lookup(address string) (UserType, error) {
	addr, err := ParseAddress(address, "")
	if err != nil {
		return nil, &Error{Code: CodeDefNotFound, Path: address, Message: "malformed address", Err: err}
	}
	return l.LookupAddress(addr)
}

// LookupAddress is Lookup for a parsed address.
func (l *Lexicons) LookupAddress(addr Address) (UserType, error) {
	t, ok := l.lookup(addr)
	if !ok {
		return nil, errorf(CodeDefNotFound, addr.NSID, addr.Fragment, "%s not found", addr.Full())
	}
	return t, nil
}

// Resolve is Lookup restricted to the allowed kinds. It fails with
// CodeInvalidKind when the definition has another kind. With no allowed
// kinds every kind is accepted.
func (l *Lexicons) Resolve(address string, allowed ...Kind) (UserType, error) {
	t, err := l.Lookup(address)
	if err != nil {
		return nil, err
	}
	if len(allowed) > 0 && !slices.Contains(allowed, t.Kind()) {
		return nil, errorf(CodeInvalidKind, "", address, "%s is a %s, expected one of %v", address, t.Kind(), allowed)
	}
	return t, nil
}

// Document returns the document with the given NSID.
func (l *Lexicons) Document(nsid string) (*Document, bool) {
	doc, ok := l.index[nsid]
	return doc, ok
}

// All returns the documents in input order.
func (l *Lexicons) All() []*Document {
	return slices.Clone(l.docs)
}

// Len returns the number of documents.
func (l *Lexicons) Len() int { return len(l.docs) }
