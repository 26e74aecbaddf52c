package lexicon

import (
	"errors"
	"fmt"
	"strings"
)

// NSID is a parsed namespaced identifier such as "com.atproto.repo.getRecord".
// All segments but the last form the authority; the last is the name.
type NSID struct {
	segments []string
}

// ParseNSID parses and validates s.
//
// Authority segments are letters, digits and hyphens and may not start with a
// digit. The name segment is letters and digits and may not start with a digit.
// At least one authority segment is required.
func ParseNSID(s string) (NSID, error) {
	if s == "" {
		return NSID{}, errors.New("empty NSID")
	}
	segments := strings.Split(s, ".")
	if len(segments) < 2 {
		return NSID{}, fmt.Errorf("NSID %q needs an authority and a name", s)
	}
	for i, seg := range segments {
		last := i == len(segments)-1
		if err := checkSegment(seg, last); err != nil {
			return NSID{}, fmt.Errorf("NSID %q: %w", s, err)
		}
	}
	return NSID{segments: segments}, nil
}

// MustParseNSID is like ParseNSID but panics on error.
func MustParseNSID(s string) NSID {
	n, err := ParseNSID(s)
	if err != nil {
		panic(err)
	}
	return n
}

// IsValidNSID reports whether s is a well-formed NSID.
func IsValidNSID(s string) bool {
	_, err := ParseNSID(s)
	return err == nil
}

func checkSegment(seg string, name bool) error {
	if seg == "" {
		return errors.New("empty segment")
	}
	if isDigit(seg[0]) {
		return fmt.Errorf("segment %q starts with a digit", seg)
	}
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		switch {
		case isLetter(c), isDigit(c):
		case c == '-' && !name:
			if i == 0 {
				return fmt.Errorf("segment %q starts with a hyphen", seg)
			}
		default:
			return fmt.Errorf("invalid character %q in segment %q", c, seg)
		}
	}
	return nil
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }

// IsZero reports whether n is the zero NSID.
func (n NSID) IsZero() bool { return len(n.segments) == 0 }

// String returns the dotted form.
func (n NSID) String() string { return strings.Join(n.segments, ".") }

// Segments returns a copy of all segments.
func (n NSID) Segments() []string {
	out := make([]string, len(n.segments))
	copy(out, n.segments)
	return out
}

// AuthoritySegments returns every segment but the name.
func (n NSID) AuthoritySegments() []string {
	if n.IsZero() {
		return nil
	}
	return n.Segments()[:len(n.segments)-1]
}

// Authority returns the dotted authority, e.g. "com.atproto.repo".
func (n NSID) Authority() string {
	return strings.Join(n.AuthoritySegments(), ".")
}

// Name returns the final segment.
func (n NSID) Name() string {
	if n.IsZero() {
		return ""
	}
	return n.segments[len(n.segments)-1]
}

// MainDef is the reserved name of a document's principal definition.
const MainDef = "main"

// Address identifies one definition: a document NSID plus a fragment.
type Address struct {
	NSID     string
	Fragment string
}

// String returns "nsid#fragment", or the bare NSID for the main definition.
func (a Address) String() string {
	if a.Fragment == MainDef {
		return a.NSID
	}
	return a.NSID + "#" + a.Fragment
}

// Full always includes the fragment.
func (a Address) Full() string {
	return a.NSID + "#" + a.Fragment
}

// IsMain reports whether a names a main definition.
func (a Address) IsMain() bool { return a.Fragment == MainDef }

// ParseAddress resolves ref relative to base. Accepted forms are "#name"
// (requires base), "nsid#name" and a bare "nsid", which names nsid#main.
func ParseAddress(ref, base string) (Address, error) {
	if ref == "" {
		return Address{}, errors.New("empty reference")
	}
	nsid, frag, hasHash := strings.Cut(ref, "#")
	if hasHash && frag == "" {
		return Address{}, fmt.Errorf("reference %q has an empty fragment", ref)
	}
	if !hasHash {
		frag = MainDef
	}
	if nsid == "" {
		if base == "" {
			return Address{}, fmt.Errorf("relative reference %q outside a document", ref)
		}
		nsid = base
	}
	if !IsValidNSID(nsid) {
		return Address{}, fmt.Errorf("reference %q: invalid NSID %q", ref, nsid)
	}
	for i := 0; i < len(frag); i++ {
		if !isLetter(frag[i]) && !isDigit(frag[i]) {
			return Address{}, fmt.Errorf("reference %q: invalid fragment %q", ref, frag)
		}
	}
	return Address{NSID: nsid, Fragment: frag}, nil
}
