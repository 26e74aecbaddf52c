package lexgen

import (
	"fmt"
	"strings"

	"github.com/broady/lexgen/internal/casing"
	"github.com/broady/lexgen/lexicon"
)

// Tree is the namespace forest of a batch. Nodes live in one arena and refer
// to each other by index; there is exactly one node per distinct authority
// prefix. Children and methods keep first-seen input order.
type Tree struct {
	nodes []TreeNode
	index map[string]int
	roots []int
}

// TreeNode is one authority prefix.
type TreeNode struct {
	// Segment is the last segment of Path.
	Segment string

	// Path is the dotted authority prefix, e.g. "com.atproto.repo".
	Path string

	// Children are arena indexes of child nodes.
	Children []int

	// Methods are the query and procedure documents whose authority is Path.
	Methods []LeafMethod
}

// LeafMethod is a method registered at a namespace node.
type LeafMethod struct {
	// Name is the final NSID segment.
	Name     string
	Document *lexicon.Document
}

// BuildTree builds the namespace forest for docs, in input order.
//
// Sibling segments that differ only in case, and a method whose name
// collides with a child namespace, are reported as
// lexicon.CodeDuplicateIdentifier: both would produce the same generated
// member name.
func BuildTree(docs []*lexicon.Document) (*Tree, error) {
	t := &Tree{index: make(map[string]int)}
	for _, doc := range docs {
		segs := doc.NSID().AuthoritySegments()
		parent := -1
		for i, seg := range segs {
			path := strings.Join(segs[:i+1], ".")
			id, ok := t.index[path]
			if !ok {
				var err error
				id, err = t.add(parent, seg, path, doc)
				if err != nil {
					return nil, err
				}
			}
			parent = id
		}
		if parent >= 0 && doc.IsMethod() {
			t.nodes[parent].Methods = append(t.nodes[parent].Methods, LeafMethod{
				Name:     doc.NSID().Name(),
				Document: doc,
			})
		}
	}
	if err := t.checkMembers(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) add(parent int, seg, path string, doc *lexicon.Document) (int, error) {
	siblings := t.roots
	if parent >= 0 {
		siblings = t.nodes[parent].Children
	}
	for _, sib := range siblings {
		if strings.EqualFold(t.nodes[sib].Segment, seg) {
			return 0, &lexicon.Error{
				Code:     lexicon.CodeDuplicateIdentifier,
				Document: doc.ID,
				Message: fmt.Sprintf("namespace %q collides with %q ignoring case",
					path, t.nodes[sib].Path),
			}
		}
	}

	id := len(t.nodes)
	t.nodes = append(t.nodes, TreeNode{Segment: seg, Path: path})
	t.index[path] = id
	if parent >= 0 {
		t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	} else {
		t.roots = append(t.roots, id)
	}
	return id, nil
}

// checkMembers rejects nodes where a method and a child namespace, or two
// methods, map to the same member name.
func (t *Tree) checkMembers() error {
	for _, n := range t.nodes {
		members := make(map[string]string, len(n.Children)+len(n.Methods))
		for _, c := range n.Children {
			members[strings.ToLower(casing.Camel(t.nodes[c].Segment))] = t.nodes[c].Path
		}
		for _, m := range n.Methods {
			key := strings.ToLower(casing.Camel(m.Name))
			if other, ok := members[key]; ok {
				return &lexicon.Error{
					Code:     lexicon.CodeDuplicateIdentifier,
					Document: m.Document.ID,
					Message:  fmt.Sprintf("method %s collides with %s in namespace %s", m.Document.ID, other, n.Path),
				}
			}
			members[key] = m.Document.ID
		}
	}
	return nil
}

// Roots returns the arena indexes of the top-level nodes.
func (t *Tree) Roots() []int { return append([]int(nil), t.roots...) }

// Node returns the node at arena index id.
func (t *Tree) Node(id int) *TreeNode { return &t.nodes[id] }

// Lookup returns the node for a dotted authority prefix.
func (t *Tree) Lookup(path string) (*TreeNode, bool) {
	id, ok := t.index[path]
	if !ok {
		return nil, false
	}
	return &t.nodes[id], true
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// MethodCount returns the number of leaf methods across the forest.
func (t *Tree) MethodCount() int {
	n := 0
	for i := range t.nodes {
		n += len(t.nodes[i].Methods)
	}
	return n
}

// Walk visits every node depth-first, parents before children, roots in order.
func (t *Tree) Walk(fn func(n *TreeNode, depth int)) {
	var visit func(id, depth int)
	visit = func(id, depth int) {
		fn(&t.nodes[id], depth)
		for _, c := range t.nodes[id].Children {
			visit(c, depth+1)
		}
	}
	for _, r := range t.roots {
		visit(r, 0)
	}
}
