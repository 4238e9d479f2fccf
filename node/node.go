package node

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/midbel/jpath/jsonv"
)

// Node denotes one position in a Tree's virtual document. It is a
// cheap value: copying it never copies the underlying JSON.
type Node struct {
	tree *Tree
	id   int
}

// Zero reports whether n is the absent node (the result of, say,
// asking a root node for its parent).
func (n Node) Zero() bool {
	return n.tree == nil
}

// Equal reports whether l and r name the same position in the same
// tree: same parent chain, same local-name, same array index.
func (l Node) Equal(r Node) bool {
	return l.tree == r.tree && l.id == r.id
}

// Before reports whether l precedes r in document order. Both nodes
// must come from the same Tree.
func (l Node) Before(r Node) bool {
	return l.id < r.id
}

func (n Node) rec() rec {
	return n.tree.recs[n.id]
}

// LocalName is the JSON object key this node was selected under, or
// the empty string for the synthetic root and for top-level array
// elements.
func (n Node) LocalName() string {
	return n.rec().name
}

// ArrayIndex reports the index this node was selected from, and
// whether it was selected from an array at all.
func (n Node) ArrayIndex() (int, bool) {
	r := n.rec()
	return r.index, r.index >= 0
}

// IsArrayChild reports whether this node was selected from a JSON
// array element.
func (n Node) IsArrayChild() bool {
	_, ok := n.ArrayIndex()
	return ok
}

// JSON returns this node's effective JSON value: the array element
// when the node was selected from an array, otherwise the referenced
// value itself.
func (n Node) JSON() any {
	return effectiveJSON(n.rec())
}

// IsValue reports whether the node's effective JSON is a primitive
// (number, boolean, string or null).
func (n Node) IsValue() bool {
	switch n.JSON().(type) {
	case *jsonv.Object, jsonv.Array:
		return false
	default:
		return true
	}
}

// Parent returns the node's parent and true, or the zero Node and
// false for the root.
func (n Node) Parent() (Node, bool) {
	p := n.rec().parent
	if p < 0 {
		return Node{}, false
	}
	return Node{tree: n.tree, id: p}, true
}

// IsRoot reports whether n is the tree's synthetic document root, the
// one node with no parent and no local name of its own.
func (n Node) IsRoot() bool {
	return n.rec().parent < 0
}

// Ancestors returns the parent chain in document order (root first,
// nearest parent last); it never includes n itself.
func (n Node) Ancestors() []Node {
	var rev []Node
	for p, ok := n.Parent(); ok; p, ok = p.Parent() {
		rev = append(rev, p)
	}
	out := make([]Node, len(rev))
	for i, a := range rev {
		out[len(rev)-1-i] = a
	}
	return out
}

// Children returns the node's direct children in document order:
// object members (one node per member, or one per element when a
// member's value is an array) or array elements.
func (n Node) Children() []Node {
	ids := n.rec().children
	out := make([]Node, len(ids))
	for i, id := range ids {
		out[i] = Node{tree: n.tree, id: id}
	}
	return out
}

// Child returns the node's children whose local-name matches name; a
// wildcard "*" matches any local-name.
func (n Node) Child(name string) []Node {
	var out []Node
	for _, c := range n.Children() {
		if name == "*" || c.LocalName() == name {
			out = append(out, c)
		}
	}
	return out
}

// Subtree returns n and all of its transitive descendants, in
// document order. Because the arena is built depth-first, a subtree
// is always a contiguous range of it.
func (n Node) Subtree() []Node {
	end := n.rec().subtreeEnd
	out := make([]Node, 0, end-n.id)
	for id := n.id; id < end; id++ {
		out = append(out, Node{tree: n.tree, id: id})
	}
	return out
}

// Descendants returns n's transitive descendants (excluding n),
// siblings before their own subtrees: all of n's children first, then
// each child's descendants in turn. This is the traversal the
// descendant axis exposes; it makes a step over repeated array
// siblings list the siblings as a run before descending into any of
// them, and the string-value of such a node-set reads the sibling run
// first. Use Subtree for a plain document-order walk.
func (n Node) Descendants() []Node {
	kids := n.Children()
	out := append([]Node(nil), kids...)
	for _, c := range kids {
		out = append(out, c.Descendants()...)
	}
	return out
}

// Search returns every descendant of n whose local-name matches name
// ("*" for wildcard), in the Descendants traversal order.
func (n Node) Search(name string) []Node {
	var out []Node
	for _, d := range n.Descendants() {
		if name == "*" || d.LocalName() == name {
			out = append(out, d)
		}
	}
	return out
}

// FollowingSiblings and PrecedingSiblings give the step evaluator the
// remaining two XPath 1.0 sibling axes; both read off the parent's
// child list, which is already in document order.
func (n Node) FollowingSiblings() []Node {
	sibs, pos := n.siblings()
	if pos < 0 {
		return nil
	}
	return sibs[pos+1:]
}

func (n Node) PrecedingSiblings() []Node {
	sibs, pos := n.siblings()
	if pos < 0 {
		return nil
	}
	out := make([]Node, pos)
	for i := 0; i < pos; i++ {
		out[pos-1-i] = sibs[i]
	}
	return out
}

func (n Node) siblings() ([]Node, int) {
	p, ok := n.Parent()
	if !ok {
		return nil, -1
	}
	sibs := p.Children()
	for i, s := range sibs {
		if s.id == n.id {
			return sibs, i
		}
	}
	return sibs, -1
}

// StringValue is the XPath "string-value" of the node: the node's own
// textual form when it is a primitive, or the concatenation of its
// descendants' primitive string-values in document order otherwise.
func (n Node) StringValue() string {
	if n.IsValue() {
		return FormatJSON(n.JSON())
	}
	var sb strings.Builder
	for _, c := range n.Children() {
		sb.WriteString(c.StringValue())
	}
	return sb.String()
}

// FormatJSON renders a decoded JSON primitive using XPath 1.0's
// canonical string form. null stringifies to the empty string.
func FormatJSON(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case bool:
		if x {
			return "true"
		}
		return "false"
	case string:
		return x
	case float64:
		return FormatNumber(x)
	default:
		return ""
	}
}

// SortUnique returns nodes sorted into document order with duplicates
// (by identity) removed. Union normalises its result this way.
func SortUnique(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	sorted := append([]Node(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id < sorted[j].id })
	out := make([]Node, 0, len(sorted))
	for i, n := range sorted {
		if i == 0 || n.id != sorted[i-1].id {
			out = append(out, n)
		}
	}
	return out
}

// DedupeStable removes identity duplicates while preserving the
// original order. Step evaluation combines per-context-node axis
// results this way: forward axes keep their emission order, reverse
// axes (ancestor, preceding-sibling) their nearest-first order.
func DedupeStable(nodes []Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(nodes))
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !seen[n.id] {
			seen[n.id] = true
			out = append(out, n)
		}
	}
	return out
}

// FormatNumber renders f using XPath 1.0's canonical number string:
// "NaN", "Infinity", "-Infinity", integers without a decimal point,
// otherwise the shortest round-tripping decimal form.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
