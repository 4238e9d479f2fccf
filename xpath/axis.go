package xpath

import "github.com/midbel/jpath/node"

// Axis identifies one of the nine XPath 1.0 axes this engine supports.
// The attribute, namespace, following and preceding axes have no
// meaning over JSON and are rejected at compile time (see compile.go).
type Axis int

const (
	AxisSelf Axis = iota
	AxisChild
	AxisParent
	AxisAncestor
	AxisAncestorOrSelf
	AxisDescendant
	AxisDescendantOrSelf
	AxisFollowingSibling
	AxisPrecedingSibling
)

var axisNames = map[string]Axis{
	"self":              AxisSelf,
	"child":             AxisChild,
	"parent":            AxisParent,
	"ancestor":          AxisAncestor,
	"ancestor-or-self":  AxisAncestorOrSelf,
	"descendant":        AxisDescendant,
	"descendant-or-self": AxisDescendantOrSelf,
	"following-sibling": AxisFollowingSibling,
	"preceding-sibling": AxisPrecedingSibling,
}

func lookupAxis(name string) (Axis, bool) {
	a, ok := axisNames[name]
	return a, ok
}

// apply produces n's axis members in the axis's canonical order:
// emission order for forward axes (siblings before their subtrees on
// the descendant axes), nearest-first for the reverse axes (ancestor,
// ancestor-or-self, preceding-sibling). Positional predicates count in
// this order.
func (a Axis) apply(n node.Node) []node.Node {
	switch a {
	case AxisSelf:
		return []node.Node{n}
	case AxisChild:
		return n.Children()
	case AxisParent:
		if p, ok := n.Parent(); ok {
			return []node.Node{p}
		}
		return nil
	case AxisAncestor:
		return reverseNodes(n.Ancestors())
	case AxisAncestorOrSelf:
		out := []node.Node{n}
		return append(out, reverseNodes(n.Ancestors())...)
	case AxisDescendant:
		return n.Descendants()
	case AxisDescendantOrSelf:
		out := []node.Node{n}
		return append(out, n.Descendants()...)
	case AxisFollowingSibling:
		return n.FollowingSiblings()
	case AxisPrecedingSibling:
		return n.PrecedingSiblings()
	default:
		return nil
	}
}

func reverseNodes(nodes []node.Node) []node.Node {
	out := make([]node.Node, len(nodes))
	for i, n := range nodes {
		out[len(nodes)-1-i] = n
	}
	return out
}

// testKind is the node-test half of a step: a name, a wildcard, or one
// of the two kind tests, node() and text().
type testKind int

const (
	testWildcard testKind = iota
	testName
	testNode
	testText
)

type nodeTest struct {
	kind testKind
	name string
}

func (t nodeTest) matches(n node.Node) bool {
	switch t.kind {
	case testNode:
		return true
	case testWildcard:
		// The synthetic root is an ordinary node with an empty name, so
		// "*" matches it too: ancestor::* from any node reaches all the
		// way up to the root.
		return true
	case testText:
		return n.IsValue()
	case testName:
		return n.LocalName() == t.name
	default:
		return false
	}
}
