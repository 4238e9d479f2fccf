package node

import (
	"strings"
	"testing"
)

func mustTree(t *testing.T, src string) *Tree {
	tree, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tree
}

func TestChildFromObject(t *testing.T) {
	tree := mustTree(t, `{"a":3}`)
	kids := tree.Root().Child("a")
	if len(kids) != 1 {
		t.Fatalf("want 1 child, got %d", len(kids))
	}
	if got := kids[0].JSON(); got != float64(3) {
		t.Fatalf("want 3, got %v", got)
	}
}

func TestArrayMembersAreRepeatedSiblings(t *testing.T) {
	tree := mustTree(t, `{"a":{"b":[1,2,3,4]}}`)
	b := tree.Root().Child("a")[0].Child("b")
	if len(b) != 4 {
		t.Fatalf("want 4 nodes for array member, got %d", len(b))
	}
	for i, n := range b {
		if n.LocalName() != "b" {
			t.Fatalf("node %d: want local-name b, got %q", i, n.LocalName())
		}
		idx, ok := n.ArrayIndex()
		if !ok || idx != i {
			t.Fatalf("node %d: want array index %d, got %d (ok=%v)", i, i, idx, ok)
		}
		p, ok := n.Parent()
		if !ok || !p.Equal(tree.Root().Child("a")[0]) {
			t.Fatalf("node %d: parent should be the containing member node, not a synthetic array node", i)
		}
	}
}

func TestSearchCountsNestedDuplicateNames(t *testing.T) {
	tree := mustTree(t, `{"a":{"b":{"c":{"e":1}},"d":{"c":{"e":1}}}}`)
	found := tree.Root().Search("e")
	if len(found) != 2 {
		t.Fatalf("want 2 matches for //e, got %d", len(found))
	}
}

func TestStringValueConcatenatesDescendants(t *testing.T) {
	tree := mustTree(t, `{"a":{"b":1,"c":true,"d":"foo"}}`)
	if got := tree.Root().StringValue(); got != "1truefoo" {
		t.Fatalf("want 1truefoo, got %q", got)
	}
}

func TestSearchListsSiblingsBeforeSubtrees(t *testing.T) {
	tree := mustTree(t, `{"a":[{"a":1},{"a":2},{"b":3}]}`)
	matches := tree.Root().Search("a")
	if len(matches) != 5 {
		t.Fatalf("want 5 //a matches, got %d", len(matches))
	}
	want := []string{"1", "2", "3", "1", "2"}
	for i, m := range matches {
		if got := m.StringValue(); got != want[i] {
			t.Fatalf("match %d: want string-value %q, got %q", i, want[i], got)
		}
	}
}

func TestSubtreeIsDocumentOrder(t *testing.T) {
	tree := mustTree(t, `{"a":[{"a":1},{"a":2},{"b":3}]}`)
	sub := tree.Root().Subtree()
	if len(sub) != 7 {
		t.Fatalf("want 7 nodes in subtree, got %d", len(sub))
	}
	for i := 1; i < len(sub); i++ {
		if !sub[i-1].Before(sub[i]) {
			t.Fatalf("node %d not before node %d in document order", i-1, i)
		}
	}
}

func TestFormatNumberCanonicalForm(t *testing.T) {
	cases := map[float64]string{
		3:   "3",
		3.5: "3.5",
	}
	for in, want := range cases {
		if got := FormatNumber(in); got != want {
			t.Fatalf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}
