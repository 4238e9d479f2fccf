// Package node projects a decoded JSON value as an ordered tree with
// parent pointers, giving XPath's location paths something to walk.
//
// The tree is arena-backed: every position in the virtual document is
// recorded once, in document order, in a single Tree.recs slice, and a
// Node handle is just (tree, index). Document order falls out of index
// comparison, parent lookup is a slice index, and a subtree is a
// contiguous range of the arena.
package node

import (
	"io"

	"github.com/midbel/jpath/jsonv"
)

type rec struct {
	parent int
	name   string
	owner  any // the JSON value this node was selected from
	index  int // array index, or -1 when this node is not an array element

	children   []int
	subtreeEnd int // exclusive arena bound of this node's subtree
}

// Tree owns the arena backing every Node derived from one decoded JSON
// document. The document must outlive every Node built from this Tree.
type Tree struct {
	recs []rec
}

// Parse decodes JSON read from r and builds the virtual tree over it.
func Parse(r io.Reader) (*Tree, error) {
	doc, err := jsonv.Decode(r)
	if err != nil {
		return nil, err
	}
	return New(doc), nil
}

// New builds the virtual tree over an already-decoded JSON value (as
// produced by jsonv.Decode: *jsonv.Object, jsonv.Array, string,
// float64, bool or nil).
func New(doc any) *Tree {
	t := &Tree{}
	t.recs = append(t.recs, rec{parent: -1, name: "", owner: doc, index: -1})
	t.build(0)
	return t
}

// Root returns the synthetic root node: empty local-name, effective
// JSON equal to the whole document.
func (t *Tree) Root() Node {
	return Node{tree: t, id: 0}
}

func (t *Tree) build(id int) {
	eff := effectiveJSON(t.recs[id])
	switch v := eff.(type) {
	case *jsonv.Object:
		for _, m := range v.Members {
			t.addMember(id, m.Key, m.Value)
		}
	case jsonv.Array:
		name := t.recs[id].name
		for i := range v {
			t.addChild(id, name, jsonv.Array(v), i)
		}
	}
	t.recs[id].subtreeEnd = len(t.recs)
}

func (t *Tree) addMember(parent int, key string, val any) {
	if arr, ok := val.(jsonv.Array); ok {
		for i := range arr {
			t.addChild(parent, key, arr, i)
		}
		return
	}
	t.addChild(parent, key, val, -1)
}

func (t *Tree) addChild(parent int, name string, owner any, index int) int {
	id := len(t.recs)
	t.recs = append(t.recs, rec{parent: parent, name: name, owner: owner, index: index})
	t.recs[parent].children = append(t.recs[parent].children, id)
	t.build(id)
	return id
}

func effectiveJSON(r rec) any {
	if r.index >= 0 {
		return r.owner.(jsonv.Array)[r.index]
	}
	return r.owner
}
