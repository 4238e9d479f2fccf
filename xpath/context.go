package xpath

import (
	"fmt"

	"github.com/midbel/jpath/environ"
	"github.com/midbel/jpath/node"
)

// Context is the (context node, position, size) triple plus variable
// bindings passed down each level of the recursive evaluator.
type Context struct {
	Node node.Node
	Pos  int
	Size int
	Root node.Node

	// Val is set instead of Node when the evaluation context is a
	// primitive value rather than a position in a document (Env(value)
	// with a number, boolean or string). Stepping anywhere but "." from
	// such a context is a type error.
	Val *Value

	vars  environ.Environ[Value]
	steps *int
	limit int

	Tracer Tracer
}

// newContext builds the top-level context for one evaluation: context
// node and root are the same node.Tree's root.
func newContext(root node.Node, vars environ.Environ[Value], limit int) *Context {
	n := 0
	return &Context{
		Node:   root,
		Pos:    1,
		Size:   1,
		Root:   root,
		vars:   vars,
		steps:  &n,
		limit:  limit,
		Tracer: discardTracer{},
	}
}

// With returns a copy of c positioned at a different (node, pos, size)
// triple, sharing the same variable bindings, step counter and tracer.
// Repositioning always lands on a node, so any primitive context value
// is left behind.
func (c *Context) With(n node.Node, pos, size int) *Context {
	nc := *c
	nc.Node, nc.Pos, nc.Size = n, pos, size
	nc.Val = nil
	return &nc
}

// contextString is the string-value of whatever the context currently
// is: the primitive context value when one is set, the context node
// otherwise. The zero-argument forms of string(), number(),
// string-length() and normalize-space() read this.
func (c *Context) contextString() string {
	if c.Val != nil {
		return c.Val.ToString()
	}
	return c.Node.StringValue()
}

// Resolve looks up a bound variable; unknown names are a NameError.
func (c *Context) Resolve(name string) (Value, error) {
	v, err := c.vars.Resolve(name)
	if err != nil {
		return Value{}, wrapf(ErrName, "%s is not bound", name)
	}
	return v, nil
}

// tick counts one evaluation step and fails with ErrResource once the
// configured bound is exceeded; it guards against pathological
// expressions (deeply nested predicates, huge node-sets).
func (c *Context) tick() error {
	if c.limit <= 0 {
		return nil
	}
	*c.steps++
	if *c.steps > c.limit {
		return wrapf(ErrResource, "evaluation exceeded %d steps", c.limit)
	}
	return nil
}

func wrapf(sentinel error, format string, args ...any) error {
	return &kindError{sentinel: sentinel, msg: fmt.Sprintf(format, args...)}
}

type kindError struct {
	sentinel error
	msg      string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.sentinel }
