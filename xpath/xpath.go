// Package xpath implements an XPath 1.0 expression engine over the
// JSON-as-tree node model in package node: parsing (scan.go,
// compile.go), the typed Value algebra (value.go), axis and predicate
// evaluation (axis.go, ast.go), the function library (functions.go),
// and the Expression/Env façade below.
package xpath

import (
	"fmt"
	"io"

	"github.com/midbel/jpath/environ"
	"github.com/midbel/jpath/node"
)

// Expression is a parsed, immutable AST that may be evaluated
// repeatedly against different Envs.
type Expression struct {
	text string
	ast  Expr
}

// CompileExpression parses text into a reusable Expression.
func CompileExpression(text string) (*Expression, error) {
	ast, err := CompileString(text)
	if err != nil {
		return nil, err
	}
	return &Expression{text: text, ast: ast}, nil
}

func (e *Expression) String() string { return e.text }

// Dump pretty-prints the compiled AST, a debugging aid for seeing how
// an expression parsed.
func (e *Expression) Dump(w io.Writer) { Dump(w, e.ast) }

// Eval runs the expression against env and returns a Value, or a
// wrapped ErrType/ErrName/ErrArity/ErrResource on failure (ErrAxis is
// reported earlier, by CompileExpression).
func (e *Expression) Eval(env *Env) (Value, error) {
	ctx := newContext(env.root, env.vars, env.maxSteps)
	ctx.Node = env.node
	ctx.Val = env.val
	ctx.Tracer = env.tracer
	return e.ast.Eval(ctx)
}

// Env holds the evaluation context: a context node or value and a
// variable bindings map. Variables are immutable for the lifetime of
// an evaluation once bound via AddVariable.
type Env struct {
	root     node.Node
	node     node.Node
	val      *Value
	vars     environ.Environ[Value]
	maxSteps int
	tracer   Tracer
}

// NewEnv builds an Env rooted at doc (typically the output of
// jsonv.Decode), with the context node set to the synthetic document
// root. Only *jsonv.Object and jsonv.Array values have children; any
// other Go value, a Go map or slice included, is a primitive root.
func NewEnv(doc any) *Env {
	tree := node.New(doc)
	root := tree.Root()
	return &Env{root: root, node: root, vars: environ.Empty[Value](), tracer: discardTracer{}}
}

// NewEnvFromTree builds an Env over an already-parsed Tree.
func NewEnvFromTree(tree *node.Tree) *Env {
	root := tree.Root()
	return &Env{root: root, node: root, vars: environ.Empty[Value](), tracer: discardTracer{}}
}

// NewEnvValue builds an Env whose context is a primitive Value or a
// singleton NodeSet; multi-node contexts are rejected. Unlike
// Value.IsSingleValue (which additionally requires the singleton node
// to be primitive, for ordering-comparison operands), a singleton
// NodeSet here may hold any node -- an object or array is a perfectly
// good context node, just not a "single value". A primitive Value
// becomes the context value itself: "." yields it back, and stepping
// along any other axis is a type error.
func NewEnvValue(root node.Node, v Value) (*Env, error) {
	env := &Env{root: root, node: root, vars: environ.Empty[Value](), tracer: discardTracer{}}
	switch v.Kind() {
	case KindNodeSet:
		switch len(v.Nodes()) {
		case 0:
			return nil, fmt.Errorf("%w: Env(value) requires a non-empty node-set", ErrType)
		case 1:
			env.node = v.Nodes()[0]
		default:
			return nil, fmt.Errorf("%w: Env(value) requires a single value, not a multi-node node-set", ErrType)
		}
	default:
		env.val = &v
	}
	return env, nil
}

// AddVariable binds name to value for the remaining lifetime of env.
func (e *Env) AddVariable(name string, value Value) {
	e.vars.Define(name, value)
}

// GetVariable resolves a previously bound variable; unknown names are
// a NameError, the same kind a $reference to them raises.
func (e *Env) GetVariable(name string) (Value, error) {
	v, err := e.vars.Resolve(name)
	if err != nil {
		return Value{}, wrapf(ErrName, "%s is not bound", name)
	}
	return v, nil
}

// SetStepLimit configures the evaluator's resource guard: evaluation
// fails with ErrResource past this many AST node visits. Zero (the
// default) disables the guard.
func (e *Env) SetStepLimit(n int) { e.maxSteps = n }

// SetTracer installs a debugging Tracer; nil restores the no-op
// default.
func (e *Env) SetTracer(t Tracer) {
	if t == nil {
		t = discardTracer{}
	}
	e.tracer = t
}

// Eval is the one-shot convenience façade: parse text, evaluate
// against an Env rooted at doc, return the Value.
func Eval(text string, doc any) (Value, error) {
	expr, err := CompileExpression(text)
	if err != nil {
		return Value{}, err
	}
	return expr.Eval(NewEnv(doc))
}

// EvalReader decodes the JSON document read from r into a node.Tree
// and evaluates text against it.
func EvalReader(text string, r io.Reader) (Value, error) {
	tree, err := node.Parse(r)
	if err != nil {
		return Value{}, err
	}
	expr, err := CompileExpression(text)
	if err != nil {
		return Value{}, err
	}
	return expr.Eval(NewEnvFromTree(tree))
}
