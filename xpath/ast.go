package xpath

import (
	"fmt"
	"math"

	"github.com/midbel/jpath/node"
)

// Expr is one node of the compiled AST. Each grammar production gets
// its own small type below rather than a single discriminated struct.
type Expr interface {
	Eval(ctx *Context) (Value, error)
}

type numberLit struct{ val float64 }

func (e numberLit) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	return Number(e.val), nil
}

type stringLit struct{ val string }

func (e stringLit) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	return String(e.val), nil
}

type varRef struct{ name string }

func (e varRef) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	return ctx.Resolve(e.name)
}

type unaryMinus struct{ x Expr }

func (e unaryMinus) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	v, err := e.x.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return Number(-v.ToNumber()), nil
}

// binary covers arithmetic, logical and relational operators; op is
// one of the scanner's operator token runes.
type binary struct {
	op    rune
	left  Expr
	right Expr
}

func (e binary) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	switch e.op {
	case KwAnd:
		l, err := e.left.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		if !l.ToBoolean() {
			return False(), nil
		}
		r, err := e.right.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(r.ToBoolean()), nil
	case KwOr:
		l, err := e.left.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		if l.ToBoolean() {
			return True(), nil
		}
		r, err := e.right.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		return Boolean(r.ToBoolean()), nil
	}

	l, err := e.left.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := e.right.Eval(ctx)
	if err != nil {
		return Value{}, err
	}

	switch e.op {
	case Plus:
		return Number(l.ToNumber() + r.ToNumber()), nil
	case Minus:
		return Number(l.ToNumber() - r.ToNumber()), nil
	case Star:
		return Number(l.ToNumber() * r.ToNumber()), nil
	case KwDiv:
		return Number(l.ToNumber() / r.ToNumber()), nil
	case KwMod:
		return Number(xpathMod(l.ToNumber(), r.ToNumber())), nil
	case Eq, Ne:
		ok, err := compareEquality(l, r, e.op == Eq)
		if err != nil {
			return Value{}, err
		}
		return Boolean(ok), nil
	case Lt, Le, Gt, Ge:
		ok, err := compareOrder(l, r, e.op)
		if err != nil {
			return Value{}, err
		}
		return Boolean(ok), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported operator", ErrType)
	}
}

// xpathMod implements XPath 1.0's mod operator: IEEE 754 truncated
// remainder, whose result carries the sign of the dividend. That is
// exactly math.Mod's contract, so 5 mod -2 is 1, not -1.
func xpathMod(a, b float64) float64 {
	return math.Mod(a, b)
}

type unionExpr struct {
	left  Expr
	right Expr
}

func (e unionExpr) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	l, err := e.left.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := e.right.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if l.Kind() != KindNodeSet || r.Kind() != KindNodeSet {
		return Value{}, fmt.Errorf("%w: union requires two node-sets", ErrType)
	}
	all := append(append([]node.Node(nil), l.Nodes()...), r.Nodes()...)
	return NodeSet(node.SortUnique(all)), nil
}

type call struct {
	name string
	args []Expr
}

func (e call) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	fn, ok := builtins[e.name]
	if !ok {
		return Value{}, wrapf(ErrName, "%s: unknown function", e.name)
	}
	ctx.Tracer.Enter(e.name, ctx)
	v, err := fn(ctx, e.args)
	ctx.Tracer.Leave(e.name, v, err)
	return v, err
}

// rootExpr evaluates to the singleton node-set containing the
// synthetic document root; every absolute path starts here.
type rootExpr struct{}

func (rootExpr) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	return NodeSet([]node.Node{ctx.Root}), nil
}

// stepExpr is a location step: an axis, a node-test, and a predicate
// list, chained from a previous step (left == nil means "start from
// the current context node").
type stepExpr struct {
	left  Expr
	axis  Axis
	test  nodeTest
	preds []Expr
}

func (e *stepExpr) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	if e.left == nil && ctx.Val != nil {
		if e.axis == AxisSelf && e.test.kind == testNode && len(e.preds) == 0 {
			return *ctx.Val, nil
		}
		return Value{}, fmt.Errorf("%w: context is a primitive value, not a node", ErrType)
	}
	var base []node.Node
	if e.left == nil {
		base = []node.Node{ctx.Node}
	} else {
		v, err := e.left.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		if v.Kind() != KindNodeSet {
			return Value{}, fmt.Errorf("%w: path step requires a node-set", ErrType)
		}
		base = v.Nodes()
	}

	var all []node.Node
	for _, b := range base {
		candidates := e.axis.apply(b)
		var matched []node.Node
		for _, c := range candidates {
			if e.test.matches(c) {
				matched = append(matched, c)
			}
		}
		filtered, err := e.applyPredicates(ctx, matched)
		if err != nil {
			return Value{}, err
		}
		all = append(all, filtered...)
	}

	// The concatenation keeps each axis's own emission order: forward
	// axes list siblings before their subtrees, reverse axes run
	// nearest-first. Only union re-sorts into document order; a step
	// never does, so /descendant-or-self::node()/child::n and
	// /descendant::n agree node for node.
	return NodeSet(node.DedupeStable(all)), nil
}

func (e *stepExpr) applyPredicates(ctx *Context, nodes []node.Node) ([]node.Node, error) {
	result := nodes
	for _, pred := range e.preds {
		size := len(result)
		var kept []node.Node
		for i, n := range result {
			sub := ctx.With(n, i+1, size)
			v, err := pred.Eval(sub)
			if err != nil {
				return nil, err
			}
			keep := false
			if v.Kind() == KindNumber {
				keep = v.ToNumber() == float64(i+1)
			} else {
				keep = v.ToBoolean()
			}
			if keep {
				kept = append(kept, n)
			}
		}
		result = kept
	}
	return result, nil
}

// filterExpr applies a predicate list to an arbitrary node-set-valued
// expression that is not itself a step chain (e.g. a parenthesized
// union or a bare variable reference): "($x)[1]". Unlike stepExpr's
// per-context-node predicate application, there is only ever one
// source set here, so position/size are global.
type filterExpr struct {
	expr  Expr
	preds []Expr
}

func (e filterExpr) Eval(ctx *Context) (Value, error) {
	if err := ctx.tick(); err != nil {
		return Value{}, err
	}
	v, err := e.expr.Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if v.Kind() != KindNodeSet {
		return Value{}, fmt.Errorf("%w: predicate requires a node-set", ErrType)
	}
	s := &stepExpr{preds: e.preds}
	filtered, err := s.applyPredicates(ctx, v.Nodes())
	if err != nil {
		return Value{}, err
	}
	return NodeSet(filtered), nil
}
