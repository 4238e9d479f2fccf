package xpath

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Compiler is a Pratt parser over the XPath 1.0 grammar: a curr/peek
// two-token lookahead driving infix/prefix dispatch tables keyed by
// token type, with binding powers deciding when the compileExpr loop
// stops.
type Compiler struct {
	scan *Scanner
	curr Token
	peek Token

	Tracer

	infix  map[rune]func(Expr) (Expr, error)
	prefix map[rune]func() (Expr, error)
}

func NewCompiler(r io.Reader) *Compiler {
	c := &Compiler{scan: Scan(r), Tracer: discardTracer{}}
	c.infix = map[rune]func(Expr) (Expr, error){
		Slash:      c.compileStep,
		SlashSlash: c.compileDescendantStep,
		LBracket:   c.compileFilter,
		LParen:     c.compileCall,
		Pipe:       c.compileUnion,
		Plus:       c.compileBinary,
		Minus:      c.compileBinary,
		Star:       c.compileBinary,
		KwDiv:      c.compileBinary,
		KwMod:      c.compileBinary,
		Eq:         c.compileBinary,
		Ne:         c.compileBinary,
		Lt:         c.compileBinary,
		Le:         c.compileBinary,
		Gt:         c.compileBinary,
		Ge:         c.compileBinary,
		KwAnd:      c.compileBinary,
		KwOr:       c.compileBinary,
	}
	c.prefix = map[rune]func() (Expr, error){
		Slash:      c.compileRoot,
		SlashSlash: c.compileDescendantRoot,
		Name:       c.compileName,
		Star:       c.compileName,
		Dot:        c.compileCurrent,
		DotDot:     c.compileParent,
		Variable:   c.compileVariable,
		Literal:    c.compileLiteral,
		NumberTok:  c.compileNumber,
		Minus:      c.compileUnaryMinus,
		LParen:     c.compileGroup,
	}
	c.next()
	c.next()
	return c
}

func CompileString(expr string) (Expr, error) {
	return Compile(strings.NewReader(expr))
}

func Compile(r io.Reader) (Expr, error) {
	c := NewCompiler(r)
	expr, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	if !c.is(EOF) {
		return nil, syntaxError(c.curr.Position, "trailing input after expression: %s", c.curr)
	}
	return expr, nil
}

const (
	powLowest = iota
	powOr
	powAnd
	powCmp
	powAdd
	powMul
	powUnion
	powStep
	powPred
	powCall
	powHighest
)

var bindings = map[rune]int{
	KwOr:       powOr,
	KwAnd:      powAnd,
	Eq:         powCmp,
	Ne:         powCmp,
	Lt:         powCmp,
	Le:         powCmp,
	Gt:         powCmp,
	Ge:         powCmp,
	Plus:       powAdd,
	Minus:      powAdd,
	Star:       powMul,
	KwDiv:      powMul,
	KwMod:      powMul,
	Pipe:       powUnion,
	Slash:      powStep,
	SlashSlash: powStep,
	LBracket:   powPred,
	LParen:     powCall,
}

func (c *Compiler) compileExpr(pow int) (Expr, error) {
	fn, ok := c.prefix[c.curr.Type]
	if !ok {
		return nil, syntaxError(c.curr.Position, "unexpected token %s", c.curr)
	}
	left, err := fn()
	if err != nil {
		return nil, err
	}
	for !c.is(EOF) && pow < c.power() {
		fn, ok := c.infix[c.curr.Type]
		if !ok {
			return nil, syntaxError(c.curr.Position, "unexpected infix token %s", c.curr)
		}
		left, err = fn(left)
		if err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (c *Compiler) power() int {
	return bindings[c.curr.Type]
}

func (c *Compiler) next() {
	c.curr = c.peek
	c.peek = c.scan.Scan()
}

func (c *Compiler) is(t rune) bool {
	return c.curr.Type == t
}

func (c *Compiler) compileBinary(left Expr) (Expr, error) {
	op := c.curr.Type
	pow := bindings[op]
	c.next()
	right, err := c.compileExpr(pow)
	if err != nil {
		return nil, err
	}
	return binary{op: op, left: left, right: right}, nil
}

func (c *Compiler) compileUnion(left Expr) (Expr, error) {
	c.next()
	right, err := c.compileExpr(powUnion)
	if err != nil {
		return nil, err
	}
	return unionExpr{left: left, right: right}, nil
}

func (c *Compiler) compileUnaryMinus() (Expr, error) {
	c.next()
	x, err := c.compileExpr(powMul)
	if err != nil {
		return nil, err
	}
	return unaryMinus{x: x}, nil
}

func (c *Compiler) compileNumber() (Expr, error) {
	defer c.next()
	f, err := strconv.ParseFloat(c.curr.Literal, 64)
	if err != nil {
		return nil, syntaxError(c.curr.Position, "invalid number %q", c.curr.Literal)
	}
	return numberLit{val: f}, nil
}

func (c *Compiler) compileLiteral() (Expr, error) {
	defer c.next()
	return stringLit{val: c.curr.Literal}, nil
}

func (c *Compiler) compileVariable() (Expr, error) {
	defer c.next()
	return varRef{name: c.curr.Literal}, nil
}

func (c *Compiler) compileGroup() (Expr, error) {
	c.next()
	expr, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	if !c.is(RParen) {
		return nil, syntaxError(c.curr.Position, "missing closing ')'")
	}
	c.next()
	if c.is(LBracket) {
		// a predicate on a parenthesized expression filters the whole
		// set with global positions, unlike a step predicate which
		// counts per context node: (//a)[2] is the second match
		// overall, //a[2] the second within each parent
		return filterExpr{expr: expr}, nil
	}
	return expr, nil
}

// compileCurrent handles '.', the self::node() abbreviation.
func (c *Compiler) compileCurrent() (Expr, error) {
	c.next()
	return &stepExpr{axis: AxisSelf, test: nodeTest{kind: testNode}}, nil
}

// compileParent handles '..', the parent::node() abbreviation.
func (c *Compiler) compileParent() (Expr, error) {
	c.next()
	return &stepExpr{axis: AxisParent, test: nodeTest{kind: testNode}}, nil
}

// compileRoot handles a leading '/': either the bare root expression
// "/", or an absolute path whose first step follows immediately.
func (c *Compiler) compileRoot() (Expr, error) {
	c.next()
	if c.endOfExpr() {
		return rootExpr{}, nil
	}
	next, err := c.compileExpr(powStep)
	if err != nil {
		return nil, err
	}
	return rethread(next, rootExpr{})
}

// compileDescendantRoot handles a leading '//': "descendant-or-self
// from the root, then the first step".
func (c *Compiler) compileDescendantRoot() (Expr, error) {
	c.next()
	next, err := c.compileExpr(powStep)
	if err != nil {
		return nil, err
	}
	bridge := &stepExpr{left: rootExpr{}, axis: AxisDescendantOrSelf, test: nodeTest{kind: testNode}}
	return rethread(next, bridge)
}

func (c *Compiler) endOfExpr() bool {
	switch c.curr.Type {
	case EOF, RParen, RBracket, Comma:
		return true
	default:
		return false
	}
}

// compileName parses a bare name or '*' into a child-axis step, unless
// the name is immediately followed by '::' (an explicit axis) or '('
// (a function call handled later by compileCall).
func (c *Compiler) compileName() (Expr, error) {
	if c.peek.Type == ColonColon {
		return c.compileAxisStep()
	}
	test, err := c.compileNodeTest()
	if err != nil {
		return nil, err
	}
	return &stepExpr{axis: AxisChild, test: test}, nil
}

func (c *Compiler) compileAxisStep() (Expr, error) {
	axisName := c.curr.Literal
	axis, ok := lookupAxis(axisName)
	if !ok {
		return nil, wrapf(ErrAxis, "%s: unsupported or unknown axis", axisName)
	}
	c.next() // axis name
	c.next() // ::
	test, err := c.compileNodeTest()
	if err != nil {
		return nil, err
	}
	return &stepExpr{axis: axis, test: test}, nil
}

// compileNodeTest consumes the name/wildcard/kind-test token that
// follows a (possibly implicit) axis specifier.
func (c *Compiler) compileNodeTest() (nodeTest, error) {
	switch {
	case c.is(Star):
		c.next()
		return nodeTest{kind: testWildcard}, nil
	case c.is(Name) && (c.curr.Literal == "node" || c.curr.Literal == "text") && c.peek.Type == LParen:
		kindName := c.curr.Literal
		c.next() // node/text
		c.next() // (
		if !c.is(RParen) {
			return nodeTest{}, syntaxError(c.curr.Position, "kind test takes no arguments")
		}
		c.next()
		if kindName == "text" {
			return nodeTest{kind: testText}, nil
		}
		return nodeTest{kind: testNode}, nil
	case c.is(Name):
		name := c.curr.Literal
		c.next()
		return nodeTest{kind: testName, name: name}, nil
	default:
		return nodeTest{}, syntaxError(c.curr.Position, "expected a node test, got %s", c.curr)
	}
}

// compileStep and compileDescendantStep implement '/' and '//' as
// infix operators chaining the previous step into the next one.
func (c *Compiler) compileStep(left Expr) (Expr, error) {
	c.next()
	next, err := c.compileExpr(powStep)
	if err != nil {
		return nil, err
	}
	return rethread(next, left)
}

func (c *Compiler) compileDescendantStep(left Expr) (Expr, error) {
	c.next()
	next, err := c.compileExpr(powStep)
	if err != nil {
		return nil, err
	}
	bridge := &stepExpr{left: left, axis: AxisDescendantOrSelf, test: nodeTest{kind: testNode}}
	return rethread(next, bridge)
}

// rethread walks to the leftmost stepExpr of `next` (a chain built by
// compileNodeTest/compileName, whose left is always nil at that point)
// and attaches `prev` as its source, so "a/b/c" ends up as a single
// chain of steps rather than three independent ones.
func rethread(next, prev Expr) (Expr, error) {
	switch e := next.(type) {
	case *stepExpr:
		if e.left == nil {
			e.left = prev
			return e, nil
		}
		attached, err := rethread(e.left, prev)
		if err != nil {
			return nil, err
		}
		e.left = attached
		return e, nil
	case filterExpr:
		attached, err := rethread(e.expr, prev)
		if err != nil {
			return nil, err
		}
		e.expr = attached
		return e, nil
	default:
		return nil, fmt.Errorf("%w: '/' must be followed by a step", ErrParse)
	}
}

func (c *Compiler) compileFilter(left Expr) (Expr, error) {
	c.next()
	pred, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	if !c.is(RBracket) {
		return nil, syntaxError(c.curr.Position, "missing closing ']'")
	}
	c.next()
	switch e := left.(type) {
	case *stepExpr:
		e.preds = append(e.preds, pred)
		return e, nil
	case filterExpr:
		e.preds = append(e.preds, pred)
		return e, nil
	default:
		return filterExpr{expr: left, preds: []Expr{pred}}, nil
	}
}

func (c *Compiler) compileCall(left Expr) (Expr, error) {
	step, ok := left.(*stepExpr)
	if !ok || step.axis != AxisChild || step.test.kind != testName || step.left != nil {
		return nil, syntaxError(c.curr.Position, "'(' is only valid after a function name")
	}
	name := step.test.name
	c.next()
	var args []Expr
	for !c.is(RParen) {
		arg, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if c.is(Comma) {
			c.next()
			continue
		}
		break
	}
	if !c.is(RParen) {
		return nil, syntaxError(c.curr.Position, "missing closing ')'")
	}
	c.next()
	return call{name: name, args: args}, nil
}
