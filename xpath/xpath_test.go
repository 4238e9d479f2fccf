package xpath_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/midbel/jpath/node"
	"github.com/midbel/jpath/xpath"
)

func evalJSON(t *testing.T, doc, expr string) xpath.Value {
	t.Helper()
	v, err := xpath.EvalReader(expr, strings.NewReader(doc))
	if err != nil {
		t.Fatalf("eval %q over %q: %v", expr, doc, err)
	}
	return v
}

func mustCompileTree(t *testing.T, doc string) *node.Tree {
	t.Helper()
	tree, err := node.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse document: %v", err)
	}
	return tree
}

// evalOnTree evaluates expr against an already-parsed tree, so that the
// node identities of several results can be compared with Equal.
func evalOnTree(t *testing.T, tree *node.Tree, expr string) xpath.Value {
	t.Helper()
	e, err := xpath.CompileExpression(expr)
	if err != nil {
		t.Fatalf("compile %q: %v", expr, err)
	}
	v, err := e.Eval(xpath.NewEnvFromTree(tree))
	if err != nil {
		t.Fatalf("eval %q: %v", expr, err)
	}
	return v
}

func TestConcreteScenarios(t *testing.T) {
	tests := []struct {
		doc, expr string
		want      float64
	}{
		{`{"a":3}`, "1 + /a", 4},
		{`{"a":{"b":3,"c":1}}`, "/a/b div /a/c", 3},
		{`{"a":{"b":[1,2,3,4]}}`, "count(/a/b[not(. = 1)][not(. = 2)])", 2},
		{`{"a":{"b":[1,2,3]}}`, "/a/b[2]", 2},
		{`{"a":{"b":{"c":{"e":1}},"d":{"c":{"e":1}}}}`, "count(//e)", 2},
		{`{"a":{"b":{"c":{"e":1}},"d":{"c":{"e":1}}}}`, "count(//e/ancestor::*)", 6},
		{`{"a":[{"a":1},{"a":2},{"b":3}]}`, "count(//a)", 5},
		{`{}`, "5 mod -2", 1},
	}
	for _, tt := range tests {
		got := evalJSON(t, tt.doc, tt.expr)
		if got.ToNumber() != tt.want {
			t.Fatalf("%s: want %v, got %v", tt.expr, tt.want, got.ToNumber())
		}
	}
}

func TestStringValueOfArrayProjection(t *testing.T) {
	doc := `{"a":[{"a":1},{"a":2},{"b":3}]}`
	got := evalJSON(t, doc, "//a")
	if got.StringValue() != "12312" {
		t.Fatalf("string-value: want %q, got %q", "12312", got.StringValue())
	}
	// string() conversion only looks at the first node
	if got.ToString() != "1" {
		t.Fatalf("string(//a): want %q, got %q", "1", got.ToString())
	}
	explicit := evalJSON(t, doc, "/descendant::a")
	if explicit.StringValue() != "12312" {
		t.Fatalf("/descendant::a string-value: want %q, got %q", "12312", explicit.StringValue())
	}
}

func TestStringValueOfRoot(t *testing.T) {
	doc := `{"a":{"b":1,"c":true,"d":"foo"}}`
	got := evalJSON(t, doc, "string(/)")
	if got.ToString() != "1truefoo" {
		t.Fatalf("string(/): want %q, got %q", "1truefoo", got.ToString())
	}
}

func TestAndChainShortCircuitsToBoolean(t *testing.T) {
	doc := `{"a":{"b":1,"c":true,"d":"foo"}}`
	got := evalJSON(t, doc, "/a and /a/b and /a/c and /a/d")
	if got.Kind() != xpath.KindBoolean || !got.ToBoolean() {
		t.Fatalf("and-chain: want true, got %v (%s)", got.ToBoolean(), got.Kind())
	}
}

func TestOrderingComparisonRejectsMultiNodeNodeSets(t *testing.T) {
	doc := `{"a":{"b":{"c":{"e":1}},"d":{"c":{"e":1}}}}`
	_, err := xpath.EvalReader("/a/b/c < /a/d/c", strings.NewReader(doc))
	if err == nil {
		t.Fatalf("expected a type error comparing multi-node node-sets")
	}
	if !errors.Is(err, xpath.ErrType) {
		t.Fatalf("expected ErrType, got %v", err)
	}
}

func TestCountMatchesNodeSetLength(t *testing.T) {
	doc := `{"a":{"b":[1,2,3,4,5]}}`
	count := evalJSON(t, doc, "count(/a/b)")
	nodes := evalJSON(t, doc, "/a/b")
	if int(count.ToNumber()) != len(nodes.Nodes()) {
		t.Fatalf("count() = %v, len(nodes) = %d", count.ToNumber(), len(nodes.Nodes()))
	}
}

func TestSelfNodeIsIdempotent(t *testing.T) {
	tree := mustCompileTree(t, `{"a":{"b":[1,2,3]}}`)
	plain := evalOnTree(t, tree, "/a/b")
	withSelf := evalOnTree(t, tree, "/a/b/self::node()")
	pn, sn := plain.Nodes(), withSelf.Nodes()
	if len(pn) != len(sn) {
		t.Fatalf("self::node() changed length: %d vs %d", len(pn), len(sn))
	}
	for i := range pn {
		if !pn[i].Equal(sn[i]) {
			t.Fatalf("self::node() reordered nodes at %d", i)
		}
	}
}

func TestDescendantAxisMatchesDoubleSlash(t *testing.T) {
	tree := mustCompileTree(t, `{"a":{"b":{"c":{"e":1}},"d":{"c":{"e":1}}}}`)
	shorthand := evalOnTree(t, tree, "//e")
	explicit := evalOnTree(t, tree, "/descendant::e")
	sn, en := shorthand.Nodes(), explicit.Nodes()
	if len(sn) != len(en) {
		t.Fatalf("//e and /descendant::e length mismatch: %d vs %d", len(sn), len(en))
	}
	for i := range sn {
		if !sn[i].Equal(en[i]) {
			t.Fatalf("//e and /descendant::e differ at %d", i)
		}
	}
}

func TestDoubleNotIsBoolean(t *testing.T) {
	for _, expr := range []string{"true()", "false()", "1 = 1", "1 = 2"} {
		doc := `{}`
		b := evalJSON(t, doc, "boolean("+expr+")")
		nn := evalJSON(t, doc, "not(not("+expr+"))")
		if nn.ToBoolean() != b.ToBoolean() {
			t.Fatalf("not(not(%s)) = %v, want %v", expr, nn.ToBoolean(), b.ToBoolean())
		}
	}
}

func TestNaNReflexivity(t *testing.T) {
	doc := `{}`
	eq := evalJSON(t, doc, "(0 div 0) = (0 div 0)")
	if eq.ToBoolean() {
		t.Fatalf("NaN = NaN should be false")
	}
	ne := evalJSON(t, doc, "(0 div 0) != (0 div 0)")
	if !ne.ToBoolean() {
		t.Fatalf("NaN != NaN should be true")
	}
}

func TestNumberStringRoundTrip(t *testing.T) {
	doc := `{}`
	for _, n := range []string{"0", "1", "-1", "42", "3.5", "1024"} {
		got := evalJSON(t, doc, "number(string("+n+"))")
		if got.ToString() != evalJSON(t, doc, n).ToString() {
			t.Fatalf("number(string(%s)) = %v, want %v", n, got.ToNumber(), n)
		}
	}
}

func TestUnionIdempotentAndCommutative(t *testing.T) {
	tree := mustCompileTree(t, `{"a":{"b":[1,2,3]}}`)
	left := evalOnTree(t, tree, "/a/b | /a/b")
	plain := evalOnTree(t, tree, "/a/b")
	if len(left.Nodes()) != len(plain.Nodes()) {
		t.Fatalf("union with self changed cardinality: %d vs %d", len(left.Nodes()), len(plain.Nodes()))
	}

	ab := evalOnTree(t, tree, "/a/b[1] | /a/b[2]")
	ba := evalOnTree(t, tree, "/a/b[2] | /a/b[1]")
	if len(ab.Nodes()) != len(ba.Nodes()) {
		t.Fatalf("union commutativity: cardinality mismatch")
	}
	for i := range ab.Nodes() {
		if !ab.Nodes()[i].Equal(ba.Nodes()[i]) {
			t.Fatalf("union commutativity: order mismatch at %d", i)
		}
	}
}

func TestBooleanOfBooleanIsIdempotent(t *testing.T) {
	doc := `{"a":1}`
	for _, expr := range []string{"/a", "0", "''", "'x'", "true()", "false()"} {
		once := evalJSON(t, doc, "boolean("+expr+")")
		twice := evalJSON(t, doc, "boolean(boolean("+expr+"))")
		if once.ToBoolean() != twice.ToBoolean() {
			t.Fatalf("boolean(boolean(%s)) != boolean(%s)", expr, expr)
		}
	}
}

func TestValueEqualityReflexiveExceptNaN(t *testing.T) {
	doc := `{}`
	for _, expr := range []string{"1", "'x'", "true()"} {
		got := evalJSON(t, doc, expr+" = "+expr)
		if !got.ToBoolean() {
			t.Fatalf("%s = %s should be true", expr, expr)
		}
	}
}

func TestPureLiteralExpressionsIgnoreDocument(t *testing.T) {
	for _, expr := range []string{"1 + 2", "'a' = 'a'", "not(false())", "3 * (2 - 1)"} {
		a := evalJSON(t, `{}`, expr)
		b := evalJSON(t, `{"anything":[1,2,3]}`, expr)
		if a.ToString() != b.ToString() {
			t.Fatalf("%s: not independent of document: %q vs %q", expr, a.ToString(), b.ToString())
		}
	}
}

func TestNumberConversionOfNaNIsFalse(t *testing.T) {
	doc := `{}`
	got := evalJSON(t, doc, "boolean(0 div 0)")
	if got.ToBoolean() {
		t.Fatalf("boolean(NaN) should be false")
	}
}

func TestStepLimitStopsRunawayEvaluation(t *testing.T) {
	env := xpath.NewEnv(map[string]any{})
	env.SetStepLimit(1)
	expr, err := xpath.CompileExpression("1 + 1 + 1 + 1 + 1")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := expr.Eval(env); err == nil {
		t.Fatalf("expected a resource error under a tight step limit")
	} else if !errors.Is(err, xpath.ErrResource) {
		t.Fatalf("expected ErrResource, got %v", err)
	}
}

func TestMathNaN(t *testing.T) {
	doc := `{}`
	got := evalJSON(t, doc, "0 div 0")
	if !math.IsNaN(got.ToNumber()) {
		t.Fatalf("0 div 0 should be NaN, got %v", got.ToNumber())
	}
}

func TestFunctionLibraryStrings(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"concat('a', 'b', 'c')", "abc"},
		{"substring('12345', 2, 3)", "234"},
		{"substring('12345', 2)", "2345"},
		{"substring-before('1999/04/01', '/')", "1999"},
		{"substring-after('1999/04/01', '/')", "04/01"},
		{"normalize-space('  a   b ')", "a b"},
		{"translate('bar', 'abc', 'ABC')", "BAr"},
		{"translate('--aaa--', 'abc-', 'ABC')", "AAA"},
		{"string(3.5)", "3.5"},
		{"string(1 div 0)", "Infinity"},
		{"string(-1 div 0)", "-Infinity"},
		{"string(0 div 0)", "NaN"},
	}
	for _, tt := range tests {
		got := evalJSON(t, `{}`, tt.expr)
		if got.ToString() != tt.want {
			t.Fatalf("%s: want %q, got %q", tt.expr, tt.want, got.ToString())
		}
	}
}

func TestFunctionLibraryNumbersAndBooleans(t *testing.T) {
	doc := `{"a":{"b":[1,2,3]}}`
	tests := []struct {
		expr string
		want float64
	}{
		{"sum(/a/b)", 6},
		{"floor(2.5)", 2},
		{"ceiling(2.5)", 3},
		{"round(2.5)", 3},
		{"round(-2.5)", -2},
		{"string-length('abc')", 3},
		{"count(/a/b[position() != last()])", 2},
		{"/a/b[position() = last()]", 3},
	}
	for _, tt := range tests {
		got := evalJSON(t, doc, tt.expr)
		if got.ToNumber() != tt.want {
			t.Fatalf("%s: want %v, got %v", tt.expr, tt.want, got.ToNumber())
		}
	}
	for _, tt := range []struct {
		expr string
		want bool
	}{
		{"starts-with('abc', 'ab')", true},
		{"starts-with('abc', 'b')", false},
		{"contains('abc', 'b')", true},
		{"contains('abc', 'z')", false},
	} {
		got := evalJSON(t, doc, tt.expr)
		if got.ToBoolean() != tt.want {
			t.Fatalf("%s: want %v, got %v", tt.expr, tt.want, got.ToBoolean())
		}
	}
}

func TestLocalNameOfSelection(t *testing.T) {
	doc := `{"a":{"b":{"c":{"e":1}},"d":{"c":{"e":1}}}}`
	got := evalJSON(t, doc, "local-name(/a/b)")
	if got.ToString() != "b" {
		t.Fatalf("local-name(/a/b): want %q, got %q", "b", got.ToString())
	}
	got = evalJSON(t, doc, "local-name(/a/b/c/e/ancestor::*[1])")
	if got.ToString() != "c" {
		t.Fatalf("nearest ancestor: want %q, got %q", "c", got.ToString())
	}
}

func TestSiblingAxes(t *testing.T) {
	doc := `{"a":{"b":[1,2,3]}}`
	got := evalJSON(t, doc, "count(/a/b[1]/following-sibling::node())")
	if got.ToNumber() != 2 {
		t.Fatalf("following siblings of first element: want 2, got %v", got.ToNumber())
	}
	got = evalJSON(t, doc, "string(/a/b[3]/preceding-sibling::node()[1])")
	if got.ToString() != "2" {
		t.Fatalf("nearest preceding sibling: want %q, got %q", "2", got.ToString())
	}
}

func TestTextNodeTest(t *testing.T) {
	doc := `{"a":{"b":1,"c":true,"d":"foo"}}`
	got := evalJSON(t, doc, "count(//text())")
	if got.ToNumber() != 3 {
		t.Fatalf("count(//text()): want 3, got %v", got.ToNumber())
	}
}

func TestGroupPredicateCountsGlobally(t *testing.T) {
	doc := `{"a":[{"a":1},{"a":2},{"b":3}]}`
	got := evalJSON(t, doc, "(//a)[2]")
	if got.ToString() != "2" {
		t.Fatalf("(//a)[2]: want the second match overall, got %q", got.ToString())
	}
}

func TestVariables(t *testing.T) {
	tree := mustCompileTree(t, `{"a":{"b":[1,2,3]}}`)
	env := xpath.NewEnvFromTree(tree)
	env.AddVariable("x", xpath.Number(2))
	expr, err := xpath.CompileExpression("$x + 1")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := expr.Eval(env)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got.ToNumber() != 3 {
		t.Fatalf("$x + 1: want 3, got %v", got.ToNumber())
	}

	expr, err = xpath.CompileExpression("$missing")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := expr.Eval(env); !errors.Is(err, xpath.ErrName) {
		t.Fatalf("unknown variable: want ErrName, got %v", err)
	}
}

func TestErrorKinds(t *testing.T) {
	doc := `{"a":1}`
	if _, err := xpath.EvalReader("nosuchfn(1)", strings.NewReader(doc)); !errors.Is(err, xpath.ErrName) {
		t.Fatalf("unknown function: want ErrName, got %v", err)
	}
	if _, err := xpath.EvalReader("not()", strings.NewReader(doc)); !errors.Is(err, xpath.ErrArity) {
		t.Fatalf("not(): want ErrArity, got %v", err)
	}
	if _, err := xpath.CompileExpression("following::a"); !errors.Is(err, xpath.ErrAxis) {
		t.Fatalf("following axis: want ErrAxis, got %v", err)
	}
	if _, err := xpath.CompileExpression("/a | 1"); err != nil {
		t.Fatalf("union compiles regardless of operand kinds: %v", err)
	}
	if _, err := xpath.EvalReader("/a | 1", strings.NewReader(doc)); !errors.Is(err, xpath.ErrType) {
		t.Fatalf("union of non-node-sets: want ErrType, got %v", err)
	}
}

func TestParseErrorCarriesPosition(t *testing.T) {
	_, err := xpath.CompileExpression("1 +")
	if !errors.Is(err, xpath.ErrParse) {
		t.Fatalf("want ErrParse, got %v", err)
	}
	var serr *xpath.SyntaxError
	if !errors.As(err, &serr) {
		t.Fatalf("want a SyntaxError with a position, got %T", err)
	}
	if serr.Pos.Line != 1 {
		t.Fatalf("want line 1, got %d", serr.Pos.Line)
	}
}

func TestPrimitiveContextValue(t *testing.T) {
	tree := mustCompileTree(t, `{}`)
	env, err := xpath.NewEnvValue(tree.Root(), xpath.Number(5))
	if err != nil {
		t.Fatalf("env: %v", err)
	}
	expr, err := xpath.CompileExpression(". + 1")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	got, err := expr.Eval(env)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if got.ToNumber() != 6 {
		t.Fatalf(". + 1 over context 5: want 6, got %v", got.ToNumber())
	}

	expr, err = xpath.CompileExpression("child::x")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := expr.Eval(env); !errors.Is(err, xpath.ErrType) {
		t.Fatalf("stepping from a primitive context: want ErrType, got %v", err)
	}
}

func TestEnvValueRejectsMultiNodeContext(t *testing.T) {
	tree := mustCompileTree(t, `{"a":{"b":[1,2,3]}}`)
	env := xpath.NewEnvFromTree(tree)
	expr, err := xpath.CompileExpression("/a/b")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	set, err := expr.Eval(env)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if _, err := xpath.NewEnvValue(tree.Root(), set); !errors.Is(err, xpath.ErrType) {
		t.Fatalf("multi-node context: want ErrType, got %v", err)
	}
	single := xpath.NodeSet(set.Nodes()[:1])
	nenv, err := xpath.NewEnvValue(tree.Root(), single)
	if err != nil {
		t.Fatalf("singleton context: %v", err)
	}
	got, err := expr.Eval(nenv)
	if err != nil {
		t.Fatalf("eval with node context: %v", err)
	}
	if len(got.Nodes()) != 3 {
		t.Fatalf("absolute path ignores the context node: want 3 nodes, got %d", len(got.Nodes()))
	}
}
