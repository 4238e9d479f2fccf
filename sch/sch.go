// Package sch evaluates a Schematron-like rule document against a
// JSON payload: for each rule, select the nodes matching its context
// XPath, then evaluate each assertion's test XPath with that node as
// context, reporting the message when an assertion is false.
//
// A rule document is itself JSON, shaped as
// {patterns:[{rules:[{context, asserts:[{test, message}]}]}]}.
package sch

import (
	"fmt"
	"io"

	"github.com/midbel/jpath/jsonv"
	"github.com/midbel/jpath/node"
	"github.com/midbel/jpath/xpath"
)

const (
	LevelFatal = "fatal"
	LevelWarn  = "warning"
)

// Assert is one test inside a Rule: an XPath boolean expression and
// the message to report when it is false.
type Assert struct {
	Ident   string
	Test    *xpath.Expression
	Message string
	Flag    string
}

// Rule selects a set of context nodes and runs every Assert once per
// selected node.
type Rule struct {
	Context *xpath.Expression
	Asserts []*Assert
}

// Pattern groups related rules under an identifier, mirroring
// Schematron's own grouping.
type Pattern struct {
	Ident string
	Rules []*Rule
}

// Schema is a compiled rule document: every context/test expression is
// parsed once at load time, so Run only evaluates, never parses.
type Schema struct {
	Title    string
	Patterns []*Pattern
}

// Result is one assertion's outcome across every node its rule's
// context selected: pass/fail counts rather than a single boolean, so
// a report can say how many nodes failed, not only that some did.
type Result struct {
	Pattern string
	Ident   string
	Message string
	Severe  bool
	Pass    int
	Fail    int
	Total   int
}

// Failed reports whether any node failed this assertion.
func (r Result) Failed() bool { return r.Fail > 0 }

// Load parses a rule document read from r into a compiled Schema.
func Load(r io.Reader) (*Schema, error) {
	doc, err := jsonv.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromValue(doc)
}

// FromValue compiles a rule document already decoded into the
// *jsonv.Object/jsonv.Array/primitive shape jsonv.Decode produces --
// an entry point for callers that decode the rule document from a
// non-JSON syntax (cmd/jpath's -yaml flag) and only need the JSON
// object shape, not JSON text, built from it.
func FromValue(doc any) (*Schema, error) {
	return buildSchema(doc)
}

// Eval is the one-shot façade: load the rule document from rules,
// evaluate it against the JSON document read from data, and write one
// diagnostic line per failing assertion to out. It returns true iff
// every assertion held for every node it was evaluated against.
func Eval(rules, data io.Reader, out io.Writer) (bool, error) {
	schema, err := Load(rules)
	if err != nil {
		return false, err
	}
	tree, err := node.Parse(data)
	if err != nil {
		return false, err
	}
	results, err := schema.Run(tree)
	if err != nil {
		return false, err
	}
	ok := true
	for _, res := range results {
		if res.Failed() {
			ok = false
			fmt.Fprintf(out, "%s/%s: %d/%d failed -- %s\n", res.Pattern, res.Ident, res.Fail, res.Total, res.Message)
		}
	}
	return ok, nil
}

// Run evaluates every pattern's rules against tree and returns one
// Result per assertion.
func (s *Schema) Run(tree *node.Tree) ([]Result, error) {
	var list []Result
	for _, p := range s.Patterns {
		res, err := p.run(tree)
		if err != nil {
			return nil, err
		}
		list = append(list, res...)
	}
	return list, nil
}

func (p *Pattern) run(tree *node.Tree) ([]Result, error) {
	var list []Result
	for _, r := range p.Rules {
		res, err := r.run(tree)
		if err != nil {
			return nil, err
		}
		for i := range res {
			res[i].Pattern = p.Ident
		}
		list = append(list, res...)
	}
	return list, nil
}

func (r *Rule) run(tree *node.Tree) ([]Result, error) {
	env := xpath.NewEnvFromTree(tree)
	ctxVal, err := r.Context.Eval(env)
	if err != nil {
		return nil, err
	}
	nodes := ctxVal.Nodes()
	var list []Result
	for _, a := range r.Asserts {
		res := Result{
			Ident:   a.Ident,
			Severe:  a.Flag == LevelFatal,
			Total:   len(nodes),
			Message: a.Message,
		}
		for _, n := range nodes {
			nenv, err := xpath.NewEnvValue(tree.Root(), xpath.NodeSet([]node.Node{n}))
			if err != nil {
				return nil, err
			}
			v, err := a.Test.Eval(nenv)
			if err != nil {
				return nil, err
			}
			if v.ToBoolean() {
				res.Pass++
			} else {
				res.Fail++
			}
		}
		list = append(list, res)
	}
	return list, nil
}

func buildSchema(doc any) (*Schema, error) {
	obj, ok := doc.(*jsonv.Object)
	if !ok {
		return nil, fmt.Errorf("sch: rule document must be a JSON object")
	}
	var schema Schema
	if title, ok := obj.Get("title"); ok {
		schema.Title, _ = title.(string)
	}
	rawPatterns, ok := obj.Get("patterns")
	if !ok {
		return nil, fmt.Errorf("sch: rule document missing %q", "patterns")
	}
	arr, ok := rawPatterns.(jsonv.Array)
	if !ok {
		return nil, fmt.Errorf("sch: %q must be an array", "patterns")
	}
	for i, rp := range arr {
		pat, err := buildPattern(rp)
		if err != nil {
			return nil, fmt.Errorf("patterns[%d]: %w", i, err)
		}
		schema.Patterns = append(schema.Patterns, pat)
	}
	return &schema, nil
}

func buildPattern(v any) (*Pattern, error) {
	obj, ok := v.(*jsonv.Object)
	if !ok {
		return nil, fmt.Errorf("pattern must be an object")
	}
	var pat Pattern
	if id, ok := obj.Get("id"); ok {
		pat.Ident, _ = id.(string)
	}
	rawRules, ok := obj.Get("rules")
	if !ok {
		return nil, fmt.Errorf("missing %q", "rules")
	}
	arr, ok := rawRules.(jsonv.Array)
	if !ok {
		return nil, fmt.Errorf("%q must be an array", "rules")
	}
	for i, rr := range arr {
		rule, err := buildRule(rr)
		if err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}
		pat.Rules = append(pat.Rules, rule)
	}
	return &pat, nil
}

func buildRule(v any) (*Rule, error) {
	obj, ok := v.(*jsonv.Object)
	if !ok {
		return nil, fmt.Errorf("rule must be an object")
	}
	ctxStr, ok := obj.Get("context")
	if !ok {
		return nil, fmt.Errorf("missing %q", "context")
	}
	ctxText, _ := ctxStr.(string)
	ctx, err := xpath.CompileExpression(ctxText)
	if err != nil {
		return nil, fmt.Errorf("context %q: %w", ctxText, err)
	}
	rule := Rule{Context: ctx}

	rawAsserts, ok := obj.Get("asserts")
	if !ok {
		return nil, fmt.Errorf("missing %q", "asserts")
	}
	arr, ok := rawAsserts.(jsonv.Array)
	if !ok {
		return nil, fmt.Errorf("%q must be an array", "asserts")
	}
	for i, ra := range arr {
		ass, err := buildAssert(ra)
		if err != nil {
			return nil, fmt.Errorf("asserts[%d]: %w", i, err)
		}
		rule.Asserts = append(rule.Asserts, ass)
	}
	return &rule, nil
}

func buildAssert(v any) (*Assert, error) {
	obj, ok := v.(*jsonv.Object)
	if !ok {
		return nil, fmt.Errorf("assert must be an object")
	}
	testStr, ok := obj.Get("test")
	if !ok {
		return nil, fmt.Errorf("missing %q", "test")
	}
	testText, _ := testStr.(string)
	test, err := xpath.CompileExpression(testText)
	if err != nil {
		return nil, fmt.Errorf("test %q: %w", testText, err)
	}
	ass := Assert{Test: test}
	if id, ok := obj.Get("id"); ok {
		ass.Ident, _ = id.(string)
	}
	if msg, ok := obj.Get("message"); ok {
		ass.Message, _ = msg.(string)
	}
	if flag, ok := obj.Get("flag"); ok {
		ass.Flag, _ = flag.(string)
	} else {
		ass.Flag = LevelFatal
	}
	return &ass, nil
}
