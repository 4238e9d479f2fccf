package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/midbel/jpath/xpath"
)

// EvalCmd is the "jpath eval EXPR FILE" command: it parses EXPR, binds
// any -var flags, evaluates against the JSON document read from FILE
// (or stdin), and prints the resulting Value. An empty node-set result
// exits non-zero so scripts can branch on a match.
type EvalCmd struct {
	Quiet bool
	Trace bool
}

var evalCmd EvalCmd

const evalInfo = "eval took %s - result: %s"

func (c EvalCmd) Run(args []string) error {
	var (
		set  = flag.NewFlagSet("eval", flag.ContinueOnError)
		vars []string
	)
	set.BoolVar(&c.Quiet, "quiet", false, "suppress the result line on stdout; the stderr timing summary is still printed")
	set.BoolVar(&c.Trace, "trace", false, "dump the compiled AST before evaluating")
	set.Func("var", "bind a variable as name=value (repeatable)", func(raw string) error {
		vars = append(vars, raw)
		return nil
	})
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() < 1 {
		return fmt.Errorf("eval: an XPath expression is required")
	}

	tree, err := loadTree(set.Arg(1))
	if err != nil {
		return err
	}
	env := xpath.NewEnvFromTree(tree)
	for _, raw := range vars {
		vf := varFlag{env: env}
		if err := vf.Set(raw); err != nil {
			return err
		}
	}

	now := time.Now()
	expr, err := xpath.CompileExpression(set.Arg(0))
	if err != nil {
		return err
	}
	if c.Trace {
		expr.Dump(os.Stderr)
	}
	result, err := expr.Eval(env)
	if err != nil {
		return err
	}
	elapsed := time.Since(now)
	if !c.Quiet {
		fmt.Fprintln(os.Stdout, result.Format())
	}
	fmt.Fprintf(os.Stderr, evalInfo, elapsed, result.Format())
	fmt.Fprintln(os.Stderr)
	if result.Kind() == xpath.KindNodeSet && len(result.Nodes()) == 0 {
		return errFail
	}
	return nil
}
