// Command jpath is the CLI driver for the jpath XPath-over-JSON
// engine: "eval" runs one expression against a JSON document, "check"
// runs a Schematron-like rule document against one, and "inspect"
// opens an interactive node-tree browser. Exit status is 2 after the
// top-level help is printed, and 1 for any error returned by a command,
// a failed evaluation or check included.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/midbel/cli"
)

var errFail = errors.New("fail")

const (
	summary = "jpath evaluates XPath 1.0 expressions against JSON documents"
	help    = ""
)

func main() {
	var (
		set  = cli.NewFlagSet("jpath")
		root = prepare()
	)
	root.SetSummary(summary)
	root.SetHelp(help)
	if err := set.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			root.Help()
			os.Exit(2)
		}
	}
	err := root.Execute(set.Args())
	if err != nil {
		if s, ok := err.(cli.SuggestionError); ok && len(s.Others) > 0 {
			fmt.Fprintln(os.Stderr, "similar command(s)")
			for _, n := range s.Others {
				fmt.Fprintln(os.Stderr, "-", n)
			}
		}
		if !errors.Is(err, errFail) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func prepare() *cli.CommandTrie {
	root := cli.New()
	root.Register([]string{"eval"}, &cli.Command{Name: "eval", Handler: &evalCmd})
	root.Register([]string{"check"}, &cli.Command{Name: "check", Handler: &checkCmd})
	root.Register([]string{"inspect"}, &cli.Command{Name: "inspect", Handler: &inspectCmd})
	return root
}
