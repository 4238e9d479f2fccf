package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/midbel/jpath/node"
	"github.com/midbel/jpath/xpath"
)

// openInput opens file for reading, or returns stdin when file is "-"
// or empty.
func openInput(file string) (io.ReadCloser, error) {
	if file == "" || file == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(file)
}

// loadTree reads and decodes the JSON document at file into a
// node.Tree ready for XPath evaluation.
func loadTree(file string) (*node.Tree, error) {
	r, err := openInput(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return node.Parse(r)
}

// varFlag accumulates repeated -var name=value flags into an Env, so
// an expression can be parameterized without editing its text.
type varFlag struct {
	env *xpath.Env
}

func (v *varFlag) String() string { return "" }

func (v *varFlag) Set(raw string) error {
	name, value, ok := strings.Cut(raw, "=")
	if !ok {
		return fmt.Errorf("-var expects name=value, got %q", raw)
	}
	v.env.AddVariable(name, xpath.String(value))
	return nil
}
