package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/midbel/jpath/jsonv"
	"github.com/midbel/jpath/sch"
)

// CheckCmd is "jpath check RULES DATA": evaluate a Schematron-like
// rule document against a JSON payload and print a report line per
// assertion (passing ones read "ok"), exiting non-zero when any
// assertion failed.
type CheckCmd struct {
	YAML  bool
	Quiet bool
}

var checkCmd CheckCmd

func (c CheckCmd) Run(args []string) error {
	var set = flag.NewFlagSet("check", flag.ContinueOnError)
	set.BoolVar(&c.YAML, "yaml", false, "the rules document is YAML, not JSON")
	set.BoolVar(&c.Quiet, "quiet", false, "suppress per-assertion diagnostics")
	if err := set.Parse(args); err != nil {
		return err
	}
	if set.NArg() < 2 {
		return fmt.Errorf("check: RULES and DATA arguments are required")
	}

	schema, err := loadSchema(set.Arg(0), c.YAML)
	if err != nil {
		return err
	}
	tree, err := loadTree(set.Arg(1))
	if err != nil {
		return err
	}
	results, err := schema.Run(tree)
	if err != nil {
		return err
	}
	if !c.Quiet {
		sch.WriteReport(os.Stdout, results)
	}
	fmt.Fprintln(os.Stderr, sch.Summary(results))

	for _, r := range results {
		if r.Failed() {
			return errFail
		}
	}
	return nil
}

// loadSchema reads a rule document from file; with isYAML set the
// document is decoded as YAML and transcoded into the JSON value shape
// sch.FromValue expects, so rules can be authored in either syntax.
func loadSchema(file string, isYAML bool) (*sch.Schema, error) {
	r, err := openInput(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if !isYAML {
		return sch.Load(r)
	}
	var generic any
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return sch.FromValue(asJSONValue(generic))
}

// asJSONValue rebuilds a goccy/go-yaml-decoded value (maps keyed by
// string, slices of any, scalars) into the *jsonv.Object/jsonv.Array
// shape sch.FromValue expects. Member order within a YAML mapping is
// not meaningful to a rule document (every field is looked up by
// name, never iterated), so no order is preserved here -- unlike
// jsonv's own decoder, which preserves it because document order over
// data documents is load-bearing.
func asJSONValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		obj := &jsonv.Object{}
		for k, val := range x {
			obj.Members = append(obj.Members, jsonv.Member{Key: k, Value: asJSONValue(val)})
		}
		return obj
	case []any:
		arr := make(jsonv.Array, len(x))
		for i, val := range x {
			arr[i] = asJSONValue(val)
		}
		return arr
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case uint64:
		return float64(x)
	default:
		return x
	}
}
