package sch

import (
	"bytes"
	"strings"
	"testing"
)

const rulesDoc = `{
  "title": "demo",
  "patterns": [
    {
      "id": "p1",
      "rules": [
        {
          "context": "//items",
          "asserts": [
            {"id": "a1", "test": "number(price) >= 0", "message": "price must be non-negative", "flag": "fatal"},
            {"id": "a2", "test": "price", "message": "item must have a price", "flag": "fatal"}
          ]
        }
      ]
    }
  ]
}`

const dataDoc = `{"items":[{"price":1},{"price":2},{"name":"no price"}]}`

func TestEvalReportsFailures(t *testing.T) {
	var out bytes.Buffer
	ok, err := Eval(strings.NewReader(rulesDoc), strings.NewReader(dataDoc), &out)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if ok {
		t.Fatalf("expected failures, got none")
	}
	if !strings.Contains(out.String(), "item must have a price") {
		t.Fatalf("expected diagnostic message in output, got %q", out.String())
	}
}

func TestEvalAllPass(t *testing.T) {
	rules := `{"patterns":[{"id":"p1","rules":[{"context":"//items","asserts":[
		{"id":"a1","test":"price","message":"missing price","flag":"fatal"}
	]}]}]}`
	data := `{"items":[{"price":1},{"price":2}]}`
	var out bytes.Buffer
	ok, err := Eval(strings.NewReader(rules), strings.NewReader(data), &out)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !ok {
		t.Fatalf("expected all assertions to pass, got diagnostics: %s", out.String())
	}
}

func TestSummary(t *testing.T) {
	results := []Result{
		{Pass: 2, Fail: 0, Total: 2},
		{Pass: 1, Fail: 1, Total: 2},
	}
	got := Summary(results)
	if got != "1 passed, 1 failed" {
		t.Fatalf("unexpected summary: %s", got)
	}
}
