package xpath

import (
	"fmt"
	"io"
	"strings"
)

// Dump pretty-prints a compiled expression's AST to w, one node per
// line with children indented.
func Dump(w io.Writer, expr Expr) {
	dumpExpr(w, expr, 0)
}

func dumpExpr(w io.Writer, expr Expr, depth int) {
	indent := strings.Repeat("  ", depth)
	switch e := expr.(type) {
	case numberLit:
		fmt.Fprintf(w, "%snumber(%v)\n", indent, e.val)
	case stringLit:
		fmt.Fprintf(w, "%sstring(%q)\n", indent, e.val)
	case varRef:
		fmt.Fprintf(w, "%svariable($%s)\n", indent, e.name)
	case unaryMinus:
		fmt.Fprintf(w, "%sunary-minus\n", indent)
		dumpExpr(w, e.x, depth+1)
	case binary:
		fmt.Fprintf(w, "%sbinary(%s)\n", indent, Token{Type: e.op}.String())
		dumpExpr(w, e.left, depth+1)
		dumpExpr(w, e.right, depth+1)
	case unionExpr:
		fmt.Fprintf(w, "%sunion\n", indent)
		dumpExpr(w, e.left, depth+1)
		dumpExpr(w, e.right, depth+1)
	case call:
		fmt.Fprintf(w, "%scall(%s)\n", indent, e.name)
		for _, a := range e.args {
			dumpExpr(w, a, depth+1)
		}
	case rootExpr:
		fmt.Fprintf(w, "%sroot\n", indent)
	case *stepExpr:
		fmt.Fprintf(w, "%sstep(axis=%d, test=%s, preds=%d)\n", indent, e.axis, dumpTest(e.test), len(e.preds))
		if e.left != nil {
			dumpExpr(w, e.left, depth+1)
		}
		for _, p := range e.preds {
			dumpExpr(w, p, depth+1)
		}
	case filterExpr:
		fmt.Fprintf(w, "%sfilter\n", indent)
		dumpExpr(w, e.expr, depth+1)
		for _, p := range e.preds {
			dumpExpr(w, p, depth+1)
		}
	default:
		fmt.Fprintf(w, "%s<unknown expr %T>\n", indent, e)
	}
}

func dumpTest(t nodeTest) string {
	switch t.kind {
	case testWildcard:
		return "*"
	case testNode:
		return "node()"
	case testText:
		return "text()"
	default:
		return t.name
	}
}
