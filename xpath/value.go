package xpath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/midbel/jpath/jsonv"
	"github.com/midbel/jpath/node"
)

// Kind tags the four variants of an XPath 1.0 Value.
type Kind int

const (
	KindNumber Kind = iota
	KindBoolean
	KindString
	KindNodeSet
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	case KindNodeSet:
		return "node-set"
	default:
		return "unknown"
	}
}

// Value is the tagged union the evaluator produces and consumes: a
// sum type with one payload field per variant, matched on Kind rather
// than represented as a raw union.
type Value struct {
	kind  Kind
	num   float64
	boo   bool
	str   string
	nodes []node.Node
}

func Number(f float64) Value { return Value{kind: KindNumber, num: f} }
func Boolean(b bool) Value   { return Value{kind: KindBoolean, boo: b} }
func String(s string) Value  { return Value{kind: KindString, str: s} }
func True() Value            { return Boolean(true) }
func False() Value           { return Boolean(false) }

// NodeSet builds a Value from nodes already in the order the caller
// wants preserved; it does not sort or dedupe.
func NodeSet(nodes []node.Node) Value {
	return Value{kind: KindNodeSet, nodes: nodes}
}

func (v Value) Kind() Kind { return v.kind }

// Nodes returns the NodeSet payload, or nil for any other Kind.
func (v Value) Nodes() []node.Node {
	if v.kind != KindNodeSet {
		return nil
	}
	return v.nodes
}

// IsSingleValue reports whether v is a primitive or a NodeSet of
// exactly one node whose effective JSON is a primitive -- the "single
// value" ordering comparisons require of their operands.
func (v Value) IsSingleValue() bool {
	switch v.kind {
	case KindNodeSet:
		return len(v.nodes) == 1 && v.nodes[0].IsValue()
	default:
		return true
	}
}

// ToNumber converts v following XPath 1.0's number() rules.
func (v Value) ToNumber() float64 {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBoolean:
		if v.boo {
			return 1
		}
		return 0
	case KindString:
		return parseXPathNumber(v.str)
	case KindNodeSet:
		if len(v.nodes) == 0 {
			return math.NaN()
		}
		return parseXPathNumber(v.nodes[0].StringValue())
	default:
		return math.NaN()
	}
}

// ToBoolean converts v following XPath 1.0's boolean() rules.
func (v Value) ToBoolean() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBoolean:
		return v.boo
	case KindString:
		return v.str != ""
	case KindNodeSet:
		return len(v.nodes) != 0
	default:
		return false
	}
}

// ToString converts v following XPath 1.0's string() rules.
func (v Value) ToString() string {
	switch v.kind {
	case KindNumber:
		return node.FormatNumber(v.num)
	case KindBoolean:
		if v.boo {
			return "true"
		}
		return "false"
	case KindString:
		return v.str
	case KindNodeSet:
		if len(v.nodes) == 0 {
			return ""
		}
		return v.nodes[0].StringValue()
	default:
		return ""
	}
}

// StringValue concatenates the string-values of every node in a
// NodeSet, in the set's own order; for the other kinds it agrees with
// ToString. string() conversion only ever looks at the first node, but
// a node-set result printed as text reads as the concatenation -- the
// two accessors are deliberately distinct.
func (v Value) StringValue() string {
	if v.kind != KindNodeSet {
		return v.ToString()
	}
	var sb strings.Builder
	for _, n := range v.nodes {
		sb.WriteString(n.StringValue())
	}
	return sb.String()
}

// Format renders v the way the façade prints a result: primitives as
// their canonical string, a NodeSet as "[n1, n2, ...]" with each node
// shown in its raw JSON form.
func (v Value) Format() string {
	if v.kind != KindNodeSet {
		return v.ToString()
	}
	parts := make([]string, len(v.nodes))
	for i, n := range v.nodes {
		parts[i] = formatRawJSON(n.JSON())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatRawJSON(val any) string {
	switch x := val.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(x)
	case bool:
		if x {
			return "true"
		}
		return "false"
	case float64:
		return node.FormatNumber(x)
	case *jsonv.Object:
		var sb strings.Builder
		sb.WriteByte('{')
		for i, m := range x.Members {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(m.Key))
			sb.WriteByte(':')
			sb.WriteString(formatRawJSON(m.Value))
		}
		sb.WriteByte('}')
		return sb.String()
	case jsonv.Array:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, el := range x {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(formatRawJSON(el))
		}
		sb.WriteByte(']')
		return sb.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// parseXPathNumber implements XPath 1.0's string-to-number conversion:
// well-formed numbers (optional surrounding whitespace, optional
// leading '-', digits, optional decimal part) parse to their value;
// anything else yields NaN.
func parseXPathNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	digits, dot := 0, false
	for _, c := range strings.TrimPrefix(s, "-") {
		switch {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return math.NaN()
		}
	}
	if digits == 0 {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
