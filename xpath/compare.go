package xpath

import (
	"fmt"
	"math"
)

// compareEquality implements XPath 1.0's equality rules: when
// either side is a NodeSet the comparison is exists-quantified over
// the other side's own comparison rule (or over string-value pairs
// when both sides are NodeSets); otherwise booleans compare as
// booleans, else numbers as numbers, else strings as strings.
func compareEquality(l, r Value, wantEqual bool) (bool, error) {
	if l.Kind() == KindNodeSet || r.Kind() == KindNodeSet {
		return nodeSetEquality(l, r, wantEqual)
	}

	var ok bool
	switch {
	case l.Kind() == KindBoolean || r.Kind() == KindBoolean:
		ok = l.ToBoolean() == r.ToBoolean()
	case l.Kind() == KindNumber || r.Kind() == KindNumber:
		ln, rn := l.ToNumber(), r.ToNumber()
		ok = ln == rn // NaN != NaN falls out naturally
	default:
		ok = l.ToString() == r.ToString()
	}
	if wantEqual {
		return ok, nil
	}
	return !ok, nil
}

func nodeSetEquality(l, r Value, wantEqual bool) (bool, error) {
	if l.Kind() == KindNodeSet && r.Kind() == KindNodeSet {
		for _, a := range l.Nodes() {
			for _, b := range r.Nodes() {
				if (a.StringValue() == b.StringValue()) == wantEqual {
					return true, nil
				}
			}
		}
		return false, nil
	}
	// Exactly one side is a NodeSet; compare each of its nodes'
	// string-value, converted per the other side's type, against the
	// other operand, until one node satisfies the relation (= or !=).
	set, other := l, r
	if other.Kind() == KindNodeSet {
		set, other = r, l
	}
	for _, n := range set.Nodes() {
		sv := String(n.StringValue())
		var eq bool
		switch other.Kind() {
		case KindBoolean:
			eq = sv.ToBoolean() == other.ToBoolean()
		case KindNumber:
			eq = sv.ToNumber() == other.ToNumber()
		default:
			eq = sv.ToString() == other.ToString()
		}
		if eq == wantEqual {
			return true, nil
		}
	}
	return false, nil
}

// compareOrder implements <, <=, >, >=. Both operands must be a single
// value (primitive or singleton node-set); a multi-node NodeSet on
// either side is a type error rather than XPath 1.0's exists-quantified
// numeric comparison.
func compareOrder(l, r Value, op rune) (bool, error) {
	if !l.IsSingleValue() || !r.IsSingleValue() {
		return false, fmt.Errorf("%w: ordering comparison requires single values, not multi-node node-sets", ErrType)
	}
	ln, rn := l.ToNumber(), r.ToNumber()
	if math.IsNaN(ln) || math.IsNaN(rn) {
		return false, nil
	}
	switch op {
	case Lt:
		return ln < rn, nil
	case Le:
		return ln <= rn, nil
	case Gt:
		return ln > rn, nil
	case Ge:
		return ln >= rn, nil
	default:
		return false, fmt.Errorf("%w: unsupported ordering operator", ErrType)
	}
}
