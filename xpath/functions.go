package xpath

import (
	"fmt"
	"math"
	"strings"
)

type builtinFunc func(ctx *Context, args []Expr) (Value, error)

// builtins is the XPath 1.0 core function library, dispatched by name
// through an arity-checking wrapper.
var builtins = map[string]builtinFunc{
	"last":             checkArity(0, 0, fnLast),
	"position":         checkArity(0, 0, fnPosition),
	"count":            checkArity(1, 1, fnCount),
	"local-name":       checkArity(0, 1, fnLocalName),
	"name":             checkArity(0, 1, fnLocalName),
	"string":           checkArity(0, 1, fnString),
	"concat":           checkArityMin(2, fnConcat),
	"starts-with":      checkArity(2, 2, fnStartsWith),
	"contains":         checkArity(2, 2, fnContains),
	"substring":        checkArity(2, 3, fnSubstring),
	"substring-before": checkArity(2, 2, fnSubstringBefore),
	"substring-after":  checkArity(2, 2, fnSubstringAfter),
	"string-length":    checkArity(0, 1, fnStringLength),
	"normalize-space":  checkArity(0, 1, fnNormalizeSpace),
	"translate":        checkArity(3, 3, fnTranslate),
	"boolean":          checkArity(1, 1, fnBoolean),
	"not":              checkArity(1, 1, fnNot),
	"true":             checkArity(0, 0, fnTrue),
	"false":            checkArity(0, 0, fnFalse),
	"number":           checkArity(0, 1, fnNumber),
	"sum":              checkArity(1, 1, fnSum),
	"floor":            checkArity(1, 1, fnFloor),
	"ceiling":          checkArity(1, 1, fnCeiling),
	"round":            checkArity(1, 1, fnRound),
}

func checkArity(min, max int, fn builtinFunc) builtinFunc {
	return func(ctx *Context, args []Expr) (Value, error) {
		if len(args) < min || len(args) > max {
			return Value{}, wrapf(ErrArity, "wrong number of arguments: got %d", len(args))
		}
		return fn(ctx, args)
	}
}

func checkArityMin(min int, fn builtinFunc) builtinFunc {
	return func(ctx *Context, args []Expr) (Value, error) {
		if len(args) < min {
			return Value{}, wrapf(ErrArity, "wrong number of arguments: got %d", len(args))
		}
		return fn(ctx, args)
	}
}

func fnLast(ctx *Context, args []Expr) (Value, error) {
	return Number(float64(ctx.Size)), nil
}

func fnPosition(ctx *Context, args []Expr) (Value, error) {
	return Number(float64(ctx.Pos)), nil
}

func fnCount(ctx *Context, args []Expr) (Value, error) {
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if v.Kind() != KindNodeSet {
		return Value{}, fmt.Errorf("%w: count() requires a node-set", ErrType)
	}
	return Number(float64(len(v.Nodes()))), nil
}

func fnLocalName(ctx *Context, args []Expr) (Value, error) {
	if len(args) == 0 {
		return String(ctx.Node.LocalName()), nil
	}
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if v.Kind() != KindNodeSet || len(v.Nodes()) == 0 {
		return String(""), nil
	}
	return String(v.Nodes()[0].LocalName()), nil
}

func fnString(ctx *Context, args []Expr) (Value, error) {
	if len(args) == 0 {
		return String(ctx.contextString()), nil
	}
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return String(v.ToString()), nil
}

func fnConcat(ctx *Context, args []Expr) (Value, error) {
	var sb strings.Builder
	for _, a := range args {
		v, err := a.Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		sb.WriteString(v.ToString())
	}
	return String(sb.String()), nil
}

func fnStartsWith(ctx *Context, args []Expr) (Value, error) {
	s1, s2, err := twoStrings(ctx, args)
	if err != nil {
		return Value{}, err
	}
	return Boolean(strings.HasPrefix(s1, s2)), nil
}

func fnContains(ctx *Context, args []Expr) (Value, error) {
	s1, s2, err := twoStrings(ctx, args)
	if err != nil {
		return Value{}, err
	}
	return Boolean(strings.Contains(s1, s2)), nil
}

func fnSubstringBefore(ctx *Context, args []Expr) (Value, error) {
	s1, s2, err := twoStrings(ctx, args)
	if err != nil {
		return Value{}, err
	}
	i := strings.Index(s1, s2)
	if i < 0 {
		return String(""), nil
	}
	return String(s1[:i]), nil
}

func fnSubstringAfter(ctx *Context, args []Expr) (Value, error) {
	s1, s2, err := twoStrings(ctx, args)
	if err != nil {
		return Value{}, err
	}
	i := strings.Index(s1, s2)
	if i < 0 {
		return String(""), nil
	}
	return String(s1[i+len(s2):]), nil
}

func fnSubstring(ctx *Context, args []Expr) (Value, error) {
	s, err := evalString(ctx, args[0])
	if err != nil {
		return Value{}, err
	}
	startV, err := args[1].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	runes := []rune(s)
	// XPath substring() rounds to the nearest integer and is 1-based;
	// characters before position 1 or past the string's end are
	// simply excluded rather than erroring.
	start := round(startV.ToNumber())
	length := math.Inf(1)
	if len(args) == 3 {
		lenV, err := args[2].Eval(ctx)
		if err != nil {
			return Value{}, err
		}
		length = round(lenV.ToNumber())
	}
	lo := start
	hi := start + length
	if lo < 1 {
		lo = 1
	}
	if hi > float64(len(runes))+1 {
		hi = float64(len(runes)) + 1
	}
	if math.IsNaN(lo) || math.IsNaN(hi) || hi <= lo {
		return String(""), nil
	}
	return String(string(runes[int(lo)-1 : int(hi)-1])), nil
}

func fnStringLength(ctx *Context, args []Expr) (Value, error) {
	s, err := contextOrArgString(ctx, args)
	if err != nil {
		return Value{}, err
	}
	return Number(float64(len([]rune(s)))), nil
}

func fnNormalizeSpace(ctx *Context, args []Expr) (Value, error) {
	s, err := contextOrArgString(ctx, args)
	if err != nil {
		return Value{}, err
	}
	return String(strings.Join(strings.Fields(s), " ")), nil
}

func fnTranslate(ctx *Context, args []Expr) (Value, error) {
	s, err := evalString(ctx, args[0])
	if err != nil {
		return Value{}, err
	}
	from, err := evalString(ctx, args[1])
	if err != nil {
		return Value{}, err
	}
	to, err := evalString(ctx, args[2])
	if err != nil {
		return Value{}, err
	}
	fromRunes, toRunes := []rune(from), []rune(to)
	var sb strings.Builder
	for _, r := range s {
		idx := -1
		for i, f := range fromRunes {
			if f == r {
				idx = i
				break
			}
		}
		switch {
		case idx < 0:
			sb.WriteRune(r)
		case idx < len(toRunes):
			sb.WriteRune(toRunes[idx])
		default:
			// character dropped: mapped past the end of `to`
		}
	}
	return String(sb.String()), nil
}

func fnBoolean(ctx *Context, args []Expr) (Value, error) {
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return Boolean(v.ToBoolean()), nil
}

func fnNot(ctx *Context, args []Expr) (Value, error) {
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return Boolean(!v.ToBoolean()), nil
}

func fnTrue(ctx *Context, args []Expr) (Value, error) { return True(), nil }
func fnFalse(ctx *Context, args []Expr) (Value, error) { return False(), nil }

func fnNumber(ctx *Context, args []Expr) (Value, error) {
	if len(args) == 0 {
		return Number(parseXPathNumber(ctx.contextString())), nil
	}
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return Number(v.ToNumber()), nil
}

func fnSum(ctx *Context, args []Expr) (Value, error) {
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	if v.Kind() != KindNodeSet {
		return Value{}, fmt.Errorf("%w: sum() requires a node-set", ErrType)
	}
	var total float64
	for _, n := range v.Nodes() {
		total += parseXPathNumber(n.StringValue())
	}
	return Number(total), nil
}

func fnFloor(ctx *Context, args []Expr) (Value, error) {
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return Number(math.Floor(v.ToNumber())), nil
}

func fnCeiling(ctx *Context, args []Expr) (Value, error) {
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return Number(math.Ceil(v.ToNumber())), nil
}

func fnRound(ctx *Context, args []Expr) (Value, error) {
	v, err := args[0].Eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return Number(round(v.ToNumber())), nil
}

// round implements XPath 1.0 round(): halves round toward positive
// infinity, not away from zero like Go's math.Round.
func round(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.Floor(f + 0.5)
}

func twoStrings(ctx *Context, args []Expr) (string, string, error) {
	s1, err := evalString(ctx, args[0])
	if err != nil {
		return "", "", err
	}
	s2, err := evalString(ctx, args[1])
	if err != nil {
		return "", "", err
	}
	return s1, s2, nil
}

func evalString(ctx *Context, e Expr) (string, error) {
	v, err := e.Eval(ctx)
	if err != nil {
		return "", err
	}
	return v.ToString(), nil
}

func contextOrArgString(ctx *Context, args []Expr) (string, error) {
	if len(args) == 0 {
		return ctx.contextString(), nil
	}
	return evalString(ctx, args[0])
}
