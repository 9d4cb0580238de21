package payoff

import (
	"math"

	"option-pricer/internal/errors"
)

// valueKind discriminates the three runtime value types.
type valueKind int

const (
	numberValue valueKind = iota
	booleanValue
	sequenceValue
)

var kindNames = map[valueKind]string{
	numberValue:   "number",
	booleanValue:  "boolean",
	sequenceValue: "sequence",
}

// value is the tagged runtime value of a subexpression.
type value struct {
	kind valueKind
	num  float64
	b    bool
	seq  []float64
}

func numberOf(f float64) value     { return value{kind: numberValue, num: f} }
func booleanOf(b bool) value       { return value{kind: booleanValue, b: b} }
func sequenceOf(s []float64) value { return value{kind: sequenceValue, seq: s} }

// env holds the variable bindings for one evaluation.
type env struct {
	s    float64
	hasS bool
	path []float64
}

// Bindings carries the variables available to a payoff expression: the
// terminal price S, the full price path, or both. Use the constructors;
// the zero value binds nothing.
type Bindings struct {
	env env
}

// TerminalBindings binds only the scalar terminal price S.
func TerminalBindings(s float64) Bindings {
	return Bindings{env: env{s: s, hasS: true}}
}

// PathBindings binds the full simulated path and derives S from its
// terminal element.
func PathBindings(path []float64) Bindings {
	b := Bindings{env: env{path: path}}
	if len(path) > 0 {
		b.env.s = path[len(path)-1]
		b.env.hasS = true
	}
	return b
}

// Compiled is a parsed payoff expression, reusable across evaluations.
// Compile once per pricing call; evaluate once per path.
type Compiled struct {
	src      string
	root     node
	usesS    bool
	usesPath bool
}

// Compile parses text into a reusable expression. It fails with a
// SyntaxError naming the byte offset for malformed input or any
// identifier outside the whitelist.
func Compile(text string) (*Compiled, error) {
	root, usesS, usesPath, err := parse(text)
	if err != nil {
		return nil, err
	}
	return &Compiled{src: text, root: root, usesS: usesS, usesPath: usesPath}, nil
}

// Source returns the original expression text.
func (c *Compiled) Source() string { return c.src }

// UsesPath reports whether the expression references the full path.
func (c *Compiled) UsesPath() bool { return c.usesPath }

// UsesTerminal reports whether the expression references S.
func (c *Compiled) UsesTerminal() bool { return c.usesS }

// Eval evaluates the expression against the given bindings. The result
// must be a number; boolean or sequence results are evaluation errors.
func (c *Compiled) Eval(b Bindings) (float64, error) {
	v, err := c.root.eval(&b.env)
	if err != nil {
		return 0, err
	}
	if v.kind != numberValue {
		return 0, errors.NewEvalError(c.root.pos(), "payoff must evaluate to a number, got %s", kindNames[v.kind])
	}
	return v.num, nil
}

// Evaluate applies the expression to one simulated path. It satisfies the
// engine's payoff contract.
func (c *Compiled) Evaluate(path []float64) (float64, error) {
	if len(path) == 0 {
		return 0, errors.NewEvalError(0, "empty price path")
	}
	return c.Eval(PathBindings(path))
}

func (n *literalNode) eval(_ *env) (value, error) {
	return numberOf(n.val), nil
}

func (n *variableNode) eval(e *env) (value, error) {
	switch n.name {
	case varTerminal:
		if !e.hasS {
			return value{}, errors.NewEvalError(n.at, "variable S is not bound")
		}
		return numberOf(e.s), nil
	case varPath:
		if e.path == nil {
			return value{}, errors.NewEvalError(n.at, "variable path is not bound")
		}
		return sequenceOf(e.path), nil
	}
	return value{}, errors.NewEvalError(n.at, "unknown variable %q", n.name)
}

func (n *unaryNode) eval(e *env) (value, error) {
	v, err := n.operand.eval(e)
	if err != nil {
		return value{}, err
	}
	if v.kind != numberValue {
		return value{}, errors.NewEvalError(n.at, "unary %s expects a number, got %s", n.op, kindNames[v.kind])
	}
	if n.op == tokMinus {
		return numberOf(-v.num), nil
	}
	return v, nil
}

func (n *binaryNode) eval(e *env) (value, error) {
	left, err := n.left.eval(e)
	if err != nil {
		return value{}, err
	}
	right, err := n.right.eval(e)
	if err != nil {
		return value{}, err
	}
	if left.kind != numberValue || right.kind != numberValue {
		return value{}, errors.NewEvalError(n.at, "operator %s expects numbers, got %s and %s",
			n.op, kindNames[left.kind], kindNames[right.kind])
	}

	a, b := left.num, right.num
	switch n.op {
	case tokPlus:
		return numberOf(a + b), nil
	case tokMinus:
		return numberOf(a - b), nil
	case tokStar:
		return numberOf(a * b), nil
	case tokSlash:
		if b == 0 {
			return value{}, errors.NewEvalError(n.at, "division by zero")
		}
		return numberOf(a / b), nil
	case tokPower:
		r := math.Pow(a, b)
		if math.IsNaN(r) && !math.IsNaN(a) && !math.IsNaN(b) {
			return value{}, errors.NewEvalError(n.at, "%g ** %g is undefined", a, b)
		}
		return numberOf(r), nil
	case tokEq:
		return booleanOf(a == b), nil
	case tokNeq:
		return booleanOf(a != b), nil
	case tokLt:
		return booleanOf(a < b), nil
	case tokLte:
		return booleanOf(a <= b), nil
	case tokGt:
		return booleanOf(a > b), nil
	case tokGte:
		return booleanOf(a >= b), nil
	}
	return value{}, errors.NewEvalError(n.at, "unsupported operator %s", n.op)
}

// eval of a conditional only evaluates the taken branch, so guarded
// expressions like "S > 0 ? log(S) : 0" never trip domain errors.
func (n *condNode) eval(e *env) (value, error) {
	cond, err := n.cond.eval(e)
	if err != nil {
		return value{}, err
	}
	if cond.kind != booleanValue {
		return value{}, errors.NewEvalError(n.at, "condition must be a comparison, got %s", kindNames[cond.kind])
	}
	if cond.b {
		return n.then.eval(e)
	}
	return n.alt.eval(e)
}

func (n *callNode) eval(e *env) (value, error) {
	args := make([]value, len(n.args))
	for i, arg := range n.args {
		v, err := arg.eval(e)
		if err != nil {
			return value{}, err
		}
		args[i] = v
	}

	switch n.fn {
	case "max":
		return n.fold(args, math.Max)
	case "min":
		return n.fold(args, math.Min)
	case "abs":
		return n.mathFn(args[0], "abs", math.Abs, nil)
	case "exp":
		return n.mathFn(args[0], "exp", math.Exp, nil)
	case "sqrt":
		return n.mathFn(args[0], "sqrt", math.Sqrt, func(x float64) bool { return x >= 0 })
	case "log":
		return n.mathFn(args[0], "log", math.Log, func(x float64) bool { return x > 0 })
	case "sum":
		seq, err := n.sequenceArg(args[0], "sum")
		if err != nil {
			return value{}, err
		}
		total := 0.0
		for _, x := range seq {
			total += x
		}
		return numberOf(total), nil
	case "len":
		seq, err := n.sequenceArg(args[0], "len")
		if err != nil {
			return value{}, err
		}
		return numberOf(float64(len(seq))), nil
	}
	return value{}, errors.NewEvalError(n.at, "unknown function %q", n.fn)
}

// fold implements max/min over either one sequence or several numbers.
func (n *callNode) fold(args []value, pick func(a, b float64) float64) (value, error) {
	if len(args) == 1 {
		seq, err := n.sequenceArg(args[0], n.fn)
		if err != nil {
			return value{}, err
		}
		if len(seq) == 0 {
			return value{}, errors.NewEvalError(n.at, "%s of an empty sequence", n.fn)
		}
		best := seq[0]
		for _, x := range seq[1:] {
			best = pick(best, x)
		}
		return numberOf(best), nil
	}

	best := 0.0
	for i, arg := range args {
		if arg.kind != numberValue {
			return value{}, errors.NewEvalError(n.at, "%s expects numbers, got %s", n.fn, kindNames[arg.kind])
		}
		if i == 0 {
			best = arg.num
		} else {
			best = pick(best, arg.num)
		}
	}
	return numberOf(best), nil
}

func (n *callNode) mathFn(arg value, name string, fn func(float64) float64, domain func(float64) bool) (value, error) {
	if arg.kind != numberValue {
		return value{}, errors.NewEvalError(n.at, "%s expects a number, got %s", name, kindNames[arg.kind])
	}
	if domain != nil && !domain(arg.num) {
		return value{}, errors.NewEvalError(n.at, "%s(%g) is undefined", name, arg.num)
	}
	return numberOf(fn(arg.num)), nil
}

func (n *callNode) sequenceArg(arg value, name string) ([]float64, error) {
	if arg.kind != sequenceValue {
		return nil, errors.NewEvalError(n.at, "%s expects a sequence, got %s", name, kindNames[arg.kind])
	}
	return arg.seq, nil
}
