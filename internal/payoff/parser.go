package payoff

import (
	"option-pricer/internal/errors"
)

// The whitelisted grammar, lowest precedence first:
//
//	expr        := ternary
//	ternary     := comparison ( "?" expr ":" expr )?
//	comparison  := additive ( ("==" | "!=" | "<" | "<=" | ">" | ">=") additive )?
//	additive    := multiplicative ( ("+" | "-") multiplicative )*
//	multiplicative := unary ( ("*" | "/") unary )*
//	unary       := ("-" | "+") unary | power
//	power       := primary ( "**" unary )?
//	primary     := NUMBER | VARIABLE | FUNCTION "(" expr ("," expr)* ")" | "(" expr ")"
//
// Comparisons do not chain; "**" binds tighter than unary minus on its
// left and looser on its right, matching the conventional exponent rule.

// node is a parsed expression fragment. Every variant carries the byte
// offset of its defining token for error reporting.
type node interface {
	eval(env *env) (value, error)
	pos() int
}

type literalNode struct {
	at  int
	val float64
}

type variableNode struct {
	at   int
	name string // "S" or "path"
}

type unaryNode struct {
	at      int
	op      tokenType
	operand node
}

type binaryNode struct {
	at          int
	op          tokenType
	left, right node
}

type condNode struct {
	at              int
	cond, then, alt node
}

type callNode struct {
	at   int
	fn   string
	args []node
}

func (n *literalNode) pos() int  { return n.at }
func (n *variableNode) pos() int { return n.at }
func (n *unaryNode) pos() int    { return n.at }
func (n *binaryNode) pos() int   { return n.at }
func (n *condNode) pos() int     { return n.at }
func (n *callNode) pos() int     { return n.at }

// funcArity gives the whitelisted functions with their accepted argument
// counts. max < 0 means variadic.
var funcArity = map[string]struct{ min, max int }{
	"max":  {1, -1},
	"min":  {1, -1},
	"abs":  {1, 1},
	"sum":  {1, 1},
	"len":  {1, 1},
	"exp":  {1, 1},
	"sqrt": {1, 1},
	"log":  {1, 1},
}

const (
	varTerminal = "S"
	varPath     = "path"
)

type parser struct {
	toks     []token
	cur      int
	usesS    bool
	usesPath bool
}

// parse compiles source text into an AST, rejecting everything outside
// the whitelist.
func parse(src string) (node, bool, bool, error) {
	lex := newLexer(src)
	toks, err := lex.scan()
	if err != nil {
		return nil, false, false, err
	}
	p := &parser{toks: toks}
	if p.peek().typ == tokEOF {
		return nil, false, false, errors.NewSyntaxError(0, "empty expression")
	}
	root, err := p.expr()
	if err != nil {
		return nil, false, false, err
	}
	if tok := p.peek(); tok.typ != tokEOF {
		return nil, false, false, errors.NewSyntaxError(tok.pos, "unexpected %s", tok.typ)
	}
	return root, p.usesS, p.usesPath, nil
}

func (p *parser) peek() token {
	return p.toks[p.cur]
}

func (p *parser) advance() token {
	tok := p.toks[p.cur]
	if tok.typ != tokEOF {
		p.cur++
	}
	return tok
}

func (p *parser) expect(typ tokenType) (token, error) {
	tok := p.peek()
	if tok.typ != typ {
		return token{}, errors.NewSyntaxError(tok.pos, "expected %s, found %s", typ, tok.typ)
	}
	return p.advance(), nil
}

func (p *parser) expr() (node, error) {
	return p.ternary()
}

func (p *parser) ternary() (node, error) {
	cond, err := p.comparison()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokQuestion {
		return cond, nil
	}
	q := p.advance()
	then, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokColon); err != nil {
		return nil, err
	}
	alt, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &condNode{at: q.pos, cond: cond, then: then, alt: alt}, nil
}

func (p *parser) comparison() (node, error) {
	left, err := p.additive()
	if err != nil {
		return nil, err
	}
	switch p.peek().typ {
	case tokEq, tokNeq, tokLt, tokLte, tokGt, tokGte:
		op := p.advance()
		right, err := p.additive()
		if err != nil {
			return nil, err
		}
		return &binaryNode{at: op.pos, op: op.typ, left: left, right: right}, nil
	}
	return left, nil
}

func (p *parser) additive() (node, error) {
	left, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokPlus, tokMinus:
			op := p.advance()
			right, err := p.multiplicative()
			if err != nil {
				return nil, err
			}
			left = &binaryNode{at: op.pos, op: op.typ, left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) multiplicative() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().typ {
		case tokStar, tokSlash:
			op := p.advance()
			right, err := p.unary()
			if err != nil {
				return nil, err
			}
			left = &binaryNode{at: op.pos, op: op.typ, left: left, right: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) unary() (node, error) {
	switch p.peek().typ {
	case tokMinus, tokPlus:
		op := p.advance()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &unaryNode{at: op.pos, op: op.typ, operand: operand}, nil
	}
	return p.power()
}

func (p *parser) power() (node, error) {
	base, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.peek().typ != tokPower {
		return base, nil
	}
	op := p.advance()
	exponent, err := p.unary()
	if err != nil {
		return nil, err
	}
	return &binaryNode{at: op.pos, op: tokPower, left: base, right: exponent}, nil
}

func (p *parser) primary() (node, error) {
	tok := p.peek()
	switch tok.typ {
	case tokNumber:
		p.advance()
		return &literalNode{at: tok.pos, val: tok.value}, nil

	case tokLParen:
		p.advance()
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen); err != nil {
			return nil, err
		}
		return inner, nil

	case tokIdent:
		p.advance()
		if p.peek().typ == tokLParen {
			return p.call(tok)
		}
		switch tok.lexeme {
		case varTerminal:
			p.usesS = true
			return &variableNode{at: tok.pos, name: varTerminal}, nil
		case varPath:
			p.usesPath = true
			return &variableNode{at: tok.pos, name: varPath}, nil
		}
		if _, isFunc := funcArity[tok.lexeme]; isFunc {
			return nil, errors.NewSyntaxError(tok.pos, "function %q must be called", tok.lexeme)
		}
		return nil, errors.NewSyntaxError(tok.pos, "unknown identifier %q", tok.lexeme)

	default:
		return nil, errors.NewSyntaxError(tok.pos, "unexpected %s", tok.typ)
	}
}

func (p *parser) call(name token) (node, error) {
	arity, ok := funcArity[name.lexeme]
	if !ok {
		return nil, errors.NewSyntaxError(name.pos, "unknown function %q", name.lexeme)
	}
	if _, err := p.expect(tokLParen); err != nil {
		return nil, err
	}

	var args []node
	if p.peek().typ != tokRParen {
		for {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().typ != tokComma {
				break
			}
			p.advance()
		}
	}
	if _, err := p.expect(tokRParen); err != nil {
		return nil, err
	}

	if len(args) < arity.min {
		return nil, errors.NewSyntaxError(name.pos, "%s expects at least %d argument(s), got %d", name.lexeme, arity.min, len(args))
	}
	if arity.max >= 0 && len(args) > arity.max {
		return nil, errors.NewSyntaxError(name.pos, "%s expects at most %d argument(s), got %d", name.lexeme, arity.max, len(args))
	}
	return &callNode{at: name.pos, fn: name.lexeme, args: args}, nil
}
