// Package payoff compiles and evaluates constrained payoff expressions.
//
// Payoff text comes from untrusted end users, so the package never hands
// the input to a general evaluator. It tokenizes the text, parses it into
// a small typed AST restricted to a whitelisted grammar, and walks that
// tree against explicit variable bindings. Anything outside the whitelist
// is rejected at compile time with the byte offset of the offending token.
package payoff

import (
	"strconv"

	"option-pricer/internal/errors"
)

// tokenType represents the kind of token.
type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokPower // "**"
	tokLParen
	tokRParen
	tokComma
	tokQuestion
	tokColon
	tokEq  // "=="
	tokNeq // "!="
	tokLt
	tokLte
	tokGt
	tokGte
)

var tokenNames = map[tokenType]string{
	tokEOF:      "end of expression",
	tokNumber:   "number",
	tokIdent:    "identifier",
	tokPlus:     "'+'",
	tokMinus:    "'-'",
	tokStar:     "'*'",
	tokSlash:    "'/'",
	tokPower:    "'**'",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokComma:    "','",
	tokQuestion: "'?'",
	tokColon:    "':'",
	tokEq:       "'=='",
	tokNeq:      "'!='",
	tokLt:       "'<'",
	tokLte:      "'<='",
	tokGt:       "'>'",
	tokGte:      "'>='",
}

func (t tokenType) String() string {
	return tokenNames[t]
}

// token is a lexical token with its byte offset in the source.
type token struct {
	typ    tokenType
	lexeme string
	value  float64 // parsed literal for tokNumber
	pos    int
}

// lexer scans a payoff expression into tokens.
type lexer struct {
	src   string
	start int
	cur   int
}

func newLexer(src string) *lexer {
	return &lexer{src: src}
}

// scan tokenizes the whole input. Any byte that cannot begin a
// whitelisted token fails the scan immediately.
func (l *lexer) scan() ([]token, error) {
	var tokens []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.typ == tokEOF {
			return tokens, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	l.start = l.cur
	if l.cur >= len(l.src) {
		return token{typ: tokEOF, pos: l.cur}, nil
	}

	ch := l.src[l.cur]
	l.cur++

	switch {
	case ch == '+':
		return l.emit(tokPlus), nil
	case ch == '-':
		return l.emit(tokMinus), nil
	case ch == '*':
		if l.match('*') {
			return l.emit(tokPower), nil
		}
		return l.emit(tokStar), nil
	case ch == '/':
		return l.emit(tokSlash), nil
	case ch == '(':
		return l.emit(tokLParen), nil
	case ch == ')':
		return l.emit(tokRParen), nil
	case ch == ',':
		return l.emit(tokComma), nil
	case ch == '?':
		return l.emit(tokQuestion), nil
	case ch == ':':
		return l.emit(tokColon), nil
	case ch == '=':
		if l.match('=') {
			return l.emit(tokEq), nil
		}
		return token{}, errors.NewSyntaxError(l.start, "assignment is not allowed")
	case ch == '!':
		if l.match('=') {
			return l.emit(tokNeq), nil
		}
		return token{}, errors.NewSyntaxError(l.start, "unexpected character %q", ch)
	case ch == '<':
		if l.match('=') {
			return l.emit(tokLte), nil
		}
		return l.emit(tokLt), nil
	case ch == '>':
		if l.match('=') {
			return l.emit(tokGte), nil
		}
		return l.emit(tokGt), nil
	case isDigit(ch) || ch == '.':
		return l.number()
	case isAlpha(ch):
		return l.identifier(), nil
	default:
		return token{}, errors.NewSyntaxError(l.start, "unexpected character %q", ch)
	}
}

func (l *lexer) emit(typ tokenType) token {
	return token{typ: typ, lexeme: l.src[l.start:l.cur], pos: l.start}
}

func (l *lexer) match(expected byte) bool {
	if l.cur < len(l.src) && l.src[l.cur] == expected {
		l.cur++
		return true
	}
	return false
}

func (l *lexer) skipSpace() {
	for l.cur < len(l.src) {
		switch l.src[l.cur] {
		case ' ', '\t', '\r', '\n':
			l.cur++
		default:
			return
		}
	}
}

// number scans an integer or decimal literal with optional exponent.
// Attribute access does not exist in the grammar, so a '.' is only ever
// part of a numeric literal.
func (l *lexer) number() (token, error) {
	for l.cur < len(l.src) && isDigit(l.src[l.cur]) {
		l.cur++
	}
	if l.cur < len(l.src) && l.src[l.cur] == '.' {
		l.cur++
		for l.cur < len(l.src) && isDigit(l.src[l.cur]) {
			l.cur++
		}
	}
	if l.cur < len(l.src) && (l.src[l.cur] == 'e' || l.src[l.cur] == 'E') {
		mark := l.cur
		l.cur++
		if l.cur < len(l.src) && (l.src[l.cur] == '+' || l.src[l.cur] == '-') {
			l.cur++
		}
		if l.cur < len(l.src) && isDigit(l.src[l.cur]) {
			for l.cur < len(l.src) && isDigit(l.src[l.cur]) {
				l.cur++
			}
		} else {
			// Not an exponent; leave 'e' for the identifier scanner to reject.
			l.cur = mark
		}
	}

	lexeme := l.src[l.start:l.cur]
	value, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return token{}, errors.NewSyntaxError(l.start, "malformed number %q", lexeme)
	}
	return token{typ: tokNumber, lexeme: lexeme, value: value, pos: l.start}, nil
}

func (l *lexer) identifier() token {
	for l.cur < len(l.src) && (isAlpha(l.src[l.cur]) || isDigit(l.src[l.cur])) {
		l.cur++
	}
	return l.emit(tokIdent)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}
