package eval

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// Expression grammar, just large enough for the protocol's
// "evaluate expression" method:
//
//	expr  := app (":" "[" decimal "]")?
//	app   := atom atom*
//	atom  := ident | literal | "(" expr ")"
//	ident := name ("::" name)*
//
// Hex and binary literals carry their width (4 bits per hex digit, 1 per
// binary digit); decimal literals are unbounded integers unless annotated.

type Expr interface {
	isExpr()
}

type Ident struct {
	Name string
}

type Lit struct {
	Value    *big.Int
	Width    int
	HasWidth bool
}

type Apply struct {
	Fun  Expr
	Args []Expr
}

type Annot struct {
	Expr  Expr
	Width int
}

func (Ident) isExpr() {}
func (Lit) isExpr()   {}
func (Apply) isExpr() {}
func (Annot) isExpr() {}

// Parse parses one expression; trailing input is an error.
func Parse(input string) (Expr, error) {
	p := &parser{input: input}
	p.skipSpace()

	if p.done() {
		return nil, fmt.Errorf("%w: empty expression", ErrMalformed)
	}

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if !p.done() {
		return nil, fmt.Errorf("%w: trailing input %q", ErrMalformed, p.rest())
	}

	return expr, nil
}

type parser struct {
	input string
	pos   int
}

func (p *parser) parseExpr() (Expr, error) {
	expr, err := p.parseApp()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.peek() == ':' {
		p.pos++
		width, err := p.parseWidthAnnotation()
		if err != nil {
			return nil, err
		}
		return Annot{Expr: expr, Width: width}, nil
	}

	return expr, nil
}

func (p *parser) parseApp() (Expr, error) {
	fun, err := p.parseAtom()
	if err != nil {
		return nil, err
	}

	var args []Expr
	for {
		p.skipSpace()
		if p.done() || p.peek() == ')' || p.peek() == ':' {
			break
		}

		arg, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	if len(args) == 0 {
		return fun, nil
	}
	return Apply{Fun: fun, Args: args}, nil
}

func (p *parser) parseAtom() (Expr, error) {
	p.skipSpace()
	if p.done() {
		return nil, fmt.Errorf("%w: unexpected end of expression", ErrMalformed)
	}

	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.peek() != ')' {
			return nil, fmt.Errorf("%w: missing closing paren", ErrMalformed)
		}
		p.pos++
		return expr, nil

	case unicode.IsDigit(rune(c)):
		return p.parseLiteral()

	case isIdentStart(rune(c)):
		return Ident{Name: p.parseIdent()}, nil

	default:
		return nil, fmt.Errorf("%w: unexpected character %q", ErrMalformed, string(c))
	}
}

func (p *parser) parseLiteral() (Expr, error) {
	start := p.pos

	base := 10
	bitsPerDigit := 0
	if strings.HasPrefix(p.rest(), "0x") || strings.HasPrefix(p.rest(), "0X") {
		p.pos += 2
		base, bitsPerDigit = 16, 4
	} else if strings.HasPrefix(p.rest(), "0b") || strings.HasPrefix(p.rest(), "0B") {
		p.pos += 2
		base, bitsPerDigit = 2, 1
	}

	digitStart := p.pos
	for !p.done() && isDigitInBase(rune(p.peek()), base) {
		p.pos++
	}

	digits := p.input[digitStart:p.pos]
	if digits == "" {
		return nil, fmt.Errorf("%w: malformed literal %q", ErrMalformed, p.input[start:p.pos])
	}

	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return nil, fmt.Errorf("%w: malformed literal %q", ErrMalformed, digits)
	}

	lit := Lit{Value: v}
	if bitsPerDigit > 0 {
		lit.Width = bitsPerDigit * len(digits)
		lit.HasWidth = true
	}
	return lit, nil
}

// parseWidthAnnotation parses "[ decimal ]" after a ':'.
func (p *parser) parseWidthAnnotation() (int, error) {
	p.skipSpace()
	if p.peek() != '[' {
		return 0, fmt.Errorf("%w: expected [width] after ':'", ErrMalformed)
	}
	p.pos++

	p.skipSpace()
	start := p.pos
	for !p.done() && unicode.IsDigit(rune(p.peek())) {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("%w: expected width digits", ErrMalformed)
	}

	var width int
	if _, err := fmt.Sscanf(p.input[start:p.pos], "%d", &width); err != nil {
		return 0, fmt.Errorf("%w: bad width: %v", ErrMalformed, err)
	}

	p.skipSpace()
	if p.peek() != ']' {
		return 0, fmt.Errorf("%w: expected ']' after width", ErrMalformed)
	}
	p.pos++

	return width, nil
}

func (p *parser) parseIdent() string {
	start := p.pos
	for {
		for !p.done() && isIdentPart(rune(p.peek())) {
			p.pos++
		}
		// qualified name: Module::name
		if strings.HasPrefix(p.rest(), "::") && p.pos+2 < len(p.input) && isIdentStart(rune(p.input[p.pos+2])) {
			p.pos += 2
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *parser) peek() byte {
	if p.done() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) rest() string {
	return p.input[p.pos:]
}

func (p *parser) done() bool {
	return p.pos >= len(p.input)
}

func (p *parser) skipSpace() {
	for !p.done() && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentPart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '\''
}

func isDigitInBase(r rune, base int) bool {
	switch base {
	case 2:
		return r == '0' || r == '1'
	case 10:
		return r >= '0' && r <= '9'
	case 16:
		return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
	default:
		return false
	}
}
