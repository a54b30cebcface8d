package formula

import (
	"fmt"
	"strings"
	"text/scanner"
)

type parser struct {
	s   scanner.Scanner
	tok rune
}

// Parse parses a formula written with `!` (negation), `&` (and), `|`
// (or), parentheses, node names and the constants 0, 1, true, false.
// Operators are listed from highest to lowest priority.
func Parse(src string) (Formula, error) {
	var p parser
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts
	p.s.Error = func(*scanner.Scanner, string) {}
	p.next()
	if p.tok == scanner.EOF {
		return nil, fmt.Errorf("expected expression, found EOF")
	}
	f, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok != scanner.EOF {
		return nil, fmt.Errorf("unexpected token %q at %s", p.s.TokenText(), p.s.Position)
	}
	return f, nil
}

func (p *parser) next() {
	p.tok = p.s.Scan()
}

func (p *parser) parseOr() (Formula, error) {
	f, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	terms := []Formula{f}
	for p.tok == '|' {
		p.next()
		g, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, g)
	}
	if len(terms) == 1 {
		return f, nil
	}
	return Or(terms), nil
}

func (p *parser) parseAnd() (Formula, error) {
	f, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	terms := []Formula{f}
	for p.tok == '&' {
		p.next()
		g, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		terms = append(terms, g)
	}
	if len(terms) == 1 {
		return f, nil
	}
	return And(terms), nil
}

func (p *parser) parseUnary() (Formula, error) {
	switch p.tok {
	case '!', '~':
		p.next()
		f, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Not{Arg: f}, nil
	case '(':
		p.next()
		f, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.tok != ')' {
			return nil, fmt.Errorf("expected ')' at %s", p.s.Position)
		}
		p.next()
		return f, nil
	case scanner.Int:
		text := p.s.TokenText()
		p.next()
		switch text {
		case "0":
			return False, nil
		case "1":
			return True, nil
		}
		return Var(text), nil
	case scanner.Ident:
		text := p.s.TokenText()
		p.next()
		switch text {
		case "true", "True":
			return True, nil
		case "false", "False":
			return False, nil
		}
		return Var(text), nil
	case scanner.EOF:
		return nil, fmt.Errorf("unexpected EOF")
	}
	return nil, fmt.Errorf("unexpected token %q at %s", p.s.TokenText(), p.s.Position)
}
