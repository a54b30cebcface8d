package bonesis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/scanner"
)

type factParser struct {
	s   scanner.Scanner
	tok rune
}

// ParseFacts parses ground atoms separated by whitespace and/or
// terminating periods, such as `node("A"). clause("B",1,"A",1)`.
func ParseFacts(src string) ([]Fact, error) {
	var p factParser
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings
	p.s.Error = func(*scanner.Scanner, string) {}
	p.next()
	var facts []Fact
	for p.tok != scanner.EOF {
		if p.tok == '.' {
			p.next()
			continue
		}
		f, err := p.parseFact()
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// ParseAnswers reads solver output and returns one fact list per
// answer. Lines of the form "Answer: N" open a new answer; status lines
// are skipped. Input without any answer header is read as a single
// fact list.
func ParseAnswers(r io.Reader) ([][]Fact, error) {
	reader := bufio.NewReader(r)
	var (
		answers [][]Fact
		current []string
		headers bool
		plain   []string
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		facts, err := ParseFacts(strings.Join(current, "\n"))
		if err != nil {
			return err
		}
		answers = append(answers, facts)
		current = nil
		return nil
	}
	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("error reading solver output: %w", err)
		}
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Answer:"):
			if ferr := flush(); ferr != nil {
				return nil, ferr
			}
			headers = true
			current = []string{}
		case trimmed == "" || strings.HasPrefix(trimmed, "%") || isStatusLine(trimmed):
			// skip
		case headers:
			current = append(current, trimmed)
		default:
			plain = append(plain, trimmed)
		}
		if errors.Is(err, io.EOF) {
			break
		}
	}
	if !headers {
		facts, err := ParseFacts(strings.Join(plain, "\n"))
		if err != nil {
			return nil, err
		}
		return [][]Fact{facts}, nil
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return answers, nil
}

func isStatusLine(line string) bool {
	if strings.HasPrefix(line, "clingo version") {
		return true
	}
	first := line[0]
	return first >= 'A' && first <= 'Z'
}

func (p *factParser) next() {
	p.tok = p.s.Scan()
}

func (p *factParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s", p.s.Position, fmt.Sprintf(format, args...))
}

func (p *factParser) parseFact() (Fact, error) {
	if p.tok != scanner.Ident {
		return Fact{}, p.errorf("expected relation name, found %q", p.s.TokenText())
	}
	f := Fact{Name: p.s.TokenText()}
	p.next()
	if p.tok != '(' {
		return f, nil
	}
	p.next()
	for {
		t, err := p.parseTerm()
		if err != nil {
			return Fact{}, err
		}
		f.Args = append(f.Args, t)
		switch p.tok {
		case ',':
			p.next()
		case ')':
			p.next()
			return f, nil
		default:
			return Fact{}, p.errorf("unexpected %q in arguments of %s", p.s.TokenText(), f.Name)
		}
	}
}

func (p *factParser) parseTerm() (Term, error) {
	switch p.tok {
	case '-':
		p.next()
		if p.tok != scanner.Int {
			return nil, p.errorf("expected number after '-'")
		}
		n, err := strconv.Atoi(p.s.TokenText())
		if err != nil {
			return nil, p.errorf("invalid number %s", p.s.TokenText())
		}
		p.next()
		return Number(-n), nil
	case scanner.Int:
		n, err := strconv.Atoi(p.s.TokenText())
		if err != nil {
			return nil, p.errorf("invalid number %s", p.s.TokenText())
		}
		p.next()
		return Number(n), nil
	case scanner.String:
		s, err := strconv.Unquote(p.s.TokenText())
		if err != nil {
			return nil, p.errorf("invalid string %s", p.s.TokenText())
		}
		p.next()
		return String(s), nil
	case scanner.Ident:
		s := p.s.TokenText()
		p.next()
		return Symbol(s), nil
	case '(':
		return p.parseGroup()
	}
	return nil, p.errorf("unexpected %q", p.s.TokenText())
}

// parseGroup reads (a,b) tuples and (a;b) pools.
func (p *factParser) parseGroup() (Term, error) {
	p.next()
	var (
		terms []Term
		sep   rune
	)
	for p.tok != ')' {
		t, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, t)
		switch p.tok {
		case ',', ';':
			if sep != 0 && sep != p.tok {
				return nil, p.errorf("mixed separators in group")
			}
			sep = p.tok
			p.next()
		case ')':
		default:
			return nil, p.errorf("unexpected %q in group", p.s.TokenText())
		}
	}
	p.next()
	if sep == ';' {
		return Pool(terms), nil
	}
	return Tuple(terms), nil
}
