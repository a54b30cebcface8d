package bonesis

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is an argument of a Fact.
type Term interface {
	String() string
	isTerm()
}

// Number is an integer term.
type Number int

func (n Number) String() string { return strconv.Itoa(int(n)) }
func (Number) isTerm()          {}

// String is a quoted string term.
type String string

func (s String) String() string { return strconv.Quote(string(s)) }
func (String) isTerm()          {}

// Symbol is an unquoted constant term such as maximize or fixpoints.
type Symbol string

func (s Symbol) String() string { return string(s) }
func (Symbol) isTerm()          {}

// Pool is an alternative between terms, printed as (a;b). A fact
// carrying a pool stands for one fact per alternative.
type Pool []Term

func (p Pool) String() string { return "(" + joinTerms([]Term(p), ";") + ")" }
func (Pool) isTerm()          {}

// Tuple is an ordered group of terms, printed as (a,b). The 1-tuple
// keeps a trailing comma.
type Tuple []Term

func (t Tuple) String() string {
	if len(t) == 1 {
		return "(" + t[0].String() + ",)"
	}
	return "(" + joinTerms([]Term(t), ",") + ")"
}
func (Tuple) isTerm() {}

func joinTerms(ts []Term, sep string) string {
	s := make([]string, len(ts))
	for i, t := range ts {
		s[i] = t.String()
	}
	return strings.Join(s, sep)
}

// Fact is one ground relational statement exchanged with a solving
// engine. A Choice fact is printed inside braces and leaves its atom
// optional. A non-empty Body turns the fact into a rule.
//
// A non-empty Raw holds program text written out as is, such as rules
// or several statements that are not ground atoms. Name, Args, Choice
// and Body are ignored for such facts.
type Fact struct {
	Name   string
	Args   []Term
	Choice bool
	Body   string
	Raw    string
}

// NewFact returns a Fact for the given relation and arguments.
func NewFact(name string, args ...Term) Fact {
	return Fact{Name: name, Args: args}
}

// Arity returns the number of arguments of the fact.
func (f Fact) Arity() int {
	return len(f.Args)
}

// Signature returns name/arity.
func (f Fact) Signature() string {
	return fmt.Sprintf("%s/%d", f.Name, len(f.Args))
}

func (f Fact) atom() string {
	if len(f.Args) == 0 {
		return f.Name
	}
	return f.Name + "(" + joinTerms(f.Args, ",") + ")"
}

// String implements fmt.Stringer and returns the fact without its
// terminating period.
func (f Fact) String() string {
	if f.Raw != "" {
		return strings.TrimSuffix(strings.TrimSpace(f.Raw), ".")
	}
	s := f.atom()
	if f.Choice {
		s = "{" + s + "}"
	}
	if f.Body != "" {
		s = s + " :- " + f.Body
	}
	return s
}

// FormatFacts renders facts in the line-oriented, period-terminated
// notation consumed by solving engines.
func FormatFacts(facts []Fact) string {
	if len(facts) == 0 {
		return ""
	}
	s := make([]string, len(facts))
	for i, f := range facts {
		s[i] = f.String()
	}
	return strings.Join(s, ".\n") + "."
}

// StringArg returns the i-th argument as a string, accepting both
// quoted strings and bare symbols.
func (f Fact) StringArg(i int) (string, bool) {
	if i >= len(f.Args) {
		return "", false
	}
	switch t := f.Args[i].(type) {
	case String:
		return string(t), true
	case Symbol:
		return string(t), true
	}
	return "", false
}

// NumberArg returns the i-th argument as an integer.
func (f Fact) NumberArg(i int) (int, bool) {
	if i >= len(f.Args) {
		return 0, false
	}
	n, ok := f.Args[i].(Number)
	return int(n), ok
}
