// Package formula implements the Boolean formulas attached to the nodes of
// a Boolean network, together with the validator that restricts them to
// monotone disjunctive normal forms.
package formula

import (
	"sort"
	"strings"
)

// Formula is a Boolean expression tree over node names.
type Formula interface {
	String() string
	// Eval evaluates the formula in a state. Nodes missing from the
	// state are read as false.
	Eval(state map[string]bool) bool
	isFormula()
}

// Const is the constant true or false.
type Const bool

const (
	True  = Const(true)
	False = Const(false)
)

func (c Const) String() string {
	if c {
		return "1"
	}
	return "0"
}

func (c Const) Eval(map[string]bool) bool { return bool(c) }
func (Const) isFormula()                  {}

// Var is a node reference.
type Var string

func (v Var) String() string                  { return string(v) }
func (v Var) Eval(state map[string]bool) bool { return state[string(v)] }
func (Var) isFormula()                        {}

// Not is a negation.
type Not struct {
	Arg Formula
}

func (n Not) String() string {
	switch n.Arg.(type) {
	case Var, Const:
		return "!" + n.Arg.String()
	}
	return "!(" + n.Arg.String() + ")"
}

func (n Not) Eval(state map[string]bool) bool { return !n.Arg.Eval(state) }
func (Not) isFormula()                        {}

// And is a conjunction; the empty conjunction is true.
type And []Formula

func (a And) String() string {
	if len(a) == 0 {
		return True.String()
	}
	s := make([]string, len(a))
	for i, f := range a {
		if _, ok := f.(Or); ok && len(f.(Or)) > 1 {
			s[i] = "(" + f.String() + ")"
		} else {
			s[i] = f.String()
		}
	}
	return strings.Join(s, " & ")
}

func (a And) Eval(state map[string]bool) bool {
	for _, f := range a {
		if !f.Eval(state) {
			return false
		}
	}
	return true
}

func (And) isFormula() {}

// Or is a disjunction; the empty disjunction is false.
type Or []Formula

func (o Or) String() string {
	if len(o) == 0 {
		return False.String()
	}
	s := make([]string, len(o))
	for i, f := range o {
		s[i] = f.String()
	}
	return strings.Join(s, " | ")
}

func (o Or) Eval(state map[string]bool) bool {
	for _, f := range o {
		if f.Eval(state) {
			return true
		}
	}
	return false
}

func (Or) isFormula() {}

// Lit returns the literal over node with the given polarity.
func Lit(node string, positive bool) Formula {
	if positive {
		return Var(node)
	}
	return Not{Arg: Var(node)}
}

// Vars returns the sorted set of nodes the formula refers to.
func Vars(f Formula) []string {
	seen := map[string]struct{}{}
	var walk func(Formula)
	walk = func(f Formula) {
		switch t := f.(type) {
		case Var:
			seen[string(t)] = struct{}{}
		case Not:
			walk(t.Arg)
		case And:
			for _, g := range t {
				walk(g)
			}
		case Or:
			for _, g := range t {
				walk(g)
			}
		}
	}
	walk(f)
	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}
