package formula

// Shape classifies a formula tree.
type Shape int

const (
	Invalid Shape = iota
	Constant
	Literal
	Clause
	DNF
)

func (s Shape) String() string {
	switch s {
	case Constant:
		return "constant"
	case Literal:
		return "literal"
	case Clause:
		return "clause"
	case DNF:
		return "dnf"
	}
	return "invalid"
}

type polarity struct {
	pos map[string]struct{}
	neg map[string]struct{}
}

func (p *polarity) lit(f Formula) bool {
	switch t := f.(type) {
	case Var:
		p.pos[string(t)] = struct{}{}
		return true
	case Not:
		if v, ok := t.Arg.(Var); ok {
			p.neg[string(v)] = struct{}{}
			return true
		}
	}
	return false
}

func (p *polarity) clause(f Formula) bool {
	if p.lit(f) {
		return true
	}
	and, ok := f.(And)
	if !ok {
		return false
	}
	for _, g := range and {
		if !p.lit(g) {
			return false
		}
	}
	return true
}

func (p *polarity) monotone() bool {
	for n := range p.pos {
		if _, ok := p.neg[n]; ok {
			return false
		}
	}
	return true
}

func classify(f Formula) (Shape, *polarity) {
	p := &polarity{pos: map[string]struct{}{}, neg: map[string]struct{}{}}
	if _, ok := f.(Const); ok {
		return Constant, p
	}
	switch f.(type) {
	case Var, Not:
		if p.lit(f) {
			return Literal, p
		}
		return Invalid, p
	case And:
		if p.clause(f) {
			return Clause, p
		}
		return Invalid, p
	case Or:
		for _, g := range f.(Or) {
			if !p.clause(g) {
				return Invalid, p
			}
		}
		return DNF, p
	}
	return Invalid, p
}

// Classify returns the shape of f: a constant, a literal, a conjunctive
// clause of literals, a disjunction of such clauses, or Invalid.
func Classify(f Formula) Shape {
	s, _ := classify(f)
	return s
}

// Monotone reports whether no node occurs both as a positive and a
// negative literal in f.
func Monotone(f Formula) bool {
	p := &polarity{pos: map[string]struct{}{}, neg: map[string]struct{}{}}
	var walk func(Formula)
	walk = func(f Formula) {
		switch t := f.(type) {
		case Var:
			p.pos[string(t)] = struct{}{}
		case Not:
			if v, ok := t.Arg.(Var); ok {
				p.neg[string(v)] = struct{}{}
				return
			}
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
	return p.monotone()
}

// WellFormed reports whether f is a constant, or a literal, clause or
// disjunction of clauses in which every node has a single polarity.
// A formula with one non-conforming clause is rejected as a whole.
func WellFormed(f Formula) bool {
	shape, p := classify(f)
	switch shape {
	case Constant:
		return true
	case Invalid:
		return false
	}
	return p.monotone()
}
