package formula

import (
	"sort"
	"strings"
)

// a clause maps node -> polarity; a node with both polarities makes the
// clause contradictory and is dropped during construction.
type clause map[string]bool

func (c clause) subsumes(d clause) bool {
	if len(c) > len(d) {
		return false
	}
	for n, pol := range c {
		if q, ok := d[n]; !ok || q != pol {
			return false
		}
	}
	return true
}

func (c clause) key() string {
	s := make([]string, 0, len(c))
	for n, pol := range c {
		if pol {
			s = append(s, n)
		} else {
			s = append(s, "!"+n)
		}
	}
	sort.Strings(s)
	return strings.Join(s, "&")
}

func (c clause) merge(d clause) (clause, bool) {
	out := make(clause, len(c)+len(d))
	for n, pol := range c {
		out[n] = pol
	}
	for n, pol := range d {
		if q, ok := out[n]; ok && q != pol {
			return nil, false
		}
		out[n] = pol
	}
	return out, true
}

// clauses returns the DNF of f, with negation pushed according to neg.
func clauses(f Formula, neg bool) []clause {
	switch t := f.(type) {
	case Const:
		if bool(t) != neg {
			return []clause{{}}
		}
		return nil
	case Var:
		return []clause{{string(t): !neg}}
	case Not:
		return clauses(t.Arg, !neg)
	case And:
		if neg {
			return disjunction([]Formula(t), true)
		}
		return conjunction([]Formula(t), false)
	case Or:
		if neg {
			return conjunction([]Formula(t), true)
		}
		return disjunction([]Formula(t), false)
	}
	return nil
}

func disjunction(fs []Formula, neg bool) []clause {
	var out []clause
	for _, g := range fs {
		out = append(out, clauses(g, neg)...)
	}
	return out
}

func conjunction(fs []Formula, neg bool) []clause {
	acc := []clause{{}}
	for _, g := range fs {
		sub := clauses(g, neg)
		var next []clause
		for _, a := range acc {
			for _, b := range sub {
				if m, ok := a.merge(b); ok {
					next = append(next, m)
				}
			}
		}
		acc = simplify(next)
		if len(acc) == 0 {
			return nil
		}
	}
	return acc
}

// simplify removes duplicate and absorbed clauses.
func simplify(cs []clause) []clause {
	sort.SliceStable(cs, func(i, j int) bool { return len(cs[i]) < len(cs[j]) })
	var out []clause
	seen := map[string]struct{}{}
	for _, c := range cs {
		k := c.key()
		if _, ok := seen[k]; ok {
			continue
		}
		absorbed := false
		for _, d := range out {
			if d.subsumes(c) {
				absorbed = true
				break
			}
		}
		if absorbed {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// ToDNF returns an equivalent formula in simplified disjunctive normal
// form: constants are folded, contradictory and absorbed clauses are
// removed, and literals and clauses are sorted.
func ToDNF(f Formula) Formula {
	cs := simplify(clauses(f, false))
	if len(cs) == 0 {
		return False
	}
	terms := make([]Formula, 0, len(cs))
	for _, c := range cs {
		if len(c) == 0 {
			return True
		}
		terms = append(terms, clauseFormula(c))
	}
	sort.SliceStable(terms, func(i, j int) bool { return terms[i].String() < terms[j].String() })
	if len(terms) == 1 {
		return terms[0]
	}
	return Or(terms)
}

func clauseFormula(c clause) Formula {
	nodes := make([]string, 0, len(c))
	for n := range c {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	if len(nodes) == 1 {
		return Lit(nodes[0], c[nodes[0]])
	}
	lits := make(And, len(nodes))
	for i, n := range nodes {
		lits[i] = Lit(n, c[n])
	}
	return lits
}

// FromClauses builds a formula from clauses of literals. Empty clauses
// are ignored; no clause at all yields false.
func FromClauses(cs [][]Formula) Formula {
	var terms []Formula
	for _, c := range cs {
		switch len(c) {
		case 0:
			continue
		case 1:
			terms = append(terms, c[0])
		default:
			terms = append(terms, And(c))
		}
	}
	switch len(terms) {
	case 0:
		return False
	case 1:
		return terms[0]
	}
	return Or(terms)
}
