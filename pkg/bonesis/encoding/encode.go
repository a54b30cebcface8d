// Package encoding translates a modeling session into the facts consumed
// by a solving engine, and solver answers back into Boolean networks.
package encoding

import (
	"fmt"
	"math/big"
	"sort"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
	"github.com/bonesis-go/bonesis/pkg/bonesis/formula"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
)

// ClauseBound returns the largest number of clauses of a monotone DNF
// over d literals, C(d, d/2), capped by maxclause when maxclause > 0.
func ClauseBound(d, maxclause int) *big.Int {
	if d < 0 {
		d = 0
	}
	n := new(big.Int).Binomial(int64(d), int64(d/2))
	if maxclause > 0 && n.Cmp(big.NewInt(int64(maxclause))) > 0 {
		n.SetInt64(int64(maxclause))
	}
	return n
}

func str(s string) bonesis.Term { return bonesis.String(s) }

func num(n int) bonesis.Term { return bonesis.Number(n) }

func signTerm(s domain.Sign) bonesis.Term {
	if s == domain.Unknown {
		return bonesis.Pool{num(-1), num(1)}
	}
	return num(int(s))
}

func boolNum(b bool) int {
	if b {
		return 1
	}
	return 0
}

type encoder struct {
	facts []bonesis.Fact
	sets  int
}

func (e *encoder) add(name string, args ...bonesis.Term) {
	e.facts = append(e.facts, bonesis.NewFact(name, args...))
}

// Encode returns the facts describing the domain of the session and
// every term registered into it, in a stable order: domain, observations,
// configurations, predicates, then optimizations by decreasing priority.
func Encode(s *language.Session) ([]bonesis.Fact, error) {
	var e encoder
	switch dom := s.Domain().(type) {
	case *domain.InfluenceGraph:
		if err := e.influenceGraph(dom); err != nil {
			return nil, err
		}
	case *domain.BooleanNetwork:
		e.booleanNetwork(dom)
	default:
		return nil, fmt.Errorf("unsupported domain %T", dom)
	}
	for _, o := range s.Observations() {
		e.observation(o)
	}
	for _, m := range s.Mutants() {
		for _, n := range m.Nodes() {
			e.add("mutant", str(m.ID), str(n), num(boolNum(m.Overrides[n])))
		}
	}
	for _, cfg := range s.Configurations() {
		e.configuration(cfg)
	}
	for _, p := range s.Predicates() {
		e.predicate(p)
	}
	opts := s.Optimizations()
	for i, o := range opts {
		e.add("optimize", num(len(opts)-i), bonesis.Symbol(o.Goal.String()), bonesis.Symbol(o.Criterion.String()))
	}
	return e.facts, nil
}

func (e *encoder) nodes(nodes []string, skipping bool) {
	if !skipping {
		e.add("nbnode", num(len(nodes)))
		for _, n := range nodes {
			e.add("node", str(n))
		}
		return
	}
	e.facts = append(e.facts, bonesis.Fact{
		Name: "nbnode",
		Args: []bonesis.Term{bonesis.Symbol("NB")},
		Body: "NB = #count{N: node(N)}",
	})
	for _, n := range nodes {
		e.facts = append(e.facts, bonesis.Fact{Name: "node", Args: []bonesis.Term{str(n)}, Choice: true})
	}
}

func (e *encoder) influenceGraph(ig *domain.InfluenceGraph) error {
	opts := ig.Options()
	nodes := ig.Nodes()
	e.nodes(nodes, opts.AllowSkippingNodes)
	for _, edge := range ig.Edges() {
		e.add("in", str(edge.Source), str(edge.Target), signTerm(edge.Sign))
	}
	for _, n := range nodes {
		bound := ClauseBound(ig.InDegree(n), opts.MaxClause)
		if !bound.IsInt64() {
			return fmt.Errorf("clause bound of %s does not fit in a fact: %s", n, bound)
		}
		e.add("maxC", str(n), num(int(bound.Int64())))
	}
	if opts.Canonic {
		e.add("canonic")
	}
	if opts.Exact {
		e.add("exact")
	}
	return nil
}

func (e *encoder) booleanNetwork(bn *domain.BooleanNetwork) {
	nodes := bn.Nodes()
	e.nodes(nodes, false)
	for _, n := range nodes {
		f, _ := bn.Get(n)
		if c, ok := f.(formula.Const); ok {
			e.add("constant", str(n), num(boolNum(bool(c))))
			continue
		}
		for j, clause := range clausesOf(f) {
			for _, lit := range clause {
				e.add("clause", str(n), num(j+1), str(lit.node), num(lit.sign))
			}
		}
	}
}

type literal struct {
	node string
	sign int
}

// clausesOf lists the clauses of a well-formed DNF formula.
func clausesOf(f formula.Formula) [][]literal {
	var lits func(formula.Formula) []literal
	lits = func(f formula.Formula) []literal {
		switch t := f.(type) {
		case formula.Var:
			return []literal{{node: string(t), sign: 1}}
		case formula.Not:
			if v, ok := t.Arg.(formula.Var); ok {
				return []literal{{node: string(v), sign: -1}}
			}
		case formula.And:
			var out []literal
			for _, g := range t {
				out = append(out, lits(g)...)
			}
			return out
		}
		return nil
	}
	if or, ok := f.(formula.Or); ok {
		out := make([][]literal, 0, len(or))
		for _, g := range or {
			out = append(out, lits(g))
		}
		return out
	}
	return [][]literal{lits(f)}
}

func (e *encoder) observation(o *language.Observation) {
	data := o.Data()
	nodes := make([]string, 0, len(data))
	for n := range data {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		e.add("obs", str(o.Name()), str(n), num(2*boolNum(data[n])-1))
	}
}

func (e *encoder) configuration(cfg *language.Configuration) {
	e.add("cfg", str(cfg.ID()))
	if o := cfg.Observation(); o != nil {
		e.add("bind_cfg", str(cfg.ID()), str(o.Name()))
	}
	if m := cfg.Mutant(); m != nil {
		e.add("cfg_mutant", str(cfg.ID()), str(m.ID))
	}
}

// set emits the membership facts of a new observation set and returns
// its identifier.
func (e *encoder) set(set language.ObservationSet) bonesis.Term {
	e.sets++
	id := str(fmt.Sprintf("_s%d", e.sets))
	for _, o := range set {
		e.add("setobs", id, str(o.Name()))
	}
	return id
}

func (e *encoder) predicate(p *language.Predicate) {
	switch p.Kind {
	case language.KindReach, language.KindNonReach, language.KindFinalNonReach, language.KindDifferent:
		e.add(p.Name, str(p.Left.ID()), str(p.Right.ID()))
	case language.KindAllReach:
		opts := make(bonesis.Tuple, len(p.Options))
		for i, o := range p.Options {
			opts[i] = bonesis.Symbol(o)
		}
		set := e.set(p.Set)
		e.add(p.Name, opts, str(p.Left.ID()), set)
	case language.KindFixpoint, language.KindTrapspace:
		e.add(p.Name, str(p.Left.ID()))
	case language.KindAllFixpoints, language.KindAllAttractors:
		e.add(p.Name, e.set(p.Set))
	case language.KindConstant:
		e.add(p.Name, str(p.Node), num(p.Value))
	case language.KindCfgAssign:
		e.add(p.Name, str(p.Left.ID()), str(p.Node), num(p.Value))
	case language.KindCustom:
		if facts, err := bonesis.ParseFacts(p.Raw); err == nil {
			e.facts = append(e.facts, facts...)
			return
		}
		e.facts = append(e.facts, bonesis.Fact{Raw: p.Raw})
	}
}
