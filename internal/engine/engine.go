// Package engine is a reference solving engine for bonesis programs,
// built on the gini SAT solver.
//
// It supports the static part of the language: domains, observations,
// mutants, fixed points, trap spaces, constants, differences and
// optimizations. Reachability relations are rejected with
// bonesis.ErrUnsupported.
package engine

import (
	"context"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
	"github.com/sirupsen/logrus"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/solver"
)

const (
	satisfiable   = 1
	unsatisfiable = -1
)

type Engine struct {
	logger *logrus.Entry
}

var _ solver.Engine = &Engine{}

type Option func(e *Engine) error

func WithLogger(logger *logrus.Entry) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

var defaults = []Option{
	func(e *Engine) error {
		if e.logger == nil {
			e.logger = logrus.NewEntry(logrus.New())
		}
		return nil
	},
}

func New(options ...Option) (*Engine, error) {
	e := &Engine{}
	for _, option := range append(options, defaults...) {
		if err := option(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Solve grounds the program, teaches it to a fresh gini instance and
// applies the optimizations in decreasing priority. The returned
// enumeration yields each optimal network once.
func (e *Engine) Solve(ctx context.Context, facts []bonesis.Fact) (solver.Enumeration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := ground(facts)
	if err != nil {
		return nil, err
	}
	k := newCircuit(p)

	// every gate must exist before the circuit is converted
	crits := make([][]z.Lit, len(p.opts))
	for i, o := range p.opts {
		ms := k.criterion(o.criterion)
		if o.goal == "maximize" {
			for j := range ms {
				ms[j] = ms[j].Not()
			}
		}
		crits[i] = ms
	}
	root := k.c.Ands(k.constraints...)

	g := gini.New()
	k.c.ToCnf(g)
	g.Add(root)
	g.Add(0)

	log := e.logger.WithFields(logrus.Fields{
		"nodes":          len(p.order),
		"configurations": len(p.cfgIDs),
		"vars":           g.MaxVar(),
	})
	log.Debug("program grounded")

	it := &enumeration{g: g, k: k, lits: k.projection(), logger: e.logger}
	if g.Solve() != satisfiable {
		log.Debug("program is not satisfiable")
		it.done = true
		return it, nil
	}
	for i, o := range p.opts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w := minimize(g, k.cardinality(g, crits[i]))
		e.logger.WithFields(logrus.Fields{
			"goal":      o.goal,
			"criterion": o.criterion,
			"bound":     w,
		}).Debug("optimization bound found")
	}
	return it, nil
}

// minimize finds the smallest bound of cs the solver can satisfy, and
// keeps it as a permanent constraint.
func minimize(g *gini.Gini, cs *logic.CardSort) int {
	for w := 0; w <= cs.N(); w++ {
		g.Assume(cs.Leq(w))
		if g.Solve() == satisfiable {
			g.Add(cs.Leq(w))
			g.Add(0)
			return w
		}
	}
	return cs.N()
}

type enumeration struct {
	g      *gini.Gini
	k      *circuit
	lits   []z.Lit
	done   bool
	count  int
	logger *logrus.Entry
}

func (it *enumeration) value(m z.Lit) bool {
	switch m {
	case it.k.c.T:
		return true
	case it.k.c.F:
		return false
	}
	if m.Var() > it.g.MaxVar() {
		return false
	}
	return it.g.Value(m)
}

// Next solves for the next network and blocks it. Cancellation is only
// observed between two solver calls.
func (it *enumeration) Next(ctx context.Context) ([]bonesis.Fact, bool, error) {
	if it.done {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	switch it.g.Solve() {
	case satisfiable:
	case unsatisfiable:
		it.done = true
		return nil, false, nil
	default:
		it.done = true
		return nil, false, solver.ErrIncomplete
	}
	facts := it.answer()
	it.count++
	it.logger.WithField("answer", it.count).Trace("network found")

	blocked := 0
	for _, m := range it.lits {
		if m == it.k.c.T || m == it.k.c.F {
			continue
		}
		if it.value(m) {
			it.g.Add(m.Not())
		} else {
			it.g.Add(m)
		}
		blocked++
	}
	if blocked == 0 {
		it.done = true
	} else {
		it.g.Add(0)
	}
	return facts, true, nil
}

// answer reads the network of the current model as constant/2 and
// clause/4 facts, followed by the configurations as cfg/3 facts.
func (it *enumeration) answer() []bonesis.Fact {
	var facts []bonesis.Fact
	k := it.k
	for _, name := range k.p.order {
		n := k.nodes[name]
		if !it.value(n.p) {
			continue
		}
		if !it.value(n.u0(k.c)) {
			v := 0
			if it.value(n.kv) {
				v = 1
			}
			facts = append(facts, bonesis.NewFact("constant", bonesis.String(name), bonesis.Number(v)))
			continue
		}
		for j := range n.u {
			if !it.value(n.u[j]) {
				continue
			}
			for i, cand := range n.cands {
				if !it.value(n.s[j][i]) {
					continue
				}
				facts = append(facts, bonesis.NewFact("clause",
					bonesis.String(name), bonesis.Number(j+1), bonesis.String(cand.reg), bonesis.Number(cand.sign)))
			}
		}
	}
	for _, id := range k.p.cfgIDs {
		for _, name := range k.p.order {
			if !it.value(k.nodes[name].p) {
				continue
			}
			v := -1
			if it.value(k.x[id][name]) {
				v = 1
			}
			facts = append(facts, bonesis.NewFact("cfg", bonesis.String(id), bonesis.String(name), bonesis.Number(v)))
		}
	}
	return facts
}
