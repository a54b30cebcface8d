package engine

import (
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// nodeLits are the circuit inputs describing the formula of a node: p
// tells whether the node exists, s[j][k] whether clause j uses candidate
// k, u[j] whether clause j is used and kv the value of the node when it
// has no clause.
type nodeLits struct {
	p, kv z.Lit
	u     []z.Lit
	s     [][]z.Lit
	cands []candidate
	fixed bool
}

func (n *nodeLits) u0(c *logic.C) z.Lit {
	if len(n.u) == 0 {
		return c.F
	}
	return n.u[0]
}

// circuit is the gini translation of a grounded program. Every lit
// appended to constraints must hold.
type circuit struct {
	c           *logic.C
	p           *program
	nodes       map[string]*nodeLits
	x           map[string]map[string]z.Lit
	locked      map[string]map[string]bool
	constraints []z.Lit
}

func newCircuit(p *program) *circuit {
	k := &circuit{
		c:      logic.NewCCap(1024),
		p:      p,
		nodes:  map[string]*nodeLits{},
		x:      map[string]map[string]z.Lit{},
		locked: map[string]map[string]bool{},
	}
	for _, name := range p.order {
		k.nodes[name] = k.newNodeLits(p.nodes[name])
	}
	for _, name := range p.order {
		k.structure(name)
	}
	for _, id := range p.cfgIDs {
		k.configuration(p.cfgs[id])
	}
	for _, f := range p.constraints {
		k.constraint(f.Name, f)
	}
	return k
}

func (k *circuit) require(m z.Lit) {
	k.constraints = append(k.constraints, m)
}

func (k *circuit) newNodeLits(n *node) *nodeLits {
	c := k.c
	nl := &nodeLits{p: c.T, kv: c.Lit()}
	if n.skippable {
		nl.p = c.Lit()
	}
	if n.hasFixed {
		nl.fixed = true
		var clauses [][]candidate
		for _, cl := range n.fixed {
			if len(cl) > 0 {
				clauses = append(clauses, cl)
			}
		}
		for _, cl := range clauses {
			for _, cand := range cl {
				nl.addCandidate(cand)
			}
		}
		for _, cl := range clauses {
			row := make([]z.Lit, len(nl.cands))
			for i, cand := range nl.cands {
				row[i] = c.F
				for _, d := range cl {
					if d == cand {
						row[i] = c.T
					}
				}
			}
			nl.s = append(nl.s, row)
			nl.u = append(nl.u, c.T)
		}
		return nl
	}
	nl.cands = n.cands
	for j := 0; j < n.maxC; j++ {
		row := make([]z.Lit, len(nl.cands))
		for i := range row {
			row[i] = c.Lit()
		}
		nl.s = append(nl.s, row)
		nl.u = append(nl.u, c.Lit())
	}
	return nl
}

func (n *nodeLits) addCandidate(c candidate) {
	for _, d := range n.cands {
		if d == c {
			return
		}
	}
	n.cands = append(n.cands, c)
}

// structure constrains the formula of a node to a monotone DNF.
func (k *circuit) structure(name string) {
	c, n := k.c, k.nodes[name]
	u0 := n.u0(c)
	k.require(c.Implies(u0, n.kv.Not()))
	k.require(c.Implies(n.p.Not(), n.kv.Not()))
	for j := range n.u {
		k.require(c.Implies(n.u[j], n.p))
	}
	if n.fixed {
		return
	}

	for j := range n.u {
		k.require(c.Implies(n.u[j], c.Ors(n.s[j]...)))
		if j > 0 {
			k.require(c.Implies(n.u[j], n.u[j-1]))
			k.require(c.Implies(n.u[j], lexLess(c, n.s[j-1], n.s[j])))
		}
		for i, cand := range n.cands {
			k.require(c.Implies(n.s[j][i], n.u[j]))
			k.require(c.Implies(n.s[j][i], k.nodes[cand.reg].p))
		}
	}

	used := make([]z.Lit, len(n.cands))
	for i := range n.cands {
		ms := make([]z.Lit, len(n.s))
		for j := range n.s {
			ms[j] = n.s[j][i]
		}
		used[i] = c.Ors(ms...)
	}
	// a regulator is never used with both signs
	for i, a := range n.cands {
		for l := i + 1; l < len(n.cands); l++ {
			if b := n.cands[l]; a.reg == b.reg && a.sign != b.sign {
				k.require(c.And(used[i], used[l]).Not())
			}
		}
	}

	if k.p.canonic {
		for j := range n.u {
			for l := j + 1; l < len(n.u); l++ {
				both := c.And(n.u[j], n.u[l])
				k.require(c.Implies(both, subset(c, n.s[j], n.s[l]).Not()))
				k.require(c.Implies(both, subset(c, n.s[l], n.s[j]).Not()))
			}
		}
	}

	if k.p.exact {
		var regs []string
		byReg := map[string][]z.Lit{}
		for i, cand := range n.cands {
			if _, ok := byReg[cand.reg]; !ok {
				regs = append(regs, cand.reg)
			}
			byReg[cand.reg] = append(byReg[cand.reg], used[i])
		}
		for _, reg := range regs {
			k.require(c.Implies(c.And(n.p, k.nodes[reg].p), c.Ors(byReg[reg]...)))
		}
	}
}

// subset holds when every candidate selected by a is selected by b.
func subset(c *logic.C, a, b []z.Lit) z.Lit {
	ms := make([]z.Lit, len(a))
	for i := range a {
		ms[i] = c.Implies(a[i], b[i])
	}
	return c.Ands(ms...)
}

// lexLess holds when a is strictly smaller than b, read as bit vectors
// with the first candidate as the most significant bit.
func lexLess(c *logic.C, a, b []z.Lit) z.Lit {
	less, eq := c.F, c.T
	for i := range a {
		less = c.Or(less, c.Ands(eq, a[i].Not(), b[i]))
		eq = c.And(eq, c.Xor(a[i], b[i]).Not())
	}
	return less
}

func (k *circuit) configuration(cfg *configuration) {
	c := k.c
	x := map[string]z.Lit{}
	for _, name := range k.p.order {
		x[name] = c.Lit()
	}
	k.x[cfg.id] = x
	fix := func(values map[string]bool) {
		for name, v := range values {
			k.require(value(x[name], v))
		}
	}
	for _, o := range cfg.obs {
		fix(k.p.obs[o])
	}
	if cfg.mutant != "" {
		m := k.p.mutants[cfg.mutant]
		fix(m)
		k.locked[cfg.id] = m
	}
}

func value(m z.Lit, v bool) z.Lit {
	if v {
		return m
	}
	return m.Not()
}

// eval returns the value of the formula of n in configuration x.
func (k *circuit) eval(n *nodeLits, x map[string]z.Lit) z.Lit {
	c := k.c
	clauses := make([]z.Lit, len(n.u))
	for j := range n.u {
		lits := make([]z.Lit, len(n.cands))
		for i, cand := range n.cands {
			lits[i] = c.Implies(n.s[j][i], value(x[cand.reg], cand.sign > 0))
		}
		clauses[j] = c.And(n.u[j], c.Ands(lits...))
	}
	return c.Choice(n.u0(c), c.Ors(clauses...), n.kv)
}

// evalKnown returns two lits telling whether the formula of n is
// necessarily true, or necessarily false, in every state where the nodes
// of known have their given value.
func (k *circuit) evalKnown(n *nodeLits, known map[string]bool) (z.Lit, z.Lit) {
	c := k.c
	litTrue := make([]z.Lit, len(n.cands))
	litFalse := make([]z.Lit, len(n.cands))
	for i, cand := range n.cands {
		litTrue[i], litFalse[i] = c.F, c.F
		if v, ok := known[cand.reg]; ok {
			if v == (cand.sign > 0) {
				litTrue[i] = c.T
			} else {
				litFalse[i] = c.T
			}
		}
	}
	defTrue := make([]z.Lit, len(n.u))
	defFalse := make([]z.Lit, len(n.u))
	for j := range n.u {
		t := make([]z.Lit, len(n.cands))
		f := make([]z.Lit, len(n.cands))
		for i := range n.cands {
			t[i] = c.Implies(n.s[j][i], litTrue[i])
			f[i] = c.And(n.s[j][i], litFalse[i])
		}
		defTrue[j] = c.And(n.u[j], c.Ands(t...))
		defFalse[j] = c.Or(n.u[j].Not(), c.Ors(f...))
	}
	u0 := n.u0(c)
	return c.Choice(u0, c.Ors(defTrue...), n.kv), c.Choice(u0, c.Ands(defFalse...), n.kv.Not())
}

func (k *circuit) constraint(name string, f factArgs) {
	c := k.c
	switch name {
	case "cfg_assign":
		id, _ := f.StringArg(0)
		node, _ := f.StringArg(1)
		v, _ := f.NumberArg(2)
		k.require(value(k.x[id][node], v == 1))
	case "constant":
		node, _ := f.StringArg(0)
		v, _ := f.NumberArg(1)
		n := k.nodes[node]
		k.require(n.u0(c).Not())
		k.require(value(n.kv, v == 1))
	case "fixpoint":
		id, _ := f.StringArg(0)
		x := k.x[id]
		for _, node := range k.p.order {
			if _, ok := k.locked[id][node]; ok {
				continue
			}
			n := k.nodes[node]
			same := c.Xor(x[node], k.eval(n, x)).Not()
			k.require(c.Implies(n.p, same))
		}
	case "trapspace":
		id, _ := f.StringArg(0)
		cfg := k.p.cfgs[id]
		known := map[string]bool{}
		for _, o := range cfg.obs {
			for node, v := range k.p.obs[o] {
				known[node] = v
			}
		}
		for node, v := range k.locked[id] {
			known[node] = v
		}
		for _, node := range k.p.order {
			v, ok := known[node]
			if !ok {
				continue
			}
			if _, ok := k.locked[id][node]; ok {
				continue
			}
			n := k.nodes[node]
			defTrue, defFalse := k.evalKnown(n, known)
			if v {
				k.require(c.Implies(n.p, defTrue))
			} else {
				k.require(c.Implies(n.p, defFalse))
			}
		}
	case "different":
		a, _ := f.StringArg(0)
		b, _ := f.StringArg(1)
		var diffs []z.Lit
		for _, node := range k.p.order {
			diffs = append(diffs, c.And(k.nodes[node].p, c.Xor(k.x[a][node], k.x[b][node])))
		}
		k.require(c.Ors(diffs...))
	}
}

// factArgs is the part of bonesis.Fact used to read constraint
// arguments.
type factArgs interface {
	StringArg(i int) (string, bool)
	NumberArg(i int) (int, bool)
}

// projection returns the inputs that identify a network.
func (k *circuit) projection() []z.Lit {
	var ms []z.Lit
	for _, name := range k.p.order {
		n := k.nodes[name]
		if n.fixed {
			ms = append(ms, n.p, n.kv)
			continue
		}
		ms = append(ms, n.p, n.kv)
		ms = append(ms, n.u...)
		for _, row := range n.s {
			ms = append(ms, row...)
		}
	}
	return ms
}

// criterion returns the lits counted by an optimization criterion.
func (k *circuit) criterion(name string) []z.Lit {
	c := k.c
	var ms []z.Lit
	for _, node := range k.p.order {
		n := k.nodes[node]
		switch name {
		case "nodes":
			ms = append(ms, n.p)
		case "constants":
			ms = append(ms, c.And(n.p, n.u0(c).Not()))
		case "strong_constants":
			var uses []z.Lit
			for _, other := range k.p.order {
				if other == node {
					continue
				}
				m := k.nodes[other]
				for i, cand := range m.cands {
					if cand.reg != node {
						continue
					}
					for j := range m.s {
						uses = append(uses, m.s[j][i])
					}
				}
			}
			ms = append(ms, c.Ands(n.p, n.u0(c).Not(), c.Ors(uses...).Not()))
		}
	}
	return ms
}

// cardinality builds a sorting network over ms and teaches every bound
// of it to g.
func (k *circuit) cardinality(g inter.Adder, ms []z.Lit) *logic.CardSort {
	clen := k.c.Len()
	cs := k.c.CardSort(ms)
	marks := make([]int8, clen, k.c.Len())
	for i := range marks {
		marks[i] = 1
	}
	for w := 0; w <= cs.N(); w++ {
		marks, _ = k.c.CnfSince(g, marks, cs.Leq(w))
	}
	return cs
}
