package engine

import (
	"fmt"
	"sort"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
)

// candidate is a literal a clause of a node may use.
type candidate struct {
	reg  string
	sign int
}

type node struct {
	name      string
	skippable bool
	maxC      int
	cands     []candidate
	// fixed clauses, when the formula of the node is given as input
	fixed    [][]candidate
	hasFixed bool
	// clauses by index, as read from clause/4 facts
	clauses map[int][]candidate
}

type configuration struct {
	id     string
	obs    []string
	mutant string
}

type optimization struct {
	priority  int
	goal      string
	criterion string
}

// program is the grounded view of the facts given to the engine.
type program struct {
	nodes   map[string]*node
	order   []string
	canonic bool
	exact   bool

	obs     map[string]map[string]bool
	mutants map[string]map[string]bool
	cfgs    map[string]*configuration
	cfgIDs  []string

	// constraints over configurations, in input order
	constraints []bonesis.Fact
	opts        []optimization
}

var constraintRelations = map[string]int{
	"cfg_assign": 3,
	"fixpoint":   1,
	"trapspace":  1,
	"different":  2,
	"constant":   2,
}

var ignoredRelations = map[string]struct{}{
	"nbnode": {},
	"setobs": {},
}

func unrecognized(f bonesis.Fact) error {
	return bonesis.UnrecognizedFact{Fact: f}
}

func unsupportedRelation(f bonesis.Fact) error {
	return fmt.Errorf("%w: %s", bonesis.ErrUnsupported, f.Signature())
}

func ground(facts []bonesis.Fact) (*program, error) {
	p := &program{
		nodes:   map[string]*node{},
		obs:     map[string]map[string]bool{},
		mutants: map[string]map[string]bool{},
		cfgs:    map[string]*configuration{},
	}
	getNode := func(name string) *node {
		n, ok := p.nodes[name]
		if !ok {
			n = &node{name: name}
			p.nodes[name] = n
			p.order = append(p.order, name)
		}
		return n
	}
	var deferred []bonesis.Fact

	for _, f := range facts {
		if f.Raw != "" {
			return nil, fmt.Errorf("%w: program text %q", bonesis.ErrUnsupported, f.String())
		}
		if f.Body != "" {
			if f.Name == "nbnode" {
				continue
			}
			return nil, unsupportedRelation(f)
		}
		if _, ok := ignoredRelations[f.Name]; ok {
			continue
		}
		if arity, ok := constraintRelations[f.Name]; ok {
			if f.Arity() != arity {
				return nil, unrecognized(f)
			}
			deferred = append(deferred, f)
			continue
		}
		switch f.Name {
		case "node":
			name, ok := f.StringArg(0)
			if !ok || f.Arity() != 1 {
				return nil, unrecognized(f)
			}
			getNode(name).skippable = f.Choice
		case "in":
			src, ok1 := f.StringArg(0)
			dst, ok2 := f.StringArg(1)
			if f.Arity() != 3 || !ok1 || !ok2 {
				return nil, unrecognized(f)
			}
			signs, err := edgeSigns(f)
			if err != nil {
				return nil, err
			}
			n := getNode(dst)
			for _, s := range signs {
				n.addCandidate(candidate{reg: src, sign: s})
			}
		case "maxC":
			name, ok1 := f.StringArg(0)
			k, ok2 := f.NumberArg(1)
			if f.Arity() != 2 || !ok1 || !ok2 || k < 0 {
				return nil, unrecognized(f)
			}
			getNode(name).maxC = k
		case "clause":
			name, ok1 := f.StringArg(0)
			cid, ok2 := f.NumberArg(1)
			reg, ok3 := f.StringArg(2)
			sign, ok4 := f.NumberArg(3)
			if f.Arity() != 4 || !ok1 || !ok2 || !ok3 || !ok4 || cid < 1 || (sign != 1 && sign != -1) {
				return nil, unrecognized(f)
			}
			n := getNode(name)
			if n.clauses == nil {
				n.clauses = map[int][]candidate{}
			}
			n.clauses[cid] = append(n.clauses[cid], candidate{reg: reg, sign: sign})
		case "canonic":
			p.canonic = true
		case "exact":
			p.exact = true
		case "obs":
			o, ok1 := f.StringArg(0)
			name, ok2 := f.StringArg(1)
			v, ok3 := f.NumberArg(2)
			if f.Arity() != 3 || !ok1 || !ok2 || !ok3 || (v != 1 && v != -1) {
				return nil, unrecognized(f)
			}
			if p.obs[o] == nil {
				p.obs[o] = map[string]bool{}
			}
			p.obs[o][name] = v == 1
		case "mutant":
			m, ok1 := f.StringArg(0)
			name, ok2 := f.StringArg(1)
			v, ok3 := f.NumberArg(2)
			if f.Arity() != 3 || !ok1 || !ok2 || !ok3 || (v != 0 && v != 1) {
				return nil, unrecognized(f)
			}
			if p.mutants[m] == nil {
				p.mutants[m] = map[string]bool{}
			}
			p.mutants[m][name] = v == 1
		case "cfg":
			id, ok := f.StringArg(0)
			if !ok || f.Arity() != 1 {
				return nil, unrecognized(f)
			}
			p.cfg(id)
		case "bind_cfg":
			id, ok1 := f.StringArg(0)
			o, ok2 := f.StringArg(1)
			if f.Arity() != 2 || !ok1 || !ok2 {
				return nil, unrecognized(f)
			}
			cfg := p.cfg(id)
			cfg.obs = append(cfg.obs, o)
		case "cfg_mutant":
			id, ok1 := f.StringArg(0)
			m, ok2 := f.StringArg(1)
			if f.Arity() != 2 || !ok1 || !ok2 {
				return nil, unrecognized(f)
			}
			p.cfg(id).mutant = m
		case "optimize":
			prio, ok1 := f.NumberArg(0)
			goal, ok2 := f.StringArg(1)
			crit, ok3 := f.StringArg(2)
			if f.Arity() != 3 || !ok1 || !ok2 || !ok3 {
				return nil, unrecognized(f)
			}
			if goal != "maximize" && goal != "minimize" {
				return nil, unrecognized(f)
			}
			switch crit {
			case "nodes", "constants", "strong_constants":
			default:
				return nil, unrecognized(f)
			}
			p.opts = append(p.opts, optimization{priority: prio, goal: goal, criterion: crit})
		default:
			return nil, unsupportedRelation(f)
		}
	}

	sort.Strings(p.order)
	for _, n := range p.nodes {
		if n.clauses == nil {
			continue
		}
		n.hasFixed = true
		ids := make([]int, 0, len(n.clauses))
		for cid := range n.clauses {
			ids = append(ids, cid)
		}
		sort.Ints(ids)
		for _, cid := range ids {
			n.fixed = append(n.fixed, n.clauses[cid])
		}
	}
	sort.SliceStable(p.opts, func(i, j int) bool { return p.opts[i].priority > p.opts[j].priority })

	for _, n := range p.nodes {
		for _, c := range n.cands {
			if _, ok := p.nodes[c.reg]; !ok {
				return nil, bonesis.NodeNotFound(c.reg)
			}
		}
		for _, cl := range n.fixed {
			for _, c := range cl {
				if _, ok := p.nodes[c.reg]; !ok {
					return nil, bonesis.NodeNotFound(c.reg)
				}
			}
		}
	}
	for _, cfg := range p.cfgs {
		for _, o := range cfg.obs {
			if err := p.checkNodes(p.obs[o]); err != nil {
				return nil, err
			}
		}
		if cfg.mutant != "" {
			m, ok := p.mutants[cfg.mutant]
			if !ok {
				return nil, fmt.Errorf("unknown mutant %q", cfg.mutant)
			}
			if err := p.checkNodes(m); err != nil {
				return nil, err
			}
		}
	}
	for _, f := range deferred {
		if err := p.checkConstraint(f); err != nil {
			return nil, err
		}
	}
	p.constraints = deferred
	return p, nil
}

func edgeSigns(f bonesis.Fact) ([]int, error) {
	switch t := f.Args[2].(type) {
	case bonesis.Number:
		switch t {
		case 1, -1:
			return []int{int(t)}, nil
		case 0:
			return []int{-1, 1}, nil
		}
	case bonesis.Pool:
		var signs []int
		for _, s := range t {
			n, ok := s.(bonesis.Number)
			if !ok || (n != 1 && n != -1) {
				return nil, unrecognized(f)
			}
			signs = append(signs, int(n))
		}
		return signs, nil
	}
	return nil, unrecognized(f)
}

func (n *node) addCandidate(c candidate) {
	for _, d := range n.cands {
		if d == c {
			return
		}
	}
	n.cands = append(n.cands, c)
}

func (p *program) cfg(id string) *configuration {
	cfg, ok := p.cfgs[id]
	if !ok {
		cfg = &configuration{id: id}
		p.cfgs[id] = cfg
		p.cfgIDs = append(p.cfgIDs, id)
	}
	return cfg
}

func (p *program) checkNodes(values map[string]bool) error {
	for name := range values {
		if _, ok := p.nodes[name]; !ok {
			return bonesis.NodeNotFound(name)
		}
	}
	return nil
}

func (p *program) checkConstraint(f bonesis.Fact) error {
	checkCfg := func(i int) error {
		id, ok := f.StringArg(i)
		if !ok {
			return unrecognized(f)
		}
		if _, ok := p.cfgs[id]; !ok {
			return fmt.Errorf("unknown configuration %q in %s", id, f)
		}
		return nil
	}
	checkNode := func(i int) error {
		name, ok := f.StringArg(i)
		if !ok {
			return unrecognized(f)
		}
		if _, ok := p.nodes[name]; !ok {
			return bonesis.NodeNotFound(name)
		}
		return nil
	}
	checkValue := func(i int) error {
		if v, ok := f.NumberArg(i); !ok || (v != 0 && v != 1) {
			return unrecognized(f)
		}
		return nil
	}
	var checks []func(int) error
	switch f.Name {
	case "cfg_assign":
		checks = []func(int) error{checkCfg, checkNode, checkValue}
	case "fixpoint", "trapspace":
		checks = []func(int) error{checkCfg}
	case "different":
		checks = []func(int) error{checkCfg, checkCfg}
	case "constant":
		checks = []func(int) error{checkNode, checkValue}
	}
	for i, check := range checks {
		if err := check(i); err != nil {
			return err
		}
	}
	return nil
}
