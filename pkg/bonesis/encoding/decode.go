package encoding

import (
	"sort"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
	"github.com/bonesis-go/bonesis/pkg/bonesis/formula"
)

type decoded struct {
	clauses  map[int][]formula.Formula
	constant *bool
}

// Decode builds the Boolean network described by the clause/4 and
// constant/2 facts of a solver answer. Clause indices are 1-based and may
// arrive in any order; a constant fact overrides the clauses of its node.
// Facts of other relations are ignored.
func Decode(facts []bonesis.Fact) (*domain.BooleanNetwork, error) {
	nodes := map[string]*decoded{}
	get := func(n string) *decoded {
		d, ok := nodes[n]
		if !ok {
			d = &decoded{}
			nodes[n] = d
		}
		return d
	}
	for _, f := range facts {
		switch f.Name {
		case "clause":
			node, cid, lit, sign, ok := clauseArgs(f)
			if !ok {
				return nil, bonesis.UnrecognizedFact{Fact: f}
			}
			d := get(node)
			if d.clauses == nil {
				d.clauses = map[int][]formula.Formula{}
			}
			d.clauses[cid] = append(d.clauses[cid], formula.Lit(lit, sign > 0))
		case "constant":
			node, ok1 := f.StringArg(0)
			value, ok2 := f.NumberArg(1)
			if f.Arity() != 2 || !ok1 || !ok2 {
				return nil, bonesis.UnrecognizedFact{Fact: f}
			}
			v := value == 1
			get(node).constant = &v
		}
	}

	bn := domain.NewBooleanNetwork()
	for node, d := range nodes {
		var f formula.Formula
		if d.constant != nil {
			f = formula.Const(*d.constant)
		} else {
			f = formula.FromClauses(d.ordered())
		}
		if err := bn.Set(node, f); err != nil {
			return nil, err
		}
	}
	return bn, nil
}

// ordered returns the clauses sorted by index. Indices need not be
// contiguous.
func (d *decoded) ordered() [][]formula.Formula {
	ids := make([]int, 0, len(d.clauses))
	for cid := range d.clauses {
		ids = append(ids, cid)
	}
	sort.Ints(ids)
	cs := make([][]formula.Formula, len(ids))
	for i, cid := range ids {
		cs[i] = d.clauses[cid]
	}
	return cs
}

func clauseArgs(f bonesis.Fact) (node string, cid int, lit string, sign int, ok bool) {
	if f.Arity() != 4 {
		return
	}
	var oks [4]bool
	node, oks[0] = f.StringArg(0)
	cid, oks[1] = f.NumberArg(1)
	lit, oks[2] = f.StringArg(2)
	sign, oks[3] = f.NumberArg(3)
	ok = oks[0] && oks[1] && oks[2] && oks[3] && cid >= 1 && (sign == 1 || sign == -1)
	return
}
