package domain

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/formula"
)

// BooleanNetwork maps each node to a monotone update formula in
// disjunctive normal form.
type BooleanNetwork struct {
	formulas map[string]formula.Formula
}

var _ Domain = &BooleanNetwork{}

func NewBooleanNetwork() *BooleanNetwork {
	return &BooleanNetwork{formulas: map[string]formula.Formula{}}
}

// Set normalises f to DNF and assigns it to node. Formulas that are not
// monotone are rejected with a *bonesis.MonotonicityError and leave the
// network unchanged.
func (bn *BooleanNetwork) Set(node string, f formula.Formula) error {
	f = formula.ToDNF(f)
	if !formula.WellFormed(f) {
		return &bonesis.MonotonicityError{Node: node, Formula: f.String()}
	}
	bn.formulas[node] = f
	return nil
}

// Get returns the formula of node.
func (bn *BooleanNetwork) Get(node string) (formula.Formula, bool) {
	f, ok := bn.formulas[node]
	return f, ok
}

func (bn *BooleanNetwork) HasNode(node string) bool {
	_, ok := bn.formulas[node]
	return ok
}

func (bn *BooleanNetwork) Nodes() []string {
	nodes := make([]string, 0, len(bn.formulas))
	for n := range bn.formulas {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// Map returns a copy of the node to formula mapping.
func (bn *BooleanNetwork) Map() map[string]formula.Formula {
	m := make(map[string]formula.Formula, len(bn.formulas))
	for n, f := range bn.formulas {
		m[n] = f
	}
	return m
}

// Influences returns the signed edges from the regulators of each node
// to the node, in node order.
func (bn *BooleanNetwork) Influences() []Edge {
	var edges []Edge
	for _, n := range bn.Nodes() {
		pos, neg := literals(bn.formulas[n])
		for _, r := range sortedKeys(pos) {
			edges = append(edges, Edge{Source: r, Target: n, Sign: Positive})
		}
		for _, r := range sortedKeys(neg) {
			edges = append(edges, Edge{Source: r, Target: n, Sign: Negative})
		}
	}
	return edges
}

func literals(f formula.Formula) (pos, neg map[string]struct{}) {
	pos, neg = map[string]struct{}{}, map[string]struct{}{}
	var walk func(formula.Formula, bool)
	walk = func(f formula.Formula, positive bool) {
		switch t := f.(type) {
		case formula.Var:
			if positive {
				pos[string(t)] = struct{}{}
			} else {
				neg[string(t)] = struct{}{}
			}
		case formula.Not:
			walk(t.Arg, !positive)
		case formula.And:
			for _, g := range t {
				walk(g, positive)
			}
		case formula.Or:
			for _, g := range t {
				walk(g, positive)
			}
		}
	}
	walk(f, true)
	return pos, neg
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders the network in .bnet format, one "node, formula" line
// per node.
func (bn *BooleanNetwork) String() string {
	var b strings.Builder
	for _, n := range bn.Nodes() {
		fmt.Fprintf(&b, "%s, %s\n", n, bn.formulas[n])
	}
	return b.String()
}

// ReadBNet reads a network in .bnet format. Blank lines, '#' comments and
// the optional "targets, factors" header are skipped.
func ReadBNet(r io.Reader) (*BooleanNetwork, error) {
	bn := NewBooleanNetwork()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		node, src, ok := strings.Cut(text, ",")
		if !ok {
			return nil, fmt.Errorf("line %d: expected 'node, formula'", line)
		}
		node = strings.TrimSpace(node)
		if node == "targets" && strings.TrimSpace(src) == "factors" {
			continue
		}
		f, err := formula.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := bn.Set(node, f); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return bn, nil
}
