package domain

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
)

// Column selects a CSV column either by index or by header name. A
// non-empty Name takes precedence over Index.
type Column struct {
	Index int
	Name  string
}

// CSVOptions configures ReadCSV. The zero value reads the first three
// columns as source, target and sign, separated by commas, and adds a
// positive self-loop on every source node. Unset columns take the lowest
// indices not selected by the other columns, in source, target, sign
// order.
type CSVOptions struct {
	Source, Target, Sign Column
	// Separator defaults to ','.
	Separator rune
	// KeepSources disables the self-loops added on source nodes.
	KeepSources bool
	Graph       []Option
}

func (o CSVOptions) withDefaults() CSVOptions {
	cols := []*Column{&o.Source, &o.Target, &o.Sign}
	used := map[int]bool{}
	for _, c := range cols {
		if *c != (Column{}) && c.Name == "" {
			used[c.Index] = true
		}
	}
	next := 0
	for _, c := range cols {
		if *c != (Column{}) {
			continue
		}
		for used[next] {
			next++
		}
		c.Index = next
		used[next] = true
	}
	if o.Separator == 0 {
		o.Separator = ','
	}
	return o
}

// ReadCSV reads an influence graph from a table with a header row.
func ReadCSV(r io.Reader, options CSVOptions) (*InfluenceGraph, error) {
	options = options.withDefaults()
	cr := csv.NewReader(r)
	cr.Comma = options.Separator
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	index := func(c Column) (int, error) {
		if c.Name == "" {
			if c.Index < 0 || c.Index >= len(header) {
				return 0, fmt.Errorf("column %d out of range", c.Index)
			}
			return c.Index, nil
		}
		for i, h := range header {
			if h == c.Name {
				return i, nil
			}
		}
		return 0, fmt.Errorf("column %q not found", c.Name)
	}
	src, err := index(options.Source)
	if err != nil {
		return nil, err
	}
	dst, err := index(options.Target)
	if err != nil {
		return nil, err
	}
	sgn, err := index(options.Sign)
	if err != nil {
		return nil, err
	}

	ig := NewInfluenceGraph(options.Graph...)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		sign, err := SignOfLabel(record[sgn])
		if err != nil {
			return nil, err
		}
		if err := ig.AddEdge(record[src], record[dst], sign); err != nil {
			return nil, err
		}
	}
	if !options.KeepSources {
		ig.MakeSelfRegulated()
	}
	return ig, nil
}

// ReadSIF reads an influence graph in the simple interaction format: one
// "source sign target" triple per line, whitespace separated. Source
// nodes are made self-regulated unless keepSources is set.
func ReadSIF(r io.Reader, keepSources bool, opts ...Option) (*InfluenceGraph, error) {
	ig := NewInfluenceGraph(opts...)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 fields, got %d", line, len(fields))
		}
		sign, err := SignOfLabel(fields[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := ig.AddEdge(fields[0], fields[2], sign); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !keepSources {
		ig.MakeSelfRegulated()
	}
	return ig, nil
}

func nodeName(i int) string {
	return strconv.Itoa(i)
}

// Complete returns the complete graph over n nodes named "0".."n-1", all
// edges carrying sign. With loops, every node also regulates itself.
func Complete(n int, sign Sign, loops bool, opts ...Option) (*InfluenceGraph, error) {
	ig := NewInfluenceGraph(opts...)
	for i := 0; i < n; i++ {
		ig.AddNode(nodeName(i))
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j && !loops {
				continue
			}
			if err := ig.AddEdge(nodeName(i), nodeName(j), sign); err != nil {
				return nil, err
			}
		}
	}
	return ig, nil
}

// AllOnOne returns the graph where each of the n nodes regulates node
// "0", including "0" itself.
func AllOnOne(n int, sign Sign, opts ...Option) (*InfluenceGraph, error) {
	ig := NewInfluenceGraph(opts...)
	for i := 0; i < n; i++ {
		if err := ig.AddEdge(nodeName(i), nodeName(0), sign); err != nil {
			return nil, err
		}
	}
	return ig, nil
}

// ScaleFree returns a random directed graph over n nodes grown by
// preferential attachment. Each edge is positive with probability pPos
// and negative otherwise. Parallel edges are merged and source nodes are
// made self-regulated.
func ScaleFree(n int, pPos float64, rng *rand.Rand, opts ...Option) *InfluenceGraph {
	ig := NewInfluenceGraph(opts...)
	if n <= 0 {
		return ig
	}
	ig.AddNode(nodeName(0))
	// weights of node i as a target are indegree+1, as a source outdegree+1
	in := make([]int, n)
	out := make([]int, n)
	seen := map[[2]int]struct{}{}
	pick := func(deg []int, upto int) int {
		total := 0
		for i := 0; i < upto; i++ {
			total += deg[i] + 1
		}
		x := rng.Intn(total)
		for i := 0; i < upto; i++ {
			x -= deg[i] + 1
			if x < 0 {
				return i
			}
		}
		return upto - 1
	}
	addEdge := func(u, v int) {
		if _, ok := seen[[2]int{u, v}]; ok {
			return
		}
		seen[[2]int{u, v}] = struct{}{}
		out[u]++
		in[v]++
		sign := Negative
		if rng.Float64() < pPos {
			sign = Positive
		}
		_ = ig.AddEdge(nodeName(u), nodeName(v), sign)
	}
	for v := 1; v < n; v++ {
		ig.AddNode(nodeName(v))
		if rng.Intn(2) == 0 {
			addEdge(v, pick(in, v))
		} else {
			addEdge(pick(out, v), v)
		}
		if v > 1 && rng.Intn(4) == 0 {
			u, w := pick(out, v+1), pick(in, v+1)
			if u != w {
				addEdge(u, w)
			}
		}
	}
	ig.MakeSelfRegulated()
	return ig
}
