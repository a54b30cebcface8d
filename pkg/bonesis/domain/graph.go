package domain

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
)

// Domain is the search space a modeling session is bound to.
type Domain interface {
	// Nodes returns the nodes of the domain in sorted order.
	Nodes() []string
	HasNode(node string) bool
}

// Options are the structural options of an influence graph. They are
// carried verbatim to the encoding.
type Options struct {
	// MaxClause caps the number of clauses of each node's formula;
	// zero means no cap.
	MaxClause int
	// AllowSkippingNodes makes the existence of each node part of the
	// search space.
	AllowSkippingNodes bool
	Canonic            bool
	Exact              bool
}

// DefaultOptions returns the options of a new influence graph.
func DefaultOptions() Options {
	return Options{Canonic: true}
}

// Option configures an InfluenceGraph.
type Option func(*Options)

func WithMaxClause(n int) Option {
	return func(o *Options) { o.MaxClause = n }
}

func WithSkippingNodes(allow bool) Option {
	return func(o *Options) { o.AllowSkippingNodes = allow }
}

func WithCanonic(canonic bool) Option {
	return func(o *Options) { o.Canonic = canonic }
}

func WithExact(exact bool) Option {
	return func(o *Options) { o.Exact = exact }
}

// Edge is a signed influence from Source to Target.
type Edge struct {
	Source string
	Target string
	Sign   Sign
}

// influence is a multigraph line carrying the sign of an edge.
type influence struct {
	multi.Line
	sign Sign
}

// InfluenceGraph is a signed directed multigraph of candidate
// regulations, together with the structural options of the encoding.
// Self-loops are permitted; they are how source nodes get a regulator.
type InfluenceGraph struct {
	g       *multi.DirectedGraph
	ids     map[string]int64
	names   map[int64]string
	edges   []influence
	options Options
}

var _ Domain = &InfluenceGraph{}

// NewInfluenceGraph returns an empty influence graph.
func NewInfluenceGraph(opts ...Option) *InfluenceGraph {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &InfluenceGraph{
		g:       multi.NewDirectedGraph(),
		ids:     map[string]int64{},
		names:   map[int64]string{},
		options: options,
	}
}

// FromEdges returns an influence graph holding the given edges.
func FromEdges(edges []Edge, opts ...Option) (*InfluenceGraph, error) {
	ig := NewInfluenceGraph(opts...)
	for _, e := range edges {
		if err := ig.AddEdge(e.Source, e.Target, e.Sign); err != nil {
			return nil, err
		}
	}
	return ig, nil
}

// Options returns the structural options of the graph.
func (ig *InfluenceGraph) Options() Options {
	return ig.options
}

// AddNode adds a node if it is not already present.
func (ig *InfluenceGraph) AddNode(name string) {
	if _, ok := ig.ids[name]; ok {
		return
	}
	n := ig.g.NewNode()
	ig.g.AddNode(n)
	ig.ids[name] = n.ID()
	ig.names[n.ID()] = name
}

// AddEdge adds a signed edge, adding its endpoints as needed. Parallel
// edges are kept.
func (ig *InfluenceGraph) AddEdge(source, target string, sign Sign) error {
	if sign != Positive && sign != Negative && sign != Unknown {
		return &bonesis.ValueError{Value: int(sign), Msg: "unknown sign label " + quoteLabel(int(sign))}
	}
	ig.AddNode(source)
	ig.AddNode(target)
	l := influence{
		Line: multi.Line{
			F:   ig.g.Node(ig.ids[source]),
			T:   ig.g.Node(ig.ids[target]),
			UID: int64(len(ig.edges)),
		},
		sign: sign,
	}
	ig.g.SetLine(l)
	ig.edges = append(ig.edges, l)
	return nil
}

// HasNode reports whether the graph contains node.
func (ig *InfluenceGraph) HasNode(node string) bool {
	_, ok := ig.ids[node]
	return ok
}

// Nodes returns the nodes of the graph in sorted order.
func (ig *InfluenceGraph) Nodes() []string {
	nodes := make([]string, 0, len(ig.ids))
	for name := range ig.ids {
		nodes = append(nodes, name)
	}
	sort.Strings(nodes)
	return nodes
}

// Edges returns the edges of the graph in insertion order.
func (ig *InfluenceGraph) Edges() []Edge {
	edges := make([]Edge, len(ig.edges))
	for i, l := range ig.edges {
		edges[i] = Edge{
			Source: ig.names[l.From().ID()],
			Target: ig.names[l.To().ID()],
			Sign:   l.sign,
		}
	}
	return edges
}

// InDegree returns the number of edges, parallel edges included, whose
// target is node.
func (ig *InfluenceGraph) InDegree(node string) int {
	id, ok := ig.ids[node]
	if !ok {
		return 0
	}
	d := 0
	regulators := ig.g.To(id)
	for regulators.Next() {
		d += linesLen(ig.g.Lines(regulators.Node().ID(), id))
	}
	return d
}

func linesLen(lines graph.Lines) int {
	n := 0
	for lines.Next() {
		n++
	}
	return n
}

// Regulators returns the sorted sources of the edges targeting node.
func (ig *InfluenceGraph) Regulators(node string) []string {
	id, ok := ig.ids[node]
	if !ok {
		return nil
	}
	var regs []string
	nodes := ig.g.To(id)
	for nodes.Next() {
		regs = append(regs, ig.names[nodes.Node().ID()])
	}
	sort.Strings(regs)
	return regs
}

// Sources returns the sorted nodes without any incoming edge.
func (ig *InfluenceGraph) Sources() []string {
	var sources []string
	for _, n := range ig.Nodes() {
		if ig.InDegree(n) == 0 {
			sources = append(sources, n)
		}
	}
	return sources
}

// MakeSelfRegulated adds a positive self-loop to every source, so that
// every node has at least one regulator.
func (ig *InfluenceGraph) MakeSelfRegulated() {
	for _, n := range ig.Sources() {
		// endpoints exist and the sign is valid
		_ = ig.AddEdge(n, n, Positive)
	}
}

// MaxInDegree returns the largest in-degree of the graph, or 0 when the
// graph is empty.
func (ig *InfluenceGraph) MaxInDegree() int {
	max := 0
	for _, n := range ig.Nodes() {
		if d := ig.InDegree(n); d > max {
			max = d
		}
	}
	return max
}

// Subgraph returns the graph induced by the given nodes. The structural
// options are preserved.
func (ig *InfluenceGraph) Subgraph(nodes ...string) *InfluenceGraph {
	keep := make(map[string]struct{}, len(nodes))
	sub := NewInfluenceGraph()
	sub.options = ig.options
	for _, n := range nodes {
		if ig.HasNode(n) {
			keep[n] = struct{}{}
			sub.AddNode(n)
		}
	}
	for _, e := range ig.Edges() {
		_, src := keep[e.Source]
		_, dst := keep[e.Target]
		if src && dst {
			_ = sub.AddEdge(e.Source, e.Target, e.Sign)
		}
	}
	return sub
}
