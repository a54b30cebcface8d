// Package model reads YAML model documents and compiles them into
// modeling sessions.
//
// A document names a domain, observations, constraints and
// optimizations:
//
//	graph:
//	  edges:
//	    - {source: A, target: B, sign: 1}
//	    - {source: B, target: A, sign: inhibition}
//	  exact: true
//	observations:
//	  o1: {A: 1, B: 0}
//	constraints:
//	  - fixed: ~o1
//	  - reach: [x, "+o1"]
//	optimize:
//	  - maximize nodes
//
// Terms are written as strings: a bare name is a named configuration,
// "~o" the configuration bound to observation o, "+o" a fresh
// configuration matching o, "obs(o)" the observation itself and
// "fixed(t)" the fixed point, or trap space, of t.
package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
)

type Document struct {
	Graph *Graph `yaml:"graph"`
	// Network is the path of a .bnet file used as a fixed domain.
	Network      string                    `yaml:"network"`
	Observations map[string]map[string]int `yaml:"observations"`
	Constraints  []Constraint              `yaml:"constraints"`
	Optimize     []string                  `yaml:"optimize"`
}

// Graph describes an influence graph given inline, or read from a SIF,
// CSV or zipped .bnet ensemble file. Paths are relative to the document.
type Graph struct {
	Edges    []Edge `yaml:"edges"`
	SIF      string `yaml:"sif"`
	CSV      string `yaml:"csv"`
	Ensemble string `yaml:"ensemble"`

	MaxClause          int   `yaml:"maxclause"`
	AllowSkippingNodes bool  `yaml:"allow_skipping_nodes"`
	Canonic            *bool `yaml:"canonic"`
	Exact              bool  `yaml:"exact"`
	// Unsource adds a positive self-loop on every source node.
	Unsource bool `yaml:"unsource"`
}

type Edge struct {
	Source string      `yaml:"source"`
	Target string      `yaml:"target"`
	Sign   interface{} `yaml:"sign"`
}

// Load reads the document at path and compiles it.
func Load(path string, options ...language.Option) (*language.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing model %s: %w", path, err)
	}
	return doc.Session(filepath.Dir(path), options...)
}

func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty model document")
		}
		return nil, err
	}
	return &doc, nil
}

func (d *Document) graphOptions() []domain.Option {
	g := d.Graph
	opts := []domain.Option{
		domain.WithMaxClause(g.MaxClause),
		domain.WithSkippingNodes(g.AllowSkippingNodes),
		domain.WithExact(g.Exact),
	}
	if g.Canonic != nil {
		opts = append(opts, domain.WithCanonic(*g.Canonic))
	}
	return opts
}

// Domain builds the domain of the document, resolving file paths against
// baseDir.
func (d *Document) Domain(baseDir string) (domain.Domain, error) {
	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(baseDir, p)
	}
	switch {
	case d.Graph != nil && d.Network != "":
		return nil, fmt.Errorf("a model has either a graph or a network, not both")
	case d.Network != "":
		f, err := os.Open(resolve(d.Network))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		bn, err := domain.ReadBNet(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.Network, err)
		}
		return bn, nil
	case d.Graph == nil:
		return nil, fmt.Errorf("model has no domain")
	}

	g := d.Graph
	sources := 0
	for _, set := range []bool{len(g.Edges) > 0, g.SIF != "", g.CSV != "", g.Ensemble != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, fmt.Errorf("graph must be given by exactly one of edges, sif, csv or ensemble")
	}

	var ig *domain.InfluenceGraph
	opts := d.graphOptions()
	switch {
	case g.SIF != "":
		f, err := os.Open(resolve(g.SIF))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if ig, err = domain.ReadSIF(f, true, opts...); err != nil {
			return nil, fmt.Errorf("%s: %w", g.SIF, err)
		}
	case g.CSV != "":
		f, err := os.Open(resolve(g.CSV))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if ig, err = domain.ReadCSV(f, domain.CSVOptions{KeepSources: true, Graph: opts}); err != nil {
			return nil, fmt.Errorf("%s: %w", g.CSV, err)
		}
	case g.Ensemble != "":
		ens, err := domain.LoadEnsembleZip(resolve(g.Ensemble))
		if err != nil {
			return nil, err
		}
		ig = ens.InfluenceGraph(opts...)
	default:
		edges := make([]domain.Edge, len(g.Edges))
		for i, e := range g.Edges {
			sign, err := domain.SignOfLabel(e.Sign)
			if err != nil {
				return nil, fmt.Errorf("edge %s -> %s: %w", e.Source, e.Target, err)
			}
			edges[i] = domain.Edge{Source: e.Source, Target: e.Target, Sign: sign}
		}
		var err error
		if ig, err = domain.FromEdges(edges, opts...); err != nil {
			return nil, err
		}
	}
	if g.Unsource {
		ig.MakeSelfRegulated()
	}
	return ig, nil
}

func (d *Document) observationData() (map[string]map[string]bool, error) {
	data := map[string]map[string]bool{}
	for name, values := range d.Observations {
		data[name] = map[string]bool{}
		for node, v := range values {
			switch v {
			case 0, 1:
				data[name][node] = v == 1
			default:
				return nil, &bonesis.ValueError{Value: fmt.Sprint(v), Msg: fmt.Sprintf("observation %s: value of %s must be 0 or 1", name, node)}
			}
		}
	}
	return data, nil
}

// Session compiles the document into a new session.
func (d *Document) Session(baseDir string, options ...language.Option) (*language.Session, error) {
	dom, err := d.Domain(baseDir)
	if err != nil {
		return nil, err
	}
	data, err := d.observationData()
	if err != nil {
		return nil, err
	}
	s, err := language.NewSession(dom, append(options, language.WithObservationData(data))...)
	if err != nil {
		return nil, err
	}
	c := &compiler{session: s}
	if err := c.constraints(d.Constraints); err != nil {
		return nil, err
	}
	for _, o := range d.Optimize {
		opt, err := language.ParseOptimization(o)
		if err != nil {
			return nil, err
		}
		s.Optimize(opt.Goal, opt.Criterion)
	}
	return s, nil
}
