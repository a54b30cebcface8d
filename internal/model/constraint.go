package model

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
)

// Constraint is a single-key map whose key names the relation and whose
// value holds its operands.
type Constraint struct {
	Kind  string
	Value yaml.Node
}

func (c *Constraint) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return fmt.Errorf("line %d: a constraint is a map with a single key", value.Line)
	}
	c.Kind = value.Content[0].Value
	c.Value = *value.Content[1]
	return nil
}

type allReach struct {
	From    string   `yaml:"from"`
	To      []string `yaml:"to"`
	Options []string `yaml:"options"`
}

type constant struct {
	Node  string `yaml:"node"`
	Value int    `yaml:"value"`
}

type assign struct {
	Cfg   string `yaml:"cfg"`
	Node  string `yaml:"node"`
	Value int    `yaml:"value"`
}

type mutant struct {
	Nodes       map[string]int `yaml:"nodes"`
	Constraints []Constraint   `yaml:"constraints"`
}

type compiler struct {
	session *language.Session
}

func (c *compiler) constraints(cs []Constraint) error {
	for _, con := range cs {
		if err := c.constraint(con); err != nil {
			return fmt.Errorf("line %d: %s: %w", con.Value.Line, con.Kind, err)
		}
	}
	return nil
}

func (c *compiler) constraint(con Constraint) error {
	s := c.session
	var err error
	switch con.Kind {
	case "fixed":
		var t string
		if err := con.Value.Decode(&t); err != nil {
			return err
		}
		var term language.Term
		if term, err = c.term(t); err != nil {
			return err
		}
		_, err = s.Fixed(term)
	case "reach", "nonreach", "final_nonreach", "different":
		left, right, err := c.pair(con.Value)
		if err != nil {
			return err
		}
		switch con.Kind {
		case "reach":
			_, err = left.Reach(right)
		case "nonreach":
			_, err = left.NonReach(right)
		case "final_nonreach":
			_, err = left.FinalNonReach(right)
		case "different":
			_, err = left.Different(right)
		}
		return err
	case "allreach":
		var ar allReach
		if err := con.Value.Decode(&ar); err != nil {
			return err
		}
		left, err := c.term(ar.From)
		if err != nil {
			return err
		}
		set := c.observations(ar.To)
		if len(ar.Options) == 0 {
			_, err = left.AllReach(set)
			return err
		}
		p, err := left.AllReach(language.Options(ar.Options))
		if err != nil {
			return err
		}
		_, err = p.To(set)
		return err
	case "constant":
		var k constant
		if err := con.Value.Decode(&k); err != nil {
			return err
		}
		v, err := bit(k.Value)
		if err != nil {
			return err
		}
		_, err = s.Constant(k.Node, v)
		return err
	case "assign":
		var a assign
		if err := con.Value.Decode(&a); err != nil {
			return err
		}
		t, err := c.term(a.Cfg)
		if err != nil {
			return err
		}
		cfg, ok := t.(*language.Configuration)
		if !ok {
			return &bonesis.TypeError{Msg: fmt.Sprintf("cannot assign nodes of %s", t)}
		}
		return cfg.Set(a.Node, a.Value)
	case "custom":
		var raw string
		if err := con.Value.Decode(&raw); err != nil {
			return err
		}
		_, err = s.Custom(raw)
	case "all_fixpoints", "all_attractors":
		var names []string
		if err := con.Value.Decode(&names); err != nil {
			return err
		}
		if con.Kind == "all_fixpoints" {
			_, err = s.AllFixpoints(c.observations(names))
		} else {
			_, err = s.AllAttractors(c.observations(names))
		}
	case "mutant":
		var m mutant
		if err := con.Value.Decode(&m); err != nil {
			return err
		}
		overrides := map[string]bool{}
		for node, v := range m.Nodes {
			b, err := bit(v)
			if err != nil {
				return err
			}
			overrides[node] = b
		}
		err = s.WithMutant(overrides, func() error {
			return c.constraints(m.Constraints)
		})
	default:
		return fmt.Errorf("unknown constraint")
	}
	return err
}

func bit(v int) (bool, error) {
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, &bonesis.ValueError{Value: fmt.Sprint(v), Msg: "expected 0 or 1"}
}

func (c *compiler) pair(n yaml.Node) (language.Term, language.Term, error) {
	var ts []string
	if err := n.Decode(&ts); err != nil {
		return nil, nil, err
	}
	if len(ts) != 2 {
		return nil, nil, fmt.Errorf("expected two operands, got %d", len(ts))
	}
	left, err := c.term(ts[0])
	if err != nil {
		return nil, nil, err
	}
	right, err := c.term(ts[1])
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func (c *compiler) observations(names []string) language.ObservationSet {
	set := make(language.ObservationSet, len(names))
	for i, name := range names {
		set[i] = c.session.Observation(name)
	}
	return set
}

// term resolves a term reference.
func (c *compiler) term(ref string) (language.Term, error) {
	s := c.session
	ref = strings.TrimSpace(ref)
	if inner, ok := call(ref, "fixed"); ok {
		t, err := c.term(inner)
		if err != nil {
			return nil, err
		}
		return s.Fixed(t)
	}
	if inner, ok := call(ref, "obs"); ok {
		return s.Observation(strings.TrimSpace(inner)), nil
	}
	switch {
	case ref == "":
		return nil, fmt.Errorf("empty term")
	case strings.HasPrefix(ref, "~"):
		return s.Observation(ref[1:]).Exact(), nil
	case strings.HasPrefix(ref, "+"):
		return s.Observation(ref[1:]).Fresh(), nil
	}
	return s.Configuration(ref), nil
}

func call(ref, name string) (string, bool) {
	if strings.HasPrefix(ref, name+"(") && strings.HasSuffix(ref, ")") {
		return ref[len(name)+1 : len(ref)-1], true
	}
	return "", false
}
