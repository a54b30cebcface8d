package language

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
)

// Term is an operand of the modeling language. Every term exposes the
// five binary operators; a term that is not wired for one of them
// returns a *bonesis.TypeError naming its class and the operator.
type Term interface {
	String() string
	// Reach declares that the receiver can reach right.
	Reach(right Term) (*Predicate, error)
	// AllReach declares that every attractor reachable from the receiver
	// matches right.
	AllReach(right Term) (*Predicate, error)
	// NonReach declares that the receiver cannot reach right.
	NonReach(right Term) (*Predicate, error)
	// FinalNonReach declares that the receiver cannot reach the fixed
	// term right.
	FinalNonReach(right Term) (*Predicate, error)
	// Different declares that the receiver and right differ.
	Different(right Term) (*Predicate, error)

	class() string
}

const (
	opReach         = "Reach"
	opAllReach      = "AllReach"
	opNonReach      = "NonReach"
	opFinalNonReach = "FinalNonReach"
	opDifferent     = "Different"
)

func unsupported(t Term, operator string) error {
	return &bonesis.TypeError{Class: t.class(), Operator: operator}
}

// Configuration is a Boolean state of the network that the solver has to
// determine.
type Configuration struct {
	session *Session
	id      string
	name    string
	obs     *Observation
	mutant  *Mutant
}

var _ Term = &Configuration{}

// ID is the identity of the configuration in the encoding.
func (c *Configuration) ID() string { return c.id }

// Name returns the name of the configuration, empty when anonymous.
func (c *Configuration) Name() string { return c.name }

// Observation returns the observation the configuration is bound to, if
// any.
func (c *Configuration) Observation() *Observation { return c.obs }

// Mutant returns the mutant the configuration lives in, if any.
func (c *Configuration) Mutant() *Mutant { return c.mutant }

func (c *Configuration) String() string {
	return fmt.Sprintf("Configuration(%s)", strconv.Quote(c.id))
}

func (c *Configuration) class() string { return "Configuration" }

func (c *Configuration) Reach(right Term) (*Predicate, error) {
	return c.session.Reach(c, right)
}

func (c *Configuration) AllReach(right Term) (*Predicate, error) {
	return c.session.AllReach(c, right)
}

func (c *Configuration) NonReach(right Term) (*Predicate, error) {
	return c.session.NonReach(c, right)
}

func (c *Configuration) FinalNonReach(right Term) (*Predicate, error) {
	return c.session.FinalNonReach(c, right)
}

func (c *Configuration) Different(right Term) (*Predicate, error) {
	return c.session.Different(c, right)
}

// Set fixes the value of node in the configuration. Booleans and the
// integers 0 and 1 are accepted.
func (c *Configuration) Set(node string, value interface{}) error {
	if err := c.session.AssertNodeExists(node); err != nil {
		return err
	}
	var v int
	switch t := value.(type) {
	case bool:
		if t {
			v = 1
		}
	case int:
		if t != 0 && t != 1 {
			return &bonesis.TypeError{Class: c.class(), Msg: "cannot assign integers other than 0/1"}
		}
		v = t
	default:
		return &bonesis.TypeError{Class: c.class(), Msg: fmt.Sprintf("invalid type for assignment %T", value)}
	}
	c.session.register(&Predicate{
		session: c.session,
		Kind:    KindCfgAssign,
		Name:    KindCfgAssign.String(),
		Left:    c,
		Right:   c,
		Node:    node,
		Value:   v,
	})
	return nil
}

// Observation is a named partial assignment of the nodes, typically
// experimental data.
type Observation struct {
	session *Session
	name    string
	data    map[string]bool
}

var _ Term = &Observation{}

func (o *Observation) Name() string { return o.name }

func (o *Observation) String() string {
	return fmt.Sprintf("Observation(%s)", strconv.Quote(o.name))
}

func (o *Observation) class() string { return "Observation" }

// Assign records the observed value of node.
func (o *Observation) Assign(node string, value bool) error {
	if err := o.session.AssertNodeExists(node); err != nil {
		return err
	}
	o.data[node] = value
	return nil
}

// Data returns the observed values, by node.
func (o *Observation) Data() map[string]bool {
	data := make(map[string]bool, len(o.data))
	for n, v := range o.data {
		data[n] = v
	}
	return data
}

// Exact returns the configuration that matches the observation, named
// after it in the current mutant scope.
func (o *Observation) Exact() *Configuration {
	return o.session.configuration(o.name, o)
}

// Fresh returns a new anonymous configuration matching the observation.
func (o *Observation) Fresh() *Configuration {
	return o.session.configuration("", o)
}

func (o *Observation) Reach(right Term) (*Predicate, error) {
	return nil, unsupported(o, opReach)
}

func (o *Observation) AllReach(right Term) (*Predicate, error) {
	return o.session.AllReach(o, right)
}

func (o *Observation) NonReach(right Term) (*Predicate, error) {
	return nil, unsupported(o, opNonReach)
}

func (o *Observation) FinalNonReach(right Term) (*Predicate, error) {
	return nil, unsupported(o, opFinalNonReach)
}

func (o *Observation) Different(right Term) (*Predicate, error) {
	return nil, unsupported(o, opDifferent)
}

// ObservationSet is a collection of observations used as a single
// operand.
type ObservationSet []*Observation

var _ Term = ObservationSet{}

func (s ObservationSet) String() string {
	names := make([]string, len(s))
	for i, o := range s {
		names[i] = o.String()
	}
	sort.Strings(names)
	return "{" + strings.Join(names, ", ") + "}"
}

func (ObservationSet) class() string { return "ObservationSet" }

func (s ObservationSet) Reach(Term) (*Predicate, error) { return nil, unsupported(s, opReach) }
func (s ObservationSet) AllReach(Term) (*Predicate, error) {
	return nil, unsupported(s, opAllReach)
}
func (s ObservationSet) NonReach(Term) (*Predicate, error) { return nil, unsupported(s, opNonReach) }
func (s ObservationSet) FinalNonReach(Term) (*Predicate, error) {
	return nil, unsupported(s, opFinalNonReach)
}
func (s ObservationSet) Different(Term) (*Predicate, error) {
	return nil, unsupported(s, opDifferent)
}

// dedup returns the set without repeated observations, preserving order.
func (s ObservationSet) dedup() ObservationSet {
	seen := map[*Observation]struct{}{}
	out := make(ObservationSet, 0, len(s))
	for _, o := range s {
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}

// Options is a tuple of solver options, used as the right operand of
// AllReach to declare an open predicate.
type Options []string

var _ Term = Options{}

func (o Options) String() string {
	quoted := make([]string, len(o))
	for i, opt := range o {
		quoted[i] = strconv.Quote(opt)
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}

func (Options) class() string { return "Options" }

func (o Options) Reach(Term) (*Predicate, error)    { return nil, unsupported(o, opReach) }
func (o Options) AllReach(Term) (*Predicate, error) { return nil, unsupported(o, opAllReach) }
func (o Options) NonReach(Term) (*Predicate, error) { return nil, unsupported(o, opNonReach) }
func (o Options) FinalNonReach(Term) (*Predicate, error) {
	return nil, unsupported(o, opFinalNonReach)
}
func (o Options) Different(Term) (*Predicate, error) { return nil, unsupported(o, opDifferent) }
