package language

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
)

// PredicateKind enumerates the relations a Predicate can express.
type PredicateKind int

const (
	KindReach PredicateKind = iota
	KindNonReach
	KindFinalNonReach
	KindAllReach
	KindFixpoint
	KindTrapspace
	KindDifferent
	KindAllFixpoints
	KindAllAttractors
	KindCustom
	KindConstant
	KindCfgAssign
)

var kindNames = [...]string{
	KindReach:         "reach",
	KindNonReach:      "nonreach",
	KindFinalNonReach: "final_nonreach",
	KindAllReach:      "allreach",
	KindFixpoint:      "fixpoint",
	KindTrapspace:     "trapspace",
	KindDifferent:     "different",
	KindAllFixpoints:  "all_fixpoints",
	KindAllAttractors: "all_attractors",
	KindCustom:        "custom",
	KindConstant:      "constant",
	KindCfgAssign:     "cfg_assign",
}

// String returns the relation name of the kind.
func (k PredicateKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "PredicateKind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// AllReachOptions lists the options accepted by allreach predicates.
var AllReachOptions = map[string]struct{}{
	"fixpoints":          {},
	"attractors_contain": {},
}

// DefaultAllReachOptions are the options of an allreach predicate
// declared without any.
var DefaultAllReachOptions = Options{"attractors_contain"}

// Predicate is a relation over terms registered in a Session. The fields
// used depend on Kind:
//
//	reach, nonreach, final_nonreach, different   Left, Right
//	allreach                                     Left, Set, Options
//	fixpoint, trapspace                          Left (= Right)
//	all_fixpoints, all_attractors                Set
//	custom                                       Raw
//	constant                                     Node, Value
//	cfg_assign                                   Left, Node, Value
//
// Predicates are never mutated after construction.
type Predicate struct {
	session *Session

	Kind PredicateKind
	// Name is the relation name used in the encoding.
	Name    string
	Left    *Configuration
	Right   *Configuration
	Set     ObservationSet
	Options Options
	Node    string
	Value   int
	Raw     string

	// open allreach predicates await their targets and are not
	// registered.
	open bool
}

var _ Term = &Predicate{}

// Open reports whether the predicate is an allreach still missing its
// targets.
func (p *Predicate) Open() bool { return p.open }

func (p *Predicate) class() string {
	switch p.Kind {
	case KindFixpoint, KindTrapspace:
		return "fixed"
	}
	return p.Kind.String()
}

func (p *Predicate) String() string {
	var args []string
	switch p.Kind {
	case KindAllReach:
		args = append(args, p.Options.String(), p.Left.String())
		if !p.open {
			args = append(args, p.Set.String())
		}
	case KindFixpoint, KindTrapspace:
		args = append(args, p.Left.String())
	case KindAllFixpoints, KindAllAttractors:
		args = append(args, p.Set.String())
	case KindCustom:
		args = append(args, strconv.Quote(p.Raw))
	case KindConstant:
		args = append(args, strconv.Quote(p.Node), strconv.Itoa(p.Value))
	case KindCfgAssign:
		args = append(args, p.Left.String(), strconv.Quote(p.Node), strconv.Itoa(p.Value))
	default:
		args = append(args, p.Left.String(), p.Right.String())
	}
	return p.Name + "(" + strings.Join(args, ", ") + ")"
}

func (p *Predicate) reachLike() bool {
	switch p.Kind {
	case KindReach, KindNonReach, KindFinalNonReach:
		return true
	}
	return false
}

func (p *Predicate) fixed() bool {
	return p.Kind == KindFixpoint || p.Kind == KindTrapspace
}

func (p *Predicate) Reach(right Term) (*Predicate, error) {
	if !p.reachLike() {
		return nil, unsupported(p, opReach)
	}
	return p.session.Reach(p, right)
}

func (p *Predicate) AllReach(right Term) (*Predicate, error) {
	if !p.reachLike() {
		return nil, unsupported(p, opAllReach)
	}
	return p.session.AllReach(p, right)
}

func (p *Predicate) NonReach(right Term) (*Predicate, error) {
	if !p.reachLike() {
		return nil, unsupported(p, opNonReach)
	}
	return p.session.NonReach(p, right)
}

func (p *Predicate) FinalNonReach(right Term) (*Predicate, error) {
	if !p.reachLike() {
		return nil, unsupported(p, opFinalNonReach)
	}
	return p.session.FinalNonReach(p, right)
}

func (p *Predicate) Different(right Term) (*Predicate, error) {
	if !p.fixed() {
		return nil, unsupported(p, opDifferent)
	}
	return p.session.Different(p, right)
}

// WithOptions returns the allreach predicate with its options replaced.
// A registered predicate is re-registered in place with the new options.
// Once replaced, p itself can no longer be changed; call WithOptions on
// the returned predicate instead.
func (p *Predicate) WithOptions(options ...string) (*Predicate, error) {
	if p.Kind != KindAllReach {
		return nil, unsupported(p, "WithOptions")
	}
	if err := checkAllReachOptions(options); err != nil {
		return nil, err
	}
	q := *p
	q.Options = append(Options(nil), options...)
	if q.open {
		return &q, nil
	}
	return p.session.replace(p, &q)
}

// To closes an open allreach predicate with its targets, an Observation
// or an ObservationSet, and registers it.
func (p *Predicate) To(targets Term) (*Predicate, error) {
	if p.Kind != KindAllReach || !p.open {
		return nil, unsupported(p, "To")
	}
	set, err := allReachTargets(targets)
	if err != nil {
		return nil, err
	}
	q := *p
	q.open = false
	q.Set = set
	return p.session.register(&q), nil
}

func typeError(kind PredicateKind, operand Term) error {
	return &bonesis.TypeError{Class: kind.String(), Operand: operand.String()}
}

// reachLeft reduces the left operand of reach-like predicates to a
// configuration.
func reachLeft(kind PredicateKind, t Term) (*Configuration, error) {
	switch v := t.(type) {
	case *Configuration:
		return v, nil
	case *Predicate:
		if v.reachLike() {
			return v.Right, nil
		}
	}
	return nil, typeError(kind, t)
}

// reachRight reduces the right operand of reach-like predicates to a
// configuration.
func reachRight(kind PredicateKind, t Term) (*Configuration, error) {
	switch v := t.(type) {
	case *Configuration:
		return v, nil
	case *Observation:
		return v.Fresh(), nil
	case *Predicate:
		if v.fixed() {
			return v.Left, nil
		}
		if v.reachLike() {
			return v.Right, nil
		}
	}
	return nil, typeError(kind, t)
}

func (s *Session) newPredicate(kind PredicateKind) (*Predicate, error) {
	if !supportsMutations(kind) && s.currentMutant() != nil {
		return nil, &bonesis.TypeError{
			Class: kind.String(),
			Msg:   fmt.Sprintf("cannot use %s in a mutant context", kind),
		}
	}
	return &Predicate{session: s, Kind: kind, Name: kind.String()}, nil
}

func supportsMutations(kind PredicateKind) bool {
	return kind != KindAllFixpoints && kind != KindAllAttractors
}

// Reach declares that left can reach right. Left is a configuration or a
// reach-like predicate, standing for its right operand. Right is a
// configuration, an observation (standing for a fresh configuration
// matching it), a fixed predicate or a reach-like predicate.
func (s *Session) Reach(left, right Term) (*Predicate, error) {
	return s.reach(KindReach, left, right)
}

func (s *Session) reach(kind PredicateKind, left, right Term) (*Predicate, error) {
	l, err := reachLeft(kind, left)
	if err != nil {
		return nil, err
	}
	r, err := reachRight(kind, right)
	if err != nil {
		return nil, err
	}
	p, err := s.newPredicate(kind)
	if err != nil {
		return nil, err
	}
	p.Left, p.Right = l, r
	return s.register(p), nil
}

// NonReach declares that left cannot reach right. Observations are not
// accepted on the right. When right is a fixed predicate the relation is
// recorded as final_nonreach.
func (s *Session) NonReach(left, right Term) (*Predicate, error) {
	if _, ok := right.(*Observation); ok {
		return nil, typeError(KindNonReach, right)
	}
	kind := KindNonReach
	if p, ok := right.(*Predicate); ok && p.fixed() {
		kind = KindFinalNonReach
	}
	return s.reach(kind, left, right)
}

// FinalNonReach declares that left cannot reach the fixed predicate
// right.
func (s *Session) FinalNonReach(left, right Term) (*Predicate, error) {
	if p, ok := right.(*Predicate); !ok || !p.fixed() {
		return nil, typeError(KindFinalNonReach, right)
	}
	return s.NonReach(left, right)
}

func checkAllReachOptions(options []string) error {
	for _, opt := range options {
		if _, ok := AllReachOptions[opt]; !ok {
			return &bonesis.TypeError{
				Class: KindAllReach.String(),
				Msg:   fmt.Sprintf("unsupported option '%s'", opt),
			}
		}
	}
	return nil
}

func allReachTargets(t Term) (ObservationSet, error) {
	switch v := t.(type) {
	case *Observation:
		return ObservationSet{v}, nil
	case ObservationSet:
		for _, o := range v {
			if o == nil {
				return nil, typeError(KindAllReach, t)
			}
		}
		return v.dedup(), nil
	}
	return nil, typeError(KindAllReach, t)
}

// AllReach declares that every attractor reachable from left matches one
// of the right observations. With Options on the right the predicate is
// open: it records the options and waits for its targets through To.
func (s *Session) AllReach(left, right Term) (*Predicate, error) {
	l, err := reachLeft(KindAllReach, left)
	if err != nil {
		return nil, err
	}
	p, err := s.newPredicate(KindAllReach)
	if err != nil {
		return nil, err
	}
	p.Left = l
	p.Options = DefaultAllReachOptions
	if opts, ok := right.(Options); ok {
		if err := checkAllReachOptions(opts); err != nil {
			return nil, err
		}
		p.Options = append(Options(nil), opts...)
		p.open = true
		return p, nil
	}
	if p.Set, err = allReachTargets(right); err != nil {
		return nil, err
	}
	return s.register(p), nil
}

// Different declares that two configurations differ. Fixed operands are
// accepted only for configurations, and stand for them.
func (s *Session) Different(left, right Term) (*Predicate, error) {
	operand := func(t Term) (*Configuration, error) {
		switch v := t.(type) {
		case *Configuration:
			return v, nil
		case *Predicate:
			if v.Kind == KindFixpoint {
				return v.Left, nil
			}
		}
		return nil, typeError(KindDifferent, t)
	}
	l, err := operand(left)
	if err != nil {
		return nil, err
	}
	r, err := operand(right)
	if err != nil {
		return nil, err
	}
	p, err := s.newPredicate(KindDifferent)
	if err != nil {
		return nil, err
	}
	p.Left, p.Right = l, r
	return s.register(p), nil
}

// Fixed declares a configuration to be a fixed point, or an observation
// to be matched by a trap space, through a fresh configuration.
func (s *Session) Fixed(t Term) (*Predicate, error) {
	var kind PredicateKind
	var cfg *Configuration
	switch v := t.(type) {
	case *Configuration:
		kind, cfg = KindFixpoint, v
	case *Observation:
		kind = KindTrapspace
	default:
		return nil, &bonesis.TypeError{Class: "fixed", Operand: t.String()}
	}
	p, err := s.newPredicate(kind)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = t.(*Observation).Fresh()
	}
	p.Left, p.Right = cfg, cfg
	return s.register(p), nil
}

func (s *Session) allAttractors(kind PredicateKind, t Term) (*Predicate, error) {
	var set ObservationSet
	switch v := t.(type) {
	case *Observation:
		set = ObservationSet{v}
	case ObservationSet:
		for _, o := range v {
			if o == nil {
				return nil, typeError(kind, t)
			}
		}
		set = v.dedup()
	default:
		return nil, typeError(kind, t)
	}
	p, err := s.newPredicate(kind)
	if err != nil {
		return nil, err
	}
	p.Set = set
	return s.register(p), nil
}

// AllFixpoints declares that the fixed points of the network are exactly
// matched by the given observations. Not available in mutant scopes.
func (s *Session) AllFixpoints(t Term) (*Predicate, error) {
	return s.allAttractors(KindAllFixpoints, t)
}

// AllAttractors is AllFixpoints for every attractor.
func (s *Session) AllAttractors(t Term) (*Predicate, error) {
	return s.allAttractors(KindAllAttractors, t)
}

// Custom registers a raw fact passed verbatim to the encoding.
func (s *Session) Custom(raw string) (*Predicate, error) {
	p, err := s.newPredicate(KindCustom)
	if err != nil {
		return nil, err
	}
	p.Raw = raw
	return s.register(p), nil
}

// Constant forces the formula of node to be the given constant.
func (s *Session) Constant(node string, value bool) (*Predicate, error) {
	if err := s.AssertNodeExists(node); err != nil {
		return nil, err
	}
	p, err := s.newPredicate(KindConstant)
	if err != nil {
		return nil, err
	}
	p.Node = node
	if value {
		p.Value = 1
	}
	return s.register(p), nil
}
