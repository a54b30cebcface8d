// Package language implements the modeling vocabulary of a synthesis
// problem: configurations, observations, predicates over them and
// optimization directives, all recorded into a Session bound to a domain.
package language

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
)

type sessionOptions struct {
	logger *logrus.Entry
	data   map[string]map[string]bool
}

// Option configures a Session.
type Option func(*sessionOptions)

// WithLogger sets the logger of the session.
func WithLogger(logger *logrus.Entry) Option {
	return func(o *sessionOptions) {
		o.logger = logger
	}
}

// WithObservationData provides the partial assignments of observations,
// keyed by observation name then node.
func WithObservationData(data map[string]map[string]bool) Option {
	return func(o *sessionOptions) {
		o.data = data
	}
}

var defaults = []Option{
	func(o *sessionOptions) {
		if o.logger == nil {
			o.logger = logrus.NewEntry(logrus.New())
		}
	},
}

// Session owns every term declared for one synthesis problem. It is not
// safe for concurrent use.
type Session struct {
	domain domain.Domain
	logger *logrus.Entry

	configurations []*Configuration
	named          map[namedKey]*Configuration
	anonymous      int

	observations []*Observation
	obsByName    map[string]*Observation

	predicates    []*Predicate
	optimizations []Optimization

	mutants []*Mutant
	scopes  []*MutantScope
}

type namedKey struct {
	mutant *Mutant
	name   string
}

// NewSession returns an empty session bound to dom.
func NewSession(dom domain.Domain, options ...Option) (*Session, error) {
	var o sessionOptions
	for _, option := range append(options, defaults...) {
		option(&o)
	}
	s := &Session{
		domain:    dom,
		logger:    o.logger,
		named:     map[namedKey]*Configuration{},
		obsByName: map[string]*Observation{},
	}
	names := make([]string, 0, len(o.data))
	for name := range o.data {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		obs := s.Observation(name)
		for node, value := range o.data[name] {
			if err := obs.Assign(node, value); err != nil {
				return nil, fmt.Errorf("observation %q: %w", name, err)
			}
		}
	}
	return s, nil
}

// Domain returns the domain the session is bound to.
func (s *Session) Domain() domain.Domain {
	return s.domain
}

// AssertNodeExists returns a bonesis.NodeNotFound error if node is not
// part of the domain.
func (s *Session) AssertNodeExists(node string) error {
	if !s.domain.HasNode(node) {
		return bonesis.NodeNotFound(node)
	}
	return nil
}

// Configurations returns the registered configurations in registration
// order.
func (s *Session) Configurations() []*Configuration {
	return append([]*Configuration(nil), s.configurations...)
}

// Observations returns the registered observations in registration order.
func (s *Session) Observations() []*Observation {
	return append([]*Observation(nil), s.observations...)
}

// Predicates returns the registered predicates in registration order.
func (s *Session) Predicates() []*Predicate {
	return append([]*Predicate(nil), s.predicates...)
}

// Optimizations returns the optimization directives, highest priority
// first.
func (s *Session) Optimizations() []Optimization {
	return append([]Optimization(nil), s.optimizations...)
}

// Mutants returns every mutant frame opened during the session, in
// opening order.
func (s *Session) Mutants() []*Mutant {
	return append([]*Mutant(nil), s.mutants...)
}

// Configuration returns the configuration named name in the current
// mutant scope, registering it on first use. An empty name always
// registers a new anonymous configuration.
func (s *Session) Configuration(name string) *Configuration {
	return s.configuration(name, nil)
}

func (s *Session) configuration(name string, obs *Observation) *Configuration {
	m := s.currentMutant()
	if name != "" {
		key := namedKey{mutant: m, name: name}
		if cfg, ok := s.named[key]; ok {
			if cfg.obs == nil {
				cfg.obs = obs
			}
			return cfg
		}
	}
	cfg := &Configuration{session: s, name: name, obs: obs, mutant: m}
	if name == "" {
		s.anonymous++
		cfg.id = fmt.Sprintf("_cfg%d", s.anonymous)
	} else {
		cfg.id = name
		if m != nil {
			cfg.id = name + "@" + m.ID
		}
		s.named[namedKey{mutant: m, name: name}] = cfg
	}
	s.configurations = append(s.configurations, cfg)
	s.logger.WithField("configuration", cfg.id).Debug("registered configuration")
	return cfg
}

// Observation returns the observation named name, registering it on
// first use.
func (s *Session) Observation(name string) *Observation {
	if obs, ok := s.obsByName[name]; ok {
		return obs
	}
	obs := &Observation{session: s, name: name, data: map[string]bool{}}
	s.obsByName[name] = obs
	s.observations = append(s.observations, obs)
	s.logger.WithField("observation", name).Debug("registered observation")
	return obs
}

func (s *Session) register(p *Predicate) *Predicate {
	s.predicates = append(s.predicates, p)
	s.logger.WithField("predicate", p.Name).Debugf("registered %s", p)
	return p
}

// replace swaps a registered predicate for another one at the same
// position. old must still be registered.
func (s *Session) replace(old, p *Predicate) (*Predicate, error) {
	for i, q := range s.predicates {
		if q == old {
			s.predicates[i] = p
			s.logger.WithField("predicate", p.Name).Debugf("re-registered %s", p)
			return p, nil
		}
	}
	return nil, &bonesis.TypeError{Msg: fmt.Sprintf("%s is no longer registered", old)}
}
