package language

import (
	"fmt"
	"sort"
)

// Mutant is a set of node overrides under which configurations are
// evaluated. Nested scopes produce a mutant holding the overrides of
// every enclosing scope, inner values first.
type Mutant struct {
	ID        string
	Overrides map[string]bool
}

// Nodes returns the overridden nodes in sorted order.
func (m *Mutant) Nodes() []string {
	nodes := make([]string, 0, len(m.Overrides))
	for n := range m.Overrides {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// MutantScope is an open mutant frame of a Session. Terms declared while
// the scope is the innermost one live in its mutant.
type MutantScope struct {
	session *Session
	mutant  *Mutant
	closed  bool
}

// Mutant returns the mutant of the scope.
func (m *MutantScope) Mutant() *Mutant { return m.mutant }

// Mutant opens a scope where the given nodes are locked to the given
// values. Scopes must be closed in reverse order of opening.
func (s *Session) Mutant(overrides map[string]bool) (*MutantScope, error) {
	merged := map[string]bool{}
	if outer := s.currentMutant(); outer != nil {
		for n, v := range outer.Overrides {
			merged[n] = v
		}
	}
	nodes := make([]string, 0, len(overrides))
	for n := range overrides {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	for _, n := range nodes {
		if err := s.AssertNodeExists(n); err != nil {
			return nil, err
		}
		merged[n] = overrides[n]
	}
	m := &Mutant{ID: fmt.Sprintf("m%d", len(s.mutants)+1), Overrides: merged}
	s.mutants = append(s.mutants, m)
	scope := &MutantScope{session: s, mutant: m}
	s.scopes = append(s.scopes, scope)
	s.logger.WithField("mutant", m.ID).Debugf("entered mutant scope %v", merged)
	return scope, nil
}

// Close leaves the scope. Closing a scope that is not the innermost open
// one is an error and leaves the session unchanged.
func (m *MutantScope) Close() error {
	s := m.session
	if m.closed {
		return fmt.Errorf("mutant scope %s already closed", m.mutant.ID)
	}
	if top := len(s.scopes) - 1; top < 0 || s.scopes[top] != m {
		return fmt.Errorf("mutant scope %s is not the innermost scope", m.mutant.ID)
	}
	s.scopes[len(s.scopes)-1] = nil
	s.scopes = s.scopes[:len(s.scopes)-1]
	m.closed = true
	s.logger.WithField("mutant", m.mutant.ID).Debug("left mutant scope")
	return nil
}

// WithMutant runs fn inside a mutant scope. The scope is closed when fn
// returns, even if it panics.
func (s *Session) WithMutant(overrides map[string]bool, fn func() error) (err error) {
	scope, err := s.Mutant(overrides)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := scope.Close(); err == nil {
			err = cerr
		}
	}()
	return fn()
}

// Mutations returns the overrides of the innermost open scope, or nil
// outside of any mutant scope.
func (s *Session) Mutations() map[string]bool {
	m := s.currentMutant()
	if m == nil {
		return nil
	}
	out := make(map[string]bool, len(m.Overrides))
	for n, v := range m.Overrides {
		out[n] = v
	}
	return out
}

func (s *Session) currentMutant() *Mutant {
	if len(s.scopes) == 0 {
		return nil
	}
	return s.scopes[len(s.scopes)-1].mutant
}
