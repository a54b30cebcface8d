package language

import "fmt"

type Goal int

const (
	Maximize Goal = iota
	Minimize
)

func (g Goal) String() string {
	switch g {
	case Maximize:
		return "maximize"
	case Minimize:
		return "minimize"
	}
	return fmt.Sprintf("Goal(%d)", int(g))
}

type Criterion int

const (
	// Nodes counts the nodes kept in the network.
	Nodes Criterion = iota
	// Constants counts the nodes with a constant formula.
	Constants
	// StrongConstants counts constant nodes not used as regulator by any other node.
	StrongConstants
)

func (c Criterion) String() string {
	switch c {
	case Nodes:
		return "nodes"
	case Constants:
		return "constants"
	case StrongConstants:
		return "strong_constants"
	}
	return fmt.Sprintf("Criterion(%d)", int(c))
}

// Optimization is an objective of the search. Objectives are ranked by
// registration order.
type Optimization struct {
	Goal      Goal
	Criterion Criterion
}

func (o Optimization) String() string {
	return o.Goal.String() + "_" + o.Criterion.String()
}

// ParseOptimization reads a directive such as "maximize nodes" or
// "maximize_strong_constants".
func ParseOptimization(s string) (Optimization, error) {
	for _, g := range []Goal{Maximize, Minimize} {
		for _, c := range []Criterion{Nodes, Constants, StrongConstants} {
			o := Optimization{Goal: g, Criterion: c}
			if s == o.String() || s == g.String()+" "+c.String() {
				return o, nil
			}
		}
	}
	return Optimization{}, fmt.Errorf("unknown optimization %q", s)
}

// Optimize appends an objective, with lower priority than the ones
// already registered.
func (s *Session) Optimize(goal Goal, criterion Criterion) Optimization {
	o := Optimization{Goal: goal, Criterion: criterion}
	s.optimizations = append(s.optimizations, o)
	s.logger.WithField("optimization", o.String()).Debug("registered optimization")
	return o
}

func (s *Session) MaximizeNodes() Optimization { return s.Optimize(Maximize, Nodes) }

func (s *Session) MaximizeConstants() Optimization { return s.Optimize(Maximize, Constants) }

func (s *Session) MaximizeStrongConstants() Optimization {
	return s.Optimize(Maximize, StrongConstants)
}
