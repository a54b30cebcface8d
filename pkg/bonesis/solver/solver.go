// Package solver connects a modeling session to a solving engine and
// decodes the engine's answers into Boolean networks.
package solver

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
	"github.com/bonesis-go/bonesis/pkg/bonesis/encoding"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
)

// ErrIncomplete is returned when an engine stops before it could decide
// whether another answer exists.
var ErrIncomplete = errors.New("solving ended before an answer could be decided")

// Engine solves a program given as facts.
type Engine interface {
	// Solve grounds the program and returns the enumeration of its
	// answers. Relations the engine cannot handle are reported with an
	// error matching bonesis.ErrUnsupported.
	Solve(ctx context.Context, program []bonesis.Fact) (Enumeration, error)
}

// Enumeration is a lazy, finite sequence of answers. It cannot be
// restarted; solve the program again instead.
type Enumeration interface {
	// Next returns the facts of the next answer, or false once the
	// answers are exhausted.
	Next(ctx context.Context) ([]bonesis.Fact, bool, error)
}

type solveOptions struct {
	limit  int
	logger *logrus.Entry
}

func (s *solveOptions) apply(options ...Option) *solveOptions {
	for _, applyOption := range options {
		applyOption(s)
	}
	return s
}

func defaultSolveOptions() *solveOptions {
	return &solveOptions{
		logger: logrus.NewEntry(logrus.New()),
	}
}

type Option func(*solveOptions)

// WithLimit stops the enumeration after n networks; n <= 0 means all.
func WithLimit(n int) Option {
	return func(s *solveOptions) {
		s.limit = n
	}
}

func WithLogger(logger *logrus.Entry) Option {
	return func(s *solveOptions) {
		s.logger = logger
	}
}

// NetworkIterator decodes the answers of an engine one at a time.
type NetworkIterator struct {
	answers Enumeration
	limit   int
	seen    int
	facts   []bonesis.Fact
	logger  *logrus.Entry
}

// Networks encodes the session and starts solving it with e.
func Networks(ctx context.Context, e Engine, s *language.Session, options ...Option) (*NetworkIterator, error) {
	opts := defaultSolveOptions().apply(options...)
	program, err := encoding.Encode(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session: %w", err)
	}
	opts.logger.WithField("facts", len(program)).Debug("solving program")
	answers, err := e.Solve(ctx, program)
	if err != nil {
		return nil, err
	}
	return &NetworkIterator{answers: answers, limit: opts.limit, logger: opts.logger}, nil
}

// Next returns the next network, or false when there are none left or
// the limit is reached.
func (it *NetworkIterator) Next(ctx context.Context) (*domain.BooleanNetwork, bool, error) {
	if it.limit > 0 && it.seen >= it.limit {
		return nil, false, nil
	}
	facts, ok, err := it.answers.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	bn, err := encoding.Decode(facts)
	if err != nil {
		return nil, false, fmt.Errorf("decoding answer %d: %w", it.seen+1, err)
	}
	it.seen++
	it.facts = facts
	return bn, true, nil
}

// Facts returns the raw facts of the last decoded answer.
func (it *NetworkIterator) Facts() []bonesis.Fact {
	return it.facts
}

// BooleanNetworks returns every network of the session, up to the
// configured limit.
func BooleanNetworks(ctx context.Context, e Engine, s *language.Session, options ...Option) ([]*domain.BooleanNetwork, error) {
	it, err := Networks(ctx, e, s, options...)
	if err != nil {
		return nil, err
	}
	var bns []*domain.BooleanNetwork
	for {
		bn, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		bns = append(bns, bn)
	}
	it.logger.WithField("networks", len(bns)).Info("enumeration complete")
	return bns, nil
}

// Count returns the number of networks of the session, up to the
// configured limit.
func Count(ctx context.Context, e Engine, s *language.Session, options ...Option) (int, error) {
	bns, err := BooleanNetworks(ctx, e, s, options...)
	return len(bns), err
}
