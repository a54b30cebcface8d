package solver_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
	"github.com/bonesis-go/bonesis/pkg/bonesis/solver"
)

func TestSolver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Solver Suite")
}

// answers replays a fixed list of answers.
type answers struct {
	program []bonesis.Fact
	answers []string
	err     error
}

func (a *answers) Solve(_ context.Context, program []bonesis.Fact) (solver.Enumeration, error) {
	if a.err != nil {
		return nil, a.err
	}
	a.program = program
	return &replay{answers: a.answers}, nil
}

type replay struct {
	answers []string
}

func (r *replay) Next(context.Context) ([]bonesis.Fact, bool, error) {
	if len(r.answers) == 0 {
		return nil, false, nil
	}
	facts, err := bonesis.ParseFacts(r.answers[0])
	r.answers = r.answers[1:]
	return facts, true, err
}

var _ = Describe("Solver", func() {
	var (
		s   *language.Session
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		ig, err := domain.FromEdges([]domain.Edge{{Source: "A", Target: "B", Sign: domain.Positive}})
		Expect(err).ToNot(HaveOccurred())
		s, err = language.NewSession(ig)
		Expect(err).ToNot(HaveOccurred())
	})

	It("passes the encoded session to the engine", func() {
		e := &answers{}
		_, err := solver.Networks(ctx, e, s)
		Expect(err).ToNot(HaveOccurred())
		Expect(bonesis.FormatFacts(e.program)).To(ContainSubstring(`in("A","B",1).`))
	})

	It("decodes every answer", func() {
		e := &answers{answers: []string{
			`constant("A",0). clause("B",1,"A",1).`,
			`constant("A",1). constant("B",0).`,
		}}
		bns, err := solver.BooleanNetworks(ctx, e, s)
		Expect(err).ToNot(HaveOccurred())
		Expect(bns).To(HaveLen(2))
		Expect(bns[0].String()).To(Equal("A, 0\nB, A\n"))
		Expect(bns[1].String()).To(Equal("A, 1\nB, 0\n"))
	})

	It("keeps the raw facts of the last answer", func() {
		e := &answers{answers: []string{`constant("A",1). cfg("x","A",1).`}}
		it, err := solver.Networks(ctx, e, s)
		Expect(err).ToNot(HaveOccurred())
		_, ok, err := it.Next(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(it.Facts()).To(HaveLen(2))
	})

	It("stops at the limit", func() {
		e := &answers{answers: []string{`constant("A",0).`, `constant("A",1).`, `constant("B",1).`}}
		n, err := solver.Count(ctx, e, s, solver.WithLimit(2))
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("reports engine failures", func() {
		e := &answers{err: bonesis.ErrUnsupported}
		_, err := solver.BooleanNetworks(ctx, e, s)
		Expect(errors.Is(err, bonesis.ErrUnsupported)).To(BeTrue())
	})

	It("reports answers it cannot decode", func() {
		e := &answers{answers: []string{`clause("A",1,"B")`}}
		_, err := solver.BooleanNetworks(ctx, e, s)
		Expect(errors.Is(err, bonesis.ErrUnrecognizedFact)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("decoding answer 1"))
	})
})
