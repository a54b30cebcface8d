package model_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bonesis-go/bonesis/internal/engine"
	"github.com/bonesis-go/bonesis/internal/model"
	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
	"github.com/bonesis-go/bonesis/pkg/bonesis/encoding"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
	"github.com/bonesis-go/bonesis/pkg/bonesis/solver"
)

func TestModel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Model Suite")
}

func compile(src string) (*language.Session, error) {
	doc, err := model.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return doc.Session(".")
}

func encode(s *language.Session) string {
	facts, err := encoding.Encode(s)
	Expect(err).ToNot(HaveOccurred())
	return bonesis.FormatFacts(facts)
}

const edges = `
graph:
  edges:
    - {source: A, target: B, sign: 1}
    - {source: B, target: A, sign: -1}
observations:
  o1: {A: 1}
  o2: {B: 0}
`

var _ = Describe("Model", func() {
	It("compiles every kind of constraint", func() {
		s, err := compile(edges + `
constraints:
  - reach: [x, "+o1"]
  - nonreach: [x, "~o2"]
  - final_nonreach: [y, "fixed(~o2)"]
  - allreach: {from: x, to: [o1, o2], options: [fixpoints]}
  - allreach: {from: y, to: [o1]}
  - constant: {node: A, value: 0}
  - assign: {cfg: x, node: B, value: 1}
  - custom: "myfact(1)."
  - all_fixpoints: [o1]
  - mutant:
      nodes: {A: 1}
      constraints:
        - fixed: z
optimize:
  - maximize constants
`)
		Expect(err).ToNot(HaveOccurred())
		var kinds []string
		for _, p := range s.Predicates() {
			kinds = append(kinds, p.Kind.String())
		}
		Expect(kinds).To(Equal([]string{
			"reach", "nonreach", "fixpoint", "final_nonreach", "allreach", "allreach",
			"constant", "cfg_assign", "custom", "all_fixpoints", "fixpoint",
		}))
		Expect(s.Mutants()).To(HaveLen(1))
		Expect(s.Optimizations()).To(Equal([]language.Optimization{{Goal: language.Maximize, Criterion: language.Constants}}))

		out := encode(s)
		Expect(out).To(ContainSubstring(`allreach((fixpoints,),"x","_s1").`))
		Expect(out).To(ContainSubstring(`cfg_assign("x","B",1).`))
		Expect(out).To(ContainSubstring(`fixpoint("z@m1").`))
		Expect(out).To(ContainSubstring(`myfact(1).`))
	})

	It("makes observations fixed through trap spaces", func() {
		s, err := compile(edges + `
constraints:
  - fixed: obs(o1)
`)
		Expect(err).ToNot(HaveOccurred())
		Expect(s.Predicates()).To(HaveLen(1))
		Expect(s.Predicates()[0].Kind).To(Equal(language.KindTrapspace))
	})

	It("reads graph options", func() {
		s, err := compile(`
graph:
  edges:
    - {source: A, target: B, sign: "?"}
  maxclause: 2
  allow_skipping_nodes: true
  canonic: false
  exact: true
  unsource: true
`)
		Expect(err).ToNot(HaveOccurred())
		ig := s.Domain().(*domain.InfluenceGraph)
		Expect(ig.Options()).To(Equal(domain.Options{MaxClause: 2, AllowSkippingNodes: true, Exact: true}))
		Expect(ig.Edges()).To(ContainElement(domain.Edge{Source: "A", Target: "A", Sign: domain.Positive}))
		Expect(ig.Edges()).To(ContainElement(domain.Edge{Source: "A", Target: "B", Sign: domain.Unknown}))
	})

	It("loads graphs from files relative to the document", func() {
		s, err := model.Load(filepath.Join("testdata", "sif.yaml"))
		Expect(err).ToNot(HaveOccurred())
		Expect(s.Domain().Nodes()).To(Equal([]string{"A", "B", "C"}))
		out := encode(s)
		Expect(out).To(ContainSubstring(`in("C","B",-1).`))
		Expect(out).To(ContainSubstring(`in("C","C",1).`))
		Expect(out).To(ContainSubstring(`fixpoint("o1").`))
		Expect(out).To(ContainSubstring(`optimize(1,maximize,nodes).`))
	})

	It("solves documents over a Boolean network", func() {
		s, err := model.Load(filepath.Join("testdata", "network.yaml"))
		Expect(err).ToNot(HaveOccurred())
		e, err := engine.New()
		Expect(err).ToNot(HaveOccurred())
		bns, err := solver.BooleanNetworks(context.Background(), e, s)
		Expect(err).ToNot(HaveOccurred())
		Expect(bns).To(HaveLen(1))
		Expect(bns[0].String()).To(Equal("A, B\nB, A\n"))
	})

	DescribeTable("rejects invalid documents",
		func(src string, check func(error) bool) {
			_, err := compile(src)
			Expect(err).To(HaveOccurred())
			if check != nil {
				Expect(check(err)).To(BeTrue(), "unexpected error %v", err)
			}
		},
		Entry("without domain", "observations: {}\n", nil),
		Entry("with an unknown field", edges+"extra: 1\n", nil),
		Entry("with an unknown constraint", edges+"constraints:\n  - bogus: x\n", nil),
		Entry("with a multi-key constraint", edges+"constraints:\n  - {reach: [x, y], fixed: x}\n", nil),
		Entry("with a bad observation value", `
graph:
  edges: [{source: A, target: A, sign: 1}]
observations:
  o: {A: 2}
`, func(err error) bool { return errors.Is(err, bonesis.ErrValue) }),
		Entry("with an unknown node", edges+"constraints:\n  - constant: {node: Z, value: 1}\n",
			func(err error) bool { return errors.Is(err, bonesis.ErrLookup) }),
		Entry("with an invalid operand", edges+`constraints:
  - nonreach: [x, "obs(o1)"]
`, func(err error) bool { return errors.Is(err, bonesis.ErrType) }),
		Entry("with an unknown optimization", edges+"optimize: [maximize edges]\n", nil),
		Entry("with a bad sign", "graph:\n  edges: [{source: A, target: B, sign: 3}]\n",
			func(err error) bool { return errors.Is(err, bonesis.ErrValue) }),
	)
})
