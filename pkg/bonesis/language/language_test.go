package language_test

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
	"github.com/bonesis-go/bonesis/pkg/bonesis/language"
)

func TestLanguage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Language Suite")
}

func newSession() *language.Session {
	ig, err := domain.FromEdges([]domain.Edge{
		{Source: "A", Target: "B", Sign: domain.Positive},
		{Source: "B", Target: "A", Sign: domain.Negative},
	})
	Expect(err).ToNot(HaveOccurred())
	s, err := language.NewSession(ig)
	Expect(err).ToNot(HaveOccurred())
	return s
}

func isTypeError(err error) bool {
	return errors.Is(err, bonesis.ErrType)
}

var _ = Describe("Session", func() {
	var s *language.Session

	BeforeEach(func() {
		s = newSession()
	})

	It("registers observations once", func() {
		o := s.Observation("o")
		Expect(s.Observation("o")).To(BeIdenticalTo(o))
		Expect(s.Observations()).To(HaveLen(1))
	})

	It("loads observation data and validates nodes", func() {
		ig, _ := domain.FromEdges([]domain.Edge{{Source: "A", Target: "A", Sign: domain.Positive}})
		s, err := language.NewSession(ig, language.WithObservationData(map[string]map[string]bool{
			"o": {"A": true},
		}))
		Expect(err).ToNot(HaveOccurred())
		Expect(s.Observation("o").Data()).To(Equal(map[string]bool{"A": true}))

		_, err = language.NewSession(ig, language.WithObservationData(map[string]map[string]bool{
			"o": {"Z": true},
		}))
		Expect(errors.Is(err, bonesis.ErrLookup)).To(BeTrue())
	})

	It("deduplicates named configurations and numbers anonymous ones", func() {
		x := s.Configuration("x")
		Expect(s.Configuration("x")).To(BeIdenticalTo(x))
		Expect(s.Configuration("").ID()).To(Equal("_cfg1"))
		Expect(s.Configuration("").ID()).To(Equal("_cfg2"))
		Expect(s.Configurations()).To(HaveLen(3))
	})

	It("binds observation configurations", func() {
		o := s.Observation("o")
		exact := o.Exact()
		Expect(exact.ID()).To(Equal("o"))
		Expect(exact.Observation()).To(BeIdenticalTo(o))
		Expect(o.Exact()).To(BeIdenticalTo(exact))
		fresh := o.Fresh()
		Expect(fresh).ToNot(BeIdenticalTo(exact))
		Expect(fresh.Name()).To(BeEmpty())
		Expect(fresh.Observation()).To(BeIdenticalTo(o))
	})

	Describe("assignments", func() {
		It("stores booleans as 0/1", func() {
			x := s.Configuration("x")
			Expect(x.Set("A", true)).To(Succeed())
			Expect(x.Set("B", 0)).To(Succeed())
			ps := s.Predicates()
			Expect(ps).To(HaveLen(2))
			Expect(ps[0].Kind).To(Equal(language.KindCfgAssign))
			Expect(ps[0].Value).To(Equal(1))
			Expect(ps[1].Value).To(Equal(0))
		})

		It("rejects integers other than 0/1", func() {
			err := s.Configuration("x").Set("A", 2)
			Expect(isTypeError(err)).To(BeTrue())
			Expect(s.Predicates()).To(BeEmpty())
		})

		It("rejects other types", func() {
			Expect(isTypeError(s.Configuration("x").Set("A", "1"))).To(BeTrue())
		})

		It("rejects unknown nodes", func() {
			err := s.Configuration("x").Set("Z", true)
			Expect(errors.Is(err, bonesis.ErrLookup)).To(BeTrue())
		})
	})

	It("checks constant nodes eagerly", func() {
		_, err := s.Constant("Z", false)
		Expect(errors.Is(err, bonesis.ErrLookup)).To(BeTrue())
		p, err := s.Constant("A", false)
		Expect(err).ToNot(HaveOccurred())
		Expect(p.String()).To(Equal(`constant("A", 0)`))
	})

	It("keeps optimizations in registration order", func() {
		s.MaximizeNodes()
		s.Optimize(language.Minimize, language.Constants)
		s.MaximizeStrongConstants()
		Expect(s.Optimizations()).To(Equal([]language.Optimization{
			{Goal: language.Maximize, Criterion: language.Nodes},
			{Goal: language.Minimize, Criterion: language.Constants},
			{Goal: language.Maximize, Criterion: language.StrongConstants},
		}))
	})
})

var _ = Describe("Predicates", func() {
	var (
		s    *language.Session
		x, y *language.Configuration
		o    *language.Observation
	)

	BeforeEach(func() {
		s = newSession()
		x, y = s.Configuration("x"), s.Configuration("y")
		o = s.Observation("o")
	})

	Describe("fixed", func() {
		It("tags configurations as fixpoints", func() {
			p, err := s.Fixed(x)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Name).To(Equal("fixpoint"))
			Expect(p.Left).To(BeIdenticalTo(x))
		})

		It("rewrites observations to a trapspace on a fresh configuration", func() {
			p, err := s.Fixed(o)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Name).To(Equal("trapspace"))
			Expect(p.Left.Observation()).To(BeIdenticalTo(o))
			Expect(p.Left.Name()).To(BeEmpty())
		})

		It("rejects other operands", func() {
			_, err := s.Fixed(language.ObservationSet{o})
			Expect(isTypeError(err)).To(BeTrue())
		})
	})

	Describe("different", func() {
		It("unwraps fixpoints", func() {
			fx, err := s.Fixed(x)
			Expect(err).ToNot(HaveOccurred())
			fy, err := s.Fixed(y)
			Expect(err).ToNot(HaveOccurred())
			p, err := fx.Different(fy)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Left).To(BeIdenticalTo(x))
			Expect(p.Right).To(BeIdenticalTo(y))
		})

		It("rejects trapspaces on either side", func() {
			fx, _ := s.Fixed(x)
			fo, _ := s.Fixed(o)
			n := len(s.Predicates())
			_, err := fx.Different(fo)
			Expect(isTypeError(err)).To(BeTrue())
			_, err = fo.Different(fx)
			Expect(isTypeError(err)).To(BeTrue())
			Expect(s.Predicates()).To(HaveLen(n))
		})

		It("rejects observations", func() {
			_, err := x.Different(o)
			Expect(isTypeError(err)).To(BeTrue())
		})
	})

	Describe("reach", func() {
		It("rewrites observations to fresh configurations", func() {
			p, err := x.Reach(o)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Left).To(BeIdenticalTo(x))
			Expect(p.Right.Observation()).To(BeIdenticalTo(o))
			Expect(p.Right).ToNot(BeIdenticalTo(o.Exact()))
		})

		It("chains through reach predicates", func() {
			p, err := x.Reach(y)
			Expect(err).ToNot(HaveOccurred())
			z := s.Configuration("z")
			q, err := p.Reach(z)
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Left).To(BeIdenticalTo(y))
			Expect(q.Right).To(BeIdenticalTo(z))

			r, err := z.Reach(p)
			Expect(err).ToNot(HaveOccurred())
			Expect(r.Right).To(BeIdenticalTo(y))
		})

		It("accepts fixed operands on the right", func() {
			fy, _ := s.Fixed(y)
			p, err := x.Reach(fy)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Right).To(BeIdenticalTo(y))
		})

		It("is not wired on observations", func() {
			_, err := o.Reach(x)
			Expect(isTypeError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("'Observation' objects do not support 'Reach' operator"))
		})

		It("is not wired on fixed predicates", func() {
			fx, _ := s.Fixed(x)
			_, err := fx.Reach(y)
			Expect(err).To(MatchError("'fixed' objects do not support 'Reach' operator"))
		})
	})

	Describe("nonreach", func() {
		It("rejects observations on the right", func() {
			n := len(s.Configurations())
			_, err := x.NonReach(o)
			Expect(isTypeError(err)).To(BeTrue())
			Expect(s.Configurations()).To(HaveLen(n))
		})

		It("becomes final_nonreach on fixed operands", func() {
			fy, _ := s.Fixed(y)
			p, err := x.NonReach(fy)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Name).To(Equal("final_nonreach"))
			Expect(p.Kind).To(Equal(language.KindFinalNonReach))

			p, err = x.NonReach(y)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Name).To(Equal("nonreach"))
		})

		It("requires fixed operands for final_nonreach", func() {
			_, err := x.FinalNonReach(y)
			Expect(isTypeError(err)).To(BeTrue())
		})
	})

	Describe("allreach", func() {
		It("registers with default options", func() {
			p, err := x.AllReach(o)
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Options).To(Equal(language.Options{"attractors_contain"}))
			Expect(p.Set).To(Equal(language.ObservationSet{o}))
			Expect(s.Predicates()).To(ConsistOf(p))
		})

		It("re-registers with new options", func() {
			o2 := s.Observation("o2")
			p, err := x.AllReach(language.ObservationSet{o, o2, o})
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Set).To(HaveLen(2))

			q, err := p.WithOptions("fixpoints")
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Options).To(Equal(language.Options{"fixpoints"}))
			Expect(s.Predicates()).To(ConsistOf(q))
		})

		It("rejects options on a replaced predicate", func() {
			p, err := x.AllReach(o)
			Expect(err).ToNot(HaveOccurred())
			q, err := p.WithOptions("fixpoints")
			Expect(err).ToNot(HaveOccurred())

			_, err = p.WithOptions("attractors_contain")
			Expect(isTypeError(err)).To(BeTrue())
			Expect(s.Predicates()).To(ConsistOf(q))

			r, err := q.WithOptions("attractors_contain")
			Expect(err).ToNot(HaveOccurred())
			Expect(s.Predicates()).To(ConsistOf(r))
		})

		It("rejects unsupported options", func() {
			p, err := x.AllReach(o)
			Expect(err).ToNot(HaveOccurred())
			_, err = p.WithOptions("fixpoint")
			Expect(isTypeError(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("unsupported option 'fixpoint'"))
			Expect(s.Predicates()).To(ConsistOf(p))
		})

		It("defers registration of open predicates", func() {
			p, err := x.AllReach(language.Options{"fixpoints"})
			Expect(err).ToNot(HaveOccurred())
			Expect(p.Open()).To(BeTrue())
			Expect(s.Predicates()).To(BeEmpty())

			q, err := p.To(o)
			Expect(err).ToNot(HaveOccurred())
			Expect(q.Open()).To(BeFalse())
			Expect(q.Options).To(Equal(language.Options{"fixpoints"}))
			Expect(s.Predicates()).To(ConsistOf(q))

			_, err = q.To(o)
			Expect(isTypeError(err)).To(BeTrue())
		})

		It("rejects configurations on the right", func() {
			_, err := x.AllReach(y)
			Expect(isTypeError(err)).To(BeTrue())
		})
	})

	It("accepts collections for all_fixpoints", func() {
		p, err := s.AllFixpoints(language.ObservationSet{o})
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Name).To(Equal("all_fixpoints"))
		_, err = s.AllAttractors(x)
		Expect(isTypeError(err)).To(BeTrue())
	})

	It("passes custom facts verbatim", func() {
		p, err := s.Custom("foo(1)")
		Expect(err).ToNot(HaveOccurred())
		Expect(p.Raw).To(Equal("foo(1)"))
	})
})

var _ = Describe("Mutant scopes", func() {
	var s *language.Session

	BeforeEach(func() {
		s = newSession()
	})

	It("restores the enclosing scope in reverse order", func() {
		x := s.Configuration("x")
		Expect(s.Mutations()).To(BeNil())

		outer, err := s.Mutant(map[string]bool{"A": true})
		Expect(err).ToNot(HaveOccurred())
		xm := s.Configuration("x")
		Expect(xm).ToNot(BeIdenticalTo(x))
		Expect(xm.ID()).To(Equal("x@m1"))
		Expect(xm.Mutant()).To(BeIdenticalTo(outer.Mutant()))

		inner, err := s.Mutant(map[string]bool{"A": false, "B": false})
		Expect(err).ToNot(HaveOccurred())
		Expect(s.Mutations()).To(Equal(map[string]bool{"A": false, "B": false}))
		Expect(s.Configuration("x").ID()).To(Equal("x@m2"))

		Expect(outer.Close()).ToNot(Succeed())
		Expect(inner.Close()).To(Succeed())
		Expect(s.Mutations()).To(Equal(map[string]bool{"A": true}))
		Expect(s.Configuration("x")).To(BeIdenticalTo(xm))

		Expect(outer.Close()).To(Succeed())
		Expect(s.Mutations()).To(BeNil())
		Expect(s.Configuration("x")).To(BeIdenticalTo(x))
		Expect(outer.Close()).ToNot(Succeed())
		Expect(s.Mutants()).To(HaveLen(2))
	})

	It("closes the scope when the body fails", func() {
		boom := errors.New("boom")
		err := s.WithMutant(map[string]bool{"B": true}, func() error {
			Expect(s.Mutations()).To(HaveKey("B"))
			return boom
		})
		Expect(err).To(MatchError(boom))
		Expect(s.Mutations()).To(BeNil())
	})

	It("rejects unknown nodes", func() {
		_, err := s.Mutant(map[string]bool{"Z": true})
		Expect(errors.Is(err, bonesis.ErrLookup)).To(BeTrue())
		Expect(s.Mutants()).To(BeEmpty())
	})

	It("forbids all_fixpoints and all_attractors", func() {
		o := s.Observation("o")
		err := s.WithMutant(map[string]bool{"A": true}, func() error {
			_, err := s.AllFixpoints(o)
			return err
		})
		Expect(isTypeError(err)).To(BeTrue())

		_, err = s.AllFixpoints(o)
		Expect(err).ToNot(HaveOccurred())
	})
})
