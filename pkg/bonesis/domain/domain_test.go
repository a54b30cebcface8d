package domain_test

import (
	"archive/zip"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
	"github.com/bonesis-go/bonesis/pkg/bonesis/domain"
	"github.com/bonesis-go/bonesis/pkg/bonesis/formula"
)

func TestDomain(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Domain Suite")
}

var _ = Describe("SignOfLabel", func() {
	DescribeTable("known labels",
		func(label interface{}, expected domain.Sign) {
			s, err := domain.SignOfLabel(label)
			Expect(err).ToNot(HaveOccurred())
			Expect(s).To(Equal(expected))
		},
		Entry("int 1", 1, domain.Positive),
		Entry("int -1", -1, domain.Negative),
		Entry("int 0", 0, domain.Unknown),
		Entry("arrow", "->", domain.Positive),
		Entry("bar", "-|", domain.Negative),
		Entry("plus", "+", domain.Positive),
		Entry("minus one", "-1", domain.Negative),
		Entry("ukn", "ukn", domain.Unknown),
		Entry("unspecified", "unspecified", domain.Unknown),
		Entry("activation", "Activation", domain.Positive),
		Entry("stimulates", "stimulates", domain.Positive),
		Entry("inhibition", "INHIBITION", domain.Negative),
	)

	It("rejects unknown labels with a value error naming the label", func() {
		_, err := domain.SignOfLabel("binds")
		Expect(errors.Is(err, bonesis.ErrValue)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("'binds'"))

		_, err = domain.SignOfLabel(2)
		Expect(errors.Is(err, bonesis.ErrValue)).To(BeTrue())
	})
})

var _ = Describe("InfluenceGraph", func() {
	var ig *domain.InfluenceGraph

	BeforeEach(func() {
		var err error
		ig, err = domain.FromEdges([]domain.Edge{
			{Source: "A", Target: "B", Sign: domain.Positive},
			{Source: "C", Target: "B", Sign: domain.Negative},
			{Source: "C", Target: "B", Sign: domain.Positive},
			{Source: "B", Target: "C", Sign: domain.Unknown},
		}, domain.WithMaxClause(4), domain.WithExact(true))
		Expect(err).ToNot(HaveOccurred())
	})

	It("counts parallel edges in the in-degree", func() {
		Expect(ig.Nodes()).To(Equal([]string{"A", "B", "C"}))
		Expect(ig.InDegree("B")).To(Equal(3))
		Expect(ig.InDegree("A")).To(Equal(0))
		Expect(ig.MaxInDegree()).To(Equal(3))
		Expect(ig.Regulators("B")).To(Equal([]string{"A", "C"}))
	})

	It("self-regulates sources", func() {
		Expect(ig.Sources()).To(Equal([]string{"A"}))
		ig.MakeSelfRegulated()
		Expect(ig.Sources()).To(BeEmpty())
		Expect(ig.Edges()).To(ContainElement(domain.Edge{Source: "A", Target: "A", Sign: domain.Positive}))
	})

	It("keeps the options on subgraphs", func() {
		sub := ig.Subgraph("B", "C", "Z")
		Expect(sub.Nodes()).To(Equal([]string{"B", "C"}))
		Expect(sub.Edges()).To(HaveLen(3))
		Expect(sub.Options()).To(Equal(domain.Options{MaxClause: 4, Canonic: true, Exact: true}))
	})

	It("defaults to canonic encodings", func() {
		Expect(domain.NewInfluenceGraph().Options()).To(Equal(domain.Options{Canonic: true}))
	})
})

var _ = Describe("Loaders", func() {
	It("reads SIF and unsources", func() {
		ig, err := domain.ReadSIF(strings.NewReader("A -> B\nB -| C\n\nC ukn A\nD act B\n"), false)
		Expect(err).ToNot(HaveOccurred())
		Expect(ig.Nodes()).To(Equal([]string{"A", "B", "C", "D"}))
		Expect(ig.InDegree("D")).To(Equal(1))
		Expect(ig.Edges()[1]).To(Equal(domain.Edge{Source: "B", Target: "C", Sign: domain.Negative}))
	})

	It("reports malformed SIF labels with their line", func() {
		_, err := domain.ReadSIF(strings.NewReader("A -> B\nB ?? C\n"), true)
		Expect(errors.Is(err, bonesis.ErrValue)).To(BeTrue())
		Expect(err.Error()).To(HavePrefix("line 2"))
	})

	It("reads CSV by header name", func() {
		src := "sign;to;from\n+;B;A\n-;A;B\n"
		ig, err := domain.ReadCSV(strings.NewReader(src), domain.CSVOptions{
			Source:    domain.Column{Name: "from"},
			Target:    domain.Column{Name: "to"},
			Sign:      domain.Column{Name: "sign"},
			Separator: ';',
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(ig.Edges()).To(Equal([]domain.Edge{
			{Source: "A", Target: "B", Sign: domain.Positive},
			{Source: "B", Target: "A", Sign: domain.Negative},
		}))
	})

	It("fills unset CSV columns around the selected ones", func() {
		ig, err := domain.ReadCSV(strings.NewReader("s,t,sign\nA,B,-1\n"), domain.CSVOptions{
			Sign:        domain.Column{Name: "sign"},
			KeepSources: true,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(ig.Edges()).To(Equal([]domain.Edge{{Source: "A", Target: "B", Sign: domain.Negative}}))

		ig, err = domain.ReadCSV(strings.NewReader("t,s,l\nB,A,1\n"), domain.CSVOptions{
			Source:      domain.Column{Index: 1},
			KeepSources: true,
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(ig.Edges()).To(Equal([]domain.Edge{{Source: "A", Target: "B", Sign: domain.Positive}}))
	})

	It("reads CSV by position", func() {
		ig, err := domain.ReadCSV(strings.NewReader("s,t,l\nA,B,1\n"), domain.CSVOptions{})
		Expect(err).ToNot(HaveOccurred())
		Expect(ig.Sources()).To(BeEmpty())
		Expect(ig.InDegree("A")).To(Equal(1))
	})
})

var _ = Describe("Generators", func() {
	It("builds complete graphs", func() {
		ig, err := domain.Complete(3, domain.Unknown, true)
		Expect(err).ToNot(HaveOccurred())
		Expect(ig.Edges()).To(HaveLen(9))
		ig, err = domain.Complete(3, domain.Positive, false)
		Expect(err).ToNot(HaveOccurred())
		Expect(ig.Edges()).To(HaveLen(6))
	})

	It("builds all-on-one graphs", func() {
		ig, err := domain.AllOnOne(4, domain.Positive)
		Expect(err).ToNot(HaveOccurred())
		Expect(ig.InDegree("0")).To(Equal(4))
		Expect(ig.Sources()).To(Equal([]string{"1", "2", "3"}))
	})

	It("builds scale-free graphs without sources", func() {
		ig := domain.ScaleFree(20, 0.6, rand.New(rand.NewSource(1)))
		Expect(ig.Nodes()).To(HaveLen(20))
		Expect(ig.Sources()).To(BeEmpty())
		for _, e := range ig.Edges() {
			Expect(e.Sign).ToNot(Equal(domain.Unknown))
		}
	})
})

var _ = Describe("BooleanNetwork", func() {
	It("normalises formulas", func() {
		bn := domain.NewBooleanNetwork()
		f, err := formula.Parse("a & (b | c)")
		Expect(err).ToNot(HaveOccurred())
		Expect(bn.Set("x", f)).To(Succeed())
		got, ok := bn.Get("x")
		Expect(ok).To(BeTrue())
		Expect(got.String()).To(Equal("a & b | a & c"))
	})

	It("rejects non-monotone formulas", func() {
		bn := domain.NewBooleanNetwork()
		f, err := formula.Parse("a & !b | b & !a")
		Expect(err).ToNot(HaveOccurred())
		err = bn.Set("x", f)
		Expect(errors.Is(err, bonesis.ErrStructural)).To(BeTrue())
		var merr *bonesis.MonotonicityError
		Expect(errors.As(err, &merr)).To(BeTrue())
		Expect(merr.Node).To(Equal("x"))
		Expect(bn.HasNode("x")).To(BeFalse())
	})

	It("reads and writes bnet", func() {
		bn, err := domain.ReadBNet(strings.NewReader("targets, factors\n# comment\nB, A & !C\nA, 1\nC, B\n"))
		Expect(err).ToNot(HaveOccurred())
		Expect(bn.String()).To(Equal("A, 1\nB, A & !C\nC, B\n"))
		Expect(bn.Influences()).To(Equal([]domain.Edge{
			{Source: "A", Target: "B", Sign: domain.Positive},
			{Source: "C", Target: "B", Sign: domain.Negative},
			{Source: "B", Target: "C", Sign: domain.Positive},
		}))
	})
})

var _ = Describe("Ensemble", func() {
	It("loads .bnet entries from a zip archive", func() {
		filename := filepath.Join(GinkgoT().TempDir(), "ensemble.zip")
		f, err := os.Create(filename)
		Expect(err).ToNot(HaveOccurred())
		zw := zip.NewWriter(f)
		for name, content := range map[string]string{
			"one.bnet":   "A, B\nB, A\n",
			"two.BNET":   "A, !B\nB, A\n",
			"readme.txt": "not a network",
		} {
			w, err := zw.Create(name)
			Expect(err).ToNot(HaveOccurred())
			_, err = w.Write([]byte(content))
			Expect(err).ToNot(HaveOccurred())
		}
		Expect(zw.Close()).To(Succeed())
		Expect(f.Close()).To(Succeed())

		ens, err := domain.LoadEnsembleZip(filename)
		Expect(err).ToNot(HaveOccurred())
		Expect(ens).To(HaveLen(2))

		ig := ens.InfluenceGraph()
		Expect(ig.InDegree("A")).To(Equal(2))
		Expect(ig.InDegree("B")).To(Equal(1))
	})
})
