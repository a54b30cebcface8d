package bonesis_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bonesis-go/bonesis/pkg/bonesis"
)

func TestFactString(t *testing.T) {
	type tcase struct {
		Name     string
		Fact     bonesis.Fact
		Expected string
	}

	for _, tt := range []tcase{
		{
			Name:     "zero arity",
			Fact:     bonesis.NewFact("canonic"),
			Expected: "canonic",
		},
		{
			Name:     "mixed arguments",
			Fact:     bonesis.NewFact("in", bonesis.String("A"), bonesis.String("B"), bonesis.Number(-1)),
			Expected: `in("A","B",-1)`,
		},
		{
			Name:     "pool",
			Fact:     bonesis.NewFact("in", bonesis.String("A"), bonesis.String("B"), bonesis.Pool{bonesis.Number(-1), bonesis.Number(1)}),
			Expected: `in("A","B",(-1;1))`,
		},
		{
			Name:     "one tuple",
			Fact:     bonesis.NewFact("allreach", bonesis.Tuple{bonesis.Symbol("fixpoints")}, bonesis.String("x")),
			Expected: `allreach((fixpoints,),"x")`,
		},
		{
			Name:     "choice",
			Fact:     bonesis.Fact{Name: "node", Args: []bonesis.Term{bonesis.String("A")}, Choice: true},
			Expected: `{node("A")}`,
		},
		{
			Name:     "rule",
			Fact:     bonesis.Fact{Name: "nbnode", Args: []bonesis.Term{bonesis.Symbol("NB")}, Body: "NB = #count{N: node(N)}"},
			Expected: "nbnode(NB) :- NB = #count{N: node(N)}",
		},
	} {
		t.Run(tt.Name, func(t *testing.T) {
			assert.Equal(t, tt.Expected, tt.Fact.String())
		})
	}
}

func TestFormatFacts(t *testing.T) {
	assert.Equal(t, "", bonesis.FormatFacts(nil))
	assert.Equal(t, "a.\nb(1).", bonesis.FormatFacts([]bonesis.Fact{
		bonesis.NewFact("a"),
		bonesis.NewFact("b", bonesis.Number(1)),
	}))
	assert.Equal(t, "a :- b.\n:- not c. d.\ne.", bonesis.FormatFacts([]bonesis.Fact{
		{Raw: "a :- b."},
		{Raw: " :- not c. d. "},
		bonesis.NewFact("e"),
	}))
}

func TestParseFacts(t *testing.T) {
	facts, err := bonesis.ParseFacts(`node("A"). in("A","B",(-1;1)) allreach((fixpoints,attractors_contain),x,"_s1").`)
	require.NoError(t, err)
	require.Len(t, facts, 3)
	assert.Equal(t, "node/1", facts[0].Signature())
	assert.Equal(t, bonesis.Pool{bonesis.Number(-1), bonesis.Number(1)}, facts[1].Args[2])
	assert.Equal(t, bonesis.Tuple{bonesis.Symbol("fixpoints"), bonesis.Symbol("attractors_contain")}, facts[2].Args[0])

	n, ok := facts[1].NumberArg(2)
	assert.False(t, ok)
	assert.Zero(t, n)
	s, ok := facts[2].StringArg(1)
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	_, err = bonesis.ParseFacts(`clause("A",1`)
	assert.Error(t, err)
}

func TestParseAnswers(t *testing.T) {
	out := `clingo version 5.6.2
Reading from stdin
Solving...
Answer: 1
constant("A",0) clause("B",1,"A",1)
Answer: 2
constant("A",0) constant("B",0)
SATISFIABLE

Models       : 2
`
	answers, err := bonesis.ParseAnswers(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Len(t, answers[0], 2)
	assert.Equal(t, "constant", answers[1][1].Name)

	answers, err = bonesis.ParseAnswers(strings.NewReader("constant(\"A\",1).\n"))
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Len(t, answers[0], 1)
}

func TestErrorKinds(t *testing.T) {
	assert.True(t, errors.Is(&bonesis.TypeError{Class: "Observation", Operator: "Reach"}, bonesis.ErrType))
	assert.EqualError(t, &bonesis.TypeError{Class: "Observation", Operator: "Reach"},
		"'Observation' objects do not support 'Reach' operator")
	assert.True(t, errors.Is(&bonesis.ValueError{Value: "x"}, bonesis.ErrValue))
	assert.True(t, errors.Is(&bonesis.MonotonicityError{Node: "A", Formula: "B & !B"}, bonesis.ErrStructural))
	assert.True(t, errors.Is(bonesis.NodeNotFound("Z"), bonesis.ErrLookup))
	assert.False(t, errors.Is(bonesis.NodeNotFound("Z"), bonesis.ErrType))
	assert.True(t, errors.Is(bonesis.UnrecognizedFact{Fact: bonesis.NewFact("clause")}, bonesis.ErrUnrecognizedFact))
}
