package bonesis

import (
	"errors"
	"fmt"
)

// Error kinds. Concrete errors returned by this module match exactly one
// of them through errors.Is.
var (
	// ErrType reports an ill-typed predicate, operand or operator usage.
	ErrType = errors.New("type error")
	// ErrValue reports a malformed input value, such as an unknown sign label.
	ErrValue = errors.New("value error")
	// ErrStructural reports a formula violating the monotone DNF shape.
	ErrStructural = errors.New("structural error")
	// ErrLookup reports a reference to a node absent from the domain.
	ErrLookup = errors.New("lookup error")
	// ErrUnrecognizedFact reports a known relation with an unexpected shape.
	ErrUnrecognizedFact = errors.New("unrecognized fact")
	// ErrUnsupported reports a relation a solving engine cannot handle.
	ErrUnsupported = errors.New("unsupported relation")
)

// TypeError is returned when a term, predicate or operator is used with
// operands it does not accept.
type TypeError struct {
	// Class is the term or predicate class rejecting the operand.
	Class string
	// Operator is set when the error comes from an operator method.
	Operator string
	// Operand describes the rejected operand, if any.
	Operand string
	Msg     string
}

func (e *TypeError) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Operator != "":
		return fmt.Sprintf("'%s' objects do not support '%s' operator", e.Class, e.Operator)
	case e.Operand != "":
		return fmt.Sprintf("invalid arguments for %s: %s", e.Class, e.Operand)
	}
	return fmt.Sprintf("invalid arguments for %s", e.Class)
}

func (e *TypeError) Is(target error) bool { return target == ErrType }

// ValueError is returned for malformed input values.
type ValueError struct {
	Value interface{}
	Msg   string
}

func (e *ValueError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("invalid value %v", e.Value)
}

func (e *ValueError) Is(target error) bool { return target == ErrValue }

// MonotonicityError is returned when a formula assigned to a node is not
// a monotone disjunction of conjunctive clauses.
type MonotonicityError struct {
	Node    string
	Formula string
}

func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("'%s' for %s does not look monotone", e.Formula, e.Node)
}

func (e *MonotonicityError) Is(target error) bool { return target == ErrStructural }

// NodeNotFound is returned when a node is referenced that the bound
// domain does not contain.
type NodeNotFound string

func (e NodeNotFound) Error() string {
	return fmt.Sprintf("node %q not found", string(e))
}

func (e NodeNotFound) Is(target error) bool { return target == ErrLookup }

// UnrecognizedFact is returned by decoders for facts whose relation is
// known but whose arity or arguments are not.
type UnrecognizedFact struct {
	Fact Fact
}

func (e UnrecognizedFact) Error() string {
	return fmt.Sprintf("unrecognized fact %s", e.Fact)
}

func (e UnrecognizedFact) Is(target error) bool { return target == ErrUnrecognizedFact }
