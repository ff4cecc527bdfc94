// Package filter implements the declarative, serializable filter language
// evaluated against tabular rows. A filter travels as a schema-free Spec,
// is bound against a schema to produce an immutable Filter, and the Filter
// evaluates rows into 0-based row-index sets.
package filter

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Operator identifies a filter node kind. Primitive operators compare one
// column against literal parameters; composite operators combine an ordered
// list of child filters.
type Operator string

// Supported operators, by their wire names.
const (
	OperatorInList     Operator = "IN_LIST"
	OperatorInRange    Operator = "IN_RANGE"
	OperatorRegexMatch Operator = "REGEX_MATCH"
	OperatorAll        Operator = "ALL"
	OperatorAny        Operator = "ANY"
	OperatorNone       Operator = "NONE"
)

// operators is the set of all recognized operators.
var operators = map[Operator]struct{}{
	OperatorInList:     {},
	OperatorInRange:    {},
	OperatorRegexMatch: {},
	OperatorAll:        {},
	OperatorAny:        {},
	OperatorNone:       {},
}

// Valid reports whether o is a recognized operator.
func (o Operator) Valid() bool {
	_, ok := operators[o]
	return ok
}

// Primitive reports whether the operator compares column values directly
// rather than combining child filters.
func (o Operator) Primitive() bool {
	switch o {
	case OperatorInList, OperatorInRange, OperatorRegexMatch:
		return true
	}
	return false
}

// Sentinel errors separating the two construction failure classes. Callers
// are expected to treat both as request-rejection signals.
var (
	// ErrMalformedSpec reports a specification whose structure is not part
	// of the filter language.
	ErrMalformedSpec = errors.New("malformed filter specification")
	// ErrInvalidFilter reports a specification that failed validation
	// against a schema.
	ErrInvalidFilter = errors.New("invalid filter")
)

// Spec is the wire form of a filter: a recursive, schema-independent
// description safe for transport and storage. Primitive nodes carry a column
// name and operator-specific parameters; composite nodes carry an ordered
// argument list of child specs.
type Spec struct {
	Operator   Operator `json:"operator"`
	Column     string   `json:"column,omitempty"`
	Values     []any    `json:"values,omitempty"`
	MinVal     any      `json:"min_val,omitempty"`
	MaxVal     any      `json:"max_val,omitempty"`
	Expression string   `json:"expression,omitempty"`
	Arguments  []Spec   `json:"arguments,omitempty"`
}

// ParseSpec decodes a JSON filter specification and checks its structure.
func ParseSpec(data []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSpec, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks structural well-formedness without reference to a schema:
// every operator in the tree must be recognized. Parameter and column
// checking happens at bind time, when a schema is available.
func (s *Spec) Validate() error {
	if !s.Operator.Valid() {
		return fmt.Errorf("%w: unknown operator %q", ErrMalformedSpec, s.Operator)
	}
	if s.Operator.Primitive() {
		return nil
	}
	for i := range s.Arguments {
		if err := s.Arguments[i].Validate(); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	return nil
}
