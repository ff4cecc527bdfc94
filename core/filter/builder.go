package filter

// Spec constructors for direct use. The fluent SpecBuilder below covers the
// same ground for callers assembling filters step by step.

// InList returns a membership specification: the column value must equal one
// of the given literals.
func InList(column string, values ...any) *Spec {
	return &Spec{Operator: OperatorInList, Column: column, Values: values}
}

// InRange returns a range specification with inclusive bounds. Pass nil to
// leave a bound open; at least one bound must be supplied for the spec to
// bind.
func InRange(column string, min, max any) *Spec {
	return &Spec{Operator: OperatorInRange, Column: column, MinVal: min, MaxVal: max}
}

// RegexMatch returns a pattern specification: the column value must contain
// a match of the expression anywhere within it.
func RegexMatch(column string, expression string) *Spec {
	return &Spec{Operator: OperatorRegexMatch, Column: column, Expression: expression}
}

// All returns a conjunction over the given children. With no children it
// matches every row.
func All(children ...*Spec) *Spec {
	return composite(OperatorAll, children)
}

// Any returns a disjunction over the given children. With no children it
// matches no row.
func Any(children ...*Spec) *Spec {
	return composite(OperatorAny, children)
}

// None returns a negated disjunction over the given children. With no
// children it matches every row.
func None(children ...*Spec) *Spec {
	return composite(OperatorNone, children)
}

func composite(op Operator, children []*Spec) *Spec {
	arguments := make([]Spec, len(children))
	for i, child := range children {
		arguments[i] = *child
	}
	return &Spec{Operator: op, Arguments: arguments}
}

// SpecBuilder provides a fluent API for building filter specifications.
type SpecBuilder struct {
	spec *Spec
}

// NewSpecBuilder creates a new, empty builder instance.
func NewSpecBuilder() *SpecBuilder {
	return &SpecBuilder{}
}

// Build returns the constructed specification.
func (b *SpecBuilder) Build() *Spec {
	return b.spec
}

// Reset clears the builder, returning it to its initial state.
func (b *SpecBuilder) Reset() *SpecBuilder {
	b.spec = nil
	return b
}

// Where begins a primitive filter on the named column.
func (b *SpecBuilder) Where(column string) *ColumnBuilder {
	return &ColumnBuilder{parent: b, column: column}
}

// Group begins a composite filter combined with the given operator.
func (b *SpecBuilder) Group(op Operator) *GroupBuilder {
	return &GroupBuilder{parent: b, op: op}
}

// All begins a conjunction group.
func (b *SpecBuilder) All() *GroupBuilder {
	return b.Group(OperatorAll)
}

// Any begins a disjunction group.
func (b *SpecBuilder) Any() *GroupBuilder {
	return b.Group(OperatorAny)
}

// None begins a negated-disjunction group.
func (b *SpecBuilder) None() *GroupBuilder {
	return b.Group(OperatorNone)
}

// ColumnBuilder is used to finish a primitive filter on one column. It is
// not intended to be used directly but is part of the fluent API.
type ColumnBuilder struct {
	parent *SpecBuilder
	column string
}

// InList sets a membership condition over the given values.
func (cb *ColumnBuilder) InList(values ...any) *SpecBuilder {
	cb.parent.spec = InList(cb.column, values...)
	return cb.parent
}

// InRange sets a range condition with inclusive bounds.
func (cb *ColumnBuilder) InRange(min, max any) *SpecBuilder {
	cb.parent.spec = InRange(cb.column, min, max)
	return cb.parent
}

// AtLeast sets a range condition with only a lower bound.
func (cb *ColumnBuilder) AtLeast(min any) *SpecBuilder {
	return cb.InRange(min, nil)
}

// AtMost sets a range condition with only an upper bound.
func (cb *ColumnBuilder) AtMost(max any) *SpecBuilder {
	return cb.InRange(nil, max)
}

// Matches sets a pattern condition with the given expression.
func (cb *ColumnBuilder) Matches(expression string) *SpecBuilder {
	cb.parent.spec = RegexMatch(cb.column, expression)
	return cb.parent
}

// GroupBuilder is used to build a composite filter node.
type GroupBuilder struct {
	parent   *SpecBuilder
	op       Operator
	children []Spec
}

// Where begins a primitive filter on the named column within this group.
func (gb *GroupBuilder) Where(column string) *GroupColumnBuilder {
	return &GroupColumnBuilder{group: gb, column: column}
}

// Add appends an already constructed specification as a child, allowing
// nested composites.
func (gb *GroupBuilder) Add(spec *Spec) *GroupBuilder {
	gb.children = append(gb.children, *spec)
	return gb
}

// End finalizes the group and returns to the main builder.
func (gb *GroupBuilder) End() *SpecBuilder {
	gb.parent.spec = &Spec{Operator: gb.op, Arguments: gb.children}
	return gb.parent
}

// GroupColumnBuilder is used to finish a primitive filter within a group.
type GroupColumnBuilder struct {
	group  *GroupBuilder
	column string
}

// InList adds a membership condition to the current group.
func (gcb *GroupColumnBuilder) InList(values ...any) *GroupBuilder {
	return gcb.group.Add(InList(gcb.column, values...))
}

// InRange adds a range condition to the current group.
func (gcb *GroupColumnBuilder) InRange(min, max any) *GroupBuilder {
	return gcb.group.Add(InRange(gcb.column, min, max))
}

// AtLeast adds a lower-bound-only range condition to the current group.
func (gcb *GroupColumnBuilder) AtLeast(min any) *GroupBuilder {
	return gcb.InRange(min, nil)
}

// AtMost adds an upper-bound-only range condition to the current group.
func (gcb *GroupColumnBuilder) AtMost(max any) *GroupBuilder {
	return gcb.InRange(nil, max)
}

// Matches adds a pattern condition to the current group.
func (gcb *GroupColumnBuilder) Matches(expression string) *GroupBuilder {
	return gcb.group.Add(RegexMatch(gcb.column, expression))
}
