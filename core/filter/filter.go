package filter

import (
	"fmt"
	"regexp"

	"github.com/RoaringBitmap/roaring"
	"github.com/asaidimu/go-tabular/core/schema"
)

// Filter is a Spec validated and bound against a specific schema: column
// names resolved to positions and types, literal parameters normalized and
// the pattern expression compiled. A Filter is immutable, reusable across
// any number of evaluations and safe for concurrent use as long as the
// schema does not change.
type Filter struct {
	spec     *Spec
	op       Operator
	column   string
	position int
	typ      schema.ColumnType
	values   []any
	min      any
	max      any
	re       *regexp.Regexp
	children []*Filter
}

// New binds spec against sch, recursively validating every node. A failure
// anywhere in the tree fails the whole construction: unknown columns,
// missing or empty required parameters, a pattern on a non-STRING column,
// literals incompatible with their column's type and invalid expressions all
// surface here, wrapped in ErrInvalidFilter. Structural problems surface as
// ErrMalformedSpec. After New succeeds, evaluation never fails.
func New(spec *Spec, sch *schema.Schema) (*Filter, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: no specification", ErrMalformedSpec)
	}
	if sch == nil {
		return nil, fmt.Errorf("%w: no schema to bind against", ErrInvalidFilter)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return bind(spec, sch)
}

func bind(spec *Spec, sch *schema.Schema) (*Filter, error) {
	f := &Filter{spec: spec, op: spec.Operator}

	if !spec.Operator.Primitive() {
		f.children = make([]*Filter, 0, len(spec.Arguments))
		for i := range spec.Arguments {
			child, err := bind(&spec.Arguments[i], sch)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			f.children = append(f.children, child)
		}
		return f, nil
	}

	position, ok := sch.Index(spec.Column)
	if !ok {
		return nil, fmt.Errorf("%w: column %q is not in the schema", ErrInvalidFilter, spec.Column)
	}
	typ, _ := sch.Type(spec.Column)
	f.column, f.position, f.typ = spec.Column, position, typ

	switch spec.Operator {
	case OperatorInList:
		if len(spec.Values) == 0 {
			return nil, fmt.Errorf("%w: %s requires a non-empty values list", ErrInvalidFilter, OperatorInList)
		}
		f.values = make([]any, len(spec.Values))
		for i, raw := range spec.Values {
			v, err := schema.Normalize(raw, typ)
			if err != nil {
				return nil, fmt.Errorf("%w: values[%d] for column %q: %v", ErrInvalidFilter, i, spec.Column, err)
			}
			f.values[i] = v
		}
	case OperatorInRange:
		if spec.MinVal == nil && spec.MaxVal == nil {
			return nil, fmt.Errorf("%w: %s requires min_val or max_val", ErrInvalidFilter, OperatorInRange)
		}
		if spec.MinVal != nil {
			v, err := schema.Normalize(spec.MinVal, typ)
			if err != nil {
				return nil, fmt.Errorf("%w: min_val for column %q: %v", ErrInvalidFilter, spec.Column, err)
			}
			f.min = v
		}
		if spec.MaxVal != nil {
			v, err := schema.Normalize(spec.MaxVal, typ)
			if err != nil {
				return nil, fmt.Errorf("%w: max_val for column %q: %v", ErrInvalidFilter, spec.Column, err)
			}
			f.max = v
		}
	case OperatorRegexMatch:
		if typ != schema.ColumnTypeString {
			return nil, fmt.Errorf("%w: %s applies only to STRING columns, column %q is %s",
				ErrInvalidFilter, OperatorRegexMatch, spec.Column, typ)
		}
		if spec.Expression == "" {
			return nil, fmt.Errorf("%w: %s requires an expression", ErrInvalidFilter, OperatorRegexMatch)
		}
		re, err := regexp.Compile(spec.Expression)
		if err != nil {
			return nil, fmt.Errorf("%w: expression %q: %v", ErrInvalidFilter, spec.Expression, err)
		}
		f.re = re
	}
	return f, nil
}

// Spec returns the specification the filter was built from.
func (f *Filter) Spec() *Spec {
	return f.spec
}

// Matches reports whether one positional row satisfies the filter. Row
// values are normalized before comparison; a value that cannot be normalized
// to its column's type does not match, it never raises an error.
func (f *Filter) Matches(row []any) bool {
	switch f.op {
	case OperatorAll:
		for _, child := range f.children {
			if !child.Matches(row) {
				return false
			}
		}
		return true
	case OperatorAny:
		for _, child := range f.children {
			if child.Matches(row) {
				return true
			}
		}
		return false
	case OperatorNone:
		for _, child := range f.children {
			if child.Matches(row) {
				return false
			}
		}
		return true
	}

	if f.position >= len(row) {
		return false
	}
	value, err := schema.Normalize(row[f.position], f.typ)
	if err != nil {
		return false
	}

	switch f.op {
	case OperatorInList:
		for _, v := range f.values {
			if schema.Compare(value, v, f.typ) == 0 {
				return true
			}
		}
		return false
	case OperatorInRange:
		if f.min != nil && schema.Compare(value, f.min, f.typ) < 0 {
			return false
		}
		if f.max != nil && schema.Compare(value, f.max, f.typ) > 0 {
			return false
		}
		return true
	case OperatorRegexMatch:
		// Unanchored search: the expression need only occur somewhere in
		// the value.
		return f.re.MatchString(value.(string))
	}
	return false
}

// Index evaluates the filter over the full ordered row sequence and returns
// the set of matching 0-based row positions. Primitive nodes scan the rows
// once; composite nodes combine their children's sets, ALL by intersection,
// ANY by union and NONE by complementing the union over [0, len(rows)).
func (f *Filter) Index(rows [][]any) *roaring.Bitmap {
	domain := uint64(len(rows))
	out := roaring.New()
	switch f.op {
	case OperatorAll:
		out.AddRange(0, domain)
		for _, child := range f.children {
			out.And(child.Index(rows))
			if out.IsEmpty() {
				break
			}
		}
	case OperatorAny:
		for _, child := range f.children {
			out.Or(child.Index(rows))
		}
	case OperatorNone:
		for _, child := range f.children {
			out.Or(child.Index(rows))
		}
		out.Flip(0, domain)
	default:
		for i, row := range rows {
			if f.Matches(row) {
				out.Add(uint32(i))
			}
		}
	}
	return out
}

// IndexSlice evaluates like Index but returns the matching positions as an
// ascending slice.
func (f *Filter) IndexSlice(rows [][]any) []uint32 {
	return f.Index(rows).ToArray()
}

// ColumnValues returns every literal the filter tree references for the
// named column: the value set of a membership filter, the supplied bounds of
// a range filter and the expression string of a pattern filter, with
// composite nodes contributing the union over their children. Values appear
// once each, in first-occurrence order. The result is empty when the column
// is not referenced anywhere in the tree.
func (f *Filter) ColumnValues(column string) []any {
	out := []any{}
	if column == "" {
		return out
	}
	seen := map[any]struct{}{}
	f.collectValues(column, seen, &out)
	return out
}

func (f *Filter) collectValues(column string, seen map[any]struct{}, out *[]any) {
	if !f.op.Primitive() {
		for _, child := range f.children {
			child.collectValues(column, seen, out)
		}
		return
	}
	if f.column != column {
		return
	}
	add := func(v any) {
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		*out = append(*out, v)
	}
	switch f.op {
	case OperatorInList:
		for _, v := range f.values {
			add(v)
		}
	case OperatorInRange:
		if f.min != nil {
			add(f.min)
		}
		if f.max != nil {
			add(f.max)
		}
	case OperatorRegexMatch:
		add(f.re.String())
	}
}
