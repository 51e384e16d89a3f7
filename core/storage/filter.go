package storage

// Op is a filter operator.
type Op string

const (
	OpEquals     Op = "equals"
	OpNotEquals  Op = "not"
	OpIn         Op = "in"
	OpNotIn      Op = "notIn"
	OpContains   Op = "contains"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpGt         Op = "gt"
	OpGte        Op = "gte"

	// OpIsNull matches when the value is NULL (Value true) or set (Value false).
	OpIsNull Op = "isNull"

	// Relationship operators. Value is a Filter on the target list.
	OpSome  Op = "some"
	OpNone  Op = "none"
	OpEvery Op = "every"
	OpIs    Op = "is"
)

// Filter is a boolean combination of conditions. All parts are ANDed.
type Filter struct {
	Conditions []Condition
	And        []Filter
	Or         []Filter
	Not        *Filter
}

// Condition compares one field.
type Condition struct {
	Field string
	Op    Op
	Value any

	// Insensitive makes text comparisons case-insensitive.
	Insensitive bool
}

// IsEmpty reports whether the filter matches everything. A non-nil empty Or
// matches nothing and is not empty.
func (f Filter) IsEmpty() bool {
	return len(f.Conditions) == 0 && len(f.And) == 0 && f.Or == nil && f.Not == nil
}

// Where builds a filter of ANDed conditions.
func Where(conds ...Condition) Filter {
	return Filter{Conditions: conds}
}

// Eq is shorthand for an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEquals, Value: value}
}

// Or combines filters with OR.
func Or(filters ...Filter) Filter {
	return Filter{Or: filters}
}

// Not negates a filter.
func Not(f Filter) Filter {
	return Filter{Not: &f}
}
