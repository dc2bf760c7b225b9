// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tenant

import "fmt"

// Op is a filter operator.
type Op int

const (
	OpEq Op = iota
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte
	OpILike
	OpIn
	OpIsNull
)

var opNames = map[Op]string{
	OpEq:     "eq",
	OpNeq:    "neq",
	OpGt:     "gt",
	OpGte:    "gte",
	OpLt:     "lt",
	OpLte:    "lte",
	OpILike:  "ilike",
	OpIn:     "in",
	OpIsNull: "is",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Condition is a single predicate on one column.
// A nil Value renders IS NULL, except with OpNeq where it renders IS NOT NULL.
type Condition struct {
	Column string
	Op     Op
	Value  interface{}
}

func Eq(column string, value interface{}) Condition  { return Condition{column, OpEq, value} }
func Neq(column string, value interface{}) Condition { return Condition{column, OpNeq, value} }
func Gt(column string, value interface{}) Condition  { return Condition{column, OpGt, value} }
func Gte(column string, value interface{}) Condition { return Condition{column, OpGte, value} }
func Lt(column string, value interface{}) Condition  { return Condition{column, OpLt, value} }
func Lte(column string, value interface{}) Condition { return Condition{column, OpLte, value} }

// ILike matches pattern case-insensitively. The pattern is used as given,
// so callers add their own % wildcards.
func ILike(column, pattern string) Condition { return Condition{column, OpILike, pattern} }

// In matches any element of values, which must be a slice.
func In(column string, values interface{}) Condition { return Condition{column, OpIn, values} }

func IsNull(column string) Condition  { return Condition{column, OpIsNull, nil} }
func NotNull(column string) Condition { return Condition{column, OpNeq, nil} }

// Filter describes the WHERE clause of a tenant-scoped read.
// Where conditions are AND-ed; Or is a single group of alternatives AND-ed with the rest.
type Filter struct {
	Where []Condition
	Or    []Condition
}

// And returns a copy of f with more conjunctive conditions.
func (f Filter) And(conds ...Condition) Filter {
	where := make([]Condition, 0, len(f.Where)+len(conds))
	where = append(where, f.Where...)
	where = append(where, conds...)
	return Filter{Where: where, Or: f.Or}
}

// AnyOf returns a copy of f whose or-group is conds.
func (f Filter) AnyOf(conds ...Condition) Filter {
	return Filter{Where: f.Where, Or: conds}
}

// IsEmpty reports whether the filter adds no predicates.
func (f Filter) IsEmpty() bool {
	return len(f.Where) == 0 && len(f.Or) == 0
}

// Order is a single ORDER BY column.
type Order struct {
	Column     string
	Descending bool
}

// FetchOptions groups filter, ordering and pagination for FetchByBusiness.
// Page is 1-based and only applies together with Limit.
type FetchOptions struct {
	Filter  Filter
	OrderBy *Order
	Limit   int
	Page    int
}

// Record is a column to value mapping, used for write payloads and untyped rows.
type Record map[string]interface{}

func (r Record) clone() Record {
	out := make(Record, len(r)+4)
	for k, v := range r {
		out[k] = v
	}
	return out
}
