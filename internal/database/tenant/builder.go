// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tenant

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/pkg/log"
)

const (
	columnID         = "id"
	columnBusinessID = "business_id"
	columnCreatedBy  = "created_by"
	columnUpdatedBy  = "updated_by"
)

var (
	psql              = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
)

func validIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

func checkIdentifiers(names ...string) error {
	for _, name := range names {
		if !validIdentifier(name) {
			return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
		}
	}
	return nil
}

// projection renders a column list, "*" when empty
func projection(columns []string) (string, error) {
	if len(columns) == 0 {
		return "*", nil
	}
	for _, c := range columns {
		if c == "*" {
			continue
		}
		if err := checkIdentifiers(c); err != nil {
			return "", err
		}
	}
	return strings.Join(columns, ", "), nil
}

// normalizeValue dereferences pointers and resolves driver.Valuer so that
// array-backed ids are bound as a single value.
func normalizeValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil
		}
		v = rv.Elem().Interface()
	}
	if valuer, ok := v.(driver.Valuer); ok {
		return valuer.Value()
	}
	return v, nil
}

func isList(v interface{}) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	kind := reflect.ValueOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func normalizeList(v interface{}) ([]interface{}, error) {
	rv := reflect.ValueOf(v)
	out := make([]interface{}, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item, err := normalizeValue(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// predicate translates one condition. A nil Sqlizer with a nil error means
// the condition was skipped.
func predicate(ctx context.Context, c Condition) (sq.Sqlizer, error) {
	if err := checkIdentifiers(c.Column); err != nil {
		return nil, err
	}

	if c.Op == OpIn {
		if !isList(c.Value) {
			log.WarnWithContext(ctx, "filter operator %q on column %q requires a list, skipping", c.Op, c.Column)
			return nil, nil
		}
		values, err := normalizeList(c.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to bind %q: %w", c.Column, err)
		}
		return sq.Eq{c.Column: values}, nil
	}

	value, err := normalizeValue(c.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %q: %w", c.Column, err)
	}

	if value == nil || c.Op == OpIsNull {
		switch c.Op {
		case OpNeq:
			return sq.NotEq{c.Column: nil}, nil
		case OpEq, OpGt, OpGte, OpLt, OpLte, OpILike, OpIsNull:
			return sq.Eq{c.Column: nil}, nil
		}
	}

	switch c.Op {
	case OpEq:
		return sq.Eq{c.Column: value}, nil
	case OpNeq:
		return sq.NotEq{c.Column: value}, nil
	case OpGt:
		return sq.Gt{c.Column: value}, nil
	case OpGte:
		return sq.GtOrEq{c.Column: value}, nil
	case OpLt:
		return sq.Lt{c.Column: value}, nil
	case OpLte:
		return sq.LtOrEq{c.Column: value}, nil
	case OpILike:
		return sq.ILike{c.Column: value}, nil
	}

	log.WarnWithContext(ctx, "unsupported filter operator %s on column %q, skipping", c.Op, c.Column)
	return nil, nil
}

// filterPredicates renders the or-group as one disjunction followed by each
// conjunctive condition. Skipped conditions leave no trace.
func filterPredicates(ctx context.Context, f Filter) ([]sq.Sqlizer, error) {
	preds := make([]sq.Sqlizer, 0, len(f.Where)+1)

	if len(f.Or) > 0 {
		group := make(sq.Or, 0, len(f.Or))
		for _, c := range f.Or {
			p, err := predicate(ctx, c)
			if err != nil {
				return nil, err
			}
			if p != nil {
				group = append(group, p)
			}
		}
		if len(group) > 0 {
			preds = append(preds, group)
		}
	}

	for _, c := range f.Where {
		p, err := predicate(ctx, c)
		if err != nil {
			return nil, err
		}
		if p != nil {
			preds = append(preds, p)
		}
	}
	return preds, nil
}

func buildSelect(ctx context.Context, table string, businessID uuid.UUID, columns []string, opts FetchOptions) (string, []interface{}, error) {
	if err := checkIdentifiers(table); err != nil {
		return "", nil, err
	}
	cols, err := projection(columns)
	if err != nil {
		return "", nil, err
	}

	preds, err := filterPredicates(ctx, opts.Filter)
	if err != nil {
		return "", nil, err
	}
	b := psql.Select(cols).From(table).Where(sq.Eq{columnBusinessID: businessID.String()})
	for _, p := range preds {
		b = b.Where(p)
	}

	if opts.OrderBy != nil {
		if err := checkIdentifiers(opts.OrderBy.Column); err != nil {
			return "", nil, err
		}
		direction := "ASC"
		if opts.OrderBy.Descending {
			direction = "DESC"
		}
		b = b.OrderBy(opts.OrderBy.Column + " " + direction)
	}

	if opts.Limit > 0 {
		b = b.Limit(uint64(opts.Limit))
		if opts.Page > 1 {
			if opts.Page-1 > math.MaxInt/opts.Limit {
				return "", nil, ErrPageOutOfRange
			}
			b = b.Offset(uint64((opts.Page - 1) * opts.Limit))
		}
	}

	return b.ToSql()
}

func buildCount(ctx context.Context, table string, businessID uuid.UUID, f Filter) (string, []interface{}, error) {
	if err := checkIdentifiers(table); err != nil {
		return "", nil, err
	}
	preds, err := filterPredicates(ctx, f)
	if err != nil {
		return "", nil, err
	}
	b := psql.Select("COUNT(*)").From(table).Where(sq.Eq{columnBusinessID: businessID.String()})
	for _, p := range preds {
		b = b.Where(p)
	}
	return b.ToSql()
}

// buildDeleteWhere deletes every tenant row matching f
func buildDeleteWhere(ctx context.Context, table string, businessID uuid.UUID, f Filter) (string, []interface{}, error) {
	if err := checkIdentifiers(table); err != nil {
		return "", nil, err
	}
	preds, err := filterPredicates(ctx, f)
	if err != nil {
		return "", nil, err
	}
	if len(preds) == 0 {
		return "", nil, ErrEmptyFilter
	}
	b := psql.Delete(table).Where(sq.Eq{columnBusinessID: businessID.String()})
	for _, p := range preds {
		b = b.Where(p)
	}
	return b.ToSql()
}

// scopedWhere is the id and tenant predicate shared by the check and mutate phases
func scopedWhere(id, businessID uuid.UUID) sq.And {
	return sq.And{
		sq.Eq{columnID: id.String()},
		sq.Eq{columnBusinessID: businessID.String()},
	}
}

func buildOwnershipCheck(table string, id, businessID uuid.UUID) (string, []interface{}, error) {
	if err := checkIdentifiers(table); err != nil {
		return "", nil, err
	}
	return psql.Select(columnID).From(table).Where(scopedWhere(id, businessID)).Limit(1).ToSql()
}

func bindRecord(record Record) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(record))
	for column, value := range record {
		if err := checkIdentifiers(column); err != nil {
			return nil, err
		}
		v, err := normalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("failed to bind %q: %w", column, err)
		}
		out[column] = v
	}
	return out, nil
}

func buildInsert(table string, record Record, returning []string) (string, []interface{}, error) {
	if err := checkIdentifiers(table); err != nil {
		return "", nil, err
	}
	cols, err := projection(returning)
	if err != nil {
		return "", nil, err
	}
	values, err := bindRecord(record)
	if err != nil {
		return "", nil, err
	}
	return psql.Insert(table).SetMap(values).Suffix("RETURNING " + cols).ToSql()
}

func buildUpdate(table string, id, businessID uuid.UUID, record Record, returning []string) (string, []interface{}, error) {
	if err := checkIdentifiers(table); err != nil {
		return "", nil, err
	}
	cols, err := projection(returning)
	if err != nil {
		return "", nil, err
	}
	values, err := bindRecord(record)
	if err != nil {
		return "", nil, err
	}
	return psql.Update(table).
		SetMap(values).
		Where(scopedWhere(id, businessID)).
		Suffix("RETURNING " + cols).
		ToSql()
}

// buildGet selects one row by id under the tenant
func buildGet(table string, id, businessID uuid.UUID, columns []string) (string, []interface{}, error) {
	if err := checkIdentifiers(table); err != nil {
		return "", nil, err
	}
	cols, err := projection(columns)
	if err != nil {
		return "", nil, err
	}
	return psql.Select(cols).From(table).Where(scopedWhere(id, businessID)).Limit(1).ToSql()
}

func buildDelete(table string, id, businessID uuid.UUID) (string, []interface{}, error) {
	if err := checkIdentifiers(table); err != nil {
		return "", nil, err
	}
	return psql.Delete(table).Where(scopedWhere(id, businessID)).ToSql()
}
