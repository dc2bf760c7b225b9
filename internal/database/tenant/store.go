// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldcrew/api/internal/database/observability"
	"github.com/fieldcrew/api/internal/database/postgres"
)

// IDGenerator produces ids for inserted rows that carry none
type IDGenerator func() (uuid.UUID, error)

// Operation labels used for metrics
const (
	opFetch  = "fetch"
	opCount  = "count"
	opGet    = "get"
	opInsert = "insert"
	opUpdate = "update"
	opDelete = "delete"
	opExists = "exists"
)

type txKey struct{}

// Store runs tenant-scoped statements against a postgres client.
// A Store without a client fails every operation with ErrStoreUninitialized.
type Store struct {
	client  *postgres.Client
	metrics *observability.QueryMetrics
	newID   IDGenerator
}

// Option configures a Store
type Option func(*Store)

// WithMetrics records every operation on m
func WithMetrics(m *observability.QueryMetrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithIDGenerator replaces the default UUID v4 generator
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewStore creates a store over client, which may be nil
func NewStore(client *postgres.Client, opts ...Option) *Store {
	s := &Store{
		client: client,
		newID:  uuid.NewV4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ready() bool {
	return s != nil && s.client != nil && s.client.DB() != nil
}

// Executor returns the transaction carried by ctx, or the pooled connection
func (s *Store) Executor(ctx context.Context) (sqlx.ExtContext, error) {
	if !s.ready() {
		return nil, ErrStoreUninitialized
	}
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok && tx != nil {
		return tx, nil
	}
	return s.client.DB(), nil
}

// WithTransaction runs fn with a context bound to a new transaction.
// Nested calls reuse the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(context.Context) error) error {
	if !s.ready() {
		return ErrStoreUninitialized
	}
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.client.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed and rollback failed: %w (original error: %v)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// HealthCheck pings the underlying database
func (s *Store) HealthCheck(ctx context.Context) error {
	if !s.ready() {
		return ErrStoreUninitialized
	}
	return s.client.HealthCheck(ctx)
}

func (s *Store) observe(table, operation string, start time.Time, err error) {
	if s == nil {
		return
	}
	outcome := observability.OutcomeOK
	switch {
	case errors.Is(err, ErrNotFound):
		outcome = observability.OutcomeNotFound
	case err != nil:
		outcome = observability.OutcomeError
	}
	s.metrics.Observe(table, operation, outcome, start)
}

// FetchByBusiness returns the rows of table owned by businessID that match opts.
// columns selects the projection, all columns when empty. An empty match is a
// non-nil empty slice.
func FetchByBusiness[T any](ctx context.Context, s *Store, table string, businessID uuid.UUID, columns []string, opts FetchOptions) (result []T, err error) {
	start := time.Now()
	defer func() { s.observe(table, opFetch, start, err) }()

	exec, err := s.Executor(ctx)
	if err != nil {
		return nil, err
	}
	if businessID == uuid.Nil {
		return nil, ErrMissingBusiness
	}

	query, args, err := buildSelect(ctx, table, businessID, columns, opts)
	if err != nil {
		return nil, err
	}

	rows, err := exec.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", table, err)
	}
	defer rows.Close()

	result = make([]T, 0)
	for rows.Next() {
		item, err := scanRow[T](rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s: %w", table, err)
	}
	return result, nil
}

// CountByBusiness counts the rows of table owned by businessID that match f
func CountByBusiness(ctx context.Context, s *Store, table string, businessID uuid.UUID, f Filter) (count int64, err error) {
	start := time.Now()
	defer func() { s.observe(table, opCount, start, err) }()

	exec, err := s.Executor(ctx)
	if err != nil {
		return 0, err
	}
	if businessID == uuid.Nil {
		return 0, ErrMissingBusiness
	}

	query, args, err := buildCount(ctx, table, businessID, f)
	if err != nil {
		return 0, err
	}
	if err := exec.QueryRowxContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return count, nil
}

// GetByBusiness returns the row with id if it belongs to businessID
func GetByBusiness[T any](ctx context.Context, s *Store, table string, id, businessID uuid.UUID, columns []string) (result T, err error) {
	start := time.Now()
	defer func() { s.observe(table, opGet, start, err) }()

	exec, err := s.Executor(ctx)
	if err != nil {
		return result, err
	}
	if businessID == uuid.Nil {
		return result, ErrMissingBusiness
	}
	return getRow[T](ctx, exec, table, id, businessID, columns)
}

// ExistsByBusiness returns ErrNotFound unless the row with id belongs to businessID.
// A row of another business reads as missing.
func ExistsByBusiness(ctx context.Context, s *Store, table string, id, businessID uuid.UUID) (err error) {
	start := time.Now()
	defer func() { s.observe(table, opExists, start, err) }()

	exec, err := s.Executor(ctx)
	if err != nil {
		return err
	}
	if businessID == uuid.Nil {
		return ErrMissingBusiness
	}
	return checkOwnership(ctx, exec, table, id, businessID)
}

// InsertWithBusiness inserts payload stamped with businessID and returns the new row.
// A missing id is generated. With an actor, created_by is set for generated ids
// and updated_by is always set.
func InsertWithBusiness[T any](ctx context.Context, s *Store, table string, payload Record, businessID uuid.UUID, actorID *uuid.UUID, returning []string) (result T, err error) {
	start := time.Now()
	defer func() { s.observe(table, opInsert, start, err) }()

	exec, err := s.Executor(ctx)
	if err != nil {
		return result, err
	}
	if businessID == uuid.Nil {
		return result, ErrMissingBusiness
	}

	record := payload.clone()
	record[columnBusinessID] = businessID

	hasID := hasValue(record[columnID])
	if !hasID {
		id, err := s.newID()
		if err != nil {
			return result, fmt.Errorf("failed to generate id: %w", err)
		}
		record[columnID] = id
	}
	if actorID != nil && *actorID != uuid.Nil {
		if !hasID {
			record[columnCreatedBy] = *actorID
		}
		record[columnUpdatedBy] = *actorID
	}

	query, args, err := buildInsert(table, record, returning)
	if err != nil {
		return result, err
	}
	result, err = scanRow[T](exec.QueryRowxContext(ctx, query, args...))
	if err != nil {
		return result, fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return result, nil
}

// UpdateWithBusinessCheck applies payload to the row with id only when it belongs
// to businessID. The id and business_id keys of payload are ignored.
func UpdateWithBusinessCheck[T any](ctx context.Context, s *Store, table string, id uuid.UUID, payload Record, businessID uuid.UUID, actorID *uuid.UUID, returning []string) (result T, err error) {
	start := time.Now()
	defer func() { s.observe(table, opUpdate, start, err) }()

	exec, err := s.Executor(ctx)
	if err != nil {
		return result, err
	}
	if businessID == uuid.Nil {
		return result, ErrMissingBusiness
	}

	if err := checkOwnership(ctx, exec, table, id, businessID); err != nil {
		return result, err
	}

	record := payload.clone()
	delete(record, columnID)
	delete(record, columnBusinessID)
	if actorID != nil && *actorID != uuid.Nil {
		record[columnUpdatedBy] = *actorID
	}
	if len(record) == 0 {
		return getRow[T](ctx, exec, table, id, businessID, returning)
	}

	query, args, err := buildUpdate(table, id, businessID, record, returning)
	if err != nil {
		return result, err
	}
	result, err = scanRow[T](exec.QueryRowxContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return result, ErrNotFound
	}
	if err != nil {
		return result, fmt.Errorf("failed to update %s: %w", table, err)
	}
	return result, nil
}

// DeleteWithBusinessCheck removes the row with id only when it belongs to
// businessID and returns the number of deleted rows.
func DeleteWithBusinessCheck(ctx context.Context, s *Store, table string, id, businessID uuid.UUID) (affected int64, err error) {
	start := time.Now()
	defer func() { s.observe(table, opDelete, start, err) }()

	exec, err := s.Executor(ctx)
	if err != nil {
		return 0, err
	}
	if businessID == uuid.Nil {
		return 0, ErrMissingBusiness
	}

	if err := checkOwnership(ctx, exec, table, id, businessID); err != nil {
		return 0, err
	}

	query, args, err := buildDelete(table, id, businessID)
	if err != nil {
		return 0, err
	}
	return execAffected(ctx, exec, table, query, args)
}

// DeleteWhereByBusiness removes every row of businessID matching f.
// f must carry at least one condition.
func DeleteWhereByBusiness(ctx context.Context, s *Store, table string, businessID uuid.UUID, f Filter) (affected int64, err error) {
	start := time.Now()
	defer func() { s.observe(table, opDelete, start, err) }()

	exec, err := s.Executor(ctx)
	if err != nil {
		return 0, err
	}
	if businessID == uuid.Nil {
		return 0, ErrMissingBusiness
	}

	query, args, err := buildDeleteWhere(ctx, table, businessID, f)
	if err != nil {
		return 0, err
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return res.RowsAffected()
}

func checkOwnership(ctx context.Context, exec sqlx.ExtContext, table string, id, businessID uuid.UUID) error {
	query, args, err := buildOwnershipCheck(table, id, businessID)
	if err != nil {
		return err
	}
	var found string
	err = exec.QueryRowxContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to verify ownership in %s: %w", table, err)
	}
	return nil
}

func getRow[T any](ctx context.Context, exec sqlx.ExtContext, table string, id, businessID uuid.UUID, columns []string) (T, error) {
	var zero T
	query, args, err := buildGet(table, id, businessID, columns)
	if err != nil {
		return zero, err
	}
	result, err := scanRow[T](exec.QueryRowxContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, fmt.Errorf("failed to get from %s: %w", table, err)
	}
	return result, nil
}

func execAffected(ctx context.Context, exec sqlx.ExtContext, table, query string, args []interface{}) (int64, error) {
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return 0, ErrNotFound
	}
	return affected, nil
}

type rowScanner interface {
	MapScan(dest map[string]interface{}) error
	StructScan(dest interface{}) error
}

// scanRow fills a Record through MapScan and anything else through StructScan
func scanRow[T any](row rowScanner) (T, error) {
	var item T
	if rec, ok := any(&item).(*Record); ok {
		m := make(map[string]interface{})
		if err := row.MapScan(m); err != nil {
			return item, err
		}
		for k, v := range m {
			if b, isBytes := v.([]byte); isBytes {
				m[k] = string(b)
			}
		}
		*rec = Record(m)
		return item, nil
	}
	err := row.StructScan(&item)
	return item, err
}

func hasValue(v interface{}) bool {
	switch id := v.(type) {
	case nil:
		return false
	case string:
		return id != ""
	case uuid.UUID:
		return id != uuid.Nil
	case *uuid.UUID:
		return id != nil && *id != uuid.Nil
	}
	return true
}
