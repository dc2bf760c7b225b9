// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tenant

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	uuid "github.com/gofrs/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/api/internal/database/observability"
	"github.com/fieldcrew/api/internal/database/postgres"
)

type crewRow struct {
	ID         string `db:"id"`
	BusinessID string `db:"business_id"`
	Name       string `db:"name"`
	Status     string `db:"status"`
}

var (
	businessB = uuid.Must(uuid.FromString("9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"))
	actorID   = uuid.Must(uuid.FromString("11111111-2222-4333-8444-555555555555"))
)

func newMockStore(t *testing.T, opts ...Option) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	client := postgres.NewClientFromDB(sqlx.NewDb(db, "sqlmock"))
	return NewStore(client, opts...), mock
}

func fixedID(id uuid.UUID) IDGenerator {
	return func() (uuid.UUID, error) { return id, nil }
}

func TestFetchByBusiness(t *testing.T) {
	ctx := context.Background()

	t.Run("scopes to tenant and scans structs", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM crews WHERE business_id = $1 AND status = $2")).
			WithArgs(businessA.String(), "active").
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}).
				AddRow(recordID.String(), businessA.String(), "Acme Crew", "active"))

		rows, err := FetchByBusiness[crewRow](ctx, store, "crews", businessA, nil, FetchOptions{
			Filter: Filter{Where: []Condition{Eq("status", "active")}},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Acme Crew", rows[0].Name)
		assert.Equal(t, businessA.String(), rows[0].BusinessID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM crews WHERE business_id = $1 AND id = $2")).
			WithArgs(businessB.String(), recordID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}))

		rows, err := FetchByBusiness[crewRow](ctx, store, "crews", businessB, nil, FetchOptions{
			Filter: Filter{Where: []Condition{Eq("id", recordID)}},
		})
		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("records", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM crews WHERE business_id = $1 AND name ILIKE $2")).
			WithArgs(businessA.String(), "%FOUNDATION%").
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow([]byte(recordID.String()), "Foundation Team"))

		rows, err := FetchByBusiness[Record](ctx, store, "crews", businessA, []string{"id", "name"}, FetchOptions{
			Filter: Filter{Where: []Condition{ILike("name", "%FOUNDATION%")}},
		})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, Record{"id": recordID.String(), "name": "Foundation Team"}, rows[0])
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("second page", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM crews WHERE business_id = $1 ORDER BY name ASC LIMIT 10 OFFSET 10")).
			WithArgs(businessA.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}))

		rows, err := FetchByBusiness[crewRow](ctx, store, "crews", businessA, nil, FetchOptions{
			OrderBy: &Order{Column: "name"},
			Limit:   10,
			Page:    2,
		})
		require.NoError(t, err)
		assert.Empty(t, rows)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error passes through", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("connection reset")
		mock.ExpectQuery("SELECT").WillReturnError(boom)

		rows, err := FetchByBusiness[crewRow](ctx, store, "crews", businessA, nil, FetchOptions{})
		require.ErrorIs(t, err, boom)
		assert.Nil(t, rows)
	})

	t.Run("missing business", func(t *testing.T) {
		store, _ := newMockStore(t)
		_, err := FetchByBusiness[crewRow](ctx, store, "crews", uuid.Nil, nil, FetchOptions{})
		require.ErrorIs(t, err, ErrMissingBusiness)
	})
}

func TestUninitializedStore(t *testing.T) {
	ctx := context.Background()

	for _, store := range []*Store{nil, NewStore(nil)} {
		rows, err := FetchByBusiness[Record](ctx, store, "crews", businessA, nil, FetchOptions{})
		require.ErrorIs(t, err, ErrStoreUninitialized)
		assert.Nil(t, rows)

		_, err = InsertWithBusiness[Record](ctx, store, "crews", Record{"name": "x"}, businessA, nil, nil)
		require.ErrorIs(t, err, ErrStoreUninitialized)

		_, err = UpdateWithBusinessCheck[Record](ctx, store, "crews", recordID, Record{"name": "x"}, businessA, nil, nil)
		require.ErrorIs(t, err, ErrStoreUninitialized)

		_, err = DeleteWithBusinessCheck(ctx, store, "crews", recordID, businessA)
		require.ErrorIs(t, err, ErrStoreUninitialized)

		err = store.WithTransaction(ctx, func(context.Context) error { return nil })
		require.ErrorIs(t, err, ErrStoreUninitialized)
	}
}

func TestInsertWithBusiness(t *testing.T) {
	ctx := context.Background()
	generated := uuid.Must(uuid.FromString("aaaaaaaa-bbbb-4ccc-8ddd-eeeeeeeeeeee"))

	t.Run("stamps tenant and generated id", func(t *testing.T) {
		store, mock := newMockStore(t, WithIDGenerator(fixedID(generated)))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO crews")).
			WithArgs(businessA.String(), actorID.String(), generated.String(), "Acme Crew", "active", actorID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}).
				AddRow(generated.String(), businessA.String(), "Acme Crew", "active"))

		row, err := InsertWithBusiness[crewRow](ctx, store, "crews", Record{
			"name":        "Acme Crew",
			"status":      "active",
			"business_id": businessB,
		}, businessA, &actorID, nil)
		require.NoError(t, err)
		assert.Equal(t, generated.String(), row.ID)
		assert.Equal(t, businessA.String(), row.BusinessID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("supplied id keeps created_by unset", func(t *testing.T) {
		store, mock := newMockStore(t, WithIDGenerator(func() (uuid.UUID, error) {
			t.Fatal("generator must not run when id is supplied")
			return uuid.Nil, nil
		}))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO crews")).
			WithArgs(businessA.String(), recordID.String(), "Acme Crew", actorID.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}).
				AddRow(recordID.String(), businessA.String(), "Acme Crew", ""))

		row, err := InsertWithBusiness[crewRow](ctx, store, "crews", Record{
			"id":   recordID,
			"name": "Acme Crew",
		}, businessA, &actorID, nil)
		require.NoError(t, err)
		assert.Equal(t, recordID.String(), row.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without actor no audit columns", func(t *testing.T) {
		store, mock := newMockStore(t, WithIDGenerator(fixedID(generated)))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO crews")).
			WithArgs(businessA.String(), generated.String(), "Acme Crew").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(generated.String()))

		row, err := InsertWithBusiness[Record](ctx, store, "crews", Record{"name": "Acme Crew"}, businessA, nil, []string{"id"})
		require.NoError(t, err)
		assert.Equal(t, Record{"id": generated.String()}, row)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("payload is not mutated", func(t *testing.T) {
		store, mock := newMockStore(t, WithIDGenerator(fixedID(generated)))
		mock.ExpectQuery("INSERT INTO crews").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(generated.String()))

		payload := Record{"name": "Acme Crew"}
		_, err := InsertWithBusiness[Record](ctx, store, "crews", payload, businessA, &actorID, []string{"id"})
		require.NoError(t, err)
		assert.Equal(t, Record{"name": "Acme Crew"}, payload)
	})

	t.Run("generated ids are distinct", func(t *testing.T) {
		store, mock := newMockStore(t)
		seen := map[string]bool{}
		for i := 0; i < 2; i++ {
			mock.ExpectQuery("INSERT INTO crews").
				WithArgs(businessA.String(), sqlmock.AnyArg(), "Acme Crew").
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("placeholder"))
		}
		for i := 0; i < 2; i++ {
			var captured string
			gen := func() (uuid.UUID, error) {
				id, err := uuid.NewV4()
				captured = id.String()
				return id, err
			}
			store.newID = gen
			_, err := InsertWithBusiness[Record](ctx, store, "crews", Record{"name": "Acme Crew"}, businessA, nil, []string{"id"})
			require.NoError(t, err)
			require.NotEmpty(t, captured)
			assert.False(t, seen[captured])
			seen[captured] = true
		}
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("constraint violation passes through", func(t *testing.T) {
		store, mock := newMockStore(t, WithIDGenerator(fixedID(generated)))
		boom := errors.New("duplicate key value violates unique constraint")
		mock.ExpectQuery("INSERT INTO crews").WillReturnError(boom)

		_, err := InsertWithBusiness[Record](ctx, store, "crews", Record{"name": "Acme Crew"}, businessA, nil, nil)
		require.ErrorIs(t, err, boom)
	})
}

func TestUpdateWithBusinessCheck(t *testing.T) {
	ctx := context.Background()
	checkSQL := regexp.QuoteMeta("SELECT id FROM crews WHERE (id = $1 AND business_id = $2) LIMIT 1")

	t.Run("updates owned row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(checkSQL).
			WithArgs(recordID.String(), businessA.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(recordID.String()))
		mock.ExpectQuery(regexp.QuoteMeta("UPDATE crews SET name = $1, updated_by = $2 WHERE (id = $3 AND business_id = $4) RETURNING *")).
			WithArgs("Framing Crew", actorID.String(), recordID.String(), businessA.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}).
				AddRow(recordID.String(), businessA.String(), "Framing Crew", "active"))

		row, err := UpdateWithBusinessCheck[crewRow](ctx, store, "crews", recordID, Record{
			"name":        "Framing Crew",
			"id":          uuid.Must(uuid.NewV4()),
			"business_id": businessB,
			"updated_by":  businessB,
		}, businessA, &actorID, nil)
		require.NoError(t, err)
		assert.Equal(t, "Framing Crew", row.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cross tenant update is rejected before mutating", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		metrics := observability.NewQueryMetrics(reg)
		store, mock := newMockStore(t, WithMetrics(metrics))
		mock.ExpectQuery(checkSQL).
			WithArgs(recordID.String(), businessB.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := UpdateWithBusinessCheck[crewRow](ctx, store, "crews", recordID, Record{"name": "hacked"}, businessB, &actorID, nil)
		require.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "record not found or does not belong to this business")
		require.NoError(t, mock.ExpectationsWereMet())

		count, err := testutil.GatherAndCount(reg, "fieldcrew_db_queries_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("check error is propagated without mutating", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("timeout")
		mock.ExpectQuery(checkSQL).WillReturnError(boom)

		_, err := UpdateWithBusinessCheck[crewRow](ctx, store, "crews", recordID, Record{"name": "x"}, businessA, nil, nil)
		require.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row vanished between phases", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(checkSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(recordID.String()))
		mock.ExpectQuery("UPDATE crews").
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}))

		_, err := UpdateWithBusinessCheck[crewRow](ctx, store, "crews", recordID, Record{"name": "x"}, businessA, nil, nil)
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("empty payload returns current row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(checkSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(recordID.String()))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM crews WHERE (id = $1 AND business_id = $2) LIMIT 1")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}).
				AddRow(recordID.String(), businessA.String(), "Acme Crew", "active"))

		row, err := UpdateWithBusinessCheck[crewRow](ctx, store, "crews", recordID, Record{"id": recordID}, businessA, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "Acme Crew", row.Name)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteWithBusinessCheck(t *testing.T) {
	ctx := context.Background()
	checkSQL := regexp.QuoteMeta("SELECT id FROM crews WHERE (id = $1 AND business_id = $2) LIMIT 1")
	deleteSQL := regexp.QuoteMeta("DELETE FROM crews WHERE (id = $1 AND business_id = $2)")

	t.Run("deletes owned row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(checkSQL).
			WithArgs(recordID.String(), businessA.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(recordID.String()))
		mock.ExpectExec(deleteSQL).
			WithArgs(recordID.String(), businessA.String()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := DeleteWithBusinessCheck(ctx, store, "crews", recordID, businessA)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cross tenant delete is rejected", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(checkSQL).
			WithArgs(recordID.String(), businessB.String()).
			WillReturnError(sql.ErrNoRows)

		n, err := DeleteWithBusinessCheck(ctx, store, "crews", recordID, businessB)
		require.ErrorIs(t, err, ErrNotFound)
		assert.Zero(t, n)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows affected", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(checkSQL).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(recordID.String()))
		mock.ExpectExec(deleteSQL).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := DeleteWithBusinessCheck(ctx, store, "crews", recordID, businessA)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestExistsByBusiness(t *testing.T) {
	ctx := context.Background()
	checkSQL := regexp.QuoteMeta("SELECT id FROM crews WHERE (id = $1 AND business_id = $2) LIMIT 1")

	t.Run("owned row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(checkSQL).
			WithArgs(recordID.String(), businessA.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(recordID.String()))

		require.NoError(t, ExistsByBusiness(ctx, store, "crews", recordID, businessA))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("row of another business", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(checkSQL).
			WithArgs(recordID.String(), businessB.String()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		err := ExistsByBusiness(ctx, store, "crews", recordID, businessB)
		require.ErrorIs(t, err, ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing business", func(t *testing.T) {
		store, _ := newMockStore(t)
		err := ExistsByBusiness(ctx, store, "crews", recordID, uuid.Nil)
		require.ErrorIs(t, err, ErrMissingBusiness)
	})
}

func TestWithTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM invoice_items WHERE business_id = $1 AND invoice_id = $2")).
			WithArgs(businessA.String(), recordID.String()).
			WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectCommit()

		err := store.WithTransaction(ctx, func(txCtx context.Context) error {
			exec, err := store.Executor(txCtx)
			require.NoError(t, err)
			_, isTx := exec.(*sqlx.Tx)
			assert.True(t, isTx)

			return store.WithTransaction(txCtx, func(inner context.Context) error {
				n, err := DeleteWhereByBusiness(inner, store, "invoice_items", businessA, Filter{Where: []Condition{Eq("invoice_id", recordID)}})
				assert.Equal(t, int64(3), n)
				return err
			})
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("numbering failed")
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := store.WithTransaction(ctx, func(context.Context) error { return boom })
		require.ErrorIs(t, err, boom)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountByBusiness(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM clients WHERE business_id = $1")).
		WithArgs(businessA.String()).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := CountByBusiness(context.Background(), store, "clients", businessA, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
}

func TestTable(t *testing.T) {
	store, mock := newMockStore(t)
	crews := NewTable[crewRow](store, "crews", "id", "business_id", "name", "status")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, business_id, name, status FROM crews WHERE (id = $1 AND business_id = $2) LIMIT 1")).
		WithArgs(recordID.String(), businessA.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "status"}))

	_, err := crews.Get(context.Background(), recordID, businessA)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "crews", crews.Name())
	require.NoError(t, mock.ExpectationsWereMet())
}
