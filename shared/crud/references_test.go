package crud

import (
	"context"
	"errors"
	"fmt"
	"testing"

	uuid "github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldcrew/api/internal/database/tenant"
	sharederrors "github.com/fieldcrew/api/shared/errors"
)

func TestCheckReferences(t *testing.T) {
	ctx := context.Background()
	crewID := uuid.Must(uuid.FromString("5b6c7d8e-9f0a-4b1c-8d2e-3f405162738a"))
	refs := []Reference{{Column: "crew_id", Table: "crews"}, {Column: "lead_id", Table: "users"}}

	t.Run("owned reference", func(t *testing.T) {
		repo := &MockRepository[note]{}
		repo.On("Exists", ctx, "crews", crewID, business).Return(nil)

		err := CheckReferences(ctx, repo, business, tenant.Record{"crew_id": crewID.String()}, refs...)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("reference of another business", func(t *testing.T) {
		repo := &MockRepository[note]{}
		repo.On("Exists", ctx, "crews", crewID, business).
			Return(fmt.Errorf("failed to look up crews: %w", tenant.ErrNotFound))

		err := CheckReferences(ctx, repo, business, tenant.Record{"crew_id": crewID.String()}, refs...)
		require.True(t, errors.Is(err, sharederrors.ErrValidation))
		assert.Contains(t, err.Error(), "crew_id")
	})

	t.Run("null and absent references are skipped", func(t *testing.T) {
		var none *string
		repo := &MockRepository[note]{}

		err := CheckReferences(ctx, repo, business, tenant.Record{"crew_id": nil, "lead_id": none}, refs...)
		require.NoError(t, err)
		repo.AssertNotCalled(t, "Exists")
	})

	t.Run("malformed id", func(t *testing.T) {
		err := CheckReferences(ctx, &MockRepository[note]{}, business, tenant.Record{"lead_id": "bob"}, refs...)
		assert.True(t, errors.Is(err, sharederrors.ErrValidation))
	})

	t.Run("driver errors pass through", func(t *testing.T) {
		boom := errors.New("connection reset")
		repo := &MockRepository[note]{}
		repo.On("Exists", ctx, "crews", crewID, business).Return(boom)

		err := CheckReferences(ctx, repo, business, tenant.Record{"crew_id": crewID}, refs...)
		assert.ErrorIs(t, err, boom)
		assert.False(t, errors.Is(err, sharederrors.ErrValidation))
	})
}
