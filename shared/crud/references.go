package crud

import (
	"context"
	"errors"
	"reflect"

	uuid "github.com/gofrs/uuid"

	"github.com/fieldcrew/api/internal/database/tenant"
	sharederrors "github.com/fieldcrew/api/shared/errors"
)

// Reference names a record column holding the id of a row in Table
type Reference struct {
	Column string
	Table  string
}

// Referencer looks up rows of other tenant tables
type Referencer interface {
	Exists(ctx context.Context, table string, id, businessID uuid.UUID) error
}

// CheckReferences verifies that every non-null reference in rec points at a
// row owned by businessID. Foreign keys only cover the id, so a row of
// another business would otherwise be accepted. Missing and foreign rows
// fail the same way. Run it in the transaction that writes rec.
func CheckReferences(ctx context.Context, r Referencer, businessID uuid.UUID, rec tenant.Record, refs ...Reference) error {
	for _, ref := range refs {
		v, ok := rec[ref.Column]
		if !ok || IsNull(v) {
			continue
		}
		id, err := referenceID(v)
		if err != nil {
			return sharederrors.Validation("%s must be a valid UUID", ref.Column)
		}
		err = r.Exists(ctx, ref.Table, id, businessID)
		if errors.Is(err, tenant.ErrNotFound) {
			return sharederrors.Validation("%s does not reference an existing record", ref.Column)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// IsNull reports whether v is nil or a nil pointer
func IsNull(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

func referenceID(v interface{}) (uuid.UUID, error) {
	switch id := v.(type) {
	case uuid.UUID:
		return id, nil
	case *uuid.UUID:
		return *id, nil
	case string:
		return uuid.FromString(id)
	case *string:
		return uuid.FromString(*id)
	}
	return uuid.Nil, errors.New("unsupported reference value")
}
