// Package listing turns list query strings into tenant fetch options.
package listing

import (
	"context"
	"math"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	uuid "github.com/gofrs/uuid"
	"github.com/gorilla/schema"

	"github.com/fieldcrew/api/internal/database/tenant"
	sharederrors "github.com/fieldcrew/api/shared/errors"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.ZeroEmpty(true)
	return d
}

// Query holds the parameters shared by every list endpoint
type Query struct {
	Page   int    `schema:"page"`
	Limit  int    `schema:"limit"`
	Sort   string `schema:"sort"`
	Order  string `schema:"order"`
	Search string `schema:"search"`
	Filter string `schema:"filter"`
}

// Spec describes what a module allows its callers to sort and search by
type Spec struct {
	Sortable    []string
	Search      []string
	DefaultSort *tenant.Order
}

// ListResponse is the envelope returned by list endpoints
type ListResponse[T any] struct {
	Data  []T   `json:"data"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

// Values returns the request query string as url.Values
func Values(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

// Decode fills dst, a struct with schema tags, from values
func Decode(dst interface{}, values url.Values) error {
	if err := decoder.Decode(dst, values); err != nil {
		return sharederrors.Validation("invalid query: %v", err)
	}
	return nil
}

// Parse decodes the shared list parameters from the request
func Parse(c *fiber.Ctx) (Query, error) {
	var q Query
	err := Decode(&q, Values(c))
	return q, err
}

// Normalize applies paging defaults
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Options builds the fetch options for q. Module specific conditions in
// extra are added to the conjunctive part of the filter.
func (q Query) Options(ctx context.Context, spec Spec, extra ...tenant.Condition) (tenant.FetchOptions, error) {
	q = q.Normalize()
	opts := tenant.FetchOptions{Limit: q.Limit, Page: q.Page, OrderBy: spec.DefaultSort}
	if q.Page-1 > math.MaxInt/q.Limit {
		return opts, sharederrors.Validation("page %d is out of range", q.Page)
	}

	if strings.TrimSpace(q.Filter) != "" {
		f, err := tenant.ParseFilter(ctx, []byte(q.Filter))
		if err != nil {
			return opts, sharederrors.Validation("filter: %v", err)
		}
		opts.Filter = f
	}
	opts.Filter = opts.Filter.And(extra...)

	if term := strings.TrimSpace(q.Search); term != "" && len(spec.Search) > 0 {
		pattern := "%" + escapeLike(term) + "%"
		if len(spec.Search) == 1 {
			opts.Filter = opts.Filter.And(tenant.ILike(spec.Search[0], pattern))
		} else {
			if len(opts.Filter.Or) > 0 {
				return opts, sharederrors.Validation("search cannot be combined with an or filter")
			}
			conds := make([]tenant.Condition, 0, len(spec.Search))
			for _, column := range spec.Search {
				conds = append(conds, tenant.ILike(column, pattern))
			}
			opts.Filter = opts.Filter.AnyOf(conds...)
		}
	}

	if q.Sort != "" {
		if !contains(spec.Sortable, q.Sort) {
			return opts, sharederrors.Validation("cannot sort by %q", q.Sort)
		}
		order := &tenant.Order{Column: q.Sort}
		switch strings.ToLower(q.Order) {
		case "", "asc":
		case "desc":
			order.Descending = true
		default:
			return opts, sharederrors.Validation("order must be asc or desc")
		}
		opts.OrderBy = order
	}

	return opts, nil
}

// Response wraps one page of rows
func Response[T any](rows []T, q Query, total int64) ListResponse[T] {
	q = q.Normalize()
	if rows == nil {
		rows = []T{}
	}
	return ListResponse[T]{Data: rows, Page: q.Page, Limit: q.Limit, Total: total}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Equals returns an equality condition when value is set
func Equals(column, value string) []tenant.Condition {
	if value == "" {
		return nil
	}
	return []tenant.Condition{tenant.Eq(column, value)}
}

// Reference parses an id valued query parameter. The literal "null"
// matches rows without a reference.
func Reference(column, raw string) ([]tenant.Condition, error) {
	switch raw {
	case "":
		return nil, nil
	case "null":
		return []tenant.Condition{tenant.IsNull(column)}, nil
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		return nil, sharederrors.Validation("%s must be a uuid or null", column)
	}
	return []tenant.Condition{tenant.Eq(column, id.String())}, nil
}
