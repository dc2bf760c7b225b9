// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fieldcrew/api/internal/pkg/log"
)

const orKey = "or"

var descriptorOps = map[string]Op{
	"eq":    OpEq,
	"neq":   OpNeq,
	"gt":    OpGt,
	"gte":   OpGte,
	"lt":    OpLt,
	"lte":   OpLte,
	"ilike": OpILike,
	"in":    OpIn,
}

// ParseFilter converts a loose JSON filter descriptor into a Filter.
//
//	{"status": "active", "archived_at": null, "due_date": {"lt": "2025-01-01"},
//	 "or": [{"status": "draft"}, {"status": "sent"}]}
//
// Unknown operators and malformed "in" values are logged and skipped.
func ParseFilter(ctx context.Context, raw []byte) (Filter, error) {
	var f Filter
	if len(strings.TrimSpace(string(raw))) == 0 {
		return f, nil
	}

	var desc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &desc); err != nil {
		return f, fmt.Errorf("invalid filter descriptor: %w", err)
	}

	if rawOr, ok := desc[orKey]; ok {
		var group []map[string]json.RawMessage
		if err := json.Unmarshal(rawOr, &group); err != nil {
			return f, fmt.Errorf("invalid or-group: %w", err)
		}
		for _, sub := range group {
			for _, column := range sortedKeys(sub) {
				conds, err := parseEntry(ctx, column, sub[column])
				if err != nil {
					return f, err
				}
				// an or-member is a single condition
				if len(conds) > 0 {
					f.Or = append(f.Or, conds[0])
				}
			}
		}
		delete(desc, orKey)
	}

	for _, column := range sortedKeys(desc) {
		conds, err := parseEntry(ctx, column, desc[column])
		if err != nil {
			return f, err
		}
		f.Where = append(f.Where, conds...)
	}
	return f, nil
}

func parseEntry(ctx context.Context, column string, raw json.RawMessage) ([]Condition, error) {
	var value interface{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("invalid value for %q: %w", column, err)
	}

	switch v := value.(type) {
	case nil:
		return []Condition{IsNull(column)}, nil
	case map[string]interface{}:
		conds := make([]Condition, 0, len(v))
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			op, ok := descriptorOps[key]
			if !ok {
				log.WarnWithContext(ctx, "unsupported filter operator %q on column %q, skipping", key, column)
				continue
			}
			operand := v[key]
			if op == OpIn {
				if _, isList := operand.([]interface{}); !isList {
					log.WarnWithContext(ctx, "filter operator \"in\" on column %q requires an array, skipping", column)
					continue
				}
			}
			conds = append(conds, Condition{Column: column, Op: op, Value: operand})
		}
		return conds, nil
	default:
		return []Condition{Eq(column, v)}, nil
	}
}

// ParseOrder parses "column" or "column.asc|desc". An empty string yields nil.
func ParseOrder(spec string) (*Order, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}
	column, direction, _ := strings.Cut(spec, ".")
	if !validIdentifier(column) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, column)
	}
	switch strings.ToLower(direction) {
	case "", "asc":
		return &Order{Column: column}, nil
	case "desc":
		return &Order{Column: column, Descending: true}, nil
	default:
		return nil, fmt.Errorf("invalid sort direction %q", direction)
	}
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
