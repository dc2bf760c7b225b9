// Package validate checks create requests and partial update records.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fieldcrew/api/internal/database/tenant"
	sharederrors "github.com/fieldcrew/api/shared/errors"
)

// DateLayout is the wire format of DATE columns
const DateLayout = "2006-01-02"

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Kind is the JSON type a column accepts
type Kind int

const (
	String Kind = iota
	Number
	Bool
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Bool:
		return "boolean"
	default:
		return "string"
	}
}

// Rule constrains one column of a partial update. Tag uses validator syntax.
type Rule struct {
	Kind     Kind
	Tag      string
	Nullable bool
}

// Struct validates a decoded create request
func Struct(s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return sharederrors.Validation("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe.Field(), fe))
	}
	return sharederrors.Validation("%s", strings.Join(msgs, "; "))
}

// Record validates the columns present in rec against rules. Columns
// without a rule are left alone.
func Record(rec tenant.Record, rules map[string]Rule) error {
	columns := make([]string, 0, len(rec))
	for column := range rec {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	for _, column := range columns {
		rule, ok := rules[column]
		if !ok {
			continue
		}
		value := rec[column]
		if value == nil {
			if !rule.Nullable {
				return sharederrors.Validation("%s cannot be null", column)
			}
			continue
		}
		if !kindOf(value, rule.Kind) {
			return sharederrors.Validation("%s must be a %s", column, rule.Kind)
		}
		if rule.Tag == "" {
			continue
		}
		if err := v.Var(value, rule.Tag); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				return sharederrors.Validation("%s", describe(column, verrs[0]))
			}
			return sharederrors.Validation("%s: %v", column, err)
		}
	}
	return nil
}

func kindOf(value interface{}, kind Kind) bool {
	switch kind {
	case Number:
		switch value.(type) {
		case float64, float32, int, int64, int32:
			return true
		}
		return false
	case Bool:
		_, ok := value.(bool)
		return ok
	default:
		_, ok := value.(string)
		return ok
	}
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "uuid":
		return fmt.Sprintf("%s must be a uuid", field)
	case "datetime":
		return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field)
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gtfield", "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, strings.ToLower(fe.Param()))
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}
