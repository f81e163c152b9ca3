package app

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"rice-mill/internal/core"
)

const dateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names so messages match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// validateRequest runs struct validation and converts failures to a core.ValidationError.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate request: %w", err)
	}
	return &core.ValidationError{Message: "invalid input", Fields: processValidationErrors(verrs)}
}

// processValidationErrors maps each failing field to a readable message.
func processValidationErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = tagMessage(fe)
	}
	return out
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "ne":
		return "must not be " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	default:
		return fe.Tag()
	}
}

// parseDate parses an optional YYYY-MM-DD value. Empty yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, core.NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// parseDateRange parses optional from/to bounds and rejects inverted ranges.
func parseDateRange(from, to string) (core.DateRange, error) {
	var period core.DateRange
	f, err := parseDate("from", from)
	if err != nil {
		return period, err
	}
	t, err := parseDate("to", to)
	if err != nil {
		return period, err
	}
	if !f.IsZero() {
		period.From = &f
	}
	if !t.IsZero() {
		period.To = &t
	}
	if period.From != nil && period.To != nil && period.To.Before(*period.From) {
		return period, core.NewValidationError("to", "must not be before from")
	}
	return period, nil
}
