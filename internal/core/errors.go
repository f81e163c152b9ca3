package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error kinds. Callers classify with errors.Is; anything else is an internal failure.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("conflict")
)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError with a single offending field.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Message: "invalid input", Fields: map[string]string{field: msg}}
}

// fieldErrors collects field errors while checking an input struct.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Message: "invalid input", Fields: f}
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func insufficientStockf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInsufficientStock, fmt.Sprintf(format, args...))
}

// isUniqueViolation reports whether err is a Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isCheckViolation reports whether err is a Postgres check_violation (23514).
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23514"
}

// isNumericOverflow reports whether err is a Postgres numeric_value_out_of_range (22003).
func isNumericOverflow(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22003"
}

// insertError wraps a failed insert. Values too large for their column are the
// caller's fault and come back as a ValidationError.
func insertError(what string, err error) error {
	if isNumericOverflow(err) {
		return &ValidationError{Message: fmt.Sprintf("%s has an amount or quantity that is too large", what)}
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}
