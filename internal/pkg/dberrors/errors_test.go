package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "unique_enrollment"}

	assert.True(t, IsDuplicateConstraintError(err, "unique_enrollment"))
	assert.False(t, IsDuplicateConstraintError(err, "unique_waitlist"))

	wrapped := fmt.Errorf("error executing query: %w", err)
	assert.True(t, IsDuplicateConstraintError(wrapped, "unique_enrollment"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505", ConstraintName: "unique_submission"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("connection refused")))
}
