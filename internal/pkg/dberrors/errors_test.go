package dberrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateConstraintError(t *testing.T) {
	dup := &pgconn.PgError{Code: UniqueViolation, ConstraintName: "users_email_key"}

	assert.True(t, IsDuplicateConstraintError(dup, "users_email_key"))
	assert.True(t, IsDuplicateConstraintError(fmt.Errorf("insert user: %w", dup), "users_email_key"))
	assert.False(t, IsDuplicateConstraintError(dup, "student_profiles_user_id_key"))
	assert.False(t, IsDuplicateConstraintError(&pgconn.PgError{Code: "23503", ConstraintName: "users_email_key"}, "users_email_key"))
	assert.False(t, IsDuplicateConstraintError(errors.New("boom"), "users_email_key"))
}
