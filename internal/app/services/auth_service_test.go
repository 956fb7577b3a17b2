package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
)

func TestRegisterRoleValidation(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		wantErr string
	}{
		{name: "blank", role: "   ", wantErr: "role is required"},
		{name: "unknown", role: "TEACHER", wantErr: "role must be STUDENT / ADMIN"},
		{name: "typo", role: "studnet", wantErr: "role must be STUDENT / ADMIN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.auth.Register(context.Background(), &dto.RegisterRequest{
				Name: "Ana", Email: "ana@x.com", Password: "pw", Role: tt.role,
			})
			requireInvalidArgument(t, err, tt.wantErr)

			exists, err := f.repos.UserRepository.EmailExists(context.Background(), "ana@x.com")
			require.NoError(t, err)
			assert.False(t, exists)
		})
	}
}

func TestRegisterStudentCreatesProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.auth.Register(ctx, &dto.RegisterRequest{
		Name: "Ana", Email: " Ana@X.com ", Password: "pw", Role: " student ", Faculty: "CS", YearOfStudy: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	assert.Equal(t, "ana@x.com", user.Email)
	assert.NotEqual(t, "pw", user.Password)

	profile, err := f.repos.StudentRepository.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS", profile.Faculty)
	assert.Equal(t, 2, profile.YearOfStudy)
}

func TestRegisterAdminHasNoProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin := f.registerAdmin(t, "boss@x.com")
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, err := f.repos.StudentRepository.GetByUserID(ctx, admin.ID)
	assert.True(t, errors.Is(err, apperrors.ErrResourceNotFound))
}

func TestRegisterInvalidStudentFieldsRollsBackUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, &dto.RegisterRequest{
		Name: "Ana", Email: "ana@x.com", Password: "pw", Role: "STUDENT", Faculty: "CS", YearOfStudy: intPtr(9),
	})
	requireInvalidArgument(t, err, "yearOfStudy must be between 1 and 6")

	exists, err := f.repos.UserRepository.EmailExists(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.False(t, exists, "user insert must roll back with the profile")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.registerStudent(t, "Ana", "ana@x.com")

	_, err := f.auth.Register(ctx, &dto.RegisterRequest{
		Name: "Ana Again", Email: "ana@x.com", Password: "other", Role: "ADMIN",
	})
	requireInvalidArgument(t, err, "email already exists")

	user, err := f.repos.UserRepository.GetByEmail(ctx, "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, user.ID)
	assert.Equal(t, models.RoleStudent, user.Role)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")

	user, err := f.auth.Login(ctx, &dto.LoginRequest{Email: "ana@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, ana.ID, user.ID)

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "ana@x.com", Password: "wrong"})
	requireInvalidArgument(t, err, "invalid email or password")

	_, err = f.auth.Login(ctx, &dto.LoginRequest{Email: "ghost@x.com", Password: "pw"})
	requireInvalidArgument(t, err, "invalid email or password")
}

func TestGetProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.registerStudent(t, "Ana", "ana@x.com")
	admin := f.registerAdmin(t, "boss@x.com")

	profile, err := f.auth.GetProfile(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, "CS", profile.Faculty)
	assert.Equal(t, 2, profile.YearOfStudy)

	profile, err = f.auth.GetProfile(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, profile.Faculty)
	assert.Equal(t, models.RoleAdmin, profile.Role)
}
