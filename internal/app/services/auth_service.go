package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	"github.com/yigit/aiinfocenter/internal/app/repositories"
	"github.com/yigit/aiinfocenter/internal/pkg/apperrors"
	"github.com/yigit/aiinfocenter/internal/pkg/auth"
)

// Auth error messages shown to clients
const (
	msgRoleRequired       = "role is required"
	msgRoleInvalid        = "role must be STUDENT / ADMIN"
	msgEmailExists        = "email already exists"
	msgInvalidCredentials = "invalid email or password"
)

// StudentFieldValidator checks faculty and year of study for new students
type StudentFieldValidator interface {
	ValidateStudentFields(faculty string, yearOfStudy *int) error
}

// AuthService handles registration and credential checks
type AuthService struct {
	tx          repositories.Transactor
	userRepo    repositories.IUserRepository
	studentRepo repositories.IStudentProfileRepository
	validator   StudentFieldValidator
	hasher      *auth.PasswordHasher
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	tx repositories.Transactor,
	userRepo repositories.IUserRepository,
	studentRepo repositories.IStudentProfileRepository,
	validator StudentFieldValidator,
	hasher *auth.PasswordHasher,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		tx:          tx,
		userRepo:    userRepo,
		studentRepo: studentRepo,
		validator:   validator,
		hasher:      hasher,
		logger:      logger,
	}
}

// Register creates a user and, for students, the linked profile in one
// transaction.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.User, error) {
	if strings.TrimSpace(req.Role) == "" {
		return nil, apperrors.NewInvalidArgumentError(msgRoleRequired)
	}
	role, ok := models.ParseRole(req.Role)
	if !ok {
		return nil, apperrors.NewInvalidArgumentError(msgRoleInvalid)
	}

	email := normalizeEmail(req.Email)
	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		s.logger.Debug().Str("email", email).Msg("Registration rejected, email already exists")
		return nil, apperrors.NewInvalidArgumentError(msgEmailExists)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: hash,
		Role:     role,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, apperrors.ErrResourceAlreadyExists) {
				return apperrors.NewInvalidArgumentError(msgEmailExists)
			}
			return err
		}

		if role != models.RoleStudent {
			return nil
		}

		if err := s.validator.ValidateStudentFields(req.Faculty, req.YearOfStudy); err != nil {
			return err
		}
		return s.studentRepo.Create(ctx, &models.StudentProfile{
			UserID:      user.ID,
			Faculty:     strings.TrimSpace(req.Faculty),
			YearOfStudy: *req.YearOfStudy,
		})
	})
	if err != nil {
		if !apperrors.IsInvalidArgument(err) {
			s.logger.Error().Err(err).Str("email", email).Msg("Failed to register user")
		}
		return nil, err
	}

	s.logger.Info().Int64("userID", user.ID).Str("role", string(role)).Msg("User registered")
	return user, nil
}

// Login checks credentials and returns the matching user. Unknown email and
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*models.User, error) {
	return s.Authenticate(ctx, req.Email, req.Password)
}

// Authenticate verifies an email and password pair
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Debug().Str("email", email).Msg("Login failed, account does not exist")
			return nil, apperrors.NewInvalidArgumentError(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !s.hasher.Matches(user.Password, password) {
		s.logger.Debug().Int64("userID", user.ID).Msg("Login failed, incorrect password")
		return nil, apperrors.NewInvalidArgumentError(msgInvalidCredentials)
	}

	return user, nil
}

// GetProfile returns the user with the student profile attached for students
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*dto.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &dto.UserProfile{UserResponse: dto.NewUserResponse(user)}
	if user.IsStudent() {
		student, err := s.studentRepo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		profile.Faculty = student.Faculty
		profile.YearOfStudy = student.YearOfStudy
	}
	return profile, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
