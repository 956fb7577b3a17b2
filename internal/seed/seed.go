package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	appModels "github.com/yigit/aiinfocenter/internal/app/models"
	"github.com/yigit/aiinfocenter/internal/app/models/dto"
	appRepos "github.com/yigit/aiinfocenter/internal/app/repositories"
	"github.com/yigit/aiinfocenter/internal/config"
)

// Registrar registers new accounts
type Registrar interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*appModels.User, error)
}

// CreateDefaultAdmin registers the configured admin account when it does not
// exist yet. It is a no-op when no admin email or password is configured.
func CreateDefaultAdmin(ctx context.Context, cfg config.SeedConfig, users appRepos.IUserRepository, registrar Registrar, lgr zerolog.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		lgr.Debug().Msg("No default admin configured, skipping seed")
		return nil
	}

	exists, err := users.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check default admin: %w", err)
	}
	if exists {
		lgr.Debug().Str("email", email).Msg("Default admin already exists")
		return nil
	}

	admin, err := registrar.Register(ctx, &dto.RegisterRequest{
		Name:     cfg.AdminName,
		Email:    email,
		Password: cfg.AdminPassword,
		Role:     string(appModels.RoleAdmin),
	})
	if err != nil {
		return fmt.Errorf("failed to create default admin: %w", err)
	}

	lgr.Info().Int64("userID", admin.ID).Str("email", email).Msg("Default admin created")
	return nil
}
