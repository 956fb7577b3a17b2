package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/aiinfocenter/internal/app/controllers"
	appMigrations "github.com/yigit/aiinfocenter/internal/app/migrations"
	appRepos "github.com/yigit/aiinfocenter/internal/app/repositories"
	"github.com/yigit/aiinfocenter/internal/app/repositories/memory"
	appRoutes "github.com/yigit/aiinfocenter/internal/app/routes"
	appServices "github.com/yigit/aiinfocenter/internal/app/services"
	"github.com/yigit/aiinfocenter/internal/config"
	"github.com/yigit/aiinfocenter/internal/db"
	appMiddleware "github.com/yigit/aiinfocenter/internal/middleware"
	"github.com/yigit/aiinfocenter/internal/pkg/aiclient"
	pkgAuth "github.com/yigit/aiinfocenter/internal/pkg/auth"
	"github.com/yigit/aiinfocenter/internal/pkg/email"
	"github.com/yigit/aiinfocenter/internal/pkg/filestorage"
	"github.com/yigit/aiinfocenter/internal/pkg/helpers"
	"github.com/yigit/aiinfocenter/internal/pkg/logger"
	"github.com/yigit/aiinfocenter/internal/pkg/validation"
	"github.com/yigit/aiinfocenter/internal/pkg/websocket"
	"github.com/yigit/aiinfocenter/internal/seed"
)

// DefaultConfigPath is read when no --config flag is given
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// staticFiles are the frontend assets served from server.static_dir
var staticFiles = map[string]string{
	"/":           "index.html",
	"/index.html": "index.html",
	"/app.js":     "app.js",
	"/style.css":  "style.css",
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos        *appRepos.Repositories
	Services     *appServices.Services
	Controllers  appRoutes.Controllers
	AccessPolicy *appMiddleware.AccessPolicy
	FileStorage  *filestorage.LocalStorage
	Hub          *websocket.Hub
	Logger       zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: logger.ParseFormat(cfg.Logging.Format),
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// ConnectDatabase opens and pings the Postgres pool. It returns nil for the
// memory driver.
func ConnectDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using in-memory storage, data is lost on restart")
		return nil, nil
	}

	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.Ping(pingCtx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// RunMigrations applies the SQL files of database.migrations_dir.
func RunMigrations(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); err != nil {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	migrator := appMigrations.NewMigrator(database.Pool, lgr.With().Str("component", "migrator").Logger())
	applied, err := migrator.MigrateFromDirectory(ctx, migrationsDir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Int("applied", applied).Msg("Database migrations complete")
	return nil
}

// SetupDatabase connects to the configured store and migrates Postgres.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	database, err := ConnectDatabase(ctx, cfg, lgr)
	if err != nil || database == nil {
		return database, err
	}
	if err := RunMigrations(ctx, cfg, database, lgr); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// NewAIClient builds the text service selected by the ai section.
func NewAIClient(cfg *config.Config) (aiclient.TextService, error) {
	return aiclient.New(aiclient.Config{
		Provider:     cfg.AI.Provider,
		WebhookURL:   cfg.AI.WebhookURL,
		Model:        cfg.AI.Model,
		APIKey:       cfg.AI.APIKey,
		ServerURL:    cfg.AI.ServerURL,
		Timeout:      AITimeout(cfg),
		SystemPrompt: cfg.AI.SystemPrompt,
	})
}

// AITimeout is the per-call budget of the AI service
func AITimeout(cfg *config.Config) time.Duration {
	return helpers.ParseDuration(cfg.AI.Timeout, appServices.DefaultAITimeout)
}

// NewNotifier builds the request notifier from the smtp section
func NewNotifier(cfg *config.Config, lgr zerolog.Logger) email.Notifier {
	return email.NewSMTPNotifier(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
	}, lgr.With().Str("component", "mailer").Logger())
}

// BuildDependencies initializes application repositories, services, and
// controllers. A nil database selects the in-memory repositories. The live
// chat hub runs until ctx is done.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if database != nil {
		deps.Repos = appRepos.NewRepositories(database)
	} else {
		deps.Repos = memory.NewRepositories()
	}

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	ai, err := NewAIClient(cfg)
	if err != nil {
		lgr.Error().Err(err).Str("provider", cfg.AI.Provider).Msg("Failed to initialize AI client")
		return nil, fmt.Errorf("failed to initialize ai client: %w", err)
	}

	deps.Services = appServices.NewServices(appServices.Dependencies{
		Repos:     deps.Repos,
		Validator: validation.NewStudentFieldValidator(),
		Hasher:    pkgAuth.NewPasswordHasher(cfg.Auth.BcryptCost),
		AI:        ai,
		AITimeout: AITimeout(cfg),
		Storage:   deps.FileStorage,
		Notifier:  NewNotifier(cfg, lgr),
		Logger:    lgr,
	})

	if err := seed.CreateDefaultAdmin(ctx, cfg.Seed, deps.Repos.UserRepository, deps.Services.Auth, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}

	deps.AccessPolicy = appMiddleware.NewAccessPolicy(appMiddleware.DefaultRules, deps.Services.Auth, cfg.Auth.Realm)

	deps.Hub = websocket.NewHub(lgr.With().Str("component", "livechat").Logger())
	go deps.Hub.Run(ctx)

	var health appControllers.Pinger
	if database != nil {
		health = database
	}
	requestController := appControllers.NewRequestController(deps.Services.Request, deps.Services.Attachment,
		helpers.Megabytes(cfg.Server.MaxUploadMB), lgr)
	deps.Controllers = appRoutes.Controllers{
		Auth:         appControllers.NewAuthController(deps.Services.Auth, lgr),
		Conversation: appControllers.NewConversationController(deps.Services.Conversation),
		Request:      requestController,
		Health:       appControllers.NewHealthController(health),
		LiveChat:     websocket.NewHandler(deps.Hub, deps.Services.Conversation, cfg.CORS.AllowedOrigins, lgr),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(appMiddleware.RequestLogger(lgr))
	router.Use(cors.New(corsConfig(cfg)))
	router.Use(deps.AccessPolicy.Handler())

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Controllers)
	setupStaticFileServing(router, cfg, lgr)

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", appMiddleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           helpers.ParseDuration(cfg.CORS.MaxAge, 12*time.Hour),
	}
	for _, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			corsCfg.AllowAllOrigins = true
			corsCfg.AllowCredentials = false
			return corsCfg
		}
	}
	corsCfg.AllowOrigins = cfg.CORS.AllowedOrigins
	return corsCfg
}

// setupStaticFileServing serves the chat frontend when server.static_dir is set
func setupStaticFileServing(router *gin.Engine, cfg *config.Config, lgr zerolog.Logger) {
	dir := cfg.Server.StaticDir
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); err != nil {
		lgr.Warn().Err(err).Str("path", dir).Msg("Static directory not found, frontend disabled")
		return
	}

	for route, file := range staticFiles {
		router.StaticFile(route, filepath.Join(dir, file))
	}
	lgr.Info().Str("path", dir).Msg("Static file serving configured")
}
