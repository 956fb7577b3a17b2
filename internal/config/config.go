package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Supported AI providers
const (
	AIProviderWebhook   = "webhook"
	AIProviderOllama    = "ollama"
	AIProviderOpenAI    = "openai"
	AIProviderAnthropic = "anthropic"
	AIProviderEcho      = "echo"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port         string `yaml:"port" env:"SERVER_PORT"`
		Mode         string `yaml:"mode" env:"SERVER_MODE"`
		StaticDir    string `yaml:"static_dir" env:"SERVER_STATIC_DIR"`
		StoragePath  string `yaml:"storage_path" env:"SERVER_STORAGE_PATH"`
		MaxUploadMB  int    `yaml:"max_upload_mb" env:"SERVER_MAX_UPLOAD_MB"`
		ReadTimeout  string `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT"`
		WriteTimeout string `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT"`
	} `yaml:"server"`

	Database struct {
		Driver          string `yaml:"driver" env:"DB_DRIVER"`
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
		MigrationsDir   string `yaml:"migrations_dir" env:"DB_MIGRATIONS_DIR"`
	} `yaml:"database"`

	Auth struct {
		BcryptCost int    `yaml:"bcrypt_cost" env:"AUTH_BCRYPT_COST"`
		Realm      string `yaml:"realm" env:"AUTH_REALM"`
	} `yaml:"auth"`

	AI struct {
		Provider     string `yaml:"provider" env:"AI_PROVIDER"`
		WebhookURL   string `yaml:"webhook_url" env:"AI_WEBHOOK_URL"`
		Model        string `yaml:"model" env:"AI_MODEL"`
		APIKey       string `yaml:"api_key" env:"AI_API_KEY"`
		ServerURL    string `yaml:"server_url" env:"AI_SERVER_URL"`
		Timeout      string `yaml:"timeout" env:"AI_TIMEOUT"`
		SystemPrompt string `yaml:"system_prompt" env:"AI_SYSTEM_PROMPT"`
	} `yaml:"ai"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
		MaxAge         string   `yaml:"max_age" env:"CORS_MAX_AGE"`
	} `yaml:"cors"`

	SMTP struct {
		Host      string `yaml:"host" env:"SMTP_HOST"`
		Port      int    `yaml:"port" env:"SMTP_PORT"`
		Username  string `yaml:"username" env:"SMTP_USERNAME"`
		Password  string `yaml:"password" env:"SMTP_PASSWORD"`
		FromName  string `yaml:"from_name" env:"SMTP_FROM_NAME"`
		FromEmail string `yaml:"from_email" env:"SMTP_FROM_EMAIL"`
		UseTLS    bool   `yaml:"use_tls" env:"SMTP_USE_TLS"`
	} `yaml:"smtp"`

	Seed SeedConfig `yaml:"seed"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// SeedConfig describes the default admin account created at startup
type SeedConfig struct {
	AdminEmail    string `yaml:"admin_email" env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `yaml:"admin_password" env:"SEED_ADMIN_PASSWORD"`
	AdminName     string `yaml:"admin_name" env:"SEED_ADMIN_NAME"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// A missing file is not an error, defaults and env still apply
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	// Server defaults
	config.Server.Port = "8080"
	config.Server.Mode = "development"
	config.Server.StoragePath = "./storage"
	config.Server.MaxUploadMB = 10
	config.Server.ReadTimeout = "15s"
	config.Server.WriteTimeout = "90s"

	// Database defaults
	config.Database.Driver = DriverPostgres
	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "aiinfocenter"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 5
	config.Database.MaxOpenConns = 20
	config.Database.ConnMaxLifetime = "1h"
	config.Database.MigrationsDir = "migrations"

	// Auth defaults
	config.Auth.BcryptCost = bcrypt.DefaultCost
	config.Auth.Realm = "aiinfocenter"

	// AI defaults
	config.AI.Provider = AIProviderWebhook
	config.AI.WebhookURL = "http://localhost:5678/webhook/chat"
	config.AI.Timeout = "60s"

	// CORS defaults
	config.CORS.AllowedOrigins = []string{"http://localhost:8080"}
	config.CORS.MaxAge = "12h"

	// SMTP defaults, empty credentials only log notifications
	config.SMTP.Port = 587
	config.SMTP.FromName = "AI Info Center"
	config.SMTP.FromEmail = "no-reply@aiinfocenter.local"

	// Seed defaults
	config.Seed.AdminName = "Administrator"

	// Logging defaults
	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	switch config.Database.Driver {
	case DriverPostgres:
		if config.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if _, err := time.ParseDuration(config.Database.ConnMaxLifetime); err != nil {
			return fmt.Errorf("invalid database conn_max_lifetime format: %w", err)
		}
	case DriverMemory:
	case "":
		return fmt.Errorf("database driver is required")
	default:
		return fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	switch config.AI.Provider {
	case AIProviderWebhook:
		if config.AI.WebhookURL == "" {
			return fmt.Errorf("ai webhook_url is required for the webhook provider")
		}
	case AIProviderOpenAI, AIProviderAnthropic:
		if config.AI.APIKey == "" {
			return fmt.Errorf("ai api_key is required for the %s provider", config.AI.Provider)
		}
	case AIProviderOllama, AIProviderEcho:
	default:
		return fmt.Errorf("unsupported ai provider %q", config.AI.Provider)
	}

	durations := map[string]string{
		"ai timeout":           config.AI.Timeout,
		"server read_timeout":  config.Server.ReadTimeout,
		"server write_timeout": config.Server.WriteTimeout,
		"cors max_age":         config.CORS.MaxAge,
	}
	for name, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s format: %w", name, err)
		}
	}

	if config.Auth.BcryptCost < bcrypt.MinCost || config.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if config.SMTP.Port <= 0 || config.SMTP.Port > 65535 {
		return fmt.Errorf("smtp port must be between 1 and 65535")
	}

	if config.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server max_upload_mb must be positive")
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Mode, "production")
}
