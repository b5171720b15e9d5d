// Package config provides functionality for loading, saving, and managing
// application configuration settings.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/toM7x7/LLM-mindmap/pkg/model"
)

// Global variables to store the current configuration and its file path.
var (
	currentConfig *model.Config
	configPath    = "./data/config.json"
	envFile       = ".env"
	validate      = validator.New()
)

// ConfigSetPath changes the config file location used by ConfigLoad and ConfigSave.
func ConfigSetPath(path string) {
	configPath = path
}

// ConfigDefault returns the configuration written on first run.
func ConfigDefault() *model.Config {
	return &model.Config{
		DatabaseType:     "sqlite",
		DatabaseDir:      "./data",
		DatabaseFile:     "mindmap.db",
		LogFolder:        "./logs",
		CommandLog:       "commands.log",
		ErrorLog:         "errors.log",
		InfoLog:          "info.log",
		LogLevel:         "info",
		HTTPAddr:         ":8000",
		CORSOrigins:      []string{"*"},
		JWTSecret:        "change-me",
		JWTTTLMinutes:    30,
		SnapshotBackend:  "sqlite",
		SnapshotTTLHours: 0,
		OpenAIModel:      "gpt-4o-mini",
		LLMRateLimit:     1,
		LLMBurst:         2,
		HistoryDepth:     20,
		CLIConfigFile:    "./data/cli.toml",
	}
}

// ConfigLoad loads the configuration from the JSON file, then applies .env and environment overrides.
// If the file doesn't exist, it creates a default configuration.
func ConfigLoad() error {
	if err := loadDotEnv(); err != nil {
		return err
	}

	// Ensure the data directory exists
	dataDir := filepath.Dir(configPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := ConfigDefault()
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		if err := ConfigSave(cfg); err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Unmarshal over the defaults so keys missing from older files keep sane values
		if err := json.Unmarshal(file, cfg); err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := ConfigValidate(cfg); err != nil {
		return err
	}

	currentConfig = cfg
	return nil
}

// ConfigSave saves the provided configuration to the JSON file.
func ConfigSave(cfg *model.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// ConfigGet returns the current configuration.
func ConfigGet() *model.Config {
	return currentConfig
}

// ConfigValidate checks cfg against its struct constraints.
func ConfigValidate(cfg *model.Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return model.NewError(model.ErrValidation, "validate config", "%s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("failed to validate config: %w", err)
	}
	return nil
}

// loadDotEnv loads variables from the .env file when present.
func loadDotEnv() error {
	if _, err := os.Stat(envFile); err != nil {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	return nil
}

// applyEnv overrides file settings with environment variables.
func applyEnv(cfg *model.Config) {
	setString(&cfg.DatabaseType, "MINDMAP_DB_TYPE")
	setString(&cfg.DatabaseDSN, "MINDMAP_DB_DSN")
	setString(&cfg.HTTPAddr, "MINDMAP_HTTP_ADDR")
	setString(&cfg.MetricsAddr, "MINDMAP_METRICS_ADDR")
	setString(&cfg.JWTSecret, "MINDMAP_JWT_SECRET")
	setString(&cfg.JWKSURL, "MINDMAP_JWKS_URL")
	setString(&cfg.LogLevel, "MINDMAP_LOG_LEVEL")
	setString(&cfg.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAIModel, "OPENAI_MODEL")
	setString(&cfg.OpenAIBaseURL, "OPENAI_BASE_URL")

	if v := os.Getenv("MINDMAP_REDIS_URL"); v != "" {
		cfg.RedisURL = v
		cfg.SnapshotBackend = "redis"
	}
	if v := os.Getenv("MINDMAP_CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("MINDMAP_LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.LLMRateLimit = f
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
