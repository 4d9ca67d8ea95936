// Package config loads process settings from the environment (and an
// optional .env file) and opens the database they describe.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Settings is everything the server and the importer read at startup.
type Settings struct {
	DBHost     string `validate:"required"`
	DBPort     int    `validate:"gte=1,lte=65535"`
	DBUser     string `validate:"required"`
	DBPassword string
	DBName     string `validate:"required"`
	DBSSLMode  string `validate:"oneof=disable allow prefer require verify-ca verify-full"`
	DBTimeZone string `validate:"required"`
	DBDriver   string `validate:"oneof=pgx pq"`

	Port     string `validate:"required,numeric"`
	AppEnv   string `validate:"oneof=development test production"`
	LogLevel string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFile  string
	// LogStdout mirrors log lines to stdout next to the rotating file.
	LogStdout bool

	JWTSecret         string
	AdminPasswordHash string
	CORSOrigins       []string

	ImportDataDir string `validate:"required"`
}

// Production reports whether APP_ENV is production.
func (s Settings) Production() bool { return s.AppEnv == "production" }

// DSN is the libpq keyword/value connection string understood by both
// pgx and lib/pq.
func (s Settings) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		s.DBHost, s.DBUser, s.DBPassword, s.DBName, s.DBPort, s.DBSSLMode, s.DBTimeZone,
	)
}

// Load reads .env if present, then the environment, applying defaults.
func Load() (Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Settings{}, fmt.Errorf("read .env: %w", err)
	} else if err != nil {
		logrus.Debug("No .env file found, relying on env vars")
	}
	return FromEnv()
}

// FromEnv builds Settings from the current environment only.
func FromEnv() (Settings, error) {
	port, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return Settings{}, fmt.Errorf("DB_PORT: %w", err)
	}
	logStdout, err := strconv.ParseBool(getEnv("LOG_STDOUT", "true"))
	if err != nil {
		return Settings{}, fmt.Errorf("LOG_STDOUT: %w", err)
	}

	s := Settings{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     port,
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "bus_tracker"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		DBTimeZone: getEnv("DB_TIMEZONE", "UTC"),
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "pgx")),

		Port:      getEnv("PORT", "8080"),
		AppEnv:    strings.ToLower(getEnv("APP_ENV", "development")),
		LogLevel:  strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFile:   getEnv("LOG_FILE", "./logs/app.log"),
		LogStdout: logStdout,

		JWTSecret:         getEnv("JWT_SECRET", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),

		ImportDataDir: getEnv("IMPORT_DATA_DIR", "./data"),
	}

	if err := validator.New().Struct(s); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	if s.Production() && s.JWTSecret == "" {
		return Settings{}, errors.New("invalid settings: JWT_SECRET is required in production")
	}
	return s, nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
