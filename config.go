package accounts

import (
	"os"
	"strconv"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config holds everything the server binary needs, sourced from the
// environment with an optional .env overlay.
type Config struct {
	AppEnv        string
	Addr          string
	DBDSN         string
	SigningSecret string
	TokenIssuer   string
	AllowedOrigin string
	Debug         bool
	SMTP          SMTPConfig
}

// IsProduction reports whether we run with production transport settings,
// which changes cookie attributes and disables query logging.
func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LoadConfig reads the process environment, after loading a .env file when
// one is present. It errors on any missing required key.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:        getEnv("APP_ENV", "local"),
		Addr:          getEnv("APP_ADDR", ":4000"),
		DBDSN:         os.Getenv("DB_DSN"),
		SigningSecret: os.Getenv("JWT_SECRET"),
		TokenIssuer:   getEnv("JWT_ISSUER", "go-accounts"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "http://localhost:5173"),
		Debug:         getEnvBool("APP_DEBUG", false),
		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASS"),
			From:     os.Getenv("SMTP_FROM"),
		},
	}

	missing := []string{}
	if cfg.DBDSN == "" {
		missing = append(missing, "DB_DSN")
	}
	if cfg.SigningSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.SMTP.Host == "" {
		missing = append(missing, "SMTP_HOST")
	}
	if cfg.SMTP.From == "" {
		missing = append(missing, "SMTP_FROM")
	}

	if len(missing) > 0 {
		return cfg, errors.New(
			"missing env: "+strings.Join(missing, ", "),
			errors.CategoryBadInput,
		)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
