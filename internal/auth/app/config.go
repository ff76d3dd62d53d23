package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port      int    `env:"PORT" envDefault:"8080"`
	Env       string `env:"ENV" envDefault:"dev"` // dev, staging, prod
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	DatabaseFile string `env:"BASELOGIN_DATABASE_FILE" envDefault:"baselogin.db"`
	PepperFile   string `env:"BASELOGIN_PEPPER_FILE" envDefault:"pepper"`

	// SigningSecret signs every token the service issues. Must be at least
	// 32 bytes.
	SigningSecret string `env:"BASELOGIN_SIGNING_SECRET,required"`
	Issuer        string `env:"BASELOGIN_ISSUER" envDefault:"baselogin"`

	// AppURL is the frontend base URL that email links point at, without a
	// trailing slash.
	AppURL string `env:"BASELOGIN_APP_URL" envDefault:"http://localhost:3000"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFromAddr string `env:"SMTP_FROM_ADDR"`
	SMTPFromName string `env:"SMTP_FROM_NAME" envDefault:"BaseLogin"`

	// DefaultMaxUsers seeds the seat cap of new companies until a global
	// settings row overrides it.
	DefaultMaxUsers      int      `env:"BASELOGIN_DEFAULT_MAX_USERS" envDefault:"5"`
	PasswordResetEnabled bool     `env:"BASELOGIN_PASSWORD_RESET_ENABLED" envDefault:"true"`
	Superadmins          []string `env:"BASELOGIN_SUPERADMINS" envSeparator:","`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
