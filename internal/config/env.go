package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Env holds all runtime configuration. Values come from the process
// environment; defaults suit local development.
type Env struct {
	AppAddr string `env:"APP_ADDR" envDefault:":8080"`
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	GinMode string `env:"GIN_MODE"`

	DBDSN string `env:"DB_DSN" envDefault:"root:@tcp(127.0.0.1:3306)/tourbook?parseTime=true&loc=Local&charset=utf8mb4&timeout=5s&readTimeout=30s&writeTimeout=30s"`

	JWTSecret    string        `env:"JWT_SECRET" envDefault:"super-secret-key-change-me"`
	JWTTTL       time.Duration `env:"JWT_TTL" envDefault:"24h"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`

	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1h"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	MailFrom string `env:"MAIL_FROM" envDefault:"Tourbook <hello@tourbook.dev>"`

	PaymentWebhookSecret string `env:"PAYMENT_WEBHOOK_SECRET" envDefault:"whsec-change-me"`

	UploadDir string `env:"UPLOAD_DIR" envDefault:"public/img"`
}

// IsProduction reports whether the app runs with the production profile.
func (e Env) IsProduction() bool {
	return e.AppEnv == "production"
}

// LoadEnv parses configuration from environment variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}
