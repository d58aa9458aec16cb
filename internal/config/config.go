package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds application level configuration loaded from environment variables.
type Config struct {
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`
	AppEnv     string `env:"APP_ENV" envDefault:"production"`

	MySQLDSN string `env:"MYSQL_DSN" envDefault:"user:password@tcp(localhost:3306)/shopcore?charset=utf8mb4&parseTime=True&loc=Local"`
	MongoURI string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB  string `env:"MONGO_DB" envDefault:"shopcore_search"`

	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	RedisPass string `env:"REDIS_PASSWORD"`

	JWTSecret string `env:"JWT_SECRET" envDefault:"change-me"`

	StripeSecretKey     string `env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	StripeSimulation    bool   `env:"STRIPE_SIMULATION" envDefault:"false"`

	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`

	SMTPHost string `env:"SMTP_HOST"`
	SMTPPort int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASSWORD"`
	MailFrom string `env:"MAIL_FROM" envDefault:"noreply@shopcore.local"`

	InvoiceDir string `env:"INVOICE_DIR" envDefault:"invoices"`
	UploadDir  string `env:"UPLOAD_DIR" envDefault:"uploads"`

	SyncInterval time.Duration `env:"SYNC_INTERVAL" envDefault:"1h"`
}

// Load builds Config from environment with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsDevelopment reports whether the app runs in development mode.
// Error responses carry details only in this mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MailEnabled reports whether SMTP is configured. When false every send
// is a no-op that still resolves successfully.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}
