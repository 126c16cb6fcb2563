package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultAdminPassword is the well-known password of the bootstrap admin account.
const DefaultAdminPassword = "admin"

// Config holds the application configuration.
type Config struct {
	AppPort string `validate:"required"`

	Database  Database
	Session   Session
	Bootstrap Bootstrap

	// RestrictWritesToAdmin limits add/delete product to admin accounts.
	RestrictWritesToAdmin bool
	SeedDemoProducts      bool

	// RabbitMQURL enables catalog events when non-empty.
	RabbitMQURL string
}

// Database selects and configures the GORM dialector.
type Database struct {
	Driver string `validate:"required,oneof=sqlite postgres"`
	DSN    string `validate:"required"`
	LogSQL bool
}

// Session configures the signed session cookie.
type Session struct {
	Secret       string        `validate:"required,min=16"`
	TTL          time.Duration `validate:"gt=0"`
	CookieName   string        `validate:"required"`
	CookieSecure bool
}

// Bootstrap configures the first-run admin account.
type Bootstrap struct {
	Enabled  bool
	Username string `validate:"required_if=Enabled true"`
	Password string `validate:"required_if=Enabled true"`
}

// Load reads the configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded (%v), using environment variables", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "storefront.db")
	v.SetDefault("LOG_SQL", false)
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_COOKIE_NAME", "storefront_session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)
	v.SetDefault("BOOTSTRAP_ADMIN", true)
	v.SetDefault("BOOTSTRAP_ADMIN_USERNAME", "admin")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", DefaultAdminPassword)
	v.SetDefault("RESTRICT_WRITES_TO_ADMIN", false)
	v.SetDefault("SEED_DEMO_PRODUCTS", false)
	v.SetDefault("RABBITMQ_URL", "")
}

// FromViper builds a validated Config from an already populated viper instance.
// Keys without a value fall back to the application defaults.
func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{
		AppPort: v.GetString("APP_PORT"),
		Database: Database{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
			LogSQL: v.GetBool("LOG_SQL"),
		},
		Session: Session{
			Secret:       v.GetString("SESSION_SECRET"),
			TTL:          v.GetDuration("SESSION_TTL"),
			CookieName:   v.GetString("SESSION_COOKIE_NAME"),
			CookieSecure: v.GetBool("SESSION_COOKIE_SECURE"),
		},
		Bootstrap: Bootstrap{
			Enabled:  v.GetBool("BOOTSTRAP_ADMIN"),
			Username: v.GetString("BOOTSTRAP_ADMIN_USERNAME"),
			Password: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		RestrictWritesToAdmin: v.GetBool("RESTRICT_WRITES_TO_ADMIN"),
		SeedDemoProducts:      v.GetBool("SEED_DEMO_PRODUCTS"),
		RabbitMQURL:           v.GetString("RABBITMQ_URL"),
	}

	if cfg.Session.Secret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
		log.Println("Warning: SESSION_SECRET is not set, sessions will not survive a restart")
		cfg.Session.Secret = secret
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
