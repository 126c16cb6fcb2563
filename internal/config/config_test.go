package config_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Bootstrap.Enabled)
	assert.Equal(t, "admin", cfg.Bootstrap.Username)
	assert.Equal(t, config.DefaultAdminPassword, cfg.Bootstrap.Password)
	assert.False(t, cfg.RestrictWritesToAdmin)
	assert.Empty(t, cfg.RabbitMQURL)
	// A random secret is generated when none is configured.
	assert.Len(t, cfg.Session.Secret, 64)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("DATABASE_DRIVER", "postgres")
	v.Set("DATABASE_DSN", "host=localhost user=postgres dbname=storefront")
	v.Set("SESSION_SECRET", "0123456789abcdef0123")
	v.Set("SESSION_TTL", "30m")
	v.Set("BOOTSTRAP_ADMIN", false)
	v.Set("RESTRICT_WRITES_TO_ADMIN", true)

	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "0123456789abcdef0123", cfg.Session.Secret)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.False(t, cfg.Bootstrap.Enabled)
	assert.True(t, cfg.RestrictWritesToAdmin)
}

func TestFromViper_Invalid(t *testing.T) {
	v := viper.New()
	v.Set("DATABASE_DRIVER", "mysql")
	_, err := config.FromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("SESSION_SECRET", "short")
	_, err = config.FromViper(v)
	assert.Error(t, err)
}
