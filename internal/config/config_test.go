package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with empty SSL mode", "prod", "", true},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        tt.env,
				DBSSLMode:  tt.sslMode,
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "secure-password",
				Port:       "8080",
				RedisURL:   "redis://localhost:6379",
			}

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecret(t *testing.T) {
	c := &Config{
		Env:        "production",
		DBSSLMode:  "require",
		JWTSecret:  "your-secret-key-change-in-production",
		DBPassword: "secure-password",
		Port:       "8080",
	}
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())
}

func TestConfig_ValidateUploadLimits(t *testing.T) {
	c := &Config{
		Env:               "test",
		Port:              "8080",
		JWTSecret:         "secure-secret-at-least-32-chars-long",
		PresignTTLMinutes: -1,
	}
	assert.Error(t, c.Validate())

	c.PresignTTLMinutes = 0
	c.MaxUploadSizeMB = -5
	assert.Error(t, c.Validate())

	c.MaxUploadSizeMB = 0
	assert.NoError(t, c.Validate())
	assert.Equal(t, 15, c.PresignTTL())
	assert.Equal(t, int64(50<<20), c.MaxUploadSizeBytes())
}

func TestLoadConfig_SSLModeNormalization(t *testing.T) {
	// Clean up environment variables and viper after test
	defer os.Unsetenv("APP_ENV")
	defer os.Unsetenv("DB_SSLMODE")
	defer viper.Reset()

	os.Setenv("APP_ENV", "development")
	os.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	assert.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
}
