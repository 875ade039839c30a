package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_ValidateProduction(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"valid production config", func(c *Config) {}, false},
		{"default JWT secret rejected", func(c *Config) {
			c.JWTSecret = "your-secret-key-change-in-production"
		}, true},
		{"short JWT secret rejected", func(c *Config) {
			c.JWTSecret = "short"
		}, true},
		{"default DB password rejected", func(c *Config) {
			c.DBPassword = "password"
		}, true},
		{"empty DB password rejected", func(c *Config) {
			c.DBPassword = ""
		}, true},
		{"disabled SSL rejected", func(c *Config) {
			c.DBSSLMode = "disable"
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{
				Env:        "production",
				Port:       "8460",
				JWTSecret:  "secure-secret-at-least-32-chars-long",
				DBPassword: "secure-password",
				DBSSLMode:  "require",
				RedisURL:   "redis://localhost:6379",
			}
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateDevelopmentIsLenient(t *testing.T) {
	c := &Config{
		Env:       "development",
		Port:      "8460",
		JWTSecret: "dev-secret",
		DBSSLMode: "disable",
	}
	assert.NoError(t, c.Validate())
}

func TestConfig_ValidateRequiredFields(t *testing.T) {
	c := &Config{JWTSecret: "x"}
	assert.Error(t, c.Validate(), "missing port should fail")

	c = &Config{Port: "8460"}
	assert.Error(t, c.Validate(), "missing JWT secret should fail")
}

func TestConfig_IsProduction(t *testing.T) {
	assert.True(t, (&Config{Env: "production"}).IsProduction())
	assert.True(t, (&Config{Env: "prod"}).IsProduction())
	assert.False(t, (&Config{Env: "development"}).IsProduction())
	assert.False(t, (&Config{Env: "test"}).IsProduction())
}
