package db

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()

	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 1*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestLoadConnectionConfig_Defaults(t *testing.T) {
	_ = os.Unsetenv("DB_MAX_OPEN_CONNS")
	_ = os.Unsetenv("DB_MAX_IDLE_CONNS")
	_ = os.Unsetenv("DB_CONN_MAX_LIFETIME")
	_ = os.Unsetenv("DB_CONN_MAX_IDLE_TIME")

	cfg := loadConnectionConfig()

	assert.Equal(t, DefaultConnectionConfig(), cfg)
}

func TestLoadConnectionConfig_MaxOpenConns(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected int
	}{
		{name: "valid value", envValue: "50", expected: 50},
		{name: "non-numeric falls back", envValue: "invalid", expected: 25},
		{name: "zero falls back", envValue: "0", expected: 25},
		{name: "negative falls back", envValue: "-10", expected: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_MAX_OPEN_CONNS", tt.envValue)

			cfg := loadConnectionConfig()
			assert.Equal(t, tt.expected, cfg.MaxOpenConns)
		})
	}
}

func TestLoadConnectionConfig_ConnMaxLifetime(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected time.Duration
	}{
		{name: "hours", envValue: "2h", expected: 2 * time.Hour},
		{name: "mixed", envValue: "1h30m", expected: 90 * time.Minute},
		{name: "not a duration falls back", envValue: "invalid", expected: 1 * time.Hour},
		{name: "negative falls back", envValue: "-1h", expected: 1 * time.Hour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_CONN_MAX_LIFETIME", tt.envValue)

			cfg := loadConnectionConfig()
			assert.Equal(t, tt.expected, cfg.ConnMaxLifetime)
		})
	}
}

func TestLoadConnectionConfig_ConnMaxIdleTime(t *testing.T) {
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "10m")

	cfg := loadConnectionConfig()
	assert.Equal(t, 10*time.Minute, cfg.ConnMaxIdleTime)
}
