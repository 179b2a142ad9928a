package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "medisync.changes", cfg.KafkaTopic)
	assert.Empty(t, cfg.Brokers())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")

	cfg, err := load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "memory", cfg.DBDriver)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Brokers())
}

func TestLoad_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("ARCHIVE_BUCKET=discharges\nJWT_SECRET=from-file\n"), 0o600))

	cfg, err := load(envFile)
	require.NoError(t, err)

	assert.Equal(t, "discharges", cfg.ArchiveBucket)
	assert.Equal(t, "from-file", cfg.JWTSecret)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory needs no dsn", Config{DBDriver: "memory", Env: "development"}, false},
		{"unknown driver", Config{DBDriver: "oracle", DatabaseDSN: "x"}, true},
		{"mysql without dsn", Config{DBDriver: "mysql"}, true},
		{"default secret in production", Config{DBDriver: "memory", Env: "production", JWTSecret: defaultJWTSecret}, true},
		{"custom secret in production", Config{DBDriver: "memory", Env: "production", JWTSecret: "s3cret"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
