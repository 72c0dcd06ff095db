package crossbase

import (
	"encoding/base64"
	"errors"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DataPath != DefaultDataPath {
		t.Errorf("DataPath = %q, want %q", cfg.DataPath, DefaultDataPath)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if cfg.RedisOptions() != nil {
		t.Error("RedisOptions should be nil without REDIS_ADDR")
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	t.Setenv("CROSSBASE_LOG_LEVEL", "debug")
	t.Setenv("CROSSBASE_DEV", "TRUE")
	t.Setenv("CROSSBASE_DISABLE_FULL", "1")
	t.Setenv("CROSSBASE_DATA_PATH", "/tmp/crossbase")
	t.Setenv("CROSSBASE_S3_BUCKET", "messages")
	t.Setenv("CROSSBASE_S3_REGION", "eu-west-1")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CROSSBASE_SECRET_KEY", base64.StdEncoding.EncodeToString(key))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.LogLevel != "debug" || !cfg.Dev || !cfg.DisableFull {
		t.Errorf("unexpected flags: %+v", cfg)
	}
	if cfg.DataPath != "/tmp/crossbase" {
		t.Errorf("DataPath = %q", cfg.DataPath)
	}
	if len(cfg.SecretKey) != 32 || cfg.SecretKey[31] != 31 {
		t.Errorf("SecretKey not decoded: %v", cfg.SecretKey)
	}

	opts := cfg.RedisOptions()
	if opts == nil || opts.Addr != "redis:6379" || opts.DB != 2 {
		t.Errorf("RedisOptions = %+v", opts)
	}
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("CROSSBASE_DEV", "maybe")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RedisDB != 0 {
		t.Errorf("RedisDB = %d, want fallback 0", cfg.RedisDB)
	}
	if cfg.Dev {
		t.Error("Dev should fall back to false")
	}
}

func TestLoadConfig_BadSecretKey(t *testing.T) {
	t.Setenv("CROSSBASE_SECRET_KEY", base64.StdEncoding.EncodeToString([]byte("too-short")))

	if _, err := LoadConfig(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"two object stores", func(c *Config) { c.S3Bucket = "a"; c.S3Region = "r"; c.GCSBucket = "b" }},
		{"s3 without region or endpoint", func(c *Config) { c.S3Bucket = "a" }},
		{"half static credentials", func(c *Config) { c.S3AccessKey = "id" }},
		{"short secret key", func(c *Config) { c.SecretKey = []byte("short") }},
		{"zero fanout", func(c *Config) { c.WriteFanout = 0 }},
		{"negative redis db", func(c *Config) { c.RedisDB = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
