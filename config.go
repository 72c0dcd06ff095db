package crossbase

import (
	"encoding/base64"
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Configuration defaults
const (
	DefaultDataPath        = "./data"
	DefaultLogLevel        = "info"
	DefaultRedisAddr       = "localhost:6379"
	DefaultListPageSize    = 100
	DefaultWriteFanout     = 8
	DefaultFilePermissions = 0644
	DefaultDirPermissions  = 0755
)

// Config carries process configuration for crossbase and its full backend.
//
// Environment variables read by LoadConfig (with defaults):
//   - CROSSBASE_LOG_LEVEL (default: "info")
//   - CROSSBASE_DEV (default: false)
//   - CROSSBASE_DISABLE_FULL (default: false) forces the standalone backend
//   - CROSSBASE_DATA_PATH (default: "./data") filesystem storage root
//   - CROSSBASE_S3_BUCKET, CROSSBASE_S3_REGION, CROSSBASE_S3_ENDPOINT,
//     CROSSBASE_S3_ACCESS_KEY, CROSSBASE_S3_SECRET_KEY
//   - CROSSBASE_GCS_BUCKET, CROSSBASE_GCS_CREDENTIALS
//   - CROSSBASE_SECRET_KEY base64 encoded 32-byte key for encryption at rest
//     and for auth settings encryption
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB (session index; disabled when REDIS_ADDR is unset)
//   - CROSSBASE_DATABASE_URL database holding the folder table for migrations
type Config struct {
	LogLevel    string
	Dev         bool
	DisableFull bool

	DataPath string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string

	GCSBucket      string
	GCSCredentials string

	SecretKey []byte

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DatabaseURL string

	WriteFanout int
}

// DefaultConfig returns a Config with defaults and nothing read from the environment.
func DefaultConfig() Config {
	return Config{
		LogLevel:    DefaultLogLevel,
		DataPath:    DefaultDataPath,
		WriteFanout: DefaultWriteFanout,
	}
}

// LoadConfig returns a Config populated from environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	cfg.LogLevel = getEnv("CROSSBASE_LOG_LEVEL", cfg.LogLevel)
	cfg.Dev = getEnvAsBool("CROSSBASE_DEV", false)
	cfg.DisableFull = getEnvAsBool("CROSSBASE_DISABLE_FULL", false)
	cfg.DataPath = getEnv("CROSSBASE_DATA_PATH", cfg.DataPath)

	cfg.S3Bucket = os.Getenv("CROSSBASE_S3_BUCKET")
	cfg.S3Region = os.Getenv("CROSSBASE_S3_REGION")
	cfg.S3Endpoint = os.Getenv("CROSSBASE_S3_ENDPOINT")
	cfg.S3AccessKey = os.Getenv("CROSSBASE_S3_ACCESS_KEY")
	cfg.S3SecretKey = os.Getenv("CROSSBASE_S3_SECRET_KEY")

	cfg.GCSBucket = os.Getenv("CROSSBASE_GCS_BUCKET")
	cfg.GCSCredentials = os.Getenv("CROSSBASE_GCS_CREDENTIALS")

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = getEnvAsInt("REDIS_DB", 0)

	cfg.DatabaseURL = os.Getenv("CROSSBASE_DATABASE_URL")
	cfg.WriteFanout = getEnvAsInt("CROSSBASE_WRITE_FANOUT", cfg.WriteFanout)

	if raw := os.Getenv("CROSSBASE_SECRET_KEY"); raw != "" {
		key, err := DecodeSecretKey(raw)
		if err != nil {
			return cfg, err
		}
		cfg.SecretKey = key
	}

	return cfg, cfg.Validate()
}

// Validate checks if the Config is valid
func (c Config) Validate() error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.S3Bucket != "" && c.GCSBucket != "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "S3Bucket/GCSBucket",
			"reason": "configure at most one object store",
		})
	}
	if c.S3Bucket != "" && c.S3Region == "" && c.S3Endpoint == "" {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "S3Region/S3Endpoint",
			"reason": "S3 storage requires either a region or an endpoint",
		})
	}
	if (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "S3AccessKey/S3SecretKey",
			"reason": "static S3 credentials need both access and secret key",
		})
	}
	if len(c.SecretKey) != 0 && len(c.SecretKey) != 32 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "SecretKey",
			"value":  len(c.SecretKey),
			"reason": "AES-256 requires 32-byte key",
		})
	}
	if c.WriteFanout < 1 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "WriteFanout",
			"value":  c.WriteFanout,
			"reason": "must be >= 1",
		})
	}
	if c.RedisDB < 0 {
		return WithContext(ErrInvalidConfig, map[string]interface{}{
			"field":  "RedisDB",
			"value":  c.RedisDB,
			"reason": "must be non-negative",
		})
	}
	return nil
}

// RedisOptions returns redis.Options for the session index, or nil when no
// Redis address is configured.
func (c Config) RedisOptions() *redis.Options {
	if c.RedisAddr == "" {
		return nil
	}
	return &redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// DecodeSecretKey decodes a base64 (standard or URL alphabet) 32-byte key.
func DecodeSecretKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if key, err := enc.DecodeString(raw); err == nil {
			if len(key) != 32 {
				break
			}
			return key, nil
		}
	}
	return nil, WithContext(ErrInvalidConfig, map[string]interface{}{
		"field":  "CROSSBASE_SECRET_KEY",
		"reason": "expected base64 encoded 32-byte key",
	})
}

// FullDisabled reports whether CROSSBASE_DISABLE_FULL asks for the standalone
// backend even when the full backend is linked.
func FullDisabled() bool {
	return getEnvAsBool("CROSSBASE_DISABLE_FULL", false)
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// getEnvAsInt reads an integer environment variable with a default fallback.
func getEnvAsInt(key string, defaultVal int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultVal
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultVal
	}

	return value
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultVal
	}

	value, err := strconv.ParseBool(strings.ToLower(valueStr))
	if err != nil {
		return defaultVal
	}
	return value
}
