package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// --- Auth API ---
	AuthBaseURL    string `mapstructure:"AUTH_BASE_URL"`
	AuthTimeoutSec int    `mapstructure:"AUTH_TIMEOUT_SECONDS"`

	// --- S3 ---
	S3Endpoint  string `mapstructure:"S3_ENDPOINT"`
	S3Region    string `mapstructure:"S3_REGION"`
	S3Bucket    string `mapstructure:"S3_BUCKET"`
	S3AccessKey string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey string `mapstructure:"S3_SECRET_KEY"`
	S3UseSSL    bool   `mapstructure:"S3_USE_SSL"`
	S3PathStyle bool   `mapstructure:"S3_PATH_STYLE"`

	// --- Redis (опционально; пусто = кеш в памяти) ---
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`

	// --- Локальная БД ---
	LocalDBPath string `mapstructure:"LOCAL_DB_PATH"`

	// TTL кеша локаторов, секунд. Должен быть заметно меньше срока presigned URL.
	LocatorTTLSec int `mapstructure:"LOCATOR_TTL_SECONDS"`
}

// String реализует интерфейс Stringer
func (c *Config) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  AuthBaseURL: %s\n", c.AuthBaseURL))
	sb.WriteString(fmt.Sprintf("  AuthTimeoutSec: %d\n", c.AuthTimeoutSec))

	sb.WriteString(fmt.Sprintf("  S3Endpoint: %s\n", c.S3Endpoint))
	sb.WriteString(fmt.Sprintf("  S3Region: %s\n", c.S3Region))
	sb.WriteString(fmt.Sprintf("  S3Bucket: %s\n", c.S3Bucket))
	// ключи маскируем
	if c.S3AccessKey != "" {
		sb.WriteString("  S3AccessKey: ********\n")
	} else {
		sb.WriteString("  S3AccessKey: (empty)\n")
	}
	if c.S3SecretKey != "" {
		sb.WriteString("  S3SecretKey: ********\n")
	} else {
		sb.WriteString("  S3SecretKey: (empty)\n")
	}
	sb.WriteString(fmt.Sprintf("  S3UseSSL: %v\n", c.S3UseSSL))
	sb.WriteString(fmt.Sprintf("  S3PathStyle: %v\n", c.S3PathStyle))

	sb.WriteString(fmt.Sprintf("  RedisAddr: %s\n", c.RedisAddr))
	sb.WriteString(fmt.Sprintf("  RedisDB: %d\n", c.RedisDB))
	if c.RedisPassword != "" {
		sb.WriteString("  RedisPassword: ********\n")
	} else {
		sb.WriteString("  RedisPassword: (empty)\n")
	}

	sb.WriteString(fmt.Sprintf("  LocalDBPath: %s\n", c.LocalDBPath))
	sb.WriteString(fmt.Sprintf("  LocatorTTLSec: %d\n", c.LocatorTTLSec))
	return sb.String()
}

// LoadFromEnv загружает конфигурацию из переменных окружения
func LoadFromEnv() (*Config, error) {
	// .env только для локальной разработки
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, errors.New("failed to load .env")
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	// Регистрируем интересующие ключи окружения
	keys := []string{
		"AUTH_BASE_URL", "AUTH_TIMEOUT_SECONDS",
		"S3_ENDPOINT", "S3_REGION", "S3_BUCKET", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"S3_USE_SSL", "S3_PATH_STYLE",
		"REDIS_ADDR", "REDIS_DB", "REDIS_PASSWORD",
		"LOCAL_DB_PATH", "LOCATOR_TTL_SECONDS",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("AUTH_TIMEOUT_SECONDS", 15)
	v.SetDefault("LOCAL_DB_PATH", "my-files.db")
	v.SetDefault("LOCATOR_TTL_SECONDS", 900)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if cfg.AuthBaseURL == "" {
		return nil, errors.New("AUTH_BASE_URL is required")
	}
	if cfg.S3Endpoint == "" || cfg.S3Bucket == "" {
		return nil, errors.New("S3_ENDPOINT and S3_BUCKET are required")
	}
	return &cfg, nil
}
