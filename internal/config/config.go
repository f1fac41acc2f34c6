package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Fanout   FanoutConfig
	Recovery RecoveryConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type FanoutConfig struct {
	WebhookURL string
	PreviewMax int
}

type RecoveryConfig struct {
	Interval  time.Duration
	AutoStart bool
}

// LoadAll reads the whole configuration from the environment. Missing or
// malformed values surface as errors naming the offending variable.
func LoadAll() (cfg *Config, err error) {
	defer func() {
		if r := recover(); r != nil {
			cfg = nil
			err = fmt.Errorf("config: %v", r)
		}
	}()

	cfg = &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":4002"),
		},
		Database: DatabaseConfig{
			PostgresURL: mustEnv("POSTGRES_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: mustEnv("JWT_SECRET"),
			TokenTTL:  time.Duration(getEnvInt("JWT_TTL_HOURS", 168)) * time.Hour,
		},
		Fanout: FanoutConfig{
			WebhookURL: os.Getenv("FANOUT_WEBHOOK_URL"),
			PreviewMax: getEnvInt("FANOUT_PREVIEW_MAX", 50),
		},
		Recovery: RecoveryConfig{
			Interval:  time.Duration(getEnvInt("RECLAIM_INTERVAL_SECONDS", 120)) * time.Second,
			AutoStart: getEnvBool("RECLAIM_AUTOSTART", false),
		},
		Redis: loadRedisConfig(),
	}

	validate(cfg)
	return cfg, nil
}

func loadRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       getEnvInt("REDIS_DB", 0),
		TTL:      time.Duration(getEnvInt("REDIS_TTL_SECONDS", 86400)) * time.Second,
	}
}

func validate(cfg *Config) {
	if len(cfg.Auth.JWTSecret) < 32 {
		panic("JWT_SECRET must be at least 32 characters")
	}
	if cfg.Auth.TokenTTL <= 0 {
		panic("JWT_TTL_HOURS must be > 0")
	}
	if cfg.Fanout.PreviewMax <= 0 {
		panic("FANOUT_PREVIEW_MAX must be > 0")
	}
	if cfg.Recovery.Interval <= 0 {
		panic("RECLAIM_INTERVAL_SECONDS must be > 0")
	}
}

func mustEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("missing required env var: %s", key))
	}
	return val
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Sprintf("invalid bool for env %s: %s", key, v))
	}
	return b
}
