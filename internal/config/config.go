package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Stream   StreamConfig
	CORS     CORSConfig
}

type HTTPConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type AuthConfig struct {
	BootstrapEmail    string
	BootstrapPassword string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
}

type StreamConfig struct {
	HeartbeatInterval time.Duration
	SubscribeRetry    time.Duration
}

type CORSConfig struct {
	AllowOrigins []string
}

// Load reads configuration from the environment, applying development defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			BootstrapEmail:    getEnv("AUTH_BOOTSTRAP_EMAIL", "admin@localhost"),
			BootstrapPassword: getEnv("AUTH_BOOTSTRAP_PASSWORD", "admin123"),
			AccessTokenTTL:    time.Duration(getEnvInt("AUTH_ACCESS_TTL_SEC", 3600*24)) * time.Second,
			RefreshTokenTTL:   time.Duration(getEnvInt("AUTH_REFRESH_TTL_SEC", 3600*24*7)) * time.Second,
		},
		Stream: StreamConfig{
			HeartbeatInterval: time.Duration(getEnvInt("STREAM_HEARTBEAT_SEC", 30)) * time.Second,
			SubscribeRetry:    time.Duration(getEnvInt("STREAM_RETRY_SEC", 5)) * time.Second,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{
				getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),
				"http://127.0.0.1:5173",
			},
		},
	}

	if cfg.HTTP.Port == "" {
		return Config{}, fmt.Errorf("PORT must not be empty")
	}
	if cfg.Auth.AccessTokenTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_ACCESS_TTL_SEC must be > 0")
	}
	if cfg.Auth.RefreshTokenTTL <= 0 {
		return Config{}, fmt.Errorf("AUTH_REFRESH_TTL_SEC must be > 0")
	}
	if cfg.Stream.HeartbeatInterval <= 0 {
		return Config{}, fmt.Errorf("STREAM_HEARTBEAT_SEC must be > 0")
	}
	if cfg.Stream.SubscribeRetry <= 0 {
		return Config{}, fmt.Errorf("STREAM_RETRY_SEC must be > 0")
	}

	return cfg, nil
}

// DSN assembles the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.Name + "?sslmode=" + d.SSLMode
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
