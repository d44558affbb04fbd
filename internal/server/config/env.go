package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv sets variables from path that are not already in the
// environment. A missing file is not an error.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load %s: %w", path, err)
}

// parseEnv overlays values from the environment.
//
// Supported variables:
//
//	PORT                 HTTP port, binds ":<PORT>"
//	HTTP_ADDR            full HTTP bind address, wins over PORT
//	GRPC_HEALTH_ADDR     gRPC health bind address
//	APP_SECRET           data file encryption secret
//	SETUP_TOKEN          setup token
//	SESSION_LIFETIME_MS  session lifetime in milliseconds
//	COOKIE_SECURE        1/true/yes/on
//	DATA_DIR, DATA_FILE  data file location
//	LOG_LEVEL, LOG_FORMAT
//
// Numbers that do not parse are ignored.
func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return strings.TrimSpace(v), true
	}

	if v, ok := get("PORT"); ok {
		if _, err := strconv.Atoi(v); err == nil {
			cfg.HTTPAddr = ":" + v
		}
	}
	if v, ok := get("HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}
	if v, ok := get("GRPC_HEALTH_ADDR"); ok {
		cfg.GRPCHealthAddr = v
	}
	if v, ok := get("APP_SECRET"); ok {
		cfg.Secret = v
	}
	if v, ok := get("SETUP_TOKEN"); ok {
		cfg.SetupToken = v
	}
	if v, ok := get("SESSION_LIFETIME_MS"); ok {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			cfg.SessionLifetime = time.Duration(ms) * time.Millisecond
		}
	}
	if v, ok := lookup("COOKIE_SECURE"); ok {
		cfg.CookieSecure = parseBool(v)
	}
	if v, ok := get("DATA_DIR"); ok {
		cfg.DataDir = v
	}
	if v, ok := get("DATA_FILE"); ok {
		cfg.DataFile = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.LogFormat = v
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
