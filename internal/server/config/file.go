package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/dailyops/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of a config file. Durations accept
// strings such as "168h" or integer nanoseconds. Absent keys keep the
// current value.
type FileConfig struct {
	HTTPAddr             string         `json:"http_addr" yaml:"http_addr"`
	GRPCHealthAddr       string         `json:"grpc_health_addr" yaml:"grpc_health_addr"`
	Secret               string         `json:"secret" yaml:"secret"`
	SetupToken           string         `json:"setup_token" yaml:"setup_token"`
	SessionLifetime      timex.Duration `json:"session_lifetime" yaml:"session_lifetime"`
	SessionSweepInterval timex.Duration `json:"session_sweep_interval" yaml:"session_sweep_interval"`
	CookieSecure         *bool          `json:"cookie_secure" yaml:"cookie_secure"`
	DataDir              string         `json:"data_dir" yaml:"data_dir"`
	DataFile             string         `json:"data_file" yaml:"data_file"`
	LogLevel             string         `json:"log_level" yaml:"log_level"`
	LogFormat            string         `json:"log_format" yaml:"log_format"`
	LoginRatePerMinute   int            `json:"login_rate_per_minute" yaml:"login_rate_per_minute"`
}

// parseFile overlays the config file at path onto cfg. Files ending in
// .yaml or .yml are read as YAML, anything else as JSON. An empty path
// loads nothing.
func parseFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func (fc *FileConfig) apply(cfg *Config) {
	setString(&cfg.HTTPAddr, fc.HTTPAddr)
	setString(&cfg.GRPCHealthAddr, fc.GRPCHealthAddr)
	setString(&cfg.Secret, fc.Secret)
	setString(&cfg.SetupToken, fc.SetupToken)
	if fc.SessionLifetime.Duration > 0 {
		cfg.SessionLifetime = fc.SessionLifetime.Duration
	}
	if fc.SessionSweepInterval.Duration > 0 {
		cfg.SessionSweepInterval = fc.SessionSweepInterval.Duration
	}
	if fc.CookieSecure != nil {
		cfg.CookieSecure = *fc.CookieSecure
	}
	setString(&cfg.DataDir, fc.DataDir)
	setString(&cfg.DataFile, fc.DataFile)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	if fc.LoginRatePerMinute > 0 {
		cfg.LoginRatePerMinute = fc.LoginRatePerMinute
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
