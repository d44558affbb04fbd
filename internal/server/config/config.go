// Package config handles configuration for the server and the admin CLI:
// defaults, an optional JSON or YAML file, environment variables (with a
// .env file) and command-line flags, applied in that order.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/flagx"
)

// Config holds runtime settings.
//
// Fields:
//   - HTTPAddr: bind address of the JSON API.
//   - GRPCHealthAddr: bind address of the gRPC health service; empty disables it.
//   - Secret: enables encryption of the data file when set.
//   - SetupToken: lets /api/setup create accounts after the first one.
//   - SessionLifetime: validity of a login session.
//   - SessionSweepInterval: how often expired sessions are purged.
//   - CookieSecure: adds the Secure attribute to the session cookie.
//   - DataDir / DataFile: location of the store; an absolute DataFile ignores DataDir.
type Config struct {
	HTTPAddr             string
	GRPCHealthAddr       string
	Secret               string
	SetupToken           string
	SessionLifetime      time.Duration
	SessionSweepInterval time.Duration
	CookieSecure         bool
	DataDir              string
	DataFile             string
	LogLevel             string
	LogFormat            string
	LoginRatePerMinute   int
}

// LoadDefaults populates Config with the values used when nothing else is
// configured.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":3000"
	c.GRPCHealthAddr = ""
	c.SessionLifetime = 7 * 24 * time.Hour
	c.SessionSweepInterval = time.Hour
	c.CookieSecure = false
	c.DataDir = "data"
	c.DataFile = "store.json"
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.LoginRatePerMinute = 10
}

// DataPath is the full path of the data file.
func (c *Config) DataPath() string {
	if filepath.IsAbs(c.DataFile) {
		return c.DataFile
	}
	return filepath.Join(c.DataDir, c.DataFile)
}

// LoadConfig builds a Config from defaults, then the file named by -c/-config,
// then the environment (a .env file in the working directory fills in
// variables that are not already set), then the flags in args.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseFile(cfg, flagx.ConfigFile(args)); err != nil {
		return nil, err
	}
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}
	parseEnv(cfg, os.LookupEnv)
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
