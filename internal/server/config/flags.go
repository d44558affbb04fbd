package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-g string   gRPC health bind address, empty disables it
//	-s string   data file encryption secret
//	-k string   setup token
//	-l int      session lifetime, minutes
//	-d string   data directory
//	-f string   data file name or absolute path
//	-v string   log level (debug, info, warn, error)
//
// Only these flags are picked out of args, so subcommands and the -c flag
// can share the same argument list.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-s", "-k", "-l", "-d", "-f", "-v"})

	fs := flag.NewFlagSet("dailyops", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run the HTTP API")
	fs.StringVar(&config.GRPCHealthAddr, "g", config.GRPCHealthAddr, "address and port of the gRPC health service")
	fs.StringVar(&config.Secret, "s", config.Secret, "data file encryption secret")
	fs.StringVar(&config.SetupToken, "k", config.SetupToken, "setup token")
	lifetime := fs.Int("l", int(config.SessionLifetime.Minutes()), "session lifetime (in minutes)")
	fs.StringVar(&config.DataDir, "d", config.DataDir, "data directory")
	fs.StringVar(&config.DataFile, "f", config.DataFile, "data file")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "l" && *lifetime > 0 {
			config.SessionLifetime = time.Duration(*lifetime) * time.Minute
		}
	})
	return nil
}
