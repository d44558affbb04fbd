package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/dailyops/internal/admin"
	"github.com/dmitrijs2005/dailyops/internal/logging"
	"github.com/dmitrijs2005/dailyops/internal/server/config"
)

func main() {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, "text")
	app := admin.NewApp(cfg, os.Stdin, os.Stdout, logger)

	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		if !errors.Is(err, admin.ErrUsage) {
			fmt.Fprintf(os.Stderr, "opsctl: %v\n", err)
		}
		os.Exit(1)
	}
}
