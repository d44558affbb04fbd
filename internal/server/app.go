// Package server wires the record store, accounts, sessions and the HTTP and
// gRPC listeners together and runs them until a signal or a fatal error.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/logging"
	"github.com/dmitrijs2005/dailyops/internal/server/config"
	"github.com/dmitrijs2005/dailyops/internal/server/httpapi"
	"github.com/dmitrijs2005/dailyops/internal/server/sessions"
	"github.com/dmitrijs2005/dailyops/internal/server/storage"
	"github.com/dmitrijs2005/dailyops/internal/server/users"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/dailyops/internal/server/grpc"
)

const closeTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	store    *storage.Engine
	sessions *sessions.Manager
	users    *users.Service
}

// NewApp opens the data file and builds the services. Logs go to out.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger := logging.New(out, c.LogLevel, c.LogFormat)

	store, err := storage.Open(ctx, storage.Options{
		Path:   c.DataPath(),
		Secret: c.Secret,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	if c.Secret == "" {
		logger.Warn(ctx, "APP_SECRET is not set, the data file is stored unencrypted", "path", store.Path())
	}

	return &App{
		config:   c,
		logger:   logger,
		store:    store,
		sessions: sessions.NewManager(c.SessionLifetime, sessions.WithLogger(logger)),
		users:    users.NewService(store, c.SetupToken, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		sig := <-sigs
		app.logger.Info(context.Background(), "Signal received", "signal", sig.String())
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled, a signal arrives or a listener fails,
// then flushes and closes the data file.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "data_file", app.store.Path(), "setup_required", app.users.SetupRequired())

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)

	api := httpapi.NewServer(httpapi.Options{
		Store:              app.store,
		Accounts:           app.users,
		Sessions:           app.sessions,
		Logger:             app.logger,
		CookieSecure:       app.config.CookieSecure,
		LoginRatePerMinute: app.config.LoginRatePerMinute,
	})
	g.Go(func() error {
		return api.Run(gctx, app.config.HTTPAddr)
	})

	if app.config.GRPCHealthAddr != "" {
		health := gs.NewHealthServer(app.config.GRPCHealthAddr, app.logger, app.store.Running)
		g.Go(func() error {
			return health.Run(gctx)
		})
	}

	g.Go(func() error {
		app.sessions.Run(gctx, app.config.SessionSweepInterval)
		return nil
	})

	runErr := g.Wait()
	if runErr != nil {
		app.logger.Error(ctx, "server stopped", "error", runErr)
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := app.store.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "closing data file failed", "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	app.logger.Info(closeCtx, "App stopped")
	return runErr
}
