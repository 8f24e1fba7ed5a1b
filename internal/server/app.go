// Package server initializes and runs the chat server: it opens the user
// store, starts the chat listener and the optional health endpoint, and
// shuts everything down on SIGINT/SIGTERM.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/config"
	"github.com/dmitrijs2005/gophchat/internal/server/hub"
	"github.com/dmitrijs2005/gophchat/internal/server/relay"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophchat/internal/server/services"

	gs "github.com/dmitrijs2005/gophchat/internal/server/grpc"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	repos     repomanager.RepositoryManager
	relay     *relay.Server
	health    *gs.HealthServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, logCloser, err := logging.New(logging.Options{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		File:   c.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(c.SecretKey, c.TokenValidity)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}

	repos, err := repomanager.Open(ctx, c.DatabaseDriver, c.DatabaseDSN)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	us := services.NewUserService(repos.Users(), tokens)
	rs := relay.NewServer(c.ListenAddr, c.WebSocketAddr, c.MaxFrameSize, hub.New(c.HubCapacity), us,
		logger.With("module", "relay"))

	app := &App{
		config:    c,
		logger:    logger,
		logCloser: logCloser,
		repos:     repos,
		relay:     rs,
	}
	if c.HealthAddr != "" {
		app.health = gs.NewHealthServer(c.HealthAddr, logger)
	}

	return app, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Received signal, shutting down", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startRelay(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.health != nil {
		app.health.SetServing(true)
	}

	if err := app.relay.Run(ctx); err != nil {
		app.logger.Error(ctx, "relay stopped", "error", err)
	}

	if app.health != nil {
		app.health.SetServing(false)
	}
	cancelFunc()
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.health.Run(ctx); err != nil {
		app.logger.Error(ctx, "health server stopped", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is done, a signal arrives or the relay fails, then
// releases the store and the log file.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"addr", app.config.ListenAddr,
		"driver", app.config.DatabaseDriver)

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startRelay(ctx, cancelFunc)
	}()

	if app.health != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHealthServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.repos.Close(); err != nil {
		app.logger.Error(context.Background(), "closing store", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
	_ = app.logCloser.Close()
}
