// Package server initializes and runs the notiboard server: it wires the
// hub and the HTTP API together and handles graceful shutdown on signals.
package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/msavelyev/notiboard/internal/logging"
	"github.com/msavelyev/notiboard/internal/server/config"
	"github.com/msavelyev/notiboard/internal/server/httpapi"
	"github.com/msavelyev/notiboard/internal/server/hub"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
}

func NewApp(c *config.Config) *App {
	logger := logging.NewJSON(os.Stdout)

	h := hub.New(c.ClientQueueSize, logger)
	s := httpapi.NewServer(h, c.SecretKey, c.SessionTTL, logger)

	return &App{config: c, logger: logger, server: s}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.Addr)

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx, app.config.Addr); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
	}
}
