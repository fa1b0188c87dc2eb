// Package server initializes and runs the document-store service: the
// HTTP API the terminal agents sync against, plus the scheduled
// end-of-day order archive.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tillkeeper/internal/logging"
	"github.com/dmitrijs2005/tillkeeper/internal/server/config"
	"github.com/dmitrijs2005/tillkeeper/internal/server/db"
	"github.com/dmitrijs2005/tillkeeper/internal/server/documents"
	"github.com/dmitrijs2005/tillkeeper/internal/server/export"
	"github.com/dmitrijs2005/tillkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/tillkeeper/internal/server/staff"
	"github.com/robfig/cron/v3"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	repoManager     db.RepositoryManager
	documentService *documents.Service
	staffService    *staff.Service
	exporter        *export.Exporter
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	rm, err := db.NewPostgresRepositoryManager(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	ds := documents.NewService(rm.Conn())
	ss := staff.NewService(rm.Staff(), rm.RefreshTokens(), c)
	ex := export.NewExporter(ds, c, logger)

	if err := ss.Bootstrap(context.Background(), c.BootstrapAdminLogin, c.BootstrapAdminPassword); err != nil {
		return nil, fmt.Errorf("admin bootstrap error: %w", err)
	}

	return &App{
		config:          c,
		logger:          logger,
		repoManager:     rm,
		documentService: ds,
		staffService:    ss,
		exporter:        ex,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startExportCron(ctx context.Context) *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc(app.config.ExportCronSpec, func() {
		// The run just after midnight archives the previous business day.
		day := time.Now().AddDate(0, 0, -1)
		if err := app.exporter.Run(context.Background(), day); err != nil {
			app.logger.Error(ctx, "end-of-day export failed", "error", err)
		}
	})
	if err != nil {
		app.logger.Error(ctx, "export schedule invalid, export disabled", "error", err)
		return c
	}
	c.Start()
	return c
}

// Run starts the HTTP server and blocks until the context is cancelled or
// a termination signal arrives.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "addr", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	handler := httpapi.NewHandler(app.documentService, app.staffService, []byte(app.config.SecretKey), app.logger)
	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: handler.Routes(),
	}

	exportCron := app.startExportCron(ctx)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	exportCron.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}

	if err := app.repoManager.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}

	return nil
}
