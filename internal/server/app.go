// Package server initializes and runs the application server. It wires the
// database, object storage, services, and the HTTP API, and handles
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sharekeeper/internal/logging"
	"github.com/dmitrijs2005/sharekeeper/internal/server/blob"
	"github.com/dmitrijs2005/sharekeeper/internal/server/config"
	"github.com/dmitrijs2005/sharekeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/sharekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sharekeeper/internal/server/services"
	"github.com/dmitrijs2005/sharekeeper/internal/server/shared/db"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	handler http.Handler
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	s := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(s)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()

	conn, err := db.Open(ctx, cfg.DatabaseDSN, m)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	blobs := blob.NewS3Store(blob.Options{
		User:         cfg.S3RootUser,
		Password:     cfg.S3RootPassword,
		Bucket:       cfg.S3Bucket,
		Region:       cfg.S3Region,
		BaseEndpoint: cfg.S3BaseEndpoint,
	})

	fileService := services.NewFileService(conn, m, blobs, logger, cfg)
	shareService := services.NewShareService(conn, m, blobs, services.NewRandomTokenIssuer(), logger, cfg)

	handler := httpapi.NewHandler(fileService, shareService, logger, cfg)
	router := httpapi.NewRouter(handler, httpapi.NewAuthenticator(cfg.SecretKey))

	return &App{config: cfg, logger: logger, db: conn, handler: router}, nil
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: app.handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}()

	app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
