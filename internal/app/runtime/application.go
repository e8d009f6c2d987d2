// Package runtime wires configuration, logging, the application and its HTTP
// surface into a server with a managed lifecycle.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	app "github.com/R3E-Network/book_catalog/internal/app"
	"github.com/R3E-Network/book_catalog/internal/app/httpapi"
	"github.com/R3E-Network/book_catalog/internal/config"
	"github.com/R3E-Network/book_catalog/internal/logging"
)

// ServiceName identifies the service in logs and health responses.
const ServiceName = "book-catalog"

// Application wires core dependencies and manages the HTTP server lifecycle.
type Application struct {
	cfg     *config.Config
	log     *logging.Logger
	app     *app.Application
	handler *httpapi.Handler
	server  *http.Server
}

// NewApplication constructs the application from configuration. A nil
// logger is built from the logging configuration.
func NewApplication(cfg *config.Config, log *logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logging.New(ServiceName, cfg.Logging.Level, cfg.Logging.Format)
	}

	core, err := app.New(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build application: %w", err)
	}

	handler, err := httpapi.NewHandler(core, httpapi.Options{
		CORSOrigins:     cfg.CORS.Origins(),
		AuditMaxEntries: cfg.Audit.MaxEntries,
		AuditLogPath:    cfg.Audit.LogPath,
	})
	if err != nil {
		return nil, fmt.Errorf("build http handler: %w", err)
	}

	return &Application{
		cfg:     cfg,
		log:     log,
		app:     core,
		handler: handler,
		server: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			ReadHeaderTimeout: cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		},
	}, nil
}

// Core returns the composed domain application.
func (a *Application) Core() *app.Application {
	return a.app
}

// Handler returns the root HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within the configured shutdown timeout. The listener is closed on return.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.WithField("addr", ln.Addr().String()).Info("HTTP server listening")
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Shutdown(context.Background())
	})

	err := g.Wait()
	if cerr := a.handler.Close(); cerr != nil {
		a.log.WithError(cerr).Warn("error closing audit log")
	}
	return err
}

// Shutdown gracefully shuts down the HTTP server.
func (a *Application) Shutdown(ctx context.Context) error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	a.log.Info("HTTP server shutting down")
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
