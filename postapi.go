// Package postapi is a JSON HTTP resource for blog posts built with Echo.
// It exposes list, get, create, update and delete operations on /posts and
// reads and writes through an injected store.Repository.
package postapi

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/postapi/store"
)

// App is the central postapi application. It wires together the
// repository, middleware and handlers.
type App struct {
	Config Config
	Echo   *echo.Echo
	Repo   store.Repository

	writeLimiter *WriteLimiter
	customRoutes []func(*App)
	logOutput    io.Writer
}

// New creates an App serving repo. Middleware and routes are installed
// immediately, so a.Echo can be used as an http.Handler before Start.
func New(cfg Config, repo store.Repository, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Repo:   repo,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	a.Echo.Server.ReadHeaderTimeout = 10 * time.Second
	a.Echo.Server.ReadTimeout = 30 * time.Second
	a.Echo.Server.WriteTimeout = 30 * time.Second
	a.Echo.Logger.SetLevel(cfg.logLevel())
	if a.logOutput != nil {
		a.Echo.Logger.SetOutput(a.logOutput)
	}
	if cfg.WriteRateLimit > 0 {
		a.writeLimiter = NewWriteLimiter(cfg.WriteRateLimit, cfg.WriteRateWindow)
	}

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}

	return a
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/posts", a.handleList)
	e.POST("/posts", a.handleCreate)
	e.GET("/posts/:id", a.handleGet)
	e.PUT("/posts/:id", a.handleUpdate)
	e.DELETE("/posts/:id", a.handleDelete)
}

// Start listens on Config.Addr and serves until Shutdown is called.
func (a *App) Start() error {
	a.Echo.Logger.Infof("listening on %s", a.Config.Addr)
	return ignoreClosed(a.Echo.Start(a.Config.Addr))
}

// Serve serves on an existing listener until Shutdown is called.
func (a *App) Serve(ln net.Listener) error {
	a.Echo.Listener = ln
	a.Echo.Logger.Infof("listening on %s", ln.Addr())
	return ignoreClosed(a.Echo.Start(""))
}

// Shutdown stops accepting connections and waits for in-flight requests,
// bounded by ctx.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close releases the repository. Call it after Shutdown.
func (a *App) Close() error {
	if a.writeLimiter != nil {
		a.writeLimiter.Stop()
	}
	if a.Repo != nil {
		return a.Repo.Close()
	}
	return nil
}

func ignoreClosed(err error) error {
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
