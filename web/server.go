// ABOUTME: HTTP JSON API over the lifecycle service
// ABOUTME: Echo router with bearer auth, request validation, error mapping and Prometheus metrics
package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harperreed/synchro/lifecycle"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	svc    *lifecycle.Service
	secret []byte
	logger *log.Logger
	echo   *echo.Echo
}

type Option func(*Server)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer builds the router. Every route except /healthz and /metrics requires
// a bearer token signed with secret.
func NewServer(svc *lifecycle.Service, secret string, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		secret: []byte(secret),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(s.observe)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("", s.authenticate)
	s.registerContacts(api)
	s.registerDrafts(api)
	s.registerGroups(api)
	s.registerEvents(api)
	s.registerSettings(api)
	s.registerBriefing(api)

	s.echo = e
	return s
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", addr)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("api shutting down")
	return s.echo.Shutdown(shutdownCtx)
}

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	if err := rv.v.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// bind decodes and validates the request body.
func bind[T any](c echo.Context) (T, error) {
	var v T
	if err := c.Bind(&v); err != nil {
		return v, err
	}
	if err := c.Validate(&v); err != nil {
		return v, err
	}
	return v, nil
}
