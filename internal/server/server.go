// Package server exposes discovery sessions over HTTP for scout serve.
package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spiffcs/scout/internal/gateway"
	"github.com/spiffcs/scout/internal/log"
	"github.com/spiffcs/scout/internal/model"
	"github.com/spiffcs/scout/internal/service"
)

// SessionCookie names the cookie carrying the session id.
const SessionCookie = "scout_session"

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// Server is the HTTP front end.
type Server struct {
	app      *fiber.App
	sessions *Registry
}

// Option configures a Server.
type Option func(*options)

type options struct {
	gatherer      prometheus.Gatherer
	defaultFilter model.FilterKind
	ttl           time.Duration
	orchOpts      []service.Option
	readTimeout   time.Duration
	writeTimeout  time.Duration
}

// WithGatherer sets the registry served at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) { o.gatherer = g }
}

// WithDefaultFilter sets the filter a new session starts with.
func WithDefaultFilter(f model.FilterKind) Option {
	return func(o *options) {
		if f.Valid() {
			o.defaultFilter = f
		}
	}
}

// WithSessionTTL sets how long idle sessions are kept. Zero keeps them forever.
func WithSessionTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithOrchestratorOptions sets options applied to every session's orchestrator.
func WithOrchestratorOptions(opts ...service.Option) Option {
	return func(o *options) { o.orchOpts = append(o.orchOpts, opts...) }
}

// WithTimeouts sets the read and write timeouts of the HTTP server.
func WithTimeouts(read, write time.Duration) Option {
	return func(o *options) {
		o.readTimeout = read
		o.writeTimeout = write
	}
}

// New builds the server over gw.
func New(gw gateway.FetchGateway, opts ...Option) *Server {
	o := options{
		gatherer:      prometheus.DefaultGatherer,
		defaultFilter: model.FilterGoodFirstIssue,
		ttl:           DefaultSessionTTL,
		readTimeout:   30 * time.Second,
		writeTimeout:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	app := fiber.New(fiber.Config{
		AppName:               "scout",
		ReadTimeout:           o.readTimeout,
		WriteTimeout:          o.writeTimeout,
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
		// Query values, params and cookies outlive the request as session
		// state and cache keys, so they must not alias fasthttp buffers.
		Immutable: true,
	})

	s := &Server{
		app:      app,
		sessions: NewRegistry(gw, o.defaultFilter, o.ttl, o.orchOpts...),
	}

	app.Use(requestLogger())
	app.Get("/healthz", s.health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{})))

	v1 := app.Group("/api/v1")
	newSessionHandler(s.sessions).Register(v1)

	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	log.Info("listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown stops accepting requests and closes every session.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.app.ShutdownWithTimeout(timeout)
	s.sessions.Close()
	return err
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// requestLogger logs each request once its status is known.
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		log.Debug("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).Round(time.Millisecond),
		)
		return nil
	}
}

// errorHandler maps session errors to status codes. The body always carries
// a presentable message.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := err.Error()

	var fe *fiber.Error
	var ile *service.IssueListError
	var fetchErr *gateway.FetchError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		msg = fe.Message
	case errors.As(err, &ile):
		code = fiber.StatusBadGateway
		if ile.Empty() {
			code = fiber.StatusNotFound
		}
	case errors.Is(err, gateway.ErrRateLimited):
		code = fiber.StatusTooManyRequests
	case errors.As(err, &fetchErr):
		code = fiber.StatusBadGateway
	case errors.Is(err, service.ErrNoMorePages):
		code = fiber.StatusNotFound
	case errors.Is(err, service.ErrInvalidPage):
		code = fiber.StatusBadRequest
	case errors.Is(err, service.ErrSuperseded):
		code = fiber.StatusConflict
	}

	if code >= fiber.StatusInternalServerError {
		log.Warn("request failed", "path", c.Path(), "status", code, "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
