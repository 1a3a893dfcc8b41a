package transport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/d1mk9/aiproxy/internal/endpoints"
	"github.com/d1mk9/aiproxy/internal/metrics"
	"github.com/d1mk9/aiproxy/internal/middleware"
)

const (
	DefaultAddress = ":8080"
	MetricsPath    = "/metrics"
)

// ServerOptions configures the HTTP server. WriteTimeout defaults to zero
// because a query may legitimately take minutes.
type ServerOptions struct {
	Addr              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MaxBodyBytes      int64
	RateLimitPerMin   int
	MetricsEnabled    bool
}

// Server hosts the router over HTTP.
type Server struct {
	http   *http.Server
	engine *gin.Engine
	opts   ServerOptions
}

// NewServer builds the gin engine. The server does not listen until Start.
func NewServer(router *endpoints.Router, opts ServerOptions) *Server {
	if router == nil {
		panic("transport.NewServer: router is nil")
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddress
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 30 * time.Second
	}
	if opts.ReadHeaderTimeout == 0 {
		opts.ReadHeaderTimeout = 5 * time.Second
	}
	if opts.IdleTimeout == 0 {
		opts.IdleTimeout = 60 * time.Second
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = 5 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	engine := gin.New()
	// Trailing slashes are resolved by the router, not redirected.
	engine.RedirectTrailingSlash = false
	engine.Use(gin.Recovery(), middleware.RequestLogger())

	if opts.MetricsEnabled {
		metrics.Register()
		engine.GET(MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	handler := GinHandler(router, opts.MaxBodyBytes)
	apiGroup := engine.Group("/")
	if opts.RateLimitPerMin > 0 {
		apiGroup.Use(middleware.RateLimitMiddleware(opts.RateLimitPerMin))
	}
	for _, path := range router.Paths() {
		apiGroup.Any(path, handler)
		apiGroup.Any(path+"/", handler)
	}
	engine.NoRoute(handler)

	return &Server{
		engine: engine,
		opts:   opts,
		http: &http.Server{
			Addr:              opts.Addr,
			Handler:           engine,
			ReadTimeout:       opts.ReadTimeout,
			ReadHeaderTimeout: opts.ReadHeaderTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
		},
	}
}

// Handler exposes the engine, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start binds the listen address and serves in a background goroutine.
// Bind errors are returned; use Stop for graceful shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	go func() {
		log.Infof("listening on %s", ln.Addr())
		if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http server stopped")
		}
	}()
	return nil
}

// Stop gracefully shuts down the server, waiting up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	timeout := s.opts.ShutdownTimeout
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.http.Shutdown(ctx)
}
