// Package server exposes the engine over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/edgeparse/internal/engine"
	"github.com/danmuck/edgeparse/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	DefaultName         = "parsectl"
	DefaultAddr         = ":9200"
	DefaultMaxBodyBytes = 8 << 20
	shutdownTimeout     = 5 * time.Second
)

var (
	ErrTLSCertFileRequired = errors.New("server: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("server: tls key file required")
)

type Config struct {
	Name         string
	Addr         string
	CorsOrigins  []string
	MaxBodyBytes int64

	// AuthToken, when set, is required as a bearer token on routes that change registry state.
	AuthToken string
	TLS       TLSConfig
}

// TLSConfig switches the listener to HTTPS when both files are set.
type TLSConfig struct {
	CertFile string
	KeyFile  string
}

func (c TLSConfig) Enabled() bool {
	return strings.TrimSpace(c.CertFile) != "" || strings.TrimSpace(c.KeyFile) != ""
}

func (c Config) Validate() error {
	if !c.TLS.Enabled() {
		return nil
	}
	if strings.TrimSpace(c.TLS.CertFile) == "" {
		return ErrTLSCertFileRequired
	}
	if strings.TrimSpace(c.TLS.KeyFile) == "" {
		return ErrTLSKeyFileRequired
	}
	return nil
}

func DefaultConfig() Config {
	return Config{
		Name:         DefaultName,
		Addr:         DefaultAddr,
		CorsOrigins:  []string{"http://localhost:3000"},
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

type Server struct {
	Name     string
	Addr     string
	Appeared time.Time

	engine       *engine.Engine
	router       *gin.Engine
	logger       zerolog.Logger
	maxBodyBytes int64
	authToken    string
	tls          TLSConfig
}

// New builds the router with recovery, request logging, metrics and CORS. Routes are added
// by RegisterRoutes.
func New(cfg Config, eng *engine.Engine, logger zerolog.Logger) *Server {
	if cfg.Name == "" {
		cfg.Name = DefaultName
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins:  normalizeOrigins(cfg.CorsOrigins),
		AllowMethods:  []string{"GET", "POST", "DELETE"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{headerBodyKind},
		MaxAge:        12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		Name:         cfg.Name,
		Addr:         cfg.Addr,
		Appeared:     time.Now(),
		engine:       eng,
		router:       r,
		logger:       logger,
		maxBodyBytes: cfg.MaxBodyBytes,
		authToken:    cfg.AuthToken,
		tls:          cfg.TLS,
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Serve listens on the configured address until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener registers routes and serves on ln, over TLS when configured, until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.RegisterRoutes()
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str("addr", ln.Addr().String()).
			Str("service", s.Name).
			Bool("tls", s.tls.Enabled()).
			Msg("listening")
		if s.tls.Enabled() {
			errCh <- srv.ServeTLS(ln, s.tls.CertFile, s.tls.KeyFile)
			return
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info().Str("service", s.Name).Msg("stopped")
		return nil
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
