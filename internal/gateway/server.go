// Package gateway carries request and response envelopes over HTTP and
// WebSocket. It owns connection lifecycle and HTTP status codes; everything
// inside an envelope belongs to the dispatcher.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/actionwire/internal/auth"
	"github.com/danmuck/actionwire/internal/dispatch"
	"github.com/danmuck/actionwire/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	// ContentType marks request and response envelopes.
	ContentType = "application/x-actionwire"

	Version = "0.1.0"

	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type Config struct {
	Name        string
	CorsOrigins []string

	// Validator guards the /v1 routes. Nil leaves them open.
	Validator auth.Validator

	// TrustedProxies may set the client IP via forwarding headers. Nil
	// trusts loopback only.
	TrustedProxies []string
}

type Server struct {
	cfg        Config
	dispatcher *dispatch.Dispatcher
	router     *gin.Engine
	upgrader   websocket.Upgrader
	appeared   time.Time
}

func New(d *dispatch.Dispatcher, cfg Config) (*Server, error) {
	if cfg.Name == "" {
		cfg.Name = "actiond"
	}
	observability.RegisterMetrics()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestID())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(tracing())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  normalizeOrigins(cfg.CorsOrigins),
		AllowMethods:  []string{"GET", "POST"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", observability.RequestIDHeader},
		ExposeHeaders: []string{observability.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	proxies := cfg.TrustedProxies
	if proxies == nil {
		proxies = []string{"127.0.0.1", "::1"}
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		return nil, fmt.Errorf("gateway: trusted proxies: %w", err)
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		router:     r,
		appeared:   time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8192,
			WriteBufferSize: 8192,
			CheckOrigin:     originChecker(normalizeOrigins(cfg.CorsOrigins)),
		},
	}
	s.registerRoutes()
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.cfg.Name,
			"version": Version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   s.dispatcher.Catalog().Len() > 0,
			"actions": s.dispatcher.Catalog().Len(),
			"service": s.cfg.Name,
			"version": Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	if s.cfg.Validator != nil {
		v1.Use(requireToken(s.cfg.Validator))
	}
	v1.GET("/actions", s.handleList)
	v1.POST("/actions", s.handleInvoke)
	v1.GET("/actions/ws", s.handleWebSocket)
}

// Serve runs the server on ln until ctx is done, then shuts down gracefully.
// TLS is terminated here when both certFile and keyFile are set.
func (s *Server) Serve(ctx context.Context, ln net.Listener, certFile, keyFile string) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			err = srv.ServeTLS(ln, certFile, keyFile)
		} else {
			err = srv.Serve(ln)
		}
		errCh <- err
	}()
	log.Info().Str("addr", ln.Addr().String()).Bool("tls", certFile != "").Msg("gateway listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func requireToken(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.ValidateHeader(v, c.GetHeader("Authorization")); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// originChecker admits non-browser clients (no Origin) and listed origins.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
