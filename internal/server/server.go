package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/backend"
	"github.com/hongminglow/defect-portal/internal/config"
	"github.com/hongminglow/defect-portal/internal/http/handlers"
	"github.com/hongminglow/defect-portal/internal/middleware"
)

// LoginPath is the rate-limited credential endpoint.
const LoginPath = "/session/login"

// Server wraps an http.Server with configured routes.
type Server struct {
	inner   *http.Server
	store   *sessionStore
	stop    chan struct{}
	handler http.Handler
}

// New opens the session store, wires middleware and routes, and returns a ready server.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := openSessionStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := backend.NewClient(cfg.BackendURL, backend.Paths{
		Profile: cfg.BackendProfilePath,
		Login:   cfg.BackendLoginPath,
		Logout:  cfg.BackendLogoutPath,
	}, logger.Named("backend"))
	if err != nil {
		_ = store.close()
		return nil, fmt.Errorf("init backend client: %w", err)
	}

	limiter := middleware.NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRatePerMinute)
	stop := make(chan struct{})
	limiter.StartCleanup(5*time.Minute, stop)

	router := routes(cfg, store, client, logger)

	var handler http.Handler = router
	handler = middleware.RateLimit(limiter, []string{LoginPath}, logger, handler)
	handler = middleware.Logging(logger, handler)
	handler = middleware.Recovery(logger, handler)
	handler = middleware.CORS(cfg.CORSOrigins, handler)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer, store: store, stop: stop, handler: handler}, nil
}

// routes registers every endpoint. The page catch-all is registered last.
func routes(cfg config.Config, store *sessionStore, client *backend.Client, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	sessions := handlers.NewSessions(store.resolver, client, cfg.SessionTTL, logger.Named("session"))

	handlers.NewHealthHandler(time.Now(), cfg.SessionStore, cfg.BackendURL).Register(router)
	handlers.NewSessionHandler(sessions, logger.Named("session")).Register(router)
	handlers.NewProxyHandler(client, handlers.DefaultResources(), logger.Named("proxy")).Register(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	handlers.NewPageHandler(sessions, cfg.WebRoot, logger.Named("pages")).Register(router)

	return router
}

// Handler exposes the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server and releases the session store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.inner.Shutdown(ctx)
	close(s.stop)
	return errors.Join(err, s.store.close())
}
