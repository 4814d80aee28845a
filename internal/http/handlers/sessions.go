package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/backend"
	"github.com/hongminglow/defect-portal/internal/session"
	"github.com/hongminglow/defect-portal/internal/storage"
)

// Sessions builds the per-request session context: the browser's storage
// slot, a backend scope relaying its cookies, and a provider over both.
type Sessions struct {
	resolver storage.Resolver
	client   *backend.Client
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSessions creates the per-request session factory.
func NewSessions(resolver storage.Resolver, client *backend.Client, ttl time.Duration, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{resolver: resolver, client: client, ttl: ttl, logger: logger}
}

// Request is one browser request's view of its session.
type Request struct {
	Provider  *session.Provider
	Navigator *session.RecordingNavigator
	Backend   *backend.Scope
}

// Open resolves the request's storage slot and returns its session.
func (s *Sessions) Open(w http.ResponseWriter, r *http.Request) (*Request, error) {
	store, err := s.resolver.Resolve(w, r)
	if err != nil {
		return nil, fmt.Errorf("resolve session storage: %w", err)
	}
	scope := s.client.Scope(r, w)
	nav := &session.RecordingNavigator{}
	provider := session.NewProvider(store, scope, nav, session.Options{
		Logger: s.logger.With(zap.String("path", r.URL.Path)),
		TTL:    s.ttl,
	})
	return &Request{Provider: provider, Navigator: nav, Backend: scope}, nil
}

// wantsHTML reports whether the caller is a browser navigation rather than a fetch.
func wantsHTML(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}
