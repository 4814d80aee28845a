// Package cookie keeps the persisted session record in the browser itself,
// inside an authenticated and encrypted gorilla/sessions cookie.
package cookie

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/hongminglow/defect-portal/internal/storage"
)

// SessionName is the cookie holding the persisted record.
const SessionName = "portal_session"

// Resolver hands out cookie-backed storage bound to one request/response pair.
type Resolver struct {
	store *sessions.CookieStore
}

var _ storage.Resolver = (*Resolver)(nil)

// NewResolver creates a resolver. hashKey authenticates the cookie; blockKey
// (16, 24 or 32 bytes) encrypts it.
func NewResolver(hashKey, blockKey []byte, maxAge int, secure bool) *Resolver {
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(maxAge)
	return &Resolver{store: store}
}

// Resolve decodes the request's session cookie. An undecodable cookie yields a
// fresh, empty session.
func (c *Resolver) Resolve(w http.ResponseWriter, r *http.Request) (storage.Storage, error) {
	sess, err := c.store.Get(r, SessionName)
	if err != nil && sess == nil {
		return nil, fmt.Errorf("load session cookie: %w", err)
	}
	return &Storage{session: sess, r: r, w: w}, nil
}

// Storage is the cookie session of a single request. Writes are saved
// immediately, so they must happen before the response header is written.
type Storage struct {
	session *sessions.Session
	r       *http.Request
	w       http.ResponseWriter
}

// GetItem reads key from the session cookie.
func (s *Storage) GetItem(_ context.Context, key string) (string, error) {
	value, ok := s.session.Values[key].(string)
	if !ok {
		return "", storage.ErrNotFound
	}
	return value, nil
}

// SetItem writes key and re-saves the cookie.
func (s *Storage) SetItem(_ context.Context, key, value string) error {
	s.session.Values[key] = value
	return s.save()
}

// RemoveItem deletes keys and re-saves the cookie.
func (s *Storage) RemoveItem(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.session.Values, key)
	}
	return s.save()
}

func (s *Storage) save() error {
	if err := s.session.Save(s.r, s.w); err != nil {
		return fmt.Errorf("save session cookie: %w", err)
	}
	return nil
}
