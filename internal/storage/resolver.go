package storage

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/hongminglow/defect-portal/internal/auth"
)

// SlotCookieName carries the signed slot token for server-side drivers.
const SlotCookieName = "portal_slot"

// TokenResolver keys server-side slots by a signed, HttpOnly slot cookie.
type TokenResolver struct {
	store  SlotStore
	tokens *auth.SlotTokens
	secure bool
}

var _ Resolver = (*TokenResolver)(nil)

// NewTokenResolver creates a resolver over store using tokens to sign slot ids.
func NewTokenResolver(store SlotStore, tokens *auth.SlotTokens, secure bool) *TokenResolver {
	return &TokenResolver{store: store, tokens: tokens, secure: secure}
}

// Resolve returns the request's slot, issuing a fresh one when the cookie is
// missing or fails verification.
func (t *TokenResolver) Resolve(w http.ResponseWriter, r *http.Request) (Storage, error) {
	if c, err := r.Cookie(SlotCookieName); err == nil {
		if id, err := t.tokens.Parse(c.Value); err == nil {
			return NewSlot(t.store, id), nil
		} else if !errors.Is(err, auth.ErrInvalidToken) {
			return nil, err
		}
	}

	id := uuid.NewString()
	token, err := t.tokens.Generate(id)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SlotCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(t.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return NewSlot(t.store, id), nil
}
