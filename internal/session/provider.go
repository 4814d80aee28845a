// Package session owns who is logged in for one browser: the persisted
// session record, profile reconciliation, login, logout and the redirect guard.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/backend"
	"github.com/hongminglow/defect-portal/internal/casing"
	"github.com/hongminglow/defect-portal/internal/metrics"
	"github.com/hongminglow/defect-portal/internal/models"
	"github.com/hongminglow/defect-portal/internal/storage"
)

// DefaultTTL is the expiry recorded alongside a fresh login.
const DefaultTTL = 20 * time.Minute

// State is the session lifecycle state.
type State int

const (
	Initializing State = iota
	Authenticated
	Unauthenticated
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Backend is the slice of the backend API the session needs.
// FetchProfile returns a nil record when there is no profile and
// backend.ErrUnauthorized when the session was refused.
type Backend interface {
	FetchProfile(ctx context.Context) (casing.Record, error)
	Logout(ctx context.Context) error
}

// Navigator receives forced navigations.
type Navigator interface {
	Navigate(path string)
}

// Options tunes a Provider. Zero values pick defaults.
type Options struct {
	Logger *zap.Logger
	TTL    time.Duration
	Now    func() time.Time
}

// Provider is the session context of a single browser.
type Provider struct {
	store   storage.Storage
	backend Backend
	nav     Navigator
	logger  *zap.Logger
	ttl     time.Duration
	now     func() time.Time

	state State
	user  *models.SessionUser
}

// NewProvider creates a provider in the Initializing state.
func NewProvider(store storage.Storage, be Backend, nav Navigator, opts Options) *Provider {
	p := &Provider{
		store:   store,
		backend: be,
		nav:     nav,
		logger:  opts.Logger,
		ttl:     opts.TTL,
		now:     opts.Now,
		state:   Initializing,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.ttl <= 0 {
		p.ttl = DefaultTTL
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p
}

// State returns the current lifecycle state.
func (p *Provider) State() State {
	return p.state
}

// User returns the current user, if any.
func (p *Provider) User() (models.SessionUser, bool) {
	if p.user == nil {
		return models.SessionUser{}, false
	}
	return *p.user, true
}

// Initialize seeds from persisted storage and then reconciles with the backend profile.
func (p *Provider) Initialize(ctx context.Context) {
	p.Seed(ctx)
	p.Refresh(ctx)
}

// Seed restores the persisted user, if any, without contacting the backend.
// The state stays Initializing.
func (p *Provider) Seed(ctx context.Context) {
	p.user = p.cachedUser(ctx)
}

// Refresh fetches the backend profile and settles the session state.
//
// A fetched profile is merged over the cached user and persisted. A failed or
// empty fetch keeps the cached user as is. An authorization failure clears the
// session regardless of any cache.
func (p *Provider) Refresh(ctx context.Context) {
	cached := p.user
	profile, err := p.backend.FetchProfile(ctx)
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		p.logger.Info("profile fetch unauthorized; clearing session")
		p.clear(ctx)
		p.transition(Unauthenticated, "forced_logout")
		return
	case err != nil:
		p.logger.Warn("profile fetch failed; using cached user", zap.Error(err))
		p.settleOnCache(cached)
		return
	case len(profile) == 0:
		p.settleOnCache(cached)
		return
	}

	merged := mergeProfile(cached, profile)
	p.persistUser(ctx, merged)
	p.user = &merged
	p.transition(Authenticated, "profile_restore")
}

// Login stores a user returned by a successful credential check and
// navigates to the dashboard.
func (p *Provider) Login(ctx context.Context, raw casing.Record) models.SessionUser {
	user := userFromRecord(raw)
	p.persistUser(ctx, user)
	expiry := p.now().Add(p.ttl).UnixMilli()
	if err := p.store.SetItem(ctx, storage.KeySessionExpiry, strconv.FormatInt(expiry, 10)); err != nil {
		p.storageFailed("set_expiry", err)
	}
	p.user = &user
	p.transition(Authenticated, "login")
	p.nav.Navigate(DashboardPath)
	return user
}

// Logout tells the backend, then clears the session whatever the outcome and
// navigates to the login page.
func (p *Provider) Logout(ctx context.Context) {
	if err := p.backend.Logout(ctx); err != nil {
		p.logger.Warn("backend logout failed", zap.Error(err))
	}
	p.clear(ctx)
	p.transition(Unauthenticated, "logout")
	p.nav.Navigate(LoginPath)
}

// Guard applies the redirect rule for path and reports the forced target.
// Nothing happens while the session is still initializing.
func (p *Provider) Guard(path string) (string, bool) {
	if p.state == Initializing {
		return "", false
	}
	if p.user == nil && !IsPublicPath(path) {
		p.nav.Navigate(LoginPath)
		return LoginPath, true
	}
	return "", false
}

func (p *Provider) settleOnCache(cached *models.SessionUser) {
	p.user = cached
	if cached != nil {
		p.transition(Authenticated, "cache_restore")
		return
	}
	p.transition(Unauthenticated, "no_profile")
}

func (p *Provider) cachedUser(ctx context.Context) *models.SessionUser {
	raw, err := p.store.GetItem(ctx, storage.KeyCurrentUser)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.storageFailed("get_user", err)
		}
		return nil
	}
	var user models.SessionUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		p.logger.Warn("discarding unreadable cached user", zap.Error(err))
		return nil
	}
	return &user
}

func (p *Provider) persistUser(ctx context.Context, user models.SessionUser) {
	raw, err := json.Marshal(user)
	if err != nil {
		p.logger.Error("encode session user", zap.Error(err))
		return
	}
	if err := p.store.SetItem(ctx, storage.KeyCurrentUser, string(raw)); err != nil {
		p.storageFailed("set_user", err)
	}
}

func (p *Provider) clear(ctx context.Context) {
	p.user = nil
	if err := p.store.RemoveItem(ctx, storage.KeyCurrentUser, storage.KeySessionExpiry); err != nil {
		p.storageFailed("clear", err)
	}
}

func (p *Provider) storageFailed(op string, err error) {
	metrics.StorageErrors.WithLabelValues(op).Inc()
	p.logger.Error("session storage failure", zap.String("op", op), zap.Error(err))
}

func (p *Provider) transition(to State, reason string) {
	from := p.state
	p.state = to
	metrics.SessionTransitions.WithLabelValues(from.String(), to.String(), reason).Inc()
	p.logger.Debug("session transition",
		zap.Stringer("from", from),
		zap.Stringer("to", to),
		zap.String("reason", reason))
}
