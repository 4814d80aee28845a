// Package backend talks to the external defect API on behalf of a browser
// request, relaying cookies in both directions.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/casing"
	"github.com/hongminglow/defect-portal/internal/cookies"
)

// ErrUnauthorized indicates the backend refused the forwarded session.
var ErrUnauthorized = errors.New("backend: unauthorized")

// ErrRejected indicates the backend turned down a login attempt.
var ErrRejected = errors.New("backend: login rejected")

// LoginError carries the backend's message for a rejected login.
type LoginError struct {
	Status  int
	Message string
}

// Error reports the backend status and message.
func (e *LoginError) Error() string {
	return fmt.Sprintf("login rejected (%d): %s", e.Status, e.Message)
}

// Unwrap lets errors.Is match ErrRejected.
func (e *LoginError) Unwrap() error { return ErrRejected }

// Paths locates the session endpoints on the backend.
type Paths struct {
	Profile string
	Login   string
	Logout  string
}

// Client issues requests against the backend base URL.
type Client struct {
	base   *url.URL
	paths  Paths
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a client for baseURL. The underlying http.Client carries
// no explicit timeout and never follows redirects, so cookies set on a 3xx
// reach the browser.
func NewClient(baseURL string, paths Paths, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &Client{base: base, paths: paths, http: httpClient, logger: logger}, nil
}

// Scope binds the client to one browser request. Calls made through the scope
// send the browser's cookies and relay the backend's cookies to w.
func (c *Client) Scope(r *http.Request, w http.ResponseWriter) *Scope {
	return &Scope{client: c, in: r, out: w}
}

// URL resolves a backend path and raw query against the base URL.
func (c *Client) URL(path, rawQuery string) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawQuery = rawQuery
	return u.String()
}

// Relocate maps a backend Location onto the gateway: URLs on the backend host
// lose their scheme, host and base path. Anything else is returned unchanged.
func (c *Client) Relocate(location string) string {
	u, err := url.Parse(location)
	if err != nil || !u.IsAbs() || !strings.EqualFold(u.Host, c.base.Host) {
		return location
	}
	out := strings.TrimPrefix(u.EscapedPath(), strings.TrimRight(c.base.Path, "/"))
	if out == "" {
		out = "/"
	}
	if u.RawQuery != "" {
		out += "?" + u.RawQuery
	}
	return out
}

// Scope is a Client bound to a single browser request.
type Scope struct {
	client *Client
	in     *http.Request
	out    http.ResponseWriter
}

// Do sends a request to the backend. The caller owns the response body.
func (s *Scope) Do(ctx context.Context, method, path, rawQuery string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.client.URL(path, rawQuery), body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	cookies.ForwardRequest(s.in, req)

	resp, err := s.client.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	cookies.Forward(resp, s.out, s.client.logger)
	return resp, nil
}

// FetchProfile returns the current user's profile record, or nil when the
// backend has none. 401 and 403 map to ErrUnauthorized.
func (s *Scope) FetchProfile(ctx context.Context) (casing.Record, error) {
	resp, err := s.Do(ctx, http.MethodGet, s.client.paths.Profile, "", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		s.client.logger.Debug("profile fetch returned no profile", zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	payload, err := decodeRecord(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return unwrapUser(payload), nil
}

// Login submits credentials and returns the backend's user record.
// A rejection is reported as a *LoginError.
func (s *Scope) Login(ctx context.Context, credentials casing.Record) (casing.Record, error) {
	body, err := json.Marshal(casing.Pascalize(credentials))
	if err != nil {
		return nil, fmt.Errorf("encode credentials: %w", err)
	}
	resp, err := s.Do(ctx, http.MethodPost, s.client.paths.Login, "", bytes.NewReader(body), "application/json")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, decodeErr := decodeRecord(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoginError{Status: resp.StatusCode, Message: loginMessage(payload, resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode login response: %w", decodeErr)
	}
	if ok, present := payload.Bool("success"); present && !ok {
		return nil, &LoginError{Status: http.StatusUnauthorized, Message: loginMessage(payload, http.StatusUnauthorized)}
	}
	user := unwrapUser(payload)
	if user == nil {
		return nil, &LoginError{Status: http.StatusUnauthorized, Message: "login response carried no user"}
	}
	return user, nil
}

// Logout posts to the backend logout endpoint; the response body is ignored.
func (s *Scope) Logout(ctx context.Context) error {
	resp, err := s.Do(ctx, http.MethodPost, s.client.paths.Logout, "", nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("logout returned status %d", resp.StatusCode)
	}
	return nil
}

func decodeRecord(r io.Reader) (casing.Record, error) {
	var payload any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	rec, _ := casing.AsRecord(payload)
	return rec, nil
}

// unwrapUser accepts {user}, {data:{user}}, {data} and a bare user object.
func unwrapUser(payload casing.Record) casing.Record {
	if len(payload) == 0 {
		return nil
	}
	if user := payload.Record("user"); len(user) > 0 {
		return user
	}
	if data := payload.Record("data"); len(data) > 0 {
		if user := data.Record("user"); len(user) > 0 {
			return user
		}
		return data
	}
	if payload.Has("id", "userId", "email", "employeeId") {
		return payload
	}
	return nil
}

func loginMessage(payload casing.Record, status int) string {
	if msg := payload.String("error", "message"); msg != "" {
		return msg
	}
	return http.StatusText(status)
}
