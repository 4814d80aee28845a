package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/backend"
	"github.com/hongminglow/defect-portal/internal/casing"
	"github.com/hongminglow/defect-portal/internal/http/respond"
	"github.com/hongminglow/defect-portal/internal/models/dto"
	"github.com/hongminglow/defect-portal/internal/session"
)

var identifierFields = []string{"email", "username", "employeeId", "identifier"}

// SessionHandler owns the session endpoints: restore, login, logout and guard.
type SessionHandler struct {
	sessions *Sessions
	logger   *zap.Logger
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(sessions *Sessions, logger *zap.Logger) *SessionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionHandler{sessions: sessions, logger: logger}
}

// Register attaches session routes to the router.
func (h *SessionHandler) Register(r *mux.Router) {
	r.HandleFunc("/session", h.handleRestore).Methods(http.MethodGet)
	r.HandleFunc("/session/guard", h.handleGuard).Methods(http.MethodGet)
	r.HandleFunc("/session/login", h.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/session/logout", h.handleLogout).Methods(http.MethodPost)
}

func (h *SessionHandler) handleRestore(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Open(w, r)
	if err != nil {
		h.logger.Error("open session", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}
	sess.Provider.Initialize(r.Context())

	respond.NoStore(w)
	respond.JSON(w, http.StatusOK, snapshot(sess.Provider))
}

func (h *SessionHandler) handleGuard(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" || !strings.HasPrefix(path, "/") {
		respond.Error(w, http.StatusBadRequest, "path must be an absolute route")
		return
	}
	sess, err := h.sessions.Open(w, r)
	if err != nil {
		h.logger.Error("open session", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}
	sess.Provider.Initialize(r.Context())
	target, _ := sess.Provider.Guard(path)

	respond.NoStore(w)
	respond.JSON(w, http.StatusOK, dto.GuardResponse{
		Path:            path,
		Redirect:        target,
		SessionSnapshot: snapshot(sess.Provider),
	})
}

func (h *SessionHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var credentials casing.Record
	if err := json.NewDecoder(r.Body).Decode(&credentials); err != nil || credentials == nil {
		respond.JSON(w, http.StatusBadRequest, dto.LoginResponse{Error: "invalid JSON payload"})
		return
	}
	if strings.TrimSpace(credentials.String(identifierFields...)) == "" || strings.TrimSpace(credentials.String("password")) == "" {
		respond.JSON(w, http.StatusBadRequest, dto.LoginResponse{Error: "identifier and password are required"})
		return
	}

	sess, err := h.sessions.Open(w, r)
	if err != nil {
		h.logger.Error("open session", zap.Error(err))
		respond.JSON(w, http.StatusInternalServerError, dto.LoginResponse{Error: "session storage unavailable"})
		return
	}

	raw, err := sess.Backend.Login(r.Context(), credentials)
	if err != nil {
		var rejected *backend.LoginError
		if errors.As(err, &rejected) {
			respond.JSON(w, http.StatusUnauthorized, dto.LoginResponse{Error: rejected.Message})
			return
		}
		h.logger.Error("login call failed", zap.Error(err))
		respond.JSON(w, http.StatusBadGateway, dto.LoginResponse{Error: "login service unavailable"})
		return
	}

	user := sess.Provider.Login(r.Context(), raw)
	if wantsHTML(r) {
		http.Redirect(w, r, sess.Navigator.Target, http.StatusSeeOther)
		return
	}
	respond.NoStore(w)
	respond.JSON(w, http.StatusOK, dto.LoginResponse{Success: true, User: &user, Redirect: sess.Navigator.Target})
}

func (h *SessionHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Open(w, r)
	if err != nil {
		h.logger.Error("open session", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}
	sess.Provider.Logout(r.Context())

	if wantsHTML(r) {
		http.Redirect(w, r, sess.Navigator.Target, http.StatusSeeOther)
		return
	}
	respond.NoStore(w)
	respond.JSON(w, http.StatusOK, dto.LogoutResponse{Success: true, Redirect: sess.Navigator.Target})
}

func snapshot(p *session.Provider) dto.SessionSnapshot {
	out := dto.SessionSnapshot{State: p.State().String()}
	if user, ok := p.User(); ok {
		out.Authenticated = true
		out.User = &user
	}
	return out
}
