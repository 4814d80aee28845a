package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/http/respond"
	"github.com/hongminglow/defect-portal/internal/models"
	"github.com/hongminglow/defect-portal/internal/models/dto"
)

// PageHandler serves portal pages behind the session redirect guard.
type PageHandler struct {
	sessions *Sessions
	webRoot  string
	logger   *zap.Logger
}

// NewPageHandler constructs the handler. An empty webRoot serves a JSON page
// descriptor instead of files.
func NewPageHandler(sessions *Sessions, webRoot string, logger *zap.Logger) *PageHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageHandler{sessions: sessions, webRoot: webRoot, logger: logger}
}

// Register attaches the static assets route and the catch-all page route.
func (h *PageHandler) Register(r *mux.Router) {
	if h.webRoot != "" {
		assets := http.StripPrefix("/static/", http.FileServer(http.Dir(filepath.Join(h.webRoot, "static"))))
		r.PathPrefix("/static/").Handler(assets).Methods(http.MethodGet, http.MethodHead)
	}
	r.PathPrefix("/").HandlerFunc(h.handlePage).Methods(http.MethodGet, http.MethodHead)
}

func (h *PageHandler) handlePage(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Open(w, r)
	if err != nil {
		h.logger.Error("open session", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "session storage unavailable")
		return
	}
	sess.Provider.Initialize(r.Context())

	if target, redirected := sess.Provider.Guard(r.URL.Path); redirected {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	respond.NoStore(w)
	if h.webRoot == "" {
		var current *models.SessionUser
		if user, ok := sess.Provider.User(); ok {
			current = &user
		}
		respond.JSON(w, http.StatusOK, dto.NewPageDescriptor(r.URL.Path, current))
		return
	}
	http.ServeFile(w, r, h.pageFile(r.URL.Path))
}

// pageFile maps a route to a file under the web root, falling back to
// index.html for client-side routes.
func (h *PageHandler) pageFile(route string) string {
	clean := path.Clean("/" + route)
	candidate := filepath.Join(h.webRoot, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate
	}
	return filepath.Join(h.webRoot, "index.html")
}
