package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/hongminglow/defect-portal/internal/http/respond"
)

// HealthHandler returns uptime, the session storage driver and the backend it relays to.
type HealthHandler struct {
	startedAt   time.Time
	storeDriver string
	backendURL  string
}

// NewHealthHandler creates a health endpoint handler.
func NewHealthHandler(startedAt time.Time, storeDriver, backendURL string) *HealthHandler {
	return &HealthHandler{startedAt: startedAt, storeDriver: storeDriver, backendURL: backendURL}
}

// Register wires the handler into the router.
func (h *HealthHandler) Register(r *mux.Router) {
	r.HandleFunc("/health", h.handle).Methods(http.MethodGet)
}

func (h *HealthHandler) handle(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"uptime":       time.Since(h.startedAt).Truncate(time.Second).String(),
		"sessionStore": h.storeDriver,
		"backend":      h.backendURL,
	})
}
