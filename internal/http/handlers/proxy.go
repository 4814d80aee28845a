package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/hongminglow/defect-portal/internal/backend"
	"github.com/hongminglow/defect-portal/internal/casing"
	"github.com/hongminglow/defect-portal/internal/http/respond"
	"github.com/hongminglow/defect-portal/internal/metrics"
)

// maxProxyBody bounds request bodies relayed to the backend.
const maxProxyBody = 10 << 20

var errInvalidJSON = errors.New("invalid JSON payload")

// ProxyHandler relays /api/{resource} calls to the backend with the browser's
// cookies, rewriting field casing in both directions.
type ProxyHandler struct {
	client    *backend.Client
	resources map[string]Resource
	logger    *zap.Logger
}

// NewProxyHandler constructs the handler for resources.
func NewProxyHandler(client *backend.Client, resources []Resource, logger *zap.Logger) *ProxyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]Resource, len(resources))
	for _, res := range resources {
		byName[res.Name] = res
	}
	return &ProxyHandler{client: client, resources: byName, logger: logger}
}

// Register attaches the proxy routes to the router.
func (h *ProxyHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/{resource}", h.handle)
	api.HandleFunc("/{resource}/{rest:.*}", h.handle)
}

func (h *ProxyHandler) handle(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["resource"]
	res, ok := h.resources[name]
	if !ok {
		respond.Error(w, http.StatusNotFound, "unknown resource")
		return
	}

	body, contentType, err := outboundBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	started := time.Now()
	resp, err := h.client.Scope(r, w).Do(r.Context(), r.Method, r.URL.Path, r.URL.RawQuery, body, contentType)
	metrics.ProxyDuration.WithLabelValues(res.Name).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.ProxyRequests.WithLabelValues(res.Name, r.Method, "error").Inc()
		h.logger.Error("backend call failed", zap.String("resource", res.Name), zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "backend unavailable")
		return
	}
	defer resp.Body.Close()
	metrics.ProxyRequests.WithLabelValues(res.Name, r.Method, strconv.Itoa(resp.StatusCode)).Inc()

	h.relay(w, resp, res)
}

// relay writes the backend response to the browser, camelizing JSON bodies.
// Anything that is not JSON is copied through untouched. Redirects keep their
// status and Location.
func (h *ProxyHandler) relay(w http.ResponseWriter, resp *http.Response, res Resource) {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		h.logger.Error("read backend body", zap.String("resource", res.Name), zap.Error(err))
		respond.Error(w, http.StatusBadGateway, "backend response interrupted")
		return
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		w.Header().Set("Location", h.client.Relocate(loc))
	}

	if isJSON(resp.Header.Get("Content-Type")) && len(bytes.TrimSpace(raw)) > 0 {
		var payload any
		if err := json.Unmarshal(raw, &payload); err == nil {
			respond.JSON(w, resp.StatusCode, res.reshape(payload))
			return
		}
		h.logger.Warn("backend sent malformed JSON; relaying raw", zap.String("resource", res.Name))
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		w.Header().Set("Content-Disposition", cd)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(raw); err != nil {
		h.logger.Warn("write relayed body", zap.Error(err))
	}
}

// outboundBody Pascalizes JSON request bodies for the backend. Bodies over
// maxProxyBody fail with *http.MaxBytesError.
func outboundBody(w http.ResponseWriter, r *http.Request) (io.Reader, string, error) {
	if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
		return nil, "", nil
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxProxyBody))
	if err != nil {
		return nil, "", err
	}
	contentType := r.Header.Get("Content-Type")
	if len(raw) == 0 {
		return nil, contentType, nil
	}
	if !isJSON(contentType) {
		return bytes.NewReader(raw), contentType, nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", errInvalidJSON
	}
	encoded, err := json.Marshal(casing.Pascalize(payload))
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(encoded), "application/json", nil
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
