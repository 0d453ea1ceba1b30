package router

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HTTPHandler implements header-mode: the client issues a single
// HTTP POST per command instead of holding open a line-mode socket,
// authenticating via an X-API-Key header rather than an AUTH line.
type HTTPHandler struct {
	logger *slog.Logger
	router *Router
}

// NewHTTPHandler builds an HTTPHandler driven by router.
func NewHTTPHandler(logger *slog.Logger, router *Router) *HTTPHandler {
	return &HTTPHandler{logger: logger, router: router}
}

// Routes mounts the header-mode surface.
func (h *HTTPHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/redis", h.handleRedis)
	return r
}

func (h *HTTPHandler) handleRedis(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get("X-API-Key")
	if apiKey == "" {
		http.Error(w, "missing X-API-Key", http.StatusUnauthorized)
		return
	}

	binding, ok := h.router.Authenticate(r.Context(), apiKey)
	if !ok {
		http.Error(w, "invalid API key", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 64*1024))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	reply, err := h.router.ForwardOnce(r.Context(), binding.TenantID, string(body))
	if err != nil {
		http.Error(w, fmt.Sprintf("-ERR %v\r\n", err), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write([]byte(reply))
}
