package nodemanager

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the Node Manager's HTTP control surface:
// start/execute/stop/list, one handler per route, following a plain
// handler/service split.
type Handler struct {
	logger  *slog.Logger
	manager *Manager
}

// NewHandler builds a Handler backed by manager.
func NewHandler(logger *slog.Logger, manager *Manager) *Handler {
	return &Handler{logger: logger, manager: manager}
}

// Routes returns a chi.Router with the four Node Manager HTTP routes
// mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/start", h.handleStart)
	r.Post("/execute", h.handleExecute)
	r.Post("/stop", h.handleStop)
	r.Get("/list", h.handleList)
	return r
}

type startRequest struct {
	TenantID      string `json:"tenant_id"`
	Port          int    `json:"port"`
	MemoryLimitMB int    `json:"memory_limit_mb"`
}

type startResponse struct {
	Success       bool   `json:"success"`
	TenantID      string `json:"tenant_id"`
	Port          int    `json:"port"`
	MemoryLimitMB int    `json:"memory_limit_mb"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}
	if req.MemoryLimitMB <= 0 {
		req.MemoryLimitMB = 40
	}

	if err := h.manager.StartNode(req.TenantID, req.Port, req.MemoryLimitMB); err != nil {
		h.logger.Error("starting node", "tenant_id", req.TenantID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}

	writeJSON(w, http.StatusOK, startResponse{
		Success:       true,
		TenantID:      req.TenantID,
		Port:          req.Port,
		MemoryLimitMB: req.MemoryLimitMB,
	})
}

type executeRequest struct {
	TenantID string `json:"tenant_id"`
	Command  string `json:"command"`
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	reply := h.manager.ExecuteCommand(req.TenantID, req.Command)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply)
}

type stopRequest struct {
	TenantID string `json:"tenant_id"`
}

func (h *Handler) handleStop(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}

	if err := h.manager.StopNode(req.TenantID); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type listEntry struct {
	TenantID   string `json:"tenant_id"`
	Port       int    `json:"port"`
	Status     string `json:"status"`
	MemoryUsed int64  `json:"memory_used"`
	KeyCount   int    `json:"key_count"`
	CreatedAt  string `json:"created_at"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	nodes := h.manager.ListNodes()
	out := make([]listEntry, 0, len(nodes))
	for _, n := range nodes {
		status := "stopped"
		if n.Running {
			status = "running"
		}
		out = append(out, listEntry{
			TenantID:   n.TenantID,
			Port:       n.Port,
			Status:     status,
			MemoryUsed: n.MemoryUsed,
			KeyCount:   n.KeyCount,
			CreatedAt:  n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
