package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"sdnview/internal/codec"
	"sdnview/internal/domain"
	"sdnview/internal/loader"
	"sdnview/internal/reconcile"
	"sdnview/internal/service"
)

// maxBodyBytes bounds posted desired states and pair bodies
const maxBodyBytes = 1 << 20

// Topology is the service surface the handlers depend on
type Topology interface {
	Observe(ctx context.Context) (*domain.Snapshot, error)
	Snapshot() *domain.Snapshot
	Graph() *domain.Graph
	Identities() []domain.RouterLabel
	LastResult() *reconcile.Result
	ReconcileStored(ctx context.Context) (*reconcile.Result, error)
	Reconcile(ctx context.Context, desired domain.DesiredState) (*reconcile.Result, error)
	Runs(ctx context.Context, limit int) ([]domain.ReconcileRun, error)
	RemovePair(ctx context.Context, pair domain.Pair) error
}

// DiscoveryTrigger schedules an observe pass without waiting for it
type DiscoveryTrigger interface {
	Trigger()
}

// TopologyHandler handles topology API requests
type TopologyHandler struct {
	svc       Topology
	discovery DiscoveryTrigger
	codecs    *codec.Registry
}

// NewTopologyHandler creates a new topology handler
func NewTopologyHandler(svc Topology) *TopologyHandler {
	return &TopologyHandler{svc: svc, codecs: codec.NewRegistry()}
}

// SetDiscoveryTrigger routes POST /api/discover to the poller instead of
// running the pass inline
func (h *TopologyHandler) SetDiscoveryTrigger(d DiscoveryTrigger) {
	h.discovery = d
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetTopology returns the latest snapshot
func (h *TopologyHandler) GetTopology(w http.ResponseWriter, r *http.Request) {
	snap := h.svc.Snapshot()
	if snap == nil {
		h.writeError(w, "No topology observed yet", "", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, snap, http.StatusOK)
}

// GetGraph returns the visualization graph of the latest snapshot
func (h *TopologyHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	graph := h.svc.Graph()
	if graph == nil {
		h.writeError(w, "No topology observed yet", "", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, graph, http.StatusOK)
}

// Export renders the latest snapshot in the format named by the path
func (h *TopologyHandler) Export(w http.ResponseWriter, r *http.Request) {
	format := r.PathValue("format")
	exporter, ok := h.codecs.Lookup(format)
	if !ok {
		h.writeError(w, "Unknown export format",
			fmt.Sprintf("supported: %s", strings.Join(h.codecs.Formats(), ", ")), http.StatusNotFound)
		return
	}

	snap := h.svc.Snapshot()
	if snap == nil {
		h.writeError(w, "No topology observed yet", "", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=topology.%s", format))

	if err := exporter.Export(snap, w); err != nil {
		// Headers are already written
		slog.Error("failed to export topology", "format", format, "error", err)
	}
}

// GetIdentities returns the persisted router labels
func (h *TopologyHandler) GetIdentities(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.svc.Identities(), http.StatusOK)
}

// TriggerDiscovery requests an observe pass. With a poller attached the
// pass runs in the background; otherwise it runs inline and the snapshot
// is returned.
func (h *TopologyHandler) TriggerDiscovery(w http.ResponseWriter, r *http.Request) {
	if h.discovery != nil {
		h.discovery.Trigger()
		h.writeJSON(w, map[string]string{"status": "discovery_triggered"}, http.StatusAccepted)
		return
	}

	snap, err := h.svc.Observe(r.Context())
	if err != nil {
		slog.Error("observe failed", "error", err)
		h.writeError(w, "Observe failed", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, snap, http.StatusOK)
}

// Reconcile runs one reconciliation. An empty body selects the loaded
// desired state; otherwise the body is a desired state in JSON.
func (h *TopologyHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
		return
	}

	var res *reconcile.Result
	if len(strings.TrimSpace(string(body))) == 0 {
		res, err = h.svc.ReconcileStored(r.Context())
		if errors.Is(err, service.ErrNoDesiredState) {
			h.writeError(w, "No desired state loaded", "post a desired state or configure reconcile.desired_file", http.StatusConflict)
			return
		}
	} else {
		var desired domain.DesiredState
		if err := json.Unmarshal(body, &desired); err != nil {
			h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if err := loader.Validate(desired); err != nil {
			h.writeError(w, "Invalid desired state", err.Error(), http.StatusBadRequest)
			return
		}
		res, err = h.svc.Reconcile(r.Context(), desired)
	}
	if err != nil {
		slog.Error("reconcile failed", "error", err)
		h.writeError(w, "Reconcile failed", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, res, http.StatusOK)
}

// GetLastResult returns the detailed result of the latest reconciliation
func (h *TopologyHandler) GetLastResult(w http.ResponseWriter, r *http.Request) {
	res := h.svc.LastResult()
	if res == nil {
		h.writeError(w, "No reconciliation has run", "", http.StatusNotFound)
		return
	}
	h.writeJSON(w, res, http.StatusOK)
}

// ListRuns returns recent reconciliation summaries
func (h *TopologyHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid limit", v, http.StatusBadRequest)
			return
		}
		limit = n
	}

	runs, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list runs", "error", err)
		h.writeError(w, "Failed to list runs", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, runs, http.StatusOK)
}

// DeletePair retracts one directional pair on the controller
func (h *TopologyHandler) DeletePair(w http.ResponseWriter, r *http.Request) {
	var pair domain.Pair
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&pair); err != nil {
		h.writeError(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}
	if pair.Src == "" || pair.Dst == "" {
		h.writeError(w, "Invalid pair", "src and dst are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.RemovePair(r.Context(), pair); err != nil {
		slog.Error("failed to remove pair", "src", pair.Src, "dst", pair.Dst, "error", err)
		h.writeError(w, "Failed to remove pair", err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness and whether a snapshot exists
func (h *TopologyHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"status":   "ok",
		"observed": h.svc.Snapshot() != nil,
	}, http.StatusOK)
}

// Helper methods

func (h *TopologyHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON", "error", err)
	}
}

func (h *TopologyHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}
