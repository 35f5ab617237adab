package handler

import (
	"net/http"

	"sdnview/internal/metrics"
)

// Router assembles the API. Events and Metrics may be nil.
type Router struct {
	Topology *TopologyHandler
	Events   http.Handler
	Metrics  *metrics.Registry
}

// Handler builds the mux and wraps it in the middleware chain
func (rt Router) Handler() http.Handler {
	mux := http.NewServeMux()
	h := rt.Topology

	mux.HandleFunc("GET /api/topology", h.GetTopology)
	mux.HandleFunc("GET /api/graph", h.GetGraph)
	mux.HandleFunc("GET /api/export/{format}", h.Export)
	mux.HandleFunc("GET /api/identities", h.GetIdentities)
	mux.HandleFunc("POST /api/discover", h.TriggerDiscovery)
	mux.HandleFunc("POST /api/reconcile", h.Reconcile)
	mux.HandleFunc("GET /api/reconcile/last", h.GetLastResult)
	mux.HandleFunc("GET /api/runs", h.ListRuns)
	mux.HandleFunc("DELETE /api/pairs", h.DeletePair)
	mux.HandleFunc("GET /healthz", h.Health)

	if rt.Events != nil {
		mux.Handle("GET /events", rt.Events)
	}
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics.Handler())
	}

	// Logger is outermost so recovered panics are still counted
	return Chain(mux,
		Logger(rt.Metrics),
		Recover,
	)
}
