package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/myelinproj/myelin/internal/engine"
	"github.com/myelinproj/myelin/internal/router"
	"github.com/myelinproj/myelin/internal/store"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stationID := s.stationFor(r)

	execs, err := s.db.CountExecutions(stationID)
	if err != nil {
		writeError(w, err)
		return
	}
	nodes, err := s.db.CountNodes(stationID)
	if err != nil {
		writeError(w, err)
		return
	}
	edges, err := s.db.CountEdges(stationID)
	if err != nil {
		writeError(w, err)
		return
	}
	pending, err := s.db.ListPendingEvolutionEvents(stationID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"station_id":      stationID,
		"phase":           engine.PhaseFor(execs),
		"execution_count": execs,
		"node_count":      nodes,
		"edge_count":      edges,
		"pending_events":  len(pending),
	})
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	stationID := s.stationFor(r)

	nodes, err := s.db.ListNodes(stationID)
	if err != nil {
		writeError(w, err)
		return
	}
	edges, err := s.db.ListEdges(stationID)
	if err != nil {
		writeError(w, err)
		return
	}

	nodeViews := make([]map[string]any, 0, len(nodes))
	for i := range nodes {
		nodeViews = append(nodeViews, nodeView(&nodes[i]))
	}
	edgeViews := make([]map[string]any, 0, len(edges))
	for i := range edges {
		edgeViews = append(edgeViews, edgeView(&edges[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"station_id": stationID,
		"nodes":      nodeViews,
		"edges":      edgeViews,
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StationID   string `json:"station_id"`
		TaskType    string `json:"task_type"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.StationID == "" {
		req.StationID = s.stationID
	}

	decision, err := s.supervisor.Route(r.Context(), req.StationID, req.TaskType, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(decision)
}

func (s *Server) handleAddExecution(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StationID        string   `json:"station_id"`
		NodeID           string   `json:"node_id"`
		TaskType         string   `json:"task_type"`
		Success          bool     `json:"success"`
		LatencyMs        int64    `json:"latency_ms"`
		QualityScore     *float64 `json:"quality_score"`
		CapabilitiesUsed []string `json:"capabilities_used"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.StationID == "" {
		req.StationID = s.stationID
	}
	if req.TaskType == "" {
		http.Error(w, `{"error":"task_type required"}`, http.StatusBadRequest)
		return
	}

	rec := &store.ExecutionRecord{
		StationID:        req.StationID,
		NodeID:           req.NodeID,
		TaskType:         req.TaskType,
		Success:          req.Success,
		LatencyMs:        req.LatencyMs,
		QualityScore:     req.QualityScore,
		CapabilitiesUsed: req.CapabilitiesUsed,
	}
	if err := s.engine.IngestExecution(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "id": rec.ID})
}

func (s *Server) handleListExecutions(w http.ResponseWriter, r *http.Request) {
	stationID := s.stationFor(r)

	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	recs, err := s.db.ListExecutions(stationID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]map[string]any, 0, len(recs))
	for i := range recs {
		views = append(views, executionView(&recs[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"station_id": stationID,
		"executions": views,
	})
}

func (s *Server) handleEvolve(w http.ResponseWriter, r *http.Request) {
	stationID := s.stationFor(r)

	summary, err := s.engine.RunCycle(r.Context(), stationID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	stationID := s.stationFor(r)

	events, err := s.engine.ListPending(stationID)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]map[string]any, 0, len(events))
	for i := range events {
		views = append(views, eventView(&events[i]))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"station_id": stationID,
		"events":     views,
	})
}

func (s *Server) handleApproveEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	ev, err := s.engine.Approve(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventView(ev))
}

func (s *Server) handleRejectEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	ev, err := s.engine.Reject(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventView(ev))
}

func (s *Server) handleGenesis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StationID string `json:"station_id"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
			return
		}
	}
	if req.StationID == "" {
		req.StationID = s.stationID
	}

	created, err := s.engine.SeedGenesis(r.Context(), req.StationID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"station_id":    req.StationID,
		"nodes_created": created,
	})
}

// writeError maps domain sentinels to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrInvalidState), errors.Is(err, engine.ErrCycleInFlight):
		status = http.StatusConflict
	case errors.Is(err, router.ErrValidation):
		status = http.StatusBadRequest
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func nodeView(n *store.GraphNode) map[string]any {
	return map[string]any{
		"node_id":           n.NodeID,
		"node_type":         n.NodeType,
		"station_id":        n.StationID,
		"activation_count":  n.ActivationCount,
		"success_count":     n.SuccessCount,
		"failure_count":     n.FailureCount,
		"fitness_score":     n.FitnessScore,
		"capabilities":      n.Capabilities,
		"status":            n.Status,
		"last_activated_at": n.LastActivatedAt,
	}
}

func edgeView(e *store.GraphEdge) map[string]any {
	return map[string]any{
		"edge_id":             e.EdgeID,
		"source_node_id":      e.SourceNodeID,
		"target_node_id":      e.TargetNodeID,
		"weight":              e.Weight,
		"myelination":         e.Myelination,
		"activation_count":    e.ActivationCount,
		"co_activation_count": e.CoActivationCount,
		"avg_latency_ms":      e.AvgLatencyMs,
	}
}

func eventView(ev *store.EvolutionEvent) map[string]any {
	var rationale any
	if ev.Rationale != "" {
		if err := json.Unmarshal([]byte(ev.Rationale), &rationale); err != nil {
			rationale = ev.Rationale
		}
	}
	return map[string]any{
		"event_id":    ev.EventID,
		"station_id":  ev.StationID,
		"kind":        ev.Kind,
		"target_id":   ev.TargetID,
		"status":      ev.Status,
		"rationale":   rationale,
		"proposed_at": ev.ProposedAt,
		"resolved_at": ev.ResolvedAt,
	}
}

func executionView(rec *store.ExecutionRecord) map[string]any {
	return map[string]any{
		"id":                rec.ID,
		"station_id":        rec.StationID,
		"node_id":           rec.NodeID,
		"task_type":         rec.TaskType,
		"success":           rec.Success,
		"latency_ms":        rec.LatencyMs,
		"quality_score":     rec.QualityScore,
		"capabilities_used": rec.CapabilitiesUsed,
		"created_at":        rec.CreatedAt,
	}
}
