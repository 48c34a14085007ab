package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/myelinproj/myelin/internal/classifier"
	"github.com/myelinproj/myelin/internal/engine"
	"github.com/myelinproj/myelin/internal/router"
	"github.com/myelinproj/myelin/internal/store"
)

func testServer(t *testing.T) (*Server, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eng := engine.New(db)
	sup := router.New(&classifier.Mock{
		Result: &classifier.Classification{TaskType: "coding", Confidence: 0.8},
	})
	return New(db, eng, sup, "st-1", "test"), db
}

func doJSON(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "GET", "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["db"] != true {
		t.Errorf("db = %v, want true", resp["db"])
	}
}

func TestGenesisAndStatus(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "POST", "/api/genesis", "")
	if w.Code != http.StatusOK {
		t.Fatalf("genesis status = %d; body: %s", w.Code, w.Body.String())
	}

	var gen map[string]any
	json.Unmarshal(w.Body.Bytes(), &gen)
	if gen["nodes_created"] != float64(7) {
		t.Errorf("nodes_created = %v, want 7", gen["nodes_created"])
	}

	w = doJSON(t, srv, "GET", "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}

	var status map[string]any
	json.Unmarshal(w.Body.Bytes(), &status)
	if status["station_id"] != "st-1" {
		t.Errorf("station_id = %v, want st-1", status["station_id"])
	}
	if status["phase"] != "genesis" {
		t.Errorf("phase = %v, want genesis", status["phase"])
	}
	if status["node_count"] != float64(7) {
		t.Errorf("node_count = %v, want 7", status["node_count"])
	}
	if status["edge_count"] != float64(6) {
		t.Errorf("edge_count = %v, want 6", status["edge_count"])
	}
}

func TestTopology(t *testing.T) {
	srv, _ := testServer(t)
	doJSON(t, srv, "POST", "/api/genesis", "")

	w := doJSON(t, srv, "GET", "/api/topology", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Nodes) != 7 {
		t.Errorf("nodes = %d, want 7", len(resp.Nodes))
	}
	if len(resp.Edges) != 6 {
		t.Errorf("edges = %d, want 6", len(resp.Edges))
	}
	for _, e := range resp.Edges {
		if e["weight"] != 0.5 {
			t.Errorf("edge %v weight = %v, want 0.5", e["edge_id"], e["weight"])
			break
		}
	}
}

func TestRouteEndpoint(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "POST", "/api/route", `{"task_type":"coding"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["route"] != "st-1-coding" {
		t.Errorf("route = %v, want st-1-coding", resp["route"])
	}
	if resp["confidence"] != 0.9 {
		t.Errorf("confidence = %v, want 0.9", resp["confidence"])
	}
}

func TestRouteEndpointClassifies(t *testing.T) {
	srv, _ := testServer(t)

	body := `{"task_type":"unknown","description":"refactor the parser"}`
	w := doJSON(t, srv, "POST", "/api/route", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["route"] != "st-1-coding" {
		t.Errorf("route = %v, want st-1-coding", resp["route"])
	}
	if resp["confidence"] != 0.8 {
		t.Errorf("confidence = %v, want classifier's 0.8", resp["confidence"])
	}
}

func TestAddExecution(t *testing.T) {
	srv, db := testServer(t)
	doJSON(t, srv, "POST", "/api/genesis", "")

	body := `{"node_id":"st-1-coding","task_type":"coding","success":true,"latency_ms":120}`
	w := doJSON(t, srv, "POST", "/api/executions", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	node, err := db.GetNode("st-1-coding")
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if node.ActivationCount != 1 || node.SuccessCount != 1 {
		t.Errorf("activations = %d/%d, want 1/1", node.ActivationCount, node.SuccessCount)
	}
}

func TestAddExecutionMissingTaskType(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "POST", "/api/executions", `{"node_id":"st-1-coding"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListExecutions(t *testing.T) {
	srv, _ := testServer(t)
	doJSON(t, srv, "POST", "/api/genesis", "")
	doJSON(t, srv, "POST", "/api/executions", `{"task_type":"coding","success":true,"latency_ms":50}`)
	doJSON(t, srv, "POST", "/api/executions", `{"task_type":"chat","success":false,"latency_ms":80}`)

	w := doJSON(t, srv, "GET", "/api/executions?limit=1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Executions []map[string]any `json:"executions"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Executions) != 1 {
		t.Fatalf("executions = %d, want 1", len(resp.Executions))
	}
	// Newest first.
	if resp.Executions[0]["task_type"] != "chat" {
		t.Errorf("task_type = %v, want chat", resp.Executions[0]["task_type"])
	}
}

func TestEvolveEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	doJSON(t, srv, "POST", "/api/genesis", "")

	w := doJSON(t, srv, "POST", "/api/evolve", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["station_id"] != "st-1" {
		t.Errorf("station_id = %v, want st-1", resp["station_id"])
	}
	if resp["phase"] != "genesis" {
		t.Errorf("phase = %v, want genesis", resp["phase"])
	}
}

func TestEventApproveFlow(t *testing.T) {
	srv, db := testServer(t)
	doJSON(t, srv, "POST", "/api/genesis", "")

	proposal := `{"edge_id":"st-1->st-1-coding","weight":0.9}`
	ev := &store.EvolutionEvent{
		EventID:   "ev-rw-1",
		StationID: "st-1",
		Kind:      store.KindReweight,
		TargetID:  store.EdgeID("st-1", "st-1-coding"),
		Status:    store.EventPending,
		Rationale: proposal,
	}
	if err := db.CreateEvolutionEvent(ev); err != nil {
		t.Fatalf("create event: %v", err)
	}

	w := doJSON(t, srv, "GET", "/api/events", "")
	var list struct {
		Events []map[string]any `json:"events"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Events) != 1 {
		t.Fatalf("pending events = %d, want 1", len(list.Events))
	}

	w = doJSON(t, srv, "POST", "/api/events/ev-rw-1/approve", "")
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "approved" {
		t.Errorf("status = %v, want approved", resp["status"])
	}

	edge, err := db.GetEdgeByEdgeID(store.EdgeID("st-1", "st-1-coding"))
	if err != nil {
		t.Fatalf("get edge: %v", err)
	}
	if edge.Weight != 0.9 {
		t.Errorf("weight = %f, want 0.9 after approval", edge.Weight)
	}

	// Second approval of a resolved event conflicts.
	w = doJSON(t, srv, "POST", "/api/events/ev-rw-1/approve", "")
	if w.Code != http.StatusConflict {
		t.Errorf("re-approve status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestEventRejectEndpoint(t *testing.T) {
	srv, db := testServer(t)
	doJSON(t, srv, "POST", "/api/genesis", "")

	ev := &store.EvolutionEvent{
		EventID:   "ev-pr-1",
		StationID: "st-1",
		Kind:      store.KindPruneNode,
		TargetID:  "st-1-scraping",
		Status:    store.EventPending,
		Rationale: `{"fitness":12.0}`,
	}
	if err := db.CreateEvolutionEvent(ev); err != nil {
		t.Fatalf("create event: %v", err)
	}

	w := doJSON(t, srv, "POST", "/api/events/ev-pr-1/reject", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reject status = %d; body: %s", w.Code, w.Body.String())
	}

	// The node survives a rejection.
	node, err := db.GetNode("st-1-scraping")
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if node == nil {
		t.Error("node pruned despite rejection")
	}
}

func TestEventApproveUnknown(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "POST", "/api/events/no-such-event/approve", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRouteBadJSON(t *testing.T) {
	srv, _ := testServer(t)

	w := doJSON(t, srv, "POST", "/api/route", `{`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
