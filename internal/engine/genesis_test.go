package engine

import (
	"context"
	"testing"

	"github.com/myelinproj/myelin/internal/store"
)

func TestSeedGenesisCreatesCoreSet(t *testing.T) {
	e := testEngine(t)

	created, err := e.SeedGenesis(context.Background(), "st-1")
	if err != nil {
		t.Fatalf("SeedGenesis: %v", err)
	}
	// Station node plus the core capabilities.
	want := 1 + len(genesisNodes)
	if created != want {
		t.Errorf("created = %d, want %d", created, want)
	}

	nodes, err := e.DB.ListNodes("st-1")
	if err != nil {
		t.Fatalf("ListNodes: %v", err)
	}
	if len(nodes) != want {
		t.Errorf("len(nodes) = %d, want %d", len(nodes), want)
	}

	stations := 0
	for _, n := range nodes {
		if n.NodeType == store.NodeStation {
			stations++
		}
	}
	if stations != 1 {
		t.Errorf("station nodes = %d, want 1", stations)
	}

	edges, err := e.DB.ListEdges("st-1")
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != len(genesisNodes) {
		t.Errorf("len(edges) = %d, want %d", len(edges), len(genesisNodes))
	}
	for _, edge := range edges {
		if edge.Weight != genesisEdgeWeight {
			t.Errorf("edge %s weight = %f, want %f", edge.EdgeID, edge.Weight, genesisEdgeWeight)
		}
	}
}

func TestSeedGenesisIdempotent(t *testing.T) {
	e := testEngine(t)

	if _, err := e.SeedGenesis(context.Background(), "st-1"); err != nil {
		t.Fatalf("first SeedGenesis: %v", err)
	}

	// Accumulate history on a genesis node, then re-seed.
	coding := GenesisNodeID("st-1", "coding")
	for i := 0; i < 4; i++ {
		if err := e.DB.RecordNodeActivation(coding, true, 50); err != nil {
			t.Fatalf("RecordNodeActivation: %v", err)
		}
	}

	created, err := e.SeedGenesis(context.Background(), "st-1")
	if err != nil {
		t.Fatalf("second SeedGenesis: %v", err)
	}
	if created != 0 {
		t.Errorf("created = %d on re-seed, want 0", created)
	}

	node, _ := e.DB.GetNode(coding)
	if node.ActivationCount != 4 {
		t.Errorf("ActivationCount = %d after re-seed, want 4 (counters preserved)", node.ActivationCount)
	}

	nodes, _ := e.DB.ListNodes("st-1")
	if len(nodes) != 1+len(genesisNodes) {
		t.Errorf("len(nodes) = %d after re-seed, want %d", len(nodes), 1+len(genesisNodes))
	}
}

func TestSeedGenesisEmptyStation(t *testing.T) {
	e := testEngine(t)

	if _, err := e.SeedGenesis(context.Background(), ""); err == nil {
		t.Error("expected error for empty station id")
	}
}

func TestIngestExecution(t *testing.T) {
	e := testEngine(t)
	seedStation(t, e, "st-1")

	coding := GenesisNodeID("st-1", "coding")
	rec := &store.ExecutionRecord{
		StationID: "st-1",
		NodeID:    coding,
		TaskType:  "coding",
		Success:   true,
		LatencyMs: 140,
	}
	if err := e.IngestExecution(context.Background(), rec); err != nil {
		t.Fatalf("IngestExecution: %v", err)
	}

	count, _ := e.DB.CountExecutions("st-1")
	if count != 1 {
		t.Errorf("execution count = %d, want 1", count)
	}

	node, _ := e.DB.GetNode(coding)
	if node.ActivationCount != 1 || node.SuccessCount != 1 {
		t.Errorf("node counters = %d/%d, want 1/1", node.ActivationCount, node.SuccessCount)
	}

	edge, _ := e.DB.GetEdgeByEdgeID(store.EdgeID("st-1", coding))
	if edge.ActivationCount != 1 || edge.CoActivationCount != 1 {
		t.Errorf("edge counters = %d/%d, want 1/1", edge.ActivationCount, edge.CoActivationCount)
	}
	if edge.AvgLatencyMs != 140 {
		t.Errorf("AvgLatencyMs = %f, want 140", edge.AvgLatencyMs)
	}
}

func TestIngestExecutionValidation(t *testing.T) {
	e := testEngine(t)

	if err := e.IngestExecution(context.Background(), &store.ExecutionRecord{TaskType: "chat"}); err == nil {
		t.Error("expected error for empty station id")
	}
	if err := e.IngestExecution(context.Background(), &store.ExecutionRecord{StationID: "st-1"}); err == nil {
		t.Error("expected error for empty task type")
	}
}

func TestIngestExecutionWithoutNode(t *testing.T) {
	e := testEngine(t)
	seedStation(t, e, "st-1")

	// Record without a node id still counts toward maturation.
	rec := &store.ExecutionRecord{StationID: "st-1", TaskType: "chat", Success: true}
	if err := e.IngestExecution(context.Background(), rec); err != nil {
		t.Fatalf("IngestExecution: %v", err)
	}

	count, _ := e.DB.CountExecutions("st-1")
	if count != 1 {
		t.Errorf("execution count = %d, want 1", count)
	}
}
