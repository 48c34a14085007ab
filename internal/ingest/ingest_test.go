package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/myelinproj/myelin/internal/engine"
	"github.com/myelinproj/myelin/internal/store"
)

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("open memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	eng := engine.New(db)
	if _, err := eng.SeedGenesis(context.Background(), "st-1"); err != nil {
		t.Fatalf("seed genesis: %v", err)
	}
	return eng
}

func TestImportLines(t *testing.T) {
	eng := testEngine(t)

	content := `{"node_id":"st-1-coding","task_type":"coding","success":true,"latency_ms":100}
{"node_id":"st-1-coding","task_type":"coding","success":false,"latency_ms":300}
not json at all
{"node_id":"st-1-chat","task_type":"chat","success":true,"latency_ms":40}
{"node_id":"st-1-chat","success":true}
`

	n, err := ImportLines(context.Background(), eng, "st-1", content)
	if err != nil {
		t.Fatalf("ImportLines: %v", err)
	}
	if n != 3 {
		t.Errorf("imported = %d, want 3 (malformed and incomplete lines skipped)", n)
	}

	count, err := eng.DB.CountExecutions("st-1")
	if err != nil {
		t.Fatalf("count executions: %v", err)
	}
	if count != 3 {
		t.Errorf("execution count = %d, want 3", count)
	}

	node, err := eng.DB.GetNode("st-1-coding")
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if node.ActivationCount != 2 || node.SuccessCount != 1 || node.FailureCount != 1 {
		t.Errorf("coding counters = %d/%d/%d, want 2/1/1",
			node.ActivationCount, node.SuccessCount, node.FailureCount)
	}
}

func TestImportLinesStationOverride(t *testing.T) {
	eng := testEngine(t)

	// A record naming its own station keeps it.
	content := `{"station_id":"st-2","task_type":"chat","success":true}`
	if _, err := ImportLines(context.Background(), eng, "st-1", content); err != nil {
		t.Fatalf("ImportLines: %v", err)
	}

	count, err := eng.DB.CountExecutions("st-2")
	if err != nil {
		t.Fatalf("count executions: %v", err)
	}
	if count != 1 {
		t.Errorf("st-2 execution count = %d, want 1", count)
	}
}

func TestImportFile(t *testing.T) {
	eng := testEngine(t)

	path := filepath.Join(t.TempDir(), "executions.jsonl")
	content := `{"task_type":"reasoning","success":true,"latency_ms":250}
{"task_type":"reasoning","success":true,"latency_ms":150}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	n, err := ImportFile(context.Background(), eng, "st-1", path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}
}

func TestImportFileMissing(t *testing.T) {
	eng := testEngine(t)

	if _, err := ImportFile(context.Background(), eng, "st-1", "/no/such/file.jsonl"); err == nil {
		t.Error("want error for missing file")
	}
}
