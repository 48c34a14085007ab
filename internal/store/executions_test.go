package store

import (
	"testing"
)

func TestInsertAndCountExecutions(t *testing.T) {
	db := testDB(t)

	for i := 0; i < 5; i++ {
		rec := &ExecutionRecord{
			StationID: "st-1",
			NodeID:    "st-1-coding",
			TaskType:  "coding",
			Success:   i%2 == 0,
			LatencyMs: int64(100 + i),
		}
		if err := db.InsertExecution(rec); err != nil {
			t.Fatalf("InsertExecution %d: %v", i, err)
		}
		if rec.ID == 0 {
			t.Fatal("rec.ID not set")
		}
	}

	count, err := db.CountExecutions("st-1")
	if err != nil {
		t.Fatalf("CountExecutions: %v", err)
	}
	if count != 5 {
		t.Errorf("count = %d, want 5", count)
	}

	count, _ = db.CountExecutions("st-2")
	if count != 0 {
		t.Errorf("count for empty station = %d, want 0", count)
	}
}

func TestListExecutionsLimit(t *testing.T) {
	db := testDB(t)

	quality := 0.85
	for i := 0; i < 10; i++ {
		rec := &ExecutionRecord{
			StationID:        "st-1",
			TaskType:         "chat",
			Success:          true,
			LatencyMs:        50,
			QualityScore:     &quality,
			CapabilitiesUsed: []string{"conversation"},
			CreatedAt:        int64(1000 + i),
		}
		if err := db.InsertExecution(rec); err != nil {
			t.Fatalf("InsertExecution: %v", err)
		}
	}

	records, err := db.ListExecutions("st-1", 3)
	if err != nil {
		t.Fatalf("ListExecutions: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}
	// Most recent first
	if records[0].CreatedAt != 1009 {
		t.Errorf("records[0].CreatedAt = %d, want 1009", records[0].CreatedAt)
	}
	if records[0].QualityScore == nil || *records[0].QualityScore != 0.85 {
		t.Errorf("QualityScore = %v, want 0.85", records[0].QualityScore)
	}
	if len(records[0].CapabilitiesUsed) != 1 {
		t.Errorf("CapabilitiesUsed = %v", records[0].CapabilitiesUsed)
	}
}
