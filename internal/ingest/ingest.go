// Package ingest imports execution history from JSONL files, one execution
// record per line. It is the bulk path into the graph; the HTTP API covers
// the one-at-a-time case.
package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/myelinproj/myelin/internal/engine"
	"github.com/myelinproj/myelin/internal/store"
)

// Record is a single line of an execution log file.
type Record struct {
	StationID        string   `json:"station_id"`
	NodeID           string   `json:"node_id"`
	TaskType         string   `json:"task_type"`
	Success          bool     `json:"success"`
	LatencyMs        int64    `json:"latency_ms"`
	QualityScore     *float64 `json:"quality_score"`
	CapabilitiesUsed []string `json:"capabilities_used"`
	CreatedAt        int64    `json:"created_at"`
}

// ImportFile reads a JSONL execution log and ingests every well-formed
// record. Malformed lines are skipped, not fatal: log files get truncated
// and interleaved in the wild. Returns the number of records ingested.
func ImportFile(ctx context.Context, eng *engine.Engine, stationID, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open execution log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB line buffer

	imported := 0
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		rec, err := parseLine(line, stationID)
		if err != nil || rec == nil {
			continue // skip malformed lines
		}
		if err := eng.IngestExecution(ctx, rec); err != nil {
			return imported, fmt.Errorf("ingest record %d: %w", imported+1, err)
		}
		imported++
	}

	if err := scanner.Err(); err != nil {
		return imported, fmt.Errorf("scan execution log: %w", err)
	}

	return imported, nil
}

// ImportLines ingests execution records from a string (for testing).
func ImportLines(ctx context.Context, eng *engine.Engine, stationID, content string) (int, error) {
	imported := 0
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		rec, err := parseLine([]byte(line), stationID)
		if err != nil || rec == nil {
			continue
		}
		if err := eng.IngestExecution(ctx, rec); err != nil {
			return imported, fmt.Errorf("ingest record %d: %w", imported+1, err)
		}
		imported++
	}
	return imported, nil
}

func parseLine(line []byte, stationID string) (*store.ExecutionRecord, error) {
	var rec Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, err
	}

	if rec.StationID == "" {
		rec.StationID = stationID
	}
	if rec.StationID == "" || rec.TaskType == "" {
		return nil, nil
	}

	return &store.ExecutionRecord{
		StationID:        rec.StationID,
		NodeID:           rec.NodeID,
		TaskType:         rec.TaskType,
		Success:          rec.Success,
		LatencyMs:        rec.LatencyMs,
		QualityScore:     rec.QualityScore,
		CapabilitiesUsed: rec.CapabilitiesUsed,
		CreatedAt:        rec.CreatedAt,
	}, nil
}
