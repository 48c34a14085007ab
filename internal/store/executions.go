package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// ExecutionRecord is an immutable fact about one delegated task execution.
// Append-only; the running count per station drives the maturation phase.
type ExecutionRecord struct {
	ID               int64
	StationID        string
	NodeID           string
	TaskType         string
	Success          bool
	LatencyMs        int64
	QualityScore     *float64
	CapabilitiesUsed []string
	CreatedAt        int64
}

// InsertExecution appends one execution record. Timestamp defaults to now.
func (db *DB) InsertExecution(rec *ExecutionRecord) error {
	if rec.CreatedAt == 0 {
		rec.CreatedAt = time.Now().UnixMilli()
	}
	caps, err := marshalJSON(rec.CapabilitiesUsed)
	if err != nil {
		return fmt.Errorf("marshal capabilities_used: %w", err)
	}

	success := 0
	if rec.Success {
		success = 1
	}

	result, err := db.Exec(`
		INSERT INTO execution_records (station_id, node_id, task_type, success,
			latency_ms, quality_score, capabilities_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.StationID, rec.NodeID, rec.TaskType, success,
		rec.LatencyMs, rec.QualityScore, caps, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert execution: %w", err)
	}

	id, _ := result.LastInsertId()
	rec.ID = id
	return nil
}

// CountExecutions returns the cumulative execution count for a station.
// This count is the sole driver of the maturation phase.
func (db *DB) CountExecutions(stationID string) (int64, error) {
	var count int64
	err := db.QueryRow(`
		SELECT COUNT(*) FROM execution_records WHERE station_id = ?
	`, stationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count executions: %w", err)
	}
	return count, nil
}

// ListExecutions returns the most recent execution records for a station.
func (db *DB) ListExecutions(stationID string, limit int) ([]ExecutionRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, station_id, node_id, task_type, success,
			latency_ms, quality_score, capabilities_used, created_at
		FROM execution_records WHERE station_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var records []ExecutionRecord
	for rows.Next() {
		var r ExecutionRecord
		var nodeID, caps sql.NullString
		var success int
		var quality sql.NullFloat64
		if err := rows.Scan(&r.ID, &r.StationID, &nodeID, &r.TaskType, &success,
			&r.LatencyMs, &quality, &caps, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		r.NodeID = nodeID.String
		r.Success = success != 0
		if quality.Valid {
			r.QualityScore = &quality.Float64
		}
		if caps.Valid && caps.String != "" {
			if err := json.Unmarshal([]byte(caps.String), &r.CapabilitiesUsed); err != nil {
				return nil, fmt.Errorf("unmarshal capabilities_used: %w", err)
			}
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
