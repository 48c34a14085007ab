package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Node types.
const (
	NodeCapability = "capability"
	NodeStation    = "station"
	NodeGateway    = "gateway"
)

// Node statuses.
const (
	StatusActive      = "active"
	StatusDegraded    = "degraded"
	StatusUnavailable = "unavailable"
)

// GraphNode represents one capability unit in the graph.
type GraphNode struct {
	ID              int64
	NodeID          string
	NodeType        string // capability, station, gateway
	StationID       string
	ActivationCount int64
	SuccessCount    int64
	FailureCount    int64
	TotalLatencyMs  int64
	FitnessScore    float64
	Capabilities    []string
	Status          string
	Metadata        map[string]string
	LastActivatedAt *int64
	CreatedAt       int64
	UpdatedAt       int64
}

const nodeColumns = `id, node_id, node_type, station_id,
	activation_count, success_count, failure_count, total_latency_ms,
	fitness_score, capabilities, status, metadata, last_activated_at,
	created_at, updated_at`

// UpsertNode inserts a node if its node_id is unknown, otherwise updates
// only the descriptive fields. Accumulated counters and fitness are never
// overwritten, so re-running genesis or replaying a create proposal is safe.
// Returns true if a new node was created.
func (db *DB) UpsertNode(node *GraphNode) (bool, error) {
	now := time.Now().UnixMilli()
	caps, err := marshalJSON(node.Capabilities)
	if err != nil {
		return false, fmt.Errorf("marshal capabilities: %w", err)
	}
	meta, err := marshalJSON(node.Metadata)
	if err != nil {
		return false, fmt.Errorf("marshal metadata: %w", err)
	}

	status := node.Status
	if status == "" {
		status = StatusActive
	}

	existing, err := db.GetNode(node.NodeID)
	if err != nil {
		return false, err
	}

	if existing == nil {
		result, err := db.Exec(`
			INSERT INTO graph_nodes (node_id, node_type, station_id, fitness_score,
				capabilities, status, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, node.NodeID, node.NodeType, node.StationID, neutralFitness,
			caps, status, meta, now, now)
		if err != nil {
			return false, fmt.Errorf("insert node %s: %w", node.NodeID, err)
		}
		id, _ := result.LastInsertId()
		node.ID = id
		node.FitnessScore = neutralFitness
		node.Status = status
		node.CreatedAt = now
		node.UpdatedAt = now
		return true, nil
	}

	_, err = db.Exec(`
		UPDATE graph_nodes SET node_type = ?, capabilities = ?, status = ?, metadata = ?, updated_at = ?
		WHERE node_id = ?
	`, node.NodeType, caps, status, meta, now, node.NodeID)
	if err != nil {
		return false, fmt.Errorf("update node %s: %w", node.NodeID, err)
	}
	return false, nil
}

// neutralFitness is the score assigned before any evolution cycle has run.
const neutralFitness = 50.0

// GetNode returns a node by its node_id, or nil if not found.
func (db *DB) GetNode(nodeID string) (*GraphNode, error) {
	row := db.QueryRow(`SELECT `+nodeColumns+` FROM graph_nodes WHERE node_id = ?`, nodeID)
	n, err := scanNode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get node %s: %w", nodeID, err)
	}
	return n, nil
}

// ListNodes returns all nodes, or all nodes for a station when stationID is
// non-empty. Ordered by fitness_score DESC.
func (db *DB) ListNodes(stationID string) ([]GraphNode, error) {
	query := `SELECT ` + nodeColumns + ` FROM graph_nodes ORDER BY fitness_score DESC, node_id`
	args := []any{}
	if stationID != "" {
		query = `SELECT ` + nodeColumns + ` FROM graph_nodes WHERE station_id = ? ORDER BY fitness_score DESC, node_id`
		args = append(args, stationID)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []GraphNode
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *n)
	}
	return nodes, rows.Err()
}

// UpdateNodeFitness writes a recomputed fitness score. The evolution cycle is
// the only caller; raw counters are untouched.
func (db *DB) UpdateNodeFitness(nodeID string, score float64) error {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE graph_nodes SET fitness_score = ?, updated_at = ? WHERE node_id = ?
	`, score, now, nodeID)
	if err != nil {
		return fmt.Errorf("update fitness %s: %w", nodeID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("update fitness %s: %w", nodeID, ErrNotFound)
	}
	return nil
}

// RecordNodeActivation bumps a node's health counters in a single atomic
// update. Counters only ever increase here; derived fields are left alone.
func (db *DB) RecordNodeActivation(nodeID string, success bool, latencyMs int64) error {
	now := time.Now().UnixMilli()
	successInc := 0
	failureInc := 0
	if success {
		successInc = 1
	} else {
		failureInc = 1
	}

	result, err := db.Exec(`
		UPDATE graph_nodes SET
			activation_count = activation_count + 1,
			success_count = success_count + ?,
			failure_count = failure_count + ?,
			total_latency_ms = total_latency_ms + ?,
			last_activated_at = ?,
			updated_at = ?
		WHERE node_id = ?
	`, successInc, failureInc, latencyMs, now, now, nodeID)
	if err != nil {
		return fmt.Errorf("record activation %s: %w", nodeID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("record activation %s: %w", nodeID, ErrNotFound)
	}
	return nil
}

// DeleteNodeCascade removes a node and every edge incident to it.
// Only approved prune events reach this.
func (db *DB) DeleteNodeCascade(nodeID string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete node: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM graph_edges WHERE source_node_id = ? OR target_node_id = ?
	`, nodeID, nodeID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete incident edges %s: %w", nodeID, err)
	}

	result, err := tx.Exec(`DELETE FROM graph_nodes WHERE node_id = ?`, nodeID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete node %s: %w", nodeID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		tx.Rollback()
		return fmt.Errorf("delete node %s: %w", nodeID, ErrNotFound)
	}

	return tx.Commit()
}

// CountNodes returns the number of nodes for a station.
func (db *DB) CountNodes(stationID string) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM graph_nodes WHERE station_id = ?`, stationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNode(row rowScanner) (*GraphNode, error) {
	var n GraphNode
	var caps, meta sql.NullString
	var lastActivated sql.NullInt64
	err := row.Scan(&n.ID, &n.NodeID, &n.NodeType, &n.StationID,
		&n.ActivationCount, &n.SuccessCount, &n.FailureCount, &n.TotalLatencyMs,
		&n.FitnessScore, &caps, &n.Status, &meta, &lastActivated,
		&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if caps.Valid && caps.String != "" {
		if err := json.Unmarshal([]byte(caps.String), &n.Capabilities); err != nil {
			return nil, fmt.Errorf("unmarshal capabilities: %w", err)
		}
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if lastActivated.Valid {
		n.LastActivatedAt = &lastActivated.Int64
	}
	return &n, nil
}

func marshalJSON(v any) (string, error) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return "", nil
		}
	case map[string]string:
		if len(t) == 0 {
			return "", nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
