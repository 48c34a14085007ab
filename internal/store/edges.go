package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Myelination is a one-way ratchet: once an edge is myelinated it never
// automatically reverts.
type Myelination string

const (
	MyelinationNone Myelination = "none"
	Myelinated      Myelination = "myelinated"
)

// CanMyelinate reports whether the ratchet still allows the transition.
func (m Myelination) CanMyelinate() bool {
	return m == MyelinationNone
}

// GraphEdge is a directed, weighted relation between two nodes.
type GraphEdge struct {
	ID                int64
	EdgeID            string
	SourceNodeID      string
	TargetNodeID      string
	StationID         string
	Weight            float64
	Myelination       Myelination
	MyelinatedAt      *int64
	ActivationCount   int64
	CoActivationCount int64
	AvgLatencyMs      float64
	CreatedAt         int64
	UpdatedAt         int64
}

// EdgeID derives the deterministic edge key so re-creation is idempotent.
func EdgeID(sourceNodeID, targetNodeID string) string {
	return sourceNodeID + "->" + targetNodeID
}

const edgeColumns = `id, edge_id, source_node_id, target_node_id, station_id,
	weight, myelination, myelinated_at,
	activation_count, co_activation_count, avg_latency_ms,
	created_at, updated_at`

// UpsertEdge creates the edge on first observation. An existing edge keeps
// its counters and myelination state; only the weight is refreshed when the
// caller supplies one.
func (db *DB) UpsertEdge(edge *GraphEdge) (bool, error) {
	now := time.Now().UnixMilli()
	edge.EdgeID = EdgeID(edge.SourceNodeID, edge.TargetNodeID)

	existing, err := db.GetEdgeByEdgeID(edge.EdgeID)
	if err != nil {
		return false, err
	}

	if existing == nil {
		weight := edge.Weight
		if weight <= 0 {
			weight = 0.5
		}
		result, err := db.Exec(`
			INSERT INTO graph_edges (edge_id, source_node_id, target_node_id, station_id,
				weight, myelination, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'none', ?, ?)
		`, edge.EdgeID, edge.SourceNodeID, edge.TargetNodeID, edge.StationID,
			weight, now, now)
		if err != nil {
			return false, fmt.Errorf("insert edge %s: %w", edge.EdgeID, err)
		}
		id, _ := result.LastInsertId()
		edge.ID = id
		edge.Weight = weight
		edge.Myelination = MyelinationNone
		edge.CreatedAt = now
		edge.UpdatedAt = now
		return true, nil
	}

	*edge = *existing
	return false, nil
}

// GetEdgeByEdgeID returns an edge by its deterministic ID, or nil if not found.
func (db *DB) GetEdgeByEdgeID(edgeID string) (*GraphEdge, error) {
	row := db.QueryRow(`SELECT `+edgeColumns+` FROM graph_edges WHERE edge_id = ?`, edgeID)
	e, err := scanEdge(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get edge %s: %w", edgeID, err)
	}
	return e, nil
}

// ListEdges returns all edges, or all edges for a station when stationID is
// non-empty.
func (db *DB) ListEdges(stationID string) ([]GraphEdge, error) {
	query := `SELECT ` + edgeColumns + ` FROM graph_edges ORDER BY edge_id`
	args := []any{}
	if stationID != "" {
		query = `SELECT ` + edgeColumns + ` FROM graph_edges WHERE station_id = ? ORDER BY edge_id`
		args = append(args, stationID)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var edges []GraphEdge
	for rows.Next() {
		e, err := scanEdge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, *e)
	}
	return edges, rows.Err()
}

// RecordEdgeActivation bumps the edge counters and folds the latency sample
// into the running average: newAvg = (avg*count + sample) / (count+1).
func (db *DB) RecordEdgeActivation(edgeID string, latencyMs int64, coActivated bool) error {
	now := time.Now().UnixMilli()
	coInc := 0
	if coActivated {
		coInc = 1
	}

	result, err := db.Exec(`
		UPDATE graph_edges SET
			avg_latency_ms = (avg_latency_ms * activation_count + ?) / (activation_count + 1),
			activation_count = activation_count + 1,
			co_activation_count = co_activation_count + ?,
			updated_at = ?
		WHERE edge_id = ?
	`, latencyMs, coInc, now, edgeID)
	if err != nil {
		return fmt.Errorf("record edge activation %s: %w", edgeID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("record edge activation %s: %w", edgeID, ErrNotFound)
	}
	return nil
}

// MarkEdgeMyelinated flips the ratchet. Already-myelinated edges are left
// untouched; the guard lives in the WHERE clause so the write is idempotent.
// Returns true if the edge transitioned on this call.
func (db *DB) MarkEdgeMyelinated(edgeID string) (bool, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE graph_edges SET myelination = 'myelinated', myelinated_at = ?, updated_at = ?
		WHERE edge_id = ? AND myelination = 'none'
	`, now, now, edgeID)
	if err != nil {
		return false, fmt.Errorf("myelinate edge %s: %w", edgeID, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		// Either unknown or already myelinated; distinguish for callers.
		existing, err := db.GetEdgeByEdgeID(edgeID)
		if err != nil {
			return false, err
		}
		if existing == nil {
			return false, fmt.Errorf("myelinate edge %s: %w", edgeID, ErrNotFound)
		}
		return false, nil
	}
	return true, nil
}

// SetEdgeWeight clamps and writes a new weight. Only approved reweight
// events reach this.
func (db *DB) SetEdgeWeight(edgeID string, weight float64) error {
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE graph_edges SET weight = ?, updated_at = ? WHERE edge_id = ?
	`, weight, now, edgeID)
	if err != nil {
		return fmt.Errorf("set edge weight %s: %w", edgeID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("set edge weight %s: %w", edgeID, ErrNotFound)
	}
	return nil
}

// CountEdges returns the number of edges for a station.
func (db *DB) CountEdges(stationID string) (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM graph_edges WHERE station_id = ?`, stationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count edges: %w", err)
	}
	return count, nil
}

func scanEdge(row rowScanner) (*GraphEdge, error) {
	var e GraphEdge
	var myelination string
	var myelinatedAt sql.NullInt64
	err := row.Scan(&e.ID, &e.EdgeID, &e.SourceNodeID, &e.TargetNodeID, &e.StationID,
		&e.Weight, &myelination, &myelinatedAt,
		&e.ActivationCount, &e.CoActivationCount, &e.AvgLatencyMs,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Myelination = Myelination(myelination)
	if myelinatedAt.Valid {
		e.MyelinatedAt = &myelinatedAt.Int64
	}
	return &e, nil
}
