package engine

import (
	"context"
	"fmt"

	"github.com/myelinproj/myelin/internal/store"
)

// IngestExecution records one execution outcome: the immutable record is
// appended, the executing node's counters are bumped atomically, and the
// station→node edge registers a co-activation. Derived fields are never
// touched here — that is the cycle's job.
//
// Safe to call concurrently with an in-flight evolution cycle: the cycle
// tolerates a stale counter snapshot.
func (e *Engine) IngestExecution(ctx context.Context, rec *store.ExecutionRecord) error {
	if rec.StationID == "" {
		return fmt.Errorf("ingest execution: empty station id")
	}
	if rec.TaskType == "" {
		return fmt.Errorf("ingest execution: empty task type")
	}

	if err := e.DB.InsertExecution(rec); err != nil {
		return err
	}

	if rec.NodeID == "" {
		return nil
	}

	if err := e.DB.RecordNodeActivation(rec.NodeID, rec.Success, rec.LatencyMs); err != nil {
		return err
	}

	// The station and the node fired together: upsert creates the edge on
	// first observation, later calls only bump counters.
	edge := &store.GraphEdge{
		SourceNodeID: rec.StationID,
		TargetNodeID: rec.NodeID,
		StationID:    rec.StationID,
	}
	if _, err := e.DB.UpsertEdge(edge); err != nil {
		return err
	}
	if err := e.DB.RecordEdgeActivation(edge.EdgeID, rec.LatencyMs, true); err != nil {
		return err
	}
	return nil
}
