package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/myelinproj/myelin/internal/store"
)

// Myelination thresholds: an edge must have fired at least this often with
// at least this weight before it is reinforced.
const (
	myelinationMinActivations = 100
	myelinationMinWeight      = 0.7
)

// Pruning proposal thresholds.
const (
	pruneMaxFitness     = 30.0
	pruneInactivityDays = 7
)

// CycleSummary reports what one evolution cycle did.
type CycleSummary struct {
	StationID            string `json:"station_id"`
	EdgesUpdated         int    `json:"edges_updated"`
	PendingEventsCreated int    `json:"pending_events_created"`
	Phase                Phase  `json:"phase"`
}

// pruneRationale is the metric snapshot attached to a prune proposal.
type pruneRationale struct {
	Fitness         float64 `json:"fitness"`
	MaxFitness      float64 `json:"max_fitness"`
	LastActivatedAt *int64  `json:"last_activated_at"`
	InactivityDays  int     `json:"inactivity_days"`
}

// myelinationRationale is the metric snapshot attached to an auto-applied
// myelination event.
type myelinationRationale struct {
	ActivationCount int64   `json:"activation_count"`
	Weight          float64 `json:"weight"`
	MinActivations  int64   `json:"min_activations"`
	MinWeight       float64 `json:"min_weight"`
}

// RunCycle executes one evolution cycle for a station: recompute fitness
// for every node, auto-apply low-risk reinforcement, and queue high-risk
// structural changes as pending events. Only one cycle runs at a time per
// engine; an overlapping call returns ErrCycleInFlight.
//
// Mutations are per-entity upserts, so a store failure mid-cycle leaves
// already-applied changes intact and defers the rest to the next run.
func (e *Engine) RunCycle(ctx context.Context, stationID string) (*CycleSummary, error) {
	if !e.cycleRunning.CompareAndSwap(false, true) {
		return nil, ErrCycleInFlight
	}
	defer e.cycleRunning.Store(false)

	start := time.Now()
	summary, err := e.runCycle(ctx, stationID)
	if e.Metrics != nil {
		e.Metrics.ObserveCycle(time.Since(start), err == nil)
	}
	return summary, err
}

func (e *Engine) runCycle(ctx context.Context, stationID string) (*CycleSummary, error) {
	nodes, err := e.DB.ListNodes(stationID)
	if err != nil {
		return nil, fmt.Errorf("load nodes: %w", err)
	}
	edges, err := e.DB.ListEdges(stationID)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	execCount, err := e.DB.CountExecutions(stationID)
	if err != nil {
		return nil, fmt.Errorf("count executions: %w", err)
	}

	summary := &CycleSummary{
		StationID: stationID,
		Phase:     PhaseFor(execCount),
	}

	stats := ComputeGlobalStats(nodes)
	incident := incidentEdges(edges)

	// Recompute and persist node fitness.
	for i := range nodes {
		score := ScoreNode(&nodes[i], incident[nodes[i].NodeID], stats)
		if err := e.DB.UpdateNodeFitness(nodes[i].NodeID, score); err != nil {
			return nil, fmt.Errorf("write fitness: %w", err)
		}
		nodes[i].FitnessScore = score
	}

	// Reinforce heavily-used strong edges. Myelination is additive and
	// never reverts, so the risk table lets it apply immediately.
	for i := range edges {
		edge := &edges[i]
		if !edge.Myelination.CanMyelinate() {
			continue
		}
		if edge.ActivationCount < myelinationMinActivations || edge.Weight < myelinationMinWeight {
			continue
		}

		if RiskOf(store.KindMyelinate) == RiskAuto {
			changed, err := e.DB.MarkEdgeMyelinated(edge.EdgeID)
			if err != nil {
				return nil, fmt.Errorf("myelinate: %w", err)
			}
			if !changed {
				continue
			}
			summary.EdgesUpdated++
			if err := e.recordEvent(stationID, store.KindMyelinate, edge.EdgeID, store.EventApproved,
				myelinationRationale{
					ActivationCount: edge.ActivationCount,
					Weight:          edge.Weight,
					MinActivations:  myelinationMinActivations,
					MinWeight:       myelinationMinWeight,
				}); err != nil {
				return nil, err
			}
			continue
		}

		// A reclassified myelinate kind would queue like any gated change.
		created, err := e.proposeIfAbsent(stationID, store.KindMyelinate, edge.EdgeID,
			myelinationRationale{ActivationCount: edge.ActivationCount, Weight: edge.Weight})
		if err != nil {
			return nil, err
		}
		if created {
			summary.PendingEventsCreated++
		}
	}

	// Propose pruning of unfit, inactive nodes. Destructive, so always
	// queued, never applied here.
	inactivityCutoff := time.Now().AddDate(0, 0, -pruneInactivityDays).UnixMilli()
	for i := range nodes {
		node := &nodes[i]
		if node.NodeType == store.NodeStation {
			continue
		}
		if node.FitnessScore >= pruneMaxFitness {
			continue
		}
		lastActive := node.CreatedAt
		if node.LastActivatedAt != nil {
			lastActive = *node.LastActivatedAt
		}
		if lastActive > inactivityCutoff {
			continue
		}

		created, err := e.proposeIfAbsent(stationID, store.KindPruneNode, node.NodeID,
			pruneRationale{
				Fitness:         node.FitnessScore,
				MaxFitness:      pruneMaxFitness,
				LastActivatedAt: node.LastActivatedAt,
				InactivityDays:  pruneInactivityDays,
			})
		if err != nil {
			return nil, err
		}
		if created {
			summary.PendingEventsCreated++
		}
	}

	return summary, nil
}

// proposeIfAbsent queues a pending event unless one with the same kind and
// target is already waiting. Returns true if a new proposal was created.
func (e *Engine) proposeIfAbsent(stationID string, kind store.EventKind, targetID string, rationale any) (bool, error) {
	has, err := e.DB.HasPendingEvent(stationID, kind, targetID)
	if err != nil {
		return false, err
	}
	if has {
		return false, nil
	}
	if err := e.recordEvent(stationID, kind, targetID, store.EventPending, rationale); err != nil {
		return false, err
	}
	return true, nil
}

func (e *Engine) recordEvent(stationID string, kind store.EventKind, targetID string, status store.EventStatus, rationale any) error {
	blob, err := json.Marshal(rationale)
	if err != nil {
		return fmt.Errorf("marshal rationale: %w", err)
	}
	ev := &store.EvolutionEvent{
		EventID:   uuid.NewString(),
		StationID: stationID,
		Kind:      kind,
		TargetID:  targetID,
		Status:    status,
		Rationale: string(blob),
	}
	if err := e.DB.CreateEvolutionEvent(ev); err != nil {
		return fmt.Errorf("record %s event: %w", kind, err)
	}
	return nil
}

// incidentEdges indexes edges by both endpoints.
func incidentEdges(edges []store.GraphEdge) map[string][]store.GraphEdge {
	m := make(map[string][]store.GraphEdge)
	for _, e := range edges {
		m[e.SourceNodeID] = append(m[e.SourceNodeID], e)
		m[e.TargetNodeID] = append(m[e.TargetNodeID], e)
	}
	return m
}
