package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/myelinproj/myelin/internal/store"
)

// CreateNodeProposal is the rationale payload of a create_node event: the
// node to insert on approval.
type CreateNodeProposal struct {
	NodeID       string            `json:"node_id"`
	NodeType     string            `json:"node_type"`
	StationID    string            `json:"station_id"`
	Capabilities []string          `json:"capabilities,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// ReweightProposal is the rationale payload of a reweight event.
type ReweightProposal struct {
	EdgeID string  `json:"edge_id"`
	Weight float64 `json:"weight"`
}

// ListPending returns the evolution events awaiting a decision,
// station-filtered when stationID is non-empty.
func (e *Engine) ListPending(stationID string) ([]store.EvolutionEvent, error) {
	return e.DB.ListPendingEvolutionEvents(stationID)
}

// Approve applies a pending event's structural change and resolves it.
// Unknown event IDs fail with store.ErrNotFound; already-resolved events
// fail with ErrInvalidState. Errors are always surfaced — they represent
// operator intent.
func (e *Engine) Approve(ctx context.Context, eventID string) (*store.EvolutionEvent, error) {
	ev, err := e.pendingEvent(eventID)
	if err != nil {
		return nil, err
	}

	switch ev.Kind {
	case store.KindPruneNode:
		if err := e.DB.DeleteNodeCascade(ev.TargetID); err != nil {
			return nil, fmt.Errorf("apply prune of %s: %w", ev.TargetID, err)
		}
	case store.KindCreateNode:
		var proposal CreateNodeProposal
		if err := json.Unmarshal([]byte(ev.Rationale), &proposal); err != nil {
			return nil, fmt.Errorf("decode create proposal %s: %w", ev.EventID, err)
		}
		node := &store.GraphNode{
			NodeID:       proposal.NodeID,
			NodeType:     proposal.NodeType,
			StationID:    proposal.StationID,
			Capabilities: proposal.Capabilities,
			Metadata:     proposal.Metadata,
		}
		if _, err := e.DB.UpsertNode(node); err != nil {
			return nil, fmt.Errorf("apply create of %s: %w", proposal.NodeID, err)
		}
	case store.KindReweight:
		var proposal ReweightProposal
		if err := json.Unmarshal([]byte(ev.Rationale), &proposal); err != nil {
			return nil, fmt.Errorf("decode reweight proposal %s: %w", ev.EventID, err)
		}
		if err := e.DB.SetEdgeWeight(ev.TargetID, proposal.Weight); err != nil {
			return nil, fmt.Errorf("apply reweight of %s: %w", ev.TargetID, err)
		}
	case store.KindMyelinate:
		if _, err := e.DB.MarkEdgeMyelinated(ev.TargetID); err != nil {
			return nil, fmt.Errorf("apply myelination of %s: %w", ev.TargetID, err)
		}
	default:
		return nil, fmt.Errorf("approve %s: unknown event kind %q", eventID, ev.Kind)
	}

	return e.resolve(ev, store.EventApproved)
}

// Reject resolves a pending event without touching the graph. The event is
// retained for audit.
func (e *Engine) Reject(ctx context.Context, eventID string) (*store.EvolutionEvent, error) {
	ev, err := e.pendingEvent(eventID)
	if err != nil {
		return nil, err
	}
	return e.resolve(ev, store.EventRejected)
}

func (e *Engine) pendingEvent(eventID string) (*store.EvolutionEvent, error) {
	ev, err := e.DB.GetEvolutionEvent(eventID)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, store.ErrNotFound)
	}
	if ev.Status != store.EventPending {
		return nil, fmt.Errorf("event %s is %s: %w", eventID, ev.Status, ErrInvalidState)
	}
	return ev, nil
}

func (e *Engine) resolve(ev *store.EvolutionEvent, status store.EventStatus) (*store.EvolutionEvent, error) {
	if !ev.Status.CanTransition(status) {
		return nil, fmt.Errorf("event %s: %s → %s: %w", ev.EventID, ev.Status, status, ErrInvalidState)
	}
	done, err := e.DB.SetEvolutionEventStatus(ev.EventID, status)
	if err != nil {
		return nil, err
	}
	if !done {
		// Lost a race with another resolver.
		return nil, fmt.Errorf("event %s: %w", ev.EventID, ErrInvalidState)
	}
	return e.DB.GetEvolutionEvent(ev.EventID)
}
