package store

import (
	"database/sql"
	"fmt"
	"time"
)

// EventKind names a proposed structural change.
type EventKind string

const (
	KindMyelinate  EventKind = "myelinate"
	KindPruneNode  EventKind = "prune_node"
	KindCreateNode EventKind = "create_node"
	KindReweight   EventKind = "reweight"
)

// EventStatus is the approval state of an evolution event. Transitions are
// one-way: pending may move to approved or rejected, nothing moves back.
type EventStatus string

const (
	EventPending  EventStatus = "pending"
	EventApproved EventStatus = "approved"
	EventRejected EventStatus = "rejected"
)

// eventTransitions is the explicit transition table for event statuses.
var eventTransitions = map[EventStatus][]EventStatus{
	EventPending:  {EventApproved, EventRejected},
	EventApproved: {},
	EventRejected: {},
}

// CanTransition reports whether the status may move to next.
func (s EventStatus) CanTransition(next EventStatus) bool {
	for _, allowed := range eventTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EvolutionEvent is a proposed (or auto-applied) structural change to the
// graph. Rejected events are retained for audit.
type EvolutionEvent struct {
	ID         int64
	EventID    string
	StationID  string
	Kind       EventKind
	TargetID   string
	Status     EventStatus
	Rationale  string // JSON metric snapshot that triggered the proposal
	ProposedAt int64
	ResolvedAt *int64
}

const eventColumns = `id, event_id, station_id, kind, target_id, status, rationale, proposed_at, resolved_at`

// CreateEvolutionEvent records a new event. Auto-applied kinds are inserted
// already resolved; queued kinds start pending.
func (db *DB) CreateEvolutionEvent(ev *EvolutionEvent) error {
	now := time.Now().UnixMilli()
	if ev.ProposedAt == 0 {
		ev.ProposedAt = now
	}
	if ev.Status == "" {
		ev.Status = EventPending
	}

	var resolvedAt any
	if ev.Status != EventPending {
		resolvedAt = now
		ev.ResolvedAt = &now
	}

	result, err := db.Exec(`
		INSERT INTO evolution_events (event_id, station_id, kind, target_id, status, rationale, proposed_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, ev.EventID, ev.StationID, string(ev.Kind), ev.TargetID, string(ev.Status), ev.Rationale, ev.ProposedAt, resolvedAt)
	if err != nil {
		return fmt.Errorf("create evolution event: %w", err)
	}

	id, _ := result.LastInsertId()
	ev.ID = id
	return nil
}

// GetEvolutionEvent returns an event by its event_id, or nil if not found.
func (db *DB) GetEvolutionEvent(eventID string) (*EvolutionEvent, error) {
	row := db.QueryRow(`SELECT `+eventColumns+` FROM evolution_events WHERE event_id = ?`, eventID)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", eventID, err)
	}
	return ev, nil
}

// ListPendingEvolutionEvents returns pending events, station-filtered when
// stationID is non-empty, oldest first.
func (db *DB) ListPendingEvolutionEvents(stationID string) ([]EvolutionEvent, error) {
	query := `SELECT ` + eventColumns + ` FROM evolution_events WHERE status = 'pending' ORDER BY proposed_at, id`
	args := []any{}
	if stationID != "" {
		query = `SELECT ` + eventColumns + ` FROM evolution_events WHERE status = 'pending' AND station_id = ? ORDER BY proposed_at, id`
		args = append(args, stationID)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	defer rows.Close()

	var events []EvolutionEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// HasPendingEvent reports whether a pending event of the given kind already
// targets the given ID. The evolution cycle uses this to avoid duplicate
// proposals across runs.
func (db *DB) HasPendingEvent(stationID string, kind EventKind, targetID string) (bool, error) {
	var count int
	err := db.QueryRow(`
		SELECT COUNT(*) FROM evolution_events
		WHERE station_id = ? AND kind = ? AND target_id = ? AND status = 'pending'
	`, stationID, string(kind), targetID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check pending event: %w", err)
	}
	return count > 0, nil
}

// SetEvolutionEventStatus resolves a pending event. The WHERE clause guards
// the transition so a concurrent resolve cannot double-apply.
// Returns true if this call performed the transition.
func (db *DB) SetEvolutionEventStatus(eventID string, status EventStatus) (bool, error) {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE evolution_events SET status = ?, resolved_at = ?
		WHERE event_id = ? AND status = 'pending'
	`, string(status), now, eventID)
	if err != nil {
		return false, fmt.Errorf("set event status %s: %w", eventID, err)
	}
	n, _ := result.RowsAffected()
	return n > 0, nil
}

func scanEvent(row rowScanner) (*EvolutionEvent, error) {
	var ev EvolutionEvent
	var kind, status string
	var rationale sql.NullString
	var resolvedAt sql.NullInt64
	err := row.Scan(&ev.ID, &ev.EventID, &ev.StationID, &kind, &ev.TargetID,
		&status, &rationale, &ev.ProposedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	ev.Kind = EventKind(kind)
	ev.Status = EventStatus(status)
	ev.Rationale = rationale.String
	if resolvedAt.Valid {
		ev.ResolvedAt = &resolvedAt.Int64
	}
	return &ev, nil
}
