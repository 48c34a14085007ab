package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "graph_nodes: capability graph vertices",
		SQL: `
CREATE TABLE graph_nodes (
    id                INTEGER PRIMARY KEY,
    node_id           TEXT NOT NULL UNIQUE,
    node_type         TEXT NOT NULL CHECK (node_type IN ('capability', 'station', 'gateway')),
    station_id        TEXT NOT NULL,

    -- Health counters, bumped only by execution ingestion
    activation_count  INTEGER NOT NULL DEFAULT 0,
    success_count     INTEGER NOT NULL DEFAULT 0,
    failure_count     INTEGER NOT NULL DEFAULT 0,
    total_latency_ms  INTEGER NOT NULL DEFAULT 0,

    -- Derived, written only by the evolution cycle
    fitness_score     REAL NOT NULL DEFAULT 50.0,

    capabilities      TEXT,
    status            TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'degraded', 'unavailable')),
    metadata          TEXT,
    last_activated_at INTEGER,
    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL
);

CREATE INDEX idx_nodes_station ON graph_nodes(station_id);
CREATE INDEX idx_nodes_type    ON graph_nodes(node_type);
`,
	},
	{
		Version:     2,
		Description: "graph_edges: weighted directed synapses",
		SQL: `
CREATE TABLE graph_edges (
    id                  INTEGER PRIMARY KEY,
    edge_id             TEXT NOT NULL UNIQUE,
    source_node_id      TEXT NOT NULL,
    target_node_id      TEXT NOT NULL,
    station_id          TEXT NOT NULL,

    weight              REAL NOT NULL DEFAULT 0.5,
    myelination         TEXT NOT NULL DEFAULT 'none' CHECK (myelination IN ('none', 'myelinated')),
    myelinated_at       INTEGER,

    activation_count    INTEGER NOT NULL DEFAULT 0,
    co_activation_count INTEGER NOT NULL DEFAULT 0,
    avg_latency_ms      REAL NOT NULL DEFAULT 0,

    created_at          INTEGER NOT NULL,
    updated_at          INTEGER NOT NULL
);

CREATE INDEX idx_edges_station ON graph_edges(station_id);
CREATE INDEX idx_edges_source  ON graph_edges(source_node_id);
CREATE INDEX idx_edges_target  ON graph_edges(target_node_id);
`,
	},
	{
		Version:     3,
		Description: "execution_records: append-only execution facts",
		SQL: `
CREATE TABLE execution_records (
    id                INTEGER PRIMARY KEY,
    station_id        TEXT NOT NULL,
    node_id           TEXT,
    task_type         TEXT NOT NULL,
    success           INTEGER NOT NULL,
    latency_ms        INTEGER NOT NULL DEFAULT 0,
    quality_score     REAL,
    capabilities_used TEXT,
    created_at        INTEGER NOT NULL
);

CREATE INDEX idx_exec_station ON execution_records(station_id);
CREATE INDEX idx_exec_created ON execution_records(created_at DESC);
`,
	},
	{
		Version:     4,
		Description: "evolution_events: proposed structural changes",
		SQL: `
CREATE TABLE evolution_events (
    id          INTEGER PRIMARY KEY,
    event_id    TEXT NOT NULL UNIQUE,
    station_id  TEXT NOT NULL,
    kind        TEXT NOT NULL CHECK (kind IN ('myelinate', 'prune_node', 'create_node', 'reweight')),
    target_id   TEXT NOT NULL,
    status      TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'approved', 'rejected')),
    rationale   TEXT,
    proposed_at INTEGER NOT NULL,
    resolved_at INTEGER
);

CREATE INDEX idx_events_station ON evolution_events(station_id);
CREATE INDEX idx_events_status  ON evolution_events(status);
CREATE INDEX idx_events_target  ON evolution_events(target_id, kind);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
