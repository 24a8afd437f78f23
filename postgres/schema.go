package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flow_nodes (
    id         TEXT PRIMARY KEY,
    flow_id    TEXT NOT NULL,
    kind       TEXT NOT NULL,
    label      TEXT NOT NULL DEFAULT '',
    max_visits INTEGER NOT NULL DEFAULT 0,
    data       JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS flow_edges (
    id         TEXT PRIMARY KEY,
    flow_id    TEXT NOT NULL,
    source_id  TEXT NOT NULL REFERENCES flow_nodes(id) ON DELETE CASCADE,
    target_id  TEXT NOT NULL REFERENCES flow_nodes(id) ON DELETE CASCADE,
    branch     TEXT NOT NULL DEFAULT '',
    data       JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_flow_nodes_flow_id ON flow_nodes(flow_id);
CREATE INDEX IF NOT EXISTS idx_flow_edges_flow_id ON flow_edges(flow_id);
CREATE INDEX IF NOT EXISTS idx_flow_edges_source  ON flow_edges(source_id);
CREATE INDEX IF NOT EXISTS idx_flow_edges_target  ON flow_edges(target_id);
`

// CreateSchema creates the flow_nodes and flow_edges tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the flow_edges and flow_nodes tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS flow_edges, flow_nodes CASCADE;`)
	return err
}
