package postgres

import (
	"context"
	"fmt"

	"github.com/TiredEspressoBean/procflow"
	"github.com/google/uuid"
)

// CreateFlow saves a full process flow (nodes + edges) in one transaction.
// Nodes/edges without IDs get auto-generated UUIDs. Edge refs
// (SourceRef/TargetRef) are resolved to real node IDs. The resolved flow is
// validated before anything is written: a flow whose validation result
// carries errors is rejected with *procflow.ValidationError (warnings never
// block the save). Returns the flow with all IDs filled in.
func (s *PGStore) CreateFlow(ctx context.Context, f *procflow.Flow) (*procflow.Flow, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	if err := f.ResolveRefs(); err != nil {
		return nil, err
	}

	// Gate the save on the validator. Errors block, warnings pass.
	if res := f.Validate(); !res.IsValid {
		return nil, &procflow.ValidationError{Result: res}
	}

	// Persist in a single transaction.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("procflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Delete existing flow data if any (replace semantics).
	if _, err := tx.Exec(ctx, `DELETE FROM flow_edges WHERE flow_id = $1`, f.ID); err != nil {
		return nil, fmt.Errorf("procflow: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_nodes WHERE flow_id = $1`, f.ID); err != nil {
		return nil, fmt.Errorf("procflow: delete nodes: %w", err)
	}

	// Insert nodes.
	for _, n := range f.Nodes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_nodes (id, flow_id, kind, label, max_visits, data) VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, f.ID, n.Kind, n.Label, n.MaxVisits, n.Data,
		); err != nil {
			return nil, fmt.Errorf("procflow: insert node %s: %w", n.ID, err)
		}
	}

	// Insert edges.
	for _, e := range f.Edges {
		if _, err := tx.Exec(ctx,
			`INSERT INTO flow_edges (id, flow_id, source_id, target_id, branch, data) VALUES ($1, $2, $3, $4, $5, $6)`,
			e.ID, f.ID, e.Source, e.Target, e.Branch, e.Data,
		); err != nil {
			return nil, fmt.Errorf("procflow: insert edge %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("procflow: commit: %w", err)
	}

	f.ClearRefs()

	return f, nil
}

// GetFlow retrieves a full process flow (nodes + edges) by its ID.
// Returns nil, nil if no nodes exist for the flowID.
func (s *PGStore) GetFlow(ctx context.Context, flowID string) (*procflow.Flow, error) {
	f := &procflow.Flow{ID: flowID}

	rows, err := s.db.Query(ctx,
		`SELECT id, kind, label, max_visits, data FROM flow_nodes WHERE flow_id = $1 ORDER BY created_at`, flowID)
	if err != nil {
		return nil, fmt.Errorf("procflow: query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n procflow.Node
		if err := rows.Scan(&n.ID, &n.Kind, &n.Label, &n.MaxVisits, &n.Data); err != nil {
			return nil, fmt.Errorf("procflow: scan node: %w", err)
		}
		f.Nodes = append(f.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("procflow: rows nodes: %w", err)
	}

	if len(f.Nodes) == 0 {
		return nil, nil
	}

	rows, err = s.db.Query(ctx,
		`SELECT id, source_id, target_id, branch, data FROM flow_edges WHERE flow_id = $1 ORDER BY created_at`, flowID)
	if err != nil {
		return nil, fmt.Errorf("procflow: query edges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e procflow.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Branch, &e.Data); err != nil {
			return nil, fmt.Errorf("procflow: scan edge: %w", err)
		}
		f.Edges = append(f.Edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("procflow: rows edges: %w", err)
	}

	return f, nil
}

// DeleteFlow removes all nodes and edges for a flowID.
// No error if the flowID doesn't exist.
func (s *PGStore) DeleteFlow(ctx context.Context, flowID string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("procflow: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM flow_edges WHERE flow_id = $1`, flowID); err != nil {
		return fmt.Errorf("procflow: delete edges: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM flow_nodes WHERE flow_id = $1`, flowID); err != nil {
		return fmt.Errorf("procflow: delete nodes: %w", err)
	}

	return tx.Commit(ctx)
}
