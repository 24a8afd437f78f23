package postgres

import (
	"context"
	"fmt"

	"github.com/TiredEspressoBean/procflow"
	"github.com/google/uuid"
)

// AddEdge inserts a single edge into a flow.
// If edge.ID is empty, a UUID is auto-generated.
// Both endpoints must already be nodes of the same flow; returns
// ErrNodeNotFound otherwise. Cycles are legal (rework loops), so no
// structural validation happens here.
// Returns the edge ID (generated or provided).
func (s *PGStore) AddEdge(ctx context.Context, flowID string, edge *procflow.Edge) (string, error) {
	if edge.ID == "" {
		edge.ID = uuid.NewString()
	}

	if err := s.checkEndpoints(ctx, flowID, edge); err != nil {
		return "", err
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO flow_edges (id, flow_id, source_id, target_id, branch, data) VALUES ($1, $2, $3, $4, $5, $6)`,
		edge.ID, flowID, edge.Source, edge.Target, edge.Branch, edge.Data,
	)
	if err != nil {
		return "", fmt.Errorf("procflow: insert edge: %w", err)
	}

	return edge.ID, nil
}

// GetEdge fetches a single edge by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetEdge(ctx context.Context, edgeID string) (*procflow.Edge, error) {
	var e procflow.Edge
	err := s.db.QueryRow(ctx,
		`SELECT id, source_id, target_id, branch, data FROM flow_edges WHERE id = $1`, edgeID,
	).Scan(&e.ID, &e.Source, &e.Target, &e.Branch, &e.Data)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("procflow: get edge: %w", err)
	}

	return &e, nil
}

// UpdateEdge updates an existing edge's source, target, branch and data.
// The new endpoints must be nodes of the edge's flow.
// Returns ErrEdgeNotFound if the edge doesn't exist.
func (s *PGStore) UpdateEdge(ctx context.Context, edge *procflow.Edge) error {
	// First find the edge's flow_id.
	var flowID string
	err := s.db.QueryRow(ctx,
		`SELECT flow_id FROM flow_edges WHERE id = $1`, edge.ID,
	).Scan(&flowID)
	if err != nil {
		if isNoRows(err) {
			return procflow.ErrEdgeNotFound
		}
		return fmt.Errorf("procflow: find edge: %w", err)
	}

	if err := s.checkEndpoints(ctx, flowID, edge); err != nil {
		return err
	}

	ct, err := s.db.Exec(ctx,
		`UPDATE flow_edges SET source_id = $1, target_id = $2, branch = $3, data = $4 WHERE id = $5`,
		edge.Source, edge.Target, edge.Branch, edge.Data, edge.ID,
	)
	if err != nil {
		return fmt.Errorf("procflow: update edge: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return procflow.ErrEdgeNotFound
	}
	return nil
}

// DeleteEdge deletes an edge by its ID.
// No error if the edge doesn't exist.
func (s *PGStore) DeleteEdge(ctx context.Context, edgeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM flow_edges WHERE id = $1`, edgeID)
	if err != nil {
		return fmt.Errorf("procflow: delete edge: %w", err)
	}
	return nil
}

// ListEdges returns all edges for a flowID, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListEdges(ctx context.Context, flowID string) ([]procflow.Edge, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, source_id, target_id, branch, data FROM flow_edges WHERE flow_id = $1 ORDER BY created_at`, flowID)
	if err != nil {
		return nil, fmt.Errorf("procflow: list edges: %w", err)
	}
	defer rows.Close()

	edges := []procflow.Edge{}
	for rows.Next() {
		var e procflow.Edge
		if err := rows.Scan(&e.ID, &e.Source, &e.Target, &e.Branch, &e.Data); err != nil {
			return nil, fmt.Errorf("procflow: scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("procflow: rows edges: %w", err)
	}

	return edges, nil
}

// checkEndpoints verifies that both edge endpoints are nodes of the given
// flow. The FK constraint only guarantees a node exists somewhere; this
// pins both endpoints to the flow the edge belongs to.
func (s *PGStore) checkEndpoints(ctx context.Context, flowID string, edge *procflow.Edge) error {
	for _, nodeID := range []string{edge.Source, edge.Target} {
		var exists bool
		err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM flow_nodes WHERE flow_id = $1 AND id = $2)`,
			flowID, nodeID,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("procflow: check node: %w", err)
		}
		if !exists {
			return procflow.ErrNodeNotFound
		}
	}
	return nil
}
