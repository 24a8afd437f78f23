package postgres

import (
	"context"
	"fmt"

	"github.com/TiredEspressoBean/procflow"
	"github.com/google/uuid"
)

// AddNode inserts a single node into a flow.
// If node.ID is empty, a UUID is auto-generated.
// Returns the node ID (generated or provided).
func (s *PGStore) AddNode(ctx context.Context, flowID string, node *procflow.Node) (string, error) {
	if node.ID == "" {
		node.ID = uuid.NewString()
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO flow_nodes (id, flow_id, kind, label, max_visits, data) VALUES ($1, $2, $3, $4, $5, $6)`,
		node.ID, flowID, node.Kind, node.Label, node.MaxVisits, node.Data,
	)
	if err != nil {
		return "", fmt.Errorf("procflow: insert node: %w", err)
	}

	return node.ID, nil
}

// GetNode fetches a single node by its ID.
// Returns nil, nil if not found.
func (s *PGStore) GetNode(ctx context.Context, nodeID string) (*procflow.Node, error) {
	var n procflow.Node
	err := s.db.QueryRow(ctx,
		`SELECT id, kind, label, max_visits, data FROM flow_nodes WHERE id = $1`, nodeID,
	).Scan(&n.ID, &n.Kind, &n.Label, &n.MaxVisits, &n.Data)

	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("procflow: get node: %w", err)
	}

	return &n, nil
}

// UpdateNode updates the kind, label, max visits and data of an existing node.
// Returns ErrNodeNotFound if the node doesn't exist.
func (s *PGStore) UpdateNode(ctx context.Context, node *procflow.Node) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE flow_nodes SET kind = $1, label = $2, max_visits = $3, data = $4 WHERE id = $5`,
		node.Kind, node.Label, node.MaxVisits, node.Data, node.ID,
	)
	if err != nil {
		return fmt.Errorf("procflow: update node: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return procflow.ErrNodeNotFound
	}
	return nil
}

// DeleteNode deletes a node by its ID.
// Associated edges are cascade-deleted by the DB.
// No error if the node doesn't exist.
func (s *PGStore) DeleteNode(ctx context.Context, nodeID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM flow_nodes WHERE id = $1`, nodeID)
	if err != nil {
		return fmt.Errorf("procflow: delete node: %w", err)
	}
	return nil
}

// ListNodes returns all nodes for a flowID, ordered by created_at.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListNodes(ctx context.Context, flowID string) ([]procflow.Node, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, kind, label, max_visits, data FROM flow_nodes WHERE flow_id = $1 ORDER BY created_at`, flowID)
	if err != nil {
		return nil, fmt.Errorf("procflow: list nodes: %w", err)
	}
	defer rows.Close()

	nodes := []procflow.Node{}
	for rows.Next() {
		var n procflow.Node
		if err := rows.Scan(&n.ID, &n.Kind, &n.Label, &n.MaxVisits, &n.Data); err != nil {
			return nil, fmt.Errorf("procflow: scan node: %w", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("procflow: rows nodes: %w", err)
	}

	return nodes, nil
}

// isNoRows checks if the error is a "no rows" error from pgx.
func isNoRows(err error) bool {
	return err != nil && err.Error() == "no rows in result set"
}
