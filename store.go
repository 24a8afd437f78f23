package procflow

import (
	"context"
	"errors"
)

var (
	ErrFlowInvalid  = errors.New("procflow: flow has validation errors")
	ErrNodeNotFound = errors.New("procflow: node not found")
	ErrEdgeNotFound = errors.New("procflow: edge not found")
)

// Store defines the contract for persisting and retrieving process flows.
//
// CreateFlow is the editor's save: it refuses flows whose validation result
// carries errors (warnings never block). The granular node and edge
// operations are draft-editing primitives and perform no flow-level
// validation; a half-built flow must remain storable.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Flow (bulk operations)
	CreateFlow(ctx context.Context, f *Flow) (*Flow, error)
	GetFlow(ctx context.Context, flowID string) (*Flow, error)
	DeleteFlow(ctx context.Context, flowID string) error

	// Nodes
	AddNode(ctx context.Context, flowID string, node *Node) (string, error)
	GetNode(ctx context.Context, nodeID string) (*Node, error)
	UpdateNode(ctx context.Context, node *Node) error
	DeleteNode(ctx context.Context, nodeID string) error
	ListNodes(ctx context.Context, flowID string) ([]Node, error)

	// Edges
	AddEdge(ctx context.Context, flowID string, edge *Edge) (string, error)
	GetEdge(ctx context.Context, edgeID string) (*Edge, error)
	UpdateEdge(ctx context.Context, edge *Edge) error
	DeleteEdge(ctx context.Context, edgeID string) error
	ListEdges(ctx context.Context, flowID string) ([]Edge, error)
}
