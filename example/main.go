package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/TiredEspressoBean/procflow"
	"github.com/TiredEspressoBean/procflow/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	logger := zap.Must(zap.NewDevelopment())
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		zap.S().Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		zap.S().Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store procflow.Store = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		zap.S().Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Build a machining flow using refs (bulk insert) ───────────────
	flow := &procflow.Flow{
		ID: "valve-body-machining",
		Nodes: []procflow.Node{
			{Ref: "start", Kind: procflow.KindStart, Label: "Order Released", Data: json.RawMessage(`{"x": 40, "y": 200}`)},
			{Ref: "inspect", Kind: procflow.KindTask, Label: "Incoming Inspection", Data: json.RawMessage(`{"x": 220, "y": 200}`)},
			{Ref: "machine", Kind: procflow.KindTask, Label: "CNC Machining", Data: json.RawMessage(`{"x": 400, "y": 200}`)},
			{Ref: "qa", Kind: procflow.KindDecision, Label: "QA Gate"},
			{Ref: "rework", Kind: procflow.KindRework, Label: "Rework Bench", MaxVisits: 3},
			{Ref: "assemble", Kind: procflow.KindTask, Label: "Final Assembly"},
			{Ref: "done", Kind: procflow.KindTerminal, Label: "Complete"},
		},
		Edges: []procflow.Edge{
			{SourceRef: "start", TargetRef: "inspect"},
			{SourceRef: "inspect", TargetRef: "machine"},
			{SourceRef: "machine", TargetRef: "qa"},
			{SourceRef: "qa", TargetRef: "assemble", Branch: procflow.BranchPass},
			{SourceRef: "qa", TargetRef: "rework", Branch: procflow.BranchFail},
			{SourceRef: "rework", TargetRef: "machine"},
			{SourceRef: "assemble", TargetRef: "done"},
		},
	}

	// ── Validate locally before saving ────────────────────────────────
	// The rework loop legitimately draws "don't reach a Terminal step"
	// warnings: a part can in principle bounce between QA and rework
	// forever, which is exactly what MaxVisits caps at runtime. Warnings
	// never block the save.
	if err := flow.ResolveRefs(); err != nil {
		zap.S().Fatalf("resolve: %v", err)
	}
	res := flow.Validate()
	fmt.Printf("\nvalid: %v (%d errors, %d warnings)\n", res.IsValid, len(res.Errors), len(res.Warnings))
	for _, issue := range res.All {
		fmt.Printf("  [%s] %s\n", issue.Severity, issue.Message)
	}

	created, err := store.CreateFlow(ctx, flow)
	if err != nil {
		zap.S().Fatalf("create flow: %v", err)
	}
	fmt.Println("\nflow created (bulk with refs)")
	printJSON(created)

	// ── Retrieve ──────────────────────────────────────────────────────
	stored, err := store.GetFlow(ctx, "valve-body-machining")
	if err != nil {
		zap.S().Fatalf("get flow: %v", err)
	}
	fmt.Println("\nflow retrieved:")
	printJSON(stored)

	// ── Granular: add a packaging step ────────────────────────────────
	// Granular edits don't validate; a draft may be incomplete until the
	// next bulk save.
	packID, err := store.AddNode(ctx, "valve-body-machining", &procflow.Node{
		Kind:  procflow.KindTask,
		Label: "Label & Pack",
	})
	if err != nil {
		zap.S().Fatalf("add node: %v", err)
	}
	fmt.Printf("\nadded node: %s\n", packID)

	// ── Granular: connect Final Assembly to the new step ──────────────
	assembleID := created.Nodes[5].ID
	edgeID, err := store.AddEdge(ctx, "valve-body-machining", &procflow.Edge{
		Source: assembleID,
		Target: packID,
	})
	if err != nil {
		zap.S().Fatalf("add edge: %v", err)
	}
	fmt.Printf("added edge: %s\n", edgeID)

	// ── Re-validate the stored draft ──────────────────────────────────
	draft, err := store.GetFlow(ctx, "valve-body-machining")
	if err != nil {
		zap.S().Fatalf("get flow: %v", err)
	}
	res = draft.Validate()
	fmt.Printf("\ndraft valid: %v (%d errors, %d warnings)\n", res.IsValid, len(res.Errors), len(res.Warnings))
	for _, issue := range res.All {
		fmt.Printf("  [%s] %s\n", issue.Severity, issue.Message)
	}

	// ── List nodes ────────────────────────────────────────────────────
	nodes, err := store.ListNodes(ctx, "valve-body-machining")
	if err != nil {
		zap.S().Fatalf("list nodes: %v", err)
	}
	fmt.Printf("\nnodes (%d):\n", len(nodes))
	printJSON(nodes)

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteFlow(ctx, "valve-body-machining"); err != nil {
		zap.S().Fatalf("delete: %v", err)
	}
	fmt.Println("\nflow deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
