package main

import (
	"errors"

	"github.com/TiredEspressoBean/procflow"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "procflow_validations_total",
	Help: "Process flow validation passes, by outcome.",
}, []string{"outcome"})

func countValidation(valid bool) {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	validationsTotal.WithLabelValues(outcome).Inc()
}

// newApp wires the REST API over the given store.
func newApp(store procflow.Store) *fiber.App {
	app := fiber.New()

	app.Use(requestid.New())
	app.Use(recoverer.New())
	app.Use(logger.New())

	// ── Schema ────────────────────────────────────────────────────────
	app.Post("/schema", func(c fiber.Ctx) error {
		if err := store.CreateSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema created"})
	})

	app.Delete("/schema", func(c fiber.Ctx) error {
		if err := store.DropSchema(c.Context()); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"message": "schema dropped"})
	})

	// ── Flows (bulk) ──────────────────────────────────────────────────
	app.Post("/flows", func(c fiber.Ctx) error {
		var f procflow.Flow
		if err := c.Bind().JSON(&f); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		result, err := store.CreateFlow(c.Context(), &f)
		var verr *procflow.ValidationError
		if errors.As(err, &verr) {
			// Return the full diagnostic list so the editor can render
			// every problem at once.
			countValidation(false)
			return c.Status(422).JSON(verr.Result)
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		countValidation(true)
		return c.Status(201).JSON(result)
	})

	// Stateless validation: the editor posts its in-memory flow and gets
	// the diagnostics back without anything being saved.
	app.Post("/flows/validate", func(c fiber.Ctx) error {
		var f procflow.Flow
		if err := c.Bind().JSON(&f); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := f.ResolveRefs(); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		res := f.Validate()
		countValidation(res.IsValid)
		return c.JSON(res)
	})

	app.Get("/flows/:id", func(c fiber.Ctx) error {
		f, err := store.GetFlow(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if f == nil {
			return c.Status(404).JSON(fiber.Map{"error": "flow not found"})
		}
		return c.JSON(f)
	})

	app.Get("/flows/:id/validate", func(c fiber.Ctx) error {
		f, err := store.GetFlow(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if f == nil {
			return c.Status(404).JSON(fiber.Map{"error": "flow not found"})
		}
		res := f.Validate()
		countValidation(res.IsValid)
		return c.JSON(res)
	})

	app.Delete("/flows/:id", func(c fiber.Ctx) error {
		if err := store.DeleteFlow(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Nodes ─────────────────────────────────────────────────────────
	app.Post("/flows/:id/nodes", func(c fiber.Ctx) error {
		var node procflow.Node
		if err := c.Bind().JSON(&node); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := store.AddNode(c.Context(), c.Params("id"), &node)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/flows/:id/nodes", func(c fiber.Ctx) error {
		nodes, err := store.ListNodes(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(nodes)
	})

	app.Get("/nodes/:id", func(c fiber.Ctx) error {
		n, err := store.GetNode(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if n == nil {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		return c.JSON(n)
	})

	app.Put("/nodes/:id", func(c fiber.Ctx) error {
		var node procflow.Node
		if err := c.Bind().JSON(&node); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		node.ID = c.Params("id")
		err := store.UpdateNode(c.Context(), &node)
		if errors.Is(err, procflow.ErrNodeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "node not found"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/nodes/:id", func(c fiber.Ctx) error {
		if err := store.DeleteNode(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	// ── Edges ─────────────────────────────────────────────────────────
	app.Post("/flows/:id/edges", func(c fiber.Ctx) error {
		var edge procflow.Edge
		if err := c.Bind().JSON(&edge); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		id, err := store.AddEdge(c.Context(), c.Params("id"), &edge)
		if errors.Is(err, procflow.ErrNodeNotFound) {
			return c.Status(422).JSON(fiber.Map{"error": "edge references a node outside this flow"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(fiber.Map{"id": id})
	})

	app.Get("/flows/:id/edges", func(c fiber.Ctx) error {
		edges, err := store.ListEdges(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(edges)
	})

	app.Get("/edges/:id", func(c fiber.Ctx) error {
		e, err := store.GetEdge(c.Context(), c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if e == nil {
			return c.Status(404).JSON(fiber.Map{"error": "edge not found"})
		}
		return c.JSON(e)
	})

	app.Put("/edges/:id", func(c fiber.Ctx) error {
		var edge procflow.Edge
		if err := c.Bind().JSON(&edge); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		edge.ID = c.Params("id")
		err := store.UpdateEdge(c.Context(), &edge)
		if errors.Is(err, procflow.ErrEdgeNotFound) {
			return c.Status(404).JSON(fiber.Map{"error": "edge not found"})
		}
		if errors.Is(err, procflow.ErrNodeNotFound) {
			return c.Status(422).JSON(fiber.Map{"error": "edge references a node outside this flow"})
		}
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	app.Delete("/edges/:id", func(c fiber.Ctx) error {
		if err := store.DeleteEdge(c.Context(), c.Params("id")); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.SendStatus(204)
	})

	return app
}
