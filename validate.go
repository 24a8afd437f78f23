package procflow

import "fmt"

// Severity ranks a validation finding. Errors block saving a flow,
// warnings flag risk without blocking.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation diagnostic. NodeID and NodeLabel identify the
// offending step when the finding is node-scoped.
type Issue struct {
	Severity  Severity `json:"severity"`
	Message   string   `json:"message"`
	NodeID    string   `json:"node_id,omitempty"`
	NodeLabel string   `json:"node_label,omitempty"`
}

// Result collects every finding from one validation pass. All preserves
// discovery order; Errors and Warnings partition it by severity. IsValid is
// true exactly when Errors is empty.
type Result struct {
	IsValid  bool    `json:"is_valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	All      []Issue `json:"all"`
}

// ValidationError reports a flow that was rejected because its validation
// result carries errors. It wraps ErrFlowInvalid for errors.Is checks and
// carries the full result so callers can surface every finding at once.
type ValidationError struct {
	Result *Result
}

func (e *ValidationError) Error() string {
	if e == nil || e.Result == nil {
		return ErrFlowInvalid.Error()
	}
	return fmt.Sprintf("procflow: flow has %d validation error(s)", len(e.Result.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrFlowInvalid }

// Validate checks the structural well-formedness of a process flow: exactly
// one start step, at least one terminal step, per-step connectivity,
// decision branch completeness, rework configuration, reachability from
// start, and whether all paths eventually reach a terminal step.
//
// It is a pure function: no I/O, no retained state, never panics on
// malformed input. Dangling edge references, isolated steps and empty edge
// lists all degrade into diagnostics. Findings are reported in discovery
// order, iterating steps in input order, so the same flow always yields the
// same result.
func Validate(nodes []Node, edges []Edge) *Result {
	if len(nodes) == 0 {
		return newResult([]Issue{{
			Severity: SeverityError,
			Message:  "Process has no steps",
		}})
	}

	// Forward and reverse adjacency as sets of distinct neighbor ids, so
	// duplicate edges and self-loops collapse. The raw outgoing edges are
	// kept per node for the decision branch checks, which care about
	// branch tags rather than distinct targets.
	adj := make(map[string]map[string]struct{}, len(nodes))
	radj := make(map[string]map[string]struct{}, len(nodes))
	outgoing := make(map[string][]Edge)
	for _, e := range edges {
		addNeighbor(adj, e.Source, e.Target)
		addNeighbor(radj, e.Target, e.Source)
		outgoing[e.Source] = append(outgoing[e.Source], e)
	}

	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	var issues []Issue

	// Start step cardinality: exactly one. With more than one, only the
	// second start found is flagged; see DESIGN.md.
	var starts []Node
	for _, n := range nodes {
		if n.Kind == KindStart {
			starts = append(starts, n)
		}
	}
	switch {
	case len(starts) == 0:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  "Process must have a Start step",
		})
	case len(starts) > 1:
		second := starts[1]
		issues = append(issues, Issue{
			Severity:  SeverityError,
			Message:   "Process must have exactly one Start step",
			NodeID:    second.ID,
			NodeLabel: second.DisplayLabel(),
		})
	}

	// At least one terminal step.
	hasTerminal := false
	for _, n := range nodes {
		if n.Kind == KindTerminal {
			hasTerminal = true
			break
		}
	}
	if !hasTerminal {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Message:  "Process must have at least one Terminal step",
		})
	}

	// Per-step connectivity from in/out degree. At most one finding per
	// step, conditions checked in priority order.
	for _, n := range nodes {
		in := len(radj[n.ID])
		out := len(adj[n.ID])
		switch {
		case n.Kind == KindStart:
			if out == 0 {
				issues = append(issues, issueFor(SeverityError, n, "has no outgoing connections"))
			}
		case n.Kind == KindTerminal:
			if in == 0 {
				issues = append(issues, issueFor(SeverityError, n, "has no incoming connections"))
			}
		case in == 0 && out == 0:
			issues = append(issues, issueFor(SeverityError, n, "is not connected to the process"))
		case in == 0:
			issues = append(issues, issueFor(SeverityWarning, n, "is unreachable (no incoming connections)"))
		case out == 0:
			issues = append(issues, issueFor(SeverityWarning, n, "is a dead end (no outgoing connections)"))
		}
	}

	// Decision branch completeness. An edge without a branch tag counts as
	// a pass transition. The no-outgoing case is exclusive with the
	// missing-branch cases.
	for _, n := range nodes {
		if n.Kind != KindDecision {
			continue
		}
		out := outgoing[n.ID]
		if len(out) == 0 {
			issues = append(issues, issueFor(SeverityError, n, "has no outgoing connections"))
			continue
		}
		hasPass, hasFail := false, false
		for _, e := range out {
			if e.Branch == BranchFail {
				hasFail = true
			} else {
				hasPass = true
			}
		}
		if !hasPass {
			issues = append(issues, issueFor(SeverityError, n, "is missing a Pass connection"))
		}
		if !hasFail {
			issues = append(issues, issueFor(SeverityError, n, "is missing a Fail connection"))
		}
	}

	// Rework configuration. Never blocks validity.
	for _, n := range nodes {
		if n.Kind == KindRework && n.MaxVisits <= 0 {
			issues = append(issues, issueFor(SeverityWarning, n, "has no max visits limit configured"))
		}
	}

	// Reachability from the start step. Runs only when the start is
	// unambiguous. Steps with no incoming edge at all were already flagged
	// by the connectivity pass and are skipped here.
	var visited map[string]struct{}
	if len(starts) == 1 {
		visited = reachableFrom(adj, starts[0].ID)
		for _, n := range nodes {
			if _, ok := visited[n.ID]; ok {
				continue
			}
			if len(radj[n.ID]) == 0 {
				continue
			}
			issues = append(issues, issueFor(SeverityWarning, n, "is not reachable from the Start step"))
		}
	}

	// Termination: does every path from a step eventually reach a terminal
	// step? Memoized depth-first recursion; each memo entry is seeded false
	// on entry so a step revisited inside an unresolved cycle resolves as
	// non-terminating instead of recursing forever.
	if visited != nil && hasTerminal {
		memo := make(map[string]bool, len(nodes))
		var terminates func(id string) bool
		terminates = func(id string) bool {
			if done, ok := memo[id]; ok {
				return done
			}
			memo[id] = false
			n, ok := byID[id]
			if !ok {
				return false // dangling edge target
			}
			if n.Kind == KindTerminal {
				memo[id] = true
				return true
			}
			succs := adj[id]
			if len(succs) == 0 {
				return false
			}
			all := true
			for succ := range succs {
				if !terminates(succ) {
					all = false
					break
				}
			}
			memo[id] = all
			return all
		}

		flagged := make(map[string]bool, len(issues))
		for _, is := range issues {
			if is.NodeID != "" {
				flagged[is.NodeID] = true
			}
		}
		for _, n := range nodes {
			if _, ok := visited[n.ID]; !ok {
				continue
			}
			if n.Kind == KindTerminal {
				continue
			}
			// Dead ends were already flagged by the connectivity pass.
			if len(adj[n.ID]) == 0 {
				continue
			}
			if flagged[n.ID] {
				continue
			}
			if terminates(n.ID) {
				continue
			}
			label := n.DisplayLabel()
			issues = append(issues, Issue{
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("Some paths through %s don't reach a Terminal step", label),
				NodeID:    n.ID,
				NodeLabel: label,
			})
			flagged[n.ID] = true
		}
	}

	return newResult(issues)
}

// Validate checks the flow's steps and transitions. See the package-level
// Validate function.
func (f *Flow) Validate() *Result {
	return Validate(f.Nodes, f.Edges)
}

// issueFor builds a node-scoped finding with the display label prefixed to
// the message.
func issueFor(sev Severity, n Node, rest string) Issue {
	label := n.DisplayLabel()
	return Issue{
		Severity:  sev,
		Message:   label + " " + rest,
		NodeID:    n.ID,
		NodeLabel: label,
	}
}

func addNeighbor(m map[string]map[string]struct{}, from, to string) {
	set, ok := m[from]
	if !ok {
		set = make(map[string]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}

// reachableFrom collects every node id reachable from start over the
// forward adjacency, breadth first, including start itself.
func reachableFrom(adj map[string]map[string]struct{}, start string) map[string]struct{} {
	visited := map[string]struct{}{start: {}}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for next := range adj[cur] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	return visited
}

func newResult(issues []Issue) *Result {
	r := &Result{
		Errors:   []Issue{},
		Warnings: []Issue{},
		All:      []Issue{},
	}
	for _, is := range issues {
		r.All = append(r.All, is)
		if is.Severity == SeverityError {
			r.Errors = append(r.Errors, is)
		} else {
			r.Warnings = append(r.Warnings, is)
		}
	}
	r.IsValid = len(r.Errors) == 0
	return r
}
