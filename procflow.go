package procflow

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// NodeKind classifies how a step behaves inside a process flow.
// It is a closed set; callers building flows from editor models are
// responsible for normalizing any alias spellings before validation.
type NodeKind string

const (
	KindStart    NodeKind = "start"    // entry point, exactly one per flow
	KindTerminal NodeKind = "terminal" // valid process exit
	KindDecision NodeKind = "decision" // branches into pass/fail transitions
	KindRework   NodeKind = "rework"   // loop-back point bounded by MaxVisits
	KindTask     NodeKind = "task"     // ordinary process step
)

// Branch tags an outgoing edge of a decision step with the quality
// outcome it carries. An untagged edge counts as a pass transition.
type Branch string

const (
	BranchPass Branch = "pass"
	BranchFail Branch = "fail"
)

// Flow represents one process definition: the full set of steps and the
// directed transitions between them.
type Flow struct {
	ID    string `json:"id"`
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node represents one process step.
// Ref is a temporary key used only during CreateFlow for edge wiring and is
// never persisted. MaxVisits is meaningful only on rework steps; zero or
// negative means no re-entry cap is configured. Data carries the editor's
// opaque payload (canvas position and the like) untouched.
type Node struct {
	ID        string          `json:"id,omitempty"`
	Ref       string          `json:"ref,omitempty"`
	Kind      NodeKind        `json:"kind"`
	Label     string          `json:"label,omitempty"`
	MaxVisits int             `json:"max_visits,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// DisplayLabel returns the node's label, falling back to "Step <id>" when
// no label is set.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return "Step " + n.ID
}

// Edge represents a directed transition between two steps.
// SourceRef / TargetRef are temporary keys used only during CreateFlow and
// are never persisted. Branch is relevant only when the source is a
// decision step. Source and Target are not required to reference nodes
// present in the flow; dangling references degrade into validation
// diagnostics, never failures.
type Edge struct {
	ID        string          `json:"id,omitempty"`
	Source    string          `json:"source,omitempty"`
	Target    string          `json:"target,omitempty"`
	SourceRef string          `json:"source_ref,omitempty"`
	TargetRef string          `json:"target_ref,omitempty"`
	Branch    Branch          `json:"branch,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// ResolveRefs assigns UUIDs to nodes and edges that lack IDs and rewrites
// edge refs (SourceRef/TargetRef) into real node IDs. Unknown refs fail.
// Idempotent: resolving an already-resolved flow changes nothing.
func (f *Flow) ResolveRefs() error {
	refMap := make(map[string]string)
	for i := range f.Nodes {
		n := &f.Nodes[i]
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.Ref != "" {
			refMap[n.Ref] = n.ID
		}
	}

	for i := range f.Edges {
		e := &f.Edges[i]
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.SourceRef != "" {
			id, ok := refMap[e.SourceRef]
			if !ok {
				return fmt.Errorf("procflow: unknown source_ref %q", e.SourceRef)
			}
			e.Source = id
		}
		if e.TargetRef != "" {
			id, ok := refMap[e.TargetRef]
			if !ok {
				return fmt.Errorf("procflow: unknown target_ref %q", e.TargetRef)
			}
			e.Target = id
		}
	}

	return nil
}

// ClearRefs blanks the temporary ref fields; they are never persisted and
// must not leak into responses.
func (f *Flow) ClearRefs() {
	for i := range f.Nodes {
		f.Nodes[i].Ref = ""
	}
	for i := range f.Edges {
		f.Edges[i].SourceRef = ""
		f.Edges[i].TargetRef = ""
	}
}
