package procflow

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "CNC Machining", Node{ID: "n1", Label: "CNC Machining"}.DisplayLabel())
	assert.Equal(t, "Step n1", Node{ID: "n1"}.DisplayLabel())
}

func TestResolveRefs(t *testing.T) {
	t.Run("resolves refs and assigns ids", func(t *testing.T) {
		f := &Flow{
			Nodes: []Node{
				{Ref: "start", Kind: KindStart, Label: "Start"},
				{Ref: "done", Kind: KindTerminal, Label: "Done"},
			},
			Edges: []Edge{
				{SourceRef: "start", TargetRef: "done"},
			},
		}
		require.NoError(t, f.ResolveRefs())

		assert.NotEmpty(t, f.Nodes[0].ID)
		assert.NotEmpty(t, f.Nodes[1].ID)
		assert.NotEmpty(t, f.Edges[0].ID)
		assert.Equal(t, f.Nodes[0].ID, f.Edges[0].Source)
		assert.Equal(t, f.Nodes[1].ID, f.Edges[0].Target)
	})

	t.Run("keeps explicit ids", func(t *testing.T) {
		f := &Flow{
			Nodes: []Node{{ID: "fixed", Kind: KindStart}},
			Edges: []Edge{{ID: "e1", Source: "fixed", Target: "fixed"}},
		}
		require.NoError(t, f.ResolveRefs())
		assert.Equal(t, "fixed", f.Nodes[0].ID)
		assert.Equal(t, "e1", f.Edges[0].ID)
	})

	t.Run("unknown source ref fails", func(t *testing.T) {
		f := &Flow{
			Nodes: []Node{{Ref: "start", Kind: KindStart}},
			Edges: []Edge{{SourceRef: "missing", TargetRef: "start"}},
		}
		err := f.ResolveRefs()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown source_ref "missing"`)
	})

	t.Run("unknown target ref fails", func(t *testing.T) {
		f := &Flow{
			Nodes: []Node{{Ref: "start", Kind: KindStart}},
			Edges: []Edge{{SourceRef: "start", TargetRef: "missing"}},
		}
		err := f.ResolveRefs()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown target_ref "missing"`)
	})

	t.Run("idempotent", func(t *testing.T) {
		f := &Flow{
			Nodes: []Node{
				{Ref: "start", Kind: KindStart},
				{Ref: "done", Kind: KindTerminal},
			},
			Edges: []Edge{{SourceRef: "start", TargetRef: "done"}},
		}
		require.NoError(t, f.ResolveRefs())
		snapshot := &Flow{
			ID:    f.ID,
			Nodes: append([]Node{}, f.Nodes...),
			Edges: append([]Edge{}, f.Edges...),
		}
		require.NoError(t, f.ResolveRefs())
		if diff := cmp.Diff(snapshot, f); diff != "" {
			t.Errorf("second resolve changed the flow (-first +second):\n%s", diff)
		}
	})
}

func TestClearRefs(t *testing.T) {
	f := &Flow{
		Nodes: []Node{{ID: "a", Ref: "start"}},
		Edges: []Edge{{ID: "e", Source: "a", Target: "a", SourceRef: "start", TargetRef: "start"}},
	}
	f.ClearRefs()
	assert.Empty(t, f.Nodes[0].Ref)
	assert.Empty(t, f.Edges[0].SourceRef)
	assert.Empty(t, f.Edges[0].TargetRef)
	assert.Equal(t, "a", f.Edges[0].Source, "resolved ids survive")
}

func TestFlowValidate(t *testing.T) {
	f := &Flow{
		Nodes: []Node{
			{ID: "start", Kind: KindStart, Label: "Start"},
			{ID: "done", Kind: KindTerminal, Label: "Done"},
		},
		Edges: []Edge{{Source: "start", Target: "done"}},
	}
	res := f.Validate()
	assert.True(t, res.IsValid)
	assert.Empty(t, res.All)
}

func TestValidationError(t *testing.T) {
	res := Validate(nil, nil)
	require.False(t, res.IsValid)

	var err error = &ValidationError{Result: res}
	assert.Equal(t, "procflow: flow has 1 validation error(s)", err.Error())
	assert.ErrorIs(t, err, ErrFlowInvalid)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Same(t, res, verr.Result)

	assert.Equal(t, ErrFlowInvalid.Error(), (&ValidationError{}).Error())
}
