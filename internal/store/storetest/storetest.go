// Package storetest runs the same behavioural checks against every
// store.Store backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/mj1618/desktop-flow/internal/model"
	"github.com/mj1618/desktop-flow/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store from newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("FlowRoundTrip", func(t *testing.T) { testFlowRoundTrip(t, newStore(t)) })
	t.Run("FlowReplace", func(t *testing.T) { testFlowReplace(t, newStore(t)) })
	t.Run("FlowNotFound", func(t *testing.T) { testFlowNotFound(t, newStore(t)) })
	t.Run("FlowListSorted", func(t *testing.T) { testFlowListSorted(t, newStore(t)) })
	t.Run("SaveFlowsReplacesAll", func(t *testing.T) { testSaveFlows(t, newStore(t)) })
	t.Run("InvalidFlowRejected", func(t *testing.T) { testInvalidFlow(t, newStore(t)) })
	t.Run("WorkflowRoundTrip", func(t *testing.T) { testWorkflowRoundTrip(t, newStore(t)) })
	t.Run("WorkflowDanglingReference", func(t *testing.T) { testWorkflowDangling(t, newStore(t)) })
	t.Run("WorkflowNotFound", func(t *testing.T) { testWorkflowNotFound(t, newStore(t)) })
	t.Run("Lookup", func(t *testing.T) { testLookup(t, newStore(t)) })
}

// SampleFlow returns a flow with an image step and a coordinate step that
// between them use every sub-action kind.
func SampleFlow(t *testing.T, name string) model.Flow {
	t.Helper()
	login, err := model.NewStep("Login button", "opens the form", model.ImageTarget{Path: "buttons/login.png"},
		model.ActionClick, model.AnchorUpperRight, 750*time.Millisecond,
		model.TextInput{Value: "alice"},
		model.KeyPress{Name: "Tab"},
		model.KeyPress{Name: "Ctrl+A"},
		model.ScrollWheel{Direction: model.ScrollDown},
	)
	require.NoError(t, err)
	corner, err := model.NewStep("Corner", "", model.CoordinateTarget{X: -1200, Y: 40}, model.ActionHover, model.AnchorCenter, 0)
	require.NoError(t, err)
	return model.Flow{Name: name, Steps: []model.Step{login, corner}}
}

func testFlowRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := SampleFlow(t, "login")
	require.NoError(t, s.SaveFlow(ctx, want))

	got, err := s.GetFlow(ctx, "login")
	require.NoError(t, err)
	assert.Equal(t, "login", got.Name)
	assert.Equal(t, model.FlowToRecord(want), model.FlowToRecord(got))
}

func testFlowReplace(t *testing.T, s store.Store) {
	ctx := context.Background()
	f := SampleFlow(t, "login")
	require.NoError(t, s.SaveFlow(ctx, f))

	f.Steps = f.Steps[1:]
	require.NoError(t, s.SaveFlow(ctx, f))

	got, err := s.GetFlow(ctx, "login")
	require.NoError(t, err)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "Corner", got.Steps[0].Name)
}

func testFlowNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.GetFlow(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteFlow(ctx, "missing"), store.ErrNotFound)

	require.NoError(t, s.SaveFlow(ctx, SampleFlow(t, "gone")))
	require.NoError(t, s.DeleteFlow(ctx, "gone"))
	_, err = s.GetFlow(ctx, "gone")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testFlowListSorted(t *testing.T, s store.Store) {
	ctx := context.Background()
	flows, err := s.ListFlows(ctx)
	require.NoError(t, err)
	assert.Empty(t, flows)

	require.NoError(t, s.SaveFlow(ctx, SampleFlow(t, "zeta")))
	require.NoError(t, s.SaveFlow(ctx, model.Flow{Name: "empty"}))
	require.NoError(t, s.SaveFlow(ctx, SampleFlow(t, "alpha")))

	flows, err = s.ListFlows(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 3)
	assert.Equal(t, "alpha", flows[0].Name)
	assert.Equal(t, "empty", flows[1].Name)
	assert.Empty(t, flows[1].Steps)
	assert.Equal(t, "zeta", flows[2].Name)
	assert.Len(t, flows[2].Steps, 2)
}

func testSaveFlows(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveFlow(ctx, SampleFlow(t, "old")))
	require.NoError(t, s.SaveFlows(ctx, []model.Flow{SampleFlow(t, "new")}))

	flows, err := s.ListFlows(ctx)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.Equal(t, "new", flows[0].Name)
}

func testInvalidFlow(t *testing.T, s store.Store) {
	ctx := context.Background()
	err := s.SaveFlow(ctx, model.Flow{Name: "  "})
	assert.ErrorIs(t, err, model.ErrValidation)

	bad := SampleFlow(t, "bad")
	bad.Steps[0].PreWait = -time.Second
	assert.ErrorIs(t, s.SaveFlow(ctx, bad), model.ErrValidation)

	_, err = s.GetFlow(ctx, "bad")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testWorkflowRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	want := model.Workflow{Name: "nightly", Flows: []string{"login", "report", "login"}}
	require.NoError(t, s.SaveWorkflow(ctx, want))

	got, err := s.GetWorkflow(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	require.NoError(t, s.SaveWorkflows(ctx, []model.Workflow{{Name: "b", Flows: []string{"x"}}, {Name: "a", Flows: []string{"y"}}}))
	list, err := s.ListWorkflows(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, []string{"y"}, list[0].Flows)
	assert.Equal(t, "b", list[1].Name)
}

func testWorkflowDangling(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveFlow(ctx, SampleFlow(t, "login")))
	require.NoError(t, s.SaveWorkflow(ctx, model.Workflow{Name: "w", Flows: []string{"login"}}))
	require.NoError(t, s.DeleteFlow(ctx, "login"))

	wf, err := s.GetWorkflow(ctx, "w")
	require.NoError(t, err)
	assert.Equal(t, []string{"login"}, wf.Flows, "deleting a flow leaves workflow references intact")
}

func testWorkflowNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	_, err := s.GetWorkflow(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteWorkflow(ctx, "missing"), store.ErrNotFound)
	assert.ErrorIs(t, s.SaveWorkflow(ctx, model.Workflow{Name: "w", Flows: []string{""}}), model.ErrValidation)
}

func testLookup(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.SaveFlow(ctx, SampleFlow(t, "login")))
	l := store.Lookup{Flows: s}

	f, ok, err := l.LookupFlow(ctx, "login")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, f.Steps, 2)

	_, ok, err = l.LookupFlow(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
