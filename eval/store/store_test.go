package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traj-eval/traj-eval/eval"
)

func newTestStore(t *testing.T) *ResultStore {
	t.Helper()
	s := NewResultStore(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testAggregate() eval.AggregateMetrics {
	return eval.AggregateMetrics{
		ADE: 0.41, FDE: 0.87, SADE: 0.52, SFDE: 1.02, CR: 0.03,
		Scenes: 70, TotalAgents: 148, ScenesWithResidual: 2, ResidualCollidingSamples: 5,
	}
}

func TestResultStore_SaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := NewRun("zara1", "incremental", 20, 0.1, testAggregate())
	require.NoError(t, s.SaveRun(ctx, run))

	got, ok, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "zara1", got.Dataset)
	assert.Equal(t, "incremental", got.Policy)
	assert.Equal(t, 20, got.SampleK)
	assert.Equal(t, 0.1, got.CollisionRadius)
	assert.Equal(t, run.Aggregate, got.Aggregate)
	// RFC 3339 storage truncates sub-second precision.
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Second)
}

func TestResultStore_SaveRunUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := NewRun("eth", "one-shot", 20, 0.1, testAggregate())
	require.NoError(t, s.SaveRun(ctx, run))

	run.Aggregate.ADE = 0.99
	require.NoError(t, s.SaveRun(ctx, run))

	got, ok, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0.99, got.Aggregate.ADE)
}

func TestResultStore_GetRunMissing(t *testing.T) {
	s := newTestStore(t)

	_, ok, err := s.GetRun(context.Background(), "no-such-run")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResultStore_SceneMetricsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	run := NewRun("univ", "per-sample", 20, 0.1, testAggregate())
	require.NoError(t, s.SaveRun(ctx, run))

	rows := []SceneRow{
		{Seq: "univ", Frame: 200, AgentCount: 4, ADE: 0.5, FDE: 1.1, SADE: 0.6, SFDE: 1.3, CR: 0.05, Residual: 0},
		{Seq: "univ", Frame: 100, AgentCount: 9, ADE: 0.7, FDE: 1.4, SADE: 0.9, SFDE: 1.9, CR: 0.20, Residual: 3},
	}
	require.NoError(t, s.SaveSceneMetrics(ctx, run.ID, rows))

	got, err := s.SceneMetrics(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Ordered by sequence then frame.
	assert.Equal(t, rows[1], got[0])
	assert.Equal(t, rows[0], got[1])

	// Re-saving a scene updates in place instead of duplicating.
	rows[1].ADE = 0.8
	require.NoError(t, s.SaveSceneMetrics(ctx, run.ID, rows[1:]))
	got, err = s.SceneMetrics(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 0.8, got[0].ADE)
}

func TestResultStore_InitValidation(t *testing.T) {
	s := NewResultStore("")
	assert.Error(t, s.Init(context.Background()))

	uninitialized := NewResultStore(filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, uninitialized.Close(), "closing an unopened store is a no-op")
	_, _, err := uninitialized.GetRun(context.Background(), "id")
	assert.Error(t, err)
}

func TestResultStore_InitIdempotent(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.Init(context.Background()))
}

func TestNewRun_FreshIdentity(t *testing.T) {
	a := NewRun("eth", "one-shot", 20, 0.1, eval.AggregateMetrics{})
	b := NewRun("eth", "one-shot", 20, 0.1, eval.AggregateMetrics{})
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
}
