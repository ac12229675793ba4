// Package store persists evaluation runs and their per-scene metrics to a
// SQLite database, so result history stays queryable across runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/traj-eval/traj-eval/eval"

	_ "modernc.org/sqlite"
)

// Run is one evaluation run's identity and configuration snapshot.
type Run struct {
	ID              string // uuid
	Dataset         string
	Policy          string
	SampleK         int
	CollisionRadius float64
	CreatedAt       time.Time

	Aggregate eval.AggregateMetrics
}

// NewRun creates a Run with a fresh UUID.
func NewRun(dataset string, policy string, sampleK int, collisionRadius float64, agg eval.AggregateMetrics) Run {
	return Run{
		ID:              uuid.NewString(),
		Dataset:         dataset,
		Policy:          policy,
		SampleK:         sampleK,
		CollisionRadius: collisionRadius,
		CreatedAt:       time.Now().UTC(),
		Aggregate:       agg,
	}
}

// SceneRow is one scene's persisted metrics.
type SceneRow struct {
	Seq        string
	Frame      int
	AgentCount int
	ADE        float64
	FDE        float64
	SADE       float64
	SFDE       float64
	CR         float64
	Residual   int
}

// ResultStore is a mutex-guarded SQLite store.
type ResultStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// NewResultStore creates a store backed by the database at path. Call Init
// before use.
func NewResultStore(path string) *ResultStore {
	return &ResultStore{path: path}
}

// Init opens the database and creates tables. Idempotent.
func (s *ResultStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Close releases the database handle.
func (s *ResultStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id               TEXT PRIMARY KEY,
			dataset          TEXT NOT NULL,
			policy           TEXT NOT NULL,
			sample_k         INTEGER NOT NULL,
			collision_radius REAL NOT NULL,
			created_at       TEXT NOT NULL,
			ade              REAL NOT NULL,
			fde              REAL NOT NULL,
			sade             REAL NOT NULL,
			sfde             REAL NOT NULL,
			cr               REAL NOT NULL,
			total_agents     INTEGER NOT NULL,
			scenes           INTEGER NOT NULL,
			scenes_residual  INTEGER NOT NULL,
			residual_samples INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS scene_metrics (
			run_id      TEXT NOT NULL REFERENCES runs(id),
			seq         TEXT NOT NULL,
			frame       INTEGER NOT NULL,
			agent_count INTEGER NOT NULL,
			ade         REAL NOT NULL,
			fde         REAL NOT NULL,
			sade        REAL NOT NULL,
			sfde        REAL NOT NULL,
			cr          REAL NOT NULL,
			residual    INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq, frame)
		);
	`)
	return err
}

func (s *ResultStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("store not initialized")
	}
	return s.db, nil
}

// SaveRun upserts a run and its aggregate metrics.
func (s *ResultStore) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	agg := run.Aggregate
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, dataset, policy, sample_k, collision_radius, created_at,
			ade, fde, sade, sfde, cr, total_agents, scenes, scenes_residual, residual_samples)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ade = excluded.ade,
			fde = excluded.fde,
			sade = excluded.sade,
			sfde = excluded.sfde,
			cr = excluded.cr,
			total_agents = excluded.total_agents,
			scenes = excluded.scenes,
			scenes_residual = excluded.scenes_residual,
			residual_samples = excluded.residual_samples
	`, run.ID, run.Dataset, run.Policy, run.SampleK, run.CollisionRadius,
		run.CreatedAt.Format(time.RFC3339), agg.ADE, agg.FDE, agg.SADE, agg.SFDE, agg.CR,
		agg.TotalAgents, agg.Scenes, agg.ScenesWithResidual, agg.ResidualCollidingSamples)
	return err
}

// GetRun fetches a run by ID. The second return is false when no such run
// exists.
func (s *ResultStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var run Run
	var created string
	err = db.QueryRowContext(ctx, `
		SELECT id, dataset, policy, sample_k, collision_radius, created_at,
			ade, fde, sade, sfde, cr, total_agents, scenes, scenes_residual, residual_samples
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Dataset, &run.Policy, &run.SampleK, &run.CollisionRadius, &created,
		&run.Aggregate.ADE, &run.Aggregate.FDE, &run.Aggregate.SADE, &run.Aggregate.SFDE,
		&run.Aggregate.CR, &run.Aggregate.TotalAgents, &run.Aggregate.Scenes,
		&run.Aggregate.ScenesWithResidual, &run.Aggregate.ResidualCollidingSamples)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}

	run.CreatedAt, err = time.Parse(time.RFC3339, created)
	if err != nil {
		return Run{}, false, fmt.Errorf("decode run %s created_at: %w", id, err)
	}
	return run, true, nil
}

// SaveSceneMetrics upserts per-scene metric rows for a run.
func (s *ResultStore) SaveSceneMetrics(ctx context.Context, runID string, rows []SceneRow) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scene_metrics (run_id, seq, frame, agent_count, ade, fde, sade, sfde, cr, residual)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq, frame) DO UPDATE SET
			agent_count = excluded.agent_count,
			ade = excluded.ade,
			fde = excluded.fde,
			sade = excluded.sade,
			sfde = excluded.sfde,
			cr = excluded.cr,
			residual = excluded.residual
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, runID, r.Seq, r.Frame, r.AgentCount,
			r.ADE, r.FDE, r.SADE, r.SFDE, r.CR, r.Residual); err != nil {
			return fmt.Errorf("save scene %s/%d: %w", r.Seq, r.Frame, err)
		}
	}
	return tx.Commit()
}

// SceneMetrics fetches a run's per-scene rows ordered by sequence and frame.
func (s *ResultStore) SceneMetrics(ctx context.Context, runID string) ([]SceneRow, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT seq, frame, agent_count, ade, fde, sade, sfde, cr, residual
		FROM scene_metrics WHERE run_id = ? ORDER BY seq, frame
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SceneRow
	for rows.Next() {
		var r SceneRow
		if err := rows.Scan(&r.Seq, &r.Frame, &r.AgentCount, &r.ADE, &r.FDE, &r.SADE, &r.SFDE, &r.CR, &r.Residual); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
