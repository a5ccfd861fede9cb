package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/secondbrain/internal/models"
)

// EvolutionRepository implements [models.EvolutionStore] over user_evolution_tasks and evolution_tasks.
type EvolutionRepository struct {
	db *sql.DB
}

// NewEvolutionRepository creates a new [EvolutionRepository] with the given database connection
func NewEvolutionRepository(db *sql.DB) *EvolutionRepository {
	return &EvolutionRepository{db: db}
}

// UpsertEvolutionTasks writes every task on conflict (user_id, task_id) in one transaction.
func (r *EvolutionRepository) UpsertEvolutionTasks(ctx context.Context, tasks []models.EvolutionTask) error {
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO user_evolution_tasks (user_id, task_id, status, metadata, date, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, task_id) DO UPDATE SET
			status = excluded.status,
			metadata = excluded.metadata,
			date = excluded.date,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := clock()
	for i := range tasks {
		t := &tasks[i]
		t.ApplyDefaults(now)
		t.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx, t.UserID, t.TaskID, t.Status, string(t.Metadata), t.Date, t.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert evolution task %s: %w", t.TaskID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit evolution tasks: %w", err)
	}
	return nil
}

// ListEvolutionTasks returns the user's tasks, most recent date first.
func (r *EvolutionRepository) ListEvolutionTasks(ctx context.Context, userID string) ([]models.EvolutionTask, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, task_id, status, metadata, date, updated_at
		FROM user_evolution_tasks
		WHERE user_id = ?
		ORDER BY date DESC, task_id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evolution tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.EvolutionTask{}
	for rows.Next() {
		var (
			t        models.EvolutionTask
			metadata string
		)
		if err := rows.Scan(&t.UserID, &t.TaskID, &t.Status, &metadata, &t.Date, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evolution task: %w", err)
		}
		t.Metadata = json.RawMessage(metadata)
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tasks, nil
}

// UpsertEvolutionStatus records the latest status of a single task.
func (r *EvolutionRepository) UpsertEvolutionStatus(ctx context.Context, s *models.EvolutionStatus) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = clock()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO evolution_tasks (user_id, task_id, status, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, task_id) DO UPDATE SET
			status = excluded.status,
			updated_at = excluded.updated_at
	`, s.UserID, s.TaskID, s.Status, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert evolution status: %w", err)
	}
	return nil
}
