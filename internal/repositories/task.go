package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// TaskRepository implements [models.TaskStore] over the daily_tasks table.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new [TaskRepository] with the given database connection
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListTasks returns the user's tasks ordered by due time ascending.
func (r *TaskRepository) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	query := `
		SELECT id, user_id, task, due_time, category, is_completed, created_at
		FROM daily_tasks
		WHERE user_id = ?
		ORDER BY due_time ASC, created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.UserID, &t.Task, &t.DueTime, &t.Category, &t.IsCompleted, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves one of the user's tasks.
func (r *TaskRepository) GetTask(ctx context.Context, userID, id string) (*models.Task, error) {
	query := `
		SELECT id, user_id, task, due_time, category, is_completed, created_at
		FROM daily_tasks
		WHERE id = ? AND user_id = ?
	`

	var t models.Task
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&t.ID, &t.UserID, &t.Task, &t.DueTime, &t.Category, &t.IsCompleted, &t.CreatedAt)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query task: %w", err)
	}
	return &t, nil
}

// CreateTasks inserts every task in one transaction, assigning ids and creation times.
// New tasks always start incomplete.
func (r *TaskRepository) CreateTasks(ctx context.Context, tasks ...*models.Task) error {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_tasks (id, user_id, task, due_time, category, is_completed, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := clock()
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = shared.GenerateID()
		}
		t.IsCompleted = false
		t.CreatedAt = now
		if _, err := stmt.ExecContext(ctx, t.ID, t.UserID, t.Task, t.DueTime, t.Category, t.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tasks: %w", err)
	}
	return nil
}

// SetTaskCompleted updates is_completed filtered by both id and user id.
func (r *TaskRepository) SetTaskCompleted(ctx context.Context, userID, id string, completed bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE daily_tasks SET is_completed = ? WHERE id = ? AND user_id = ?",
		completed, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id))
}

// DeleteTask removes one of the user's tasks.
func (r *TaskRepository) DeleteTask(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM daily_tasks WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id))
}
