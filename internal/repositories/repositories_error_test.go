package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

func TestTaskRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("CreateTasks", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewTaskRepository(setupTestDB(t))
			err := repo.CreateTasks(ctx, &models.Task{UserID: "user-1", Task: "No time"})
			if !errors.Is(err, shared.ErrMissingFields) {
				t.Fatalf("expected ErrMissingFields, got %v", err)
			}
		})

		t.Run("Batch Is Atomic", func(t *testing.T) {
			repo := NewTaskRepository(setupTestDB(t))
			dup := newTask("user-1", "Dup", "09:00")
			dup.ID = "fixed"
			again := newTask("user-1", "Dup again", "10:00")
			again.ID = "fixed"

			if err := repo.CreateTasks(ctx, dup, again); err == nil {
				t.Fatal("expected primary key violation")
			}

			tasks, err := repo.ListTasks(ctx, "user-1")
			if err != nil {
				t.Fatalf("failed to list tasks: %v", err)
			}
			if len(tasks) != 0 {
				t.Errorf("expected rollback to leave no rows, got %d", len(tasks))
			}
		})
	})

	t.Run("Other Users Task", func(t *testing.T) {
		repo := NewTaskRepository(setupTestDB(t))
		task := newTask("owner", "Private", "09:00")
		if err := repo.CreateTasks(ctx, task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		if err := repo.SetTaskCompleted(ctx, "intruder", task.ID, true); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound on update, got %v", err)
		}
		if err := repo.DeleteTask(ctx, "intruder", task.ID); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound on delete, got %v", err)
		}
		if _, err := repo.GetTask(ctx, "intruder", task.ID); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound on get, got %v", err)
		}
	})
}

func TestProfileRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateUsername", func(t *testing.T) {
		repo := NewProfileRepository(setupTestDB(t))
		if err := repo.CreateProfile(ctx, &models.Profile{ID: "a", Username: "same"}); err != nil {
			t.Fatalf("failed to create first profile: %v", err)
		}
		if err := repo.CreateProfile(ctx, &models.Profile{ID: "b", Username: "SAME"}); err == nil {
			t.Fatal("expected unique violation for case-insensitive duplicate username")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewProfileRepository(setupTestDB(t))
		if _, err := repo.GetProfile(ctx, "missing"); !errors.Is(err, shared.ErrProfileNotFound) {
			t.Fatalf("expected ErrProfileNotFound, got %v", err)
		}
	})
}

func TestEvolutionRepositoryErrors(t *testing.T) {
	repo := NewEvolutionRepository(setupTestDB(t))
	err := repo.UpsertEvolutionTasks(context.Background(), []models.EvolutionTask{{UserID: "u"}})
	if !errors.Is(err, shared.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
}

func TestClosedDatabase(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	db.Close()

	if _, err := store.ListTasks(context.Background(), "u"); err == nil {
		t.Error("expected error from closed database")
	}
}
