package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// VideoProgressRepository implements [models.VideoProgressStore] over the video_progress table.
type VideoProgressRepository struct {
	db *sql.DB
}

// NewVideoProgressRepository creates a new [VideoProgressRepository] with the given database connection
func NewVideoProgressRepository(db *sql.DB) *VideoProgressRepository {
	return &VideoProgressRepository{db: db}
}

// ListVideoProgress returns every watched flag recorded for the user.
func (r *VideoProgressRepository) ListVideoProgress(ctx context.Context, userID string) ([]models.VideoProgress, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, video_id, is_watched, watched_at FROM video_progress WHERE user_id = ? ORDER BY video_id",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query video progress: %w", err)
	}
	defer rows.Close()

	progress := []models.VideoProgress{}
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		progress = append(progress, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return progress, nil
}

// GetVideoProgress returns the user's row for videoID or [shared.ErrRecordNotFound].
func (r *VideoProgressRepository) GetVideoProgress(ctx context.Context, userID, videoID string) (*models.VideoProgress, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, video_id, is_watched, watched_at FROM video_progress WHERE user_id = ? AND video_id = ?",
		userID, videoID,
	)
	v, err := scanVideo(row)
	if isNoRows(err) {
		return nil, shared.ErrRecordNotFound
	}
	return v, err
}

// SaveVideoProgress inserts or updates the row keyed by (user_id, video_id).
func (r *VideoProgressRepository) SaveVideoProgress(ctx context.Context, v *models.VideoProgress) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if v.ID == "" {
		v.ID = shared.GenerateID()
	}

	var watchedAt sql.NullTime
	if v.WatchedAt != nil {
		watchedAt = sql.NullTime{Time: *v.WatchedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO video_progress (id, user_id, video_id, is_watched, watched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, video_id) DO UPDATE SET
			is_watched = excluded.is_watched,
			watched_at = excluded.watched_at
	`, v.ID, v.UserID, v.VideoID, v.IsWatched, watchedAt)
	if err != nil {
		return fmt.Errorf("failed to save video progress: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(s rowScanner) (*models.VideoProgress, error) {
	var (
		v         models.VideoProgress
		watchedAt sql.NullTime
	)
	if err := s.Scan(&v.ID, &v.UserID, &v.VideoID, &v.IsWatched, &watchedAt); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan video progress: %w", err)
	}
	if watchedAt.Valid {
		v.WatchedAt = &watchedAt.Time
	}
	return &v, nil
}
