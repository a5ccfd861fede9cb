package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// ProfileRepository implements [models.ProfileStore] over the user_profiles table.
type ProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new [ProfileRepository] with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// CreateProfile inserts a profile. Usernames are unique and stored lowercased.
func (r *ProfileRepository) CreateProfile(ctx context.Context, p *models.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = clock()
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_profiles (id, username, full_name, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.Username, p.FullName, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by user id.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, full_name, created_at FROM user_profiles WHERE id = ?", id,
	).Scan(&p.ID, &p.Username, &p.FullName, &p.CreatedAt)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: %s", shared.ErrProfileNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

// UsernameAvailable reports whether no profile holds the lowercased username.
func (r *ProfileRepository) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM user_profiles WHERE username = ?)", strings.ToLower(username),
	).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return !taken, nil
}
