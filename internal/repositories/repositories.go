package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/secondbrain/internal/models"
)

// Store is the SQLite [models.Backend].
type Store struct {
	*TaskRepository
	*ProfileRepository
	*VideoProgressRepository
	*EvolutionRepository
	*LogRepository

	db *sql.DB
}

var _ models.Backend = (*Store)(nil)

// NewStore wires every repository to the same database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{
		TaskRepository:          NewTaskRepository(db),
		ProfileRepository:       NewProfileRepository(db),
		VideoProgressRepository: NewVideoProgressRepository(db),
		EvolutionRepository:     NewEvolutionRepository(db),
		LogRepository:           NewLogRepository(db),
		db:                      db,
	}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// clock is replaced in tests that assert on timestamps.
var clock = func() time.Time { return time.Now().UTC() }

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// expectOne converts a zero-row update into notFound.
func expectOne(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
