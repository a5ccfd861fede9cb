package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/secondbrain/internal/models"
	"github.com/desertthunder/secondbrain/internal/shared"
)

// LogRepository implements [models.LogStore] for append-only tables.
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository creates a new [LogRepository] with the given database connection
func NewLogRepository(db *sql.DB) *LogRepository {
	return &LogRepository{db: db}
}

// CreateConsultation inserts a validated contact form submission.
func (r *LogRepository) CreateConsultation(ctx context.Context, c *models.Consultation) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	c.ID = shared.GenerateID()
	c.CreatedAt = clock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO consultations (id, name, email, company, service, message, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		c.ID, c.Name, c.Email, c.Company, c.Service, nullString(c.Message), c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert consultation: %w", err)
	}
	return nil
}

// CreateSignupLog records a registration attempt.
func (r *LogRepository) CreateSignupLog(ctx context.Context, l *models.SignupLog) error {
	l.ID = shared.GenerateID()
	l.CreatedAt = clock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO signup_logs (id, email, username, success, error_message, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		l.ID, l.Email, l.Username, l.Success, l.ErrorMessage, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert signup log: %w", err)
	}
	return nil
}

// CreateWebhookLog records an inbound function call and its outcome.
func (r *LogRepository) CreateWebhookLog(ctx context.Context, l *models.WebhookLog) error {
	l.ID = shared.GenerateID()
	l.CreatedAt = clock()

	payload := string(l.Payload)
	if payload == "" {
		payload = "null"
	}

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO webhook_logs (id, endpoint, payload, response_code, error, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		l.ID, l.Endpoint, payload, l.ResponseCode, nullString(l.Error), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert webhook log: %w", err)
	}
	return nil
}

// ListWebhookLogs returns the most recent audit rows for endpoint, newest first.
func (r *LogRepository) ListWebhookLogs(ctx context.Context, endpoint string, limit int) ([]models.WebhookLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, endpoint, payload, response_code, error, created_at
		FROM webhook_logs
		WHERE endpoint = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, endpoint, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook logs: %w", err)
	}
	defer rows.Close()

	var logs []models.WebhookLog
	for rows.Next() {
		var (
			l       models.WebhookLog
			payload string
			errMsg  sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Endpoint, &payload, &l.ResponseCode, &errMsg, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook log: %w", err)
		}
		l.Payload = []byte(payload)
		l.Error = stringPtr(errMsg)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
