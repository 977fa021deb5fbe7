package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/database"
)

// Log outcome statuses
const (
	LogSuccess = "success"
	LogError   = "error"
	LogWarning = "warning"
)

// Log action tags
const (
	ActionSessionCreated  = "session_created"
	ActionItemUpdated     = "item_updated"
	ActionQCApproved      = "qc_approved"
	ActionTransferPosted  = "transfer_posted"
	ActionRejectedPosted  = "rejected_posted"
	ActionPostFailed      = "post_failed"
	ActionLabelsGenerated = "labels_generated"
	ActionSessionDeleted  = "session_deleted"
)

// TransferLog is an append-only audit entry for a session
type TransferLog struct {
	ID          string    `db:"id" json:"id"`
	SessionID   string    `db:"session_id" json:"session_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	Action      string    `db:"action" json:"action"`
	Description *string   `db:"description" json:"description,omitempty"`
	SAPResponse *string   `db:"sap_response" json:"sap_response,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// LogRepository handles transfer log persistence
type LogRepository struct {
	q sqlx.ExtContext
}

// NewLogRepository creates a new log repository
func NewLogRepository(db *database.DB) *LogRepository {
	return &LogRepository{q: db.DB}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *LogRepository) WithTx(tx *sqlx.Tx) *LogRepository {
	return &LogRepository{q: tx}
}

// Create appends a log entry
func (r *LogRepository) Create(ctx context.Context, l *TransferLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.Status == "" {
		l.Status = LogSuccess
	}

	query := `
		INSERT INTO transfer_logs (
			id, session_id, user_id, action, description, sap_response, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	return r.q.QueryRowxContext(ctx, query,
		l.ID, l.SessionID, l.UserID, l.Action, l.Description, l.SAPResponse, l.Status,
	).Scan(&l.CreatedAt)
}

// ListBySession lists log entries for a session, newest first
func (r *LogRepository) ListBySession(ctx context.Context, sessionID string) ([]*TransferLog, error) {
	var logs []*TransferLog
	query := `SELECT * FROM transfer_logs WHERE session_id = $1 ORDER BY created_at DESC`
	if err := sqlx.SelectContext(ctx, r.q, &logs, query, sessionID); err != nil {
		return nil, err
	}
	return logs, nil
}
