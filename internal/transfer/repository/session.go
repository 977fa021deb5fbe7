package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/database"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
)

// Session statuses
const (
	StatusDraft      = "draft"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusPosted     = "posted"
	StatusRejected   = "rejected"
)

// Rejected-branch posting statuses
const (
	RejectedDocDraft  = "draft"
	RejectedDocPosted = "posted"
)

// Item/batch QC statuses
const (
	QCPending  = "pending"
	QCApproved = "approved"
	QCRejected = "rejected"
	QCPartial  = "partial"
)

// TransferSession is one QC transfer session per ingested GRPO document
type TransferSession struct {
	ID                string     `db:"id" json:"id"`
	SessionCode       string     `db:"session_code" json:"session_code"`
	GRPODocEntry      int        `db:"grpo_doc_entry" json:"grpo_doc_entry"`
	GRPODocNum        string     `db:"grpo_doc_num" json:"grpo_doc_num"`
	SeriesID          int        `db:"series_id" json:"series_id"`
	VendorCode        string     `db:"vendor_code" json:"vendor_code"`
	VendorName        string     `db:"vendor_name" json:"vendor_name"`
	DocDate           time.Time  `db:"doc_date" json:"doc_date"`
	DocDueDate        *time.Time `db:"doc_due_date" json:"doc_due_date,omitempty"`
	DocTotal          float64    `db:"doc_total" json:"doc_total"`
	Status            string     `db:"status" json:"status"`
	QCApprovedBy      *string    `db:"qc_approved_by" json:"qc_approved_by,omitempty"`
	TransferDocEntry  *int       `db:"transfer_doc_entry" json:"transfer_doc_entry,omitempty"`
	TransferDocNum    *string    `db:"transfer_doc_num" json:"transfer_doc_num,omitempty"`
	RejectedDocEntry  *int       `db:"rejected_doc_entry" json:"rejected_doc_entry,omitempty"`
	RejectedDocNum    *string    `db:"rejected_doc_num" json:"rejected_doc_num,omitempty"`
	RejectedDocStatus string     `db:"rejected_doc_status" json:"rejected_doc_status"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}

// Active reports whether the session still accepts work on the normal flow.
func (s *TransferSession) Active() bool {
	return s.Status != StatusPosted && s.Status != StatusRejected
}

// SessionRepository handles transfer session persistence
type SessionRepository struct {
	q sqlx.ExtContext
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{q: db.DB}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *SessionRepository) WithTx(tx *sqlx.Tx) *SessionRepository {
	return &SessionRepository{q: tx}
}

// Create creates a new session
func (r *SessionRepository) Create(ctx context.Context, s *TransferSession) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = StatusDraft
	}
	if s.RejectedDocStatus == "" {
		s.RejectedDocStatus = RejectedDocDraft
	}

	query := `
		INSERT INTO transfer_sessions (
			id, session_code, grpo_doc_entry, grpo_doc_num, series_id,
			vendor_code, vendor_name, doc_date, doc_due_date, doc_total,
			status, rejected_doc_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at
	`

	err := r.q.QueryRowxContext(ctx, query,
		s.ID, s.SessionCode, s.GRPODocEntry, s.GRPODocNum, s.SeriesID,
		s.VendorCode, s.VendorName, s.DocDate, s.DocDueDate, s.DocTotal,
		s.Status, s.RejectedDocStatus,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}
	return nil
}

// advisory lock class for per-document ingestion
const docEntryLockClass = 1

// LockDocEntry takes a transaction-scoped advisory lock on a GRPO doc
// entry, serializing concurrent ingestions of the same document. Only
// meaningful on a repository bound to a transaction; the lock releases
// when the transaction ends.
func (r *SessionRepository) LockDocEntry(ctx context.Context, docEntry int) error {
	_, err := r.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, docEntryLockClass, docEntry)
	return err
}

// GetByID gets a session by ID
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*TransferSession, error) {
	var s TransferSession
	query := `SELECT * FROM transfer_sessions WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("transfer session")
		}
		return nil, err
	}
	return &s, nil
}

// GetByIDForUpdate gets a session by ID holding a row lock until the
// surrounding transaction ends. Only meaningful on a repository bound
// to a transaction.
func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, id string) (*TransferSession, error) {
	var s TransferSession
	query := `SELECT * FROM transfer_sessions WHERE id = $1 FOR UPDATE`
	if err := sqlx.GetContext(ctx, r.q, &s, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("transfer session")
		}
		return nil, err
	}
	return &s, nil
}

// FindActiveByDocEntry finds a non-terminal session for the given GRPO
// doc entry. Returns nil when none exists.
func (r *SessionRepository) FindActiveByDocEntry(ctx context.Context, docEntry int) (*TransferSession, error) {
	var s TransferSession
	query := `
		SELECT * FROM transfer_sessions
		WHERE grpo_doc_entry = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`
	if err := sqlx.GetContext(ctx, r.q, &s, query, docEntry, StatusPosted, StatusRejected); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// List lists sessions, optionally filtered by status and/or doc entry
func (r *SessionRepository) List(ctx context.Context, status string, docEntry int) ([]*TransferSession, error) {
	query := `SELECT * FROM transfer_sessions WHERE 1=1`
	args := []interface{}{}

	if status != "" {
		args = append(args, status)
		query += ` AND status = $1`
	}
	if docEntry > 0 {
		args = append(args, docEntry)
		if len(args) == 1 {
			query += ` AND grpo_doc_entry = $1`
		} else {
			query += ` AND grpo_doc_entry = $2`
		}
	}
	query += ` ORDER BY created_at DESC`

	var sessions []*TransferSession
	if err := sqlx.SelectContext(ctx, r.q, &sessions, query, args...); err != nil {
		return nil, err
	}
	return sessions, nil
}

// UpdateQCCompletion records the QC outcome on the session
func (r *SessionRepository) UpdateQCCompletion(ctx context.Context, id, status, approvedBy string) error {
	query := `
		UPDATE transfer_sessions
		SET status = $2, qc_approved_by = $3, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, status, approvedBy)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("transfer session")
	}
	return nil
}

// UpdateStatus updates the session status
func (r *SessionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE transfer_sessions SET status = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.q.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("transfer session")
	}
	return nil
}

// RecordApprovedPost stores the approved-branch ERP document on the session
// and moves it to posted.
func (r *SessionRepository) RecordApprovedPost(ctx context.Context, id string, docEntry int, docNum string) error {
	query := `
		UPDATE transfer_sessions
		SET transfer_doc_entry = $2, transfer_doc_num = $3, status = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, docEntry, docNum, StatusPosted)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("transfer session")
	}
	return nil
}

// RecordRejectedPost stores the rejected-branch ERP document on the session.
func (r *SessionRepository) RecordRejectedPost(ctx context.Context, id string, docEntry int, docNum string) error {
	query := `
		UPDATE transfer_sessions
		SET rejected_doc_entry = $2, rejected_doc_num = $3, rejected_doc_status = $4, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, docEntry, docNum, RejectedDocPosted)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("transfer session")
	}
	return nil
}

// Delete deletes a session and, via foreign keys, all owned rows
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM transfer_sessions WHERE id = $1`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("transfer session")
	}
	return nil
}
