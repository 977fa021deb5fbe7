package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/database"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
)

// TransferBatch is one batch row of a batch-managed transfer item
type TransferBatch struct {
	ID               string     `db:"id" json:"id"`
	ItemID           string     `db:"item_id" json:"item_id"`
	BatchNumber      string     `db:"batch_number" json:"batch_number"`
	BatchQuantity    float64    `db:"batch_quantity" json:"batch_quantity"`
	ApprovedQuantity float64    `db:"approved_quantity" json:"approved_quantity"`
	RejectedQuantity float64    `db:"rejected_quantity" json:"rejected_quantity"`
	ExpiryDate       *time.Time `db:"expiry_date" json:"expiry_date,omitempty"`
	ManufactureDate  *time.Time `db:"manufacture_date" json:"manufacture_date,omitempty"`
	QCStatus         string     `db:"qc_status" json:"qc_status"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// BatchRepository handles transfer batch persistence
type BatchRepository struct {
	q sqlx.ExtContext
}

// NewBatchRepository creates a new batch repository
func NewBatchRepository(db *database.DB) *BatchRepository {
	return &BatchRepository{q: db.DB}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *BatchRepository) WithTx(tx *sqlx.Tx) *BatchRepository {
	return &BatchRepository{q: tx}
}

// Create creates a new batch row
func (r *BatchRepository) Create(ctx context.Context, b *TransferBatch) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.QCStatus == "" {
		b.QCStatus = QCPending
	}

	query := `
		INSERT INTO transfer_batches (
			id, item_id, batch_number, batch_quantity,
			approved_quantity, rejected_quantity,
			expiry_date, manufacture_date, qc_status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	return r.q.QueryRowxContext(ctx, query,
		b.ID, b.ItemID, b.BatchNumber, b.BatchQuantity,
		b.ApprovedQuantity, b.RejectedQuantity,
		b.ExpiryDate, b.ManufactureDate, b.QCStatus,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// ListByItem lists batches for an item
func (r *BatchRepository) ListByItem(ctx context.Context, itemID string) ([]*TransferBatch, error) {
	var batches []*TransferBatch
	query := `SELECT * FROM transfer_batches WHERE item_id = $1 ORDER BY batch_number`
	if err := sqlx.SelectContext(ctx, r.q, &batches, query, itemID); err != nil {
		return nil, err
	}
	return batches, nil
}

// ListBySession lists batches for every item of a session
func (r *BatchRepository) ListBySession(ctx context.Context, sessionID string) ([]*TransferBatch, error) {
	var batches []*TransferBatch
	query := `
		SELECT b.* FROM transfer_batches b
		JOIN transfer_items i ON i.id = b.item_id
		WHERE i.session_id = $1
		ORDER BY i.line_num, b.batch_number
	`
	if err := sqlx.SelectContext(ctx, r.q, &batches, query, sessionID); err != nil {
		return nil, err
	}
	return batches, nil
}

// UpdateQuantities overwrites the distributed quantities and QC status of a batch
func (r *BatchRepository) UpdateQuantities(ctx context.Context, b *TransferBatch) error {
	query := `
		UPDATE transfer_batches SET
			approved_quantity = $2, rejected_quantity = $3, qc_status = $4,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, b.ID, b.ApprovedQuantity, b.RejectedQuantity, b.QCStatus)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("transfer batch")
	}
	return nil
}
