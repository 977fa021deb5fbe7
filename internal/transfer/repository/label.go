package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/database"
)

// TransferQRLabel is one generated pack label
type TransferQRLabel struct {
	ID            string    `db:"id" json:"id"`
	SessionID     string    `db:"session_id" json:"session_id"`
	ItemID        string    `db:"item_id" json:"item_id"`
	LabelNumber   int       `db:"label_number" json:"label_number"`
	TotalLabels   int       `db:"total_labels" json:"total_labels"`
	QRData        string    `db:"qr_data" json:"qr_data"`
	BatchNumber   *string   `db:"batch_number" json:"batch_number,omitempty"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	FromWarehouse string    `db:"from_warehouse" json:"from_warehouse"`
	ToWarehouse   string    `db:"to_warehouse" json:"to_warehouse"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// LabelRepository handles QR label persistence
type LabelRepository struct {
	q sqlx.ExtContext
}

// NewLabelRepository creates a new label repository
func NewLabelRepository(db *database.DB) *LabelRepository {
	return &LabelRepository{q: db.DB}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *LabelRepository) WithTx(tx *sqlx.Tx) *LabelRepository {
	return &LabelRepository{q: tx}
}

// Create creates a label row
func (r *LabelRepository) Create(ctx context.Context, l *TransferQRLabel) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}

	query := `
		INSERT INTO transfer_qr_labels (
			id, session_id, item_id, label_number, total_labels,
			qr_data, batch_number, quantity, from_warehouse, to_warehouse
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`

	return r.q.QueryRowxContext(ctx, query,
		l.ID, l.SessionID, l.ItemID, l.LabelNumber, l.TotalLabels,
		l.QRData, l.BatchNumber, l.Quantity, l.FromWarehouse, l.ToWarehouse,
	).Scan(&l.CreatedAt)
}

// DeleteBySession removes every label of a session. Label regeneration
// replaces the full prior set.
func (r *LabelRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM transfer_qr_labels WHERE session_id = $1`
	_, err := r.q.ExecContext(ctx, query, sessionID)
	return err
}

// ListBySession lists labels for a session in generation order
func (r *LabelRepository) ListBySession(ctx context.Context, sessionID string) ([]*TransferQRLabel, error) {
	var labels []*TransferQRLabel
	query := `
		SELECT l.* FROM transfer_qr_labels l
		JOIN transfer_items i ON i.id = l.item_id
		WHERE l.session_id = $1
		ORDER BY i.line_num, l.batch_number NULLS FIRST, l.label_number
	`
	if err := sqlx.SelectContext(ctx, r.q, &labels, query, sessionID); err != nil {
		return nil, err
	}
	return labels, nil
}
