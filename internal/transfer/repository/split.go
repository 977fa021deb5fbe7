package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/database"
)

// Split decision statuses
const (
	SplitOK    = "OK"
	SplitNotOK = "NOTOK"
	SplitHold  = "HOLD"
)

// TransferSplit is an append-only record of a partial quantity decision
type TransferSplit struct {
	ID            string    `db:"id" json:"id"`
	ItemID        string    `db:"item_id" json:"item_id"`
	SplitNumber   int       `db:"split_number" json:"split_number"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	Status        string    `db:"status" json:"status"`
	FromWarehouse string    `db:"from_warehouse" json:"from_warehouse"`
	FromBinCode   *string   `db:"from_bin_code" json:"from_bin_code,omitempty"`
	ToWarehouse   string    `db:"to_warehouse" json:"to_warehouse"`
	ToBinCode     *string   `db:"to_bin_code" json:"to_bin_code,omitempty"`
	BatchNumber   *string   `db:"batch_number" json:"batch_number,omitempty"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// SplitRepository handles transfer split persistence
type SplitRepository struct {
	q sqlx.ExtContext
}

// NewSplitRepository creates a new split repository
func NewSplitRepository(db *database.DB) *SplitRepository {
	return &SplitRepository{q: db.DB}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *SplitRepository) WithTx(tx *sqlx.Tx) *SplitRepository {
	return &SplitRepository{q: tx}
}

// Create appends a split record
func (r *SplitRepository) Create(ctx context.Context, s *TransferSplit) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}

	query := `
		INSERT INTO transfer_splits (
			id, item_id, split_number, quantity, status,
			from_warehouse, from_bin_code, to_warehouse, to_bin_code,
			batch_number, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`

	return r.q.QueryRowxContext(ctx, query,
		s.ID, s.ItemID, s.SplitNumber, s.Quantity, s.Status,
		s.FromWarehouse, s.FromBinCode, s.ToWarehouse, s.ToBinCode,
		s.BatchNumber, s.Notes,
	).Scan(&s.CreatedAt)
}

// ListByItem lists splits for an item in decision order
func (r *SplitRepository) ListByItem(ctx context.Context, itemID string) ([]*TransferSplit, error) {
	var splits []*TransferSplit
	query := `SELECT * FROM transfer_splits WHERE item_id = $1 ORDER BY split_number`
	if err := sqlx.SelectContext(ctx, r.q, &splits, query, itemID); err != nil {
		return nil, err
	}
	return splits, nil
}

// ListBySession lists splits for every item of a session
func (r *SplitRepository) ListBySession(ctx context.Context, sessionID string) ([]*TransferSplit, error) {
	var splits []*TransferSplit
	query := `
		SELECT s.* FROM transfer_splits s
		JOIN transfer_items i ON i.id = s.item_id
		WHERE i.session_id = $1
		ORDER BY i.line_num, s.split_number
	`
	if err := sqlx.SelectContext(ctx, r.q, &splits, query, sessionID); err != nil {
		return nil, err
	}
	return splits, nil
}
