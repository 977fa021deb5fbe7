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

// TransferItem is one QC line per source GRPO document line
type TransferItem struct {
	ID              string  `db:"id" json:"id"`
	SessionID       string  `db:"session_id" json:"session_id"`
	LineNum         int     `db:"line_num" json:"line_num"`
	ItemCode        string  `db:"item_code" json:"item_code"`
	ItemName        string  `db:"item_name" json:"item_name"`
	ItemDescription *string `db:"item_description" json:"item_description,omitempty"`

	IsBatchItem  bool `db:"is_batch_item" json:"is_batch_item"`
	IsSerialItem bool `db:"is_serial_item" json:"is_serial_item"`
	IsNonManaged bool `db:"is_non_managed" json:"is_non_managed"`

	ReceivedQuantity float64 `db:"received_quantity" json:"received_quantity"`
	ApprovedQuantity float64 `db:"approved_quantity" json:"approved_quantity"`
	RejectedQuantity float64 `db:"rejected_quantity" json:"rejected_quantity"`

	FromWarehouse   string  `db:"from_warehouse" json:"from_warehouse"`
	FromBinCode     *string `db:"from_bin_code" json:"from_bin_code,omitempty"`
	FromBinAbsEntry *int    `db:"from_bin_abs_entry" json:"from_bin_abs_entry,omitempty"`

	ApprovedToWarehouse   *string `db:"approved_to_warehouse" json:"approved_to_warehouse,omitempty"`
	ApprovedToBinCode     *string `db:"approved_to_bin_code" json:"approved_to_bin_code,omitempty"`
	ApprovedToBinAbsEntry *int    `db:"approved_to_bin_abs_entry" json:"approved_to_bin_abs_entry,omitempty"`

	RejectedToWarehouse   *string `db:"rejected_to_warehouse" json:"rejected_to_warehouse,omitempty"`
	RejectedToBinCode     *string `db:"rejected_to_bin_code" json:"rejected_to_bin_code,omitempty"`
	RejectedToBinAbsEntry *int    `db:"rejected_to_bin_abs_entry" json:"rejected_to_bin_abs_entry,omitempty"`

	// legacy single destination, still honored as a fallback
	ToWarehouse   *string `db:"to_warehouse" json:"to_warehouse,omitempty"`
	ToBinCode     *string `db:"to_bin_code" json:"to_bin_code,omitempty"`
	ToBinAbsEntry *int    `db:"to_bin_abs_entry" json:"to_bin_abs_entry,omitempty"`

	UnitOfMeasure string  `db:"unit_of_measure" json:"unit_of_measure"`
	Price         float64 `db:"price" json:"price"`
	LineTotal     float64 `db:"line_total" json:"line_total"`

	QCStatus string  `db:"qc_status" json:"qc_status"`
	QCNotes  *string `db:"qc_notes" json:"qc_notes,omitempty"`

	SAPBaseEntry *int `db:"sap_base_entry" json:"sap_base_entry,omitempty"`
	SAPBaseLine  *int `db:"sap_base_line" json:"sap_base_line,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// BranchDestination resolves the destination warehouse and bin for one
// posting branch, preferring the branch-specific pair over the legacy
// single destination. ok is false when no warehouse is designated.
func (i *TransferItem) BranchDestination(branch string) (warehouse string, binCode *string, binAbsEntry *int, ok bool) {
	if branch == QCApproved {
		if i.ApprovedToWarehouse != nil && *i.ApprovedToWarehouse != "" {
			return *i.ApprovedToWarehouse, i.ApprovedToBinCode, i.ApprovedToBinAbsEntry, true
		}
	} else {
		if i.RejectedToWarehouse != nil && *i.RejectedToWarehouse != "" {
			return *i.RejectedToWarehouse, i.RejectedToBinCode, i.RejectedToBinAbsEntry, true
		}
	}
	if i.ToWarehouse != nil && *i.ToWarehouse != "" {
		return *i.ToWarehouse, i.ToBinCode, i.ToBinAbsEntry, true
	}
	return "", nil, nil, false
}

// ItemRepository handles transfer item persistence
type ItemRepository struct {
	q sqlx.ExtContext
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *database.DB) *ItemRepository {
	return &ItemRepository{q: db.DB}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *ItemRepository) WithTx(tx *sqlx.Tx) *ItemRepository {
	return &ItemRepository{q: tx}
}

// Create creates a new item
func (r *ItemRepository) Create(ctx context.Context, item *TransferItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.QCStatus == "" {
		item.QCStatus = QCPending
	}

	query := `
		INSERT INTO transfer_items (
			id, session_id, line_num, item_code, item_name, item_description,
			is_batch_item, is_serial_item, is_non_managed,
			received_quantity, approved_quantity, rejected_quantity,
			from_warehouse, from_bin_code, from_bin_abs_entry,
			to_warehouse, to_bin_code, to_bin_abs_entry,
			unit_of_measure, price, line_total,
			qc_status, sap_base_entry, sap_base_line
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
		)
		RETURNING created_at, updated_at
	`

	return r.q.QueryRowxContext(ctx, query,
		item.ID, item.SessionID, item.LineNum, item.ItemCode, item.ItemName, item.ItemDescription,
		item.IsBatchItem, item.IsSerialItem, item.IsNonManaged,
		item.ReceivedQuantity, item.ApprovedQuantity, item.RejectedQuantity,
		item.FromWarehouse, item.FromBinCode, item.FromBinAbsEntry,
		item.ToWarehouse, item.ToBinCode, item.ToBinAbsEntry,
		item.UnitOfMeasure, item.Price, item.LineTotal,
		item.QCStatus, item.SAPBaseEntry, item.SAPBaseLine,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
}

// GetByID gets an item by ID
func (r *ItemRepository) GetByID(ctx context.Context, id string) (*TransferItem, error) {
	var item TransferItem
	query := `SELECT * FROM transfer_items WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, &item, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("transfer item")
		}
		return nil, err
	}
	return &item, nil
}

// ListBySession lists items for a session in source line order
func (r *ItemRepository) ListBySession(ctx context.Context, sessionID string) ([]*TransferItem, error) {
	var items []*TransferItem
	query := `SELECT * FROM transfer_items WHERE session_id = $1 ORDER BY line_num`
	if err := sqlx.SelectContext(ctx, r.q, &items, query, sessionID); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateQC overwrites the QC decision fields of an item
func (r *ItemRepository) UpdateQC(ctx context.Context, item *TransferItem) error {
	query := `
		UPDATE transfer_items SET
			approved_quantity = $2, rejected_quantity = $3,
			qc_status = $4, qc_notes = $5,
			approved_to_warehouse = $6, approved_to_bin_code = $7, approved_to_bin_abs_entry = $8,
			rejected_to_warehouse = $9, rejected_to_bin_code = $10, rejected_to_bin_abs_entry = $11,
			to_warehouse = $12, to_bin_code = $13, to_bin_abs_entry = $14,
			updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query,
		item.ID, item.ApprovedQuantity, item.RejectedQuantity,
		item.QCStatus, item.QCNotes,
		item.ApprovedToWarehouse, item.ApprovedToBinCode, item.ApprovedToBinAbsEntry,
		item.RejectedToWarehouse, item.RejectedToBinCode, item.RejectedToBinAbsEntry,
		item.ToWarehouse, item.ToBinCode, item.ToBinAbsEntry,
	)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("transfer item")
	}
	return nil
}
