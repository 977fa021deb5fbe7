package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/repository"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/messaging"
)

// qrPayload is the machine-readable label content
type qrPayload struct {
	Item  string  `json:"item"`
	Batch string  `json:"batch,omitempty"`
	ID    string  `json:"id"`
	Qty   float64 `json:"qty"`
	Pack  string  `json:"pack"`
	Bin   string  `json:"bin,omitempty"`
}

// GenerateLabels (re)generates the QR pack labels of a session.
// Regeneration replaces the whole prior label set. Only approved items
// are labeled; batch-managed items get one pack set per batch.
// packsPerItem maps item IDs to their requested pack count, defaulting
// to one.
func (s *Service) GenerateLabels(ctx context.Context, sessionID, userID string, packsPerItem map[string]int) ([]*repository.TransferQRLabel, error) {
	var session *repository.TransferSession
	var labels []*repository.TransferQRLabel

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		repos := s.withTx(tx)
		labelRepo := s.labels.WithTx(tx)

		var err error
		session, err = repos.sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}

		items, err := repos.items.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		batches, err := repos.batches.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}
		batchesByItem := map[string][]*repository.TransferBatch{}
		for _, b := range batches {
			batchesByItem[b.ItemID] = append(batchesByItem[b.ItemID], b)
		}

		labels = buildLabels(items, batchesByItem, packsPerItem)
		if len(labels) == 0 {
			return errors.NothingToPost("no approved quantities to label")
		}

		if err := labelRepo.DeleteBySession(ctx, sessionID); err != nil {
			return err
		}
		for _, l := range labels {
			l.SessionID = sessionID
			if err := labelRepo.Create(ctx, l); err != nil {
				return err
			}
		}

		description := fmt.Sprintf("%d pack labels generated", len(labels))
		return repos.logs.Create(ctx, &repository.TransferLog{
			SessionID:   sessionID,
			UserID:      userID,
			Action:      repository.ActionLabelsGenerated,
			Description: &description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_code", session.SessionCode).
		Int("label_count", len(labels)).
		Msg("pack labels generated")

	s.events.LabelsGenerated(ctx, messaging.LabelsGeneratedEvent{
		SessionID:   session.ID,
		SessionCode: session.SessionCode,
		LabelCount:  len(labels),
		GeneratedBy: userID,
	})

	return labels, nil
}

// GetLabels lists the current label set of a session
func (s *Service) GetLabels(ctx context.Context, sessionID string) ([]*repository.TransferQRLabel, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.labels.ListBySession(ctx, sessionID)
}

// buildLabels computes the label rows for every approved item. Pure
// apart from ID generation.
func buildLabels(items []*repository.TransferItem, batchesByItem map[string][]*repository.TransferBatch, packsPerItem map[string]int) []*repository.TransferQRLabel {
	var labels []*repository.TransferQRLabel

	for _, item := range items {
		if item.QCStatus != repository.QCApproved || item.ApprovedQuantity <= 0 {
			continue
		}

		packCount := packsPerItem[item.ID]
		if packCount < 1 {
			packCount = 1
		}

		toWarehouse, toBinCode, _, ok := item.BranchDestination(repository.QCApproved)
		if !ok {
			toWarehouse = ""
		}
		bin := ""
		if toBinCode != nil {
			bin = *toBinCode
		}

		batches := batchesByItem[item.ID]
		if item.IsBatchItem && len(batches) > 0 {
			for _, b := range batches {
				if b.ApprovedQuantity <= 0 {
					continue
				}
				batchNumber := b.BatchNumber
				labels = append(labels, packLabels(item, &batchNumber, b.ApprovedQuantity, packCount, toWarehouse, bin)...)
			}
			continue
		}

		labels = append(labels, packLabels(item, nil, item.ApprovedQuantity, packCount, toWarehouse, bin)...)
	}

	return labels
}

// packLabels emits one label per pack for a single item or batch
// quantity. Pack numbering and the QR identifier always use the
// requested pack count, so a scanner can correlate labels even when
// zero-quantity packs were skipped.
func packLabels(item *repository.TransferItem, batchNumber *string, quantity float64, packCount int, toWarehouse, bin string) []*repository.TransferQRLabel {
	packs := SplitIntoPacks(quantity, packCount)
	labels := make([]*repository.TransferQRLabel, 0, len(packs))

	for i, qty := range packs {
		packNum := i + 1
		label := &repository.TransferQRLabel{
			ID:            uuid.New().String(),
			ItemID:        item.ID,
			LabelNumber:   packNum,
			TotalLabels:   packCount,
			BatchNumber:   batchNumber,
			Quantity:      qty,
			FromWarehouse: item.FromWarehouse,
			ToWarehouse:   toWarehouse,
		}

		payload := qrPayload{
			Item: item.ItemCode,
			ID:   fmt.Sprintf("%s%d%d%d", item.ID, item.LineNum, packNum, packCount),
			Qty:  qty,
			Pack: fmt.Sprintf("%d of %d", packNum, packCount),
			Bin:  bin,
		}
		if batchNumber != nil {
			payload.Batch = *batchNumber
		}
		data, _ := json.Marshal(payload)
		label.QRData = string(data)

		labels = append(labels, label)
	}
	return labels
}
