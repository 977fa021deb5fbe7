package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/erp"
	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/repository"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/messaging"

	"github.com/jmoiron/sqlx"
)

// CreateSessionInput identifies the GRPO document to ingest. Either
// DocEntry or DocNum must be set; DocEntry wins when both are.
type CreateSessionInput struct {
	DocEntry      int
	DocNum        int
	FromWarehouse string
}

// CreateSession ingests a GRPO document into a new QC session: the
// document header, one item per open line with its inventory
// classification, and batch rows for batch-managed items. Everything is
// persisted in one transaction.
func (s *Service) CreateSession(ctx context.Context, input CreateSessionInput, userID string) (*SessionDetail, error) {
	var doc *erp.Document
	var err error
	switch {
	case input.DocEntry > 0:
		doc, err = s.erp.GetDocument(ctx, input.DocEntry)
	case input.DocNum > 0:
		doc, err = s.erp.GetDocumentByDocNum(ctx, input.DocNum)
	default:
		return nil, errors.BadRequest("doc_entry or doc_num is required")
	}
	if err != nil {
		return nil, err
	}

	// fast-fail before the ERP line work; the transaction re-checks
	// under an advisory lock
	if existing, err := s.sessions.FindActiveByDocEntry(ctx, doc.DocEntry); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.Conflict(fmt.Sprintf("session %s is already active for GRPO %d", existing.SessionCode, doc.DocEntry))
	}

	if len(doc.DocumentLines) == 0 {
		return nil, errors.NoLinesFound(fmt.Sprintf("%d", doc.DocEntry))
	}

	session := &repository.TransferSession{
		SessionCode:  fmt.Sprintf("GRPO-%d-%d", doc.DocEntry, time.Now().Unix()),
		GRPODocEntry: doc.DocEntry,
		GRPODocNum:   fmt.Sprintf("%d", doc.DocNum),
		SeriesID:     doc.Series,
		VendorCode:   doc.CardCode,
		VendorName:   doc.CardName,
		DocDate:      parseIsoDate(doc.DocDate),
		DocDueDate:   parseIsoDatePtr(doc.DocDueDate),
		DocTotal:     doc.DocTotal,
	}

	items, batchesByLine, err := s.buildItems(ctx, doc, input.FromWarehouse)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		sessions := s.sessions.WithTx(tx)
		itemRepo := s.items.WithTx(tx)
		batchRepo := s.batches.WithTx(tx)
		logRepo := s.logs.WithTx(tx)

		// the advisory lock serializes concurrent ingestions of the
		// same document, making the re-check authoritative
		if err := sessions.LockDocEntry(ctx, doc.DocEntry); err != nil {
			return err
		}
		if existing, err := sessions.FindActiveByDocEntry(ctx, doc.DocEntry); err != nil {
			return err
		} else if existing != nil {
			return errors.Conflict(fmt.Sprintf("session %s is already active for GRPO %d", existing.SessionCode, doc.DocEntry))
		}

		if err := sessions.Create(ctx, session); err != nil {
			return err
		}
		for i, item := range items {
			item.SessionID = session.ID
			if err := itemRepo.Create(ctx, item); err != nil {
				return err
			}
			for _, batch := range batchesByLine[i] {
				batch.ItemID = item.ID
				if err := batchRepo.Create(ctx, batch); err != nil {
					return err
				}
			}
		}

		description := fmt.Sprintf("session created from GRPO %d with %d lines", doc.DocEntry, len(items))
		return logRepo.Create(ctx, &repository.TransferLog{
			SessionID:   session.ID,
			UserID:      userID,
			Action:      repository.ActionSessionCreated,
			Description: &description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_code", session.SessionCode).
		Int("grpo_doc_entry", doc.DocEntry).
		Int("item_count", len(items)).
		Msg("transfer session created")

	s.events.SessionCreated(ctx, messaging.SessionCreatedEvent{
		SessionID:    session.ID,
		SessionCode:  session.SessionCode,
		GRPODocEntry: session.GRPODocEntry,
		GRPODocNum:   session.GRPODocNum,
		VendorCode:   session.VendorCode,
		ItemCount:    len(items),
		CreatedBy:    userID,
	})

	return s.assembleDetail(ctx, session)
}

// buildItems maps document lines to transfer items and loads batch rows
// for batch-managed lines. The returned batch slices are indexed by item
// position.
func (s *Service) buildItems(ctx context.Context, doc *erp.Document, fromWarehouse string) ([]*repository.TransferItem, map[int][]*repository.TransferBatch, error) {
	items := make([]*repository.TransferItem, 0, len(doc.DocumentLines))
	batchesByLine := make(map[int][]*repository.TransferBatch)

	for _, line := range doc.DocumentLines {
		cls, err := s.erp.ClassifyItem(ctx, line.ItemCode)
		if err != nil {
			// unmanaged fallback keeps ingestion usable when the
			// classification view is broken
			s.logger.Warn().
				Err(err).
				Str("item_code", line.ItemCode).
				Msg("classification lookup failed, treating item as non-managed")
			cls = erp.Classification{IsNonManaged: true}
		}

		lineNum := line.LineNum
		baseEntry := doc.DocEntry
		warehouse := line.WarehouseCode
		if fromWarehouse != "" {
			warehouse = fromWarehouse
		}

		item := &repository.TransferItem{
			LineNum:          line.LineNum,
			ItemCode:         line.ItemCode,
			ItemName:         line.ItemDescription,
			IsBatchItem:      cls.IsBatch,
			IsSerialItem:     cls.IsSerial,
			IsNonManaged:     cls.IsNonManaged,
			ReceivedQuantity: line.Quantity,
			FromWarehouse:    warehouse,
			UnitOfMeasure:    line.MeasureUnit,
			Price:            line.Price,
			LineTotal:        line.LineTotal,
			SAPBaseEntry:     &baseEntry,
			SAPBaseLine:      &lineNum,
		}

		if len(line.BinAllocations) > 0 {
			absEntry := line.BinAllocations[0].BinAbsEntry
			item.FromBinAbsEntry = &absEntry
			if bin, err := s.erp.ResolveBinLocation(ctx, absEntry); err == nil {
				item.FromBinCode = &bin.BinCode
			} else {
				s.logger.Warn().
					Err(err).
					Int("bin_abs_entry", absEntry).
					Msg("source bin resolution failed")
			}
		}

		if cls.IsBatch {
			details, err := s.erp.GetBatchesForLine(ctx, doc.DocEntry, line.ItemCode, line.LineNum)
			if err != nil {
				return nil, nil, err
			}
			for _, d := range details {
				if d.BatchNumber == "" {
					continue
				}
				qty, _ := d.Quantity.Float64()
				batchesByLine[len(items)] = append(batchesByLine[len(items)], &repository.TransferBatch{
					BatchNumber:     d.BatchNumber,
					BatchQuantity:   qty,
					ExpiryDate:      parseErpDate(d.ExpiryDate),
					ManufactureDate: parseErpDate(d.ManufactureDate),
				})
			}
		}

		items = append(items, item)
	}

	return items, batchesByLine, nil
}

func formatDocRef(seriesID, docNum int) string {
	return fmt.Sprintf("%d (series %d)", docNum, seriesID)
}

// parseIsoDate parses the Service Layer's date formats, with or without
// a time component. Unparseable input yields the zero time.
func parseIsoDate(raw string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04:05Z07:00", "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseIsoDatePtr(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t := parseIsoDate(raw)
	if t.IsZero() {
		return nil
	}
	return &t
}

// parseErpDate parses the numeric YYYYMMDD form used by the batch
// detail view. Empty or malformed input yields nil.
func parseErpDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return nil
	}
	return &t
}
