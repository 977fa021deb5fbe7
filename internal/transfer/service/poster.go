package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/erp"
	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/repository"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/messaging"
)

// PostOutcome reports one branch posting attempt
type PostOutcome struct {
	Posted    bool    `json:"posted"`
	Branch    string  `json:"branch"`
	LineCount int     `json:"line_count"`
	DocEntry  *int    `json:"doc_entry,omitempty"`
	DocNum    *string `json:"doc_num,omitempty"`
}

// PostApproved posts the approved branch stock transfer. Success moves
// the session to posted.
func (s *Service) PostApproved(ctx context.Context, sessionID, userID string) (*PostOutcome, error) {
	return s.postBranch(ctx, sessionID, userID, repository.QCApproved)
}

// PostRejected posts the rejected branch stock transfer. The rejected
// branch tracks its own posting status independent of the session's.
func (s *Service) PostRejected(ctx context.Context, sessionID, userID string) (*PostOutcome, error) {
	return s.postBranch(ctx, sessionID, userID, repository.QCRejected)
}

// postBranch builds and submits one branch's stock transfer inside the
// session row lock, so concurrent post attempts serialize. A failed ERP
// call rolls the transaction back and leaves the session untouched; the
// failure is then logged outside the transaction.
func (s *Service) postBranch(ctx context.Context, sessionID, userID, branch string) (*PostOutcome, error) {
	outcome := &PostOutcome{Branch: branch}
	var session *repository.TransferSession
	var erpFailure error

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		repos := s.withTx(tx)

		var err error
		session, err = repos.sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := checkBranchPostable(session, branch); err != nil {
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

		lines, fromWhs, toWhs, err := buildBranchLines(branch, items, batchesByItem)
		if err != nil {
			return err
		}
		outcome.LineCount = len(lines)
		if len(lines) == 0 {
			// nothing eligible is a no-op success, never an empty ERP document
			return nil
		}

		payload := &erp.StockTransfer{
			DocDate:            time.Now().Format("2006-01-02"),
			Comments:           fmt.Sprintf("QC %s transfer for %s", branch, session.SessionCode),
			FromWarehouse:      fromWhs,
			ToWarehouse:        toWhs,
			StockTransferLines: lines,
		}

		result, err := s.erp.PostStockTransfer(ctx, payload)
		if err != nil {
			erpFailure = err
			return err
		}

		docNum := strconv.Itoa(result.DocNum)
		action := repository.ActionTransferPosted
		if branch == repository.QCApproved {
			err = repos.sessions.RecordApprovedPost(ctx, sessionID, result.DocEntry, docNum)
		} else {
			action = repository.ActionRejectedPosted
			err = repos.sessions.RecordRejectedPost(ctx, sessionID, result.DocEntry, docNum)
		}
		if err != nil {
			return err
		}

		outcome.Posted = true
		outcome.DocEntry = &result.DocEntry
		outcome.DocNum = &docNum

		description := fmt.Sprintf("%s branch posted as stock transfer %d with %d lines", branch, result.DocNum, len(lines))
		sapResponse := fmt.Sprintf(`{"DocEntry":%d,"DocNum":%d}`, result.DocEntry, result.DocNum)
		return repos.logs.Create(ctx, &repository.TransferLog{
			SessionID:   sessionID,
			UserID:      userID,
			Action:      action,
			Description: &description,
			SAPResponse: &sapResponse,
		})
	})
	if err != nil {
		if erpFailure != nil && session != nil {
			s.logPostFailure(ctx, session.ID, userID, branch, erpFailure)
		}
		return nil, err
	}

	if !outcome.Posted {
		s.logger.Info().
			Str("session_code", session.SessionCode).
			Str("branch", branch).
			Msg("no eligible lines, branch post skipped")
		return outcome, nil
	}

	s.logger.Info().
		Str("session_code", session.SessionCode).
		Str("branch", branch).
		Int("doc_entry", *outcome.DocEntry).
		Int("line_count", outcome.LineCount).
		Msg("stock transfer posted")

	evt := messaging.TransferPostedEvent{
		SessionID:   session.ID,
		SessionCode: session.SessionCode,
		PostedBy:    userID,
	}
	if branch == repository.QCApproved {
		evt.Status = repository.StatusPosted
		evt.TransferDocEntry = outcome.DocEntry
		evt.TransferDocNum = outcome.DocNum
	} else {
		evt.Status = session.Status
		evt.RejectedDocEntry = outcome.DocEntry
		evt.RejectedDocNum = outcome.DocNum
	}
	s.events.TransferPosted(ctx, evt)

	return outcome, nil
}

// checkBranchPostable enforces the state machine and the double-post
// guard for one branch.
func checkBranchPostable(session *repository.TransferSession, branch string) error {
	if branch == repository.QCApproved {
		if session.TransferDocEntry != nil {
			return errors.Conflict(fmt.Sprintf("approved branch of %s is already posted", session.SessionCode))
		}
		if session.Status != repository.StatusCompleted {
			return errors.InvalidStateTransition(session.Status, repository.StatusPosted)
		}
		return nil
	}

	if session.RejectedDocStatus == repository.RejectedDocPosted {
		return errors.Conflict(fmt.Sprintf("rejected branch of %s is already posted", session.SessionCode))
	}
	// the rejected branch stays postable after the approved branch went
	// through, and for fully rejected sessions that never complete
	switch session.Status {
	case repository.StatusCompleted, repository.StatusPosted, repository.StatusRejected:
		return nil
	}
	return errors.InvalidStateTransition(session.Status, repository.StatusPosted)
}

// buildBranchLines constructs the stock transfer lines for one branch.
// The approved branch takes approved items; the rejected branch also
// takes fully rejected items so their stock still moves. The branch
// quantity must be positive. Batch-managed items emit one line per
// non-zero batch, others one line per item. Returns the header
// warehouse pair taken from the first eligible item.
func buildBranchLines(branch string, items []*repository.TransferItem, batchesByItem map[string][]*repository.TransferBatch) ([]erp.StockTransferLine, string, string, error) {
	var lines []erp.StockTransferLine
	var headerFrom, headerTo string

	for _, item := range items {
		qty := item.ApprovedQuantity
		eligible := item.QCStatus == repository.QCApproved
		if branch == repository.QCRejected {
			qty = item.RejectedQuantity
			eligible = eligible || item.QCStatus == repository.QCRejected
		}
		if !eligible || qty <= 0 {
			continue
		}

		toWarehouse, toBinCode, toBinAbs, ok := item.BranchDestination(branch)
		if !ok {
			return nil, "", "", errors.DestinationNotDesignated(item.ItemCode)
		}
		if headerFrom == "" {
			headerFrom = item.FromWarehouse
			headerTo = toWarehouse
		}

		baseEntry, baseLine := 0, 0
		if item.SAPBaseEntry != nil {
			baseEntry = *item.SAPBaseEntry
		}
		if item.SAPBaseLine != nil {
			baseLine = *item.SAPBaseLine
		}

		allocations := binAllocations(item, qty, toBinCode, toBinAbs)

		batches := batchesByItem[item.ID]
		if item.IsBatchItem && len(batches) > 0 {
			for _, b := range batches {
				bqty := b.ApprovedQuantity
				if branch == repository.QCRejected {
					bqty = b.RejectedQuantity
				}
				if bqty <= 0 {
					continue
				}
				// the batch sub-entry references the transfer
				// document's own line, not the GRPO base line
				lineNum := len(lines)
				lines = append(lines, erp.StockTransferLine{
					LineNum:           lineNum,
					ItemCode:          item.ItemCode,
					Quantity:          bqty,
					WarehouseCode:     toWarehouse,
					FromWarehouseCode: item.FromWarehouse,
					BaseEntry:         baseEntry,
					BaseLine:          baseLine,
					BaseType:          erp.BaseTypeGRPO,
					BatchNumbers: []erp.BatchNumber{{
						BatchNumber:    b.BatchNumber,
						Quantity:       bqty,
						BaseLineNumber: lineNum,
					}},
					BinAllocations: binAllocations(item, bqty, toBinCode, toBinAbs),
				})
			}
			continue
		}

		lines = append(lines, erp.StockTransferLine{
			LineNum:           len(lines),
			ItemCode:          item.ItemCode,
			Quantity:          qty,
			WarehouseCode:     toWarehouse,
			FromWarehouseCode: item.FromWarehouse,
			BaseEntry:         baseEntry,
			BaseLine:          baseLine,
			BaseType:          erp.BaseTypeGRPO,
			BinAllocations:    allocations,
		})
	}

	return lines, headerFrom, headerTo, nil
}

// binAllocations emits the from/to bin sub-entries, each only when both
// the bin code and abs entry are known.
func binAllocations(item *repository.TransferItem, qty float64, toBinCode *string, toBinAbs *int) []erp.BinAllocation {
	var allocations []erp.BinAllocation
	if item.FromBinCode != nil && *item.FromBinCode != "" && item.FromBinAbsEntry != nil {
		allocations = append(allocations, erp.BinAllocation{
			BinActionType:                 erp.BinActionFrom,
			BinAbsEntry:                   *item.FromBinAbsEntry,
			Quantity:                      qty,
			SerialAndBatchNumbersBaseLine: 0,
		})
	}
	if toBinCode != nil && *toBinCode != "" && toBinAbs != nil {
		allocations = append(allocations, erp.BinAllocation{
			BinActionType:                 erp.BinActionTo,
			BinAbsEntry:                   *toBinAbs,
			Quantity:                      qty,
			SerialAndBatchNumbersBaseLine: 0,
		})
	}
	return allocations
}

func (s *Service) logPostFailure(ctx context.Context, sessionID, userID, branch string, erpErr error) {
	description := fmt.Sprintf("%s branch post failed", branch)
	sapResponse := erpErr.Error()
	if err := s.logs.Create(ctx, &repository.TransferLog{
		SessionID:   sessionID,
		UserID:      userID,
		Action:      repository.ActionPostFailed,
		Description: &description,
		SAPResponse: &sapResponse,
		Status:      repository.LogError,
	}); err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to record post failure")
	}
}
