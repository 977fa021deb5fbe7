package service

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/repository"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/messaging"
)

// quantities are compared with a small tolerance to absorb float noise
// from proportional distribution
const qtyEpsilon = 1e-9

// SplitDecision is one advisory partial-quantity record submitted with a
// QC decision. Splits are audit data, never summed server-side.
type SplitDecision struct {
	SplitNumber   int
	Quantity      float64
	Status        string
	FromWarehouse string
	FromBinCode   *string
	ToWarehouse   string
	ToBinCode     *string
	BatchNumber   *string
	Notes         *string
}

// ItemDecision is the operator's QC verdict for one item. A
// resubmission overwrites prior values, it never accumulates.
type ItemDecision struct {
	ItemID           string
	ApprovedQuantity float64
	RejectedQuantity float64
	QCStatus         string
	QCNotes          *string

	ApprovedToWarehouse   *string
	ApprovedToBinCode     *string
	ApprovedToBinAbsEntry *int

	RejectedToWarehouse   *string
	RejectedToBinCode     *string
	RejectedToBinAbsEntry *int

	ToWarehouse   *string
	ToBinCode     *string
	ToBinAbsEntry *int

	Splits []SplitDecision
}

type txRepos struct {
	sessions *repository.SessionRepository
	items    *repository.ItemRepository
	batches  *repository.BatchRepository
	splits   *repository.SplitRepository
	logs     *repository.LogRepository
}

func (s *Service) withTx(tx *sqlx.Tx) txRepos {
	return txRepos{
		sessions: s.sessions.WithTx(tx),
		items:    s.items.WithTx(tx),
		batches:  s.batches.WithTx(tx),
		splits:   s.splits.WithTx(tx),
		logs:     s.logs.WithTx(tx),
	}
}

// ApplyQC applies a bulk QC submission and completes the session. The
// whole submission commits or fails as one unit. When every item ends
// up rejected the session becomes terminal rejected instead of
// completed.
func (s *Service) ApplyQC(ctx context.Context, sessionID, userID string, decisions []ItemDecision) (*SessionDetail, error) {
	if len(decisions) == 0 {
		return nil, errors.BadRequest("QC submission contains no item decisions")
	}

	var session *repository.TransferSession
	var finalStatus string
	var totals messaging.QCCompletedEvent

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		repos := s.withTx(tx)

		var err error
		session, err = repos.sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != repository.StatusDraft && session.Status != repository.StatusInProgress {
			return errors.InvalidStateTransition(session.Status, repository.StatusCompleted)
		}

		for i := range decisions {
			if err := s.applyItemDecision(ctx, repos, session, &decisions[i]); err != nil {
				return err
			}
		}

		items, err := repos.items.ListBySession(ctx, sessionID)
		if err != nil {
			return err
		}

		allRejected := true
		for _, item := range items {
			totals.ApprovedQty += item.ApprovedQuantity
			totals.RejectedQty += item.RejectedQuantity
			switch item.QCStatus {
			case repository.QCRejected:
				totals.ItemsRejected++
			default:
				allRejected = false
				if item.QCStatus == repository.QCApproved {
					totals.ItemsApproved++
				}
			}
		}

		finalStatus = repository.StatusCompleted
		if allRejected {
			finalStatus = repository.StatusRejected
		}
		if err := repos.sessions.UpdateQCCompletion(ctx, sessionID, finalStatus, userID); err != nil {
			return err
		}

		description := fmt.Sprintf("QC completed with %d decisions, session %s", len(decisions), finalStatus)
		return repos.logs.Create(ctx, &repository.TransferLog{
			SessionID:   sessionID,
			UserID:      userID,
			Action:      repository.ActionQCApproved,
			Description: &description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("session_code", session.SessionCode).
		Str("status", finalStatus).
		Int("decisions", len(decisions)).
		Msg("QC decision applied")

	totals.SessionID = session.ID
	totals.SessionCode = session.SessionCode
	totals.ApprovedBy = userID
	s.events.QCCompleted(ctx, totals)

	return s.GetSession(ctx, sessionID)
}

// UpdateItem applies a single-item QC update without completing the
// session. The first update moves a draft session to in_progress.
func (s *Service) UpdateItem(ctx context.Context, sessionID, itemID, userID string, decision ItemDecision) (*ItemDetail, error) {
	decision.ItemID = itemID

	err := s.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		repos := s.withTx(tx)

		session, err := repos.sessions.GetByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		if session.Status != repository.StatusDraft && session.Status != repository.StatusInProgress {
			return errors.InvalidStateTransition(session.Status, repository.StatusInProgress)
		}

		if err := s.applyItemDecision(ctx, repos, session, &decision); err != nil {
			return err
		}

		if session.Status == repository.StatusDraft {
			if err := repos.sessions.UpdateStatus(ctx, sessionID, repository.StatusInProgress); err != nil {
				return err
			}
		}

		description := fmt.Sprintf("item %s updated", itemID)
		return repos.logs.Create(ctx, &repository.TransferLog{
			SessionID:   sessionID,
			UserID:      userID,
			Action:      repository.ActionItemUpdated,
			Description: &description,
		})
	})
	if err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	batches, err := s.batches.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	splits, err := s.splits.ListByItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return &ItemDetail{TransferItem: item, Batches: batches, Splits: splits}, nil
}

// applyItemDecision overwrites one item's QC fields, redistributes its
// batch quantities and records its advisory splits.
func (s *Service) applyItemDecision(ctx context.Context, repos txRepos, session *repository.TransferSession, d *ItemDecision) error {
	switch d.QCStatus {
	case repository.QCPending, repository.QCApproved, repository.QCRejected, repository.QCPartial:
	default:
		return errors.BadRequest(fmt.Sprintf("unknown qc_status %q", d.QCStatus))
	}

	item, err := repos.items.GetByID(ctx, d.ItemID)
	if err != nil {
		return err
	}
	if item.SessionID != session.ID {
		return errors.BadRequest(fmt.Sprintf("item %s does not belong to session %s", d.ItemID, session.SessionCode))
	}

	if err := checkQuantities(item, d); err != nil {
		return err
	}

	item.ApprovedQuantity = d.ApprovedQuantity
	item.RejectedQuantity = d.RejectedQuantity
	item.QCStatus = d.QCStatus
	item.QCNotes = d.QCNotes
	item.ApprovedToWarehouse = d.ApprovedToWarehouse
	item.ApprovedToBinCode = d.ApprovedToBinCode
	item.ApprovedToBinAbsEntry = d.ApprovedToBinAbsEntry
	item.RejectedToWarehouse = d.RejectedToWarehouse
	item.RejectedToBinCode = d.RejectedToBinCode
	item.RejectedToBinAbsEntry = d.RejectedToBinAbsEntry
	item.ToWarehouse = d.ToWarehouse
	item.ToBinCode = d.ToBinCode
	item.ToBinAbsEntry = d.ToBinAbsEntry

	if err := repos.items.UpdateQC(ctx, item); err != nil {
		return err
	}

	if item.IsBatchItem {
		if err := s.redistributeBatches(ctx, repos, item); err != nil {
			return err
		}
	}

	for i := range d.Splits {
		sd := &d.Splits[i]
		if err := repos.splits.Create(ctx, &repository.TransferSplit{
			ItemID:        item.ID,
			SplitNumber:   sd.SplitNumber,
			Quantity:      sd.Quantity,
			Status:        sd.Status,
			FromWarehouse: sd.FromWarehouse,
			FromBinCode:   sd.FromBinCode,
			ToWarehouse:   sd.ToWarehouse,
			ToBinCode:     sd.ToBinCode,
			BatchNumber:   sd.BatchNumber,
			Notes:         sd.Notes,
		}); err != nil {
			return err
		}
	}

	return nil
}

// checkQuantities rejects negative quantities and enforces
// approved + rejected <= received within the float tolerance.
func checkQuantities(item *repository.TransferItem, d *ItemDecision) error {
	if d.ApprovedQuantity < 0 || d.RejectedQuantity < 0 {
		return errors.BadRequest("quantities must not be negative")
	}
	if d.ApprovedQuantity+d.RejectedQuantity > item.ReceivedQuantity+qtyEpsilon {
		return errors.ConservationViolation(item.ItemCode, d.ApprovedQuantity, d.RejectedQuantity, item.ReceivedQuantity)
	}
	return nil
}

func (s *Service) redistributeBatches(ctx context.Context, repos txRepos, item *repository.TransferItem) error {
	batches, err := repos.batches.ListByItem(ctx, item.ID)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		return nil
	}

	quantities := make([]float64, len(batches))
	for i, b := range batches {
		quantities[i] = b.BatchQuantity
	}

	shares := Distribute(item.ApprovedQuantity, item.RejectedQuantity, quantities)
	if shares == nil {
		return nil
	}

	for i, b := range batches {
		b.ApprovedQuantity = shares[i].Approved
		b.RejectedQuantity = shares[i].Rejected
		b.QCStatus = item.QCStatus
		if err := repos.batches.UpdateQuantities(ctx, b); err != nil {
			return err
		}
	}
	return nil
}
