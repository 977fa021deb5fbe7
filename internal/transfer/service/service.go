// Package service implements the transfer QC workflow: session
// ingestion from GRPO documents, split/approval decisions, dual stock
// transfer posting and QR pack label generation.
package service

import (
	"context"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/erp"
	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/events"
	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/repository"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/database"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

// Gateway is the ERP surface the transfer workflow depends on
type Gateway interface {
	GetDocument(ctx context.Context, docEntry int) (*erp.Document, error)
	GetDocumentByDocNum(ctx context.Context, docNum int) (*erp.Document, error)
	ClassifyItem(ctx context.Context, itemCode string) (erp.Classification, error)
	GetBatchesForLine(ctx context.Context, docEntry int, itemCode string, lineNum int) ([]erp.BatchDetail, error)
	ResolveBinLocation(ctx context.Context, absEntry int) (*erp.BinLocation, error)
	ResolveBinByCode(ctx context.Context, warehouse, binCode string) (*erp.BinLocation, error)
	ListWarehouses(ctx context.Context) ([]erp.Warehouse, error)
	ListBins(ctx context.Context, warehouseCode string) ([]erp.BinLocation, error)
	ListSeries(ctx context.Context) ([]erp.Series, error)
	ListDocumentsBySeries(ctx context.Context, seriesID int) ([]erp.DocumentRef, error)
	PostStockTransfer(ctx context.Context, payload *erp.StockTransfer) (*erp.PostResult, error)
}

// Service orchestrates the transfer QC workflow
type Service struct {
	db       *database.DB
	erp      Gateway
	sessions *repository.SessionRepository
	items    *repository.ItemRepository
	batches  *repository.BatchRepository
	splits   *repository.SplitRepository
	logs     *repository.LogRepository
	labels   *repository.LabelRepository
	events   *events.Publisher
	logger   *logger.Logger
}

// New creates a new transfer service
func New(db *database.DB, gateway Gateway, pub *events.Publisher, log *logger.Logger) *Service {
	return &Service{
		db:       db,
		erp:      gateway,
		sessions: repository.NewSessionRepository(db),
		items:    repository.NewItemRepository(db),
		batches:  repository.NewBatchRepository(db),
		splits:   repository.NewSplitRepository(db),
		logs:     repository.NewLogRepository(db),
		labels:   repository.NewLabelRepository(db),
		events:   pub,
		logger:   log.WithComponent("transfer-service"),
	}
}

// ItemDetail is a transfer item with its batches and split decisions
type ItemDetail struct {
	*repository.TransferItem
	Batches []*repository.TransferBatch `json:"batches"`
	Splits  []*repository.TransferSplit `json:"splits"`
}

// SessionDetail is a session with its full owned graph
type SessionDetail struct {
	*repository.TransferSession
	Items  []*ItemDetail                 `json:"items"`
	Labels []*repository.TransferQRLabel `json:"labels"`
	Logs   []*repository.TransferLog     `json:"logs"`
}

// GetSession loads a session with items, batches, splits, labels and logs
func (s *Service) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.assembleDetail(ctx, session)
}

func (s *Service) assembleDetail(ctx context.Context, session *repository.TransferSession) (*SessionDetail, error) {
	items, err := s.items.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	batches, err := s.batches.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	splits, err := s.splits.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	batchesByItem := map[string][]*repository.TransferBatch{}
	for _, b := range batches {
		batchesByItem[b.ItemID] = append(batchesByItem[b.ItemID], b)
	}
	splitsByItem := map[string][]*repository.TransferSplit{}
	for _, sp := range splits {
		splitsByItem[sp.ItemID] = append(splitsByItem[sp.ItemID], sp)
	}

	detail := &SessionDetail{
		TransferSession: session,
		Items:           make([]*ItemDetail, 0, len(items)),
	}
	for _, item := range items {
		detail.Items = append(detail.Items, &ItemDetail{
			TransferItem: item,
			Batches:      batchesByItem[item.ID],
			Splits:       splitsByItem[item.ID],
		})
	}

	if detail.Labels, err = s.labels.ListBySession(ctx, session.ID); err != nil {
		return nil, err
	}
	if detail.Logs, err = s.logs.ListBySession(ctx, session.ID); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListSessions lists sessions filtered by status and/or GRPO doc entry
func (s *Service) ListSessions(ctx context.Context, status string, docEntry int) ([]*repository.TransferSession, error) {
	return s.sessions.List(ctx, status, docEntry)
}

// DeleteSession removes a session and its owned rows. Only sessions that
// have not completed QC can be deleted.
func (s *Service) DeleteSession(ctx context.Context, id, userID string) error {
	session, err := s.sessions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if session.Status != repository.StatusDraft && session.Status != repository.StatusInProgress {
		return errors.Conflict("cannot delete a session after QC completion")
	}

	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().
		Str("session_id", id).
		Str("session_code", session.SessionCode).
		Str("user_id", userID).
		Msg("transfer session deleted")
	return nil
}

// Lookup pass-throughs for operator UIs

// ListWarehouses lists ERP warehouses
func (s *Service) ListWarehouses(ctx context.Context) ([]erp.Warehouse, error) {
	return s.erp.ListWarehouses(ctx)
}

// ListBins lists ERP bin locations for a warehouse
func (s *Service) ListBins(ctx context.Context, warehouseCode string) ([]erp.BinLocation, error) {
	return s.erp.ListBins(ctx, warehouseCode)
}

// ListSeries lists the GRPO numbering series
func (s *Service) ListSeries(ctx context.Context) ([]erp.Series, error) {
	return s.erp.ListSeries(ctx)
}

// FindDocumentInSeries resolves a document number within a numbering
// series to its document reference.
func (s *Service) FindDocumentInSeries(ctx context.Context, seriesID, docNum int) (*erp.DocumentRef, error) {
	docs, err := s.erp.ListDocumentsBySeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].DocNum == docNum {
			return &docs[i], nil
		}
	}
	return nil, errors.DocumentNotFound(formatDocRef(seriesID, docNum))
}
