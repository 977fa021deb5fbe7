package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/service"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/httputil"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

// QCHandler handles QC decision endpoints
type QCHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewQCHandler creates a new QC handler
func NewQCHandler(svc *service.Service, log *logger.Logger) *QCHandler {
	return &QCHandler{
		service: svc,
		logger:  log,
	}
}

type splitRequest struct {
	SplitNumber   int     `json:"split_number" validate:"gte=0"`
	Quantity      float64 `json:"quantity" validate:"gt=0"`
	Status        string  `json:"status" validate:"required,oneof=OK NOTOK HOLD"`
	FromWarehouse string  `json:"from_warehouse"`
	FromBinCode   *string `json:"from_bin_code"`
	ToWarehouse   string  `json:"to_warehouse"`
	ToBinCode     *string `json:"to_bin_code"`
	BatchNumber   *string `json:"batch_number"`
	Notes         *string `json:"notes"`
}

type itemDecisionRequest struct {
	ItemID           string  `json:"item_id" validate:"required,uuid"`
	ApprovedQuantity float64 `json:"approved_qty" validate:"gte=0"`
	RejectedQuantity float64 `json:"rejected_qty" validate:"gte=0"`
	QCStatus         string  `json:"qc_status" validate:"required,oneof=pending approved rejected partial"`
	QCNotes          *string `json:"qc_notes"`

	ApprovedToWarehouse   *string `json:"approved_to_warehouse"`
	ApprovedToBinCode     *string `json:"approved_to_bin_code"`
	ApprovedToBinAbsEntry *int    `json:"approved_to_bin_abs_entry"`

	RejectedToWarehouse   *string `json:"rejected_to_warehouse"`
	RejectedToBinCode     *string `json:"rejected_to_bin_code"`
	RejectedToBinAbsEntry *int    `json:"rejected_to_bin_abs_entry"`

	ToWarehouse   *string `json:"to_warehouse"`
	ToBinCode     *string `json:"to_bin_code"`
	ToBinAbsEntry *int    `json:"to_bin_abs_entry"`

	Splits []splitRequest `json:"splits" validate:"omitempty,dive"`
}

func (req *itemDecisionRequest) toDecision() service.ItemDecision {
	d := service.ItemDecision{
		ItemID:           req.ItemID,
		ApprovedQuantity: req.ApprovedQuantity,
		RejectedQuantity: req.RejectedQuantity,
		QCStatus:         req.QCStatus,
		QCNotes:          req.QCNotes,

		ApprovedToWarehouse:   req.ApprovedToWarehouse,
		ApprovedToBinCode:     req.ApprovedToBinCode,
		ApprovedToBinAbsEntry: req.ApprovedToBinAbsEntry,

		RejectedToWarehouse:   req.RejectedToWarehouse,
		RejectedToBinCode:     req.RejectedToBinCode,
		RejectedToBinAbsEntry: req.RejectedToBinAbsEntry,

		ToWarehouse:   req.ToWarehouse,
		ToBinCode:     req.ToBinCode,
		ToBinAbsEntry: req.ToBinAbsEntry,
	}
	for _, sp := range req.Splits {
		d.Splits = append(d.Splits, service.SplitDecision{
			SplitNumber:   sp.SplitNumber,
			Quantity:      sp.Quantity,
			Status:        sp.Status,
			FromWarehouse: sp.FromWarehouse,
			FromBinCode:   sp.FromBinCode,
			ToWarehouse:   sp.ToWarehouse,
			ToBinCode:     sp.ToBinCode,
			BatchNumber:   sp.BatchNumber,
			Notes:         sp.Notes,
		})
	}
	return d
}

// Apply applies a bulk QC submission and completes the session
func (h *QCHandler) Apply(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req struct {
		Decisions []itemDecisionRequest `json:"decisions" validate:"required,min=1,dive"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	decisions := make([]service.ItemDecision, 0, len(req.Decisions))
	for i := range req.Decisions {
		decisions = append(decisions, req.Decisions[i].toDecision())
	}

	session, err := h.service.ApplyQC(r.Context(), sessionID, actor(r), decisions)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, session)
}

// UpdateItem applies a QC update to one item without completing the session
func (h *QCHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemID")

	var req itemDecisionRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	req.ItemID = itemID
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.service.UpdateItem(r.Context(), sessionID, itemID, actor(r), req.toDecision())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}
