package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/service"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/httputil"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

// LabelHandler handles QR pack label endpoints
type LabelHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewLabelHandler creates a new label handler
func NewLabelHandler(svc *service.Service, log *logger.Logger) *LabelHandler {
	return &LabelHandler{
		service: svc,
		logger:  log,
	}
}

// Generate (re)generates the pack labels of a session
func (h *LabelHandler) Generate(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	var req struct {
		PacksPerItem map[string]int `json:"packs_per_item"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	labels, err := h.service.GenerateLabels(r.Context(), sessionID, actor(r), req.PacksPerItem)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, labels)
}

// List lists the current label set of a session
func (h *LabelHandler) List(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	labels, err := h.service.GetLabels(r.Context(), sessionID)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, labels, &httputil.Meta{Total: int64(len(labels))})
}
