package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/service"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/httputil"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

// PostHandler handles stock transfer posting endpoints
type PostHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(svc *service.Service, log *logger.Logger) *PostHandler {
	return &PostHandler{
		service: svc,
		logger:  log,
	}
}

// PostApproved posts the approved branch stock transfer
func (h *PostHandler) PostApproved(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	outcome, err := h.service.PostApproved(r.Context(), sessionID, actor(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, outcome)
}

// PostRejected posts the rejected branch stock transfer
func (h *PostHandler) PostRejected(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	outcome, err := h.service.PostRejected(r.Context(), sessionID, actor(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, outcome)
}
