package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/service"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/httputil"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

// LookupHandler exposes ERP master data lookups for operator UIs
type LookupHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewLookupHandler creates a new lookup handler
func NewLookupHandler(svc *service.Service, log *logger.Logger) *LookupHandler {
	return &LookupHandler{
		service: svc,
		logger:  log,
	}
}

// Warehouses lists ERP warehouses
func (h *LookupHandler) Warehouses(w http.ResponseWriter, r *http.Request) {
	warehouses, err := h.service.ListWarehouses(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, warehouses)
}

// Bins lists the bin locations of a warehouse
func (h *LookupHandler) Bins(w http.ResponseWriter, r *http.Request) {
	warehouse := chi.URLParam(r, "whs")

	bins, err := h.service.ListBins(r.Context(), warehouse)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, bins)
}

// Series lists the GRPO numbering series
func (h *LookupHandler) Series(w http.ResponseWriter, r *http.Request) {
	series, err := h.service.ListSeries(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, series)
}

// SeriesDocument resolves a document number within a series
func (h *LookupHandler) SeriesDocument(w http.ResponseWriter, r *http.Request) {
	seriesID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("series id must be numeric"))
		return
	}
	docNum, err := strconv.Atoi(chi.URLParam(r, "num"))
	if err != nil {
		httputil.Error(w, errors.BadRequest("doc number must be numeric"))
		return
	}

	doc, err := h.service.FindDocumentInSeries(r.Context(), seriesID, docNum)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, doc)
}
