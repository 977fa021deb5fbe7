// Package handler exposes the transfer QC workflow over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/transfer/service"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/httputil"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

// SessionHandler handles transfer session endpoints
type SessionHandler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(svc *service.Service, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: svc,
		logger:  log,
	}
}

func actor(r *http.Request) string {
	if id := httputil.GetUserID(r.Context()); id != "" {
		return id
	}
	return "system"
}

// Create ingests a GRPO document into a new transfer session
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocEntry      int    `json:"doc_entry" validate:"gte=0"`
		DocNum        int    `json:"doc_num" validate:"gte=0"`
		FromWarehouse string `json:"from_warehouse"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	session, err := h.service.CreateSession(r.Context(), service.CreateSessionInput{
		DocEntry:      req.DocEntry,
		DocNum:        req.DocNum,
		FromWarehouse: req.FromWarehouse,
	}, actor(r))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, session)
}

// List lists sessions, filterable by status and GRPO doc entry
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	docEntry, _ := strconv.Atoi(r.URL.Query().Get("doc_entry"))

	sessions, err := h.service.ListSessions(r.Context(), status, docEntry)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, sessions, &httputil.Meta{Total: int64(len(sessions))})
}

// Get returns a session with its items, batches, splits, labels and logs
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	session, err := h.service.GetSession(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, session)
}

// Delete removes a session that has not completed QC
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteSession(r.Context(), id, actor(r)); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
