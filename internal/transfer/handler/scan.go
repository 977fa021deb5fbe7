package handler

import (
	"net/http"

	"github.com/pragavigithub/Emerald-Barcode-20260129/internal/gs1"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/httputil"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

// ScanHandler decodes scanned GS1 barcodes
type ScanHandler struct {
	logger *logger.Logger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(log *logger.Logger) *ScanHandler {
	return &ScanHandler{logger: log}
}

// Decode decodes a GS1 element string into its application identifiers.
// When an expiry date (AI 17) is present its parsed form is returned
// alongside the raw value.
func (h *ScanHandler) Decode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Barcode string `json:"barcode" validate:"required,max=512"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	elements := gs1.Decode(req.Barcode)

	resp := struct {
		Elements    map[string]string `json:"elements"`
		ItemCode    string            `json:"item_code,omitempty"`
		BatchNumber string            `json:"batch_number,omitempty"`
		ExpiryDate  string            `json:"expiry_date,omitempty"`
	}{
		Elements:    elements,
		ItemCode:    elements[gs1.AIGTIN],
		BatchNumber: elements[gs1.AIBatch],
	}
	if raw, ok := elements[gs1.AIExpiry]; ok {
		if t, ok := gs1.ParseDate(raw); ok {
			resp.ExpiryDate = t.Format("2006-01-02")
		}
	}

	httputil.JSON(w, http.StatusOK, resp)
}
