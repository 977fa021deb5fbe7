package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

func decodeRequest(t *testing.T, body string) *httptest.ResponseRecorder {
	t.Helper()

	h := NewScanHandler(logger.New("transfer-service", "test"))
	req := httptest.NewRequest(http.MethodPost, "/api/scan/decode", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Decode(rec, req)
	return rec
}

func TestScanDecode(t *testing.T) {
	rec := decodeRequest(t, `{"barcode":"01012345678901281726033110BATCH7"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Elements    map[string]string `json:"elements"`
			ItemCode    string            `json:"item_code"`
			BatchNumber string            `json:"batch_number"`
			ExpiryDate  string            `json:"expiry_date"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Success)
	assert.Equal(t, "01234567890128", resp.Data.ItemCode)
	assert.Equal(t, "BATCH7", resp.Data.BatchNumber)
	assert.Equal(t, "260331", resp.Data.Elements["17"])
	assert.Equal(t, "2026-03-31", resp.Data.ExpiryDate)
}

func TestScanDecodeNoExpiry(t *testing.T) {
	rec := decodeRequest(t, `{"barcode":"10L1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			BatchNumber string `json:"batch_number"`
			ExpiryDate  string `json:"expiry_date"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "L1", resp.Data.BatchNumber)
	assert.Empty(t, resp.Data.ExpiryDate)
}

func TestScanDecodeMissingBarcode(t *testing.T) {
	rec := decodeRequest(t, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanDecodeInvalidJSON(t *testing.T) {
	rec := decodeRequest(t, `{"barcode":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
