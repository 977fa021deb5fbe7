package erp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/config"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int64) {
	t.Helper()

	var logins int64
	mux := http.NewServeMux()
	mux.HandleFunc("/Login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&logins, 1)

		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "TESTDB", creds["CompanyDB"])
		assert.Equal(t, "manager", creds["UserName"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"SessionId":"abc123"}`))
	})
	mux.HandleFunc("/", handler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := &config.SAPConfig{
		BaseURL:   server.URL,
		CompanyDB: "TESTDB",
		Username:  "manager",
		Password:  "secret",
		Timeout:   5 * time.Second,
	}
	return New(cfg, logger.New("erp-test", "test")), &logins
}

func TestGetDocument(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/PurchaseDeliveryNotes", r.URL.Path)
		assert.Equal(t, "DocEntry eq 42", r.URL.Query().Get("$filter"))
		assert.Equal(t, "odata.maxpagesize=0", r.Header.Get("Prefer"))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"value": []map[string]interface{}{{
				"DocEntry": 42,
				"DocNum":   1042,
				"CardName": "Acme Pharma",
				"DocumentLines": []map[string]interface{}{
					{"LineNum": 0, "ItemCode": "MED001", "Quantity": 100.0, "WarehouseCode": "WH01"},
				},
			}},
		})
	})

	doc, err := client.GetDocument(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, doc.DocEntry)
	assert.Equal(t, 1042, doc.DocNum)
	assert.Equal(t, "Acme Pharma", doc.CardName)
	require.Len(t, doc.DocumentLines, 1)
	assert.Equal(t, "MED001", doc.DocumentLines[0].ItemCode)
	assert.Equal(t, 100.0, doc.DocumentLines[0].Quantity)
}

func TestGetDocumentNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})

	_, err := client.GetDocument(context.Background(), 999)
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "DOCUMENT_NOT_FOUND", appErr.Code)
	assert.Equal(t, http.StatusNotFound, appErr.StatusCode)
}

func TestClassifyItem(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/SQLQueries('ItemCode_Batch_Serial_Val')/List", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "itemCode='MED001'", body["ParamList"])

		w.Write([]byte(`{"value":[{"BatchNum":"Y","SerialNum":"N"}]}`))
	})

	cls, err := client.ClassifyItem(context.Background(), "MED001")
	require.NoError(t, err)
	assert.True(t, cls.IsBatch)
	assert.False(t, cls.IsSerial)
	assert.False(t, cls.IsNonManaged)
}

func TestClassifyItemNonManaged(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[{"BatchNum":"N","SerialNum":"N"}]}`))
	})

	cls, err := client.ClassifyItem(context.Background(), "GEN001")
	require.NoError(t, err)
	assert.False(t, cls.IsBatch)
	assert.False(t, cls.IsSerial)
	assert.True(t, cls.IsNonManaged)
}

func TestClassifyItemNoRow(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":[]}`))
	})

	_, err := client.ClassifyItem(context.Background(), "UNKNOWN")
	require.Error(t, err)
}

func TestGetBatchesForLine(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "docEntry='42'&itemCode='MED001'&lineNum='0'", body["ParamList"])

		w.Write([]byte(`{"value":[
			{"BatchNum":"B001","Quantity":60,"ExpDate":"20270131","MnfDate":"20260115"},
			{"BatchNum":"B002","Quantity":"40.5","ExpDate":"20270630","MnfDate":""}
		]}`))
	})

	batches, err := client.GetBatchesForLine(context.Background(), 42, "MED001", 0)
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.Equal(t, "B001", batches[0].BatchNumber)

	qty, err := batches[1].Quantity.Float64()
	require.NoError(t, err)
	assert.Equal(t, 40.5, qty)
}

func TestSessionRetryOn401(t *testing.T) {
	var calls int64
	client, logins := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"value":[{"WarehouseCode":"WH01","WarehouseName":"Main"}]}`))
	})

	warehouses, err := client.ListWarehouses(context.Background())
	require.NoError(t, err)
	require.Len(t, warehouses, 1)
	assert.Equal(t, "WH01", warehouses[0].WarehouseCode)
	assert.EqualValues(t, 2, atomic.LoadInt64(logins))
}

func TestPostStockTransfer(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/StockTransfers", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var payload StockTransfer
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "WH01", payload.FromWarehouse)
		require.Len(t, payload.StockTransferLines, 1)
		assert.Equal(t, BaseTypeGRPO, payload.StockTransferLines[0].BaseType)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"DocEntry":77,"DocNum":2077}`))
	})

	result, err := client.PostStockTransfer(context.Background(), &StockTransfer{
		DocDate:       "2026-08-30",
		FromWarehouse: "WH01",
		ToWarehouse:   "WH02",
		StockTransferLines: []StockTransferLine{{
			ItemCode:  "MED001",
			Quantity:  50,
			BaseEntry: 42,
			BaseType:  BaseTypeGRPO,
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 77, result.DocEntry)
	assert.Equal(t, 2077, result.DocNum)
}

func TestPostStockTransferRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":{"value":"Quantity falls into negative inventory"}}}`))
	})

	_, err := client.PostStockTransfer(context.Background(), &StockTransfer{})
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERP_REJECTED", appErr.Code)
	assert.Contains(t, appErr.Message, "negative inventory")
}

func TestListSeries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/SQLQueries('GET_GRPO_Series')/List", r.URL.Path)
		w.Write([]byte(`{"value":[{"SeriesID":12,"SeriesName":"GRPO-2026","NextNumber":1043}]}`))
	})

	series, err := client.ListSeries(context.Background())
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 12, series[0].SeriesID)
}

func TestLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":{"value":"Invalid company or password"}}}`)
	}))
	defer server.Close()

	cfg := &config.SAPConfig{BaseURL: server.URL, CompanyDB: "BAD", Username: "u", Password: "p", Timeout: time.Second}
	client := New(cfg, logger.New("erp-test", "test"))

	err := client.Login(context.Background())
	require.Error(t, err)

	var appErr *errors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "SAP_LOGIN_FAILED", appErr.Code)
}
