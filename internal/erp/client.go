// Package erp implements the SAP B1 Service Layer gateway used by the
// transfer workflow. All calls authenticate with a login session cookie
// and retry once on session expiry.
package erp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync"

	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/config"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/errors"
	"github.com/pragavigithub/Emerald-Barcode-20260129/pkg/logger"
)

// Client talks to the SAP B1 Service Layer
type Client struct {
	baseURL    string
	companyDB  string
	username   string
	password   string
	httpClient *http.Client
	logger     *logger.Logger

	mu       sync.Mutex
	loggedIn bool
}

// New creates a new Service Layer client. The base URL includes the
// /b1s/v1 prefix.
func New(cfg *config.SAPConfig, log *logger.Logger) *Client {
	jar, _ := cookiejar.New(nil)

	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		// Service Layer installations commonly run with self-signed certs
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		companyDB: cfg.CompanyDB,
		username:  cfg.Username,
		password:  cfg.Password,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: transport,
		},
		logger: log,
	}
}

// Login establishes a Service Layer session. The session cookie is kept
// in the client's cookie jar and reused by subsequent calls.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login(ctx)
}

func (c *Client) login(ctx context.Context) error {
	payload, err := json.Marshal(map[string]string{
		"CompanyDB": c.companyDB,
		"UserName":  c.username,
		"Password":  c.password,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/Login", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.ErpUnavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return errors.Wrap(nil, "SAP_LOGIN_FAILED",
			fmt.Sprintf("service layer login failed with status %d: %s", resp.StatusCode, string(body)),
			http.StatusBadGateway)
	}

	c.loggedIn = true
	c.logger.Debug().Str("company_db", c.companyDB).Msg("service layer session established")
	return nil
}

func (c *Client) ensureLoggedIn(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}
	return c.login(ctx)
}

func (c *Client) invalidateSession() {
	c.mu.Lock()
	c.loggedIn = false
	c.mu.Unlock()
}

// do executes a Service Layer request and decodes the response into out.
// A 401 response triggers one re-login and retry.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	if err := c.ensureLoggedIn(ctx); err != nil {
		return err
	}

	for attempt := 0; attempt < 2; attempt++ {
		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("failed to marshal request: %w", err)
			}
			reader = bytes.NewBuffer(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "odata.maxpagesize=0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.ErpUnavailable(err)
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt == 0 {
			resp.Body.Close()
			c.invalidateSession()
			if err := c.ensureLoggedIn(ctx); err != nil {
				return err
			}
			continue
		}

		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			respBody, _ := io.ReadAll(resp.Body)
			return errors.ErpRejected(fmt.Sprintf("service layer returned %d: %s", resp.StatusCode, string(respBody)))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("failed to decode service layer response: %w", err)
			}
		}
		return nil
	}

	return errors.ErpUnavailable(fmt.Errorf("session retry exhausted"))
}

// GetDocument fetches a goods-receipt header and its lines by doc entry
func (c *Client) GetDocument(ctx context.Context, docEntry int) (*Document, error) {
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("DocEntry eq %d", docEntry))
	path := "/PurchaseDeliveryNotes?" + q.Encode()

	var envelope struct {
		Value []Document `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Value) == 0 {
		return nil, errors.DocumentNotFound(strconv.Itoa(docEntry))
	}
	return &envelope.Value[0], nil
}

// GetDocumentByDocNum fetches a goods-receipt by its document number
func (c *Client) GetDocumentByDocNum(ctx context.Context, docNum int) (*Document, error) {
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf("DocNum eq %d", docNum))
	path := "/PurchaseDeliveryNotes?" + q.Encode()

	var envelope struct {
		Value []Document `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Value) == 0 {
		return nil, errors.DocumentNotFound(strconv.Itoa(docNum))
	}
	return &envelope.Value[0], nil
}

// ClassifyItem looks up whether an item is batch-managed, serial-managed
// or unmanaged. A lookup failure or empty result returns an error; the
// caller decides the fallback.
func (c *Client) ClassifyItem(ctx context.Context, itemCode string) (Classification, error) {
	body := map[string]string{"ParamList": fmt.Sprintf("itemCode='%s'", itemCode)}

	var envelope struct {
		Value []struct {
			BatchNum  string `json:"BatchNum"`
			SerialNum string `json:"SerialNum"`
		} `json:"value"`
	}
	if err := c.do(ctx, http.MethodPost, "/SQLQueries('ItemCode_Batch_Serial_Val')/List", body, &envelope); err != nil {
		return Classification{}, err
	}
	if len(envelope.Value) == 0 {
		return Classification{}, errors.Wrap(nil, "CLASSIFICATION_LOOKUP_FAILED",
			fmt.Sprintf("no classification row for item %s", itemCode), http.StatusBadGateway)
	}

	row := envelope.Value[0]
	cls := Classification{
		IsBatch:  row.BatchNum == classifierManaged,
		IsSerial: row.SerialNum == classifierManaged,
	}
	cls.IsNonManaged = !cls.IsBatch && !cls.IsSerial
	return cls, nil
}

// GetBatchesForLine fetches the batch detail rows for a receipt line
func (c *Client) GetBatchesForLine(ctx context.Context, docEntry int, itemCode string, lineNum int) ([]BatchDetail, error) {
	params := fmt.Sprintf("docEntry='%d'&itemCode='%s'&lineNum='%d'", docEntry, itemCode, lineNum)
	body := map[string]string{"ParamList": params}

	var envelope struct {
		Value []BatchDetail `json:"value"`
	}
	if err := c.do(ctx, http.MethodPost, "/SQLQueries('Get_Batch_By_DocEntry_ItemCode')/List", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// ResolveBinLocation resolves a bin location by its abs entry
func (c *Client) ResolveBinLocation(ctx context.Context, absEntry int) (*BinLocation, error) {
	q := url.Values{}
	q.Set("$select", "AbsEntry,BinCode,Warehouse")
	q.Set("$filter", fmt.Sprintf("AbsEntry eq %d", absEntry))
	path := "/BinLocations?" + q.Encode()

	var envelope struct {
		Value []BinLocation `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Value) == 0 {
		return nil, errors.NotFound("bin location")
	}
	return &envelope.Value[0], nil
}

// ResolveBinByCode resolves a bin location by warehouse and bin code
func (c *Client) ResolveBinByCode(ctx context.Context, warehouse, binCode string) (*BinLocation, error) {
	q := url.Values{}
	q.Set("$select", "AbsEntry,BinCode,Warehouse")
	q.Set("$filter", fmt.Sprintf("Warehouse eq '%s' and BinCode eq '%s'", warehouse, binCode))
	path := "/BinLocations?" + q.Encode()

	var envelope struct {
		Value []BinLocation `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	if len(envelope.Value) == 0 {
		return nil, errors.NotFound("bin location")
	}
	return &envelope.Value[0], nil
}

// ListWarehouses lists warehouse master rows
func (c *Client) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	var envelope struct {
		Value []Warehouse `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "/Warehouses?$select=WarehouseName,WarehouseCode", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// ListBins lists bin locations of a warehouse
func (c *Client) ListBins(ctx context.Context, warehouseCode string) ([]BinLocation, error) {
	q := url.Values{}
	q.Set("$select", "AbsEntry,BinCode,Warehouse")
	q.Set("$filter", fmt.Sprintf("Warehouse eq '%s'", warehouseCode))
	path := "/BinLocations?" + q.Encode()

	var envelope struct {
		Value []BinLocation `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// ListSeries lists the GRPO numbering series
func (c *Client) ListSeries(ctx context.Context) ([]Series, error) {
	var envelope struct {
		Value []Series `json:"value"`
	}
	if err := c.do(ctx, http.MethodGet, "/SQLQueries('GET_GRPO_Series')/List", nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// ListDocumentsBySeries lists GRPO documents of a numbering series
func (c *Client) ListDocumentsBySeries(ctx context.Context, seriesID int) ([]DocumentRef, error) {
	body := map[string]string{"ParamList": fmt.Sprintf("seriesID='%d'", seriesID)}

	var envelope struct {
		Value []DocumentRef `json:"value"`
	}
	if err := c.do(ctx, http.MethodPost, "/SQLQueries('GET_GRPO_DocEntry_By_Series')/List", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.Value, nil
}

// PostStockTransfer creates a stock transfer document in the ERP
func (c *Client) PostStockTransfer(ctx context.Context, payload *StockTransfer) (*PostResult, error) {
	var result PostResult
	if err := c.do(ctx, http.MethodPost, "/StockTransfers", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
