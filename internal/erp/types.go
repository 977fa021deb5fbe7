package erp

import "encoding/json"

// Base document type and bin action constants used in stock transfer payloads
const (
	BaseTypeGRPO      = "PurchaseDeliveryNotes"
	BinActionFrom     = "batFromWarehouse"
	BinActionTo       = "batToWarehouse"
	classifierManaged = "Y"
)

// Document is a goods-receipt (GRPO) header with its lines
type Document struct {
	DocEntry       int            `json:"DocEntry"`
	DocNum         int            `json:"DocNum"`
	Series         int            `json:"Series"`
	CardCode       string         `json:"CardCode"`
	CardName       string         `json:"CardName"`
	DocDate        string         `json:"DocDate"`
	DocDueDate     string         `json:"DocDueDate"`
	DocTotal       float64        `json:"DocTotal"`
	DocumentStatus string         `json:"DocumentStatus"`
	DocumentLines  []DocumentLine `json:"DocumentLines"`
}

// DocumentLine is one line of a goods-receipt document
type DocumentLine struct {
	LineNum            int             `json:"LineNum"`
	ItemCode           string          `json:"ItemCode"`
	ItemDescription    string          `json:"ItemDescription"`
	Quantity           float64         `json:"Quantity"`
	WarehouseCode      string          `json:"WarehouseCode"`
	MeasureUnit        string          `json:"MeasureUnit"`
	UnitsOfMeasurement float64         `json:"UnitsOfMeasurment"`
	Price              float64         `json:"Price"`
	LineTotal          float64         `json:"LineTotal"`
	BinAllocations     []BinAllocation `json:"DocumentLinesBinAllocations"`
}

// Classification is the three-way inventory-management mode of an item
type Classification struct {
	IsBatch      bool
	IsSerial     bool
	IsNonManaged bool
}

// BatchDetail is one batch row of a receipt line. Dates come back in
// the ERP's numeric YYYYMMDD form.
type BatchDetail struct {
	BatchNumber     string      `json:"BatchNum"`
	Quantity        json.Number `json:"Quantity"`
	ExpiryDate      string      `json:"ExpDate"`
	ManufactureDate string      `json:"MnfDate"`
}

// Warehouse is a warehouse master row
type Warehouse struct {
	WarehouseCode string `json:"WarehouseCode"`
	WarehouseName string `json:"WarehouseName"`
}

// BinLocation is a bin location master row
type BinLocation struct {
	AbsEntry  int    `json:"AbsEntry"`
	BinCode   string `json:"BinCode"`
	Warehouse string `json:"Warehouse"`
}

// Series is one GRPO numbering series
type Series struct {
	SeriesID   int    `json:"SeriesID"`
	SeriesName string `json:"SeriesName"`
	NextNumber int    `json:"NextNumber"`
}

// DocumentRef is a lightweight document listing row
type DocumentRef struct {
	DocEntry  int    `json:"DocEntry"`
	DocNum    int    `json:"DocNum"`
	CardName  string `json:"CardName"`
	DocStatus string `json:"DocStatus"`
}

// StockTransfer is the ERP stock transfer creation payload
type StockTransfer struct {
	DocDate            string              `json:"DocDate"`
	Comments           string              `json:"Comments"`
	FromWarehouse      string              `json:"FromWarehouse"`
	ToWarehouse        string              `json:"ToWarehouse"`
	StockTransferLines []StockTransferLine `json:"StockTransferLines"`
}

// StockTransferLine is one line of a stock transfer payload. BaseEntry and
// BaseLine reference the originating goods-receipt document line.
type StockTransferLine struct {
	LineNum           int             `json:"LineNum"`
	ItemCode          string          `json:"ItemCode"`
	Quantity          float64         `json:"Quantity"`
	WarehouseCode     string          `json:"WarehouseCode"`
	FromWarehouseCode string          `json:"FromWarehouseCode"`
	BaseEntry         int             `json:"BaseEntry"`
	BaseLine          int             `json:"BaseLine"`
	BaseType          string          `json:"BaseType"`
	BatchNumbers      []BatchNumber   `json:"BatchNumbers"`
	BinAllocations    []BinAllocation `json:"StockTransferLinesBinAllocations"`
}

// BatchNumber is a batch sub-entry of a stock transfer line
type BatchNumber struct {
	BatchNumber    string  `json:"BatchNumber"`
	Quantity       float64 `json:"Quantity"`
	BaseLineNumber int     `json:"BaseLineNumber"`
}

// BinAllocation is a bin allocation sub-entry of a transfer or receipt line
type BinAllocation struct {
	BinActionType                 string  `json:"BinActionType,omitempty"`
	BinAbsEntry                   int     `json:"BinAbsEntry"`
	Quantity                      float64 `json:"Quantity"`
	SerialAndBatchNumbersBaseLine int     `json:"SerialAndBatchNumbersBaseLine"`
}

// PostResult carries the identifiers of a created ERP document
type PostResult struct {
	DocEntry int `json:"DocEntry"`
	DocNum   int `json:"DocNum"`
}
