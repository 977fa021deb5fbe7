package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	EventSessionCreated  = "transfer.session.created"
	EventQCCompleted     = "transfer.qc.completed"
	EventTransferPosted  = "transfer.posted"
	EventLabelsGenerated = "transfer.labels.generated"
)

// Exchange names
const (
	ExchangeTransferEvents = "transfer.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// SessionCreatedEvent is published when a transfer session is ingested
type SessionCreatedEvent struct {
	SessionID    string `json:"session_id"`
	SessionCode  string `json:"session_code"`
	GRPODocEntry int    `json:"grpo_doc_entry"`
	GRPODocNum   string `json:"grpo_doc_num"`
	VendorCode   string `json:"vendor_code"`
	ItemCount    int    `json:"item_count"`
	CreatedBy    string `json:"created_by"`
}

// QCCompletedEvent is published when QC review finishes for a session
type QCCompletedEvent struct {
	SessionID     string  `json:"session_id"`
	SessionCode   string  `json:"session_code"`
	ApprovedBy    string  `json:"approved_by"`
	ApprovedQty   float64 `json:"approved_qty"`
	RejectedQty   float64 `json:"rejected_qty"`
	ItemsApproved int     `json:"items_approved"`
	ItemsRejected int     `json:"items_rejected"`
}

// TransferPostedEvent is published after stock transfers are posted to the ERP
type TransferPostedEvent struct {
	SessionID        string `json:"session_id"`
	SessionCode      string `json:"session_code"`
	Status           string `json:"status"`
	TransferDocEntry *int    `json:"transfer_doc_entry,omitempty"`
	TransferDocNum   *string `json:"transfer_doc_num,omitempty"`
	RejectedDocEntry *int    `json:"rejected_doc_entry,omitempty"`
	RejectedDocNum   *string `json:"rejected_doc_num,omitempty"`
	PostedBy         string  `json:"posted_by"`
}

// LabelsGeneratedEvent is published when QR pack labels are (re)generated
type LabelsGeneratedEvent struct {
	SessionID   string `json:"session_id"`
	SessionCode string `json:"session_code"`
	LabelCount  int    `json:"label_count"`
	GeneratedBy string `json:"generated_by"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
