package model

import (
	"encoding/json"
	"time"
)

// ProcessingStatus tracks one inbound email's reconciliation attempt.
// Every RFQEmailResponse ends in a terminal status: processed,
// pending_review, or failed.
type ProcessingStatus string

const (
	ProcessingStatusProcessing    ProcessingStatus = "processing"
	ProcessingStatusProcessed     ProcessingStatus = "processed"
	ProcessingStatusPendingReview ProcessingStatus = "pending_review"
	ProcessingStatusFailed        ProcessingStatus = "failed"
)

// RFQEmailResponse is the audit record of one inbound email's processing
// attempt. Created once at the start of processing and never deleted, so
// a crash mid-extraction still leaves a partial record.
type RFQEmailResponse struct {
	ID            string           `json:"id"`
	CompanyID     string           `json:"company_id"`
	RFQID         string           `json:"rfq_id"`
	VendorID      string           `json:"vendor_id"`
	MessageID     string           `json:"message_id"`
	Subject       string           `json:"subject"`
	Body          string           `json:"body"`
	Attachments   []string         `json:"attachments,omitempty"`
	Status        ProcessingStatus `json:"status"`
	ExtractedData json.RawMessage  `json:"extracted_data,omitempty"`
	QuotationID   *string          `json:"quotation_id,omitempty"`
	Error         string           `json:"error,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
