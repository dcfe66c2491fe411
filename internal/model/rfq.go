package model

import "time"

// RFQStatus represents the lifecycle state of a sourcing event.
type RFQStatus string

const (
	RFQStatusDraft     RFQStatus = "draft"
	RFQStatusSent      RFQStatus = "sent"
	RFQStatusPublished RFQStatus = "published"
	RFQStatusClosed    RFQStatus = "closed"
)

// Vendor is a supplier master-data record. Multiple vendor rows may share
// the same email address; the resolver tolerates that rather than assuming
// email uniqueness.
type Vendor struct {
	ID              string    `json:"id"`
	CompanyID       string    `json:"company_id"`
	Name            string    `json:"name"`
	ContactPerson   string    `json:"contact_person,omitempty"`
	Email           string    `json:"email"`
	AlternateEmails []string  `json:"alternate_emails,omitempty"`
	PaymentTerms    string    `json:"payment_terms,omitempty"`
	CreditDays      int       `json:"credit_days,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// RFQ is a request for quotation sent to one or more vendors.
// RFQNumber is human-assigned and not guaranteed globally unique.
type RFQ struct {
	ID                 string    `json:"id"`
	CompanyID          string    `json:"company_id"`
	RFQNumber          string    `json:"rfq_number"`
	Title              string    `json:"title,omitempty"`
	Status             RFQStatus `json:"status"`
	SubmissionDeadline time.Time `json:"submission_deadline"`
	Items              []RFQItem `json:"items,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// RFQItem is one requested line on an RFQ, in request order.
type RFQItem struct {
	ID          string  `json:"id"`
	RFQID       string  `json:"rfq_id"`
	Position    int     `json:"position"`
	ItemCode    string  `json:"item_code"`
	Description string  `json:"description,omitempty"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit,omitempty"`
}

// RFQVendor records one vendor's invitation to one RFQ. At most one row
// exists per (RFQID, VendorID) pair; response tracking relies on that
// uniqueness for atomic updates.
type RFQVendor struct {
	RFQID               string     `json:"rfq_id"`
	VendorID            string     `json:"vendor_id"`
	EmailSent           bool       `json:"email_sent"`
	ResponseReceived    bool       `json:"response_received"`
	ReminderCount       int        `json:"reminder_count"`
	LastReminderAt      *time.Time `json:"last_reminder_at,omitempty"`
	QuotationReceivedAt *time.Time `json:"quotation_received_at,omitempty"`
}

// CommunicationThread is a rolling per-(RFQ, vendor) conversation aggregate,
// bumped whenever an inbound response is reconciled.
type CommunicationThread struct {
	RFQID         string    `json:"rfq_id"`
	VendorID      string    `json:"vendor_id"`
	MessageCount  int       `json:"message_count"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// EmailLogKind classifies an outbound system email.
type EmailLogKind string

const (
	EmailLogAcknowledgment EmailLogKind = "acknowledgment"
	EmailLogReminder       EmailLogKind = "reminder"
)

// EmailLogEntry is an append-only record of an outbound system email.
// The pipeline writes these for traceability and never reads them back.
type EmailLogEntry struct {
	ID        string       `json:"id"`
	CompanyID string       `json:"company_id"`
	RFQID     string       `json:"rfq_id"`
	VendorID  string       `json:"vendor_id"`
	Kind      EmailLogKind `json:"kind"`
	Recipient string       `json:"recipient"`
	Subject   string       `json:"subject"`
	SentAt    time.Time    `json:"sent_at"`
}
