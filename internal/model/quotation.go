package model

import (
	"fmt"
	"time"
)

// QuotationStatus represents the state of a reconciled commercial offer.
type QuotationStatus string

const (
	QuotationStatusReceived QuotationStatus = "received"
	QuotationStatusAccepted QuotationStatus = "accepted"
	QuotationStatusRejected QuotationStatus = "rejected"
)

// Quotation is the header of a reconciled vendor offer. Exactly one is
// created per successfully reconciled inbound email.
type Quotation struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	QuotationNumber string          `json:"quotation_number"`
	VendorID        string          `json:"vendor_id"`
	RFQID           *string         `json:"rfq_id,omitempty"`
	ValidUntil      *time.Time      `json:"valid_until,omitempty"`
	Subtotal        float64         `json:"subtotal"`
	TaxAmount       float64         `json:"tax_amount"`
	TotalAmount     float64         `json:"total_amount"`
	PaymentTerms    string          `json:"payment_terms,omitempty"`
	DeliveryTerms   string          `json:"delivery_terms,omitempty"`
	Status          QuotationStatus `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// QuotationItem is one priced line on a quotation.
type QuotationItem struct {
	ID           string  `json:"id"`
	QuotationID  string  `json:"quotation_id"`
	ItemCode     string  `json:"item_code"`
	Description  string  `json:"description,omitempty"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	TotalAmount  float64 `json:"total_amount"`
	DeliveryDays int     `json:"delivery_days,omitempty"`
	Warranty     string  `json:"warranty,omitempty"`
}

// FormatQuotationNumber renders the QT-<year>-<seq> form used for
// company-scoped sequential quotation numbering.
func FormatQuotationNumber(year, seq int) string {
	return fmt.Sprintf("QT-%d-%04d", year, seq)
}

// QuotationPayload is the validated result of extracting structured
// quotation data from an inbound email.
type QuotationPayload struct {
	Items             []QuotationLine `json:"items"`
	Subtotal          float64         `json:"subtotal"`
	TaxAmount         float64         `json:"tax_amount"`
	TotalAmount       float64         `json:"total_amount"`
	PaymentTerms      string          `json:"payment_terms,omitempty"`
	DeliveryTerms     string          `json:"delivery_terms,omitempty"`
	ValidityDays      int             `json:"validity_days,omitempty"`
	SpecialConditions string          `json:"special_conditions,omitempty"`
}

// QuotationLine is one extracted line item before persistence.
type QuotationLine struct {
	ItemCode     string  `json:"item_code"`
	Description  string  `json:"description,omitempty"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit,omitempty"`
	UnitPrice    float64 `json:"unit_price"`
	TotalAmount  float64 `json:"total_amount"`
	DeliveryDays int     `json:"delivery_days,omitempty"`
	Warranty     string  `json:"warranty,omitempty"`
}
