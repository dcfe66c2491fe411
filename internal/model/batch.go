package model

import "time"

// FailureReason classifies why an inbound email could not be matched to
// an invited vendor and RFQ. These are expected, human-recoverable
// outcomes, never raised as errors.
type FailureReason string

const (
	ReasonNotAVendor     FailureReason = "not_a_vendor"
	ReasonNoRFQNumber    FailureReason = "no_rfq_number"
	ReasonRFQNotFound    FailureReason = "rfq_not_found"
	ReasonVendorNotInRFQ FailureReason = "vendor_not_in_rfq"

	// ReasonAmbiguousVendor is produced only in strict vendor matching
	// mode, when more than one invited vendor shares the sender address.
	ReasonAmbiguousVendor FailureReason = "ambiguous_vendor"
)

// EmailAction names the terminal action taken for a successfully
// processed email.
type EmailAction string

const (
	ActionQuotationCreated     EmailAction = "quotation_created"
	ActionManualReviewRequired EmailAction = "manual_review_required"
)

// EmailOutcome records the result of processing a single inbound email.
// Every email in a batch maps to exactly one outcome.
type EmailOutcome struct {
	MessageID       string        `json:"message_id"`
	Subject         string        `json:"subject"`
	Sender          string        `json:"sender"`
	Success         bool          `json:"success"`
	Action          EmailAction   `json:"action,omitempty"`
	Reason          FailureReason `json:"reason,omitempty"`
	QuotationNumber string        `json:"quotation_number,omitempty"`
	Error           string        `json:"error,omitempty"`
}

// BatchResult summarizes one inbox reconciliation run. This is the
// primary observability surface for operators.
type BatchResult struct {
	CompanyID         string                `json:"company_id"`
	TotalFound        int                   `json:"total_found"`
	Processed         int                   `json:"processed"`
	Successful        int                   `json:"successful"`
	QuotationsCreated int                   `json:"quotations_created"`
	ManualReview      int                   `json:"manual_review"`
	Rejected          int                   `json:"rejected"`
	Failed            int                   `json:"failed"`
	Reasons           map[FailureReason]int `json:"reasons,omitempty"`
	Outcomes          []EmailOutcome        `json:"outcomes"`
	StartedAt         time.Time             `json:"started_at"`
	FinishedAt        time.Time             `json:"finished_at"`
}

// AddReason increments the rejection-reason breakdown.
func (b *BatchResult) AddReason(r FailureReason) {
	if b.Reasons == nil {
		b.Reasons = make(map[FailureReason]int)
	}
	b.Reasons[r]++
}

// ReminderOutcome records one vendor's reminder attempt within a run.
type ReminderOutcome struct {
	RFQNumber   string `json:"rfq_number"`
	VendorID    string `json:"vendor_id"`
	VendorEmail string `json:"vendor_email"`
	Sent        bool   `json:"sent"`
	SkipReason  string `json:"skip_reason,omitempty"`
	Error       string `json:"error,omitempty"`
}

// ReminderBatchResult summarizes one reminder dispatch run.
type ReminderBatchResult struct {
	CompanyID   string            `json:"company_id"`
	RFQsChecked int               `json:"rfqs_checked"`
	Sent        int               `json:"sent"`
	Skipped     int               `json:"skipped"`
	Failed      int               `json:"failed"`
	Outcomes    []ReminderOutcome `json:"outcomes"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}
