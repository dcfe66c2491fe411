package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/milltech-erp/procure-cli/internal/model"
)

// Store defines the persistence interface for the RFQ reconciliation
// pipeline. Vendor and RFQ master data is created by the surrounding
// ERP; this pipeline reads it and transitions response state.
type Store interface {
	// Vendors. Email comparison is case-insensitive on the primary
	// address and exact (caller-lowercased) on alternates. Result order
	// is stable across calls for identical database state.
	FindVendorsByEmail(ctx context.Context, companyID, email string) ([]model.Vendor, error)
	GetVendor(ctx context.Context, vendorID string) (*model.Vendor, error)

	// RFQs. GetRFQByNumber returns (nil, nil) when no RFQ matches,
	// with requested items loaded in position order.
	GetRFQByNumber(ctx context.Context, companyID, rfqNumber string) (*model.RFQ, error)
	ListOverdueRFQs(ctx context.Context, companyID string, now time.Time) ([]model.RFQ, error)

	// RFQ vendor invitations and response tracking.
	ListRFQVendors(ctx context.Context, rfqID string) ([]model.RFQVendor, error)
	GetRFQVendor(ctx context.Context, rfqID, vendorID string) (*model.RFQVendor, error)
	MarkResponseReceived(ctx context.Context, rfqID, vendorID string, at time.Time) error
	ListPendingReminderVendors(ctx context.Context, rfqID string, maxReminders int) ([]model.RFQVendor, error)
	RecordReminderSent(ctx context.Context, rfqID, vendorID string, at time.Time) error

	// Inbound email audit records.
	CreateEmailResponse(ctx context.Context, resp *model.RFQEmailResponse) error
	FinishEmailResponse(ctx context.Context, id string, status model.ProcessingStatus, extracted json.RawMessage, quotationID *string, errMsg string) error
	ListEmailResponsesSince(ctx context.Context, companyID string, since time.Time) ([]model.RFQEmailResponse, error)

	// Quotations. NextQuotationSeq atomically reserves the next
	// company+year sequence value; concurrent callers never observe
	// the same value.
	NextQuotationSeq(ctx context.Context, companyID string, year int) (int, error)
	CreateQuotation(ctx context.Context, q *model.Quotation, items []model.QuotationItem) error

	// Conversation aggregates and outbound email log.
	BumpCommunicationThread(ctx context.Context, rfqID, vendorID string, at time.Time) error
	GetCommunicationThread(ctx context.Context, rfqID, vendorID string) (*model.CommunicationThread, error)
	AppendEmailLog(ctx context.Context, entry *model.EmailLogEntry) error
	CountEmailLog(ctx context.Context, companyID string, kind model.EmailLogKind, since time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
