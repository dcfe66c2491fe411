package engine

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/milltech-erp/procure-cli/internal/extract"
	"github.com/milltech-erp/procure-cli/internal/mailbox"
	"github.com/milltech-erp/procure-cli/internal/model"
	"github.com/milltech-erp/procure-cli/internal/resolve"
	"github.com/milltech-erp/procure-cli/internal/store"
)

const companyID = "co-1"

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "engine_test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func seedVendor(t *testing.T, st *store.SQLiteStore, id, name, email string) {
	t.Helper()
	_, err := st.DB().Exec(
		`INSERT INTO vendors (id, company_id, name, email) VALUES (?, ?, ?, ?)`,
		id, companyID, name, email)
	require.NoError(t, err)
}

func seedRFQ(t *testing.T, st *store.SQLiteStore, id, number string) {
	t.Helper()
	_, err := st.DB().Exec(
		`INSERT INTO rfqs (id, company_id, rfq_number, status, submission_deadline) VALUES (?, ?, ?, 'sent', ?)`,
		id, companyID, number, time.Now().Add(72*time.Hour).UTC())
	require.NoError(t, err)
}

func seedRFQItem(t *testing.T, st *store.SQLiteStore, id, rfqID, itemCode string, position int) {
	t.Helper()
	_, err := st.DB().Exec(
		`INSERT INTO rfq_items (id, rfq_id, position, item_code, quantity, unit) VALUES (?, ?, ?, ?, 10, 'pcs')`,
		id, rfqID, position, itemCode)
	require.NoError(t, err)
}

func seedInvite(t *testing.T, st *store.SQLiteStore, rfqID, vendorID string) {
	t.Helper()
	_, err := st.DB().Exec(
		`INSERT INTO rfq_vendors (rfq_id, vendor_id, email_sent) VALUES (?, ?, 1)`,
		rfqID, vendorID)
	require.NoError(t, err)
}

func countRows(t *testing.T, st *store.SQLiteStore, table string) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().QueryRow(`SELECT count(*) FROM `+table).Scan(&n))
	return n
}

// newTestEngine wires a real store and resolver with a fallback-only
// extractor (no LLM client) and the given gateway.
func newTestEngine(st *store.SQLiteStore, gw mailbox.Gateway, strict bool) *Engine {
	resolver := resolve.New(st, strict)
	extractor := extract.New(nil, "", 0)
	return New(st, gw, resolver, extractor, Config{SendAcknowledgments: true})
}

func vendorMessage(id, subject, body string) *mailbox.ParsedMessage {
	return &mailbox.ParsedMessage{
		ID:       id,
		ThreadID: "thread-" + id,
		Subject:  subject,
		From:     "Acme Industrial <sales@acme.example.com>",
		TextBody: body,
	}
}

func TestProcessInboxCurrencyFallbackEndToEnd(t *testing.T) {
	st := newTestStore(t)
	seedVendor(t, st, "v-1", "Acme Industrial", "sales@acme.example.com")
	seedRFQ(t, st, "rfq-7", "RFQ-2025-0007")
	seedRFQItem(t, st, "item-1", "rfq-7", "BRG-6205", 1)
	seedInvite(t, st, "rfq-7", "v-1")

	gw := &mailbox.MockGateway{}
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-1"}}, nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-1").
		Return(vendorMessage("m-1", "RE: RFQ-2025-0007 - Quotation",
			"Our rate is ₹1,250.00 per piece. GST extra ₹225.00."), nil)
	gw.On("Send", mock.Anything, companyID, "sales@acme.example.com",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("sent-1", nil)
	gw.On("MarkRead", mock.Anything, companyID, "m-1").Return(nil)

	e := newTestEngine(st, gw, false)
	result, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalFound)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.QuotationsCreated)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, result.Outcomes, 1)
	assert.Equal(t, model.ActionQuotationCreated, result.Outcomes[0].Action)
	assert.Equal(t, "QT-"+time.Now().Format("2006")+"-0001", result.Outcomes[0].QuotationNumber)

	// The fallback keeps the larger of the two amounts.
	var total float64
	require.NoError(t, st.DB().QueryRow(`SELECT total_amount FROM quotations`).Scan(&total))
	assert.Equal(t, 1250.0, total)
	assert.Equal(t, 1, countRows(t, st, "quotation_items"))

	rv, err := st.GetRFQVendor(context.Background(), "rfq-7", "v-1")
	require.NoError(t, err)
	assert.True(t, rv.ResponseReceived)
	require.NotNil(t, rv.QuotationReceivedAt)

	thread, err := st.GetCommunicationThread(context.Background(), "rfq-7", "v-1")
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, 1, thread.MessageCount)

	// Audit row ended processed and links the quotation.
	responses, err := st.ListEmailResponsesSince(context.Background(), companyID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, model.ProcessingStatusProcessed, responses[0].Status)
	require.NotNil(t, responses[0].QuotationID)

	// Acknowledgment was logged.
	n, err := st.CountEmailLog(context.Background(), companyID, model.EmailLogAcknowledgment, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	gw.AssertExpectations(t)
}

func TestProcessInboxUnknownSenderRejected(t *testing.T) {
	st := newTestStore(t)

	gw := &mailbox.MockGateway{}
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-1"}}, nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-1").
		Return(&mailbox.ParsedMessage{
			ID:       "m-1",
			Subject:  "RE: RFQ-2025-0007",
			From:     "stranger@nowhere.example.com",
			TextBody: "price ₹100",
		}, nil)

	e := newTestEngine(st, gw, false)
	result, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Reasons[model.ReasonNotAVendor])
	assert.Equal(t, 0, countRows(t, st, "quotations"))
	assert.Equal(t, 0, countRows(t, st, "rfq_email_responses"))

	// Rejected emails are not marked read; no ack is sent.
	gw.AssertNotCalled(t, "MarkRead", mock.Anything, mock.Anything, mock.Anything)
	gw.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProcessInboxNoDataPendingReview(t *testing.T) {
	st := newTestStore(t)
	seedVendor(t, st, "v-1", "Acme Industrial", "sales@acme.example.com")
	seedRFQ(t, st, "rfq-7", "RFQ-2025-0007")
	seedInvite(t, st, "rfq-7", "v-1")

	gw := &mailbox.MockGateway{}
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-1"}}, nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-1").
		Return(vendorMessage("m-1", "RE: RFQ-2025-0007", "We shall share our offer next week."), nil)
	gw.On("MarkRead", mock.Anything, companyID, "m-1").Return(nil)

	e := newTestEngine(st, gw, false)
	result, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.ManualReview)
	assert.Equal(t, 0, result.QuotationsCreated)
	assert.Equal(t, model.ActionManualReviewRequired, result.Outcomes[0].Action)

	responses, err := st.ListEmailResponsesSince(context.Background(), companyID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, model.ProcessingStatusPendingReview, responses[0].Status)
	assert.Contains(t, responses[0].Error, "no quotation data extracted",
		"the audit row carries a diagnostic for the reviewer")
	assert.Equal(t, 0, countRows(t, st, "quotations"))

	rv, err := st.GetRFQVendor(context.Background(), "rfq-7", "v-1")
	require.NoError(t, err)
	assert.False(t, rv.ResponseReceived, "pending review must not flip response_received")

	gw.AssertExpectations(t)
}

func TestProcessInboxOneFailureNeverAbortsBatch(t *testing.T) {
	st := newTestStore(t)
	seedVendor(t, st, "v-1", "Acme Industrial", "sales@acme.example.com")
	seedRFQ(t, st, "rfq-7", "RFQ-2025-0007")
	seedInvite(t, st, "rfq-7", "v-1")

	gw := &mailbox.MockGateway{}
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-bad"}, {ID: "m-reject"}, {ID: "m-good"}}, nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-bad").
		Return(nil, errors.New("connection reset"))
	gw.On("GetMessage", mock.Anything, companyID, "m-reject").
		Return(&mailbox.ParsedMessage{ID: "m-reject", Subject: "hello", From: "stranger@x.example.com"}, nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-good").
		Return(vendorMessage("m-good", "RE: RFQ-2025-0007", "rate Rs. 900 each"), nil)
	gw.On("Send", mock.Anything, companyID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("sent-1", nil)
	gw.On("MarkRead", mock.Anything, companyID, "m-good").Return(nil)

	e := newTestEngine(st, gw, false)
	result, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err, "a batch run never throws")

	assert.Equal(t, 3, result.TotalFound)
	assert.Equal(t, 3, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, countRows(t, st, "quotations"))
}

func TestProcessInboxQuotationNumbersIncrease(t *testing.T) {
	st := newTestStore(t)
	seedVendor(t, st, "v-1", "Acme Industrial", "sales@acme.example.com")
	seedRFQ(t, st, "rfq-7", "RFQ-2025-0007")
	seedInvite(t, st, "rfq-7", "v-1")

	gw := &mailbox.MockGateway{}
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-1"}, {ID: "m-2"}}, nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-1").
		Return(vendorMessage("m-1", "RE: RFQ-2025-0007", "offer A: ₹100"), nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-2").
		Return(vendorMessage("m-2", "RE: RFQ-2025-0007", "offer B: ₹200"), nil)
	gw.On("Send", mock.Anything, companyID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("sent", nil)
	gw.On("MarkRead", mock.Anything, companyID, mock.Anything).Return(nil)

	e := newTestEngine(st, gw, false)
	result, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err)

	year := time.Now().Format("2006")
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "QT-"+year+"-0001", result.Outcomes[0].QuotationNumber)
	assert.Equal(t, "QT-"+year+"-0002", result.Outcomes[1].QuotationNumber)
}

func TestProcessInboxMarkReadFailureSwallowed(t *testing.T) {
	st := newTestStore(t)
	seedVendor(t, st, "v-1", "Acme Industrial", "sales@acme.example.com")
	seedRFQ(t, st, "rfq-7", "RFQ-2025-0007")
	seedInvite(t, st, "rfq-7", "v-1")

	gw := &mailbox.MockGateway{}
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-1"}}, nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-1").
		Return(vendorMessage("m-1", "RE: RFQ-2025-0007", "₹750 final"), nil)
	gw.On("Send", mock.Anything, companyID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("smtp relay down"))
	gw.On("MarkRead", mock.Anything, companyID, "m-1").
		Return(errors.New("label update failed"))

	e := newTestEngine(st, gw, false)
	result, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err)

	// Ack and mark-read failures never downgrade the reconciliation.
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 1, countRows(t, st, "quotations"))

	// The failed send means no ack was logged.
	n, err := st.CountEmailLog(context.Background(), companyID, model.EmailLogAcknowledgment, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestProcessInboxSecondRunReprocessesOnlyUnread(t *testing.T) {
	st := newTestStore(t)
	seedVendor(t, st, "v-1", "Acme Industrial", "sales@acme.example.com")
	seedRFQ(t, st, "rfq-7", "RFQ-2025-0007")
	seedInvite(t, st, "rfq-7", "v-1")

	gw := &mailbox.MockGateway{}
	// First run sees two messages; one reconciles and is marked read,
	// the other fails transiently on fetch.
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-done"}, {ID: "m-stuck"}}, nil).Once()
	gw.On("GetMessage", mock.Anything, companyID, "m-done").
		Return(vendorMessage("m-done", "RE: RFQ-2025-0007", "rate ₹900 each"), nil).Once()
	gw.On("GetMessage", mock.Anything, companyID, "m-stuck").
		Return(nil, errors.New("connection reset")).Once()
	// Second run: the reconciled message is no longer unread, so only
	// the failed one is listed again, and its fetch now succeeds.
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-stuck"}}, nil).Once()
	gw.On("GetMessage", mock.Anything, companyID, "m-stuck").
		Return(vendorMessage("m-stuck", "RE: RFQ-2025-0007", "revised rate ₹1,100"), nil).Once()
	gw.On("Send", mock.Anything, companyID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("sent", nil)
	gw.On("MarkRead", mock.Anything, companyID, mock.Anything).Return(nil)

	e := newTestEngine(st, gw, false)

	first, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, first.QuotationsCreated)
	assert.Equal(t, 1, first.Failed)

	second, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err)
	assert.Equal(t, 1, second.TotalFound)
	assert.Equal(t, 1, second.QuotationsCreated)
	assert.Equal(t, 0, second.Failed)

	// The failed email ended up reconciled; the already-processed one
	// was fetched exactly once across both runs.
	assert.Equal(t, 2, countRows(t, st, "quotations"))
	gw.AssertNumberOfCalls(t, "GetMessage", 3)
	gw.AssertExpectations(t)
}

func TestProcessInboxListFailureAborts(t *testing.T) {
	st := newTestStore(t)
	gw := &mailbox.MockGateway{}
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return(nil, errors.New("oauth token expired"))

	e := newTestEngine(st, gw, false)
	_, err := e.ProcessInbox(context.Background(), companyID)
	require.Error(t, err)
}

func TestProcessInboxDuplicateVendorEmailInvitedWins(t *testing.T) {
	st := newTestStore(t)
	seedVendor(t, st, "v-old", "Acme Trading", "sales@acme.example.com")
	seedVendor(t, st, "v-new", "Acme Industrial", "sales@acme.example.com")
	seedRFQ(t, st, "rfq-11", "RFQ-2025-0011")
	seedInvite(t, st, "rfq-11", "v-new")

	gw := &mailbox.MockGateway{}
	gw.On("ListMessages", mock.Anything, companyID, mock.Anything, int64(50)).
		Return([]mailbox.Message{{ID: "m-1"}}, nil)
	gw.On("GetMessage", mock.Anything, companyID, "m-1").
		Return(vendorMessage("m-1", "RE: RFQ-2025-0011", "₹5,000 all inclusive"), nil)
	gw.On("Send", mock.Anything, companyID, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("sent", nil)
	gw.On("MarkRead", mock.Anything, companyID, "m-1").Return(nil)

	e := newTestEngine(st, gw, false)
	result, err := e.ProcessInbox(context.Background(), companyID)
	require.NoError(t, err)
	require.Equal(t, 1, result.QuotationsCreated)

	var vendorID string
	require.NoError(t, st.DB().QueryRow(`SELECT vendor_id FROM quotations`).Scan(&vendorID))
	assert.Equal(t, "v-new", vendorID)
}
