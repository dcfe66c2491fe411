// Package engine orchestrates inbox reconciliation: it drives the
// resolver and extractor over unread vendor mail, persists quotations,
// updates RFQ response state, and reports a structured batch summary.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/milltech-erp/procure-cli/internal/extract"
	"github.com/milltech-erp/procure-cli/internal/mailbox"
	"github.com/milltech-erp/procure-cli/internal/model"
	"github.com/milltech-erp/procure-cli/internal/resolve"
	"github.com/milltech-erp/procure-cli/internal/store"
)

// inboxQuery selects unread mail whose subject matches the RFQ keyword
// set. Gmail's subject search also matches reply-prefixed variants
// ("RE: RFQ-..."), so those need no separate terms.
const inboxQuery = `is:unread subject:(RFQ OR "Request for Quotation" OR Quotation OR Quote OR "Price Quote")`

// Extractor is the quotation extraction contract the engine consumes.
type Extractor interface {
	Extract(ctx context.Context, emailBody, emailSubject string, rfq *model.RFQ) (*model.QuotationPayload, error)
}

// Config tunes one engine instance.
type Config struct {
	// MaxEmails caps unread messages pulled per run. Default 50.
	MaxEmails int
	// SendAcknowledgments toggles the best-effort ack email after a
	// successful reconciliation.
	SendAcknowledgments bool
}

// Engine reconciles inbound RFQ responses for one mailbox per company.
// The company ID doubles as the mailbox account ID.
type Engine struct {
	store     store.Store
	gateway   mailbox.Gateway
	resolver  *resolve.Resolver
	extractor Extractor
	cfg       Config

	now   func() time.Time
	newID func() string
}

// New returns a reconciliation engine.
func New(st store.Store, gw mailbox.Gateway, resolver *resolve.Resolver, extractor Extractor, cfg Config) *Engine {
	if cfg.MaxEmails <= 0 {
		cfg.MaxEmails = 50
	}
	return &Engine{
		store:     st,
		gateway:   gw,
		resolver:  resolver,
		extractor: extractor,
		cfg:       cfg,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// ProcessInbox reconciles unread RFQ responses for a company. Emails are
// processed sequentially in mailbox order; one email's failure never
// aborts the batch. Only a failed inbox listing returns an error.
func (e *Engine) ProcessInbox(ctx context.Context, companyID string) (*model.BatchResult, error) {
	result := &model.BatchResult{
		CompanyID: companyID,
		StartedAt: e.now(),
	}

	messages, err := e.gateway.ListMessages(ctx, companyID, inboxQuery, int64(e.cfg.MaxEmails))
	if err != nil {
		return nil, eris.Wrapf(err, "engine: list inbox for company %s", companyID)
	}
	result.TotalFound = len(messages)

	for _, msg := range messages {
		outcome := e.processOne(ctx, companyID, msg.ID)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Processed++

		switch {
		case outcome.Success && outcome.Action == model.ActionQuotationCreated:
			result.Successful++
			result.QuotationsCreated++
		case outcome.Success:
			result.Successful++
			result.ManualReview++
		case outcome.Reason != "":
			result.Rejected++
			result.AddReason(outcome.Reason)
		default:
			result.Failed++
		}
	}

	result.FinishedAt = e.now()

	zap.L().Info("inbox reconciliation finished",
		zap.String("company_id", companyID),
		zap.Int("total_found", result.TotalFound),
		zap.Int("quotations_created", result.QuotationsCreated),
		zap.Int("manual_review", result.ManualReview),
		zap.Int("rejected", result.Rejected),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// processOne handles a single email end to end and always returns an
// outcome; errors are folded into it rather than propagated.
func (e *Engine) processOne(ctx context.Context, companyID, messageID string) model.EmailOutcome {
	outcome := model.EmailOutcome{MessageID: messageID}

	msg, err := e.gateway.GetMessage(ctx, companyID, messageID)
	if err != nil {
		outcome.Error = err.Error()
		zap.L().Error("fetch message failed",
			zap.String("message_id", messageID), zap.Error(err))
		return outcome
	}
	outcome.Subject = msg.Subject
	outcome.Sender = msg.From

	body := msg.TextBody
	if body == "" {
		body = msg.HTMLBody
	}

	res, err := e.resolver.Resolve(ctx, msg.From, msg.Subject, body, companyID)
	if err != nil {
		outcome.Error = err.Error()
		zap.L().Error("resolution failed",
			zap.String("message_id", messageID), zap.Error(err))
		return outcome
	}
	if !res.Resolved() {
		outcome.Reason = res.Reason
		zap.L().Info("email rejected",
			zap.String("message_id", messageID),
			zap.String("sender", res.SenderAddr),
			zap.String("reason", string(res.Reason)),
			zap.Strings("diagnostics", res.Diagnostics),
		)
		return outcome
	}

	// Audit row goes in before extraction so a crash mid-extraction
	// still leaves a traceable partial record.
	respID := e.newID()
	audit := &model.RFQEmailResponse{
		ID:          respID,
		CompanyID:   companyID,
		RFQID:       res.RFQ.ID,
		VendorID:    res.MatchedVendor.ID,
		MessageID:   messageID,
		Subject:     msg.Subject,
		Body:        body,
		Attachments: attachmentNames(msg.Attachments),
		Status:      model.ProcessingStatusProcessing,
	}
	if err := e.store.CreateEmailResponse(ctx, audit); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	action, quotationNumber, err := e.reconcile(ctx, companyID, respID, msg.Subject, body, res)
	if err != nil {
		if ferr := e.store.FinishEmailResponse(ctx, respID, model.ProcessingStatusFailed, nil, nil, err.Error()); ferr != nil {
			zap.L().Error("failed to record failure status",
				zap.String("response_id", respID), zap.Error(ferr))
		}
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Success = true
	outcome.Action = action
	outcome.QuotationNumber = quotationNumber

	// Mark-as-read keeps re-runs idempotent but is not semantically
	// required; a failure here is logged and swallowed, which means the
	// email will be reprocessed next run.
	if err := e.gateway.MarkRead(ctx, companyID, messageID); err != nil {
		zap.L().Warn("mark read failed",
			zap.String("message_id", messageID), zap.Error(err))
	}

	return outcome
}

// reconcile runs extraction and persistence for a resolved email. An
// extraction empty result terminates in pending_review; any error is an
// unexpected failure the caller records as failed.
func (e *Engine) reconcile(ctx context.Context, companyID, respID, subject, body string, res *resolve.Result) (model.EmailAction, string, error) {
	payload, err := e.extractor.Extract(ctx, body, subject, res.RFQ)
	if errors.Is(err, extract.ErrNoData) {
		// The reviewer picking this up needs to know why nothing was
		// extracted, so the diagnostic goes on the audit row.
		diag := "no quotation data extracted: neither the LLM nor the currency scan found amounts"
		if err := e.store.FinishEmailResponse(ctx, respID, model.ProcessingStatusPendingReview, nil, nil, diag); err != nil {
			return "", "", err
		}
		return model.ActionManualReviewRequired, "", nil
	}
	if err != nil {
		return "", "", err
	}

	now := e.now()
	year := now.Year()

	seq, err := e.store.NextQuotationSeq(ctx, companyID, year)
	if err != nil {
		return "", "", err
	}
	number := model.FormatQuotationNumber(year, seq)

	quotation := &model.Quotation{
		ID:              e.newID(),
		CompanyID:       companyID,
		QuotationNumber: number,
		VendorID:        res.MatchedVendor.ID,
		RFQID:           &res.RFQ.ID,
		Subtotal:        payload.Subtotal,
		TaxAmount:       payload.TaxAmount,
		TotalAmount:     payload.TotalAmount,
		PaymentTerms:    payload.PaymentTerms,
		DeliveryTerms:   payload.DeliveryTerms,
		Status:          model.QuotationStatusReceived,
		CreatedAt:       now,
	}
	if payload.ValidityDays > 0 {
		validUntil := now.AddDate(0, 0, payload.ValidityDays)
		quotation.ValidUntil = &validUntil
	}

	items := make([]model.QuotationItem, 0, len(payload.Items))
	for _, line := range payload.Items {
		items = append(items, model.QuotationItem{
			ID:           e.newID(),
			QuotationID:  quotation.ID,
			ItemCode:     line.ItemCode,
			Description:  line.Description,
			Quantity:     line.Quantity,
			Unit:         line.Unit,
			UnitPrice:    line.UnitPrice,
			TotalAmount:  line.TotalAmount,
			DeliveryDays: line.DeliveryDays,
			Warranty:     line.Warranty,
		})
	}

	if err := e.store.CreateQuotation(ctx, quotation, items); err != nil {
		return "", "", err
	}

	extracted, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}
	if err := e.store.FinishEmailResponse(ctx, respID, model.ProcessingStatusProcessed, extracted, &quotation.ID, ""); err != nil {
		return "", "", err
	}

	if err := e.store.MarkResponseReceived(ctx, res.RFQ.ID, res.MatchedVendor.ID, now); err != nil {
		return "", "", err
	}
	if err := e.store.BumpCommunicationThread(ctx, res.RFQ.ID, res.MatchedVendor.ID, now); err != nil {
		return "", "", err
	}

	if e.cfg.SendAcknowledgments {
		e.sendAcknowledgment(ctx, companyID, res, number)
	}

	return model.ActionQuotationCreated, number, nil
}

// sendAcknowledgment is best-effort: a send or log failure never
// downgrades an otherwise successful reconciliation.
func (e *Engine) sendAcknowledgment(ctx context.Context, companyID string, res *resolve.Result, quotationNumber string) {
	to := res.MatchedVendor.Email
	subject := fmt.Sprintf("Quotation Received - %s", res.RFQ.RFQNumber)
	body := ackBody(res.MatchedVendor.Name, res.RFQ.RFQNumber, quotationNumber)

	if _, err := e.gateway.Send(ctx, companyID, to, subject, body, nil, nil); err != nil {
		zap.L().Warn("acknowledgment send failed",
			zap.String("to", to),
			zap.String("rfq_number", res.RFQ.RFQNumber),
			zap.Error(err),
		)
		return
	}

	entry := &model.EmailLogEntry{
		ID:        e.newID(),
		CompanyID: companyID,
		RFQID:     res.RFQ.ID,
		VendorID:  res.MatchedVendor.ID,
		Kind:      model.EmailLogAcknowledgment,
		Recipient: to,
		Subject:   subject,
		SentAt:    e.now(),
	}
	if err := e.store.AppendEmailLog(ctx, entry); err != nil {
		zap.L().Warn("acknowledgment log failed", zap.Error(err))
	}
}

func ackBody(vendorName, rfqNumber, quotationNumber string) string {
	return fmt.Sprintf(
		`<p>Dear %s,</p>
<p>We have received your quotation in response to %s and recorded it as %s.</p>
<p>Our procurement team will review it and revert. No action is needed from your side.</p>
<p>Regards,<br>Procurement</p>`,
		vendorName, rfqNumber, quotationNumber)
}

func attachmentNames(atts []mailbox.Attachment) []string {
	if len(atts) == 0 {
		return nil
	}
	names := make([]string, 0, len(atts))
	for _, a := range atts {
		names = append(names, a.Filename)
	}
	return names
}
