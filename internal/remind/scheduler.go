// Package remind dispatches bounded reminder emails to vendors who have
// not responded to RFQs past their submission deadline.
package remind

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/milltech-erp/procure-cli/internal/mailbox"
	"github.com/milltech-erp/procure-cli/internal/model"
	"github.com/milltech-erp/procure-cli/internal/store"
)

// Scheduler sends deadline reminders. Reminder count is hard-capped and
// a per-vendor cooldown prevents back-to-back nagging.
type Scheduler struct {
	store        store.Store
	gateway      mailbox.Gateway
	maxReminders int
	cooldown     time.Duration

	now   func() time.Time
	newID func() string
}

// New returns a scheduler. Non-positive limits fall back to 3 reminders
// and a 3-day cooldown.
func New(st store.Store, gw mailbox.Gateway, maxReminders, cooldownDays int) *Scheduler {
	if maxReminders <= 0 {
		maxReminders = 3
	}
	if cooldownDays <= 0 {
		cooldownDays = 3
	}
	return &Scheduler{
		store:        st,
		gateway:      gw,
		maxReminders: maxReminders,
		cooldown:     time.Duration(cooldownDays) * 24 * time.Hour,
		now:          time.Now,
		newID:        uuid.NewString,
	}
}

// SendReminders processes all overdue sent RFQs for a company. A send
// failure for one vendor is recorded and never blocks other vendors or
// RFQs in the same run.
func (s *Scheduler) SendReminders(ctx context.Context, companyID string) (*model.ReminderBatchResult, error) {
	result := &model.ReminderBatchResult{
		CompanyID: companyID,
		StartedAt: s.now(),
	}

	rfqs, err := s.store.ListOverdueRFQs(ctx, companyID, s.now())
	if err != nil {
		return nil, eris.Wrapf(err, "remind: list overdue rfqs for company %s", companyID)
	}
	result.RFQsChecked = len(rfqs)

	for _, rfq := range rfqs {
		pending, err := s.store.ListPendingReminderVendors(ctx, rfq.ID, s.maxReminders)
		if err != nil {
			zap.L().Error("list pending reminder vendors failed",
				zap.String("rfq_number", rfq.RFQNumber), zap.Error(err))
			continue
		}

		for _, rv := range pending {
			outcome := s.remindVendor(ctx, companyID, &rfq, &rv)
			result.Outcomes = append(result.Outcomes, outcome)
			switch {
			case outcome.Sent:
				result.Sent++
			case outcome.Error != "":
				result.Failed++
			default:
				result.Skipped++
			}
		}
	}

	result.FinishedAt = s.now()

	zap.L().Info("reminder run finished",
		zap.String("company_id", companyID),
		zap.Int("rfqs_checked", result.RFQsChecked),
		zap.Int("sent", result.Sent),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *Scheduler) remindVendor(ctx context.Context, companyID string, rfq *model.RFQ, rv *model.RFQVendor) model.ReminderOutcome {
	outcome := model.ReminderOutcome{
		RFQNumber: rfq.RFQNumber,
		VendorID:  rv.VendorID,
	}

	if rv.LastReminderAt != nil && s.now().Sub(*rv.LastReminderAt) < s.cooldown {
		outcome.SkipReason = "cooldown"
		return outcome
	}

	vendor, err := s.store.GetVendor(ctx, rv.VendorID)
	if err != nil {
		outcome.Error = err.Error()
		return outcome
	}
	outcome.VendorEmail = vendor.Email

	subject := fmt.Sprintf("Reminder: Quotation Awaited - %s", rfq.RFQNumber)
	body := reminderBody(vendor.Name, rfq, rv.ReminderCount+1)

	if _, err := s.gateway.Send(ctx, companyID, vendor.Email, subject, body, nil, nil); err != nil {
		outcome.Error = err.Error()
		zap.L().Warn("reminder send failed",
			zap.String("rfq_number", rfq.RFQNumber),
			zap.String("vendor_id", rv.VendorID),
			zap.Error(err),
		)
		return outcome
	}

	entry := &model.EmailLogEntry{
		ID:        s.newID(),
		CompanyID: companyID,
		RFQID:     rfq.ID,
		VendorID:  rv.VendorID,
		Kind:      model.EmailLogReminder,
		Recipient: vendor.Email,
		Subject:   subject,
		SentAt:    s.now(),
	}
	if err := s.store.AppendEmailLog(ctx, entry); err != nil {
		zap.L().Warn("reminder log failed", zap.Error(err))
	}

	if err := s.store.RecordReminderSent(ctx, rfq.ID, rv.VendorID, s.now()); err != nil {
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Sent = true
	return outcome
}

func reminderBody(vendorName string, rfq *model.RFQ, attempt int) string {
	return fmt.Sprintf(
		`<p>Dear %s,</p>
<p>This is reminder %d regarding %s. The submission deadline of %s has passed and we have not yet received your quotation.</p>
<p>Please send your quotation at the earliest if you wish to participate.</p>
<p>Regards,<br>Procurement</p>`,
		vendorName, attempt, rfq.RFQNumber, rfq.SubmissionDeadline.Format("02 Jan 2006"))
}
