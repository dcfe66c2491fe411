// Package monitoring surfaces pipeline health: reconciliation outcome
// counts, failure rates, and outbound email volume over a lookback
// window, with threshold-based webhook alerting.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/milltech-erp/procure-cli/internal/model"
	"github.com/milltech-erp/procure-cli/internal/store"
)

// MetricsSnapshot holds a point-in-time view of one company's pipeline.
type MetricsSnapshot struct {
	CompanyID string `json:"company_id"`

	// Inbound email reconciliation (within lookback window).
	EmailsTotal         int     `json:"emails_total"`
	EmailsProcessed     int     `json:"emails_processed"`
	EmailsPendingReview int     `json:"emails_pending_review"`
	EmailsFailed        int     `json:"emails_failed"`
	EmailsInFlight      int     `json:"emails_in_flight"`
	FailRate            float64 `json:"fail_rate"`
	QuotationsLinked    int     `json:"quotations_linked"`

	// Outbound email volume (within lookback window).
	AcknowledgmentsSent int `json:"acknowledgments_sent"`
	RemindersSent       int `json:"reminders_sent"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of one company's pipeline over the given
// lookback window.
func (c *Collector) Collect(ctx context.Context, companyID string, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		CompanyID:     companyID,
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	responses, err := c.store.ListEmailResponsesSince(ctx, companyID, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list email responses")
	}

	snap.EmailsTotal = len(responses)
	for _, r := range responses {
		switch r.Status {
		case model.ProcessingStatusProcessed:
			snap.EmailsProcessed++
		case model.ProcessingStatusPendingReview:
			snap.EmailsPendingReview++
		case model.ProcessingStatusFailed:
			snap.EmailsFailed++
		case model.ProcessingStatusProcessing:
			snap.EmailsInFlight++
		}
		if r.QuotationID != nil {
			snap.QuotationsLinked++
		}
	}

	finished := snap.EmailsProcessed + snap.EmailsPendingReview + snap.EmailsFailed
	if finished > 0 {
		snap.FailRate = float64(snap.EmailsFailed) / float64(finished)
	}

	acks, err := c.store.CountEmailLog(ctx, companyID, model.EmailLogAcknowledgment, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count acknowledgments")
	}
	snap.AcknowledgmentsSent = acks

	reminders, err := c.store.CountEmailLog(ctx, companyID, model.EmailLogReminder, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count reminders")
	}
	snap.RemindersSent = reminders

	return snap, nil
}
