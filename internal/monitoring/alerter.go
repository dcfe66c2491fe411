package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/milltech-erp/procure-cli/internal/config"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertFailureRate          AlertType = "reconciliation_failure_rate"
	AlertPendingReviewBacklog AlertType = "pending_review_backlog"
	AlertStuckProcessing      AlertType = "stuck_processing"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	CompanyID string         `json:"company_id"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a MetricsSnapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *MetricsSnapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	// Reconciliation failure rate, with a floor so a single failed email
	// in a quiet inbox does not page anyone.
	finished := snap.EmailsProcessed + snap.EmailsPendingReview + snap.EmailsFailed
	if finished >= 5 && snap.FailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:      AlertFailureRate,
			CompanyID: snap.CompanyID,
			Severity:  "high",
			Message: fmt.Sprintf(
				"Email reconciliation failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d finished in last %dh)",
				snap.FailRate*100, a.cfg.FailureRateThreshold*100,
				snap.EmailsFailed, finished, snap.LookbackHours,
			),
			Details: map[string]any{
				"fail_rate": snap.FailRate,
				"threshold": a.cfg.FailureRateThreshold,
				"failed":    snap.EmailsFailed,
				"finished":  finished,
			},
			Timestamp: now,
		})
	}

	// Pending-review backlog.
	if a.cfg.PendingReviewThreshold > 0 && snap.EmailsPendingReview > a.cfg.PendingReviewThreshold {
		alerts = append(alerts, Alert{
			Type:      AlertPendingReviewBacklog,
			CompanyID: snap.CompanyID,
			Severity:  "medium",
			Message: fmt.Sprintf(
				"%d email(s) pending manual review in last %dh exceeds threshold %d",
				snap.EmailsPendingReview, snap.LookbackHours, a.cfg.PendingReviewThreshold,
			),
			Details: map[string]any{
				"pending_review": snap.EmailsPendingReview,
				"threshold":      a.cfg.PendingReviewThreshold,
			},
			Timestamp: now,
		})
	}

	// Audit rows stuck in processing mean a run crashed mid-extraction.
	if snap.EmailsInFlight > 0 {
		alerts = append(alerts, Alert{
			Type:      AlertStuckProcessing,
			CompanyID: snap.CompanyID,
			Severity:  "medium",
			Message: fmt.Sprintf(
				"%d email response(s) stuck in processing state in last %dh",
				snap.EmailsInFlight, snap.LookbackHours,
			),
			Details: map[string]any{
				"in_flight": snap.EmailsInFlight,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts delivers alerts to the configured webhook URL.
// Returns the number of alerts successfully sent.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.sendWebhook(ctx, alert); err != nil {
			zap.L().Error("monitoring: failed to send alert",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert sent",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// sendWebhook posts a single alert to the webhook URL.
func (a *Alerter) sendWebhook(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("monitoring: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
