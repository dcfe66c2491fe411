package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milltech-erp/procure-cli/internal/config"
)

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FailureRateThreshold:   0.25,
		PendingReviewThreshold: 20,
	})

	snap := &MetricsSnapshot{
		CompanyID:           "co-1",
		EmailsTotal:         40,
		EmailsProcessed:     36,
		EmailsPendingReview: 2,
		EmailsFailed:        2,
		FailRate:            0.05,
		LookbackHours:       24,
	}

	alerts := a.Evaluate(snap)
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_FailureRate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FailureRateThreshold:   0.25,
		PendingReviewThreshold: 20,
	})

	snap := &MetricsSnapshot{
		CompanyID:       "co-1",
		EmailsTotal:     10,
		EmailsProcessed: 6,
		EmailsFailed:    4,
		FailRate:        0.4, // 4/10 = 40%
		LookbackHours:   24,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertFailureRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "40.0%")
}

func TestAlerter_Evaluate_FailureRateFloor(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FailureRateThreshold: 0.25,
	})

	// One failed email out of two finished is a 50% rate but below the
	// volume floor; quiet inboxes should not page anyone.
	snap := &MetricsSnapshot{
		CompanyID:       "co-1",
		EmailsTotal:     2,
		EmailsProcessed: 1,
		EmailsFailed:    1,
		FailRate:        0.5,
		LookbackHours:   24,
	}

	alerts := a.Evaluate(snap)
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_PendingReviewBacklog(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FailureRateThreshold:   0.25,
		PendingReviewThreshold: 5,
	})

	snap := &MetricsSnapshot{
		CompanyID:           "co-1",
		EmailsTotal:         30,
		EmailsProcessed:     22,
		EmailsPendingReview: 8,
		LookbackHours:       24,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertPendingReviewBacklog, alerts[0].Type)
	assert.Equal(t, "medium", alerts[0].Severity)
}

func TestAlerter_Evaluate_StuckProcessing(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{
		FailureRateThreshold: 0.25,
	})

	snap := &MetricsSnapshot{
		CompanyID:      "co-1",
		EmailsTotal:    3,
		EmailsInFlight: 3,
		LookbackHours:  24,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertStuckProcessing, alerts[0].Type)
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertFailureRate, CompanyID: "co-1", Severity: "high", Message: "test"},
		{Type: AlertPendingReviewBacklog, CompanyID: "co-1", Severity: "medium", Message: "test"},
	})

	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertFailureRate, Message: "test"},
	})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertFailureRate, Message: "test"},
	})
	assert.Equal(t, 0, sent)
}
