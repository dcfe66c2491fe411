package monitoring

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/milltech-erp/procure-cli/internal/config"
)

// Checker runs periodic alert checks in the background for a fixed set
// of companies.
type Checker struct {
	collector  *Collector
	alerter    *Alerter
	cfg        config.MonitoringConfig
	companyIDs []string
}

// NewChecker creates a background alert checker.
func NewChecker(collector *Collector, alerter *Alerter, cfg config.MonitoringConfig, companyIDs []string) *Checker {
	return &Checker{
		collector:  collector,
		alerter:    alerter,
		cfg:        cfg,
		companyIDs: companyIDs,
	}
}

// Run starts the periodic check loop. It blocks until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.CheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	log := zap.L().With(zap.String("component", "monitoring.checker"))
	log.Info("starting alert checker",
		zap.Duration("interval", interval),
		zap.Int("lookback_hours", c.cfg.LookbackWindowHours),
		zap.Int("companies", len(c.companyIDs)),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("alert checker stopped")
			return
		case <-ticker.C:
			for _, companyID := range c.companyIDs {
				c.check(ctx, log, companyID)
			}
		}
	}
}

func (c *Checker) check(ctx context.Context, log *zap.Logger, companyID string) {
	snap, err := c.collector.Collect(ctx, companyID, c.cfg.LookbackWindowHours)
	if err != nil {
		log.Error("monitoring: failed to collect metrics",
			zap.String("company_id", companyID), zap.Error(err))
		return
	}

	alerts := c.alerter.Evaluate(snap)
	if len(alerts) == 0 {
		log.Debug("monitoring: no alerts triggered",
			zap.String("company_id", companyID))
		return
	}

	sent := c.alerter.SendAlerts(ctx, alerts)
	log.Info("monitoring: alert check complete",
		zap.String("company_id", companyID),
		zap.Int("alerts_triggered", len(alerts)),
		zap.Int("alerts_sent", sent),
	)
}
