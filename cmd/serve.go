package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/milltech-erp/procure-cli/internal/monitoring"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reconciliation service with scheduled inbox polling",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Cron triggers per configured company.
		scheduler := cron.New()
		for _, companyID := range cfg.Schedule.Companies {
			if _, err := scheduler.AddFunc(cfg.Schedule.ProcessCron, func() {
				runScheduledProcess(ctx, env, companyID)
			}); err != nil {
				return eris.Wrapf(err, "schedule process for %s", companyID)
			}
			if _, err := scheduler.AddFunc(cfg.Schedule.RemindCron, func() {
				runScheduledReminders(ctx, env, companyID)
			}); err != nil {
				return eris.Wrapf(err, "schedule reminders for %s", companyID)
			}
		}
		scheduler.Start()
		defer scheduler.Stop()

		checker := monitoring.NewChecker(
			env.collector,
			monitoring.NewAlerter(cfg.Monitoring),
			cfg.Monitoring,
			cfg.Schedule.Companies,
		)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: buildRouter(env, cfg.Monitoring.LookbackWindowHours),
		}

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			zap.L().Info("starting server",
				zap.Int("port", port),
				zap.Int("scheduled_companies", len(cfg.Schedule.Companies)),
			)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})

		g.Go(func() error {
			checker.Run(gctx)
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	},
}

func runScheduledProcess(ctx context.Context, env *appEnv, companyID string) {
	result, err := env.engine.ProcessInbox(ctx, companyID)
	if err != nil {
		zap.L().Error("scheduled inbox run failed",
			zap.String("company_id", companyID), zap.Error(err))
		return
	}
	zap.L().Info("scheduled inbox run complete",
		zap.String("company_id", companyID),
		zap.Int("total_found", result.TotalFound),
		zap.Int("quotations_created", result.QuotationsCreated),
		zap.Int("failed", result.Failed),
	)
}

func runScheduledReminders(ctx context.Context, env *appEnv, companyID string) {
	result, err := env.reminder.SendReminders(ctx, companyID)
	if err != nil {
		zap.L().Error("scheduled reminder run failed",
			zap.String("company_id", companyID), zap.Error(err))
		return
	}
	zap.L().Info("scheduled reminder run complete",
		zap.String("company_id", companyID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
}

func buildRouter(env *appEnv, lookbackHours int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/companies/{companyID}/process", func(w http.ResponseWriter, req *http.Request) {
		companyID := chi.URLParam(req, "companyID")

		// Inbox runs can take minutes; accept and run in the background.
		go func() {
			if env.engine == nil {
				return
			}
			runScheduledProcess(context.WithoutCancel(req.Context()), env, companyID)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":     "accepted",
			"company_id": companyID,
		})
	})

	r.Post("/companies/{companyID}/reminders", func(w http.ResponseWriter, req *http.Request) {
		companyID := chi.URLParam(req, "companyID")

		go func() {
			if env.reminder == nil {
				return
			}
			runScheduledReminders(context.WithoutCancel(req.Context()), env, companyID)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status":     "accepted",
			"company_id": companyID,
		})
	})

	r.Get("/companies/{companyID}/metrics", func(w http.ResponseWriter, req *http.Request) {
		if env.collector == nil {
			http.Error(w, `{"error":"metrics unavailable"}`, http.StatusServiceUnavailable)
			return
		}

		snap, err := env.collector.Collect(req.Context(), chi.URLParam(req, "companyID"), lookbackHours)
		if err != nil {
			zap.L().Error("metrics collection failed", zap.Error(err))
			http.Error(w, `{"error":"metrics collection failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
