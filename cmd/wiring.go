package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/milltech-erp/procure-cli/internal/engine"
	"github.com/milltech-erp/procure-cli/internal/extract"
	"github.com/milltech-erp/procure-cli/internal/mailbox"
	"github.com/milltech-erp/procure-cli/internal/monitoring"
	"github.com/milltech-erp/procure-cli/internal/remind"
	"github.com/milltech-erp/procure-cli/internal/resolve"
	"github.com/milltech-erp/procure-cli/internal/store"
	anthropicpkg "github.com/milltech-erp/procure-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "procure.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// appEnv bundles the wired pipeline components shared by the commands.
type appEnv struct {
	store     store.Store
	gateway   mailbox.Gateway
	engine    *engine.Engine
	extractor *extract.Extractor
	reminder  *remind.Scheduler
	collector *monitoring.Collector
}

func (e *appEnv) Close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	cache := mailbox.NewClientCache(
		cfg.Mailbox.CredentialsFile,
		cfg.Mailbox.TokenDir,
		time.Duration(cfg.Mailbox.ClientTTLMinutes)*time.Minute,
	)
	gw := mailbox.NewGmailGateway(cache, cfg.Mailbox.FromAddress)

	// With no API key the extractor falls back to regex-only amounts.
	var llm anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		llm = anthropicpkg.NewClient(cfg.Anthropic.Key, cfg.Anthropic.RPS)
	}
	extractor := extract.New(llm, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

	resolver := resolve.New(st, cfg.Pipeline.StrictVendorMatch)

	eng := engine.New(st, gw, resolver, extractor, engine.Config{
		MaxEmails:           cfg.Pipeline.MaxEmails,
		SendAcknowledgments: cfg.Pipeline.SendAcknowledgments,
	})

	return &appEnv{
		store:     st,
		gateway:   gw,
		engine:    eng,
		extractor: extractor,
		reminder:  remind.New(st, gw, cfg.Reminder.MaxReminders, cfg.Reminder.CooldownDays),
		collector: monitoring.NewCollector(st),
	}, nil
}
