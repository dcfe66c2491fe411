package mailbox

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// serviceBuilder constructs a Gmail service for one account.
type serviceBuilder func(ctx context.Context, accountID string) (*gmail.Service, error)

type cacheEntry struct {
	svc     *gmail.Service
	builtAt time.Time
}

// ClientCache holds per-account Gmail clients with a bounded lifetime.
// Entries are rebuilt after the TTL elapses and can be invalidated
// eagerly when an auth error suggests the underlying token went stale.
type ClientCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	ttl     time.Duration
	build   serviceBuilder
	now     func() time.Time
}

// NewClientCache returns a cache that builds Gmail clients from the
// OAuth client credentials at credentialsFile and per-account refresh
// tokens stored as <tokenDir>/<accountID>.json.
func NewClientCache(credentialsFile, tokenDir string, ttl time.Duration) *ClientCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ClientCache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
		build: func(ctx context.Context, accountID string) (*gmail.Service, error) {
			return buildGmailService(ctx, credentialsFile, tokenDir, accountID)
		},
		now: time.Now,
	}
}

// Service returns a Gmail client for the account, building one if the
// cached entry is missing or older than the TTL.
func (c *ClientCache) Service(ctx context.Context, accountID string) (*gmail.Service, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[accountID]; ok && c.now().Sub(entry.builtAt) < c.ttl {
		return entry.svc, nil
	}

	svc, err := c.build(ctx, accountID)
	if err != nil {
		return nil, err
	}
	c.entries[accountID] = &cacheEntry{svc: svc, builtAt: c.now()}
	return svc, nil
}

// Invalidate drops the cached client for an account, forcing a rebuild
// on next use.
func (c *ClientCache) Invalidate(accountID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, accountID)
}

func buildGmailService(ctx context.Context, credentialsFile, tokenDir, accountID string) (*gmail.Service, error) {
	credBytes, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, eris.Wrap(err, "mailbox: read credentials")
	}

	oauthCfg, err := google.ConfigFromJSON(credBytes, gmail.GmailModifyScope, gmail.GmailSendScope)
	if err != nil {
		return nil, eris.Wrap(err, "mailbox: parse credentials")
	}

	tokenPath := filepath.Join(tokenDir, accountID+".json")
	tokenBytes, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, eris.Wrapf(err, "mailbox: read token for account %s", accountID)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenBytes, &token); err != nil {
		return nil, eris.Wrapf(err, "mailbox: parse token for account %s", accountID)
	}

	httpClient := oauthCfg.Client(ctx, &token)
	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, eris.Wrap(err, "mailbox: build gmail service")
	}
	return svc, nil
}
