package immich

import (
	"log/slog"
	"sync"
)

// The factory hands out one shared client per configuration. A new client is
// built only when the config record changes; callers holding the old instance
// keep a working (if stale) client until they re-fetch.
var (
	factoryMu sync.Mutex
	cached    *Client
)

// GetClient returns the cached client for cfg, creating it if the config
// changed since the last call.
func GetClient(cfg Config, logger *slog.Logger) *Client {
	factoryMu.Lock()
	defer factoryMu.Unlock()

	if cached == nil || cached.cfg != cfg {
		cached = NewClient(cfg, logger)
	}
	return cached
}

// Invalidate drops the cached client. The next GetClient builds a fresh one.
// Called at logout so a new session never reuses stale credentials.
func Invalidate() {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	cached = nil
}
