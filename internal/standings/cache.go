package standings

import (
	"context"
	"sync"
	"time"

	"f1bot/pkg/logx"
)

// Cache keeps the last rendered standings tables so the command surface
// never blocks a chat reply on the upstream API. An hourly job refreshes it.
type Cache struct {
	client *Client
	log    logx.Logger

	mu           sync.RWMutex
	driverText   string
	teamText     string
	refreshedAt  time.Time
	lastAttempt  time.Time
	lastAttemptE error
}

func NewCache(client *Client, log logx.Logger) *Cache {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Cache{client: client, log: log}
}

// Refresh fetches fresh standings. On failure the previous tables are kept.
func (c *Cache) Refresh(ctx context.Context) error {
	ds, err := c.client.Fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastAttempt = time.Now()
	c.lastAttemptE = err
	if err != nil {
		c.log.Warn("standings refresh failed; keeping cached tables", logx.Err(err))
		return err
	}
	c.driverText = ds.Text()
	c.teamText = ds.ConstructorText()
	c.refreshedAt = time.Now()
	c.log.Debug("standings cache refreshed", logx.Int("drivers", len(ds.Drivers)))
	return nil
}

// DriverStandings returns the cached driver table ("" before first refresh).
func (c *Cache) DriverStandings() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.driverText
}

// ConstructorStandings returns the cached team table ("" before first refresh).
func (c *Cache) ConstructorStandings() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.teamText
}
