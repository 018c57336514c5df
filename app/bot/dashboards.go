package bot

import (
	"context"
	"sync"
	"time"

	"github.com/Semior001/briefly/app/dashboard"
	cache "github.com/go-pkgz/expirable-cache/v3"
)

// DashboardFactory makes a dashboard of the chat.
type DashboardFactory func(ctx context.Context, chatID string) *dashboard.Dashboard

// Dashboards keeps dashboards of recently active chats.
// Evicted dashboards are closed, their sessions are restored
// from the storage once the chat comes back.
type Dashboards struct {
	mu    sync.Mutex
	cache cache.Cache[string, *dashboard.Dashboard]
	make  DashboardFactory
}

// NewDashboards makes a new Dashboards.
func NewDashboards(ttl time.Duration, maxChats int, factory DashboardFactory) *Dashboards {
	return &Dashboards{
		make: factory,
		cache: cache.NewCache[string, *dashboard.Dashboard]().
			WithLRU().
			WithMaxKeys(maxChats).
			WithTTL(ttl).
			WithOnEvicted(func(_ string, d *dashboard.Dashboard) { go d.Close() }),
	}
}

// Get returns the dashboard of the chat, making one if there is none.
func (d *Dashboards) Get(ctx context.Context, chatID string) *dashboard.Dashboard {
	d.mu.Lock()
	defer d.mu.Unlock()

	if db, ok := d.cache.Get(chatID); ok {
		return db
	}

	db := d.make(ctx, chatID)
	d.cache.Set(chatID, db, 0)
	return db
}

// Len returns the number of active chats.
func (d *Dashboards) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache.DeleteExpired()
	return d.cache.Len()
}

// Stat returns statistics of the cache.
func (d *Dashboards) Stat() cache.Stats { return d.cache.Stat() }

// Close closes all dashboards.
func (d *Dashboards) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, db := range d.cache.Values() {
		db.Close()
	}
	d.cache.Purge()
}
