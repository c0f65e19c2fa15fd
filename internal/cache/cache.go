package cache

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// SpendCache memoises the expense total of a (month, category) pair. A nil
// *SpendCache is valid and caches nothing.
//
// Each month carries a generation that InvalidateMonth bumps. Readers take
// the generation before querying the store and Set drops totals read under
// an older one, so a write that lands mid-read is never masked.
type SpendCache struct {
	lru *LRUCache[core.Money]

	mu   sync.Mutex
	gens map[string]uint64
}

// NewSpendCache returns nil when ttl is not positive, which disables caching.
func NewSpendCache(size int, ttl time.Duration) *SpendCache {
	if ttl <= 0 {
		return nil
	}
	return &SpendCache{
		lru:  NewLRUCache[core.Money](size, ttl),
		gens: make(map[string]uint64),
	}
}

func spendKey(month core.Date, categoryID int64) string {
	return month.MonthKey() + ":" + strconv.FormatInt(categoryID, 10)
}

// Lookup returns the cached total, or the month's current generation to
// pass to Set after a store read.
func (c *SpendCache) Lookup(month core.Date, categoryID int64) (spent core.Money, gen uint64, ok bool) {
	if c == nil {
		return core.Money{}, 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if spent, ok := c.lru.Get(spendKey(month, categoryID)); ok {
		return spent, 0, true
	}
	return core.Money{}, c.gens[month.MonthKey()], false
}

// Set stores spent unless month was invalidated after gen was taken.
func (c *SpendCache) Set(month core.Date, categoryID int64, spent core.Money, gen uint64) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[month.MonthKey()] != gen {
		return false
	}
	c.lru.Set(spendKey(month, categoryID), spent)
	return true
}

// InvalidateMonth drops every cached total of month and retires reads
// still in flight.
func (c *SpendCache) InvalidateMonth(month core.Date) {
	if c == nil {
		return
	}
	key := month.MonthKey()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[key]++
	c.lru.DeletePrefix(key + ":")
}

// CleanExpired implements Cleaner.
func (c *SpendCache) CleanExpired() int {
	if c == nil {
		return 0
	}
	return c.lru.CleanExpired()
}

func (c *SpendCache) Size() int {
	if c == nil {
		return 0
	}
	return c.lru.Size()
}

// Cleaner interface for caches that support cleanup
type Cleaner interface {
	CleanExpired() int
}

// Manager handles cache lifecycle and cleanup
type Manager struct {
	mu          sync.Mutex
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	logger      *slog.Logger
}

// NewManager creates a new cache manager
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger.With(applog.FieldComponent, applog.ComponentCache)}
}

// Register adds a cache to the manager for cleanup
func (m *Manager) Register(cache Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches. Calling it
// twice has no effect.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopCleanup != nil {
		return
	}
	m.stopCleanup = make(chan struct{})
	m.cleanupDone = make(chan struct{})
	go m.cleanup(interval, m.stopCleanup, m.cleanupDone)
}

// CleanNow runs one cleanup pass and returns the number of evicted entries.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				m.logger.LogAttrs(context.Background(), slog.LevelDebug, "Expired cache entries removed",
					slog.Int("count", n))
			}
		case <-stop:
			return
		}
	}
}

// Stop gracefully stops the cleanup routine
func (m *Manager) Stop() {
	m.mu.Lock()
	stop, done := m.stopCleanup, m.cleanupDone
	m.stopCleanup = nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
}
