/*
scheduler.go - Automated nightly sales synchronization

PURPOSE:
  Periodically rebuilds the previous day's sales facts from invoices so
  that the daily rule snapshot is frozen without operator intervention.
  A late re-run is safe: sync replaces the day wholesale.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each pass re-syncs yesterday and today for every known tenant
  - Today is included so intraday corrections land before midnight
  - The scheduler passes no review data; sync carries stored review
    counts forward, so an earlier manual sync is not erased

CONFIGURATION:
  - CheckInterval: How often to run (default: 1 hour)
  - Tenants: Which tenants to sync (default: just "default")
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewSyncScheduler(handler)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: SyncDay endpoint (manual sync with review counts)
  - incentive/sync.go: Synchronizer
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/salonkit/incentive-engine/incentive"
)

// SyncScheduler handles automated daily fact synchronization.
type SyncScheduler struct {
	Handler       *Handler
	CheckInterval time.Duration
	Tenants       []incentive.TenantID
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSyncScheduler creates a new scheduler.
func NewSyncScheduler(handler *Handler) *SyncScheduler {
	return &SyncScheduler{
		Handler:       handler,
		CheckInterval: 1 * time.Hour,
		Tenants:       []incentive.TenantID{"default"},
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ss *SyncScheduler) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.wg.Add(1)

	go ss.run()

	log.Printf("[Scheduler] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the scheduler.
func (ss *SyncScheduler) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ss *SyncScheduler) run() {
	defer ss.wg.Done()

	// Run immediately on start
	ss.syncRecent()

	for {
		select {
		case <-ss.ticker.C:
			ss.syncRecent()
		case <-ss.stop:
			return
		}
	}
}

// RunNow triggers a sync pass outside the schedule.
func (ss *SyncScheduler) RunNow() {
	ss.syncRecent()
}

func (ss *SyncScheduler) syncRecent() {
	ctx := context.Background()
	today := incentive.Today()
	days := []incentive.Day{today.AddDays(-1), today}

	for _, tenant := range ss.Tenants {
		for _, day := range days {
			facts, err := ss.Handler.Sync.SyncDay(ctx, tenant, day, nil)
			if err != nil {
				log.Printf("[Scheduler] Sync failed for tenant=%s day=%s: %v", tenant, day, err)
				continue
			}
			log.Printf("[Scheduler] Synced tenant=%s day=%s facts=%d", tenant, day, len(facts))
		}
	}
}
