package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type ledgerOpener func(ctx context.Context, rollCallID string) (*AttendanceLedger, error)

// LedgerRegistry keeps open ledgers per roll-call so consecutive requests share local state.
// Ledgers idle for longer than ttl are closed by Sweep.
type LedgerRegistry struct {
	open    ledgerOpener
	ttl     time.Duration
	metrics *MetricsService
	logger  *zap.Logger

	mu      sync.Mutex
	ledgers map[string]*AttendanceLedger
}

// NewLedgerRegistry builds a registry backed by OpenLedger.
func NewLedgerRegistry(deps LedgerDeps, ttl time.Duration) *LedgerRegistry {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerRegistry{
		open: func(ctx context.Context, rollCallID string) (*AttendanceLedger, error) {
			return OpenLedger(ctx, rollCallID, deps)
		},
		ttl:     ttl,
		metrics: deps.Metrics,
		logger:  logger,
		ledgers: map[string]*AttendanceLedger{},
	}
}

// Get returns the open ledger for the roll-call, opening it on first use. refresh forces a
// reload from the backend once the mutations in flight on the current ledger have settled,
// so the reload sees what they stored.
func (r *LedgerRegistry) Get(ctx context.Context, rollCallID string, refresh bool) (*AttendanceLedger, error) {
	r.mu.Lock()
	ledger, ok := r.ledgers[rollCallID]
	r.mu.Unlock()
	if ok && !refresh && !ledger.Closed() {
		return ledger, nil
	}
	if ok {
		ledger.retire()
	}

	fresh, err := r.open(ctx, rollCallID)
	if err != nil {
		if ok {
			ledger.resume()
		}
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.ledgers[rollCallID]; ok && current != fresh {
		current.Close()
	}
	r.ledgers[rollCallID] = fresh
	r.metrics.SetOpenLedgers(len(r.ledgers))
	return fresh, nil
}

// Sweep closes and drops ledgers idle since before now-ttl. It returns how many were dropped.
func (r *LedgerRegistry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, ledger := range r.ledgers {
		// a retired ledger is mid-refresh and is replaced by Get
		if ledger.closed.Load() || ledger.idleSince(now) > r.ttl {
			ledger.Close()
			delete(r.ledgers, id)
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Debug("attendance ledgers swept", zap.Int("dropped", dropped), zap.Int("open", len(r.ledgers)))
	}
	r.metrics.SetOpenLedgers(len(r.ledgers))
	return dropped
}

// Run sweeps on a ticker until ctx is done, then closes every ledger.
func (r *LedgerRegistry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return
		case now := <-ticker.C:
			r.Sweep(now)
		}
	}
}

// CloseAll closes every open ledger.
func (r *LedgerRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, ledger := range r.ledgers {
		ledger.Close()
		delete(r.ledgers, id)
	}
	r.metrics.SetOpenLedgers(0)
}

// Len reports how many ledgers are open.
func (r *LedgerRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ledgers)
}
