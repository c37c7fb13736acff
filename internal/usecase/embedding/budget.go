package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// BudgetAction defines behavior when the token budget is exhausted.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning but allows the request.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// BudgetStore persists budget counters across restarts.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetTracker counts embedding tokens per UTC day and month.
// Check is in-memory; Record writes behind to the optional store.
type BudgetTracker struct {
	mu           sync.Mutex
	dailyUsed    int64
	monthlyUsed  int64
	dailyLimit   int64
	monthlyLimit int64
	day          time.Time
	month        time.Time

	action    BudgetAction
	provider  string
	keyPrefix string
	now       func() time.Time
	store     BudgetStore
	logger    *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit disables that window.
func NewBudgetTracker(
	provider string, dailyLimit, monthlyLimit int64,
	action BudgetAction, logger *zap.Logger,
) *BudgetTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &BudgetTracker{
		dailyLimit:   dailyLimit,
		monthlyLimit: monthlyLimit,
		action:       action,
		provider:     provider,
		keyPrefix:    "ragdex:",
		now:          time.Now,
		logger:       logger,
	}
	now := b.now().UTC()
	b.day, b.month = truncateToDay(now), truncateToMonth(now)
	return b
}

// WithKeyPrefix namespaces the persisted counters.
func (b *BudgetTracker) WithKeyPrefix(prefix string) *BudgetTracker {
	if prefix != "" {
		b.keyPrefix = prefix
	}
	return b
}

// WithClock replaces the time source (tests).
func (b *BudgetTracker) WithClock(now func() time.Time) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = now
	t := now().UTC()
	b.day, b.month = truncateToDay(t), truncateToMonth(t)
	return b
}

// WithStore attaches persistence and loads the current window counters.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now().UTC()
	if v, err := store.Get(ctx, b.dailyKey(now)); err == nil {
		b.dailyUsed = v
	} else {
		b.logger.Warn("Failed to load daily budget", zap.String("provider", b.provider), zap.Error(err))
	}
	if v, err := store.Get(ctx, b.monthlyKey(now)); err == nil {
		b.monthlyUsed = v
	} else {
		b.logger.Warn("Failed to load monthly budget", zap.String("provider", b.provider), zap.Error(err))
	}
	return b
}

func (b *BudgetTracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", b.keyPrefix, b.provider, t.Format("2006-01-02"))
}

func (b *BudgetTracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", b.keyPrefix, b.provider, t.Format("2006-01"))
}

// Check reports whether another request may be sent.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()

	daily := b.dailyLimit > 0 && b.dailyUsed >= b.dailyLimit
	monthly := b.monthlyLimit > 0 && b.monthlyUsed >= b.monthlyLimit
	if !daily && !monthly {
		return nil
	}
	if b.action == BudgetActionReject {
		if daily {
			return fmt.Errorf("%w: daily %d/%d tokens", domain.ErrEmbeddingQuotaExceeded, b.dailyUsed, b.dailyLimit)
		}
		return fmt.Errorf("%w: monthly %d/%d tokens", domain.ErrEmbeddingQuotaExceeded, b.monthlyUsed, b.monthlyLimit)
	}

	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.dailyUsed),
		zap.Int64("daily_limit", b.dailyLimit),
		zap.Int64("monthly_used", b.monthlyUsed),
		zap.Int64("monthly_limit", b.monthlyLimit),
	)
	return nil
}

// Record adds consumed tokens.
func (b *BudgetTracker) Record(tokens int64) {
	if tokens <= 0 {
		return
	}
	b.mu.Lock()
	b.rollover()
	b.dailyUsed += tokens
	b.monthlyUsed += tokens
	store := b.store
	now := b.now().UTC()
	b.mu.Unlock()

	if store == nil {
		return
	}

	// detached from the request so a cancelled caller still gets billed
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, key := range []string{b.dailyKey(now), b.monthlyKey(now)} {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Remaining returns tokens left per window; -1 means unlimited.
func (b *BudgetTracker) Remaining() (daily, monthly int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return remaining(b.dailyLimit, b.dailyUsed), remaining(b.monthlyLimit, b.monthlyUsed)
}

// Used returns tokens consumed in the current day and month.
func (b *BudgetTracker) Used() (daily, monthly int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.dailyUsed, b.monthlyUsed
}

// Limits returns the configured windows; zero means unlimited.
func (b *BudgetTracker) Limits() (daily, monthly int64) {
	return b.dailyLimit, b.monthlyLimit
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

func (b *BudgetTracker) rollover() {
	now := b.now().UTC()
	if d := truncateToDay(now); d.After(b.day) {
		b.dailyUsed = 0
		b.day = d
	}
	if m := truncateToMonth(now); m.After(b.month) {
		b.monthlyUsed = 0
		b.month = m
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncateToMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
