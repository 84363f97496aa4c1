package quota

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ============================================================================
// QUOTA LEDGER — Atomic per-user usage counter with a hard ceiling
// ============================================================================
// Consume is the only mutating call. The ledger serializes the whole
// read-check-increment sequence, so N concurrent Consume calls for one
// user end at exactly min(N, limit) and no increment is ever lost. Reads
// may observe slightly stale counts relative to an in-flight Consume;
// Consume itself re-checks the limit under the lock.
// ============================================================================

// Record is one stored usage row.
type Record struct {
	UserID     string    `db:"user_id"`
	UsageCount int       `db:"usage_count"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// Store persists usage counts. SetCount is only called inside the
// ledger's exclusion window, so implementations need no check-and-set of
// their own — an upsert is enough.
type Store interface {
	Count(ctx context.Context, userID string) (int, error)
	SetCount(ctx context.Context, userID string, count int, updatedAt time.Time) error
}

// Ledger enforces a hard per-user usage ceiling.
type Ledger struct {
	store  Store
	limit  int
	logger *zap.Logger

	mu sync.Mutex // spans read-check-increment in Consume
}

// NewLedger creates a ledger over a store with the given ceiling.
func NewLedger(store Store, limit int, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, limit: limit, logger: logger.Named("quota")}
}

// Limit returns the configured ceiling.
func (l *Ledger) Limit() int { return l.limit }

// NormalizeUserID maps differently-cased or padded identifiers onto one
// record key.
func NormalizeUserID(userID string) string {
	return strings.ToLower(strings.TrimSpace(userID))
}

// Usage returns the consumed count for a user.
func (l *Ledger) Usage(ctx context.Context, userID string) (int, error) {
	return l.store.Count(ctx, NormalizeUserID(userID))
}

// Remaining returns max(0, limit - count).
func (l *Ledger) Remaining(ctx context.Context, userID string) (int, error) {
	count, err := l.Usage(ctx, userID)
	if err != nil {
		return 0, err
	}
	return remaining(l.limit, count), nil
}

// CanConsume reports whether the user is under the ceiling.
func (l *Ledger) CanConsume(ctx context.Context, userID string) (bool, error) {
	count, err := l.Usage(ctx, userID)
	if err != nil {
		return false, err
	}
	return count < l.limit, nil
}

// Consume atomically increments a user's count by exactly one, unless
// the ceiling is already reached — then it mutates nothing and returns
// the unchanged count with remaining 0. Store failures leave the count
// untouched.
func (l *Ledger) Consume(ctx context.Context, userID string) (newCount, rem int, err error) {
	clean := NormalizeUserID(userID)

	l.mu.Lock()
	defer l.mu.Unlock()

	count, err := l.store.Count(ctx, clean)
	if err != nil {
		return 0, 0, err
	}
	if count >= l.limit {
		l.logger.Info("quota ceiling reached",
			zap.String("user", clean),
			zap.Int("count", count))
		return count, 0, nil
	}

	count++
	if err := l.store.SetCount(ctx, clean, count, time.Now().UTC()); err != nil {
		return 0, 0, err
	}
	return count, remaining(l.limit, count), nil
}

func remaining(limit, count int) int {
	if count >= limit {
		return 0
	}
	return limit - count
}
