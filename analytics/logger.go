package analytics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/tabula-org/tabula/plan"
)

// ============================================================================
// EVENT LOGGER — Fire-and-forget transformation telemetry
// ============================================================================
// One row per transformation attempt: status, coarse category, timing,
// byte size, hashed user id. This collaborator must never affect the
// transformation's outcome — every failure here is swallowed and logged.
// ============================================================================

const eventsSchema = `
CREATE TABLE IF NOT EXISTS analytics_events (
    id                  SERIAL PRIMARY KEY,
    created_at          TEXT NOT NULL,
    event_name          TEXT NOT NULL,
    user_id_hash        TEXT NOT NULL,
    plan_tier           TEXT NOT NULL,
    transformation_type TEXT NOT NULL,
    operation_count     INTEGER NOT NULL,
    file_size_bytes     BIGINT,
    processing_ms       BIGINT NOT NULL,
    status              TEXT NOT NULL,
    error_code          TEXT,
    output_format       TEXT
)`

// Event summarizes one transformation attempt.
type Event struct {
	UserID        string
	Plan          plan.Plan
	FileSizeBytes int64
	ProcessingMS  int64
	Status        string
	ErrorCode     string
	PlanTier      string
	OutputFormat  string
}

// EventLogger writes events to SQL. A nil logger value is safe to call —
// every method is a no-op.
type EventLogger struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewEventLogger wraps an open sqlx handle.
func NewEventLogger(db *sqlx.DB, logger *zap.Logger) *EventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventLogger{db: db, logger: logger.Named("analytics")}
}

// EnsureSchema creates the events table when missing.
func (l *EventLogger) EnsureSchema(ctx context.Context) error {
	if l == nil || l.db == nil {
		return nil
	}
	if _, err := l.db.ExecContext(ctx, eventsSchema); err != nil {
		return fmt.Errorf("failed to create analytics_events table: %w", err)
	}
	return nil
}

// LogTransformEvent records one attempt. Errors are swallowed: analytics
// must never block the core flow.
func (l *EventLogger) LogTransformEvent(ctx context.Context, ev Event) {
	if l == nil || l.db == nil {
		return
	}

	_, err := l.db.ExecContext(ctx, l.db.Rebind(`
		INSERT INTO analytics_events (
			created_at, event_name, user_id_hash, plan_tier,
			transformation_type, operation_count, file_size_bytes,
			processing_ms, status, error_code, output_format
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		time.Now().UTC().Format(time.RFC3339),
		"transform_job",
		HashUserID(ev.UserID),
		orDefault(ev.PlanTier, "free"),
		ClassifyPlan(ev.Plan),
		len(ev.Plan.Operations),
		ev.FileSizeBytes,
		ev.ProcessingMS,
		ev.Status,
		nullable(ev.ErrorCode),
		nullable(ev.OutputFormat),
	)
	if err != nil {
		l.logger.Warn("failed to record transform event", zap.Error(err))
	}
}

// HashUserID anonymizes a user id for storage: sha256 of the normalized
// id, truncated to 16 hex chars.
func HashUserID(userID string) string {
	clean := strings.ToLower(strings.TrimSpace(userID))
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:])[:16]
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
