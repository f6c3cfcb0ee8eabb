package connectors

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	common_models "go-eventops/internal/common/models"
	"go-eventops/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// AuditArchiver mirrors audit entries into an external Postgres warehouse.
// It is disabled when no DSN is configured; writes are insert-only and
// best-effort.
type AuditArchiver struct {
	db     *sql.DB
	logger *zap.Logger
}

const createArchiveTable = `CREATE TABLE IF NOT EXISTS audit_archive (
	id TEXT PRIMARY KEY,
	organization_id TEXT,
	action TEXT NOT NULL,
	entity_type TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	actor_id TEXT,
	recorded_at TIMESTAMPTZ NOT NULL
)`

func NewAuditArchiver(cfg *config.Config, logger *zap.Logger) (*AuditArchiver, error) {
	if cfg.AuditArchiveDSN == "" {
		return &AuditArchiver{logger: logger}, nil
	}

	db, err := sql.Open("postgres", cfg.AuditArchiveDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit archive: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping audit archive: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if _, err := db.ExecContext(ctx, createArchiveTable); err != nil {
		return nil, fmt.Errorf("failed to prepare audit archive table: %w", err)
	}

	logger.Info("Audit archive connected")
	return &AuditArchiver{db: db, logger: logger}, nil
}

// Enabled reports whether an archive destination is configured.
func (a *AuditArchiver) Enabled() bool {
	return a.db != nil
}

// Archive inserts one audit entry. Duplicate ids are ignored so retries stay
// harmless.
func (a *AuditArchiver) Archive(ctx context.Context, entry common_models.AuditLog) error {
	if a.db == nil {
		return nil
	}

	_, err := a.db.ExecContext(ctx,
		`INSERT INTO audit_archive (id, organization_id, action, entity_type, entity_id, actor_id, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		entry.ID.Hex(),
		entry.OrganizationID.Hex(),
		string(entry.Action),
		entry.EntityType,
		entry.EntityID,
		entry.ActorID,
		entry.Timestamp,
	)
	return err
}

// Close releases the underlying connection pool.
func (a *AuditArchiver) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
