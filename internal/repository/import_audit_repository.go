package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/progreso-dashboard/internal/models"
)

// ImportAuditSchema creates the audit table when missing.
const ImportAuditSchema = `CREATE TABLE IF NOT EXISTS import_audits (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	file_name TEXT NOT NULL,
	file_size BIGINT NOT NULL,
	fingerprint TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('UPLOADED', 'FAILED')),
	docentes INTEGER NOT NULL DEFAULT 0,
	materias INTEGER NOT NULL DEFAULT 0,
	elementos INTEGER NOT NULL DEFAULT 0,
	saberes INTEGER NOT NULL DEFAULT 0,
	message TEXT,
	uploaded_by TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_import_audits_created_at ON import_audits (created_at DESC)`

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// ImportAuditRepository persists upload attempts.
type ImportAuditRepository struct {
	db      *sqlx.DB
	metrics queryObserver
}

// NewImportAuditRepository constructs the repository. metrics may be nil.
func NewImportAuditRepository(db *sqlx.DB, metrics queryObserver) *ImportAuditRepository {
	return &ImportAuditRepository{db: db, metrics: metrics}
}

// EnsureSchema creates the audit table and its index.
func (r *ImportAuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, ImportAuditSchema); err != nil {
		return fmt.Errorf("ensure import_audits schema: %w", err)
	}
	return nil
}

// Create stores one audit row, filling id and created_at when empty.
func (r *ImportAuditRepository) Create(ctx context.Context, audit *models.ImportAudit) error {
	if audit.ID == "" {
		audit.ID = uuid.NewString()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	defer r.observe("import_audits.create", time.Now())

	const query = `INSERT INTO import_audits
	(id, session_id, file_name, file_size, fingerprint, status, docentes, materias, elementos, saberes, message, uploaded_by, created_at)
	VALUES (:id, :session_id, :file_name, :file_size, :fingerprint, :status, :docentes, :materias, :elementos, :saberes, :message, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, audit); err != nil {
		return fmt.Errorf("create import audit: %w", err)
	}
	return nil
}

// ListRecent returns the newest audit rows first.
func (r *ImportAuditRepository) ListRecent(ctx context.Context, limit int) ([]models.ImportAudit, error) {
	if limit <= 0 {
		limit = 50
	}
	defer r.observe("import_audits.list_recent", time.Now())

	const query = `SELECT id, session_id, file_name, file_size, fingerprint, status, docentes, materias, elementos, saberes, message, uploaded_by, created_at
	FROM import_audits ORDER BY created_at DESC LIMIT $1`
	items := make([]models.ImportAudit, 0)
	if err := r.db.SelectContext(ctx, &items, query, limit); err != nil {
		return nil, fmt.Errorf("list import audits: %w", err)
	}
	return items, nil
}

func (r *ImportAuditRepository) observe(label string, start time.Time) {
	if r.metrics != nil {
		r.metrics.ObserveDBQuery(label, time.Since(start))
	}
}
