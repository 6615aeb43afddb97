package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/progreso-dashboard/internal/models"
	"github.com/noah-isme/progreso-dashboard/pkg/jobs"
)

const auditJobType = "import_audit"

type importAuditRepository interface {
	Create(ctx context.Context, audit *models.ImportAudit) error
	ListRecent(ctx context.Context, limit int) ([]models.ImportAudit, error)
}

// ImportAuditConfig tunes asynchronous audit writes.
type ImportAuditConfig struct {
	Enabled    bool
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// ImportAuditService records upload attempts through a background queue.
type ImportAuditService struct {
	repo    importAuditRepository
	queue   *jobs.Queue
	logger  *zap.Logger
	enabled bool
}

// NewImportAuditService wires the audit queue. With auditing disabled or no
// repository, writes are dropped and history is empty.
func NewImportAuditService(repo importAuditRepository, cfg ImportAuditConfig, logger *zap.Logger) *ImportAuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ImportAuditService{repo: repo, logger: logger, enabled: cfg.Enabled && repo != nil}
	if svc.enabled {
		svc.queue = jobs.NewQueue("import-audit", svc.handle, jobs.QueueConfig{
			Workers:    cfg.Workers,
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
			Logger:     logger,
		})
	}
	return svc
}

// Enabled reports whether audit rows are persisted.
func (s *ImportAuditService) Enabled() bool {
	return s != nil && s.enabled
}

// Start launches the queue workers.
func (s *ImportAuditService) Start(ctx context.Context) {
	if s.Enabled() {
		s.queue.Start(ctx)
	}
}

// Stop drains pending audit writes.
func (s *ImportAuditService) Stop() {
	if s.Enabled() {
		s.queue.Stop()
	}
}

// Record enqueues an audit row. Failures are logged, never returned to the caller.
func (s *ImportAuditService) Record(audit models.ImportAudit) {
	if !s.Enabled() {
		return
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	job := jobs.Job{ID: audit.SessionID, Type: auditJobType, Payload: audit}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("import audit dropped", zap.String("session_id", audit.SessionID), zap.Error(err))
	}
}

// Recent lists the newest audit rows.
func (s *ImportAuditService) Recent(ctx context.Context, limit int) ([]models.ImportAudit, error) {
	if !s.Enabled() {
		return []models.ImportAudit{}, nil
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *ImportAuditService) handle(ctx context.Context, job jobs.Job) error {
	audit, ok := job.Payload.(models.ImportAudit)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("type", fmt.Sprintf("%T", job.Payload)))
		return nil
	}
	return s.repo.Create(ctx, &audit)
}
