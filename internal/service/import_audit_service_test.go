package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/progreso-dashboard/internal/models"
)

type auditRepoStub struct {
	mu       sync.Mutex
	created  []models.ImportAudit
	failures int
}

func (r *auditRepoStub) Create(ctx context.Context, audit *models.ImportAudit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failures > 0 {
		r.failures--
		return errors.New("temporary")
	}
	r.created = append(r.created, *audit)
	return nil
}

func (r *auditRepoStub) ListRecent(ctx context.Context, limit int) ([]models.ImportAudit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.ImportAudit{}, r.created...), nil
}

func TestImportAuditServiceRecordsThroughQueue(t *testing.T) {
	repo := &auditRepoStub{failures: 1}
	svc := NewImportAuditService(repo, ImportAuditConfig{Enabled: true, MaxRetries: 2, RetryDelay: time.Millisecond}, nil)
	svc.Start(context.Background())

	svc.Record(models.ImportAudit{SessionID: "s-1", Status: models.ImportAuditUploaded})
	svc.Stop()

	items, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "s-1", items[0].SessionID)
	assert.False(t, items[0].CreatedAt.IsZero())
}

func TestImportAuditServiceDisabled(t *testing.T) {
	repo := &auditRepoStub{}
	svc := NewImportAuditService(repo, ImportAuditConfig{Enabled: false}, nil)
	svc.Start(context.Background())
	svc.Record(models.ImportAudit{SessionID: "s-1"})
	svc.Stop()

	items, err := svc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, repo.created)
	assert.False(t, svc.Enabled())
}
