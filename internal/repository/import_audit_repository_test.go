package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/progreso-dashboard/internal/models"
)

var auditColumns = []string{"id", "session_id", "file_name", "file_size", "fingerprint", "status", "docentes", "materias", "elementos", "saberes", "message", "uploaded_by", "created_at"}

func newAuditRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type queryObserverStub struct {
	labels []string
}

func (q *queryObserverStub) ObserveDBQuery(label string, duration time.Duration) {
	q.labels = append(q.labels, label)
}

func TestImportAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	obs := &queryObserverStub{}
	repo := NewImportAuditRepository(db, obs)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO import_audits")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	audit := &models.ImportAudit{
		SessionID:   "session-1",
		FileName:    "datos.xlsx",
		FileSize:    2048,
		Fingerprint: "abc",
		Status:      models.ImportAuditUploaded,
		Teachers:    1,
		Subjects:    1,
		Elements:    1,
		UploadedBy:  "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), audit))
	require.NotEmpty(t, audit.ID)
	require.False(t, audit.CreatedAt.IsZero())
	require.Equal(t, []string{"import_audits.create"}, obs.labels)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportAuditRepositoryCreateError(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewImportAuditRepository(db, nil)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO import_audits")).
		WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &models.ImportAudit{Status: models.ImportAuditFailed})
	require.Error(t, err)
	require.Contains(t, err.Error(), "create import audit")
}

func TestImportAuditRepositoryListRecent(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	repo := NewImportAuditRepository(db, nil)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(auditColumns).
		AddRow("a-2", "s-2", "b.xlsx", 10, "fp2", "FAILED", 0, 0, 0, 0, "Error en la carga", "user-1", now).
		AddRow("a-1", "s-1", "a.xlsx", 20, "fp1", "UPLOADED", 1, 2, 3, 4, nil, "user-1", now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("FROM import_audits ORDER BY created_at DESC LIMIT $1")).
		WithArgs(50).
		WillReturnRows(rows)

	items, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, models.ImportAuditFailed, items[0].Status)
	require.NotNil(t, items[0].Message)
	require.Nil(t, items[1].Message)
	require.Equal(t, 4, items[1].KnowledgeItems)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestImportAuditRepositoryEnsureSchema(t *testing.T) {
	db, mock, cleanup := newAuditRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS import_audits")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewImportAuditRepository(db, nil).EnsureSchema(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
