package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/progreso-dashboard/internal/dto"
	"github.com/noah-isme/progreso-dashboard/internal/importer"
	"github.com/noah-isme/progreso-dashboard/internal/models"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
	"github.com/noah-isme/progreso-dashboard/pkg/export"
	"github.com/noah-isme/progreso-dashboard/pkg/storage"
)

// uploadFailedMessage is recorded when an upload error carries no message fit
// for users.
const uploadFailedMessage = "Error en la carga"

type remoteUploader interface {
	UploadData(ctx context.Context, token string, data models.NormalizedData) (*models.UploadResponse, error)
}

type progressInvalidator interface {
	InvalidateProgress(ctx context.Context) error
}

type auditRecorder interface {
	Record(audit models.ImportAudit)
}

type archiveStore interface {
	Save(filename string, data []byte) (string, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ImportServiceConfig tunes the import workflow.
type ImportServiceConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	ValidationDelay   time.Duration
	ArchiveTTL        time.Duration
}

// ImportServiceParams groups constructor dependencies.
type ImportServiceParams struct {
	Uploader remoteUploader
	Cache    progressInvalidator
	Audit    auditRecorder
	Archive  archiveStore
	Metrics  *MetricsService
	CSV      csvRenderer
	PDF      pdfRenderer
	Logger   *zap.Logger
	Config   ImportServiceConfig
}

// UploadInput is a workbook received from a client.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type importSession struct {
	view    dto.ImportSession
	owner   string
	content []byte
}

// ImportService owns in-memory import sessions: one per actor, each holding a
// decoded workbook, its normalized model and validation state.
type ImportService struct {
	uploader remoteUploader
	cache    progressInvalidator
	audit    auditRecorder
	archive  archiveStore
	metrics  *MetricsService
	csv      csvRenderer
	pdf      pdfRenderer
	logger   *zap.Logger
	cfg      ImportServiceConfig
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	sessions map[string]*importSession
	byOwner  map[string]string
}

// NewImportService constructs an ImportService with sane defaults.
func NewImportService(params ImportServiceParams) *ImportService {
	cfg := params.Config
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = importer.DefaultMaxFileSize
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = importer.DefaultExtensions
	}
	if cfg.ArchiveTTL <= 0 {
		cfg.ArchiveTTL = 30 * 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter(true)
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter("")
	}
	return &ImportService{
		uploader: params.Uploader,
		cache:    params.Cache,
		audit:    params.Audit,
		archive:  params.Archive,
		metrics:  params.Metrics,
		csv:      csv,
		pdf:      pdf,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
		sleep:    sleepContext,
		sessions: make(map[string]*importSession),
		byOwner:  make(map[string]string),
	}
}

// Open checks, decodes and normalizes a workbook and starts a session for actor,
// replacing any session the actor already had.
func (s *ImportService) Open(ctx context.Context, in UploadInput, actor string) (*dto.ImportSession, error) {
	if err := importer.CheckFile(in.FileName, in.Size, s.cfg.MaxFileSize, s.cfg.AllowedExtensions); err != nil {
		s.metrics.RecordImportEvent(ImportEventRejected)
		return nil, err
	}
	if in.Body == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is required")
	}

	content, err := io.ReadAll(io.LimitReader(in.Body, s.cfg.MaxFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFile.Code, appErrors.ErrReadFile.Status, appErrors.ErrReadFile.Message)
	}
	// Declared sizes can lie; the body decides.
	if err := importer.CheckFile(in.FileName, int64(len(content)), s.cfg.MaxFileSize, s.cfg.AllowedExtensions); err != nil {
		s.metrics.RecordImportEvent(ImportEventRejected)
		return nil, err
	}

	sheet, err := importer.Decode(content)
	if err != nil {
		s.metrics.RecordImportEvent(ImportEventRejected)
		return nil, err
	}
	data := importer.Normalize(sheet.Rows)

	sum := blake2b.Sum256(content)
	now := s.now().UTC()
	session := &importSession{
		owner:   actor,
		content: content,
		view: dto.ImportSession{
			ID: uuid.NewString(),
			File: models.UploadedFile{
				Name:          in.FileName,
				Size:          int64(len(content)),
				Type:          in.ContentType,
				SizeLabel:     importer.FormatFileSize(int64(len(content))),
				Fingerprint:   hex.EncodeToString(sum[:]),
				ReceivedAtUTC: now,
			},
			Preview: models.PreviewData{
				Headers:   sheet.Headers,
				Rows:      sheet.Rows,
				TotalRows: len(sheet.Rows),
			},
			Data:      data,
			Status:    models.ValidationIdle,
			Errors:    []string{},
			Summary:   countsOf(data),
			CreatedAt: now,
		},
	}

	s.mu.Lock()
	if previous, ok := s.byOwner[actor]; ok {
		delete(s.sessions, previous)
	}
	s.sessions[session.view.ID] = session
	s.byOwner[actor] = session.view.ID
	view := cloneView(session.view)
	s.mu.Unlock()

	s.metrics.RecordImportEvent(ImportEventOpened)
	s.logger.Info("import session opened",
		zap.String("session_id", view.ID),
		zap.String("actor", actor),
		zap.String("file", in.FileName),
		zap.Int("rows", view.Preview.TotalRows),
	)
	return &view, nil
}

// Get returns the actor's session.
func (s *ImportService) Get(ctx context.Context, id, actor string) (*dto.ImportSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookup(id, actor)
	if err != nil {
		return nil, err
	}
	view := cloneView(session.view)
	return &view, nil
}

// Discard cancels the actor's session.
func (s *ImportService) Discard(ctx context.Context, id, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, err := s.lookup(id, actor)
	if err != nil {
		return err
	}
	if session.view.Uploading {
		return appErrors.Clone(appErrors.ErrConflict, "upload in progress")
	}
	s.remove(id)
	return nil
}

// Validate runs the validator over the session model and stores the outcome.
func (s *ImportService) Validate(ctx context.Context, id, actor string) (*dto.ImportSession, error) {
	s.mu.Lock()
	session, err := s.lookup(id, actor)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if session.view.Status == models.ValidationValidating {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "validation already in progress")
	}
	if session.view.Uploading {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "upload in progress")
	}
	previous := session.view.Status
	session.view.Status = models.ValidationValidating
	data := session.view.Data
	headers := session.view.Preview.Headers
	rows := session.view.Preview.Rows
	s.mu.Unlock()

	if s.cfg.ValidationDelay > 0 {
		if err := s.sleep(ctx, s.cfg.ValidationDelay); err != nil {
			s.mu.Lock()
			if current, ok := s.sessions[id]; ok && current == session {
				current.view.Status = previous
			}
			s.mu.Unlock()
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "validation cancelled")
		}
	}

	errs := importer.Validate(&data, headers, rows)
	status := importer.StatusFor(errs)

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[id]
	if !ok || current != session {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import session not found")
	}
	validatedAt := s.now().UTC()
	current.view.Status = status
	current.view.Errors = errs
	current.view.ValidatedAt = &validatedAt

	s.metrics.ObserveValidation(len(errs))
	if status == models.ValidationValid {
		s.metrics.RecordImportEvent(ImportEventValid)
	} else {
		s.metrics.RecordImportEvent(ImportEventInvalid)
	}

	view := cloneView(current.view)
	return &view, nil
}

// Upload forwards a validated model to the remote API on behalf of token's owner.
func (s *ImportService) Upload(ctx context.Context, id, token, actor string) (*dto.UploadResult, error) {
	if s.uploader == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "uploader not configured")
	}

	s.mu.Lock()
	session, err := s.lookup(id, actor)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if session.view.Uploading {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrConflict, "upload already in progress")
	}
	if session.view.Status != models.ValidationValid {
		s.mu.Unlock()
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "data must be validated successfully before uploading")
	}
	session.view.Uploading = true
	data := session.view.Data
	file := session.view.File
	counts := session.view.Summary
	content := session.content
	s.mu.Unlock()

	result, uploadErr := s.uploader.UploadData(ctx, token, data)
	if uploadErr == nil && result == nil {
		result = &models.UploadResponse{Success: true}
	}

	audit := models.ImportAudit{
		SessionID:      id,
		FileName:       file.Name,
		FileSize:       file.Size,
		Fingerprint:    file.Fingerprint,
		Teachers:       counts.Teachers,
		Subjects:       counts.Subjects,
		Elements:       counts.Elements,
		KnowledgeItems: counts.KnowledgeItems,
		UploadedBy:     actor,
	}

	if uploadErr != nil {
		s.mu.Lock()
		if current, ok := s.sessions[id]; ok && current == session {
			current.view.Uploading = false
		}
		s.mu.Unlock()

		message := appErrors.UserMessage(uploadErr, uploadFailedMessage)
		audit.Status = models.ImportAuditFailed
		audit.Message = &message
		s.recordAudit(audit)
		s.metrics.RecordImportEvent(ImportEventUploadFailed)
		s.logger.Warn("import upload failed", zap.String("session_id", id), zap.String("actor", actor), zap.Bool("upstream", appErrors.IsUpstream(uploadErr)), zap.Error(uploadErr))
		return nil, uploadErr
	}

	s.mu.Lock()
	s.remove(id)
	s.mu.Unlock()

	out := &dto.UploadResult{Upstream: *result}
	if result.Summary != nil {
		out.Summary = *result.Summary
	}
	out.Message = importer.SummaryMessage(result.Summary)

	if s.archive != nil {
		name := storage.ArchiveName(file.Name, file.Fingerprint, s.now())
		if rel, err := s.archive.Save(name, content); err != nil {
			s.logger.Warn("archive workbook failed", zap.String("session_id", id), zap.Error(err))
		} else {
			out.Archive = rel
		}
	}
	if s.cache != nil {
		if err := s.cache.InvalidateProgress(ctx); err != nil {
			s.logger.Warn("progress cache invalidation failed", zap.Error(err))
		}
	}

	audit.Status = models.ImportAuditUploaded
	if result.Message != "" {
		message := result.Message
		audit.Message = &message
	}
	s.recordAudit(audit)
	s.metrics.RecordImportEvent(ImportEventUploadSucceeded)
	s.logger.Info("import uploaded",
		zap.String("session_id", id),
		zap.String("actor", actor),
		zap.Int("docentes", out.Summary.TeachersProcessed),
		zap.Int("materias", out.Summary.SubjectsProcessed),
	)
	return out, nil
}

// Report renders the per-subject summary of a session as CSV or PDF. It
// returns the payload and a suggested file name.
func (s *ImportService) Report(ctx context.Context, id string, format export.Format, actor string) ([]byte, string, error) {
	s.mu.Lock()
	session, err := s.lookup(id, actor)
	if err != nil {
		s.mu.Unlock()
		return nil, "", err
	}
	view := cloneView(session.view)
	s.mu.Unlock()

	dataset := summaryDataset(view)
	base := strings.TrimSuffix(filepath.Base(view.File.Name), filepath.Ext(view.File.Name))
	filename := fmt.Sprintf("resumen_%s.%s", base, format)

	var payload []byte
	switch format {
	case export.FormatCSV:
		payload, err = s.csv.Render(dataset)
	case export.FormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", format))
	}
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	return payload, filename, nil
}

// Template returns the sample workbook.
func (s *ImportService) Template() ([]byte, error) {
	payload, err := importer.Template()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build template")
	}
	return payload, nil
}

// PurgeArchives removes archived workbooks older than ttl (the configured TTL when ttl <= 0).
func (s *ImportService) PurgeArchives(ttl time.Duration) ([]string, error) {
	if s.archive == nil {
		return []string{}, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ArchiveTTL
	}
	removed, err := s.archive.CleanupOlderThan(ttl)
	if err != nil {
		return nil, err
	}
	if len(removed) > 0 {
		s.logger.Info("purged archived workbooks", zap.Int("count", len(removed)))
	}
	return removed, nil
}

// lookup must be called with s.mu held. Sessions of other actors are reported
// as missing.
func (s *ImportService) lookup(id, actor string) (*importSession, error) {
	session, ok := s.sessions[id]
	if !ok || session.owner != actor {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import session not found")
	}
	return session, nil
}

// remove must be called with s.mu held.
func (s *ImportService) remove(id string) {
	session, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	if s.byOwner[session.owner] == id {
		delete(s.byOwner, session.owner)
	}
}

func (s *ImportService) recordAudit(audit models.ImportAudit) {
	if s.audit != nil {
		s.audit.Record(audit)
	}
}

func countsOf(data models.NormalizedData) dto.ImportCounts {
	return dto.ImportCounts{
		Teachers:       len(data.Teachers),
		Subjects:       len(data.Subjects),
		Elements:       len(data.Elements),
		KnowledgeItems: importer.KnowledgeItemTotal(data),
	}
}

func cloneView(v dto.ImportSession) dto.ImportSession {
	v.Errors = append([]string{}, v.Errors...)
	if v.ValidatedAt != nil {
		at := *v.ValidatedAt
		v.ValidatedAt = &at
	}
	return v
}

var summaryHeaders = []string{"materia", "id", "elementos", "saberes", "recuperatorios", "docente"}

func summaryDataset(view dto.ImportSession) export.Dataset {
	names := make(map[string]string, len(view.Data.Teachers))
	for _, t := range view.Data.Teachers {
		names[t.Email] = t.Name
	}
	rows := make([]map[string]string, 0, len(view.Data.Subjects))
	for _, subject := range view.Data.Subjects {
		teacher := names[subject.TeacherEmail]
		if teacher == "" {
			teacher = subject.TeacherEmail
		}
		rows = append(rows, map[string]string{
			"materia":        fmt.Sprintf("%s (%s %s-%s)", subject.Name, subject.Code, subject.Term, subject.Section),
			"id":             subject.ID,
			"elementos":      strconv.Itoa(subject.ElementCount),
			"saberes":        strconv.Itoa(subject.KnowledgeItemCount),
			"recuperatorios": strconv.Itoa(subject.RemedialCount),
			"docente":        teacher,
		})
	}
	return export.Dataset{
		Title:   "Resumen de carga - " + view.File.Name,
		Headers: summaryHeaders,
		Rows:    rows,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
