package dto

import (
	"time"

	"github.com/noah-isme/progreso-dashboard/internal/models"
)

// ImportSession is the client view of an in-progress Excel import.
type ImportSession struct {
	ID          string                  `json:"id"`
	File        models.UploadedFile     `json:"file"`
	Preview     models.PreviewData      `json:"preview"`
	Data        models.NormalizedData   `json:"data"`
	Status      models.ValidationStatus `json:"status"`
	Errors      []string                `json:"errors"`
	Uploading   bool                    `json:"uploading"`
	Summary     ImportCounts            `json:"summary"`
	CreatedAt   time.Time               `json:"createdAt"`
	ValidatedAt *time.Time              `json:"validatedAt,omitempty"`
}

// ImportCounts is the at-a-glance count of the normalized model.
type ImportCounts struct {
	Teachers       int `json:"docentes"`
	Subjects       int `json:"materias"`
	Elements       int `json:"elementos"`
	KnowledgeItems int `json:"saberes"`
}

// UploadResult is returned after a successful upload.
type UploadResult struct {
	Message  string                `json:"message"`
	Summary  models.UploadSummary  `json:"resumen"`
	Upstream models.UploadResponse `json:"upstream"`
	Archive  string                `json:"archive,omitempty"`
}

// HistoryQuery bounds the audit history listing.
type HistoryQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
}
