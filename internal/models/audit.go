package models

import "time"

// ImportAuditStatus is the outcome recorded for an upload attempt.
type ImportAuditStatus string

const (
	ImportAuditUploaded ImportAuditStatus = "UPLOADED"
	ImportAuditFailed   ImportAuditStatus = "FAILED"
)

// ImportAudit records one upload attempt of an import session.
type ImportAudit struct {
	ID             string            `db:"id" json:"id"`
	SessionID      string            `db:"session_id" json:"session_id"`
	FileName       string            `db:"file_name" json:"file_name"`
	FileSize       int64             `db:"file_size" json:"file_size"`
	Fingerprint    string            `db:"fingerprint" json:"fingerprint"`
	Status         ImportAuditStatus `db:"status" json:"status"`
	Teachers       int               `db:"docentes" json:"docentes"`
	Subjects       int               `db:"materias" json:"materias"`
	Elements       int               `db:"elementos" json:"elementos"`
	KnowledgeItems int               `db:"saberes" json:"saberes"`
	Message        *string           `db:"message" json:"message,omitempty"`
	UploadedBy     string            `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
