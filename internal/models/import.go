package models

import "time"

// Column names of the import spreadsheet.
const (
	ColumnTeacherEmail       = "correo_docente"
	ColumnTeacherName        = "nombre_docente"
	ColumnSubjectCode        = "sigla"
	ColumnSubjectName        = "nombre_materia"
	ColumnTerm               = "gestion"
	ColumnSection            = "paralelo"
	ColumnSubjectImage       = "image_materia"
	ColumnElementDescription = "descripcion_elemento"
	ColumnElementDueDate     = "fecha_limite_elemento"
	ColumnKnowledgeItem      = "descripcion_saber"
)

// ExcelRow is one data line of the import spreadsheet.
type ExcelRow struct {
	TeacherEmail       string `json:"correo_docente"`
	TeacherName        string `json:"nombre_docente"`
	SubjectCode        string `json:"sigla"`
	SubjectName        string `json:"nombre_materia"`
	Term               string `json:"gestion"`
	Section            string `json:"paralelo"`
	SubjectImage       string `json:"image_materia"`
	ElementDescription string `json:"descripcion_elemento"`
	ElementDueDate     string `json:"fecha_limite_elemento"`
	KnowledgeItem      string `json:"descripcion_saber"`
}

// Field returns the cell value for the given column name, or "" when the
// column is unknown.
func (r ExcelRow) Field(column string) string {
	switch column {
	case ColumnTeacherEmail:
		return r.TeacherEmail
	case ColumnTeacherName:
		return r.TeacherName
	case ColumnSubjectCode:
		return r.SubjectCode
	case ColumnSubjectName:
		return r.SubjectName
	case ColumnTerm:
		return r.Term
	case ColumnSection:
		return r.Section
	case ColumnSubjectImage:
		return r.SubjectImage
	case ColumnElementDescription:
		return r.ElementDescription
	case ColumnElementDueDate:
		return r.ElementDueDate
	case ColumnKnowledgeItem:
		return r.KnowledgeItem
	default:
		return ""
	}
}

// SetField assigns the value of the given column. Unknown columns are ignored.
func (r *ExcelRow) SetField(column, value string) bool {
	switch column {
	case ColumnTeacherEmail:
		r.TeacherEmail = value
	case ColumnTeacherName:
		r.TeacherName = value
	case ColumnSubjectCode:
		r.SubjectCode = value
	case ColumnSubjectName:
		r.SubjectName = value
	case ColumnTerm:
		r.Term = value
	case ColumnSection:
		r.Section = value
	case ColumnSubjectImage:
		r.SubjectImage = value
	case ColumnElementDescription:
		r.ElementDescription = value
	case ColumnElementDueDate:
		r.ElementDueDate = value
	case ColumnKnowledgeItem:
		r.KnowledgeItem = value
	default:
		return false
	}
	return true
}

// NormalizedData is the payload sent to the upload endpoint.
type NormalizedData struct {
	Teachers []Teacher           `json:"docentes"`
	Subjects []Subject           `json:"materias"`
	Elements []CompetencyElement `json:"elementos"`
}

// PreviewData keeps the decoded sheet for display and validation.
type PreviewData struct {
	Headers   []string   `json:"headers"`
	Rows      []ExcelRow `json:"rows"`
	TotalRows int        `json:"totalRows"`
}

// UploadedFile describes the workbook attached to an import session.
type UploadedFile struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size"`
	Type          string    `json:"type"`
	SizeLabel     string    `json:"sizeLabel"`
	Fingerprint   string    `json:"fingerprint"`
	ReceivedAtUTC time.Time `json:"receivedAt"`
}

// ValidationStatus tracks the validation lifecycle of an import session.
type ValidationStatus string

const (
	ValidationIdle       ValidationStatus = "idle"
	ValidationValidating ValidationStatus = "validating"
	ValidationValid      ValidationStatus = "valid"
	ValidationInvalid    ValidationStatus = "invalid"
)

// UploadSummary is the resumen returned by the remote API after an upload.
type UploadSummary struct {
	TeachersProcessed int `json:"docentes_procesados"`
	SubjectsProcessed int `json:"materias_procesadas"`
	ElementsProcessed int `json:"elementos_procesados"`
	KnowledgeItems    int `json:"saberes_totales"`
}

// UploadResponse mirrors the remote API upload response.
type UploadResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Summary *UploadSummary `json:"resumen,omitempty"`
	Error   string         `json:"error,omitempty"`
}
