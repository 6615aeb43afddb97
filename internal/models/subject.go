package models

// Subject is a materia offering identified by (sigla, gestion, paralelo).
type Subject struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ImageRef           string `json:"image"`
	TeacherEmail       string `json:"docente_correo"`
	Section            string `json:"paralelo"`
	Code               string `json:"sigla"`
	Term               string `json:"gestion"`
	ElementCount       int    `json:"elementos_totales"`
	RemedialCount      int    `json:"rec_totales"`
	KnowledgeItemCount int    `json:"saberes_totales"`
}

// CompetencyElement is an elemento de competencia belonging to a Subject.
type CompetencyElement struct {
	SubjectID          string   `json:"materia_id"`
	Description        string   `json:"descripcion"`
	DueDate            string   `json:"fecha_limite"`
	KnowledgeItems     []string `json:"saberes"`
	KnowledgeItemCount int      `json:"saberes_totales"`
}
