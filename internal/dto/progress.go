package dto

import "github.com/noah-isme/progreso-dashboard/internal/models"

// ProgressQuery carries the optional filters of the progress endpoints.
type ProgressQuery struct {
	Subject string `validate:"omitempty,max=200"`
	Term    string `validate:"omitempty,max=32"`
}

// SectionChartRow is the per-paralelo bar chart entry.
type SectionChartRow struct {
	Section             string `json:"paralelo"`
	ElementsTotal       int    `json:"elementos_totales"`
	ElementsEvaluated   int    `json:"elem_evaluados"`
	ElementsCompleted   int    `json:"elem_completados"`
	RemedialsTaken      int    `json:"rec_tomados"`
	RemedialsTotal      int    `json:"rec_totales"`
	CompletedPercentage int    `json:"completados_porcentaje"`
	EvaluatedPercentage int    `json:"evaluados_porcentaje"`
	RemedialsPercentage int    `json:"recuperatorios_porcentaje"`
}

// SectionsResponse bundles the raw per-paralelo progress and its chart rows.
type SectionsResponse struct {
	Subject  string                   `json:"materia"`
	Sections []models.SubjectProgress `json:"paralelos"`
	Chart    []SectionChartRow        `json:"grafico"`
}

// ElementChartRow is one competency element (by EC number) across paralelos.
// Values holds the saberes completion percentage per paralelo; Details is nil
// for paralelos that lack the element.
type ElementChartRow struct {
	EC          string                             `json:"ec"`
	Description string                             `json:"descripcion"`
	Values      map[string]int                     `json:"valores"`
	Details     map[string]*models.ElementProgress `json:"detalle"`
}

// RemedialDetail describes remedial usage of one element in one paralelo.
type RemedialDetail struct {
	Taken       int      `json:"recTomados"`
	Total       int      `json:"recTotales"`
	Dates       []string `json:"recFechas"`
	Description string   `json:"descripcion"`
	EC          string   `json:"ec"`
	Completed   bool     `json:"completado"`
	Evaluated   bool     `json:"evaluado"`
}

// RemedialChartRow is one competency element's remedial usage across paralelos.
type RemedialChartRow struct {
	EC          string                    `json:"ec"`
	Description string                    `json:"descripcion"`
	Values      map[string]int            `json:"valores"`
	Details     map[string]RemedialDetail `json:"detalle"`
}

// ChartsResponse holds both competency chart series for a subject.
type ChartsResponse struct {
	Subject   string             `json:"materia"`
	Sections  []string           `json:"paralelos"`
	Elements  []ElementChartRow  `json:"elementos"`
	Remedials []RemedialChartRow `json:"recuperatorios"`
}
