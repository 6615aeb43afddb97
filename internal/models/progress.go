package models

import (
	"encoding/json"
	"fmt"
)

// SubjectProgress is the progress snapshot of a subject or of one of its sections.
type SubjectProgress struct {
	SubjectName        string   `json:"nombre_materia"`
	ElementsTotal      int      `json:"elementos_totales"`
	ElementsCompleted  int      `json:"elem_completados"`
	ElementsEvaluated  int      `json:"elem_evaluados"`
	RemedialsTotal     int      `json:"rec_totales"`
	RemedialsTaken     int      `json:"rec_tomados"`
	OverallProgress    *float64 `json:"progreso_general,omitempty"`
	Evaluations        *int     `json:"evaluaciones,omitempty"`
	KnowledgeItemCount *int     `json:"saberes_minimos,omitempty"`
	Section            string   `json:"paralelo,omitempty"`
}

// KnowledgeItemState is encoded upstream as a [descripcion, completado] tuple.
type KnowledgeItemState struct {
	Description string
	Completed   bool
}

// MarshalJSON encodes the state as a two element array.
func (k KnowledgeItemState) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{k.Description, k.Completed})
}

// UnmarshalJSON decodes a [descripcion, completado] tuple.
func (k *KnowledgeItemState) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("saber minimo: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("saber minimo: expected 2 values, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &k.Description); err != nil {
		return fmt.Errorf("saber minimo descripcion: %w", err)
	}
	if err := json.Unmarshal(raw[1], &k.Completed); err != nil {
		return fmt.Errorf("saber minimo completado: %w", err)
	}
	return nil
}

// RemedialState is encoded upstream as a [tomado, fecha|null] tuple.
type RemedialState struct {
	Taken bool
	Date  *string
}

// MarshalJSON encodes the state as a two element array.
func (r RemedialState) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{r.Taken, r.Date})
}

// UnmarshalJSON decodes a [tomado, fecha] tuple.
func (r *RemedialState) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("recuperatorio: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("recuperatorio: expected 2 values, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Taken); err != nil {
		return fmt.Errorf("recuperatorio tomado: %w", err)
	}
	if err := json.Unmarshal(raw[1], &r.Date); err != nil {
		return fmt.Errorf("recuperatorio fecha: %w", err)
	}
	return nil
}

// ElementProgress is a competency element as tracked for one section.
type ElementProgress struct {
	ID                      int                  `json:"id"`
	Description             string               `json:"descripcion"`
	Completed               bool                 `json:"completado"`
	Evaluated               bool                 `json:"evaluado"`
	KnowledgeItemsTotal     int                  `json:"saberes_totales"`
	KnowledgeItemsCompleted int                  `json:"saberes_completados"`
	DueDate                 string               `json:"fecha_limite"`
	RegisteredAt            *string              `json:"fecha_registro"`
	EvaluatedAt             *string              `json:"fecha_evaluado"`
	Comment                 *string              `json:"comentario"`
	KnowledgeItems          []KnowledgeItemState `json:"saberes_minimos"`
	Remedials               []RemedialState      `json:"recuperatorios"`
}

// SectionElements groups element progress by paralelo.
type SectionElements struct {
	Section  string            `json:"paralelo"`
	Teacher  string            `json:"docente"`
	Elements []ElementProgress `json:"elementos"`
}

// APIEnvelope is the response wrapper used by the remote progress API.
type APIEnvelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
