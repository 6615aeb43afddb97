package importer

import (
	"fmt"

	"github.com/noah-isme/progreso-dashboard/internal/models"
)

// SummaryMessage renders the confirmation shown after an accepted upload.
// Missing counts print as 0.
func SummaryMessage(summary *models.UploadSummary) string {
	var s models.UploadSummary
	if summary != nil {
		s = *summary
	}
	return fmt.Sprintf("Carga completada exitosamente:\n• %d docentes procesados\n• %d materias procesadas\n• %d elementos procesados\n• %d saberes totales",
		s.TeachersProcessed, s.SubjectsProcessed, s.ElementsProcessed, s.KnowledgeItems)
}

// KnowledgeItemTotal sums the saberes of every element.
func KnowledgeItemTotal(data models.NormalizedData) int {
	total := 0
	for _, el := range data.Elements {
		total += el.KnowledgeItemCount
	}
	return total
}
