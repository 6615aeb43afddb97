package importer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/noah-isme/progreso-dashboard/internal/models"
)

// RequiredHeaders lists the columns every import sheet must carry, in report order.
var RequiredHeaders = []string{
	models.ColumnTeacherEmail,
	models.ColumnTeacherName,
	models.ColumnSubjectCode,
	models.ColumnSubjectName,
	models.ColumnTerm,
	models.ColumnSection,
	models.ColumnSubjectImage,
	models.ColumnElementDescription,
	models.ColumnElementDueDate,
	models.ColumnKnowledgeItem,
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Shape only: 2024-13-40 passes.
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Validate checks a normalized model against the raw sheet and returns the
// ordered list of problems. A nil model yields nil. Inputs are not modified.
func Validate(data *models.NormalizedData, headers []string, rows []models.ExcelRow) []string {
	if data == nil {
		return nil
	}

	errs := make([]string, 0)

	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	missing := make([]string, 0)
	for _, h := range RequiredHeaders {
		if _, ok := present[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Sprintf("Faltan columnas requeridas: %s", strings.Join(missing, ", ")))
	}

	for i, teacher := range data.Teachers {
		if !emailPattern.MatchString(teacher.Email) {
			errs = append(errs, fmt.Sprintf("Email inválido en docente %d: %s", i+1, teacher.Email))
		}
	}

	for i, element := range data.Elements {
		if !datePattern.MatchString(element.DueDate) {
			errs = append(errs, fmt.Sprintf("Fecha inválida en elemento %d: %s. Use formato YYYY-MM-DD", i+1, element.DueDate))
		}
	}

	for i, row := range rows {
		for _, field := range RequiredHeaders {
			if strings.TrimSpace(row.Field(field)) == "" {
				errs = append(errs, fmt.Sprintf("Campo vacío en fila %d, columna '%s'", i+2, field))
			}
		}
	}

	return errs
}

// StatusFor maps a validation result onto the terminal session status.
func StatusFor(errs []string) models.ValidationStatus {
	if len(errs) == 0 {
		return models.ValidationValid
	}
	return models.ValidationInvalid
}
