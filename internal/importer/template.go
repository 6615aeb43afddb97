package importer

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	// TemplateSheet is the worksheet name of the downloadable template.
	TemplateSheet = "Plantilla"
	// TemplateFileName is the suggested download name.
	TemplateFileName = "plantilla_carga_datos.xlsx"
)

var templateRows = [][]string{
	{"juan.perez@email.com", "Juan Pérez", "MAT101", "Matemáticas Básicas", "2024-I", "A", "https://example.com/math.jpg", "Resolver ecuaciones lineales", "2024-06-15", "Identificar variables en ecuaciones"},
	{"juan.perez@email.com", "Juan Pérez", "MAT101", "Matemáticas Básicas", "2024-I", "A", "https://example.com/math.jpg", "Resolver ecuaciones lineales", "2024-06-15", "Aplicar propiedades algebraicas"},
	{"maria.garcia@email.com", "María García", "FIS201", "Física General", "2024-I", "B", "https://example.com/physics.jpg", "Cinemática básica", "2024-07-01", "Calcular velocidad y aceleración"},
}

// Template renders the sample workbook users fill in before importing.
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), TemplateSheet); err != nil {
		return nil, fmt.Errorf("rename template sheet: %w", err)
	}

	if err := writeRow(f, 1, RequiredHeaders); err != nil {
		return nil, err
	}
	for i, row := range templateRows {
		if err := writeRow(f, i+2, row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(TemplateSheet, "A", "J", 24); err != nil {
		return nil, fmt.Errorf("size template columns: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("template cell: %w", err)
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(TemplateSheet, cell, &cells); err != nil {
		return fmt.Errorf("write template row %d: %w", rowNum, err)
	}
	return nil
}
