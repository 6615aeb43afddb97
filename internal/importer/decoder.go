package importer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/progreso-dashboard/internal/models"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
)

// DefaultMaxFileSize is the upload ceiling used when none is configured.
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DefaultExtensions are the accepted workbook suffixes.
var DefaultExtensions = []string{".xlsx", ".xls"}

// Sheet is the decoded content of a workbook's first worksheet.
type Sheet struct {
	Headers []string
	Rows    []models.ExcelRow
}

// CheckFile applies the cheap checks that run before any parsing: suffix and size.
// The suffix match is case-sensitive.
func CheckFile(name string, size, maxSize int64, extensions []string) error {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	allowed := false
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			allowed = true
			break
		}
	}
	if !allowed {
		return appErrors.Clone(appErrors.ErrValidation, "Por favor, sube un archivo Excel (.xlsx o .xls)")
	}
	if size > maxSize {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("El archivo es muy grande. Tamaño máximo: %s", FormatFileSize(maxSize)))
	}
	return nil
}

// Decode reads the first worksheet of an Excel workbook. The first row is the
// header list; each following non-blank row becomes an ExcelRow keyed by header.
// A sheet without data rows is rejected.
func Decode(content []byte) (*Sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFile.Code, appErrors.ErrReadFile.Status, appErrors.ErrReadFile.Message)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, emptySheetError()
	}

	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReadFile.Code, appErrors.ErrReadFile.Status, appErrors.ErrReadFile.Message)
	}
	if len(grid) == 0 {
		return nil, emptySheetError()
	}

	headerRow := grid[0]
	headers := make([]string, 0, len(headerRow))
	for _, cell := range headerRow {
		if cell != "" {
			headers = append(headers, cell)
		}
	}

	rows := make([]models.ExcelRow, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		if blank(cells) {
			continue
		}
		var row models.ExcelRow
		for i, cell := range cells {
			if i >= len(headerRow) {
				break
			}
			row.SetField(headerRow[i], cell)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, emptySheetError()
	}

	return &Sheet{Headers: headers, Rows: rows}, nil
}

func blank(cells []string) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}
	return true
}

func emptySheetError() error {
	return appErrors.Clone(appErrors.ErrValidation, "El archivo Excel está vacío")
}
