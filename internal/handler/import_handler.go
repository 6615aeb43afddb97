package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/progreso-dashboard/internal/dto"
	"github.com/noah-isme/progreso-dashboard/internal/importer"
	"github.com/noah-isme/progreso-dashboard/internal/middleware"
	"github.com/noah-isme/progreso-dashboard/internal/models"
	"github.com/noah-isme/progreso-dashboard/internal/service"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
	"github.com/noah-isme/progreso-dashboard/pkg/export"
	"github.com/noah-isme/progreso-dashboard/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type importService interface {
	Open(ctx context.Context, in service.UploadInput, actor string) (*dto.ImportSession, error)
	Get(ctx context.Context, id, actor string) (*dto.ImportSession, error)
	Discard(ctx context.Context, id, actor string) error
	Validate(ctx context.Context, id, actor string) (*dto.ImportSession, error)
	Upload(ctx context.Context, id, token, actor string) (*dto.UploadResult, error)
	Report(ctx context.Context, id string, format export.Format, actor string) ([]byte, string, error)
	Template() ([]byte, error)
}

type importHistory interface {
	Recent(ctx context.Context, limit int) ([]models.ImportAudit, error)
}

// ImportHandler exposes the Excel import workflow.
type ImportHandler struct {
	imports   importService
	history   importHistory
	validator *validator.Validate
}

// NewImportHandler constructs the handler. history may be nil when auditing is off.
func NewImportHandler(imports importService, history importHistory) *ImportHandler {
	return &ImportHandler{imports: imports, history: history, validator: validator.New()}
}

// Open godoc
// @Summary Upload a workbook and open an import session
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Excel workbook (.xlsx or .xls)"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /imports [post]
func (h *ImportHandler) Open(c *gin.Context) {
	if h.imports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor := actorFromContext(c)
	if actor == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrReadFile.Code, appErrors.ErrReadFile.Status, appErrors.ErrReadFile.Message))
		return
	}
	defer file.Close()

	session, err := h.imports.Open(c.Request.Context(), service.UploadInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Fetch an import session
// @Tags Imports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /imports/{id} [get]
func (h *ImportHandler) Get(c *gin.Context) {
	if h.imports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	session, err := h.imports.Get(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Discard godoc
// @Summary Cancel an import session
// @Tags Imports
// @Param id path string true "Session ID"
// @Success 204
// @Router /imports/{id} [delete]
func (h *ImportHandler) Discard(c *gin.Context) {
	if h.imports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	if err := h.imports.Discard(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Validate godoc
// @Summary Validate the normalized data of a session
// @Tags Imports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /imports/{id}/validate [post]
func (h *ImportHandler) Validate(c *gin.Context) {
	if h.imports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	session, err := h.imports.Validate(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["error_count"] = len(session.Errors)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, session, nil, meta)
}

// Upload godoc
// @Summary Send validated data to the progress API
// @Tags Imports
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /imports/{id}/upload [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	if h.imports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	token := tokenFromContext(c)
	if token == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.imports.Upload(c.Request.Context(), c.Param("id"), token, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Report godoc
// @Summary Download the per-subject summary of a session
// @Tags Imports
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Session ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /imports/{id}/report [get]
func (h *ImportHandler) Report(c *gin.Context) {
	if h.imports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	payload, filename, err := h.imports.Report(c.Request.Context(), c.Param("id"), format, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, format.ContentType(), filename, payload)
}

// Template godoc
// @Summary Download the import template workbook
// @Tags Imports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /imports/template [get]
func (h *ImportHandler) Template(c *gin.Context) {
	if h.imports == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	payload, err := h.imports.Template()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, xlsxContentType, importer.TemplateFileName, payload)
}

// History godoc
// @Summary Recent uploads recorded in the audit log
// @Tags Imports
// @Produce json
// @Param limit query int false "Max rows (1-200)" default(50)
// @Success 200 {object} response.Envelope
// @Router /imports/history [get]
func (h *ImportHandler) History(c *gin.Context) {
	var query dto.HistoryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a number"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "limit must be between 1 and 200"))
		return
	}
	if h.history == nil {
		response.JSON(c, http.StatusOK, []models.ImportAudit{}, nil)
		return
	}
	items, err := h.history.Recent(c.Request.Context(), query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if items == nil {
		items = []models.ImportAudit{}
	}
	response.JSON(c, http.StatusOK, items, nil)
}
