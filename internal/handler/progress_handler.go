package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/progreso-dashboard/internal/dto"
	"github.com/noah-isme/progreso-dashboard/internal/models"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
	"github.com/noah-isme/progreso-dashboard/pkg/response"
)

type progressService interface {
	Subjects(ctx context.Context, term string) ([]models.SubjectProgress, bool, error)
	Sections(ctx context.Context, subject, term string) (*dto.SectionsResponse, bool, error)
	Elements(ctx context.Context, subject, term string) ([]models.SectionElements, bool, error)
	Charts(ctx context.Context, subject, term string) (*dto.ChartsResponse, bool, error)
}

// ProgressHandler serves the progress dashboard reads.
type ProgressHandler struct {
	service progressService
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(service progressService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// Subjects godoc
// @Summary Progress of every subject
// @Tags Progress
// @Produce json
// @Param gestion query string false "Academic term, e.g. 2024-I"
// @Success 200 {object} response.Envelope
// @Router /materias/progreso [get]
func (h *ProgressHandler) Subjects(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	rows, hit, err := h.service.Subjects(c.Request.Context(), c.Query("gestion"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, withMeta(c, hit))
}

// Sections godoc
// @Summary Per-section performance of a subject
// @Tags Progress
// @Produce json
// @Param name path string true "Subject name"
// @Param gestion query string false "Academic term"
// @Success 200 {object} response.Envelope
// @Router /materias/{name}/rendimiento-paralelo [get]
func (h *ProgressHandler) Sections(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	result, hit, err := h.service.Sections(c.Request.Context(), c.Param("name"), c.Query("gestion"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil, withMeta(c, hit))
}

// Elements godoc
// @Summary Competency elements of a subject grouped by section
// @Tags Progress
// @Produce json
// @Param name path string true "Subject name"
// @Param gestion query string false "Academic term"
// @Success 200 {object} response.Envelope
// @Router /materia/{name}/elementos-por-paralelo [get]
func (h *ProgressHandler) Elements(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	sections, hit, err := h.service.Elements(c.Request.Context(), c.Param("name"), c.Query("gestion"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil, withMeta(c, hit))
}

// Charts godoc
// @Summary Knowledge item and remedial chart series of a subject
// @Tags Progress
// @Produce json
// @Param name path string true "Subject name"
// @Param gestion query string false "Academic term"
// @Success 200 {object} response.Envelope
// @Router /materia/{name}/graficos [get]
func (h *ProgressHandler) Charts(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	charts, hit, err := h.service.Charts(c.Request.Context(), c.Param("name"), c.Query("gestion"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, charts, nil, withMeta(c, hit))
}
