package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/progreso-dashboard/internal/dto"
	"github.com/noah-isme/progreso-dashboard/internal/models"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
)

type progressServiceStub struct {
	subjects    []models.SubjectProgress
	sections    *dto.SectionsResponse
	elements    []models.SectionElements
	charts      *dto.ChartsResponse
	hit         bool
	err         error
	lastSubject string
	lastTerm    string
}

func (s *progressServiceStub) Subjects(ctx context.Context, term string) ([]models.SubjectProgress, bool, error) {
	s.lastTerm = term
	return s.subjects, s.hit, s.err
}

func (s *progressServiceStub) Sections(ctx context.Context, subject, term string) (*dto.SectionsResponse, bool, error) {
	s.lastSubject, s.lastTerm = subject, term
	return s.sections, s.hit, s.err
}

func (s *progressServiceStub) Elements(ctx context.Context, subject, term string) ([]models.SectionElements, bool, error) {
	s.lastSubject, s.lastTerm = subject, term
	return s.elements, s.hit, s.err
}

func (s *progressServiceStub) Charts(ctx context.Context, subject, term string) (*dto.ChartsResponse, bool, error) {
	s.lastSubject, s.lastTerm = subject, term
	return s.charts, s.hit, s.err
}

func TestProgressHandlerSubjects(t *testing.T) {
	svc := &progressServiceStub{
		subjects: []models.SubjectProgress{{SubjectName: "Física", ElementsTotal: 4, ElementsCompleted: 2}},
		hit:      true,
	}
	handler := NewProgressHandler(svc)

	c, w := newGinContext(http.MethodGet, "/materias/progreso?gestion=2024-I", nil)
	handler.Subjects(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-I", svc.lastTerm)
	env := decodeEnvelope(t, w)
	var rows []models.SubjectProgress
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Física", rows[0].SubjectName)
	assert.Equal(t, true, env.Meta["cache_hit"])
}

func TestProgressHandlerSectionsUsesPathName(t *testing.T) {
	svc := &progressServiceStub{sections: &dto.SectionsResponse{Subject: "Física"}}
	handler := NewProgressHandler(svc)

	c, w := newGinContext(http.MethodGet, "/materias/F%C3%ADsica/rendimiento-paralelo", nil)
	c.Params = gin.Params{{Key: "name", Value: "Física"}}
	handler.Sections(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Física", svc.lastSubject)
	assert.Empty(t, svc.lastTerm)
}

func TestProgressHandlerElementsAndCharts(t *testing.T) {
	svc := &progressServiceStub{
		elements: []models.SectionElements{{Section: "A", Teacher: "Ana"}},
		charts:   &dto.ChartsResponse{Subject: "Física", Sections: []string{"A"}},
	}
	handler := NewProgressHandler(svc)

	c, w := newGinContext(http.MethodGet, "/materia/Física/elementos-por-paralelo?gestion=2024-II", nil)
	c.Params = gin.Params{{Key: "name", Value: "Física"}}
	handler.Elements(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-II", svc.lastTerm)

	c, w = newGinContext(http.MethodGet, "/materia/Física/graficos", nil)
	c.Params = gin.Params{{Key: "name", Value: "Física"}}
	handler.Charts(c)
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	var charts dto.ChartsResponse
	require.NoError(t, json.Unmarshal(env.Data, &charts))
	assert.Equal(t, []string{"A"}, charts.Sections)
}

func TestProgressHandlerMapsUpstreamErrors(t *testing.T) {
	svc := &progressServiceStub{err: appErrors.Clone(appErrors.ErrUpstream, "HTTP error! status: 500")}
	handler := NewProgressHandler(svc)

	c, w := newGinContext(http.MethodGet, "/materias/progreso", nil)
	handler.Subjects(c)

	require.Equal(t, http.StatusBadGateway, w.Code)
	env := decodeEnvelope(t, w)
	require.NotNil(t, env.Error)
	assert.Equal(t, "HTTP error! status: 500", env.Error.Message)
}

func TestProgressHandlerWithoutService(t *testing.T) {
	handler := NewProgressHandler(nil)
	c, w := newGinContext(http.MethodGet, "/materias/progreso", nil)
	handler.Subjects(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
