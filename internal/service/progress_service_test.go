package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/progreso-dashboard/internal/models"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
)

type progressSourceStub struct {
	subjects    []models.SubjectProgress
	sections    []models.SubjectProgress
	elements    []models.SectionElements
	err         error
	calls       int
	lastSubject string
	lastTerm    string
}

func (s *progressSourceStub) SubjectsProgress(ctx context.Context, term string) ([]models.SubjectProgress, error) {
	s.calls++
	s.lastTerm = term
	return s.subjects, s.err
}

func (s *progressSourceStub) SectionPerformance(ctx context.Context, subject, term string) ([]models.SubjectProgress, error) {
	s.calls++
	s.lastSubject, s.lastTerm = subject, term
	return s.sections, s.err
}

func (s *progressSourceStub) ElementsBySection(ctx context.Context, subject, term string) ([]models.SectionElements, error) {
	s.calls++
	s.lastSubject, s.lastTerm = subject, term
	return s.elements, s.err
}

func strPtr(v string) *string { return &v }

func sampleSections() []models.SectionElements {
	return []models.SectionElements{
		{
			Section: "A",
			Teacher: "Ana",
			Elements: []models.ElementProgress{
				{ID: 1, Description: "1. Cinemática", KnowledgeItemsTotal: 4, KnowledgeItemsCompleted: 3, Completed: true,
					Remedials: []models.RemedialState{{Taken: true, Date: strPtr("2024-06-20")}, {Taken: false}, {Taken: true}}},
				{ID: 2, Description: "2. Dinámica", KnowledgeItemsTotal: 0, KnowledgeItemsCompleted: 0},
			},
		},
		{
			Section: "B",
			Teacher: "Beto",
			Elements: []models.ElementProgress{
				{ID: 3, Description: "1. Cinemática (B)", KnowledgeItemsTotal: 3, KnowledgeItemsCompleted: 1,
					Remedials: []models.RemedialState{{Taken: false}}},
			},
		},
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0, Percentage(3, 0))
	assert.Equal(t, 50, Percentage(1, 2))
	assert.Equal(t, 33, Percentage(1, 3))
	assert.Equal(t, 67, Percentage(2, 3))
	assert.Equal(t, 100, Percentage(4, 4))
}

func TestECKey(t *testing.T) {
	assert.Equal(t, "EC1", ECKey("1. Cinemática"))
	assert.Equal(t, "EC12", ECKey("12.Algo.mas"))
	assert.Equal(t, "ECSin punto", ECKey("Sin punto"))
}

func TestBuildSectionChart(t *testing.T) {
	rows := BuildSectionChart([]models.SubjectProgress{
		{Section: "A", ElementsTotal: 4, ElementsCompleted: 3, ElementsEvaluated: 1, RemedialsTotal: 4, RemedialsTaken: 2},
		{Section: "B"},
	})
	require.Len(t, rows, 2)
	assert.Equal(t, 75, rows[0].CompletedPercentage)
	assert.Equal(t, 25, rows[0].EvaluatedPercentage)
	assert.Equal(t, 50, rows[0].RemedialsPercentage)
	assert.Equal(t, 0, rows[1].CompletedPercentage)
}

func TestBuildElementChart(t *testing.T) {
	rows := BuildElementChart(sampleSections())
	require.Len(t, rows, 2)

	assert.Equal(t, "EC1", rows[0].EC)
	assert.Equal(t, "1. Cinemática", rows[0].Description)
	assert.Equal(t, map[string]int{"A": 75, "B": 33}, rows[0].Values)
	require.NotNil(t, rows[0].Details["B"])
	assert.Equal(t, 3, rows[0].Details["B"].ID)

	assert.Equal(t, "EC2", rows[1].EC)
	assert.Equal(t, map[string]int{"A": 0, "B": 0}, rows[1].Values)
	assert.Nil(t, rows[1].Details["B"])
	assert.NotNil(t, rows[1].Details["A"])
}

func TestBuildRemedialChart(t *testing.T) {
	rows := BuildRemedialChart(sampleSections())
	require.Len(t, rows, 2)

	a := rows[0].Details["A"]
	assert.Equal(t, 2, a.Taken)
	assert.Equal(t, 3, a.Total)
	assert.Equal(t, []string{"2024-06-20"}, a.Dates)
	assert.True(t, a.Completed)
	assert.Equal(t, 67, rows[0].Values["A"])
	assert.Equal(t, 0, rows[0].Values["B"])

	missing := rows[1].Details["B"]
	assert.Equal(t, "EC2", missing.EC)
	assert.Equal(t, 0, missing.Total)
	assert.Equal(t, []string{}, missing.Dates)
	assert.Empty(t, missing.Description)
}

func TestProgressServiceBlankSubjectSkipsUpstream(t *testing.T) {
	src := &progressSourceStub{}
	svc := NewProgressService(ProgressServiceParams{Source: src})

	sections, _, err := svc.Sections(context.Background(), "  ", "2024-I")
	require.NoError(t, err)
	assert.Empty(t, sections.Sections)
	assert.NotNil(t, sections.Chart)

	elements, _, err := svc.Elements(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, elements)

	charts, _, err := svc.Charts(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, charts.Elements)
	assert.Zero(t, src.calls)
}

func TestProgressServiceCachesReads(t *testing.T) {
	src := &progressSourceStub{subjects: []models.SubjectProgress{{SubjectName: "Física", ElementsTotal: 2}}}
	cache := NewCacheService(newMemoryCacheRepo(), nil, CacheConfig{Enabled: true}, nil)
	svc := NewProgressService(ProgressServiceParams{Source: src, Cache: cache})

	first, hit, err := svc.Subjects(context.Background(), " 2024-I ")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "2024-I", src.lastTerm)

	second, hit, err := svc.Subjects(context.Background(), "2024-I")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, src.calls)

	require.NoError(t, cache.InvalidateProgress(context.Background()))
	_, hit, err = svc.Subjects(context.Background(), "2024-I")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, src.calls)
}

func TestProgressServiceSectionsAndCharts(t *testing.T) {
	src := &progressSourceStub{
		sections: []models.SubjectProgress{{Section: "A", ElementsTotal: 2, ElementsCompleted: 1}},
		elements: sampleSections(),
	}
	svc := NewProgressService(ProgressServiceParams{Source: src})

	sections, _, err := svc.Sections(context.Background(), "Física", "")
	require.NoError(t, err)
	assert.Equal(t, "Física", src.lastSubject)
	require.Len(t, sections.Chart, 1)
	assert.Equal(t, 50, sections.Chart[0].CompletedPercentage)

	charts, _, err := svc.Charts(context.Background(), "Física", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, charts.Sections)
	assert.Len(t, charts.Elements, 2)
	assert.Len(t, charts.Remedials, 2)
}

func TestProgressServiceErrors(t *testing.T) {
	src := &progressSourceStub{err: appErrors.Clone(appErrors.ErrUpstream, "HTTP error! status: 500")}
	svc := NewProgressService(ProgressServiceParams{Source: src})

	_, _, err := svc.Subjects(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, "UPSTREAM_ERROR", appErrors.FromError(err).Code)

	_, _, err = svc.Sections(context.Background(), strings.Repeat("x", 201), "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
