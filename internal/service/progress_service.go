package service

import (
	"context"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/progreso-dashboard/internal/dto"
	"github.com/noah-isme/progreso-dashboard/internal/models"
	appErrors "github.com/noah-isme/progreso-dashboard/pkg/errors"
)

type progressSource interface {
	SubjectsProgress(ctx context.Context, term string) ([]models.SubjectProgress, error)
	SectionPerformance(ctx context.Context, subject, term string) ([]models.SubjectProgress, error)
	ElementsBySection(ctx context.Context, subject, term string) ([]models.SectionElements, error)
}

// ProgressServiceParams groups constructor dependencies.
type ProgressServiceParams struct {
	Source    progressSource
	Cache     *CacheService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// ProgressService serves progress reads from the remote API and derives chart series.
type ProgressService struct {
	source    progressSource
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProgressService constructs a ProgressService.
func NewProgressService(params ProgressServiceParams) *ProgressService {
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{
		source:    params.Source,
		cache:     params.Cache,
		validator: validate,
		logger:    logger,
	}
}

// Subjects returns the progress of every subject, optionally filtered by gestion.
func (s *ProgressService) Subjects(ctx context.Context, term string) ([]models.SubjectProgress, bool, error) {
	query, err := s.query("", term)
	if err != nil {
		return nil, false, err
	}
	out := make([]models.SubjectProgress, 0)
	hit, err := s.cache.Remember(ctx, ProgressKey("subjects", query.Term), &out, func(ctx context.Context) (interface{}, error) {
		rows, err := s.source.SubjectsProgress(ctx, query.Term)
		if err != nil {
			return nil, err
		}
		return nonNilProgress(rows), nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, hit, nil
}

// Sections returns per-paralelo progress of a subject plus its bar chart rows.
func (s *ProgressService) Sections(ctx context.Context, subject, term string) (*dto.SectionsResponse, bool, error) {
	query, err := s.query(subject, term)
	if err != nil {
		return nil, false, err
	}
	if query.Subject == "" {
		return &dto.SectionsResponse{Sections: []models.SubjectProgress{}, Chart: []dto.SectionChartRow{}}, false, nil
	}
	var out dto.SectionsResponse
	hit, err := s.cache.Remember(ctx, ProgressKey("sections", query.Subject, query.Term), &out, func(ctx context.Context) (interface{}, error) {
		rows, err := s.source.SectionPerformance(ctx, query.Subject, query.Term)
		if err != nil {
			return nil, err
		}
		rows = nonNilProgress(rows)
		return dto.SectionsResponse{Subject: query.Subject, Sections: rows, Chart: BuildSectionChart(rows)}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return &out, hit, nil
}

// Elements returns competency elements of a subject grouped by paralelo.
func (s *ProgressService) Elements(ctx context.Context, subject, term string) ([]models.SectionElements, bool, error) {
	query, err := s.query(subject, term)
	if err != nil {
		return nil, false, err
	}
	if query.Subject == "" {
		return []models.SectionElements{}, false, nil
	}
	out := make([]models.SectionElements, 0)
	hit, err := s.cache.Remember(ctx, ProgressKey("elements", query.Subject, query.Term), &out, func(ctx context.Context) (interface{}, error) {
		rows, err := s.source.ElementsBySection(ctx, query.Subject, query.Term)
		if err != nil {
			return nil, err
		}
		if rows == nil {
			rows = []models.SectionElements{}
		}
		return rows, nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, hit, nil
}

// Charts derives the saberes and remedial chart series of a subject.
func (s *ProgressService) Charts(ctx context.Context, subject, term string) (*dto.ChartsResponse, bool, error) {
	sections, hit, err := s.Elements(ctx, subject, term)
	if err != nil {
		return nil, false, err
	}
	names := make([]string, 0, len(sections))
	for _, section := range sections {
		names = append(names, section.Section)
	}
	return &dto.ChartsResponse{
		Subject:   strings.TrimSpace(subject),
		Sections:  names,
		Elements:  BuildElementChart(sections),
		Remedials: BuildRemedialChart(sections),
	}, hit, nil
}

func (s *ProgressService) query(subject, term string) (dto.ProgressQuery, error) {
	query := dto.ProgressQuery{Subject: strings.TrimSpace(subject), Term: strings.TrimSpace(term)}
	if err := s.validator.Struct(query); err != nil {
		return query, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress query")
	}
	if s.source == nil {
		return query, appErrors.Clone(appErrors.ErrInternal, "progress source not configured")
	}
	return query, nil
}

// Percentage rounds part/total*100 half up and returns 0 when total is 0.
func Percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)/float64(total)*100 + 0.5))
}

// BuildSectionChart maps per-paralelo progress onto chart rows.
func BuildSectionChart(rows []models.SubjectProgress) []dto.SectionChartRow {
	out := make([]dto.SectionChartRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.SectionChartRow{
			Section:             row.Section,
			ElementsTotal:       row.ElementsTotal,
			ElementsEvaluated:   row.ElementsEvaluated,
			ElementsCompleted:   row.ElementsCompleted,
			RemedialsTaken:      row.RemedialsTaken,
			RemedialsTotal:      row.RemedialsTotal,
			CompletedPercentage: Percentage(row.ElementsCompleted, row.ElementsTotal),
			EvaluatedPercentage: Percentage(row.ElementsEvaluated, row.ElementsTotal),
			RemedialsPercentage: Percentage(row.RemedialsTaken, row.RemedialsTotal),
		})
	}
	return out
}

// ECKey derives the competency element label from its description: the text
// before the first '.' prefixed with "EC", so "1. Cinemática" is "EC1".
func ECKey(description string) string {
	number, _, _ := strings.Cut(description, ".")
	return "EC" + number
}

type ecEntry struct {
	key         string
	description string
}

func distinctECs(sections []models.SectionElements) []ecEntry {
	seen := make(map[string]struct{})
	out := make([]ecEntry, 0)
	for _, section := range sections {
		for _, el := range section.Elements {
			key := ECKey(el.Description)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, ecEntry{key: key, description: el.Description})
		}
	}
	return out
}

func findByEC(section models.SectionElements, key string) *models.ElementProgress {
	for i := range section.Elements {
		if ECKey(section.Elements[i].Description) == key {
			el := section.Elements[i]
			return &el
		}
	}
	return nil
}

// BuildElementChart computes, per EC and paralelo, the percentage of saberes completed.
func BuildElementChart(sections []models.SectionElements) []dto.ElementChartRow {
	ecs := distinctECs(sections)
	out := make([]dto.ElementChartRow, 0, len(ecs))
	for _, ec := range ecs {
		row := dto.ElementChartRow{
			EC:          ec.key,
			Description: ec.description,
			Values:      make(map[string]int, len(sections)),
			Details:     make(map[string]*models.ElementProgress, len(sections)),
		}
		for _, section := range sections {
			el := findByEC(section, ec.key)
			if el == nil {
				row.Values[section.Section] = 0
				row.Details[section.Section] = nil
				continue
			}
			row.Values[section.Section] = Percentage(el.KnowledgeItemsCompleted, el.KnowledgeItemsTotal)
			row.Details[section.Section] = el
		}
		out = append(out, row)
	}
	return out
}

// BuildRemedialChart computes, per EC and paralelo, the share of remedial exams
// taken together with the dates they were taken.
func BuildRemedialChart(sections []models.SectionElements) []dto.RemedialChartRow {
	ecs := distinctECs(sections)
	out := make([]dto.RemedialChartRow, 0, len(ecs))
	for _, ec := range ecs {
		row := dto.RemedialChartRow{
			EC:          ec.key,
			Description: ec.description,
			Values:      make(map[string]int, len(sections)),
			Details:     make(map[string]dto.RemedialDetail, len(sections)),
		}
		for _, section := range sections {
			detail := dto.RemedialDetail{EC: ec.key, Dates: []string{}}
			if el := findByEC(section, ec.key); el != nil {
				detail.Description = el.Description
				detail.Completed = el.Completed
				detail.Evaluated = el.Evaluated
				detail.Total = len(el.Remedials)
				for _, rec := range el.Remedials {
					if !rec.Taken {
						continue
					}
					detail.Taken++
					if rec.Date != nil && *rec.Date != "" {
						detail.Dates = append(detail.Dates, *rec.Date)
					}
				}
			}
			row.Values[section.Section] = Percentage(detail.Taken, detail.Total)
			row.Details[section.Section] = detail
		}
		out = append(out, row)
	}
	return out
}

func nonNilProgress(rows []models.SubjectProgress) []models.SubjectProgress {
	if rows == nil {
		return []models.SubjectProgress{}
	}
	return rows
}
