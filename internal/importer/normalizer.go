package importer

import (
	"strconv"

	"github.com/noah-isme/progreso-dashboard/internal/models"
)

type subjectKey struct {
	code    string
	term    string
	section string
}

func keyOf(row models.ExcelRow) subjectKey {
	return subjectKey{code: row.SubjectCode, term: row.Term, section: row.Section}
}

type elementKey struct {
	subject     subjectKey
	description string
}

type elementDraft struct {
	element models.CompetencyElement
	seen    map[string]struct{}
}

// builder folds rows into insertion-ordered maps. It is single use.
type builder struct {
	teacherOrder []string
	teachers     map[string]models.Teacher

	subjectOrder []subjectKey
	subjects     map[subjectKey]models.Subject

	elementOrder []elementKey
	elements     map[elementKey]*elementDraft

	nextID int
}

func newBuilder() *builder {
	return &builder{
		teachers: make(map[string]models.Teacher),
		subjects: make(map[subjectKey]models.Subject),
		elements: make(map[elementKey]*elementDraft),
		nextID:   1,
	}
}

func (b *builder) add(row models.ExcelRow) {
	if _, ok := b.teachers[row.TeacherEmail]; !ok {
		b.teachers[row.TeacherEmail] = models.Teacher{Email: row.TeacherEmail, Name: row.TeacherName}
		b.teacherOrder = append(b.teacherOrder, row.TeacherEmail)
	}

	sk := keyOf(row)
	subject, ok := b.subjects[sk]
	if !ok {
		subject = models.Subject{
			ID:           strconv.Itoa(b.nextID),
			Name:         row.SubjectName,
			ImageRef:     row.SubjectImage,
			TeacherEmail: row.TeacherEmail,
			Section:      row.Section,
			Code:         row.SubjectCode,
			Term:         row.Term,
		}
		b.nextID++
		b.subjects[sk] = subject
		b.subjectOrder = append(b.subjectOrder, sk)
	}

	ek := elementKey{subject: sk, description: row.ElementDescription}
	draft, ok := b.elements[ek]
	if !ok {
		draft = &elementDraft{
			element: models.CompetencyElement{
				SubjectID:      subject.ID,
				Description:    row.ElementDescription,
				DueDate:        row.ElementDueDate,
				KnowledgeItems: []string{},
			},
			seen: make(map[string]struct{}),
		}
		b.elements[ek] = draft
		b.elementOrder = append(b.elementOrder, ek)
	}
	if _, dup := draft.seen[row.KnowledgeItem]; !dup {
		draft.seen[row.KnowledgeItem] = struct{}{}
		draft.element.KnowledgeItems = append(draft.element.KnowledgeItems, row.KnowledgeItem)
	}
}

func (b *builder) build() models.NormalizedData {
	out := models.NormalizedData{
		Teachers: make([]models.Teacher, 0, len(b.teacherOrder)),
		Subjects: make([]models.Subject, 0, len(b.subjectOrder)),
		Elements: make([]models.CompetencyElement, 0, len(b.elementOrder)),
	}

	for _, email := range b.teacherOrder {
		out.Teachers = append(out.Teachers, b.teachers[email])
	}

	for _, ek := range b.elementOrder {
		el := b.elements[ek].element
		el.KnowledgeItems = append([]string{}, el.KnowledgeItems...)
		el.KnowledgeItemCount = len(el.KnowledgeItems)
		out.Elements = append(out.Elements, el)
	}

	for _, sk := range b.subjectOrder {
		subject := b.subjects[sk]
		subject.ElementCount = 0
		subject.KnowledgeItemCount = 0
		for _, el := range out.Elements {
			if el.SubjectID != subject.ID {
				continue
			}
			subject.ElementCount++
			subject.KnowledgeItemCount += len(el.KnowledgeItems)
		}
		subject.RemedialCount = subject.ElementCount
		out.Subjects = append(out.Subjects, subject)
	}

	return out
}

// Normalize folds spreadsheet rows into deduplicated teachers, subjects and
// competency elements, in first-seen order. Subject ids start at "1" for
// every call.
func Normalize(rows []models.ExcelRow) models.NormalizedData {
	b := newBuilder()
	for _, row := range rows {
		b.add(row)
	}
	return b.build()
}
