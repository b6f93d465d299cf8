package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aretw0/fieldwork/pkg/domain"
)

const (
	// MinTitleLength is the minimum trimmed length of a survey title.
	MinTitleLength = 3
	// MaxDescriptionLength is the maximum trimmed length of a survey description.
	MaxDescriptionLength = 1000
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate parses the date formats accepted for start dates and deadlines.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Errors is an ordered list of draft defects.
type Errors []domain.ValidationError

// Messages returns the human-readable message of every error, in order.
func (e Errors) Messages() []string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return msgs
}

// Join concatenates the messages with sep.
func (e Errors) Join(sep string) string {
	return strings.Join(e.Messages(), sep)
}

// Fields returns the field identifier of every error, in order.
func (e Errors) Fields() []string {
	fields := make([]string, len(e))
	for i, v := range e {
		fields[i] = v.Field
	}
	return fields
}

// AsError returns nil when there are no errors, otherwise a
// *domain.DraftValidationError carrying the list.
func (e Errors) AsError() error {
	if len(e) == 0 {
		return nil
	}
	return &domain.DraftValidationError{Errors: append([]domain.ValidationError(nil), e...)}
}

// ValidateDraft validates a whole draft.
func ValidateDraft(d *domain.SurveyDraft) Errors {
	return ValidateSurveyData(d.Title, d.Description, d.StartDate, d.Deadline, d.Sections)
}

// ValidateSurveyData inspects survey metadata and sections and returns every
// defect found. An empty section list short-circuits after the metadata checks;
// a section without questions skips its own question checks only.
func ValidateSurveyData(title, description string, startDate, deadline *string, sections []domain.Section) Errors {
	var errs Errors
	add := func(field, msg string) {
		errs = append(errs, domain.ValidationError{Field: field, Message: msg})
	}

	trimmedTitle := strings.TrimSpace(title)
	if trimmedTitle == "" {
		add("title", "El título de la encuesta es obligatorio")
	}
	if utf8.RuneCountInString(trimmedTitle) < MinTitleLength {
		add("title", fmt.Sprintf("El título debe tener al menos %d caracteres", MinTitleLength))
	}

	if utf8.RuneCountInString(strings.TrimSpace(description)) > MaxDescriptionLength {
		add("description", fmt.Sprintf("La descripción no puede exceder %d caracteres", MaxDescriptionLength))
	}

	if startDate != nil && deadline != nil {
		start, okStart := ParseDate(*startDate)
		end, okEnd := ParseDate(*deadline)
		if okStart && okEnd && start.After(end) {
			add("dates", "La fecha de inicio no puede ser posterior a la fecha límite")
		}
	}

	if len(sections) == 0 {
		add("sections", "La encuesta debe tener al menos una sección")
		return errs
	}

	for i, section := range sections {
		prefix := fmt.Sprintf("section_%d", i)

		if strings.TrimSpace(section.Title) == "" {
			add(prefix+"_title", fmt.Sprintf("La sección %d debe tener un título", i+1))
		}

		if len(section.Questions) == 0 {
			add(prefix+"_questions", fmt.Sprintf("La sección %d debe tener al menos una pregunta", i+1))
			continue
		}

		for q, question := range section.Questions {
			errs = append(errs, validateQuestion(fmt.Sprintf("%s_question_%d", prefix, q), i, q, question)...)
		}

		if section.SkipLogic.MissingTarget() {
			add(prefix+"_skip_logic", fmt.Sprintf("La lógica de salto de la sección %d requiere un destino", i+1))
		}
	}

	return errs
}

func validateQuestion(field string, sectionIndex, questionIndex int, q domain.Question) Errors {
	var errs Errors
	add := func(f, msg string) {
		errs = append(errs, domain.ValidationError{Field: f, Message: msg})
	}
	label := fmt.Sprintf("La pregunta %d de la sección %d", questionIndex+1, sectionIndex+1)

	if strings.TrimSpace(q.Text) == "" {
		add(field, label+" debe tener texto")
	}

	if q.Type.HasOptions() && len(q.Options) == 0 {
		add(field+"_options", label+" debe tener al menos una opción")
	}

	if q.Type == domain.QuestionMatrix && (len(q.MatrixRows) == 0 || len(q.MatrixCols) == 0) {
		add(field+"_matrix", label+" debe tener filas y columnas")
	}

	if q.Type == domain.QuestionRating && q.Config != nil {
		cfg := q.Config
		if cfg.ScaleMin == nil || cfg.ScaleMax == nil || *cfg.ScaleMin >= *cfg.ScaleMax {
			add(field+"_rating", label+" debe tener una escala válida (mínimo menor que máximo)")
		}
	}

	if q.Config != nil && q.Config.SkipLogic != nil && q.Config.SkipLogic.Enabled {
		for r, rule := range q.Config.SkipLogic.Rules {
			if !rule.HasTarget() {
				add(fmt.Sprintf("%s_skip_logic_%d", field, r),
					fmt.Sprintf("%s: la regla de salto %d debe tener un destino", label, r+1))
			}
		}
	}

	return errs
}
