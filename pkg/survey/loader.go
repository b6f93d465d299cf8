package survey

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// Loader rebuilds drafts from the record store.
type Loader struct {
	store  ports.RecordStore
	logger *slog.Logger
}

// LoaderOption configures the Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger configures a logger for the Loader.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader reading from store.
func NewLoader(store ports.RecordStore, opts ...LoaderOption) *Loader {
	l := &Loader{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadDraft returns the stored survey with its sections and questions in order.
// It returns domain.ErrSurveyNotFound when no survey has the id.
func (l *Loader) LoadDraft(ctx context.Context, surveyID string) (*domain.SurveyDraft, error) {
	surveys, err := l.store.Select(ctx, ports.TableSurveys, ports.Where("id", surveyID))
	if err != nil {
		return nil, domain.NewPersistenceError("select", ports.TableSurveys, err)
	}
	if len(surveys) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrSurveyNotFound, surveyID)
	}

	d, err := decodeSurvey(surveys[0])
	if err != nil {
		return nil, err
	}

	sections, err := l.store.Select(ctx, ports.TableSections,
		ports.Where("survey_id", surveyID).Ordered("order_num"))
	if err != nil {
		return nil, domain.NewPersistenceError("select", ports.TableSections, err)
	}

	d.Sections = make([]domain.Section, 0, len(sections))
	for _, rec := range sections {
		var sec domain.Section
		if err := decode(rec, &sec); err != nil {
			return nil, fmt.Errorf("failed to decode section %s: %w", rec.ID(), err)
		}

		questions, err := l.store.Select(ctx, ports.TableQuestions,
			ports.Where("section_id", sec.ID).Ordered("order_num"))
		if err != nil {
			return nil, domain.NewPersistenceError("select", ports.TableQuestions, err)
		}
		sec.Questions = make([]domain.Question, 0, len(questions))
		for _, qrec := range questions {
			q, err := decodeQuestion(qrec)
			if err != nil {
				return nil, err
			}
			sec.Questions = append(sec.Questions, q)
		}
		d.Sections = append(d.Sections, sec)
	}

	l.logger.Debug("Draft loaded", "survey_id", surveyID, "sections", len(d.Sections))
	return d, nil
}

type surveyColumns struct {
	ID          string         `mapstructure:"id"`
	ProjectID   string         `mapstructure:"project_id"`
	Title       string         `mapstructure:"title"`
	Description string         `mapstructure:"description"`
	StartDate   *string        `mapstructure:"start_date"`
	Deadline    *string        `mapstructure:"deadline"`
	Status      string         `mapstructure:"status"`
	Settings    map[string]any `mapstructure:"settings"`
}

func decodeSurvey(rec ports.Record) (*domain.SurveyDraft, error) {
	var cols surveyColumns
	if err := decode(rec, &cols); err != nil {
		return nil, fmt.Errorf("failed to decode survey %s: %w", rec.ID(), err)
	}

	settings, err := DecodeSettings(cols.Settings)
	if err != nil {
		return nil, fmt.Errorf("failed to decode survey settings: %w", err)
	}
	// The flattened columns win over the settings blob.
	if err := decode(flattenedSettings(rec), &settings); err != nil {
		return nil, fmt.Errorf("failed to decode survey settings: %w", err)
	}

	return &domain.SurveyDraft{
		ID:          cols.ID,
		ProjectID:   cols.ProjectID,
		Title:       cols.Title,
		Description: cols.Description,
		StartDate:   cols.StartDate,
		Deadline:    cols.Deadline,
		Status:      domain.SurveyStatus(cols.Status),
		Settings:    settings,
	}, nil
}

func flattenedSettings(rec ports.Record) map[string]any {
	out := make(map[string]any)
	for _, col := range []string{"branding", "theme", "security", "notifications", "assigned_surveyors", "assigned_zones"} {
		if v, ok := rec[col]; ok && v != nil {
			out[col] = v
		}
	}
	return out
}

func decodeQuestion(rec ports.Record) (domain.Question, error) {
	in := make(map[string]any, len(rec))
	for k, v := range rec {
		in[k] = v
	}
	if cfg, ok := in["question_config"].(map[string]any); ok && len(cfg) == 0 {
		delete(in, "question_config")
	}

	var q domain.Question
	if err := decode(in, &q); err != nil {
		return q, fmt.Errorf("failed to decode question %s: %w", rec.ID(), err)
	}
	return q, nil
}

// DecodeSettings converts a loosely typed settings map, as read from JSON,
// YAML or a record store, into SurveySettings.
func DecodeSettings(raw map[string]any) (domain.SurveySettings, error) {
	var s domain.SurveySettings
	if len(raw) == 0 {
		return s, nil
	}
	err := decode(raw, &s)
	return s, err
}

func decode(input, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}
