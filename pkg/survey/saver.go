package survey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/observability"
	"github.com/aretw0/fieldwork/pkg/ports"
	"github.com/aretw0/fieldwork/pkg/validation"
)

// SaveRequest is one "save this section" action on a draft.
type SaveRequest struct {
	SectionID       string
	CurrentSurveyID string
	ProjectID       string
	UserID          string
	Title           string
	Description     string
	StartDate       *string
	Deadline        *string
	Status          domain.SurveyStatus
	Settings        domain.SurveySettings
	Sections        []domain.Section

	// OnSurveyIDAssigned is called once the survey record exists, before the
	// section is written, when CurrentSurveyID was empty.
	OnSurveyIDAssigned func(surveyID string)

	// OnSectionStatesChanged receives the saved section (keyed by SectionID)
	// as saved and every other section of the draft as not-saved.
	OnSectionStatesChanged func(states map[string]domain.SaveState)
}

// SaveResult describes a successful save.
type SaveResult struct {
	Success     bool     `json:"success"`
	SectionID   string   `json:"section_id"`
	SurveyID    string   `json:"survey_id"`
	QuestionIDs []string `json:"question_ids"`
}

// Saver persists one section of a draft at a time.
type Saver struct {
	store   ports.RecordStore
	creator *Creator
	metrics *observability.Metrics
	logger  *slog.Logger
}

// Option configures the Saver.
type Option func(*Saver)

// WithLogger configures a logger for the Saver and its Creator.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Saver) {
		s.logger = logger
	}
}

// WithMetrics records save outcomes and validation failures.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Saver) {
		s.metrics = m
	}
}

// NewSaver creates a Saver writing to store.
func NewSaver(store ports.RecordStore, opts ...Option) *Saver {
	s := &Saver{store: store, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.creator = NewCreator(store, WithCreatorLogger(s.logger))
	return s
}

// SaveSection validates the whole draft and persists the requested section:
// the survey record is created if needed, then the section is upserted and
// its questions are replaced as a set. Steps run strictly in that order and
// the first failure aborts the rest.
//
// Errors are *domain.PreconditionError, *domain.DraftValidationError,
// *domain.PersistenceError or a context error.
func (s *Saver) SaveSection(ctx context.Context, req SaveRequest) (result SaveResult, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSave(err, time.Since(start))
	}()

	idx, err := CheckSection(req.SectionID, req.Sections)
	if err != nil {
		return SaveResult{}, err
	}
	section := req.Sections[idx]

	errs := validation.ValidateSurveyData(req.Title, req.Description, req.StartDate, req.Deadline, req.Sections)
	if len(errs) > 0 {
		s.metrics.ObserveValidation(errs)
		s.logger.Info("Section save blocked by validation",
			"section_id", req.SectionID,
			"errors", len(errs),
		)
		return SaveResult{}, errs.AsError()
	}

	surveyID := req.CurrentSurveyID
	if surveyID == "" {
		surveyID, err = s.creator.CreateSurvey(ctx, CreateRequest{
			ProjectID:   req.ProjectID,
			UserID:      req.UserID,
			Title:       req.Title,
			Description: req.Description,
			StartDate:   req.StartDate,
			Deadline:    req.Deadline,
			Status:      req.Status,
			Settings:    req.Settings,
		})
		if err != nil {
			return SaveResult{}, err
		}
		if req.OnSurveyIDAssigned != nil {
			req.OnSurveyIDAssigned(surveyID)
		}
	}
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}

	sectionID, err := s.writeSection(ctx, surveyID, section, idx)
	if err != nil {
		return SaveResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}

	questionIDs, err := s.replaceQuestions(ctx, surveyID, sectionID, section.Questions)
	if err != nil {
		return SaveResult{}, err
	}
	if err := s.repointSectionSkip(ctx, surveyID, sectionID, section, idx, questionIDs); err != nil {
		return SaveResult{}, err
	}

	if req.OnSectionStatesChanged != nil {
		req.OnSectionStatesChanged(sectionStates(req.Sections, req.SectionID))
	}

	s.logger.Info("Section saved",
		"survey_id", surveyID,
		"section_id", sectionID,
		"questions", len(questionIDs),
	)
	return SaveResult{
		Success:     true,
		SectionID:   sectionID,
		SurveyID:    surveyID,
		QuestionIDs: questionIDs,
	}, nil
}

// CheckSection returns the index of the section to save, or a
// *domain.PreconditionError when the id is blank or not part of sections.
func CheckSection(sectionID string, sections []domain.Section) (int, error) {
	if strings.TrimSpace(sectionID) == "" {
		return -1, &domain.PreconditionError{Err: domain.ErrSectionIDRequired}
	}
	idx := domain.FindSection(sections, sectionID)
	if idx < 0 {
		return -1, &domain.PreconditionError{
			Err: fmt.Errorf("%w: %s", domain.ErrSectionNotFound, sectionID),
		}
	}
	return idx, nil
}

// writeSection upserts a persisted section, or inserts a new one, and returns its id.
func (s *Saver) writeSection(ctx context.Context, surveyID string, section domain.Section, orderNum int) (string, error) {
	rec := sectionRecord(surveyID, section, orderNum)

	op := "insert"
	write := s.store.Insert
	if rec.ID() != "" {
		op = "upsert"
		write = s.store.Upsert
	}

	saved, err := write(ctx, ports.TableSections, rec)
	if err != nil {
		perr := domain.NewPersistenceError(op, ports.TableSections, err)
		s.logger.Error("Failed to save section", "survey_id", surveyID, "err", perr)
		return "", perr
	}
	return saved.ID(), nil
}

// repointSectionSkip rewrites the section's skip target when it named one of
// the questions that just received a new id.
func (s *Saver) repointSectionSkip(ctx context.Context, surveyID, sectionID string, section domain.Section, orderNum int, questionIDs []string) error {
	logic := domain.RemapSectionSkipTarget(section.SkipLogic, domain.QuestionIDMap(section.Questions, questionIDs))
	if logic == nil {
		return nil
	}
	section.SkipLogic = logic
	rec := sectionRecord(surveyID, section, orderNum)
	rec["id"] = sectionID
	if _, err := s.store.Upsert(ctx, ports.TableSections, rec); err != nil {
		perr := domain.NewPersistenceError("upsert", ports.TableSections, err)
		s.logger.Error("Failed to update section skip logic", "section_id", sectionID, "err", perr)
		return perr
	}
	return nil
}

// replaceQuestions deletes the section's questions and inserts the new set,
// inside one transaction when the store supports it.
func (s *Saver) replaceQuestions(ctx context.Context, surveyID, sectionID string, questions []domain.Question) ([]string, error) {
	recs := make([]ports.Record, len(questions))
	for i, q := range questions {
		recs[i] = questionRecord(surveyID, sectionID, q, i)
	}

	var ids []string
	replace := func(store ports.RecordStore) error {
		if err := store.Delete(ctx, ports.TableQuestions, ports.Where("section_id", sectionID)); err != nil {
			return domain.NewPersistenceError("delete", ports.TableQuestions, err)
		}
		if len(recs) == 0 {
			ids = []string{}
			return nil
		}
		saved, err := store.InsertMany(ctx, ports.TableQuestions, recs)
		if err != nil {
			return domain.NewPersistenceError("insert", ports.TableQuestions, err)
		}
		ids = make([]string, len(saved))
		for i, r := range saved {
			ids[i] = r.ID()
		}

		// Every replace assigns fresh ids, so logic inside the set that
		// pointed at the old ids is rewritten to the new ones.
		remap := domain.QuestionIDMap(questions, ids)
		for i, q := range questions {
			fixed, changed := q.RemapQuestionRefs(remap)
			if !changed {
				continue
			}
			rec := questionRecord(surveyID, sectionID, fixed, i)
			rec["id"] = ids[i]
			if _, err := store.Upsert(ctx, ports.TableQuestions, rec); err != nil {
				return domain.NewPersistenceError("upsert", ports.TableQuestions, err)
			}
		}
		return nil
	}

	var err error
	if tx, ok := s.store.(ports.Transactional); ok {
		err = tx.InTx(ctx, replace)
	} else {
		err = replace(s.store)
	}
	if err != nil {
		s.logger.Error("Failed to replace questions", "section_id", sectionID, "err", err)
		return nil, err
	}
	return ids, nil
}

// sectionStates marks savedID as saved and every other identified section as not-saved.
func sectionStates(sections []domain.Section, savedID string) map[string]domain.SaveState {
	states := make(map[string]domain.SaveState, len(sections))
	for _, sec := range sections {
		if sec.ID == "" {
			continue
		}
		states[sec.ID] = domain.SaveNotSaved
	}
	states[savedID] = domain.SaveSaved
	return states
}
