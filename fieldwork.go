package fieldwork

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/fieldwork/internal/logging"
	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/draft"
	"github.com/aretw0/fieldwork/pkg/observability"
	"github.com/aretw0/fieldwork/pkg/ports"
	"github.com/aretw0/fieldwork/pkg/savestate"
	"github.com/aretw0/fieldwork/pkg/survey"
	"github.com/aretw0/fieldwork/pkg/validation"
)

// Service is the high-level entry point for authoring surveys.
// It binds the save pipeline to a record store, a draft store and one
// save-state tracker per draft.
type Service struct {
	records    ports.RecordStore
	draftStore ports.DraftStore
	locker     ports.DistributedLocker
	lockTTL    time.Duration
	metrics    *observability.Metrics
	logger     *slog.Logger

	drafts *draft.Manager
	saver  *survey.Saver
	loader *survey.Loader

	mu       sync.Mutex
	trackers map[string]*savestate.Tracker
}

// Option defines a functional option for configuring the Service.
type Option func(*Service)

// WithDraftStore sets where in-progress drafts are kept (default: memory).
func WithDraftStore(store ports.DraftStore) Option {
	return func(s *Service) {
		s.draftStore = store
	}
}

// WithLocker serializes saves of a draft across replicas.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(s *Service) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

// WithMetrics records save outcomes and store operations.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a Service persisting surveys into records.
// A nil records uses an in-memory store.
func New(records ports.RecordStore, opts ...Option) *Service {
	s := &Service{
		records:  records,
		logger:   logging.NewNop(),
		trackers: make(map[string]*savestate.Tracker),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.records == nil {
		s.records = memory.NewRecordStore()
	}
	if s.draftStore == nil {
		s.draftStore = memory.NewDraftStore()
	}

	store := observability.InstrumentStore(s.records, s.metrics)

	draftOpts := []draft.Option{draft.WithLogger(s.logger)}
	if s.locker != nil {
		draftOpts = append(draftOpts, draft.WithLocker(s.locker), draft.WithLockTTL(s.lockTTL))
	}
	s.drafts = draft.NewManager(s.draftStore, draftOpts...)
	s.saver = survey.NewSaver(store, survey.WithLogger(s.logger), survey.WithMetrics(s.metrics))
	s.loader = survey.NewLoader(store, survey.WithLoaderLogger(s.logger))
	return s
}

// ValidateSurveyData returns every defect of the draft data, in rule order.
func (s *Service) ValidateSurveyData(title, description string, startDate, deadline *string, sections []domain.Section) []domain.ValidationError {
	return validation.ValidateSurveyData(title, description, startDate, deadline, sections)
}

// HandleSaveSection runs the save pipeline for a caller that keeps the draft
// itself. The caller reports progress to its own tracker through the callbacks.
func (s *Service) HandleSaveSection(ctx context.Context, req survey.SaveRequest) (survey.SaveResult, error) {
	return s.saver.SaveSection(ctx, req)
}

// NewSavingState returns a fresh save-state tracker.
func (s *Service) NewSavingState() *savestate.Tracker {
	return savestate.New(savestate.WithLogger(s.logger))
}

// Tracker returns the save-state tracker bound to draftID, creating it on
// first use. It returns domain.ErrDraftNotFound when the draft is not stored.
func (s *Service) Tracker(ctx context.Context, draftID string) (*savestate.Tracker, error) {
	s.mu.Lock()
	t, ok := s.trackers[draftID]
	s.mu.Unlock()
	if ok {
		return t, nil
	}
	if _, err := s.drafts.Load(ctx, draftID); err != nil {
		return nil, err
	}
	return s.tracker(draftID), nil
}

// tracker returns the tracker of a draft already known to exist.
func (s *Service) tracker(draftID string) *savestate.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[draftID]
	if !ok {
		t = s.NewSavingState()
		s.trackers[draftID] = t
	}
	return t
}

// ResetDraft clears the save state of draftID.
func (s *Service) ResetDraft(ctx context.Context, draftID string) error {
	t, err := s.Tracker(ctx, draftID)
	if err != nil {
		return err
	}
	t.ResetStates()
	return nil
}

// OpenDraft loads a draft, starting an empty one if it does not exist.
func (s *Service) OpenDraft(ctx context.Context, draftID string) (*domain.SurveyDraft, error) {
	return s.drafts.LoadOrStart(ctx, draftID)
}

// LoadDraft returns domain.ErrDraftNotFound if the draft does not exist.
func (s *Service) LoadDraft(ctx context.Context, draftID string) (*domain.SurveyDraft, error) {
	return s.drafts.Load(ctx, draftID)
}

// SaveDraft stores the author's edits. A survey id assigned by an earlier
// section save is kept when d carries none.
func (s *Service) SaveDraft(ctx context.Context, draftID string, d *domain.SurveyDraft) error {
	return s.drafts.WithLock(ctx, draftID, func(ctx context.Context) error {
		if d.ID == "" {
			if stored, err := s.drafts.Store().Load(ctx, draftID); err == nil {
				d.ID = stored.ID
			}
		}
		return s.drafts.Store().Save(ctx, draftID, d)
	})
}

// DeleteDraft removes the draft and its save state, ending every subscription
// to it. Persisted survey records are kept.
func (s *Service) DeleteDraft(ctx context.Context, draftID string) error {
	if err := s.drafts.Delete(ctx, draftID); err != nil {
		return err
	}
	s.mu.Lock()
	t, ok := s.trackers[draftID]
	delete(s.trackers, draftID)
	s.mu.Unlock()
	if ok {
		t.Close()
	}
	return nil
}

// ListDrafts returns the ids of stored drafts.
func (s *Service) ListDrafts(ctx context.Context) ([]string, error) {
	return s.drafts.List(ctx)
}

// LoadSurvey rebuilds a draft from the survey records.
func (s *Service) LoadSurvey(ctx context.Context, surveyID string) (*domain.SurveyDraft, error) {
	return s.loader.LoadDraft(ctx, surveyID)
}

// SaveSection saves one section of a stored draft. Saves of the same draft run
// one at a time. Progress is reported to the draft's tracker, and the ids
// assigned by the record store are written back into the stored draft.
func (s *Service) SaveSection(ctx context.Context, draftID, sectionID, userID string) (survey.SaveResult, error) {
	var result survey.SaveResult
	err := s.drafts.WithLock(ctx, draftID, func(ctx context.Context) error {
		store := s.drafts.Store()
		d, err := store.Load(ctx, draftID)
		if err != nil {
			return err
		}

		if _, err := survey.CheckSection(sectionID, d.Sections); err != nil {
			return err
		}
		tracker := s.tracker(draftID)
		tracker.StartSaving(sectionID)

		var states map[string]domain.SaveState
		res, err := s.saver.SaveSection(ctx, survey.SaveRequest{
			SectionID:       sectionID,
			CurrentSurveyID: d.ID,
			ProjectID:       d.ProjectID,
			UserID:          userID,
			Title:           d.Title,
			Description:     d.Description,
			StartDate:       d.StartDate,
			Deadline:        d.Deadline,
			Status:          d.Status,
			Settings:        d.Settings,
			Sections:        d.Sections,
			OnSurveyIDAssigned: func(surveyID string) {
				d.ID = surveyID
				// Keep the id even if a later step fails, so a retry reuses the survey.
				if err := store.Save(ctx, draftID, d); err != nil {
					s.logger.Warn("Failed to record survey id on draft", "draft_id", draftID, "err", err)
				}
			},
			OnSectionStatesChanged: func(st map[string]domain.SaveState) {
				states = st
			},
		})
		if err != nil {
			tracker.MarkError(sectionID, domain.UserMessage(err), domain.ValidationErrors(err))
			return err
		}

		applyResult(d, sectionID, res)
		if err := store.Save(ctx, draftID, d); err != nil {
			tracker.MarkError(res.SectionID, err.Error(), nil)
			return fmt.Errorf("failed to update draft: %w", err)
		}

		tracker.RenameSection(sectionID, res.SectionID)
		if saved, ok := states[sectionID]; ok && sectionID != res.SectionID {
			delete(states, sectionID)
			states[res.SectionID] = saved
		}
		tracker.ApplySectionStates(states)

		result = res
		return nil
	})
	return result, err
}

// applyResult writes persisted ids back into the draft and repoints logic
// that referenced the section's or its questions' previous ids.
func applyResult(d *domain.SurveyDraft, sectionID string, res survey.SaveResult) {
	d.ID = res.SurveyID
	idx := domain.FindSection(d.Sections, sectionID)
	if idx < 0 {
		return
	}
	sec := &d.Sections[idx]
	sec.ID = res.SectionID
	sec.OrderNum = idx
	if len(res.QuestionIDs) == len(sec.Questions) {
		remap := domain.QuestionIDMap(sec.Questions, res.QuestionIDs)
		for i := range sec.Questions {
			sec.Questions[i].ID = res.QuestionIDs[i]
		}
		domain.RemapQuestionRefs(d.Sections, remap)
	}

	if sectionID == res.SectionID {
		return
	}
	for i := range d.Sections {
		if sl := d.Sections[i].SkipLogic; sl != nil && sl.TargetSectionID == sectionID {
			sl.TargetSectionID = res.SectionID
		}
		for j := range d.Sections[i].Questions {
			cfg := d.Sections[i].Questions[j].Config
			if cfg == nil || cfg.SkipLogic == nil {
				continue
			}
			for k := range cfg.SkipLogic.Rules {
				if cfg.SkipLogic.Rules[k].TargetSectionID == sectionID {
					cfg.SkipLogic.Rules[k].TargetSectionID = res.SectionID
				}
			}
		}
	}
}
