package fieldwork_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork"
	"github.com/aretw0/fieldwork/internal/testutils"
	"github.com/aretw0/fieldwork/pkg/adapters/file"
	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/observability"
	"github.com/aretw0/fieldwork/pkg/ports"
)

func TestService_SaveSectionLifecycle(t *testing.T) {
	ctx := context.Background()
	records := memory.NewRecordStore()
	svc := fieldwork.New(records)

	require.NoError(t, svc.SaveDraft(ctx, "d1", testutils.HouseholdDraft()))

	res, err := svc.SaveSection(ctx, "d1", "temp_b", "user-1")
	require.NoError(t, err)
	assert.True(t, res.Success)

	d, err := svc.LoadDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, res.SurveyID, d.ID)
	assert.Equal(t, res.SectionID, d.Sections[1].ID)
	assert.Equal(t, 1, d.Sections[1].OrderNum)
	assert.Equal(t, res.QuestionIDs[0], d.Sections[1].Questions[0].ID)
	assert.Equal(t, res.SectionID, d.Sections[0].SkipLogic.TargetSectionID, "skip logic follows the persisted id")

	tracker, err := svc.Tracker(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, domain.SaveSaved, tracker.SectionState(res.SectionID).State)
	assert.Equal(t, domain.SaveNotSaved, tracker.SectionState("temp_a").State)
	assert.Equal(t, domain.SaveNotSaved, tracker.GlobalState())

	// Saving the other section reuses the survey.
	res2, err := svc.SaveSection(ctx, "d1", "temp_a", "user-1")
	require.NoError(t, err)
	assert.Equal(t, res.SurveyID, res2.SurveyID)
	assert.Equal(t, 1, records.Count(ports.TableSurveys))
	assert.Equal(t, 2, records.Count(ports.TableSections))

	states := tracker.SavingStates()
	assert.Equal(t, domain.SaveSaved, states[res2.SectionID].State)
	assert.Equal(t, domain.SaveNotSaved, states[res.SectionID].State)

	// Re-saving the first section marks everything saved only for it.
	_, err = svc.SaveSection(ctx, "d1", res.SectionID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, records.Count(ports.TableSections))

	loaded, err := svc.LoadSurvey(ctx, res.SurveyID)
	require.NoError(t, err)
	require.Len(t, loaded.Sections, 2)
	assert.Equal(t, "Vivienda", loaded.Sections[0].Title)
	assert.Equal(t, "Personas", loaded.Sections[1].Title)
}

func TestService_SaveSectionValidationError(t *testing.T) {
	ctx := context.Background()
	svc := fieldwork.New(nil)

	d := testutils.HouseholdDraft()
	d.Sections[1].Questions = nil
	require.NoError(t, svc.SaveDraft(ctx, "d1", d))

	_, err := svc.SaveSection(ctx, "d1", "temp_a", "user-1")
	var verr *domain.DraftValidationError
	require.ErrorAs(t, err, &verr)

	tracker, err := svc.Tracker(ctx, "d1")
	require.NoError(t, err)
	p := tracker.SectionState("temp_a")
	assert.Equal(t, domain.SaveError, p.State)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "section_1_questions", p.Errors[0].Field)
	assert.Equal(t, domain.SaveError, tracker.GlobalState())
	assert.NotEmpty(t, tracker.LastError())

	require.NoError(t, svc.ResetDraft(ctx, "d1"))
	assert.Equal(t, domain.SaveNotSaved, tracker.GlobalState())
}

func TestService_SaveSectionMissingDraft(t *testing.T) {
	ctx := context.Background()
	svc := fieldwork.New(nil)
	_, err := svc.SaveSection(ctx, "nope", "s1", "u")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	_, err = svc.Tracker(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)
	assert.ErrorIs(t, svc.ResetDraft(ctx, "nope"), domain.ErrDraftNotFound)
}

func TestService_UnknownSectionLeavesSaveStateUntouched(t *testing.T) {
	ctx := context.Background()
	svc := fieldwork.New(nil)
	require.NoError(t, svc.SaveDraft(ctx, "d1", testutils.HouseholdDraft()))

	_, err := svc.SaveSection(ctx, "d1", "missing", "u")
	var perr *domain.PreconditionError
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, domain.ErrSectionNotFound)

	tracker, err := svc.Tracker(ctx, "d1")
	require.NoError(t, err)
	assert.Empty(t, tracker.SavingStates())
	assert.Equal(t, domain.SaveNotSaved, tracker.GlobalState())
	assert.Empty(t, tracker.LastError())
}

func TestService_RemapsQuestionReferencesInDraft(t *testing.T) {
	ctx := context.Background()
	records := memory.NewRecordStore()
	svc := fieldwork.New(records)

	d := testutils.HouseholdDraft()
	owner := &d.Sections[0].Questions[0]
	owner.ID = "q-owner"
	d.Sections[1].Questions[0].Config = &domain.QuestionConfig{DisplayLogic: &domain.DisplayLogic{
		Enabled:    true,
		Conditions: []domain.DisplayCondition{{QuestionID: "q-owner", Operator: "equals", Value: "si"}},
	}}
	require.NoError(t, svc.SaveDraft(ctx, "d1", d))

	res, err := svc.SaveSection(ctx, "d1", "temp_a", "u")
	require.NoError(t, err)
	newID := res.QuestionIDs[0]
	assert.NotEqual(t, "q-owner", newID)

	stored, err := svc.LoadDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, newID, stored.Sections[0].Questions[0].ID)
	assert.Equal(t, newID, stored.Sections[1].Questions[0].Config.DisplayLogic.Conditions[0].QuestionID,
		"logic in other sections follows the new question id")

	// Saving again replaces the set under fresh ids and leaves one row per question.
	again, err := svc.SaveSection(ctx, "d1", res.SectionID, "u")
	require.NoError(t, err)
	assert.NotEqual(t, newID, again.QuestionIDs[0])
	rows, err := records.Select(ctx, ports.TableQuestions, ports.Where("section_id", res.SectionID))
	require.NoError(t, err)
	assert.Len(t, rows, len(d.Sections[0].Questions))
}

func TestService_KeepsSurveyIDOnDraftEdit(t *testing.T) {
	ctx := context.Background()
	svc := fieldwork.New(nil)
	require.NoError(t, svc.SaveDraft(ctx, "d1", testutils.HouseholdDraft()))

	res, err := svc.SaveSection(ctx, "d1", "temp_a", "u")
	require.NoError(t, err)

	edited := testutils.HouseholdDraft()
	edited.Title = "Encuesta de hogares 2025"
	require.NoError(t, svc.SaveDraft(ctx, "d1", edited))

	d, err := svc.LoadDraft(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, res.SurveyID, d.ID)
}

func TestService_ConcurrentSavesCreateOneSurvey(t *testing.T) {
	ctx := context.Background()
	records := memory.NewRecordStore()
	svc := fieldwork.New(records, fieldwork.WithDraftStore(file.NewDraftStore(t.TempDir())))
	require.NoError(t, svc.SaveDraft(ctx, "d1", testutils.HouseholdDraft()))

	var wg sync.WaitGroup
	for _, id := range []string{"temp_a", "temp_b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := svc.SaveSection(ctx, "d1", id, "u")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 1, records.Count(ports.TableSurveys))
	assert.Equal(t, 2, records.Count(ports.TableSections))
}

func TestService_Metrics(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics(prometheus.NewRegistry())
	svc := fieldwork.New(nil, fieldwork.WithMetrics(m))
	require.NoError(t, svc.SaveDraft(ctx, "d1", testutils.HouseholdDraft()))

	_, err := svc.SaveSection(ctx, "d1", "temp_a", "u")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Saves.WithLabelValues(observability.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreOps.WithLabelValues(ports.TableSurveys, "insert", "ok")))
}

func TestService_DeleteDraft(t *testing.T) {
	ctx := context.Background()
	svc := fieldwork.New(nil)
	_, err := svc.OpenDraft(ctx, "d1")
	require.NoError(t, err)

	ids, err := svc.ListDrafts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, ids)

	tracker, err := svc.Tracker(ctx, "d1")
	require.NoError(t, err)
	events, cancel := tracker.Subscribe()
	defer cancel()

	require.NoError(t, svc.DeleteDraft(ctx, "d1"))
	_, err = svc.LoadDraft(ctx, "d1")
	assert.ErrorIs(t, err, domain.ErrDraftNotFound)

	_, open := <-events
	assert.False(t, open, "deleting the draft ends its subscriptions")

	// A recreated draft gets a fresh tracker.
	_, err = svc.OpenDraft(ctx, "d1")
	require.NoError(t, err)
	recreated, err := svc.Tracker(ctx, "d1")
	require.NoError(t, err)
	assert.NotSame(t, tracker, recreated)
}
