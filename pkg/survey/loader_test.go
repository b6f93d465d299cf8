package survey_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/survey"
	"github.com/aretw0/fieldwork/pkg/validation"
)

func TestLoader_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewRecordStore()
	saver := survey.NewSaver(mem)
	start, deadline := "2024-01-01", "2024-06-30"
	min, max := 1.0, 5.0

	sections := []domain.Section{
		{
			ID:    "temp_a",
			Title: "Hogar",
			SkipLogic: &domain.SectionSkipLogic{
				Enabled: true, Action: domain.SkipSpecificSection, TargetSectionID: "temp_b",
			},
			Questions: []domain.Question{
				multipleChoice("¿Tiene vivienda propia?", "Sí", "No"),
				{
					Type:   domain.QuestionRating,
					Text:   "Calidad del agua",
					Config: &domain.QuestionConfig{ScaleMin: &min, ScaleMax: &max},
				},
			},
		},
		{ID: "temp_b", Title: "Personas", Questions: []domain.Question{textQuestion("Nombre")}},
	}
	req := survey.SaveRequest{
		ProjectID: "p1",
		Title:     "Censo 2024",
		StartDate: &start,
		Deadline:  &deadline,
		Status:    domain.StatusActive,
		Settings: domain.SurveySettings{
			Theme:         &domain.ThemeConfig{PrimaryColor: "#336699"},
			AssignedZones: []string{"z1", "z2"},
		},
		Sections: sections,
	}

	req.SectionID = "temp_a"
	first, err := saver.SaveSection(ctx, req)
	require.NoError(t, err)
	req.SectionID = "temp_b"
	req.CurrentSurveyID = first.SurveyID
	_, err = saver.SaveSection(ctx, req)
	require.NoError(t, err)

	d, err := survey.NewLoader(mem).LoadDraft(ctx, first.SurveyID)
	require.NoError(t, err)

	assert.Equal(t, first.SurveyID, d.ID)
	assert.Equal(t, "p1", d.ProjectID)
	assert.Equal(t, "Censo 2024", d.Title)
	assert.Equal(t, domain.StatusActive, d.Status)
	require.NotNil(t, d.StartDate)
	assert.Equal(t, "2024-01-01", *d.StartDate)
	require.NotNil(t, d.Settings.Theme)
	assert.Equal(t, "#336699", d.Settings.Theme.PrimaryColor)
	assert.Equal(t, []string{"z1", "z2"}, d.Settings.AssignedZones)

	require.Len(t, d.Sections, 2)
	assert.Equal(t, "Hogar", d.Sections[0].Title)
	assert.Equal(t, 0, d.Sections[0].OrderNum)
	assert.Equal(t, first.SectionID, d.Sections[0].ID)
	require.NotNil(t, d.Sections[0].SkipLogic)
	assert.Equal(t, domain.SkipSpecificSection, d.Sections[0].SkipLogic.Action)
	assert.Equal(t, "Personas", d.Sections[1].Title)
	assert.Equal(t, 1, d.Sections[1].OrderNum)

	qs := d.Sections[0].Questions
	require.Len(t, qs, 2)
	assert.Equal(t, domain.QuestionMultipleChoice, qs[0].Type)
	assert.Equal(t, []string{"Sí", "No"}, qs[0].Options)
	assert.True(t, qs[0].Required)
	assert.Nil(t, qs[0].Config)
	require.NotNil(t, qs[1].Config)
	require.NotNil(t, qs[1].Config.ScaleMax)
	assert.Equal(t, 5.0, *qs[1].Config.ScaleMax)
	assert.Equal(t, domain.DefaultRatingScale, qs[1].RatingScale)

	// The rebuilt draft is save-worthy as a whole.
	assert.Empty(t, validationFields(d))
}

func TestLoader_NotFound(t *testing.T) {
	_, err := survey.NewLoader(memory.NewRecordStore()).LoadDraft(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrSurveyNotFound)
}

func TestDecodeSettings(t *testing.T) {
	s, err := survey.DecodeSettings(map[string]any{
		"branding":           map[string]any{"company_name": "ACME", "show_powered_by": true},
		"security":           map[string]any{"max_responses": float64(500), "allow_offline_mode": true},
		"notifications":      map[string]any{"recipients": []any{"ops@example.com"}},
		"assigned_surveyors": []any{"u1"},
	})
	require.NoError(t, err)

	require.NotNil(t, s.Branding)
	assert.Equal(t, "ACME", s.Branding.CompanyName)
	assert.True(t, s.Branding.ShowPoweredBy)
	require.NotNil(t, s.Security)
	assert.Equal(t, 500, s.Security.MaxResponses)
	assert.True(t, s.Security.AllowOfflineMode)
	assert.Equal(t, []string{"ops@example.com"}, s.Notifications.Recipients)
	assert.Equal(t, []string{"u1"}, s.AssignedSurveyors)
	assert.Nil(t, s.Theme)

	empty, err := survey.DecodeSettings(nil)
	require.NoError(t, err)
	assert.Equal(t, domain.SurveySettings{}, empty)
}

func validationFields(d *domain.SurveyDraft) []string {
	return validation.ValidateDraft(d).Fields()
}
