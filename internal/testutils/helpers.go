// Package testutils holds fixtures shared by tests across packages.
package testutils

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/fieldwork/pkg/domain"
)

// SetupRedis starts an in-process redis server and a client bound to it.
// Both are closed when the test ends. It fails the test immediately on error.
func SetupRedis(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

// HouseholdDraft returns a valid two-section draft with temporary ids.
// The first section skips to the second through skip logic.
func HouseholdDraft() *domain.SurveyDraft {
	return &domain.SurveyDraft{
		ProjectID: "p1",
		Title:     "Encuesta de hogares",
		Sections: []domain.Section{
			{
				ID:        "temp_a",
				Title:     "Vivienda",
				SkipLogic: &domain.SectionSkipLogic{Enabled: true, Action: domain.SkipSpecificSection, TargetSectionID: "temp_b"},
				Questions: []domain.Question{
					{Type: domain.QuestionMultipleChoice, Text: "Tipo de vivienda", Options: []string{"Casa", "Apartamento"}},
				},
			},
			{
				ID:        "temp_b",
				Title:     "Personas",
				Questions: []domain.Question{{Type: domain.QuestionNumber, Text: "¿Cuántas personas viven aquí?"}},
			},
		},
	}
}
