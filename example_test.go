package fieldwork_test

import (
	"context"
	"fmt"

	"github.com/aretw0/fieldwork"
	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/survey"
)

func ExampleService_HandleSaveSection() {
	svc := fieldwork.New(memory.NewRecordStore())
	ctx := context.Background()

	sections := []domain.Section{{
		ID:    "temp_intro",
		Title: "Intro",
		Questions: []domain.Question{{
			Type:     domain.QuestionMultipleChoice,
			Text:     "Would you recommend us?",
			Options:  []string{"Yes", "No"},
			Required: true,
		}},
	}}

	errs := svc.ValidateSurveyData("Customer Satisfaction", "", nil, nil, sections)
	fmt.Println("validation errors:", len(errs))

	tracker := svc.NewSavingState()
	tracker.StartSaving("temp_intro")

	surveyID := ""
	res, err := svc.HandleSaveSection(ctx, survey.SaveRequest{
		SectionID:              "temp_intro",
		CurrentSurveyID:        surveyID,
		Title:                  "Customer Satisfaction",
		Sections:               sections,
		OnSurveyIDAssigned:     func(id string) { surveyID = id },
		OnSectionStatesChanged: tracker.ApplySectionStates,
	})
	if err != nil {
		tracker.MarkError("temp_intro", domain.UserMessage(err), domain.ValidationErrors(err))
		return
	}

	fmt.Println("success:", res.Success)
	fmt.Println("survey id assigned:", surveyID == res.SurveyID)
	fmt.Println("global state:", tracker.GlobalState())
	// Output:
	// validation errors: 0
	// success: true
	// survey id assigned: true
	// global state: saved
}
