/*
Package fieldwork validates survey drafts and saves them section by section.

A survey is authored as a draft: metadata, settings and an ordered list of
sections holding questions. Authors save one section at a time. Each save
validates the whole draft, creates the survey record on the first save, upserts
the section and replaces its questions as a set. A per-draft tracker reports
the save state of every section and derives the state of the whole draft.

# Usage

	svc := fieldwork.New(memory.NewRecordStore())

	errs := svc.ValidateSurveyData(title, description, nil, nil, sections)
	if len(errs) > 0 {
		// show errs next to their fields
	}

	tracker := svc.NewSavingState()
	tracker.StartSaving(sectionID)
	res, err := svc.HandleSaveSection(ctx, survey.SaveRequest{
		SectionID:              sectionID,
		CurrentSurveyID:        surveyID,
		Title:                  title,
		Sections:               sections,
		OnSurveyIDAssigned:     func(id string) { surveyID = id },
		OnSectionStatesChanged: tracker.ApplySectionStates,
	})
	if err != nil {
		tracker.MarkError(sectionID, domain.UserMessage(err), domain.ValidationErrors(err))
	}

Drafts can also live in a ports.DraftStore (memory, file or redis). Then
Service.SaveSection loads the draft, serializes saves per draft and writes the
assigned ids back.

# Adapters

Record stores: pkg/adapters/memory, pkg/adapters/redis and pkg/adapters/postgres.
Draft stores: pkg/adapters/memory, pkg/adapters/file and pkg/adapters/redis,
optionally encrypted at rest with pkg/persistence/middleware.
*/
package fieldwork
