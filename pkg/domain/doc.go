/*
Package domain contains the core survey authoring models for fieldwork.

It defines the draft being authored (SurveyDraft, Section, Question), the
typed configuration blobs attached to them, the skip logic model, and the
error taxonomy shared by validation, persistence and save-state tracking.
This package is kept pure and free of I/O.

# Key Entities

  - SurveyDraft: the in-memory survey being authored, possibly partially persisted.
  - Section: an ordered group of questions; the unit of incremental save.
  - Question: a single prompt with type-specific constraints and a QuestionConfig.
  - SectionSkipLogic / QuestionSkipLogic: conditional branching rules.
  - ValidationError: an addressable, user-facing defect found in a draft.
  - SaveProgress: the save status of one section as observed by the UI.
*/
package domain
