/*
Package validation checks a survey draft before any of it is persisted.

ValidateSurveyData is pure and deterministic: it inspects the survey metadata
and every section and question, and returns a flat, ordered list of
domain.ValidationError values with stable field identifiers such as
"section_0_question_2_options". An empty list is the only success signal.
*/
package validation
