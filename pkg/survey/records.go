package survey

import (
	"strings"

	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// optionalString maps nil or blank strings to a null column.
func optionalString(s *string) any {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return v
}

func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// orNil turns typed nil pointers into an untyped nil so stores see a null column.
func orNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return p
}

func surveyRecord(req CreateRequest) ports.Record {
	status := req.Status
	if status == "" {
		status = domain.StatusDraft
	}
	s := req.Settings

	return ports.Record{
		"project_id":         req.ProjectID,
		"created_by":         req.UserID,
		"title":              strings.TrimSpace(req.Title),
		"description":        strings.TrimSpace(req.Description),
		"start_date":         optionalString(req.StartDate),
		"deadline":           optionalString(req.Deadline),
		"status":             string(status),
		"settings":           s,
		"branding":           orNil(s.Branding),
		"theme":              orNil(s.Theme),
		"security":           orNil(s.Security),
		"notifications":      orNil(s.Notifications),
		"assigned_surveyors": stringsOrEmpty(s.AssignedSurveyors),
		"assigned_zones":     stringsOrEmpty(s.AssignedZones),
	}
}

func sectionRecord(surveyID string, section domain.Section, orderNum int) ports.Record {
	rec := ports.Record{
		"survey_id":   surveyID,
		"title":       strings.TrimSpace(section.Title),
		"description": section.Description,
		"order_num":   orderNum,
		"skip_logic":  orNil(section.SkipLogic),
	}
	if domain.IsPersistedID(section.ID) {
		rec["id"] = section.ID
	}
	return rec
}

func questionRecord(surveyID, sectionID string, q domain.Question, orderNum int) ports.Record {
	ratingScale := q.RatingScale
	if ratingScale == 0 {
		ratingScale = domain.DefaultRatingScale
	}

	var config any = map[string]any{}
	var displayLogic, skipLogic, validationRules any
	if q.Config != nil {
		config = q.Config
		displayLogic = orNil(q.Config.DisplayLogic)
		skipLogic = orNil(q.Config.SkipLogic)
		validationRules = orNil(q.Config.Validation)
	}

	rec := ports.Record{
		"survey_id":        surveyID,
		"section_id":       sectionID,
		"type":             string(q.Type),
		"text":             strings.TrimSpace(q.Text),
		"options":          stringsOrEmpty(q.Options),
		"required":         q.Required,
		"order_num":        orderNum,
		"settings":         config,
		"question_config":  config,
		"matrix_rows":      stringsOrEmpty(q.MatrixRows),
		"matrix_cols":      stringsOrEmpty(q.MatrixCols),
		"rating_scale":     ratingScale,
		"file_url":         optionalString(q.Image),
		"display_logic":    displayLogic,
		"skip_logic":       skipLogic,
		"validation_rules": validationRules,
	}
	return rec
}
