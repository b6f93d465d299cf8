package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aretw0/fieldwork/pkg/domain"
	"github.com/aretw0/fieldwork/pkg/survey"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

var draftIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,128}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("draftid", func(fl validator.FieldLevel) bool {
		return draftIDPattern.MatchString(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type surveyData struct {
	Title       string           `json:"title" validate:"max=256"`
	Description string           `json:"description"`
	StartDate   *string          `json:"start_date" validate:"omitempty,max=40"`
	Deadline    *string          `json:"deadline" validate:"omitempty,max=40"`
	Sections    []domain.Section `json:"sections" validate:"max=200"`
}


type draftRequest struct {
	surveyData
	ProjectID string         `json:"project_id" validate:"omitempty,max=64"`
	Status    string         `json:"status" validate:"omitempty,oneof=draft active completed archived"`
	Settings  map[string]any `json:"settings"`
}

func (d draftRequest) toDraft() (*domain.SurveyDraft, error) {
	settings, err := survey.DecodeSettings(d.Settings)
	if err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &domain.SurveyDraft{
		ProjectID:   d.ProjectID,
		Title:       d.Title,
		Description: d.Description,
		StartDate:   d.StartDate,
		Deadline:    d.Deadline,
		Status:      domain.SurveyStatus(d.Status),
		Settings:    settings,
		Sections:    d.Sections,
	}, nil
}

type saveSectionRequest struct {
	UserID string `json:"user_id" validate:"omitempty,max=64"`
}

type idParam struct {
	ID string `json:"id" validate:"draftid"`
}

// decodeBody reads a JSON body into dst and validates it.
// An empty body is accepted when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) ([]domain.ValidationError, error) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return nil, err
		}
	}
	return validateStruct(dst), nil
}

// validateStruct returns request shape violations as field errors.
func validateStruct(v any) []domain.ValidationError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []domain.ValidationError{{Field: "body", Message: err.Error()}}
	}
	out := make([]domain.ValidationError, len(verrs))
	for i, fe := range verrs {
		out[i] = domain.ValidationError{
			Field:   fe.Field(),
			Message: fmt.Sprintf("valor inválido (%s)", fe.Tag()),
		}
	}
	return out
}
