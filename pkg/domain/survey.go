package domain

import "strings"

// SurveyStatus is the lifecycle status of a survey.
type SurveyStatus string

const (
	StatusDraft     SurveyStatus = "draft"
	StatusActive    SurveyStatus = "active"
	StatusCompleted SurveyStatus = "completed"
	StatusArchived  SurveyStatus = "archived"
)

// Valid reports whether s is a known status.
func (s SurveyStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

// QuestionType identifies how a question is answered.
type QuestionType string

const (
	QuestionText           QuestionType = "text"
	QuestionTextarea       QuestionType = "textarea"
	QuestionNumber         QuestionType = "number"
	QuestionEmail          QuestionType = "email"
	QuestionPhone          QuestionType = "phone"
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionCheckbox       QuestionType = "checkbox"
	QuestionDropdown       QuestionType = "dropdown"
	QuestionMatrix         QuestionType = "matrix"
	QuestionRating         QuestionType = "rating"
	QuestionScale          QuestionType = "scale"
	QuestionDate           QuestionType = "date"
	QuestionTime           QuestionType = "time"
	QuestionFile           QuestionType = "file"
	QuestionImage          QuestionType = "image"
)

// HasOptions reports whether answers are picked from Options.
func (t QuestionType) HasOptions() bool {
	switch t {
	case QuestionMultipleChoice, QuestionCheckbox, QuestionDropdown:
		return true
	}
	return false
}

// DefaultRatingScale is persisted when a question carries no rating scale.
const DefaultRatingScale = 5

// SurveyDraft is a survey being authored. ID is empty until the survey
// record has been created in the record store.
type SurveyDraft struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`
	ProjectID   string         `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	StartDate   *string        `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	Deadline    *string        `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Status      SurveyStatus   `json:"status,omitempty" yaml:"status,omitempty"`
	Settings    SurveySettings `json:"settings" yaml:"settings"`
	Sections    []Section      `json:"sections" yaml:"sections"`
}

// Section groups an ordered list of questions.
// OrderNum is derived from the section's position when saved.
type Section struct {
	ID          string            `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Title       string            `json:"title" yaml:"title" mapstructure:"title"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	OrderNum    int               `json:"order_num" yaml:"order_num,omitempty" mapstructure:"order_num"`
	Questions   []Question        `json:"questions" yaml:"questions" mapstructure:"-"`
	SkipLogic   *SectionSkipLogic `json:"skip_logic,omitempty" yaml:"skip_logic,omitempty" mapstructure:"skip_logic"`
}

// Question is a single prompt inside a section.
type Question struct {
	ID          string          `json:"id,omitempty" yaml:"id,omitempty" mapstructure:"id"`
	Type        QuestionType    `json:"type" yaml:"type" mapstructure:"type"`
	Text        string          `json:"text" yaml:"text" mapstructure:"text"`
	Options     []string        `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	Required    bool            `json:"required" yaml:"required" mapstructure:"required"`
	MatrixRows  []string        `json:"matrix_rows,omitempty" yaml:"matrix_rows,omitempty" mapstructure:"matrix_rows"`
	MatrixCols  []string        `json:"matrix_cols,omitempty" yaml:"matrix_cols,omitempty" mapstructure:"matrix_cols"`
	RatingScale int             `json:"rating_scale,omitempty" yaml:"rating_scale,omitempty" mapstructure:"rating_scale"`
	Image       *string         `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"file_url"`
	Config      *QuestionConfig `json:"config,omitempty" yaml:"config,omitempty" mapstructure:"question_config"`
}

// temporaryPrefixes mark ids generated by clients as UI keys only.
var temporaryPrefixes = []string{"temp_", "temp-", "tmp-", "tmp_", "new-", "new_"}

// IsPersistedID reports whether id refers to a record in the store.
// Empty ids and client-generated temporary ids do not.
func IsPersistedID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" {
		return false
	}
	for _, p := range temporaryPrefixes {
		if strings.HasPrefix(id, p) {
			return false
		}
	}
	return true
}

// FindSection returns the index of the section with the given id, or -1.
func FindSection(sections []Section, id string) int {
	for i := range sections {
		if sections[i].ID == id {
			return i
		}
	}
	return -1
}
