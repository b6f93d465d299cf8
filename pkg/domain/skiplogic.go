package domain

// SkipAction decides where the flow goes after a section.
type SkipAction string

const (
	SkipNextSection      SkipAction = "next_section"
	SkipSpecificSection  SkipAction = "specific_section"
	SkipSpecificQuestion SkipAction = "specific_question"
	SkipEndSurvey        SkipAction = "end_survey"
)

// SectionSkipLogic branches after a section is answered.
type SectionSkipLogic struct {
	Enabled          bool       `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Action           SkipAction `json:"action" yaml:"action" mapstructure:"action"`
	TargetSectionID  string     `json:"target_section_id,omitempty" yaml:"target_section_id,omitempty" mapstructure:"target_section_id"`
	TargetQuestionID string     `json:"target_question_id,omitempty" yaml:"target_question_id,omitempty" mapstructure:"target_question_id"`
}

// MissingTarget reports whether the action names a target that is absent.
// Disabled logic never misses a target.
func (l *SectionSkipLogic) MissingTarget() bool {
	if l == nil || !l.Enabled {
		return false
	}
	switch l.Action {
	case SkipSpecificSection:
		return l.TargetSectionID == ""
	case SkipSpecificQuestion:
		return l.TargetQuestionID == ""
	}
	return false
}

// QuestionSkipLogic branches on the answer of a single question.
type QuestionSkipLogic struct {
	Enabled bool       `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Rules   []SkipRule `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules"`
}

// SkipRule jumps to a section or question when the answer matches Condition.
type SkipRule struct {
	Condition        string `json:"condition,omitempty" yaml:"condition,omitempty" mapstructure:"condition"`
	Value            string `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	TargetSectionID  string `json:"target_section_id,omitempty" yaml:"target_section_id,omitempty" mapstructure:"target_section_id"`
	TargetQuestionID string `json:"target_question_id,omitempty" yaml:"target_question_id,omitempty" mapstructure:"target_question_id"`
}

// HasTarget reports whether the rule points somewhere.
func (r SkipRule) HasTarget() bool {
	return r.TargetSectionID != "" || r.TargetQuestionID != ""
}
