package postgres

import (
	"time"

	"gorm.io/datatypes"
)

// SurveyRow is the schema of the surveys table.
type SurveyRow struct {
	ID                string         `gorm:"primaryKey;type:varchar(36)"`
	ProjectID         string         `gorm:"type:varchar(64);index:idx_surveys_project"`
	CreatedBy         string         `gorm:"type:varchar(64)"`
	Title             string         `gorm:"type:varchar(256);not null"`
	Description       string         `gorm:"type:text"`
	StartDate         *string        `gorm:"type:varchar(32)"`
	Deadline          *string        `gorm:"type:varchar(32)"`
	Status            string         `gorm:"type:varchar(20);not null;default:draft"`
	Settings          datatypes.JSON `gorm:"type:jsonb"`
	Branding          datatypes.JSON `gorm:"type:jsonb"`
	Theme             datatypes.JSON `gorm:"type:jsonb"`
	Security          datatypes.JSON `gorm:"type:jsonb"`
	Notifications     datatypes.JSON `gorm:"type:jsonb"`
	AssignedSurveyors datatypes.JSON `gorm:"type:jsonb"`
	AssignedZones     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SurveyRow) TableName() string { return "surveys" }

// SectionRow is the schema of the survey_sections table.
type SectionRow struct {
	ID          string         `gorm:"primaryKey;type:varchar(36)"`
	SurveyID    string         `gorm:"type:varchar(36);not null;index:idx_sections_survey"`
	Title       string         `gorm:"type:varchar(256);not null"`
	Description string         `gorm:"type:text"`
	OrderNum    int            `gorm:"not null;default:0"`
	SkipLogic   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (SectionRow) TableName() string { return "survey_sections" }

// QuestionRow is the schema of the questions table.
type QuestionRow struct {
	ID              string         `gorm:"primaryKey;type:varchar(36)"`
	SurveyID        string         `gorm:"type:varchar(36);index:idx_questions_survey"`
	SectionID       string         `gorm:"type:varchar(36);not null;index:idx_questions_section"`
	Type            string         `gorm:"type:varchar(32);not null"`
	Text            string         `gorm:"type:text;not null"`
	Options         datatypes.JSON `gorm:"type:jsonb"`
	Required        bool           `gorm:"not null;default:false"`
	OrderNum        int            `gorm:"not null;default:0"`
	Settings        datatypes.JSON `gorm:"type:jsonb"`
	QuestionConfig  datatypes.JSON `gorm:"type:jsonb"`
	MatrixRows      datatypes.JSON `gorm:"type:jsonb"`
	MatrixCols      datatypes.JSON `gorm:"type:jsonb"`
	RatingScale     int            `gorm:"not null;default:5"`
	FileURL         *string        `gorm:"type:text"`
	DisplayLogic    datatypes.JSON `gorm:"type:jsonb"`
	SkipLogic       datatypes.JSON `gorm:"type:jsonb"`
	ValidationRules datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt       time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (QuestionRow) TableName() string { return "questions" }

// jsonColumns lists, per table, the columns stored as jsonb.
var jsonColumns = map[string]map[string]bool{
	"surveys": {
		"settings": true, "branding": true, "theme": true, "security": true,
		"notifications": true, "assigned_surveyors": true, "assigned_zones": true,
	},
	"survey_sections": {
		"skip_logic": true,
	},
	"questions": {
		"options": true, "settings": true, "question_config": true, "matrix_rows": true,
		"matrix_cols": true, "display_logic": true, "skip_logic": true, "validation_rules": true,
	},
}
