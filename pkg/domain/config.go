package domain

// SurveySettings is the structured configuration attached to a survey.
// Every field is optional; defaults are applied when the survey is saved.
type SurveySettings struct {
	Branding          *BrandingConfig      `json:"branding,omitempty" yaml:"branding,omitempty" mapstructure:"branding"`
	Theme             *ThemeConfig         `json:"theme,omitempty" yaml:"theme,omitempty" mapstructure:"theme"`
	Security          *SecurityConfig      `json:"security,omitempty" yaml:"security,omitempty" mapstructure:"security"`
	Notifications     *NotificationsConfig `json:"notifications,omitempty" yaml:"notifications,omitempty" mapstructure:"notifications"`
	AssignedSurveyors []string             `json:"assigned_surveyors,omitempty" yaml:"assigned_surveyors,omitempty" mapstructure:"assigned_surveyors"`
	AssignedZones     []string             `json:"assigned_zones,omitempty" yaml:"assigned_zones,omitempty" mapstructure:"assigned_zones"`
}

type BrandingConfig struct {
	LogoURL       string `json:"logo_url,omitempty" yaml:"logo_url,omitempty" mapstructure:"logo_url"`
	CompanyName   string `json:"company_name,omitempty" yaml:"company_name,omitempty" mapstructure:"company_name"`
	ShowPoweredBy bool   `json:"show_powered_by,omitempty" yaml:"show_powered_by,omitempty" mapstructure:"show_powered_by"`
}

type ThemeConfig struct {
	PrimaryColor    string `json:"primary_color,omitempty" yaml:"primary_color,omitempty" mapstructure:"primary_color"`
	BackgroundColor string `json:"background_color,omitempty" yaml:"background_color,omitempty" mapstructure:"background_color"`
	FontFamily      string `json:"font_family,omitempty" yaml:"font_family,omitempty" mapstructure:"font_family"`
}

type SecurityConfig struct {
	RequireLogin     bool `json:"require_login,omitempty" yaml:"require_login,omitempty" mapstructure:"require_login"`
	AllowAnonymous   bool `json:"allow_anonymous,omitempty" yaml:"allow_anonymous,omitempty" mapstructure:"allow_anonymous"`
	CollectLocation  bool `json:"collect_location,omitempty" yaml:"collect_location,omitempty" mapstructure:"collect_location"`
	MaxResponses     int  `json:"max_responses,omitempty" yaml:"max_responses,omitempty" mapstructure:"max_responses"`
	AllowOfflineMode bool `json:"allow_offline_mode,omitempty" yaml:"allow_offline_mode,omitempty" mapstructure:"allow_offline_mode"`
}

type NotificationsConfig struct {
	OnResponse bool     `json:"on_response,omitempty" yaml:"on_response,omitempty" mapstructure:"on_response"`
	OnDeadline bool     `json:"on_deadline,omitempty" yaml:"on_deadline,omitempty" mapstructure:"on_deadline"`
	Recipients []string `json:"recipients,omitempty" yaml:"recipients,omitempty" mapstructure:"recipients"`
}

// QuestionConfig holds optional per-question behavior.
type QuestionConfig struct {
	ScaleMin     *float64           `json:"scale_min,omitempty" yaml:"scale_min,omitempty" mapstructure:"scale_min"`
	ScaleMax     *float64           `json:"scale_max,omitempty" yaml:"scale_max,omitempty" mapstructure:"scale_max"`
	ScaleLabels  map[string]string  `json:"scale_labels,omitempty" yaml:"scale_labels,omitempty" mapstructure:"scale_labels"`
	Validation   *ValidationConfig  `json:"validation,omitempty" yaml:"validation,omitempty" mapstructure:"validation"`
	DisplayLogic *DisplayLogic      `json:"display_logic,omitempty" yaml:"display_logic,omitempty" mapstructure:"display_logic"`
	SkipLogic    *QuestionSkipLogic `json:"skip_logic,omitempty" yaml:"skip_logic,omitempty" mapstructure:"skip_logic"`
}

// ValidationConfig holds answer validation sub-rules.
type ValidationConfig struct {
	Required      bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
	MinLength     *int   `json:"min_length,omitempty" yaml:"min_length,omitempty" mapstructure:"min_length"`
	MaxLength     *int   `json:"max_length,omitempty" yaml:"max_length,omitempty" mapstructure:"max_length"`
	Pattern       string `json:"pattern,omitempty" yaml:"pattern,omitempty" mapstructure:"pattern"`
	CustomMessage string `json:"custom_message,omitempty" yaml:"custom_message,omitempty" mapstructure:"custom_message"`
}

// DisplayLogic shows a question only when its conditions hold.
type DisplayLogic struct {
	Enabled    bool               `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Conditions []DisplayCondition `json:"conditions,omitempty" yaml:"conditions,omitempty" mapstructure:"conditions"`
}

// DisplayCondition compares the answer of another question against Value.
type DisplayCondition struct {
	QuestionID string `json:"question_id" yaml:"question_id" mapstructure:"question_id"`
	Operator   string `json:"operator" yaml:"operator" mapstructure:"operator"`
	Value      string `json:"value" yaml:"value" mapstructure:"value"`
}
