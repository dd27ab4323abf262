package models

type StyleReport struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`
	Version int         `json:"version"`
	// full report document as produced by the report pipeline
	ReportJSON      string `gorm:"type:text" json:"-"`
	SourceLookCount int    `json:"source_look_count"`

	LLMModel            *string `json:"llm_model"`
	LLMInputTokenCount  *int32  `json:"llm_input_token_count"`
	LLMOutputTokenCount *int32  `json:"llm_output_token_count"`
	LLMTotalTokenCount  *int32  `json:"llm_total_token_count"`
}

// StyleProfile keeps the latest personalization projection for a user. One
// row per user, replaced wholesale on every report run.
type StyleProfile struct {
	JsonModel
	Owner   UserAccount `json:"-"`
	OwnerID uint        `gorm:"uniqueIndex" json:"-"`
	// what produced the stored data, e.g. "style_report"
	Source      string `json:"source"`
	ProfileJSON string `gorm:"type:text" json:"-"`
}

// ReportSettings is a single-row table; superadmins tune eligibility bounds
// without a deploy.
type ReportSettings struct {
	JsonModel
	MinLooks int `json:"min_looks"`
	MaxLooks int `json:"max_looks"`
}
