package models

import (
	"encoding/json"

	"github.com/lib/pq"
)

type Look struct {
	JsonModel
	Name    string      `json:"name"`
	Owner   UserAccount `json:"-"`
	OwnerID uint        `json:"-"`
	// file **key** in storage, not a full URL
	ImageURL *string        `json:"image_url"`
	Vibe     *string        `json:"vibe"`
	Occasion *string        `json:"occasion"`
	Tags     pq.StringArray `gorm:"type:text[]" json:"tags"`
	// draft, uploaded, analyzed, failed
	Status string `json:"status"`
	// raw payload posted by the external look analyzer
	AnalysisJSON  *string `gorm:"type:text" json:"-"`
	AnalysisModel *string `json:"analysis_model"`

	AnalysisErrorMessage *string `json:"analysis_error_message"`
	Deleted              bool    `json:"deleted"`
}

// LookAnalysis is the parsed analyzer payload stored on a Look. Item entries
// stay loosely typed: two generations of the analyzer named item attributes
// differently and the report pipeline resolves the aliases itself.
type LookAnalysis struct {
	Items       []map[string]interface{} `json:"items"`
	Comment     string                   `json:"comment"`
	Tags        []string                 `json:"tags"`
	Suggestions []string                 `json:"suggestions"`
}

// Analysis parses AnalysisJSON, returning nil for looks without a readable
// payload. Bad stored JSON is treated the same as no analysis at all.
func (l *Look) Analysis() *LookAnalysis {
	if l.AnalysisJSON == nil || *l.AnalysisJSON == "" {
		return nil
	}
	var parsed LookAnalysis
	if err := json.Unmarshal([]byte(*l.AnalysisJSON), &parsed); err != nil {
		return nil
	}
	return &parsed
}
