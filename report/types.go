package report

import "time"

const (
	ItemTypeClothing  = "clothing"
	ItemTypeFootwear  = "footwear"
	ItemTypeAccessory = "accessory"
)

// ItemSummary is the canonical shape of one detected wardrobe item. Built
// once from the analyzer's raw entry and never mutated afterwards.
type ItemSummary struct {
	Type         *string `json:"type"`
	Description  *string `json:"description"`
	Category     *string `json:"category"`
	Color        *string `json:"color"`
	Style        *string `json:"style"`
	OriginLookID uint    `json:"origin_look_id"`
}

type LookView struct {
	LookID         uint                     `json:"look_id"`
	ImageURL       *string                  `json:"image_url"`
	Vibe           *string                  `json:"vibe"`
	Occasion       *string                  `json:"occasion"`
	Comment        string                   `json:"comment"`
	ItemsByType    map[string][]ItemSummary `json:"items_by_type"`
	PairingSummary string                   `json:"pairing_summary"`
}

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type ItemAggregates struct {
	TotalItems int            `json:"total_items"`
	ByCategory map[string]int `json:"by_category"`
	ByColor    map[string]int `json:"by_color"`
	ByType     map[string]int `json:"by_type"`
	TopTypes   []TypeCount    `json:"top_types"`
}

type ItemBreakdown struct {
	ByCategory map[string][]ItemSummary `json:"by_category"`
	ByColor    map[string][]ItemSummary `json:"by_color"`
	ByType     map[string][]ItemSummary `json:"by_type"`
}

type ByItemsView struct {
	Aggregates        ItemAggregates `json:"aggregates"`
	DetailedBreakdown ItemBreakdown  `json:"detailed_breakdown"`
}

// ElementDetail is one of the nine comprehensive style dimensions.
type ElementDetail struct {
	Label       string            `json:"label"`
	SubElements map[string]string `json:"sub_elements"`
}

type Synthesis struct {
	StyleDescriptorShort *string  `json:"style_descriptor_short"`
	StyleDescriptorLong  *string  `json:"style_descriptor_long"`
	StyleKeywords        []string `json:"style_keywords"`
	OneLineTakeaway      *string  `json:"one_line_takeaway"`
	DominantCategories   []string `json:"dominant_categories"`
	DominantColors       []string `json:"dominant_colors"`
	DominantSilhouettes  []string `json:"dominant_silhouettes"`
}

type StyleDNA struct {
	ArchetypeName    *string  `json:"archetype_name"`
	ArchetypeTagline *string  `json:"archetype_tagline"`
	Keywords         []string `json:"keywords"`
	Summary          *string  `json:"summary"`
}

type IdeasForYou struct {
	OutfitIdeas   []string `json:"outfit_ideas"`
	ShoppingIdeas []string `json:"shopping_ideas"`
}

// ComprehensiveMeta is stamped by the pipeline after normalization, never
// taken from the generator.
type ComprehensiveMeta struct {
	SchemaVersion   string    `json:"schema_version"`
	GeneratedAt     time.Time `json:"generated_at"`
	SourceLookCount int       `json:"source_look_count"`
}

type ComprehensiveProfile struct {
	Elements    map[string]ElementDetail `json:"elements,omitempty"`
	Synthesis   *Synthesis               `json:"synthesis,omitempty"`
	StyleDNA    *StyleDNA                `json:"style_dna,omitempty"`
	IdeasForYou *IdeasForYou             `json:"ideas_for_you,omitempty"`
	Meta        *ComprehensiveMeta       `json:"meta,omitempty"`
}

type ReportSection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// StyleReportData is the persisted report document. A run always produces a
// brand-new instance; stored reports are never edited in place.
type StyleReportData struct {
	Version       int                   `json:"version"`
	GeneratedAt   time.Time             `json:"generated_at"`
	Headline      string                `json:"headline"`
	Sections      []ReportSection       `json:"sections"`
	ByLooks       []LookView            `json:"by_looks"`
	ByItems       ByItemsView           `json:"by_items"`
	Comprehensive *ComprehensiveProfile `json:"comprehensive,omitempty"`
}

// StyleProfileData is the flat personalization projection. The store keeps
// only the latest value; every run writes a full replacement.
type StyleProfileData struct {
	DominantSilhouettes *string               `json:"dominant_silhouettes,omitempty"`
	ColorPalette        *string               `json:"color_palette,omitempty"`
	FormalityRange      *string               `json:"formality_range,omitempty"`
	StyleKeywords       []string              `json:"style_keywords,omitempty"`
	OneLiner            *string               `json:"one_liner,omitempty"`
	PairingTendencies   []string              `json:"pairing_tendencies,omitempty"`
	Comprehensive       *ComprehensiveProfile `json:"comprehensive,omitempty"`
}

type Settings struct {
	MinLooks int
	MaxLooks int
}

type RunInput struct {
	UserID          uint
	ForceRegenerate bool
}

type RunResult struct {
	ReportData          *StyleReportData
	StyleProfileUpdated bool
	NotEnoughLooks      bool
	Message             string
}
