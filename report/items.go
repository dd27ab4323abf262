package report

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lookbookapi/models"
)

// Two analyzer generations named item attributes differently. First non-empty
// string wins, everything else collapses to nil.
var itemFieldAliases = map[string][]string{
	"type":        {"type", "item_type"},
	"description": {"description", "desc"},
	"category":    {"category", "item_category"},
	"color":       {"color", "colour"},
	"style":       {"style", "style_notes"},
}

var bucketTitle = cases.Title(language.English)

func aliasedField(raw map[string]interface{}, field string) *string {
	for _, key := range itemFieldAliases[field] {
		if value, ok := raw[key].(string); ok && value != "" {
			return &value
		}
	}
	return nil
}

// ToItemSummary maps one raw analyzer entry to the canonical item shape. It
// never fails: unknown keys are ignored and missing attributes stay nil.
func ToItemSummary(raw map[string]interface{}, lookID uint) ItemSummary {
	return ItemSummary{
		Type:         aliasedField(raw, "type"),
		Description:  aliasedField(raw, "description"),
		Category:     aliasedField(raw, "category"),
		Color:        aliasedField(raw, "color"),
		Style:        aliasedField(raw, "style"),
		OriginLookID: lookID,
	}
}

func bucketForType(itemType *string) string {
	if itemType == nil {
		return ItemTypeClothing
	}
	switch strings.ToLower(*itemType) {
	case ItemTypeFootwear:
		return ItemTypeFootwear
	case ItemTypeAccessory:
		return ItemTypeAccessory
	default:
		return ItemTypeClothing
	}
}

func itemDescriptor(item ItemSummary, bucket string) string {
	if item.Description != nil && *item.Description != "" {
		return *item.Description
	}
	if item.Category != nil && *item.Category != "" {
		return *item.Category
	}
	return bucketTitle.String(bucket)
}

// pairingSummary condenses a look into a one-line outfit description, taking
// at most three clothing, two footwear and two accessory descriptors.
func pairingSummary(itemsByType map[string][]ItemSummary) string {
	limits := []struct {
		bucket string
		max    int
	}{
		{ItemTypeClothing, 3},
		{ItemTypeFootwear, 2},
		{ItemTypeAccessory, 2},
	}
	parts := []string{}
	for _, limit := range limits {
		for i, item := range itemsByType[limit.bucket] {
			if i >= limit.max {
				break
			}
			parts = append(parts, itemDescriptor(item, limit.bucket))
		}
	}
	return strings.Join(parts, " with ")
}

// BuildByLooks reshapes eligible looks into per-look views, bucketing each
// detected item by its (lowercased) type. Unrecognized types land in the
// clothing bucket so nothing detected ever disappears from the report.
func BuildByLooks(looks []models.Look) []LookView {
	views := make([]LookView, 0, len(looks))
	for _, look := range looks {
		view := LookView{
			LookID:   look.ID,
			ImageURL: look.ImageURL,
			Vibe:     look.Vibe,
			Occasion: look.Occasion,
			ItemsByType: map[string][]ItemSummary{
				ItemTypeClothing:  {},
				ItemTypeFootwear:  {},
				ItemTypeAccessory: {},
			},
		}
		if analysis := look.Analysis(); analysis != nil {
			view.Comment = analysis.Comment
			for _, raw := range analysis.Items {
				item := ToItemSummary(raw, look.ID)
				bucket := bucketForType(item.Type)
				view.ItemsByType[bucket] = append(view.ItemsByType[bucket], item)
			}
		}
		view.PairingSummary = pairingSummary(view.ItemsByType)
		views = append(views, view)
	}
	return views
}
