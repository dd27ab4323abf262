package report

import "strings"

// ComprehensiveElementKeys are the nine style dimensions a comprehensive
// profile may carry. Anything else the generator invents is dropped.
var ComprehensiveElementKeys = []string{
	"colour_palette",
	"silhouette_and_fit",
	"fabric_and_texture",
	"pattern_and_print",
	"footwear_profile",
	"accessory_habits",
	"occasion_range",
	"layering_tendencies",
	"signature_pieces",
}

// CleanGenerationText strips the markdown fences models sometimes wrap
// around JSON output.
func CleanGenerationText(text string) string {
	clean := strings.ReplaceAll(text, "```json", "")
	clean = strings.ReplaceAll(clean, "```", "")
	return strings.TrimSpace(clean)
}

func asString(value interface{}) string {
	s, _ := value.(string)
	return s
}

func asStringPtr(value interface{}) *string {
	if s, ok := value.(string); ok && s != "" {
		return &s
	}
	return nil
}

func asStringList(value interface{}) []string {
	list, ok := value.([]interface{})
	if !ok {
		return []string{}
	}
	out := []string{}
	for _, entry := range list {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asStringMap(value interface{}) map[string]string {
	out := map[string]string{}
	raw, ok := value.(map[string]interface{})
	if !ok {
		return out
	}
	for key, entry := range raw {
		if s, ok := entry.(string); ok {
			out[key] = s
		}
	}
	return out
}

// NormalizeComprehensive coerces whatever the generator returned into a
// well-formed nine-dimension profile. It never panics on malformed input;
// input with no usable facet normalizes to nil.
func NormalizeComprehensive(raw interface{}) *ComprehensiveProfile {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	profile := &ComprehensiveProfile{}
	facets := 0

	if elementsRaw, ok := obj["elements"].(map[string]interface{}); ok {
		elements := map[string]ElementDetail{}
		for _, key := range ComprehensiveElementKeys {
			entry, ok := elementsRaw[key].(map[string]interface{})
			if !ok {
				continue
			}
			detail := ElementDetail{
				Label:       asString(entry["label"]),
				SubElements: asStringMap(entry["sub_elements"]),
			}
			if detail.Label == "" {
				detail.Label = strings.ReplaceAll(key, "_", " ")
			}
			elements[key] = detail
		}
		profile.Elements = elements
		facets++
	}

	if synthRaw, ok := obj["synthesis"].(map[string]interface{}); ok {
		profile.Synthesis = &Synthesis{
			StyleDescriptorShort: asStringPtr(synthRaw["style_descriptor_short"]),
			StyleDescriptorLong:  asStringPtr(synthRaw["style_descriptor_long"]),
			StyleKeywords:        asStringList(synthRaw["style_keywords"]),
			OneLineTakeaway:      asStringPtr(synthRaw["one_line_takeaway"]),
			DominantCategories:   asStringList(synthRaw["dominant_categories"]),
			DominantColors:       asStringList(synthRaw["dominant_colors"]),
			DominantSilhouettes:  asStringList(synthRaw["dominant_silhouettes"]),
		}
		facets++
	}

	if dnaRaw, ok := obj["style_dna"].(map[string]interface{}); ok {
		profile.StyleDNA = &StyleDNA{
			ArchetypeName:    asStringPtr(dnaRaw["archetype_name"]),
			ArchetypeTagline: asStringPtr(dnaRaw["archetype_tagline"]),
			Keywords:         asStringList(dnaRaw["keywords"]),
			Summary:          asStringPtr(dnaRaw["summary"]),
		}
		facets++
	}

	if ideasRaw, ok := obj["ideas_for_you"].(map[string]interface{}); ok {
		profile.IdeasForYou = &IdeasForYou{
			OutfitIdeas:   asStringList(ideasRaw["outfit_ideas"]),
			ShoppingIdeas: asStringList(ideasRaw["shopping_ideas"]),
		}
		facets++
	}

	if facets == 0 {
		return nil
	}
	return profile
}

// primaryOutput is the normalized form of the flat-report generation.
type primaryOutput struct {
	Profile  StyleProfileData
	Headline string
	Sections []ReportSection
}

func normalizePrimary(raw interface{}) *primaryOutput {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	out := &primaryOutput{
		Headline: DefaultHeadline,
		Sections: []ReportSection{},
	}
	if profileRaw, ok := obj["styleProfile"].(map[string]interface{}); ok {
		out.Profile = StyleProfileData{
			DominantSilhouettes: asStringPtr(profileRaw["dominant_silhouettes"]),
			ColorPalette:        asStringPtr(profileRaw["color_palette"]),
			FormalityRange:      asStringPtr(profileRaw["formality_range"]),
			StyleKeywords:       asStringList(profileRaw["style_keywords"]),
			OneLiner:            asStringPtr(profileRaw["one_liner"]),
			PairingTendencies:   asStringList(profileRaw["pairing_tendencies"]),
		}
	}
	if reportRaw, ok := obj["report"].(map[string]interface{}); ok {
		if headline := asString(reportRaw["headline"]); headline != "" {
			out.Headline = headline
		}
		if sections, ok := reportRaw["sections"].([]interface{}); ok {
			for _, entry := range sections {
				sectionRaw, ok := entry.(map[string]interface{})
				if !ok {
					continue
				}
				section := ReportSection{
					Title: asString(sectionRaw["title"]),
					Body:  asString(sectionRaw["body"]),
				}
				if section.Title == "" && section.Body == "" {
					continue
				}
				out.Sections = append(out.Sections, section)
			}
		}
	}
	return out
}
