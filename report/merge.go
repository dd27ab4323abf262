package report

import "strings"

func hasValue(value *string) bool {
	return value != nil && *value != ""
}

func joinList(list []string) string {
	return strings.Join(list, ", ")
}

// FlatFromComprehensive folds comprehensive synthesis fields into the flat
// profile. The precedence is asymmetric on purpose: colors always take the
// fresh value, silhouettes prefer fresh but keep the old one over a weaker
// fallback, the one-liner and keywords only fill gaps.
func FlatFromComprehensive(comp *ComprehensiveProfile, existing StyleProfileData) StyleProfileData {
	merged := existing
	if comp == nil {
		return merged
	}
	var synth Synthesis
	if comp.Synthesis != nil {
		synth = *comp.Synthesis
	}

	if silhouettes := joinList(synth.DominantSilhouettes); silhouettes != "" {
		merged.DominantSilhouettes = &silhouettes
	} else if !hasValue(merged.DominantSilhouettes) && hasValue(synth.StyleDescriptorShort) {
		merged.DominantSilhouettes = synth.StyleDescriptorShort
	}

	if colors := joinList(synth.DominantColors); colors != "" {
		merged.ColorPalette = &colors
	}

	if !hasValue(merged.OneLiner) && hasValue(synth.OneLineTakeaway) {
		merged.OneLiner = synth.OneLineTakeaway
	}

	if len(merged.StyleKeywords) == 0 {
		if len(synth.StyleKeywords) > 0 {
			merged.StyleKeywords = synth.StyleKeywords
		} else if comp.StyleDNA != nil && len(comp.StyleDNA.Keywords) > 0 {
			merged.StyleKeywords = comp.StyleDNA.Keywords
		}
	}
	return merged
}
