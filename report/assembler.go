package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"lookbookapi/services"
)

const (
	SchemaVersion   = "1.0"
	DefaultHeadline = "Your Style Report"
	ProfileSource   = "style_report"
)

// Service runs the full report pipeline for one user. Both LLM generations
// are best effort: a failed or unusable generation degrades the output but
// never fails the run. Only store writes are fatal.
type Service struct {
	Looks     LookStore
	Profiles  ProfileStore
	Settings  SettingsProvider
	Generator services.StyleGenerator
	Model     services.LLMModelName
}

func (s *Service) Run(ctx context.Context, in RunInput) (*RunResult, error) {
	if in.UserID == 0 {
		return nil, fmt.Errorf("style report: missing user id")
	}
	settings, err := s.Settings.GetSettings()
	if err != nil {
		return nil, err
	}
	looks, total, err := s.Looks.ListLooksForReport(in.UserID, settings.MaxLooks)
	if err != nil {
		return nil, err
	}
	fmt.Printf("[Report: %v] Eligible looks: %d used of %d total (min %d, max %d)\n", in.UserID, len(looks), total, settings.MinLooks, settings.MaxLooks)

	if len(looks) < settings.MinLooks {
		return &RunResult{
			NotEnoughLooks: true,
			Message:        fmt.Sprintf("Analyze at least %d looks to unlock your style report", settings.MinLooks),
		}, nil
	}

	byLooks := BuildByLooks(looks)
	byItems := BuildByItems(byLooks)

	existing, err := s.Profiles.GetProfile(in.UserID)
	if err != nil {
		// the current profile is generation context only, missing is fine
		fmt.Printf("[Report: %v] Could not load current profile: %v\n", in.UserID, err)
		sentry.CaptureException(err)
		existing = nil
	}

	usage := &GenerationUsage{Model: s.Model.String()}
	usedGenerator := false

	flat := StyleProfileData{}
	headline := DefaultHeadline
	sections := []ReportSection{}
	if primary := s.generatePrimary(ctx, in.UserID, byItems, existing, usage, &usedGenerator); primary != nil {
		flat = primary.Profile
		headline = primary.Headline
		sections = primary.Sections
	}

	comp := s.generateComprehensive(ctx, in.UserID, byLooks, byItems, usage, &usedGenerator)
	if comp != nil {
		comp.Meta = &ComprehensiveMeta{
			SchemaVersion:   SchemaVersion,
			GeneratedAt:     time.Now().UTC(),
			SourceLookCount: len(looks),
		}
		flat = FlatFromComprehensive(comp, flat)
		flat.Comprehensive = comp
	}

	version := 1
	previous, err := s.Profiles.GetLatestReport(in.UserID)
	if err != nil {
		fmt.Printf("[Report: %v] Could not load previous report for versioning: %v\n", in.UserID, err)
		sentry.CaptureException(err)
	} else if previous != nil {
		version = previous.Version + 1
	}

	reportData := StyleReportData{
		Version:       version,
		GeneratedAt:   time.Now().UTC(),
		Headline:      headline,
		Sections:      sections,
		ByLooks:       byLooks,
		ByItems:       byItems,
		Comprehensive: comp,
	}

	if err := s.Profiles.WriteProfile(in.UserID, ProfileSource, flat); err != nil {
		fmt.Printf("[Report: %v] Failed to write style profile: %v\n", in.UserID, err)
		sentry.CaptureException(err)
		return nil, err
	}
	if !usedGenerator {
		usage = nil
	}
	if err := s.Profiles.SaveReport(in.UserID, reportData, usage); err != nil {
		fmt.Printf("[Report: %v] Failed to save report: %v\n", in.UserID, err)
		sentry.CaptureException(err)
		return nil, err
	}
	fmt.Printf("[Report: %v] Saved report version %d\n", in.UserID, version)
	return &RunResult{
		ReportData:          &reportData,
		StyleProfileUpdated: true,
	}, nil
}

func (s *Service) generatePrimary(ctx context.Context, userID uint, byItems ByItemsView, existing *StyleProfileData, usage *GenerationUsage, usedGenerator *bool) *primaryOutput {
	payload := map[string]interface{}{
		"wardrobe_aggregates": byItems.Aggregates,
	}
	if existing != nil {
		payload["current_profile"] = map[string]interface{}{
			"one_liner":      existing.OneLiner,
			"style_keywords": existing.StyleKeywords,
		}
	}
	raw := s.callGenerator(ctx, userID, "style report", payload, usage, usedGenerator, s.Generator.GenerateStyleReport)
	if raw == nil {
		return nil
	}
	out := normalizePrimary(raw)
	if out == nil {
		fmt.Printf("[Report: %v] Style report generation returned an unusable shape\n", userID)
	}
	return out
}

func (s *Service) generateComprehensive(ctx context.Context, userID uint, byLooks []LookView, byItems ByItemsView, usage *GenerationUsage, usedGenerator *bool) *ComprehensiveProfile {
	payload := map[string]interface{}{
		"looks":               byLooks,
		"wardrobe_aggregates": byItems.Aggregates,
	}
	raw := s.callGenerator(ctx, userID, "comprehensive profile", payload, usage, usedGenerator, s.Generator.GenerateComprehensiveProfile)
	if raw == nil {
		return nil
	}
	comp := NormalizeComprehensive(raw)
	if comp == nil {
		fmt.Printf("[Report: %v] Comprehensive profile generation returned an unusable shape\n", userID)
	}
	return comp
}

type generateFunc func(ctx context.Context, wardrobePayload string, modelName services.LLMModelName) (*services.LLMResponse, error)

func (s *Service) callGenerator(ctx context.Context, userID uint, label string, payload map[string]interface{}, usage *GenerationUsage, usedGenerator *bool, generate generateFunc) interface{} {
	serialized, err := json.Marshal(payload)
	if err != nil {
		fmt.Printf("[Report: %v] Failed to serialize %s payload: %v\n", userID, label, err)
		sentry.CaptureException(err)
		return nil
	}
	response, err := generate(ctx, string(serialized), s.Model)
	if err != nil {
		fmt.Printf("[Report: %v] %s generation failed: %v\n", userID, label, err)
		sentry.CaptureException(err)
		return nil
	}
	*usedGenerator = true
	usage.InputTokens += response.InputTokenCount
	usage.OutputTokens += response.OutputTokenCount
	usage.TotalTokens += response.TotalTokenCount

	var raw interface{}
	if err := json.Unmarshal([]byte(CleanGenerationText(response.Response)), &raw); err != nil {
		fmt.Printf("[Report: %v] %s generation returned invalid JSON: %v\n", userID, label, err)
		sentry.CaptureException(err)
		return nil
	}
	return raw
}
