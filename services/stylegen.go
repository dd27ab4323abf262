package services

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"
)

// LLMModelName is the GenAI model to use for report generation.
type LLMModelName int32

const (
	Pro25 LLMModelName = iota
	Flash25
	FlashLite25
	Flash20
)

// The Stringer interface for LLMModelName.
func (t LLMModelName) String() string {
	switch t {
	case Pro25:
		return "gemini-2.5-pro"
	case Flash25:
		return "gemini-2.5-flash"
	case FlashLite25:
		return "gemini-2.5-flash-lite-preview-06-17"
	case Flash20:
		return "gemini-2.0-flash"
	default:
		return "gemini-2.0-flash"
	}
}

func floatPointer(f float32) *float32 {
	return &f
}

type LLMResponse struct {
	Response           string `json:"response"`
	InputTokenCount    int32  `json:"input_token_count"`
	Thoughts           string `json:"thoughts"`
	ThoughtsTokenCount int32  `json:"thoughts_token_count"`
	OutputTokenCount   int32  `json:"output_token_count"`
	TotalTokenCount    int32  `json:"total_token_count"`
	IsTest             bool   `json:"is_test"`
}

// StyleGenerator produces the two report generations from a serialized
// wardrobe payload. Both calls return raw JSON text which the report
// pipeline cleans, parses and normalizes itself.
type StyleGenerator interface {
	GenerateStyleReport(ctx context.Context, wardrobePayload string, modelName LLMModelName) (*LLMResponse, error)
	GenerateComprehensiveProfile(ctx context.Context, wardrobePayload string, modelName LLMModelName) (*LLMResponse, error)
}

type ResponseWithThoughts struct {
	Thoughts string `json:"thoughts"`
	Text     string `json:"text"`
}

func GetFirstCandidateTextWithThoughts(result *genai.GenerateContentResponse) (*ResponseWithThoughts, error) {
	var thinkingContent string
	for _, c := range result.Candidates {
		fmt.Println("Finish reason: ", c.FinishReason, " Finish message: ", c.FinishMessage)

		if len(c.SafetyRatings) > 0 {
			fmt.Println("[Safety] Safety ratings present:", len(c.SafetyRatings))
			for _, rating := range c.SafetyRatings {
				fmt.Println("[Safety] rating:", rating.Category, "Score:", rating.Probability, "Severity score:", rating.SeverityScore, " Blocked:", rating.Blocked)
				if rating.Blocked {
					return nil, fmt.Errorf("content violation: couldn't build the report, because it contains %s", rating.Category)
				}
			}
		}
		for _, part := range c.Content.Parts {
			if part.Thought && part.Text != "" {
				if result.UsageMetadata != nil && result.UsageMetadata.ThoughtsTokenCount > 25000 {
					fmt.Println("Warning: Thought content is too long:", result.UsageMetadata.ThoughtsTokenCount, part.Text)
				}
				thinkingContent = part.Text
				continue
			}
		}
	}
	return &ResponseWithThoughts{
		Thoughts: thinkingContent,
		Text:     result.Text(),
	}, nil
}

type GoogleStyleGenerator struct{}

var stringListSchema = &genai.Schema{
	Type:  "array",
	Items: &genai.Schema{Type: "string"},
}

var styleReportSchema = &genai.Schema{
	Type: "object",
	Properties: map[string]*genai.Schema{
		"styleProfile": {
			Type: "object",
			Properties: map[string]*genai.Schema{
				"dominant_silhouettes": {Type: "string"},
				"color_palette":        {Type: "string"},
				"formality_range":      {Type: "string"},
				"style_keywords":       stringListSchema,
				"one_liner":            {Type: "string"},
				"pairing_tendencies":   stringListSchema,
			},
		},
		"report": {
			Type: "object",
			Properties: map[string]*genai.Schema{
				"headline": {Type: "string"},
				"sections": {
					Type: "array",
					Items: &genai.Schema{
						Type: "object",
						Properties: map[string]*genai.Schema{
							"title": {Type: "string"},
							"body":  {Type: "string"},
						},
						Required: []string{"title", "body"},
					},
				},
			},
			Required: []string{"headline", "sections"},
		},
	},
	Required: []string{"styleProfile", "report"},
}

var comprehensiveElementSchema = &genai.Schema{
	Type: "object",
	Properties: map[string]*genai.Schema{
		"label":        {Type: "string"},
		"sub_elements": {Type: "object"},
	},
	Required: []string{"label"},
}

var comprehensiveProfileSchema = &genai.Schema{
	Type: "object",
	Properties: map[string]*genai.Schema{
		"elements": {
			Type: "object",
			Properties: map[string]*genai.Schema{
				"colour_palette":      comprehensiveElementSchema,
				"silhouette_and_fit":  comprehensiveElementSchema,
				"fabric_and_texture":  comprehensiveElementSchema,
				"pattern_and_print":   comprehensiveElementSchema,
				"footwear_profile":    comprehensiveElementSchema,
				"accessory_habits":    comprehensiveElementSchema,
				"occasion_range":      comprehensiveElementSchema,
				"layering_tendencies": comprehensiveElementSchema,
				"signature_pieces":    comprehensiveElementSchema,
			},
		},
		"synthesis": {
			Type: "object",
			Properties: map[string]*genai.Schema{
				"style_descriptor_short": {Type: "string"},
				"style_descriptor_long":  {Type: "string"},
				"style_keywords":         stringListSchema,
				"one_line_takeaway":      {Type: "string"},
				"dominant_categories":    stringListSchema,
				"dominant_colors":        stringListSchema,
				"dominant_silhouettes":   stringListSchema,
			},
		},
		"style_dna": {
			Type: "object",
			Properties: map[string]*genai.Schema{
				"archetype_name":    {Type: "string"},
				"archetype_tagline": {Type: "string"},
				"keywords":          stringListSchema,
				"summary":           {Type: "string"},
			},
		},
		"ideas_for_you": {
			Type: "object",
			Properties: map[string]*genai.Schema{
				"outfit_ideas":   stringListSchema,
				"shopping_ideas": stringListSchema,
			},
		},
	},
	Required: []string{"elements", "synthesis"},
}

func (GoogleStyleGenerator) generate(ctx context.Context, wardrobePayload string, modelName LLMModelName, systemPrompt string, schema *genai.Schema) (*LLMResponse, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  os.Getenv("GOOGLE_API_KEY"),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		fmt.Println("Error creating genai client:", err)
		return nil, fmt.Errorf("%v", err)
	}

	parts := []*genai.Part{
		{Text: wardrobePayload},
	}

	result, err := client.Models.GenerateContent(ctx, modelName.String(), []*genai.Content{{Parts: parts}}, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		CandidateCount:   1,
		MaxOutputTokens:  50000,
		Temperature:      floatPointer(0.8),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{
				{Text: systemPrompt},
			},
		},
		ResponseSchema: schema,
	})

	if err != nil {
		fmt.Println("Error in GenerateContent:", err)
		return nil, fmt.Errorf("%v", err)
	}

	var inputTokenCount int32
	var thoughtsTokenCount int32
	var outputTokenCount int32
	var totalTokenCount int32
	if result.UsageMetadata != nil {
		inputTokenCount = result.UsageMetadata.PromptTokenCount
		thoughtsTokenCount = result.UsageMetadata.ThoughtsTokenCount
		outputTokenCount = result.UsageMetadata.CandidatesTokenCount
		totalTokenCount = result.UsageMetadata.TotalTokenCount
		fmt.Println("Input token count:", inputTokenCount)
		fmt.Println("Output token count:", outputTokenCount)
		fmt.Println("Thoughts token count:", thoughtsTokenCount)
		fmt.Println("Total token count:", totalTokenCount)
	} else {
		fmt.Println("UsageMetadata is nil!")
	}

	if result.PromptFeedback != nil {
		fmt.Println(result.PromptFeedback.BlockReason)
		fmt.Println(result.PromptFeedback.BlockReasonMessage)
		fmt.Println(result.PromptFeedback.SafetyRatings)
		return nil, fmt.Errorf("content violation: %s ", result.PromptFeedback.BlockReasonMessage)
	}

	llmResponseText, err := GetFirstCandidateTextWithThoughts(result)
	if err != nil {
		fmt.Println("Error getting first candidate text: ", err)
		fmt.Println(result.Candidates)
		return nil, fmt.Errorf("error getting first candidate text: %v", err)
	}

	return &LLMResponse{
		Response:           llmResponseText.Text,
		Thoughts:           llmResponseText.Thoughts,
		InputTokenCount:    inputTokenCount,
		ThoughtsTokenCount: thoughtsTokenCount,
		OutputTokenCount:   outputTokenCount,
		TotalTokenCount:    totalTokenCount,
		IsTest:             false,
	}, nil
}

func (g GoogleStyleGenerator) GenerateStyleReport(ctx context.Context, wardrobePayload string, modelName LLMModelName) (*LLMResponse, error) {
	systemPrompt := `You are a personal fashion stylist reviewing a user's wardrobe. The user message contains a JSON payload with wardrobe-wide item aggregates and, when available, the user's current style profile. Write a friendly, concrete style report for this user. Return the response in JSON format with two top-level fields:
   - **styleProfile**: the updated flat profile with "dominant_silhouettes", "color_palette", "formality_range", "style_keywords" (array), "one_liner" and "pairing_tendencies" (array). Base every field on the provided aggregates, not on assumptions.
   - **report**: a readable report with a short "headline" and 3 to 5 "sections", each with "title" and "body". Reference actual counts and colors from the payload.
Do not invent items that are not in the payload. Keep the tone warm and specific.`
	return g.generate(ctx, wardrobePayload, modelName, systemPrompt, styleReportSchema)
}

func (g GoogleStyleGenerator) GenerateComprehensiveProfile(ctx context.Context, wardrobePayload string, modelName LLMModelName) (*LLMResponse, error) {
	systemPrompt := `You are a personal fashion stylist building a deep style profile. The user message contains a JSON payload with per-look outfit summaries and wardrobe-wide item aggregates. Return the response in JSON format with these top-level fields:
   - **elements**: an object keyed by exactly these nine dimensions: colour_palette, silhouette_and_fit, fabric_and_texture, pattern_and_print, footwear_profile, accessory_habits, occasion_range, layering_tendencies, signature_pieces. Each entry has a human-readable "label" and a "sub_elements" object of short string findings.
   - **synthesis**: "style_descriptor_short", "style_descriptor_long", "style_keywords" (array), "one_line_takeaway", "dominant_categories" (array), "dominant_colors" (array), "dominant_silhouettes" (array).
   - **style_dna**: "archetype_name", "archetype_tagline", "keywords" (array), "summary".
   - **ideas_for_you**: "outfit_ideas" (array) and "shopping_ideas" (array) grounded in items the user already owns.
Every finding must be grounded in the payload. Do not output any field not listed above.`
	return g.generate(ctx, wardrobePayload, modelName, systemPrompt, comprehensiveProfileSchema)
}
