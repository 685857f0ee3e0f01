package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrEmptyTip = errors.New("model returned an empty tip")

// GeminiProvider implements LLMProvider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider initializes a new Gemini client.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}
	model := client.GenerativeModel(modelName)

	// Force JSON response for structured parsing.
	model.ResponseMIMEType = "application/json"
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(200)

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) SuggestTip(ctx context.Context, in TipContext) (*TipResult, error) {
	resp, err := p.model.GenerateContent(ctx, genai.Text(buildTipPrompt(in)))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	return parseTip(responseText.String())
}

func parseTip(raw string) (*TipResult, error) {
	cleanJSON := cleanJSONString(raw)
	var result TipResult
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	result.Title = strings.TrimSpace(result.Title)
	result.Tip = strings.TrimSpace(result.Tip)
	if result.Tip == "" {
		return nil, ErrEmptyTip
	}
	if result.Title == "" {
		result.Title = "Pro Tip"
	}
	return &result, nil
}

func buildTipPrompt(in TipContext) string {
	status := "offline"
	if in.Online {
		status = "online"
	}
	bestDay := in.BestDay
	if bestDay == "" {
		bestDay = "NONE"
	}
	return fmt.Sprintf(`Role: You coach food-delivery partners in India on earning more.
Context:
- Current local time: %s (%s)
- Partner status: %s
- Earned today: %s from %d deliveries
- Earned in the last 7 days: %s (best day: %s)
- Deliveries completed overall: %d

Write ONE practical tip (max 30 words) the partner can act on in the next few hours.
Prefer timing (lunch 12-2 PM, dinner 7-9 PM), positioning near busy restaurants, and safe riding.
Do not invent numbers that are not in the context.

Respond with JSON only: {"title": "<max 4 words>", "tip": "<the tip>"}`,
		in.Now.Format("15:04"), in.Now.Weekday(), status,
		in.TodayEarnings, in.TodayOrders, in.WeekEarnings, bestDay, in.TotalCompleted)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
