// Package textgen renders advisory prose through an OpenAI-compatible chat
// model. It is strictly best-effort: every failure surfaces as an error and
// the advisory composer falls back to its deterministic template.
package textgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/savator12/agriadapt/internal/advisory"
	"github.com/savator12/agriadapt/internal/domain"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

const (
	maxRetries     = 4
	initialBackoff = 2 * time.Second
	maxBackoff     = 30 * time.Second
)

// chatCompleter is the slice of the OpenAI client the generator uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client generates localized advisory text. It implements
// advisory.TextGenerator.
type Client struct {
	api    chatCompleter
	model  string
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewClient creates a text generation client.
func NewClient(apiKey, model string, logger *slog.Logger) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:    openai.NewClient(apiKey),
		model:  model,
		logger: logger,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GenerateAdvisoryText renders the advisory in the requested language.
// Rate-limited requests retry with exponential backoff; authentication and
// quota failures never retry.
func (c *Client) GenerateAdvisoryText(ctx context.Context, req advisory.TextRequest) (string, error) {
	prompt := buildPrompt(req)

	backoff := initialBackoff
	for attempt := 0; ; attempt++ {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: "You are an agricultural advisor for Ethiopian farmers."},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", fmt.Errorf("text generation: %w: empty response", domain.ErrTextGenUnavailable)
			}
			return strings.TrimSpace(resp.Choices[0].Message.Content), nil
		}

		classified := classifyError(err)
		if !errors.Is(classified, domain.ErrTextGenRateLimited) || attempt >= maxRetries {
			return "", classified
		}

		c.logger.Warn("text generation rate limited, retrying",
			"attempt", attempt+1, "backoff", backoff)
		if err := c.sleep(ctx, backoff); err != nil {
			return "", err
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// classifyError maps provider errors onto the domain's text generation
// sentinels so callers can distinguish retryable from terminal failures.
func classifyError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("text generation: %w: %v", domain.ErrTextGenUnavailable, err)
	}

	switch apiErr.HTTPStatusCode {
	case 401, 403:
		return fmt.Errorf("text generation: %w: %s", domain.ErrTextGenAuth, apiErr.Message)
	case 429:
		if strings.Contains(strings.ToLower(apiErr.Message), "quota") {
			return fmt.Errorf("text generation: %w: %s", domain.ErrTextGenQuota, apiErr.Message)
		}
		return fmt.Errorf("text generation: %w: %s", domain.ErrTextGenRateLimited, apiErr.Message)
	case 404:
		return fmt.Errorf("text generation: %w: model not found: %s", domain.ErrTextGenUnavailable, apiErr.Message)
	default:
		return fmt.Errorf("text generation: %w: status %d: %s", domain.ErrTextGenUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
	}
}

// languageInstruction returns the strict language directive for the prompt.
func languageInstruction(code string) string {
	switch code {
	case domain.LanguageAmharic:
		return `Write ENTIRELY in Amharic using Ge'ez script (አማርኛ). Example greeting: "ሰላም"`
	case domain.LanguageOromo:
		return `Write ENTIRELY in Afaan Oromo using Latin script. Example greeting: "Akkam"`
	case domain.LanguageTigrinya:
		return `Write ENTIRELY in Tigrigna using Ge'ez script (ትግርኛ). Example greeting: "ሰላም"`
	default:
		return "Write in English."
	}
}

func orNotSpecified(s *string) string {
	if s == nil || *s == "" {
		return "Not specified"
	}
	return *s
}

// buildPrompt assembles the advisory prompt: farmer context, weather figures,
// ranked recommendations, and a strict target-language directive.
func buildPrompt(req advisory.TextRequest) string {
	farmer := req.Farmer
	result := req.Result
	languageName := domain.LanguageName(req.Language)

	size := "Not specified"
	if farmer.FarmSizeHa != nil {
		size = fmt.Sprintf("%g hectares", *farmer.FarmSizeHa)
	}

	var recText strings.Builder
	for i, rec := range result.Recommendations {
		if i > 0 {
			recText.WriteString("\n\n")
		}
		fmt.Fprintf(&recText, "%d. %s\n", i+1, rec.RuleName)
		for _, action := range rec.Actions {
			fmt.Fprintf(&recText, "- %s\n", action)
		}
		fmt.Fprintf(&recText, "Reason: %s", rec.Explanation)
	}

	w := result.WeatherSummary
	return fmt.Sprintf(`LANGUAGE (STRICT):
%s
The ENTIRE message must be in %s. Do NOT mix languages.

Farmer:
- Name: %s
- Location: %s
- Crop: %s
- Farm type: %s
- Soil: %s
- Water access: %s
- Size: %s

Weather:
- Avg rainfall: %.1fmm
- Temp: %.0f°C - %.0f°C
- Next 7 days: %.1fmm (%.0f%% chance)
- Drought: %s
- Flood: %s
- Heat: %s

Overall risk: %s

Recommendations:
%s

Requirements:
- 200-300 words
- Simple & practical
- Urgent items first
- Greet the farmer by name
- End with encouragement
- Output ONLY in %s

Generate now:`,
		languageInstruction(req.Language), languageName,
		farmer.FullName, farmer.LocationLabel(),
		orNotSpecified(farmer.CropType), farmer.FarmType,
		orNotSpecified(farmer.SoilType), farmer.WaterAccess, size,
		w.AvgRainfall, w.MinTemp, w.MaxTemp,
		w.Next7Days.RainfallMm, w.Next7Days.RainfallProb,
		result.RiskSummary.DroughtRisk, result.RiskSummary.FloodRisk, result.RiskSummary.HeatRisk,
		result.RiskSummary.OverallRisk,
		recText.String(), languageName)
}
