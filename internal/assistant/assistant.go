// Package assistant asks a language model for short follow-up texts. The
// returned text is opaque: callers display it and never parse it.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"dealer_crm_backend/platform/logger"
)

// LeadContext is the small fact sheet handed to the provider.
type LeadContext struct {
	FirstName       string
	Status          string
	Location        string
	VehicleInterest string
	LastMessage     string
	HoursSinceTouch int
}

// Suggester returns a free-text follow-up suggestion.
type Suggester interface {
	Suggest(ctx context.Context, lc LeadContext) (string, error)
	Provider() string
}

const systemInstruction = `You write short SMS follow-ups for a car dealership sales rep.
Keep it under 300 characters, friendly, no emojis, no prices, one clear question.
Never invent inventory or promotions.`

// LLMSuggester calls an ADK model.
type LLMSuggester struct {
	llm      model.LLM
	fallback Suggester
	log      *logger.Logger
}

// NewLLMSuggester wraps llm. When the model fails the static template is used.
func NewLLMSuggester(llm model.LLM, log *logger.Logger) *LLMSuggester {
	return &LLMSuggester{llm: llm, fallback: StaticSuggester{}, log: log}
}

// Provider names the model.
func (s *LLMSuggester) Provider() string {
	return s.llm.Name()
}

// Suggest runs one non-streaming completion.
func (s *LLMSuggester) Suggest(ctx context.Context, lc LeadContext) (string, error) {
	temperature := float32(0.4)
	req := &model.LLMRequest{
		Contents: []*genai.Content{{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{genai.NewPartFromText(describe(lc))},
		}},
		Config: &genai.GenerateContentConfig{
			Temperature: &temperature,
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{genai.NewPartFromText(systemInstruction)},
			},
		},
	}

	var text string
	var genErr error
	for resp, err := range s.llm.GenerateContent(ctx, req, false) {
		if err != nil {
			genErr = err
			break
		}
		if resp != nil && resp.Content != nil {
			for _, part := range resp.Content.Parts {
				if part != nil {
					text += part.Text
				}
			}
		}
	}

	text = strings.TrimSpace(text)
	if genErr == nil && text == "" {
		genErr = errors.New("empty suggestion")
	}
	if genErr != nil {
		s.log.Warn("assistant suggestion failed, using template", "provider", s.Provider(), "error", genErr)
		return s.fallback.Suggest(ctx, lc)
	}
	return text, nil
}

func describe(lc LeadContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer first name: %s\n", orDash(lc.FirstName))
	fmt.Fprintf(&b, "Pipeline status: %s\n", orDash(lc.Status))
	fmt.Fprintf(&b, "Store: %s\n", orDash(lc.Location))
	fmt.Fprintf(&b, "Vehicle of interest: %s\n", orDash(lc.VehicleInterest))
	fmt.Fprintf(&b, "Hours since last touch: %d\n", lc.HoursSinceTouch)
	if lc.LastMessage != "" {
		fmt.Fprintf(&b, "Customer's last message: %q\n", lc.LastMessage)
	}
	b.WriteString("Write the follow-up text.")
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// StaticSuggester fills a fixed template. Used when no model is configured.
type StaticSuggester struct{}

// Provider names the template.
func (StaticSuggester) Provider() string { return "template" }

// Suggest renders the template.
func (StaticSuggester) Suggest(_ context.Context, lc LeadContext) (string, error) {
	name := strings.TrimSpace(lc.FirstName)
	if name == "" {
		name = "there"
	}
	if lc.VehicleInterest != "" {
		return fmt.Sprintf("Hi %s, just checking in on the %s. Would you like to set up a test drive this week?", name, lc.VehicleInterest), nil
	}
	return fmt.Sprintf("Hi %s, thanks for reaching out. What vehicle can we help you find, and when is a good time to talk?", name), nil
}
