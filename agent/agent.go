// Package agent talks to Gemini on behalf of the site.
package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"google.golang.org/genai"

	"portfolio/logger"
	"portfolio/prompts"
)

var ErrNoAPIKey = errors.New("gemini api key is not configured")

// ContentStreamer is the part of the Gemini models API the summarizer uses.
type ContentStreamer interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// Summarizer streams project summaries from Gemini.
type Summarizer struct {
	models ContentStreamer
	model  string
	config *genai.GenerateContentConfig
	log    logger.Logger
}

// Config configures a Summarizer.
type Config struct {
	APIKey      string
	Model       string
	BasePrompt  string
	Temperature float32
}

// New creates a Gemini client and wraps it in a Summarizer.
func New(ctx context.Context, cfg Config, log logger.Logger) (*Summarizer, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewSummarizer(client.Models, cfg, log), nil
}

func NewSummarizer(models ContentStreamer, cfg Config, log logger.Logger) *Summarizer {
	if log == nil {
		log = logger.NewNop()
	}
	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: prompts.SystemInstruction(cfg.BasePrompt),
	}
	if cfg.Temperature > 0 {
		genConfig.Temperature = genai.Ptr(cfg.Temperature)
	}
	return &Summarizer{
		models: models,
		model:  cfg.Model,
		config: genConfig,
		log:    log,
	}
}

// Model is the Gemini model name, shown in the attribution marker.
func (s *Summarizer) Model() string {
	return s.model
}

// Stream yields the summary for the plain-text project prompt chunk by chunk.
func (s *Summarizer) Stream(ctx context.Context, prompt string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		contents := []*genai.Content{genai.NewContentFromText(prompts.ProjectSummary(prompt), genai.RoleUser)}

		chunks := 0
		for resp, err := range s.models.GenerateContentStream(ctx, s.model, contents, s.config) {
			if err != nil {
				s.log.Debug("Gemini stream failed",
					logger.String("model", s.model),
					logger.Int("chunks", chunks),
					logger.Error(err),
				)
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			text := resp.Text()
			if text == "" {
				continue
			}
			chunks++
			if !yield(text, nil) {
				return
			}
		}
	}
}
