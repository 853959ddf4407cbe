package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"alfredoptarigan/resume-rubric/internal/logger"
)

const defaultGeminiModel = "gemini-2.5-flash"

type GeminiService interface {
	// GenerateJSON asks the model for a JSON document and returns the raw text.
	GenerateJSON(ctx context.Context, systemPrompt, prompt string, temperature float32) (string, error)
	Model() string
}

type geminiService struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger
}

func NewGeminiService(ctx context.Context, apiKey, model string, log *zap.Logger) (GeminiService, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultGeminiModel
	}

	return &geminiService{
		client:    client,
		modelName: model,
		logger:    logger.WithFields(log, logger.ModelFields("gemini", model)...).Named("gemini"),
	}, nil
}

// GenerateJSON implements GeminiService.
func (g *geminiService) GenerateJSON(ctx context.Context, systemPrompt, prompt string, temperature float32) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	config := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		MaxOutputTokens:  4096,
		ResponseMIMEType: "application/json",
	}
	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil {
		return "", errors.New("no response generated (nil response)")
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || strings.TrimSpace(part.Text) == "" {
				continue
			}
			builder.WriteString(part.Text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	g.logger.Debug("response received",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("response_chars", len(output)),
		zap.String("preview", logger.TruncateForLog(output, 120)),
	)
	return output, nil
}

func (g *geminiService) Model() string {
	return g.modelName
}
