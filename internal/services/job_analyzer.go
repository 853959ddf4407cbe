package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"alfredoptarigan/resume-rubric/internal/logger"
	"alfredoptarigan/resume-rubric/internal/rubric"
)

// Temperature 0 keeps repeated analyses of one posting as close as the model allows.
const analyzerTemperature float32 = 0

type jobAnalyzer struct {
	gemini  GeminiService
	prompts *PromptBuilder
	logger  *zap.Logger
}

// NewJobAnalyzer adapts a GeminiService to the compiler's analyzer capability.
// It decodes responses but leaves schema validation to the compiler.
func NewJobAnalyzer(gemini GeminiService, prompts *PromptBuilder, log *zap.Logger) rubric.Analyzer {
	return &jobAnalyzer{
		gemini:  gemini,
		prompts: prompts,
		logger:  logger.WithFields(log).Named("analyzer"),
	}
}

func (a *jobAnalyzer) Analyze(ctx context.Context, posting string) (*rubric.JobAnalysis, error) {
	system, prompt := a.prompts.BuildJobAnalysisPrompt(posting)

	response, err := a.gemini.GenerateJSON(ctx, system, prompt, analyzerTemperature)
	if err != nil {
		return nil, fmt.Errorf("failed to generate job analysis: %w", err)
	}

	var analysis rubric.JobAnalysis
	if err := parseJSONResponse(response, &analysis); err != nil {
		a.logger.Debug("undecodable analysis", zap.String("response", logger.TruncateForLog(response, 200)))
		return nil, fmt.Errorf("%w: %v", rubric.ErrInvalidAnalysis, err)
	}
	return &analysis, nil
}

func (a *jobAnalyzer) MapDimensions(ctx context.Context, analysis *rubric.JobAnalysis, catalog *rubric.Catalog) (rubric.DimensionMapping, error) {
	system, prompt := a.prompts.BuildDimensionMappingPrompt(analysis, catalog)

	response, err := a.gemini.GenerateJSON(ctx, system, prompt, analyzerTemperature)
	if err != nil {
		return nil, fmt.Errorf("failed to generate dimension mapping: %w", err)
	}

	var mapping rubric.DimensionMapping
	if err := parseJSONResponse(response, &mapping); err != nil {
		a.logger.Debug("undecodable mapping", zap.String("response", logger.TruncateForLog(response, 200)))
		return nil, fmt.Errorf("%w: %v", rubric.ErrInvalidMapping, err)
	}
	return mapping, nil
}

func parseJSONResponse(response string, target interface{}) error {
	jsonStr := extractJSON(response)

	if err := json.Unmarshal([]byte(jsonStr), target); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// extractJSON strips markdown fences and surrounding prose from a model response.
func extractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	startObj := strings.Index(text, "{")
	startArr := strings.Index(text, "[")
	endObj := strings.LastIndex(text, "}")
	endArr := strings.LastIndex(text, "]")

	if startObj != -1 && endObj != -1 && endObj > startObj {
		return text[startObj : endObj+1]
	} else if startArr != -1 && endArr != -1 && endArr > startArr {
		return text[startArr : endArr+1]
	}

	return text
}
