package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"

	"alfredoptarigan/resume-rubric/internal/rubric"
)

type PromptBuilder struct {
	analysisSchema string
	mappingSchema  string
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		analysisSchema: schemaFor(&rubric.JobAnalysis{}),
		mappingSchema:  schemaFor(rubric.DimensionMapping{}),
	}
}

// schemaFor renders the JSON schema of v, inlined without references.
func schemaFor(v any) string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	raw, err := json.MarshalIndent(reflector.Reflect(v), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// BuildJobAnalysisPrompt returns the system and user prompts for the analysis step.
func (pb *PromptBuilder) BuildJobAnalysisPrompt(posting string) (string, string) {
	system := fmt.Sprintf(`You are a job posting analyzer. Read the posting and return one JSON object.

Fields:
- role_level: one of junior, mid, senior, lead, unknown
- domain: a short lowercase domain tag such as backend, frontend, data, ml, security, mobile, cloud, research
- requirements: the required qualifications, quoted or closely paraphrased from the posting, most important first
- priorities: the requirements the posting stresses most, most important first

All content must come from the posting. Do not invent requirements.

JSON schema:
%s`, pb.analysisSchema)

	user := fmt.Sprintf("JOB POSTING:\n%s\n\nReturn only the JSON object.", strings.TrimSpace(posting))
	return system, user
}

// BuildDimensionMappingPrompt returns the system and user prompts for the mapping step.
func (pb *PromptBuilder) BuildDimensionMappingPrompt(analysis *rubric.JobAnalysis, catalog *rubric.Catalog) (string, string) {
	var dims strings.Builder
	for _, d := range catalog.All() {
		fmt.Fprintf(&dims, "- %s (%s): %s\n", d.ID, d.Category, d.Description)
	}

	system := fmt.Sprintf(`You select evaluation dimensions for a resume rubric.

Available dimensions:
%s
Return one JSON object mapping dimension id to weight. Use only ids from the list.
Every weight must be greater than 0 and at most 1. Omit dimensions that do not apply.
Always include the core dimensions.

JSON schema:
%s`, dims.String(), pb.mappingSchema)

	analysisJSON, _ := json.MarshalIndent(analysis, "", "  ")
	user := fmt.Sprintf("JOB ANALYSIS:\n%s\n\nReturn only the JSON object.", analysisJSON)
	return system, user
}
