package gcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/marketingkitflow/internal/pipeline"
)

// --- Social Content Model Prompts ---
const SocialContentSystemPrompt = "You are a real estate marketing copywriter. You write engaging, accurate social media content for property listings. You must output your response as a single valid JSON object matching the provided schema."

// DefaultContentModel is used when CONTENT_MODEL is not set.
const DefaultContentModel = "gemini-1.5-pro"

// VertexClient holds the configured generative model for social content.
type VertexClient struct {
	SocialContentModel *genai.GenerativeModel
	baseClient         *genai.Client
}

var _ pipeline.ContentGenerator = (*VertexClient)(nil)

// NewVertexClient creates a new client for the given model.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultContentModel
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the social content model ---
	socialContentModel := baseClient.GenerativeModel(modelName)
	socialContentModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SocialContentSystemPrompt)},
	}
	socialContentModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.7),
	}

	return &VertexClient{
		SocialContentModel: socialContentModel,
		baseClient:         baseClient,
	}, nil
}

// GenerateObject asks the model for a JSON object constrained by schema.
func (c *VertexClient) GenerateObject(ctx context.Context, prompt string, schema pipeline.ObjectSchema) (map[string]any, error) {
	// Copy the model so concurrent calls with different schemas do not race.
	model := *c.SocialContentModel
	model.GenerationConfig.ResponseSchema = ToGenaiSchema(schema)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content from gemini: %w", err)
	}

	raw := extractText(resp)
	if raw == "" {
		return nil, errors.New("gemini returned an empty response")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, fmt.Errorf("gemini response is not a JSON object: %w", err)
	}
	return obj, nil
}

// ToGenaiSchema converts a flat object schema to the Vertex AI response schema.
func ToGenaiSchema(schema pipeline.ObjectSchema) *genai.Schema {
	properties := make(map[string]*genai.Schema, len(schema.Fields))
	for _, f := range schema.Fields {
		if f.Array {
			properties[f.Name] = &genai.Schema{
				Type:        genai.TypeArray,
				Description: f.Description,
				Items:       &genai.Schema{Type: genai.TypeString},
				MinItems:    1,
			}
			continue
		}
		properties[f.Name] = &genai.Schema{Type: genai.TypeString, Description: f.Description}
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: properties,
		Required:   schema.Required(),
	}
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(sb.String())
	out = strings.TrimPrefix(out, "```json")
	out = strings.TrimPrefix(out, "```")
	out = strings.TrimSuffix(out, "```")
	return strings.TrimSpace(out)
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
