package ai

import (
	"browser_agent/domain/entities"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient calls the Gemini API. System messages become the system
// instruction; assistant turns are sent with the model role.
type GeminiClient struct {
	client  *genai.Client
	timeout time.Duration
	logger  *logrus.Logger
}

func NewGeminiClient(ctx context.Context, apiKey string, opts ...ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set llm.api_key or GEMINI_API_KEY)")
	}
	o := buildOptions(opts)

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if o.baseURL != "" {
		cc.HTTPOptions.BaseURL = o.baseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, timeout: o.timeout, logger: o.logger}, nil
}

func (c *GeminiClient) Complete(ctx context.Context, req entities.CompletionRequest) (entities.Completion, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	system, contents := toGeminiContents(req.Messages)
	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(float32(req.Temperature)),
		SystemInstruction: system,
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	c.logger.WithFields(logrus.Fields{
		"model":    req.Model,
		"messages": len(req.Messages),
	}).Debug("Sending generate content request")

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return entities.Completion{}, fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return entities.Completion{}, errors.New("gemini generate content: no candidates returned")
	}

	completion := entities.Completion{
		Role:    entities.RoleAssistant,
		Content: resp.Text(),
	}
	if usage := resp.UsageMetadata; usage != nil {
		completion.PromptTokens = int(usage.PromptTokenCount)
		completion.CompletionTokens = int(usage.CandidatesTokenCount)
		completion.TotalTokens = int(usage.TotalTokenCount)
	}
	return completion, nil
}

func toGeminiContents(messages []entities.Message) (*genai.Content, []*genai.Content) {
	var (
		system   []string
		contents = make([]*genai.Content, 0, len(messages))
	)
	for _, msg := range messages {
		switch msg.Role {
		case entities.RoleSystem:
			system = append(system, msg.Content)
		case entities.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	return genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser), contents
}
