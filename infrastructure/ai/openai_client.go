package ai

import (
	"browser_agent/domain/entities"
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sirupsen/logrus"
)

const DefaultOpenAIModel = "gpt-4o"

// OpenAIClient talks to the Chat Completions API or any compatible server
type OpenAIClient struct {
	client openai.Client
	logger *logrus.Logger
}

func NewOpenAIClient(apiKey string, opts ...ClientOption) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (set llm.api_key or OPENAI_API_KEY)")
	}
	o := buildOptions(opts)

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(o.maxRetries),
	}
	if o.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(o.baseURL))
	}
	if o.timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(o.timeout))
	}

	return &OpenAIClient{
		client: openai.NewClient(reqOpts...),
		logger: o.logger,
	}, nil
}

func (c *OpenAIClient) Complete(ctx context.Context, req entities.CompletionRequest) (entities.Completion, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    toOpenAIMessages(req.Messages),
		Model:       openai.ChatModel(req.Model),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	c.logger.WithFields(logrus.Fields{
		"model":    req.Model,
		"messages": len(req.Messages),
	}).Debug("Sending chat completion request")

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return entities.Completion{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return entities.Completion{}, errors.New("openai chat completion: no choices returned")
	}

	completion := entities.Completion{
		Role:             entities.RoleAssistant,
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	c.logger.WithFields(logrus.Fields{
		"finish_reason": resp.Choices[0].FinishReason,
		"total_tokens":  completion.TotalTokens,
	}).Debug("Received chat completion")
	return completion, nil
}

func toOpenAIMessages(messages []entities.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case entities.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case entities.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
