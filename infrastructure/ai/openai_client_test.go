package ai

import (
	"browser_agent/domain/entities"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4o",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "CLICK 3"}}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 3, "total_tokens": 43}
		}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("sk-test", WithBaseURL(server.URL), WithMaxRetries(0))
	require.NoError(t, err)

	completion, err := client.Complete(context.Background(), entities.CompletionRequest{
		Messages: []entities.Message{
			entities.SystemMessage("rules"),
			entities.UserMessage("page"),
			entities.AssistantMessage("CLICK 1"),
		},
		Model:       "gpt-4o",
		Temperature: 0.7,
		MaxTokens:   100,
	})
	require.NoError(t, err)

	assert.Equal(t, "CLICK 3", completion.Content)
	assert.Equal(t, entities.RoleAssistant, completion.Role)
	assert.Equal(t, 40, completion.PromptTokens)
	assert.Equal(t, 43, completion.TotalTokens)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 100, got.MaxTokens)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "CLICK 1", got.Messages[2].Content)
}

func TestOpenAIClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("sk-bad", WithBaseURL(server.URL), WithMaxRetries(0))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), entities.CompletionRequest{
		Messages: []entities.Message{entities.UserMessage("hi")},
		Model:    "gpt-4o",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openai chat completion")
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "created": 1, "model": "m", "choices": []}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient("sk-test", WithBaseURL(server.URL), WithMaxRetries(0))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), entities.CompletionRequest{Model: "m"})
	assert.ErrorContains(t, err, "no choices")
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient("")
	assert.Error(t, err)
}
