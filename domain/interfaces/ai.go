package interfaces

import (
	"browser_agent/domain/entities"
	"context"
)

// ChatModel represents the language model capability
type ChatModel interface {
	// Complete sends the ordered conversation and returns the model's reply
	Complete(ctx context.Context, req entities.CompletionRequest) (entities.Completion, error)
}

// TokenCounter estimates how many prompt tokens a conversation costs
type TokenCounter interface {
	CountMessages(messages []entities.Message) (int, error)
}
