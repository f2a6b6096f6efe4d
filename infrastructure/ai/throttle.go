package ai

import (
	"browser_agent/domain/entities"
	"browser_agent/domain/interfaces"
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled spaces calls to the wrapped model to at most rpm per minute
type Throttled struct {
	next    interfaces.ChatModel
	limiter *rate.Limiter
}

func NewThrottled(next interfaces.ChatModel, rpm float64) *Throttled {
	return &Throttled{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rpm/60), 1),
	}
}

func (t *Throttled) Complete(ctx context.Context, req entities.CompletionRequest) (entities.Completion, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return entities.Completion{}, fmt.Errorf("rate limiter: %w", err)
	}
	return t.next.Complete(ctx, req)
}
