package ai

import (
	"browser_agent/domain/entities"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// per-message framing overhead of the chat format
const (
	tokensPerMessage = 4
	tokensPerReply   = 3
)

// TokenCounter estimates prompt size with tiktoken. The encoding is loaded
// on first use, which may fetch its ranks file.
type TokenCounter struct {
	encoding string
	once     sync.Once
	enc      *tiktoken.Tiktoken
	initErr  error
}

func NewTokenCounter(model string) *TokenCounter {
	return &TokenCounter{encoding: encodingFor(model)}
}

func encodingFor(model string) string {
	switch {
	case strings.HasPrefix(model, "gpt-4o"), strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "o1"), strings.HasPrefix(model, "o3"), strings.HasPrefix(model, "o4"):
		return "o200k_base"
	default:
		return "cl100k_base"
	}
}

func (t *TokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *TokenCounter) CountMessages(messages []entities.Message) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	total := tokensPerReply
	for _, msg := range messages {
		total += tokensPerMessage
		total += len(t.enc.Encode(string(msg.Role), nil, nil))
		total += len(t.enc.Encode(msg.Content, nil, nil))
	}
	return total, nil
}
