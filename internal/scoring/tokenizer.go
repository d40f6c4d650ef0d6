package scoring

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Truncator caps model input to the scoring model's context window.
type Truncator interface {
	Truncate(text string) (string, error)
}

// TokenBudget truncates text to at most maxTokens BPE tokens.
type TokenBudget struct {
	enc       *tiktoken.Tiktoken
	maxTokens int
}

// NewTokenBudget loads the named BPE encoding. The encoding data may be
// fetched on first use; set TIKTOKEN_CACHE_DIR for offline deployments.
func NewTokenBudget(encoding string, maxTokens int) (*TokenBudget, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("token budget must be positive, got %d", maxTokens)
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("init tiktoken encoding %s: %w", encoding, err)
	}
	return &TokenBudget{enc: enc, maxTokens: maxTokens}, nil
}

func (b *TokenBudget) Truncate(text string) (string, error) {
	tokens := b.enc.Encode(text, nil, nil)
	if len(tokens) <= b.maxTokens {
		return text, nil
	}
	return b.enc.Decode(tokens[:b.maxTokens]), nil
}

func (b *TokenBudget) MaxTokens() int { return b.maxTokens }
