package analyzer

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// tokenEncoding is the tiktoken encoding used for complexity grading.
const tokenEncoding = "cl100k_base"

// TokenCounter counts tokens for the complexity heuristic. The tiktoken
// encoding loads lazily on first use; when it cannot load, counting
// falls back to whitespace fields. Both paths are deterministic for the
// same input.
type TokenCounter struct {
	once    sync.Once
	enc     *tiktoken.Tiktoken
	initErr error
}

// NewTokenCounter creates a token counter.
func NewTokenCounter() *TokenCounter {
	return &TokenCounter{}
}

func (t *TokenCounter) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err != nil {
			t.initErr = err
			return
		}
		t.enc = enc
	})
	return t.initErr
}

// Count returns the token count of the text.
func (t *TokenCounter) Count(text string) int {
	if err := t.init(); err != nil {
		return len(strings.Fields(text))
	}
	return len(t.enc.Encode(text, nil, nil))
}
