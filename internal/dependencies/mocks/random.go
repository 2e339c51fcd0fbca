package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/idgateway/internal/dependencies/random"
)

// MockRandom returns queued tokens, then predictable numbered ones
type MockRandom struct {
	mu sync.Mutex

	// Tokens is a queue of results to return from Token
	Tokens []string
	next   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a MockRandom with the given queued tokens
func NewMockRandom(tokens ...string) *MockRandom {
	return &MockRandom{Tokens: tokens}
}

// Token returns the next queued token, or "token-N" once the queue is exhausted
func (r *MockRandom) Token(int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.next
	r.next++
	if i < len(r.Tokens) {
		return r.Tokens[i]
	}
	return fmt.Sprintf("token-%d", i+1)
}
