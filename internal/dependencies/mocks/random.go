package mocks

import (
	"strconv"
	"sync"

	"github.com/mcoot/faceit-ledger/internal/dependencies/random"
)

// MockRandom returns queued tokens first, then deterministic
// prefix-plus-counter tokens so ids stay unique across a test
type MockRandom struct {
	mu     sync.Mutex
	tokens []string
	next   int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

func (r *MockRandom) Token(prefix string, n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokens) > 0 {
		t := r.tokens[0]
		r.tokens = r.tokens[1:]
		return t
	}
	r.next++
	return prefix + strconv.Itoa(r.next)
}

// QueueToken adds values to the token queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	r.tokens = append(r.tokens, values...)
	r.mu.Unlock()
}
