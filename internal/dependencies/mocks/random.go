package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/mpcoord/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// HexResults is a queue of results to return from Hex
	HexResults []string
	hexIndex   int

	// counter backs deterministic values once the queue is exhausted
	counter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Hex returns the next queued result. Once the queue is exhausted it returns
// a zero-padded counter, so values stay distinct.
func (r *MockRandom) Hex(n int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.hexIndex < len(r.HexResults) {
		result := r.HexResults[r.hexIndex]
		r.hexIndex++
		return result, nil
	}
	r.counter++
	return fmt.Sprintf("%0*x", n*2, r.counter), nil
}

// QueueHex adds values to the Hex result queue
func (r *MockRandom) QueueHex(values ...string) {
	r.mu.Lock()
	r.HexResults = append(r.HexResults, values...)
	r.mu.Unlock()
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	r.HexResults = nil
	r.hexIndex = 0
	r.counter = 0
	r.mu.Unlock()
}
