package mocks

import (
	"sync"

	"github.com/mcoot/cloudserver/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	mu sync.Mutex

	// Int63nResults is a queue of results to return from Int63n
	Int63nResults []int64
	index         int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Int63n returns the next queued result, or 0 if none remaining
func (r *MockRandom) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index >= len(r.Int63nResults) {
		return 0
	}
	result := r.Int63nResults[r.index]
	r.index++
	return result
}

// QueueInt63n adds values to the result queue
func (r *MockRandom) QueueInt63n(values ...int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Int63nResults = append(r.Int63nResults, values...)
}

// Reset clears all queued results
func (r *MockRandom) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Int63nResults = nil
	r.index = 0
}
