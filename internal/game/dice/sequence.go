package dice

import (
	"fmt"
	"sync"
)

// SequenceSource replays a fixed list of draws, cycling when exhausted.
// It exists so formulas can be driven deterministically in tests and in the
// seeded replay tooling.
type SequenceSource struct {
	mu     sync.Mutex
	values []float64
	next   int
	drawn  int
}

// NewSequenceSource returns a SequenceSource that yields values in order.
//
// Precondition: len(values) >= 1; every value is in [0, 1).
// Postcondition: The i-th call to Float64 returns values[i % len(values)].
func NewSequenceSource(values ...float64) *SequenceSource {
	if len(values) == 0 {
		panic("dice: NewSequenceSource requires at least one value")
	}
	for i, v := range values {
		if v < 0 || v >= 1 {
			panic(fmt.Sprintf("dice: sequence value %d out of range [0,1): %v", i, v))
		}
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return &SequenceSource{values: cp}
}

// Float64 returns the next value of the sequence.
func (s *SequenceSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	s.drawn++
	return v
}

// Intn scales the next value of the sequence into [0, n).
//
// Precondition: n > 0.
func (s *SequenceSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return int(s.Float64() * float64(n))
}

// Drawn reports how many values have been consumed so far.
func (s *SequenceSource) Drawn() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawn
}
