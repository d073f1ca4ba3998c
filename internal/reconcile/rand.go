package reconcile

import "math/rand"

// Source yields draws in [0, 1) for the GDP multiplier. Injected so tests
// can substitute a fixed sequence; production uses the shared math/rand
// source, which is safe for concurrent use.
type Source interface {
	Float64() float64
}

type randSource struct{}

func (randSource) Float64() float64 {
	return rand.Float64()
}

func NewSource() Source {
	return randSource{}
}

// FixedSource replays a fixed sequence of draws, wrapping around when
// exhausted. Test use only.
type FixedSource struct {
	draws []float64
	next  int
}

func NewFixedSource(draws ...float64) *FixedSource {
	if len(draws) == 0 {
		draws = []float64{0.5}
	}
	return &FixedSource{draws: draws}
}

func (s *FixedSource) Float64() float64 {
	v := s.draws[s.next%len(s.draws)]
	s.next++
	return v
}
