package accounts

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// NumberSource yields candidate 12-digit account numbers. Candidates are not
// guaranteed unique; the caller checks the store and asks for another on
// collision.
type NumberSource interface {
	Next() string
}

type randomNumberSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomNumberSource returns a NumberSource backed by its own seeded
// generator, safe for concurrent use.
func NewRandomNumberSource() NumberSource {
	return &randomNumberSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *randomNumberSource) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("%012d", s.rng.Int63n(1_000_000_000_000))
}
