package app

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Rand is the randomness source used for sampling and choice ordering.
// *rand.Rand satisfies it but is not safe for concurrent use; wrap it with NewRand.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
}

type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a goroutine-safe Rand seeded with seed.
func NewRand(seed int64) Rand {
	return &lockedRand{r: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRand is the production source.
func NewTimeSeededRand() Rand {
	return NewRand(time.Now().UnixNano())
}

func (l *lockedRand) Shuffle(n int, swap func(i, j int)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r.Shuffle(n, swap)
}

// NewID generates opaque identifiers for sessions and choices.
func NewID() string {
	return uuid.NewString()
}
