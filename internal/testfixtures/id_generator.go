package testfixtures

import (
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator yields reproducible UUIDs: the n-th ID of a generator is the
// SHA-1 name-based UUID of "<seed>/<n>".
type IDGenerator struct {
	mu   sync.Mutex
	seed string
	n    uint64
}

// NewIDGenerator returns a generator for seed. Generators with the same seed
// produce the same sequence.
func NewIDGenerator(seed string) *IDGenerator {
	return &IDGenerator{seed: seed}
}

// Next returns the next ID of the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(g.seed+"/"+strconv.FormatUint(g.n, 10))).String()
}

// NextFunc returns Next for constructors taking func() string.
func (g *IDGenerator) NextFunc() func() string {
	return g.Next
}
