// Package system provides the real clock and random source.
package system

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

type Clock struct{}

// Now drops the monotonic reading so timestamps survive a JSON round trip
// unchanged.
func (Clock) Now() time.Time { return time.Now().UTC().Round(0) }

func (Clock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type RNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RNG{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (g *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.r.IntN(n)
}
