package services

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// pairGuard serializes check-then-insert operations keyed by an unordered
// user pair. It only narrows the window within one process; concurrent
// writers in another instance can still race, which is why the duplicate
// checks stay in place.
type pairGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newPairGuard() *pairGuard {
	return &pairGuard{locks: make(map[string]*sync.Mutex)}
}

// pairKey is the same for (a,b) and (b,a).
func pairKey(a, b uuid.UUID) string {
	if strings.Compare(a.String(), b.String()) < 0 {
		return a.String() + ":" + b.String()
	}
	return b.String() + ":" + a.String()
}

// lock acquires the mutex for the pair and returns its unlock func.
func (g *pairGuard) lock(a, b uuid.UUID) func() {
	key := pairKey(a, b)

	g.mu.Lock()
	m, ok := g.locks[key]
	if !ok {
		m = &sync.Mutex{}
		g.locks[key] = m
	}
	g.mu.Unlock()

	m.Lock()
	return m.Unlock
}
