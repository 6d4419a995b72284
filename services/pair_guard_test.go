package services

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPairKeyIsUnordered(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	assert.Equal(t, pairKey(a, b), pairKey(b, a))
	assert.NotEqual(t, pairKey(a, b), pairKey(a, uuid.New()))
}

func TestPairGuardSerializesSamePair(t *testing.T) {
	g := newPairGuard()
	a := uuid.New()
	b := uuid.New()

	var inCritical int
	var maxInCritical int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := g.lock(a, b)
			defer unlock()

			mu.Lock()
			inCritical++
			if inCritical > maxInCritical {
				maxInCritical = inCritical
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inCritical--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInCritical)
}

func TestPairGuardAllowsDistinctPairs(t *testing.T) {
	g := newPairGuard()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	unlock1 := g.lock(a, b)
	defer unlock1()

	// A different pair must not block behind (a, b).
	done := make(chan struct{})
	go func() {
		unlock2 := g.lock(a, c)
		unlock2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a distinct pair blocked")
	}
}
