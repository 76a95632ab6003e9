package interview

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_SlidingExpiry(t *testing.T) {
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	s := NewSessions(time.Hour)
	s.now = func() time.Time { return now }

	s.Put("c-1", []string{"Q1"})

	now = now.Add(50 * time.Minute)
	_, ok := s.Get("c-1")
	require.True(t, ok, "access refreshes expiry")

	now = now.Add(50 * time.Minute)
	_, ok = s.Get("c-1")
	require.True(t, ok)

	now = now.Add(61 * time.Minute)
	_, ok = s.Get("c-1")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestSessions_QuestionsAreCopied(t *testing.T) {
	s := NewSessions(0)
	assert.Equal(t, DefaultSessionTTL, s.TTL())

	qs := []string{"Q1", "Q2"}
	s.Put("c-1", qs)
	qs[0] = "mutated"

	got, ok := s.Get("c-1")
	require.True(t, ok)
	got.Questions[1] = "mutated"

	again, _ := s.Get("c-1")
	assert.Equal(t, []string{"Q1", "Q2"}, again.Questions)
}

func TestSessions_Sweep(t *testing.T) {
	now := time.Now()
	s := NewSessions(time.Minute)
	s.now = func() time.Time { return now }

	s.Put("old", nil)
	now = now.Add(2 * time.Minute)
	s.Put("fresh", nil)

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 1, s.Len())

	s.Delete("fresh")
	assert.Zero(t, s.Len())
}

func TestSessions_Janitor(t *testing.T) {
	s := NewSessions(time.Millisecond)
	s.Put("c-1", nil)

	var removed atomic.Int64
	s.StartJanitor(5*time.Millisecond, func(n int) { removed.Add(int64(n)) })
	s.StartJanitor(5*time.Millisecond, nil)

	assert.Eventually(t, func() bool { return removed.Load() == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, s.Len())
	s.Stop()
	s.Stop()
}

func TestKeyedMutex(t *testing.T) {
	var k keyedMutex
	var mu sync.Mutex
	inside := 0
	maxInside := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("same")
			mu.Lock()
			inside++
			maxInside = max(maxInside, inside)
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxInside)
	assert.Zero(t, k.size())

	a := k.Lock("a")
	b := k.Lock("b")
	assert.Equal(t, 2, k.size())
	a()
	b()
}
