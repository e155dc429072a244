package chat

import (
	"sync"
	"testing"
	"time"
)

func TestUserQueueKeepsPerKeyOrder(t *testing.T) {
	var (
		q   UserQueue
		mu  sync.Mutex
		got = map[string][]int{}
	)
	for i := 0; i < 100; i++ {
		for _, key := range []string{"tg-1", "tg-2"} {
			i, key := i, key
			q.Submit(key, func() {
				mu.Lock()
				got[key] = append(got[key], i)
				mu.Unlock()
			})
		}
	}
	q.Wait()

	for _, key := range []string{"tg-1", "tg-2"} {
		if len(got[key]) != 100 {
			t.Fatalf("%s: expected 100 items, got %d", key, len(got[key]))
		}
		for i, v := range got[key] {
			if v != i {
				t.Fatalf("%s: out of order at %d: %v", key, i, got[key])
			}
		}
	}
}

func TestUserQueueRunsKeysConcurrently(t *testing.T) {
	var q UserQueue
	release := make(chan struct{})
	done := make(chan struct{})

	q.Submit("tg-1", func() { <-release })
	q.Submit("tg-2", func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("second user blocked behind the first")
	}
	close(release)
	q.Wait()
}
