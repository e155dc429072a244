package chat

import "sync"

// UserQueue runs submitted work one item at a time per key, in submission
// order. Different keys run concurrently. The zero value is ready to use.
type UserQueue struct {
	mu      sync.Mutex
	pending map[string][]func()
	wg      sync.WaitGroup
}

// Submit queues fn behind any work already pending for key.
func (q *UserQueue) Submit(key string, fn func()) {
	q.mu.Lock()
	if q.pending == nil {
		q.pending = make(map[string][]func())
	}
	backlog, running := q.pending[key]
	q.pending[key] = append(backlog, fn)
	if !running {
		q.wg.Add(1)
	}
	q.mu.Unlock()

	if !running {
		go q.drain(key)
	}
}

// Wait blocks until every submitted item has finished.
func (q *UserQueue) Wait() {
	q.wg.Wait()
}

func (q *UserQueue) drain(key string) {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		backlog := q.pending[key]
		if len(backlog) == 0 {
			delete(q.pending, key)
			q.mu.Unlock()
			return
		}
		fn := backlog[0]
		q.pending[key] = backlog[1:]
		q.mu.Unlock()

		fn()
	}
}
