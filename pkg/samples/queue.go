package samples

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultCapacity holds roughly one second of samples at 2.048 MSps.
const DefaultCapacity = 1 << 21

// Queue is a bounded FIFO of normalized samples shared between a device's
// producer path and any number of consumers. All methods are safe for
// concurrent use.
type Queue struct {
	mu       sync.Mutex
	buffer   []complex64
	readPos  int
	writePos int
	count    int

	// Wakeups carry no data. A waiter re-checks the ring after each one, so a
	// stale or coalesced signal only costs an extra loop.
	notEmpty chan struct{}
	notFull  chan struct{}

	dropped atomic.Uint64
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		buffer:   make([]complex64, capacity),
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (q *Queue) writeLocked(s []complex64) int {
	n := len(q.buffer) - q.count
	if n > len(s) {
		n = len(s)
	}
	for idx := 0; idx < n; idx++ {
		q.buffer[q.writePos] = s[idx]
		q.writePos = (q.writePos + 1) % len(q.buffer)
	}
	q.count += n
	return n
}

func (q *Queue) readLocked(buf []complex64) int {
	n := q.count
	if n > len(buf) {
		n = len(buf)
	}
	for idx := 0; idx < n; idx++ {
		buf[idx] = q.buffer[q.readPos]
		q.readPos = (q.readPos + 1) % len(q.buffer)
	}
	q.count -= n
	return n
}

// Enqueue appends samples in order, blocking while the queue is full. It
// returns ctx.Err() if ctx is done before every sample was stored; samples
// stored up to that point stay in the queue.
func (q *Queue) Enqueue(ctx context.Context, s ...complex64) error {
	for len(s) > 0 {
		q.mu.Lock()
		n := q.writeLocked(s)
		space := q.count < len(q.buffer)
		q.mu.Unlock()

		if n > 0 {
			s = s[n:]
			signal(q.notEmpty)
			if space {
				signal(q.notFull)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.notFull:
		}
	}
	return nil
}

// Offer stores as many samples as currently fit without blocking and returns
// how many were stored. The remainder is counted as dropped.
func (q *Queue) Offer(s ...complex64) int {
	q.mu.Lock()
	n := q.writeLocked(s)
	q.mu.Unlock()

	if n > 0 {
		signal(q.notEmpty)
	}
	if n < len(s) {
		q.dropped.Add(uint64(len(s) - n))
	}
	return n
}

// TryDequeue removes the oldest sample if there is one.
func (q *Queue) TryDequeue() (complex64, bool) {
	var one [1]complex64

	q.mu.Lock()
	n := q.readLocked(one[:])
	remaining := q.count
	q.mu.Unlock()

	if n == 0 {
		return 0, false
	}
	signal(q.notFull)
	if remaining > 0 {
		signal(q.notEmpty)
	}
	return one[0], true
}

// Dequeue fills buf completely, blocking until enough samples arrived. On
// ctx expiry it returns the number of samples already copied and ctx.Err().
func (q *Queue) Dequeue(ctx context.Context, buf []complex64) (int, error) {
	read := 0
	for read < len(buf) {
		q.mu.Lock()
		n := q.readLocked(buf[read:])
		remaining := q.count
		q.mu.Unlock()

		if n > 0 {
			read += n
			signal(q.notFull)
			if remaining > 0 {
				signal(q.notEmpty)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return read, ctx.Err()
		case <-q.notEmpty:
		}
	}
	return read, nil
}

// DequeueAvailable copies whatever is queued, up to len(buf), without
// blocking.
func (q *Queue) DequeueAvailable(buf []complex64) int {
	q.mu.Lock()
	n := q.readLocked(buf)
	remaining := q.count
	q.mu.Unlock()

	if n > 0 {
		signal(q.notFull)
	}
	if remaining > 0 {
		signal(q.notEmpty)
	}
	return n
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

func (q *Queue) Cap() int {
	return len(q.buffer)
}

// Dropped is the number of samples Offer could not store.
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
