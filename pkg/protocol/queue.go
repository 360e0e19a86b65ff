package protocol

// PendingQueue is the ordered set of tokens written to the engine whose
// primary record has not been seen yet. One goroutine pushes, one pops.
type PendingQueue struct {
	ch chan string
}

// NewPendingQueue creates a queue able to hold a whole batch without blocking.
func NewPendingQueue(capacity int) *PendingQueue {
	return &PendingQueue{ch: make(chan string, capacity)}
}

// Push appends a token. It must be called before the token is written.
func (q *PendingQueue) Push(token string) {
	q.ch <- token
}

// Pop removes the oldest token. ok is false when no token is pending.
func (q *PendingQueue) Pop() (token string, ok bool) {
	select {
	case token = <-q.ch:
		return token, true
	default:
		return "", false
	}
}

// Len returns the number of pending tokens.
func (q *PendingQueue) Len() int {
	return len(q.ch)
}
