package threadpool

import "sync"

type messageKind int

const (
	messageExecute messageKind = iota
	messageShutdown
)

// message is what travels through the dispatch queue: either a job to run or
// a stop signal for exactly one worker.
type message struct {
	kind messageKind
	job  Job
}

func executeMessage(job Job) message {
	return message{kind: messageExecute, job: job}
}

func shutdownMessage() message {
	return message{kind: messageShutdown}
}

// dispatchQueue is an unbounded FIFO shared by every worker of a pool.
// Senders never block. Receivers hold the mutex only while claiming the front
// message, so claimed jobs run in parallel.
type dispatchQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []message
	sealed bool // no more execute messages are accepted
	closed bool // receivers get ok == false once buf is empty
}

func newDispatchQueue() *dispatchQueue {
	q := &dispatchQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// send appends an execute message. It fails once the queue is sealed.
func (q *dispatchQueue) send(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sealed || q.closed {
		return ErrPoolClosed
	}
	q.buf = append(q.buf, executeMessage(job))
	q.cond.Signal()
	return nil
}

// seal stops accepting jobs and appends n shutdown messages behind everything
// already queued. Only the first call has an effect.
func (q *dispatchQueue) seal(n int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.sealed {
		return false
	}
	q.sealed = true
	for range n {
		q.buf = append(q.buf, shutdownMessage())
	}
	q.cond.Broadcast()
	return true
}

// recv blocks until a message is available. It returns false when the queue
// is closed and drained.
func (q *dispatchQueue) recv() (message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.buf) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		return message{}, false
	}

	msg := q.buf[0]
	q.buf[0] = message{}
	q.buf = q.buf[1:]
	return msg, true
}

// close wakes every blocked receiver. Messages still buffered remain
// receivable.
func (q *dispatchQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sealed = true
	q.closed = true
	q.cond.Broadcast()
}

func (q *dispatchQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
