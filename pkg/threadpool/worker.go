package threadpool

// Worker is a single long-lived goroutine that claims messages from the shared
// dispatch queue and runs them one at a time.
type Worker struct {
	id     int
	handle *joinHandle
}

// joinHandle is closed when the worker goroutine returns.
type joinHandle struct {
	done chan struct{}
}

// workerHooks connects a worker to the pool that owns it.
type workerHooks struct {
	execute func(workerID int, job Job)
	// exit is called once, right before the goroutine returns. clean is false
	// when the queue closed before the worker saw its stop signal.
	exit func(workerID int, clean bool)
}

func newWorker(id int, queue *dispatchQueue, hooks workerHooks) *Worker {
	done := make(chan struct{})
	w := &Worker{
		id:     id,
		handle: &joinHandle{done: done},
	}
	go w.run(queue, hooks, done)
	return w
}

func (w *Worker) run(queue *dispatchQueue, hooks workerHooks, done chan<- struct{}) {
	clean := false
	defer func() {
		hooks.exit(w.id, clean)
		close(done)
	}()

	for {
		msg, ok := queue.recv()
		if !ok {
			return
		}

		switch msg.kind {
		case messageExecute:
			hooks.execute(w.id, msg.job)
		case messageShutdown:
			clean = true
			return
		}
	}
}

// ID returns the worker's ordinal index within its pool.
func (w *Worker) ID() int {
	return w.id
}

// join waits for the worker goroutine to exit. The handle is taken on the
// first call, so later calls return immediately. Callers must serialize.
func (w *Worker) join() bool {
	h := w.handle
	if h == nil {
		return false
	}
	w.handle = nil
	<-h.done
	return true
}
