package threadpool

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidSize is the panic value (wrapped) of New when size is not positive.
	ErrInvalidSize = errors.New("pool size must be positive")

	// ErrPoolClosed is returned by Submit once shutdown has begun.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrNilJob is returned by Submit for a nil job.
	ErrNilJob = errors.New("cannot submit nil job")
)

// Job is a unit of work. It is run exactly once by exactly one worker.
type Job func()

// Logger is the subset of structured logging used by the pool.
// Both *slog.Logger and the service logging.Logger satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// State is the lifecycle stage of a pool.
type State int32

const (
	StateActive State = iota
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateShuttingDown:
		return "shutting_down"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// PanicHandler receives the value recovered from a panicking job.
type PanicHandler func(workerID int, recovered any)

// Option configures a ThreadPool.
type Option func(*ThreadPool)

// WithLogger sets the pool logger. By default the pool logs nothing.
func WithLogger(logger Logger) Option {
	return func(p *ThreadPool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics makes the pool record into m.
func WithMetrics(m *Metrics) Option {
	return func(p *ThreadPool) {
		p.metrics = m
	}
}

// WithName sets a human readable name used in logs.
func WithName(name string) Option {
	return func(p *ThreadPool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithPanicHandler registers a callback invoked after a job panics.
func WithPanicHandler(handler PanicHandler) Option {
	return func(p *ThreadPool) {
		p.onPanic = handler
	}
}

// ThreadPool runs submitted jobs on a fixed number of worker goroutines.
type ThreadPool struct {
	id      uuid.UUID
	name    string
	workers []*Worker
	queue   *dispatchQueue

	state atomic.Int32
	alive atomic.Int32

	// closeMu serializes Close and guards the worker join handles.
	closeMu sync.Mutex

	logger  Logger
	metrics *Metrics
	onPanic PanicHandler
}

// New starts a pool with size workers. It panics if size is not positive;
// in that case no worker is started.
func New(size int, opts ...Option) *ThreadPool {
	if size <= 0 {
		panic(fmt.Errorf("%w: got %d", ErrInvalidSize, size))
	}

	p := &ThreadPool{
		id:      uuid.New(),
		name:    "threadpool",
		workers: make([]*Worker, 0, size),
		queue:   newDispatchQueue(),
		logger:  nopLogger{},
	}
	for _, opt := range opts {
		opt(p)
	}

	hooks := workerHooks{
		execute: p.runJob,
		exit:    p.workerExited,
	}
	for id := range size {
		p.alive.Add(1)
		p.metrics.workerStarted()
		p.workers = append(p.workers, newWorker(id, p.queue, hooks))
	}

	p.logger.Info("Thread pool started",
		"pool_id", p.id.String(),
		"name", p.name,
		"workers", size,
	)

	return p
}

// Submit queues job for execution. It never blocks beyond the enqueue.
func (p *ThreadPool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}
	if err := p.queue.send(job); err != nil {
		p.metrics.jobRejected()
		return err
	}
	p.metrics.jobSubmitted()
	return nil
}

// Close stops the pool. It sends one stop signal per worker and then waits for
// every worker to exit, in worker order. Jobs accepted before Close began run
// before their workers see the stop signal. Close is idempotent.
func (p *ThreadPool) Close() {
	p.closeMu.Lock()
	defer p.closeMu.Unlock()

	if p.State() == StateTerminated {
		return
	}

	start := time.Now()
	p.queue.seal(len(p.workers))
	p.state.Store(int32(StateShuttingDown))

	p.logger.Info("Shutting down thread pool",
		"pool_id", p.id.String(),
		"name", p.name,
		"pending", p.queue.len(),
	)

	for _, w := range p.workers {
		if w.join() {
			p.logger.Debug("Worker joined", "pool_id", p.id.String(), "worker_id", w.ID())
		}
	}
	p.queue.close()
	p.state.Store(int32(StateTerminated))

	p.logger.Info("Thread pool stopped",
		"pool_id", p.id.String(),
		"name", p.name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// ID returns the pool's unique identity.
func (p *ThreadPool) ID() uuid.UUID {
	return p.id
}

// Name returns the pool name.
func (p *ThreadPool) Name() string {
	return p.name
}

// Size returns the fixed number of workers.
func (p *ThreadPool) Size() int {
	return len(p.workers)
}

// Alive returns the number of workers whose goroutine has not exited.
func (p *ThreadPool) Alive() int {
	return int(p.alive.Load())
}

// Pending returns the number of messages waiting in the queue, stop signals
// included.
func (p *ThreadPool) Pending() int {
	return p.queue.len()
}

// State returns the current lifecycle state.
func (p *ThreadPool) State() State {
	return State(p.state.Load())
}

func (p *ThreadPool) runJob(workerID int, job Job) {
	p.metrics.jobClaimed()

	start := time.Now()
	panicked := false
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			p.logger.Error("Job panicked",
				"pool_id", p.id.String(),
				"worker_id", workerID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			if p.onPanic != nil {
				p.onPanic(workerID, r)
			}
		}
		p.metrics.jobFinished(workerID, time.Since(start), panicked)
	}()

	job()
}

func (p *ThreadPool) workerExited(workerID int, clean bool) {
	p.alive.Add(-1)
	p.metrics.workerExited()

	if !clean {
		p.logger.Error("Worker exited without a stop signal",
			"pool_id", p.id.String(),
			"worker_id", workerID,
		)
	}
}
