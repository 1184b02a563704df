package admin

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nemanja-m/gopool/pkg/threadpool"
)

type mockLogger struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockLogger) Debug(msg string, args ...any) { m.log("DEBUG", msg, args...) }
func (m *mockLogger) Info(msg string, args ...any)  { m.log("INFO", msg, args...) }
func (m *mockLogger) Warn(msg string, args ...any)  { m.log("WARN", msg, args...) }
func (m *mockLogger) Error(msg string, args ...any) { m.log("ERROR", msg, args...) }
func (m *mockLogger) Fatal(msg string, args ...any) { m.log("FATAL", msg, args...) }

func (m *mockLogger) log(level, msg string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	formatted := fmt.Sprintf("[%s] %s", level, msg)
	for i := 0; i+1 < len(args); i += 2 {
		formatted += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	m.messages = append(m.messages, formatted)
}

func (m *mockLogger) getOutput() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.messages, "\n")
}

type fakePool struct {
	id    uuid.UUID
	state atomic.Int32
	alive atomic.Int32
}

func newFakePool(size int) *fakePool {
	p := &fakePool{id: uuid.New()}
	p.alive.Store(int32(size))
	return p
}

func (p *fakePool) ID() uuid.UUID           { return p.id }
func (p *fakePool) Name() string            { return "fake" }
func (p *fakePool) Size() int               { return 2 }
func (p *fakePool) Alive() int              { return int(p.alive.Load()) }
func (p *fakePool) Pending() int            { return 0 }
func (p *fakePool) State() threadpool.State { return threadpool.State(p.state.Load()) }

func (p *fakePool) set(state threadpool.State) {
	p.state.Store(int32(state))
}

type recordingSink struct {
	mu      sync.Mutex
	history []bool
}

func (s *recordingSink) SetServing(serving bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, serving)
}

func (s *recordingSink) snapshot() []bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.history...)
}

func TestServing_FollowsPoolLifecycle(t *testing.T) {
	p := threadpool.New(1)
	require.True(t, Serving(p))

	p.Close()
	require.False(t, Serving(p))
}

func TestMonitor_ReportsTransitions(t *testing.T) {
	pool := newFakePool(2)
	sink := &recordingSink{}
	logger := &mockLogger{}
	monitor := NewMonitor(5*time.Millisecond, pool, sink, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 1
	}, time.Second, time.Millisecond)

	pool.set(threadpool.StateShuttingDown)
	require.Eventually(t, func() bool {
		return len(sink.snapshot()) == 2
	}, time.Second, time.Millisecond)

	// Unchanged state is not reported again.
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	require.Equal(t, []bool{true, false}, sink.snapshot())
	require.Contains(t, logger.getOutput(), "state=shutting_down")
}

func TestMonitor_WarnsOnMissingWorkers(t *testing.T) {
	pool := newFakePool(1)
	logger := &mockLogger{}
	monitor := NewMonitor(time.Hour, pool, &recordingSink{}, logger)

	monitor.check(true)

	require.Contains(t, logger.getOutput(), "[WARN] Pool is running with fewer workers")
}
