package admin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/gopool/internal/shared/logging"
	"github.com/nemanja-m/gopool/pkg/threadpool"
)

// PoolStatus is the read-only view of a pool exposed by the admin surfaces.
type PoolStatus interface {
	ID() uuid.UUID
	Name() string
	Size() int
	Alive() int
	Pending() int
	State() threadpool.State
}

// Serving reports whether the pool still accepts work.
func Serving(p PoolStatus) bool {
	return p.State() == threadpool.StateActive
}

// ServingSetter receives serving transitions.
type ServingSetter interface {
	SetServing(serving bool)
}

// Monitor periodically mirrors the pool state into a ServingSetter.
type Monitor struct {
	interval time.Duration
	pool     PoolStatus
	sink     ServingSetter
	logger   logging.Logger

	serving bool
}

func NewMonitor(
	interval time.Duration,
	pool PoolStatus,
	sink ServingSetter,
	logger logging.Logger,
) *Monitor {
	return &Monitor{
		interval: interval,
		pool:     pool,
		sink:     sink,
		logger:   logger,
	}
}

// Start checks the pool immediately and then on every tick until ctx is done.
func (m *Monitor) Start(ctx context.Context) {
	m.check(true)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(false)
		}
	}
}

func (m *Monitor) check(force bool) {
	serving := Serving(m.pool)
	if alive, size := m.pool.Alive(), m.pool.Size(); serving && alive < size {
		m.logger.Warn("Pool is running with fewer workers",
			"pool_id", m.pool.ID().String(),
			"alive", alive,
			"workers", size,
		)
	}

	if !force && serving == m.serving {
		return
	}
	m.serving = serving
	m.sink.SetServing(serving)

	m.logger.Info("Pool serving status changed",
		"pool_id", m.pool.ID().String(),
		"state", m.pool.State().String(),
		"serving", serving,
	)
}
