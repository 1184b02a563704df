package server

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/internal/shared/logging"
	"github.com/nemanja-m/gopool/pkg/threadpool"
)

var ErrServerStopped = errors.New("server stopped")

// Submitter accepts jobs for asynchronous execution.
type Submitter interface {
	Submit(job threadpool.Job) error
}

// Server accepts TCP connections and hands each one to the pool as one job.
type Server struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration

	pool    Submitter
	handler ConnHandler
	logger  logging.Logger

	mu       sync.RWMutex
	listener net.Listener
	stopping atomic.Bool

	accepted atomic.Int64
}

func New(cfg config.ListenerConfig, pool Submitter, handler ConnHandler, logger logging.Logger) *Server {
	return &Server{
		addr:         cfg.Addr,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		pool:         pool,
		handler:      handler,
		logger:       logger,
	}
}

// ListenAndServe binds the configured address and runs the accept loop.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ln)
}

// Serve runs the accept loop on ln until Stop is called or the pool refuses
// a connection. It returns nil after Stop.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.stopping.Load() {
		s.mu.Unlock()
		_ = ln.Close()
		return ErrServerStopped
	}
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("Listener started", "addr", ln.Addr().String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.stopping.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("failed to accept connection: %w", err)
		}
		s.accepted.Add(1)

		connID := uuid.New()
		if err := s.pool.Submit(s.connJob(connID, conn)); err != nil {
			_ = conn.Close()
			_ = ln.Close()
			s.logger.Error("Failed to dispatch connection",
				"conn_id", connID.String(),
				"error", err,
			)
			return fmt.Errorf("failed to dispatch connection %s: %w", connID, err)
		}
	}
}

// Addr returns the bound listener address, or "" before Serve.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Accepted returns the number of connections accepted so far.
func (s *Server) Accepted() int64 {
	return s.accepted.Load()
}

// Stop closes the listener. Connections already dispatched keep running on
// the pool.
func (s *Server) Stop() error {
	s.stopping.Store(true)

	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (s *Server) connJob(connID uuid.UUID, conn net.Conn) threadpool.Job {
	return func() {
		defer conn.Close()

		start := time.Now()
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(start.Add(s.readTimeout))
		}
		if s.writeTimeout > 0 {
			_ = conn.SetWriteDeadline(start.Add(s.writeTimeout))
		}

		if err := s.handler.ServeConn(conn); err != nil {
			s.logger.Warn("Connection failed",
				"conn_id", connID.String(),
				"remote_addr", conn.RemoteAddr().String(),
				"error", err,
			)
			return
		}

		s.logger.Debug("Connection handled",
			"conn_id", connID.String(),
			"remote_addr", conn.RemoteAddr().String(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
