package threadpool

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "gopool"
	metricsSubsystem = "pool"
)

// Metrics holds the Prometheus collectors updated by a ThreadPool.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	JobsSubmitted prometheus.Counter
	JobsRejected  prometheus.Counter
	JobsCompleted *prometheus.CounterVec
	JobsPanicked  prometheus.Counter
	JobDuration   prometheus.Histogram
	QueueDepth    prometheus.Gauge
	WorkersAlive  prometheus.Gauge
}

// NewMetrics creates the pool collectors and registers them with registerer.
// A nil registerer registers into a private registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)

	return &Metrics{
		JobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "jobs_submitted_total",
			Help:      "Total number of jobs accepted by the pool",
		}),
		JobsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "jobs_rejected_total",
			Help:      "Total number of jobs rejected because the pool was shutting down",
		}),
		JobsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "jobs_completed_total",
			Help:      "Total number of jobs run to completion, by worker",
		}, []string{"worker"}),
		JobsPanicked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "jobs_panicked_total",
			Help:      "Total number of jobs that panicked",
		}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "job_duration_seconds",
			Help:      "Job execution time in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "queue_depth",
			Help:      "Number of jobs waiting to be claimed",
		}),
		WorkersAlive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "workers_alive",
			Help:      "Number of worker goroutines that have not exited",
		}),
	}
}

func (m *Metrics) jobSubmitted() {
	if m == nil {
		return
	}
	m.JobsSubmitted.Inc()
	m.QueueDepth.Inc()
}

func (m *Metrics) jobRejected() {
	if m == nil {
		return
	}
	m.JobsRejected.Inc()
}

func (m *Metrics) jobClaimed() {
	if m == nil {
		return
	}
	m.QueueDepth.Dec()
}

func (m *Metrics) jobFinished(workerID int, duration time.Duration, panicked bool) {
	if m == nil {
		return
	}
	m.JobDuration.Observe(duration.Seconds())
	if panicked {
		m.JobsPanicked.Inc()
		return
	}
	m.JobsCompleted.WithLabelValues(strconv.Itoa(workerID)).Inc()
}

func (m *Metrics) workerStarted() {
	if m == nil {
		return
	}
	m.WorkersAlive.Inc()
}

func (m *Metrics) workerExited() {
	if m == nil {
		return
	}
	m.WorkersAlive.Dec()
}
