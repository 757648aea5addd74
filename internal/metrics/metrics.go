// Package metrics provides Prometheus metrics for file creation jobs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "filecreator"

// Metrics holds all Prometheus metrics for a filecreator process.
type Metrics struct {
	// Progress
	BytesWritten  prometheus.Gauge
	BytesTotal    prometheus.Gauge
	Operations    prometheus.Gauge
	ActiveWorkers prometheus.Gauge

	// Throughput, bytes per second
	Speed        prometheus.Gauge
	AverageSpeed prometheus.Gauge
	PeakSpeed    prometheus.Gauge

	// Outcome
	Jobs        *prometheus.CounterVec
	JobDuration *prometheus.HistogramVec
}

// New registers the metrics with reg. A nil reg uses
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Metrics{
		BytesWritten: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes_written",
			Help:      "Bytes committed by the current job",
		}),
		BytesTotal: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bytes_total",
			Help:      "Target size of the current job",
		}),
		Operations: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "write_operations",
			Help:      "Successful chunk writes of the current job",
		}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_workers",
			Help:      "Workers that have not exited yet",
		}),
		Speed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speed_bytes_per_second",
			Help:      "Throughput since the job started writing",
		}),
		AverageSpeed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "average_speed_bytes_per_second",
			Help:      "Rolling average of recent throughput samples",
		}),
		PeakSpeed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "peak_speed_bytes_per_second",
			Help:      "Highest throughput sampled so far",
		}),
		Jobs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_total",
				Help:      "Finished jobs by outcome",
			},
			[]string{"outcome"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Time spent writing, by outcome",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5min
			},
			[]string{"outcome"},
		),
	}
}

// Observe updates the progress gauges from a snapshot.
func (m *Metrics) Observe(s rangefill.Snapshot) {
	m.BytesWritten.Set(float64(s.BytesDone))
	m.BytesTotal.Set(float64(s.Total))
	m.Operations.Set(float64(s.Operations))
	m.ActiveWorkers.Set(float64(s.ActiveWorkers))
	m.Speed.Set(s.Speed)
	m.AverageSpeed.Set(s.AverageSpeed)
	m.PeakSpeed.Set(s.PeakSpeed)
}

// Finish records the outcome of a job.
func (m *Metrics) Finish(sum rangefill.Summary) {
	outcome := Outcome(sum.Err)
	m.Jobs.WithLabelValues(outcome).Inc()
	m.JobDuration.WithLabelValues(outcome).Observe(sum.Elapsed.Seconds())
	m.BytesWritten.Set(float64(sum.BytesWritten))
	m.ActiveWorkers.Set(0)
}

// Outcome maps a job error to a label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "succeeded"
	case errors.Is(err, rangefill.ErrInvalidConfiguration):
		return "invalid"
	case errors.Is(err, rangefill.ErrAllocation):
		return "allocation_failed"
	case errors.Is(err, rangefill.ErrCanceled):
		return "canceled"
	case errors.Is(err, rangefill.ErrWrite):
		return "write_failed"
	default:
		return "failed"
	}
}

// Handler serves /metrics from g and a /health probe.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Server is a metrics HTTP endpoint that lives for the duration of a job.
type Server struct {
	srv  *http.Server
	addr string
	err  chan error
}

// StartServer listens on address and serves Handler(g) in the background.
// It fails if the address cannot be bound.
func StartServer(address string, g prometheus.Gatherer) (*Server, error) {
	ln, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("metrics: listen on %s: %w", address, err)
	}
	s := &Server{
		srv: &http.Server{
			Handler:           Handler(g),
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr: ln.Addr().String(),
		err:  make(chan error, 1),
	}
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.err <- err
	}()
	return s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.addr
}

// Err returns a channel that receives the serve error once the server exits.
func (s *Server) Err() <-chan error {
	return s.err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
