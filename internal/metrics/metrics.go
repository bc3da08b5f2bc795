package metrics

import (
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhyrak/allston-schedule/internal/lp"
	"github.com/rhyrak/allston-schedule/internal/scheduler"
)

// Metrics holds the Prometheus collectors for the engine and the HTTP
// service. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry
	handler  http.Handler

	solves        *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
	frontier      prometheus.Gauge
	accepted      *prometheus.CounterVec
	bestScore     *prometheus.GaugeVec

	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	runs            *prometheus.CounterVec
}

var _ scheduler.Observer = (*Metrics)(nil)

func New() *Metrics {
	registry := prometheus.NewRegistry()

	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_solves_total",
		Help: "Solver calls by result status",
	}, []string{"status"})

	solveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "schedule_solve_duration_seconds",
		Help:    "Wall time of one solver call",
		Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"status"})

	frontier := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schedule_frontier_size",
		Help: "Schedules waiting to be expanded by the repair search",
	})

	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_nodes_total",
		Help: "Schedules accepted into the repair search",
	}, []string{"best"})

	bestScore := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "schedule_best_score",
		Help: "Components of the best simple score found so far",
	}, []string{"component"})

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "score_cache_hits_total",
		Help: "Score requests answered from the cache",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "score_cache_misses_total",
		Help: "Score requests that had to be computed",
	})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schedule_runs_total",
		Help: "Finished scheduling runs by outcome",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "schedule_goroutines",
		Help: "Number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(solves, solveDuration, frontier, accepted, bestScore,
		requestDuration, requestTotal, cacheHits, cacheMisses, runs, goroutines)

	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		solves:          solves,
		solveDuration:   solveDuration,
		frontier:        frontier,
		accepted:        accepted,
		bestScore:       bestScore,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		runs:            runs,
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

func (m *Metrics) SolveFinished(status lp.Status, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.solves.WithLabelValues(status.String()).Inc()
	m.solveDuration.WithLabelValues(status.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) NodeAccepted(n *scheduler.Node, best bool) {
	if m == nil {
		return
	}
	m.accepted.WithLabelValues(strconv.FormatBool(best)).Inc()
	if best {
		m.bestScore.WithLabelValues("conflicts").Set(n.Simple.Conflicts)
		m.bestScore.WithLabelValues("round_trips").Set(float64(n.Simple.RoundTrips))
		m.bestScore.WithLabelValues("lunch").Set(n.Simple.Lunch)
	}
}

func (m *Metrics) FrontierChanged(size int) {
	if m == nil {
		return
	}
	m.frontier.Set(float64(size))
}

// ObserveHTTPRequest records request metrics.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

func (m *Metrics) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// RunFinished counts a finished run by its stored status.
func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

// WriteTextfile dumps the current values in the text exposition format, for
// node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
