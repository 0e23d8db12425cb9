package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "exam_service"

type Metrics struct {
	registry *prometheus.Registry

	RequestCounter     *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	ImportBlocks       *prometheus.CounterVec
	Imports            *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	GradedAnswers      *prometheus.CounterVec
}

// New registers every collector on a dedicated registry, so several instances can
// coexist in tests.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		ImportBlocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "import_blocks_total",
				Help:      "Question blocks processed by the importer, by outcome",
			},
			[]string{"status"},
		),
		Imports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "imports_total",
				Help:      "Bank import runs, by final status",
			},
			[]string{"status"},
		),
		CompletionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "completion_request_duration_seconds",
				Help:      "Latency of completion service calls",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"outcome"},
		),
		GradedAnswers: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "graded_answers_total",
				Help:      "Answers scored, by grading mode",
			},
			[]string{"mode"},
		),
	}

	m.registry.MustRegister(
		m.RequestCounter,
		m.RequestDuration,
		m.ImportBlocks,
		m.Imports,
		m.CompletionDuration,
		m.GradedAnswers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveImportBlock(status string) {
	m.ImportBlocks.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveImport(status string) {
	m.Imports.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveGraded(mode string, n int) {
	m.GradedAnswers.WithLabelValues(mode).Add(float64(n))
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RequestCounter.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

type structurer interface {
	Structure(ctx context.Context, block string) (string, error)
}

// TimedStructurer records the latency of every completion call it forwards.
type TimedStructurer struct {
	next    structurer
	metrics *Metrics
}

func NewTimedStructurer(next structurer, m *Metrics) *TimedStructurer {
	return &TimedStructurer{next: next, metrics: m}
}

func (t *TimedStructurer) Structure(ctx context.Context, block string) (string, error) {
	start := time.Now()
	reply, err := t.next.Structure(ctx, block)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	t.metrics.CompletionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return reply, err
}
