package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec

	// file I/O (registry + documents)
	IODuration    *prometheus.HistogramVec
	IOErrorsTotal *prometheus.CounterVec

	// gateway
	DocumentRequests *prometheus.CounterVec
	RegistryCache    *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avajson",
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "avajson",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "avajson",
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		IODuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "avajson",
				Subsystem: "io",
				Name:      "duration_seconds",
				Help:      "File read+parse latency by logical op.",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
			},
			[]string{"op", "status"},
		),
		IOErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avajson",
				Subsystem: "io",
				Name:      "errors_total",
				Help:      "File errors by logical op and class.",
			},
			[]string{"op", "class"},
		),
		DocumentRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avajson",
				Subsystem: "gateway",
				Name:      "document_requests_total",
				Help:      "Document requests by requested file and outcome.",
			},
			[]string{"file", "outcome"}, // outcome=ok|bad_request|unauthorized|not_found|error
		),
		RegistryCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "avajson",
				Subsystem: "registry",
				Name:      "cache_lookups_total",
				Help:      "Registry cache lookups by backend and result.",
			},
			[]string{"backend", "result"}, // result=hit|miss|error
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.IODuration, p.IOErrorsTotal, p.DocumentRequests, p.RegistryCache)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

// ObserveOutcome counts one gateway result. Callers must keep file bounded
// (allow-listed names only).
func (p *Prom) ObserveOutcome(file, outcome string) {
	p.DocumentRequests.WithLabelValues(file, outcome).Inc()
}

func (p *Prom) ObserveCache(backend, result string) {
	p.RegistryCache.WithLabelValues(backend, result).Inc()
}
