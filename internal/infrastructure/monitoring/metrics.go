package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Context lifecycle
	ContextsActive   prometheus.Gauge
	ContextsCreated  prometheus.Counter
	ContextsDisposed prometheus.Counter
	ContextFailures  prometheus.Counter

	// Value cache
	BuiltinInits *prometheus.CounterVec

	// Cross-context registry
	CrossContextOps     *prometheus.CounterVec
	CrossContextEntries prometheus.Gauge

	// Scope stack
	ScopeDepth prometheus.Gauge

	// Script execution
	ScriptDuration *prometheus.HistogramVec

	// Debug HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// System metrics
	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// Cross-context operation labels
const (
	OpRegister   = "register"
	OpHit        = "hit"
	OpUnregister = "unregister"
	OpFinalize   = "finalize"
	OpRevoke     = "revoke"
)

// NewMetrics creates a metrics collector registered against reg.
// A nil reg uses the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{startTime: time.Now()}

	m.ContextsActive = factory.NewGauge(prometheus.GaugeOpts{
		Name: "jsrt_contexts_active",
		Help: "Number of live contexts",
	})
	m.ContextsCreated = factory.NewCounter(prometheus.CounterOpts{
		Name: "jsrt_contexts_created_total",
		Help: "Total number of contexts created",
	})
	m.ContextsDisposed = factory.NewCounter(prometheus.CounterOpts{
		Name: "jsrt_contexts_disposed_total",
		Help: "Total number of contexts disposed",
	})
	m.ContextFailures = factory.NewCounter(prometheus.CounterOpts{
		Name: "jsrt_context_init_failures_total",
		Help: "Total number of contexts that failed initialization",
	})
	m.BuiltinInits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsrt_builtin_inits_total",
			Help: "Built-in cache slot initializations",
		},
		[]string{"status"},
	)
	m.CrossContextOps = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsrt_cross_context_ops_total",
			Help: "Cross-context registry operations",
		},
		[]string{"op"},
	)
	m.CrossContextEntries = factory.NewGauge(prometheus.GaugeOpts{
		Name: "jsrt_cross_context_entries",
		Help: "Live cross-context registry entries",
	})
	m.ScopeDepth = factory.NewGauge(prometheus.GaugeOpts{
		Name: "jsrt_scope_depth",
		Help: "Current context scope stack depth",
	})
	m.ScriptDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jsrt_script_duration_seconds",
			Help:    "Script run duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"status"},
	)
	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jsrt_debug_http_requests_total",
			Help: "Total number of debug HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jsrt_debug_http_request_duration_seconds",
			Help:    "Debug HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "jsrt_uptime_seconds",
			Help: "Host uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// All recorders accept a nil receiver so components can run without metrics.

// ContextCreated records a successfully initialized context
func (m *Metrics) ContextCreated() {
	if m == nil {
		return
	}
	m.ContextsCreated.Inc()
	m.ContextsActive.Inc()
}

// ContextDisposed records a context teardown
func (m *Metrics) ContextDisposed() {
	if m == nil {
		return
	}
	m.ContextsDisposed.Inc()
	m.ContextsActive.Dec()
}

// ContextFailed records a context whose initialization failed
func (m *Metrics) ContextFailed() {
	if m == nil {
		return
	}
	m.ContextFailures.Inc()
}

// RecordBuiltinInit records one cache slot initialization attempt
func (m *Metrics) RecordBuiltinInit(err error) {
	if m == nil {
		return
	}
	m.BuiltinInits.WithLabelValues(status(err)).Inc()
}

// RecordCrossContext records a registry operation and the entry delta it caused
func (m *Metrics) RecordCrossContext(op string, delta int) {
	if m == nil {
		return
	}
	m.CrossContextOps.WithLabelValues(op).Inc()
	if delta != 0 {
		m.CrossContextEntries.Add(float64(delta))
	}
}

// SetScopeDepth sets the current scope stack depth
func (m *Metrics) SetScopeDepth(depth int) {
	if m == nil {
		return
	}
	m.ScopeDepth.Set(float64(depth))
}

// ObserveScript records a script run
func (m *Metrics) ObserveScript(duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.ScriptDuration.WithLabelValues(status(err)).Observe(duration.Seconds())
}

// RecordHTTPRequest records a debug HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, code string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, code).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
