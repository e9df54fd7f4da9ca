package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector of the service on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration  *prometheus.HistogramVec
	DBQueryErrors    *prometheus.CounterVec
	DBOpenConns      *prometheus.GaugeVec
	DBInUseConns     *prometheus.GaugeVec
	DBIdleConns      *prometheus.GaugeVec
	DBWaitCount      *prometheus.GaugeVec
	DBTxRetriesTotal *prometheus.CounterVec

	ReservationsTotal     *prometheus.CounterVec
	ClaimOutcomesTotal    *prometheus.CounterVec
	PaymentOpsTotal       *prometheus.CounterVec
	SweeperAbandonedTotal *prometheus.CounterVec
	SweeperRunDuration    *prometheus.HistogramVec
}

// New registers all collectors under the given service label.
func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),

		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_query_errors_total",
			Help:        "Database query errors",
			ConstLabels: constLabels,
		}, []string{"operation"}),

		DBOpenConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Open connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBInUseConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Connections currently in use",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBIdleConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Idle connections in the pool",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{"db"}),

		DBTxRetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_tx_retries_total",
			Help:        "Transactions retried after a serialization failure",
			ConstLabels: constLabels,
		}, []string{"isolation"}),

		ReservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reservations_total",
			Help:        "Reservation state transitions",
			ConstLabels: constLabels,
		}, []string{"status"}),

		ClaimOutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "assignment_claims_total",
			Help:        "Role offer claim attempts by outcome",
			ConstLabels: constLabels,
		}, []string{"outcome"}),

		PaymentOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "payment_operations_total",
			Help:        "Payment gateway operations by result",
			ConstLabels: constLabels,
		}, []string{"operation", "result"}),

		SweeperAbandonedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "sweeper_abandoned_total",
			Help:        "Reservations released by the expiry sweeper",
			ConstLabels: constLabels,
		}, []string{"result"}),

		SweeperRunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "sweeper_run_duration_seconds",
			Help:        "Duration of one sweeper pass",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{}),
	}

	for _, c := range []prometheus.Collector{
		m.HTTPRequestsTotal, m.HTTPRequestDuration,
		m.DBQueryDuration, m.DBQueryErrors, m.DBOpenConns, m.DBInUseConns, m.DBIdleConns, m.DBWaitCount, m.DBTxRetriesTotal,
		m.ReservationsTotal, m.ClaimOutcomesTotal, m.PaymentOpsTotal, m.SweeperAbandonedTotal, m.SweeperRunDuration,
	} {
		reg.MustRegister(c)
	}

	return m
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The helpers below are nil-safe so components can run without metrics.

func (m *Metrics) IncReservation(status string) {
	if m == nil {
		return
	}
	m.ReservationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncClaimOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ClaimOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncPaymentOp(operation, result string) {
	if m == nil {
		return
	}
	m.PaymentOpsTotal.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) IncSweeperAbandoned(result string) {
	if m == nil {
		return
	}
	m.SweeperAbandonedTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSweeperRun(seconds float64) {
	if m == nil {
		return
	}
	m.SweeperRunDuration.WithLabelValues().Observe(seconds)
}

func (m *Metrics) IncTxRetry(isolation string) {
	if m == nil {
		return
	}
	m.DBTxRetriesTotal.WithLabelValues(isolation).Inc()
}
