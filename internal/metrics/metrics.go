// Package metrics exports Prometheus collectors for commission generation,
// payout settlement and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mlm"

// Registry owns every collector of the process.
type Registry struct {
	reg *prometheus.Registry

	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	commissions        *prometheus.CounterVec
	commissionAmount   *prometheus.CounterVec
	settlements        prometheus.Counter
	settledEntries     prometheus.Counter
	settledAmount      prometheus.Counter
	errors             *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Registry{
		reg: reg,
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commission",
			Name:      "generations_total",
			Help:      "Commission generation runs by outcome.",
		}, []string{"outcome"}),
		generationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "commission",
			Name:      "generation_duration_seconds",
			Help:      "Time spent generating commissions for one order.",
			Buckets:   prometheus.DefBuckets,
		}),
		commissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commission",
			Name:      "entries_total",
			Help:      "Ledger entries written by level.",
		}, []string{"level"}),
		commissionAmount: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "commission",
			Name:      "amount_total",
			Help:      "Commission amount written by level.",
		}, []string{"level"}),
		settlements: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "settlements_total",
			Help:      "Settlement runs that paid at least one entry.",
		}),
		settledEntries: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "entries_total",
			Help:      "Ledger entries moved to paid.",
		}),
		settledAmount: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "payout",
			Name:      "amount_total",
			Help:      "Commission amount moved to paid.",
		}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Failed operations by operation and reason.",
		}, []string{"operation", "reason"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "path", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_time_seconds",
			Help:      "Histogram of response times.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

// Gatherer exposes the underlying registry, mainly for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// Handler serves the exposition format.
func (r *Registry) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
}

// Middleware records count and latency per route. The route pattern is used
// as the path label so ids do not explode cardinality.
func (r *Registry) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		r.httpRequests.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())
		return err
	}
}

// Commission returns the collector the commission service reports to.
func (r *Registry) Commission() *CommissionCollector {
	return &CommissionCollector{r: r}
}

// Payout returns the collector the payout service reports to.
func (r *Registry) Payout() *PayoutCollector {
	return &PayoutCollector{r: r}
}

type CommissionCollector struct {
	r *Registry
}

func (c *CommissionCollector) RecordGeneration(outcome string, duration time.Duration) {
	c.r.generations.WithLabelValues(outcome).Inc()
	c.r.generationDuration.Observe(duration.Seconds())
}

func (c *CommissionCollector) RecordCommission(level int, amount float64) {
	label := strconv.Itoa(level)
	c.r.commissions.WithLabelValues(label).Inc()
	c.r.commissionAmount.WithLabelValues(label).Add(amount)
}

func (c *CommissionCollector) RecordError(operation, reason string) {
	c.r.errors.WithLabelValues(operation, reason).Inc()
}

type PayoutCollector struct {
	r *Registry
}

func (p *PayoutCollector) RecordSettlement(count int64, total float64) {
	if count == 0 {
		return
	}
	p.r.settlements.Inc()
	p.r.settledEntries.Add(float64(count))
	p.r.settledAmount.Add(total)
}

func (p *PayoutCollector) RecordError(operation, reason string) {
	p.r.errors.WithLabelValues(operation, reason).Inc()
}
