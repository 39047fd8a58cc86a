package commission

import "time"

// MetricsCollector receives generation telemetry.
type MetricsCollector interface {
	RecordGeneration(outcome string, duration time.Duration)
	RecordCommission(level int, amount float64)
	RecordError(operation, reason string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordGeneration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordCommission(int, float64)          {}
func (n *NoopMetricsCollector) RecordError(string, string)             {}
