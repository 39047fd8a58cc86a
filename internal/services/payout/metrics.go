package payout

// MetricsCollector receives settlement telemetry.
type MetricsCollector interface {
	RecordSettlement(count int64, total float64)
	RecordError(operation, reason string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordSettlement(int64, float64) {}
func (n *NoopMetricsCollector) RecordError(string, string)      {}
