package monitoring

import (
	"github.com/gemtrade/marketplace/src/utils/monitoring/report"

	"github.com/prometheus/client_golang/prometheus"
)

// Monitor stores and computes counters for one component family
type Monitor interface {
	GetReport() *report.Report
	GetPrometheusCollector() prometheus.Collector

	// Health check used by the watchdog
	IsOK() bool
}
